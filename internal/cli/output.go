package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/vk/plugflow/internal/executor"
	"github.com/vk/plugflow/internal/monitor"
	"github.com/vk/plugflow/internal/value"
)

// formatter renders command results in the configured format.
type formatter struct {
	Format string
	Writer io.Writer
}

// structured writes v as JSON or YAML. It reports false for text output.
func (f *formatter) structured(v any) (bool, error) {
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

// Report writes an evaluation report.
func (f *formatter) Report(r *executor.Report) error {
	if ok, err := f.structured(r); ok {
		return err
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLUG\tFRAME\tHASH\tVALUE")
	for _, res := range r.Results {
		var result string
		switch {
		case res.Cancelled:
			result = "cancelled"
		case res.Error != "":
			result = "error: " + res.Error
		case res.Value != nil:
			result = value.Format(res.Value)
		}
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\n", res.Plug, res.Frame, res.Hash, result)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f.Writer, "\nrun %s: %d results, %d failed, %d cancelled\n", r.RunID, len(r.Results), r.Failed, r.Cancelled)
	return err
}

// Stats writes per-plug performance statistics.
func (f *formatter) Stats(stats []monitor.Stats) error {
	if ok, err := f.structured(map[string]any{"stats": stats}); ok {
		return err
	}

	fmt.Fprintln(f.Writer)
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLUG\tHASHES\tCOMPUTES\tHASH HITS\tVALUE HITS\tERRORS\tCOMPUTE TIME")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			s.Plug, s.HashCount, s.ComputeCount, s.HashCacheHits, s.ValueCacheHits, s.Errors, s.ComputeDuration)
	}
	return tw.Flush()
}

// Types writes a list of node type names.
func (f *formatter) Types(types []string) error {
	if ok, err := f.structured(map[string]any{"types": types}); ok {
		return err
	}
	for _, t := range types {
		if _, err := fmt.Fprintln(f.Writer, t); err != nil {
			return err
		}
	}
	return nil
}
