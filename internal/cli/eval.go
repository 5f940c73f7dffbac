package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk/plugflow/internal/app"
	"github.com/vk/plugflow/internal/executor"
)

// evalOptions holds the flags shared by eval and hash.
type evalOptions struct {
	plugs           []string
	overrides       []string
	start, end      float64
	step            float64
	notifyURL       string
	notifyNamespace string
	stats           bool
}

func newEvalCommand(rootOpts *RootOptions) *cobra.Command {
	return newEvaluateCommand(rootOpts, executor.ModeValue, "eval", "Evaluate plugs over a frame range")
}

func newHashCommand(rootOpts *RootOptions) *cobra.Command {
	return newEvaluateCommand(rootOpts, executor.ModeHash, "hash", "Print plug hashes over a frame range without computing values")
}

func newEvaluateCommand(rootOpts *RootOptions, mode executor.Mode, use, short string) *cobra.Command {
	opts := &evalOptions{}
	cmd := &cobra.Command{
		Use:   use + " <graph-path>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, rootOpts, opts, mode, args)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.plugs, "plug", "p", nil, "Plug to evaluate, e.g. 'b.out'. Repeatable. Defaults to every unconnected output.")
	flags.StringArrayVar(&opts.overrides, "set", nil, "Override a plug before evaluating, e.g. 'b.b=3' or 'b.a=c.out'. Repeatable.")
	flags.Float64Var(&opts.start, "start", 1, "First frame.")
	flags.Float64Var(&opts.end, "end", 0, "Last frame. Defaults to the first frame.")
	flags.Float64Var(&opts.step, "step", 1, "Frame increment.")
	flags.StringVar(&opts.notifyURL, "notify-url", "", "socket.io server receiving graph change events.")
	flags.StringVar(&opts.notifyNamespace, "notify-namespace", "/", "socket.io namespace for graph change events.")
	flags.BoolVar(&opts.stats, "stats", false, "Print per-plug performance statistics.")
	return cmd
}

func runEvaluate(cmd *cobra.Command, rootOpts *RootOptions, opts *evalOptions, mode executor.Mode, paths []string) error {
	end := opts.end
	if !cmd.Flags().Changed("end") {
		end = opts.start
	}
	cfg, err := app.NewConfig(app.Config{
		GraphPaths:      paths,
		VariablesPath:   rootOpts.VariablesPath,
		Plugs:           opts.plugs,
		Overrides:       opts.overrides,
		FrameStart:      opts.start,
		FrameEnd:        end,
		FrameStep:       opts.step,
		WorkerCount:     rootOpts.Workers,
		MemoryLimit:     rootOpts.MemoryLimit,
		HashCacheSize:   rootOpts.HashCacheSize,
		LogFormat:       rootOpts.LogFormat,
		LogLevel:        rootOpts.LogLevel,
		HealthcheckPort: rootOpts.HealthcheckPort,
		NotifyURL:       opts.notifyURL,
		NotifyNamespace: opts.notifyNamespace,
	})
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "invalid configuration", Err: err}
	}

	a, err := app.NewApp(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "startup failed", Err: err}
	}

	report, runErr := a.Run(cmd.Context(), mode)
	if report == nil {
		return &ExitError{Code: ExitCommandError, Message: "evaluation failed", Err: runErr}
	}
	out := &formatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	if err := out.Report(report); err != nil {
		return err
	}
	if opts.stats {
		if err := out.Stats(a.Performance()); err != nil {
			return err
		}
	}
	if runErr != nil {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d of %d evaluations failed", report.Failed, len(report.Results)), Err: runErr}
	}
	return nil
}
