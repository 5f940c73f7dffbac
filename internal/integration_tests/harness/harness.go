// Package harness runs the application end to end over HCL files written to
// a temporary directory.
package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/app"
	"github.com/vk/plugflow/internal/executor"
	"github.com/vk/plugflow/internal/registry"
	"github.com/vk/plugflow/internal/testutil"
)

// Result holds the outcome of an integration run.
type Result struct {
	Report *executor.Report
	Err    error
	App    *app.App

	logs *testutil.SafeBuffer
}

// LogOutput returns everything the app has logged so far.
func (r *Result) LogOutput() string {
	if r.logs == nil {
		return ""
	}
	return r.logs.String()
}

// Values returns the value of every successful result keyed by plug path
// and frame.
func (r *Result) Values() map[string]map[float64]any {
	out := map[string]map[float64]any{}
	if r.Report == nil {
		return out
	}
	for _, res := range r.Report.Results {
		if res.Err() != nil {
			continue
		}
		if out[res.Plug] == nil {
			out[res.Plug] = map[float64]any{}
		}
		out[res.Plug][res.Frame] = res.Value
	}
	return out
}

// WriteFiles writes files, keyed by path relative to a fresh temporary
// directory, and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// Load writes files and builds an app over them without evaluating
// anything. An empty cfg.GraphPaths means the whole directory.
func Load(t *testing.T, files map[string]string, cfg app.Config, modules ...registry.Module) *Result {
	t.Helper()
	dir := WriteFiles(t, files)
	if len(cfg.GraphPaths) == 0 {
		cfg.GraphPaths = []string{dir}
	} else {
		for i, p := range cfg.GraphPaths {
			cfg.GraphPaths[i] = filepath.Join(dir, p)
		}
	}
	if cfg.VariablesPath != "" {
		cfg.VariablesPath = filepath.Join(dir, cfg.VariablesPath)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return &Result{Err: err}
	}
	logBuffer := &testutil.SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("PLUGFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	a, err := app.NewApp(logBuffer, config, modules...)
	return &Result{Err: err, App: a, logs: logBuffer}
}

// Run loads files like Load and then evaluates the configured plugs.
func Run(t *testing.T, files map[string]string, cfg app.Config, mode executor.Mode, modules ...registry.Module) *Result {
	t.Helper()
	return RunWithContext(context.Background(), t, files, cfg, mode, modules...)
}

// RunWithContext is Run with a caller supplied context.
func RunWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config, mode executor.Mode, modules ...registry.Module) *Result {
	t.Helper()
	res := Load(t, files, cfg, modules...)
	if res.Err != nil {
		return res
	}
	res.Report, res.Err = res.App.Run(ctx, mode)
	return res
}
