package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Some evaluations failed
	ExitCommandError = 2 // Invalid flags, arguments or graph files
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// GetExitCode extracts the exit code from an error. Errors other than
// ExitError map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format          string
	LogLevel        string
	LogFormat       string
	VariablesPath   string
	Workers         int
	MemoryLimit     int64
	HashCacheSize   int
	HealthcheckPort int
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command of the plugflow CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "plugflow",
		Short: "plugflow - a lazily evaluated, cached plug graph",
		Long: `plugflow loads a node graph from HCL files and evaluates plugs on demand.

Values are cached by content hash, so repeated and concurrent requests for
the same plug in the same context compute once.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)}
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.Format, "format", "text", "Output format. Options: 'text', 'json' or 'yaml'.")
	flags.StringVar(&opts.LogLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&opts.LogFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&opts.VariablesPath, "vars", "", "YAML file of context variables.")
	flags.IntVar(&opts.Workers, "workers", 0, "Number of concurrent evaluation workers. 0 uses every CPU.")
	flags.Int64Var(&opts.MemoryLimit, "cache-memory", 0, "Value cache memory limit in bytes. 0 keeps the default.")
	flags.IntVar(&opts.HashCacheSize, "hash-cache-size", 0, "Hash cache entry limit. 0 keeps the default.")
	flags.IntVar(&opts.HealthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")

	cmd.AddCommand(newEvalCommand(opts))
	cmd.AddCommand(newHashCommand(opts))
	cmd.AddCommand(newDotCommand(opts))
	cmd.AddCommand(newTypesCommand(opts))
	return cmd
}
