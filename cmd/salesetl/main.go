// Command salesetl runs the grocery sales ETL: it merges the sales table with
// the per-store attribute file, keeps high-sales rows around holiday months,
// and writes the cleaned table and its monthly averages as CSV.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/config"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/etlerr"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/load"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/logger"
	"github.com/COLLLINS-001/WallMart-ETL-pipeline/internal/pipeline"

	"github.com/spf13/cobra"
)

// Exit codes
const (
	ExitSuccess       = 0
	ExitConfigError   = 1
	ExitStageError    = 2
	ExitOutputMissing = 3
)

// Build information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
)

// exitError carries the process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type options struct {
	configPath string
	envFile    string
	verbose    bool
	quiet      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI with args and returns the exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "salesetl: %v\n", ee.err)
		}
		return ee.code
	}
	// Flag and argument errors from cobra.
	fmt.Fprintf(stderr, "salesetl: %v\n", err)
	return ExitConfigError
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "salesetl",
		Short: "Grocery sales batch ETL",
		Long: `salesetl merges the grocery_sales table with extra_data.parquet on
Store_ID, fills missing values, keeps rows with Weekly_Sales above 10000 in
months around a holiday, and writes clean_data.csv and agg_data.csv.

Configuration comes from an optional JSON or YAML pipeline file, then from
SALESETL_* environment variables (optionally loaded from a .env file).

Exit codes:
  0 - success
  1 - invalid configuration or usage
  2 - a pipeline stage failed
  3 - the output file is missing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "pipeline config file (.json, .yaml, .yml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file loaded before reading SALESETL_* variables")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logs")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")

	root.AddCommand(
		newRunCmd(opts, stdout, stderr),
		newValidateConfigCmd(opts, stdout, stderr),
		newCheckCmd(opts, stdout, stderr),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(stdout, "salesetl %s (%s)\n", version, commit)
			},
		},
	)
	return root
}

func newRunCmd(opts *options, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline end to end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, stderr)
			if err != nil {
				return err
			}

			sum, err := pipeline.Run(cmd.Context(), cfg)
			if err != nil {
				if errors.Is(err, pipeline.ErrOutputMissing) {
					return &exitError{code: ExitOutputMissing, err: err}
				}
				return &exitError{code: ExitStageError, err: fmt.Errorf("%s stage failed (%s): %w", sum.FailedStage, kindName(err), err)}
			}

			if !opts.quiet {
				fmt.Fprintf(stdout, "run %s: %d merged rows, %d cleaned rows, %d months\n",
					sum.RunID, sum.MergedRows, sum.CleanedRows, sum.Months)
				printReport(stdout, sum.Cleaned)
				printReport(stdout, sum.Aggregate)
			}
			return nil
		},
	}
}

func newValidateConfigCmd(opts *options, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Lint the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadConfig(opts, stderr); err != nil {
				return err
			}
			if !opts.quiet {
				fmt.Fprintln(stdout, "configuration is valid")
			}
			return nil
		},
	}
}

func newCheckCmd(opts *options, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "check PATH",
		Short: "Report whether an output file exists, with its size and fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configureLogger(opts, config.Log{}, stderr); err != nil {
				return &exitError{code: ExitConfigError, err: err}
			}
			path := args[0]
			if !load.Validate(path) {
				fmt.Fprintf(stdout, "%s: File DOES NOT Exist\n", path)
				return &exitError{code: ExitOutputMissing}
			}
			rep, err := load.Inspect(path)
			if err != nil {
				return &exitError{code: ExitStageError, err: err}
			}
			fmt.Fprintf(stdout, "%s: File Exists\n", path)
			printReport(stdout, rep)
			return nil
		},
	}
}

// loadConfig loads, validates and applies the logging settings. Issues are
// printed to stderr; any error-level issue fails with ExitConfigError.
func loadConfig(opts *options, stderr io.Writer) (config.Pipeline, error) {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return config.Pipeline{}, &exitError{code: ExitConfigError, err: err}
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Pipeline{}, &exitError{code: ExitConfigError, err: err}
	}

	issues := config.ValidatePipeline(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		src := opts.configPath
		if src == "" {
			src = "defaults and environment"
		}
		return config.Pipeline{}, &exitError{code: ExitConfigError, err: fmt.Errorf("configuration is invalid: %s", src)}
	}

	if err := configureLogger(opts, cfg.Log, stderr); err != nil {
		return config.Pipeline{}, &exitError{code: ExitConfigError, err: err}
	}
	return cfg, nil
}

// configureLogger applies the configured format and level; -v and -q take
// precedence over the configured level.
func configureLogger(opts *options, l config.Log, stderr io.Writer) error {
	level := l.Level
	switch {
	case opts.verbose:
		level = "debug"
	case opts.quiet:
		level = "error"
	}
	return logger.Configure(l.Format, level, stderr)
}

func printReport(w io.Writer, r load.Report) {
	fmt.Fprintf(w, "  %s: %d rows, %d bytes, xxh3 %s\n", r.Path, r.Rows, r.Size, r.Fingerprint)
}

func kindName(err error) string {
	if k := etlerr.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
