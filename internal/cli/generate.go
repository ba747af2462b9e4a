package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/grizzly/internal/ir"
	"github.com/roach88/grizzly/internal/pipeline"
	"github.com/roach88/grizzly/internal/sqlgen"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Pipeline string
	Dialect  string
	Params   bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <path>",
		Short: "Print the SQL for pipelines",
		Long: `Compile pipelines to SQL without touching a database.

<path> is a YAML/CUE pipeline file or a directory of them. By default
literals are inlined; --params prints the placeholder form with its
parameters instead.

Examples:
  grizzly generate ./pipelines
  grizzly generate ./pipelines/events.yaml --pipeline events_actors --dialect postgres
  grizzly generate ./pipelines --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Pipeline, "pipeline", "p", "", "only generate the named pipeline")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "SQL dialect (sqlite|postgres|mysql); default from config")
	cmd.Flags().BoolVar(&opts.Params, "params", false, "print placeholders and parameters instead of inline literals")

	return cmd
}

func runGenerate(opts *GenerateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	dialect, err := resolveDialect(opts.RootOptions, opts.Dialect)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	ps, err := loadPipelines(path, opts.Pipeline)
	if err != nil {
		return failLoad(formatter, err)
	}

	snapshots := make([]*pipeline.Snapshot, 0, len(ps))
	for _, p := range ps {
		formatter.VerboseLog("Compiling pipeline: %s", p.Name)
		snap, err := pipeline.Capture(p, dialect)
		if err != nil {
			return formatter.Fail(ExitFailure, compileCode(err), err)
		}
		snapshots = append(snapshots, snap)
	}

	if formatter.IsJSON() {
		return formatter.Success(snapshots)
	}

	w := formatter.Writer
	for i, snap := range snapshots {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if len(snapshots) > 1 {
			fmt.Fprintf(w, "-- %s\n", snap.Pipeline)
		}
		if opts.Params {
			fmt.Fprintf(w, "%s;\n", snap.SQL)
			fmt.Fprintf(w, "-- params: %s\n", formatParams(snap.Params))
			continue
		}
		fmt.Fprintf(w, "%s;\n", snap.Rendered)
	}
	return nil
}

// resolveDialect picks the dialect flag, else the configured dialect.
func resolveDialect(opts *RootOptions, flag string) (sqlgen.Dialect, error) {
	if flag != "" {
		return sqlgen.DialectByName(flag)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return cfg.SQLDialect()
}

func formatParams(params []ir.Value) string {
	data, err := ir.MarshalCanonical(params)
	if err != nil {
		return fmt.Sprintf("%v", params)
	}
	return string(data)
}

// failLoad reports a pipeline load failure. Missing files and unknown
// pipeline names are command errors; invalid pipelines are failures.
func failLoad(formatter *OutputFormatter, err error) error {
	var notFound errPipelineNotFound
	if errors.As(err, &notFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, err)
	}
	code := ErrorCode(err)
	if code == ErrCodeLoadFailed {
		return formatter.Fail(ExitCommandError, code, err)
	}
	return formatter.Fail(ExitFailure, code, err)
}

// compileCode maps a build or compile error to its envelope code.
func compileCode(err error) string {
	if errors.Is(err, pipeline.ErrCompile) {
		return ErrCodeCompile
	}
	return ErrorCode(err)
}
