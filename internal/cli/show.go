package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/grizzly/internal/config"
	"github.com/roach88/grizzly/internal/ir"
	"github.com/roach88/grizzly/internal/pipeline"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Pipeline    string
	Pretty      bool
	Delimiter   string
	MaxColWidth int
	Driver      string
	DSN         string
	NoHistory   bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Run a pipeline and print its rows",
		Long: `Compile one pipeline, run it against the configured database and
print the result.

Plain output writes a header line and one line per row joined by the
delimiter. --pretty draws a table and truncates wide cells. Executed queries
are recorded in the history database unless --no-history is given.

Examples:
  grizzly show ./pipelines/events.yaml --pipeline events_actors
  grizzly show ./pipelines --pipeline actor2_count --dsn gdelt.db
  grizzly show ./pipelines/events.yaml -p events_actors --pretty --max-col-width 30`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Pipeline, "pipeline", "p", "", "pipeline to run (required when the path defines several)")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "draw a table")
	cmd.Flags().StringVar(&opts.Delimiter, "delim", ",", "field delimiter for plain output")
	cmd.Flags().IntVar(&opts.MaxColWidth, "max-col-width", 20, "maximum cell width for --pretty")
	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite|postgres|mysql)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "database connection string")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "do not record the query")

	return cmd
}

func runShow(ctx context.Context, opts *ShowOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	if err := applyShowFlags(cfg, opts, cmd); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	ps, err := loadPipelines(path, opts.Pipeline)
	if err != nil {
		return failLoad(formatter, err)
	}
	if len(ps) != 1 {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Errorf("%s defines %d pipelines; choose one with --pipeline", path, len(ps)))
	}
	p := ps[0]

	rt, err := openRuntime(ctx, cfg, formatter.Writer)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err)
	}
	defer rt.Close()

	res, err := pipeline.Build(rt.session, p)
	if err != nil {
		return formatter.Fail(ExitFailure, compileCode(err), err)
	}
	formatter.VerboseLog("Running pipeline %s on %s", p.Name, rt.exec.Driver())

	if formatter.IsJSON() {
		rs, err := fetch(ctx, rt, res)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeDatabase, err)
		}
		return formatter.Success(rs)
	}

	if err := res.Show(ctx, rt.printer, cfg.ShowOptions()); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeDatabase, err)
	}
	return nil
}

// applyShowFlags layers explicitly set flags over the loaded config.
func applyShowFlags(cfg *config.Config, opts *ShowOptions, cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("pretty") {
		cfg.Show.Pretty = opts.Pretty
	}
	if flags.Changed("delim") {
		cfg.Show.Delimiter = opts.Delimiter
	}
	if flags.Changed("max-col-width") {
		cfg.Show.MaxColWidth = opts.MaxColWidth
	}
	if flags.Changed("driver") {
		cfg.Database.Driver = opts.Driver
		cfg.Dialect = ""
	}
	if flags.Changed("dsn") {
		cfg.Database.DSN = opts.DSN
	}
	if opts.NoHistory {
		cfg.History.Enabled = false
	}
	return cfg.Validate()
}

// fetch materializes the pipeline output without printing it.
func fetch(ctx context.Context, rt *runtime, res *pipeline.Result) (*ir.ResultSet, error) {
	kind, ok, err := res.Pipeline.AggregateKind()
	if err != nil {
		return nil, err
	}
	if ok {
		return res.Output.Aggregate(ctx, res.Pipeline.Aggregate.Column, kind)
	}
	return rt.gen.Fetch(ctx, res.Output.Node())
}
