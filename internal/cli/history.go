package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/grizzly/internal/frame"
	"github.com/roach88/grizzly/internal/ir"
	"github.com/roach88/grizzly/internal/output"
	"github.com/roach88/grizzly/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit       int
	Fingerprint string
	DBPath      string
	Pretty      bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded query executions",
		Long: `List queries recorded by show, newest first.

With --fingerprint, list every execution of one query, oldest first.
Identical SQL with identical parameters on the same dialect always shares
a fingerprint.

Examples:
  grizzly history
  grizzly history --limit 5 --pretty
  grizzly history --fingerprint 3f1c... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum entries to list (0 for all)")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "list executions of one query")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "history database path (default from config)")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "draw a table")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	path := opts.DBPath
	if path == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
		}
		path = cfg.History.Path
	}

	// Opening would create an empty database; report nothing instead.
	if !historyExists(path) {
		if formatter.IsJSON() {
			return formatter.Success([]store.Entry{})
		}
		fmt.Fprintln(formatter.Writer, "No queries recorded")
		return nil
	}

	st, err := store.Open(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Errorf("open history: %w", err))
	}
	defer st.Close()

	var entries []store.Entry
	if opts.Fingerprint != "" {
		entries, err = st.ByFingerprint(ctx, opts.Fingerprint)
	} else {
		entries, err = st.List(ctx, opts.Limit)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeDatabase, err)
	}
	formatter.VerboseLog("Read %d history entries from %s", len(entries), path)

	if formatter.IsJSON() {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No queries recorded")
		return nil
	}

	showOpts := frame.ShowOptions{Delimiter: "\t", Pretty: opts.Pretty, MaxColWidth: 60}
	return output.NewPrinter(formatter.Writer).Print(historyResultSet(entries), showOpts)
}

// historyResultSet lays entries out as rows so they print like query results.
func historyResultSet(entries []store.Entry) *ir.ResultSet {
	rs := &ir.ResultSet{
		Columns: []string{"seq", "dialect", "rows", "fingerprint", "sql", "params"},
		Rows:    make([][]ir.Value, 0, len(entries)),
	}
	for _, e := range entries {
		rs.Rows = append(rs.Rows, []ir.Value{
			ir.Int(e.Seq),
			ir.String(e.Dialect),
			ir.Int(int64(e.RowCount)),
			ir.String(e.Fingerprint),
			ir.String(e.SQL),
			ir.String(e.Params),
		})
	}
	return rs
}
