package sqlgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/grizzly/internal/frame"
	"github.com/roach88/grizzly/internal/ir"
)

// Runner executes a parameterized query and returns all rows.
// *executor.Executor satisfies it.
type Runner interface {
	Query(ctx context.Context, sql string, params []ir.Value) (*ir.ResultSet, error)
}

// Printer writes a result set for Show.
// *output.Printer satisfies it.
type Printer interface {
	Print(rs *ir.ResultSet, opts frame.ShowOptions) error
}

// Recorder keeps a log of executed queries. *store.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, dialect, sql string, params []ir.Value, rowCount int) error
}

// ErrNoRunner is returned when a query must run but no Runner is set.
var ErrNoRunner = errors.New("sqlgen: no database connection configured")

// Generator implements frame.Generator on top of a Compiler.
//
// Runner is needed by Aggregate and Execute, Printer by Execute. History is
// optional; recording failures are logged and never fail the query.
type Generator struct {
	Compiler *Compiler
	Runner   Runner
	Printer  Printer
	History  Recorder
}

var _ frame.Generator = (*Generator)(nil)

// NewGenerator creates a Generator for d without a database.
func NewGenerator(d Dialect) *Generator {
	return &Generator{Compiler: NewCompiler(d)}
}

// Generate renders the SQL for n with literals inlined.
func (g *Generator) Generate(n frame.Node) (string, error) {
	return g.compiler().Render(n)
}

// ToString renders n, or a comment describing the failure followed by the
// tree outline.
func (g *Generator) ToString(n frame.Node) string {
	sql, err := g.Generate(n)
	if err != nil {
		return fmt.Sprintf("-- cannot render query: %v\n%s", err, frame.Describe(n))
	}
	return sql
}

// Aggregate runs kind over col and returns the result rows: one row for an
// ungrouped frame, one per group otherwise.
func (g *Generator) Aggregate(ctx context.Context, n frame.Node, col string, kind frame.AggregateKind) (*ir.ResultSet, error) {
	q, err := g.compiler().CompileAggregate(n, col, kind)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", kind, err)
	}
	return g.run(ctx, q)
}

// Execute runs n and prints the result through the Printer.
func (g *Generator) Execute(ctx context.Context, n frame.Node, opts frame.ShowOptions) error {
	if g.Printer == nil {
		return errors.New("sqlgen: no printer configured")
	}
	rs, err := g.Fetch(ctx, n)
	if err != nil {
		return err
	}
	if err := g.Printer.Print(rs, opts); err != nil {
		return fmt.Errorf("print result: %w", err)
	}
	return nil
}

// Fetch runs n and returns all rows.
func (g *Generator) Fetch(ctx context.Context, n frame.Node) (*ir.ResultSet, error) {
	q, err := g.compiler().Compile(n)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	return g.run(ctx, q)
}

// Dialect returns the compiler's dialect.
func (g *Generator) Dialect() Dialect {
	return g.compiler().dialect()
}

func (g *Generator) run(ctx context.Context, q Query) (*ir.ResultSet, error) {
	if g.Runner == nil {
		return nil, ErrNoRunner
	}
	dialect := g.compiler().dialect().Name()
	slog.Debug("running query", "dialect", dialect, "sql", q.SQL, "params", len(q.Params))

	rs, err := g.Runner.Query(ctx, q.SQL, q.Params)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	if g.History != nil {
		if err := g.History.Record(ctx, dialect, q.SQL, q.Params, rs.Len()); err != nil {
			slog.Warn("failed to record query history", "error", err)
		}
	}
	return rs, nil
}

func (g *Generator) compiler() *Compiler {
	if g.Compiler == nil {
		return NewCompiler(nil)
	}
	return g.Compiler
}
