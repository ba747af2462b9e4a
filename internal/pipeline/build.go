package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/grizzly/internal/frame"
	"github.com/roach88/grizzly/internal/ir"
	"github.com/roach88/grizzly/internal/sqlgen"
)

// Result holds the frames built for a pipeline.
type Result struct {
	Pipeline *Pipeline

	// Frames maps every step name to its frame.
	Frames map[string]*frame.DataFrame

	// Output is the frame named by Pipeline.OutputName.
	Output *frame.DataFrame
}

// Build validates p and builds its frames in s. Structural errors raised by
// the frame builder are returned wrapped in *Error, so frame.StructuralCode
// still sees them.
func Build(s *frame.Session, p *Pipeline) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b := &builder{frames: make(map[string]*frame.DataFrame, len(p.Frames))}
	for i := range p.Frames {
		step := &p.Frames[i]
		df, err := b.step(s, step)
		if err != nil {
			return nil, &Error{Pipeline: p.Name, Frame: step.Name, Err: err}
		}
		b.frames[step.Name] = df
	}

	return &Result{
		Pipeline: p,
		Frames:   b.frames,
		Output:   b.frames[p.OutputName()],
	}, nil
}

type builder struct {
	frames map[string]*frame.DataFrame
}

func (b *builder) step(s *frame.Session, step *Step) (*frame.DataFrame, error) {
	if step.Table != "" {
		return s.Table(step.Table, step.Columns...), nil
	}

	src := b.frames[step.From]
	switch step.Operation() {
	case "filter":
		expr, err := b.predicate(step.Filter, step.From)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		return src.Filter(expr), nil
	case "select":
		return src.Project(step.Select...), nil
	case "distinct":
		return src.Distinct(), nil
	case "group_by":
		return src.GroupBy(step.GroupBy...), nil
	case "join":
		return b.join(src, step)
	default:
		return nil, errors.New("step has no operation")
	}
}

func (b *builder) join(left *frame.DataFrame, step *Step) (*frame.DataFrame, error) {
	j := step.Join
	right := b.frames[j.Right]

	var opts []frame.JoinOption
	if j.How != "" {
		opts = append(opts, frame.WithHow(j.How))
	}
	if j.Comparator != "" {
		opts = append(opts, frame.WithComparator(j.Comparator))
	}

	var on frame.JoinCondition
	if j.On != nil {
		expr, err := b.predicate(j.On, step.From)
		if err != nil {
			return nil, fmt.Errorf("join: %w", err)
		}
		on = expr
	} else {
		on = frame.ColumnPair{Left: j.Using[0], Right: j.Using[1]}
	}
	return left.Join(right, on, opts...)
}

// predicate converts p to an expression. owner is the frame that unqualified
// columns belong to.
func (b *builder) predicate(p *Predicate, owner string) (frame.Expr, error) {
	if len(p.And) > 0 || len(p.Or) > 0 {
		parts := p.And
		combine := frame.AllOf
		if len(p.Or) > 0 {
			parts = p.Or
			combine = frame.AnyOf
		}
		exprs := make([]frame.Expr, len(parts))
		for i := range parts {
			e, err := b.predicate(&parts[i], owner)
			if err != nil {
				return nil, err
			}
			exprs[i] = e
		}
		return combine(exprs...), nil
	}

	left, err := b.column(p.Frame, p.Column, owner)
	if err != nil {
		return nil, err
	}
	op, err := frame.ParseCompareOp(p.Op)
	if err != nil {
		return nil, err
	}

	var right any
	if p.Ref != nil {
		right, err = b.column(p.Ref.Frame, p.Ref.Column, owner)
		if err != nil {
			return nil, err
		}
	} else {
		v, err := ir.FromAny(p.Value)
		if err != nil {
			return nil, fmt.Errorf("value for %s: %w", p.Column, err)
		}
		right = frame.Literal{Value: v}
	}
	return compare(left, op, right)
}

func (b *builder) column(frameName, column, owner string) (*frame.DataFrame, error) {
	if frameName == "" {
		frameName = owner
	}
	df, ok := b.frames[frameName]
	if !ok {
		return nil, fmt.Errorf("frame %q is not defined", frameName)
	}
	return df.Col(column), nil
}

func compare(col *frame.DataFrame, op frame.CompareOp, other any) (frame.Expr, error) {
	switch op {
	case frame.Equal:
		return col.Eq(other)
	case frame.NotEqual:
		return col.Ne(other)
	case frame.LessThan:
		return col.Lt(other)
	case frame.LessOrEqual:
		return col.Le(other)
	case frame.GreaterThan:
		return col.Gt(other)
	case frame.GreaterOrEqual:
		return col.Ge(other)
	default:
		return nil, fmt.Errorf("unsupported operator %s", op)
	}
}

// ErrCompile marks errors raised by the SQL compiler rather than by the
// pipeline shape or the frame builder.
var ErrCompile = errors.New("compile")

// Compile compiles the output frame, or its aggregate, to parameterized SQL.
func (r *Result) Compile(c *sqlgen.Compiler) (sqlgen.Query, error) {
	kind, ok, err := r.Pipeline.AggregateKind()
	if err != nil {
		return sqlgen.Query{}, err
	}
	var q sqlgen.Query
	if ok {
		q, err = c.CompileAggregate(r.Output.Node(), r.aggregateColumn(kind), kind)
	} else {
		q, err = c.Compile(r.Output.Node())
	}
	if err != nil {
		return sqlgen.Query{}, r.compileError(err)
	}
	return q, nil
}

// Render is Compile with literals inlined.
func (r *Result) Render(c *sqlgen.Compiler) (string, error) {
	kind, ok, err := r.Pipeline.AggregateKind()
	if err != nil {
		return "", err
	}
	var sql string
	if ok {
		sql, err = c.RenderAggregate(r.Output.Node(), r.aggregateColumn(kind), kind)
	} else {
		sql, err = c.Render(r.Output.Node())
	}
	if err != nil {
		return "", r.compileError(err)
	}
	return sql, nil
}

func (r *Result) compileError(err error) error {
	return &Error{
		Pipeline: r.Pipeline.Name,
		Frame:    r.Pipeline.OutputName(),
		Err:      fmt.Errorf("%w: %w", ErrCompile, err),
	}
}

// Show materializes the output. An aggregate is computed through the
// session's generator and printed with p; otherwise the output frame is shown
// directly.
func (r *Result) Show(ctx context.Context, p sqlgen.Printer, opts frame.ShowOptions) error {
	kind, ok, err := r.Pipeline.AggregateKind()
	if err != nil {
		return err
	}
	if !ok {
		return r.Output.Show(ctx, opts)
	}
	rs, err := r.Output.Aggregate(ctx, r.Pipeline.Aggregate.Column, kind)
	if err != nil {
		return err
	}
	return p.Print(rs, opts)
}

// Warnings returns the provenance warnings of the output tree.
func (r *Result) Warnings() []string {
	return frame.Validate(r.Output.Node()).Warnings
}

// aggregateColumn mirrors DataFrame.Aggregate: COUNT without a column counts
// rows.
func (r *Result) aggregateColumn(kind frame.AggregateKind) string {
	col := r.Pipeline.Aggregate.Column
	if kind == frame.AggregateCount && col == "" {
		return frame.WildcardColumn
	}
	return col
}
