package frame

import (
	"context"
	"fmt"

	"github.com/roach88/grizzly/internal/ir"
)

// DataFrame is a persistent handle over a relational node.
//
// Every chaining method returns a new DataFrame wrapping a new node; the
// receiver and its node are never modified and stay usable afterward.
type DataFrame struct {
	node    Node
	session *Session
}

// Node returns the relational node this frame wraps.
func (df *DataFrame) Node() Node { return df.node }

// Session returns the session the frame was built in.
func (df *DataFrame) Session() *Session { return df.session }

// Alias returns the node alias.
func (df *DataFrame) Alias() string { return df.node.Alias() }

// Columns returns the node's output columns.
func (df *DataFrame) Columns() []ColRef { return df.node.Columns() }

// HasColumn reports whether name is an output column of the frame.
func (df *DataFrame) HasColumn(name string) bool { return df.node.HasColumn(name) }

func (df *DataFrame) wrap(n Node) *DataFrame {
	return &DataFrame{node: n, session: df.session}
}

// Filter keeps rows matching expr. Each call adds one Filter node; chained
// filters are not merged here.
func (df *DataFrame) Filter(expr Expr) *DataFrame {
	return df.wrap(newFilter(df.node, expr))
}

// Project selects the named columns, in order.
func (df *DataFrame) Project(columns ...string) *DataFrame {
	return df.wrap(newProjection(df.node, refsNamed(df.node, columns), false))
}

// ProjectRefs selects the given column references, in order.
func (df *DataFrame) ProjectRefs(refs ...ColRef) *DataFrame {
	if refs == nil {
		refs = []ColRef{}
	}
	return df.wrap(newProjection(df.node, refs, false))
}

// Distinct selects all columns with duplicate rows removed.
func (df *DataFrame) Distinct() *DataFrame {
	return df.wrap(newProjection(df.node, nil, true))
}

// GroupBy groups rows by the named key columns. The keys become the output
// columns. Aggregate columns are not validated here.
func (df *DataFrame) GroupBy(columns ...string) *DataFrame {
	return df.wrap(newGrouping(df.node, refsNamed(df.node, columns)))
}

// GroupByRefs groups rows by the given column references.
func (df *DataFrame) GroupByRefs(keys ...ColRef) *DataFrame {
	return df.wrap(newGrouping(df.node, keys))
}

// JoinOption configures a Join.
type JoinOption func(*joinConfig)

type joinConfig struct {
	how        string
	comparator string
}

// WithHow sets the join kind tag ("inner", "left outer", ...). The tag is
// passed to the generator uninterpreted.
func WithHow(how string) JoinOption {
	return func(c *joinConfig) { c.how = how }
}

// WithComparator sets the operator used to compare a ColumnPair.
func WithComparator(comp string) JoinOption {
	return func(c *joinConfig) { c.comparator = comp }
}

// Join combines the frame with other.
//
// For a ColumnPair condition the left name must be a column of df and the
// right name a column of other (the left side is checked first). Expression
// conditions are not checked; bad references surface in the generator. The
// output columns are df's columns followed by other's.
func (df *DataFrame) Join(other *DataFrame, on JoinCondition, opts ...JoinOption) (*DataFrame, error) {
	if other == nil {
		return nil, structuralError(ErrCodeMissingOperand, "", "join requires a right-hand frame")
	}
	if on == nil {
		return nil, structuralError(ErrCodeMissingOperand, "", "join requires a condition")
	}

	cfg := joinConfig{how: "inner", comparator: "="}
	for _, opt := range opts {
		opt(&cfg)
	}

	if pair, ok := on.(ColumnPair); ok {
		if !df.HasColumn(pair.Left) {
			return nil, structuralError(ErrCodeJoinLeftColumn, pair.Left,
				"no such column %s for join in left hand side", pair.Left)
		}
		if !other.HasColumn(pair.Right) {
			return nil, structuralError(ErrCodeJoinRightColumn, pair.Right,
				"no such column %s for join in right hand side", pair.Right)
		}
	}

	return df.wrap(newJoin(df.node, other.node, on, cfg.how, cfg.comparator)), nil
}

// Col returns a single-column projection of name. The name is not checked:
// this is the generic "treat unknown attribute as a column" fallback.
func (df *DataFrame) Col(name string) *DataFrame {
	return df.Project(name)
}

// Ref returns a reference to name owned by the frame's node.
func (df *DataFrame) Ref(name string) ColRef {
	return Col(name, df.node)
}

// Where is index-by-expression: it delegates to Filter.
func (df *DataFrame) Where(expr Expr) *DataFrame {
	return df.Filter(expr)
}

// Select is index-by-list. Each key must be a column name (string), a
// ColRef, or a single-column projection whose column is reused.
func (df *DataFrame) Select(keys ...any) (*DataFrame, error) {
	refs := make([]ColRef, 0, len(keys))
	for _, key := range keys {
		switch k := key.(type) {
		case string:
			refs = append(refs, Col(k, df.node))
		case ColRef:
			refs = append(refs, k)
		case *DataFrame:
			ref, ok := k.soleRef()
			if !ok {
				return nil, structuralError(ErrCodeInvalidSelection, describeKey(key),
					"expected a column name string or projection")
			}
			refs = append(refs, ref)
		default:
			return nil, structuralError(ErrCodeInvalidSelection, describeKey(key),
				"expected a column name string or projection")
		}
	}
	return df.ProjectRefs(refs...), nil
}

// Get dispatches on the key type the way bracket indexing does: a string
// projects one column, an Expr filters, a single-column projection or a list
// selects columns.
func (df *DataFrame) Get(key any) (*DataFrame, error) {
	switch k := key.(type) {
	case string:
		return df.Col(k), nil
	case Expr:
		return df.Where(k), nil
	case ColRef:
		return df.ProjectRefs(k), nil
	case *DataFrame:
		return df.Select(k)
	case []string:
		keys := make([]any, len(k))
		for i, name := range k {
			keys[i] = name
		}
		return df.Select(keys...)
	case []any:
		return df.Select(k...)
	default:
		return nil, structuralError(ErrCodeUnsupportedOperand, describeKey(key),
			"unsupported index key type %T", key)
	}
}

// Eq builds "column = other".
func (df *DataFrame) Eq(other any) (Expr, error) { return df.compare(Equal, other) }

// Ne builds "column <> other".
func (df *DataFrame) Ne(other any) (Expr, error) { return df.compare(NotEqual, other) }

// Lt builds "column < other".
func (df *DataFrame) Lt(other any) (Expr, error) { return df.compare(LessThan, other) }

// Le builds "column <= other".
func (df *DataFrame) Le(other any) (Expr, error) { return df.compare(LessOrEqual, other) }

// Gt builds "column > other".
func (df *DataFrame) Gt(other any) (Expr, error) { return df.compare(GreaterThan, other) }

// Ge builds "column >= other".
func (df *DataFrame) Ge(other any) (Expr, error) { return df.compare(GreaterOrEqual, other) }

// compare enforces the single-column projection precondition on the
// receiver, then resolves the right operand.
func (df *DataFrame) compare(op CompareOp, other any) (Expr, error) {
	left, ok := df.soleRef()
	if !ok {
		return nil, structuralError(ErrCodeNotScalarProjection, describeKey(df),
			"must be a single-column projection")
	}
	right, err := operandOf(other)
	if err != nil {
		return nil, err
	}
	return Compare{Op: op, Left: left, Right: right}, nil
}

// soleRef returns the column of a single-column projection.
func (df *DataFrame) soleRef() (ColRef, bool) {
	if df == nil {
		return ColRef{}, false
	}
	p, ok := df.node.(*Projection)
	if !ok || len(p.refs) != 1 {
		return ColRef{}, false
	}
	return p.refs[0], true
}

func operandOf(v any) (Operand, error) {
	switch o := v.(type) {
	case *DataFrame:
		ref, ok := o.soleRef()
		if !ok {
			return nil, structuralError(ErrCodeNotScalarProjection, describeKey(v),
				"right operand must be a single-column projection")
		}
		return ref, nil
	case ColRef:
		return o, nil
	case Literal:
		if o.Value == nil {
			return Literal{Value: ir.Null{}}, nil
		}
		return o, nil
	default:
		val, err := ir.FromAny(v)
		if err != nil {
			return nil, structuralError(ErrCodeUnsupportedOperand, fmt.Sprintf("%T", v),
				"unsupported literal: %v", err)
		}
		return Literal{Value: val}, nil
	}
}

func describeKey(key any) string {
	switch k := key.(type) {
	case *DataFrame:
		if k == nil {
			return "<nil frame>"
		}
		return Describe(k.node)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v (%T)", key, key)
	}
}

// Min computes the minimum of col.
func (df *DataFrame) Min(ctx context.Context, col string) (*ir.ResultSet, error) {
	return df.aggregate(ctx, col, AggregateMin)
}

// Max computes the maximum of col.
func (df *DataFrame) Max(ctx context.Context, col string) (*ir.ResultSet, error) {
	return df.aggregate(ctx, col, AggregateMax)
}

// Mean computes the average of col.
func (df *DataFrame) Mean(ctx context.Context, col string) (*ir.ResultSet, error) {
	return df.aggregate(ctx, col, AggregateMean)
}

// Sum computes the sum of col.
func (df *DataFrame) Sum(ctx context.Context, col string) (*ir.ResultSet, error) {
	return df.aggregate(ctx, col, AggregateSum)
}

// Count counts rows, or non-null values of col when col is non-empty.
func (df *DataFrame) Count(ctx context.Context, col string) (*ir.ResultSet, error) {
	if col == "" {
		col = WildcardColumn
	}
	return df.aggregate(ctx, col, AggregateCount)
}

// Aggregate computes kind over col. It is the general form of Min, Max,
// Mean, Count, and Sum.
func (df *DataFrame) Aggregate(ctx context.Context, col string, kind AggregateKind) (*ir.ResultSet, error) {
	if kind == AggregateCount && col == "" {
		col = WildcardColumn
	}
	return df.aggregate(ctx, col, kind)
}

func (df *DataFrame) aggregate(ctx context.Context, col string, kind AggregateKind) (*ir.ResultSet, error) {
	g := df.generator()
	if g == nil {
		return nil, ErrNoGenerator
	}
	return g.Aggregate(ctx, df.node, col, kind)
}

// Generate renders the query text.
func (df *DataFrame) Generate() (string, error) {
	g := df.generator()
	if g == nil {
		return "", ErrNoGenerator
	}
	return g.Generate(df.node)
}

// Show executes the query and prints the result.
func (df *DataFrame) Show(ctx context.Context, opts ShowOptions) error {
	g := df.generator()
	if g == nil {
		return ErrNoGenerator
	}
	return g.Execute(ctx, df.node, opts)
}

// String renders the frame through the generator, or describes the tree
// when there is none.
func (df *DataFrame) String() string {
	if g := df.generator(); g != nil {
		return g.ToString(df.node)
	}
	return Describe(df.node)
}

func (df *DataFrame) generator() Generator {
	if df.session == nil {
		return nil
	}
	return df.session.generator
}
