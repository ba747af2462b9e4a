package sqlgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/grizzly/internal/frame"
	"github.com/roach88/grizzly/internal/ir"
)

// paramMarker stands in for a bind parameter until the final pass decides
// between dialect placeholders and inline literals.
const paramMarker = "\x00"

// Query is compiled SQL with its bind parameters in placeholder order.
type Query struct {
	SQL    string
	Params []ir.Value
}

// Args converts the parameters for database/sql.
func (q Query) Args() []any {
	args := make([]any, len(q.Params))
	for i, p := range q.Params {
		args[i] = ir.ToAny(p)
	}
	return args
}

// Compiler compiles frame trees for one dialect.
type Compiler struct {
	Dialect Dialect
}

// NewCompiler creates a Compiler for d. A nil dialect means SQLite.
func NewCompiler(d Dialect) *Compiler {
	if d == nil {
		d = SQLite
	}
	return &Compiler{Dialect: d}
}

// Compile converts n to parameterized SQL.
func (c *Compiler) Compile(n frame.Node) (Query, error) {
	raw, err := c.compileRoot(n)
	if err != nil {
		return Query{}, err
	}
	return raw.parameterized(c.dialect()), nil
}

// Render converts n to SQL with literals inlined. The output is for display
// and golden files; execute the result of Compile instead.
func (c *Compiler) Render(n frame.Node) (string, error) {
	raw, err := c.compileRoot(n)
	if err != nil {
		return "", err
	}
	return raw.inlined(c.dialect()), nil
}

// CompileAggregate converts an aggregate over n to parameterized SQL.
//
// col may be empty when n is a single-column projection, in which case that
// column is aggregated. WildcardColumn is only valid for COUNT.
func (c *Compiler) CompileAggregate(n frame.Node, col string, kind frame.AggregateKind) (Query, error) {
	raw, err := c.compileAggregate(n, col, kind)
	if err != nil {
		return Query{}, err
	}
	return raw.parameterized(c.dialect()), nil
}

// RenderAggregate is CompileAggregate with literals inlined.
func (c *Compiler) RenderAggregate(n frame.Node, col string, kind frame.AggregateKind) (string, error) {
	raw, err := c.compileAggregate(n, col, kind)
	if err != nil {
		return "", err
	}
	return raw.inlined(c.dialect()), nil
}

func (c *Compiler) dialect() Dialect {
	if c == nil || c.Dialect == nil {
		return SQLite
	}
	return c.Dialect
}

func (c *Compiler) compileRoot(n frame.Node) (rawQuery, error) {
	if n == nil {
		return rawQuery{}, fmt.Errorf("cannot compile nil node")
	}
	comp := &compilation{dialect: c.dialect()}
	b, err := comp.compile(n)
	if err != nil {
		return rawQuery{}, err
	}
	return comp.finish(b.assemble())
}

func (c *Compiler) compileAggregate(n frame.Node, col string, kind frame.AggregateKind) (rawQuery, error) {
	if n == nil {
		return rawQuery{}, fmt.Errorf("cannot compile nil node")
	}
	fn, err := aggregateFunction(kind)
	if err != nil {
		return rawQuery{}, err
	}

	if col == "" {
		var refs []frame.ColRef
		if p, ok := n.(*frame.Projection); ok {
			refs = p.Refs()
		}
		if len(refs) != 1 {
			return rawQuery{}, fmt.Errorf("%s requires a column unless the frame is a single-column projection", kind)
		}
		col = refs[0].Name
	}
	if col == frame.WildcardColumn && kind != frame.AggregateCount {
		return rawQuery{}, fmt.Errorf("%s cannot be applied to %s", kind, frame.WildcardColumn)
	}

	comp := &compilation{dialect: c.dialect()}
	b, err := comp.compile(n)
	if err != nil {
		return rawQuery{}, err
	}

	if b.grouped {
		arg := "*"
		if col != frame.WildcardColumn {
			arg, err = comp.column(b.scope, n, col)
			if err != nil {
				return rawQuery{}, fmt.Errorf("aggregate column: %w", err)
			}
		}
		b.selects = append(append([]string{}, b.groupBy...), fn+"("+arg+")")
		return comp.finish(b.assemble())
	}

	wrapped := comp.wrap(b)
	arg := "*"
	if col != frame.WildcardColumn {
		arg = qualify(wrapped.alias, comp.ident(col))
	}
	outer := &block{
		from:     wrapped.from,
		fromArgs: wrapped.fromArgs,
		selects:  []string{fn + "(" + arg + ")"},
	}
	return comp.finish(outer.assemble())
}

func aggregateFunction(kind frame.AggregateKind) (string, error) {
	switch kind {
	case frame.AggregateMin:
		return "MIN", nil
	case frame.AggregateMax:
		return "MAX", nil
	case frame.AggregateMean:
		return "AVG", nil
	case frame.AggregateCount:
		return "COUNT", nil
	case frame.AggregateSum:
		return "SUM", nil
	default:
		return "", fmt.Errorf("unsupported aggregate: %s", kind)
	}
}

// rawQuery is SQL text with paramMarker in place of each parameter.
type rawQuery struct {
	sql  string
	args []ir.Value
}

func (r rawQuery) parameterized(d Dialect) Query {
	var b strings.Builder
	n := 0
	for _, part := range strings.Split(r.sql, paramMarker) {
		if n > 0 {
			b.WriteString(d.Placeholder(n))
		}
		b.WriteString(part)
		n++
	}
	params := r.args
	if params == nil {
		params = []ir.Value{}
	}
	return Query{SQL: b.String(), Params: params}
}

func (r rawQuery) inlined(d Dialect) string {
	var b strings.Builder
	for i, part := range strings.Split(r.sql, paramMarker) {
		if i > 0 {
			b.WriteString(d.Literal(r.args[i-1]))
		}
		b.WriteString(part)
	}
	return b.String()
}

// block is one SELECT under construction.
type block struct {
	from     string
	fromArgs []ir.Value

	// selects is nil for SELECT *.
	selects  []string
	distinct bool

	where     []string
	whereArgs []ir.Value

	groupBy []string
	grouped bool

	// alias is set on blocks produced by wrap.
	alias string

	// table is set on blocks that are a single base table scan.
	table bool

	// scope maps base table aliases to the qualifier visible in this block.
	scope map[string]string
}

// bare reports whether the block is a plain FROM clause that a join can
// extend in place.
func (b *block) bare() bool {
	return b.selects == nil && !b.distinct && !b.grouped && len(b.where) == 0
}

func (b *block) assemble() rawQuery {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.distinct {
		sb.WriteString("DISTINCT ")
	}
	if b.selects == nil {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(b.selects, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.from)
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}

	args := make([]ir.Value, 0, len(b.fromArgs)+len(b.whereArgs))
	args = append(args, b.fromArgs...)
	args = append(args, b.whereArgs...)
	return rawQuery{sql: sb.String(), args: args}
}

// compilation holds per-call state.
type compilation struct {
	dialect    Dialect
	subqueries int
	err        error
}

func (c *compilation) finish(q rawQuery) (rawQuery, error) {
	if c.err != nil {
		return rawQuery{}, c.err
	}
	return q, nil
}

func (c *compilation) compile(n frame.Node) (*block, error) {
	switch node := n.(type) {
	case *frame.Table:
		return c.compileTable(node), nil
	case *frame.Filter:
		return c.compileFilter(node)
	case *frame.Projection:
		return c.compileProjection(node)
	case *frame.Grouping:
		return c.compileGrouping(node)
	case *frame.Join:
		return c.compileJoin(node)
	case nil:
		return nil, fmt.Errorf("cannot compile nil node")
	default:
		return nil, fmt.Errorf("unsupported node type: %T", n)
	}
}

func (c *compilation) compileTable(t *frame.Table) *block {
	return &block{
		from:  c.tableName(t.Name()) + " " + t.Alias(),
		table: true,
		scope: map[string]string{t.Alias(): t.Alias()},
	}
}

func (c *compilation) compileFilter(f *frame.Filter) (*block, error) {
	b, err := c.compile(f.Parent())
	if err != nil {
		return nil, err
	}
	if b.grouped || b.distinct {
		b = c.wrap(b)
	}
	if f.Predicate() == nil {
		return nil, fmt.Errorf("filter on %s has no predicate", f.Alias())
	}
	sql, args, err := c.expr(b.scope, f.Predicate())
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	b.where = append(b.where, sql)
	b.whereArgs = append(b.whereArgs, args...)
	b.table = false
	return b, nil
}

func (c *compilation) compileProjection(p *frame.Projection) (*block, error) {
	b, err := c.compile(p.Parent())
	if err != nil {
		return nil, err
	}
	if b.distinct {
		b = c.wrap(b)
	}
	b.table = false

	refs := p.Refs()
	if refs == nil {
		// DISTINCT over whatever the parent selects.
		b.distinct = b.distinct || p.Distinct()
		return b, nil
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("projection on %s selects no columns", p.Alias())
	}

	selects := make([]string, len(refs))
	for i, ref := range refs {
		col, err := c.ref(b.scope, ref)
		if err != nil {
			return nil, fmt.Errorf("compile projection: %w", err)
		}
		selects[i] = col
	}
	b.selects = selects
	b.distinct = p.Distinct()
	return b, nil
}

func (c *compilation) compileGrouping(g *frame.Grouping) (*block, error) {
	b, err := c.compile(g.Parent())
	if err != nil {
		return nil, err
	}
	if b.grouped || b.distinct {
		b = c.wrap(b)
	}
	b.table = false

	keys := g.Keys()
	if len(keys) == 0 {
		return nil, fmt.Errorf("grouping on %s has no keys", g.Alias())
	}
	cols := make([]string, len(keys))
	for i, key := range keys {
		col, err := c.ref(b.scope, key)
		if err != nil {
			return nil, fmt.Errorf("compile grouping: %w", err)
		}
		cols[i] = col
	}
	b.groupBy = cols
	b.selects = append([]string{}, cols...)
	b.grouped = true
	return b, nil
}

func (c *compilation) compileJoin(j *frame.Join) (*block, error) {
	keyword, err := joinKeyword(j.How())
	if err != nil {
		return nil, err
	}

	left, err := c.compile(j.Left())
	if err != nil {
		return nil, fmt.Errorf("compile join left side: %w", err)
	}
	if !left.bare() {
		left = c.wrap(left)
	}

	right, err := c.compile(j.Right())
	if err != nil {
		return nil, fmt.Errorf("compile join right side: %w", err)
	}
	if !right.table || overlaps(left.scope, right.scope) {
		right = c.wrap(right)
	}

	scope := make(map[string]string, len(left.scope)+len(right.scope))
	for k, v := range right.scope {
		scope[k] = v
	}
	for k, v := range left.scope {
		scope[k] = v
	}

	var cond string
	var condArgs []ir.Value
	switch on := j.On().(type) {
	case frame.ColumnPair:
		cond, err = c.columnPair(j, left.scope, right.scope, on)
	case frame.Expr:
		cond, condArgs, err = c.expr(scope, on)
	default:
		err = fmt.Errorf("join on %s has no condition", j.Alias())
	}
	if err != nil {
		return nil, fmt.Errorf("compile join condition: %w", err)
	}

	args := make([]ir.Value, 0, len(left.fromArgs)+len(right.fromArgs)+len(condArgs))
	args = append(args, left.fromArgs...)
	args = append(args, right.fromArgs...)
	args = append(args, condArgs...)

	return &block{
		from:     left.from + " " + keyword + " " + right.from + " ON " + cond,
		fromArgs: args,
		scope:    scope,
	}, nil
}

func (c *compilation) columnPair(j *frame.Join, leftScope, rightScope map[string]string, on frame.ColumnPair) (string, error) {
	op, err := frame.ParseCompareOp(j.Comparator())
	if err != nil {
		return "", err
	}
	l, err := c.column(leftScope, j.Left(), on.Left)
	if err != nil {
		return "", err
	}
	r, err := c.column(rightScope, j.Right(), on.Right)
	if err != nil {
		return "", err
	}
	return l + " " + op.Symbol() + " " + r, nil
}

func overlaps(a, b map[string]string) bool {
	for k := range b {
		if _, ok := a[k]; ok {
			return true
		}
	}
	return false
}

func joinKeyword(how string) (string, error) {
	switch strings.Join(strings.Fields(strings.ToLower(how)), " ") {
	case "", "inner":
		return "INNER JOIN", nil
	case "left", "left outer":
		return "LEFT OUTER JOIN", nil
	case "right", "right outer":
		return "RIGHT OUTER JOIN", nil
	case "full", "outer", "full outer":
		return "FULL OUTER JOIN", nil
	default:
		return "", fmt.Errorf("unsupported join type %q", how)
	}
}

// wrap turns b into a derived table with a fresh alias. Every base alias
// visible in b becomes reachable through the new alias.
func (c *compilation) wrap(b *block) *block {
	alias := "_s" + strconv.Itoa(c.subqueries)
	c.subqueries++

	inner := b.assemble()
	scope := make(map[string]string, len(b.scope))
	for base := range b.scope {
		scope[base] = alias
	}
	return &block{
		from:     "(" + inner.sql + ") " + alias,
		fromArgs: inner.args,
		alias:    alias,
		scope:    scope,
	}
}

func (c *compilation) expr(scope map[string]string, e frame.Expr) (string, []ir.Value, error) {
	switch x := e.(type) {
	case frame.Compare:
		return c.compare(scope, x)
	case frame.Logical:
		l, largs, err := c.expr(scope, x.Left)
		if err != nil {
			return "", nil, err
		}
		r, rargs, err := c.expr(scope, x.Right)
		if err != nil {
			return "", nil, err
		}
		return "(" + l + " " + x.Op.String() + " " + r + ")", append(largs, rargs...), nil
	case nil:
		return "", nil, errors.New("missing expression")
	default:
		return "", nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

func (c *compilation) compare(scope map[string]string, cmp frame.Compare) (string, []ir.Value, error) {
	left, err := c.ref(scope, cmp.Left)
	if err != nil {
		return "", nil, err
	}

	switch right := cmp.Right.(type) {
	case frame.ColRef:
		r, err := c.ref(scope, right)
		if err != nil {
			return "", nil, err
		}
		return left + " " + cmp.Op.Symbol() + " " + r, nil, nil
	case frame.Literal:
		if isNull(right.Value) {
			switch cmp.Op {
			case frame.Equal:
				return left + " IS NULL", nil, nil
			case frame.NotEqual:
				return left + " IS NOT NULL", nil, nil
			}
		}
		val := right.Value
		if val == nil {
			val = ir.Null{}
		}
		return left + " " + cmp.Op.Symbol() + " " + paramMarker, []ir.Value{val}, nil
	case nil:
		return "", nil, fmt.Errorf("comparison on %s has no right operand", cmp.Left.Name)
	default:
		return "", nil, fmt.Errorf("unsupported operand type: %T", cmp.Right)
	}
}

func isNull(v ir.Value) bool {
	switch v.(type) {
	case nil, ir.Null:
		return true
	default:
		return false
	}
}

// ref renders a column reference qualified through scope.
func (c *compilation) ref(scope map[string]string, ref frame.ColRef) (string, error) {
	if ref.Owner == nil {
		return "", fmt.Errorf("column %q has no owning relation", ref.Name)
	}
	return c.column(scope, ref.Owner, ref.Name)
}

// column renders name as seen from owner, qualified through scope.
func (c *compilation) column(scope map[string]string, owner frame.Node, name string) (string, error) {
	base := Resolve(owner, name)
	qualifier, ok := scope[base]
	if !ok {
		return "", fmt.Errorf("column %s.%s is not in scope", base, name)
	}
	if name == frame.WildcardColumn {
		return qualifier + ".*", nil
	}
	return qualify(qualifier, c.ident(name)), nil
}

func qualify(qualifier, quoted string) string {
	return qualifier + "." + quoted
}

// ident quotes a column name. A name containing paramMarker is recorded as
// an error for the whole compilation.
func (c *compilation) ident(name string) string {
	if strings.Contains(name, paramMarker) && c.err == nil {
		c.err = fmt.Errorf("identifier %q contains a NUL byte", name)
	}
	return c.dialect.QuoteIdent(name)
}

// tableName quotes each dot-separated part of a relation name.
func (c *compilation) tableName(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = c.ident(p)
	}
	return strings.Join(parts, ".")
}
