package frame

// Node is one relational operator in a query tree.
//
// This is a sealed interface - only *Table, *Projection, *Filter, *Grouping,
// and *Join implement it. Nodes are immutable after construction: Columns and
// Parents return fresh slices, and there are no setters.
type Node interface {
	// Alias disambiguates this node's columns when rendered.
	Alias() string

	// Columns returns the ordered output columns. Empty means "all columns of
	// the underlying relation" (an undeclared table).
	Columns() []ColRef

	// Parents returns the nodes this node reads from: none for a Table, one
	// for unary operators, left then right for a Join.
	Parents() []Node

	// HasColumn reports whether name is an output column. Always true when
	// the column list is empty; a join matches when either side does.
	HasColumn(name string) bool

	relationalNode() // Marker method - seals interface to this package
}

// Table is a base relation. Zero parents.
type Table struct {
	name    string
	alias   string
	columns []ColRef
}

func newTable(name, alias string, columns []string) *Table {
	t := &Table{name: name, alias: alias}
	if len(columns) > 0 {
		t.columns = refsNamed(t, columns)
	}
	return t
}

func (*Table) relationalNode() {}

// Name returns the relation name.
func (t *Table) Name() string { return t.name }

// Alias returns the table's allocated alias.
func (t *Table) Alias() string { return t.alias }

// Columns returns the declared columns, or nil for an undeclared table.
func (t *Table) Columns() []ColRef { return cloneRefs(t.columns) }

// Parents returns nil.
func (t *Table) Parents() []Node { return nil }

// HasColumn implements Node.
func (t *Table) HasColumn(name string) bool { return hasColumn(t.columns, name) }

// Projection selects an ordered list of columns from its parent.
// A nil list means "all parent columns" and is only produced by Distinct.
type Projection struct {
	parent   Node
	refs     []ColRef
	distinct bool
}

func newProjection(parent Node, refs []ColRef, distinct bool) *Projection {
	return &Projection{parent: parent, refs: cloneRefs(refs), distinct: distinct}
}

func (*Projection) relationalNode() {}

// Parent returns the projected node.
func (p *Projection) Parent() Node { return p.parent }

// Refs returns the projection list; nil means all parent columns.
func (p *Projection) Refs() []ColRef { return cloneRefs(p.refs) }

// Distinct reports whether duplicate rows are removed.
func (p *Projection) Distinct() bool { return p.distinct }

// Alias returns the parent's alias.
func (p *Projection) Alias() string { return p.parent.Alias() }

// Columns returns the projection list, or the parent's columns when the list
// is nil.
func (p *Projection) Columns() []ColRef {
	if p.refs == nil {
		return p.parent.Columns()
	}
	return cloneRefs(p.refs)
}

// Parents returns the parent.
func (p *Projection) Parents() []Node { return []Node{p.parent} }

// HasColumn implements Node. A nil projection list defers to the parent.
func (p *Projection) HasColumn(name string) bool {
	if p.refs == nil {
		return p.parent.HasColumn(name)
	}
	return hasColumn(p.refs, name)
}

// Filter keeps the parent's rows matching a predicate.
type Filter struct {
	parent    Node
	predicate Expr
}

func newFilter(parent Node, predicate Expr) *Filter {
	return &Filter{parent: parent, predicate: predicate}
}

func (*Filter) relationalNode() {}

// Parent returns the filtered node.
func (f *Filter) Parent() Node { return f.parent }

// Predicate returns the filter expression.
func (f *Filter) Predicate() Expr { return f.predicate }

// Alias returns the parent's alias.
func (f *Filter) Alias() string { return f.parent.Alias() }

// Columns returns the parent's columns unchanged.
func (f *Filter) Columns() []ColRef { return f.parent.Columns() }

// Parents returns the parent.
func (f *Filter) Parents() []Node { return []Node{f.parent} }

// HasColumn implements Node.
func (f *Filter) HasColumn(name string) bool { return f.parent.HasColumn(name) }

// Grouping groups the parent's rows by key columns. The keys are the output
// columns.
type Grouping struct {
	parent Node
	keys   []ColRef
}

func newGrouping(parent Node, keys []ColRef) *Grouping {
	return &Grouping{parent: parent, keys: cloneRefs(keys)}
}

func (*Grouping) relationalNode() {}

// Parent returns the grouped node.
func (g *Grouping) Parent() Node { return g.parent }

// Keys returns the group keys in order.
func (g *Grouping) Keys() []ColRef { return cloneRefs(g.keys) }

// Alias returns the parent's alias.
func (g *Grouping) Alias() string { return g.parent.Alias() }

// Columns returns the group keys.
func (g *Grouping) Columns() []ColRef { return cloneRefs(g.keys) }

// Parents returns the parent.
func (g *Grouping) Parents() []Node { return []Node{g.parent} }

// HasColumn implements Node.
func (g *Grouping) HasColumn(name string) bool { return hasColumn(g.keys, name) }

// Join combines two nodes. Output columns are the left columns followed by
// the right columns, with no de-duplication.
type Join struct {
	left       Node
	right      Node
	on         JoinCondition
	how        string
	comparator string
}

func newJoin(left, right Node, on JoinCondition, how, comparator string) *Join {
	return &Join{left: left, right: right, on: on, how: how, comparator: comparator}
}

func (*Join) relationalNode() {}

// Left returns the primary (left) parent.
func (j *Join) Left() Node { return j.left }

// Right returns the right-hand parent.
func (j *Join) Right() Node { return j.right }

// On returns the join condition.
func (j *Join) On() JoinCondition { return j.on }

// How returns the join kind tag (e.g. "inner", "left outer"), uninterpreted.
func (j *Join) How() string { return j.how }

// Comparator returns the operator used for ColumnPair conditions.
func (j *Join) Comparator() string { return j.comparator }

// Alias returns the left parent's alias.
func (j *Join) Alias() string { return j.left.Alias() }

// Columns returns left columns followed by right columns.
func (j *Join) Columns() []ColRef {
	left := j.left.Columns()
	right := j.right.Columns()
	cols := make([]ColRef, 0, len(left)+len(right))
	cols = append(cols, left...)
	return append(cols, right...)
}

// Parents returns left then right.
func (j *Join) Parents() []Node { return []Node{j.left, j.right} }

// HasColumn implements Node. A side that declares no columns still matches
// any name after other sides have been concatenated onto it.
func (j *Join) HasColumn(name string) bool {
	return j.left.HasColumn(name) || j.right.HasColumn(name)
}

func cloneRefs(refs []ColRef) []ColRef {
	if refs == nil {
		return nil
	}
	out := make([]ColRef, len(refs))
	copy(out, refs)
	return out
}
