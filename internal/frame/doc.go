// Package frame is grizzly's lazy query-construction core.
//
// A DataFrame is a persistent handle over an immutable relational node. Every
// chained call (Filter, Project, Select, GroupBy, Join, Distinct) wraps the
// current node in a new one and returns a new handle; nothing is evaluated
// until a materializing call (aggregate, Generate, Show, String) hands the
// finished tree to a Generator.
//
// ARCHITECTURE:
//
//	[DataFrame chain] → [Node tree] → [Generator] → SQL text / execution
//
// NODE TREE:
//
// Node and Expr are sealed interfaces using the marker method pattern. Only
// types in this package implement them, which lets generators switch over
// them exhaustively:
//
//	switch n := node.(type) {
//	case *Table:      // base relation, zero parents
//	case *Projection: // ordered column list (nil = all parent columns), one parent
//	case *Filter:     // predicate, one parent, columns unchanged
//	case *Grouping:   // group keys, one parent
//	case *Join:       // left and right parents, columns = left ++ right
//	}
//
// Each node carries an alias. Tables receive a fresh one (_t0, _t1, ...) from
// the AliasAllocator owned by their Session; every other node inherits the
// alias of its (left) parent. Parents may be shared between derived nodes.
//
// COLUMN PROVENANCE:
//
// A ColRef names a column and points back at the node that produced it. Refs
// are never validated at construction: indexing a frame by an arbitrary name
// always yields a single-column projection. Validate reports refs that do not
// resolve against their owner's declared columns.
//
// STRUCTURAL PRECONDITIONS:
//
// Comparisons (Eq, Ne, Lt, Le, Gt, Ge) require the receiver to be a projection
// with exactly one column. Select accepts only column names, refs, and
// single-column projections. Joins on a ColumnPair require each named column
// to be present on its side. Violations return a *StructuralError.
package frame
