package sqlgen

import "github.com/roach88/grizzly/internal/frame"

// Resolve returns the alias of the base table that supplies column name as
// seen from n.
//
// Filters pass through. Projections and groupings follow the matching ref to
// its own owner. Joins pick the right side when it declares the column and
// the left side does not, or when the column is the right half of a name-pair
// condition that the left side does not declare. Anything else binds left.
func Resolve(n frame.Node, name string) string {
	switch node := n.(type) {
	case *frame.Table:
		return node.Alias()
	case *frame.Filter:
		return Resolve(node.Parent(), name)
	case *frame.Projection:
		if ref, ok := findRef(node.Refs(), name); ok && ref.Owner != nil {
			return Resolve(ref.Owner, ref.Name)
		}
		return Resolve(node.Parent(), name)
	case *frame.Grouping:
		if ref, ok := findRef(node.Keys(), name); ok && ref.Owner != nil {
			return Resolve(ref.Owner, ref.Name)
		}
		return Resolve(node.Parent(), name)
	case *frame.Join:
		if !declares(node.Left(), name) && (declares(node.Right(), name) || pairsRight(node.On(), name)) {
			return Resolve(node.Right(), name)
		}
		return Resolve(node.Left(), name)
	default:
		return ""
	}
}

func findRef(refs []frame.ColRef, name string) (frame.ColRef, bool) {
	for _, ref := range refs {
		if ref.Name == name {
			return ref, true
		}
	}
	return frame.ColRef{}, false
}

// pairsRight reports whether name is only the right half of a name-pair
// join condition.
func pairsRight(on frame.JoinCondition, name string) bool {
	pair, ok := on.(frame.ColumnPair)
	return ok && pair.Right == name && pair.Left != name
}

func declares(n frame.Node, name string) bool {
	_, ok := findRef(n.Columns(), name)
	return ok
}
