package frame

import (
	"fmt"
	"strings"
)

// Walk visits n and its ancestors in pre-order (a Join's left side before its
// right side). Returning false from fn skips the node's parents. A node
// shared by several paths is visited once per path.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, p := range n.Parents() {
		Walk(p, fn)
	}
}

// Describe renders an indented outline of the tree rooted at n, one node per
// line, parents indented below their children.
func Describe(n Node) string {
	var b strings.Builder
	describe(&b, n, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func describe(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(describeNode(n))
	b.WriteByte('\n')
	if n == nil {
		return
	}
	for _, p := range n.Parents() {
		describe(b, p, depth+1)
	}
}

func describeNode(n Node) string {
	switch x := n.(type) {
	case nil:
		return "<nil>"
	case *Table:
		if len(x.columns) == 0 {
			return fmt.Sprintf("Table[%s](%s)", x.alias, x.name)
		}
		return fmt.Sprintf("Table[%s](%s: %s)", x.alias, x.name, refNames(x.columns))
	case *Projection:
		cols := "*"
		if x.refs != nil {
			cols = refNames(x.refs)
		}
		if x.distinct {
			return fmt.Sprintf("Projection[%s](distinct %s)", x.Alias(), cols)
		}
		return fmt.Sprintf("Projection[%s](%s)", x.Alias(), cols)
	case *Filter:
		return fmt.Sprintf("Filter[%s](%s)", x.Alias(), exprString(x.predicate))
	case *Grouping:
		return fmt.Sprintf("Grouping[%s](%s)", x.Alias(), refNames(x.keys))
	case *Join:
		return fmt.Sprintf("Join[%s](%s %s on %s)", x.Alias(), x.how, x.comparator, conditionString(x.on))
	default:
		return fmt.Sprintf("%T", n)
	}
}

func refNames(refs []ColRef) string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}

func conditionString(on JoinCondition) string {
	switch c := on.(type) {
	case ColumnPair:
		return c.String()
	case Expr:
		return c.String()
	default:
		return "<nil>"
	}
}
