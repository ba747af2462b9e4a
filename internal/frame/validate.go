package frame

import (
	"fmt"
)

// ValidationResult contains the provenance analysis of a tree.
//
// Builders never reject unknown column names; Validate is where the ColRef
// invariant ("a ref resolves against its owner's columns") is checked.
// Warnings do not make a tree unusable - a wildcard table may well have the
// column at execution time.
type ValidationResult struct {
	// Clean is true when no warnings were produced.
	Clean bool

	// Warnings lists unresolved references and ambiguities in walk order.
	Warnings []string
}

// Validate checks every column reference in the tree rooted at n.
//
// Rules:
//  1. A ref must resolve against its owner (refs into undeclared tables
//     always resolve).
//  2. A ColumnPair join satisfied only because a side has no declared
//     columns is reported as unverified.
//  3. A join whose declared output columns repeat a name is reported, since
//     downstream aliasing has to disambiguate it.
//
// Validate is a pure function with no side effects.
func Validate(n Node) ValidationResult {
	v := &validator{
		warnings: []string{},
		seen:     make(map[Node]bool),
	}
	v.validateNode(n)

	return ValidationResult{
		Clean:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
	seen     map[Node]bool
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateNode(n Node) {
	if n == nil {
		v.addWarning("nil node in tree")
		return
	}
	if v.seen[n] {
		return
	}
	v.seen[n] = true

	switch node := n.(type) {
	case *Table:
		// Leaf: declared columns are owned by the table itself
	case *Projection:
		for _, ref := range node.refs {
			v.validateRef(ref, "projection")
		}
	case *Filter:
		v.validateExpr(node.predicate, "filter")
	case *Grouping:
		for _, ref := range node.keys {
			v.validateRef(ref, "group key")
		}
	case *Join:
		v.validateJoin(node)
	default:
		v.addWarning("unknown node type %T", n)
	}

	for _, p := range n.Parents() {
		v.validateNode(p)
	}
}

func (v *validator) validateRef(ref ColRef, context string) {
	if ref.Owner == nil {
		v.addWarning("%s column %q has no owning relation", context, ref.Name)
		return
	}
	if !ref.Resolved() {
		v.addWarning("%s column %q not found in %s", context, ref.Name, describeNode(ref.Owner))
	}
}

func (v *validator) validateExpr(e Expr, context string) {
	if e == nil {
		v.addWarning("%s has no predicate", context)
		return
	}
	WalkRefs(e, func(ref ColRef) {
		v.validateRef(ref, context)
	})
}

// validatePairSide warns when a name-pair join column was accepted only
// because some table below n declares no columns.
func (v *validator) validatePairSide(side string, n Node, name string) {
	cols := n.Columns()
	switch {
	case len(cols) == 0:
		v.addWarning("join column %q is unverified: %s side %s declares no columns", name, side, describeNode(n))
	case !hasColumn(cols, name):
		v.addWarning("join column %q is unverified: %s side %s only matches it through a table that declares no columns",
			name, side, describeNode(n))
	}
}

func (v *validator) validateJoin(j *Join) {
	switch on := j.on.(type) {
	case ColumnPair:
		v.validatePairSide("left", j.left, on.Left)
		v.validatePairSide("right", j.right, on.Right)
	case Expr:
		v.validateExpr(on, "join condition")
	default:
		v.addWarning("join %s has no condition", j.Alias())
	}

	counts := make(map[string]int)
	var order []string
	for _, ref := range j.Columns() {
		if counts[ref.Name] == 0 {
			order = append(order, ref.Name)
		}
		counts[ref.Name]++
	}
	for _, name := range order {
		if counts[name] > 1 {
			v.addWarning("join output repeats column %q", name)
		}
	}
}
