package frame

import (
	"fmt"
	"strings"

	"github.com/roach88/grizzly/internal/ir"
)

// JoinCondition is the ON clause of a Join: either an Expr or a ColumnPair.
//
// This is a sealed interface - only types in this package implement it.
type JoinCondition interface {
	joinCondition()
}

// Expr is a comparison or boolean expression. Expressions are pure data:
// they are never evaluated in this package, only rendered by a Generator.
//
// This is a sealed interface - only Compare and Logical implement it.
type Expr interface {
	JoinCondition
	exprNode()
	String() string
}

// Operand is one side of a comparison: a ColRef or a Literal.
//
// This is a sealed interface - only types in this package implement it.
type Operand interface {
	operand()
	String() string
}

// Literal is a scalar constant stored verbatim in an expression.
type Literal struct {
	Value ir.Value
}

func (Literal) operand() {}

// String renders the literal SQL-style: strings single-quoted, NULL bare.
func (l Literal) String() string {
	switch v := l.Value.(type) {
	case ir.String:
		return "'" + strings.ReplaceAll(string(v), "'", "''") + "'"
	case nil, ir.Null:
		return "NULL"
	default:
		return ir.Format(v)
	}
}

// Lit wraps a Go value as a Literal. Panics on unsupported types; use it
// for statically known constants.
func Lit(v any) Literal {
	return Literal{Value: ir.MustFromAny(v)}
}

// CompareOp identifies a comparison operator.
type CompareOp int

const (
	Equal CompareOp = iota
	NotEqual
	LessThan
	LessOrEqual
	GreaterThan
	GreaterOrEqual
)

var compareOps = []struct {
	name   string
	symbol string
}{
	Equal:          {"Equal", "="},
	NotEqual:       {"NotEqual", "<>"},
	LessThan:       {"LessThan", "<"},
	LessOrEqual:    {"LessOrEqual", "<="},
	GreaterThan:    {"GreaterThan", ">"},
	GreaterOrEqual: {"GreaterOrEqual", ">="},
}

// String returns the operator name (e.g. "LessOrEqual").
func (op CompareOp) String() string {
	if int(op) < 0 || int(op) >= len(compareOps) {
		return fmt.Sprintf("CompareOp(%d)", int(op))
	}
	return compareOps[op].name
}

// Symbol returns the SQL operator (e.g. "<=").
func (op CompareOp) Symbol() string {
	if int(op) < 0 || int(op) >= len(compareOps) {
		return "?"
	}
	return compareOps[op].symbol
}

// ParseCompareOp maps an operator spelling to a CompareOp.
// Accepts both SQL ("=", "<>") and programming ("==", "!=") spellings.
func ParseCompareOp(s string) (CompareOp, error) {
	switch strings.TrimSpace(s) {
	case "=", "==", "eq":
		return Equal, nil
	case "<>", "!=", "ne":
		return NotEqual, nil
	case "<", "lt":
		return LessThan, nil
	case "<=", "le":
		return LessOrEqual, nil
	case ">", "gt":
		return GreaterThan, nil
	case ">=", "ge":
		return GreaterOrEqual, nil
	default:
		return 0, fmt.Errorf("unknown comparison operator %q", s)
	}
}

// Compare is a comparison between a column and a literal or another column.
type Compare struct {
	Op    CompareOp
	Left  ColRef
	Right Operand
}

func (Compare) exprNode()      {}
func (Compare) joinCondition() {}

// String renders the comparison as "alias.col <op> right".
func (c Compare) String() string {
	right := "<nil>"
	if c.Right != nil {
		right = c.Right.String()
	}
	return c.Left.String() + " " + c.Op.Symbol() + " " + right
}

// LogicalOp identifies a boolean connective.
type LogicalOp int

const (
	OpAnd LogicalOp = iota
	OpOr
)

// String returns "AND" or "OR".
func (op LogicalOp) String() string {
	if op == OpOr {
		return "OR"
	}
	return "AND"
}

// Logical combines two expressions with AND or OR.
type Logical struct {
	Op    LogicalOp
	Left  Expr
	Right Expr
}

func (Logical) exprNode()      {}
func (Logical) joinCondition() {}

// String renders the expression parenthesized.
func (l Logical) String() string {
	return "(" + exprString(l.Left) + " " + l.Op.String() + " " + exprString(l.Right) + ")"
}

func exprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

// And combines two expressions with AND.
func And(left, right Expr) Expr {
	return Logical{Op: OpAnd, Left: left, Right: right}
}

// Or combines two expressions with OR.
func Or(left, right Expr) Expr {
	return Logical{Op: OpOr, Left: left, Right: right}
}

// AllOf folds expressions with AND, left to right. Returns nil for no input.
func AllOf(exprs ...Expr) Expr {
	return fold(OpAnd, exprs)
}

// AnyOf folds expressions with OR, left to right. Returns nil for no input.
func AnyOf(exprs ...Expr) Expr {
	return fold(OpOr, exprs)
}

func fold(op LogicalOp, exprs []Expr) Expr {
	if len(exprs) == 0 {
		return nil
	}
	acc := exprs[0]
	for _, e := range exprs[1:] {
		acc = Logical{Op: op, Left: acc, Right: e}
	}
	return acc
}

// ColumnPair is a name-based join condition: Left names a column of the left
// frame, Right a column of the right frame. The pair is compared with the
// Join's comparator.
type ColumnPair struct {
	Left  string
	Right string
}

func (ColumnPair) joinCondition() {}

// String renders the pair as [left, right].
func (p ColumnPair) String() string {
	return "[" + p.Left + ", " + p.Right + "]"
}

// WalkRefs calls fn for every ColRef in e, left to right.
func WalkRefs(e Expr, fn func(ColRef)) {
	switch x := e.(type) {
	case Compare:
		fn(x.Left)
		if ref, ok := x.Right.(ColRef); ok {
			fn(ref)
		}
	case Logical:
		WalkRefs(x.Left, fn)
		WalkRefs(x.Right, fn)
	}
}
