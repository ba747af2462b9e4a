package frame

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/grizzly/internal/ir"
)

// AggregateKind identifies an aggregate function.
type AggregateKind int

const (
	AggregateMin AggregateKind = iota
	AggregateMax
	AggregateMean
	AggregateCount
	AggregateSum
)

// String returns the upper-case kind name (MIN, MAX, MEAN, COUNT, SUM).
func (k AggregateKind) String() string {
	switch k {
	case AggregateMin:
		return "MIN"
	case AggregateMax:
		return "MAX"
	case AggregateMean:
		return "MEAN"
	case AggregateCount:
		return "COUNT"
	case AggregateSum:
		return "SUM"
	default:
		return fmt.Sprintf("AggregateKind(%d)", int(k))
	}
}

// ParseAggregateKind maps a case-insensitive name to an AggregateKind.
// "avg" is accepted as an alias for MEAN.
func ParseAggregateKind(s string) (AggregateKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MIN":
		return AggregateMin, nil
	case "MAX":
		return AggregateMax, nil
	case "MEAN", "AVG":
		return AggregateMean, nil
	case "COUNT":
		return AggregateCount, nil
	case "SUM":
		return AggregateSum, nil
	default:
		return 0, fmt.Errorf("unknown aggregate %q", s)
	}
}

// WildcardColumn is the column marker Count passes when no column is named.
const WildcardColumn = "*"

// ShowOptions controls how Show prints a result.
type ShowOptions struct {
	Delimiter   string
	Pretty      bool
	MaxColWidth int // <= 0 disables truncation
}

// DefaultShowOptions returns comma-delimited, non-pretty output with cells
// truncated to 20 characters.
func DefaultShowOptions() ShowOptions {
	return ShowOptions{Delimiter: ",", Pretty: false, MaxColWidth: 20}
}

// Generator renders and executes finished node trees.
//
// These four calls are the whole contract between the builder and its
// collaborator. Implementations must not mutate the trees they receive.
type Generator interface {
	// Aggregate computes kind over col. col may be empty (no column given)
	// or WildcardColumn.
	Aggregate(ctx context.Context, n Node, col string, kind AggregateKind) (*ir.ResultSet, error)

	// Generate renders the query text for n.
	Generate(n Node) (string, error)

	// Execute runs n and prints the result.
	Execute(ctx context.Context, n Node, opts ShowOptions) error

	// ToString renders n for display. Never fails; errors are rendered into
	// the returned text.
	ToString(n Node) string
}
