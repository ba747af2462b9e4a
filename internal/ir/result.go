package ir

import (
	"encoding/json"
	"fmt"
)

// ResultSet is the materialized output of an executed query.
// Rows are in the order the database returned them.
type ResultSet struct {
	Columns []string
	Rows    [][]Value
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Scalar returns the single value of a one-row, one-column result.
// Aggregates over an ungrouped frame produce such results.
func (rs *ResultSet) Scalar() (Value, error) {
	if rs == nil {
		return nil, fmt.Errorf("nil result set")
	}
	if len(rs.Columns) != 1 || len(rs.Rows) != 1 {
		return nil, fmt.Errorf("expected 1x1 result, got %d column(s) and %d row(s)", len(rs.Columns), len(rs.Rows))
	}
	return rs.Rows[0][0], nil
}

// Records returns the rows as column-name keyed maps.
// Duplicate column names keep the rightmost value.
func (rs *ResultSet) Records() []map[string]any {
	if rs == nil {
		return nil
	}
	out := make([]map[string]any, len(rs.Rows))
	for i, row := range rs.Rows {
		rec := make(map[string]any, len(rs.Columns))
		for j, col := range rs.Columns {
			if j < len(row) {
				rec[col] = ToAny(row[j])
			}
		}
		out[i] = rec
	}
	return out
}

// MarshalJSON encodes the result set as {"columns": [...], "rows": [[...]]}.
func (rs ResultSet) MarshalJSON() ([]byte, error) {
	rows := make([][]json.RawMessage, len(rs.Rows))
	for i, row := range rs.Rows {
		cells := make([]json.RawMessage, len(row))
		for j, v := range row {
			b, err := MarshalValue(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			cells[j] = b
		}
		rows[i] = cells
	}
	columns := rs.Columns
	if columns == nil {
		columns = []string{}
	}
	return json.Marshal(struct {
		Columns []string            `json:"columns"`
		Rows    [][]json.RawMessage `json:"rows"`
	}{columns, rows})
}
