package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSetScalar(t *testing.T) {
	rs := &ResultSet{Columns: []string{"count"}, Rows: [][]Value{{Int(3)}}}

	v, err := rs.Scalar()
	require.NoError(t, err)
	assert.Equal(t, Int(3), v)
}

func TestResultSetScalarWrongShape(t *testing.T) {
	tests := []struct {
		name string
		rs   *ResultSet
	}{
		{"nil", nil},
		{"no rows", &ResultSet{Columns: []string{"a"}}},
		{"two columns", &ResultSet{Columns: []string{"a", "b"}, Rows: [][]Value{{Int(1), Int(2)}}}},
		{"two rows", &ResultSet{Columns: []string{"a"}, Rows: [][]Value{{Int(1)}, {Int(2)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rs.Scalar()
			assert.Error(t, err)
		})
	}
}

func TestResultSetRecords(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"name", "n"},
		Rows: [][]Value{
			{String("a"), Int(1)},
			{String("b"), Null{}},
		},
	}

	recs := rs.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, map[string]any{"name": "a", "n": int64(1)}, recs[0])
	assert.Equal(t, map[string]any{"name": "b", "n": nil}, recs[1])
	assert.Equal(t, 2, rs.Len())
}

func TestResultSetMarshalJSON(t *testing.T) {
	rs := ResultSet{
		Columns: []string{"a", "b"},
		Rows:    [][]Value{{String("x"), Float(0.5)}},
	}

	data, err := json.Marshal(rs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":["a","b"],"rows":[["x",0.5]]}`, string(data))
}

func TestResultSetMarshalJSONEmpty(t *testing.T) {
	data, err := json.Marshal(ResultSet{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[],"rows":[]}`, string(data))
}
