package executor

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grizzly/internal/frame"
	"github.com/roach88/grizzly/internal/ir"
	"github.com/roach88/grizzly/internal/sqlgen"
	"github.com/roach88/grizzly/internal/testutil"
)

// openEvents creates an in-memory database holding the events fixture.
func openEvents(t *testing.T, opts ...Option) *Executor {
	t.Helper()
	ctx := context.Background()

	e, err := Open(ctx, "sqlite", ":memory:", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	testutil.SeedEvents(t, e)
	return e
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported database driver "oracle"`)
}

func TestNormalizeDriver(t *testing.T) {
	tests := map[string]string{
		"":           DriverSQLite,
		"sqlite":     DriverSQLite,
		"SQLite3":    DriverSQLite,
		"postgresql": DriverPostgres,
		"pq":         DriverPostgres,
		"mysql":      DriverMySQL,
	}
	for in, want := range tests {
		got, err := NormalizeDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestOpenAppliesPragmas(t *testing.T) {
	e, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "p.db"))
	require.NoError(t, err)
	defer e.Close()

	rs, err := e.Query(context.Background(), "PRAGMA foreign_keys", nil)
	require.NoError(t, err)
	v, err := rs.Scalar()
	require.NoError(t, err)
	assert.Equal(t, ir.Int(1), v)

	rs, err = e.Query(context.Background(), "PRAGMA busy_timeout", nil)
	require.NoError(t, err)
	v, err = rs.Scalar()
	require.NoError(t, err)
	assert.Equal(t, ir.Int(5000), v)
}

func TestQueryScansValues(t *testing.T) {
	e := openEvents(t)

	rs, err := e.Query(context.Background(),
		`SELECT globaleventid, actor1name, actor2name, tone FROM events WHERE year = ? ORDER BY globaleventid`,
		[]ir.Value{ir.Int(2015)})
	require.NoError(t, err)

	assert.Equal(t, []string{"globaleventid", "actor1name", "actor2name", "tone"}, rs.Columns)
	assert.Equal(t, [][]ir.Value{
		{ir.Int(470747760), ir.String("USA"), ir.String("CHINA"), ir.Float(1.5)},
		{ir.Int(470747761), ir.String("FRANCE"), ir.Null{}, ir.Float(2.5)},
	}, rs.Rows)
}

func TestQueryEmptyResult(t *testing.T) {
	e := openEvents(t)

	rs, err := e.Query(context.Background(), `SELECT * FROM events WHERE year = ?`, []ir.Value{ir.Int(1999)})
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
	assert.NotNil(t, rs.Rows)
}

func TestQueryErrors(t *testing.T) {
	e := openEvents(t)

	_, err := e.Query(context.Background(), `SELECT * FROM missing`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Query(ctx, `SELECT * FROM events`, nil)
	assert.Error(t, err)
}

func TestQueryLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := openEvents(t, WithLogger(logger))

	_, err := e.Query(context.Background(), `SELECT 1`, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "query finished")
	assert.Contains(t, buf.String(), "rows=1")
}

func TestToValue(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want ir.Value
	}{
		{"nil", nil, ir.Null{}},
		{"bytes", []byte("abc"), ir.String("abc")},
		{"string", "abc", ir.String("abc")},
		{"int64", int64(7), ir.Int(7)},
		{"float", 0.25, ir.Float(0.25)},
		{"bool", true, ir.Bool(true)},
		{"time", ts, ir.String("2024-05-01T12:00:00Z")},
		{"other", struct{ A int }{1}, ir.String("{1}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toValue(tt.in))
		})
	}
}

func TestEventsScenarioAgainstSQLite(t *testing.T) {
	e := openEvents(t)
	gen := &sqlgen.Generator{Compiler: sqlgen.NewCompiler(sqlgen.SQLite), Runner: e}
	s := frame.NewSession(frame.WithGenerator(gen))
	ctx := context.Background()

	events := s.Table("events")
	pred, err := events.Col("globaleventid").Eq(470747760)
	require.NoError(t, err)
	p, err := events.Where(pred).Select("actor1name", "actor2name")
	require.NoError(t, err)

	q, err := gen.Compiler.Compile(p.Node())
	require.NoError(t, err)
	rs, err := e.Query(ctx, q.SQL, q.Params)
	require.NoError(t, err)
	assert.Equal(t, []string{"actor1name", "actor2name"}, rs.Columns)
	assert.Equal(t, [][]ir.Value{{ir.String("USA"), ir.String("CHINA")}}, rs.Rows)

	count, err := events.Count(ctx, "")
	require.NoError(t, err)
	v, err := count.Scalar()
	require.NoError(t, err)
	assert.Equal(t, ir.Int(3), v)

	mean, err := events.Where(must(events.Col("year").Eq(2015))(t)).Mean(ctx, "tone")
	require.NoError(t, err)
	v, err = mean.Scalar()
	require.NoError(t, err)
	assert.Equal(t, ir.Float(2), v)

	grouped, err := events.GroupBy("year").Aggregate(ctx, "globaleventid", frame.AggregateCount)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]ir.Value{
		{ir.Int(2015), ir.Int(2)},
		{ir.Int(2016), ir.Int(1)},
	}, grouped.Rows)

	names, err := events.Col("actor1name").Distinct().Count(ctx, "actor1name")
	require.NoError(t, err)
	v, err = names.Scalar()
	require.NoError(t, err)
	assert.Equal(t, ir.Int(2), v)
}

func TestJoinAgainstSQLite(t *testing.T) {
	e := openEvents(t)
	ctx := context.Background()
	require.NoError(t, e.Exec(ctx, `CREATE TABLE countries (code TEXT, region TEXT)`))
	require.NoError(t, e.Exec(ctx, `INSERT INTO countries VALUES ('USA', 'Americas'), ('FRANCE', 'Europe')`))

	gen := &sqlgen.Generator{Compiler: sqlgen.NewCompiler(sqlgen.SQLite), Runner: e}
	s := frame.NewSession(frame.WithGenerator(gen))

	events := s.Table("events", "globaleventid", "year", "actor1name", "actor2name", "tone")
	countries := s.Table("countries", "code", "region")

	recent := events.Where(must(events.Col("year").Eq(2015))(t))
	joined, err := recent.Join(countries, frame.ColumnPair{Left: "actor1name", Right: "code"})
	require.NoError(t, err)
	regions, err := joined.Select("globaleventid", "region")
	require.NoError(t, err)

	q, err := gen.Compiler.Compile(regions.Node())
	require.NoError(t, err)
	rs, err := e.Query(ctx, q.SQL, q.Params)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]ir.Value{
		{ir.Int(470747760), ir.String("Americas")},
		{ir.Int(470747761), ir.String("Europe")},
	}, rs.Rows)
}

// must unwraps a (value, error) pair, failing the test on error.
func must[T any](v T, err error) func(*testing.T) T {
	return func(t *testing.T) T {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}
