package sqlgen

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grizzly/internal/frame"
)

// To regenerate golden files, run:
//
//	go test ./internal/sqlgen -update
func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func countryCounts(t *testing.T) frame.Node {
	t.Helper()
	s := frame.NewSession()
	events := s.Table("events")
	actors := s.Table("actors", "name", "country")

	recent := events.Where(must(events.Col("year").Ge(2015))(t))
	joined := must(recent.Join(actors, frame.ColumnPair{Left: "actor1name", Right: "name"}, frame.WithHow("left")))(t)
	return joined.GroupBy("country").Node()
}

func TestGoldenDialects(t *testing.T) {
	g := newGoldie(t)
	n := countryCounts(t)

	for _, d := range []Dialect{SQLite, Postgres, MySQL} {
		t.Run(d.Name(), func(t *testing.T) {
			q, err := NewCompiler(d).CompileAggregate(n, frame.WildcardColumn, frame.AggregateCount)
			require.NoError(t, err)
			g.Assert(t, "country_counts_"+d.Name(), []byte(q.SQL))
		})
	}
}
