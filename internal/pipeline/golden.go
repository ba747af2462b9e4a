package pipeline

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/grizzly/internal/frame"
	"github.com/roach88/grizzly/internal/ir"
	"github.com/roach88/grizzly/internal/sqlgen"
)

// Snapshot captures the compiled form of a pipeline for one dialect.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	Pipeline    string     `json:"pipeline"`
	Dialect     string     `json:"dialect"`
	SQL         string     `json:"sql"`
	Params      []ir.Value `json:"params"`
	Rendered    string     `json:"rendered"`
	Fingerprint string     `json:"fingerprint"`
}

// Capture builds p in a fresh session, so table aliases start at _t0, and
// compiles its output for d.
func Capture(p *Pipeline, d sqlgen.Dialect) (*Snapshot, error) {
	res, err := Build(frame.NewSession(), p)
	if err != nil {
		return nil, err
	}
	c := sqlgen.NewCompiler(d)

	q, err := res.Compile(c)
	if err != nil {
		return nil, err
	}
	rendered, err := res.Render(c)
	if err != nil {
		return nil, err
	}
	fp, err := ir.Fingerprint(c.Dialect.Name(), q.SQL, q.Params)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.Name, err)
	}

	return &Snapshot{
		Pipeline:    p.Name,
		Dialect:     c.Dialect.Name(),
		SQL:         q.SQL,
		Params:      q.Params,
		Rendered:    rendered,
		Fingerprint: fp,
	}, nil
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	params := s.Params
	if params == nil {
		params = []ir.Value{}
	}
	return map[string]any{
		"pipeline":    s.Pipeline,
		"dialect":     s.Dialect,
		"sql":         s.SQL,
		"params":      params,
		"rendered":    s.Rendered,
		"fingerprint": s.Fingerprint,
	}
}

// MarshalCanonical returns the canonical JSON form of the snapshot.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// GoldenName is the golden file name (without extension) for p under d.
func GoldenName(p *Pipeline, d sqlgen.Dialect) string {
	return p.Name + "_" + d.Name()
}

// AssertGolden compiles p for d and compares the snapshot against
// testdata/golden/{pipeline}_{dialect}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/pipeline -update
func AssertGolden(t *testing.T, p *Pipeline, d sqlgen.Dialect) error {
	t.Helper()

	snap, err := Capture(p, d)
	if err != nil {
		return err
	}
	data, err := snap.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, GoldenName(p, d), data)
	return nil
}
