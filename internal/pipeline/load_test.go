package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Testdata(t *testing.T) {
	ps, err := Load("testdata/pipelines")
	require.NoError(t, err)

	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	// events.yaml sorts before joins.cue; order within a file is preserved
	assert.Equal(t, []string{
		"events_actors", "actor2_count", "yearly_actor_counts", "distinct_countries",
		"t1_t2_join", "actor_countries",
	}, names)
}

func TestLoadFile_YAML(t *testing.T) {
	ps, err := LoadFile("testdata/pipelines/events.yaml")
	require.NoError(t, err)
	require.Len(t, ps, 4)

	p := ps[0]
	assert.Equal(t, "events_actors", p.Name)
	assert.Equal(t, "Actor names of a single event.", p.Description)
	require.Len(t, p.Frames, 3)
	assert.Equal(t, "events", p.Frames[0].Table)
	require.NotNil(t, p.Frames[1].Filter)
	assert.Equal(t, 470747760, p.Frames[1].Filter.Value)
	assert.Equal(t, []string{"actor1name", "actor2name"}, p.Frames[2].Select)
	assert.NotEmpty(t, p.ExpectSQL)

	require.NotNil(t, ps[1].Aggregate)
	assert.Equal(t, "count", ps[1].Aggregate.Kind)
	assert.Equal(t, "actor2name", ps[1].Aggregate.Column)
	assert.True(t, ps[3].Frames[2].Distinct)
}

func TestLoadFile_CUE(t *testing.T) {
	ps, err := LoadFile("testdata/pipelines/joins.cue")
	require.NoError(t, err)
	require.Len(t, ps, 2)

	p := ps[0]
	assert.Equal(t, "t1_t2_join", p.Name, "name comes from the field label")
	assert.Equal(t, "joined", p.Output)
	j := p.Frames[2].Join
	require.NotNil(t, j)
	assert.Equal(t, "t2", j.Right)
	assert.Equal(t, "left outer", j.How)
	require.NotNil(t, j.On)
	require.Len(t, j.On.Or, 2)
	assert.Equal(t, "<=", j.On.Or[1].Op)
	assert.Equal(t, &ColumnRef{Frame: "t2", Column: "actor2countrycode"}, j.On.Or[1].Ref)

	assert.Equal(t, []string{"actor1name", "name"}, ps[1].Frames[2].Join.Using)
	assert.Equal(t, []string{"name", "country"}, ps[1].Frames[1].Columns)
}

func TestParseCUE_Literals(t *testing.T) {
	src := `
pipeline: recent: {
	frames: [
		{name: "events", table: "events"},
		{name: "f", from: "events", filter: "and": [
			{column: "year", op: ">=", value: 2015},
			{column: "avgtone", op: "<", value: 1.5},
			{column: "actor1name", op: "=", value: "O'Neil"},
			{column: "isrootevent", op: "=", value: true},
		]},
	]
}
`
	ps, err := ParseCUE("recent.cue", []byte(src))
	require.NoError(t, err)
	require.Len(t, ps, 1)

	parts := ps[0].Frames[1].Filter.And
	require.Len(t, parts, 4)
	assert.Equal(t, 2015, parts[0].Value)
	assert.Equal(t, 1.5, parts[1].Value)
	assert.Equal(t, "O'Neil", parts[2].Value)
	assert.Equal(t, true, parts[3].Value)
}

func TestParseCUE_UnknownFieldRejected(t *testing.T) {
	src := `
pipeline: typo: {
	frames: [{name: "events", tabel: "events"}]
}
`
	_, err := ParseCUE("typo.cue", []byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tabel")

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.True(t, le.Pos.IsValid(), "CUE errors carry a position")
}

func TestParseCUE_NameMismatch(t *testing.T) {
	src := `
pipeline: a: {
	name: "b"
	frames: [{name: "events", table: "events"}]
}
`
	_, err := ParseCUE("names.cue", []byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match its label")
}

func TestParseCUE_SyntaxError(t *testing.T) {
	_, err := ParseCUE("broken.cue", []byte("pipeline: {"))
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
}

func TestParseYAML_UnknownFieldRejected(t *testing.T) {
	src := `
pipelines:
  - name: typo
    frames:
      - {name: events, tabel: events}
`
	_, err := ParseYAML([]byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
	assert.Contains(t, err.Error(), "tabel")
}

func TestParseYAML_Invalid(t *testing.T) {
	src := `
pipelines:
  - name: broken
    frames:
      - {name: p, from: missing, distinct: true}
`
	_, err := ParseYAML([]byte(src))
	require.Error(t, err)

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "broken", pe.Pipeline)
	assert.Equal(t, "p", pe.Frame)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		_, err := Load("/nonexistent/pipelines")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot access pipeline path")
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no pipeline files found")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "p.json", "{}")
		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported pipeline file extension")
	})

	t.Run("no pipelines", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "empty.yaml", "pipelines: []\n")
		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no pipelines defined")
	})

	t.Run("invalid pipeline keeps path", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "bad.yml", "pipelines:\n  - name: x\n    frames: []\n")
		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)

		var pe *Error
		assert.True(t, errors.As(err, &pe))
	})

	t.Run("duplicate across files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.yaml", "pipelines:\n  - name: dup\n    frames: [{name: t, table: t}]\n")
		writeFile(t, dir, "b.cue", "pipeline: dup: frames: [{name: \"t\", table: \"t\"}]\n")
		writeFile(t, dir, "notes.txt", "ignored")

		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `pipeline "dup" already defined`)
	})
}

func TestFindPipelineFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yml", "")
	writeFile(t, dir, "a.cue", "")
	writeFile(t, dir, "c.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	files, err := FindPipelineFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.cue"), filepath.Join(dir, "b.yml")}, files)
}
