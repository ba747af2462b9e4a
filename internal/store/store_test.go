package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grizzly/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpen_Pragmas(t *testing.T) {
	s, _ := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestOpen_DefaultRunIDIsUUIDv7(t *testing.T) {
	s, _ := createTestStore(t)

	id, err := uuid.Parse(s.RunID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestRecord_List(t *testing.T) {
	s, _ := createTestStore(t, WithRunIDs(NewFixedRunIDs("run-1")))
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "sqlite", `SELECT * FROM "t" _t0`, nil, 3))
	require.NoError(t, s.Record(ctx, "sqlite", `SELECT * FROM "t" _t0 WHERE _t0."a" = ?`, []ir.Value{ir.String("x")}, 1))

	entries, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, int64(2), entries[0].Seq, "newest first")
	assert.Equal(t, `["x"]`, entries[0].Params)
	assert.Equal(t, 1, entries[0].RowCount)
	assert.Equal(t, "run-1", entries[0].RunID)

	assert.Equal(t, int64(1), entries[1].Seq)
	assert.Equal(t, `[]`, entries[1].Params)
	assert.Equal(t, 3, entries[1].RowCount)
	assert.Equal(t, "sqlite", entries[1].Dialect)

	fp, err := ir.Fingerprint("sqlite", `SELECT * FROM "t" _t0`, nil)
	require.NoError(t, err)
	assert.Equal(t, fp, entries[1].Fingerprint)
}

func TestList_Limit(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, "sqlite", "SELECT 1", nil, i))
	}

	entries, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(5), entries[0].Seq)
	assert.Equal(t, int64(4), entries[1].Seq)
}

func TestList_Empty(t *testing.T) {
	s, _ := createTestStore(t)

	entries, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestByFingerprint(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	params := []ir.Value{ir.Int(470747760)}
	require.NoError(t, s.Record(ctx, "sqlite", "SELECT a FROM t WHERE id = ?", params, 1))
	require.NoError(t, s.Record(ctx, "sqlite", "SELECT b FROM t", nil, 2))
	require.NoError(t, s.Record(ctx, "sqlite", "SELECT a FROM t WHERE id = ?", params, 0))
	require.NoError(t, s.Record(ctx, "sqlite", "SELECT a FROM t WHERE id = ?", []ir.Value{ir.Int(1)}, 0))

	fp := ir.MustFingerprint("sqlite", "SELECT a FROM t WHERE id = ?", params)
	entries, err := s.ByFingerprint(ctx, fp)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq, "oldest first")
	assert.Equal(t, int64(3), entries[1].Seq)
}

func TestSeqResumesAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s1, err := Open(path, WithRunIDs(NewFixedRunIDs("first")))
	require.NoError(t, err)
	require.NoError(t, s1.Record(ctx, "sqlite", "SELECT 1", nil, 1))
	require.NoError(t, s1.Record(ctx, "sqlite", "SELECT 2", nil, 1))
	require.NoError(t, s1.Close())

	s2, err := Open(path, WithRunIDs(NewFixedRunIDs("second")))
	require.NoError(t, err)
	defer s2.Close()

	last, err := s2.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)

	require.NoError(t, s2.Record(ctx, "sqlite", "SELECT 3", nil, 1))
	entries, err := s2.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].Seq)
	assert.Equal(t, "second", entries[0].RunID)
}

func TestRecord_Concurrent(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Record(ctx, "sqlite", "SELECT 1", nil, 1))
		}()
	}
	wg.Wait()

	entries, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, writers)
}

func TestRecord_RejectsNonFiniteParams(t *testing.T) {
	s, _ := createTestStore(t)

	err := s.Record(context.Background(), "sqlite", "SELECT ?", []ir.Value{ir.Float(posInf())}, 0)
	assert.Error(t, err)
}

func posInf() float64 {
	var zero float64
	return 1 / zero
}
