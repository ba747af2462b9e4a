package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/grizzly/internal/ir"
)

// Entry is one recorded query execution.
type Entry struct {
	Seq         int64  `json:"seq"`
	RunID       string `json:"run_id"`
	Fingerprint string `json:"fingerprint"`
	Dialect     string `json:"dialect"`
	SQL         string `json:"sql"`
	Params      string `json:"params"`
	RowCount    int    `json:"row_count"`
}

// Record appends an execution to the history. Params are stored as
// canonical JSON so that identical queries share a fingerprint.
func (s *Store) Record(ctx context.Context, dialect, query string, params []ir.Value, rowCount int) error {
	if params == nil {
		params = []ir.Value{}
	}
	fingerprint, err := ir.Fingerprint(dialect, query, params)
	if err != nil {
		return fmt.Errorf("record query: %w", err)
	}
	paramsJSON, err := ir.MarshalCanonical(params)
	if err != nil {
		return fmt.Errorf("record query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO queries (seq, run_id, fingerprint, dialect, sql, params, row_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		s.clock.Next(),
		s.runID,
		fingerprint,
		dialect,
		query,
		string(paramsJSON),
		rowCount,
	)
	if err != nil {
		return fmt.Errorf("record query: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first. limit <= 0 returns
// every entry.
//
// Returns an empty slice (not nil) when the history is empty.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT seq, run_id, fingerprint, dialect, sql, params, row_count
		FROM queries
		ORDER BY seq DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.readEntries(ctx, query, args...)
}

// ByFingerprint returns every execution of one query, oldest first.
func (s *Store) ByFingerprint(ctx context.Context, fingerprint string) ([]Entry, error) {
	return s.readEntries(ctx, `
		SELECT seq, run_id, fingerprint, dialect, sql, params, row_count
		FROM queries
		WHERE fingerprint = ?
		ORDER BY seq ASC
	`, fingerprint)
}

// LastSeq returns the highest recorded seq, or 0 for an empty history.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM queries`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) readEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.RunID, &e.Fingerprint, &e.Dialect, &e.SQL, &e.Params, &e.RowCount); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
