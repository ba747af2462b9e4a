package executor

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/grizzly/internal/ir"
)

// Driver names as registered with database/sql.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// NormalizeDriver maps user-facing spellings to a registered driver name.
func NormalizeDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pq":
		return DriverPostgres, nil
	case "mysql":
		return DriverMySQL, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// Executor runs queries on one database handle.
type Executor struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger for query tracing. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// Open connects to dsn with the named driver and verifies the connection.
//
// SQLite connections get:
//   - a single open connection
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Executor, error) {
	name, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if name == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	e := New(db, name, opts...)
	e.logger.Debug("database opened", "driver", name)
	return e, nil
}

// New wraps an existing handle. driver names the dialect of db.
func New(db *sql.DB, driver string, opts ...Option) *Executor {
	e := &Executor{
		db:     db,
		driver: driver,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Driver returns the registered driver name.
func (e *Executor) Driver() string {
	return e.driver
}

// DB returns the underlying handle.
func (e *Executor) DB() *sql.DB {
	return e.db
}

// Close closes the connection.
func (e *Executor) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// Exec runs a statement that returns no rows.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := e.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Query runs query with params bound in order and reads every row.
func (e *Executor) Query(ctx context.Context, query string, params []ir.Value) (*ir.ResultSet, error) {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = ir.ToAny(p)
	}

	start := time.Now()
	e.logger.Debug("query started", "driver", e.driver, "sql", query, "params", len(args))

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	rs, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("query finished", "rows", rs.Len(), "elapsed", time.Since(start))
	return rs, nil
}

func scanRows(rows *sql.Rows) (*ir.ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	rs := &ir.ResultSet{Columns: columns, Rows: [][]ir.Value{}}
	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(rs.Rows), err)
		}
		row := make([]ir.Value, len(columns))
		for i, v := range raw {
			row[i] = toValue(v)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rs, nil
}

// toValue converts a driver value to an ir.Value. Byte slices are text in
// every supported driver's text protocol.
func toValue(v any) ir.Value {
	switch val := v.(type) {
	case nil:
		return ir.Null{}
	case []byte:
		return ir.String(string(val))
	case time.Time:
		return ir.String(val.UTC().Format(time.RFC3339Nano))
	default:
		if iv, err := ir.FromAny(val); err == nil {
			return iv
		}
		return ir.String(fmt.Sprint(val))
	}
}
