package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/grizzly/internal/ir"
)

// Dialect captures the syntax differences between target databases.
type Dialect interface {
	// Name identifies the dialect ("sqlite", "postgres", "mysql").
	Name() string

	// QuoteIdent quotes a single identifier part.
	QuoteIdent(name string) string

	// Placeholder returns the bind parameter marker for the n-th (1-based)
	// parameter.
	Placeholder(n int) string

	// Literal renders v inline.
	Literal(v ir.Value) string
}

// SQLite is the dialect of mattn/go-sqlite3.
var SQLite Dialect = sqliteDialect{}

// Postgres is the dialect of lib/pq.
var Postgres Dialect = postgresDialect{}

// MySQL is the dialect of go-sql-driver/mysql.
var MySQL Dialect = mysqlDialect{}

type sqliteDialect struct{}

func (sqliteDialect) Name() string                  { return "sqlite" }
func (sqliteDialect) QuoteIdent(name string) string { return doubleQuote(name) }
func (sqliteDialect) Placeholder(int) string        { return "?" }
func (sqliteDialect) Literal(v ir.Value) string     { return standardLiteral(v) }

type postgresDialect struct{}

func (postgresDialect) Name() string                  { return "postgres" }
func (postgresDialect) QuoteIdent(name string) string { return doubleQuote(name) }
func (postgresDialect) Placeholder(n int) string      { return "$" + strconv.Itoa(n) }
func (postgresDialect) Literal(v ir.Value) string     { return standardLiteral(v) }

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (mysqlDialect) Placeholder(int) string { return "?" }

// Literal escapes backslashes too: MySQL treats them as escapes inside
// string literals unless NO_BACKSLASH_ESCAPES is set.
func (mysqlDialect) Literal(v ir.Value) string {
	if s, ok := v.(ir.String); ok {
		escaped := strings.ReplaceAll(string(s), `\`, `\\`)
		return "'" + strings.ReplaceAll(escaped, "'", "''") + "'"
	}
	return standardLiteral(v)
}

func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func standardLiteral(v ir.Value) string {
	switch val := v.(type) {
	case ir.String:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	case ir.Int, ir.Float:
		return ir.Format(val)
	case ir.Bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return "NULL"
	}
}

// DialectByName returns the dialect with the given name. Driver names are
// accepted as aliases ("sqlite3", "pq", "postgresql").
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return nil, fmt.Errorf("unknown SQL dialect %q", name)
	}
}
