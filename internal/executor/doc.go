// Package executor runs compiled SQL against a database/sql connection and
// materializes the rows as ir values.
//
// Three drivers are registered: sqlite3 (mattn/go-sqlite3), postgres
// (lib/pq) and mysql (go-sql-driver/mysql). SQLite connections are limited
// to a single open connection so that ":memory:" databases survive between
// calls.
package executor
