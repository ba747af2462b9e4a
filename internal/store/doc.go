// Package store provides SQLite-backed history of executed queries.
//
// Every query run through the generator is appended to the queries table
// with:
//   - seq: logical clock value, strictly increasing across runs
//   - run_id: UUIDv7 naming the process that ran it
//   - fingerprint: domain-separated SHA-256 of dialect, SQL and params
//   - params: canonical JSON of the bind parameters
//   - row_count: rows returned
//
// # Ordering
//
// All ordering uses seq, never timestamps. List returns the newest entries
// first; ByFingerprint returns a query's executions oldest first.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
