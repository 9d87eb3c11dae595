// Package store provides the database/sql backed connection the executor
// runs statements on.
//
// A Store owns a *sql.DB for one of the registered drivers (sqlite3 by
// default, postgres and mysql). Each query execution runs in a Session,
// which implements exec.LogicalConnection: it pins one pooled connection
// for the duration of a statement, tracks the prepared statement in a
// registry and hands the connection back to the pool after the statement.
//
// # SQLite configuration
//
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//   - a single open connection, so ":memory:" databases are shared by
//     every session of the store
package store
