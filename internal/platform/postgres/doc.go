// Package postgres provides the PostgreSQL implementation of the reminder
// store defined in the internal/store package. It handles query execution,
// row locking for status changes, mapping of driver errors onto store
// sentinels, and the embedded schema migrations.
package postgres
