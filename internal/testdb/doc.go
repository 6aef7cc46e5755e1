// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests using this package are skipped unless DATABASE_URL (or
// REMINDER_TEST_DB_URL) points at a reachable server. The schema is brought
// up with the same embedded migrations the worker applies at startup.
//
// Rows written through InsertReminder are removed when the test finishes, so
// integration tests can share one database without transactional isolation.
// The store opens its own transactions, which rules out wrapping each test in
// a rolled-back *sql.Tx.
package testdb
