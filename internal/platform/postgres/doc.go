// Package postgres provides PostgreSQL-backed implementations of the
// store interfaces. Every store accepts a store.DBTX so the same
// implementation runs against a connection pool or an open transaction,
// and exposes a WithTx* method that rebinds it to a caller-managed
// transaction for multi-store atomic operations.
package postgres
