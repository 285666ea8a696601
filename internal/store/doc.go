// Package store defines persistence interfaces for the study engine's
// entities, a DBTX abstraction that lets implementations run against a
// database connection or a transaction, and a transaction helper used by
// every multi-step write path.
package store
