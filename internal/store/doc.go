// Package store provides SQLite-backed persistence for save slots and the
// scoreboard.
//
// Saves are opaque JSON blobs produced by engine.ExportSave, one row per slot
// (A, B, C). Writes are idempotent on content: a blob whose digest matches the
// stored one is not rewritten, so the engine's debounced flushes cost nothing
// when the run has not changed. Finished runs are appended to the scores
// table and never updated.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Queries that return several rows order by a sequence column, never by a
// timestamp, so results are stable across machines.
package store
