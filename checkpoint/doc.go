// Package checkpoint provides durable stores for workflow checkpoints,
// implementing flow.CheckpointStore.
//
// Three backends are available:
//   - MemoryStore: process-local, for tests and fire-and-forget runs
//   - FileStore: one JSON file per checkpoint under a runs/ directory
//   - SQLiteStore: a single database file, suitable for out-of-process
//     resume of many runs
//
// Checkpoints are append-only and monotonically sequenced per run id.
// Superseded checkpoints may be garbage-collected with Prune; the latest
// is always retained.
package checkpoint
