// Package store provides the SQLite-backed storage boundary the engine runs on.
//
// The store exposes three shapes of access:
//   - Entries: content-addressed, append-only expressions (Put/Get/Query)
//   - Edge indexes: follows, friendship requests and edges, cross links,
//     collective posts, communication methods and members
//   - Profiles: the one mutable record kind, keyed by identity
//
// # Rules every table follows
//
// Idempotent writes
//   - Structural edges are keyed by their full identity and inserted with
//     ON CONFLICT DO NOTHING, so a retried write never duplicates an edge
//   - Entries are keyed by (partition_id, hash); re-putting returns the
//     stored entry unchanged
//
// Deterministic reads
//   - Every paged query has a total ORDER BY ending in a unique key
//     compared with COLLATE BINARY
//
// Storage failures
//   - Every call runs under a timeout and a circuit breaker; timeouts,
//     busy/locked databases and open-breaker rejections surface as
//     errs.StorageUnavailable with state unchanged
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
//   - one open connection: SQLite has a single writer, and each engine
//     operation is one transaction on it
package store
