// Package queue persists upload items in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, and the status updates the upload worker performs. The database is
// the ground truth of what still needs to reach the remote object store: rows
// survive process death, and per-item status writes keep the queue resumable
// after an interrupted drain pass.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new statuses or fields, update schema.sql and bump schemaVersion.
package queue
