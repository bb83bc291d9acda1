// Package scheduler converts "there is new work" signals into at most one
// outstanding drain pass.
//
// Scheduler is the admission layer: every run request funnels through
// Enqueue under a single well-known work identifier, and duplicate requests
// are dropped while one is queued or running (KEEP semantics). The Substrate
// interface abstracts the execution environment that actually honors the
// network constraint and owns retry backoff; Runner is the in-process
// implementation used by the daemon. Invoking the upload worker directly from
// anywhere else is a contract violation: the KEEP policy is the only thing
// preventing two passes from racing on the same batch.
package scheduler
