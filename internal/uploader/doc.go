// Package uploader drains the durable photo queue against the remote object
// store.
//
// One Run is one drain pass: a bounded batch of pending/failed rows, oldest
// first, processed strictly sequentially with a status write after every
// transition. Per-item failures never abort the pass; they only flip the
// aggregate result to ResultRetry so the scheduling substrate reschedules the
// whole pass with backoff. A pass interrupted between items leaves the queue
// valid and resumable because every completed item is already persisted.
package uploader
