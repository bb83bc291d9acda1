package ipc

import "fieldsync/internal/api"

// QueueItem mirrors the API queue DTO for IPC callers.
type QueueItem = api.QueueItem

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse carries the combined daemon status payload.
type StatusResponse = api.DaemonStatus

// AddPhotoRequest spools and enqueues a captured photo.
type AddPhotoRequest struct {
	SourcePath string `json:"source_path"`
	StoreID    string `json:"store_id"`
	StoreName  string `json:"store_name"`
}

// AddPhotoResponse returns the enqueued item.
type AddPhotoResponse = api.QueueItemResponse

// DrainRequest asks the daemon to schedule an upload pass.
type DrainRequest struct{}

// DrainResponse reports whether the pass was scheduled.
type DrainResponse struct {
	Scheduled bool `json:"scheduled"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse = api.QueueListResponse

// QueueDescribeRequest fetches a single queue item by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single queue entry. Found is false
// when no row with the requested id exists.
type QueueDescribeResponse struct {
	Item  QueueItem `json:"item"`
	Found bool      `json:"found"`
}

// QueueStatsRequest fetches per-status counts.
type QueueStatsRequest struct{}

// QueueStatsResponse reports per-status counts.
type QueueStatsResponse = api.QueueStatsResponse

// QueueClearRequest removes all items.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearUploadedRequest removes uploaded items.
type QueueClearUploadedRequest struct{}

// QueueClearUploadedResponse reports number of removed entries.
type QueueClearUploadedResponse struct {
	Removed int64 `json:"removed"`
}

// CleanupRequest removes uploaded rows older than the retention window.
type CleanupRequest struct {
	OlderThanMs int64 `json:"older_than_ms"`
}

// CleanupResponse reports number of removed entries.
type CleanupResponse struct {
	Removed int64 `json:"removed"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
