package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID            int64  `json:"id"`
	StoreID       string `json:"storeId"`
	StoreName     string `json:"storeName,omitempty"`
	DriverUID     string `json:"driverUid,omitempty"`
	DriverName    string `json:"driverName,omitempty"`
	LocalFilePath string `json:"localFilePath"`
	SourceURI     string `json:"sourceUri,omitempty"`
	RemotePath    string `json:"remotePath"`
	Status        string `json:"status"`
	RetryCount    int    `json:"retryCount"`
	LastError     string `json:"lastError,omitempty"`
	CreatedAtMs   int64  `json:"createdAtMs"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	SocketPath   string         `json:"socketPath,omitempty"`
	Unmetered    bool           `json:"unmetered"`
	DrainPending bool           `json:"drainPending"`
	LastResult   string         `json:"lastResult,omitempty"`
	QueueStats   map[string]int `json:"queueStats"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// QueueListResponse wraps a collection of queue items for API responses.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}
