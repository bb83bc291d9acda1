package queue

import (
	"fmt"
	"time"
)

// Status represents the lifecycle of an upload item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusUploaded  Status = "uploaded"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusUploading,
	StatusUploaded,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// eligibleStatuses are the statuses NextPending selects: fresh rows and rows
// whose previous attempt failed. Uploading and uploaded rows are never
// re-selected.
var eligibleStatuses = []Status{StatusPending, StatusFailed}

// Valid reports whether the status is a known enum value.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether no further attempts will be made for the status.
func (s Status) Terminal() bool {
	return s == StatusUploaded
}

// ParseStatus converts a persisted string into a Status, rejecting unknown values.
func ParseStatus(value string) (Status, error) {
	status := Status(value)
	if !status.Valid() {
		return "", fmt.Errorf("unknown queue status %q", value)
	}
	return status, nil
}

// AllStatuses returns the closed set of statuses in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// Item is one queued photo upload.
//
// After creation only Status, RetryCount, and LastError change; everything
// else is immutable business context captured at enqueue time. LocalFilePath
// must reference a durable app-private copy of the image bytes - the enqueue
// step copies into the spool before inserting, because the original source
// reference may not survive process death.
type Item struct {
	ID            int64
	StoreID       string
	StoreName     string
	DriverUID     string
	DriverName    string
	LocalFilePath string
	SourceURI     string
	RemotePath    string
	CreatedAtMs   int64
	Status        Status
	RetryCount    int
	LastError     string
	UpdatedAt     time.Time
}

// CreatedAt returns the enqueue timestamp as a time.Time.
func (i *Item) CreatedAt() time.Time {
	return time.UnixMilli(i.CreatedAtMs).UTC()
}
