package api

import (
	"time"

	"fieldsync/internal/queue"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:            item.ID,
		StoreID:       item.StoreID,
		StoreName:     item.StoreName,
		DriverUID:     item.DriverUID,
		DriverName:    item.DriverName,
		LocalFilePath: item.LocalFilePath,
		SourceURI:     item.SourceURI,
		RemotePath:    item.RemotePath,
		Status:        string(item.Status),
		RetryCount:    item.RetryCount,
		LastError:     item.LastError,
		CreatedAtMs:   item.CreatedAtMs,
	}
	if item.CreatedAtMs > 0 {
		dto.CreatedAt = FormatTime(item.CreatedAt())
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = FormatTime(item.UpdatedAt)
	}
	return dto
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// MergeQueueStats produces a string-keyed representation of queue stats.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
