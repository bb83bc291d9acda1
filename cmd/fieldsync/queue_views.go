package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fieldsync/internal/api"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(items []api.QueueItem) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]api.QueueItem, len(items))
	copy(sorted, items)

	// Oldest first, matching upload order.
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAtMs == sorted[j].CreatedAtMs {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAtMs < sorted[j].CreatedAtMs
	})

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			photoLabel(item),
			storeLabel(item),
			formatStatusLabel(item.Status),
			fmt.Sprintf("%d", item.RetryCount),
			formatDisplayTime(item.CreatedAt),
		})
	}
	return rows
}

func photoLabel(item api.QueueItem) string {
	path := strings.TrimSpace(item.LocalFilePath)
	if path == "" {
		path = strings.TrimSpace(item.SourceURI)
	}
	if path == "" {
		return "Unknown"
	}
	return filepath.Base(path)
}

func storeLabel(item api.QueueItem) string {
	if name := strings.TrimSpace(item.StoreName); name != "" {
		return name
	}
	if id := strings.TrimSpace(item.StoreID); id != "" {
		return id
	}
	return "-"
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func buildQueueItemDetailRows(item api.QueueItem) [][]string {
	rows := [][]string{
		{"ID", fmt.Sprintf("%d", item.ID)},
		{"Status", formatStatusLabel(item.Status)},
		{"Store", storeLabel(item)},
		{"Driver", driverLabel(item)},
		{"Local file", item.LocalFilePath},
		{"Remote path", item.RemotePath},
		{"Source", item.SourceURI},
		{"Retries", fmt.Sprintf("%d", item.RetryCount)},
		{"Created", formatDisplayTime(item.CreatedAt)},
	}
	if updated := formatDisplayTime(item.UpdatedAt); updated != "" {
		rows = append(rows, []string{"Updated", updated})
	}
	if strings.TrimSpace(item.LastError) != "" {
		rows = append(rows, []string{"Last error", item.LastError})
	}
	return rows
}

func driverLabel(item api.QueueItem) string {
	name := strings.TrimSpace(item.DriverName)
	uid := strings.TrimSpace(item.DriverUID)
	switch {
	case name != "" && uid != "":
		return fmt.Sprintf("%s (%s)", name, uid)
	case name != "":
		return name
	case uid != "":
		return uid
	default:
		return "-"
	}
}
