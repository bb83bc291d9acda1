package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, store_id, store_name, driver_uid, driver_name, local_file_path, source_uri, remote_path, created_at_ms, status, retry_count, last_error, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id          int64
		storeID     string
		storeName   sql.NullString
		driverUID   sql.NullString
		driverName  sql.NullString
		localPath   string
		sourceURI   sql.NullString
		remotePath  string
		createdAtMs int64
		statusStr   string
		retryCount  int64
		lastError   sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&storeID,
		&storeName,
		&driverUID,
		&driverName,
		&localPath,
		&sourceURI,
		&remotePath,
		&createdAtMs,
		&statusStr,
		&retryCount,
		&lastError,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	status, err := ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}

	item := &Item{
		ID:            id,
		StoreID:       storeID,
		StoreName:     storeName.String,
		DriverUID:     driverUID.String,
		DriverName:    driverName.String,
		LocalFilePath: localPath,
		SourceURI:     sourceURI.String,
		RemotePath:    remotePath,
		CreatedAtMs:   createdAtMs,
		Status:        status,
		RetryCount:    int(retryCount),
		LastError:     lastError.String,
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
