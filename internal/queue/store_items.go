package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertAll bulk-inserts upload items in one transaction and returns the
// generated ids in input order. Zero CreatedAtMs defaults to now and an empty
// status defaults to pending. A primary-key conflict replaces the existing row;
// ids are normally auto-generated so this path is a defensive guard, not a
// functional one.
func (s *Store) InsertAll(ctx context.Context, items []*Item) ([]int64, error) {
	if len(items) == 0 {
		return nil, nil
	}
	ctx = ensureContext(ctx)

	now := time.Now().UTC()
	for _, item := range items {
		if item == nil {
			return nil, errors.New("item is nil")
		}
		if item.LocalFilePath == "" {
			return nil, errors.New("local file path is required")
		}
		if item.RemotePath == "" {
			return nil, errors.New("remote path is required")
		}
		if item.Status == "" {
			item.Status = StatusPending
		}
		if !item.Status.Valid() {
			return nil, fmt.Errorf("unknown queue status %q", item.Status)
		}
		if item.CreatedAtMs == 0 {
			item.CreatedAtMs = now.UnixMilli()
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, 0, len(items))
	timestamp := now.Format(time.RFC3339Nano)
	for _, item := range items {
		var idArg any
		if item.ID != 0 {
			idArg = item.ID
		}
		res, err := tx.ExecContext(
			ctx,
			`INSERT OR REPLACE INTO upload_items (
                id, store_id, store_name, driver_uid, driver_name,
                local_file_path, source_uri, remote_path, created_at_ms,
                status, retry_count, last_error, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			idArg,
			item.StoreID,
			nullableString(item.StoreName),
			nullableString(item.DriverUID),
			nullableString(item.DriverName),
			item.LocalFilePath,
			nullableString(item.SourceURI),
			item.RemotePath,
			item.CreatedAtMs,
			item.Status,
			item.RetryCount,
			nullableString(item.LastError),
			timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("insert item: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		item.ID = id
		item.UpdatedAt = now
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return ids, nil
}

// NextPending returns up to limit pending or failed items, oldest first.
// Oldest-first keeps the queue fair: a fresh enqueue never starves an older
// item that is still awaiting its first successful transfer.
func (s *Store) NextPending(ctx context.Context, limit int) ([]*Item, error) {
	if limit <= 0 {
		return nil, nil
	}

	placeholders := makePlaceholders(len(eligibleStatuses))
	args := make([]any, 0, len(eligibleStatuses)+1)
	for _, status := range eligibleStatuses {
		args = append(args, status)
	}
	args = append(args, limit)

	query := `SELECT ` + itemColumns + ` FROM upload_items WHERE status IN (` + placeholders + `) ORDER BY created_at_ms LIMIT ?`
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus atomically writes the three mutable fields of a row. The single
// UPDATE keeps status, retry_count, and last_error consistent even when two
// runs accidentally race on the same item.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status Status, retryCount int, lastError string) error {
	if !status.Valid() {
		return fmt.Errorf("unknown queue status %q", status)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE upload_items SET status = ?, retry_count = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		status,
		retryCount,
		nullableString(lastError),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update status: item %d not found", id)
	}
	return nil
}

// GetByID fetches an upload item by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM upload_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// List returns upload items filtered by status set (or all items when no
// status is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)
	ctx = ensureContext(ctx)

	baseQuery := `SELECT ` + itemColumns + ` FROM upload_items`
	orderClause := ` ORDER BY created_at_ms`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list upload items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteUploadedBefore removes uploaded rows older than the cutoff. Retention
// only touches uploaded rows; pending and failed rows are kept until they
// succeed.
func (s *Store) DeleteUploadedBefore(ctx context.Context, cutoffMs int64) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM upload_items WHERE status = ? AND created_at_ms < ?`,
		StatusUploaded,
		cutoffMs,
	)
	if err != nil {
		return 0, fmt.Errorf("delete uploaded before cutoff: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a per-status row count.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM upload_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		status, err := ParseStatus(statusStr)
		if err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ClearUploaded removes only uploaded items from the queue.
func (s *Store) ClearUploaded(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM upload_items WHERE status = ?`, StatusUploaded)
	if err != nil {
		return 0, fmt.Errorf("clear uploaded: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all items from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM upload_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}
