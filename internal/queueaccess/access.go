// Package queueaccess exposes queue operations through a daemon IPC client
// when the daemon is running, or directly against the SQLite store when it
// is not. CLI commands that only inspect or prune the queue work either way.
package queueaccess

import (
	"context"
	"fmt"
	"time"

	"fieldsync/internal/api"
	"fieldsync/internal/ipc"
	"fieldsync/internal/queue"
)

// Access provides queue operations regardless of IPC or direct store backing.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]api.QueueItem, error)
	Describe(ctx context.Context, id int64) (*api.QueueItem, error)
	ClearAll(ctx context.Context) (int64, error)
	ClearUploaded(ctx context.Context) (int64, error)
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{store: store}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.QueueStats()
	if err != nil {
		return nil, err
	}
	return resp.Counts, nil
}

func (a *ipcAccess) List(_ context.Context, statuses []string) ([]api.QueueItem, error) {
	resp, err := a.client.QueueList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *ipcAccess) Describe(_ context.Context, id int64) (*api.QueueItem, error) {
	resp, err := a.client.QueueDescribe(id)
	if err != nil {
		return nil, err
	}
	if resp == nil || !resp.Found {
		return nil, nil
	}
	return &resp.Item, nil
}

func (a *ipcAccess) ClearAll(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClear()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ClearUploaded(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearUploaded()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	resp, err := a.client.Cleanup(olderThan)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

type storeAccess struct {
	store *queue.Store
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := a.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return api.MergeQueueStats(stats), nil
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.QueueItem, error) {
	var filters []queue.Status
	for _, s := range statuses {
		parsed, err := queue.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		filters = append(filters, parsed)
	}
	items, err := a.store.List(ctx, filters...)
	if err != nil {
		return nil, err
	}
	return api.FromQueueItems(items), nil
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*api.QueueItem, error) {
	item, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	converted := api.FromQueueItem(item)
	return &converted, nil
}

func (a *storeAccess) ClearAll(ctx context.Context) (int64, error) {
	return a.store.Clear(ctx)
}

func (a *storeAccess) ClearUploaded(ctx context.Context) (int64, error) {
	return a.store.ClearUploaded(ctx)
}

func (a *storeAccess) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan < 0 {
		return 0, fmt.Errorf("cleanup window must not be negative")
	}
	cutoff := time.Now().Add(-olderThan).UnixMilli()
	return a.store.DeleteUploadedBefore(ctx, cutoff)
}
