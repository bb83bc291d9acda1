package testsupport

import (
	"context"
	"testing"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewItem builds an upload item with sensible test defaults. The caller owns
// making LocalFilePath exist when the test exercises a real transfer.
func NewItem(storeID, localPath, remotePath string) *queue.Item {
	return &queue.Item{
		StoreID:       storeID,
		StoreName:     "Store " + storeID,
		DriverUID:     "driver-test",
		DriverName:    "Test Driver",
		LocalFilePath: localPath,
		SourceURI:     "content://media/" + storeID,
		RemotePath:    remotePath,
		CreatedAtMs:   time.Now().UnixMilli(),
	}
}

// MustInsert inserts items and fails the test on error.
func MustInsert(t testing.TB, store *queue.Store, items ...*queue.Item) []int64 {
	t.Helper()

	ids, err := store.InsertAll(context.Background(), items)
	if err != nil {
		t.Fatalf("store.InsertAll: %v", err)
	}
	return ids
}
