package uploader_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
	"fieldsync/internal/uploader"
)

// fakeTransfer records upload attempts and fails keys listed in failures.
type fakeTransfer struct {
	mu       sync.Mutex
	uploads  []string
	failures map[string]error
}

func (f *fakeTransfer) Upload(_ context.Context, _, remotePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failures[remotePath]; ok {
		return err
	}
	f.uploads = append(f.uploads, remotePath)
	return nil
}

func (f *fakeTransfer) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

func newWorker(t *testing.T, store *queue.Store, transfer uploader.Transfer, batchSize int) *uploader.Worker {
	t.Helper()
	worker, err := uploader.NewWorker(store, transfer, logging.NewNop(), batchSize)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	return worker
}

func spoolItem(t *testing.T, dir, storeID, name string) *queue.Item {
	t.Helper()
	localPath := filepath.Join(dir, name)
	testsupport.WriteFile(t, localPath, 64)
	return testsupport.NewItem(storeID, localPath, "store_images/"+storeID+"/"+name)
}

func TestRunEmptyQueueSucceeds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	worker := newWorker(t, store, &fakeTransfer{}, 15)

	result, err := worker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result != uploader.ResultSuccess {
		t.Fatalf("expected success for empty queue, got %s", result)
	}
}

func TestRunUploadsAndCleansUpLocalFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	transfer := &fakeTransfer{}
	worker := newWorker(t, store, transfer, 15)

	item := spoolItem(t, t.TempDir(), "store-1", "a.jpg")
	testsupport.MustInsert(t, store, item)

	result, err := worker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result != uploader.ResultSuccess {
		t.Fatalf("expected success, got %s", result)
	}

	updated, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != queue.StatusUploaded {
		t.Fatalf("expected uploaded, got %s", updated.Status)
	}
	if updated.LastError != "" {
		t.Fatalf("expected cleared error, got %q", updated.LastError)
	}
	if updated.RetryCount != 0 {
		t.Fatalf("expected retry count untouched on success, got %d", updated.RetryCount)
	}
	if _, statErr := os.Stat(item.LocalFilePath); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected spool file removed, stat err: %v", statErr)
	}
	if got := transfer.uploaded(); len(got) != 1 || got[0] != item.RemotePath {
		t.Fatalf("unexpected uploads: %v", got)
	}
}

func TestRunMissingLocalFileMarksFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	worker := newWorker(t, store, &fakeTransfer{}, 15)

	item := testsupport.NewItem("store-1", filepath.Join(t.TempDir(), "gone.jpg"), "store_images/store-1/gone.jpg")
	testsupport.MustInsert(t, store, item)

	result, err := worker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result != uploader.ResultRetry {
		t.Fatalf("expected retry result, got %s", result)
	}

	updated, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", updated.Status)
	}
	if updated.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", updated.RetryCount)
	}
	if updated.LastError != "Local file missing" {
		t.Fatalf("unexpected last error: %q", updated.LastError)
	}
}

func TestRunMixedBatchReportsRetryAndContainsFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := t.TempDir()

	good := spoolItem(t, dir, "store-1", "good.jpg")
	good.CreatedAtMs = 100
	bad := spoolItem(t, dir, "store-1", "bad.jpg")
	bad.CreatedAtMs = 200
	testsupport.MustInsert(t, store, good, bad)

	transfer := &fakeTransfer{failures: map[string]error{
		bad.RemotePath: errors.New("connection reset"),
	}}
	worker := newWorker(t, store, transfer, 15)

	result, err := worker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result != uploader.ResultRetry {
		t.Fatalf("expected retry result, got %s", result)
	}

	ctx := context.Background()
	goodRow, err := store.GetByID(ctx, good.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if goodRow.Status != queue.StatusUploaded {
		t.Fatalf("expected first item uploaded, got %s", goodRow.Status)
	}
	badRow, err := store.GetByID(ctx, bad.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if badRow.Status != queue.StatusFailed || badRow.RetryCount != 1 {
		t.Fatalf("expected second item failed once, got %#v", badRow)
	}
	if badRow.LastError != "connection reset" {
		t.Fatalf("unexpected diagnostic: %q", badRow.LastError)
	}
}

func TestRunRetriesPreviouslyFailedItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := t.TempDir()

	item := spoolItem(t, dir, "store-1", "flaky.jpg")
	testsupport.MustInsert(t, store, item)

	transfer := &fakeTransfer{failures: map[string]error{
		item.RemotePath: errors.New("server unavailable"),
	}}
	worker := newWorker(t, store, transfer, 15)

	ctx := context.Background()
	if result, err := worker.Run(ctx); err != nil || result != uploader.ResultRetry {
		t.Fatalf("first pass: result=%v err=%v", result, err)
	}

	// Next pass finds the failed row again and succeeds.
	transfer.mu.Lock()
	transfer.failures = nil
	transfer.mu.Unlock()
	if result, err := worker.Run(ctx); err != nil || result != uploader.ResultSuccess {
		t.Fatalf("second pass: result=%v err=%v", result, err)
	}

	updated, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != queue.StatusUploaded {
		t.Fatalf("expected uploaded after retry, got %s", updated.Status)
	}
	if updated.RetryCount != 1 {
		t.Fatalf("expected retry count preserved at 1, got %d", updated.RetryCount)
	}
	if updated.LastError != "" {
		t.Fatalf("expected diagnostic cleared, got %q", updated.LastError)
	}
}

func TestRunInterruptedPassLeavesQueueResumable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := t.TempDir()

	items := make([]*queue.Item, 0, 3)
	for i, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		item := spoolItem(t, dir, "store-1", name)
		item.CreatedAtMs = int64(100 * (i + 1))
		items = append(items, item)
	}
	testsupport.MustInsert(t, store, items...)

	// Cancel the pass after the first item completes.
	ctx, cancel := context.WithCancel(context.Background())
	transfer := &cancellingTransfer{cancel: cancel}
	worker := newWorker(t, store, transfer, 15)

	if _, err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	pending, err := store.NextPending(context.Background(), 15)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 resumable items, got %d", len(pending))
	}
	if pending[0].ID != items[1].ID || pending[1].ID != items[2].ID {
		t.Fatalf("unexpected resumable items: %#v", pending)
	}
	first, err := store.GetByID(context.Background(), items[0].ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if first.Status != queue.StatusUploaded {
		t.Fatalf("expected first item persisted as uploaded, got %s", first.Status)
	}
}

// cancellingTransfer succeeds once, then cancels the run context.
type cancellingTransfer struct {
	mu     sync.Mutex
	count  int
	cancel context.CancelFunc
}

func (c *cancellingTransfer) Upload(context.Context, string, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	if c.count == 1 {
		c.cancel()
	}
	return nil
}

func TestRunHonorsBatchBound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := t.TempDir()

	for i := 0; i < 4; i++ {
		item := spoolItem(t, dir, "store-1", fmt.Sprintf("%d.jpg", i))
		item.CreatedAtMs = int64(100 + i)
		testsupport.MustInsert(t, store, item)
	}

	transfer := &fakeTransfer{}
	worker := newWorker(t, store, transfer, 2)

	if result, err := worker.Run(context.Background()); err != nil || result != uploader.ResultSuccess {
		t.Fatalf("Run: result=%v err=%v", result, err)
	}
	if got := transfer.uploaded(); len(got) != 2 {
		t.Fatalf("expected batch bound of 2, uploaded %d", len(got))
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[queue.StatusUploaded] != 2 || stats[queue.StatusPending] != 2 {
		t.Fatalf("unexpected stats after bounded pass: %#v", stats)
	}
}

func TestNewWorkerValidatesArguments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := uploader.NewWorker(nil, &fakeTransfer{}, logging.NewNop(), 1); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := uploader.NewWorker(store, nil, logging.NewNop(), 1); err == nil {
		t.Fatal("expected error for nil transfer")
	}
	if _, err := uploader.NewWorker(store, &fakeTransfer{}, logging.NewNop(), 0); err == nil {
		t.Fatal("expected error for zero batch size")
	}
}
