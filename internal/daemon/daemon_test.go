package daemon_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/daemon"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/scheduler"
	"fieldsync/internal/spool"
	"fieldsync/internal/testsupport"
	"fieldsync/internal/uploader"
)

// recordingTransfer captures uploaded remote paths.
type recordingTransfer struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingTransfer) Upload(_ context.Context, _ string, remotePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, remotePath)
	return nil
}

func (r *recordingTransfer) uploaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func newDaemon(t *testing.T, cfg *config.Config, store *queue.Store, transfer uploader.Transfer) *daemon.Daemon {
	t.Helper()

	logger := logging.NewNop()
	spooler, err := spool.New(cfg, logger)
	if err != nil {
		t.Fatalf("spool.New: %v", err)
	}
	worker, err := uploader.NewWorker(store, transfer, logger, cfg.Upload.BatchSize)
	if err != nil {
		t.Fatalf("uploader.NewWorker: %v", err)
	}
	runner, err := scheduler.NewRunner(worker, nil, logger, scheduler.RunnerOptions{
		BackoffInitial: 5 * time.Millisecond,
		BackoffMax:     20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("scheduler.NewRunner: %v", err)
	}
	sched, err := scheduler.New(runner, scheduler.Constraints{}, logger)
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	d, err := daemon.New(cfg, store, spooler, sched, runner, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if item != nil && item.Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("item %d never reached status %s", id, want)
}

func TestDaemonAddPhotoDrainsQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	transfer := &recordingTransfer{}
	d := newDaemon(t, cfg, store, transfer)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	source := filepath.Join(t.TempDir(), "shelf.jpg")
	testsupport.WriteFile(t, source, 256)

	item, err := d.AddPhoto(context.Background(), source, "store-3", "Dockside Grocery")
	if err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected persisted item id")
	}

	waitForStatus(t, store, item.ID, queue.StatusUploaded)

	paths := transfer.uploaded()
	if len(paths) != 1 || paths[0] != item.RemotePath {
		t.Fatalf("unexpected uploads: %v", paths)
	}
}

func TestDaemonDrainsBacklogOnStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	localPath := filepath.Join(cfg.Paths.SpoolDir, "backlog.jpg")
	testsupport.WriteFile(t, localPath, 64)
	ids := testsupport.MustInsert(t, store, testsupport.NewItem("store-1", localPath, "store_images/store-1/backlog.jpg"))

	transfer := &recordingTransfer{}
	d := newDaemon(t, cfg, store, transfer)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	waitForStatus(t, store, ids[0], queue.StatusUploaded)
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	first := newDaemon(t, cfg, store, &recordingTransfer{})

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second := newDaemon(t, cfg, store, &recordingTransfer{})
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second daemon start to fail")
	}
}

func TestDaemonCleanupRemovesOldUploadedOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, store, &recordingTransfer{})

	old := testsupport.NewItem("store-1", "/spool/a.jpg", "store_images/store-1/a.jpg")
	old.Status = queue.StatusUploaded
	old.CreatedAtMs = time.Now().Add(-48 * time.Hour).UnixMilli()

	fresh := testsupport.NewItem("store-1", "/spool/b.jpg", "store_images/store-1/b.jpg")
	fresh.Status = queue.StatusUploaded

	pendingOld := testsupport.NewItem("store-2", "/spool/c.jpg", "store_images/store-2/c.jpg")
	pendingOld.CreatedAtMs = old.CreatedAtMs

	testsupport.MustInsert(t, store, old, fresh, pendingOld)

	removed, err := d.Cleanup(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	remaining, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 remaining items, got %d", len(remaining))
	}
}

func TestDaemonCleanupRejectsNegativeWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, store, &recordingTransfer{})

	if _, err := d.Cleanup(context.Background(), -time.Hour); err == nil {
		t.Fatal("expected error for negative window")
	}
}

func TestDaemonStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, store, &recordingTransfer{})

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if status.QueueDBPath != store.Path() {
		t.Fatalf("unexpected db path %q", status.QueueDBPath)
	}
	if !status.Unmetered {
		t.Fatal("expected unmetered without a network monitor")
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	status = d.Status(context.Background())
	if !status.Running {
		t.Fatal("daemon should report running after Start")
	}
	if status.PID == 0 {
		t.Fatal("expected pid in status")
	}
}
