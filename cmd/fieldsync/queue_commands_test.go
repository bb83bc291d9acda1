package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
)

func TestQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	ids := testsupport.MustInsert(t, env.store,
		testsupport.NewItem("store-1", "/spool/alpha.jpg", "store_images/store-1/alpha.jpg"),
		testsupport.NewItem("store-2", "/spool/beta.jpg", "store_images/store-2/beta.jpg"),
	)
	if err := env.store.UpdateStatus(ctx, ids[1], queue.StatusFailed, 2, "connection reset"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Pending")
	requireContains(t, out, "Failed")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "alpha.jpg")
	requireContains(t, out, "beta.jpg")

	out, _, err = runCLI(t, []string{"queue", "list", "--status", "failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list --status failed: %v", err)
	}
	requireContains(t, out, "beta.jpg")
	if strings.Contains(out, "alpha.jpg") {
		t.Fatalf("expected alpha.jpg to be filtered out:\n%s", out)
	}
}

func TestQueueShowAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	ids := testsupport.MustInsert(t, env.store,
		testsupport.NewItem("store-7", "/spool/shelf.jpg", "store_images/store-7/shelf.jpg"),
	)
	if err := env.store.UpdateStatus(ctx, ids[0], queue.StatusUploaded, 0, ""); err != nil {
		t.Fatalf("mark uploaded: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", ids[0])}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "shelf.jpg")
	requireContains(t, out, "Uploaded")

	out, _, err = runCLI(t, []string{"queue", "show", "99999"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show missing: %v", err)
	}
	requireContains(t, out, "not found")

	out, _, err = runCLI(t, []string{"queue", "clear", "--uploaded"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear --uploaded: %v", err)
	}
	requireContains(t, out, "Cleared 1 uploaded items")

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared 0 queue items")
}

func TestQueueShowDownloadURL(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	ids := testsupport.MustInsert(t, env.store,
		testsupport.NewItem("store-7", "/spool/shelf.jpg", "store_images/store-7/shelf.jpg"),
		testsupport.NewItem("store-7", "/spool/aisle.jpg", "store_images/store-7/aisle.jpg"),
	)
	if err := env.store.UpdateStatus(ctx, ids[0], queue.StatusUploaded, 0, ""); err != nil {
		t.Fatalf("mark uploaded: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", ids[0]), "--url"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show --url: %v", err)
	}
	requireContains(t, out, "Download URL")
	requireContains(t, out, "storage.test")

	// Pending items have nothing to link to yet.
	if _, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", ids[1]), "--url"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected error for --url on a pending item")
	}
}

func TestQueueCleanupRemovesOldUploads(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	old := testsupport.NewItem("store-3", "/spool/old.jpg", "store_images/store-3/old.jpg")
	old.CreatedAtMs = time.Now().Add(-48 * time.Hour).UnixMilli()
	recent := testsupport.NewItem("store-3", "/spool/new.jpg", "store_images/store-3/new.jpg")
	ids := testsupport.MustInsert(t, env.store, old, recent)
	for _, id := range ids {
		if err := env.store.UpdateStatus(ctx, id, queue.StatusUploaded, 0, ""); err != nil {
			t.Fatalf("mark uploaded: %v", err)
		}
	}

	out, _, err := runCLI(t, []string{"queue", "cleanup", "--older-than", "24h"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue cleanup: %v", err)
	}
	requireContains(t, out, "Removed 1 uploaded items")

	remaining, err := env.store.List(ctx)
	if err != nil {
		t.Fatalf("list remaining: %v", err)
	}
	if len(remaining) != 1 || remaining[0].LocalFilePath != "/spool/new.jpg" {
		t.Fatalf("expected only the recent item to survive, got %d items", len(remaining))
	}
}

func TestQueueCommandsFallBackToStore(t *testing.T) {
	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.MustInsert(t, store,
		testsupport.NewItem("store-9", "/spool/offline.jpg", "store_images/store-9/offline.jpg"),
	)

	configPath := filepath.Join(homeDir, "config.toml")
	writeTestConfig(t, configPath, cfg)

	deadSocket := filepath.Join(base, "missing.sock")
	out, _, err := runCLI(t, []string{"queue", "list"}, deadSocket, configPath)
	if err != nil {
		t.Fatalf("queue list offline: %v", err)
	}
	requireContains(t, out, "offline.jpg")

	out, _, err = runCLI(t, []string{"queue", "status"}, deadSocket, configPath)
	if err != nil {
		t.Fatalf("queue status offline: %v", err)
	}
	requireContains(t, out, "Pending")
}
