package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fieldsync/internal/config"
)

func TestLoadDefaultConfigUsesEnvEndpointAndExpandsPaths(t *testing.T) {
	t.Setenv("FIELDSYNC_ENDPOINT", "minio.test:9000")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantSpool := filepath.Join(tempHome, ".local", "share", "fieldsync", "spool")
	if cfg.Paths.SpoolDir != wantSpool {
		t.Fatalf("unexpected spool dir: got %q want %q", cfg.Paths.SpoolDir, wantSpool)
	}
	if cfg.Storage.Endpoint != "minio.test:9000" {
		t.Fatalf("expected endpoint from env, got %q", cfg.Storage.Endpoint)
	}
	if cfg.Storage.Bucket != "fieldsync" {
		t.Fatalf("unexpected default bucket: %q", cfg.Storage.Bucket)
	}
	if cfg.Upload.BatchSize != 15 {
		t.Fatalf("unexpected default batch size: %d", cfg.Upload.BatchSize)
	}
	if !cfg.Network.RequireUnmetered {
		t.Fatal("expected unmetered gating enabled by default")
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected default log format: %q", cfg.Logging.Format)
	}
}

func TestLoadExplicitFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		`[paths]`,
		`spool_dir = "` + filepath.Join(dir, "spool") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		`[storage]`,
		`endpoint = "storage.example.com:9000"`,
		`bucket = "photos"`,
		`prefix = "/store_images/"`,
		`[upload]`,
		`batch_size = 5`,
		`[driver]`,
		`uid = " driver-1 "`,
		`name = "Jo Driver"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Storage.Bucket != "photos" {
		t.Fatalf("unexpected bucket: %q", cfg.Storage.Bucket)
	}
	if cfg.Storage.Prefix != "store_images" {
		t.Fatalf("expected prefix trimmed, got %q", cfg.Storage.Prefix)
	}
	if cfg.Upload.BatchSize != 5 {
		t.Fatalf("unexpected batch size: %d", cfg.Upload.BatchSize)
	}
	if cfg.Driver.UID != "driver-1" {
		t.Fatalf("expected driver uid trimmed, got %q", cfg.Driver.UID)
	}
	if cfg.QueueDBPath() != filepath.Join(dir, "logs", "queue.db") {
		t.Fatalf("unexpected queue db path: %q", cfg.QueueDBPath())
	}
	if cfg.SocketPath() != filepath.Join(dir, "logs", "fieldsync.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.SocketPath())
	}
}

func TestValidateRejectsMissingEndpoint(t *testing.T) {
	t.Setenv("FIELDSYNC_ENDPOINT", "")
	t.Setenv("HOME", t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil || !strings.Contains(err.Error(), "storage.endpoint") {
		t.Fatalf("expected storage.endpoint error, got %v", err)
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Endpoint = "minio.test:9000"
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for bad log format")
	}
}

func TestValidateRejectsBackoffInversion(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Endpoint = "minio.test:9000"
	cfg.Upload.BackoffInitial = 120
	cfg.Upload.BackoffMax = 60
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for backoff_max < backoff_initial")
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[storage]") {
		t.Fatal("expected sample to contain storage section")
	}
}
