// Package testsupport provides shared helpers for package tests: temp-dir
// configs, queue store setup, and spool file fixtures.
package testsupport

import (
	"path/filepath"
	"testing"

	"fieldsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SpoolDir = filepath.Join(base, "spool")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Storage.Endpoint = "storage.test:9000"
	cfg.Storage.AccessKey = "test"
	cfg.Storage.SecretKey = "test"
	cfg.Driver.UID = "driver-test"
	cfg.Driver.Name = "Test Driver"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithBatchSize overrides the drain-pass batch bound on the test config.
func WithBatchSize(size int) ConfigOption {
	return func(c *config.Config) {
		c.Upload.BatchSize = size
	}
}

// WithDriver overrides the driver provenance on the test config.
func WithDriver(uid, name string) ConfigOption {
	return func(c *config.Config) {
		c.Driver.UID = uid
		c.Driver.Name = name
	}
}
