package spool

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fieldsync/internal/config"
	"fieldsync/internal/fileutil"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/textutil"
)

// Spooler copies photos into the spool directory and produces queue
// items pointing at the spooled copies.
type Spooler struct {
	dir        string
	prefix     string
	driverUID  string
	driverName string
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a spooler from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Spooler, error) {
	if cfg == nil {
		return nil, errors.New("spool: config is required")
	}
	dir := strings.TrimSpace(cfg.Paths.SpoolDir)
	if dir == "" {
		return nil, errors.New("spool: spool directory is not configured")
	}
	return &Spooler{
		dir:        dir,
		prefix:     cfg.Storage.Prefix,
		driverUID:  cfg.Driver.UID,
		driverName: cfg.Driver.Name,
		logger:     logging.WithComponent(logger, "spool"),
		now:        time.Now,
	}, nil
}

// Ingest copies the photo at sourcePath into the spool and returns a
// queue item describing it. The item is not persisted; callers insert
// it into the queue store.
func (s *Spooler) Ingest(sourcePath, storeID, storeName string) (queue.Item, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return queue.Item{}, errors.New("spool: store id is required")
	}

	info, err := os.Stat(sourcePath)
	if err != nil {
		return queue.Item{}, fmt.Errorf("spool: stat source: %w", err)
	}
	if info.IsDir() {
		return queue.Item{}, fmt.Errorf("spool: source %q is a directory", sourcePath)
	}

	now := s.now()
	filename := s.buildFilename(sourcePath, now)
	storeDir := filepath.Join(s.dir, textutil.SanitizeKey(storeID))
	spoolPath := filepath.Join(storeDir, filename)

	if err := fileutil.CopyDurable(sourcePath, spoolPath, info.Mode().Perm()); err != nil {
		return queue.Item{}, fmt.Errorf("spool: copy photo: %w", err)
	}

	absSource, err := filepath.Abs(sourcePath)
	if err != nil {
		absSource = sourcePath
	}

	item := queue.Item{
		StoreID:       storeID,
		StoreName:     storeName,
		DriverUID:     s.driverUID,
		DriverName:    s.driverName,
		LocalFilePath: spoolPath,
		SourceURI:     "file://" + absSource,
		RemotePath:    s.buildRemotePath(storeID, filename),
		CreatedAtMs:   now.UnixMilli(),
		Status:        queue.StatusPending,
	}

	s.logger.Info("photo spooled",
		logging.String(logging.FieldStoreID, storeID),
		logging.String(logging.FieldRemotePath, item.RemotePath),
		logging.String(logging.FieldEventType, "photo_spooled"),
		logging.Int64("size_bytes", info.Size()),
	)

	return item, nil
}

// buildFilename names spooled photos {unix_ms}_{driver}_{suffix}{ext}.
// The uuid suffix keeps rapid captures from the same driver distinct.
func (s *Spooler) buildFilename(sourcePath string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(sourcePath))
	if ext == "" {
		ext = ".jpg"
	}
	driver := textutil.SanitizeKey(s.driverName)
	if driver == "" {
		driver = "driver"
	}
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d_%s_%s%s", now.UnixMilli(), driver, suffix, ext)
}

func (s *Spooler) buildRemotePath(storeID, filename string) string {
	prefix := strings.Trim(s.prefix, "/")
	key := textutil.SanitizeKey(storeID) + "/" + filename
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
