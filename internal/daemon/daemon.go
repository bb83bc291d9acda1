package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
	"fieldsync/internal/netmon"
	"fieldsync/internal/queue"
	"fieldsync/internal/scheduler"
	"fieldsync/internal/spool"
)

// Daemon coordinates the background upload services and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *queue.Store
	spooler *spool.Spooler
	sched   *scheduler.Scheduler
	runner  *scheduler.Runner
	monitor *netmon.Monitor
	logPath string

	lockPath string
	lock     *flock.Flock

	running  atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	SocketPath   string
	Unmetered    bool
	DrainPending bool
	LastResult   string
	QueueStats   map[queue.Status]int
}

// New constructs a daemon with initialized dependencies. The network
// monitor is optional; without one the daemon treats every connection
// as unmetered.
func New(
	cfg *config.Config,
	store *queue.Store,
	spooler *spool.Spooler,
	sched *scheduler.Scheduler,
	runner *scheduler.Runner,
	monitor *netmon.Monitor,
	logger *slog.Logger,
) (*Daemon, error) {
	if cfg == nil || store == nil || spooler == nil || sched == nil || runner == nil {
		return nil, errors.New("daemon requires config, store, spooler, scheduler, and runner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "fieldsyncd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		spooler:  spooler,
		sched:    sched,
		runner:   runner,
		monitor:  monitor,
		logPath:  filepath.Join(cfg.Paths.LogDir, "fieldsync.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		done:     make(chan struct{}),
	}, nil
}

// Start acquires the daemon lock and launches the background services.
// Any backlog left from a previous run is scheduled for draining
// immediately.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another fieldsync daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.runner.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start runner: %w", err)
	}
	if err := d.monitor.Start(runCtx); err != nil {
		d.runner.Stop()
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start network monitor: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)

	if err := d.sched.Enqueue(runCtx); err != nil {
		d.logger.Warn("failed to schedule startup drain",
			logging.Error(err),
			logging.String(logging.FieldEventType, "startup_drain_failed"),
		)
	}

	d.logger.Info("fieldsync daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.monitor.Stop()
	d.runner.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
		)
	}
	d.running.Store(false)
	d.stopOnce.Do(func() { close(d.done) })
	d.logger.Info("fieldsync daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stopped"),
	)
}

// Done is closed once the daemon has stopped, either through Stop or an
// IPC shutdown request.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// AddPhoto spools a captured photo, enqueues it, and schedules a drain.
func (d *Daemon) AddPhoto(ctx context.Context, sourcePath, storeID, storeName string) (*queue.Item, error) {
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}

	item, err := d.spooler.Ingest(absPath, storeID, storeName)
	if err != nil {
		return nil, err
	}
	if _, err := d.store.InsertAll(ctx, []*queue.Item{&item}); err != nil {
		return nil, fmt.Errorf("enqueue photo: %w", err)
	}

	d.logger.Info("photo queued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldStoreID, item.StoreID),
		logging.String(logging.FieldRemotePath, item.RemotePath),
		logging.String(logging.FieldEventType, "photo_queued"),
	)

	if err := d.sched.Enqueue(ctx); err != nil {
		d.logger.Warn("failed to schedule drain after enqueue",
			logging.Error(err),
			logging.Int64(logging.FieldItemID, item.ID),
		)
	}
	return &item, nil
}

// TriggerDrain schedules an upload pass if one is not already pending.
func (d *Daemon) TriggerDrain(ctx context.Context) error {
	return d.sched.Enqueue(ctx)
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	return d.store.List(ctx, statuses...)
}

// GetQueueItem fetches one queue item. Returns nil when absent.
func (d *Daemon) GetQueueItem(ctx context.Context, id int64) (*queue.Item, error) {
	return d.store.GetByID(ctx, id)
}

// QueueStats returns a per-status row count.
func (d *Daemon) QueueStats(ctx context.Context) (map[queue.Status]int, error) {
	return d.store.Stats(ctx)
}

// ClearQueue removes all queue items.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearUploaded removes only uploaded queue items.
func (d *Daemon) ClearUploaded(ctx context.Context) (int64, error) {
	return d.store.ClearUploaded(ctx)
}

// Cleanup removes uploaded rows older than the retention window.
func (d *Daemon) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan < 0 {
		return 0, fmt.Errorf("negative retention window %s", olderThan)
	}
	cutoffMs := time.Now().Add(-olderThan).UnixMilli()
	removed, err := d.store.DeleteUploadedBefore(ctx, cutoffMs)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		d.logger.Info("uploaded items cleaned up",
			logging.Int64("removed_count", removed),
			logging.Duration("older_than", olderThan),
			logging.String(logging.FieldEventType, "retention_cleanup"),
		)
	}
	return removed, nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("failed to read queue stats",
			logging.Error(err),
		)
		stats = nil
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		SocketPath:   d.cfg.SocketPath(),
		Unmetered:    d.monitor.Unmetered(),
		DrainPending: d.runner.IsPending(scheduler.DrainWorkID),
		LastResult:   d.runner.LastResult(),
		QueueStats:   stats,
	}
}
