// Package daemonrun hosts the fieldsyncd runtime loop: it wires the
// queue store, object store client, upload worker, scheduler, network
// monitor, and IPC server, then blocks until a signal or an IPC stop
// request arrives.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/daemon"
	"fieldsync/internal/ipc"
	"fieldsync/internal/logging"
	"fieldsync/internal/netmon"
	"fieldsync/internal/objectstore"
	"fieldsync/internal/queue"
	"fieldsync/internal/scheduler"
	"fieldsync/internal/spool"
	"fieldsync/internal/uploader"
)

// Run starts the fieldsync daemon runtime loop and blocks until shutdown.
func Run(cmdCtx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := BuildDaemon(signalCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("bootstrap daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("daemon start: %w", err)
	}

	// The daemon is running before the socket exists, so a client that
	// reaches the socket never observes a half-started daemon.
	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	pidPath := cfg.PIDFilePath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("write pid file",
			logging.String("path", pidPath),
			logging.Error(err),
		)
	} else {
		defer os.Remove(pidPath)
	}

	select {
	case <-signalCtx.Done():
	case <-d.Done():
	}
	logger.Info("fieldsyncd shutting down")
	return nil
}

// BuildDaemon wires the queue store, object store client, upload worker,
// scheduler, and network monitor into a daemon.
func BuildDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}

	transfer, err := objectstore.New(cfg, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	// Bucket provisioning needs the network; failure here is not fatal
	// because the first successful drain pass retries the upload anyway.
	if err := transfer.EnsureBucket(ctx); err != nil {
		logger.Warn("ensure bucket failed; uploads will retry",
			logging.Error(err),
			logging.String(logging.FieldEventType, "bucket_ensure_failed"),
		)
	}

	worker, err := uploader.NewWorker(store, transfer, logger, cfg.Upload.BatchSize)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create upload worker: %w", err)
	}

	var runner *scheduler.Runner
	monitor := netmon.New(cfg, logger, func(unmetered bool) {
		if unmetered && runner != nil {
			runner.Wake()
		}
	})

	runner, err = scheduler.NewRunner(worker, monitor, logger, scheduler.RunnerOptions{
		BackoffInitial: time.Duration(cfg.Upload.BackoffInitial) * time.Second,
		BackoffMax:     time.Duration(cfg.Upload.BackoffMax) * time.Second,
		ProbeInterval:  time.Duration(cfg.Network.ProbeInterval) * time.Second,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create runner: %w", err)
	}

	sched, err := scheduler.New(runner, scheduler.Constraints{
		RequireUnmetered: cfg.Network.RequireUnmetered,
	}, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	spooler, err := spool.New(cfg, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create spooler: %w", err)
	}

	d, err := daemon.New(cfg, store, spooler, sched, runner, monitor, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return d, nil
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}
