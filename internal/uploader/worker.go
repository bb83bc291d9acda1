package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

// localFileMissingMessage is the diagnostic recorded when an enqueued item's
// spooled file has vanished. Such items stay eligible for retry; they can only
// recover through external intervention, and operators can find them by this
// message.
const localFileMissingMessage = "Local file missing"

// Result is the aggregate outcome of one drain pass.
type Result int

const (
	// ResultSuccess means every attempted item succeeded (or the batch was
	// empty); the substrate schedules no follow-up pass.
	ResultSuccess Result = iota
	// ResultRetry means at least one item hit a failure; the substrate should
	// reschedule the whole pass with backoff.
	ResultRetry
)

func (r Result) String() string {
	if r == ResultRetry {
		return "retry"
	}
	return "success"
}

// Transfer moves one local file to a destination key in the remote object
// store. Implementations must be safe for sequential reuse across items.
type Transfer interface {
	Upload(ctx context.Context, localPath, remotePath string) error
}

// Worker processes upload batches. Construct with NewWorker; the zero value is
// not usable.
type Worker struct {
	store     *queue.Store
	transfer  Transfer
	logger    *slog.Logger
	batchSize int
}

// NewWorker builds a drain-pass worker over the given store and transfer.
func NewWorker(store *queue.Store, transfer Transfer, logger *slog.Logger, batchSize int) (*Worker, error) {
	if store == nil {
		return nil, errors.New("worker requires a queue store")
	}
	if transfer == nil {
		return nil, errors.New("worker requires a transfer")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	return &Worker{
		store:     store,
		transfer:  transfer,
		logger:    logging.WithComponent(logger, "uploader"),
		batchSize: batchSize,
	}, nil
}

// Run executes one drain pass. Store errors are fatal for the pass and
// returned; transfer errors are contained per item and surface only through
// the aggregate Result. Cancellation between items leaves the queue resumable.
func (w *Worker) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	logger := w.logger.With(logging.String(logging.FieldRunID, runID))

	batch, err := w.store.NextPending(ctx, w.batchSize)
	if err != nil {
		return ResultRetry, fmt.Errorf("fetch batch: %w", err)
	}
	if len(batch) == 0 {
		logger.Debug("queue empty, nothing to upload")
		return ResultSuccess, nil
	}

	logger.Info("drain pass started",
		logging.String(logging.FieldEventType, "drain_start"),
		logging.Int("batch_size", len(batch)),
	)

	anyFailed := false
	for _, item := range batch {
		select {
		case <-ctx.Done():
			return ResultRetry, ctx.Err()
		default:
		}

		failed, err := w.processItem(ctx, logger, item)
		if err != nil {
			return ResultRetry, err
		}
		if failed {
			anyFailed = true
		}
	}

	result := ResultSuccess
	if anyFailed {
		result = ResultRetry
	}
	logger.Info("drain pass finished",
		logging.String(logging.FieldEventType, "drain_finish"),
		logging.String("result", result.String()),
	)
	return result, nil
}

// processItem attempts one transfer and persists the outcome. The returned
// bool reports whether the item failed; the returned error is reserved for
// store failures, which abort the pass.
func (w *Worker) processItem(ctx context.Context, logger *slog.Logger, item *queue.Item) (bool, error) {
	itemLogger := logger.With(
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldStoreID, item.StoreID),
		logging.String(logging.FieldRemotePath, item.RemotePath),
	)

	if _, err := os.Stat(item.LocalFilePath); err != nil {
		item.RetryCount++
		if updateErr := w.store.UpdateStatus(ctx, item.ID, queue.StatusFailed, item.RetryCount, localFileMissingMessage); updateErr != nil {
			return true, fmt.Errorf("persist missing-file failure: %w", updateErr)
		}
		itemLogger.Warn("spooled file missing, item cannot succeed without intervention",
			logging.String(logging.FieldEventType, "local_file_missing"),
			logging.String("local_path", item.LocalFilePath),
			logging.Int("retry_count", item.RetryCount),
			logging.String(logging.FieldErrorHint, "restore the spool file or remove the queue row"),
		)
		return true, nil
	}

	if err := w.store.UpdateStatus(ctx, item.ID, queue.StatusUploading, item.RetryCount, item.LastError); err != nil {
		return true, fmt.Errorf("mark uploading: %w", err)
	}

	// Outcome writes use a detached context: once a transfer has finished, its
	// status must reach the store even when the run is being cancelled,
	// otherwise an already-uploaded item would be re-attempted next pass.
	persistCtx := context.WithoutCancel(ctx)

	if err := w.transfer.Upload(ctx, item.LocalFilePath, item.RemotePath); err != nil {
		item.RetryCount++
		if updateErr := w.store.UpdateStatus(persistCtx, item.ID, queue.StatusFailed, item.RetryCount, err.Error()); updateErr != nil {
			return true, fmt.Errorf("persist transfer failure: %w", updateErr)
		}
		itemLogger.Warn("transfer failed",
			logging.String(logging.FieldEventType, "transfer_failed"),
			logging.Error(err),
			logging.Int("retry_count", item.RetryCount),
		)
		return true, nil
	}

	if err := w.store.UpdateStatus(persistCtx, item.ID, queue.StatusUploaded, item.RetryCount, ""); err != nil {
		return true, fmt.Errorf("mark uploaded: %w", err)
	}

	// Best effort: the row stays uploaded even when local cleanup fails, so a
	// lingering spool file never causes a re-upload.
	if err := os.Remove(item.LocalFilePath); err != nil {
		itemLogger.Debug("spool cleanup failed", logging.Error(err))
	}

	itemLogger.Info("photo uploaded",
		logging.String(logging.FieldEventType, "upload_complete"),
	)
	return false, nil
}
