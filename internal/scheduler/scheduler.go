package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"fieldsync/internal/logging"
)

// DrainWorkID is the single well-known identifier for drain passes. All run
// requests share it so the substrate can deduplicate them.
const DrainWorkID = "upload-drain"

// Constraints declares the preconditions under which scheduled work may
// execute.
type Constraints struct {
	// RequireUnmetered blocks execution until the device's connectivity is
	// unmetered. Bulk photo upload should not consume a metered allowance;
	// this is policy, not a technical necessity.
	RequireUnmetered bool
}

// Substrate executes uniquely-identified deferred work when its constraints
// hold. ScheduleUnique must be idempotent while work under the same id is
// queued or running.
type Substrate interface {
	ScheduleUnique(ctx context.Context, workID string, constraints Constraints) error
	IsPending(workID string) bool
}

// Scheduler requests drain passes from a substrate with KEEP semantics.
type Scheduler struct {
	substrate   Substrate
	constraints Constraints
	logger      *slog.Logger
}

// New constructs a scheduler over the given substrate.
func New(substrate Substrate, constraints Constraints, logger *slog.Logger) (*Scheduler, error) {
	if substrate == nil {
		return nil, errors.New("scheduler requires a substrate")
	}
	return &Scheduler{
		substrate:   substrate,
		constraints: constraints,
		logger:      logging.WithComponent(logger, "scheduler"),
	}, nil
}

// Enqueue requests one drain pass. While a pass under DrainWorkID is already
// queued or running the request is dropped, guaranteeing no two concurrent
// passes race on the same batch.
func (s *Scheduler) Enqueue(ctx context.Context) error {
	if s.substrate.IsPending(DrainWorkID) {
		s.logger.Debug("drain pass already pending, request dropped",
			logging.String(logging.FieldEventType, "enqueue_deduplicated"),
		)
		return nil
	}
	if err := s.substrate.ScheduleUnique(ctx, DrainWorkID, s.constraints); err != nil {
		return err
	}
	s.logger.Debug("drain pass requested",
		logging.String(logging.FieldEventType, "enqueue_scheduled"),
	)
	return nil
}
