package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fieldsync/internal/logging"
	"fieldsync/internal/uploader"
)

// Pass is one executable drain pass. Satisfied by *uploader.Worker.
type Pass interface {
	Run(ctx context.Context) (uploader.Result, error)
}

// Network reports current connectivity for constraint checks. Satisfied by
// *netmon.Monitor.
type Network interface {
	Unmetered() bool
}

// RunnerOptions tunes the in-process substrate.
type RunnerOptions struct {
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	ProbeInterval  time.Duration
}

const (
	defaultBackoffInitial = 30 * time.Second
	defaultBackoffMax     = 15 * time.Minute
	defaultProbeInterval  = 30 * time.Second
)

// Runner is the in-process execution substrate: a single goroutine that runs
// pending work when its constraints hold and reschedules retry results with
// exponential backoff. Work ids stay pending from ScheduleUnique until the
// pass reports success, so the scheduler's KEEP check covers both queued and
// running passes.
type Runner struct {
	pass    Pass
	network Network
	logger  *slog.Logger
	opts    RunnerOptions

	mu      sync.Mutex
	pending map[string]Constraints
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	wake    chan struct{}

	lastResult string
}

// NewRunner constructs the in-process substrate.
func NewRunner(pass Pass, network Network, logger *slog.Logger, opts RunnerOptions) (*Runner, error) {
	if pass == nil {
		return nil, errors.New("runner requires a pass")
	}
	if opts.BackoffInitial <= 0 {
		opts.BackoffInitial = defaultBackoffInitial
	}
	if opts.BackoffMax < opts.BackoffInitial {
		opts.BackoffMax = defaultBackoffMax
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = defaultProbeInterval
	}
	return &Runner{
		pass:    pass,
		network: network,
		logger:  logging.WithComponent(logger, "substrate"),
		opts:    opts,
		pending: make(map[string]Constraints),
		wake:    make(chan struct{}, 1),
	}, nil
}

// Start launches the execution loop.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("runner already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.wg.Add(1)
	go r.loop(runCtx)
	return nil
}

// Stop terminates the execution loop and waits for it to exit. A pass in
// flight is cancelled between items; per-item persistence keeps the queue
// resumable.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	cancel()
	r.wg.Wait()
}

// ScheduleUnique marks work pending and wakes the loop. Scheduling an id that
// is already pending is a no-op.
func (r *Runner) ScheduleUnique(_ context.Context, workID string, constraints Constraints) error {
	r.mu.Lock()
	if _, exists := r.pending[workID]; exists {
		r.mu.Unlock()
		return nil
	}
	r.pending[workID] = constraints
	r.mu.Unlock()

	r.Wake()
	return nil
}

// IsPending reports whether work under the id is queued or running.
func (r *Runner) IsPending(workID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.pending[workID]
	return exists
}

// Wake prods the loop to re-evaluate pending work and constraints. The
// network monitor calls this on connectivity changes so a gated pass starts
// as soon as an unmetered connection appears.
func (r *Runner) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// LastResult returns a human-readable outcome of the most recent pass.
func (r *Runner) LastResult() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastResult
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()
	backoff := r.opts.BackoffInitial

	for {
		constraints, ok := r.nextWork()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-r.wake:
			}
			continue
		}

		if constraints.RequireUnmetered && !r.unmetered() {
			r.logger.Debug("waiting for unmetered connection",
				logging.String(logging.FieldEventType, "constraint_blocked"),
			)
			select {
			case <-ctx.Done():
				return
			case <-r.wake:
			case <-time.After(r.opts.ProbeInterval):
			}
			continue
		}

		result, err := r.pass.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Error("drain pass failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "drain_error"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}
		r.setLastResult(result, err)

		if err == nil && result == uploader.ResultSuccess {
			r.clearWork()
			backoff = r.opts.BackoffInitial
			continue
		}

		// Retry the whole pass later; the work id stays pending so new
		// enqueues are still deduplicated while we wait.
		r.logger.Info("drain pass rescheduled",
			logging.String(logging.FieldEventType, "drain_backoff"),
			logging.Duration("backoff", backoff),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if next := backoff * 2; next <= r.opts.BackoffMax {
			backoff = next
		} else {
			backoff = r.opts.BackoffMax
		}
	}
}

func (r *Runner) nextWork() (Constraints, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, constraints := range r.pending {
		return constraints, true
	}
	return Constraints{}, false
}

func (r *Runner) clearWork() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.pending)
}

func (r *Runner) unmetered() bool {
	if r.network == nil {
		return true
	}
	return r.network.Unmetered()
}

func (r *Runner) setLastResult(result uploader.Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.lastResult = "error: " + err.Error()
		return
	}
	r.lastResult = result.String()
}
