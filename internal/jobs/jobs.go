// Package jobs runs periodic background work on cron schedules: applying
// device receipts to the archive ledger and purging expired idempotency
// records.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/repo"
)

// DefaultTimeout bounds a single job run.
const DefaultTimeout = 30 * time.Second

// Func is one unit of periodic work.
type Func func(ctx context.Context) error

// Runner owns a cron instance and the jobs registered on it.
type Runner struct {
	mu      sync.Mutex
	parser  cron.Parser
	c       *cron.Cron
	timeout time.Duration
	ids     map[string]cron.EntryID
	started bool
}

// NewRunner builds a runner evaluating schedules in loc (UTC when nil).
func NewRunner(loc *time.Location, timeout time.Duration) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Runner{
		parser:  parser,
		c:       cron.New(cron.WithParser(parser), cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
		ids:     map[string]cron.EntryID{},
	}
}

// Register adds fn under name on spec (five-field cron or a descriptor
// such as "@every 1m").
func (r *Runner) Register(name, spec string, fn Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.ids[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}
	sched, err := r.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("job %q: bad schedule %q: %w", name, spec, err)
	}
	id := r.c.Schedule(sched, cron.FuncJob(func() { r.run(name, fn) }))
	r.ids[name] = id
	log.Info().Str("job", name).Str("spec", spec).Msg("job registered")
	return nil
}

// Start begins scheduling. Calling it twice is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.c.Start()
}

// Stop halts scheduling and waits for running jobs or ctx, whichever is first.
func (r *Runner) Stop(ctx context.Context) {
	r.mu.Lock()
	started := r.started
	r.started = false
	r.mu.Unlock()
	if !started {
		return
	}
	select {
	case <-r.c.Stop().Done():
	case <-ctx.Done():
	}
}

// RunNow runs a registered job synchronously.
func (r *Runner) RunNow(name string) error {
	r.mu.Lock()
	id, ok := r.ids[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}
	r.c.Entry(id).WrappedJob.Run()
	return nil
}

// Next returns the next scheduled run of a job, zero when unknown or not started.
func (r *Runner) Next(name string) time.Time {
	r.mu.Lock()
	id, ok := r.ids[name]
	r.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return r.c.Entry(id).Next
}

func (r *Runner) run(name string, fn Func) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	start := time.Now()
	if err := fn(ctx); err != nil {
		log.Error().Err(err).Str("job", name).Dur("elapsed", time.Since(start)).Msg("job failed")
		return
	}
	log.Debug().Str("job", name).Dur("elapsed", time.Since(start)).Msg("job done")
}

// ReceiptApplier is satisfied by services.ReceiptService.
type ReceiptApplier interface {
	ApplyPending(ctx context.Context) (int64, error)
}

// ReceiptSweep applies pending notification receipts.
func ReceiptSweep(svc ReceiptApplier) Func {
	return func(ctx context.Context) error {
		n, err := svc.ApplyPending(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info().Int64("confirmed", n).Msg("notification receipts applied")
		}
		return nil
	}
}

// IdempotencyPurge deletes expired idempotency records.
func IdempotencyPurge(db *gorm.DB) Func {
	return func(ctx context.Context) error {
		n, err := repo.PurgeExpiredIdempotency(ctx, db, time.Now().UTC())
		if err != nil {
			return err
		}
		if n > 0 {
			log.Debug().Int64("purged", n).Msg("expired idempotency records removed")
		}
		return nil
	}
}
