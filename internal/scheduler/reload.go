package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Reloader runs a full reconciliation on a fixed interval. A run that is
// still going when the next one is due is skipped.
type Reloader struct {
	cron     *cron.Cron
	load     func(context.Context) error
	log      *log.Logger
	timeout  time.Duration
	runs     atomic.Uint64
	failures atomic.Uint64

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewReloader schedules load every interval. cron's @every has a one second
// resolution, so shorter intervals are rejected.
func NewReloader(interval, timeout time.Duration, load func(context.Context) error, logger *log.Logger) (*Reloader, error) {
	if interval < time.Second {
		return nil, fmt.Errorf("scheduler: reload interval %s is below one second", interval)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	r := &Reloader{load: load, log: logger, timeout: timeout}
	r.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))))
	if _, err := r.cron.AddFunc("@every "+interval.String(), r.run); err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return r, nil
}

// Start begins the schedule. Loads run with a context derived from ctx.
func (r *Reloader) Start(ctx context.Context) {
	r.mu.Lock()
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()
	r.cron.Start()
}

// Stop cancels any load in flight and waits for it to return.
func (r *Reloader) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	done := r.cron.Stop()
	<-done.Done()
}

func (r *Reloader) Runs() uint64     { return r.runs.Load() }
func (r *Reloader) Failures() uint64 { return r.failures.Load() }

func (r *Reloader) run() {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.runs.Add(1)
	if err := r.load(ctx); err != nil {
		r.failures.Add(1)
		r.log.Printf("[warn] periodic reload failed: %v", err)
		return
	}
	r.log.Printf("[info] periodic reload done")
}
