package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/daytrack/internal/ledger"
	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/storage"
)

// call runs fn with a per-attempt timeout, retrying transient failures with
// capped exponential backoff.
func (s *Syncer) call(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	attempts := s.opts.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	wait := s.opts.RetryInitial
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = s.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if permanent(err) || ctx.Err() != nil || attempt == attempts {
			break
		}
		s.log.Printf("[warn] %s: attempt %d/%d failed: %v", name, attempt, attempts, err)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(err, ctx.Err())
			case <-timer.C:
			}
		}
		wait *= 2
		if s.opts.RetryMax > 0 && wait > s.opts.RetryMax {
			wait = s.opts.RetryMax
		}
	}
	return err
}

func (s *Syncer) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.opts.RemoteTimeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, s.opts.RemoteTimeout)
	defer cancel()
	return fn(callCtx)
}

// permanent errors are answers from the remote, not outages; retrying them
// cannot succeed.
func permanent(err error) bool {
	return divergent(err) || invalid(err) || errors.Is(err, context.Canceled)
}

func divergent(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrDuplicateCompletion)
}

func invalid(err error) bool {
	return errors.Is(err, model.ErrInvalidTask) ||
		errors.Is(err, model.ErrInvalidCategory) ||
		errors.Is(err, model.ErrInvalidRecurringTask) ||
		errors.Is(err, model.ErrInvalidFrequency) ||
		errors.Is(err, model.ErrInvalidWeekday) ||
		errors.Is(err, model.ErrInvalidReference) ||
		errors.Is(err, ledger.ErrDuplicateCompletion)
}
