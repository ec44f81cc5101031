// Package reconcile applies user intents optimistically to the local store
// and reconciles them with the remote repository.
//
// Every mutation is a two-phase command. The apply phase validates against
// the latest snapshot and replaces the touched entities by id, remembering
// their previous values. The commit phase calls the repository; success
// patches the store with the rows the server returned, failure restores the
// remembered values. A remote answer that contradicts the local view (a
// missing row, a completion that already exists) triggers a full reload.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/storage"
	"github.com/sandeepkv93/daytrack/internal/store"
)

var (
	ErrNotFound          = errors.New("reconcile: not found")
	ErrRemoteUnavailable = errors.New("reconcile: remote unavailable")
	ErrStaleRead         = errors.New("reconcile: stale read")
)

type Options struct {
	// ReloadAfterCommit reloads everything after each successful commit
	// instead of relying on the by-id patch alone.
	ReloadAfterCommit bool
	RetryAttempts     int
	RetryInitial      time.Duration
	RetryMax          time.Duration
	RemoteTimeout     time.Duration
	Logger            *log.Logger
	Now               func() time.Time
	NewID             func() string
}

func DefaultOptions() Options {
	return Options{
		RetryAttempts: 3,
		RetryInitial:  100 * time.Millisecond,
		RetryMax:      2 * time.Second,
		RemoteTimeout: 5 * time.Second,
	}
}

type Syncer struct {
	store *store.Store
	repo  storage.Repository
	opts  Options
	log   *log.Logger
	locks *keyedMutex
	now   func() time.Time
	newID func() string
}

func New(st *store.Store, repo storage.Repository, opts Options) *Syncer {
	s := &Syncer{
		store: st,
		repo:  repo,
		opts:  opts,
		log:   opts.Logger,
		locks: newKeyedMutex(),
		now:   opts.Now,
		newID: opts.NewID,
	}
	if s.log == nil {
		s.log = log.New(io.Discard, "", 0)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

func (s *Syncer) Store() *store.Store { return s.store }

func (s *Syncer) UserID() string { return s.store.UserID() }

// Load replaces the whole store with the remote state.
func (s *Syncer) Load(ctx context.Context) error {
	userID := s.UserID()
	var (
		tasks     []model.Task
		recurring []model.RecurringTask
		entries   []model.TaskCompletion
	)
	err := s.call(ctx, "load", func(ctx context.Context) error {
		var err error
		if tasks, err = s.repo.ListTasks(ctx, userID, storage.TaskListFilter{}); err != nil {
			return err
		}
		if recurring, err = s.repo.ListRecurringTasks(ctx, userID); err != nil {
			return err
		}
		entries, err = s.repo.ListCompletions(ctx, userID, storage.CompletionListFilter{})
		return err
	})
	if err != nil {
		s.log.Printf("[warn] load failed: %v", err)
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	if err := s.store.ReplaceAll(tasks, recurring, entries); err != nil {
		return err
	}
	s.log.Printf("[info] loaded %d tasks, %d recurring tasks, %d completions", len(tasks), len(recurring), len(entries))
	return nil
}

// command is one two-phase mutation. plan runs inside the store lock against
// the latest snapshot and must not block; commit talks to the remote and
// returns the delta that reflects the server's rows.
//
// keys names the scopes the command touches; it is evaluated again once the
// locks are held so a concurrent move cannot slip past them.
type command struct {
	name   string
	keys   func(snap store.Snapshot) ([]string, error)
	plan   func(snap store.Snapshot) (delta, error)
	commit func(ctx context.Context) (delta, error)
}

func staticKeys(keys ...string) func(store.Snapshot) ([]string, error) {
	return func(store.Snapshot) ([]string, error) { return keys, nil }
}

const lockAttempts = 3

func (s *Syncer) lock(cmd command) (func(), error) {
	for i := 0; i < lockAttempts; i++ {
		keys, err := cmd.keys(s.store.Snapshot())
		if err != nil {
			return nil, err
		}
		unlock := s.locks.Lock(keys...)
		again, err := cmd.keys(s.store.Snapshot())
		if err == nil && sameKeys(keys, again) {
			return unlock, nil
		}
		unlock()
		if err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s: scope changed while locking", ErrStaleRead, cmd.name)
}

func sameKeys(a, b []string) bool {
	a = slices.Sorted(slices.Values(a))
	b = slices.Sorted(slices.Values(b))
	return slices.Equal(slices.Compact(a), slices.Compact(b))
}

func (s *Syncer) run(ctx context.Context, cmd command) error {
	unlock, err := s.lock(cmd)
	if err != nil {
		return err
	}
	defer unlock()

	var (
		inverse delta
		planErr error
		noop    bool
	)
	err = s.store.Update(func(snap store.Snapshot) (store.Snapshot, bool) {
		d, err := cmd.plan(snap)
		if err != nil {
			planErr = err
			return snap, false
		}
		if d.empty() {
			noop = true
			return snap, false
		}
		inverse = d.invert(snap)
		return d.applyTo(snap), true
	})
	if err != nil {
		return err
	}
	if planErr != nil {
		return planErr
	}
	if noop {
		return nil
	}

	var server delta
	err = s.call(ctx, cmd.name, func(ctx context.Context) error {
		var err error
		server, err = cmd.commit(ctx)
		return err
	})
	if err != nil {
		return s.revert(ctx, cmd.name, inverse, err)
	}
	if err := s.applyDelta(server); err != nil {
		return err
	}
	if s.opts.ReloadAfterCommit {
		if err := s.Load(ctx); err != nil {
			s.log.Printf("[warn] %s: reload after commit failed: %v", cmd.name, err)
		}
	}
	return nil
}

// revert undoes the optimistic delta. Divergence additionally reloads the
// store so it matches the remote again.
func (s *Syncer) revert(ctx context.Context, name string, inverse delta, cause error) error {
	if err := s.applyDelta(inverse); err != nil {
		return err
	}
	switch {
	case divergent(cause):
		s.log.Printf("[warn] %s: remote disagrees with local state, reloading: %v", name, cause)
		if err := s.Load(ctx); err != nil {
			return fmt.Errorf("%w: %w (reload failed: %v)", ErrStaleRead, cause, err)
		}
		return fmt.Errorf("%w: %w", ErrStaleRead, cause)
	case invalid(cause):
		return cause
	default:
		s.log.Printf("[warn] %s: reverted after remote failure: %v", name, cause)
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, cause)
	}
}

func (s *Syncer) applyDelta(d delta) error {
	if d.empty() {
		return nil
	}
	return s.store.Update(func(snap store.Snapshot) (store.Snapshot, bool) {
		return d.applyTo(snap), true
	})
}

func taskScopeKey(scope model.Scope) string {
	return "tasks/" + scope.String()
}

const recurringScopeKey = "recurring"

func ledgerKey(ref model.Ref) string {
	return "ledger/" + ref.Key()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}
