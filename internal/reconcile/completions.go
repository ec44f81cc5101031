package reconcile

import (
	"context"
	"fmt"

	"github.com/sandeepkv93/daytrack/internal/ledger"
	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/store"
)

// MarkCompleted records a completion for ref on date. Task references go
// through the task dual write; recurring references only touch the ledger.
func (s *Syncer) MarkCompleted(ctx context.Context, ref model.Ref, date model.Date) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if !ref.IsRecurring() {
		_, err := s.SetTaskCompleted(ctx, ref.TaskID, date, true)
		return err
	}
	if date.IsZero() {
		return fmt.Errorf("%w: completion date is required", model.ErrInvalidTask)
	}

	var entry model.TaskCompletion
	return s.run(ctx, command{
		name: "mark completed",
		keys: staticKeys(ledgerKey(ref)),
		plan: func(snap store.Snapshot) (delta, error) {
			if _, ok := snap.RecurringTask(ref.RecurringTaskID); !ok {
				return delta{}, notFound("recurring task", ref.RecurringTaskID)
			}
			l := ledger.New(s.UserID(), snap.Completions, ledger.Options{NewID: s.newID, Now: s.now})
			var err error
			if entry, err = l.Mark(ref, date); err != nil {
				return delta{}, err
			}
			d := newDelta()
			d.putCompletion(entry)
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			row, err := s.repo.CreateCompletion(ctx, entry)
			if err != nil {
				return delta{}, err
			}
			d := newDelta()
			if row.ID != entry.ID {
				d.dropCompletion(entry.ID)
			}
			d.putCompletion(row)
			return d, nil
		},
	})
}

// UnmarkCompleted removes the completion for ref on date and reports whether
// one existed locally. A task reference clears every entry of the task.
func (s *Syncer) UnmarkCompleted(ctx context.Context, ref model.Ref, date model.Date) (bool, error) {
	if err := ref.Validate(); err != nil {
		return false, err
	}
	if !ref.IsRecurring() {
		existed := len(completionsOf(s.store.Snapshot().Completions, ref)) > 0
		if _, err := s.SetTaskCompleted(ctx, ref.TaskID, date, false); err != nil {
			return false, err
		}
		return existed, nil
	}

	var existing model.TaskCompletion
	var found bool
	err := s.run(ctx, command{
		name: "unmark completed",
		keys: staticKeys(ledgerKey(ref)),
		plan: func(snap store.Snapshot) (delta, error) {
			existing, found = findCompletion(snap.Completions, ref, date)
			d := newDelta()
			if found {
				d.dropCompletion(existing.ID)
			}
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			if _, err := s.repo.DeleteCompletion(ctx, s.UserID(), ref, date); err != nil {
				return delta{}, err
			}
			d := newDelta()
			d.dropCompletion(existing.ID)
			return d, nil
		},
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Toggle flips an agenda item using the latest local state rather than the
// possibly stale value carried by the item. The decision is made under the
// ledger lock, so two toggles in a row always alternate.
func (s *Syncer) Toggle(ctx context.Context, item model.AgendaItem) error {
	switch it := item.(type) {
	case model.RegularItem:
		_, err := s.ToggleTask(ctx, it.Task.ID, it.Task.Date)
		return err
	case model.RecurringItem:
		return s.toggleRecurring(ctx, model.RecurringRef(it.Template.ID), it.Date)
	default:
		return fmt.Errorf("reconcile: unsupported agenda item %T", item)
	}
}

func (s *Syncer) toggleRecurring(ctx context.Context, ref model.Ref, date model.Date) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if date.IsZero() {
		return fmt.Errorf("%w: completion date is required", model.ErrInvalidTask)
	}

	var (
		entry  model.TaskCompletion
		marked bool
	)
	return s.run(ctx, command{
		name: "toggle completion",
		keys: staticKeys(ledgerKey(ref)),
		plan: func(snap store.Snapshot) (delta, error) {
			if _, ok := snap.RecurringTask(ref.RecurringTaskID); !ok {
				return delta{}, notFound("recurring task", ref.RecurringTaskID)
			}
			l := ledger.New(s.UserID(), snap.Completions, ledger.Options{NewID: s.newID, Now: s.now})
			d := newDelta()
			if existing, done := l.Lookup(ref, date); done {
				entry, marked = existing, false
				d.dropCompletion(existing.ID)
				return d, nil
			}
			var err error
			if entry, err = l.Mark(ref, date); err != nil {
				return delta{}, err
			}
			marked = true
			d.putCompletion(entry)
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			d := newDelta()
			if !marked {
				if _, err := s.repo.DeleteCompletion(ctx, s.UserID(), ref, date); err != nil {
					return delta{}, err
				}
				d.dropCompletion(entry.ID)
				return d, nil
			}
			row, err := s.repo.CreateCompletion(ctx, entry)
			if err != nil {
				return delta{}, err
			}
			if row.ID != entry.ID {
				d.dropCompletion(entry.ID)
			}
			d.putCompletion(row)
			return d, nil
		},
	})
}
