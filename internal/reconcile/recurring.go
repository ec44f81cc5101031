package reconcile

import (
	"context"
	"strings"

	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/ordering"
	"github.com/sandeepkv93/daytrack/internal/store"
)

type RecurringDraft struct {
	Title      string
	Frequency  model.Frequency
	DaysOfWeek model.Weekdays
}

func (s *Syncer) AddRecurringTask(ctx context.Context, draft RecurringDraft) (model.RecurringTask, error) {
	now := s.now().UTC()
	item := model.RecurringTask{
		ID:         s.newID(),
		UserID:     s.UserID(),
		Title:      strings.TrimSpace(draft.Title),
		Frequency:  draft.Frequency,
		DaysOfWeek: draft.DaysOfWeek,
		CreatedAt:  now,
		UpdatedAt:  now,
	}.Normalize()
	if err := item.Validate(); err != nil {
		return model.RecurringTask{}, err
	}

	var created model.RecurringTask
	err := s.run(ctx, command{
		name: "add recurring task",
		keys: staticKeys(recurringScopeKey),
		plan: func(snap store.Snapshot) (delta, error) {
			item.OrderIndex = ordering.Next(ordering.FromRecurring(snap.RecurringTasks))
			d := newDelta()
			d.putRecurring(item)
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			row, err := s.repo.CreateRecurringTask(ctx, item)
			if err != nil {
				return delta{}, err
			}
			created = row
			d := newDelta()
			d.putRecurring(row)
			return d, nil
		},
	})
	if err != nil {
		return model.RecurringTask{}, err
	}
	return created, nil
}

// UpdateRecurringTask edits title and schedule; the template keeps its order.
func (s *Syncer) UpdateRecurringTask(ctx context.Context, in model.RecurringTask) (model.RecurringTask, error) {
	in.Title = strings.TrimSpace(in.Title)
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.RecurringTask{}, err
	}

	var next, updated model.RecurringTask
	err := s.run(ctx, command{
		name: "update recurring task",
		keys: staticKeys(recurringScopeKey),
		plan: func(snap store.Snapshot) (delta, error) {
			cur, ok := snap.RecurringTask(in.ID)
			if !ok {
				return delta{}, notFound("recurring task", in.ID)
			}
			next = cur
			next.Title = in.Title
			next.Frequency = in.Frequency
			next.DaysOfWeek = in.DaysOfWeek
			next.UpdatedAt = s.now().UTC()
			d := newDelta()
			d.putRecurring(next)
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			row, err := s.repo.UpdateRecurringTask(ctx, next)
			if err != nil {
				return delta{}, err
			}
			updated = row
			d := newDelta()
			d.putRecurring(row)
			return d, nil
		},
	})
	if err != nil {
		return model.RecurringTask{}, err
	}
	return updated, nil
}

// DeleteRecurringTask removes the template and every completion recorded
// for it.
func (s *Syncer) DeleteRecurringTask(ctx context.Context, id string) error {
	ref := model.RecurringRef(id)
	var dropped []string
	return s.run(ctx, command{
		name: "delete recurring task",
		keys: staticKeys(recurringScopeKey, ledgerKey(ref)),
		plan: func(snap store.Snapshot) (delta, error) {
			if _, ok := snap.RecurringTask(id); !ok {
				return delta{}, notFound("recurring task", id)
			}
			d := newDelta()
			d.dropRecurring(id)
			for _, c := range completionsOf(snap.Completions, ref) {
				d.dropCompletion(c.ID)
				dropped = append(dropped, c.ID)
			}
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			if err := s.repo.DeleteRecurringTask(ctx, s.UserID(), id); err != nil {
				return delta{}, err
			}
			d := newDelta()
			d.dropRecurring(id)
			for _, cid := range dropped {
				d.dropCompletion(cid)
			}
			return d, nil
		},
	})
}

func (s *Syncer) MoveRecurringTask(ctx context.Context, id string, dir ordering.Direction) error {
	return s.reorderRecurring(ctx, "move recurring task", id, func(entries []ordering.Entry) ([]ordering.Change, error) {
		return ordering.Swap(entries, id, dir)
	})
}

func (s *Syncer) DropRecurringTask(ctx context.Context, id string, to int) error {
	return s.reorderRecurring(ctx, "drop recurring task", id, func(entries []ordering.Entry) ([]ordering.Change, error) {
		return ordering.Reindex(entries, id, to)
	})
}

func (s *Syncer) reorderRecurring(ctx context.Context, name, id string, planChanges func([]ordering.Entry) ([]ordering.Change, error)) error {
	var changes []ordering.Change
	return s.run(ctx, command{
		name: name,
		keys: staticKeys(recurringScopeKey),
		plan: func(snap store.Snapshot) (delta, error) {
			if _, ok := snap.RecurringTask(id); !ok {
				return delta{}, notFound("recurring task", id)
			}
			var err error
			changes, err = planChanges(ordering.FromRecurring(snap.RecurringTasks))
			if err != nil {
				return delta{}, err
			}
			d := newDelta()
			for _, c := range changes {
				r, _ := snap.RecurringTask(c.ID)
				r.OrderIndex = c.OrderIndex
				d.putRecurring(r)
			}
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			rows, err := s.repo.ReorderRecurringTasks(ctx, s.UserID(), orderChanges(changes))
			if err != nil {
				return delta{}, err
			}
			d := newDelta()
			for _, row := range rows {
				d.putRecurring(row)
			}
			return d, nil
		},
	})
}
