package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/ordering"
	"github.com/sandeepkv93/daytrack/internal/storage"
	"github.com/sandeepkv93/daytrack/internal/store"
)

type TaskDraft struct {
	Title    string
	Category model.Category
	Date     model.Date
}

// AddTask appends a task to the end of its scope. Only "today" tasks keep a date.
func (s *Syncer) AddTask(ctx context.Context, draft TaskDraft) (model.Task, error) {
	now := s.now().UTC()
	task := model.Task{
		ID:        s.newID(),
		UserID:    s.UserID(),
		Title:     strings.TrimSpace(draft.Title),
		Category:  draft.Category,
		Date:      draft.Date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if task.Category != model.CategoryToday {
		task.Date = model.Date{}
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}
	scope := task.Scope()

	var created model.Task
	err := s.run(ctx, command{
		name: "add task",
		keys: staticKeys(taskScopeKey(scope)),
		plan: func(snap store.Snapshot) (delta, error) {
			task.OrderIndex = ordering.Next(ordering.FromTasks(snap.TasksIn(scope)))
			d := newDelta()
			d.putTask(task)
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			row, err := s.repo.CreateTask(ctx, task)
			if err != nil {
				return delta{}, err
			}
			created = row
			d := newDelta()
			d.putTask(row)
			return d, nil
		},
	})
	if err != nil {
		return model.Task{}, err
	}
	return created, nil
}

// UpdateTask edits the title, category and date of a task. Completion and
// order are kept; a task that changes scope is appended to the new one. A
// completed task that gets a new date takes its ledger entry along.
func (s *Syncer) UpdateTask(ctx context.Context, in model.Task) (model.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Category != model.CategoryToday {
		in.Date = model.Date{}
	}
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}
	ref := model.TaskRef(in.ID)

	var (
		next, updated model.Task
		local         []string
		relocate      bool
	)
	err := s.run(ctx, command{
		name: "update task",
		keys: func(snap store.Snapshot) ([]string, error) {
			cur, ok := snap.Task(in.ID)
			if !ok {
				return nil, notFound("task", in.ID)
			}
			return []string{taskScopeKey(cur.Scope()), taskScopeKey(in.Scope()), ledgerKey(ref)}, nil
		},
		plan: func(snap store.Snapshot) (delta, error) {
			cur, ok := snap.Task(in.ID)
			if !ok {
				return delta{}, notFound("task", in.ID)
			}
			next = cur
			next.Title = in.Title
			next.Category = in.Category
			next.Date = in.Date
			next.UpdatedAt = s.now().UTC()
			if next.Scope() != cur.Scope() {
				next.OrderIndex = ordering.Next(ordering.FromTasks(snap.TasksIn(next.Scope())))
			}
			d := newDelta()
			d.putTask(next)

			local, relocate = nil, false
			if next.Completed && !next.Date.IsZero() {
				entries := completionsOf(snap.Completions, ref)
				for _, c := range entries {
					local = append(local, c.ID)
				}
				kept, ok, dropped := alignEntries(entries, next.Date)
				relocate = !ok || len(dropped) > 0 || entries[0].Date != next.Date
				for _, id := range dropped {
					d.dropCompletion(id)
				}
				if ok {
					d.putCompletion(kept)
				}
			}
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			row, err := s.repo.UpdateTask(ctx, next)
			if err != nil {
				return delta{}, err
			}
			updated = row
			d := newDelta()
			d.putTask(row)
			if !relocate {
				return d, nil
			}
			entries, err := s.repo.ListCompletions(ctx, s.UserID(), storage.CompletionListFilter{TaskID: row.ID})
			if err != nil {
				return delta{}, err
			}
			for _, id := range local {
				d.dropCompletion(id)
			}
			for _, c := range entries {
				d.putCompletion(c)
			}
			return d, nil
		},
	})
	if err != nil {
		return model.Task{}, err
	}
	return updated, nil
}

// DeleteTask removes a task and its ledger entries.
func (s *Syncer) DeleteTask(ctx context.Context, id string) error {
	ref := model.TaskRef(id)
	var dropped []string
	return s.run(ctx, command{
		name: "delete task",
		keys: func(snap store.Snapshot) ([]string, error) {
			cur, ok := snap.Task(id)
			if !ok {
				return nil, notFound("task", id)
			}
			return []string{taskScopeKey(cur.Scope()), ledgerKey(ref)}, nil
		},
		plan: func(snap store.Snapshot) (delta, error) {
			if _, ok := snap.Task(id); !ok {
				return delta{}, notFound("task", id)
			}
			d := newDelta()
			d.dropTask(id)
			for _, c := range completionsOf(snap.Completions, ref) {
				d.dropCompletion(c.ID)
				dropped = append(dropped, c.ID)
			}
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			if err := s.repo.DeleteTask(ctx, s.UserID(), id); err != nil {
				return delta{}, err
			}
			d := newDelta()
			d.dropTask(id)
			for _, cid := range dropped {
				d.dropCompletion(cid)
			}
			return d, nil
		},
	})
}

// SetTaskCompleted sets the completed flag and the ledger entry together.
// Marking records the entry on the task's own date, or on the given date for
// undated tasks. Unmarking removes every entry of the task, whatever its date.
func (s *Syncer) SetTaskCompleted(ctx context.Context, id string, on model.Date, done bool) (model.Task, error) {
	return s.setTaskCompletion(ctx, id, on, func(model.Task) bool { return done })
}

// ToggleTask flips the completed flag based on the latest local state.
func (s *Syncer) ToggleTask(ctx context.Context, id string, on model.Date) (model.Task, error) {
	return s.setTaskCompletion(ctx, id, on, func(cur model.Task) bool { return !cur.Completed })
}

func (s *Syncer) setTaskCompletion(ctx context.Context, id string, on model.Date, want func(model.Task) bool) (model.Task, error) {
	ref := model.TaskRef(id)
	if err := ref.Validate(); err != nil {
		return model.Task{}, err
	}

	var (
		change   storage.TaskCompletionChange
		provided string
		stale    []string
		result   model.Task
	)
	err := s.run(ctx, command{
		name: "complete task",
		keys: func(snap store.Snapshot) ([]string, error) {
			cur, ok := snap.Task(id)
			if !ok {
				return nil, notFound("task", id)
			}
			return []string{taskScopeKey(cur.Scope()), ledgerKey(ref)}, nil
		},
		plan: func(snap store.Snapshot) (delta, error) {
			cur, ok := snap.Task(id)
			if !ok {
				return delta{}, notFound("task", id)
			}
			done := want(cur)
			entries := completionsOf(snap.Completions, ref)
			result = cur
			provided, stale = "", nil

			var date model.Date
			if done {
				date = cur.Date
				if date.IsZero() {
					date = on
				}
				if date.IsZero() {
					return delta{}, fmt.Errorf("%w: completion date is required", model.ErrInvalidTask)
				}
				if _, found := findCompletion(entries, ref, date); cur.Completed && found && len(entries) == 1 {
					return newDelta(), nil
				}
			} else if !cur.Completed && len(entries) == 0 {
				return newDelta(), nil
			}

			change = storage.TaskCompletionChange{UserID: s.UserID(), TaskID: id, Date: date, Completed: done}
			next := cur
			next.Completed = done
			next.UpdatedAt = s.now().UTC()
			result = next
			d := newDelta()
			d.putTask(next)
			if !done {
				for _, c := range entries {
					stale = append(stale, c.ID)
					d.dropCompletion(c.ID)
				}
				return d, nil
			}

			kept, ok, dropped := alignEntries(entries, date)
			if !ok {
				kept = model.TaskCompletion{
					ID:        s.newID(),
					UserID:    s.UserID(),
					TaskID:    id,
					Date:      date,
					CreatedAt: s.now().UTC(),
				}
			}
			provided = kept.ID
			d.putCompletion(kept)
			for _, cid := range dropped {
				stale = append(stale, cid)
				d.dropCompletion(cid)
			}
			change.CompletionID = provided
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			row, entry, err := s.repo.SetTaskCompletion(ctx, change)
			if err != nil {
				return delta{}, err
			}
			result = row
			d := newDelta()
			d.putTask(row)
			for _, cid := range stale {
				d.dropCompletion(cid)
			}
			if change.Completed {
				if provided != entry.ID {
					d.dropCompletion(provided)
				}
				d.putCompletion(entry)
			}
			return d, nil
		},
	})
	if err != nil {
		return model.Task{}, err
	}
	return result, nil
}

// MoveTask swaps a task with its neighbour in its scope.
func (s *Syncer) MoveTask(ctx context.Context, id string, dir ordering.Direction) error {
	return s.reorderTasks(ctx, "move task", id, func(entries []ordering.Entry) ([]ordering.Change, error) {
		return ordering.Swap(entries, id, dir)
	})
}

// DropTask moves a task to position to within its scope.
func (s *Syncer) DropTask(ctx context.Context, id string, to int) error {
	return s.reorderTasks(ctx, "drop task", id, func(entries []ordering.Entry) ([]ordering.Change, error) {
		return ordering.Reindex(entries, id, to)
	})
}

func (s *Syncer) reorderTasks(ctx context.Context, name, id string, planChanges func([]ordering.Entry) ([]ordering.Change, error)) error {
	var changes []ordering.Change
	return s.run(ctx, command{
		name: name,
		keys: func(snap store.Snapshot) ([]string, error) {
			cur, ok := snap.Task(id)
			if !ok {
				return nil, notFound("task", id)
			}
			return []string{taskScopeKey(cur.Scope())}, nil
		},
		plan: func(snap store.Snapshot) (delta, error) {
			cur, ok := snap.Task(id)
			if !ok {
				return delta{}, notFound("task", id)
			}
			var err error
			changes, err = planChanges(ordering.FromTasks(snap.TasksIn(cur.Scope())))
			if err != nil {
				return delta{}, err
			}
			d := newDelta()
			for _, c := range changes {
				t, _ := snap.Task(c.ID)
				t.OrderIndex = c.OrderIndex
				d.putTask(t)
			}
			return d, nil
		},
		commit: func(ctx context.Context) (delta, error) {
			rows, err := s.repo.ReorderTasks(ctx, s.UserID(), orderChanges(changes))
			if err != nil {
				return delta{}, err
			}
			d := newDelta()
			for _, row := range rows {
				d.putTask(row)
			}
			return d, nil
		},
	})
}

func orderChanges(changes []ordering.Change) []storage.OrderChange {
	out := make([]storage.OrderChange, 0, len(changes))
	for _, c := range changes {
		out = append(out, storage.OrderChange{ID: c.ID, OrderIndex: c.OrderIndex})
	}
	return out
}
