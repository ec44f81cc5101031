package reconcile

import (
	"sort"

	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/store"
)

// delta is a set of per-id replacements. A nil value removes the id.
type delta struct {
	tasks       map[string]*model.Task
	recurring   map[string]*model.RecurringTask
	completions map[string]*model.TaskCompletion
}

func newDelta() delta {
	return delta{
		tasks:       make(map[string]*model.Task),
		recurring:   make(map[string]*model.RecurringTask),
		completions: make(map[string]*model.TaskCompletion),
	}
}

func (d delta) putTask(t model.Task)                 { d.tasks[t.ID] = &t }
func (d delta) dropTask(id string)                   { d.tasks[id] = nil }
func (d delta) putRecurring(r model.RecurringTask)   { d.recurring[r.ID] = &r }
func (d delta) dropRecurring(id string)              { d.recurring[id] = nil }
func (d delta) putCompletion(c model.TaskCompletion) { d.completions[c.ID] = &c }
func (d delta) dropCompletion(id string)             { d.completions[id] = nil }

func (d delta) empty() bool {
	return len(d.tasks) == 0 && len(d.recurring) == 0 && len(d.completions) == 0
}

// invert captures the current value of every id the delta touches.
func (d delta) invert(snap store.Snapshot) delta {
	inv := newDelta()
	for id := range d.tasks {
		if cur, ok := snap.Task(id); ok {
			inv.putTask(cur)
		} else {
			inv.dropTask(id)
		}
	}
	for id := range d.recurring {
		if cur, ok := snap.RecurringTask(id); ok {
			inv.putRecurring(cur)
		} else {
			inv.dropRecurring(id)
		}
	}
	for id := range d.completions {
		if cur, ok := findCompletionByID(snap.Completions, id); ok {
			inv.putCompletion(cur)
		} else {
			inv.dropCompletion(id)
		}
	}
	return inv
}

func (d delta) applyTo(snap store.Snapshot) store.Snapshot {
	snap.Tasks = patch(snap.Tasks, func(t model.Task) string { return t.ID }, d.tasks)
	snap.RecurringTasks = patch(snap.RecurringTasks, func(r model.RecurringTask) string { return r.ID }, d.recurring)
	snap.Completions = patch(snap.Completions, func(c model.TaskCompletion) string { return c.ID }, d.completions)
	return snap
}

// patch replaces items in place, drops removed ids and appends new ids in
// id order.
func patch[T any](items []T, idOf func(T) string, changes map[string]*T) []T {
	if len(changes) == 0 {
		return items
	}
	seen := make(map[string]bool, len(changes))
	out := make([]T, 0, len(items)+len(changes))
	for _, item := range items {
		id := idOf(item)
		change, ok := changes[id]
		if !ok {
			out = append(out, item)
			continue
		}
		seen[id] = true
		if change != nil {
			out = append(out, *change)
		}
	}
	added := make([]string, 0)
	for id, change := range changes {
		if change != nil && !seen[id] {
			added = append(added, id)
		}
	}
	sort.Strings(added)
	for _, id := range added {
		out = append(out, *changes[id])
	}
	return out
}

func findCompletionByID(entries []model.TaskCompletion, id string) (model.TaskCompletion, bool) {
	for _, c := range entries {
		if c.ID == id {
			return c, true
		}
	}
	return model.TaskCompletion{}, false
}

func findCompletion(entries []model.TaskCompletion, ref model.Ref, date model.Date) (model.TaskCompletion, bool) {
	for _, c := range entries {
		if c.Ref() == ref && c.Date == date {
			return c, true
		}
	}
	return model.TaskCompletion{}, false
}

func completionsOf(entries []model.TaskCompletion, ref model.Ref) []model.TaskCompletion {
	out := make([]model.TaskCompletion, 0)
	for _, c := range entries {
		if c.Ref() == ref {
			out = append(out, c)
		}
	}
	return out
}

// alignEntries applies the repository rule for a completed task locally: the
// entry on date survives, otherwise the newest entry is moved onto date. Every
// other entry is returned in dropped.
func alignEntries(entries []model.TaskCompletion, date model.Date) (kept model.TaskCompletion, ok bool, dropped []string) {
	sorted := append([]model.TaskCompletion(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Date != b.Date {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	keep := -1
	for i, c := range sorted {
		if c.Date == date {
			keep = i
			break
		}
	}
	if keep < 0 && len(sorted) > 0 {
		keep = 0
	}
	for i, c := range sorted {
		if i == keep {
			kept, ok = c, true
			kept.Date = date
			continue
		}
		dropped = append(dropped, c.ID)
	}
	return kept, ok, dropped
}
