// Package ordering plans order_index rewrites for a single ordering scope.
//
// A scope is normalized when its sorted order indexes are exactly 0..n-1.
// Every plan produced here leaves the scope normalized.
package ordering

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sandeepkv93/daytrack/internal/model"
)

var ErrNotInScope = errors.New("ordering: item not in scope")

type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

type Entry struct {
	ID         string
	OrderIndex int
	CreatedAt  time.Time
}

type Change struct {
	ID         string
	OrderIndex int
}

func FromTasks(tasks []model.Task) []Entry {
	out := make([]Entry, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Entry{ID: t.ID, OrderIndex: t.OrderIndex, CreatedAt: t.CreatedAt})
	}
	return out
}

func FromRecurring(items []model.RecurringTask) []Entry {
	out := make([]Entry, 0, len(items))
	for _, r := range items {
		out = append(out, Entry{ID: r.ID, OrderIndex: r.OrderIndex, CreatedAt: r.CreatedAt})
	}
	return out
}

// Sort returns a sorted copy: order index, then creation time, then id.
func Sort(entries []Entry) []Entry {
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

func Less(a, b Entry) bool {
	if a.OrderIndex != b.OrderIndex {
		return a.OrderIndex < b.OrderIndex
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func SortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return Less(
			Entry{ID: tasks[i].ID, OrderIndex: tasks[i].OrderIndex, CreatedAt: tasks[i].CreatedAt},
			Entry{ID: tasks[j].ID, OrderIndex: tasks[j].OrderIndex, CreatedAt: tasks[j].CreatedAt},
		)
	})
}

func SortRecurring(items []model.RecurringTask) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(
			Entry{ID: items[i].ID, OrderIndex: items[i].OrderIndex, CreatedAt: items[i].CreatedAt},
			Entry{ID: items[j].ID, OrderIndex: items[j].OrderIndex, CreatedAt: items[j].CreatedAt},
		)
	})
}

// Next is the order index for an item appended to the scope.
func Next(entries []Entry) int {
	if len(entries) == 0 {
		return 0
	}
	highest := entries[0].OrderIndex
	for _, e := range entries[1:] {
		if e.OrderIndex > highest {
			highest = e.OrderIndex
		}
	}
	return highest + 1
}

func IsNormalized(entries []Entry) bool {
	for i, e := range Sort(entries) {
		if e.OrderIndex != i {
			return false
		}
	}
	return true
}

// Swap exchanges id with its neighbour in the sorted view. Moving past either
// end returns no changes. On a normalized scope the plan is exactly the two
// swapped items; otherwise the scope is renumbered in the same pass and only
// items whose index changes are returned.
func Swap(entries []Entry, id string, dir Direction) ([]Change, error) {
	sorted := Sort(entries)
	idx := indexOf(sorted, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotInScope, id)
	}
	other := idx - 1
	if dir == Down {
		other = idx + 1
	}
	if other < 0 || other >= len(sorted) {
		return nil, nil
	}
	if IsNormalized(sorted) {
		return []Change{
			{ID: sorted[idx].ID, OrderIndex: sorted[other].OrderIndex},
			{ID: sorted[other].ID, OrderIndex: sorted[idx].OrderIndex},
		}, nil
	}
	sorted[idx], sorted[other] = sorted[other], sorted[idx]
	return renumber(sorted, false), nil
}

// Reindex moves id to position to (clamped) and rewrites every item of the
// scope with 0..n-1, as a drag-and-drop does.
func Reindex(entries []Entry, id string, to int) ([]Change, error) {
	sorted := Sort(entries)
	idx := indexOf(sorted, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotInScope, id)
	}
	moved := sorted[idx]
	rest := append(append([]Entry(nil), sorted[:idx]...), sorted[idx+1:]...)
	if to < 0 {
		to = 0
	}
	if to > len(rest) {
		to = len(rest)
	}
	final := make([]Entry, 0, len(sorted))
	final = append(final, rest[:to]...)
	final = append(final, moved)
	final = append(final, rest[to:]...)
	return renumber(final, true), nil
}

// Normalize returns the changes that bring the scope to 0..n-1.
func Normalize(entries []Entry) []Change {
	return renumber(Sort(entries), false)
}

// Apply returns a copy of entries with changes applied.
func Apply(entries []Entry, changes []Change) []Entry {
	byID := make(map[string]int, len(changes))
	for _, c := range changes {
		byID[c.ID] = c.OrderIndex
	}
	out := append([]Entry(nil), entries...)
	for i := range out {
		if idx, ok := byID[out[i].ID]; ok {
			out[i].OrderIndex = idx
		}
	}
	return out
}

func renumber(ordered []Entry, all bool) []Change {
	out := make([]Change, 0, len(ordered))
	for i, e := range ordered {
		if all || e.OrderIndex != i {
			out = append(out, Change{ID: e.ID, OrderIndex: i})
		}
	}
	return out
}

func indexOf(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
