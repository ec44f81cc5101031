// Package ledger indexes completion entries by (reference, date).
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/daytrack/internal/model"
)

var ErrDuplicateCompletion = errors.New("ledger: duplicate completion")

type Options struct {
	NewID func() string
	Now   func() time.Time
}

type key struct {
	ref  string
	date model.Date
}

// Ledger is not safe for concurrent use; build one per snapshot.
type Ledger struct {
	userID  string
	entries map[key]model.TaskCompletion
	newID   func() string
	now     func() time.Time
}

func New(userID string, entries []model.TaskCompletion, opts Options) *Ledger {
	l := &Ledger{
		userID:  userID,
		entries: make(map[key]model.TaskCompletion, len(entries)),
		newID:   opts.NewID,
		now:     opts.Now,
	}
	if l.newID == nil {
		l.newID = uuid.NewString
	}
	if l.now == nil {
		l.now = time.Now
	}
	for _, e := range entries {
		if e.Ref().Validate() != nil {
			continue
		}
		l.entries[keyOf(e.Ref(), e.Date)] = e
	}
	return l
}

func keyOf(ref model.Ref, date model.Date) key {
	return key{ref: ref.Key(), date: date}
}

func (l *Ledger) IsCompleted(ref model.Ref, date model.Date) bool {
	_, ok := l.Lookup(ref, date)
	return ok
}

func (l *Ledger) Lookup(ref model.Ref, date model.Date) (model.TaskCompletion, bool) {
	if ref.Validate() != nil {
		return model.TaskCompletion{}, false
	}
	e, ok := l.entries[keyOf(ref, date)]
	return e, ok
}

// Mark records a completion. The reference is checked before uniqueness.
func (l *Ledger) Mark(ref model.Ref, date model.Date) (model.TaskCompletion, error) {
	if err := ref.Validate(); err != nil {
		return model.TaskCompletion{}, err
	}
	if date.IsZero() {
		return model.TaskCompletion{}, fmt.Errorf("%w: completion date is required", model.ErrInvalidTask)
	}
	k := keyOf(ref, date)
	if _, exists := l.entries[k]; exists {
		return model.TaskCompletion{}, fmt.Errorf("%w: %s on %s", ErrDuplicateCompletion, ref, date)
	}
	entry := model.TaskCompletion{
		ID:              l.newID(),
		UserID:          l.userID,
		TaskID:          ref.TaskID,
		RecurringTaskID: ref.RecurringTaskID,
		Date:            date,
		CreatedAt:       l.now().UTC(),
	}
	l.entries[k] = entry
	return entry, nil
}

// Unmark reports whether an entry existed. An invalid reference is false.
func (l *Ledger) Unmark(ref model.Ref, date model.Date) bool {
	if ref.Validate() != nil {
		return false
	}
	k := keyOf(ref, date)
	if _, ok := l.entries[k]; !ok {
		return false
	}
	delete(l.entries, k)
	return true
}

func (l *Ledger) ForgetTask(id string) int {
	return l.forget(model.TaskRef(id).Key())
}

func (l *Ledger) ForgetRecurring(id string) int {
	return l.forget(model.RecurringRef(id).Key())
}

func (l *Ledger) forget(refKey string) int {
	removed := 0
	for k := range l.entries {
		if k.ref == refKey {
			delete(l.entries, k)
			removed++
		}
	}
	return removed
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries is ordered by date descending, then creation time, then id.
func (l *Ledger) Entries() []model.TaskCompletion {
	out := make([]model.TaskCompletion, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}
