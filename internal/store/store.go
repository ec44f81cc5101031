// Package store holds the session's local view of one user's data.
package store

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/sandeepkv93/daytrack/internal/model"
)

var ErrClosed = errors.New("store: closed")

// Snapshot is a point-in-time copy of the store. Callers own its slices.
type Snapshot struct {
	UserID         string
	Tasks          []model.Task
	RecurringTasks []model.RecurringTask
	Completions    []model.TaskCompletion
	Version        uint64
}

func (s Snapshot) Task(id string) (model.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (s Snapshot) RecurringTask(id string) (model.RecurringTask, bool) {
	for _, r := range s.RecurringTasks {
		if r.ID == id {
			return r, true
		}
	}
	return model.RecurringTask{}, false
}

// TasksIn returns the tasks of one ordering scope in store order.
func (s Snapshot) TasksIn(scope model.Scope) []model.Task {
	out := make([]model.Task, 0)
	for _, t := range s.Tasks {
		if scope.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

type subscriber struct {
	ch chan Snapshot
}

// Store is safe for concurrent use. Every mutation replaces a whole
// collection; there is no partial merge.
type Store struct {
	mu          sync.Mutex
	userID      string
	tasks       []model.Task
	recurring   []model.RecurringTask
	completions []model.TaskCompletion
	version     uint64
	closed      bool
	subs        map[int]*subscriber
	nextSub     int
	dropped     uint64
}

func New(userID string) *Store {
	return &Store{
		userID: userID,
		subs:   make(map[int]*subscriber),
	}
}

func (s *Store) UserID() string {
	return s.userID
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) ReplaceTasks(tasks []model.Task) error {
	return s.replace(func() { s.tasks = slices.Clone(tasks) })
}

func (s *Store) ReplaceRecurringTasks(items []model.RecurringTask) error {
	return s.replace(func() { s.recurring = cloneRecurring(items) })
}

func (s *Store) ReplaceCompletions(entries []model.TaskCompletion) error {
	return s.replace(func() { s.completions = slices.Clone(entries) })
}

// ReplaceAll swaps every collection in one step, as a full reload does.
func (s *Store) ReplaceAll(tasks []model.Task, recurring []model.RecurringTask, entries []model.TaskCompletion) error {
	return s.replace(func() {
		s.tasks = slices.Clone(tasks)
		s.recurring = cloneRecurring(recurring)
		s.completions = slices.Clone(entries)
	})
}

// Update runs fn against the current snapshot and, when fn reports a change,
// stores what it returns. Both happen under the store lock, which makes it the
// compare-and-replace step for applying a delta without losing other writes.
func (s *Store) Update(fn func(Snapshot) (Snapshot, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next, changed := fn(s.snapshotLocked())
	if !changed {
		return nil
	}
	s.tasks = slices.Clone(next.Tasks)
	s.recurring = cloneRecurring(next.RecurringTasks)
	s.completions = slices.Clone(next.Completions)
	s.version++
	s.notifyLocked(s.snapshotLocked())
	return nil
}

func (s *Store) replace(apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	apply()
	s.version++
	s.notifyLocked(s.snapshotLocked())
	return nil
}

// Subscribe returns a channel that receives a snapshot after every replace.
// Sends never block the writer; a full channel drops the snapshot.
func (s *Store) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Snapshot, buffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = &subscriber{ch: ch}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub.ch)
			}
		})
	}
	return ch, cancel
}

func (s *Store) Dropped() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

// Close ends the session: data is discarded, subscribers are closed and later
// replaces fail with ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.tasks = nil
	s.recurring = nil
	s.completions = nil
	for id, sub := range s.subs {
		close(sub.ch)
		delete(s.subs, id)
	}
}

// notifyLocked never blocks. A full subscriber loses its oldest pending
// snapshot so the newest one always gets through.
func (s *Store) notifyLocked(snap Snapshot) {
	for _, sub := range s.subs {
		next := cloneSnapshot(snap)
		select {
		case sub.ch <- next:
			continue
		default:
		}
		select {
		case <-sub.ch:
			atomic.AddUint64(&s.dropped, 1)
		default:
		}
		select {
		case sub.ch <- next:
		default:
			atomic.AddUint64(&s.dropped, 1)
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		UserID:         s.userID,
		Tasks:          slices.Clone(s.tasks),
		RecurringTasks: cloneRecurring(s.recurring),
		Completions:    slices.Clone(s.completions),
		Version:        s.version,
	}
}

func cloneSnapshot(s Snapshot) Snapshot {
	s.Tasks = slices.Clone(s.Tasks)
	s.RecurringTasks = cloneRecurring(s.RecurringTasks)
	s.Completions = slices.Clone(s.Completions)
	return s
}

// cloneRecurring also copies each weekday slice.
func cloneRecurring(in []model.RecurringTask) []model.RecurringTask {
	if in == nil {
		return nil
	}
	out := make([]model.RecurringTask, len(in))
	for i, r := range in {
		r.DaysOfWeek = slices.Clone(r.DaysOfWeek)
		out[i] = r
	}
	return out
}
