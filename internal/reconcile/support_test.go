package reconcile

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/ordering"
	"github.com/sandeepkv93/daytrack/internal/storage"
	"github.com/sandeepkv93/daytrack/internal/store"
)

const testUser = "u1"

var monday = model.MustParseDate("2024-06-10")

// flakyRepo wraps a real repository and injects queued failures per method.
// A method marked as blocking waits for its context to end.
type flakyRepo struct {
	storage.Repository

	mu       sync.Mutex
	failures map[string][]error
	blocking map[string]bool
	calls    map[string]int
}

func newFlakyRepo(inner storage.Repository) *flakyRepo {
	return &flakyRepo{
		Repository: inner,
		failures:   make(map[string][]error),
		blocking:   make(map[string]bool),
		calls:      make(map[string]int),
	}
}

func (f *flakyRepo) fail(method string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = append(f.failures[method], errs...)
}

func (f *flakyRepo) block(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocking[method] = true
}

func (f *flakyRepo) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *flakyRepo) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	blocking := f.blocking[method]
	var err error
	if queue := f.failures[method]; len(queue) > 0 {
		err = queue[0]
		f.failures[method] = queue[1:]
	}
	f.mu.Unlock()
	if blocking {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *flakyRepo) ListTasks(ctx context.Context, userID string, filter storage.TaskListFilter) ([]model.Task, error) {
	if err := f.enter(ctx, "ListTasks"); err != nil {
		return nil, err
	}
	return f.Repository.ListTasks(ctx, userID, filter)
}

func (f *flakyRepo) CreateTask(ctx context.Context, in model.Task) (model.Task, error) {
	if err := f.enter(ctx, "CreateTask"); err != nil {
		return model.Task{}, err
	}
	return f.Repository.CreateTask(ctx, in)
}

func (f *flakyRepo) UpdateTask(ctx context.Context, in model.Task) (model.Task, error) {
	if err := f.enter(ctx, "UpdateTask"); err != nil {
		return model.Task{}, err
	}
	return f.Repository.UpdateTask(ctx, in)
}

func (f *flakyRepo) DeleteTask(ctx context.Context, userID, id string) error {
	if err := f.enter(ctx, "DeleteTask"); err != nil {
		return err
	}
	return f.Repository.DeleteTask(ctx, userID, id)
}

func (f *flakyRepo) ReorderTasks(ctx context.Context, userID string, changes []storage.OrderChange) ([]model.Task, error) {
	if err := f.enter(ctx, "ReorderTasks"); err != nil {
		return nil, err
	}
	return f.Repository.ReorderTasks(ctx, userID, changes)
}

func (f *flakyRepo) CreateRecurringTask(ctx context.Context, in model.RecurringTask) (model.RecurringTask, error) {
	if err := f.enter(ctx, "CreateRecurringTask"); err != nil {
		return model.RecurringTask{}, err
	}
	return f.Repository.CreateRecurringTask(ctx, in)
}

func (f *flakyRepo) DeleteRecurringTask(ctx context.Context, userID, id string) error {
	if err := f.enter(ctx, "DeleteRecurringTask"); err != nil {
		return err
	}
	return f.Repository.DeleteRecurringTask(ctx, userID, id)
}

func (f *flakyRepo) CreateCompletion(ctx context.Context, in model.TaskCompletion) (model.TaskCompletion, error) {
	if err := f.enter(ctx, "CreateCompletion"); err != nil {
		return model.TaskCompletion{}, err
	}
	return f.Repository.CreateCompletion(ctx, in)
}

func (f *flakyRepo) DeleteCompletion(ctx context.Context, userID string, ref model.Ref, date model.Date) (bool, error) {
	if err := f.enter(ctx, "DeleteCompletion"); err != nil {
		return false, err
	}
	return f.Repository.DeleteCompletion(ctx, userID, ref, date)
}

func (f *flakyRepo) SetTaskCompletion(ctx context.Context, in storage.TaskCompletionChange) (model.Task, model.TaskCompletion, error) {
	if err := f.enter(ctx, "SetTaskCompletion"); err != nil {
		return model.Task{}, model.TaskCompletion{}, err
	}
	return f.Repository.SetTaskCompletion(ctx, in)
}

// sequence hands out predictable ids and strictly increasing timestamps.
type sequence struct {
	mu   sync.Mutex
	n    int
	base time.Time
}

func (s *sequence) id() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%03d", s.n)
}

func (s *sequence) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.base.Add(time.Duration(s.n) * time.Second)
}

func newTestSyncer(t *testing.T, tweak func(*Options)) (*Syncer, *flakyRepo) {
	t.Helper()
	repo, err := storage.OpenSQLite(storage.DriverSQLite3, filepath.Join(t.TempDir(), "daytrack.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	seq := &sequence{base: time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)}
	opts := Options{
		RetryAttempts: 3,
		RemoteTimeout: time.Second,
		Now:           seq.now,
		NewID:         seq.id,
	}
	if tweak != nil {
		tweak(&opts)
	}
	flaky := newFlakyRepo(repo)
	s := New(store.New(testUser), flaky, opts)
	if err := s.Load(t.Context()); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	return s, flaky
}

func mustAddTask(t *testing.T, s *Syncer, category model.Category, title string) model.Task {
	t.Helper()
	draft := TaskDraft{Title: title, Category: category}
	if category == model.CategoryToday {
		draft.Date = monday
	}
	task, err := s.AddTask(t.Context(), draft)
	if err != nil {
		t.Fatalf("add task %q: %v", title, err)
	}
	return task
}

func titlesIn(snap store.Snapshot, scope model.Scope) []string {
	tasks := snap.TasksIn(scope)
	ordering.SortTasks(tasks)
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}

func remoteTasks(t *testing.T, f *flakyRepo) []model.Task {
	t.Helper()
	tasks, err := f.Repository.ListTasks(t.Context(), testUser, storage.TaskListFilter{})
	if err != nil {
		t.Fatalf("list remote tasks: %v", err)
	}
	return tasks
}

func remoteCompletions(t *testing.T, f *flakyRepo) []model.TaskCompletion {
	t.Helper()
	entries, err := f.Repository.ListCompletions(t.Context(), testUser, storage.CompletionListFilter{})
	if err != nil {
		t.Fatalf("list remote completions: %v", err)
	}
	return entries
}
