package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/daytrack/internal/model"
)

var (
	ErrNotFound            = errors.New("storage: not found")
	ErrDuplicateCompletion = errors.New("storage: duplicate completion")
)

// Repository is the remote CRUD contract. Every call is scoped by user id;
// rows owned by another user behave as if they did not exist.
type Repository interface {
	ListTasks(ctx context.Context, userID string, filter TaskListFilter) ([]model.Task, error)
	CreateTask(ctx context.Context, in model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) (model.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
	ReorderTasks(ctx context.Context, userID string, changes []OrderChange) ([]model.Task, error)

	ListRecurringTasks(ctx context.Context, userID string) ([]model.RecurringTask, error)
	CreateRecurringTask(ctx context.Context, in model.RecurringTask) (model.RecurringTask, error)
	UpdateRecurringTask(ctx context.Context, in model.RecurringTask) (model.RecurringTask, error)
	DeleteRecurringTask(ctx context.Context, userID, id string) error
	ReorderRecurringTasks(ctx context.Context, userID string, changes []OrderChange) ([]model.RecurringTask, error)

	ListCompletions(ctx context.Context, userID string, filter CompletionListFilter) ([]model.TaskCompletion, error)
	CreateCompletion(ctx context.Context, in model.TaskCompletion) (model.TaskCompletion, error)
	DeleteCompletion(ctx context.Context, userID string, ref model.Ref, date model.Date) (bool, error)

	// SetTaskCompletion is the dual write for regular tasks. The returned
	// completion is the zero value when the change unmarks the task.
	SetTaskCompletion(ctx context.Context, in TaskCompletionChange) (model.Task, model.TaskCompletion, error)

	Close() error
}
