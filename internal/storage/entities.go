package storage

import "github.com/sandeepkv93/daytrack/internal/model"

type TaskListFilter struct {
	Category model.Category
	Date     model.Date
	Limit    int
	Offset   int
}

type CompletionListFilter struct {
	TaskID          string
	RecurringTaskID string
	Date            model.Date
	Limit           int
	Offset          int
}

// OrderChange assigns a new order_index to one row.
type OrderChange struct {
	ID         string
	OrderIndex int
}

// TaskCompletionChange flips a task's completed flag and its ledger rows in the
// same transaction. Marking leaves exactly one row, on Date; unmarking removes
// every row of the task and ignores Date. CompletionID is used for an inserted
// row; an empty value gets a generated id.
type TaskCompletionChange struct {
	UserID       string
	TaskID       string
	Date         model.Date
	Completed    bool
	CompletionID string
}
