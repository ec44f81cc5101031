package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidReference = errors.New("model: invalid task reference")

// Ref points at exactly one of a task or a recurring template.
type Ref struct {
	TaskID          string
	RecurringTaskID string
}

func TaskRef(id string) Ref      { return Ref{TaskID: id} }
func RecurringRef(id string) Ref { return Ref{RecurringTaskID: id} }

// Validate treats any non-empty id as set, the same rule IsRecurring and the
// storage CHECK use, and rejects a set id that is only whitespace.
func (r Ref) Validate() error {
	hasTask := r.TaskID != ""
	hasRecurring := r.RecurringTaskID != ""
	switch {
	case hasTask && hasRecurring:
		return fmt.Errorf("%w: both task_id and recurring_task_id set", ErrInvalidReference)
	case !hasTask && !hasRecurring:
		return fmt.Errorf("%w: neither task_id nor recurring_task_id set", ErrInvalidReference)
	case strings.TrimSpace(r.TaskID+r.RecurringTaskID) == "":
		return fmt.Errorf("%w: blank id", ErrInvalidReference)
	}
	return nil
}

func (r Ref) IsRecurring() bool { return r.RecurringTaskID != "" }

// Key is a stable identity for the reference, e.g. "task:abc" or "recurring:abc".
func (r Ref) Key() string {
	if r.IsRecurring() {
		return "recurring:" + r.RecurringTaskID
	}
	return "task:" + r.TaskID
}

func (r Ref) String() string { return r.Key() }

// TaskCompletion records that one reference was done on one date. An empty
// reference id stands for NULL.
type TaskCompletion struct {
	ID              string
	UserID          string
	TaskID          string
	RecurringTaskID string
	Date            Date
	CreatedAt       time.Time
}

func (c TaskCompletion) Ref() Ref {
	return Ref{TaskID: c.TaskID, RecurringTaskID: c.RecurringTaskID}
}

func (c TaskCompletion) Validate() error {
	if err := c.Ref().Validate(); err != nil {
		return err
	}
	if c.Date.IsZero() {
		return errors.New("model: completion date is required")
	}
	return nil
}
