package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTask     = errors.New("model: invalid task")
	ErrInvalidCategory = errors.New("model: invalid task category")
)

type Category string

const (
	CategoryToday Category = "today"
	CategoryTasks Category = "tasks"
	CategoryIdeas Category = "ideas"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryToday, CategoryTasks, CategoryIdeas:
		return true
	default:
		return false
	}
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

type Task struct {
	ID         string
	UserID     string
	Title      string
	Category   Category
	Completed  bool
	Date       Date
	OrderIndex int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the fields a caller supplies; ids and timestamps are
// assigned by the persistence layer and are not checked here.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if t.Category == CategoryToday && t.Date.IsZero() {
		return fmt.Errorf("%w: date is required for category today", ErrInvalidTask)
	}
	if t.OrderIndex < 0 {
		return fmt.Errorf("%w: negative order_index %d", ErrInvalidTask, t.OrderIndex)
	}
	return nil
}

// Scope is the ordering group of a task. Only "today" tasks are split by date.
type Scope struct {
	Category Category
	Date     Date
}

func (t Task) Scope() Scope {
	return ScopeOf(t.Category, t.Date)
}

func ScopeOf(c Category, d Date) Scope {
	if c != CategoryToday {
		return Scope{Category: c}
	}
	return Scope{Category: c, Date: d}
}

func (s Scope) Contains(t Task) bool {
	return t.Scope() == s
}

func (s Scope) String() string {
	if s.Date.IsZero() {
		return string(s.Category)
	}
	return string(s.Category) + "/" + s.Date.String()
}
