// Package agenda derives the list of things to do on a date.
package agenda

import (
	"github.com/sandeepkv93/daytrack/internal/ledger"
	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/ordering"
	"github.com/sandeepkv93/daytrack/internal/store"
)

// Materialize returns the agenda of date: recurring templates scheduled on
// that day come first in template order, followed by the day's "today" tasks
// in their own order. It never mutates snap.
func Materialize(date model.Date, snap store.Snapshot) []model.AgendaItem {
	if date.IsZero() {
		return []model.AgendaItem{}
	}
	done := ledger.New(snap.UserID, snap.Completions, ledger.Options{})

	templates := make([]model.RecurringTask, 0, len(snap.RecurringTasks))
	for _, r := range snap.RecurringTasks {
		if r.ScheduledOn(date) {
			templates = append(templates, r)
		}
	}
	ordering.SortRecurring(templates)

	tasks := snap.TasksIn(model.ScopeOf(model.CategoryToday, date))
	ordering.SortTasks(tasks)

	out := make([]model.AgendaItem, 0, len(templates)+len(tasks))
	for _, r := range templates {
		out = append(out, model.RecurringItem{
			Template:  r,
			Date:      date,
			Completed: done.IsCompleted(model.RecurringRef(r.ID), date),
		})
	}
	for _, t := range tasks {
		out = append(out, model.RegularItem{Task: t})
	}
	return out
}

// Scheduled reports whether a template produces an item on date.
func Scheduled(template model.RecurringTask, date model.Date) bool {
	return template.ScheduledOn(date)
}

// Upcoming previews the next count dates on or after from.
func Upcoming(template model.RecurringTask, from model.Date, count int) []model.Date {
	return template.Upcoming(from, count)
}

type Progress struct {
	Total     int
	Completed int
	Percent   int
}

func Summarize(items []model.AgendaItem) Progress {
	p := Progress{Total: len(items)}
	for _, item := range items {
		if item.Done() {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = p.Completed * 100 / p.Total
	}
	return p
}

// Find locates an item by reference.
func Find(items []model.AgendaItem, ref model.Ref) (model.AgendaItem, bool) {
	for _, item := range items {
		if item.Ref() == ref {
			return item, true
		}
	}
	return nil, false
}
