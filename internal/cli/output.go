package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sandeepkv93/daytrack/internal/agenda"
	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/store"
)

var ErrAmbiguousID = errors.New("cli: ambiguous id")

const shortIDLen = 8

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func schedule(r model.RecurringTask) string {
	if r.Frequency == model.FrequencyWeekly {
		return "weekly " + r.DaysOfWeek.String()
	}
	return string(r.Frequency)
}

func writeAgenda(w io.Writer, date model.Date, items []model.AgendaItem) {
	p := agenda.Summarize(items)
	fmt.Fprintf(w, "%s %s  %d/%d done (%d%%)\n", date, date.Weekday(), p.Completed, p.Total, p.Percent)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (nothing scheduled)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, item := range items {
		kind := ""
		if it, ok := item.(model.RecurringItem); ok {
			kind = schedule(it.Template)
		}
		fmt.Fprintf(tw, "  %d.\t%s %s\t%s\t%s\n", i+1, checkbox(item.Done()), item.ItemTitle(), kind, shortID(item.ItemID()))
	}
	_ = tw.Flush()
}

func writeTasks(w io.Writer, scope model.Scope, tasks []model.Task) {
	fmt.Fprintf(w, "%s\n", scope)
	if len(tasks) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, t := range tasks {
		fmt.Fprintf(tw, "  %d.\t%s %s\t%s\n", i+1, checkbox(t.Completed), t.Title, shortID(t.ID))
	}
	_ = tw.Flush()
}

func writeRecurring(w io.Writer, templates []model.RecurringTask) {
	if len(templates) == 0 {
		fmt.Fprintln(w, "(no recurring tasks)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, r := range templates {
		fmt.Fprintf(tw, "%d.\t%s\t%s\t%s\n", i+1, r.Title, schedule(r), shortID(r.ID))
	}
	_ = tw.Flush()
}

// resolveTask accepts a full id or an unambiguous prefix of one.
func resolveTask(snap store.Snapshot, ref string) (model.Task, error) {
	if t, ok := snap.Task(ref); ok {
		return t, nil
	}
	var found []model.Task
	for _, t := range snap.Tasks {
		if strings.HasPrefix(t.ID, ref) {
			found = append(found, t)
		}
	}
	return pick(found, "task", ref)
}

func resolveRecurring(snap store.Snapshot, ref string) (model.RecurringTask, error) {
	if r, ok := snap.RecurringTask(ref); ok {
		return r, nil
	}
	var found []model.RecurringTask
	for _, r := range snap.RecurringTasks {
		if strings.HasPrefix(r.ID, ref) {
			found = append(found, r)
		}
	}
	return pick(found, "recurring task", ref)
}

func pick[T any](found []T, kind, ref string) (T, error) {
	var zero T
	switch {
	case ref == "" || len(found) == 0:
		return zero, errNotFound(kind, ref)
	case len(found) > 1:
		return zero, fmt.Errorf("%w: %q matches %d %ss", ErrAmbiguousID, ref, len(found), kind)
	default:
		return found[0], nil
	}
}

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}
