package update

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/ordering"
	"github.com/sandeepkv93/daytrack/internal/reconcile"
	"github.com/sandeepkv93/daytrack/internal/store"
)

var errNoSyncer = errors.New("update: no data source configured")

// start runs fn off the update loop and reports through ActionDoneMsg.
func (m *Model) start(label string, fn func(ctx context.Context, s *reconcile.Syncer) (string, error)) tea.Cmd {
	if m.syncer == nil {
		m.Status = StatusBar{Text: errNoSyncer.Error(), IsError: true}
		return nil
	}
	m.Pending++
	m.Status = StatusBar{Text: label + "..."}
	syncer := m.syncer
	ctx, cancel := m.actionContext()
	return func() tea.Msg {
		defer cancel()
		status, err := fn(ctx, syncer)
		return ActionDoneMsg{Status: status, Err: err}
	}
}

func following(id string, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		msg := cmd()
		if done, ok := msg.(ActionDoneMsg); ok && done.Err == nil {
			done.Follow = id
			return done
		}
		return msg
	}
}

func (m *Model) toggleSelected() tea.Cmd {
	sel, ok := m.selected()
	if !ok || sel.isTemplate() {
		return nil
	}
	item := sel.item
	return m.start("saving", func(ctx context.Context, s *reconcile.Syncer) (string, error) {
		if err := s.Toggle(ctx, item); err != nil {
			return "", err
		}
		verb := "done"
		if item.Done() {
			verb = "reopened"
		}
		return fmt.Sprintf("%s: %s", verb, item.ItemTitle()), nil
	})
}

func (m *Model) moveSelected(dir ordering.Direction) tea.Cmd {
	sel, ok := m.selected()
	if !ok {
		return nil
	}
	id := sel.id()
	recurring := sel.isTemplate() || sel.item.Ref().IsRecurring()
	return following(id, m.start("moving", func(ctx context.Context, s *reconcile.Syncer) (string, error) {
		var err error
		if recurring {
			err = s.MoveRecurringTask(ctx, id, dir)
		} else {
			err = s.MoveTask(ctx, id, dir)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("moved %s", dir), nil
	}))
}

func (m *Model) dropSelected(index int) tea.Cmd {
	sel, ok := m.selected()
	if !ok {
		return nil
	}
	id := sel.id()
	recurring := sel.isTemplate() || sel.item.Ref().IsRecurring()
	return following(id, m.start("moving", func(ctx context.Context, s *reconcile.Syncer) (string, error) {
		var err error
		if recurring {
			err = s.DropRecurringTask(ctx, id, index)
		} else {
			err = s.DropTask(ctx, id, index)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("moved to position %d", index+1), nil
	}))
}

func (m *Model) deleteSelected() tea.Cmd {
	sel, ok := m.selected()
	if !ok {
		return nil
	}
	if !sel.isTemplate() && sel.item.Ref().IsRecurring() {
		m.Status = StatusBar{Text: "recurring tasks are deleted from the recurring view", IsError: true}
		return nil
	}
	id, title, template := sel.id(), sel.title(), sel.isTemplate()
	return m.start("deleting", func(ctx context.Context, s *reconcile.Syncer) (string, error) {
		var err error
		if template {
			err = s.DeleteRecurringTask(ctx, id)
		} else {
			err = s.DeleteTask(ctx, id)
		}
		if err != nil {
			return "", err
		}
		return "deleted: " + title, nil
	})
}

func (m *Model) addTask(category model.Category, title string) tea.Cmd {
	draft := reconcile.TaskDraft{Title: title, Category: category}
	if category == model.CategoryToday {
		draft.Date = m.Date
	}
	return m.start("adding", func(ctx context.Context, s *reconcile.Syncer) (string, error) {
		task, err := s.AddTask(ctx, draft)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("added to %s: %s", task.Category, task.Title), nil
	})
}

func (m *Model) addRecurring(draft reconcile.RecurringDraft) tea.Cmd {
	return m.start("adding", func(ctx context.Context, s *reconcile.Syncer) (string, error) {
		r, err := s.AddRecurringTask(ctx, draft)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("added recurring %s: %s", r.Frequency, r.Title), nil
	})
}

func (m *Model) renameSelected(title string) tea.Cmd {
	sel, ok := m.selected()
	if !ok {
		m.Status = StatusBar{Text: "nothing selected", IsError: true}
		return nil
	}
	if sel.isTemplate() {
		next := sel.template
		next.Title = title
		return m.start("renaming", func(ctx context.Context, s *reconcile.Syncer) (string, error) {
			if _, err := s.UpdateRecurringTask(ctx, next); err != nil {
				return "", err
			}
			return "renamed: " + title, nil
		})
	}
	regular, ok := sel.item.(model.RegularItem)
	if !ok {
		m.Status = StatusBar{Text: "rename recurring tasks from the recurring view", IsError: true}
		return nil
	}
	next := regular.Task
	next.Title = title
	return m.start("renaming", func(ctx context.Context, s *reconcile.Syncer) (string, error) {
		if _, err := s.UpdateTask(ctx, next); err != nil {
			return "", err
		}
		return "renamed: " + title, nil
	})
}

func (m *Model) reload() tea.Cmd {
	return m.start("reloading", func(ctx context.Context, s *reconcile.Syncer) (string, error) {
		if err := s.Load(ctx); err != nil {
			return "", err
		}
		return "reloaded", nil
	})
}

func waitForSnapshotCmd(ch <-chan store.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}
