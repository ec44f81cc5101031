package update

import (
	"github.com/sandeepkv93/daytrack/internal/agenda"
	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/ordering"
)

// row is one line of the current view: an agenda item, or a template in the
// recurring view.
type row struct {
	item     model.AgendaItem
	template model.RecurringTask
}

func (r row) isTemplate() bool { return r.item == nil }

func (r row) id() string {
	if r.isTemplate() {
		return r.template.ID
	}
	return r.item.ItemID()
}

func (r row) title() string {
	if r.isTemplate() {
		return r.template.Title
	}
	return r.item.ItemTitle()
}

func (m Model) rows() []row {
	switch m.CurrentView {
	case ViewToday:
		items := agenda.Materialize(m.Date, m.Snapshot)
		out := make([]row, 0, len(items))
		for _, item := range items {
			out = append(out, row{item: item})
		}
		return out
	case ViewTasks, ViewIdeas:
		category, _ := m.viewCategory()
		tasks := m.Snapshot.TasksIn(model.ScopeOf(category, model.Date{}))
		ordering.SortTasks(tasks)
		out := make([]row, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, row{item: model.RegularItem{Task: task}})
		}
		return out
	case ViewRecurring:
		templates := append([]model.RecurringTask(nil), m.Snapshot.RecurringTasks...)
		ordering.SortRecurring(templates)
		out := make([]row, 0, len(templates))
		for _, r := range templates {
			out = append(out, row{template: r})
		}
		return out
	default:
		return nil
	}
}

// viewCategory is the task category new items land in for the current view.
func (m Model) viewCategory() (model.Category, bool) {
	switch m.CurrentView {
	case ViewToday:
		return model.CategoryToday, true
	case ViewTasks:
		return model.CategoryTasks, true
	case ViewIdeas:
		return model.CategoryIdeas, true
	default:
		return "", false
	}
}

func (m Model) cursor() int {
	n := len(m.rows())
	c := m.Cursor[m.CurrentView]
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

func (m Model) selected() (row, bool) {
	rows := m.rows()
	if len(rows) == 0 {
		return row{}, false
	}
	return rows[m.cursor()], true
}

func (m *Model) moveCursor(delta int) {
	n := len(m.rows())
	if n == 0 {
		m.Cursor[m.CurrentView] = 0
		return
	}
	next := m.cursor() + delta
	if next < 0 {
		next = 0
	}
	if next >= n {
		next = n - 1
	}
	m.Cursor[m.CurrentView] = next
}

// follow puts the cursor back on id after a reorder.
func (m *Model) follow(id string) {
	for i, r := range m.rows() {
		if r.id() == id {
			m.Cursor[m.CurrentView] = i
			return
		}
	}
}
