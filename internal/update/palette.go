package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/daytrack/internal/commands"
	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/reconcile"
)

func (m *Model) openPalette(prefill string) {
	m.Palette.Active = true
	m.Palette.Input = prefill
	m.commandInput.SetValue(prefill)
	m.commandInput.CursorEnd()
	m.commandInput.Focus()
	m.Status = StatusBar{Text: "command palette active"}
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	}
	if msg.Type == tea.KeyRunes {
		m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
	} else {
		m.commandInput, _ = m.commandInput.Update(msg)
	}
	m.Palette.Input = m.commandInput.Value()
	return m, nil
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var next tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			category := a.Category
			if category == "" {
				c, ok := m.viewCategory()
				if !ok {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "name a category to add from this view"}
				}
				category = c
			}
			next = m.addTask(category, a.Title)
			return commands.Result{Message: m.Status.Text}, nil
		},
		Recur: func(r commands.RecurArgs) (commands.Result, error) {
			next = m.addRecurring(reconcile.RecurringDraft{Title: r.Title, Frequency: r.Frequency, DaysOfWeek: r.Days})
			return commands.Result{Message: m.Status.Text}, nil
		},
		Goto: func(g commands.GotoArgs) (commands.Result, error) {
			m.Date = g.Resolve(m.today())
			m.CurrentView = ViewToday
			return commands.Result{Message: "showing " + m.Date.String()}, nil
		},
		Drop: func(d commands.DropArgs) (commands.Result, error) {
			if _, ok := m.selected(); !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "nothing selected"}
			}
			next = m.dropSelected(d.Index)
			return commands.Result{Message: m.Status.Text}, nil
		},
		Rename: func(r commands.RenameArgs) (commands.Result, error) {
			next = m.renameSelected(r.Title)
			if next == nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: m.Status.Text}
			}
			return commands.Result{Message: m.Status.Text}, nil
		},
		View: func(v commands.ViewArgs) (commands.Result, error) {
			m.CurrentView = v.View
			return commands.Result{Message: fmt.Sprintf("view: %s", v.View)}, nil
		},
		Reload: func() (commands.Result, error) {
			next = m.reload()
			return commands.Result{Message: m.Status.Text}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message, IsError: m.Status.IsError}
	return m, next
}

func (m *Model) openQuickAdd() {
	if m.CurrentView == ViewRecurring {
		m.openPalette("recur ")
		return
	}
	m.QuickAdd.Active = true
	m.QuickAdd.Input = ""
	m.quickAddInput.SetValue("")
	m.quickAddInput.Focus()
}

func (m Model) handleQuickAddKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeQuickAdd()
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.quickAddInput.Value())
		m.closeQuickAdd()
		if title == "" {
			m.Status = StatusBar{Text: "title is required", IsError: true}
			return m, nil
		}
		category, ok := m.viewCategory()
		if !ok {
			category = model.CategoryToday
		}
		return m, m.addTask(category, title)
	}
	if msg.Type == tea.KeyRunes {
		m.quickAddInput.SetValue(m.quickAddInput.Value() + string(msg.Runes))
	} else {
		m.quickAddInput, _ = m.quickAddInput.Update(msg)
	}
	m.QuickAdd.Input = m.quickAddInput.Value()
	return m, nil
}

func (m *Model) closeQuickAdd() {
	m.QuickAdd.Active = false
	m.QuickAdd.Input = ""
	m.quickAddInput.SetValue("")
	m.quickAddInput.Blur()
}
