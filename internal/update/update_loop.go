package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/daytrack/internal/agenda"
	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/ordering"
	"github.com/sandeepkv93/daytrack/internal/reconcile"
	"github.com/sandeepkv93/daytrack/internal/scheduler"
	"github.com/sandeepkv93/daytrack/internal/views"
)

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.updates != nil {
		cmds = append(cmds, waitForSnapshotCmd(m.updates))
	}
	if m.engine != nil {
		cmds = append(cmds, waitForEventCmd(m.engine.C()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			return m.quit()
		}
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		if m.QuickAdd.Active {
			return m.handleQuickAddKey(typed)
		}
		return m.handleKey(typed)
	case SnapshotMsg:
		if typed.Snapshot.Version >= m.Snapshot.Version {
			m.Snapshot = typed.Snapshot
		}
		return m, waitForSnapshotCmd(m.updates)
	case ActionDoneMsg:
		if m.Pending > 0 {
			m.Pending--
		}
		m.refreshSnapshot()
		if typed.Follow != "" {
			m.follow(typed.Follow)
		}
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			if errors.Is(typed.Err, reconcile.ErrRemoteUnavailable) && m.engine != nil {
				_ = m.engine.Schedule(scheduler.ReloadAt(m.now().Add(reloadRetryDelay)))
			}
		} else {
			m.Status = StatusBar{Text: typed.Status}
		}
		return m, nil
	case RolloverMsg:
		m.onRollover(typed.Event)
		if m.engine != nil {
			return m, waitForEventCmd(m.engine.C())
		}
		return m, nil
	case ReloadDueMsg:
		cmd := m.reload()
		if m.engine != nil {
			return m, tea.Batch(cmd, waitForEventCmd(m.engine.C()))
		}
		return m, cmd
	case SwitchViewMsg:
		if typed.View.IsValid() {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.Keys.Quit:
		return m.quit()
	case m.Keys.Today:
		m.CurrentView = ViewToday
	case m.Keys.Tasks:
		m.CurrentView = ViewTasks
	case m.Keys.Ideas:
		m.CurrentView = ViewIdeas
	case m.Keys.Recurring:
		m.CurrentView = ViewRecurring
	case "tab":
		m.CurrentView = viewOrder[(viewIndex(m.CurrentView)+1)%len(viewOrder)]
	case "shift+tab":
		m.CurrentView = viewOrder[(viewIndex(m.CurrentView)+len(viewOrder)-1)%len(viewOrder)]
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
	case "/":
		m.openPalette("")
	case "a":
		m.openQuickAdd()
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case " ", "enter", "x":
		return m, m.toggleSelected()
	case "J":
		return m, m.moveSelected(ordering.Down)
	case "K":
		return m, m.moveSelected(ordering.Up)
	case "d":
		return m, m.deleteSelected()
	case "r":
		return m, m.reload()
	case "h", "left":
		if m.CurrentView == ViewToday {
			m.Date = m.Date.AddDays(-1)
			m.Cursor[ViewToday] = 0
		}
	case "l", "right":
		if m.CurrentView == ViewToday {
			m.Date = m.Date.AddDays(1)
			m.Cursor[ViewToday] = 0
		}
	case "t":
		if m.CurrentView == ViewToday {
			m.Date = m.today()
			m.Cursor[ViewToday] = 0
		}
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.Quitting = true
	if err := m.persistSessionState(); err != nil {
		m.LastError = err
	}
	if m.cancelSub != nil {
		m.cancelSub()
	}
	return m, tea.Quit
}

// refreshSnapshot reads the store directly so the view reflects a finished
// action even before its notification is drained.
func (m *Model) refreshSnapshot() {
	if m.syncer == nil {
		return
	}
	snap := m.syncer.Store().Snapshot()
	if snap.Version >= m.Snapshot.Version {
		m.Snapshot = snap
	}
}

// onRollover follows the calendar when the user was looking at the day that
// just ended, and arms the next midnight.
func (m *Model) onRollover(ev scheduler.Event) {
	if ev.Kind != scheduler.KindRollover {
		return
	}
	if m.Date == ev.Date.AddDays(-1) {
		m.Date = ev.Date
		m.Cursor[ViewToday] = 0
		m.Status = StatusBar{Text: "new day: " + ev.Date.String()}
	}
	if m.engine != nil {
		_ = m.engine.Schedule(scheduler.RolloverAfter(ev.At))
	}
}

func waitForEventCmd(ch <-chan scheduler.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		if ev.Kind == scheduler.KindReload {
			return ReloadDueMsg{Event: ev}
		}
		return RolloverMsg{Event: ev}
	}
}

func viewIndex(v View) int {
	for i, candidate := range viewOrder {
		if candidate == v {
			return i
		}
	}
	return 0
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}
	if m.Pending > 0 {
		status = strings.TrimSpace(fmt.Sprintf("%s (%d pending)", status, m.Pending))
	}

	tabs := make([]string, 0, len(viewOrder))
	for i, v := range viewOrder {
		tabs = append(tabs, fmt.Sprintf("%d %s", i+1, v))
	}

	left := ""
	right := ""
	switch m.CurrentView {
	case ViewToday:
		left = m.renderAgenda()
	case ViewTasks, ViewIdeas:
		left = views.RenderList(views.ListPanelData{
			Title:  string(m.CurrentView),
			Rows:   m.rowData(),
			Cursor: m.cursor(),
			Empty:  "(nothing here, press a to add)",
		})
	case ViewRecurring:
		left = views.RenderList(views.ListPanelData{
			Title:  "recurring",
			Rows:   m.rowData(),
			Cursor: m.cursor(),
			Empty:  "(no templates, press a to add)",
		})
		right = m.renderRecurringDetail()
	}

	overlays := []string{
		views.RenderCommandPalette(m.Palette.Active, m.Palette.Input),
		m.renderQuickAdd(),
		m.renderHelpIfVisible(),
	}
	for _, o := range overlays {
		if strings.TrimSpace(o) == "" {
			continue
		}
		if right != "" {
			right += "\n\n"
		}
		right += o
	}

	return views.RenderApp(views.AppData{
		Header:     fmt.Sprintf("daytrack | %s | %s", m.Snapshot.UserID, m.Date),
		Tabs:       tabs,
		ActiveTab:  viewIndex(m.CurrentView),
		LeftPane:   strings.TrimSpace(left),
		RightPane:  right,
		StatusLine: status,
		IsError:    m.Status.IsError,
		Footer:     fmt.Sprintf("keys: 1-4 views | / cmd | a add | r reload | %s help | %s quit", m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderAgenda() string {
	items := agenda.Materialize(m.Date, m.Snapshot)
	progress := agenda.Summarize(items)
	return views.RenderAgendaPanel(views.AgendaPanelData{
		Date:         m.Date.String(),
		Weekday:      m.Date.Weekday().String(),
		IsToday:      m.Date == m.today(),
		ProgressView: m.dayProgress.ViewAs(float64(progress.Percent) / 100),
		Completed:    progress.Completed,
		Total:        progress.Total,
		List: views.ListPanelData{
			Rows:   m.rowData(),
			Cursor: m.cursor(),
			Empty:  "(nothing scheduled)",
		},
	})
}

func (m Model) renderRecurringDetail() string {
	sel, ok := m.selected()
	if !ok || !sel.isTemplate() {
		return views.RenderRecurringDetail(views.RecurringDetailData{})
	}
	dates := agenda.Upcoming(sel.template, m.today(), 5)
	upcoming := make([]string, 0, len(dates))
	for _, d := range dates {
		upcoming = append(upcoming, fmt.Sprintf("%s %s", d, d.Weekday().String()[:3]))
	}
	return views.RenderRecurringDetail(views.RecurringDetailData{
		Title:    sel.template.Title,
		Schedule: scheduleLabel(sel.template),
		Upcoming: upcoming,
	})
}

func (m Model) renderQuickAdd() string {
	category, ok := m.viewCategory()
	if !ok {
		category = model.CategoryToday
	}
	return views.RenderQuickAdd(m.QuickAdd.Active, string(category), m.QuickAdd.Input)
}

func (m Model) rowData() []views.RowData {
	rows := m.rows()
	out := make([]views.RowData, 0, len(rows))
	for _, r := range rows {
		if r.isTemplate() {
			out = append(out, views.RowData{ID: r.id(), Title: r.title(), Detail: scheduleLabel(r.template)})
			continue
		}
		out = append(out, views.RowData{
			ID:        r.id(),
			Title:     r.title(),
			Done:      r.item.Done(),
			Recurring: r.item.Ref().IsRecurring(),
		})
	}
	return out
}

func scheduleLabel(r model.RecurringTask) string {
	if r.Frequency == model.FrequencyWeekly {
		return "weekly on " + r.DaysOfWeek.String()
	}
	return string(r.Frequency)
}
