package update

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/reconcile"
	"github.com/sandeepkv93/daytrack/internal/scheduler"
	"github.com/sandeepkv93/daytrack/internal/storage"
	"github.com/sandeepkv93/daytrack/internal/store"
)

var (
	clock  = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	monday = model.MustParseDate("2024-06-10")
)

func fixedNow() time.Time { return clock }

func newTestSyncer(t *testing.T) *reconcile.Syncer {
	t.Helper()
	repo, err := storage.OpenSQLite(storage.DriverSQLite3, filepath.Join(t.TempDir(), "daytrack.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	s := reconcile.New(store.New("u1"), repo, reconcile.Options{RetryAttempts: 1, RemoteTimeout: time.Second})
	if err := s.Load(t.Context()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func newTestModel(t *testing.T, s *reconcile.Syncer) Model {
	t.Helper()
	m := NewModel(Deps{Syncer: s, Now: fixedNow, Timeout: 5 * time.Second})
	t.Cleanup(func() {
		if m.cancelSub != nil {
			m.cancelSub()
		}
	})
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	space = tea.KeyMsg{Type: tea.KeySpace}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

// press feeds each message and runs the commands it returns until the
// model settles. Only action commands are run, never subscription waits.
func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		updated, cmd := m.Update(msg)
		m = updated.(Model)
		for cmd != nil {
			next := cmd()
			if next == nil {
				break
			}
			if _, ok := next.(tea.QuitMsg); ok {
				break
			}
			updated, cmd = m.Update(next)
			m = updated.(Model)
		}
	}
	return m
}

// step delivers one message and drops the returned command. Timer messages
// re-arm a wait on the engine channel, which would block press.
func step(m Model, msg tea.Msg) Model {
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func titles(m Model) []string {
	var out []string
	for _, r := range m.rows() {
		out = append(out, r.title())
	}
	return out
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(Deps{Now: fixedNow})
	if m.CurrentView != ViewToday {
		t.Fatalf("expected default view %q, got %q", ViewToday, m.CurrentView)
	}
	if m.Date != monday {
		t.Fatalf("expected date %s, got %s", monday, m.Date)
	}
	if m.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", m.Keys.Quit)
	}
	if m.timeout != 30*time.Second {
		t.Fatalf("expected default timeout, got %s", m.timeout)
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m := NewModel(Deps{Now: fixedNow})
	m = press(t, m, runes("2"))
	if m.CurrentView != ViewTasks {
		t.Fatalf("expected tasks view, got %q", m.CurrentView)
	}
	m = press(t, m, runes("4"))
	if m.CurrentView != ViewRecurring {
		t.Fatalf("expected recurring view, got %q", m.CurrentView)
	}
	m = press(t, m, tab)
	if m.CurrentView != ViewToday {
		t.Fatalf("expected tab to wrap to today, got %q", m.CurrentView)
	}
}

func TestUpdateSwitchViewMsg(t *testing.T) {
	m := NewModel(Deps{Now: fixedNow})
	m = press(t, m, SwitchViewMsg{View: ViewIdeas})
	if m.CurrentView != ViewIdeas {
		t.Fatalf("expected ideas view, got %q", m.CurrentView)
	}
	m = press(t, m, SwitchViewMsg{View: View("calendar")})
	if m.CurrentView != ViewIdeas {
		t.Fatalf("expected view unchanged for unknown view, got %q", m.CurrentView)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m := NewModel(Deps{Now: fixedNow})
	m = press(t, m, SetStatusMsg{Text: "ready"})
	if m.Status.Text != "ready" || m.Status.IsError {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
	m = press(t, m, AppErrorMsg{Err: errors.New("boom")})
	if m.LastError == nil || !m.Status.IsError || m.Status.Text != "boom" {
		t.Fatalf("expected error status, got %+v (%v)", m.Status, m.LastError)
	}
	m = press(t, m, ClearStatusMsg{})
	if m.Status.Text != "" {
		t.Fatalf("expected cleared status, got %+v", m.Status)
	}
}

func TestActionWithoutSyncerReportsError(t *testing.T) {
	m := NewModel(Deps{Now: fixedNow})
	m = press(t, m, runes("r"))
	if !m.Status.IsError || m.Pending != 0 {
		t.Fatalf("expected immediate error, got %+v pending=%d", m.Status, m.Pending)
	}
}

func TestQuickAddUsesCurrentView(t *testing.T) {
	s := newTestSyncer(t)
	m := newTestModel(t, s)

	m = press(t, m, runes("2"), runes("a"), runes("buy milk"), enter)
	if m.QuickAdd.Active {
		t.Fatalf("expected quick add to close")
	}
	if diff := cmp.Diff([]string{"buy milk"}, titles(m)); diff != "" {
		t.Fatalf("tasks view mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(m.Status.Text, "added to tasks") {
		t.Fatalf("unexpected status %q", m.Status.Text)
	}

	m = press(t, m, runes("1"), runes("a"), runes("standup notes"), enter)
	tasks := s.Store().Snapshot().TasksIn(model.ScopeOf(model.CategoryToday, monday))
	if len(tasks) != 1 || tasks[0].Title != "standup notes" {
		t.Fatalf("expected today task on %s, got %+v", monday, tasks)
	}
	if m.Pending != 0 {
		t.Fatalf("expected no pending actions, got %d", m.Pending)
	}
}

func TestQuickAddEscapeAndEmptyTitle(t *testing.T) {
	s := newTestSyncer(t)
	m := newTestModel(t, s)
	m = press(t, m, runes("a"), runes("draft"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.QuickAdd.Active || len(s.Store().Snapshot().Tasks) != 0 {
		t.Fatalf("escape should discard the draft")
	}
	m = press(t, m, runes("a"), enter)
	if !m.Status.IsError {
		t.Fatalf("expected error for empty title, got %+v", m.Status)
	}
}

func TestToggleTodayItems(t *testing.T) {
	s := newTestSyncer(t)
	ctx := t.Context()
	if _, err := s.AddRecurringTask(ctx, reconcile.RecurringDraft{Title: "stretch", Frequency: model.FrequencyDaily}); err != nil {
		t.Fatalf("add recurring: %v", err)
	}
	if _, err := s.AddTask(ctx, reconcile.TaskDraft{Title: "ship", Category: model.CategoryToday, Date: monday}); err != nil {
		t.Fatalf("add task: %v", err)
	}
	m := newTestModel(t, s)
	if diff := cmp.Diff([]string{"stretch", "ship"}, titles(m)); diff != "" {
		t.Fatalf("agenda mismatch (-want +got):\n%s", diff)
	}

	m = press(t, m, space)
	snap := s.Store().Snapshot()
	if len(snap.Completions) != 1 || !snap.Completions[0].Ref().IsRecurring() {
		t.Fatalf("expected one recurring completion, got %+v", snap.Completions)
	}

	m = press(t, m, runes("j"), space)
	rows := m.rows()
	if !rows[0].item.Done() || !rows[1].item.Done() {
		t.Fatalf("expected both items done")
	}
	if !strings.Contains(m.View(), "progress: 2/2") {
		t.Fatalf("expected full progress in view:\n%s", m.View())
	}

	m = press(t, m, runes("k"), space)
	if m.rows()[0].item.Done() {
		t.Fatalf("expected recurring item reopened")
	}
	if len(s.Store().Snapshot().Completions) != 1 {
		t.Fatalf("expected only the task completion left")
	}
}

func TestMoveKeepsCursorOnItem(t *testing.T) {
	s := newTestSyncer(t)
	for _, title := range []string{"a", "b", "c"} {
		if _, err := s.AddTask(t.Context(), reconcile.TaskDraft{Title: title, Category: model.CategoryTasks}); err != nil {
			t.Fatalf("add %s: %v", title, err)
		}
	}
	m := newTestModel(t, s)
	m = press(t, m, runes("2"), runes("J"))
	if diff := cmp.Diff([]string{"b", "a", "c"}, titles(m)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if m.cursor() != 1 {
		t.Fatalf("expected cursor to follow moved item, got %d", m.cursor())
	}

	m = press(t, m, runes("K"), runes("K"))
	if m.Status.IsError || m.cursor() != 0 {
		t.Fatalf("moving past the top is a no-op, got %+v cursor=%d", m.Status, m.cursor())
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, titles(m)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteSelected(t *testing.T) {
	s := newTestSyncer(t)
	if _, err := s.AddTask(t.Context(), reconcile.TaskDraft{Title: "spark", Category: model.CategoryIdeas}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.AddRecurringTask(t.Context(), reconcile.RecurringDraft{Title: "review", Frequency: model.FrequencyDaily}); err != nil {
		t.Fatalf("add recurring: %v", err)
	}
	m := newTestModel(t, s)

	m = press(t, m, runes("d"))
	if !m.Status.IsError || len(s.Store().Snapshot().RecurringTasks) != 1 {
		t.Fatalf("recurring agenda items must not be deleted from today, got %+v", m.Status)
	}

	m = press(t, m, runes("3"), runes("d"))
	if len(titles(m)) != 0 {
		t.Fatalf("expected idea deleted, got %v", titles(m))
	}
	m = press(t, m, runes("4"), runes("d"))
	if len(s.Store().Snapshot().RecurringTasks) != 0 {
		t.Fatalf("expected template deleted")
	}
}

func TestPaletteCommands(t *testing.T) {
	s := newTestSyncer(t)
	m := newTestModel(t, s)

	m = press(t, m, runes("/"), runes("goto 2024-06-12"), enter)
	if m.Palette.Active {
		t.Fatalf("expected palette to close after enter")
	}
	if m.Date != model.MustParseDate("2024-06-12") {
		t.Fatalf("expected goto date, got %s", m.Date)
	}

	m = press(t, m, runes("/"), runes("goto -1"), enter)
	if m.Date != model.MustParseDate("2024-06-09") {
		t.Fatalf("expected offset from today, got %s", m.Date)
	}

	m = press(t, m, runes("/"), runes("add ideas spark"), enter)
	if got := s.Store().Snapshot().TasksIn(model.ScopeOf(model.CategoryIdeas, model.Date{})); len(got) != 1 {
		t.Fatalf("expected one idea, got %+v", got)
	}

	m = press(t, m, runes("/"), runes("recur weekly wed,mon standup"), enter)
	tmpl := s.Store().Snapshot().RecurringTasks
	if len(tmpl) != 1 || tmpl[0].DaysOfWeek.String() != "mon,wed" {
		t.Fatalf("expected weekly template, got %+v", tmpl)
	}

	m = press(t, m, runes("/"), runes("view recurring"), enter, runes("/"), runes("rename daily standup"), enter)
	if got := s.Store().Snapshot().RecurringTasks[0].Title; got != "daily standup" {
		t.Fatalf("expected renamed template, got %q", got)
	}
	if !strings.Contains(m.View(), "weekly on mon,wed") {
		t.Fatalf("expected schedule in view:\n%s", m.View())
	}

	m = press(t, m, runes("/"), runes("explode"), enter)
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "unknown_command") {
		t.Fatalf("expected unknown command error, got %+v", m.Status)
	}
}

func TestPaletteDropMovesSelection(t *testing.T) {
	s := newTestSyncer(t)
	for _, title := range []string{"a", "b", "c"} {
		if _, err := s.AddTask(t.Context(), reconcile.TaskDraft{Title: title, Category: model.CategoryTasks}); err != nil {
			t.Fatalf("add %s: %v", title, err)
		}
	}
	m := newTestModel(t, s)
	m = press(t, m, runes("2"), runes("/"), runes("drop 3"), enter)
	if diff := cmp.Diff([]string{"b", "c", "a"}, titles(m)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if m.cursor() != 2 {
		t.Fatalf("expected cursor on dropped item, got %d", m.cursor())
	}
}

func TestRecurringQuickAddOpensPalette(t *testing.T) {
	m := NewModel(Deps{Now: fixedNow})
	m = press(t, m, runes("4"), runes("a"))
	if !m.Palette.Active || m.Palette.Input != "recur " {
		t.Fatalf("expected prefilled palette, got %+v", m.Palette)
	}
}

func TestDayNavigation(t *testing.T) {
	m := NewModel(Deps{Now: fixedNow})
	m = press(t, m, runes("l"), runes("l"))
	if m.Date != model.MustParseDate("2024-06-12") {
		t.Fatalf("expected two days ahead, got %s", m.Date)
	}
	m = press(t, m, runes("h"))
	if m.Date != model.MustParseDate("2024-06-11") {
		t.Fatalf("expected one day back, got %s", m.Date)
	}
	m = press(t, m, runes("t"))
	if m.Date != monday {
		t.Fatalf("expected today, got %s", m.Date)
	}
	m = press(t, m, runes("2"), runes("l"))
	if m.Date != monday {
		t.Fatalf("day keys only apply to the today view")
	}
}

func TestRolloverFollowsCalendar(t *testing.T) {
	engine := scheduler.NewEngine(4)
	m := NewModel(Deps{Now: fixedNow, Engine: engine})
	if engine.Pending() != 1 {
		t.Fatalf("expected rollover armed, pending=%d", engine.Pending())
	}

	ev := scheduler.RolloverAfter(clock)
	m = step(m, RolloverMsg{Event: ev})
	if m.Date != model.MustParseDate("2024-06-11") {
		t.Fatalf("expected rollover to next day, got %s", m.Date)
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected next rollover to replace the old one, pending=%d", engine.Pending())
	}

	m.Date = model.MustParseDate("2024-06-20")
	m = step(m, RolloverMsg{Event: scheduler.RolloverAfter(clock.Add(24 * time.Hour))})
	if m.Date != model.MustParseDate("2024-06-20") {
		t.Fatalf("browsing another day should not be moved, got %s", m.Date)
	}
}

func TestRemoteFailureArmsReload(t *testing.T) {
	engine := scheduler.NewEngine(4)
	s := newTestSyncer(t)
	m := NewModel(Deps{Syncer: s, Engine: engine, Now: fixedNow, Timeout: 5 * time.Second})
	t.Cleanup(m.cancelSub)

	outage := fmt.Errorf("%w: connection refused", reconcile.ErrRemoteUnavailable)
	for i := 0; i < 2; i++ {
		m = step(m, ActionDoneMsg{Err: outage})
	}
	if engine.Pending() != 2 {
		t.Fatalf("expected rollover plus one collapsed reload, pending=%d", engine.Pending())
	}

	m = step(m, ActionDoneMsg{Err: errors.New("title is required")})
	if engine.Pending() != 2 {
		t.Fatalf("validation errors must not arm a reload, pending=%d", engine.Pending())
	}

	m = step(m, ReloadDueMsg{Event: scheduler.ReloadAt(clock)})
	if m.Pending != 1 || m.Status.Text != "reloading..." {
		t.Fatalf("expected reload in flight, pending=%d status=%q", m.Pending, m.Status.Text)
	}
}

func TestSnapshotMsgIgnoresStaleVersions(t *testing.T) {
	m := NewModel(Deps{Now: fixedNow})
	m = press(t, m, SnapshotMsg{Snapshot: store.Snapshot{UserID: "u1", Version: 5}})
	m = press(t, m, SnapshotMsg{Snapshot: store.Snapshot{UserID: "old", Version: 3}})
	if m.Snapshot.UserID != "u1" || m.Snapshot.Version != 5 {
		t.Fatalf("expected newest snapshot kept, got %+v", m.Snapshot)
	}
}

func TestFailedActionShowsError(t *testing.T) {
	s := newTestSyncer(t)
	m := newTestModel(t, s)
	s.Store().Close()
	m = press(t, m, runes("a"), runes("late"), enter)
	if !m.Status.IsError || m.LastError == nil {
		t.Fatalf("expected failure status, got %+v", m.Status)
	}
	if m.Pending != 0 {
		t.Fatalf("expected pending to settle, got %d", m.Pending)
	}
}

func TestSessionStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	m := NewModel(Deps{Now: fixedNow, StatePath: path})
	m = press(t, m, runes("l"), runes("3"), runes("q"))
	if !m.Quitting {
		t.Fatalf("expected quitting")
	}

	restored := NewModel(Deps{Now: fixedNow, StatePath: path})
	if restored.CurrentView != ViewIdeas || restored.Date != model.MustParseDate("2024-06-11") {
		t.Fatalf("unexpected restored state view=%s date=%s", restored.CurrentView, restored.Date)
	}

	later := func() time.Time { return clock.Add(72 * time.Hour) }
	stale := NewModel(Deps{Now: later, StatePath: path})
	if stale.Date != model.MustParseDate("2024-06-13") {
		t.Fatalf("a past saved date should open on today, got %s", stale.Date)
	}
}

func TestHelpToggleRendersBindings(t *testing.T) {
	m := NewModel(Deps{Now: fixedNow})
	m = press(t, m, runes("?"))
	if !m.HelpVisible {
		t.Fatalf("expected help visible")
	}
	view := m.View()
	if !strings.Contains(view, "help (today view)") || !strings.Contains(view, "previous/next day") {
		t.Fatalf("expected help panel in view:\n%s", view)
	}
}
