package update

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/daytrack/internal/commands"
	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/reconcile"
	"github.com/sandeepkv93/daytrack/internal/scheduler"
	"github.com/sandeepkv93/daytrack/internal/store"
)

type View = commands.View

const (
	ViewToday     = commands.ViewToday
	ViewTasks     = commands.ViewTasks
	ViewIdeas     = commands.ViewIdeas
	ViewRecurring = commands.ViewRecurring
)

var viewOrder = []View{ViewToday, ViewTasks, ViewIdeas, ViewRecurring}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Today     string
	Tasks     string
	Ideas     string
	Recurring string
	Help      string
	Quit      string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type QuickAddState struct {
	Active bool
	Input  string
}

// Deps are the long-lived collaborators of a TUI session.
type Deps struct {
	Syncer    *reconcile.Syncer
	Engine    *scheduler.Engine
	StatePath string
	// Timeout bounds every action started from the UI.
	Timeout time.Duration
	Now     func() time.Time
	Buffer  int
}

type Model struct {
	CurrentView View
	Date        model.Date
	Cursor      map[View]int
	Snapshot    store.Snapshot
	Palette     CommandPaletteState
	QuickAdd    QuickAddState
	HelpVisible bool
	Status      StatusBar
	Keys        GlobalKeyMap
	Pending     int
	Quitting    bool
	LastError   error

	syncer    *reconcile.Syncer
	engine    *scheduler.Engine
	updates   <-chan store.Snapshot
	cancelSub func()
	statePath string
	timeout   time.Duration
	now       func() time.Time

	commandInput  textinput.Model
	quickAddInput textinput.Model
	dayProgress   progress.Model
	helpModel     help.Model
	helpViewport  viewport.Model
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// SnapshotMsg carries a store change pushed by the subscription.
type SnapshotMsg struct {
	Snapshot store.Snapshot
}

// ActionDoneMsg reports the outcome of a command sent to the syncer.
type ActionDoneMsg struct {
	Status string
	Err    error
	// Follow is the item the cursor should land on once the view refreshes.
	Follow string
}

type RolloverMsg struct {
	Event scheduler.Event
}

// ReloadDueMsg is a reload the engine fired, usually armed after the remote
// was unreachable.
type ReloadDueMsg struct {
	Event scheduler.Event
}

const reloadRetryDelay = 15 * time.Second

func NewModel(deps Deps) Model {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	m := Model{
		CurrentView: ViewToday,
		Date:        model.DateOf(now()),
		Cursor:      make(map[View]int),
		Keys: GlobalKeyMap{
			Today:     "1",
			Tasks:     "2",
			Ideas:     "3",
			Recurring: "4",
			Help:      "?",
			Quit:      "q",
		},
		syncer:    deps.Syncer,
		engine:    deps.Engine,
		statePath: strings.TrimSpace(deps.StatePath),
		timeout:   deps.Timeout,
		now:       now,
	}
	if m.timeout <= 0 {
		m.timeout = 30 * time.Second
	}
	if m.syncer != nil {
		buffer := deps.Buffer
		if buffer <= 0 {
			buffer = 16
		}
		m.Snapshot = m.syncer.Store().Snapshot()
		m.updates, m.cancelSub = m.syncer.Store().Subscribe(buffer)
	}
	if m.statePath != "" {
		if st, err := loadSessionState(m.statePath); err == nil {
			m.applySessionState(st)
		}
	}
	if m.engine != nil {
		_ = m.engine.Schedule(scheduler.RolloverAfter(now()))
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.quickAddInput = textinput.New()
	m.quickAddInput.Prompt = "add> "
	m.quickAddInput.CharLimit = 256
	m.quickAddInput.Width = 42

	m.dayProgress = progress.New(progress.WithDefaultGradient(), progress.WithWidth(30))
	m.helpModel = help.New()
	m.helpViewport = viewport.New(44, 14)
}

func (m Model) today() model.Date {
	return model.DateOf(m.now())
}

func (m Model) actionContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}
