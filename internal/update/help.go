package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/daytrack/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

const paletteHelp = `## Commands

- ` + "`add [today|tasks|ideas] <title>`" + ` add a task
- ` + "`recur daily <title>`" + ` or ` + "`recur weekly mon,thu <title>`" + `
- ` + "`goto today|tomorrow|yesterday|+N|-N|YYYY-MM-DD`" + `
- ` + "`drop <position>`" + ` move the selection
- ` + "`rename <title>`" + ` retitle the selection
- ` + "`view today|tasks|ideas|recurring`" + `
- ` + "`reload`" + ` refetch everything
`

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	vp := m.helpViewport
	vp.SetContent(views.RenderMarkdown(paletteHelp))
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
		MarkdownView: strings.TrimSpace(vp.View()),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Today, Action: "today"},
		{Key: m.Keys.Tasks, Action: "tasks"},
		{Key: m.Keys.Ideas, Action: "ideas"},
		{Key: m.Keys.Recurring, Action: "recurring"},
		{Key: "/", Action: "command palette"},
		{Key: "r", Action: "reload"},
		{Key: m.Keys.Help, Action: "toggle help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	common := []KeyBinding{
		{Key: "j/k", Action: "move cursor"},
		{Key: "J/K", Action: "move item down/up"},
		{Key: "d", Action: "delete"},
		{Key: "a", Action: "add"},
	}
	switch m.CurrentView {
	case ViewToday:
		return append([]KeyBinding{
			{Key: "space", Action: "toggle done"},
			{Key: "h/l", Action: "previous/next day"},
			{Key: "t", Action: "jump to today"},
		}, common...)
	case ViewTasks, ViewIdeas:
		return append([]KeyBinding{{Key: "space", Action: "toggle done"}}, common...)
	case ViewRecurring:
		return common
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.viewBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.viewBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
