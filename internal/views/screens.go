package views

import (
	"fmt"
	"strings"
)

type RowData struct {
	ID        string
	Title     string
	Done      bool
	Recurring bool
	Detail    string
}

type ListPanelData struct {
	Title   string
	Caption string
	Rows    []RowData
	Cursor  int
	Empty   string
}

type AgendaPanelData struct {
	Date         string
	Weekday      string
	IsToday      bool
	ProgressView string
	Completed    int
	Total        int
	List         ListPanelData
}

type RecurringDetailData struct {
	Title    string
	Schedule string
	Upcoming []string
}

type HelpPanelData struct {
	CurrentView  string
	Bindings     []string
	HelpView     string
	MarkdownView string
}

func RenderAgendaPanel(data AgendaPanelData) string {
	var b strings.Builder
	label := data.Date + " " + data.Weekday
	if data.IsToday {
		label += " (today)"
	}
	b.WriteString(fmt.Sprintf("agenda: %s\n", label))
	b.WriteString(fmt.Sprintf("progress: %d/%d %s\n", data.Completed, data.Total, data.ProgressView))
	b.WriteString("actions: [space]toggle [J/K]move [h/l]day [t]today [a]add\n")
	b.WriteString(RenderList(data.List))
	return strings.TrimSpace(b.String())
}

func RenderList(data ListPanelData) string {
	var b strings.Builder
	if data.Title != "" {
		b.WriteString(fmt.Sprintf("\n%s:\n", data.Title))
	}
	if data.Caption != "" {
		b.WriteString(data.Caption + "\n")
	}
	if len(data.Rows) == 0 {
		empty := data.Empty
		if empty == "" {
			empty = "(none)"
		}
		b.WriteString("  " + empty + "\n")
		return b.String()
	}
	for i, row := range data.Rows {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		box := "[ ]"
		if row.Done {
			box = "[x]"
		}
		kind := ""
		if row.Recurring {
			kind = " (recurring)"
		}
		b.WriteString(fmt.Sprintf("%s %d. %s %s%s", cursor, i+1, box, row.Title, kind))
		if row.Detail != "" {
			b.WriteString(" - " + row.Detail)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func RenderRecurringDetail(data RecurringDetailData) string {
	if data.Title == "" {
		return "template:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString("template:\n")
	b.WriteString(fmt.Sprintf("title: %s\n", data.Title))
	b.WriteString(fmt.Sprintf("schedule: %s\n", data.Schedule))
	if len(data.Upcoming) > 0 {
		b.WriteString("next:\n")
		for _, d := range data.Upcoming {
			b.WriteString("- " + d + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderQuickAdd(active bool, category, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("add to %s: %s", category, input)
}

func RenderHelpPanel(data HelpPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("help (%s view):\n", strings.ToLower(data.CurrentView)))
	b.WriteString(strings.Join(data.Bindings, "\n"))
	if data.HelpView != "" {
		b.WriteString("\n\n" + data.HelpView)
	}
	if data.MarkdownView != "" {
		b.WriteString("\n\n" + data.MarkdownView)
	}
	return b.String()
}
