package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/daytrack/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeRecur  Type = "recur"
	TypeGoto   Type = "goto"
	TypeDrop   Type = "drop"
	TypeRename Type = "rename"
	TypeView   Type = "view"
	TypeReload Type = "reload"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, a ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, a...)}
}

// AddArgs with an empty Category means "the category being viewed".
type AddArgs struct {
	Category model.Category
	Title    string
}

type RecurArgs struct {
	Frequency model.Frequency
	Days      model.Weekdays
	Title     string
}

// GotoArgs is either an absolute Date or an Offset in days from today.
type GotoArgs struct {
	Date   model.Date
	Offset int
}

func (g GotoArgs) Resolve(today model.Date) model.Date {
	if !g.Date.IsZero() {
		return g.Date
	}
	return today.AddDays(g.Offset)
}

// DropArgs.Index is zero-based; the palette takes a one-based position.
type DropArgs struct {
	Index int
}

type RenameArgs struct {
	Title string
}

type View string

const (
	ViewToday     View = "today"
	ViewTasks     View = "tasks"
	ViewIdeas     View = "ideas"
	ViewRecurring View = "recurring"
)

func (v View) IsValid() bool {
	switch v {
	case ViewToday, ViewTasks, ViewIdeas, ViewRecurring:
		return true
	default:
		return false
	}
}

type ViewArgs struct {
	View View
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Recur  *RecurArgs
	Goto   *GotoArgs
	Drop   *DropArgs
	Rename *RenameArgs
	View   *ViewArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeRecur:
		return parseRecur(input, args)
	case TypeGoto:
		return parseGoto(input, args)
	case TypeDrop:
		return parseDrop(input, args)
	case TypeRename:
		return parseRename(input, args)
	case TypeView:
		return parseView(input, args)
	case TypeReload:
		return Command{Type: TypeReload, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	var category model.Category
	if len(args) > 0 {
		if c, err := model.ParseCategory(args[0]); err == nil {
			category = c
			args = args[1:]
		}
	}
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return Command{}, invalid("add requires a title")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Category: category, Title: title}}, nil
}

func parseRecur(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, invalid("recur requires a frequency and a title")
	}
	freq := model.Frequency(strings.ToLower(args[0]))
	out := RecurArgs{Frequency: freq}
	switch freq {
	case model.FrequencyDaily:
		out.Title = strings.Join(args[1:], " ")
	case model.FrequencyWeekly:
		if len(args) < 3 {
			return Command{}, invalid("recur weekly requires days and a title")
		}
		days, err := model.ParseWeekdays(args[1])
		if err != nil {
			return Command{}, invalid("%v", err)
		}
		if len(days) == 0 {
			return Command{}, invalid("recur weekly requires at least one day")
		}
		out.Days = days
		out.Title = strings.Join(args[2:], " ")
	default:
		return Command{}, invalid("unknown frequency %q", args[0])
	}
	out.Title = strings.TrimSpace(out.Title)
	return Command{Type: TypeRecur, Raw: raw, Recur: &out}, nil
}

func parseGoto(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("goto requires one date")
	}
	out, err := ParseGoto(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeGoto, Raw: raw, Goto: &out}, nil
}

// ParseGoto reads a day expression: today, tomorrow, yesterday, +N, -N or
// YYYY-MM-DD.
func ParseGoto(arg string) (GotoArgs, error) {
	target := strings.ToLower(strings.TrimSpace(arg))
	var out GotoArgs
	switch {
	case target == "today":
	case target == "tomorrow":
		out.Offset = 1
	case target == "yesterday":
		out.Offset = -1
	case strings.HasPrefix(target, "+") || strings.HasPrefix(target, "-"):
		n, err := strconv.Atoi(target)
		if err != nil {
			return GotoArgs{}, invalid("bad day offset %q", arg)
		}
		out.Offset = n
	default:
		d, err := model.ParseDate(target)
		if err != nil {
			return GotoArgs{}, invalid("bad date %q, expected YYYY-MM-DD", arg)
		}
		out.Date = d
	}
	return out, nil
}

func parseDrop(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("drop requires a position")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return Command{}, invalid("position must be a positive number, got %q", args[0])
	}
	return Command{Type: TypeDrop, Raw: raw, Drop: &DropArgs{Index: n - 1}}, nil
}

func parseRename(raw string, args []string) (Command, error) {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return Command{}, invalid("rename requires a title")
	}
	return Command{Type: TypeRename, Raw: raw, Rename: &RenameArgs{Title: title}}, nil
}

func parseView(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("view requires a name")
	}
	v := View(strings.ToLower(args[0]))
	if !v.IsValid() {
		return Command{}, invalid("unknown view %q", args[0])
	}
	return Command{Type: TypeView, Raw: raw, View: &ViewArgs{View: v}}, nil
}
