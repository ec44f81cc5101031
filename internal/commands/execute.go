package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add    func(AddArgs) (Result, error)
	Recur  func(RecurArgs) (Result, error)
	Goto   func(GotoArgs) (Result, error)
	Drop   func(DropArgs) (Result, error)
	Rename func(RenameArgs) (Result, error)
	View   func(ViewArgs) (Result, error)
	Reload func() (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing("add")
		}
		return handlers.Add(*cmd.Add)
	case TypeRecur:
		if handlers.Recur == nil {
			return Result{}, missing("recur")
		}
		return handlers.Recur(*cmd.Recur)
	case TypeGoto:
		if handlers.Goto == nil {
			return Result{}, missing("goto")
		}
		return handlers.Goto(*cmd.Goto)
	case TypeDrop:
		if handlers.Drop == nil {
			return Result{}, missing("drop")
		}
		return handlers.Drop(*cmd.Drop)
	case TypeRename:
		if handlers.Rename == nil {
			return Result{}, missing("rename")
		}
		return handlers.Rename(*cmd.Rename)
	case TypeView:
		if handlers.View == nil {
			return Result{}, missing("view")
		}
		return handlers.View(*cmd.View)
	case TypeReload:
		if handlers.Reload == nil {
			return Result{}, missing("reload")
		}
		return handlers.Reload()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
