package model

// AgendaItem is one entry of a materialized day. It is either a RegularItem
// or a RecurringItem; callers type-switch on the concrete value.
type AgendaItem interface {
	ItemID() string
	ItemTitle() string
	Done() bool
	Ref() Ref
	agendaItem()
}

type RegularItem struct {
	Task Task
}

func (i RegularItem) ItemID() string    { return i.Task.ID }
func (i RegularItem) ItemTitle() string { return i.Task.Title }
func (i RegularItem) Done() bool        { return i.Task.Completed }
func (i RegularItem) Ref() Ref          { return TaskRef(i.Task.ID) }
func (RegularItem) agendaItem()         {}

// RecurringItem is a template projected onto Date with its completion looked
// up from the ledger.
type RecurringItem struct {
	Template  RecurringTask
	Date      Date
	Completed bool
}

func (i RecurringItem) ItemID() string    { return i.Template.ID }
func (i RecurringItem) ItemTitle() string { return i.Template.Title }
func (i RecurringItem) Done() bool        { return i.Completed }
func (i RecurringItem) Ref() Ref          { return RecurringRef(i.Template.ID) }
func (RecurringItem) agendaItem()         {}
