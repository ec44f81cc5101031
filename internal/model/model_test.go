package model

import (
	"errors"
	"testing"
	"time"
)

func TestDateWeekdayIgnoresZone(t *testing.T) {
	loc := time.FixedZone("east", 14*3600)
	// 2024-06-10 23:30 UTC is already 2024-06-11 in UTC+14.
	instant := time.Date(2024, 6, 10, 23, 30, 0, 0, time.UTC)
	d := DateOf(instant.In(loc))
	if d.String() != "2024-06-11" {
		t.Fatalf("unexpected local date: %s", d)
	}
	if d.Weekday() != time.Tuesday {
		t.Fatalf("expected tuesday, got %s", d.Weekday())
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("parse date failed: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.February || d.Day() != 29 {
		t.Fatalf("unexpected date fields: %v", d)
	}
	if next := d.AddDays(1); next.String() != "2024-03-01" {
		t.Fatalf("unexpected next day: %s", next)
	}
	if _, err := ParseDate("2024-13-01"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	empty, err := ParseDate("  ")
	if err != nil || !empty.IsZero() {
		t.Fatalf("expected zero date for blank input, got %v %v", empty, err)
	}
}

func TestDateScanValue(t *testing.T) {
	var d Date
	if err := d.Scan([]byte("2024-06-10")); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	v, err := d.Value()
	if err != nil || v != "2024-06-10" {
		t.Fatalf("unexpected value %v %v", v, err)
	}
	if err := d.Scan(nil); err != nil || !d.IsZero() {
		t.Fatalf("expected zero date after nil scan")
	}
	v, _ = d.Value()
	if v != nil {
		t.Fatalf("expected nil value for zero date, got %v", v)
	}
	if err := d.Scan(42); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for int, got %v", err)
	}
}

func TestTaskValidate(t *testing.T) {
	valid := Task{Title: "write", Category: CategoryToday, Date: MustParseDate("2024-06-10")}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid task, got %v", err)
	}
	noDate := Task{Title: "write", Category: CategoryToday}
	if err := noDate.Validate(); !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask for missing date, got %v", err)
	}
	blank := Task{Title: "  ", Category: CategoryIdeas}
	if err := blank.Validate(); !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask for blank title, got %v", err)
	}
	badCategory := Task{Title: "x", Category: "someday"}
	if err := badCategory.Validate(); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	backlog := Task{Title: "x", Category: CategoryTasks}
	if err := backlog.Validate(); err != nil {
		t.Fatalf("backlog tasks need no date: %v", err)
	}
}

func TestScopeIgnoresDateOutsideToday(t *testing.T) {
	a := Task{Category: CategoryIdeas, Date: MustParseDate("2024-06-10")}
	b := Task{Category: CategoryIdeas}
	if a.Scope() != b.Scope() {
		t.Fatalf("ideas scope must not depend on date: %v vs %v", a.Scope(), b.Scope())
	}
	c := Task{Category: CategoryToday, Date: MustParseDate("2024-06-10")}
	d := Task{Category: CategoryToday, Date: MustParseDate("2024-06-11")}
	if c.Scope() == d.Scope() {
		t.Fatalf("today scopes must differ per date")
	}
	if c.Scope().String() != "today/2024-06-10" {
		t.Fatalf("unexpected scope string %q", c.Scope().String())
	}
}

func TestRecurringScheduledOn(t *testing.T) {
	monday := MustParseDate("2024-06-10")
	weekly := RecurringTask{Title: "gym", Frequency: FrequencyWeekly, DaysOfWeek: Weekdays{time.Monday, time.Wednesday}}
	if !weekly.ScheduledOn(monday) {
		t.Fatalf("expected weekly template on monday")
	}
	if weekly.ScheduledOn(monday.AddDays(1)) {
		t.Fatalf("weekly template must not appear on tuesday")
	}
	empty := RecurringTask{Title: "never", Frequency: FrequencyWeekly}
	if empty.ScheduledOn(monday) {
		t.Fatalf("weekly template with no days must never appear")
	}
	daily := RecurringTask{Title: "meds", Frequency: FrequencyDaily}
	if !daily.ScheduledOn(monday) || !daily.ScheduledOn(monday.AddDays(3)) {
		t.Fatalf("daily template must appear every day")
	}
}

func TestRecurringValidate(t *testing.T) {
	if err := (RecurringTask{Title: "x", Frequency: FrequencyWeekly}).Validate(); !errors.Is(err, ErrInvalidRecurringTask) {
		t.Fatalf("expected ErrInvalidRecurringTask for empty weekly, got %v", err)
	}
	if err := (RecurringTask{Title: "x", Frequency: "monthly"}).Validate(); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
	bad := RecurringTask{Title: "x", Frequency: FrequencyWeekly, DaysOfWeek: Weekdays{9}}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidWeekday) {
		t.Fatalf("expected ErrInvalidWeekday, got %v", err)
	}
	daily := RecurringTask{Title: "x", Frequency: FrequencyDaily, DaysOfWeek: Weekdays{1}}.Normalize()
	if daily.DaysOfWeek != nil {
		t.Fatalf("daily normalize must drop weekdays: %v", daily.DaysOfWeek)
	}
}

func TestRecurringUpcoming(t *testing.T) {
	weekly := RecurringTask{Frequency: FrequencyWeekly, DaysOfWeek: Weekdays{time.Friday, time.Monday}}
	got := weekly.Upcoming(MustParseDate("2024-06-10"), 3)
	want := []string{"2024-06-10", "2024-06-14", "2024-06-17"}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Fatalf("upcoming[%d] got %s want %s", i, got[i], want[i])
		}
	}
	if n := len((RecurringTask{Frequency: FrequencyWeekly}).Upcoming(MustParseDate("2024-06-10"), 5)); n != 0 {
		t.Fatalf("expected no dates for empty weekly, got %d", n)
	}
}

func TestWeekdaysRoundTrip(t *testing.T) {
	days, err := ParseWeekdays("fri, mon,1")
	if err != nil {
		t.Fatalf("parse weekdays failed: %v", err)
	}
	if days.String() != "mon,fri" {
		t.Fatalf("unexpected normalized weekdays %q", days.String())
	}
	v, err := days.Value()
	if err != nil || v != "[1,5]" {
		t.Fatalf("unexpected stored value %v %v", v, err)
	}
	var back Weekdays
	if err := back.Scan("[5,1,5]"); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if back.String() != "mon,fri" {
		t.Fatalf("unexpected scanned weekdays %q", back.String())
	}
	if _, err := ParseWeekdays("funday"); !errors.Is(err, ErrInvalidWeekday) {
		t.Fatalf("expected ErrInvalidWeekday, got %v", err)
	}
}

func TestRefValidate(t *testing.T) {
	if err := TaskRef("a").Validate(); err != nil {
		t.Fatalf("task ref should be valid: %v", err)
	}
	if err := RecurringRef("b").Validate(); err != nil {
		t.Fatalf("recurring ref should be valid: %v", err)
	}
	if err := (Ref{TaskID: "a", RecurringTaskID: "b"}).Validate(); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for both, got %v", err)
	}
	if err := (Ref{}).Validate(); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for none, got %v", err)
	}
	if err := (Ref{TaskID: "a", RecurringTaskID: " "}).Validate(); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("a whitespace recurring id still counts as set, got %v", err)
	}
	if err := TaskRef("  ").Validate(); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for blank id, got %v", err)
	}
	if TaskRef("a").Key() == RecurringRef("a").Key() {
		t.Fatalf("ref keys must be distinct across kinds")
	}
}

func TestAgendaItems(t *testing.T) {
	items := []AgendaItem{
		RecurringItem{Template: RecurringTask{ID: "r1", Title: "meds"}, Completed: true},
		RegularItem{Task: Task{ID: "t1", Title: "write"}},
	}
	if !items[0].Done() || items[0].Ref() != RecurringRef("r1") {
		t.Fatalf("unexpected recurring item: %+v", items[0])
	}
	if items[1].Done() || items[1].Ref() != TaskRef("t1") || items[1].ItemTitle() != "write" {
		t.Fatalf("unexpected regular item: %+v", items[1])
	}
}
