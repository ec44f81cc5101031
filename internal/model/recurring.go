package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrInvalidRecurringTask = errors.New("model: invalid recurring task")
	ErrInvalidFrequency     = errors.New("model: invalid recurrence frequency")
	ErrInvalidWeekday       = errors.New("model: invalid weekday")
)

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly:
		return true
	default:
		return false
	}
}

// Weekdays is a set of weekday numbers, 0=Sunday..6=Saturday. It is stored as
// a JSON array.
type Weekdays []time.Weekday

func (w Weekdays) Contains(day time.Weekday) bool {
	return slices.Contains(w, day)
}

// Normalized returns the set sorted with duplicates removed.
func (w Weekdays) Normalized() Weekdays {
	if len(w) == 0 {
		return nil
	}
	out := slices.Clone(w)
	slices.Sort(out)
	return slices.Compact(out)
}

func (w Weekdays) Validate() error {
	for _, d := range w {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, d)
		}
	}
	return nil
}

func (w Weekdays) String() string {
	names := make([]string, 0, len(w))
	for _, d := range w.Normalized() {
		names = append(names, strings.ToLower(d.String()[:3]))
	}
	return strings.Join(names, ",")
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekdays accepts "mon,wed,fri" or numeric "1,3,5" lists.
func ParseWeekdays(s string) (Weekdays, error) {
	var out Weekdays
	for _, part := range strings.Split(s, ",") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		if d, ok := weekdayNames[p]; ok {
			out = append(out, d)
			continue
		}
		if len(p) == 1 && p[0] >= '0' && p[0] <= '6' {
			out = append(out, time.Weekday(p[0]-'0'))
			continue
		}
		return nil, fmt.Errorf("%w: %q", ErrInvalidWeekday, part)
	}
	return out.Normalized(), nil
}

func (w Weekdays) Value() (driver.Value, error) {
	ints := make([]int, 0, len(w))
	for _, d := range w.Normalized() {
		ints = append(ints, int(d))
	}
	b, err := json.Marshal(ints)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (w *Weekdays) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidWeekday, src)
	}
	if strings.TrimSpace(string(raw)) == "" {
		*w = nil
		return nil
	}
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWeekday, err)
	}
	out := make(Weekdays, 0, len(ints))
	for _, i := range ints {
		out = append(out, time.Weekday(i))
	}
	*w = out.Normalized()
	return nil
}

type RecurringTask struct {
	ID         string
	UserID     string
	Title      string
	Frequency  Frequency
	DaysOfWeek Weekdays
	OrderIndex int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Normalize drops the weekday set of daily templates and sorts it otherwise.
func (r RecurringTask) Normalize() RecurringTask {
	if r.Frequency == FrequencyDaily {
		r.DaysOfWeek = nil
		return r
	}
	r.DaysOfWeek = r.DaysOfWeek.Normalized()
	return r
}

// Validate is the creation-time check: weekly templates need at least one day.
func (r RecurringTask) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRecurringTask)
	}
	if !r.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Frequency)
	}
	if r.Frequency == FrequencyWeekly {
		if len(r.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: weekly schedule needs at least one weekday", ErrInvalidRecurringTask)
		}
		if err := r.DaysOfWeek.Validate(); err != nil {
			return err
		}
	}
	if r.OrderIndex < 0 {
		return fmt.Errorf("%w: negative order_index %d", ErrInvalidRecurringTask, r.OrderIndex)
	}
	return nil
}

// ScheduledOn reports whether the template produces an instance on d. A weekly
// template with no days is never scheduled.
func (r RecurringTask) ScheduledOn(d Date) bool {
	if d.IsZero() {
		return false
	}
	switch r.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return r.DaysOfWeek.Contains(d.Weekday())
	default:
		return false
	}
}

// Upcoming lists the next count dates on or after from that the template is
// scheduled on.
func (r RecurringTask) Upcoming(from Date, count int) []Date {
	if count <= 0 || from.IsZero() {
		return []Date{}
	}
	if r.Frequency == FrequencyWeekly && len(r.DaysOfWeek) == 0 {
		return []Date{}
	}
	if !r.Frequency.IsValid() {
		return []Date{}
	}
	out := make([]Date, 0, count)
	for probe := from; len(out) < count; probe = probe.AddDays(1) {
		if r.ScheduledOn(probe) {
			out = append(out, probe)
		}
	}
	return out
}
