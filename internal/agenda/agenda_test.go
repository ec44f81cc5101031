package agenda

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/store"
)

func titles(items []model.AgendaItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ItemTitle())
	}
	return out
}

func TestDailyAgendaScenario(t *testing.T) {
	monday := model.MustParseDate("2024-06-10")
	snap := store.Snapshot{
		UserID: "u1",
		Tasks: []model.Task{
			{ID: "t2", Title: "Email", Category: model.CategoryToday, Date: monday, OrderIndex: 1},
			{ID: "t1", Title: "Write", Category: model.CategoryToday, Date: monday, OrderIndex: 0},
			{ID: "t3", Title: "Tomorrow", Category: model.CategoryToday, Date: monday.AddDays(1)},
			{ID: "t4", Title: "Backlog", Category: model.CategoryTasks, Date: monday},
		},
		RecurringTasks: []model.RecurringTask{
			{ID: "r2", Title: "Gym", Frequency: model.FrequencyWeekly, DaysOfWeek: model.Weekdays{1, 3, 5}, OrderIndex: 1},
			{ID: "r1", Title: "Meds", Frequency: model.FrequencyDaily, OrderIndex: 0},
			{ID: "r3", Title: "Sunday review", Frequency: model.FrequencyWeekly, DaysOfWeek: model.Weekdays{time.Sunday}},
			{ID: "r4", Title: "Broken weekly", Frequency: model.FrequencyWeekly},
		},
		Completions: []model.TaskCompletion{
			{ID: "c1", RecurringTaskID: "r2", Date: monday},
			{ID: "c2", RecurringTaskID: "r1", Date: monday.AddDays(-1)},
		},
	}

	items := Materialize(monday, snap)
	if diff := cmp.Diff([]string{"Meds", "Gym", "Write", "Email"}, titles(items)); diff != "" {
		t.Fatalf("unexpected agenda (-want +got):\n%s", diff)
	}
	meds, ok := items[0].(model.RecurringItem)
	if !ok || meds.Completed || meds.Date != monday {
		t.Fatalf("meds must be an unfinished recurring item for monday: %#v", items[0])
	}
	gym := items[1].(model.RecurringItem)
	if !gym.Completed {
		t.Fatalf("gym is completed for monday in the ledger")
	}
	if _, ok := items[2].(model.RegularItem); !ok {
		t.Fatalf("expected a regular item after recurring ones, got %T", items[2])
	}
}

func TestWeeklyMaterializesOnListedDaysOnly(t *testing.T) {
	snap := store.Snapshot{RecurringTasks: []model.RecurringTask{
		{ID: "r", Title: "Gym", Frequency: model.FrequencyWeekly, DaysOfWeek: model.Weekdays{1, 3, 5}},
	}}
	start := model.MustParseDate("2024-06-09") // Sunday
	got := make([]time.Weekday, 0)
	for i := 0; i < 7; i++ {
		d := start.AddDays(i)
		if len(Materialize(d, snap)) == 1 {
			got = append(got, d.Weekday())
		}
	}
	if diff := cmp.Diff([]time.Weekday{time.Monday, time.Wednesday, time.Friday}, got); diff != "" {
		t.Fatalf("unexpected weekdays (-want +got):\n%s", diff)
	}
}

func TestMaterializeIsPure(t *testing.T) {
	day := model.MustParseDate("2024-06-10")
	snap := store.Snapshot{Tasks: []model.Task{
		{ID: "b", Title: "b", Category: model.CategoryToday, Date: day, OrderIndex: 1},
		{ID: "a", Title: "a", Category: model.CategoryToday, Date: day, OrderIndex: 0},
	}}
	first := Materialize(day, snap)
	second := Materialize(day, snap)
	if diff := cmp.Diff(titles(first), titles(second)); diff != "" {
		t.Fatalf("materialize must be deterministic (-first +second):\n%s", diff)
	}
	if snap.Tasks[0].ID != "b" {
		t.Fatalf("materialize must not reorder the snapshot")
	}
	if len(Materialize(model.Date{}, snap)) != 0 {
		t.Fatalf("zero date must yield an empty agenda")
	}
}

func TestSummarize(t *testing.T) {
	items := []model.AgendaItem{
		model.RecurringItem{Completed: true},
		model.RegularItem{Task: model.Task{Completed: true}},
		model.RegularItem{},
	}
	p := Summarize(items)
	if p.Total != 3 || p.Completed != 2 || p.Percent != 66 {
		t.Fatalf("unexpected progress: %#v", p)
	}
	if empty := Summarize(nil); empty.Percent != 0 || empty.Total != 0 {
		t.Fatalf("unexpected empty progress: %#v", empty)
	}
}

func TestFindAndPreview(t *testing.T) {
	daily := model.RecurringTask{ID: "r1", Frequency: model.FrequencyDaily}
	items := []model.AgendaItem{model.RecurringItem{Template: daily}}
	if _, ok := Find(items, model.RecurringRef("r1")); !ok {
		t.Fatalf("expected to find the recurring item")
	}
	if _, ok := Find(items, model.TaskRef("r1")); ok {
		t.Fatalf("task ref must not match a recurring item")
	}
	dates := Upcoming(daily, model.MustParseDate("2024-06-10"), 2)
	if len(dates) != 2 || dates[1].String() != "2024-06-11" {
		t.Fatalf("unexpected preview: %v", dates)
	}
	if !Scheduled(daily, model.MustParseDate("2024-06-15")) {
		t.Fatalf("daily template is scheduled every day")
	}
}
