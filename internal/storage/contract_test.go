package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sandeepkv93/daytrack/internal/model"
)

// runRepositoryContract exercises the behaviour every backend must share.
// newRepo must return an empty, migrated repository.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("TaskCRUDAndList", func(t *testing.T) {
		repo := newRepo(t)
		ctx := t.Context()
		day := model.MustParseDate("2024-06-10")

		created, err := repo.CreateTask(ctx, model.Task{
			ID: "task-1", UserID: "u1", Title: "Write schema",
			Category: model.CategoryToday, Date: day, OrderIndex: 1,
		})
		if err != nil {
			t.Fatalf("create task: %v", err)
		}
		if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
			t.Fatalf("expected server timestamps, got %#v", created)
		}
		if _, err := repo.CreateTask(ctx, model.Task{
			ID: "task-2", UserID: "u1", Title: "Review", Category: model.CategoryToday, Date: day,
		}); err != nil {
			t.Fatalf("create second task: %v", err)
		}
		if _, err := repo.CreateTask(ctx, model.Task{
			ID: "task-other", UserID: "u2", Title: "Not mine", Category: model.CategoryToday, Date: day,
		}); err != nil {
			t.Fatalf("create other user task: %v", err)
		}

		list, err := repo.ListTasks(ctx, "u1", TaskListFilter{Category: model.CategoryToday, Date: day})
		if err != nil {
			t.Fatalf("list tasks: %v", err)
		}
		if diff := cmp.Diff([]string{"task-2", "task-1"}, taskIDs(list)); diff != "" {
			t.Fatalf("unexpected list order (-want +got):\n%s", diff)
		}

		created.Title = "Write schema v2"
		created.Category = model.CategoryTasks
		created.Date = model.Date{}
		updated, err := repo.UpdateTask(ctx, created)
		if err != nil {
			t.Fatalf("update task: %v", err)
		}
		if updated.Title != "Write schema v2" || updated.Category != model.CategoryTasks || !updated.Date.IsZero() {
			t.Fatalf("unexpected updated task: %#v", updated)
		}

		foreign := updated
		foreign.UserID = "u2"
		if _, err := repo.UpdateTask(ctx, foreign); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
		}
		if err := repo.DeleteTask(ctx, "u2", "task-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
		}
		if err := repo.DeleteTask(ctx, "u1", "task-1"); err != nil {
			t.Fatalf("delete task: %v", err)
		}
		if err := repo.DeleteTask(ctx, "u1", "task-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("ReorderIsAllOrNothing", func(t *testing.T) {
		repo := newRepo(t)
		ctx := t.Context()
		for i, id := range []string{"a", "b", "c"} {
			if _, err := repo.CreateTask(ctx, model.Task{ID: id, UserID: "u1", Title: id, Category: model.CategoryIdeas, OrderIndex: i}); err != nil {
				t.Fatalf("create %s: %v", id, err)
			}
		}
		rows, err := repo.ReorderTasks(ctx, "u1", []OrderChange{{ID: "a", OrderIndex: 2}, {ID: "c", OrderIndex: 0}})
		if err != nil {
			t.Fatalf("reorder: %v", err)
		}
		if len(rows) != 2 || rows[0].OrderIndex != 2 || rows[1].OrderIndex != 0 {
			t.Fatalf("unexpected reorder rows: %#v", rows)
		}
		_, err = repo.ReorderTasks(ctx, "u1", []OrderChange{{ID: "b", OrderIndex: 9}, {ID: "missing", OrderIndex: 0}})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		list, err := repo.ListTasks(ctx, "u1", TaskListFilter{Category: model.CategoryIdeas})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if diff := cmp.Diff([]string{"c", "b", "a"}, taskIDs(list)); diff != "" {
			t.Fatalf("failed reorder must not leak (-want +got):\n%s", diff)
		}
	})

	t.Run("RecurringTaskCRUD", func(t *testing.T) {
		repo := newRepo(t)
		ctx := t.Context()
		weekly, err := repo.CreateRecurringTask(ctx, model.RecurringTask{
			ID: "rec-1", UserID: "u1", Title: "Gym",
			Frequency: model.FrequencyWeekly, DaysOfWeek: model.Weekdays{time.Friday, time.Monday, time.Monday},
		})
		if err != nil {
			t.Fatalf("create recurring: %v", err)
		}
		if diff := cmp.Diff(model.Weekdays{time.Monday, time.Friday}, weekly.DaysOfWeek); diff != "" {
			t.Fatalf("unexpected weekdays (-want +got):\n%s", diff)
		}
		daily, err := repo.CreateRecurringTask(ctx, model.RecurringTask{
			ID: "rec-2", UserID: "u1", Title: "Meds", Frequency: model.FrequencyDaily,
			DaysOfWeek: model.Weekdays{time.Sunday}, OrderIndex: 1,
		})
		if err != nil {
			t.Fatalf("create daily: %v", err)
		}
		if len(daily.DaysOfWeek) != 0 {
			t.Fatalf("daily template must not keep weekdays: %v", daily.DaysOfWeek)
		}

		weekly.Title = "Gym (evening)"
		weekly.DaysOfWeek = model.Weekdays{time.Tuesday}
		weekly, err = repo.UpdateRecurringTask(ctx, weekly)
		if err != nil {
			t.Fatalf("update recurring: %v", err)
		}
		if weekly.Title != "Gym (evening)" || weekly.DaysOfWeek.String() != "tue" {
			t.Fatalf("unexpected updated template: %#v", weekly)
		}

		list, err := repo.ListRecurringTasks(ctx, "u1")
		if err != nil {
			t.Fatalf("list recurring: %v", err)
		}
		if len(list) != 2 || list[0].ID != "rec-1" || list[1].ID != "rec-2" {
			t.Fatalf("unexpected recurring list: %#v", list)
		}
		moved, err := repo.ReorderRecurringTasks(ctx, "u1", []OrderChange{{ID: "rec-1", OrderIndex: 1}, {ID: "rec-2", OrderIndex: 0}})
		if err != nil || len(moved) != 2 {
			t.Fatalf("reorder recurring: %v %#v", err, moved)
		}
		if other, _ := repo.ListRecurringTasks(ctx, "u2"); len(other) != 0 {
			t.Fatalf("templates leaked across users: %#v", other)
		}
	})

	t.Run("CompletionExclusivityAndUniqueness", func(t *testing.T) {
		repo := newRepo(t)
		ctx := t.Context()
		seedTaskAndTemplate(t, repo)
		day := model.MustParseDate("2024-06-10")

		entry, err := repo.CreateCompletion(ctx, model.TaskCompletion{ID: "c1", UserID: "u1", RecurringTaskID: "rec-1", Date: day})
		if err != nil {
			t.Fatalf("create completion: %v", err)
		}
		if entry.Ref() != model.RecurringRef("rec-1") || entry.TaskID != "" {
			t.Fatalf("unexpected completion: %#v", entry)
		}
		_, err = repo.CreateCompletion(ctx, model.TaskCompletion{UserID: "u1", RecurringTaskID: "rec-1", Date: day})
		if !errors.Is(err, ErrDuplicateCompletion) {
			t.Fatalf("expected ErrDuplicateCompletion, got %v", err)
		}
		if _, err := repo.CreateCompletion(ctx, model.TaskCompletion{UserID: "u1", RecurringTaskID: "rec-1", Date: day.AddDays(2)}); err != nil {
			t.Fatalf("another date must be accepted: %v", err)
		}
		_, err = repo.CreateCompletion(ctx, model.TaskCompletion{UserID: "u1", TaskID: "task-1", RecurringTaskID: "rec-1", Date: day})
		if !errors.Is(err, model.ErrInvalidReference) {
			t.Fatalf("expected ErrInvalidReference, got %v", err)
		}
		_, err = repo.CreateCompletion(ctx, model.TaskCompletion{UserID: "u2", RecurringTaskID: "rec-1", Date: day})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for foreign ref, got %v", err)
		}

		list, err := repo.ListCompletions(ctx, "u1", CompletionListFilter{RecurringTaskID: "rec-1"})
		if err != nil {
			t.Fatalf("list completions: %v", err)
		}
		if len(list) != 2 || list[0].Date.String() != "2024-06-12" {
			t.Fatalf("expected date-descending completions, got %#v", list)
		}

		removed, err := repo.DeleteCompletion(ctx, "u1", model.RecurringRef("rec-1"), day)
		if err != nil || !removed {
			t.Fatalf("delete completion: %v removed=%v", err, removed)
		}
		removed, err = repo.DeleteCompletion(ctx, "u1", model.RecurringRef("rec-1"), day)
		if err != nil || removed {
			t.Fatalf("second delete must report false: %v removed=%v", err, removed)
		}
	})

	t.Run("DeleteRecurringCascades", func(t *testing.T) {
		repo := newRepo(t)
		ctx := t.Context()
		seedTaskAndTemplate(t, repo)
		day := model.MustParseDate("2024-06-10")
		for i := 0; i < 3; i++ {
			if _, err := repo.CreateCompletion(ctx, model.TaskCompletion{UserID: "u1", RecurringTaskID: "rec-1", Date: day.AddDays(i)}); err != nil {
				t.Fatalf("create completion %d: %v", i, err)
			}
		}
		if _, err := repo.CreateCompletion(ctx, model.TaskCompletion{UserID: "u1", TaskID: "task-1", Date: day}); err != nil {
			t.Fatalf("create task completion: %v", err)
		}
		if err := repo.DeleteRecurringTask(ctx, "u1", "rec-1"); err != nil {
			t.Fatalf("delete recurring: %v", err)
		}
		list, err := repo.ListCompletions(ctx, "u1", CompletionListFilter{})
		if err != nil {
			t.Fatalf("list completions: %v", err)
		}
		if len(list) != 1 || list[0].TaskID != "task-1" {
			t.Fatalf("expected only the task completion to survive, got %#v", list)
		}
		if err := repo.DeleteRecurringTask(ctx, "u1", "rec-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SetTaskCompletionDualWrite", func(t *testing.T) {
		repo := newRepo(t)
		ctx := t.Context()
		seedTaskAndTemplate(t, repo)
		day := model.MustParseDate("2024-06-10")

		task, entry, err := repo.SetTaskCompletion(ctx, TaskCompletionChange{UserID: "u1", TaskID: "task-1", Date: day, Completed: true, CompletionID: "c-task"})
		if err != nil {
			t.Fatalf("mark task: %v", err)
		}
		if !task.Completed || entry.ID != "c-task" || entry.TaskID != "task-1" {
			t.Fatalf("unexpected dual write result: %#v %#v", task, entry)
		}
		again, entry, err := repo.SetTaskCompletion(ctx, TaskCompletionChange{UserID: "u1", TaskID: "task-1", Date: day, Completed: true})
		if err != nil || !again.Completed || entry.ID != "c-task" {
			t.Fatalf("re-marking must keep the existing entry: %v %#v", err, entry)
		}

		task, entry, err = repo.SetTaskCompletion(ctx, TaskCompletionChange{UserID: "u1", TaskID: "task-1", Date: day, Completed: false})
		if err != nil {
			t.Fatalf("unmark task: %v", err)
		}
		if task.Completed || entry.ID != "" {
			t.Fatalf("unexpected unmark result: %#v %#v", task, entry)
		}
		list, err := repo.ListCompletions(ctx, "u1", CompletionListFilter{TaskID: "task-1"})
		if err != nil || len(list) != 0 {
			t.Fatalf("expected no ledger rows after unmark: %v %#v", err, list)
		}

		_, _, err = repo.SetTaskCompletion(ctx, TaskCompletionChange{UserID: "u1", TaskID: "missing", Date: day, Completed: true})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		list, _ = repo.ListCompletions(ctx, "u1", CompletionListFilter{})
		if len(list) != 0 {
			t.Fatalf("failed dual write must not leave ledger rows: %#v", list)
		}
	})

	t.Run("TaskCompletionFollowsTaskRow", func(t *testing.T) {
		repo := newRepo(t)
		ctx := t.Context()
		seedTaskAndTemplate(t, repo)
		monday := model.MustParseDate("2024-06-10")
		tuesday := model.MustParseDate("2024-06-11")

		ledgerDates := func() []string {
			t.Helper()
			list, err := repo.ListCompletions(ctx, "u1", CompletionListFilter{TaskID: "task-1"})
			if err != nil {
				t.Fatalf("list completions: %v", err)
			}
			out := make([]string, 0, len(list))
			for _, c := range list {
				out = append(out, c.Date.String())
			}
			return out
		}

		if _, _, err := repo.SetTaskCompletion(ctx, TaskCompletionChange{UserID: "u1", TaskID: "task-1", Date: monday, Completed: true, CompletionID: "c-1"}); err != nil {
			t.Fatalf("mark task: %v", err)
		}
		if _, _, err := repo.SetTaskCompletion(ctx, TaskCompletionChange{UserID: "u1", TaskID: "task-1", Date: tuesday, Completed: false}); err != nil {
			t.Fatalf("unmark on another day: %v", err)
		}
		if got := ledgerDates(); len(got) != 0 {
			t.Fatalf("unmark must clear every ledger row of the task, got %v", got)
		}

		task, _, err := repo.SetTaskCompletion(ctx, TaskCompletionChange{UserID: "u1", TaskID: "task-1", Date: monday, Completed: true, CompletionID: "c-2"})
		if err != nil {
			t.Fatalf("re-mark task: %v", err)
		}
		task.Date = tuesday
		if _, err := repo.UpdateTask(ctx, task); err != nil {
			t.Fatalf("move task: %v", err)
		}
		if diff := cmp.Diff([]string{"2024-06-11"}, ledgerDates()); diff != "" {
			t.Fatalf("ledger row must follow the task date (-want +got):\n%s", diff)
		}
		list, _ := repo.ListCompletions(ctx, "u1", CompletionListFilter{TaskID: "task-1"})
		if list[0].ID != "c-2" {
			t.Fatalf("moved row should keep its id, got %#v", list[0])
		}

		_, entry, err := repo.SetTaskCompletion(ctx, TaskCompletionChange{UserID: "u1", TaskID: "task-1", Date: monday, Completed: true})
		if err != nil {
			t.Fatalf("mark on a different day: %v", err)
		}
		if entry.ID != "c-2" || entry.Date != monday {
			t.Fatalf("marking should move the single row, got %#v", entry)
		}
		if diff := cmp.Diff([]string{"2024-06-10"}, ledgerDates()); diff != "" {
			t.Fatalf("expected one row (-want +got):\n%s", diff)
		}
	})

	t.Run("DeleteTaskCascades", func(t *testing.T) {
		repo := newRepo(t)
		ctx := t.Context()
		seedTaskAndTemplate(t, repo)
		day := model.MustParseDate("2024-06-10")
		if _, _, err := repo.SetTaskCompletion(ctx, TaskCompletionChange{UserID: "u1", TaskID: "task-1", Date: day, Completed: true}); err != nil {
			t.Fatalf("mark task: %v", err)
		}
		if err := repo.DeleteTask(ctx, "u1", "task-1"); err != nil {
			t.Fatalf("delete task: %v", err)
		}
		list, _ := repo.ListCompletions(ctx, "u1", CompletionListFilter{})
		if len(list) != 0 {
			t.Fatalf("expected cascade, got %#v", list)
		}
	})
}

func taskIDs(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}
