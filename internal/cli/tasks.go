package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/daytrack/internal/agenda"
	"github.com/sandeepkv93/daytrack/internal/commands"
	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/ordering"
	"github.com/sandeepkv93/daytrack/internal/reconcile"
)

func newAgendaCmd(app *App) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show the agenda of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := app.parseDay(day)
			if err != nil {
				return err
			}
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				items := agenda.Materialize(date, sess.syncer.Store().Snapshot())
				writeAgenda(cmd.OutOrStdout(), date, items)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&day, "date", "", "day to show: today, tomorrow, yesterday, +N, -N or YYYY-MM-DD")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var (
		category string
		day      string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := model.ParseCategory(category)
			if err != nil {
				return err
			}
			draft := reconcile.TaskDraft{Title: strings.Join(args, " "), Category: c}
			if c == model.CategoryToday {
				if draft.Date, err = app.parseDay(day); err != nil {
					return err
				}
			}
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				task, err := sess.syncer.AddTask(ctx, draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s: %s\n", shortID(task.ID), task.Scope(), task.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", string(model.CategoryToday), "today, tasks or ideas")
	cmd.Flags().StringVar(&day, "date", "", "day of a today task (default: today)")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "list [today|tasks|ideas]",
		Short: "List the tasks of a category in order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := model.CategoryToday
			if len(args) == 1 {
				c, err := model.ParseCategory(args[0])
				if err != nil {
					return err
				}
				category = c
			}
			var date model.Date
			if category == model.CategoryToday {
				var err error
				if date, err = app.parseDay(day); err != nil {
					return err
				}
			}
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				scope := model.ScopeOf(category, date)
				tasks := sess.syncer.Store().Snapshot().TasksIn(scope)
				ordering.SortTasks(tasks)
				writeTasks(cmd.OutOrStdout(), scope, tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&day, "date", "", "day of the today list (default: today)")
	return cmd
}

func newToggleCmd(app *App) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the completion of a task or of a recurring task on a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := app.parseDay(day)
			if err != nil {
				return err
			}
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				snap := sess.syncer.Store().Snapshot()
				if task, err := resolveTask(snap, args[0]); err == nil {
					updated, err := sess.syncer.ToggleTask(ctx, task.ID, date)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", checkbox(updated.Completed), updated.Title)
					return nil
				}
				template, err := resolveRecurring(snap, args[0])
				if err != nil {
					return err
				}
				if !agenda.Scheduled(template, date) {
					return fmt.Errorf("%q is not scheduled on %s", template.Title, date)
				}
				item, ok := agenda.Find(agenda.Materialize(date, snap), model.RecurringRef(template.ID))
				if !ok {
					return fmt.Errorf("%q is missing from the %s agenda", template.Title, date)
				}
				if err := sess.syncer.Toggle(ctx, item); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s\n", checkbox(!item.Done()), template.Title, date)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&day, "date", "", "day of the completion (default: today)")
	return cmd
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task and its completions",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				task, err := resolveTask(sess.syncer.Store().Snapshot(), args[0])
				if err != nil {
					return err
				}
				if err := sess.syncer.DeleteTask(ctx, task.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted: %s\n", task.Title)
				return nil
			})
		},
	}
}

func newMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> up|down",
		Short: "Swap a task with its neighbour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := parseDirection(args[1])
			if err != nil {
				return err
			}
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				task, err := resolveTask(sess.syncer.Store().Snapshot(), args[0])
				if err != nil {
					return err
				}
				if err := sess.syncer.MoveTask(ctx, task.ID, dir); err != nil {
					return err
				}
				return listScope(cmd, sess, task.Scope())
			})
		},
	}
}

func newDropCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <id> <position>",
		Short: "Move a task to a 1-based position in its list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				task, err := resolveTask(sess.syncer.Store().Snapshot(), args[0])
				if err != nil {
					return err
				}
				if err := sess.syncer.DropTask(ctx, task.ID, pos); err != nil {
					return err
				}
				return listScope(cmd, sess, task.Scope())
			})
		},
	}
}

func listScope(cmd *cobra.Command, sess *session, scope model.Scope) error {
	tasks := sess.syncer.Store().Snapshot().TasksIn(scope)
	ordering.SortTasks(tasks)
	writeTasks(cmd.OutOrStdout(), scope, tasks)
	return nil
}

func (app *App) withSession(cmd *cobra.Command, fn func(ctx context.Context, sess *session) error) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, cmd, app, true)
	if err != nil {
		return err
	}
	defer sess.Close()
	return fn(ctx, sess)
}

func (app *App) parseDay(s string) (model.Date, error) {
	if strings.TrimSpace(s) == "" {
		return app.today(), nil
	}
	g, err := commands.ParseGoto(s)
	if err != nil {
		return model.Date{}, err
	}
	return g.Resolve(app.today()), nil
}

func parseDirection(s string) (ordering.Direction, error) {
	switch strings.ToLower(s) {
	case "up":
		return ordering.Up, nil
	case "down":
		return ordering.Down, nil
	default:
		return 0, fmt.Errorf("direction must be up or down, got %q", s)
	}
}

// parsePosition turns a 1-based position into an index.
func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("position must be a positive number, got %q", s)
	}
	return n - 1, nil
}
