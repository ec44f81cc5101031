package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/daytrack/internal/agenda"
	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/ordering"
	"github.com/sandeepkv93/daytrack/internal/reconcile"
)

func newRecurCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recur",
		Short: "Manage recurring tasks",
	}
	cmd.AddCommand(newRecurAddCmd(app))
	cmd.AddCommand(newRecurListCmd(app))
	cmd.AddCommand(newRecurRemoveCmd(app))
	cmd.AddCommand(newRecurMoveCmd(app))
	cmd.AddCommand(newRecurPreviewCmd(app))
	return cmd
}

func newRecurAddCmd(app *App) *cobra.Command {
	var days string
	cmd := &cobra.Command{
		Use:   "add daily|weekly <title>",
		Short: "Add a recurring task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := reconcile.RecurringDraft{
				Frequency: model.Frequency(strings.ToLower(args[0])),
				Title:     strings.Join(args[1:], " "),
			}
			if days != "" {
				parsed, err := model.ParseWeekdays(days)
				if err != nil {
					return err
				}
				draft.DaysOfWeek = parsed
			}
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				r, err := sess.syncer.AddRecurringTask(ctx, draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s: %s (%s)\n", shortID(r.ID), r.Title, schedule(r))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&days, "days", "", "weekdays of a weekly task: mon,thu or 1,4 (0 is Sunday)")
	return cmd
}

func newRecurListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring tasks in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				return listRecurring(cmd, sess)
			})
		},
	}
}

func newRecurRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a recurring task and its completion history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				r, err := resolveRecurring(sess.syncer.Store().Snapshot(), args[0])
				if err != nil {
					return err
				}
				if err := sess.syncer.DeleteRecurringTask(ctx, r.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted: %s\n", r.Title)
				return nil
			})
		},
	}
}

func newRecurMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> up|down|<position>",
		Short: "Reorder a recurring task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				r, err := resolveRecurring(sess.syncer.Store().Snapshot(), args[0])
				if err != nil {
					return err
				}
				if dir, derr := parseDirection(args[1]); derr == nil {
					err = sess.syncer.MoveRecurringTask(ctx, r.ID, dir)
				} else {
					pos, perr := parsePosition(args[1])
					if perr != nil {
						return fmt.Errorf("expected up, down or a position, got %q", args[1])
					}
					err = sess.syncer.DropRecurringTask(ctx, r.ID, pos)
				}
				if err != nil {
					return err
				}
				return listRecurring(cmd, sess)
			})
		},
	}
}

func newRecurPreviewCmd(app *App) *cobra.Command {
	var (
		from  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Show the next days a recurring task is scheduled on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := app.parseDay(from)
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			return app.withSession(cmd, func(ctx context.Context, sess *session) error {
				r, err := resolveRecurring(sess.syncer.Store().Snapshot(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", r.Title, schedule(r))
				for _, d := range agenda.Upcoming(r, start, count) {
					fmt.Fprintf(out, "  %s %s\n", d, d.Weekday())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day to consider (default: today)")
	cmd.Flags().IntVarP(&count, "count", "n", 7, "number of days to show")
	return cmd
}

func listRecurring(cmd *cobra.Command, sess *session) error {
	templates := append([]model.RecurringTask(nil), sess.syncer.Store().Snapshot().RecurringTasks...)
	ordering.SortRecurring(templates)
	writeRecurring(cmd.OutOrStdout(), templates)
	return nil
}
