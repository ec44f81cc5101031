package cli

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/daytrack/internal/config"
	"github.com/sandeepkv93/daytrack/internal/model"
	"github.com/sandeepkv93/daytrack/internal/scheduler"
	"github.com/sandeepkv93/daytrack/internal/update"
)

type App struct {
	ConfigPath string
	// WorkDir anchors relative paths; empty means the process working directory.
	WorkDir string
	Now     func() time.Time
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{Now: time.Now})
}

func newRootCmd(app *App) *cobra.Command {
	if app.Now == nil {
		app.Now = time.Now
	}
	cmd := &cobra.Command{
		Use:          "daytrack",
		Short:        "Daily agenda of tasks and recurring habits",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  daytrack

  # Scriptable commands
  daytrack add "write report"
  daytrack agenda --date tomorrow
  daytrack recur add weekly --days mon,thu "team sync"
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "config file (default: ./"+config.FileName+" if present)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newAgendaCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newToggleCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newDropCmd(app))
	cmd.AddCommand(newRecurCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	return cmd
}

func (app *App) today() model.Date {
	return model.DateOf(app.Now())
}

func runTUI(cmd *cobra.Command, app *App) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(ctx, cmd, app, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	engine := scheduler.NewEngine(4)
	engine.Start()
	defer engine.Stop()

	if sess.cfg.ReloadInterval > 0 {
		reloader, err := scheduler.NewReloader(sess.cfg.ReloadInterval, sess.cfg.RemoteTimeout, sess.syncer.Load, sess.log)
		if err != nil {
			return err
		}
		reloader.Start(ctx)
		defer reloader.Stop()
	}

	m := update.NewModel(update.Deps{
		Syncer:    sess.syncer,
		Engine:    engine,
		StatePath: sess.cfg.StatePath,
		Now:       app.Now,
		Buffer:    sess.cfg.SubscriberBuffer,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	// A signal cancels ctx, which kills the program; that is a normal exit.
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
