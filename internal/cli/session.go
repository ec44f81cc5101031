package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/daytrack/internal/config"
	"github.com/sandeepkv93/daytrack/internal/reconcile"
	"github.com/sandeepkv93/daytrack/internal/storage"
	"github.com/sandeepkv93/daytrack/internal/store"
)

type session struct {
	cfg    config.RuntimeConfig
	repo   storage.Repository
	syncer *reconcile.Syncer
	log    *log.Logger

	logFile *os.File
}

func loadConfig(cmd *cobra.Command, app *App) (config.RuntimeConfig, error) {
	cfg, err := config.Load(config.LoadInput{
		WorkDir:    app.WorkDir,
		ConfigPath: app.ConfigPath,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return config.RuntimeConfig{}, err
	}
	cfg.DatabasePath = app.resolve(cfg.DatabasePath)
	cfg.StatePath = app.resolve(cfg.StatePath)
	cfg.LogPath = app.resolve(cfg.LogPath)
	return cfg, nil
}

func (app *App) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || app.WorkDir == "" {
		return path
	}
	return filepath.Join(app.WorkDir, path)
}

// openSession wires config, logging, the backend and a loaded syncer. Logs go
// to the configured file, otherwise to stderr for commands and nowhere for
// the TUI so they never corrupt the screen.
func openSession(ctx context.Context, cmd *cobra.Command, app *App, logToStderr bool) (*session, error) {
	cfg, err := loadConfig(cmd, app)
	if err != nil {
		return nil, err
	}
	sess := &session{cfg: cfg}

	var out io.Writer = io.Discard
	if logToStderr {
		out = cmd.ErrOrStderr()
	}
	if cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		sess.logFile = f
		out = f
	}
	sess.log = log.New(out, "", log.LstdFlags)

	repo, err := openRepository(cfg, sess.log)
	if err != nil {
		sess.Close()
		return nil, err
	}
	sess.repo = repo

	sess.syncer = reconcile.New(store.New(cfg.UserID), repo, reconcile.Options{
		ReloadAfterCommit: cfg.ReloadAfterCommit,
		RetryAttempts:     cfg.RetryAttempts,
		RetryInitial:      cfg.RetryInitial,
		RetryMax:          cfg.RetryMax,
		RemoteTimeout:     cfg.RemoteTimeout,
		Logger:            sess.log,
		Now:               app.Now,
	})
	if err := sess.syncer.Load(ctx); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

func openRepository(cfg config.RuntimeConfig, logger *log.Logger) (storage.Repository, error) {
	switch cfg.Storage {
	case config.StorageGorm:
		return storage.OpenGorm(cfg.DatabasePath, logger)
	default:
		return storage.OpenSQLite(cfg.SQLiteDriver, cfg.DatabasePath)
	}
}

func (s *session) Close() {
	if s.syncer != nil {
		s.syncer.Store().Close()
	}
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			s.log.Printf("[warn] close storage: %v", err)
		}
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}
