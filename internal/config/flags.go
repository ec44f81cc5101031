package config

import (
	"time"

	"github.com/spf13/pflag"
)

// RegisterFlags defines the override flags on fs. Only flags the user
// actually sets take part in ApplyFlags, so their defaults are informational.
func RegisterFlags(fs *pflag.FlagSet) {
	def := DefaultRuntimeConfig()
	fs.String("user", def.UserID, "user id whose data is shown")
	fs.String("storage", def.Storage, "storage backend: sqlite or gorm")
	fs.String("sqlite-driver", def.SQLiteDriver, "database/sql driver: sqlite3 (cgo) or sqlite (pure Go)")
	fs.String("db", def.DatabasePath, "path to the SQLite database")
	fs.Bool("reload-after-commit", def.ReloadAfterCommit, "reload everything after each successful write")
	fs.Int("retry-attempts", def.RetryAttempts, "attempts per remote call")
	fs.Duration("retry-initial", def.RetryInitial, "first retry backoff")
	fs.Duration("retry-max", def.RetryMax, "maximum retry backoff")
	fs.Duration("remote-timeout", def.RemoteTimeout, "timeout per remote attempt")
	fs.Duration("reload-interval", def.ReloadInterval, "periodic full reload interval, 0 disables")
	fs.String("state-file", def.StatePath, "where the TUI remembers its view and date")
	fs.String("log-file", def.LogPath, "append logs to this file")
}

func ApplyFlags(cfg RuntimeConfig, fs *pflag.FlagSet) (RuntimeConfig, error) {
	var err error
	str := func(name string, dst *string) {
		if err != nil || !changed(fs, name) {
			return
		}
		*dst, err = fs.GetString(name)
	}
	dur := func(name string, dst *time.Duration) {
		if err != nil || !changed(fs, name) {
			return
		}
		*dst, err = fs.GetDuration(name)
	}

	str("user", &cfg.UserID)
	str("storage", &cfg.Storage)
	str("sqlite-driver", &cfg.SQLiteDriver)
	str("db", &cfg.DatabasePath)
	str("state-file", &cfg.StatePath)
	str("log-file", &cfg.LogPath)
	dur("retry-initial", &cfg.RetryInitial)
	dur("retry-max", &cfg.RetryMax)
	dur("remote-timeout", &cfg.RemoteTimeout)
	dur("reload-interval", &cfg.ReloadInterval)
	if err == nil && changed(fs, "reload-after-commit") {
		cfg.ReloadAfterCommit, err = fs.GetBool("reload-after-commit")
	}
	if err == nil && changed(fs, "retry-attempts") {
		cfg.RetryAttempts, err = fs.GetInt("retry-attempts")
	}
	return cfg, err
}

func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}
