// Package config resolves the runtime configuration from defaults, an
// optional JSONC file, DAYTRACK_* environment variables and command-line
// flags, in that order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

var (
	ErrInvalidConfig  = errors.New("config: invalid")
	ErrConfigNotFound = errors.New("config: file not found")
)

const (
	StorageSQLite = "sqlite"
	StorageGorm   = "gorm"
)

// FileName is looked up in the working directory when no explicit path is given.
const FileName = "daytrack.json"

type RuntimeConfig struct {
	UserID            string
	Storage           string
	SQLiteDriver      string
	DatabasePath      string
	ReloadAfterCommit bool
	RetryAttempts     int
	RetryInitial      time.Duration
	RetryMax          time.Duration
	RemoteTimeout     time.Duration
	ReloadInterval    time.Duration
	SubscriberBuffer  int
	StatePath         string
	LogPath           string

	// Source is the config file that was merged, if any.
	Source string
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		UserID:           "local",
		Storage:          StorageSQLite,
		SQLiteDriver:     "sqlite3",
		DatabasePath:     filepath.Join(".daytrack", "daytrack.db"),
		RetryAttempts:    3,
		RetryInitial:     100 * time.Millisecond,
		RetryMax:         2 * time.Second,
		RemoteTimeout:    5 * time.Second,
		ReloadInterval:   5 * time.Minute,
		SubscriberBuffer: 16,
		StatePath:        filepath.Join(".daytrack", "state.json"),
	}
}

type LoadInput struct {
	WorkDir    string
	ConfigPath string
	Flags      *pflag.FlagSet
}

func Load(in LoadInput) (RuntimeConfig, error) {
	workDir := in.WorkDir
	if workDir == "" {
		var err error
		if workDir, err = os.Getwd(); err != nil {
			return RuntimeConfig{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultRuntimeConfig()
	path, mustExist := in.ConfigPath, true
	if path == "" {
		path, mustExist = FileName, false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}
	file, loaded, err := loadFile(path, mustExist)
	if err != nil {
		return RuntimeConfig{}, err
	}
	if loaded {
		if cfg, err = file.mergeInto(cfg); err != nil {
			return RuntimeConfig{}, fmt.Errorf("%w %s: %w", ErrInvalidConfig, path, err)
		}
		cfg.Source = path
	}

	cfg = RuntimeConfigFromEnv(cfg)
	if in.Flags != nil {
		if cfg, err = ApplyFlags(cfg, in.Flags); err != nil {
			return RuntimeConfig{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}

func (c RuntimeConfig) Validate() error {
	var problems []string
	if strings.TrimSpace(c.UserID) == "" {
		problems = append(problems, "user_id is required")
	}
	switch c.Storage {
	case StorageSQLite, StorageGorm:
	default:
		problems = append(problems, fmt.Sprintf("unknown storage %q", c.Storage))
	}
	switch c.SQLiteDriver {
	case "sqlite3", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("unknown sqlite driver %q", c.SQLiteDriver))
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		problems = append(problems, "database_path is required")
	}
	if c.RetryAttempts < 1 {
		problems = append(problems, "retry_attempts must be at least 1")
	}
	if c.RetryInitial < 0 || c.RetryMax < 0 || c.RemoteTimeout < 0 || c.ReloadInterval < 0 {
		problems = append(problems, "durations must not be negative")
	}
	if c.RetryMax > 0 && c.RetryInitial > c.RetryMax {
		problems = append(problems, "retry_initial exceeds retry_max")
	}
	if c.SubscriberBuffer < 1 {
		problems = append(problems, "subscriber_buffer must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// fileConfig is the on-disk shape. Pointers distinguish "unset" from zero.
type fileConfig struct {
	UserID            *string `json:"user_id,omitempty"`
	Storage           *string `json:"storage,omitempty"`
	SQLiteDriver      *string `json:"sqlite_driver,omitempty"`
	DatabasePath      *string `json:"database_path,omitempty"`
	ReloadAfterCommit *bool   `json:"reload_after_commit,omitempty"`
	RetryAttempts     *int    `json:"retry_attempts,omitempty"`
	RetryInitial      *string `json:"retry_initial,omitempty"`
	RetryMax          *string `json:"retry_max,omitempty"`
	RemoteTimeout     *string `json:"remote_timeout,omitempty"`
	ReloadInterval    *string `json:"reload_interval,omitempty"`
	SubscriberBuffer  *int    `json:"subscriber_buffer,omitempty"`
	StatePath         *string `json:"state_path,omitempty"`
	LogPath           *string `json:"log_path,omitempty"`
}

func loadFile(path string, mustExist bool) (fileConfig, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return fileConfig{}, false, nil
		}
		if os.IsNotExist(err) {
			return fileConfig{}, false, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fileConfig{}, false, fmt.Errorf("read config %s: %w", path, err)
	}
	file, err := parseFile(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrInvalidConfig, path, err)
	}
	return file, true, nil
}

func parseFile(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	var file fileConfig
	if err := json.Unmarshal(standardized, &file); err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return file, nil
}

func (f fileConfig) mergeInto(cfg RuntimeConfig) (RuntimeConfig, error) {
	setString(&cfg.UserID, f.UserID)
	setString(&cfg.Storage, f.Storage)
	setString(&cfg.SQLiteDriver, f.SQLiteDriver)
	setString(&cfg.DatabasePath, f.DatabasePath)
	setString(&cfg.StatePath, f.StatePath)
	setString(&cfg.LogPath, f.LogPath)
	if f.ReloadAfterCommit != nil {
		cfg.ReloadAfterCommit = *f.ReloadAfterCommit
	}
	if f.RetryAttempts != nil {
		cfg.RetryAttempts = *f.RetryAttempts
	}
	if f.SubscriberBuffer != nil {
		cfg.SubscriberBuffer = *f.SubscriberBuffer
	}
	for _, d := range []struct {
		name string
		raw  *string
		dst  *time.Duration
	}{
		{"retry_initial", f.RetryInitial, &cfg.RetryInitial},
		{"retry_max", f.RetryMax, &cfg.RetryMax},
		{"remote_timeout", f.RemoteTimeout, &cfg.RemoteTimeout},
		{"reload_interval", f.ReloadInterval, &cfg.ReloadInterval},
	} {
		if d.raw == nil {
			continue
		}
		v, err := time.ParseDuration(*d.raw)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return cfg, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Encode writes cfg in the file format, so the output can be saved as a
// config file.
func (c RuntimeConfig) Encode(w io.Writer) error {
	durations := func(d time.Duration) *string {
		s := d.String()
		return &s
	}
	file := fileConfig{
		UserID:            &c.UserID,
		Storage:           &c.Storage,
		SQLiteDriver:      &c.SQLiteDriver,
		DatabasePath:      &c.DatabasePath,
		ReloadAfterCommit: &c.ReloadAfterCommit,
		RetryAttempts:     &c.RetryAttempts,
		RetryInitial:      durations(c.RetryInitial),
		RetryMax:          durations(c.RetryMax),
		RemoteTimeout:     durations(c.RemoteTimeout),
		ReloadInterval:    durations(c.ReloadInterval),
		SubscriberBuffer:  &c.SubscriberBuffer,
		StatePath:         &c.StatePath,
		LogPath:           &c.LogPath,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(file)
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvString("DAYTRACK_USER"); ok {
		cfg.UserID = v
	}
	if v, ok := getEnvString("DAYTRACK_STORAGE"); ok {
		cfg.Storage = v
	}
	if v, ok := getEnvString("DAYTRACK_SQLITE_DRIVER"); ok {
		cfg.SQLiteDriver = v
	}
	if v, ok := getEnvString("DAYTRACK_DB"); ok {
		cfg.DatabasePath = v
	}
	if v, ok := getEnvBool("DAYTRACK_RELOAD_AFTER_COMMIT"); ok {
		cfg.ReloadAfterCommit = v
	}
	if v, ok := getEnvInt("DAYTRACK_RETRY_ATTEMPTS"); ok && v > 0 {
		cfg.RetryAttempts = v
	}
	if v, ok := getEnvDuration("DAYTRACK_RETRY_INITIAL"); ok {
		cfg.RetryInitial = v
	}
	if v, ok := getEnvDuration("DAYTRACK_RETRY_MAX"); ok {
		cfg.RetryMax = v
	}
	if v, ok := getEnvDuration("DAYTRACK_REMOTE_TIMEOUT"); ok {
		cfg.RemoteTimeout = v
	}
	if v, ok := getEnvDuration("DAYTRACK_RELOAD_INTERVAL"); ok {
		cfg.ReloadInterval = v
	}
	if v, ok := getEnvInt("DAYTRACK_SUBSCRIBER_BUFFER"); ok && v > 0 {
		cfg.SubscriberBuffer = v
	}
	if v, ok := getEnvString("DAYTRACK_STATE_FILE"); ok {
		cfg.StatePath = v
	}
	if v, ok := getEnvString("DAYTRACK_LOG_FILE"); ok {
		cfg.LogPath = v
	}
	return cfg
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
