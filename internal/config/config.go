// Package config loads aebridge settings from flags, AEBRIDGE_* environment
// variables and an optional config file, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dshills/aebridge/internal/logging"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "AEBRIDGE"

// JournalFileName is the journal database created inside DBPath.
const JournalFileName = "journal.db"

// Keys understood by Load. Flag names match the keys.
const (
	KeyConfig           = "config"
	KeyHostURL          = "host-url"
	KeyHostCommand      = "host-command"
	KeyTimeout          = "timeout"
	KeyRetries          = "retries"
	KeyRetryBaseDelay   = "retry-base-delay"
	KeyDBPath           = "db-path"
	KeyNoJournal        = "no-journal"
	KeyLogLevel         = "log-level"
	KeyLogDir           = "log-dir"
	KeyFetchConcurrency = "fetch-concurrency"
)

// Config holds the resolved settings.
type Config struct {
	HostURL          string        // WebSocket endpoint of the host panel
	HostCommand      string        // when set, spawn this command and talk over its stdio instead
	Timeout          time.Duration // per-request deadline
	Retries          int           // retries for idempotent reads
	RetryBaseDelay   time.Duration
	DBPath           string // directory holding the journal
	NoJournal        bool
	LogLevel         string
	LogDir           string // empty logs to stderr
	FetchConcurrency int
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		HostURL:          "ws://127.0.0.1:8787/bridge",
		Timeout:          10 * time.Second,
		Retries:          3,
		RetryBaseDelay:   time.Second,
		DBPath:           "~/.aebridge",
		LogLevel:         logging.LevelInfo,
		FetchConcurrency: 4,
	}
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyHostURL, d.HostURL)
	v.SetDefault(KeyHostCommand, d.HostCommand)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyRetries, d.Retries)
	v.SetDefault(KeyRetryBaseDelay, d.RetryBaseDelay)
	v.SetDefault(KeyDBPath, d.DBPath)
	v.SetDefault(KeyNoJournal, d.NoJournal)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogDir, d.LogDir)
	v.SetDefault(KeyFetchConcurrency, d.FetchConcurrency)
}

// RegisterFlags defines the persistent flags shared by every command.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP(KeyConfig, "c", "", "config file (yaml, toml or json)")
	fs.String(KeyHostURL, d.HostURL, "WebSocket URL of the host bridge")
	fs.String(KeyHostCommand, "", "spawn this command and use its stdio as the bridge instead of --host-url")
	fs.Duration(KeyTimeout, d.Timeout, "per-request timeout")
	fs.Int(KeyRetries, d.Retries, "retries for idempotent reads")
	fs.Duration(KeyRetryBaseDelay, d.RetryBaseDelay, "delay before the first retry, doubled each time")
	fs.String(KeyDBPath, d.DBPath, "directory holding the replacement journal")
	fs.Bool(KeyNoJournal, false, "do not record replacements")
	fs.String(KeyLogLevel, d.LogLevel, "log level (DEBUG, INFO, WARN, ERROR)")
	fs.String(KeyLogDir, "", "write logs to this directory instead of stderr")
	fs.Int(KeyFetchConcurrency, d.FetchConcurrency, "layers read concurrently during project searches")
}

// BindFlags binds every registered flag in fs to the key of the same name.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(f.Name, f)
	})
	return err
}

// Load reads the config file named by the config key, if any, and resolves
// the settings.
func Load(v *viper.Viper) (*Config, error) {
	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		HostURL:          v.GetString(KeyHostURL),
		HostCommand:      v.GetString(KeyHostCommand),
		Timeout:          v.GetDuration(KeyTimeout),
		Retries:          v.GetInt(KeyRetries),
		RetryBaseDelay:   v.GetDuration(KeyRetryBaseDelay),
		DBPath:           v.GetString(KeyDBPath),
		NoJournal:        v.GetBool(KeyNoJournal),
		LogLevel:         strings.ToUpper(v.GetString(KeyLogLevel)),
		LogDir:           v.GetString(KeyLogDir),
		FetchConcurrency: v.GetInt(KeyFetchConcurrency),
	}

	var err error
	if cfg.DBPath, err = ExpandHome(cfg.DBPath); err != nil {
		return nil, err
	}
	if cfg.LogDir, err = ExpandHome(cfg.LogDir); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

// JournalPath is the journal database file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.DBPath, JournalFileName)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks c and returns every problem found.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	if c.HostURL == "" && c.HostCommand == "" {
		errs = append(errs, ValidationError{KeyHostURL, c.HostURL, "either host-url or host-command is required"})
	}
	if c.HostCommand == "" && c.HostURL != "" &&
		!strings.HasPrefix(c.HostURL, "ws://") && !strings.HasPrefix(c.HostURL, "wss://") {
		errs = append(errs, ValidationError{KeyHostURL, c.HostURL, "must be a ws:// or wss:// URL"})
	}
	if c.Timeout <= 0 {
		errs = append(errs, ValidationError{KeyTimeout, c.Timeout, "must be positive"})
	}
	if c.Retries < 0 || c.Retries > 10 {
		errs = append(errs, ValidationError{KeyRetries, c.Retries, "must be between 0 and 10"})
	}
	if c.RetryBaseDelay < 0 {
		errs = append(errs, ValidationError{KeyRetryBaseDelay, c.RetryBaseDelay, "must not be negative"})
	}
	if !c.NoJournal && c.DBPath == "" {
		errs = append(errs, ValidationError{KeyDBPath, c.DBPath, "is required unless no-journal is set"})
	}
	if !slices.Contains(logging.ValidLevels(), c.LogLevel) {
		errs = append(errs, ValidationError{KeyLogLevel, c.LogLevel, fmt.Sprintf("must be one of %v", logging.ValidLevels())})
	}
	if c.FetchConcurrency < 1 || c.FetchConcurrency > 64 {
		errs = append(errs, ValidationError{KeyFetchConcurrency, c.FetchConcurrency, "must be between 1 and 64"})
	}
	return errs
}
