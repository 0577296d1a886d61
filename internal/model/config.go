package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig describes how to reach the message backend.
type ServerConfig struct {
	// BaseURL is the root URL of the backend (e.g., https://mail.example.com).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// SessionCookie is the name of the cookie carrying the backend session.
	SessionCookie string `mapstructure:"session_cookie" yaml:"session_cookie"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxRetries is how many times a throttled request is retried.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// WeekStart is the first column of the month grid. Only "sunday" is
	// supported.
	WeekStart string `mapstructure:"week_start" yaml:"week_start"`

	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// LogConfig controls the log file and verbosity.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// StoreConfig locates the local state database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
}

// envPrefix namespaces environment overrides, e.g. MAILCAL_SERVER_BASE_URL.
const envPrefix = "MAILCAL"

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailcal/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailcal", "config.yaml")
}

// stateDir returns ~/.local/state/mailcal, or the working directory if
// the home directory is unknown.
func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "state", "mailcal")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:       "http://localhost:5000",
			SessionCookie: "session",
			TimeoutSec:    30,
			MaxRetries:    3,
		},
		Display: DisplayConfig{
			Theme:           "default",
			WeekStart:       "sunday",
			PollIntervalSec: 120,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(stateDir(), "mailcal.log"),
		},
		Store: StoreConfig{
			Path: filepath.Join(stateDir(), "mailcal.db"),
		},
	}
}

func newViper(path string) *viper.Viper {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values and so
	// AutomaticEnv knows which keys exist.
	v.SetDefault("server.base_url", def.Server.BaseURL)
	v.SetDefault("server.session_cookie", def.Server.SessionCookie)
	v.SetDefault("server.timeout_sec", def.Server.TimeoutSec)
	v.SetDefault("server.max_retries", def.Server.MaxRetries)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.week_start", def.Display.WeekStart)
	v.SetDefault("display.poll_interval_sec", def.Display.PollIntervalSec)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("store.path", def.Store.Path)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (and environment overrides) are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Server.TimeoutSec <= 0 {
		cfg.Server.TimeoutSec = 30
	}
	if cfg.Server.MaxRetries < 0 {
		cfg.Server.MaxRetries = 0
	}
	if cfg.Display.PollIntervalSec <= 0 {
		cfg.Display.PollIntervalSec = 120
	}
	if !strings.EqualFold(cfg.Display.WeekStart, "sunday") {
		return nil, fmt.Errorf("config %s: unsupported week_start %q, only sunday is supported", path, cfg.Display.WeekStart)
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)
	v.Set("store", cfg.Store)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
