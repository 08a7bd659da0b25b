package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"imagepress/internal/common"
)

// Config holds application configuration
type Config struct {
	WorkingDir      string        `yaml:"working_dir"`
	AppDataDir      string        `yaml:"app_data_dir"`
	DatabasePath    string        `yaml:"database_path"`
	DebugMode       bool          `yaml:"debug_mode"`
	DebugDir        string        `yaml:"debug_dir"`
	ExtendedFormats bool          `yaml:"extended_formats"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	MaxConcurrency  int           `yaml:"max_concurrency"`
	MaxImageBytes   int64         `yaml:"max_image_bytes"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	Server          ServerConfig  `yaml:"server"`

	Logger *slog.Logger `yaml:"-"`
}

// ServerConfig configures the HTTP transport
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Load builds the configuration from defaults, the optional YAML file at
// path, a .env file in the working directory and the environment, in that
// order of increasing precedence.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Variables already set in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.AppDataDir, "database.sqlite3")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	cfg.Logger = NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		WorkingDir:      filepath.Join(os.TempDir(), "imagepress"),
		AppDataDir:      getAppDataDir(),
		DebugDir:        "debug_output",
		ExtendedFormats: true,
		SweepInterval:   common.DefaultSweepInterval,
		MaxImageBytes:   common.DefaultMaxImageBytes,
		LogLevel:        "info",
		LogFormat:       "text",
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logger: slog.Default(),
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must not be negative: %d", c.MaxConcurrency)
	}

	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("max_image_bytes must be positive: %d", c.MaxImageBytes)
	}

	if c.SessionTTL < 0 {
		return fmt.Errorf("session_ttl must not be negative: %s", c.SessionTTL)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must be set")
	}

	return nil
}

// Workers returns the encoding pool size. Zero lets the pool pick from the
// CPU count, anything above common.MaxConcurrencyLimit is capped.
func (c *Config) Workers() int {
	return min(c.MaxConcurrency, common.MaxConcurrencyLimit)
}

// EnsureDirectories creates the working, data and debug directories
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.WorkingDir, c.AppDataDir}
	if c.DebugMode {
		dirs = append(dirs, c.DebugDir)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, common.DefaultFilePermissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// NewLogger builds a slog logger writing to w
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, err := parseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"WORKING_DIR":   &cfg.WorkingDir,
		"APP_DATA_DIR":  &cfg.AppDataDir,
		"DATABASE_PATH": &cfg.DatabasePath,
		"DEBUG_DIR":     &cfg.DebugDir,
		"LOG_LEVEL":     &cfg.LogLevel,
		"LOG_FORMAT":    &cfg.LogFormat,
		"HTTP_ADDR":     &cfg.Server.Addr,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"DEBUG_MODE":       &cfg.DebugMode,
		"EXTENDED_FORMATS": &cfg.ExtendedFormats,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = parsed
		}
	}

	durations := map[string]*time.Duration{
		"SESSION_TTL":    &cfg.SessionTTL,
		"SWEEP_INTERVAL": &cfg.SweepInterval,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = parsed
		}
	}

	if v := os.Getenv("MAX_CONCURRENCY"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_CONCURRENCY: %w", err)
		}
		cfg.MaxConcurrency = parsed
	}

	if v := os.Getenv("MAX_IMAGE_BYTES"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_IMAGE_BYTES: %w", err)
		}
		cfg.MaxImageBytes = parsed
	}

	return nil
}

func getAppDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "imagepress")
	}
	return filepath.Join(os.TempDir(), "imagepress-data")
}
