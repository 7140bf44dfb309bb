package common

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix scopes environment overrides, e.g. RECORDS_DATABASE_DSN -> database.dsn.
const EnvPrefix = "RECORDS_"

const maxConfigFileSize = 1024 * 1024

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	Storage    StorageConfig    `koanf:"storage"`
	Ingest     IngestConfig     `koanf:"ingest"`
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	Classifier ClassifierConfig `koanf:"classifier"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string        `koanf:"dsn"`
	MaxConns         int32         `koanf:"max_conns"`
	MinConns         int32         `koanf:"min_conns"`
	MaxConnLifetime  time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `koanf:"max_conn_idle_time"`
	DialTimeout      time.Duration `koanf:"dial_timeout"`
	StatementTimeout time.Duration `koanf:"statement_timeout"`
}

// StorageConfig holds where admitted file bytes are kept.
type StorageConfig struct {
	BlobDir string `koanf:"blob_dir"`
}

// IngestConfig holds watcher and worker settings.
type IngestConfig struct {
	WatchRoot      string        `koanf:"watch_root"`
	InitialScan    bool          `koanf:"initial_scan"`
	Debounce       time.Duration `koanf:"debounce"`
	Workers        int           `koanf:"workers"`
	QueueSize      int           `koanf:"queue_size"`
	ProcessTimeout time.Duration `koanf:"process_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string `koanf:"grpc_addr"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ClassifierConfig points at an optional department rule override file.
type ClassifierConfig struct {
	RulesFile string `koanf:"rules_file"`
}

// LoadConfig loads configuration from an optional YAML file, then overrides
// with RECORDS_* environment variables. Missing values get defaults.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// envKey maps RECORDS_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, NewAppError("CONFIG_ERROR", "config path is a directory", ErrInvalidInput)
	}
	if info.Size() > maxConfigFileSize {
		return nil, NewAppError("CONFIG_ERROR", "config file exceeds 1MB", ErrInvalidInput)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:records.db"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = 2
	}
	if cfg.Database.MaxConnLifetime == 0 {
		cfg.Database.MaxConnLifetime = 30 * time.Minute
	}
	if cfg.Database.MaxConnIdleTime == 0 {
		cfg.Database.MaxConnIdleTime = 5 * time.Minute
	}
	if cfg.Database.DialTimeout == 0 {
		cfg.Database.DialTimeout = 3 * time.Second
	}
	if cfg.Storage.BlobDir == "" {
		cfg.Storage.BlobDir = "./uploaded_files/.blobs"
	}
	if cfg.Ingest.WatchRoot == "" {
		cfg.Ingest.WatchRoot = "./uploaded_files"
	}
	if cfg.Ingest.Debounce == 0 {
		cfg.Ingest.Debounce = 500 * time.Millisecond
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = 4
	}
	if cfg.Ingest.QueueSize == 0 {
		cfg.Ingest.QueueSize = 256
	}
	if cfg.Ingest.ProcessTimeout == 0 {
		cfg.Ingest.ProcessTimeout = 2 * time.Minute
	}
	if cfg.Server.GRPCAddr == "" {
		cfg.Server.GRPCAddr = ":8080"
	}
	if cfg.Server.MetricsAddr == "" {
		cfg.Server.MetricsAddr = ":9090"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return NewAppError("CONFIG_ERROR", "database.dsn is required", ErrInvalidInput)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return NewAppError("CONFIG_ERROR", "database.min_conns exceeds database.max_conns", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Storage.BlobDir) == "" {
		return NewAppError("CONFIG_ERROR", "storage.blob_dir is required", ErrInvalidInput)
	}
	if c.Ingest.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "ingest.workers must be positive", ErrInvalidInput)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return NewAppError("CONFIG_ERROR", "log.format must be text or json", ErrInvalidInput)
	}
	return nil
}

// SlogLevel parses Log.Level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger described by Log.
func (l LogConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
