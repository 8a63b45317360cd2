package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Session   SessionConfig   `yaml:"session"`
	Upload    UploadConfig    `yaml:"upload"`
	Backup    BackupConfig    `yaml:"backup"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig selects where the project list lives. The JSON driver writes
// <data_dir>/projects.json; the SQLite driver writes <data_dir>/projects.db.
type StoreConfig struct {
	Driver  string `yaml:"driver"`
	DataDir string `yaml:"data_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// SessionConfig holds the key used to sign the UI session cookie.
type SessionConfig struct {
	Secret string `yaml:"secret"`
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// BackupConfig enables periodic snapshots when Schedule is a cron spec.
type BackupConfig struct {
	Schedule string `yaml:"schedule"`
	Dir      string `yaml:"dir"`
	Keep     int    `yaml:"keep"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8501,
		},
		Store: StoreConfig{
			Driver:  DriverJSON,
			DataDir: ".fairy_data",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: TransportHTTP,
		},
		Session: SessionConfig{
			Secret: "fairy-dev-session-secret-change-me",
		},
		Upload: UploadConfig{
			MaxBytes: 10 << 20,
		},
		Backup: BackupConfig{
			Dir:  ".fairy_data/backups",
			Keep: 10,
		},
	}
}

// Load reads configuration from a .env file, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("FAIRY_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverJSON, DriverSQLite:
	default:
		return fmt.Errorf("invalid store driver %q (want %s or %s)", c.Store.Driver, DriverJSON, DriverSQLite)
	}
	switch c.Transport.Mode {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("invalid transport mode %q (want %s or %s)", c.Transport.Mode, TransportHTTP, TransportStdio)
	}
	if c.Store.DataDir == "" {
		return fmt.Errorf("store data_dir must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max_bytes must be positive")
	}
	if c.Backup.Schedule != "" && c.Backup.Keep <= 0 {
		return fmt.Errorf("backup keep must be positive when a schedule is set")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("FAIRY_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("FAIRY_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid FAIRY_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dir := os.Getenv("FAIRY_DATA_DIR"); dir != "" {
		cfg.Store.DataDir = dir
	}
	if driver := os.Getenv("FAIRY_STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = driver
	}
	if level := os.Getenv("FAIRY_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if mode := os.Getenv("FAIRY_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if secret := os.Getenv("FAIRY_SESSION_SECRET"); secret != "" {
		cfg.Session.Secret = secret
	}
	if maxStr := os.Getenv("FAIRY_UPLOAD_MAX_BYTES"); maxStr != "" {
		maxBytes, err := strconv.ParseInt(maxStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid FAIRY_UPLOAD_MAX_BYTES: %w", err)
		}
		cfg.Upload.MaxBytes = maxBytes
	}
	if schedule := os.Getenv("FAIRY_BACKUP_SCHEDULE"); schedule != "" {
		cfg.Backup.Schedule = schedule
	}
	if dir := os.Getenv("FAIRY_BACKUP_DIR"); dir != "" {
		cfg.Backup.Dir = dir
	}
	if keepStr := os.Getenv("FAIRY_BACKUP_KEEP"); keepStr != "" {
		keep, err := strconv.Atoi(keepStr)
		if err != nil {
			return fmt.Errorf("invalid FAIRY_BACKUP_KEEP: %w", err)
		}
		cfg.Backup.Keep = keep
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
