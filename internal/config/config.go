package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownKey is returned for a key that is not a config setting or
// is absent from the file.
var ErrUnknownKey = errors.New("unknown config key")

// Autoplay is a command typed into the terminal on a cron schedule.
type Autoplay struct {
	Schedule string `json:"schedule"`
	Command  string `json:"command"`
}

type Config struct {
	DataDir        string `json:"data_dir"`
	LogLevel       string `json:"log_level"`
	ProjectsFile   string `json:"projects_file"`
	DefaultProject string `json:"default_project"`
	WatchProjects  bool   `json:"watch_projects"`
	Typing         struct {
		Instant    bool    `json:"instant"`
		SpeedScale float64 `json:"speed_scale"`
	} `json:"typing"`
	HTTP struct {
		Enabled bool   `json:"enabled"`
		Listen  string `json:"listen"`
	} `json:"http"`
	Telegram struct {
		Token  string `json:"token" secret:"true"`
		ChatID int64  `json:"chat_id"`
	} `json:"telegram"`
	Schedule struct {
		Reset    string     `json:"reset"`
		Autoplay []Autoplay `json:"autoplay"`
	} `json:"schedule"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		DataDir:  filepath.Join(os.Getenv("HOME"), ".simterm"),
		LogLevel: "info",
	}
	cfg.Typing.SpeedScale = 1
	cfg.HTTP.Enabled = true
	cfg.HTTP.Listen = "127.0.0.1:8080"
	return cfg
}

// DefaultPath is the config file location under the default data dir.
func DefaultPath() string {
	return filepath.Join(Default().DataDir, "config.json")
}

func Load(path string) (*Config, error) {
	cfg := Default()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if level := os.Getenv("SIMTERM_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if file := os.Getenv("SIMTERM_PROJECTS_FILE"); file != "" {
		cfg.ProjectsFile = file
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}

	if cfg.Typing.SpeedScale < 0 {
		return nil, fmt.Errorf("typing.speed_scale must not be negative, got %v", cfg.Typing.SpeedScale)
	}
	return cfg, nil
}

// SlogLevel maps log_level to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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

// Save writes cfg to path atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ToMap converts cfg to a nested map through its JSON form.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListValues returns every setting as a flat dot-keyed map.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := flattenTree(m)
	if mask {
		for k, v := range flat {
			if IsSecretKey(k) {
				flat[k] = maskSecret(v)
			}
		}
	}
	return flat, nil
}

func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// GetValue reads one dot-separated key from the file at path, creating the
// file with defaults if it does not exist.
func GetValue(path, key string) (any, error) {
	if _, err := Load(path); err != nil {
		return nil, err
	}
	m, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	v, ok := flattenTree(m)[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return v, nil
}

// SetValue stores value under a known key in an existing file. Values that parse
// as JSON (numbers, booleans, arrays) are stored typed, anything else as a
// string.
func SetValue(path, key, value string) error {
	if !knownKeys[key] {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	m, err := readRaw(path)
	if err != nil {
		return err
	}

	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		parsed = value
	}
	setPath(m, key, parsed)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := json.Unmarshal(data, Default()); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return writeFile(path, data)
}
