package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultBackendURL      = "http://127.0.0.1:8080/cgi-bin/run.sh"
	DefaultPollInterval    = 2 * time.Second
	DefaultLogLines        = 200
	DefaultFollowThreshold = 3
)

const (
	envBackendURL   = "STINSTALLER_BACKEND_URL"
	envLogLevel     = "STINSTALLER_LOG_LEVEL"
	envPollInterval = "STINSTALLER_POLL_INTERVAL"
	envLogLines     = "STINSTALLER_LOG_LINES"
)

type Config struct {
	Backend BackendConfig `toml:"backend"`
	Polling PollingConfig `toml:"polling"`
	LogView LogViewConfig `toml:"log_view"`
	Logging LoggingConfig `toml:"logging"`
}

type BackendConfig struct {
	URL string `toml:"url"`
}

type PollingConfig struct {
	Interval string `toml:"interval"`
	LogLines int    `toml:"log_lines"`
}

type LogViewConfig struct {
	// FollowThreshold is how many rows from the bottom still count as
	// "at the bottom" when new log text arrives.
	FollowThreshold int `toml:"follow_threshold"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

func Default() Config {
	return Config{
		Backend: BackendConfig{URL: DefaultBackendURL},
		Polling: PollingConfig{
			Interval: DefaultPollInterval.String(),
			LogLines: DefaultLogLines,
		},
		LogView: LogViewConfig{FollowThreshold: DefaultFollowThreshold},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the config file, then .env in the working directory, then the
// process environment. Later sources win.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path, ".env")
}

func LoadFrom(path, envFile string) (Config, error) {
	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	dotenv, err := readDotenv(envFile)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", envFile, err)
	}
	if err := cfg.applyEnv(func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if value, ok := lookup(envBackendURL); ok && strings.TrimSpace(value) != "" {
		c.Backend.URL = strings.TrimSpace(value)
	}
	if value, ok := lookup(envLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.TrimSpace(value)
	}
	if value, ok := lookup(envPollInterval); ok && strings.TrimSpace(value) != "" {
		if _, err := time.ParseDuration(strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("%s: %w", envPollInterval, err)
		}
		c.Polling.Interval = strings.TrimSpace(value)
	}
	if value, ok := lookup(envLogLines); ok && strings.TrimSpace(value) != "" {
		lines, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", envLogLines, err)
		}
		c.Polling.LogLines = lines
	}
	return nil
}

func (c Config) BackendURL() string {
	url := strings.TrimSpace(c.Backend.URL)
	if url == "" {
		return DefaultBackendURL
	}
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	return strings.TrimRight(url, "/")
}

func (c Config) PollInterval() time.Duration {
	raw := strings.TrimSpace(c.Polling.Interval)
	if raw == "" {
		return DefaultPollInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

func (c Config) LogLines() int {
	if c.Polling.LogLines <= 0 {
		return DefaultLogLines
	}
	return c.Polling.LogLines
}

func (c Config) FollowThreshold() int {
	if c.LogView.FollowThreshold < 0 {
		return 0
	}
	if c.LogView.FollowThreshold == 0 {
		return DefaultFollowThreshold
	}
	return c.LogView.FollowThreshold
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func readDotenv(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return values, nil
}
