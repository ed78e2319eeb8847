package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"

	DefaultAPIURL     = "http://localhost:3001/tasks"
	DefaultPageSize   = 6
	DefaultTimeout    = 10 * time.Second
	DefaultServeAddr  = ":3001"
	defaultServeDBRel = "tasks.db"
)

// Config is the user config file. Zero fields mean "use the default".
type Config struct {
	APIURL   string      `yaml:"api_url,omitempty"`
	PageSize int         `yaml:"page_size,omitempty"`
	Timeout  string      `yaml:"timeout,omitempty"` // Go duration, e.g. "10s"
	Serve    ServeConfig `yaml:"serve,omitempty"`
}

type ServeConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// DB is a SQLite path or a postgres:// URL.
	DB string `yaml:"db,omitempty"`
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.taskdeck).
	if v := strings.TrimSpace(os.Getenv("TASKDECK_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskdeck"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadConfig reads config.yaml. A missing file is an empty config.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := cfg.TimeoutDuration(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}

func (c Config) ResolvedAPIURL() string {
	if v := strings.TrimSpace(c.APIURL); v != "" {
		return v
	}
	return DefaultAPIURL
}

func (c Config) ResolvedPageSize() int {
	if c.PageSize > 0 {
		return c.PageSize
	}
	return DefaultPageSize
}

func (c Config) TimeoutDuration() (time.Duration, error) {
	v := strings.TrimSpace(c.Timeout)
	if v == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", v)
	}
	return d, nil
}

func (c Config) ResolvedServeAddr() string {
	if v := strings.TrimSpace(c.Serve.Addr); v != "" {
		return v
	}
	return DefaultServeAddr
}

// ResolvedServeDB defaults to tasks.db under the config dir.
func (c Config) ResolvedServeDB() (string, error) {
	if v := strings.TrimSpace(c.Serve.DB); v != "" {
		return v, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultServeDBRel), nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
