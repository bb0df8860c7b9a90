// Package config loads the tracker's YAML configuration. Files are read with
// viper so every key can be overridden from the environment, and written with
// yaml.v3 when a first run creates the defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. TRACKER_LISTEN.
const EnvPrefix = "TRACKER"

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `mapstructure:"listen" yaml:"listen"`

	// DataFile is the CSV snapshot path. Empty disables file persistence.
	DataFile string `mapstructure:"data_file" yaml:"data_file"`

	// DatabaseURL enables the Postgres mirror and journal when set.
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`

	// MirrorCron is the cron schedule for writing the snapshot to Postgres.
	MirrorCron string `mapstructure:"mirror_cron" yaml:"mirror_cron"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Journal toggles the mutation journal.
	Journal bool `mapstructure:"journal" yaml:"journal"`

	// WebDir holds the dashboard WASM build served at /. Empty disables it.
	WebDir string `mapstructure:"web_dir" yaml:"web_dir"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:          ":8080",
		DataFile:        "tasks.csv",
		MirrorCron:      "*/5 * * * *",
		ShutdownTimeout: 10 * time.Second,
		Journal:         true,
		WebDir:          "web",
	}
}

// Normalize fills zero values that have no meaningful zero setting.
// DataFile and DatabaseURL stay empty when unset since empty disables them.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.MirrorCron == "" {
		c.MirrorCron = d.MirrorCron
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// Load reads the configuration at path, then applies TRACKER_* environment
// overrides, DATABASE_URL and PORT. When path is set but missing, the
// defaults are written there first. An empty path uses defaults plus
// environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if err := Save(path, DefaultConfig()); err != nil {
				return nil, fmt.Errorf("write default config: %w", err)
			}
		case err != nil:
			return nil, err
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Listen = withPort(cfg.Listen, port)
	}
	cfg.Normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("listen", d.Listen)
	v.SetDefault("data_file", d.DataFile)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("mirror_cron", d.MirrorCron)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("journal", d.Journal)
	v.SetDefault("web_dir", d.WebDir)
}

// withPort replaces the port of a host:port listen address.
func withPort(listen, port string) string {
	host, _, err := net.SplitHostPort(listen)
	if err != nil {
		host = ""
	}
	return net.JoinHostPort(host, port)
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tracker-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
