package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Defaults struct {
	CPULimit      float64 `yaml:"cpu_limit"`
	MemLimitMB    int     `yaml:"mem_limit_mb"`
	ShmSizeMB     int     `yaml:"shm_size_mb"`
	PidsLimit     int     `yaml:"pids_limit"`
	NetworkMode   string  `yaml:"network_mode"`
	WebDriverPort int     `yaml:"webdriver_port"`
	BindAddress   string  `yaml:"bind_address"` // host interface the WebDriver port is published on
}

type PoolConfig struct {
	LivenessTimeoutMs int `yaml:"liveness_timeout_ms"`
	QuitTimeoutMs     int `yaml:"quit_timeout_ms"`
	ShutdownTimeoutMs int `yaml:"shutdown_timeout_ms"`
}

type ReaperConfig struct {
	Enabled            bool `yaml:"enabled"`
	IntervalSeconds    int  `yaml:"interval_seconds"`
	OrphanGraceSeconds int  `yaml:"orphan_grace_seconds"`
}

type Config struct {
	Listen              string            `yaml:"listen"`
	APIKey              string            `yaml:"api_key"`
	DBPath              string            `yaml:"db_path"`
	LogLevel            string            `yaml:"log_level"`
	LogFormat           string            `yaml:"log_format"` // text or json
	Browsers            map[string]string `yaml:"browsers"`   // browserName -> image
	AllowedBrowsers     []string          `yaml:"allowed_browsers"`
	DefaultCapabilities map[string]any    `yaml:"default_capabilities"`
	Defaults            Defaults          `yaml:"defaults"`
	Pool                PoolConfig        `yaml:"pool"`
	Reaper              ReaperConfig      `yaml:"reaper"`
}

func Load(yamlPath string) (*Config, error) {
	cfg := &Config{
		Listen:    "127.0.0.1:4440",
		DBPath:    "./driverpool.db",
		LogLevel:  "info",
		LogFormat: "text",
		Browsers: map[string]string{
			"chrome":        "selenium/standalone-chrome:latest",
			"firefox":       "selenium/standalone-firefox:latest",
			"MicrosoftEdge": "selenium/standalone-edge:latest",
		},
		DefaultCapabilities: map[string]any{
			"browserName": "chrome",
		},
		Defaults: Defaults{
			CPULimit:      1.0,
			MemLimitMB:    2048,
			ShmSizeMB:     2048,
			PidsLimit:     1024,
			NetworkMode:   "bridge",
			WebDriverPort: 4444,
			BindAddress:   "127.0.0.1",
		},
		Pool: PoolConfig{
			LivenessTimeoutMs: 5000,
			QuitTimeoutMs:     30000,
			ShutdownTimeoutMs: 60000,
		},
		Reaper: ReaperConfig{
			Enabled:            true,
			IntervalSeconds:    30,
			OrphanGraceSeconds: 120,
		},
	}

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// ImageFor returns the container image configured for a browser name.
func (c *Config) ImageFor(browser string) (string, bool) {
	image, ok := c.Browsers[browser]
	return image, ok && image != ""
}

func (c *Config) LivenessTimeout() time.Duration {
	return time.Duration(c.Pool.LivenessTimeoutMs) * time.Millisecond
}

func (c *Config) QuitTimeout() time.Duration {
	return time.Duration(c.Pool.QuitTimeoutMs) * time.Millisecond
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Pool.ShutdownTimeoutMs) * time.Millisecond
}

func (c *Config) ReaperInterval() time.Duration {
	return time.Duration(c.Reaper.IntervalSeconds) * time.Second
}

func (c *Config) OrphanGrace() time.Duration {
	return time.Duration(c.Reaper.OrphanGraceSeconds) * time.Second
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DRIVERPOOL_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("DRIVERPOOL_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("DRIVERPOOL_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DRIVERPOOL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DRIVERPOOL_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("DRIVERPOOL_ALLOWED_BROWSERS"); v != "" {
		cfg.AllowedBrowsers = strings.Split(v, ",")
	}
	if v := os.Getenv("DRIVERPOOL_CPU_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Defaults.CPULimit = f
		}
	}
	if v := os.Getenv("DRIVERPOOL_MEM_LIMIT_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Defaults.MemLimitMB = n
		}
	}
	if v := os.Getenv("DRIVERPOOL_SHM_SIZE_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Defaults.ShmSizeMB = n
		}
	}
	if v := os.Getenv("DRIVERPOOL_PIDS_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Defaults.PidsLimit = n
		}
	}
	if v := os.Getenv("DRIVERPOOL_NETWORK_MODE"); v != "" {
		cfg.Defaults.NetworkMode = v
	}
	if v := os.Getenv("DRIVERPOOL_LIVENESS_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.LivenessTimeoutMs = n
		}
	}
	if v := os.Getenv("DRIVERPOOL_QUIT_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.QuitTimeoutMs = n
		}
	}
	if v := os.Getenv("DRIVERPOOL_REAPER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Reaper.Enabled = b
		}
	}
	if v := os.Getenv("DRIVERPOOL_REAPER_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Reaper.IntervalSeconds = n
		}
	}
}
