package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4440", cfg.Listen)
	assert.Equal(t, "./driverpool.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "chrome", cfg.DefaultCapabilities["browserName"])
	assert.Equal(t, 1.0, cfg.Defaults.CPULimit)
	assert.Equal(t, 2048, cfg.Defaults.MemLimitMB)
	assert.Equal(t, 2048, cfg.Defaults.ShmSizeMB)
	assert.Equal(t, 4444, cfg.Defaults.WebDriverPort)
	assert.Equal(t, "127.0.0.1", cfg.Defaults.BindAddress)
	assert.Equal(t, 5*time.Second, cfg.LivenessTimeout())
	assert.Equal(t, 30*time.Second, cfg.QuitTimeout())
	assert.Equal(t, time.Minute, cfg.ShutdownTimeout())
	assert.True(t, cfg.Reaper.Enabled)
	assert.Equal(t, 30*time.Second, cfg.ReaperInterval())
	assert.Equal(t, 2*time.Minute, cfg.OrphanGrace())

	image, ok := cfg.ImageFor("chrome")
	assert.True(t, ok)
	assert.Equal(t, "selenium/standalone-chrome:latest", image)
}

func TestLoadYAML(t *testing.T) {
	yamlContent := `
listen: "0.0.0.0:9090"
api_key: "sk-test"
log_level: debug
browsers:
  chrome: "registry.local/chrome:126"
allowed_browsers: [chrome]
default_capabilities:
  browserName: chrome
  acceptInsecureCerts: true
defaults:
  cpu_limit: 2.0
  shm_size_mb: 1024
pool:
  liveness_timeout_ms: 1500
reaper:
  enabled: false
`
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "test.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlContent), 0644))

	cfg, err := Load(yamlPath)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Listen)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, []string{"chrome"}, cfg.AllowedBrowsers)
	assert.Equal(t, true, cfg.DefaultCapabilities["acceptInsecureCerts"])
	assert.Equal(t, 2.0, cfg.Defaults.CPULimit)
	assert.Equal(t, 1024, cfg.Defaults.ShmSizeMB)
	assert.Equal(t, 1500*time.Millisecond, cfg.LivenessTimeout())
	assert.False(t, cfg.Reaper.Enabled)

	image, ok := cfg.ImageFor("chrome")
	assert.True(t, ok)
	assert.Equal(t, "registry.local/chrome:126", image)

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadYAMLMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	// Non-existent file is not an error (silently uses defaults)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4440", cfg.Listen)
}

func TestLoadYAMLInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "bad.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("{{{{invalid yaml"), 0644))

	_, err := Load(yamlPath)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DRIVERPOOL_LISTEN", "0.0.0.0:7777")
	t.Setenv("DRIVERPOOL_API_KEY", "env-key")
	t.Setenv("DRIVERPOOL_DB_PATH", "/tmp/test.db")
	t.Setenv("DRIVERPOOL_LOG_LEVEL", "warn")
	t.Setenv("DRIVERPOOL_LOG_FORMAT", "json")
	t.Setenv("DRIVERPOOL_ALLOWED_BROWSERS", "chrome,firefox")
	t.Setenv("DRIVERPOOL_CPU_LIMIT", "0.5")
	t.Setenv("DRIVERPOOL_MEM_LIMIT_MB", "1024")
	t.Setenv("DRIVERPOOL_SHM_SIZE_MB", "512")
	t.Setenv("DRIVERPOOL_PIDS_LIMIT", "128")
	t.Setenv("DRIVERPOOL_NETWORK_MODE", "none")
	t.Setenv("DRIVERPOOL_LIVENESS_TIMEOUT_MS", "250")
	t.Setenv("DRIVERPOOL_QUIT_TIMEOUT_MS", "750")
	t.Setenv("DRIVERPOOL_REAPER_ENABLED", "false")
	t.Setenv("DRIVERPOOL_REAPER_INTERVAL_SECONDS", "5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:7777", cfg.Listen)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"chrome", "firefox"}, cfg.AllowedBrowsers)
	assert.Equal(t, 0.5, cfg.Defaults.CPULimit)
	assert.Equal(t, 1024, cfg.Defaults.MemLimitMB)
	assert.Equal(t, 512, cfg.Defaults.ShmSizeMB)
	assert.Equal(t, 128, cfg.Defaults.PidsLimit)
	assert.Equal(t, "none", cfg.Defaults.NetworkMode)
	assert.Equal(t, 250*time.Millisecond, cfg.LivenessTimeout())
	assert.Equal(t, 750*time.Millisecond, cfg.QuitTimeout())
	assert.False(t, cfg.Reaper.Enabled)
	assert.Equal(t, 5*time.Second, cfg.ReaperInterval())
}

func TestEnvOverridesYAML(t *testing.T) {
	yamlContent := `
listen: "127.0.0.1:4440"
api_key: "yaml-key"
`
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "test.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlContent), 0644))

	t.Setenv("DRIVERPOOL_API_KEY", "env-key")

	cfg, err := Load(yamlPath)
	require.NoError(t, err)

	// Env should override YAML
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "127.0.0.1:4440", cfg.Listen)
}

func TestEnvOverrideInvalidValues(t *testing.T) {
	t.Setenv("DRIVERPOOL_MEM_LIMIT_MB", "not-a-number")
	t.Setenv("DRIVERPOOL_CPU_LIMIT", "not-a-float")

	cfg, err := Load("")
	require.NoError(t, err)

	// Invalid values are ignored, keeping defaults
	assert.Equal(t, 2048, cfg.Defaults.MemLimitMB)
	assert.Equal(t, 1.0, cfg.Defaults.CPULimit)
}

func TestImageForUnknownBrowser(t *testing.T) {
	cfg := &Config{Browsers: map[string]string{"chrome": "", "firefox": "ff:1"}}

	_, ok := cfg.ImageFor("safari")
	assert.False(t, ok)
	_, ok = cfg.ImageFor("chrome")
	assert.False(t, ok, "empty image is treated as unconfigured")
	image, ok := cfg.ImageFor("firefox")
	assert.True(t, ok)
	assert.Equal(t, "ff:1", image)
}

func TestSlogLevelInvalid(t *testing.T) {
	cfg := &Config{LogLevel: "chatty"}
	lvl, err := cfg.SlogLevel()
	assert.Error(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}
