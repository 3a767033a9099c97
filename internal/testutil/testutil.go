package testutil

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/p-arndt/driverpool/internal/config"
	"github.com/p-arndt/driverpool/internal/store"
)

// TestConfig returns a Config with sensible test defaults.
func TestConfig() *config.Config {
	return &config.Config{
		Listen:    "127.0.0.1:0",
		APIKey:    "test-api-key",
		DBPath:    ":memory:",
		LogLevel:  "error",
		LogFormat: "text",
		Browsers: map[string]string{
			"chrome":  "selenium/standalone-chrome:latest",
			"firefox": "selenium/standalone-firefox:latest",
			"FAKE":    "fake-browser:test",
		},
		AllowedBrowsers:     []string{"chrome", "firefox", "FAKE"},
		DefaultCapabilities: map[string]any{"browserName": "chrome"},
		Defaults: config.Defaults{
			CPULimit:      1.0,
			MemLimitMB:    2048,
			ShmSizeMB:     2048,
			PidsLimit:     1024,
			NetworkMode:   "bridge",
			WebDriverPort: 4444,
			BindAddress:   "127.0.0.1",
		},
		Pool: config.PoolConfig{
			LivenessTimeoutMs: 1000,
			QuitTimeoutMs:     1000,
			ShutdownTimeoutMs: 5000,
		},
		Reaper: config.ReaperConfig{
			Enabled:            false,
			IntervalSeconds:    30,
			OrphanGraceSeconds: 120,
		},
	}
}

func TestDriverRecord(id string) *store.Driver {
	return &store.Driver{
		ID:           id,
		Fingerprint:  "0123456789abcdef",
		Browser:      "chrome",
		Capabilities: `{"browserName":"chrome"}`,
		ContainerID:  "container-" + id,
		Endpoint:     "http://127.0.0.1:49153",
		Status:       store.StatusLive,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestStore creates an in-memory SQLite store for testing.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(":memory:", 0)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// Logger returns a logger that only prints errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
