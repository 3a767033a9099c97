package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/p-arndt/driverpool/internal/capabilities"
	"github.com/p-arndt/driverpool/internal/config"
	"github.com/p-arndt/driverpool/internal/pool"
	"github.com/p-arndt/driverpool/internal/store"
	"github.com/p-arndt/driverpool/protocol"
)

type endpointer interface {
	Endpoint() string
}

type containerBacked interface {
	ContainerID() string
}

type Manager struct {
	cfg    *config.Config
	pool   DriverPool
	store  LedgerStore
	logger *slog.Logger
}

func NewManager(cfg *config.Config, p DriverPool, st LedgerStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		cfg:    cfg,
		pool:   p,
		store:  st,
		logger: logger,
	}
}

// Acquire returns the pooled driver for caps merged over the configured
// default capabilities, creating one if needed.
func (m *Manager) Acquire(ctx context.Context, caps capabilities.Capabilities) (*protocol.DriverInfo, error) {
	merged := capabilities.Merge(m.cfg.DefaultCapabilities, caps)

	browser := merged.BrowserName()
	if !m.isBrowserAllowed(browser) {
		return nil, fmt.Errorf("%w: %q", ErrBrowserNotAllowed, browser)
	}

	d, err := m.pool.GetOrCreate(ctx, merged)
	if err != nil {
		return nil, fmt.Errorf("acquire driver: %w", err)
	}

	for _, e := range m.pool.Entries() {
		if e.Driver == d {
			m.logger.Debug("acquired driver", "driver_id", e.ID, "fingerprint", e.Fingerprint)
			return infoFromEntry(e), nil
		}
	}
	// Dismissed by another caller before we could describe it.
	return nil, fmt.Errorf("%w: released during acquire", ErrNotFound)
}

func (m *Manager) Get(ctx context.Context, id string) (*protocol.DriverInfo, error) {
	e, ok := m.pool.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return infoFromEntry(e), nil
}

func (m *Manager) List(ctx context.Context) ([]protocol.DriverInfo, error) {
	entries := m.pool.Entries()
	result := make([]protocol.DriverInfo, len(entries))
	for i, e := range entries {
		result[i] = *infoFromEntry(e)
	}
	return result, nil
}

// Release dismisses the driver with the given ID.
func (m *Manager) Release(ctx context.Context, id string) error {
	e, ok := m.pool.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	err := m.pool.Dismiss(ctx, e.Driver)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pool.ErrNotOwned):
		m.logger.Debug("driver released concurrently", "driver_id", id)
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	default:
		return fmt.Errorf("%w: %s: %w", ErrQuitFailed, id, err)
	}
}

// ReleaseAll dismisses every tracked driver. The result is always set; the
// error is non-nil when any driver failed to quit.
func (m *Manager) ReleaseAll(ctx context.Context) (*protocol.DismissAllResult, error) {
	n, err := m.pool.Drain(ctx)
	result := &protocol.DismissAllResult{Dismissed: n}
	if err == nil {
		return result, nil
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			result.Errors = append(result.Errors, e.Error())
		}
	} else {
		result.Errors = []string{err.Error()}
	}
	return result, fmt.Errorf("%w: %w", ErrQuitFailed, err)
}

// History returns every ledger record, newest first.
func (m *Manager) History(ctx context.Context) ([]*store.Driver, error) {
	return m.store.ListDrivers()
}

func (m *Manager) isBrowserAllowed(browser string) bool {
	if len(m.cfg.AllowedBrowsers) == 0 {
		return true
	}
	return slices.Contains(m.cfg.AllowedBrowsers, browser)
}

func infoFromEntry(e pool.Entry) *protocol.DriverInfo {
	info := &protocol.DriverInfo{
		ID:           e.ID,
		Fingerprint:  e.Fingerprint.String(),
		Browser:      e.Capabilities.BrowserName(),
		Capabilities: e.Capabilities,
		CreatedAt:    e.CreatedAt,
	}
	if c, ok := e.Driver.(containerBacked); ok {
		info.ContainerID = c.ContainerID()
	}
	if ep, ok := e.Driver.(endpointer); ok {
		info.Endpoint = ep.Endpoint()
	}
	return info
}
