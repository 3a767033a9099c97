package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-arndt/driverpool/internal/capabilities"
)

var (
	// ErrNotOwned is returned by Dismiss for a driver this pool does not track.
	// It signals a caller bug, not a recoverable condition.
	ErrNotOwned = errors.New("driver is not owned by this pool")

	ErrNoFactory = errors.New("no driver factory configured")
	ErrNilDriver = errors.New("driver factory returned nil driver")
)

// RemoveReason says why an entry left the pool.
type RemoveReason string

const (
	ReasonDismissed RemoveReason = "dismissed"
	ReasonDead      RemoveReason = "dead"
)

// Entry describes one tracked driver.
type Entry struct {
	ID           string
	Fingerprint  capabilities.Fingerprint
	Capabilities capabilities.Capabilities
	Driver       Driver
	CreatedAt    time.Time
}

// Config configures a Pool.
type Config struct {
	Factory  Factory
	Recorder Recorder

	// LivenessTimeout bounds each IsAlive call; a timeout counts as dead.
	LivenessTimeout time.Duration
	// QuitTimeout bounds each Quit call.
	QuitTimeout time.Duration
}

// Pool keeps at most one live driver per distinct capability set.
// Drivers are validated lazily on access; idle entries are never polled.
type Pool struct {
	logger          *slog.Logger
	recorder        Recorder
	livenessTimeout time.Duration
	quitTimeout     time.Duration

	factoryMu sync.RWMutex
	factory   Factory

	mu      sync.Mutex
	entries map[capabilities.Fingerprint]*Entry

	// Serializes get-or-create and dismiss per fingerprint.
	keys keyedMutex
}

func New(cfg Config, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pool{
		logger:          logger,
		recorder:        cfg.Recorder,
		livenessTimeout: cfg.LivenessTimeout,
		quitTimeout:     cfg.QuitTimeout,
		factory:         cfg.Factory,
		entries:         make(map[capabilities.Fingerprint]*Entry),
	}
}

// SetFactory replaces the factory used for subsequent creations.
func (p *Pool) SetFactory(f Factory) {
	p.factoryMu.Lock()
	defer p.factoryMu.Unlock()
	p.factory = f
}

func (p *Pool) currentFactory() Factory {
	p.factoryMu.RLock()
	defer p.factoryMu.RUnlock()
	return p.factory
}

// GetOrCreate returns the tracked driver for caps if it is still alive, and
// otherwise creates, tracks and returns a new one. Repeated calls with equal
// capabilities return the same driver instance. Factory errors are returned
// unchanged.
func (p *Pool) GetOrCreate(ctx context.Context, caps capabilities.Capabilities) (Driver, error) {
	snap, fp, err := caps.Snapshot()
	if err != nil {
		return nil, err
	}

	unlock := p.keys.lock(fp)
	defer unlock()

	if cur := p.lookup(fp); cur != nil {
		if p.isAlive(ctx, cur) {
			if p.tracked(cur) {
				p.logger.Debug("reusing driver", "driver_id", cur.ID, "fingerprint", fp)
				return cur.Driver, nil
			}
		} else if p.remove(cur) {
			p.logger.Info("driver is dead, recreating", "driver_id", cur.ID, "fingerprint", fp)
			p.recordRemoved(cur, ReasonDead)
			if err := p.quit(ctx, cur); err != nil {
				p.logger.Debug("quit dead driver", "driver_id", cur.ID, "error", err)
			}
		}
	}

	factory := p.currentFactory()
	if factory == nil {
		return nil, ErrNoFactory
	}

	d, err := factory(ctx, snap.Clone())
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNilDriver
	}

	e := &Entry{
		ID:           entryID(d),
		Fingerprint:  fp,
		Capabilities: snap,
		Driver:       d,
		CreatedAt:    time.Now().UTC(),
	}

	// Recorded before the entry is visible so a concurrent DismissAll can
	// never record its removal first.
	if p.recorder != nil {
		if err := p.recorder.RecordCreated(e.snapshot()); err != nil {
			p.logger.Error("record driver created", "driver_id", e.ID, "error", err)
		}
	}

	p.mu.Lock()
	p.entries[fp] = e
	p.mu.Unlock()

	p.logger.Info("created driver", "driver_id", e.ID, "fingerprint", fp, "browser", snap.BrowserName())
	return d, nil
}

// entryID reuses the driver's own ID when it has one, so container labels
// and pool entries agree.
func entryID(d Driver) string {
	if id, ok := d.(identified); ok {
		if v := id.ID(); v != "" {
			return v
		}
	}
	return uuid.New().String()[:12]
}

// Dismiss stops tracking d and quits it. The entry is removed even when Quit
// fails; the Quit error is then returned. Dismissing a driver the pool does
// not track returns ErrNotOwned.
func (p *Pool) Dismiss(ctx context.Context, d Driver) error {
	e := p.find(d)
	if e == nil {
		return ErrNotOwned
	}

	unlock := p.keys.lock(e.Fingerprint)
	defer unlock()

	if !p.remove(e) {
		return ErrNotOwned
	}
	p.recordRemoved(e, ReasonDismissed)

	if err := p.quit(ctx, e); err != nil {
		p.logger.Warn("dismissed driver failed to quit", "driver_id", e.ID, "error", err)
		return err
	}
	p.logger.Info("dismissed driver", "driver_id", e.ID, "fingerprint", e.Fingerprint)
	return nil
}

// DismissAll stops tracking every driver and quits each of them. A failing
// Quit does not stop the others; all failures are returned joined.
func (p *Pool) DismissAll(ctx context.Context) error {
	_, err := p.Drain(ctx)
	return err
}

// Drain is DismissAll that also reports how many drivers it untracked.
func (p *Pool) Drain(ctx context.Context) (int, error) {
	p.mu.Lock()
	entries := make([]*Entry, 0, len(p.entries))
	for _, e := range p.entries {
		entries = append(entries, e)
	}
	clear(p.entries)
	p.mu.Unlock()

	slices.SortFunc(entries, func(a, b *Entry) int { return a.CreatedAt.Compare(b.CreatedAt) })

	var errs []error
	for _, e := range entries {
		p.recordRemoved(e, ReasonDismissed)
		if err := p.quit(ctx, e); err != nil {
			p.logger.Warn("driver failed to quit", "driver_id", e.ID, "error", err)
			errs = append(errs, fmt.Errorf("quit driver %s: %w", e.ID, err))
		}
	}

	if len(entries) > 0 {
		p.logger.Info("dismissed all drivers", "count", len(entries), "failed", len(errs))
	}
	return len(entries), errors.Join(errs...)
}

// IsEmpty reports whether the pool tracks no drivers.
func (p *Pool) IsEmpty() bool {
	return p.Len() == 0
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Entries returns a snapshot of tracked entries, oldest first.
func (p *Pool) Entries() []Entry {
	p.mu.Lock()
	out := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e.snapshot())
	}
	p.mu.Unlock()

	slices.SortFunc(out, func(a, b Entry) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

// Lookup returns the tracked entry with the given ID.
func (p *Pool) Lookup(id string) (Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		if e.ID == id {
			return e.snapshot(), true
		}
	}
	return Entry{}, false
}

func (p *Pool) lookup(fp capabilities.Fingerprint) *Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entries[fp]
}

func (p *Pool) find(d Driver) *Entry {
	if d == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		if e.Driver == d {
			return e
		}
	}
	return nil
}

func (p *Pool) tracked(e *Entry) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entries[e.Fingerprint] == e
}

// remove deletes e if it is still the entry for its fingerprint.
func (p *Pool) remove(e *Entry) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.entries[e.Fingerprint] != e {
		return false
	}
	delete(p.entries, e.Fingerprint)
	return true
}

func (p *Pool) isAlive(ctx context.Context, e *Entry) bool {
	if p.livenessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.livenessTimeout)
		defer cancel()
	}
	alive, err := e.Driver.IsAlive(ctx)
	if err != nil {
		p.logger.Warn("liveness check failed, treating driver as dead", "driver_id", e.ID, "error", err)
		return false
	}
	return alive
}

func (p *Pool) quit(ctx context.Context, e *Entry) error {
	if p.quitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.quitTimeout)
		defer cancel()
	}
	return e.Driver.Quit(ctx)
}

func (p *Pool) recordRemoved(e *Entry, reason RemoveReason) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordRemoved(e.snapshot(), reason); err != nil {
		p.logger.Error("record driver removed", "driver_id", e.ID, "reason", reason, "error", err)
	}
}

func (e *Entry) snapshot() Entry {
	out := *e
	out.Capabilities = e.Capabilities.Clone()
	return out
}
