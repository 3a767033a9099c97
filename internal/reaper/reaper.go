package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/p-arndt/driverpool/internal/store"
)

type containerBacked interface {
	ContainerID() string
}

// Reaper removes managed containers that no pool entry accounts for.
// The pool itself never polls idle drivers; this is the only background
// cleanup in the daemon.
type Reaper struct {
	store    ReaperStore
	docker   ReaperDocker
	tracker  Tracker
	interval time.Duration
	grace    time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func New(st ReaperStore, dk ReaperDocker, interval, grace time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		store:    st,
		docker:   dk,
		interval: interval,
		grace:    grace,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *Reaper) SetTracker(t Tracker) {
	r.tracker = t
}

func (r *Reaper) Run(ctx context.Context) {
	r.logger.Info("reaper started", "interval", r.interval, "grace", r.grace)

	r.reconcile(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

// reconcile marks ledger rows left live by a previous process as orphaned.
func (r *Reaper) reconcile(ctx context.Context) {
	r.logger.Info("reconciliation starting")

	live, err := r.store.ListLiveDrivers()
	if err != nil {
		r.logger.Error("reconcile: list live drivers", "error", err)
		return
	}

	tracked := r.trackedDrivers()
	orphaned := 0
	for _, d := range live {
		if _, ok := tracked[d.ID]; ok {
			continue
		}
		if err := r.store.MarkEnded(d.ID, store.StatusOrphaned); err != nil {
			r.logger.Error("reconcile: mark orphaned", "driver_id", d.ID, "error", err)
			continue
		}
		orphaned++
	}

	r.logger.Info("reconciliation complete", "orphaned", orphaned)
}

// sweep removes untracked managed containers older than the grace period.
func (r *Reaper) sweep(ctx context.Context) {
	containers, err := r.docker.ListManagedContainers(ctx)
	if err != nil {
		r.logger.Error("reaper: list containers", "error", err)
		return
	}

	trackedContainers := r.trackedContainers()
	live := r.liveByContainer()
	cutoff := r.now().Add(-r.grace)

	removed := 0
	for _, c := range containers {
		if _, ok := trackedContainers[c.ContainerID]; ok {
			continue
		}
		if c.CreatedAt.After(cutoff) {
			continue
		}

		r.logger.Info("reaping orphaned container", "container_id", c.ContainerID, "driver_id", c.DriverID)
		if err := r.docker.RemoveContainer(ctx, c.ContainerID); err != nil {
			r.logger.Error("reaper: remove container", "container_id", c.ContainerID, "error", err)
			continue
		}
		removed++

		if id, ok := live[c.ContainerID]; ok {
			if err := r.store.MarkEnded(id, store.StatusOrphaned); err != nil {
				r.logger.Error("reaper: mark orphaned", "driver_id", id, "error", err)
			}
		}
	}

	if removed > 0 {
		r.logger.Info("reaper: removed containers", "count", removed)
	}
}

func (r *Reaper) trackedDrivers() map[string]struct{} {
	out := make(map[string]struct{})
	if r.tracker == nil {
		return out
	}
	for _, e := range r.tracker.Entries() {
		out[e.ID] = struct{}{}
	}
	return out
}

func (r *Reaper) trackedContainers() map[string]struct{} {
	out := make(map[string]struct{})
	if r.tracker == nil {
		return out
	}
	for _, e := range r.tracker.Entries() {
		if c, ok := e.Driver.(containerBacked); ok {
			out[c.ContainerID()] = struct{}{}
		}
	}
	return out
}

// liveByContainer maps container IDs of live ledger rows to their driver IDs.
func (r *Reaper) liveByContainer() map[string]string {
	out := make(map[string]string)
	live, err := r.store.ListLiveDrivers()
	if err != nil {
		r.logger.Warn("reaper: list live drivers", "error", err)
		return out
	}
	for _, d := range live {
		if d.ContainerID != "" {
			out[d.ContainerID] = d.ID
		}
	}
	return out
}
