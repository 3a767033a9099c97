package reaper

import (
	"context"

	"github.com/p-arndt/driverpool/internal/docker"
	"github.com/p-arndt/driverpool/internal/pool"
	"github.com/p-arndt/driverpool/internal/store"
)

// ReaperStore abstracts store operations needed by the reaper.
type ReaperStore interface {
	ListLiveDrivers() ([]*store.Driver, error)
	MarkEnded(id string, status string) error
}

// ReaperDocker abstracts docker operations needed by the reaper.
type ReaperDocker interface {
	RemoveContainer(ctx context.Context, containerID string) error
	ListManagedContainers(ctx context.Context) ([]docker.ContainerInfo, error)
}

// Tracker reports the drivers currently held by the pool.
type Tracker interface {
	Entries() []pool.Entry
}
