package session

import (
	"context"

	"github.com/p-arndt/driverpool/internal/capabilities"
	"github.com/p-arndt/driverpool/internal/pool"
	"github.com/p-arndt/driverpool/internal/store"
)

type DriverPool interface {
	GetOrCreate(ctx context.Context, caps capabilities.Capabilities) (pool.Driver, error)
	Dismiss(ctx context.Context, d pool.Driver) error
	Drain(ctx context.Context) (int, error)
	Entries() []pool.Entry
	Lookup(id string) (pool.Entry, bool)
}

type LedgerStore interface {
	CreateDriver(d *store.Driver) error
	MarkEnded(id string, status string) error
	ListDrivers() ([]*store.Driver, error)
}
