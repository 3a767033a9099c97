package api

import (
	"context"

	"github.com/p-arndt/driverpool/internal/capabilities"
	"github.com/p-arndt/driverpool/internal/store"
	"github.com/p-arndt/driverpool/protocol"
)

// DriverService abstracts the driver operations needed by API handlers.
type DriverService interface {
	Acquire(ctx context.Context, caps capabilities.Capabilities) (*protocol.DriverInfo, error)
	Get(ctx context.Context, id string) (*protocol.DriverInfo, error)
	List(ctx context.Context) ([]protocol.DriverInfo, error)
	Release(ctx context.Context, id string) error
	ReleaseAll(ctx context.Context) (*protocol.DismissAllResult, error)
	History(ctx context.Context) ([]*store.Driver, error)
}
