package pool

import (
	"context"

	"github.com/p-arndt/driverpool/internal/capabilities"
)

// Driver is one live remote-controlled browser session.
// The pool tracks drivers by identity, so implementations must be comparable
// (in practice, pointer types).
type Driver interface {
	// IsAlive reports whether the session is still usable. An error means the
	// transport is broken and is treated as not alive.
	IsAlive(ctx context.Context) (bool, error)

	// Quit shuts the session down.
	Quit(ctx context.Context) error
}

// Factory creates a new driver for a capability snapshot.
type Factory func(ctx context.Context, caps capabilities.Capabilities) (Driver, error)

// Recorder observes entries entering and leaving the pool.
// Errors are logged by the pool and never returned to callers.
type Recorder interface {
	RecordCreated(e Entry) error
	RecordRemoved(e Entry, reason RemoveReason) error
}

// identified is implemented by drivers that carry their own ID. The pool
// uses it as the entry ID.
type identified interface {
	ID() string
}
