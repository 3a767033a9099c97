package reaper

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/p-arndt/driverpool/internal/docker"
	"github.com/p-arndt/driverpool/internal/pool"
	"github.com/p-arndt/driverpool/internal/store"
)

// MockReaperStore mocks the ReaperStore interface.
type MockReaperStore struct {
	mock.Mock
}

func (m *MockReaperStore) ListLiveDrivers() ([]*store.Driver, error) {
	args := m.Called()
	if drivers := args.Get(0); drivers != nil {
		return drivers.([]*store.Driver), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReaperStore) MarkEnded(id string, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}

// MockReaperDocker mocks the ReaperDocker interface.
type MockReaperDocker struct {
	mock.Mock
}

func (m *MockReaperDocker) RemoveContainer(ctx context.Context, containerID string) error {
	args := m.Called(ctx, containerID)
	return args.Error(0)
}

func (m *MockReaperDocker) ListManagedContainers(ctx context.Context) ([]docker.ContainerInfo, error) {
	args := m.Called(ctx)
	if containers := args.Get(0); containers != nil {
		return containers.([]docker.ContainerInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

type staticTracker []pool.Entry

func (t staticTracker) Entries() []pool.Entry { return t }

type containerDriver struct {
	id string
}

func (d *containerDriver) IsAlive(ctx context.Context) (bool, error) { return true, nil }
func (d *containerDriver) Quit(ctx context.Context) error            { return nil }
func (d *containerDriver) ContainerID() string                       { return d.id }
