package session

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/p-arndt/driverpool/internal/capabilities"
	"github.com/p-arndt/driverpool/internal/pool"
	"github.com/p-arndt/driverpool/internal/store"
)

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) CreateDriver(d *store.Driver) error {
	args := m.Called(d)
	return args.Error(0)
}

func (m *MockLedgerStore) MarkEnded(id string, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockLedgerStore) ListDrivers() ([]*store.Driver, error) {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.([]*store.Driver), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockDriverPool struct {
	mock.Mock
}

func (m *MockDriverPool) GetOrCreate(ctx context.Context, caps capabilities.Capabilities) (pool.Driver, error) {
	args := m.Called(ctx, caps)
	if d := args.Get(0); d != nil {
		return d.(pool.Driver), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDriverPool) Dismiss(ctx context.Context, d pool.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverPool) Drain(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockDriverPool) Entries() []pool.Entry {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.([]pool.Entry)
	}
	return nil
}

func (m *MockDriverPool) Lookup(id string) (pool.Entry, bool) {
	args := m.Called(id)
	return args.Get(0).(pool.Entry), args.Bool(1)
}
