package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/p-arndt/driverpool/internal/capabilities"
	"github.com/p-arndt/driverpool/internal/store"
	"github.com/p-arndt/driverpool/protocol"
)

type MockDriverService struct {
	mock.Mock
}

func (m *MockDriverService) Acquire(ctx context.Context, caps capabilities.Capabilities) (*protocol.DriverInfo, error) {
	args := m.Called(ctx, caps)
	if info := args.Get(0); info != nil {
		return info.(*protocol.DriverInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDriverService) Get(ctx context.Context, id string) (*protocol.DriverInfo, error) {
	args := m.Called(ctx, id)
	if info := args.Get(0); info != nil {
		return info.(*protocol.DriverInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDriverService) List(ctx context.Context) ([]protocol.DriverInfo, error) {
	args := m.Called(ctx)
	if drivers := args.Get(0); drivers != nil {
		return drivers.([]protocol.DriverInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDriverService) Release(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDriverService) ReleaseAll(ctx context.Context) (*protocol.DismissAllResult, error) {
	args := m.Called(ctx)
	if result := args.Get(0); result != nil {
		return result.(*protocol.DismissAllResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDriverService) History(ctx context.Context) ([]*store.Driver, error) {
	args := m.Called(ctx)
	if records := args.Get(0); records != nil {
		return records.([]*store.Driver), args.Error(1)
	}
	return nil, args.Error(1)
}
