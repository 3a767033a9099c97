package pool

import (
	"github.com/stretchr/testify/mock"
)

// MockRecorder mocks the Recorder interface.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordCreated(e Entry) error {
	args := m.Called(e)
	return args.Error(0)
}

func (m *MockRecorder) RecordRemoved(e Entry, reason RemoveReason) error {
	args := m.Called(e, reason)
	return args.Error(0)
}
