package mocks

import (
	"github.com/stretchr/testify/mock"

	"prodnorm/internal/domain"
)

// MockRowSink is a mock implementation of port.RowSink.
type MockRowSink struct {
	mock.Mock
}

func (m *MockRowSink) WriteRow(row domain.Row) error {
	args := m.Called(row)
	return args.Error(0)
}
