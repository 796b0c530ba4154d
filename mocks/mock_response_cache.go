package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockResponseCache is a mock implementation of port.ResponseCache.
type MockResponseCache struct {
	mock.Mock
}

func (m *MockResponseCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockResponseCache) Put(ctx context.Context, key, model, response string) error {
	args := m.Called(ctx, key, model, response)
	return args.Error(0)
}

func (m *MockResponseCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
