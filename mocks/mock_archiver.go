package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockArchiver is a mock implementation of the Archiver interface
type MockArchiver struct {
	mock.Mock
}

// Archive mocks the Archive method
func (m *MockArchiver) Archive(ctx context.Context, localPath, key string) error {
	args := m.Called(ctx, localPath, key)
	return args.Error(0)
}
