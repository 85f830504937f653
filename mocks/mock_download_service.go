package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/koenigleon/oads-download/internal/domain"
)

// MockDownloadService is a mock implementation of the DownloadService interface
type MockDownloadService struct {
	mock.Mock
}

// Download mocks the Download method
func (m *MockDownloadService) Download(ctx context.Context, record domain.ProductRecord) domain.DownloadResult {
	args := m.Called(ctx, record)
	if result, ok := args.Get(0).(domain.DownloadResult); ok {
		return result
	}
	return domain.DownloadResult{}
}
