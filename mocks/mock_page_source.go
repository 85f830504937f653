package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/koenigleon/oads-download/internal/query"
	"github.com/koenigleon/oads-download/internal/search"
)

// MockPageSource is a mock implementation of the PageSource interface
type MockPageSource struct {
	mock.Mock
}

// FetchPage mocks the FetchPage method
func (m *MockPageSource) FetchPage(ctx context.Context, collection string, params query.Params, startIndex int) (*search.Page, error) {
	args := m.Called(ctx, collection, params, startIndex)
	if page, ok := args.Get(0).(*search.Page); ok {
		return page, args.Error(1)
	}
	return nil, args.Error(1)
}
