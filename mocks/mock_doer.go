package mocks

import (
	"net/http"

	"github.com/stretchr/testify/mock"
)

// MockDoer is a mock implementation of the Doer interface used by the
// search source and the download pipeline.
type MockDoer struct {
	mock.Mock
}

// Do mocks the Do method
func (m *MockDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if resp, ok := args.Get(0).(*http.Response); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}
