package narrative

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/wattshift/wattshift/pkg/types"
)

// MockGenerator is a testify mock for the Generator interface.
type MockGenerator struct {
	mock.Mock
}

var _ Generator = (*MockGenerator)(nil)

func (m *MockGenerator) Explain(ctx context.Context, req types.ExplainRequest) (types.Explanation, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(types.Explanation), args.Error(1)
}
