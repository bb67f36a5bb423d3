package storagemock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/wattshift/wattshift/pkg/storage"
	"github.com/wattshift/wattshift/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) CreatePlan(ctx context.Context, ownerID string, plan types.Plan) error {
	args := m.Called(ctx, ownerID, plan)
	return args.Error(0)
}

func (m *MockDatabase) GetPlan(ctx context.Context, ownerID, planID string) (types.Plan, error) {
	args := m.Called(ctx, ownerID, planID)
	if len(args) > 0 {
		return args.Get(0).(types.Plan), args.Error(1)
	}
	return types.Plan{}, nil
}

func (m *MockDatabase) GetActivePlan(ctx context.Context, ownerID string) (types.Plan, error) {
	args := m.Called(ctx, ownerID)
	if len(args) > 0 {
		return args.Get(0).(types.Plan), args.Error(1)
	}
	return types.Plan{}, nil
}

func (m *MockDatabase) ListPlans(ctx context.Context, ownerID string, start, end time.Time) ([]types.Plan, error) {
	args := m.Called(ctx, ownerID, start, end)
	if len(args) > 0 {
		return args.Get(0).([]types.Plan), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) UpdatePlanStatus(ctx context.Context, ownerID, planID string, status types.PlanStatus) (types.Plan, error) {
	args := m.Called(ctx, ownerID, planID, status)
	if len(args) > 0 {
		return args.Get(0).(types.Plan), args.Error(1)
	}
	return types.Plan{}, nil
}

func (m *MockDatabase) CancelActivePlans(ctx context.Context, ownerID string) ([]types.Plan, error) {
	args := m.Called(ctx, ownerID)
	if len(args) > 0 {
		return args.Get(0).([]types.Plan), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
