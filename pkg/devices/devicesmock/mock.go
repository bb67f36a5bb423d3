package devicesmock

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/wattshift/wattshift/pkg/devices"
	"github.com/wattshift/wattshift/pkg/types"
)

type MockRegistry struct {
	mock.Mock
}

var _ devices.Registry = (*MockRegistry)(nil)

func (m *MockRegistry) ListDevices(ctx context.Context, ownerID string) ([]types.Device, error) {
	args := m.Called(ctx, ownerID)
	if len(args) > 0 {
		return args.Get(0).([]types.Device), args.Error(1)
	}
	return nil, nil
}

func (m *MockRegistry) GetDevice(ctx context.Context, ownerID, deviceID string) (types.Device, error) {
	args := m.Called(ctx, ownerID, deviceID)
	if len(args) > 0 {
		return args.Get(0).(types.Device), args.Error(1)
	}
	return types.Device{}, nil
}

func (m *MockRegistry) UpsertDevice(ctx context.Context, ownerID string, device types.Device) error {
	args := m.Called(ctx, ownerID, device)
	return args.Error(0)
}

func (m *MockRegistry) UpdateDeviceSchedule(ctx context.Context, ownerID, deviceID string, startHour, endHour int, enabled bool) error {
	args := m.Called(ctx, ownerID, deviceID, startHour, endHour, enabled)
	return args.Error(0)
}

func (m *MockRegistry) Close() error {
	args := m.Called()
	return args.Error(0)
}
