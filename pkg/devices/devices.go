// Package devices persists the device inventory per owner and pushes
// accepted schedule windows back onto individual devices.
package devices

import (
	"context"
	"errors"
	"fmt"

	"github.com/levenlabs/go-lflag"
	"github.com/wattshift/wattshift/pkg/types"
)

var ErrDeviceNotFound = errors.New("device not found")

// Registry defines the interface for reading and updating devices.
type Registry interface {
	ListDevices(ctx context.Context, ownerID string) ([]types.Device, error)
	GetDevice(ctx context.Context, ownerID, deviceID string) (types.Device, error)
	UpsertDevice(ctx context.Context, ownerID string, device types.Device) error

	// UpdateDeviceSchedule writes an accepted schedule window onto the
	// device. It returns ErrDeviceNotFound if the device doesn't exist.
	UpdateDeviceSchedule(ctx context.Context, ownerID, deviceID string, startHour, endHour int, enabled bool) error

	// Lifecycle
	Close() error
}

// Configured sets up the device registry based on flags.
func Configured() Registry {
	provider := lflag.String("devices-provider", "firestore", "Device registry provider to use (available: firestore)")

	var p struct{ Registry }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Registry = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown devices provider: %s", *provider))
		}
	})

	return &p
}
