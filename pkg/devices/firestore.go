package devices

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/wattshift/wattshift/pkg/log"
	"github.com/wattshift/wattshift/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreProvider implements the Registry interface using Google Cloud
// Firestore. Devices live under owners/{ownerID}/devices/{deviceID}.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("devices-firestore-project-id", "", "Google Cloud Project ID for the device registry")
	database := lflag.String("devices-firestore-database", "", "Google Cloud Firestore Database for the device registry")
	emulator := lflag.String("devices-firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID may be empty when it can be inferred from the environment.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) getCollection(ownerID string) (*firestore.CollectionRef, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("ownerID cannot be empty")
	}
	return f.client.Collection("owners").Doc(ownerID).Collection("devices"), nil
}

// ListDevices retrieves all devices for an owner.
func (f *FirestoreProvider) ListDevices(ctx context.Context, ownerID string) ([]types.Device, error) {
	coll, err := f.getCollection(ownerID)
	if err != nil {
		return nil, err
	}
	iter := coll.OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var ds []types.Device
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating devices: %w", err)
		}

		d, err := decodeDevice(ctx, ownerID, doc)
		if err != nil {
			// Skip malformed documents
			continue
		}
		ds = append(ds, d)
	}
	return ds, nil
}

// GetDevice retrieves a single device for an owner.
func (f *FirestoreProvider) GetDevice(ctx context.Context, ownerID, deviceID string) (types.Device, error) {
	coll, err := f.getCollection(ownerID)
	if err != nil {
		return types.Device{}, err
	}
	doc, err := coll.Doc(deviceID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
		}
		return types.Device{}, fmt.Errorf("failed to get device %s: %w", deviceID, err)
	}
	d, err := decodeDevice(ctx, ownerID, doc)
	if err != nil {
		return types.Device{}, err
	}
	return d, nil
}

// UpsertDevice adds or replaces a device document as a JSON blob.
func (f *FirestoreProvider) UpsertDevice(ctx context.Context, ownerID string, device types.Device) error {
	if device.ID == "" {
		return fmt.Errorf("device missing id")
	}
	jsonBytes, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("failed to marshal device %s: %w", device.ID, err)
	}

	coll, err := f.getCollection(ownerID)
	if err != nil {
		return err
	}
	_, err = coll.Doc(device.ID).Set(ctx, map[string]interface{}{
		"json": string(jsonBytes),
		"type": string(device.Type),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert device %s: %w", device.ID, err)
	}
	return nil
}

// UpdateDeviceSchedule reads the device, applies the accepted window, and
// writes it back. The whole blob is rewritten since devices are small.
func (f *FirestoreProvider) UpdateDeviceSchedule(ctx context.Context, ownerID, deviceID string, startHour, endHour int, enabled bool) error {
	d, err := f.GetDevice(ctx, ownerID, deviceID)
	if err != nil {
		return err
	}

	d.CurrentStartHour = &startHour
	d.CurrentEndHour = &endHour
	d.ScheduleEnabled = enabled

	if err := f.UpsertDevice(ctx, ownerID, d); err != nil {
		return fmt.Errorf("failed to write schedule for device %s: %w", deviceID, err)
	}
	return nil
}

func decodeDevice(ctx context.Context, ownerID string, doc *firestore.DocumentSnapshot) (types.Device, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "device doc missing json", slog.String("deviceID", doc.Ref.ID), slog.String("ownerID", ownerID))
		return types.Device{}, fmt.Errorf("device document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "device doc json not string", slog.String("deviceID", doc.Ref.ID), slog.String("ownerID", ownerID))
		return types.Device{}, fmt.Errorf("device document %s 'json' field is not string", doc.Ref.ID)
	}

	var d types.Device
	if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal device", slog.String("deviceID", doc.Ref.ID), slog.String("ownerID", ownerID), slog.Any("err", err))
		return types.Device{}, fmt.Errorf("failed to unmarshal device (id=%s): %w", doc.Ref.ID, err)
	}
	return d, nil
}
