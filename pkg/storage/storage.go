// Package storage persists schedule plans and tracks their lifecycle.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/wattshift/wattshift/pkg/types"
)

var (
	ErrPlanNotFound = errors.New("plan not found")

	// ErrInvalidTransition is returned when a status change violates the
	// plan lifecycle (draft -> active -> completed/cancelled).
	ErrInvalidTransition = errors.New("invalid plan status transition")
)

// Database defines the interface for persisting plans.
type Database interface {
	// CreatePlan stores a new plan. The plan's ID is used as the document
	// ID and must be set by the caller.
	CreatePlan(ctx context.Context, ownerID string, plan types.Plan) error
	GetPlan(ctx context.Context, ownerID, planID string) (types.Plan, error)

	// GetActivePlan returns the most recently activated plan with status
	// active, or ErrPlanNotFound if the owner has none.
	GetActivePlan(ctx context.Context, ownerID string) (types.Plan, error)

	// ListPlans returns plans created within [start, end), oldest first.
	ListPlans(ctx context.Context, ownerID string, start, end time.Time) ([]types.Plan, error)

	// UpdatePlanStatus moves a plan to the given status, enforcing the
	// lifecycle, and returns the updated plan.
	UpdatePlanStatus(ctx context.Context, ownerID, planID string, status types.PlanStatus) (types.Plan, error)

	// CancelActivePlans cancels every active plan for the owner and
	// returns the ones it cancelled.
	CancelActivePlans(ctx context.Context, ownerID string) ([]types.Plan, error)

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
