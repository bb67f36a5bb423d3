package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/wattshift/wattshift/pkg/log"
	"github.com/wattshift/wattshift/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. Plans live under owners/{ownerID}/plans/{planID} where the
// plan ID is the RFC3339Nano creation timestamp, so document ID ordering
// is creation ordering and range queries don't need an index.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

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
	return f.client.Collection("owners").Doc(ownerID).Collection("plans"), nil
}

// CreatePlan stores a new plan as a JSON blob. It fails if a plan with
// the same ID already exists.
func (f *FirestoreProvider) CreatePlan(ctx context.Context, ownerID string, plan types.Plan) error {
	if plan.ID == "" {
		return fmt.Errorf("plan missing id")
	}
	jsonBytes, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan %s: %w", plan.ID, err)
	}

	coll, err := f.getCollection(ownerID)
	if err != nil {
		return err
	}
	_, err = coll.Doc(plan.ID).Create(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"status":  string(plan.Status),
		"created": plan.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create plan %s: %w", plan.ID, err)
	}
	return nil
}

// GetPlan retrieves a plan by ID.
func (f *FirestoreProvider) GetPlan(ctx context.Context, ownerID, planID string) (types.Plan, error) {
	coll, err := f.getCollection(ownerID)
	if err != nil {
		return types.Plan{}, err
	}
	doc, err := coll.Doc(planID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
		}
		return types.Plan{}, fmt.Errorf("failed to get plan %s: %w", planID, err)
	}
	return decodePlan(ctx, ownerID, doc)
}

// GetActivePlan retrieves the most recently created active plan.
func (f *FirestoreProvider) GetActivePlan(ctx context.Context, ownerID string) (types.Plan, error) {
	coll, err := f.getCollection(ownerID)
	if err != nil {
		return types.Plan{}, err
	}
	iter := coll.
		Where("status", "==", string(types.PlanStatusActive)).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return types.Plan{}, ErrPlanNotFound
	}
	if err != nil {
		return types.Plan{}, fmt.Errorf("failed to query active plan: %w", err)
	}
	return decodePlan(ctx, ownerID, doc)
}

// ListPlans retrieves plans created within the specified time range.
// Uses document ID range queries for efficient filtering.
func (f *FirestoreProvider) ListPlans(ctx context.Context, ownerID string, start, end time.Time) ([]types.Plan, error) {
	startDocID := start.UTC().Format(time.RFC3339Nano)
	endDocID := end.UTC().Format(time.RFC3339Nano)

	coll, err := f.getCollection(ownerID)
	if err != nil {
		return nil, err
	}
	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(startDocID)).
		Where(firestore.DocumentID, "<", coll.Doc(endDocID)).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var plans []types.Plan
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating plans: %w", err)
		}

		p, err := decodePlan(ctx, ownerID, doc)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// UpdatePlanStatus moves a plan to the given status and stamps the
// matching lifecycle timestamp.
func (f *FirestoreProvider) UpdatePlanStatus(ctx context.Context, ownerID, planID string, newStatus types.PlanStatus) (types.Plan, error) {
	p, err := f.GetPlan(ctx, ownerID, planID)
	if err != nil {
		return types.Plan{}, err
	}
	if !p.Status.CanTransitionTo(newStatus) {
		return types.Plan{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, newStatus)
	}

	now := time.Now().UTC()
	p.Status = newStatus
	switch newStatus {
	case types.PlanStatusActive:
		p.ActivatedAt = now
	case types.PlanStatusCompleted:
		p.CompletedAt = now
	case types.PlanStatusCancelled:
		p.CancelledAt = now
	}

	if err := f.writePlan(ctx, ownerID, p); err != nil {
		return types.Plan{}, err
	}
	return p, nil
}

// CancelActivePlans cancels every active plan for the owner.
func (f *FirestoreProvider) CancelActivePlans(ctx context.Context, ownerID string) ([]types.Plan, error) {
	coll, err := f.getCollection(ownerID)
	if err != nil {
		return nil, err
	}
	iter := coll.
		Where("status", "==", string(types.PlanStatusActive)).
		Documents(ctx)
	defer iter.Stop()

	now := time.Now().UTC()
	var cancelled []types.Plan
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating active plans: %w", err)
		}

		p, err := decodePlan(ctx, ownerID, doc)
		if err != nil {
			return nil, err
		}
		p.Status = types.PlanStatusCancelled
		p.CancelledAt = now
		if err := f.writePlan(ctx, ownerID, p); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, p)
	}
	return cancelled, nil
}

func (f *FirestoreProvider) writePlan(ctx context.Context, ownerID string, plan types.Plan) error {
	jsonBytes, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan %s: %w", plan.ID, err)
	}
	coll, err := f.getCollection(ownerID)
	if err != nil {
		return err
	}
	_, err = coll.Doc(plan.ID).Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"status":  string(plan.Status),
		"created": plan.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to write plan %s: %w", plan.ID, err)
	}
	return nil
}

func decodePlan(ctx context.Context, ownerID string, doc *firestore.DocumentSnapshot) (types.Plan, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "plan doc missing json", slog.String("planID", doc.Ref.ID), slog.String("ownerID", ownerID))
		return types.Plan{}, fmt.Errorf("plan document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "plan doc json not string", slog.String("planID", doc.Ref.ID), slog.String("ownerID", ownerID))
		return types.Plan{}, fmt.Errorf("plan document %s 'json' field is not string", doc.Ref.ID)
	}

	var p types.Plan
	if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal plan", slog.String("planID", doc.Ref.ID), slog.String("ownerID", ownerID), slog.Any("err", err))
		return types.Plan{}, fmt.Errorf("failed to unmarshal plan (id=%s): %w", doc.Ref.ID, err)
	}
	return p, nil
}
