package types

import "time"

// PlanStatus is the lifecycle state of a persisted plan.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// CanTransitionTo reports whether the status may move to next.
// Draft activates or cancels, active completes or cancels, and the two
// terminal states have no outgoing transitions.
func (s PlanStatus) CanTransitionTo(next PlanStatus) bool {
	switch s {
	case PlanStatusDraft:
		return next == PlanStatusActive || next == PlanStatusCancelled
	case PlanStatusActive:
		return next == PlanStatusCompleted || next == PlanStatusCancelled
	default:
		return false
	}
}

// Terminal reports whether the status has no outgoing transitions.
func (s PlanStatus) Terminal() bool {
	return s == PlanStatusCompleted || s == PlanStatusCancelled
}

// Plan is an accepted optimization, persisted with a snapshot of the
// schedule and savings it promised. Acceptance creates plans directly
// in the active state; draft exists only for plans created through
// other paths.
type Plan struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerID"`

	Mode            Mode       `json:"mode"`
	Schedule        Schedule   `json:"schedule"`
	ExpectedSavings Savings    `json:"expectedSavings"`
	Status          PlanStatus `json:"status"`

	CreatedAt   time.Time `json:"createdAt"`
	ActivatedAt time.Time `json:"activatedAt,omitzero"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
	CancelledAt time.Time `json:"cancelledAt,omitzero"`
}
