// Package optimizer ties the tariff, scheduling, savings, and validation
// engines together and owns the plan lifecycle around them.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/wattshift/wattshift/pkg/devices"
	"github.com/wattshift/wattshift/pkg/log"
	"github.com/wattshift/wattshift/pkg/narrative"
	"github.com/wattshift/wattshift/pkg/pricing"
	"github.com/wattshift/wattshift/pkg/savings"
	"github.com/wattshift/wattshift/pkg/scheduler"
	"github.com/wattshift/wattshift/pkg/storage"
	"github.com/wattshift/wattshift/pkg/tariff"
	"github.com/wattshift/wattshift/pkg/types"
	"github.com/wattshift/wattshift/pkg/validate"
)

var (
	ErrNoDevices = errors.New("no devices to schedule")

	// ErrInvalidSchedule is returned by Accept when re-validation is
	// enabled and the schedule fails it.
	ErrInvalidSchedule = errors.New("schedule failed validation")
)

// Config tunes the optimizer's acceptance behavior.
type Config struct {
	// AcceptRequiresValid re-validates schedules on acceptance and
	// rejects invalid ones.
	AcceptRequiresValid bool

	// SingleActivePlan cancels any previously active plans when a new
	// one is accepted.
	SingleActivePlan bool

	// NarrativeTimeout bounds the external narrative call before the
	// local fallback takes over.
	NarrativeTimeout time.Duration

	// DeviceUpdateTimeout bounds each per-device schedule push.
	DeviceUpdateTimeout time.Duration
}

// Optimizer computes optimization results and manages accepted plans.
type Optimizer struct {
	tariffs   *tariff.Map
	generator *scheduler.Generator
	store     storage.Database
	registry  devices.Registry

	// narrative may be nil, in which case Explain always uses the local
	// fallback.
	narrative narrative.Generator

	savingsCfg  *savings.Config
	validateCfg *validate.Config
	cfg         Config
}

// Configured sets up the Optimizer based on flags.
func Configured(tariffs *tariff.Map, db storage.Database, registry devices.Registry, nar *narrative.Provider, savingsCfg *savings.Config, validateCfg *validate.Config) *Optimizer {
	requireValid := lflag.Bool("accept-requires-valid", false, "reject plan acceptance when the schedule fails validation")
	singleActive := lflag.Bool("single-active-plan", true, "cancel previously active plans when a new one is accepted")
	narrativeTimeout := lflag.Duration("narrative-timeout", 10*time.Second, "how long to wait for the narrative service before falling back")
	deviceTimeout := lflag.Duration("device-update-timeout", 5*time.Second, "timeout for each per-device schedule update")

	o := &Optimizer{
		tariffs:     tariffs,
		generator:   scheduler.NewGenerator(),
		store:       db,
		registry:    registry,
		savingsCfg:  savingsCfg,
		validateCfg: validateCfg,
	}
	lflag.Do(func() {
		o.cfg = Config{
			AcceptRequiresValid: *requireValid,
			SingleActivePlan:    *singleActive,
			NarrativeTimeout:    *narrativeTimeout,
			DeviceUpdateTimeout: *deviceTimeout,
		}
		if nar != nil {
			o.narrative = nar.Generator
		}
	})
	return o
}

// New creates an Optimizer directly, without flags. Used by tests.
func New(tariffs *tariff.Map, db storage.Database, registry devices.Registry, nar narrative.Generator, savingsCfg *savings.Config, validateCfg *validate.Config, cfg Config) *Optimizer {
	return &Optimizer{
		tariffs:     tariffs,
		generator:   scheduler.NewGenerator(),
		store:       db,
		registry:    registry,
		narrative:   nar,
		savingsCfg:  savingsCfg,
		validateCfg: validateCfg,
		cfg:         cfg,
	}
}

// ComputeRequest describes one optimization computation.
type ComputeRequest struct {
	Devices []types.Device
	Mode    types.Mode
	Tariff  string
	Weekend bool

	// Overrides supplies per-device windows for the custom mode.
	Overrides map[string]types.HourRange
}

// Compute generates a candidate schedule for the requested mode, prices
// it against the normal-mode baseline, and validates it. It persists
// nothing; accepting the result is a separate step.
func (o *Optimizer) Compute(ctx context.Context, req ComputeRequest) (types.OptimizationResult, error) {
	if len(req.Devices) == 0 {
		return types.OptimizationResult{}, ErrNoDevices
	}
	tb, err := o.tariffs.Table(req.Tariff)
	if err != nil {
		return types.OptimizationResult{}, err
	}

	opts := scheduler.Options{Weekend: req.Weekend, Overrides: req.Overrides}
	baseline := o.generator.GenerateWithOptions(req.Devices, types.ModeNormal, opts)
	candidate := o.generator.GenerateWithOptions(req.Devices, req.Mode, opts)

	evaluator := pricing.NewEvaluator(tb)
	calc := savings.NewCalculator(evaluator, o.savingsCfg)

	result := types.OptimizationResult{
		Mode:              req.Mode,
		OptimizedSchedule: candidate,
		BeforeData:        evaluator.Summary(baseline),
		AfterData:         evaluator.Summary(candidate),
		Savings:           calc.Compare(baseline, candidate),
		Validation:        validate.NewValidator(tb, o.validateCfg).Validate(candidate),
	}
	return result, nil
}

// Explain produces a narrative for a computed result. It never fails:
// when the external generator is unconfigured, errors, or runs past its
// timeout, the deterministic local fallback is returned instead.
func (o *Optimizer) Explain(ctx context.Context, req types.ExplainRequest, tariffID string) types.Explanation {
	tb, err := o.tariffs.Table(tariffID)
	if err != nil {
		// fall back to the default table for the narrative
		tb, err = o.tariffs.Table("")
	}
	if err != nil || tb == nil {
		// a map built without a default table still has to explain
		tb = tariff.Default()
	}

	if o.narrative != nil {
		nctx, cancel := context.WithTimeout(ctx, o.cfg.NarrativeTimeout)
		defer cancel()
		exp, err := o.narrative.Explain(nctx, req)
		if err == nil {
			return exp
		}
		log.Ctx(ctx).WarnContext(ctx, "narrative generation failed, using fallback", slog.Any("err", err))
	}
	return narrative.Fallback(req, tb)
}

// AcceptRequest describes a plan acceptance.
type AcceptRequest struct {
	OwnerID         string
	Mode            types.Mode
	Schedule        types.Schedule
	ExpectedSavings types.Savings
	Tariff          string
}

// DeviceUpdateResult reports the outcome of pushing the accepted window
// onto one device.
type DeviceUpdateResult struct {
	DeviceID string `json:"deviceID"`
	Err      string `json:"err,omitempty"`
}

// AcceptResult is the outcome of accepting a plan. Partial is true when
// the plan was saved but one or more device updates failed.
type AcceptResult struct {
	Plan          types.Plan           `json:"plan"`
	DeviceResults []DeviceUpdateResult `json:"deviceResults"`
	Partial       bool                 `json:"partial"`
}

// Accept persists the schedule as an active plan and pushes the new
// windows onto the devices concurrently. A failed plan write is the
// only error return; device failures are reported in the result so the
// caller can retry just those devices.
func (o *Optimizer) Accept(ctx context.Context, req AcceptRequest) (AcceptResult, error) {
	if len(req.Schedule) == 0 {
		return AcceptResult{}, ErrNoDevices
	}

	if o.cfg.AcceptRequiresValid {
		tb, err := o.tariffs.Table(req.Tariff)
		if err != nil {
			return AcceptResult{}, err
		}
		v := validate.NewValidator(tb, o.validateCfg).Validate(req.Schedule)
		if !v.IsValid {
			return AcceptResult{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, v.Errors)
		}
	}

	if o.cfg.SingleActivePlan {
		cancelled, err := o.store.CancelActivePlans(ctx, req.OwnerID)
		if err != nil {
			return AcceptResult{}, fmt.Errorf("failed to cancel active plans: %w", err)
		}
		if len(cancelled) > 0 {
			log.Ctx(ctx).InfoContext(ctx, "cancelled previously active plans",
				slog.Int("count", len(cancelled)), slog.String("ownerID", req.OwnerID))
		}
	}

	now := time.Now().UTC()
	plan := types.Plan{
		ID:              now.Format(time.RFC3339Nano),
		OwnerID:         req.OwnerID,
		Mode:            req.Mode,
		Schedule:        req.Schedule,
		ExpectedSavings: req.ExpectedSavings,
		Status:          types.PlanStatusActive,
		CreatedAt:       now,
		ActivatedAt:     now,
	}
	if err := o.store.CreatePlan(ctx, req.OwnerID, plan); err != nil {
		return AcceptResult{}, fmt.Errorf("failed to save plan: %w", err)
	}

	res := AcceptResult{
		Plan:          plan,
		DeviceResults: make([]DeviceUpdateResult, len(req.Schedule)),
	}

	var wg sync.WaitGroup
	for i, b := range req.Schedule {
		wg.Add(1)
		go func(i int, b types.ScheduleBlock) {
			defer wg.Done()
			dctx, cancel := context.WithTimeout(ctx, o.cfg.DeviceUpdateTimeout)
			defer cancel()

			res.DeviceResults[i].DeviceID = b.DeviceID
			if err := o.registry.UpdateDeviceSchedule(dctx, req.OwnerID, b.DeviceID, b.StartHour, b.EndHour, true); err != nil {
				res.DeviceResults[i].Err = err.Error()
				log.Ctx(ctx).WarnContext(ctx, "failed to push schedule to device",
					slog.String("deviceID", b.DeviceID), slog.String("ownerID", req.OwnerID), slog.Any("err", err))
			}
		}(i, b)
	}
	wg.Wait()

	for _, dr := range res.DeviceResults {
		if dr.Err != "" {
			res.Partial = true
			break
		}
	}
	return res, nil
}

// ActivePlan returns the owner's currently active plan.
func (o *Optimizer) ActivePlan(ctx context.Context, ownerID string) (types.Plan, error) {
	return o.store.GetActivePlan(ctx, ownerID)
}

// ListPlans returns the owner's plans created within [start, end).
func (o *Optimizer) ListPlans(ctx context.Context, ownerID string, start, end time.Time) ([]types.Plan, error) {
	return o.store.ListPlans(ctx, ownerID, start, end)
}

// CompletePlan marks an active plan completed.
func (o *Optimizer) CompletePlan(ctx context.Context, ownerID, planID string) (types.Plan, error) {
	return o.store.UpdatePlanStatus(ctx, ownerID, planID, types.PlanStatusCompleted)
}

// CancelPlan cancels a draft or active plan.
func (o *Optimizer) CancelPlan(ctx context.Context, ownerID, planID string) (types.Plan, error) {
	return o.store.UpdatePlanStatus(ctx, ownerID, planID, types.PlanStatusCancelled)
}
