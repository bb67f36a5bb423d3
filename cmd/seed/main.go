// Command seed populates the Firestore emulator with demo devices and
// an accepted plan so the API has data to serve during development.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/wattshift/wattshift/pkg/devices"
	"github.com/wattshift/wattshift/pkg/log"
	"github.com/wattshift/wattshift/pkg/pricing"
	"github.com/wattshift/wattshift/pkg/savings"
	"github.com/wattshift/wattshift/pkg/scheduler"
	"github.com/wattshift/wattshift/pkg/storage"
	"github.com/wattshift/wattshift/pkg/tariff"
	"github.com/wattshift/wattshift/pkg/types"
)

func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	db := storage.Configured()
	registry := devices.Configured()
	lflag.Configure()

	ctx := context.Background()

	log.Ctx(ctx).InfoContext(ctx, "seeding mock data")

	therm6, therm22 := 6, 22
	pool10, pool14 := 10, 14
	demo := []types.Device{
		{ID: "ev_charger_1", Name: "EV Charger", Type: types.DeviceTypeEVCharger, PowerW: 7200, Flexible: true, RequiredHours: 4},
		{ID: "thermostat_1", Name: "Thermostat", Type: types.DeviceTypeThermostat, PowerW: 1200, CurrentStartHour: &therm6, CurrentEndHour: &therm22},
		{ID: "dishwasher_1", Name: "Dishwasher", Type: types.DeviceTypeDishwasher, PowerW: 1800, Flexible: true, RequiredHours: 2},
		{ID: "pool_pump_1", Name: "Pool Pump", Type: types.DeviceTypePoolPump, PowerW: 1100, Flexible: true, RequiredHours: 4, CurrentStartHour: &pool10, CurrentEndHour: &pool14},
		{ID: "dryer_1", Name: "Dryer", Type: types.DeviceTypeDryer, PowerW: 3000, Flexible: true, RequiredHours: 1},
	}

	for _, d := range demo {
		if err := registry.UpsertDevice(ctx, types.OwnerIDNone, d); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed device", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded device %s (%s, %.0f W)\n", d.ID, d.Type, d.PowerW)
	}

	// build an accepted off-peak plan so /api/plans/active has data
	tb := tariff.Default()
	gen := scheduler.NewGenerator()
	evaluator := pricing.NewEvaluator(tb)
	calc := savings.NewCalculator(evaluator, nil)

	baseline := gen.Generate(demo, types.ModeNormal)
	optimized := gen.Generate(demo, types.ModeOffPeak)

	now := time.Now().UTC()
	plan := types.Plan{
		ID:              now.Format(time.RFC3339Nano),
		OwnerID:         types.OwnerIDNone,
		Mode:            types.ModeOffPeak,
		Schedule:        optimized,
		ExpectedSavings: calc.Compare(baseline, optimized),
		Status:          types.PlanStatusActive,
		CreatedAt:       now,
		ActivatedAt:     now,
	}
	if err := db.CreatePlan(ctx, types.OwnerIDNone, plan); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to seed plan", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded active plan %s ($%.2f/day expected savings)\n", plan.ID, plan.ExpectedSavings.DailySavings)

	for _, b := range optimized {
		if err := registry.UpdateDeviceSchedule(ctx, types.OwnerIDNone, b.DeviceID, b.StartHour, b.EndHour, true); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to apply seeded schedule", "error", err)
			os.Exit(1)
		}
	}

	log.Ctx(ctx).InfoContext(ctx, "seeded mock data successfully")
}
