// Package pricing prices schedules against a tariff table. Evaluation
// is pure and deterministic; the same schedule and table always produce
// the same cost.
package pricing

import (
	"github.com/wattshift/wattshift/pkg/tariff"
	"github.com/wattshift/wattshift/pkg/types"
)

const (
	daysPerMonth = 30
	daysPerYear  = 365
)

// Evaluator prices schedules against one tariff table.
type Evaluator struct {
	table *tariff.Table
}

// NewEvaluator creates an Evaluator for the given table.
func NewEvaluator(tb *tariff.Table) *Evaluator {
	return &Evaluator{table: tb}
}

// DailyCost returns the cost of running the schedule for one day. Each
// block contributes powerKW x rate for every hour it covers; blocks
// that wrap past midnight are split at midnight. An empty schedule
// costs 0.
func (e *Evaluator) DailyCost(s types.Schedule) float64 {
	var total float64
	for _, b := range s {
		kw := b.PowerW / 1000.0
		for _, h := range b.Hours() {
			total += kw * e.table.RateFor(h, b.IsWeekend)
		}
	}
	return total
}

// Summary projects the daily cost onto monthly (30x) and yearly (365x)
// horizons.
func (e *Evaluator) Summary(s types.Schedule) types.CostSummary {
	daily := e.DailyCost(s)
	return types.CostSummary{
		DailyCost:   daily,
		MonthlyCost: daily * daysPerMonth,
		YearlyCost:  daily * daysPerYear,
	}
}

// EnergyKWH returns the total energy the schedule consumes in one day.
func (e *Evaluator) EnergyKWH(s types.Schedule) float64 {
	var total float64
	for _, b := range s {
		total += b.PowerW / 1000.0 * float64(b.DurationHours())
	}
	return total
}
