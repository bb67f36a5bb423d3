// Package savings compares priced schedules against a baseline.
package savings

import (
	"github.com/levenlabs/go-lflag"
	"github.com/wattshift/wattshift/pkg/pricing"
	"github.com/wattshift/wattshift/pkg/types"
)

const (
	daysPerMonth = 30
	daysPerYear  = 365

	// DefaultCO2PerDollarYear is the historical kg-CO2-per-saved-dollar
	// factor. It mixes currency with mass and is kept only because the
	// published savings contract depends on it.
	DefaultCO2PerDollarYear = 0.35
)

// Config tunes a Calculator.
type Config struct {
	// CO2PerDollarYear scales the currency-based CO2 figure.
	CO2PerDollarYear float64

	// CO2KgPerKWH, when > 0, additionally reports an energy-based CO2
	// figure computed from the yearly kWh delta between the schedules.
	CO2KgPerKWH float64
}

// Configured registers the CO2 factor flags and returns a Config
// resolved when flags are parsed.
func Configured() *Config {
	perDollar := DefaultCO2PerDollarYear
	lflag.JSON(&perDollar, "co2-per-dollar-year", perDollar, "kg CO2 attributed per dollar of yearly savings (legacy formula)")
	var perKWH float64
	lflag.JSON(&perKWH, "co2-kg-per-kwh", perKWH, "kg CO2 per kWh for the energy-based figure (0 disables it)")

	c := &Config{}
	lflag.Do(func() {
		c.CO2PerDollarYear = perDollar
		c.CO2KgPerKWH = perKWH
	})
	return c
}

// Calculator derives savings between two schedules priced by the same
// evaluator. Pure; safe for concurrent use.
type Calculator struct {
	evaluator *pricing.Evaluator
	cfg       Config
}

// NewCalculator creates a Calculator. A nil config uses the default
// CO2 factor and no energy-based figure.
func NewCalculator(e *pricing.Evaluator, cfg *Config) *Calculator {
	c := Config{CO2PerDollarYear: DefaultCO2PerDollarYear}
	if cfg != nil {
		c = *cfg
		if c.CO2PerDollarYear == 0 {
			c.CO2PerDollarYear = DefaultCO2PerDollarYear
		}
	}
	return &Calculator{evaluator: e, cfg: c}
}

// Compare prices both schedules and returns the savings of after
// relative to before. PercentSaved is 0, never NaN or Inf, when the
// baseline costs nothing.
func (c *Calculator) Compare(before, after types.Schedule) types.Savings {
	beforeCost := c.evaluator.DailyCost(before)
	afterCost := c.evaluator.DailyCost(after)

	daily := beforeCost - afterCost
	s := types.Savings{
		DailySavings:   daily,
		MonthlySavings: daily * daysPerMonth,
		YearlySavings:  daily * daysPerYear,
	}
	if beforeCost != 0 {
		s.PercentSaved = daily / beforeCost * 100
	}
	s.CO2ReducedKgPerYear = daily * daysPerYear * c.cfg.CO2PerDollarYear

	if c.cfg.CO2KgPerKWH > 0 {
		dailyKWH := c.evaluator.EnergyKWH(before) - c.evaluator.EnergyKWH(after)
		s.CO2EnergyBasedKgPerYear = dailyKWH * daysPerYear * c.cfg.CO2KgPerKWH
	}
	return s
}
