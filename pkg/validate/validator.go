// Package validate checks schedules against capacity and peak-exposure
// constraints. It is a linear feasibility check: it reports problems as
// structured data and never repairs a schedule.
package validate

import (
	"fmt"

	"github.com/levenlabs/go-lflag"
	"github.com/wattshift/wattshift/pkg/tariff"
	"github.com/wattshift/wattshift/pkg/types"
)

const (
	// DefaultCapacityW is the combined draw a single hour may carry.
	DefaultCapacityW = 10000

	// DefaultPeakDeviceW is the per-device draw above which running
	// during peak hours earns a warning.
	DefaultPeakDeviceW = 3000
)

// Config tunes a Validator's thresholds.
type Config struct {
	CapacityW   float64
	PeakDeviceW float64
}

// Configured registers the threshold flags and returns a Config
// resolved when flags are parsed.
func Configured() *Config {
	capacity := float64(DefaultCapacityW)
	lflag.JSON(&capacity, "capacity-watts", capacity, "maximum combined device draw per hour in watts")
	peakDevice := float64(DefaultPeakDeviceW)
	lflag.JSON(&peakDevice, "peak-device-watts", peakDevice, "per-device draw that triggers a peak-hour warning in watts")

	c := &Config{}
	lflag.Do(func() {
		c.CapacityW = capacity
		c.PeakDeviceW = peakDevice
	})
	return c
}

// Validator checks schedules against one tariff's peak hours and a set
// of thresholds. Pure; safe for concurrent use.
type Validator struct {
	capacityW   float64
	peakDeviceW float64
	peakHours   map[int]bool
}

// NewValidator creates a Validator using the table's peak-hour set. A
// nil config uses the default thresholds.
func NewValidator(tb *tariff.Table, cfg *Config) *Validator {
	v := &Validator{
		capacityW:   DefaultCapacityW,
		peakDeviceW: DefaultPeakDeviceW,
		peakHours:   tb.PeakHours(),
	}
	if cfg != nil {
		if cfg.CapacityW > 0 {
			v.capacityW = cfg.CapacityW
		}
		if cfg.PeakDeviceW > 0 {
			v.peakDeviceW = cfg.PeakDeviceW
		}
	}
	return v
}

// Validate accumulates per-hour draw across all blocks and reports
// capacity overages as errors and heavy peak-hour loads as warnings.
// The two checks are independent; a block can contribute to both.
func (v *Validator) Validate(s types.Schedule) types.Validation {
	var hourly [24]float64
	for _, b := range s {
		for _, h := range b.Hours() {
			hourly[h] += b.PowerW
		}
	}

	result := types.Validation{
		Errors:   []string{},
		Warnings: []string{},
	}
	for h := 0; h < 24; h++ {
		if hourly[h] > v.capacityW {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"hour %d: combined load %.0f W exceeds the %.0f W capacity by %.0f W",
				h, hourly[h], v.capacityW, hourly[h]-v.capacityW,
			))
		}
	}

	for _, b := range s {
		if b.IsWeekend || b.PowerW <= v.peakDeviceW {
			continue
		}
		for _, h := range b.Hours() {
			if v.peakHours[h] {
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"%s draws %.0f W during peak hour %d; consider shifting it off-peak",
					b.DeviceName, b.PowerW, h,
				))
				break
			}
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
