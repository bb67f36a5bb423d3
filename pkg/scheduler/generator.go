// Package scheduler arranges device run blocks for a day under a
// selected mode. Generation is pure and deterministic: no randomness,
// no I/O, output block order always matches input device order. It
// never prices anything; costing belongs to pricing.
package scheduler

import (
	"github.com/wattshift/wattshift/pkg/types"
)

const (
	// window devices default to when they declare no schedule
	defaultStartHour = 8
	defaultEndHour   = 18

	// the cheap overnight window off-peak placement clips to
	overnightEndHour = 6

	// where partial mode starts its wrap-around overnight block
	partialStartHour = 22
)

// Options tunes a single generation call.
type Options struct {
	// Weekend marks the produced blocks as weekend blocks for pricing.
	Weekend bool

	// Overrides supplies caller-authored run windows per device ID.
	// Only the custom strategy consults them.
	Overrides map[string]types.HourRange
}

// Strategy produces a schedule for a set of devices. Implementations
// must be pure: same devices and options in, same schedule out.
type Strategy interface {
	Generate(devices []types.Device, opts Options) types.Schedule
}

// Generator dispatches to a closed set of per-mode strategies. Adding
// a mode means registering a strategy, not editing a shared branch.
type Generator struct {
	strategies map[types.Mode]Strategy
	fallback   Strategy
}

// NewGenerator creates a Generator with all built-in strategies
// registered and normal as the fallback for unrecognized modes.
func NewGenerator() *Generator {
	normal := normalStrategy{}
	return &Generator{
		strategies: map[types.Mode]Strategy{
			types.ModeNormal:  normal,
			types.ModeOffPeak: offPeakStrategy{},
			types.ModePartial: partialStrategy{},
			types.ModeCustom:  customStrategy{},
		},
		fallback: normal,
	}
}

// Generate produces a schedule for the devices under the given mode.
func (g *Generator) Generate(devices []types.Device, mode types.Mode) types.Schedule {
	return g.GenerateWithOptions(devices, mode, Options{})
}

// GenerateWithOptions is Generate with per-call options. Unrecognized
// modes fall back to normal.
func (g *Generator) GenerateWithOptions(devices []types.Device, mode types.Mode, opts Options) types.Schedule {
	strat, ok := g.strategies[mode]
	if !ok {
		strat = g.fallback
	}
	return strat.Generate(devices, opts)
}

// normalBlock places a device in its currently declared window,
// defaulting to 8-18 when it has none. Every strategy falls back to
// this for devices it cannot move.
func normalBlock(d types.Device, opts Options) types.ScheduleBlock {
	start, end := defaultStartHour, defaultEndHour
	if d.CurrentStartHour != nil {
		start = *d.CurrentStartHour
	}
	if d.CurrentEndHour != nil {
		end = *d.CurrentEndHour
	}
	return types.ScheduleBlock{
		DeviceID:   d.ID,
		DeviceName: d.Name,
		DeviceType: d.Type,
		PowerW:     d.PowerW,
		StartHour:  start,
		EndHour:    end,
		IsWeekend:  opts.Weekend,
	}
}
