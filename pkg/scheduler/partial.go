package scheduler

import (
	"github.com/wattshift/wattshift/pkg/types"
)

// partialStrategy shifts every other flexible device (those at even
// input positions) to a 22->6 overnight block that wraps past
// midnight; everything else keeps its normal placement. Wrapping
// blocks are priced and validated as two sub-ranges split at midnight.
type partialStrategy struct{}

func (partialStrategy) Generate(devices []types.Device, opts Options) types.Schedule {
	s := make(types.Schedule, 0, len(devices))
	for i, d := range devices {
		if !d.Flexible || i%2 != 0 {
			s = append(s, normalBlock(d, opts))
			continue
		}
		b := normalBlock(d, opts)
		b.StartHour = partialStartHour
		b.EndHour = overnightEndHour
		s = append(s, b)
	}
	return s
}
