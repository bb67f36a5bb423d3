package scheduler

import (
	"github.com/wattshift/wattshift/pkg/types"
)

// customStrategy honors caller-authored run windows from
// Options.Overrides. Devices without an override, and calls with no
// overrides at all, degrade to normal placement exactly like the
// historical custom mode did.
type customStrategy struct{}

func (customStrategy) Generate(devices []types.Device, opts Options) types.Schedule {
	s := make(types.Schedule, 0, len(devices))
	for _, d := range devices {
		b := normalBlock(d, opts)
		if r, ok := opts.Overrides[d.ID]; ok {
			b.StartHour = r.StartHour
			b.EndHour = r.EndHour
		}
		s = append(s, b)
	}
	return s
}
