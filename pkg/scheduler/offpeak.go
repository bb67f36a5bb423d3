package scheduler

import (
	"github.com/wattshift/wattshift/pkg/types"
)

// offPeakStrategy moves flexible devices into the cheap overnight
// window starting at midnight, clipped to 6 hours. A flexible device
// needing more than 6 hours only gets 6; required runtime beyond the
// window is not carried anywhere else. Non-flexible devices keep their
// normal placement.
type offPeakStrategy struct{}

func (offPeakStrategy) Generate(devices []types.Device, opts Options) types.Schedule {
	s := make(types.Schedule, 0, len(devices))
	for _, d := range devices {
		if !d.Flexible {
			s = append(s, normalBlock(d, opts))
			continue
		}
		hours := d.RequiredHours
		if hours > overnightEndHour {
			hours = overnightEndHour
		}
		if hours < 0 {
			hours = 0
		}
		b := normalBlock(d, opts)
		b.StartHour = 0
		b.EndHour = hours
		s = append(s, b)
	}
	return s
}
