package types

// Mode selects a schedule generation strategy.
type Mode string

const (
	ModeNormal  Mode = "normal"
	ModeOffPeak Mode = "off_peak"
	ModePartial Mode = "partial"
	ModeCustom  Mode = "custom"
)

// KnownModes lists the closed set of generation modes. Unrecognized
// values fall back to ModeNormal at generation time.
var KnownModes = []Mode{ModeNormal, ModeOffPeak, ModePartial, ModeCustom}

// ScheduleBlock is one contiguous run interval for a device within a
// single day. StartHour and EndHour are in [0,24). A block whose
// StartHour is greater than its EndHour wraps past midnight and covers
// [StartHour,24) followed by [0,EndHour).
type ScheduleBlock struct {
	DeviceID   string     `json:"deviceId"`
	DeviceName string     `json:"deviceName"`
	DeviceType DeviceType `json:"deviceType"`
	PowerW     float64    `json:"powerW"`
	StartHour  int        `json:"startHour"`
	EndHour    int        `json:"endHour"`
	IsWeekend  bool       `json:"isWeekend"`
}

// Hours returns the integer hours the block runs during, in run order.
// Wrapping blocks are split at midnight; StartHour == EndHour yields no
// hours.
func (b ScheduleBlock) Hours() []int {
	if b.StartHour == b.EndHour {
		return nil
	}
	if b.StartHour < b.EndHour {
		hours := make([]int, 0, b.EndHour-b.StartHour)
		for h := b.StartHour; h < b.EndHour; h++ {
			hours = append(hours, h)
		}
		return hours
	}
	hours := make([]int, 0, (24-b.StartHour)+b.EndHour)
	for h := b.StartHour; h < 24; h++ {
		hours = append(hours, h)
	}
	for h := 0; h < b.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// DurationHours returns the number of hours the block runs.
func (b ScheduleBlock) DurationHours() int {
	if b.StartHour <= b.EndHour {
		return b.EndHour - b.StartHour
	}
	return (24 - b.StartHour) + b.EndHour
}

// Schedule is an ordered set of blocks, one per device, in input device
// order. Blocks for different devices may overlap; concurrent draw is
// summed by the validator.
type Schedule []ScheduleBlock
