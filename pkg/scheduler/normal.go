package scheduler

import (
	"github.com/wattshift/wattshift/pkg/types"
)

// normalStrategy is the baseline: every device keeps its declared
// window. It doubles as the implicit "before" schedule every other
// mode is compared against.
type normalStrategy struct{}

func (normalStrategy) Generate(devices []types.Device, opts Options) types.Schedule {
	s := make(types.Schedule, 0, len(devices))
	for _, d := range devices {
		s = append(s, normalBlock(d, opts))
	}
	return s
}
