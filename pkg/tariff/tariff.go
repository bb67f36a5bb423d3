package tariff

import (
	"fmt"

	"github.com/wattshift/wattshift/pkg/types"
)

// DefaultTariffID identifies the built-in time-of-use tariff.
const DefaultTariffID = "default_tou"

// Table answers rate lookups for one tariff regime. It is an immutable
// value once built; a process can serve any number of tables for
// different regions concurrently.
type Table struct {
	tariff  types.Tariff
	weekday [24]float64
	class   [24]string
	peak    map[int]bool
}

// New builds a lookup table from a tariff definition. It fails if the
// weekday windows leave any hour without a rate after declared-order
// precedence is applied, or if any window references an hour outside
// [0,24).
func New(t types.Tariff) (*Table, error) {
	tb := &Table{
		tariff: t,
		peak:   make(map[int]bool),
	}
	for h := 0; h < 24; h++ {
		tb.class[h] = ""
	}
	for _, w := range t.Weekday {
		for _, h := range w.Hours {
			if h < 0 || h > 23 {
				return nil, fmt.Errorf("tariff %s: window %s references hour %d outside [0,24)", t.ID, w.Name, h)
			}
			// first window to claim an hour wins
			if tb.class[h] != "" {
				continue
			}
			tb.class[h] = w.Name
			tb.weekday[h] = w.DollarsPerKWH
			if w.Name == types.WindowPeak {
				tb.peak[h] = true
			}
		}
	}
	for h := 0; h < 24; h++ {
		if tb.class[h] == "" {
			return nil, fmt.Errorf("tariff %s: no weekday rate covers hour %d", t.ID, h)
		}
	}
	return tb, nil
}

// ID returns the tariff identifier this table was built from.
func (tb *Table) ID() string {
	return tb.tariff.ID
}

// Info returns the listing projection for this table.
func (tb *Table) Info() types.TariffInfo {
	return types.TariffInfo{ID: tb.tariff.ID, Name: tb.tariff.Name}
}

// RateFor returns the price per kWh for the given hour. Hours outside
// [0,24) are normalized into the day.
func (tb *Table) RateFor(hour int, isWeekend bool) float64 {
	hour = ((hour % 24) + 24) % 24
	if isWeekend {
		return tb.tariff.WeekendDollarsPerKWH
	}
	return tb.weekday[hour]
}

// ClassifyHour returns the effective weekday window name for an hour.
func (tb *Table) ClassifyHour(hour int) string {
	hour = ((hour % 24) + 24) % 24
	return tb.class[hour]
}

// PeakHours returns the set of weekday hours classified as peak.
func (tb *Table) PeakHours() map[int]bool {
	out := make(map[int]bool, len(tb.peak))
	for h := range tb.peak {
		out[h] = true
	}
	return out
}

// Default returns the built-in tariff: peak 16-20 at $0.18/kWh,
// mid-peak mornings (and the 17-18 hours it nominally shares with
// peak) at $0.13, off-peak everything else at $0.082, weekends flat at
// $0.082. Peak is declared first so it wins the shared hours.
func Default() *Table {
	tb, err := New(types.Tariff{
		ID:   DefaultTariffID,
		Name: "Default Time-of-Use",
		Weekday: []types.TariffWindow{
			{Name: types.WindowPeak, DollarsPerKWH: 0.18, Hours: []int{16, 17, 18, 19, 20}},
			{Name: types.WindowMidPeak, DollarsPerKWH: 0.13, Hours: []int{7, 8, 9, 10, 17, 18}},
			{Name: types.WindowOffPeak, DollarsPerKWH: 0.082, Hours: []int{0, 1, 2, 3, 4, 5, 6, 11, 12, 13, 14, 15, 21, 22, 23}},
		},
		WeekendDollarsPerKWH: 0.082,
	})
	if err != nil {
		// the built-in table is covered by tests; this is unreachable
		panic(fmt.Sprintf("default tariff invalid: %v", err))
	}
	return tb
}
