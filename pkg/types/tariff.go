package types

// Well-known tariff window names. The validator keys its peak-exposure
// warnings off WindowPeak.
const (
	WindowPeak    = "peak"
	WindowMidPeak = "mid_peak"
	WindowOffPeak = "off_peak"
	WindowWeekend = "weekend"
)

// TariffWindow is a named rate class applying to a set of weekday
// hours. When windows overlap, the earliest window in the tariff's
// declared order wins.
type TariffWindow struct {
	Name          string  `json:"name"`
	DollarsPerKWH float64 `json:"dollarsPerKWH"`
	Hours         []int   `json:"hours"`
}

// Tariff is a complete time-of-use rate definition for one region or
// tenant. The weekday windows must cover all 24 hours once their
// declared-order precedence is applied; weekends and holidays are a
// single flat rate.
type Tariff struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Weekday []TariffWindow `json:"weekday"`

	WeekendDollarsPerKWH float64 `json:"weekendDollarsPerKWH"`
}

// TariffInfo is the listing projection for the tariffs API.
type TariffInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
