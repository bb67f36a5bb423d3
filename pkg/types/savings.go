package types

// CostSummary projects a daily schedule cost onto longer horizons.
// Monthly and yearly figures are flat 30x/365x extrapolations of the
// daily cost.
type CostSummary struct {
	DailyCost   float64 `json:"dailyCost"`
	MonthlyCost float64 `json:"monthlyCost"`
	YearlyCost  float64 `json:"yearlyCost"`
}

// Savings compares a candidate schedule's cost against a baseline.
type Savings struct {
	DailySavings   float64 `json:"dailySavings"`
	MonthlySavings float64 `json:"monthlySavings"`
	YearlySavings  float64 `json:"yearlySavings"`

	// PercentSaved is 0 (never NaN or Inf) when the baseline cost is 0.
	PercentSaved float64 `json:"percentSaved"`

	// CO2ReducedKgPerYear approximates avoided emissions from the
	// currency savings (dailySavings x 365 x factor). The factor mixes
	// units and is kept for compatibility with the published contract.
	CO2ReducedKgPerYear float64 `json:"co2Reduced"`

	// CO2EnergyBasedKgPerYear is the cleaner, energy-based alternative
	// (kg/kWh x kWh shifted off the grid's dirty hours). Reported only
	// when a kg/kWh factor is configured.
	CO2EnergyBasedKgPerYear float64 `json:"co2EnergyBased,omitempty"`
}

// Validation is the structured result of a schedule feasibility check.
// Problems are data, not errors: an invalid schedule is still returned
// to the caller along with what is wrong with it.
type Validation struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OptimizationResult is the transient bundle returned by a compute
// call. It is never persisted; accepting it creates a Plan.
type OptimizationResult struct {
	Mode              Mode        `json:"mode"`
	OptimizedSchedule Schedule    `json:"optimizedSchedule"`
	BeforeData        CostSummary `json:"beforeData"`
	AfterData         CostSummary `json:"afterData"`
	Savings           Savings     `json:"savings"`
	Validation        Validation  `json:"validation"`
}
