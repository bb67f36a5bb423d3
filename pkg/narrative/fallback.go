package narrative

import (
	"fmt"

	"github.com/wattshift/wattshift/pkg/tariff"
	"github.com/wattshift/wattshift/pkg/types"
)

// Fallback builds a deterministic local explanation from the same
// inputs the external generator sees. Same request and table in, same
// prose out.
func Fallback(req types.ExplainRequest, tb *tariff.Table) types.Explanation {
	peak := tb.PeakHours()

	var offPeakBlocks, peakBlocks int
	for _, b := range req.Schedule {
		inPeak := false
		if !b.IsWeekend {
			for _, h := range b.Hours() {
				if peak[h] {
					inPeak = true
					break
				}
			}
		}
		if inPeak {
			peakBlocks++
		} else {
			offPeakBlocks++
		}
	}

	exp := types.Explanation{
		Summary: fmt.Sprintf(
			"This %s plan schedules %d devices, keeping %d of them outside peak pricing hours, for an estimated saving of $%.2f per day ($%.2f per year).",
			modeLabel(req.Mode), len(req.Schedule), offPeakBlocks, req.Savings.DailySavings, req.Savings.YearlySavings,
		),
	}

	for _, b := range req.Schedule {
		exp.Steps = append(exp.Steps, fmt.Sprintf(
			"Run %s from %02d:00 to %02d:00 (%.1f kW).",
			b.DeviceName, b.StartHour, b.EndHour, b.PowerW/1000.0,
		))
	}

	if peakBlocks > 0 {
		exp.Recommendations = append(exp.Recommendations, fmt.Sprintf(
			"%d devices still run during peak hours; shifting them overnight would save more.", peakBlocks,
		))
	}
	if req.Savings.PercentSaved > 0 {
		exp.Recommendations = append(exp.Recommendations, fmt.Sprintf(
			"Accepting this plan reduces your electricity cost by %.1f%%.", req.Savings.PercentSaved,
		))
	} else {
		exp.Recommendations = append(exp.Recommendations,
			"This plan does not reduce cost versus your current schedule; consider the off-peak mode.",
		)
	}

	exp.Improvements = append(exp.Improvements, types.Improvement{
		Title:       "Review flexible devices",
		Description: "Marking more devices as flexible lets the scheduler move them into cheaper hours.",
	})
	if req.Savings.CO2ReducedKgPerYear > 0 {
		exp.Improvements = append(exp.Improvements, types.Improvement{
			Title:       "Emissions",
			Description: fmt.Sprintf("Estimated emissions reduction of %.0f kg CO2 per year.", req.Savings.CO2ReducedKgPerYear),
		})
	}
	return exp
}

func modeLabel(m types.Mode) string {
	switch m {
	case types.ModeOffPeak:
		return "off-peak"
	case types.ModePartial:
		return "partial"
	case types.ModeCustom:
		return "custom"
	default:
		return "normal"
	}
}
