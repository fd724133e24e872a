package airquality

import "github.com/aurasense/iaqcore/internal/state"

func moldCategory(score float64) string {
	switch {
	case score >= 75:
		return "High"
	case score >= 50:
		return "Elevated"
	case score >= 25:
		return "Moderate"
	default:
		return "Low"
	}
}

// moldRisk implements spec.md §4.5's piecewise mold-risk-from-dew-point
// derivation.
func moldRisk(dewPointC float64) state.MoldRisk {
	if state.IsNoData(dewPointC) {
		return state.MoldRisk{Score: state.NoData, Category: "Unknown"}
	}

	var score float64
	switch {
	case dewPointC < 10:
		td := dewPointC
		if td < 0 {
			td = 0
		}
		score = td / 10 * 25
	case dewPointC < 15:
		score = 25 + (dewPointC-10)/5*25
	case dewPointC < 18:
		score = 50 + (dewPointC-15)/3*25
	default:
		score = 75 + (dewPointC-18)/7*25
		if score > 100 {
			score = 100
		}
	}
	return state.MoldRisk{Score: score, Category: moldCategory(score)}
}
