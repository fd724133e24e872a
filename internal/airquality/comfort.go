package airquality

import (
	"math"

	"github.com/aurasense/iaqcore/internal/state"
)

// dewPointC implements the Magnus formula from spec.md §4.5.
func dewPointC(tempC, rhPct float64) float64 {
	alpha := 17.27*tempC/(237.7+tempC) + math.Log(rhPct/100)
	return 237.7 * alpha / (17.27 - alpha)
}

// absoluteHumidityGM3 implements spec.md §4.5's AH formula.
func absoluteHumidityGM3(tempC, rhPct float64) float64 {
	return (6.112 * math.Exp(17.67*tempC/(tempC+243.5)) * rhPct * 2.1674) / (273.15 + tempC)
}

// heatIndexC implements spec.md §4.5's simplified heat index, active only
// above its stated threshold.
func heatIndexC(tempC, rhPct float64) float64 {
	if tempC >= 27 && rhPct >= 40 {
		return -8.78 + 1.61*tempC + 2.34*rhPct - 0.146*tempC*rhPct
	}
	return tempC
}

func tempPenalty(tempC float64) float64 {
	switch {
	case tempC >= 20 && tempC <= 24:
		return 0
	case tempC >= 18 && tempC < 20:
		return 10
	case tempC > 24 && tempC <= 26:
		return 15
	case tempC < 18:
		return 30
	default: // > 26
		return 30
	}
}

func rhPenalty(rhPct float64) float64 {
	switch {
	case rhPct >= 40 && rhPct <= 60:
		return 0
	case rhPct >= 30 && rhPct < 40:
		return 10
	case rhPct > 60 && rhPct <= 70:
		return 15
	case rhPct < 30:
		return 25
	default: // > 70
		return 30
	}
}

func comfortCategory(score float64) string {
	switch {
	case score >= 80:
		return "Comfortable"
	case score >= 60:
		return "Acceptable"
	case score >= 40:
		return "Slightly Uncomfortable"
	case score >= 20:
		return "Uncomfortable"
	default:
		return "Very Uncomfortable"
	}
}

// computeComfort implements spec.md §4.5's thermal comfort derivation.
// Requires both fused temperature and RH to be valid.
func computeComfort(tempC, rhPct float64) state.ComfortMetrics {
	if state.IsNoData(tempC) || state.IsNoData(rhPct) {
		return state.ComfortMetrics{
			DewPointC: state.NoData, AbsHumidityGM3: state.NoData,
			HeatIndexC: state.NoData, Score: state.NoData, Category: "Unknown",
		}
	}
	score := 100 - tempPenalty(tempC) - rhPenalty(rhPct)
	if score < 0 {
		score = 0
	}
	return state.ComfortMetrics{
		DewPointC:      dewPointC(tempC, rhPct),
		AbsHumidityGM3: absoluteHumidityGM3(tempC, rhPct),
		HeatIndexC:     heatIndexC(tempC, rhPct),
		Score:          score,
		Category:       comfortCategory(score),
	}
}
