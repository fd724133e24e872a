package airquality

import "github.com/aurasense/iaqcore/internal/state"

// gasCategory maps a Sensirion gas index (0..500) to spec.md §4.5's
// VOC/NOx category bands. Shared by VOC and NOx since both use the same
// thresholds.
func gasCategory(index int) string {
	switch {
	case index == state.IndexNoData:
		return "Unknown"
	case index <= 100:
		return "Excellent"
	case index <= 150:
		return "Good"
	case index <= 200:
		return "Moderate"
	case index <= 250:
		return "Poor"
	case index <= 350:
		return "Very Poor"
	default:
		return "Severe"
	}
}

// vocScore is the linear 0-index->100, 500-index->0 mapping spec.md §4.5
// uses for the overall IAQ score's VOC term.
func vocScore(index int) float64 {
	if index == state.IndexNoData {
		return state.NoData
	}
	score := 100 - float64(index)*100/500
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
