package airquality

import "github.com/aurasense/iaqcore/internal/state"

// overallIAQScore implements spec.md §4.5's weighted overall score, clamped
// to [0, 100]. A NaN input is read as 0 rather than propagating NaN through
// the whole score, so the score stays defined when one input sensor is
// unavailable. For the CO₂, VOC and comfort terms that is the worst case (0
// contribution); for the AQI term it gives 100 - 0/5 = 100, the best case.
func overallIAQScore(co2Score, aqi, vocScore, comfortScore float64) float64 {
	term := func(v float64) float64 {
		if state.IsNoData(v) {
			return 0
		}
		return v
	}
	aqiTerm := 100 - term(aqi)/5

	score := 0.35*term(co2Score) + 0.35*aqiTerm + 0.20*term(vocScore) + 0.10*term(comfortScore)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
