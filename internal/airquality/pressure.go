package airquality

import (
	"time"

	"github.com/aurasense/iaqcore/internal/state"
)

const pressureTrendHorizon = 3 * time.Hour
const pressureTrendMinData = 1 * time.Hour
const pressureTrendBandHpa = 1.5

// pressureTrend implements spec.md §4.5's barometric trend: compare the
// oldest sample within the last 3h against the latest.
func pressureTrend(r *ring, now time.Time) state.PressureTrend {
	if r.span() < pressureTrendMinData {
		return state.PressureTrend{Direction: state.TrendUnknown, Delta3hrHpa: state.NoData}
	}
	win := r.since(now.Add(-pressureTrendHorizon))
	if len(win) < 2 {
		return state.PressureTrend{Direction: state.TrendUnknown, Delta3hrHpa: state.NoData}
	}
	deltaPa := win[len(win)-1].val - win[0].val
	deltaHpa := deltaPa / 100

	dir := state.TrendStable
	switch {
	case deltaHpa < -pressureTrendBandHpa:
		dir = state.TrendFalling
	case deltaHpa > pressureTrendBandHpa:
		dir = state.TrendRising
	}
	return state.PressureTrend{Direction: dir, Delta3hrHpa: deltaHpa}
}
