package airquality

import (
	"sort"
	"time"

	"github.com/aurasense/iaqcore/internal/state"
)

// co2ScoreAnchors is the piecewise-linear mapping from spec.md §4.5,
// evaluated in ascending-ppm order per DESIGN.md's Open Question (b)
// resolution: the 400-600 segment interpolates 100 -> 85 as ppm rises.
var co2ScoreAnchors = []struct {
	ppm   float64
	score float64
}{
	{400, 100}, {600, 85}, {800, 70}, {1000, 50}, {1500, 25}, {2000, 0},
}

// co2Score implements spec.md §4.5's CO2 score: piecewise-linear,
// monotonic non-increasing, clamped to [0, 100].
func co2Score(ppm float64) float64 {
	if state.IsNoData(ppm) {
		return state.NoData
	}
	if ppm <= co2ScoreAnchors[0].ppm {
		return 100
	}
	last := co2ScoreAnchors[len(co2ScoreAnchors)-1]
	if ppm >= last.ppm {
		return 0
	}
	for i := 0; i < len(co2ScoreAnchors)-1; i++ {
		lo, hi := co2ScoreAnchors[i], co2ScoreAnchors[i+1]
		if ppm >= lo.ppm && ppm <= hi.ppm {
			frac := (ppm - lo.ppm) / (hi.ppm - lo.ppm)
			return lo.score + frac*(hi.score-lo.score)
		}
	}
	return 0
}

const (
	co2RateWindow  = 15 * time.Minute
	co2RateMinSpan = 5 * time.Minute
	co2RateClamp   = 2500.0
	co2RateEmaA    = 0.25
)

// co2RateTracker computes ppm/hr rate of change per spec.md §4.5: median
// filter over the windowed samples, least-squares slope against time in
// hours, clamp, then EMA over successive reported values.
type co2RateTracker struct {
	haveEma bool
	ema     float64
}

func (t *co2RateTracker) compute(r *ring, now time.Time) float64 {
	win := r.since(now.Add(-co2RateWindow))
	if len(win) < 2 || win[len(win)-1].at.Sub(win[0].at) < co2RateMinSpan {
		return state.NoData
	}

	filtered := medianFilter3(win)
	slope := leastSquaresSlopePerHour(filtered)
	if slope > co2RateClamp {
		slope = co2RateClamp
	}
	if slope < -co2RateClamp {
		slope = -co2RateClamp
	}

	if !t.haveEma {
		t.ema = slope
		t.haveEma = true
	} else {
		t.ema = co2RateEmaA*slope + (1-co2RateEmaA)*t.ema
	}
	return t.ema
}

// medianFilter3 replaces each interior sample with the median of itself and
// its two neighbors, per spec.md §4.5's "3-point median filter".
func medianFilter3(samples []sample) []sample {
	if len(samples) < 3 {
		return samples
	}
	out := make([]sample, len(samples))
	out[0] = samples[0]
	out[len(samples)-1] = samples[len(samples)-1]
	for i := 1; i < len(samples)-1; i++ {
		vals := []float64{samples[i-1].val, samples[i].val, samples[i+1].val}
		sort.Float64s(vals)
		out[i] = sample{at: samples[i].at, val: vals[1]}
	}
	return out
}

// leastSquaresSlopePerHour fits y = a + b*x (x in hours since the first
// sample) and returns b, the rate of change per hour.
func leastSquaresSlopePerHour(samples []sample) float64 {
	n := float64(len(samples))
	t0 := samples[0].at
	var sumX, sumY, sumXY, sumXX float64
	for _, s := range samples {
		x := s.at.Sub(t0).Hours()
		y := s.val
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
