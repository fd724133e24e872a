// Package airquality implements the 0.2 Hz metrics derivation engine from
// spec.md §4.5: EPA AQI, thermal comfort, CO2 score/rate, particulate spike
// detection, pressure trend, mold risk, VOC/NOx categories, and the overall
// IAQ score. Named to avoid colliding with internal/telemetry's Prometheus
// "metrics".
package airquality

import (
	"context"
	"time"

	"github.com/aurasense/iaqcore/internal/state"
)

const tickPeriod = 5 * time.Second

const (
	pressureRingCapacity = 144
	pressureRingPeriod   = 150 * time.Second
	co2RingCapacity      = 64
	co2RingPeriod        = 60 * time.Second
	pm25RingCapacity     = 120
	pm25RingPeriod       = 30 * time.Second
)

// Engine owns the three bounded ring buffers and derives metrics.* from
// fused.* on each tick.
type Engine struct {
	store *state.Store

	pressureRing *ring
	co2Ring      *ring
	pm25Ring     *ring
	co2Rate      co2RateTracker
}

// New allocates the engine's ring buffers once, per spec.md §4.5/§9.
func New(store *state.Store) *Engine {
	return &Engine{
		store:        store,
		pressureRing: newRing(pressureRingCapacity, pressureRingPeriod),
		co2Ring:      newRing(co2RingCapacity, co2RingPeriod),
		pm25Ring:     newRing(pm25RingCapacity, pm25RingPeriod),
	}
}

// Run ticks the metrics engine at 0.2 Hz until ctx is canceled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.Tick(now)
		}
	}
}

// Tick runs one derivation pass. Exported so tests can drive it without a
// real ticker.
func (e *Engine) Tick(now time.Time) {
	e.store.WithLock(func(s *state.State) {
		if !state.IsNoData(s.Fused.PressurePa) {
			e.pressureRing.maybePush(now, s.Fused.PressurePa)
		}
		if !state.IsNoData(s.Fused.CO2Ppm) {
			e.co2Ring.maybePush(now, s.Fused.CO2Ppm)
		}
		if !state.IsNoData(s.Fused.PM25) {
			e.pm25Ring.maybePush(now, s.Fused.PM25)
		}

		s.Metrics.AQI = computeAQI(s.Fused.PM25, s.Fused.PM10)
		s.Metrics.Comfort = computeComfort(s.Fused.TempC, s.Fused.RHPct)
		s.Metrics.PressureTrend = pressureTrend(e.pressureRing, now)
		s.Metrics.CO2Score = co2Score(s.Fused.CO2Ppm)
		s.Metrics.CO2RatePpmHr = e.co2Rate.compute(e.co2Ring, now)
		s.Metrics.VocCategory = gasCategory(s.Fused.VocIndex)
		s.Metrics.NoxCategory = gasCategory(s.Fused.NoxIndex)
		s.Metrics.Mold = moldRisk(s.Metrics.Comfort.DewPointC)

		if !state.IsNoData(s.Fused.PM25) {
			s.Metrics.PM25SpikeDetected = pm25SpikeDetected(e.pm25Ring, now, s.Fused.PM25)
		} else {
			s.Metrics.PM25SpikeDetected = false
		}

		aqiVal := state.NoData
		if s.Metrics.AQI.Value != state.IndexNoData {
			aqiVal = float64(s.Metrics.AQI.Value)
		}
		s.Metrics.OverallIAQScore = overallIAQScore(
			s.Metrics.CO2Score, aqiVal, vocScore(s.Fused.VocIndex), s.Metrics.Comfort.Score)
	})
}
