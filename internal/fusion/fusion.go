// Package fusion implements the 1 Hz cross-sensor compensation engine from
// spec.md §4.4: temperature self-heat removal, RH re-evaluation at the
// corrected temperature, particulate humidity correction, CO2 pressure
// compensation, and CO2 automatic baseline correction (ABC).
package fusion

import (
	"context"
	"math"
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
	"github.com/aurasense/iaqcore/internal/state"
)

const tickPeriod = 1 * time.Second

// pmRhMaxAgeS is the "not older than 60 s" freshness gate on particulate
// humidity correction, per spec.md §4.4 item 3.
const pmRhMaxAgeS = 60.0

// pmRhMaxPct is the "< 90" RH ceiling on particulate humidity correction.
const pmRhMaxPct = 90.0

const pressureMinPa = 95000.0
const pressureMaxPa = 106000.0

// Engine runs the fixed compensation pipeline against a shared state.Store.
type Engine struct {
	store       *state.Store
	cfg         Config
	clockSynced func() bool
	abc         *abcTracker
	persist     ConfigStore
}

// New constructs a fusion Engine. clockSynced gates ABC tracking per
// spec.md §9 Open Question (a); a nil clockSynced is treated as "always
// synced". persist may be nil (no persistence).
func New(store *state.Store, persist ConfigStore, clockSynced func() bool) *Engine {
	if clockSynced == nil {
		clockSynced = func() bool { return true }
	}
	return &Engine{
		store:       store,
		cfg:         loadConfig(persist),
		clockSynced: clockSynced,
		abc:         newABCTracker(),
		persist:     persist,
	}
}

// SetConfig hot-reloads the compensation coefficients, used by tests and by
// a future settings-change command surface.
func (e *Engine) SetConfig(cfg Config) { e.cfg = cfg }

// Run ticks the compensation pipeline at 1 Hz until ctx is canceled.
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

// Tick runs one compensation pass. Exported so tests can drive it without a
// real ticker.
func (e *Engine) Tick(now time.Time) {
	var abcCorrection float64
	var abcReady bool
	e.store.WithLock(func(s *state.State) {
		e.compensateTemp(s)
		e.compensateRH(s)
		e.compensateParticulates(s, now)
		e.compensateCO2Pressure(s)
		abcCorrection, abcReady = e.compensateCO2ABC(s, now)
	})
	// Persisted after the shared-state lock is released: the settings store
	// takes its own mutex.
	if abcReady && e.persist != nil {
		e.persist.SetFloat64(fusionNamespace, "abc_baseline_ppm", abcCorrection)
	}
}

// compensateTemp applies item 1: self-heat offset removal.
func (e *Engine) compensateTemp(s *state.State) {
	if !s.Valid.TempC || state.IsNoData(s.Raw.TempC) {
		s.Fused.TempC = state.NoData
		s.Diag.TempSelfHeatOffsetC = state.NoData
		return
	}
	s.Fused.TempC = s.Raw.TempC - e.cfg.TempSelfHeatOffsetC
	s.Diag.TempSelfHeatOffsetC = e.cfg.TempSelfHeatOffsetC
}

// compensateRH applies item 2: RH re-evaluated at the corrected
// temperature via the Magnus saturation-vapour-pressure approximation,
// clamped to [0, 100].
func (e *Engine) compensateRH(s *state.State) {
	if !s.Valid.RHPct || state.IsNoData(s.Raw.RHPct) || state.IsNoData(s.Fused.TempC) {
		s.Fused.RHPct = state.NoData
		return
	}
	rawT, correctedT := s.Raw.TempC, s.Fused.TempC
	satRaw := magnusSaturationVaporPressure(rawT)
	satCorrected := magnusSaturationVaporPressure(correctedT)
	if satCorrected == 0 {
		s.Fused.RHPct = state.NoData
		return
	}
	rh := s.Raw.RHPct * satRaw / satCorrected
	if rh < 0 {
		rh = 0
	}
	if rh > 100 {
		rh = 100
	}
	s.Fused.RHPct = rh
}

// magnusSaturationVaporPressure returns the Magnus-Tetens approximation of
// saturation vapor pressure (hPa) at tempC.
func magnusSaturationVaporPressure(tempC float64) float64 {
	const a, b = 17.62, 243.12
	return 6.112 * math.Exp(a*tempC/(b+tempC))
}

// compensateParticulates applies item 3.
func (e *Engine) compensateParticulates(s *state.State, now time.Time) {
	if !s.Valid.PM25 || state.IsNoData(s.Raw.PM25) {
		s.Fused.PM1, s.Fused.PM25, s.Fused.PM10 = state.NoData, state.NoData, state.NoData
		s.Diag.PMRHFactor = state.NoData
		s.Diag.PM25Quality = state.NoData
		s.Diag.PM1PM25Ratio = state.NoData
		return
	}

	s.Fused.PM1 = s.Raw.PM1

	rh := s.Fused.RHPct
	age := pmAgeSeconds(s, now)
	applyCorrection := !state.IsNoData(rh) && rh < pmRhMaxPct && age >= 0 && age <= pmRhMaxAgeS

	factor := 1.0
	if applyCorrection {
		factor = 1 + e.cfg.PmRhA*math.Pow(rh/100, e.cfg.PmRhB)
	}
	s.Diag.PMRHFactor = factor
	s.Fused.PM25 = s.Raw.PM25 / factor
	if s.Valid.PM10 && !state.IsNoData(s.Raw.PM10) {
		s.Fused.PM10 = s.Raw.PM10 / factor
	} else {
		s.Fused.PM10 = state.NoData
	}

	s.Diag.PM25Quality = pm25Quality(rh, age, applyCorrection)
	if s.Fused.PM25 > 0 {
		s.Diag.PM1PM25Ratio = s.Fused.PM1 / s.Fused.PM25
	} else {
		s.Diag.PM1PM25Ratio = state.NoData
	}
}

func pmAgeSeconds(s *state.State, now time.Time) float64 {
	t := s.UpdatedAt[sensor.Pms5003]
	if t.IsZero() {
		return -1
	}
	return now.Sub(t).Seconds()
}

// pm25Quality scores the particulate correction's trustworthiness in
// [0, 100] from RH range, sample age, and whether the correction gate fired,
// per spec.md §4.4 item 3.
func pm25Quality(rh, ageS float64, corrected bool) float64 {
	score := 100.0
	if !corrected {
		score -= 40
	}
	if !state.IsNoData(rh) {
		if rh > 85 {
			score -= 20
		} else if rh > 70 {
			score -= 10
		}
	}
	if ageS < 0 {
		score -= 50
	} else if ageS > 30 {
		score -= 15
	}
	if score < 0 {
		score = 0
	}
	return score
}

// compensateCO2Pressure applies item 4.
func (e *Engine) compensateCO2Pressure(s *state.State) {
	if !s.Valid.CO2Ppm || state.IsNoData(s.Raw.CO2Ppm) {
		s.Fused.CO2Ppm = state.NoData
		s.Diag.CO2PressureOffsetPpm = state.NoData
		return
	}
	co2 := s.Raw.CO2Ppm
	if s.Valid.PressurePa && !state.IsNoData(s.Raw.PressurePa) &&
		s.Raw.PressurePa >= pressureMinPa && s.Raw.PressurePa <= pressureMaxPa {
		compensated := co2 * (e.cfg.PRefPa / s.Raw.PressurePa)
		s.Diag.CO2PressureOffsetPpm = compensated - co2
		co2 = compensated
	} else {
		s.Diag.CO2PressureOffsetPpm = 0
	}
	s.Fused.CO2Ppm = co2
}

// compensateCO2ABC applies item 5. While clockSynced reports false the night
// tracker is not fed, the baseline diag is NoData and confidence is 0, per
// the Open Question (a) resolution in DESIGN.md. The additive correction to
// fused.co2_ppm is applied only once the ring is full; it is then returned
// with ready=true so Tick can persist it outside the lock.
func (e *Engine) compensateCO2ABC(s *state.State, now time.Time) (float64, bool) {
	if state.IsNoData(s.Fused.CO2Ppm) {
		return 0, false
	}
	if !e.clockSynced() {
		s.Diag.ABCBaselinePpm = state.NoData
		s.Diag.ABCConfidencePct = 0
		return 0, false
	}

	e.abc.observe(now.Local(), s.Fused.CO2Ppm)
	correction, confidence, ready := e.abc.baseline(e.cfg.ABCTargetPpm)
	s.Diag.ABCConfidencePct = confidence
	if !ready {
		s.Diag.ABCBaselinePpm = state.NoData
		return 0, false
	}
	s.Diag.ABCBaselinePpm = correction
	s.Fused.CO2Ppm += correction
	return correction, true
}
