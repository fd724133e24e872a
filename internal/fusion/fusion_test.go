package fusion

import (
	"testing"
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
	"github.com/aurasense/iaqcore/internal/state"
)

func newTestEngine() (*Engine, *state.Store) {
	store := state.New()
	return New(store, nil, func() bool { return true }), store
}

func TestCompensateTempOffset(t *testing.T) {
	e, store := newTestEngine()
	e.SetConfig(Config{TempSelfHeatOffsetC: 1.5})
	store.WithLock(func(s *state.State) {
		s.Valid.TempC = true
		s.Raw.TempC = 26.0
	})
	e.Tick(time.Now())
	snap := store.Snapshot()
	if snap.Fused.TempC != 24.5 {
		t.Errorf("Fused.TempC = %v, want 24.5", snap.Fused.TempC)
	}
}

func TestCompensateTempInvalidPropagatesNoData(t *testing.T) {
	e, store := newTestEngine()
	e.Tick(time.Now())
	snap := store.Snapshot()
	if !state.IsNoData(snap.Fused.TempC) {
		t.Errorf("Fused.TempC = %v, want NoData when raw invalid", snap.Fused.TempC)
	}
}

func TestCompensateRHUnchangedWhenNoOffset(t *testing.T) {
	e, store := newTestEngine()
	e.SetConfig(Config{}) // zero self-heat offset: corrected temp == raw temp
	store.WithLock(func(s *state.State) {
		s.Valid.TempC, s.Valid.RHPct = true, true
		s.Raw.TempC, s.Raw.RHPct = 22.0, 45.0
	})
	e.Tick(time.Now())
	snap := store.Snapshot()
	if diff := snap.Fused.RHPct - 45.0; diff < -0.01 || diff > 0.01 {
		t.Errorf("Fused.RHPct = %v, want ~45.0 (no self-heat offset to re-evaluate against)", snap.Fused.RHPct)
	}
}

func TestCompensateRHRisesWithPositiveSelfHeatOffset(t *testing.T) {
	// A positive self-heat offset means corrected temp < raw temp, which
	// raises the saturation-vapor-pressure ratio and so the re-evaluated RH.
	e, store := newTestEngine()
	e.SetConfig(Config{TempSelfHeatOffsetC: 3.0})
	store.WithLock(func(s *state.State) {
		s.Valid.TempC, s.Valid.RHPct = true, true
		s.Raw.TempC, s.Raw.RHPct = 25.0, 40.0
	})
	e.Tick(time.Now())
	snap := store.Snapshot()
	if snap.Fused.RHPct <= 40.0 {
		t.Errorf("Fused.RHPct = %v, want > 40.0 after cooling-offset re-evaluation", snap.Fused.RHPct)
	}
}

func TestCompensateParticulatesAppliesRHFactorWhenFreshAndBelowCeiling(t *testing.T) {
	e, store := newTestEngine()
	e.SetConfig(Config{PmRhA: 0.3, PmRhB: 3.0})
	now := time.Now()
	store.WithLock(func(s *state.State) {
		s.Valid.TempC, s.Valid.RHPct, s.Valid.PM25, s.Valid.PM10 = true, true, true, true
		s.Raw.TempC, s.Raw.RHPct = 25, 80
		s.Raw.PM1, s.Raw.PM25, s.Raw.PM10 = 5, 20, 30
		s.UpdatedAt[sensor.Pms5003] = now
	})
	e.Tick(now)
	snap := store.Snapshot()
	wantFactor := 1 + 0.3*pow(0.80, 3.0)
	if diff := snap.Diag.PMRHFactor - wantFactor; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("Diag.PMRHFactor = %v, want %v", snap.Diag.PMRHFactor, wantFactor)
	}
	if diff := snap.Fused.PM25 - 20/wantFactor; diff < -1e-6 || diff > 1e-6 {
		t.Errorf("Fused.PM25 = %v, want %v", snap.Fused.PM25, 20/wantFactor)
	}
}

func pow(x, y float64) float64 {
	r := 1.0
	for i := 0.0; i < y; i++ {
		r *= x
	}
	return r
}

func TestCompensateParticulatesSkipsCorrectionWhenStale(t *testing.T) {
	e, store := newTestEngine()
	now := time.Now()
	store.WithLock(func(s *state.State) {
		s.Valid.TempC, s.Valid.RHPct, s.Valid.PM25 = true, true, true
		s.Raw.TempC, s.Raw.RHPct = 25, 80
		s.Raw.PM25 = 20
		s.UpdatedAt[sensor.Pms5003] = now.Add(-5 * time.Minute) // older than the 60s gate
	})
	e.Tick(now)
	snap := store.Snapshot()
	if snap.Diag.PMRHFactor != 1.0 {
		t.Errorf("Diag.PMRHFactor = %v, want 1.0 (gate should have skipped correction)", snap.Diag.PMRHFactor)
	}
	if snap.Fused.PM25 != 20 {
		t.Errorf("Fused.PM25 = %v, want 20 (uncorrected)", snap.Fused.PM25)
	}
}

func TestCompensateParticulatesSkipsCorrectionAboveRHCeiling(t *testing.T) {
	e, store := newTestEngine()
	now := time.Now()
	store.WithLock(func(s *state.State) {
		s.Valid.TempC, s.Valid.RHPct, s.Valid.PM25 = true, true, true
		s.Raw.TempC, s.Raw.RHPct = 25, 95 // above the 90% ceiling
		s.Raw.PM25 = 20
		s.UpdatedAt[sensor.Pms5003] = now
	})
	e.Tick(now)
	snap := store.Snapshot()
	if snap.Diag.PMRHFactor != 1.0 {
		t.Errorf("Diag.PMRHFactor = %v, want 1.0 above the RH ceiling", snap.Diag.PMRHFactor)
	}
}

func TestCompensateCO2PressureWithinRange(t *testing.T) {
	e, store := newTestEngine()
	e.SetConfig(Config{PRefPa: 101325})
	store.WithLock(func(s *state.State) {
		s.Valid.CO2Ppm, s.Valid.PressurePa = true, true
		s.Raw.CO2Ppm = 800
		s.Raw.PressurePa = 100000
	})
	e.Tick(time.Now())
	snap := store.Snapshot()
	want := 800 * (101325.0 / 100000.0)
	if diff := snap.Fused.CO2Ppm - want; diff < -1e-6 || diff > 1e-6 {
		t.Errorf("Fused.CO2Ppm = %v, want %v", snap.Fused.CO2Ppm, want)
	}
}

func TestCompensateCO2PressureOutOfRangeSkipsCompensation(t *testing.T) {
	e, store := newTestEngine()
	store.WithLock(func(s *state.State) {
		s.Valid.CO2Ppm, s.Valid.PressurePa = true, true
		s.Raw.CO2Ppm = 800
		s.Raw.PressurePa = 50000 // well outside [95000,106000]
	})
	e.Tick(time.Now())
	snap := store.Snapshot()
	if snap.Fused.CO2Ppm != 800 {
		t.Errorf("Fused.CO2Ppm = %v, want 800 (uncompensated, pressure out of range)", snap.Fused.CO2Ppm)
	}
	if snap.Diag.CO2PressureOffsetPpm != 0 {
		t.Errorf("Diag.CO2PressureOffsetPpm = %v, want 0", snap.Diag.CO2PressureOffsetPpm)
	}
}

func TestTickIsIdempotentOnStableInputs(t *testing.T) {
	e, store := newTestEngine()
	now := time.Now()
	store.WithLock(func(s *state.State) {
		s.Valid.TempC, s.Valid.RHPct, s.Valid.CO2Ppm, s.Valid.PressurePa = true, true, true, true
		s.Raw.TempC, s.Raw.RHPct = 24, 55
		s.Raw.CO2Ppm, s.Raw.PressurePa = 600, 101000
	})
	e.Tick(now)
	first := store.Snapshot().Fused
	e.Tick(now.Add(time.Second))
	second := store.Snapshot().Fused
	if first.TempC != second.TempC || first.RHPct != second.RHPct {
		t.Errorf("repeated ticks on stable input changed fused temp/RH: %+v -> %+v", first, second)
	}
}
