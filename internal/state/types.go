// Package state implements the single mutex-guarded shared state record
// described in spec.md §3/§4.2: raw readings, fused readings, derived
// metrics, and per-sensor validity/freshness bookkeeping, behind one
// non-reentrant lock.
package state

import (
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
)

// RawReadings holds the latest uncompensated sensor outputs. Only driver
// dispatch code (internal/coordinator) writes this; fusion and metrics never
// do, per Invariant 3.
type RawReadings struct {
	McuTempC   float64
	TempC      float64
	RHPct      float64
	PressurePa float64
	PM1        float64
	PM25       float64
	PM10       float64
	VocIndex   int
	NoxIndex   int
	CO2Ppm     float64
}

// FusedReadings holds the cross-sensor-compensated counterparts. Only
// internal/fusion writes this.
type FusedReadings struct {
	TempC      float64
	RHPct      float64
	PressurePa float64
	PM1        float64
	PM25       float64
	PM10       float64
	VocIndex   int
	NoxIndex   int
	CO2Ppm     float64
}

// AQIMetrics is the EPA AQI derivation.
type AQIMetrics struct {
	Value             int
	Category          string
	DominantPollutant string
	PM25Subindex      float64
	PM10Subindex      float64
}

// ComfortMetrics is the thermal-comfort derivation.
type ComfortMetrics struct {
	DewPointC      float64
	AbsHumidityGM3 float64
	HeatIndexC     float64
	Score          float64
	Category       string
}

// TrendDirection is the pressure trend direction enumeration.
type TrendDirection int

const (
	TrendUnknown TrendDirection = iota
	TrendRising
	TrendStable
	TrendFalling
)

func (d TrendDirection) String() string {
	switch d {
	case TrendRising:
		return "rising"
	case TrendStable:
		return "stable"
	case TrendFalling:
		return "falling"
	default:
		return "unknown"
	}
}

// PressureTrend is the barometric trend derivation.
type PressureTrend struct {
	Direction    TrendDirection
	Delta3hrHpa  float64
}

// MoldRisk is the mold-risk derivation.
type MoldRisk struct {
	Score    float64
	Category string
}

// Metrics holds every derived air-quality metric, written only by
// internal/airquality.
type Metrics struct {
	AQI               AQIMetrics
	Comfort           ComfortMetrics
	PressureTrend     PressureTrend
	CO2RatePpmHr      float64
	CO2Score          float64
	VocCategory       string
	NoxCategory       string
	PM25SpikeDetected bool
	Mold              MoldRisk
	OverallIAQScore   float64
}

// FusionDiag holds the fusion engine's internal diagnostic fields, written
// only by internal/fusion.
type FusionDiag struct {
	PMRHFactor            float64
	CO2PressureOffsetPpm  float64
	TempSelfHeatOffsetC   float64
	ABCBaselinePpm        float64
	ABCConfidencePct      float64
	PM25Quality           float64
	PM1PM25Ratio          float64
}

// Valid carries one boolean per raw field, per spec.md §3 Invariant 4.
type Valid struct {
	McuTempC   bool
	TempC      bool
	RHPct      bool
	PressurePa bool
	PM1        bool
	PM25       bool
	PM10       bool
	VocIndex   bool
	NoxIndex   bool
	CO2Ppm     bool
}

// Last archives the most recent valid value of each raw field, populated
// when the owning field's Valid bit transitions true -> false (i.e. on
// Disable), so stale-value UIs can show "last known" per spec.md §7.
type Last struct {
	McuTempC   float64
	TempC      float64
	RHPct      float64
	PressurePa float64
	PM1        float64
	PM25       float64
	PM10       float64
	VocIndex   int
	NoxIndex   int
	CO2Ppm     float64
}

// RuntimeView is the per-sensor lifecycle view exposed to snapshot
// consumers, per spec.md §6. It is derived on demand (see Snapshot's
// RuntimeView method) from the coordinator's internal bookkeeping, because
// "remaining" and "age" are relative to the moment a consumer asks.
type RuntimeView struct {
	State            sensor.State
	WarmupRemainingS float64
	LastReadAgeS     float64
	ErrorCount       int
}

// SensorRuntime is the coordinator's internal per-sensor bookkeeping,
// embedded in State so it lives under the same lock as everything else.
// Zero-value LastRead means "never read", per spec.md §3.
type SensorRuntime struct {
	State           sensor.State
	WarmupDeadline  time.Time
	LastRead        time.Time
	ErrorCount      int
}

// State is the full shared-state record. Every field is exported so that
// callers holding the lock (via Store.WithLock) can read and mutate freely;
// nothing outside internal/state ever holds a *State without the lock.
type State struct {
	Raw       RawReadings
	Fused     FusedReadings
	Metrics   Metrics
	Diag      FusionDiag
	Valid     Valid
	Last      Last
	UpdatedAt [sensor.NumSensors]time.Time
	Runtime   [sensor.NumSensors]SensorRuntime
}

func newState() State {
	s := State{}
	s.Raw = RawReadings{
		McuTempC: NoData, TempC: NoData, RHPct: NoData, PressurePa: NoData,
		PM1: NoData, PM25: NoData, PM10: NoData,
		VocIndex: IndexNoData, NoxIndex: IndexNoData,
		CO2Ppm: NoData,
	}
	s.Fused = FusedReadings{
		TempC: NoData, RHPct: NoData, PressurePa: NoData,
		PM1: NoData, PM25: NoData, PM10: NoData,
		VocIndex: IndexNoData, NoxIndex: IndexNoData,
		CO2Ppm: NoData,
	}
	s.Metrics = Metrics{
		AQI:             AQIMetrics{Value: IndexNoData, Category: "Unknown", PM25Subindex: NoData, PM10Subindex: NoData},
		Comfort:         ComfortMetrics{DewPointC: NoData, AbsHumidityGM3: NoData, HeatIndexC: NoData, Score: NoData, Category: "Unknown"},
		PressureTrend:   PressureTrend{Direction: TrendUnknown, Delta3hrHpa: NoData},
		CO2RatePpmHr:    NoData,
		CO2Score:        NoData,
		VocCategory:     "Unknown",
		NoxCategory:     "Unknown",
		Mold:            MoldRisk{Score: NoData, Category: "Unknown"},
		OverallIAQScore: NoData,
	}
	s.Diag = FusionDiag{
		PMRHFactor: NoData, CO2PressureOffsetPpm: NoData, TempSelfHeatOffsetC: NoData,
		ABCBaselinePpm: NoData, ABCConfidencePct: 0, PM25Quality: NoData, PM1PM25Ratio: NoData,
	}
	for i := range s.Runtime {
		s.Runtime[i] = SensorRuntime{State: sensor.Uninit}
	}
	return s
}
