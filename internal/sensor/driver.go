package sensor

import (
	"context"
	"time"
)

// Driver is the uniform capability set every sensor exposes, per spec.md
// §4.1. Not every operation is meaningful for every sensor; unsupported
// operations return an *OpError with KindUnsupported and take no action.
//
// Drivers must be non-reentrant per sensor — the coordinator guarantees at
// most one call in flight — and must never acquire the shared-state lock;
// internal/state.Store is owned exclusively by the coordinator, fusion, and
// metrics engines.
type Driver interface {
	// ID identifies which of the six fixed sensors this driver implements.
	ID() ID

	// WarmupDuration is the post-Init/post-Enable interval during which
	// reads are not yet trusted. Zero means the sensor is usable
	// immediately (Init/Enable transitions straight to Ready).
	WarmupDuration() time.Duration

	// Init brings the driver to a state where Enable may succeed. It does
	// not itself make Read legal.
	Init(ctx context.Context) error

	// Enable makes subsequent Read calls legal once warm-up elapses.
	Enable(ctx context.Context) error

	// Disable puts the sensor in its lowest-power reachable state;
	// subsequent Read calls fail until Enable is called again.
	Disable(ctx context.Context) error

	// Read performs one measurement. On success it returns a Reading of
	// the driver's own concrete type and a nil error. On failure it
	// returns a nil Reading and a non-nil *OpError; no partial state is
	// observable to the caller.
	Read(ctx context.Context) (Reading, error)

	// Reset attempts a soft reset. On success the driver is usable again
	// (the coordinator moves the sensor to Warming or Ready); on failure
	// the sensor stays in Error and backoff continues.
	Reset(ctx context.Context) error

	// Calibrate applies a sensor-specific calibration target. Drivers that
	// have nothing to calibrate return Unsupported("calibrate").
	Calibrate(ctx context.Context, arg float64) error
}

// CompensatedReader is implemented by drivers whose measurement needs
// current ambient temperature/humidity to compensate its own reading (only
// SGP41, per spec.md §4.1). The coordinator type-asserts for this and, when
// present, calls ReadCompensated instead of Read using the latest known
// fused temperature/RH.
type CompensatedReader interface {
	ReadCompensated(ctx context.Context, tempC, rhPct float64) (Reading, error)
}

// Conditioner is implemented by drivers that need a periodic tick during
// their warm-up window before they start reporting valid data (only SGP41,
// during its first 10s, per spec.md §4.1/§4.3).
type Conditioner interface {
	ConditioningTick(ctx context.Context, tempC, rhPct float64) error
	IsReportingReady() bool
}
