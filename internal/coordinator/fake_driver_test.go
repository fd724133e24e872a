package coordinator

import (
	"context"
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
)

// fakeDriver is a fully scriptable sensor.Driver for coordinator tests. Every
// method is driven by a function field so a test can control exactly one
// call's outcome without a real transport.
type fakeDriver struct {
	id      sensor.ID
	warmup  time.Duration
	initErr error
	enErr   error
	disErr  error
	resetFn func() error
	readFn  func() (sensor.Reading, error)
	calErr  error

	initCalls, enableCalls, disableCalls, resetCalls, readCalls int
}

func (f *fakeDriver) ID() sensor.ID                  { return f.id }
func (f *fakeDriver) WarmupDuration() time.Duration  { return f.warmup }
func (f *fakeDriver) Init(ctx context.Context) error { f.initCalls++; return f.initErr }
func (f *fakeDriver) Enable(ctx context.Context) error {
	f.enableCalls++
	return f.enErr
}
func (f *fakeDriver) Disable(ctx context.Context) error {
	f.disableCalls++
	return f.disErr
}
func (f *fakeDriver) Read(ctx context.Context) (sensor.Reading, error) {
	f.readCalls++
	if f.readFn != nil {
		return f.readFn()
	}
	return sensor.S8Reading{CO2Ppm: 600}, nil
}
func (f *fakeDriver) Reset(ctx context.Context) error {
	f.resetCalls++
	if f.resetFn != nil {
		return f.resetFn()
	}
	return nil
}
func (f *fakeDriver) Calibrate(ctx context.Context, arg float64) error { return f.calErr }
