package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
	"github.com/aurasense/iaqcore/internal/state"
)

// fakeCadenceStore is a minimal in-memory CadenceStore for coordinator tests.
type fakeCadenceStore struct {
	ms        map[sensor.ID]uint32
	fromStore map[sensor.ID]bool
}

func newFakeCadenceStore() *fakeCadenceStore {
	return &fakeCadenceStore{ms: map[sensor.ID]uint32{}, fromStore: map[sensor.ID]bool{}}
}

func (f *fakeCadenceStore) GetCadenceMs(id sensor.ID) (uint32, bool) {
	ms, ok := f.ms[id]
	return ms, ok && f.fromStore[id]
}

func (f *fakeCadenceStore) SetCadenceMs(id sensor.ID, ms uint32) {
	f.ms[id] = ms
	f.fromStore[id] = true
}

func TestGetCadencesReflectsConstructorDefaultsAndFromStoreFlag(t *testing.T) {
	cadences := newFakeCadenceStore()
	cadences.SetCadenceMs(sensor.S8, 2000)

	var drivers [sensor.NumSensors]sensor.Driver
	c := New(state.New(), drivers, cadences, nil, 5000)

	ms, fromStore := c.getCadences()
	if ms[sensor.S8] != 2000 || !fromStore[sensor.S8] {
		t.Errorf("S8 cadence = (%v, %v), want (2000, true)", ms[sensor.S8], fromStore[sensor.S8])
	}
	if ms[sensor.Sht45] != 5000 || fromStore[sensor.Sht45] {
		t.Errorf("Sht45 cadence = (%v, %v), want (5000, false) (not persisted, compiled-in default)", ms[sensor.Sht45], fromStore[sensor.Sht45])
	}
}

func TestSetCadenceMarksFromStoreAndPersists(t *testing.T) {
	cadences := newFakeCadenceStore()
	var drivers [sensor.NumSensors]sensor.Driver
	c := New(state.New(), drivers, cadences, nil, 5000)

	c.setCadence(sensor.Sht45, 10000)

	ms, fromStore := c.getCadences()
	if ms[sensor.Sht45] != 10000 || !fromStore[sensor.Sht45] {
		t.Errorf("after setCadence, Sht45 = (%v, %v), want (10000, true)", ms[sensor.Sht45], fromStore[sensor.Sht45])
	}
	if gotMs, _ := cadences.GetCadenceMs(sensor.Sht45); gotMs != 10000 {
		t.Errorf("underlying CadenceStore not updated: got %v, want 10000", gotMs)
	}
}

func TestSetCadenceZeroDisablesPeriodicReads(t *testing.T) {
	var drivers [sensor.NumSensors]sensor.Driver
	c := New(state.New(), drivers, nil, nil, 5000)
	c.setCadence(sensor.Sht45, 0)

	if c.schedule[sensor.Sht45].enabled {
		t.Error("schedule.enabled must be false after setCadence(0)")
	}
}

// TestRunServesCommands exercises the Coordinator.Run loop end to
// end: a ForceReadSync command against a Ready sensor with a wired fake
// driver must complete and be reflected in the shared store.
func TestRunServesCommands(t *testing.T) {
	d := &fakeDriver{id: sensor.S8}
	var drivers [sensor.NumSensors]sensor.Driver
	drivers[sensor.S8] = d
	c := New(state.New(), drivers, nil, nil, 0)
	c.rt[sensor.S8] = state.SensorRuntime{State: sensor.Ready}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	if err := c.ForceReadSync(context.Background(), sensor.S8); err != nil {
		t.Fatalf("ForceReadSync() error = %v", err)
	}

	snap := c.store.Snapshot()
	if !snap.Valid.CO2Ppm {
		t.Error("Valid.CO2Ppm must be true after ForceReadSync completes")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}

// TestForceReadSyncRejectsNonReadySensor guards spec.md §4.3's "Read: legal
// only if state == Ready" against the force_read_sync command surface, not
// just the periodic scheduler: a Disabled sensor must reject the read and
// must never re-validate the raw field it no longer owns.
func TestForceReadSyncRejectsNonReadySensor(t *testing.T) {
	d := &fakeDriver{id: sensor.S8}
	var drivers [sensor.NumSensors]sensor.Driver
	drivers[sensor.S8] = d
	c := New(state.New(), drivers, nil, nil, 0)
	c.rt[sensor.S8] = state.SensorRuntime{State: sensor.Disabled}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	err := c.ForceReadSync(context.Background(), sensor.S8)
	if sensor.KindOf(err) != sensor.KindInvalidState {
		t.Errorf("ForceReadSync() on a Disabled sensor error kind = %v, want KindInvalidState", sensor.KindOf(err))
	}
	if d.readCalls != 0 {
		t.Errorf("driver Read called %d times, want 0 (rejected before dispatch)", d.readCalls)
	}
	snap := c.store.Snapshot()
	if snap.Valid.CO2Ppm {
		t.Error("Valid.CO2Ppm must stay false; a rejected read must not re-validate the field")
	}

	if err := c.ForceRead(context.Background(), sensor.S8); err != nil {
		t.Fatalf("ForceRead() error = %v", err)
	}
	// ForceRead is fire-and-forget; give the loop a moment to process it.
	time.Sleep(50 * time.Millisecond)
	if d.readCalls != 0 {
		t.Errorf("driver Read called %d times after ForceRead on a Disabled sensor, want 0", d.readCalls)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}
