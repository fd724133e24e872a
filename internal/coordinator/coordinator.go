// Package coordinator implements the per-sensor lifecycle state machine,
// staggered scheduling, and command queue described in spec.md §4.3. It is
// the single writer of internal/state.State's Raw, Valid, UpdatedAt, and
// Runtime fields.
package coordinator

import (
	"context"
	"log"
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
	"github.com/aurasense/iaqcore/internal/state"
)

// CadenceStore lets the coordinator load/persist per-sensor cadences without
// importing internal/settings directly, per spec.md §4.6.
type CadenceStore interface {
	GetCadenceMs(id sensor.ID) (ms uint32, fromStore bool)
	SetCadenceMs(id sensor.ID, ms uint32)
}

const minSleep = 10 * time.Millisecond
const cmdQueueCapacity = 8
const conditioningPeriod = 1 * time.Second

// Coordinator owns driver lifecycle, the schedule/runtime tables, and the
// command queue, per spec.md §4.3.
type Coordinator struct {
	store    *state.Store
	drivers  [sensor.NumSensors]sensor.Driver
	cadences CadenceStore
	watchdog Watchdog

	cmdCh chan command

	schedule  [sensor.NumSensors]scheduleEntry
	recovery  [sensor.NumSensors]recoveryEntry
	rt        [sensor.NumSensors]state.SensorRuntime
	fromStore [sensor.NumSensors]bool

	lastConditioning time.Time
}

// New constructs a Coordinator over the given drivers (index must line up
// with sensor.ID ordinals; a nil entry means that sensor isn't wired on this
// build). store is the shared-state record it will write into; cadences
// supplies persisted cadences (nil uses the provided defaultCadenceMs for
// every sensor and reports fromStore=false).
func New(store *state.Store, drivers [sensor.NumSensors]sensor.Driver, cadences CadenceStore, watchdog Watchdog, defaultCadenceMs uint32) *Coordinator {
	if watchdog == nil {
		watchdog = noopWatchdog{}
	}
	c := &Coordinator{
		store:    store,
		drivers:  drivers,
		cadences: cadences,
		watchdog: watchdog,
		cmdCh:    make(chan command, cmdQueueCapacity),
	}
	for _, id := range sensor.All() {
		ms := defaultCadenceMs
		fromStore := false
		if cadences != nil {
			if v, ok := cadences.GetCadenceMs(id); ok {
				ms, fromStore = v, true
			}
		}
		c.schedule[id] = scheduleEntry{cadence: time.Duration(ms) * time.Millisecond, enabled: ms > 0}
		c.recovery[id] = newRecoveryEntry()
		c.fromStore[id] = fromStore
	}
	return c
}

// Start initializes every wired driver and enables it, bringing each sensor
// from Uninit to Warming or Ready, then staggers the schedule. It does not
// block; call Run afterward to drive the scheduling loop.
func (c *Coordinator) Start(ctx context.Context) {
	now := time.Now()
	for _, id := range sensor.All() {
		d := c.drivers[id]
		if d == nil {
			continue
		}
		if err := d.Init(ctx); err != nil {
			log.Printf("coordinator: %s init failed: %v", id, err)
			c.rt[id] = state.SensorRuntime{State: sensor.Error}
			c.recovery[id] = newRecoveryEntry()
			c.flushRuntime(id)
			continue
		}
		if err := d.Enable(ctx); err != nil {
			log.Printf("coordinator: %s enable failed: %v", id, err)
			c.rt[id] = state.SensorRuntime{State: sensor.Error}
			c.recovery[id] = newRecoveryEntry()
			c.flushRuntime(id)
			continue
		}
		c.enterWarmingOrReady(id, d, now)
	}
	staggerSchedule(&c.schedule, now)
}

func (c *Coordinator) enterWarmingOrReady(id sensor.ID, d sensor.Driver, now time.Time) {
	warmup := d.WarmupDuration()
	if warmup <= 0 {
		c.rt[id] = state.SensorRuntime{State: sensor.Ready}
	} else {
		c.rt[id] = state.SensorRuntime{State: sensor.Warming, WarmupDeadline: now.Add(warmup)}
	}
	c.flushRuntime(id)
}

// flushRuntime publishes the coordinator's local runtime bookkeeping for one
// sensor into the shared store, under lock, so other observers see a
// consistent value. Coordinator-internal fields (schedule, recovery) are
// never published — they aren't part of the snapshot contract.
func (c *Coordinator) flushRuntime(id sensor.ID) {
	c.store.WithLock(func(s *state.State) {
		s.Runtime[id] = c.rt[id]
	})
}

// Run drives the scheduling loop until ctx is canceled. It is the
// coordinator's single cooperative worker, per spec.md §4.3/§5.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		c.watchdog.Feed()

		now := time.Now()
		wake := c.nextWake(now)
		timer := time.NewTimer(wake)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case cmd := <-c.cmdCh:
			timer.Stop()
			c.handleCommand(ctx, cmd)
		case <-timer.C:
			c.handleTick(ctx, time.Now())
		}
	}
}

// nextWake computes how long to sleep: the minimum of the earliest periodic
// due time, the earliest recovery retry time, and the conditioning tick
// period, floored at minSleep so multiple simultaneously-due sensors don't
// busy-loop, per spec.md §4.3.
func (c *Coordinator) nextWake(now time.Time) time.Duration {
	best := time.Duration(-1)
	consider := func(t time.Time) {
		if t.IsZero() {
			return
		}
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		if best < 0 || d < best {
			best = d
		}
	}

	for _, id := range sensor.All() {
		se := c.schedule[id]
		if se.enabled && se.cadence > 0 {
			consider(se.nextDue)
		}
		if c.rt[id].State == sensor.Error {
			consider(c.recovery[id].lastRetryAt.Add(c.recovery[id].nextRetryDelay))
		}
		if c.rt[id].State == sensor.Warming && c.isConditioner(id) {
			consider(c.lastConditioning.Add(conditioningPeriod))
		}
	}
	if best < 0 {
		best = time.Second
	}
	if best < minSleep {
		best = minSleep
	}
	return best
}

func (c *Coordinator) isConditioner(id sensor.ID) bool {
	d := c.drivers[id]
	if d == nil {
		return false
	}
	_, ok := d.(sensor.Conditioner)
	return ok
}

func (c *Coordinator) handleTick(ctx context.Context, now time.Time) {
	for _, id := range sensor.All() {
		c.maybeConditionTick(ctx, id, now)
		c.maybeWarmupElapsed(id, now)
		c.maybeAutoRecover(ctx, id, now)
		c.maybePeriodicRead(ctx, id, now)
	}
}

func (c *Coordinator) maybeConditionTick(ctx context.Context, id sensor.ID, now time.Time) {
	if c.rt[id].State != sensor.Warming {
		return
	}
	d := c.drivers[id]
	cond, ok := d.(sensor.Conditioner)
	if !ok {
		return
	}
	if !c.lastConditioning.IsZero() && now.Sub(c.lastConditioning) < conditioningPeriod {
		return
	}
	temp, rh := c.latestFusedEnv()
	if err := cond.ConditioningTick(ctx, temp, rh); err != nil {
		log.Printf("coordinator: %s conditioning tick failed: %v", id, err)
	}
	c.lastConditioning = now
}

// maybeWarmupElapsed advances Warming -> Ready once the deadline has passed
// and any sensor-specific gate (SGP41's IsReportingReady) agrees, per
// spec.md §4.3.
func (c *Coordinator) maybeWarmupElapsed(id sensor.ID, now time.Time) {
	rt := c.rt[id]
	if rt.State != sensor.Warming {
		return
	}
	if now.Before(rt.WarmupDeadline) {
		return
	}
	d := c.drivers[id]
	if cond, ok := d.(sensor.Conditioner); ok && !cond.IsReportingReady() {
		return
	}
	c.rt[id] = state.SensorRuntime{State: sensor.Ready, LastRead: rt.LastRead, ErrorCount: rt.ErrorCount}
	c.flushRuntime(id)
}

func (c *Coordinator) maybeAutoRecover(ctx context.Context, id sensor.ID, now time.Time) {
	if c.rt[id].State != sensor.Error {
		return
	}
	if !c.recovery[id].due(now) {
		return
	}
	d := c.drivers[id]
	if d == nil {
		return
	}
	err := d.Reset(ctx)
	if err != nil {
		c.recovery[id].onFailure(now)
		log.Printf("coordinator: %s auto-recovery reset failed (retry %d, next in %s): %v", id, c.recovery[id].retryCount, c.recovery[id].nextRetryDelay, err)
		return
	}
	c.recovery[id].onSuccess()
	c.enterWarmingOrReady(id, d, now)
}

func (c *Coordinator) maybePeriodicRead(ctx context.Context, id sensor.ID, now time.Time) {
	se := &c.schedule[id]
	if !se.enabled || se.cadence <= 0 {
		return
	}
	if now.Before(se.nextDue) {
		return
	}
	se.advance(now)
	if c.rt[id].State != sensor.Ready {
		return
	}
	c.doRead(ctx, id)
}

// latestFusedEnv returns the current fused temperature/RH, used to
// compensate SGP41 reads/conditioning ticks per spec.md §4.1. Falls back to
// raw values, then to a plausible ambient default, if fused data isn't
// available yet.
func (c *Coordinator) latestFusedEnv() (tempC, rhPct float64) {
	var t, rh float64
	c.store.WithLock(func(s *state.State) {
		t, rh = s.Fused.TempC, s.Fused.RHPct
		if state.IsNoData(t) {
			t = s.Raw.TempC
		}
		if state.IsNoData(rh) {
			rh = s.Raw.RHPct
		}
	})
	if state.IsNoData(t) {
		t = 25
	}
	if state.IsNoData(rh) {
		rh = 50
	}
	return t, rh
}
