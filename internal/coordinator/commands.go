package coordinator

import (
	"context"
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
	"github.com/aurasense/iaqcore/internal/state"
)

// handleCommand executes one command pulled off cmdCh and, if it carries a
// response port, sends exactly one result on it.
func (c *Coordinator) handleCommand(ctx context.Context, cmd command) {
	var res result

	switch cmd.kind {
	case cmdRead:
		res.Err = c.doRead(ctx, cmd.sensor)
	case cmdReset:
		res.Err = c.doReset(ctx, cmd.sensor)
	case cmdCalibrate:
		res.Err = c.doCalibrate(ctx, cmd.sensor, cmd.arg)
	case cmdDisable:
		res.Err = c.doDisable(ctx, cmd.sensor)
	case cmdEnable:
		res.Err = c.doEnable(ctx, cmd.sensor)
	case cmdSetCadence:
		c.setCadence(cmd.sensor, uint32(cmd.arg))
	case cmdGetCadences:
		res.Cadences, res.FromStore = c.getCadences()
	case cmdGetRuntimeInfo:
		res.Runtime = c.getRuntimeView(cmd.sensor, time.Now())
	}

	if cmd.resp != nil {
		cmd.resp <- res
	}
}

func (c *Coordinator) setCadence(id sensor.ID, ms uint32) {
	se := &c.schedule[id]
	se.cadence = time.Duration(ms) * time.Millisecond
	se.enabled = ms > 0
	if se.enabled {
		se.nextDue = time.Now().Add(se.cadence)
	}
	c.fromStore[id] = true
	if c.cadences != nil {
		c.cadences.SetCadenceMs(id, ms)
	}
}

func (c *Coordinator) getCadences() ([]uint32, []bool) {
	ms := make([]uint32, sensor.NumSensors)
	fromStore := make([]bool, sensor.NumSensors)
	for _, id := range sensor.All() {
		ms[id] = uint32(c.schedule[id].cadence / time.Millisecond)
		fromStore[id] = c.fromStore[id]
	}
	return ms, fromStore
}

// getRuntimeView reads the current RuntimeView for id from the shared store
// rather than from c.rt directly, so the reported WarmupRemainingS/
// LastReadAgeS are computed relative to now rather than to the last flush.
func (c *Coordinator) getRuntimeView(id sensor.ID, now time.Time) state.RuntimeView {
	snap := c.store.Snapshot()
	return snap.RuntimeView(id, now)
}

// send enqueues cmd and blocks until the coordinator's loop accepts it onto
// cmdCh (bounded at cmdQueueCapacity) or ctx is canceled.
func (c *Coordinator) send(ctx context.Context, cmd command) error {
	select {
	case c.cmdCh <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sendSync enqueues cmd with a one-shot response port and waits for the
// result or ctx cancellation, per spec.md §6's force_read_sync.
func (c *Coordinator) sendSync(ctx context.Context, cmd command) (result, error) {
	cmd.resp = make(chan result, 1)
	if err := c.send(ctx, cmd); err != nil {
		return result{}, err
	}
	select {
	case res := <-cmd.resp:
		return res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// ForceRead enqueues an out-of-schedule read for id without waiting for it
// to complete, per spec.md §6.
func (c *Coordinator) ForceRead(ctx context.Context, id sensor.ID) error {
	return c.send(ctx, command{kind: cmdRead, sensor: id})
}

// ForceReadSync enqueues a read for id and blocks until it completes or ctx
// is canceled, per spec.md §6.
func (c *Coordinator) ForceReadSync(ctx context.Context, id sensor.ID) error {
	res, err := c.sendSync(ctx, command{kind: cmdRead, sensor: id})
	if err != nil {
		return err
	}
	return res.Err
}

// Reset requests a soft reset of sensor id.
func (c *Coordinator) Reset(ctx context.Context, id sensor.ID) error {
	res, err := c.sendSync(ctx, command{kind: cmdReset, sensor: id})
	if err != nil {
		return err
	}
	return res.Err
}

// Calibrate applies a sensor-specific calibration target to id.
func (c *Coordinator) Calibrate(ctx context.Context, id sensor.ID, arg float64) error {
	res, err := c.sendSync(ctx, command{kind: cmdCalibrate, sensor: id, arg: arg})
	if err != nil {
		return err
	}
	return res.Err
}

// Disable requests sensor id transition to Disabled.
func (c *Coordinator) Disable(ctx context.Context, id sensor.ID) error {
	res, err := c.sendSync(ctx, command{kind: cmdDisable, sensor: id})
	if err != nil {
		return err
	}
	return res.Err
}

// Enable requests a Disabled sensor id transition back to Warming/Ready.
func (c *Coordinator) Enable(ctx context.Context, id sensor.ID) error {
	res, err := c.sendSync(ctx, command{kind: cmdEnable, sensor: id})
	if err != nil {
		return err
	}
	return res.Err
}

// SetCadence changes sensor id's periodic-read interval; ms == 0 disables
// periodic reads for id.
func (c *Coordinator) SetCadence(ctx context.Context, id sensor.ID, ms uint32) error {
	return c.send(ctx, command{kind: cmdSetCadence, sensor: id, arg: float64(ms)})
}

// GetCadences returns the current per-sensor cadence in milliseconds and,
// parallel to it, whether each was loaded from the persistent store or has
// since been set (and persisted) via SetCadence, rather than being the
// compiled-in default.
func (c *Coordinator) GetCadences(ctx context.Context) ([]uint32, []bool, error) {
	res, err := c.sendSync(ctx, command{kind: cmdGetCadences})
	if err != nil {
		return nil, nil, err
	}
	return res.Cadences, res.FromStore, nil
}

// GetRuntimeInfo returns the current lifecycle/runtime view for sensor id.
func (c *Coordinator) GetRuntimeInfo(ctx context.Context, id sensor.ID) (state.RuntimeView, error) {
	res, err := c.sendSync(ctx, command{kind: cmdGetRuntimeInfo, sensor: id})
	if err != nil {
		return state.RuntimeView{}, err
	}
	return res.Runtime, nil
}
