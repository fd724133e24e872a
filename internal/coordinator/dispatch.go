package coordinator

import (
	"context"
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
	"github.com/aurasense/iaqcore/internal/state"
)

// doRead performs one measurement for id, outside the lock, then publishes
// raw value + validity + updated_at + runtime bookkeeping together in one
// WithLock call, per spec.md §5's "driver dispatch outside the lock, state
// update atomically" discipline.
func (c *Coordinator) doRead(ctx context.Context, id sensor.ID) error {
	d := c.drivers[id]
	if d == nil {
		return sensor.Unsupported("read")
	}
	if c.rt[id].State != sensor.Ready {
		return sensor.NewError(sensor.KindInvalidState, "read", nil)
	}

	var reading sensor.Reading
	var err error
	if cr, ok := d.(sensor.CompensatedReader); ok {
		temp, rh := c.latestFusedEnv()
		reading, err = cr.ReadCompensated(ctx, temp, rh)
	} else {
		reading, err = d.Read(ctx)
	}

	now := time.Now()
	if err != nil {
		rt := c.rt[id]
		rt.ErrorCount++
		if rt.ErrorCount >= 3 && rt.State == sensor.Ready {
			rt.State = sensor.Error
			c.recovery[id] = newRecoveryEntry()
		}
		c.rt[id] = rt
		c.flushRuntime(id)
		return err
	}

	c.store.WithLock(func(s *state.State) {
		applyReading(s, reading)
		s.UpdatedAt[id] = now
	})

	rt := c.rt[id]
	rt.ErrorCount = 0
	rt.LastRead = now
	c.rt[id] = rt
	c.flushRuntime(id)
	return nil
}

// applyReading writes one sensor's reading into RawReadings and marks its
// owned Valid bits true. Only doRead calls this, under the store's lock.
func applyReading(s *state.State, r sensor.Reading) {
	switch v := r.(type) {
	case sensor.McuReading:
		s.Raw.McuTempC = v.TempC
		s.Valid.McuTempC = true
	case sensor.Sht45Reading:
		s.Raw.TempC = v.TempC
		s.Raw.RHPct = v.RHPct
		s.Valid.TempC = true
		s.Valid.RHPct = true
	case sensor.Bmp280Reading:
		s.Raw.PressurePa = v.PressurePa
		s.Valid.PressurePa = true
	case sensor.Sgp41Reading:
		s.Raw.VocIndex = v.VocIndex
		s.Raw.NoxIndex = v.NoxIndex
		s.Valid.VocIndex = true
		s.Valid.NoxIndex = true
	case sensor.Pms5003Reading:
		s.Raw.PM1 = v.PM1
		s.Raw.PM25 = v.PM25
		s.Raw.PM10 = v.PM10
		s.Valid.PM1 = true
		s.Valid.PM25 = true
		s.Valid.PM10 = true
	case sensor.S8Reading:
		s.Raw.CO2Ppm = v.CO2Ppm
		s.Valid.CO2Ppm = true
	}
}

// clearOwnedFields archives the current value of every raw field id owns
// into Last and clears its Valid bits, on transition to Disabled, per
// spec.md §4.3/§7.
func clearOwnedFields(s *state.State, id sensor.ID) {
	switch id {
	case sensor.Mcu:
		s.Last.McuTempC = s.Raw.McuTempC
		s.Valid.McuTempC = false
	case sensor.Sht45:
		s.Last.TempC = s.Raw.TempC
		s.Last.RHPct = s.Raw.RHPct
		s.Valid.TempC = false
		s.Valid.RHPct = false
	case sensor.Bmp280:
		s.Last.PressurePa = s.Raw.PressurePa
		s.Valid.PressurePa = false
	case sensor.Sgp41:
		s.Last.VocIndex = s.Raw.VocIndex
		s.Last.NoxIndex = s.Raw.NoxIndex
		s.Valid.VocIndex = false
		s.Valid.NoxIndex = false
	case sensor.Pms5003:
		s.Last.PM1 = s.Raw.PM1
		s.Last.PM25 = s.Raw.PM25
		s.Last.PM10 = s.Raw.PM10
		s.Valid.PM1 = false
		s.Valid.PM25 = false
		s.Valid.PM10 = false
	case sensor.S8:
		s.Last.CO2Ppm = s.Raw.CO2Ppm
		s.Valid.CO2Ppm = false
	}
}

func (c *Coordinator) doReset(ctx context.Context, id sensor.ID) error {
	d := c.drivers[id]
	if d == nil {
		return sensor.Unsupported("reset")
	}
	if c.rt[id].State == sensor.Disabled {
		return sensor.NewError(sensor.KindInvalidState, "reset", nil)
	}
	if err := d.Reset(ctx); err != nil {
		return err
	}
	c.recovery[id].onSuccess()
	c.enterWarmingOrReady(id, d, time.Now())
	return nil
}

func (c *Coordinator) doCalibrate(ctx context.Context, id sensor.ID, arg float64) error {
	d := c.drivers[id]
	if d == nil {
		return sensor.Unsupported("calibrate")
	}
	if c.rt[id].State != sensor.Ready {
		return sensor.NewError(sensor.KindInvalidState, "calibrate", nil)
	}
	return d.Calibrate(ctx, arg)
}

func (c *Coordinator) doDisable(ctx context.Context, id sensor.ID) error {
	d := c.drivers[id]
	if d == nil {
		return sensor.Unsupported("disable")
	}
	disableErr := d.Disable(ctx)

	c.store.WithLock(func(s *state.State) {
		clearOwnedFields(s, id)
	})
	rt := c.rt[id]
	rt.State = sensor.Disabled
	c.rt[id] = rt
	c.flushRuntime(id)
	return disableErr
}

func (c *Coordinator) doEnable(ctx context.Context, id sensor.ID) error {
	d := c.drivers[id]
	if d == nil {
		return sensor.Unsupported("enable")
	}
	if c.rt[id].State != sensor.Disabled {
		return sensor.NewError(sensor.KindInvalidState, "enable", nil)
	}
	if err := d.Enable(ctx); err != nil {
		return err
	}
	c.enterWarmingOrReady(id, d, time.Now())
	return nil
}
