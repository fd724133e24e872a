package state

import (
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
)

// RuntimeView computes the consumer-facing runtime view for one sensor as
// of now, from State's internal bookkeeping. Safe to call on a Snapshot
// (State) returned by Store.Snapshot(), since that's an owned copy.
func (s State) RuntimeView(id sensor.ID, now time.Time) RuntimeView {
	rt := s.Runtime[id]
	v := RuntimeView{State: rt.State, ErrorCount: rt.ErrorCount}

	if !rt.WarmupDeadline.IsZero() && rt.State == sensor.Warming {
		if rem := rt.WarmupDeadline.Sub(now); rem > 0 {
			v.WarmupRemainingS = rem.Seconds()
		}
	}
	if rt.LastRead.IsZero() {
		v.LastReadAgeS = NoData
	} else {
		v.LastReadAgeS = now.Sub(rt.LastRead).Seconds()
	}
	return v
}

// UpdatedAgeS returns the age, in seconds, of the last write to
// UpdatedAt[id] as of now. NoData if the sensor has never been updated.
func (s State) UpdatedAgeS(id sensor.ID, now time.Time) float64 {
	t := s.UpdatedAt[id]
	if t.IsZero() {
		return NoData
	}
	return now.Sub(t).Seconds()
}
