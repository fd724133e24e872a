package coordinator

import (
	"time"

	"github.com/aurasense/iaqcore/internal/sensor"
)

// scheduleEntry is the per-sensor schedule record from spec.md §3.
// cadence_ms == 0 disables periodic reads for that sensor.
type scheduleEntry struct {
	cadence time.Duration
	nextDue time.Time
	enabled bool
}

// recoveryEntry is the per-sensor auto-recovery bookkeeping from spec.md §3:
// initial delay 30s, doubles on failure, capped at 300s, resets to 30s on
// success.
type recoveryEntry struct {
	lastRetryAt      time.Time
	retryCount       int
	nextRetryDelay   time.Duration
}

const (
	initialRetryDelay = 30 * time.Second
	maxRetryDelay     = 300 * time.Second
)

func newRecoveryEntry() recoveryEntry {
	return recoveryEntry{nextRetryDelay: initialRetryDelay}
}

// onFailure doubles the backoff, capped at maxRetryDelay, and records the
// attempt time, per spec.md §3/§4.3.
func (r *recoveryEntry) onFailure(now time.Time) {
	r.lastRetryAt = now
	r.retryCount++
	r.nextRetryDelay *= 2
	if r.nextRetryDelay > maxRetryDelay {
		r.nextRetryDelay = maxRetryDelay
	}
}

// onSuccess resets backoff to its initial value, per spec.md §3.
func (r *recoveryEntry) onSuccess() {
	r.retryCount = 0
	r.nextRetryDelay = initialRetryDelay
}

// due reports whether the backoff has elapsed since the last retry attempt.
func (r *recoveryEntry) due(now time.Time) bool {
	return r.lastRetryAt.IsZero() || now.Sub(r.lastRetryAt) >= r.nextRetryDelay
}

// staggerSchedule sets each sensor's first due time per spec.md §4.3:
// next_due[i] = now + (period_i * i / N). This flattens bus contention at
// startup instead of reading every enabled sensor back-to-back on tick 0.
func staggerSchedule(entries *[sensor.NumSensors]scheduleEntry, now time.Time) {
	n := sensor.NumSensors
	for i, e := range entries {
		if !e.enabled || e.cadence <= 0 {
			continue
		}
		offset := time.Duration(int64(e.cadence) * int64(i) / int64(n))
		entries[i].nextDue = now.Add(offset)
	}
}

// advance moves nextDue forward by whole cadence periods from its own prior
// value (never by "now + cadence"), so periodic cadence stays drift-free per
// spec.md §4.3.
func (e *scheduleEntry) advance(now time.Time) {
	if e.cadence <= 0 {
		return
	}
	for !e.nextDue.After(now) {
		e.nextDue = e.nextDue.Add(e.cadence)
	}
}
