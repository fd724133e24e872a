package state

import "sync"

// Store is the singleton shared-state record described in spec.md §3. All
// access goes through WithLock or Snapshot; nothing outside this package
// holds the mutex.
//
// Invariant 1 (spec.md §3): no other mutex may be acquired while this one is
// held. Drivers (internal/sensor/drivers) never call into Store at all, so
// that invariant reduces to "nothing this package calls takes a lock" — true
// of WithLock's callers (internal/coordinator, internal/fusion,
// internal/airquality) by construction, since none of them call out to
// driver I/O from inside a WithLock closure.
type Store struct {
	mu    sync.Mutex
	state State
}

// New creates a Store with every field initialized to its no-data sentinel,
// per spec.md §3's lifecycle ("created once at boot").
func New() *Store {
	return &Store{state: newState()}
}

// WithLock is the "scope primitive" from spec.md §4.2: fn observes a
// consistent view of the record and may mutate any field; the lock is
// released on every exit path, including a panic unwinding through fn.
//
// Not reentrant: calling WithLock again from inside fn deadlocks. This
// matches spec.md §4.2's "acquiring it while already held is undefined" —
// Go's sync.Mutex makes the undefined behavior a deterministic deadlock
// rather than silent corruption, which is the stricter and safer of the two
// outcomes the spec allows.
func (s *Store) WithLock(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Snapshot returns an owned copy of the whole record. Snapshot consumers
// (publishers, web, display — all out of spec.md §1's scope) should prefer
// this over WithLock to minimize lock hold time.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
