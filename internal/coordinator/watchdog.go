package coordinator

// Watchdog is fed once per outer loop iteration, per spec.md §4.3. A nil
// Watchdog is a valid, no-op choice for tests and for platforms without a
// hardware watchdog.
type Watchdog interface {
	Feed()
}

type noopWatchdog struct{}

func (noopWatchdog) Feed() {}
