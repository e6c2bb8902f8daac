// Package metrics holds backend-neutral metric primitives shared by the
// roles and directory packages, so neither depends on a concrete
// instrumentation library.
package metrics

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes to record the elapsed time.
type Timer interface {
	// ObserveDuration records the elapsed time since the timer was created.
	ObserveDuration()
}
