package directory

import "github.com/Zuwarashe/Role-Access-Management-System-with-LRU-Caching/core/metrics"

// Metrics defines the metrics interface for a Directory.
// All methods are thread-safe.
type Metrics interface {
	OpDuration(op string) metrics.Timer
	OpCompleted(op string, success bool)
	// Persons reports the number of persons with a cache.
	Persons(n int)
}

type nopMetrics struct{}

func (nopMetrics) OpDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) OpCompleted(string, bool)        {}
func (nopMetrics) Persons(int)                     {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
