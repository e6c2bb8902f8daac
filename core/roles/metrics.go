package roles

// Metrics defines the metrics interface for a RolesCache.
// Implementations shared between caches must be thread-safe.
type Metrics interface {
	Hit()
	Miss()
	// Stored is called after every Set; updated is true if the role was
	// already active.
	Stored(updated bool)
	Evicted()
	// Size reports the number of active roles after a Set.
	Size(n int)
}

type nopMetrics struct{}

func (nopMetrics) Hit()        {}
func (nopMetrics) Miss()       {}
func (nopMetrics) Stored(bool) {}
func (nopMetrics) Evicted()    {}
func (nopMetrics) Size(int)    {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
