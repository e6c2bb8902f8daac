package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Zuwarashe/Role-Access-Management-System-with-LRU-Caching/core/roles"
)

// cacheMetrics implements roles.Metrics using Prometheus. One instance is
// shared by all persons' caches.
type cacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	sets      *prometheus.CounterVec
	evictions prometheus.Counter
	size      prometheus.Histogram
}

// NewCacheMetrics creates a new Prometheus implementation of roles.Metrics.
func NewCacheMetrics(reg prometheus.Registerer) roles.Metrics {
	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rbac_roles_cache_hits_total",
			Help: "Lookups of an active role",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rbac_roles_cache_misses_total",
			Help: "Lookups of a role that is not active",
		}),
		sets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rbac_roles_cache_sets_total",
			Help: "Recorded role invocations",
		}, []string{"op"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rbac_roles_cache_evictions_total",
			Help: "Roles evicted as least recently used",
		}),
		size: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rbac_roles_cache_size",
			Help:    "Active roles of a person after a recorded invocation",
			Buckets: prometheus.LinearBuckets(1, 1, 16),
		}),
	}

	reg.MustRegister(m.hits, m.misses, m.sets, m.evictions, m.size)

	return m
}

func (m *cacheMetrics) Hit()  { m.hits.Inc() }
func (m *cacheMetrics) Miss() { m.misses.Inc() }

func (m *cacheMetrics) Stored(updated bool) {
	op := "insert"
	if updated {
		op = "update"
	}
	m.sets.WithLabelValues(op).Inc()
}

func (m *cacheMetrics) Evicted()   { m.evictions.Inc() }
func (m *cacheMetrics) Size(n int) { m.size.Observe(float64(n)) }

var _ roles.Metrics = (*cacheMetrics)(nil)
