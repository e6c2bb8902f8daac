package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Zuwarashe/Role-Access-Management-System-with-LRU-Caching/core/directory"
	"github.com/Zuwarashe/Role-Access-Management-System-with-LRU-Caching/core/metrics"
)

// directoryMetrics implements directory.Metrics using Prometheus.
type directoryMetrics struct {
	opDuration *prometheus.HistogramVec
	opsTotal   *prometheus.CounterVec
	persons    prometheus.Gauge
}

// NewDirectoryMetrics creates a new Prometheus implementation of
// directory.Metrics.
func NewDirectoryMetrics(reg prometheus.Registerer) directory.Metrics {
	m := &directoryMetrics{
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rbac_directory_op_duration_seconds",
			Help:    "Directory operation time in seconds, including queueing per person",
			Buckets: defaultBuckets,
		}, []string{"op"}),

		opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rbac_directory_ops_total",
			Help: "Total number of directory operations",
		}, []string{"op", "success"}),

		persons: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rbac_directory_persons",
			Help: "Persons with a roles cache",
		}),
	}

	reg.MustRegister(m.opDuration, m.opsTotal, m.persons)

	return m
}

func (m *directoryMetrics) OpDuration(op string) metrics.Timer {
	return newTimer(m.opDuration.WithLabelValues(op))
}

func (m *directoryMetrics) OpCompleted(op string, success bool) {
	m.opsTotal.WithLabelValues(op, boolToStr(success)).Inc()
}

func (m *directoryMetrics) Persons(n int) { m.persons.Set(float64(n)) }

var _ directory.Metrics = (*directoryMetrics)(nil)
