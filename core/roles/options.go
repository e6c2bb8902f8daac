package roles

import "log/slog"

// Option configures a RolesCache.
type Option[M any] func(*RolesCache[M])

// WithMetrics sets the metrics sink (default: no-op).
func WithMetrics[M any](m Metrics) Option[M] {
	return func(c *RolesCache[M]) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithOnEvict registers fn to be called with every evicted role and its
// last message. fn runs synchronously inside Set.
func WithOnEvict[M any](fn func(role string, msg M)) Option[M] {
	return func(c *RolesCache[M]) {
		c.onEvict = fn
	}
}

// WithLogger sets the logger used for eviction debug logs.
func WithLogger[M any](log *slog.Logger) Option[M] {
	return func(c *RolesCache[M]) {
		if log != nil {
			c.log = log
		}
	}
}
