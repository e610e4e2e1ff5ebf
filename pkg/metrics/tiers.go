package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TierMetrics records counters for tier mutations and hierarchy reads.
type TierMetrics struct {
	mutations      *prometheus.CounterVec
	quotaRejected  *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	publishLatency *prometheus.HistogramVec
}

// NewTierMetrics registers the tier metrics on the provided registerer.
func NewTierMetrics(reg prometheus.Registerer) *TierMetrics {
	if reg == nil {
		return &TierMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tier_mutations_total",
		Help: "Tier node mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	quotaRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tier_quota_rejections_total",
		Help: "Mutations rejected because a delegation quota was exceeded.",
	}, []string{"track"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tier_hierarchy_cache_lookups_total",
		Help: "Hierarchy cache lookups by result.",
	}, []string{"result"})
	publishLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tier_event_publish_seconds",
		Help:    "Latency of publishing tier audit events.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	reg.MustRegister(mutations, quotaRejected, cacheLookups, publishLatency)
	return &TierMetrics{
		mutations:      mutations,
		quotaRejected:  quotaRejected,
		cacheLookups:   cacheLookups,
		publishLatency: publishLatency,
	}
}

// IncMutation increments the mutation counter for the named operation.
func (t *TierMetrics) IncMutation(operation, outcome string) {
	if t == nil || t.mutations == nil {
		return
	}
	t.mutations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncQuotaRejection increments the quota rejection counter for the named track.
func (t *TierMetrics) IncQuotaRejection(track string) {
	if t == nil || t.quotaRejected == nil {
		return
	}
	t.quotaRejected.WithLabelValues(normalizeLabel(track)).Inc()
}

// IncCacheHit records a hierarchy cache hit.
func (t *TierMetrics) IncCacheHit() {
	if t == nil || t.cacheLookups == nil {
		return
	}
	t.cacheLookups.WithLabelValues("hit").Inc()
}

// IncCacheMiss records a hierarchy cache miss.
func (t *TierMetrics) IncCacheMiss() {
	if t == nil || t.cacheLookups == nil {
		return
	}
	t.cacheLookups.WithLabelValues("miss").Inc()
}

// ObservePublish records the latency of publishing a tier audit event.
func (t *TierMetrics) ObservePublish(eventType string, duration time.Duration) {
	if t == nil || t.publishLatency == nil {
		return
	}
	t.publishLatency.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
