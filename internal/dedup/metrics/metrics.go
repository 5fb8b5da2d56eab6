package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for deduplication passes.
type Metrics struct {
	// Pass outcomes by record type and result
	PassesTotal *prometheus.CounterVec

	// Duplicate groups resolved
	GroupsResolved prometheus.Counter

	// Loser records deleted
	RecordsDeleted prometheus.Counter

	// Full pass latency
	PassDuration prometheus.Histogram

	// Size of resolved duplicate groups
	GroupSize prometheus.Histogram
}

// New creates a Metrics instance with all pass metrics registered.
func New() *Metrics {
	return &Metrics{
		PassesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "convergo_dedup_passes_total",
			Help: "Total deduplication passes by record type and outcome",
		}, []string{"record_type", "outcome"}), // outcome: "ok", "error"

		GroupsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convergo_dedup_groups_resolved_total",
			Help: "Total duplicate groups resolved",
		}),

		RecordsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "convergo_dedup_records_deleted_total",
			Help: "Total loser records deleted after relationship migration",
		}),

		PassDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "convergo_dedup_pass_duration_seconds",
			Help:    "Duration of full deduplication passes including commit",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		GroupSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "convergo_dedup_group_size",
			Help:    "Number of records in resolved duplicate groups",
			Buckets: []float64{2, 3, 5, 10, 25, 50, 100},
		}),
	}
}

// RecordPass records one finished pass.
func (m *Metrics) RecordPass(recordType, outcome string, d time.Duration) {
	if m != nil {
		m.PassesTotal.WithLabelValues(recordType, outcome).Inc()
		m.PassDuration.Observe(d.Seconds())
	}
}

// RecordGroup records one resolved group and its deletions.
func (m *Metrics) RecordGroup(size, deleted int) {
	if m != nil {
		m.GroupsResolved.Inc()
		m.GroupSize.Observe(float64(size))
		m.RecordsDeleted.Add(float64(deleted))
	}
}
