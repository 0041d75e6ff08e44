package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	syncPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dukkan_sync_passes_total",
			Help: "Completed sync passes per entity kind and result.",
		},
		[]string{"kind", "result"},
	)

	syncRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dukkan_sync_records_total",
			Help: "Records handled by sync passes, per entity kind and operation.",
		},
		[]string{"kind", "op"},
	)

	syncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dukkan_sync_duration_seconds",
			Help:    "Sync pass latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(syncPassesTotal, syncRecordsTotal, syncDuration)
}

func observeSync(kind string, o SyncOutcome, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	syncPassesTotal.WithLabelValues(kind, result).Inc()
	syncDuration.WithLabelValues(kind).Observe(o.Duration.Seconds())

	syncRecordsTotal.WithLabelValues(kind, "pushed").Add(float64(o.Pushed))
	syncRecordsTotal.WithLabelValues(kind, "deleted").Add(float64(o.Deleted))
	syncRecordsTotal.WithLabelValues(kind, "deferred").Add(float64(o.Deferred))
	syncRecordsTotal.WithLabelValues(kind, "applied").Add(float64(o.Applied))
	syncRecordsTotal.WithLabelValues(kind, "merged").Add(float64(o.Merged))
	syncRecordsTotal.WithLabelValues(kind, "removed").Add(float64(o.Removed))
}
