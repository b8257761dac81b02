package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	introspectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemaprompt_introspections_total",
			Help: "Total number of schema snapshots taken, by source and outcome.",
		},
		[]string{"source", "status"},
	)
	introspectionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schemaprompt_introspection_duration_seconds",
			Help:    "Time spent connecting to and introspecting a source.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)
	promptTables = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schemaprompt_prompt_tables",
			Help: "Number of tables in the most recently compiled prompt.",
		},
	)
	promptBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schemaprompt_prompt_bytes",
			Help: "Size in bytes of the most recently compiled prompt.",
		},
	)
	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemaprompt_translations_total",
			Help: "Total number of natural language to SQL generation calls.",
		},
		[]string{"status"},
	)
	archiveUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemaprompt_archive_uploads_total",
			Help: "Total number of prompt archive uploads.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		introspectionsTotal,
		introspectionDurationSeconds,
		promptTables,
		promptBytes,
		translationsTotal,
		archiveUploadsTotal,
	)
}

func ObserveIntrospection(source string, err error, elapsed time.Duration) {
	introspectionsTotal.WithLabelValues(source, statusLabel(err)).Inc()
	introspectionDurationSeconds.WithLabelValues(source).Observe(elapsed.Seconds())
}

func SetPromptSize(tables, bytes int) {
	promptTables.Set(float64(tables))
	promptBytes.Set(float64(bytes))
}

func ObserveTranslation(err error) {
	translationsTotal.WithLabelValues(statusLabel(err)).Inc()
}

func ObserveArchiveUpload(err error) {
	archiveUploadsTotal.WithLabelValues(statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
