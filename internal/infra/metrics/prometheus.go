package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hasal_runs_processed_total",
		Help: "Total number of measurement runs processed, by status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hasal_stage_duration_seconds",
		Help:    "Duration of measurement pipeline stages",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hasal_frames_extracted_total",
		Help: "Total number of frames extracted across all runs",
	})

	ZeroMeasurementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hasal_zero_measurements_total",
		Help: "Runs folded with no measurable interval (missing start or end marker)",
	})

	OutliersRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hasal_outliers_rejected_total",
		Help: "Timing samples moved to the outlier list at re-aggregation",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hasal_active_workers",
		Help: "Number of currently active measurement workers",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hasal_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
