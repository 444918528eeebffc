// Package metrics exposes Prometheus instrumentation for the job queue
// and the analyzer pipelines, following the teacher's promauto
// package-level-var idiom.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "speakscore_jobs_active",
		Help: "Jobs currently queued or processing",
	})

	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speakscore_jobs_total",
		Help: "Total jobs submitted, by pipeline mode",
	}, []string{"mode"})

	JobsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speakscore_jobs_failed_total",
		Help: "Total jobs that terminated in error, by kind",
	}, []string{"kind"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "speakscore_stage_duration_seconds",
		Help:    "Per-stage pipeline latency",
		Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 30},
	}, []string{"stage"})

	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "speakscore_pipeline_duration_seconds",
		Help:    "End-to-end job latency, by pipeline mode",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"mode"})

	ModelErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speakscore_model_errors_total",
		Help: "Model-collaborator failures, by stage",
	}, []string{"stage"})

	OverallBand = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speakscore_overall_band",
		Help:    "Distribution of overall band scores produced",
		Buckets: []float64{4, 4.5, 5, 5.5, 6, 6.5, 7, 7.5, 8, 8.5, 9},
	})

	Confidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speakscore_confidence",
		Help:    "Distribution of overall confidence scores produced",
		Buckets: []float64{0, 0.2, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})
)
