package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "comparador",
		Subsystem: "api",
		Name:      "request_seconds",
	}, []string{"method", "route", "status"})
	ComparisonsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "comparador",
		Subsystem: "api",
		Name:      "comparisons_submitted_total",
	})
	ComparisonsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comparador",
		Subsystem: "api",
		Name:      "comparisons_finished_total",
	}, []string{"status"})
	ModelSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "comparador",
		Subsystem: "compare",
		Name:      "model_seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"model"})
	ModelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comparador",
		Subsystem: "compare",
		Name:      "model_failures_total",
	}, []string{"model"})
)
