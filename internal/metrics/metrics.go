// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zipkin_elasticsearch"

// BulkMetrics counts the outcome of bulk index requests.
type BulkMetrics struct {
	Attempts   prometheus.Counter
	Inserts    prometheus.Counter
	Errors     prometheus.Counter
	LatencyOk  prometheus.Histogram
	LatencyErr prometheus.Histogram
}

// NewBulkMetrics registers and returns bulk indexing metrics.
func NewBulkMetrics(reg prometheus.Registerer) *BulkMetrics {
	f := promauto.With(reg)
	return &BulkMetrics{
		Attempts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bulk_index_attempts_total",
			Help: "Number of span documents submitted in bulk requests.",
		}),
		Inserts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bulk_index_inserts_total",
			Help: "Number of span documents successfully indexed.",
		}),
		Errors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bulk_index_errors_total",
			Help: "Number of span documents rejected by the bulk API.",
		}),
		LatencyOk: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "bulk_index_latency_ok_seconds",
			Help: "Latency of successful bulk requests.",
		}),
		LatencyErr: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "bulk_index_latency_err_seconds",
			Help: "Latency of failed bulk requests.",
		}),
	}
}

// TemplateMetrics counts template reconciliation outcomes.
type TemplateMetrics struct {
	Upserts  prometheus.Counter
	Skips    prometheus.Counter
	Failures prometheus.Counter
}

// NewTemplateMetrics registers and returns template reconciliation metrics.
func NewTemplateMetrics(reg prometheus.Registerer) *TemplateMetrics {
	f := promauto.With(reg)
	return &TemplateMetrics{
		Upserts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "template_upserts_total",
			Help: "Number of index template writes issued.",
		}),
		Skips: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "template_skips_total",
			Help: "Number of reconciliations satisfied without a write.",
		}),
		Failures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "template_failures_total",
			Help: "Number of failed template reconciliations.",
		}),
	}
}

// NullBulkMetrics returns unregistered metrics, for tests.
func NullBulkMetrics() *BulkMetrics {
	return NewBulkMetrics(prometheus.NewRegistry())
}

// NullTemplateMetrics returns unregistered metrics, for tests.
func NullTemplateMetrics() *TemplateMetrics {
	return NewTemplateMetrics(prometheus.NewRegistry())
}
