// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package metrics defines the Prometheus collectors for the Oseh backend:
// API latency and throughput, sqlite query performance, the three cache
// tiers, the collaborative fill protocol, and the entitlement provider.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlite_query_duration_seconds",
			Help:    "Duration of sqlite queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlite_query_errors_total",
			Help: "Total number of sqlite query errors",
		},
		[]string{"operation", "table"},
	)

	// View Cache Metrics (read-through external views)
	ViewCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "view_cache_hits_total",
			Help: "Total number of cache hits per view and tier",
		},
		[]string{"view", "tier"}, // tier: "local", "shared", "broadcast"
	)

	ViewCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "view_cache_misses_total",
			Help: "Total number of full cache misses per view",
		},
		[]string{"view"},
	)

	ViewCacheFills = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "view_cache_fills_total",
			Help: "Total number of system-of-record fills per view and outcome",
		},
		[]string{"view", "outcome"}, // outcome: "ok", "not_found", "error"
	)

	ViewCacheFillDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "view_cache_fill_duration_seconds",
			Help:    "Duration of system-of-record fills in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)

	ViewCacheBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "view_cache_broadcasts_total",
			Help: "Total number of fill payloads published over pub/sub",
		},
		[]string{"view"},
	)

	ViewCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "view_cache_evictions_total",
			Help: "Total number of explicit evictions applied per view",
		},
		[]string{"view"},
	)

	// Fill Lock Metrics
	FillLockAcquired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fill_lock_acquired_total",
			Help: "Total number of fill locks acquired (instance became filler)",
		},
		[]string{"view"},
	)

	FillLockWaits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fill_lock_waits_total",
			Help: "Total number of waits for another instance's fill broadcast",
		},
		[]string{"view"},
	)

	FillLockWaitTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fill_lock_wait_timeouts_total",
			Help: "Total number of broadcast waits that timed out (filler presumed dead)",
		},
		[]string{"view"},
	)

	// Entitlement Provider Metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_provider_requests_total",
			Help: "Total number of entitlement provider requests",
		},
		[]string{"result"}, // "success", "failure", "rejected"
	)

	ProviderRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "entitlement_provider_request_duration_seconds",
			Help:    "Duration of entitlement provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ProviderFailOpens = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "entitlement_fail_opens_total",
			Help: "Total number of entitlements granted via fail-open",
		},
	)

	ProviderErrorWindow = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "entitlement_provider_error_window_size",
			Help: "Provider errors observed in the rolling 5-minute window",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordFill records the outcome of a system-of-record fill.
func RecordFill(view, outcome string, duration time.Duration) {
	ViewCacheFills.WithLabelValues(view, outcome).Inc()
	ViewCacheFillDuration.WithLabelValues(view).Observe(duration.Seconds())
}
