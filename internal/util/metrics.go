package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "demand_predictions_total",
		Help: "Total number of demand predictions computed",
	}, []string{"category"})

	ProductsClassifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "products_classified_total",
		Help: "Total number of product classifications by policy and tier",
	}, []string{"policy", "tier"})

	AlertsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_created_total",
		Help: "Total number of alerts created",
	}, []string{"type"})

	AlertsSuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_suppressed_total",
		Help: "Total number of alerts suppressed inside the suppression window",
	}, []string{"type", "layer"})

	AlertClaimFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alert_claim_fallbacks_total",
		Help: "Total number of Redis claim failures that fell back to the database",
	})

	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_errors_total",
		Help: "Total number of catalog or alert store failures",
	}, []string{"operation"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Total number of notification attempts by result",
	}, []string{"result"})

	OrphanAlertsPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orphan_alerts_purged_total",
		Help: "Total number of alerts deleted because their product no longer exists",
	})

	ConsumerHandlerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_consumer_handler_failures_total",
		Help: "Total number of consumed messages whose handler failed",
	}, []string{"topic"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sweep_duration_seconds",
		Help:    "Latency of scheduled low-stock sweeps",
		Buckets: prometheus.DefBuckets,
	})

	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "forecast_refresh_duration_seconds",
		Help:    "Latency of interactive forecast refreshes",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
