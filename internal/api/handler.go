package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"scm-analytics/internal/models"
	"scm-analytics/internal/service"
	"scm-analytics/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// PredictionRequester queues asynchronous forecast refreshes
type PredictionRequester interface {
	PublishPredictionRequested(ctx context.Context, event *models.PredictionRequestedEvent) error
}

// Handler contains HTTP handlers
type Handler struct {
	analytics    *service.AnalyticsService
	sweeps       *service.SweepService
	sweepDefault service.SweepOptions
	requester    PredictionRequester
	deps         map[string]Pinger
}

// NewHandler creates a new HTTP handler. requester may be nil, which disables
// the asynchronous forecast endpoint.
func NewHandler(
	analytics *service.AnalyticsService,
	sweeps *service.SweepService,
	sweepDefault service.SweepOptions,
	requester PredictionRequester,
	deps map[string]Pinger,
) *Handler {
	return &Handler{
		analytics:    analytics,
		sweeps:       sweeps,
		sweepDefault: sweepDefault,
		requester:    requester,
		deps:         deps,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/products/:id/forecast", h.refreshForecast)
		v1.POST("/products/:id/forecast-requests", h.requestForecast)
		v1.GET("/analytics", h.getAnalytics)
		v1.POST("/analytics/evaluate", h.evaluateAlerts)
		v1.GET("/dashboard", h.getDashboard)
		v1.POST("/sweeps", h.runSweep)
		v1.GET("/automation", h.getAutomation)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// refreshForecast runs the interactive prediction for one product
func (h *Handler) refreshForecast(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	result, err := h.analytics.RefreshProduct(c.Request.Context(), productID)
	if err != nil {
		writeServiceError(c, "Failed to generate forecast", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// requestForecast queues a forecast refresh for the worker
func (h *Handler) requestForecast(c *gin.Context) {
	if h.requester == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Asynchronous forecasts are not enabled"})
		return
	}

	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	event := &models.PredictionRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePredictionRequested,
			Timestamp: time.Now(),
		},
		ProductID:   productID,
		RequestedBy: c.GetHeader("X-Requested-By"),
	}

	if err := h.requester.PublishPredictionRequested(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to queue forecast",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"event_id":   event.EventID,
		"product_id": productID,
	})
}

// getAnalytics returns the classification table without raising alerts
func (h *Handler) getAnalytics(c *gin.Context) {
	result, err := h.analytics.Evaluate(c.Request.Context(), false)
	if err != nil {
		writeServiceError(c, "Failed to classify catalog", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// evaluateAlerts classifies the catalog and raises alerts
func (h *Handler) evaluateAlerts(c *gin.Context) {
	result, err := h.analytics.Evaluate(c.Request.Context(), true)
	if err != nil {
		writeServiceError(c, "Failed to evaluate alerts", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// getDashboard returns console KPIs
func (h *Handler) getDashboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("recent", "10"))
	if err != nil || limit < 0 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recent limit"})
		return
	}

	dash, err := h.analytics.Dashboard(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, "Failed to load dashboard", err)
		return
	}

	c.JSON(http.StatusOK, dash)
}

// getAutomation reports the automation toggles the service runs with
func (h *Handler) getAutomation(c *gin.Context) {
	c.JSON(http.StatusOK, h.sweepDefault.Rules)
}

// SweepRequest optionally overrides the configured sweep
type SweepRequest struct {
	Threshold *int `json:"threshold" binding:"omitempty,min=0"`
	DryRun    bool `json:"dry_run"`
}

// runSweep runs the low stock sweep on demand
func (h *Handler) runSweep(c *gin.Context) {
	// an empty body runs the configured sweep
	var req SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	opts := h.sweepDefault
	if req.Threshold != nil {
		opts.Threshold = *req.Threshold
	}
	opts.DryRun = req.DryRun

	result, err := h.sweeps.Sweep(c.Request.Context(), opts)
	if err != nil {
		writeServiceError(c, "Sweep failed", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseProductID(c *gin.Context) (int64, bool) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return 0, false
	}
	return productID, true
}

func writeServiceError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
