package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scm-analytics/internal/analytics"
	"scm-analytics/internal/models"
	"scm-analytics/internal/store"
	"scm-analytics/internal/util"

	"go.uber.org/zap"
)

// AnalyticsService runs the interactive forecast and classification path
type AnalyticsService struct {
	catalog   CatalogAccessor
	alerts    AlertStore
	generator *AlertGenerator
	policy    analytics.RatioBased
	now       func() time.Time
	logger    *zap.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	catalog CatalogAccessor,
	alerts AlertStore,
	generator *AlertGenerator,
	bands analytics.Bands,
) *AnalyticsService {
	return &AnalyticsService{
		catalog:   catalog,
		alerts:    alerts,
		generator: generator,
		policy:    analytics.RatioBased{Bands: bands},
		now:       time.Now,
		logger:    util.GetLogger(),
	}
}

// EvaluationResult is a classified catalog plus the alerts raised for it
type EvaluationResult struct {
	Scorecard        *analytics.Scorecard `json:"scorecard"`
	AlertsCreated    int                  `json:"alerts_created"`
	AlertsSuppressed int                  `json:"alerts_suppressed"`
	Failures         []ProductFailure     `json:"failures,omitempty"`
}

// RefreshResult is returned by the interactive single product path
type RefreshResult struct {
	ProductID       int64  `json:"product_id"`
	ProductName     string `json:"product_name"`
	PredictedDemand int    `json:"predicted_demand"`
	Message         string `json:"message"`
	EvaluationResult
}

// RefreshProduct re-forecasts one product, persists the forecast, then
// classifies the whole catalog and raises alerts for every critical product
func (s *AnalyticsService) RefreshProduct(ctx context.Context, productID int64) (*RefreshResult, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.RefreshProduct")
	defer span.End()

	start := time.Now()
	defer func() {
		util.RefreshDuration.Observe(time.Since(start).Seconds())
	}()

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		util.RecordError(span, err)
		return nil, s.catalogError("get_product", productID, err)
	}

	demand := analytics.Predict(product.Category, product.StockLevel)
	util.PredictionsTotal.WithLabelValues(analytics.CategoryKey(product.Category)).Inc()

	if err := s.catalog.SavePredictedDemand(ctx, productID, demand); err != nil {
		util.RecordError(span, err)
		return nil, s.catalogError("save_predicted_demand", productID, err)
	}

	s.logger.Info("Demand forecast generated",
		zap.Int64("product_id", productID),
		zap.String("category", product.Category),
		zap.Int("stock_level", product.StockLevel),
		zap.Int("predicted_demand", demand))

	eval, err := s.Evaluate(ctx, true)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{
		ProductID:        productID,
		ProductName:      product.Name,
		PredictedDemand:  demand,
		EvaluationResult: *eval,
	}
	result.Message = fmt.Sprintf("Demand forecast successfully generated for '%s'. New predicted demand: %d",
		product.Name, demand)
	if eval.AlertsCreated > 0 {
		result.Message += fmt.Sprintf(" (%d new Critical Alerts generated and logged in Alerts Center.)", eval.AlertsCreated)
	}
	return result, nil
}

// Evaluate classifies the catalog with the ratio policy. With raiseAlerts set,
// every critical product goes through the alert generator; a failure on one
// product is recorded and the pass continues.
func (s *AnalyticsService) Evaluate(ctx context.Context, raiseAlerts bool) (*EvaluationResult, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.Evaluate")
	defer span.End()

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		util.StoreErrorsTotal.WithLabelValues("list_products").Inc()
		util.RecordError(span, err)
		return nil, fmt.Errorf("%w: list products: %w", ErrStoreUnavailable, err)
	}

	scorecard := analytics.BuildScorecard(products, s.policy)
	for tier, n := range scorecard.TierCounts {
		util.ProductsClassifiedTotal.WithLabelValues(s.policy.Name(), string(tier)).Add(float64(n))
	}

	result := &EvaluationResult{Scorecard: scorecard}
	if !raiseAlerts {
		return result, nil
	}

	now := s.now()
	for _, product := range scorecard.Critical() {
		outcome, err := s.generator.GenerateIfNeeded(ctx, product, models.TierCriticalRisk, now)
		if err != nil {
			s.logger.Error("Alert evaluation failed",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
			result.Failures = append(result.Failures, ProductFailure{
				ProductID: product.ID,
				Step:      "generate_alert",
				Error:     err.Error(),
			})
			continue
		}

		switch outcome {
		case OutcomeCreated:
			result.AlertsCreated++
		case OutcomeSuppressed:
			result.AlertsSuppressed++
		}
	}

	return result, nil
}

// Dashboard holds the console KPIs
type Dashboard struct {
	*analytics.Scorecard
	CriticalAlerts int            `json:"critical_alerts"`
	RecentAlerts   []models.Alert `json:"recent_alerts"`
}

// Dashboard returns catalog KPIs and the newest alerts
func (s *AnalyticsService) Dashboard(ctx context.Context, recent int) (*Dashboard, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.Dashboard")
	defer span.End()

	eval, err := s.Evaluate(ctx, false)
	if err != nil {
		return nil, err
	}

	count, err := s.alerts.CountAlerts(ctx, models.AlertTypeCritical)
	if err != nil {
		util.StoreErrorsTotal.WithLabelValues("count_alerts").Inc()
		return nil, fmt.Errorf("%w: count alerts: %w", ErrStoreUnavailable, err)
	}

	alerts, err := s.alerts.ListRecentAlerts(ctx, recent)
	if err != nil {
		util.StoreErrorsTotal.WithLabelValues("list_alerts").Inc()
		return nil, fmt.Errorf("%w: list alerts: %w", ErrStoreUnavailable, err)
	}

	return &Dashboard{
		Scorecard:      eval.Scorecard,
		CriticalAlerts: count,
		RecentAlerts:   alerts,
	}, nil
}

func (s *AnalyticsService) catalogError(op string, productID int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	util.StoreErrorsTotal.WithLabelValues(op).Inc()
	return fmt.Errorf("%w: %s %d: %w", ErrStoreUnavailable, op, productID, err)
}
