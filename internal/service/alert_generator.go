package service

import (
	"context"
	"fmt"
	"time"

	"scm-analytics/internal/analytics"
	"scm-analytics/internal/models"
	"scm-analytics/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertOutcome is the result of evaluating one product
type AlertOutcome string

const (
	OutcomeCreated     AlertOutcome = "created"
	OutcomeSuppressed  AlertOutcome = "suppressed"
	OutcomeNotEligible AlertOutcome = "not_eligible"
)

// DefaultSuppressionWindow is how long a Critical alert silences the next one
const DefaultSuppressionWindow = 7 * 24 * time.Hour

// AlertGenerator emits at most one Critical alert per product per
// suppression window
type AlertGenerator struct {
	alerts    AlertStore
	lock      AlertLock
	publisher AlertEventPublisher
	window    time.Duration
	logger    *zap.Logger
}

// NewAlertGenerator creates a new alert generator. lock and publisher are optional.
func NewAlertGenerator(alerts AlertStore, lock AlertLock, publisher AlertEventPublisher, window time.Duration) *AlertGenerator {
	if window <= 0 {
		window = DefaultSuppressionWindow
	}
	return &AlertGenerator{
		alerts:    alerts,
		lock:      lock,
		publisher: publisher,
		window:    window,
		logger:    util.GetLogger(),
	}
}

// Window returns the suppression window
func (g *AlertGenerator) Window() time.Duration {
	return g.window
}

// GenerateIfNeeded raises a stock-out risk alert for a product already
// classified by the ratio policy
func (g *AlertGenerator) GenerateIfNeeded(ctx context.Context, p models.Product, tier models.RiskTier, now time.Time) (AlertOutcome, error) {
	return g.generate(ctx, analytics.RatioBased{}, p, tier, now)
}

// GenerateForPolicy classifies p with policy and raises the policy's alert if
// the product is critical
func (g *AlertGenerator) GenerateForPolicy(ctx context.Context, policy analytics.RiskPolicy, p models.Product, now time.Time) (AlertOutcome, error) {
	return g.generate(ctx, policy, p, policy.Classify(p), now)
}

func (g *AlertGenerator) generate(ctx context.Context, policy analytics.RiskPolicy, p models.Product, tier models.RiskTier, now time.Time) (AlertOutcome, error) {
	if tier != models.TierCriticalRisk {
		return OutcomeNotEligible, nil
	}

	ctx, span := util.StartSpan(ctx, "AlertGenerator.Generate")
	defer span.End()

	alertType := models.AlertTypeCritical
	alert := &models.Alert{
		ProductID: p.ID,
		Type:      alertType,
		Message:   policy.AlertMessage(p),
		CreatedAt: now,
	}

	token := uuid.New().String()
	claimed := false
	if g.lock != nil {
		ok, err := g.lock.ClaimAlert(ctx, p.ID, string(alertType), token, now, g.window)
		switch {
		case err != nil:
			util.AlertClaimFallbacksTotal.Inc()
			g.logger.Warn("Alert claim failed, falling back to DB",
				zap.Int64("product_id", p.ID),
				zap.Error(err))
		case !ok:
			util.AlertsSuppressedTotal.WithLabelValues(string(alertType), "cache").Inc()
			return OutcomeSuppressed, nil
		default:
			claimed = true
		}
	}

	created, err := g.alerts.InsertAlertIfAbsent(ctx, alert, now.Add(-g.window))
	if err != nil || !created {
		if claimed {
			g.releaseClaim(ctx, p.ID, alertType, token)
		}
	}
	if err != nil {
		util.StoreErrorsTotal.WithLabelValues("insert_alert").Inc()
		util.RecordError(span, err)
		return "", fmt.Errorf("%w: insert alert for product %d: %w", ErrStoreUnavailable, p.ID, err)
	}
	if !created {
		util.AlertsSuppressedTotal.WithLabelValues(string(alertType), "store").Inc()
		return OutcomeSuppressed, nil
	}

	util.AlertsCreatedTotal.WithLabelValues(string(alertType)).Inc()
	g.logger.Info("Critical alert created",
		zap.Int64("alert_id", alert.ID),
		zap.Int64("product_id", p.ID),
		zap.String("policy", policy.Name()))

	g.publishCreated(ctx, alert, p, policy)
	return OutcomeCreated, nil
}

func (g *AlertGenerator) releaseClaim(ctx context.Context, productID int64, alertType models.AlertType, token string) {
	if err := g.lock.ReleaseAlert(ctx, productID, string(alertType), token); err != nil {
		g.logger.Error("Failed to release alert claim",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}
}

func (g *AlertGenerator) publishCreated(ctx context.Context, alert *models.Alert, p models.Product, policy analytics.RiskPolicy) {
	if g.publisher == nil {
		return
	}

	event := &models.AlertCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeAlertCreated,
			Timestamp: alert.CreatedAt,
		},
		AlertID:    alert.ID,
		ProductID:  alert.ProductID,
		AlertType:  alert.Type,
		Message:    alert.Message,
		StockLevel: p.StockLevel,
		Policy:     policy.Name(),
	}

	if err := g.publisher.PublishAlertCreated(ctx, event); err != nil {
		g.logger.Error("Failed to publish AlertCreated event",
			zap.Int64("alert_id", alert.ID),
			zap.Error(err))
	}
}
