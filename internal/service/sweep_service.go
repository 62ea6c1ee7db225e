package service

import (
	"context"
	"fmt"
	"time"

	"scm-analytics/config"
	"scm-analytics/internal/analytics"
	"scm-analytics/internal/models"
	"scm-analytics/internal/notify"
	"scm-analytics/internal/util"

	"go.uber.org/zap"
)

// SweepOptions configures one scheduled low stock sweep
type SweepOptions struct {
	Threshold    int
	Recipients   []string
	Rules        config.AutomationRules
	DryRun       bool
	PurgeOrphans bool
}

// SweepResult summarizes a sweep for the operator
type SweepResult struct {
	Threshold     int                     `json:"threshold"`
	Evaluated     int                     `json:"evaluated"`
	AlertsCreated int                     `json:"alerts_created"`
	Suppressed    int                     `json:"suppressed"`
	OrphansPurged int64                   `json:"orphans_purged"`
	Lines         []string                `json:"lines"`
	Failures      []ProductFailure        `json:"failures,omitempty"`
	Notifications []notify.DeliveryResult `json:"notifications,omitempty"`
}

func (r *SweepResult) logf(format string, args ...interface{}) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

// SweepService runs the scheduled absolute threshold sweep
type SweepService struct {
	catalog   CatalogAccessor
	alerts    AlertStore
	generator *AlertGenerator
	notifier  notify.Notifier
	now       func() time.Time
	logger    *zap.Logger
}

// NewSweepService creates a new sweep service
func NewSweepService(
	catalog CatalogAccessor,
	alerts AlertStore,
	generator *AlertGenerator,
	notifier notify.Notifier,
) *SweepService {
	if notifier == nil {
		notifier = notify.Disabled{}
	}
	return &SweepService{
		catalog:   catalog,
		alerts:    alerts,
		generator: generator,
		notifier:  notifier,
		now:       time.Now,
		logger:    util.GetLogger(),
	}
}

// Sweep alerts on every active product below the stock threshold. Product
// level failures are recorded and skipped; only a failed catalog query
// aborts the run.
func (s *SweepService) Sweep(ctx context.Context, opts SweepOptions) (*SweepResult, error) {
	ctx, span := util.StartSpan(ctx, "SweepService.Sweep")
	defer span.End()

	start := time.Now()
	defer func() {
		util.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	policy := analytics.AbsoluteThreshold{Limit: opts.Threshold}
	result := &SweepResult{Threshold: opts.Threshold}
	result.logf("--- SCM ALERT PROCESS STARTED ---")

	if opts.PurgeOrphans && !opts.DryRun {
		s.purgeOrphans(ctx, result)
	}

	products, err := s.catalog.ListLowStock(ctx, opts.Threshold)
	if err != nil {
		util.StoreErrorsTotal.WithLabelValues("list_low_stock").Inc()
		util.RecordError(span, err)
		return nil, fmt.Errorf("%w: list low stock: %w", ErrStoreUnavailable, err)
	}

	if len(products) == 0 {
		result.logf("No critical low stock alerts found. System nominal.")
		result.logf("--- SCM ALERT PROCESS FINISHED ---")
		return result, nil
	}
	result.logf("Found %d low stock items.", len(products))

	now := s.now()
	for _, product := range products {
		result.Evaluated++
		util.ProductsClassifiedTotal.WithLabelValues(policy.Name(), string(policy.Classify(product))).Inc()

		if opts.DryRun {
			s.dryRun(ctx, policy, product, now, result)
			continue
		}

		outcome, err := s.generator.GenerateForPolicy(ctx, policy, product, now)
		if err != nil {
			s.logger.Error("Sweep alert failed",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
			result.Failures = append(result.Failures, ProductFailure{
				ProductID: product.ID,
				Step:      "generate_alert",
				Error:     err.Error(),
			})
			result.logf("-> ERROR logging alert for %s: %v", product.Name, err)
			continue
		}

		switch outcome {
		case OutcomeCreated:
			result.AlertsCreated++
			result.logf("-> DB Logged: %s (stock %d)", product.Name, product.StockLevel)
			s.notify(ctx, opts, policy.AlertMessage(product), result)
		case OutcomeSuppressed:
			result.Suppressed++
			result.logf("-> Suppressed: %s already alerted within %s", product.Name, s.generator.Window())
		default:
			result.logf("-> Skipped: %s (stock %d)", product.Name, product.StockLevel)
		}
	}

	result.logf("%d new Critical Alerts generated.", result.AlertsCreated)
	result.logf("--- SCM ALERT PROCESS FINISHED ---")

	s.logger.Info("Sweep completed",
		zap.Int("threshold", opts.Threshold),
		zap.Int("evaluated", result.Evaluated),
		zap.Int("alerts_created", result.AlertsCreated),
		zap.Int("suppressed", result.Suppressed),
		zap.Int("failures", len(result.Failures)))
	return result, nil
}

// notify sends one message per recipient. Delivery problems are warnings;
// the alert is already persisted.
func (s *SweepService) notify(ctx context.Context, opts SweepOptions, message string, result *SweepResult) {
	if !opts.Rules.CriticalSMS {
		result.logf("-> SMS Trigger: skipped, critical SMS rule disabled")
		return
	}
	if len(opts.Recipients) == 0 {
		result.logf("-> SMS Trigger: no recipients configured")
		return
	}

	for _, recipient := range opts.Recipients {
		delivery := s.notifier.Notify(ctx, recipient, message)
		result.Notifications = append(result.Notifications, delivery)
		result.logf("-> SMS Trigger: %s", delivery)

		if delivery.Status != notify.StatusSent {
			s.logger.Warn("Notification not delivered",
				zap.String("recipient", recipient),
				zap.String("status", string(delivery.Status)),
				zap.String("detail", delivery.Detail))
		}
	}
}

func (s *SweepService) dryRun(ctx context.Context, policy analytics.RiskPolicy, product models.Product, now time.Time, result *SweepResult) {
	if policy.Classify(product) != models.TierCriticalRisk {
		result.logf("-> [dry-run] Skipped: %s (stock %d)", product.Name, product.StockLevel)
		return
	}

	exists, err := s.alerts.ExistsRecent(ctx, product.ID, models.AlertTypeCritical, now.Add(-s.generator.Window()))
	if err != nil {
		util.StoreErrorsTotal.WithLabelValues("exists_recent").Inc()
		result.Failures = append(result.Failures, ProductFailure{
			ProductID: product.ID,
			Step:      "exists_recent",
			Error:     err.Error(),
		})
		result.logf("-> [dry-run] ERROR checking %s: %v", product.Name, err)
		return
	}

	if exists {
		result.Suppressed++
		result.logf("-> [dry-run] Would suppress: %s", product.Name)
		return
	}
	result.logf("-> [dry-run] Would alert: %s (stock %d)", product.Name, product.StockLevel)
}

func (s *SweepService) purgeOrphans(ctx context.Context, result *SweepResult) {
	n, err := s.alerts.DeleteOrphanAlerts(ctx)
	if err != nil {
		util.StoreErrorsTotal.WithLabelValues("delete_orphan_alerts").Inc()
		s.logger.Warn("Orphan alert cleanup failed", zap.Error(err))
		result.logf("-> Cleanup failed: %v", err)
		return
	}

	result.OrphansPurged = n
	util.OrphanAlertsPurgedTotal.Add(float64(n))
	if n > 0 {
		result.logf("-> Cleanup: removed %d alerts for deleted products", n)
	}
}
