package worker

import (
	"context"
	"errors"
	"time"

	"scm-analytics/internal/broker"
	"scm-analytics/internal/models"
	"scm-analytics/internal/service"
	"scm-analytics/internal/util"

	"go.uber.org/zap"
)

// MessageSource is the consuming side of a topic
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// Refresher runs the interactive forecast for one product
type Refresher interface {
	RefreshProduct(ctx context.Context, productID int64) (*service.RefreshResult, error)
}

// RefreshWorker runs queued forecast requests
type RefreshWorker struct {
	source       MessageSource
	eventHandler *broker.EventHandler
	refresher    Refresher
	logger       *zap.Logger
}

// NewRefreshWorker creates a new refresh worker
func NewRefreshWorker(source MessageSource, refresher Refresher) *RefreshWorker {
	w := &RefreshWorker{
		source:       source,
		eventHandler: broker.NewEventHandler(),
		refresher:    refresher,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnPredictionRequested(w.handlePredictionRequested)
	return w
}

// Start starts the worker
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting refresh worker")
	return w.source.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *RefreshWorker) Stop() error {
	w.logger.Info("Stopping refresh worker")
	return w.source.Close()
}

func (w *RefreshWorker) handlePredictionRequested(ctx context.Context, event *models.PredictionRequestedEvent) error {
	result, err := w.refresher.RefreshProduct(ctx, event.ProductID)
	if errors.Is(err, service.ErrProductNotFound) {
		// stale request; retrying cannot succeed
		w.logger.Warn("Forecast requested for unknown product",
			zap.Int64("product_id", event.ProductID),
			zap.String("event_id", event.EventID))
		return nil
	}
	if err != nil {
		return err
	}

	w.logger.Info("Queued forecast processed",
		zap.String("event_id", event.EventID),
		zap.Int64("product_id", event.ProductID),
		zap.Int("predicted_demand", result.PredictedDemand),
		zap.Int("alerts_created", result.AlertsCreated))
	return nil
}

// Sweeper runs the low stock sweep
type Sweeper interface {
	Sweep(ctx context.Context, opts service.SweepOptions) (*service.SweepResult, error)
}

// SweepScheduler runs the sweep on a fixed interval
type SweepScheduler struct {
	sweeper  Sweeper
	opts     service.SweepOptions
	interval time.Duration
	logger   *zap.Logger
}

// NewSweepScheduler creates a new sweep scheduler
func NewSweepScheduler(sweeper Sweeper, opts service.SweepOptions, interval time.Duration) *SweepScheduler {
	return &SweepScheduler{
		sweeper:  sweeper,
		opts:     opts,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start blocks, sweeping once per interval until ctx is done
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting sweep scheduler", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single sweep and logs the outcome
func (s *SweepScheduler) RunOnce(ctx context.Context) *service.SweepResult {
	result, err := s.sweeper.Sweep(ctx, s.opts)
	if err != nil {
		s.logger.Error("Scheduled sweep failed", zap.Error(err))
		return nil
	}
	for _, line := range result.Lines {
		s.logger.Debug(line)
	}
	return result
}
