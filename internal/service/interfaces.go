package service

import (
	"context"
	"errors"
	"time"

	"scm-analytics/internal/models"
)

var (
	// ErrProductNotFound is returned by the interactive path for unknown ids.
	ErrProductNotFound = errors.New("product not found")
	// ErrStoreUnavailable wraps catalog and alert store failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// CatalogAccessor is the read/write view over product records
type CatalogAccessor interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	SavePredictedDemand(ctx context.Context, id int64, demand int) error
	ListLowStock(ctx context.Context, threshold int) ([]models.Product, error)
}

// AlertStore persists alerts. InsertAlertIfAbsent must perform the window
// check and the insert as one atomic operation.
type AlertStore interface {
	ExistsRecent(ctx context.Context, productID int64, alertType models.AlertType, since time.Time) (bool, error)
	InsertAlertIfAbsent(ctx context.Context, alert *models.Alert, since time.Time) (bool, error)
	DeleteOrphanAlerts(ctx context.Context) (int64, error)
	CountAlerts(ctx context.Context, alertType models.AlertType) (int, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]models.Alert, error)
}

// AlertLock is an optional shared claim in front of the alert store
type AlertLock interface {
	ClaimAlert(ctx context.Context, productID int64, alertType, token string, now time.Time, window time.Duration) (bool, error)
	ReleaseAlert(ctx context.Context, productID int64, alertType, token string) error
}

// AlertEventPublisher announces persisted alerts
type AlertEventPublisher interface {
	PublishAlertCreated(ctx context.Context, event *models.AlertCreatedEvent) error
}

// ProductFailure records a product whose step failed during a batch pass
type ProductFailure struct {
	ProductID int64  `json:"product_id"`
	Step      string `json:"step"`
	Error     string `json:"error"`
}
