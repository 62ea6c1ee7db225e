package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scm-analytics/internal/models"
)

// ExistsRecent reports whether an alert of the given type was logged for the
// product after since
func (s *Store) ExistsRecent(ctx context.Context, productID int64, alertType models.AlertType, since time.Time) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM alerts WHERE product_id = $1 AND type = $2 AND created_at > $3)",
		productID, alertType, since)
	return exists, err
}

// InsertAlert stores an alert unconditionally
func (s *Store) InsertAlert(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (product_id, type, message, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return s.db.GetContext(ctx, &alert.ID, query,
		alert.ProductID, alert.Type, alert.Message, alert.CreatedAt)
}

// InsertAlertIfAbsent stores the alert unless one of the same type exists for
// the product after since. The check and the insert run under a transaction
// scoped advisory lock keyed on (product, type), so concurrent sweeps and
// refreshes in other processes cannot both insert.
func (s *Store) InsertAlertIfAbsent(ctx context.Context, alert *models.Alert, since time.Time) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"SELECT pg_advisory_xact_lock(hashtext('alerts:' || $1::text || ':' || $2::text))",
		alert.ProductID, alert.Type)
	if err != nil {
		return false, fmt.Errorf("failed to lock alert key: %w", err)
	}

	query := `
		INSERT INTO alerts (product_id, type, message, created_at)
		SELECT $1::bigint, $2::text, $3::text, $4::timestamptz
		WHERE NOT EXISTS (
			SELECT 1 FROM alerts WHERE product_id = $1 AND type = $2 AND created_at > $5
		)
		RETURNING id`

	err = tx.GetContext(ctx, &alert.ID, query,
		alert.ProductID, alert.Type, alert.Message, alert.CreatedAt, since)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert alert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteOrphanAlerts removes alerts whose product no longer exists
func (s *Store) DeleteOrphanAlerts(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM alerts a
		WHERE NOT EXISTS (SELECT 1 FROM inventory i WHERE i.id = a.product_id)`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountAlerts counts all alerts of a type
func (s *Store) CountAlerts(ctx context.Context, alertType models.AlertType) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM alerts WHERE type = $1", alertType)
	return n, err
}

// ListRecentAlerts returns the newest alerts first
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.SelectContext(ctx, &alerts,
		"SELECT id, product_id, type, message, created_at FROM alerts ORDER BY created_at DESC LIMIT $1", limit)
	return alerts, err
}
