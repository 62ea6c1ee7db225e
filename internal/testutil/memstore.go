// Package testutil provides in-memory stand-ins for the Postgres store.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"scm-analytics/internal/models"
	"scm-analytics/internal/store"
)

// MemStore implements the catalog and alert store contracts in memory
type MemStore struct {
	mu       sync.Mutex
	products map[int64]models.Product
	alerts   []models.Alert
	PingErr  error
}

// NewMemStore seeds a store with products
func NewMemStore(products ...models.Product) *MemStore {
	m := &MemStore{products: make(map[int64]models.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *MemStore) Ping(context.Context) error { return m.PingErr }

func (m *MemStore) ListProducts(context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

func (m *MemStore) SavePredictedDemand(_ context.Context, id int64, demand int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	p.PredictedDemand = &demand
	m.products[id] = p
	return nil
}

func (m *MemStore) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	all, _ := m.ListProducts(ctx)

	var out []models.Product
	for _, p := range all {
		if p.StockLevel < threshold && p.Status == models.ProductStatusActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemStore) recentLocked(productID int64, alertType models.AlertType, since time.Time) bool {
	for _, a := range m.alerts {
		if a.ProductID == productID && a.Type == alertType && a.CreatedAt.After(since) {
			return true
		}
	}
	return false
}

func (m *MemStore) ExistsRecent(_ context.Context, productID int64, alertType models.AlertType, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recentLocked(productID, alertType, since), nil
}

func (m *MemStore) InsertAlertIfAbsent(_ context.Context, alert *models.Alert, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recentLocked(alert.ProductID, alert.Type, since) {
		return false, nil
	}
	alert.ID = int64(len(m.alerts) + 1)
	m.alerts = append(m.alerts, *alert)
	return true, nil
}

func (m *MemStore) DeleteOrphanAlerts(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.alerts[:0]
	var removed int64
	for _, a := range m.alerts {
		if _, ok := m.products[a.ProductID]; ok {
			kept = append(kept, a)
		} else {
			removed++
		}
	}
	m.alerts = kept
	return removed, nil
}

func (m *MemStore) CountAlerts(_ context.Context, alertType models.AlertType) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, a := range m.alerts {
		if a.Type == alertType {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) ListRecentAlerts(_ context.Context, limit int) ([]models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Alert, 0, limit)
	for i := len(m.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.alerts[i])
	}
	return out, nil
}

// Alerts returns a copy of every stored alert
func (m *MemStore) Alerts() []models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Alert(nil), m.alerts...)
}
