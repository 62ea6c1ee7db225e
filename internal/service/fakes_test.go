package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"scm-analytics/internal/models"
	"scm-analytics/internal/notify"
	"scm-analytics/internal/store"
)

var errStoreDown = errors.New("connection refused")

type fakeCatalog struct {
	mu       sync.Mutex
	products map[int64]models.Product
	listErr  error
	getErr   error
	saveErr  error
	saves    int
}

func newFakeCatalog(products ...models.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[int64]models.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) sorted() []models.Product {
	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *fakeCatalog) ListProducts(context.Context) ([]models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.sorted(), nil
}

func (c *fakeCatalog) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

func (c *fakeCatalog) SavePredictedDemand(_ context.Context, id int64, demand int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	p, ok := c.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	p.PredictedDemand = &demand
	c.products[id] = p
	c.saves++
	return nil
}

func (c *fakeCatalog) ListLowStock(_ context.Context, threshold int) ([]models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	var out []models.Product
	for _, p := range c.sorted() {
		if p.StockLevel < threshold && p.Status == models.ProductStatusActive {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeAlertStore mimics the atomic conditional insert with a mutex
type fakeAlertStore struct {
	mu        sync.Mutex
	alerts    []models.Alert
	failFor   map[int64]error
	inserts   int
	orphans   int64
	purgeErr  error
	existsErr error
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{failFor: make(map[int64]error)}
}

func (s *fakeAlertStore) existsLocked(productID int64, alertType models.AlertType, since time.Time) bool {
	for _, a := range s.alerts {
		if a.ProductID == productID && a.Type == alertType && a.CreatedAt.After(since) {
			return true
		}
	}
	return false
}

func (s *fakeAlertStore) ExistsRecent(_ context.Context, productID int64, alertType models.AlertType, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.existsLocked(productID, alertType, since), nil
}

func (s *fakeAlertStore) InsertAlertIfAbsent(_ context.Context, alert *models.Alert, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[alert.ProductID]; err != nil {
		return false, err
	}
	if s.existsLocked(alert.ProductID, alert.Type, since) {
		return false, nil
	}
	s.inserts++
	alert.ID = int64(len(s.alerts) + 1)
	s.alerts = append(s.alerts, *alert)
	return true, nil
}

func (s *fakeAlertStore) DeleteOrphanAlerts(context.Context) (int64, error) {
	return s.orphans, s.purgeErr
}

func (s *fakeAlertStore) CountAlerts(_ context.Context, alertType models.AlertType) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.alerts {
		if a.Type == alertType {
			n++
		}
	}
	return n, nil
}

func (s *fakeAlertStore) ListRecentAlerts(_ context.Context, limit int) ([]models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Alert, 0, limit)
	for i := len(s.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.alerts[i])
	}
	return out, nil
}

func (s *fakeAlertStore) all() []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Alert(nil), s.alerts...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.AlertCreatedEvent
	err    error
}

func (p *fakePublisher) PublishAlertCreated(_ context.Context, e *models.AlertCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type fakeNotifier struct {
	status notify.DeliveryStatus
	calls  []string
}

func (n *fakeNotifier) Notify(_ context.Context, recipient, message string) notify.DeliveryResult {
	n.calls = append(n.calls, recipient+"|"+message)
	return notify.DeliveryResult{Status: n.status, Recipient: recipient}
}

func intPtr(v int) *int { return &v }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
