package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item in the inventory catalog
type Product struct {
	ID              int64           `db:"id" json:"id"`
	Name            string          `db:"product_name" json:"name"`
	Category        string          `db:"category" json:"category"`
	StockLevel      int             `db:"stock_level" json:"stock_level"`
	PredictedDemand *int            `db:"predicted_demand" json:"predicted_demand"`
	Status          string          `db:"status" json:"status"`
	ReorderPoint    int             `db:"reorder_point" json:"reorder_point"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Demand returns the stored forecast, or 0 when the product was never forecast.
func (p Product) Demand() int {
	if p.PredictedDemand == nil {
		return 0
	}
	return *p.PredictedDemand
}

// Product statuses
const (
	ProductStatusActive   = "Active"
	ProductStatusInactive = "Inactive"
)

// AlertType categorizes alerts
type AlertType string

const AlertTypeCritical AlertType = "Critical"

// Alert is an immutable record in the alerts center
type Alert struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Type      AlertType `db:"type" json:"type"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RiskTier is derived on every classification pass and never persisted.
type RiskTier string

const (
	TierNoForecast      RiskTier = "NoForecast"
	TierCriticalRisk    RiskTier = "CriticalRisk"
	TierModerateRisk    RiskTier = "ModerateRisk"
	TierGoodPerformance RiskTier = "GoodPerformance"
)

// Label returns the human readable tier name shown on the scorecard.
func (t RiskTier) Label() string {
	switch t {
	case TierCriticalRisk:
		return "Critical Risk"
	case TierModerateRisk:
		return "Moderate Risk"
	case TierGoodPerformance:
		return "Good Performance"
	default:
		return "No Forecast"
	}
}
