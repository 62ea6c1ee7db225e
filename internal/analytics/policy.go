package analytics

import (
	"fmt"

	"scm-analytics/internal/models"
)

const (
	PolicyRatioBased        = "ratio_based"
	PolicyAbsoluteThreshold = "absolute_threshold"
)

// RiskPolicy classifies a product snapshot and words the alert raised for it.
type RiskPolicy interface {
	Name() string
	Classify(p models.Product) models.RiskTier
	AlertMessage(p models.Product) string
}

// Bands are the lower bounds of the Moderate and Good tiers, as a ratio of
// stock to predicted demand.
type Bands struct {
	Critical float64
	Moderate float64
}

// DefaultBands are 0.2 and 0.5.
var DefaultBands = Bands{Critical: 0.2, Moderate: 0.5}

// Classify maps a forecast and a stock level to a tier. A missing or zero
// forecast is NoForecast; otherwise each band is closed on its lower bound.
func Classify(predictedDemand, stockLevel int, bands Bands) models.RiskTier {
	if predictedDemand <= 0 {
		return models.TierNoForecast
	}

	ratio := float64(stockLevel) / float64(predictedDemand)
	switch {
	case ratio < bands.Critical:
		return models.TierCriticalRisk
	case ratio < bands.Moderate:
		return models.TierModerateRisk
	default:
		return models.TierGoodPerformance
	}
}

// RatioBased is the interactive policy: stock measured against forecast.
type RatioBased struct {
	Bands Bands
}

func (RatioBased) Name() string { return PolicyRatioBased }

func (r RatioBased) Classify(p models.Product) models.RiskTier {
	return Classify(p.Demand(), p.StockLevel, r.Bands)
}

func (RatioBased) AlertMessage(p models.Product) string {
	return fmt.Sprintf("CRITICAL STOCK-OUT RISK for %s. Stock (%d) is too low relative to Predicted Demand. "+
		"Action Required: Immediately review reorder quantities.", p.Name, p.StockLevel)
}

// AbsoluteThreshold is the scheduled sweep policy: any stock level under Limit
// is treated as critical, regardless of forecast.
type AbsoluteThreshold struct {
	Limit int
}

func (AbsoluteThreshold) Name() string { return PolicyAbsoluteThreshold }

func (a AbsoluteThreshold) Classify(p models.Product) models.RiskTier {
	if p.StockLevel < a.Limit {
		return models.TierCriticalRisk
	}
	return models.TierGoodPerformance
}

func (a AbsoluteThreshold) AlertMessage(p models.Product) string {
	return fmt.Sprintf("CRITICAL ALERT: Low Stock Detected for %s. Stock is at %d units (Threshold: %d). "+
		"Place order immediately.", p.Name, p.StockLevel, a.Limit)
}
