// Package analytics holds the pure parts of the stock-risk pipeline: the
// demand heuristic and the risk policies. Nothing here blocks or fails.
package analytics

import "strings"

const (
	// MinPredictedDemand is the floor applied to every forecast.
	MinPredictedDemand = 100

	defaultBaseDemand = 500

	// DefaultCategory is the key of every category without its own base.
	DefaultCategory = "default"
)

var baseDemandByCategory = map[string]int{
	"electronics": 1500,
	"apparel":     800,
	"consumables": 2200,
}

// CategoryKey normalizes a free form category to a known key, or
// DefaultCategory when the category has no base of its own.
func CategoryKey(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if _, ok := baseDemandByCategory[key]; ok {
		return key
	}
	return DefaultCategory
}

// BaseDemand returns the monthly base demand for a category. Unknown and
// empty categories fall back to the default base.
func BaseDemand(category string) int {
	if base, ok := baseDemandByCategory[CategoryKey(category)]; ok {
		return base
	}
	return defaultBaseDemand
}

// stockAdjustmentPercent is -20 when stock exceeds 1.5x base, +15 when stock
// is below 0.2x base and 0 otherwise.
func stockAdjustmentPercent(base, stockLevel int) int {
	switch {
	case stockLevel*10 > base*15:
		return -20
	case stockLevel*5 < base:
		return 15
	default:
		return 0
	}
}

// Predict estimates monthly demand from category and current stock.
// Identical inputs always give identical output; the result is never below
// MinPredictedDemand.
func Predict(category string, stockLevel int) int {
	base := BaseDemand(category)
	scaled := base * (100 + stockAdjustmentPercent(base, stockLevel))

	// round half away from zero; scaled is always positive
	demand := (scaled + 50) / 100

	if demand < MinPredictedDemand {
		return MinPredictedDemand
	}
	return demand
}
