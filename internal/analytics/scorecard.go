package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"scm-analytics/internal/models"
)

// ClassifiedProduct is one row of the forecast analysis table.
type ClassifiedProduct struct {
	models.Product
	Tier      models.RiskTier `json:"tier"`
	TierLabel string          `json:"tier_label"`
}

// Scorecard aggregates a classification pass over the catalog.
type Scorecard struct {
	Rows               []ClassifiedProduct     `json:"rows"`
	TierCounts         map[models.RiskTier]int `json:"tier_counts"`
	TotalProducts      int                     `json:"total_products"`
	AvgPredictedDemand float64                 `json:"avg_predicted_demand"`
	CriticalCount      int                     `json:"critical_count"`
	InventoryValue     decimal.Decimal         `json:"inventory_value"`
	BelowReorderPoint  int                     `json:"below_reorder_point"`
}

// BuildScorecard classifies every product with policy. Rows are ordered by
// predicted demand, highest first; ties keep catalog order.
func BuildScorecard(products []models.Product, policy RiskPolicy) *Scorecard {
	sc := &Scorecard{
		Rows:           make([]ClassifiedProduct, 0, len(products)),
		TierCounts:     make(map[models.RiskTier]int),
		TotalProducts:  len(products),
		InventoryValue: decimal.Zero,
	}

	var demandSum int
	for _, p := range products {
		tier := policy.Classify(p)
		sc.Rows = append(sc.Rows, ClassifiedProduct{Product: p, Tier: tier, TierLabel: tier.Label()})
		sc.TierCounts[tier]++

		demandSum += p.Demand()
		sc.InventoryValue = sc.InventoryValue.Add(p.UnitPrice.Mul(decimal.NewFromInt(int64(p.StockLevel))))
		if p.StockLevel <= p.ReorderPoint {
			sc.BelowReorderPoint++
		}
	}

	sort.SliceStable(sc.Rows, func(i, j int) bool {
		return sc.Rows[i].Demand() > sc.Rows[j].Demand()
	})

	sc.CriticalCount = sc.TierCounts[models.TierCriticalRisk]
	if sc.TotalProducts > 0 {
		sc.AvgPredictedDemand = float64(demandSum) / float64(sc.TotalProducts)
	}
	return sc
}

// Critical returns the rows classified as CriticalRisk.
func (s *Scorecard) Critical() []models.Product {
	var out []models.Product
	for _, row := range s.Rows {
		if row.Tier == models.TierCriticalRisk {
			out = append(out, row.Product)
		}
	}
	return out
}
