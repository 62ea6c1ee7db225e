package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scm-analytics/internal/models"
)

func TestBuildScorecard(t *testing.T) {
	products := []models.Product{
		{ID: 1, Name: "Rice", StockLevel: 100, PredictedDemand: intPtr(2530), ReorderPoint: 200,
			UnitPrice: decimal.RequireFromString("1.50")},
		{ID: 2, Name: "Phone", StockLevel: 400, PredictedDemand: intPtr(1500), ReorderPoint: 50,
			UnitPrice: decimal.RequireFromString("299.99")},
		{ID: 3, Name: "Shirt", StockLevel: 900, PredictedDemand: intPtr(800), ReorderPoint: 100,
			UnitPrice: decimal.RequireFromString("10")},
		{ID: 4, Name: "New item", StockLevel: 5, ReorderPoint: 5},
	}

	sc := BuildScorecard(products, RatioBased{Bands: DefaultBands})

	require.Len(t, sc.Rows, 4)
	assert.Equal(t, []int64{1, 2, 3, 4}, []int64{sc.Rows[0].ID, sc.Rows[1].ID, sc.Rows[2].ID, sc.Rows[3].ID})
	assert.Equal(t, models.TierCriticalRisk, sc.Rows[0].Tier)
	assert.Equal(t, "Critical Risk", sc.Rows[0].TierLabel)
	assert.Equal(t, models.TierModerateRisk, sc.Rows[1].Tier)
	assert.Equal(t, models.TierGoodPerformance, sc.Rows[2].Tier)
	assert.Equal(t, models.TierNoForecast, sc.Rows[3].Tier)

	assert.Equal(t, 4, sc.TotalProducts)
	assert.Equal(t, 1, sc.CriticalCount)
	assert.InDelta(t, float64(2530+1500+800)/4, sc.AvgPredictedDemand, 1e-9)
	assert.True(t, decimal.RequireFromString("129146").Equal(sc.InventoryValue), sc.InventoryValue.String())
	assert.Equal(t, 2, sc.BelowReorderPoint)

	critical := sc.Critical()
	require.Len(t, critical, 1)
	assert.Equal(t, int64(1), critical[0].ID)
}

func TestBuildScorecardSortsByDemand(t *testing.T) {
	products := []models.Product{
		{ID: 1, PredictedDemand: intPtr(500)},
		{ID: 2},
		{ID: 3, PredictedDemand: intPtr(1725)},
	}

	sc := BuildScorecard(products, RatioBased{Bands: DefaultBands})

	assert.Equal(t, int64(3), sc.Rows[0].ID)
	assert.Equal(t, int64(1), sc.Rows[1].ID)
	assert.Equal(t, int64(2), sc.Rows[2].ID)
}

func TestBuildScorecardEmpty(t *testing.T) {
	sc := BuildScorecard(nil, AbsoluteThreshold{Limit: 50})

	assert.Empty(t, sc.Rows)
	assert.Zero(t, sc.AvgPredictedDemand)
	assert.True(t, sc.InventoryValue.IsZero())
}
