package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredict(t *testing.T) {
	tests := []struct {
		name     string
		category string
		stock    int
		want     int
	}{
		{"electronics empty shelf gets uplift", "electronics", 0, 1725},
		{"apparel overstock gets cut", "apparel", 10000, 640},
		{"consumables low stock", "consumables", 100, 2530},
		{"consumables normal stock", "consumables", 1000, 2200},
		{"category match ignores case", "ElEcTrOnIcS", 1000, 1500},
		{"unknown category uses default", "furniture", 300, 500},
		{"absent category uses default", "", 99, 575},
		{"default overstock", "", 751, 400},
		{"exactly 1.5x base is not overstock", "apparel", 1200, 800},
		{"exactly 0.2x base is not understock", "electronics", 300, 1500},
		{"negative stock counts as understock", "apparel", -5, 920},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Predict(tt.category, tt.stock))
		})
	}
}

func TestPredictDeterministicAndFloored(t *testing.T) {
	categories := []string{"electronics", "apparel", "consumables", "unknown", ""}

	for _, category := range categories {
		for stock := 0; stock <= 5000; stock += 7 {
			first := Predict(category, stock)
			assert.Equal(t, first, Predict(category, stock))
			assert.GreaterOrEqual(t, first, MinPredictedDemand)
		}
	}
}

func TestBaseDemand(t *testing.T) {
	assert.Equal(t, 1500, BaseDemand("electronics"))
	assert.Equal(t, 800, BaseDemand(" Apparel "))
	assert.Equal(t, 2200, BaseDemand("CONSUMABLES"))
	assert.Equal(t, 500, BaseDemand("default"))
}

func TestCategoryKey(t *testing.T) {
	assert.Equal(t, "electronics", CategoryKey("  Electronics "))
	assert.Equal(t, "consumables", CategoryKey("CONSUMABLES"))
	assert.Equal(t, DefaultCategory, CategoryKey("Garden Furniture"))
	assert.Equal(t, DefaultCategory, CategoryKey(""))
	assert.Equal(t, DefaultCategory, CategoryKey("default"))
}
