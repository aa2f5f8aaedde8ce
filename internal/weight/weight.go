// Package weight computes carried weight over item collections and decides
// whether a ceiling is exceeded.
package weight

import (
	"github.com/shopspring/decimal"

	"github.com/gravitas-games/stockpile/pkg/models"
)

// DefaultCeiling is the weight limit used when none is configured.
const DefaultCeiling = 255.0

// ForQuantity returns quantity x perUnit. All cached item weights are
// produced here so totals stay comparable.
func ForQuantity(perUnit float64, quantity int) float64 {
	return decimal.NewFromFloat(perUnit).Mul(decimal.NewFromInt(int64(quantity))).InexactFloat64()
}

// ItemWeight returns the cached weight of an item, or 0 when the item is
// equipped or has no cached weight.
func ItemWeight(item models.StoredItem) float64 {
	if item.TotalWeight == nil || item.IsEquipped {
		return 0
	}
	return *item.TotalWeight
}

// CollectionWeight sums ItemWeight over items.
func CollectionWeight(items models.Collection) float64 {
	return sum(items).InexactFloat64()
}

// Total sums the weight of several collections, e.g. worn gear plus a bag.
func Total(collections ...models.Collection) float64 {
	total := decimal.Zero
	for _, c := range collections {
		total = total.Add(sum(c))
	}
	return total.InexactFloat64()
}

func sum(items models.Collection) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		w := ItemWeight(it)
		if w == 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(w))
	}
	return total
}

// Policy is the weight-enforcement switch.
type Policy struct {
	Enabled bool    `yaml:"enabled" env:"ENABLED"`
	Ceiling float64 `yaml:"ceiling" env:"CEILING"`
}

// DefaultPolicy enforces DefaultCeiling.
func DefaultPolicy() Policy {
	return Policy{Enabled: true, Ceiling: DefaultCeiling}
}

// Exceeded reports whether the combined weight of collections is above the
// ceiling. It is always false while enforcement is disabled.
func (p Policy) Exceeded(collections ...models.Collection) bool {
	if !p.Enabled {
		return false
	}
	return Total(collections...) > p.Ceiling
}
