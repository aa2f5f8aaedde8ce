package catalog

import "github.com/gravitas-games/stockpile/pkg/models"

func weightOf(v float64) *float64 { return &v }
func stackOf(n int) *int { return &n }

// Sample returns a small survival-flavored catalog used by the demo
// configuration and tests.
func Sample() *Registry {
	return NewRegistry(
		models.ItemDefinition{ID: "bandage", Name: "Bandage", Category: "medical", Stackable: true, MaxStack: stackOf(20), WeightPerUnit: weightOf(0.1)},
		models.ItemDefinition{ID: "ammo-9mm", Name: "9mm Rounds", Category: "ammo", Stackable: true, MaxStack: stackOf(120), WeightPerUnit: weightOf(0.01)},
		models.ItemDefinition{ID: "water", Name: "Water Bottle", Category: "food", Stackable: true, MaxStack: stackOf(5), WeightPerUnit: weightOf(0.5)},
		models.ItemDefinition{ID: "water", Version: 1, Name: "Purified Water", Category: "food", Stackable: true, MaxStack: stackOf(5), WeightPerUnit: weightOf(0.5)},
		models.ItemDefinition{ID: "scrap", Name: "Scrap Metal", Category: "resource", Stackable: true, WeightPerUnit: weightOf(1)},
		models.ItemDefinition{ID: "pistol", Name: "Pistol", Category: "weapon", WeightPerUnit: weightOf(1.2)},
		models.ItemDefinition{ID: "keycard", Name: "Keycard", Category: "key", Stackable: true, MaxStack: stackOf(1)},
	)
}
