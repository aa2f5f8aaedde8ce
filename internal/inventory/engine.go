// Package inventory implements stack-aware operations over slot-indexed item
// collections. Every operation takes a collection snapshot and returns a new
// one; inputs are never modified. The package holds no state between calls
// and does no locking: callers serialize mutations of the same collection.
package inventory

import (
	"math"

	"github.com/gravitas-games/stockpile/internal/catalog"
	"github.com/gravitas-games/stockpile/internal/weight"
	"github.com/gravitas-games/stockpile/pkg/models"
)

// Option configures engine construction.
type Option func(*Engine)

// WithSizes attaches the category size table used to resolve named
// capacities.
func WithSizes(s *Sizes) Option {
	return func(e *Engine) {
		e.sizes = s
	}
}

// Engine applies inventory operations against definitions resolved from a
// catalog. Definitions are looked up on every call and never cached.
type Engine struct {
	catalog catalog.Catalog
	sizes   *Sizes
}

// New creates an engine backed by cat. Without WithSizes the built-in
// category sizes are used.
func New(cat catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: cat}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.sizes == nil {
		e.sizes = &Sizes{sizes: DefaultSizes()}
	}
	return e
}

// Sizes returns the category size table in use.
func (e *Engine) Sizes() *Sizes { return e.sizes }

func (e *Engine) resolve(id models.ItemID, version int) (models.ItemDefinition, error) {
	if e.catalog == nil {
		return models.ItemDefinition{}, ErrCatalogMiss
	}
	def, ok := e.catalog.Resolve(id, version)
	if !ok {
		return models.ItemDefinition{}, ErrCatalogMiss
	}
	return def, nil
}

// withWeight returns item with TotalWeight recomputed from def. Items whose
// definition carries no weight end up without a cached weight.
func withWeight(def models.ItemDefinition, item models.StoredItem) models.StoredItem {
	if def.WeightPerUnit == nil {
		item.TotalWeight = nil
		return item
	}
	w := weight.ForQuantity(*def.WeightPerUnit, item.Quantity)
	item.TotalWeight = &w
	return item
}

// stackLimit is the largest quantity one stack of def may hold. Stacks
// without a configured maximum are bounded by the int range.
func stackLimit(def models.ItemDefinition) int {
	if def.MaxStack == nil {
		return math.MaxInt
	}
	return *def.MaxStack
}

// roomFor reports how many more units fit on a stack of def holding qty.
func roomFor(def models.ItemDefinition, qty int) int {
	return max(stackLimit(def)-qty, 0)
}

// Direction selects whether ModifyQuantity adds or removes.
type Direction int

const (
	DirectionAdd Direction = iota
	DirectionRemove
)

// QuantityChange is the result of ModifyQuantity.
type QuantityChange struct {
	Item models.StoredItem
	// Remaining is the part of the requested amount that was not applied:
	// stack overflow when adding, shortfall when removing.
	Remaining int
}

// ModifyQuantity adds or removes amount units on a single item, clamping to
// the stack maximum or to the held quantity. Fractional amounts are floored.
// Negative, NaN and amounts beyond the int range are rejected.
func (e *Engine) ModifyQuantity(item models.StoredItem, amount float64, dir Direction) (QuantityChange, error) {
	if math.IsNaN(amount) || amount < 0 || amount >= float64(math.MaxInt) {
		return QuantityChange{}, ErrInvalidQuantity
	}
	n := int(math.Floor(amount))

	def, err := e.resolve(item.ID, item.Version)
	if err != nil {
		return QuantityChange{}, err
	}
	if dir == DirectionAdd && !def.Stackable {
		return QuantityChange{}, ErrNotStackable
	}

	remaining := 0
	switch dir {
	case DirectionRemove:
		if item.Quantity < n {
			remaining = n - item.Quantity
			n = item.Quantity
		}
	default:
		// an item already above the limit is brought back down to it and
		// the excess is reported with the unapplied amount
		limit := stackLimit(def)
		if item.Quantity > limit {
			remaining = saturatingAdd(n, item.Quantity-limit)
			n = limit - item.Quantity
		} else if room := limit - item.Quantity; n > room {
			remaining = n - room
			n = room
		}
	}

	out := item.Clone()
	if dir == DirectionRemove {
		out.Quantity -= n
	} else {
		out.Quantity += n
	}
	return QuantityChange{Item: withWeight(def, out), Remaining: remaining}, nil
}

// saturatingAdd adds two non-negative ints, stopping at math.MaxInt.
func saturatingAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// AddQuantity is ModifyQuantity with DirectionAdd.
func (e *Engine) AddQuantity(item models.StoredItem, amount float64) (QuantityChange, error) {
	return e.ModifyQuantity(item, amount, DirectionAdd)
}

// RemoveQuantity is ModifyQuantity with DirectionRemove.
func (e *Engine) RemoveQuantity(item models.StoredItem, amount float64) (QuantityChange, error) {
	return e.ModifyQuantity(item, amount, DirectionRemove)
}

// Item pairs a stored item with its catalog definition.
type Item struct {
	models.StoredItem
	Definition models.ItemDefinition `json:"definition"`
}

// Expand resolves the definition of every item in the collection.
func (e *Engine) Expand(items models.Collection) ([]Item, error) {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		def, err := e.resolve(it.ID, it.Version)
		if err != nil {
			return nil, err
		}
		out = append(out, Item{StoredItem: it.Clone(), Definition: def})
	}
	return out, nil
}
