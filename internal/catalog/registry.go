// Package catalog resolves immutable item definitions by type and version.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gravitas-games/stockpile/pkg/models"
)

// Catalog is the lookup the inventory engine consults. Implementations must
// treat an unknown type and an unknown version the same way.
type Catalog interface {
	Resolve(id models.ItemID, version int) (models.ItemDefinition, bool)
}

type key struct {
	id      models.ItemID
	version int
}

// Registry stores item definitions keyed by (ID, Version).
type Registry struct {
	mu    sync.RWMutex
	items map[key]models.ItemDefinition
}

// NewRegistry constructs a registry and optionally seeds it with definitions.
// Invalid seed entries are skipped.
func NewRegistry(defs ...models.ItemDefinition) *Registry {
	r := &Registry{items: make(map[key]models.ItemDefinition, len(defs))}
	for _, d := range defs {
		_ = r.Register(d) // ignore invalid entries during seed
	}
	return r
}

// Register inserts or replaces a definition.
func (r *Registry) Register(def models.ItemDefinition) error {
	if err := validate(def); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = make(map[key]models.ItemDefinition)
	}
	r.items[key{def.ID, def.Version}] = copyDefinition(def)
	return nil
}

func validate(def models.ItemDefinition) error {
	if def.ID == "" {
		return errors.New("catalog: item definition missing id")
	}
	if def.Version < 0 {
		return fmt.Errorf("catalog: %s: version must not be negative", def.ID)
	}
	if def.MaxStack != nil && *def.MaxStack <= 0 {
		return fmt.Errorf("catalog: %s: max_stack must be positive", def.ID)
	}
	if def.WeightPerUnit != nil && *def.WeightPerUnit < 0 {
		return fmt.Errorf("catalog: %s: weight must not be negative", def.ID)
	}
	return nil
}

// Resolve returns the definition for the provided type and version.
func (r *Registry) Resolve(id models.ItemID, version int) (models.ItemDefinition, bool) {
	if r == nil {
		return models.ItemDefinition{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.items[key{id, version}]
	if !ok {
		return models.ItemDefinition{}, false
	}
	return copyDefinition(def), true
}

// Versions lists every registered version of an item type in ascending order.
func (r *Registry) Versions(id models.ItemID) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []int
	for k := range r.items {
		if k.id == id {
			out = append(out, k.version)
		}
	}
	sort.Ints(out)
	return out
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Export copies registry contents into a slice sorted by ID then version,
// suitable for sending to clients.
func (r *Registry) Export() []models.ItemDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.items) == 0 {
		return nil
	}
	out := make([]models.ItemDefinition, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, copyDefinition(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Version < out[j].Version
	})
	return out
}

// copyDefinition detaches the optional pointer fields so callers cannot
// reach into registry state.
func copyDefinition(d models.ItemDefinition) models.ItemDefinition {
	if d.WeightPerUnit != nil {
		w := *d.WeightPerUnit
		d.WeightPerUnit = &w
	}
	if d.MaxStack != nil {
		m := *d.MaxStack
		d.MaxStack = &m
	}
	return d
}
