package models

// ItemID identifies an item type in the catalog. The engine does not
// interpret this value beyond equality.
type ItemID string

// ItemDefinition is an immutable catalog entry identified by (ID, Version).
type ItemDefinition struct {
	ID          ItemID `json:"id" yaml:"id"`
	Version     int    `json:"version" yaml:"version"`
	Name        string `json:"name,omitempty" yaml:"name"`
	Category    string `json:"category,omitempty" yaml:"category"`
	Description string `json:"description,omitempty" yaml:"description"`

	// WeightPerUnit is nil when the item has no weight.
	WeightPerUnit *float64 `json:"weightPerUnit,omitempty" yaml:"weight"`
	// MaxStack is nil when stacks are unbounded.
	MaxStack  *int `json:"maxStack,omitempty" yaml:"max_stack"`
	Stackable bool `json:"stackable" yaml:"stackable"`
}

// Matches reports whether the definition describes the given type and version.
func (d ItemDefinition) Matches(id ItemID, version int) bool {
	return d.ID == id && d.Version == version
}

// StoredItem is one entry of a collection. Values are treated as snapshots:
// every engine operation returns new items instead of changing these.
type StoredItem struct {
	ID       ItemID `json:"id"`
	Version  int    `json:"version"`
	Slot     int    `json:"slot"`
	Quantity int    `json:"quantity"`
	// TotalWeight caches Quantity x WeightPerUnit. Nil when the definition
	// carries no weight.
	TotalWeight *float64       `json:"totalWeight,omitempty"`
	IsEquipped  bool           `json:"isEquipped,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// SameType reports whether two items share type and version.
func (s StoredItem) SameType(o StoredItem) bool {
	return s.ID == o.ID && s.Version == o.Version
}

// Clone returns a deep copy of the item. Nested maps and slices inside Data
// are copied as well.
func (s StoredItem) Clone() StoredItem {
	out := s
	if s.TotalWeight != nil {
		w := *s.TotalWeight
		out.TotalWeight = &w
	}
	out.Data = CloneData(s.Data)
	return out
}

// CloneData deep copies an item payload.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneData(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Collection is an ordered set of stored items sharing one capacity.
// Slots are unique within a collection.
type Collection []StoredItem

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, it := range c {
		out[i] = it.Clone()
	}
	return out
}

// IndexOfSlot returns the index of the entry at slot, or -1.
func (c Collection) IndexOfSlot(slot int) int {
	for i := range c {
		if c[i].Slot == slot {
			return i
		}
	}
	return -1
}

// Quantity sums the quantity of every entry.
func (c Collection) Quantity() int {
	total := 0
	for _, it := range c {
		total += it.Quantity
	}
	return total
}
