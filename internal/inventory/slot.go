package inventory

import (
	"slices"

	"github.com/gravitas-games/stockpile/pkg/models"
)

// FindOpenSlot returns the lowest slot index in [0, size) that no item
// occupies.
func FindOpenSlot(size int, items models.Collection) (int, bool) {
	used := make(map[int]bool, len(items))
	for _, it := range items {
		used[it.Slot] = true
	}
	for i := 0; i < size; i++ {
		if !used[i] {
			return i, true
		}
	}
	return 0, false
}

// OpenSlot is FindOpenSlot with the capacity resolved through the engine's
// size table.
func (e *Engine) OpenSlot(capacity Capacity, items models.Collection) (int, error) {
	size, err := e.sizes.Resolve(capacity)
	if err != nil {
		return 0, err
	}
	slot, ok := FindOpenSlot(size, items)
	if !ok {
		return 0, ErrFull
	}
	return slot, nil
}

// GetAtSlot returns a copy of the item at slot.
func GetAtSlot(slot int, items models.Collection) (models.StoredItem, bool) {
	idx := items.IndexOfSlot(slot)
	if idx == -1 {
		return models.StoredItem{}, false
	}
	return items[idx].Clone(), true
}

// RemoveAtSlot returns a copy of items without the entry at slot.
func RemoveAtSlot(slot int, items models.Collection) (models.Collection, error) {
	idx := items.IndexOfSlot(slot)
	if idx == -1 {
		return nil, ErrSlotEmpty
	}
	out := items.Clone()
	return slices.Delete(out, idx, idx+1), nil
}

// Split moves count units from the stack at slot into a new stack at the
// lowest free slot. The source must keep at least one unit.
func (e *Engine) Split(slot int, items models.Collection, count int, capacity Capacity) (models.Collection, error) {
	if count <= 0 {
		return nil, ErrInvalidSplit
	}
	size, err := e.sizes.Resolve(capacity)
	if err != nil {
		return nil, err
	}
	if len(items) >= size {
		return nil, ErrFull
	}
	idx := items.IndexOfSlot(slot)
	if idx == -1 {
		return nil, ErrSlotEmpty
	}
	open, ok := FindOpenSlot(size, items)
	if !ok {
		return nil, ErrFull
	}
	def, err := e.resolve(items[idx].ID, items[idx].Version)
	if err != nil {
		return nil, err
	}
	if count >= items[idx].Quantity {
		return nil, ErrInvalidSplit
	}

	out := items.Clone()
	piece := out[idx].Clone()
	piece.Slot = open
	piece.Quantity = count
	out[idx].Quantity -= count
	out[idx] = withWeight(def, out[idx])
	return append(out, withWeight(def, piece)), nil
}

// Combine moves as many units as fit from the stack at from onto the stack
// at to. A fully absorbed source is removed; otherwise it keeps the rest at
// its slot.
func (e *Engine) Combine(from, to int, items models.Collection) (models.Collection, error) {
	fi := items.IndexOfSlot(from)
	ti := items.IndexOfSlot(to)
	if fi == -1 || ti == -1 {
		return nil, ErrSlotEmpty
	}
	if fi == ti || !items[fi].SameType(items[ti]) {
		return nil, ErrIncompatibleCombine
	}
	def, err := e.resolve(items[ti].ID, items[ti].Version)
	if err != nil {
		return nil, err
	}
	if !def.Stackable {
		return nil, ErrIncompatibleCombine
	}

	out := items.Clone()
	space := roomFor(def, out[ti].Quantity)
	if out[fi].Quantity <= space {
		out[ti].Quantity += out[fi].Quantity
		out[ti] = withWeight(def, out[ti])
		return slices.Delete(out, fi, fi+1), nil
	}

	out[fi].Quantity -= space
	out[ti].Quantity += space
	out[fi] = withWeight(def, out[fi])
	out[ti] = withWeight(def, out[ti])
	return out, nil
}
