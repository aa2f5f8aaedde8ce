package inventory

import (
	"slices"

	"github.com/gravitas-games/stockpile/pkg/models"
)

// Add places candidate.Quantity units into items. Partially filled stacks of
// the same type and version are topped up first in collection order, then
// new stacks are opened at the lowest free slots. The candidate's Slot is
// ignored.
//
// The call is all-or-nothing: if any unit cannot be placed, no collection is
// returned. A zero quantity returns an unchanged copy.
func (e *Engine) Add(candidate models.StoredItem, items models.Collection, capacity Capacity) (models.Collection, error) {
	if candidate.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if candidate.Quantity == 0 {
		return items.Clone(), nil
	}

	size, err := e.sizes.Resolve(capacity)
	if err != nil {
		return nil, err
	}
	def, err := e.resolve(candidate.ID, candidate.Version)
	if err != nil {
		return nil, err
	}

	out := items.Clone()
	remaining := candidate.Quantity

	// Each pass either fills a stack that had room or opens a new slot, so
	// the loop ends within len(items)+size passes.
	for remaining > 0 {
		idx := -1
		if def.Stackable && (def.MaxStack == nil || *def.MaxStack > 1) {
			idx = openStack(out, def)
		}

		if idx == -1 {
			if len(out) >= size {
				return nil, ErrFull
			}
			slot, ok := FindOpenSlot(size, out)
			if !ok {
				return nil, ErrFull
			}

			entry := candidate.Clone()
			entry.Slot = slot
			entry.Quantity = 1
			if def.Stackable {
				entry.Quantity = min(remaining, stackLimit(def))
			}
			remaining -= entry.Quantity
			out = append(out, withWeight(def, entry))
			continue
		}

		fill := min(remaining, roomFor(def, out[idx].Quantity))
		out[idx].Quantity += fill
		out[idx] = withWeight(def, out[idx])
		remaining -= fill
	}

	return out, nil
}

// openStack returns the index of the first stack of def's type with room
// left, or -1.
func openStack(items models.Collection, def models.ItemDefinition) int {
	for i, it := range items {
		if !def.Matches(it.ID, it.Version) {
			continue
		}
		if roomFor(def, it.Quantity) > 0 {
			return i
		}
	}
	return -1
}

func indexOfType(items models.Collection, id models.ItemID, version int) int {
	for i, it := range items {
		if it.ID == id && it.Version == version {
			return i
		}
	}
	return -1
}

// Remove takes candidate.Quantity units of the candidate's type and version
// out of items, draining matching stacks in collection order. Stacks that
// reach zero are deleted. The second return value is the part of the
// request that could not be removed because the collection ran out.
//
// ErrNoMatchingItem is returned only when the collection holds none of the
// type at all.
func (e *Engine) Remove(candidate models.StoredItem, items models.Collection) (models.Collection, int, error) {
	if candidate.Quantity < 0 {
		return nil, 0, ErrInvalidQuantity
	}
	if candidate.Quantity == 0 {
		return items.Clone(), 0, nil
	}

	def, err := e.resolve(candidate.ID, candidate.Version)
	if err != nil {
		return nil, 0, err
	}

	idx := indexOfType(items, candidate.ID, candidate.Version)
	if idx == -1 {
		return nil, 0, ErrNoMatchingItem
	}

	out := items.Clone()
	remaining := candidate.Quantity
	for idx != -1 && remaining > 0 {
		if out[idx].Quantity <= remaining {
			remaining -= out[idx].Quantity
			out = slices.Delete(out, idx, idx+1)
			idx = indexOfType(out, candidate.ID, candidate.Version)
			continue
		}
		out[idx].Quantity -= remaining
		out[idx] = withWeight(def, out[idx])
		remaining = 0
	}

	return out, remaining, nil
}

// Compact returns a copy of items without zero-quantity entries.
func Compact(items models.Collection) models.Collection {
	out := make(models.Collection, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		out = append(out, it.Clone())
	}
	return out
}

// Count returns the total quantity held of one type and version.
func Count(items models.Collection, id models.ItemID, version int) int {
	total := 0
	for _, it := range items {
		if it.ID == id && it.Version == version {
			total += it.Quantity
		}
	}
	return total
}
