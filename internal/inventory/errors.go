package inventory

import "errors"

// Engine failures. Every operation returns at most one of these and never a
// partially applied collection alongside it.
var (
	ErrCatalogMiss         = errors.New("inventory: item definition not found")
	ErrInvalidQuantity     = errors.New("inventory: quantity must be a non-negative amount within range")
	ErrNotStackable        = errors.New("inventory: item does not stack")
	ErrFull                = errors.New("inventory: no free slot")
	ErrSlotEmpty           = errors.New("inventory: slot is empty")
	ErrNoMatchingItem      = errors.New("inventory: no matching item")
	ErrInvalidSplit        = errors.New("inventory: split count out of range")
	ErrIncompatibleCombine = errors.New("inventory: slots cannot be combined")
	ErrUnknownCategory     = errors.New("inventory: unknown collection category")
	ErrInvalidCapacity     = errors.New("inventory: capacity must be positive")
)
