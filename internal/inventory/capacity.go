package inventory

import (
	"fmt"
	"sync"
)

// Category names a kind of collection with a configured default size.
type Category string

const (
	CategoryInventory Category = "inventory"
	CategoryToolbar   Category = "toolbar"
	CategoryCustom    Category = "custom"
)

// DefaultSizes returns the built-in slot counts per category.
func DefaultSizes() map[Category]int {
	return map[Category]int{
		CategoryInventory: 30,
		CategoryToolbar:   4,
		CategoryCustom:    256,
	}
}

// Capacity selects the slot count of a collection: either a named category
// or an explicit number of slots. The zero value means CategoryCustom.
type Capacity struct {
	Category Category
	Slots    int
}

// Named returns a capacity that resolves through the configured sizes.
func Named(c Category) Capacity { return Capacity{Category: c} }

// Slots returns an explicit capacity that overrides any category default.
func Slots(n int) Capacity { return Capacity{Slots: n} }

func (c Capacity) String() string {
	if c.Category != "" {
		return string(c.Category)
	}
	if c.Slots == 0 {
		return string(CategoryCustom)
	}
	return fmt.Sprintf("%d slots", c.Slots)
}

// Sizes maps categories to slot counts. It is set up at process start and
// may be changed later; the last Set wins. Reconfiguring while operations
// are in flight gives those operations either the old or the new size.
type Sizes struct {
	mu    sync.RWMutex
	sizes map[Category]int
}

// NewSizes builds the defaults and applies overrides on top.
func NewSizes(overrides map[Category]int) (*Sizes, error) {
	s := &Sizes{sizes: DefaultSizes()}
	for c, n := range overrides {
		if err := s.Set(c, n); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Set assigns the slot count of a category, adding it when new.
func (s *Sizes) Set(c Category, n int) error {
	if c == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownCategory)
	}
	if n <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidCapacity, c, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sizes == nil {
		s.sizes = DefaultSizes()
	}
	s.sizes[c] = n
	return nil
}

// Get returns the slot count of a category.
func (s *Sizes) Get(c Category) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sizes == nil {
		n, ok := DefaultSizes()[c]
		return n, ok
	}
	n, ok := s.sizes[c]
	return n, ok
}

// Snapshot copies the current mapping.
func (s *Sizes) Snapshot() map[Category]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sizes == nil {
		return DefaultSizes()
	}
	out := make(map[Category]int, len(s.sizes))
	for c, n := range s.sizes {
		out[c] = n
	}
	return out
}

// Resolve turns a capacity into a slot count. Unknown categories are
// rejected rather than falling back to a default.
func (s *Sizes) Resolve(c Capacity) (int, error) {
	if c.Category == "" && c.Slots == 0 {
		c.Category = CategoryCustom
	}
	if c.Category != "" {
		n, ok := s.Get(c.Category)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownCategory, c.Category)
		}
		return n, nil
	}
	if c.Slots < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCapacity, c.Slots)
	}
	return c.Slots, nil
}
