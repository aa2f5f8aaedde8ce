// Package stash keeps each owner's item collections in memory and applies
// inventory operations to them one at a time per owner.
package stash

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gravitas-games/stockpile/internal/inventory"
	"github.com/gravitas-games/stockpile/internal/weight"
	"github.com/gravitas-games/stockpile/pkg/models"
)

var (
	ErrUnknownContainer = errors.New("stash: unknown container")
	ErrOverWeight       = errors.New("stash: weight limit exceeded")
)

// Mutation computes a new collection from the current one. It receives a
// private copy and the container's capacity.
type Mutation func(items models.Collection, capacity inventory.Capacity) (models.Collection, error)

// Snapshot is a copy of one owner's containers with derived weight.
type Snapshot struct {
	Owner      string                                    `json:"owner"`
	Containers map[inventory.Category]models.Collection `json:"containers"`
	Weight     float64                                   `json:"weight"`
	Ceiling    float64                                   `json:"ceiling"`
	OverWeight bool                                      `json:"overWeight"`
}

type holding struct {
	mu          sync.Mutex
	collections map[inventory.Category]models.Collection
}

// Stash maps owners to their containers. Mutations of the same owner are
// serialized; different owners proceed in parallel.
type Stash struct {
	engine     *inventory.Engine
	policy     weight.Policy
	containers []inventory.Category

	mu     sync.Mutex
	owners map[string]*holding
}

// New creates a stash whose owners each hold the given containers.
func New(engine *inventory.Engine, policy weight.Policy, containers ...inventory.Category) *Stash {
	return &Stash{
		engine:     engine,
		policy:     policy,
		containers: append([]inventory.Category(nil), containers...),
		owners:     make(map[string]*holding),
	}
}

// Engine returns the engine mutations should call.
func (s *Stash) Engine() *inventory.Engine { return s.engine }

// Containers lists the container names every owner holds.
func (s *Stash) Containers() []inventory.Category {
	return append([]inventory.Category(nil), s.containers...)
}

func (s *Stash) holding(owner string) *holding {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.owners[owner]
	if !ok {
		h = &holding{collections: make(map[inventory.Category]models.Collection, len(s.containers))}
		for _, c := range s.containers {
			h.collections[c] = models.Collection{}
		}
		s.owners[owner] = h
	}
	return h
}

// Snapshot returns a copy of an owner's containers. Unknown owners get
// empty containers.
func (s *Stash) Snapshot(owner string) Snapshot {
	h := s.holding(owner)
	h.mu.Lock()
	defer h.mu.Unlock()
	return s.snapshotLocked(owner, h)
}

func (s *Stash) snapshotLocked(owner string, h *holding) Snapshot {
	snap := Snapshot{
		Owner:      owner,
		Containers: make(map[inventory.Category]models.Collection, len(h.collections)),
		Ceiling:    s.policy.Ceiling,
	}
	all := make([]models.Collection, 0, len(h.collections))
	for c, items := range h.collections {
		snap.Containers[c] = items.Clone()
		all = append(all, items)
	}
	snap.Weight = weight.Total(all...)
	snap.OverWeight = s.policy.Exceeded(all...)
	return snap
}

// Update applies m to one container of owner and commits the result when m
// succeeds and the owner stays within the weight policy. A mutation that
// leaves the owner over the limit is still accepted when it does not add
// weight, so items can always be dropped.
func (s *Stash) Update(owner string, container inventory.Category, m Mutation) (Snapshot, error) {
	h := s.holding(owner)
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.collections[container]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownContainer, container)
	}
	next, err := m(current.Clone(), inventory.Named(container))
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.checkWeight(h, map[inventory.Category]models.Collection{container: next}); err != nil {
		return Snapshot{}, err
	}

	h.collections[container] = next
	return s.snapshotLocked(owner, h), nil
}

// Transfer moves the item at slot in one container into another container,
// stacking onto matching stacks there. Both containers change or neither.
func (s *Stash) Transfer(owner string, from inventory.Category, slot int, to inventory.Category) (Snapshot, error) {
	h := s.holding(owner)
	h.mu.Lock()
	defer h.mu.Unlock()

	src, ok := h.collections[from]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownContainer, from)
	}
	dst, ok := h.collections[to]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownContainer, to)
	}

	item, ok := inventory.GetAtSlot(slot, src)
	if !ok {
		return Snapshot{}, inventory.ErrSlotEmpty
	}
	nextSrc, err := inventory.RemoveAtSlot(slot, src)
	if err != nil {
		return Snapshot{}, err
	}
	var nextDst models.Collection
	if from == to {
		nextDst, err = s.engine.Add(item, nextSrc, inventory.Named(to))
		nextSrc = nextDst
	} else {
		nextDst, err = s.engine.Add(item, dst, inventory.Named(to))
	}
	if err != nil {
		return Snapshot{}, err
	}

	changes := map[inventory.Category]models.Collection{from: nextSrc, to: nextDst}
	if err := s.checkWeight(h, changes); err != nil {
		return Snapshot{}, err
	}
	for c, items := range changes {
		h.collections[c] = items
	}
	return s.snapshotLocked(owner, h), nil
}

// checkWeight rejects changes that add weight while the result is over the
// policy ceiling.
func (s *Stash) checkWeight(h *holding, changes map[inventory.Category]models.Collection) error {
	before := make([]models.Collection, 0, len(h.collections))
	after := make([]models.Collection, 0, len(h.collections))
	for c, items := range h.collections {
		before = append(before, items)
		if next, ok := changes[c]; ok {
			after = append(after, next)
			continue
		}
		after = append(after, items)
	}
	if s.policy.Exceeded(after...) && weight.Total(after...) > weight.Total(before...) {
		return ErrOverWeight
	}
	return nil
}

// Forget drops an owner's containers.
func (s *Stash) Forget(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.owners, owner)
}

// Owners lists owners with containers, sorted.
func (s *Stash) Owners() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.owners))
	for o := range s.owners {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}
