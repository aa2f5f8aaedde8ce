package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gravitas-games/stockpile/internal/config"
	"github.com/gravitas-games/stockpile/internal/inventory"
	"github.com/gravitas-games/stockpile/internal/network"
	"github.com/gravitas-games/stockpile/internal/stash"
	"github.com/gravitas-games/stockpile/pkg/models"
)

// Error codes sent in ErrorPayload.Code.
const (
	codeInvalidMessage   = "invalid_message"
	codeInvalidPayload   = "invalid_payload"
	codeUnknownType      = "unknown_message_type"
	codeNotJoined        = "not_joined"
	codeForbidden        = "forbidden"
	codeCatalogMiss      = "catalog_miss"
	codeInvalidQuantity  = "invalid_quantity"
	codeNotStackable     = "not_stackable"
	codeFull             = "full"
	codeSlotEmpty        = "slot_empty"
	codeNoMatchingItem   = "no_matching_item"
	codeInvalidSplit     = "invalid_split"
	codeIncompatible     = "incompatible_combine"
	codeUnknownCategory  = "unknown_category"
	codeUnknownContainer = "unknown_container"
	codeOverWeight       = "over_weight"
	codeInvalidDataMode  = "invalid_data_mode"
	codeSessionFull      = "session_full"
	codeInternal         = "internal"
)

var errInvalidDataMode = errors.New("unknown item data mode")

// errorCode maps an engine or stash error to its wire code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, inventory.ErrCatalogMiss):
		return codeCatalogMiss
	case errors.Is(err, inventory.ErrInvalidQuantity):
		return codeInvalidQuantity
	case errors.Is(err, inventory.ErrNotStackable):
		return codeNotStackable
	case errors.Is(err, inventory.ErrFull):
		return codeFull
	case errors.Is(err, inventory.ErrSlotEmpty):
		return codeSlotEmpty
	case errors.Is(err, inventory.ErrNoMatchingItem):
		return codeNoMatchingItem
	case errors.Is(err, inventory.ErrInvalidSplit):
		return codeInvalidSplit
	case errors.Is(err, inventory.ErrIncompatibleCombine):
		return codeIncompatible
	case errors.Is(err, inventory.ErrUnknownCategory):
		return codeUnknownCategory
	case errors.Is(err, stash.ErrUnknownContainer):
		return codeUnknownContainer
	case errors.Is(err, stash.ErrOverWeight):
		return codeOverWeight
	case errors.Is(err, errInvalidDataMode):
		return codeInvalidDataMode
	case errors.Is(err, ErrSessionFull):
		return codeSessionFull
	}
	return codeInternal
}

func decodePayload[T any](c *Connection, reqID string, raw json.RawMessage) (T, bool) {
	var p T
	if err := json.Unmarshal(raw, &p); err != nil {
		c.SendError(reqID, codeInvalidPayload, err.Error())
		return p, false
	}
	return p, true
}

// allowed checks that the player joined and holds perm.
func (c *Connection) allowed(reqID string, perm int64) bool {
	if !c.joined {
		c.SendError(reqID, codeNotJoined, "Join before sending inventory commands")
		return false
	}
	if perm != 0 && !c.player.Can(perm) {
		c.SendError(reqID, codeForbidden, "Missing permission")
		return false
	}
	return true
}

func (c *Connection) fail(reqID, command string, data any, err error) {
	code := errorCode(err)
	if code == codeInternal {
		config.LogError(c.log, "server", command, data, err)
	} else {
		c.log.WithError(err).WithField("command", command).Debug("Command rejected")
	}
	c.SendError(reqID, code, err.Error())
}

func (c *Connection) sendState(reqID string, snap stash.Snapshot, remaining int) {
	containers := make(map[string]models.Collection, len(snap.Containers))
	for name, items := range snap.Containers {
		containers[string(name)] = items
	}
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeInventoryState,
		ID:   reqID,
		Payload: network.InventoryStatePayload{
			Containers: containers,
			Weight:     snap.Weight,
			Ceiling:    snap.Ceiling,
			OverWeight: snap.OverWeight,
			Remaining:  remaining,
		},
	})
}

// update runs m against one container of the player's stash and replies
// with the resulting state.
func (c *Connection) update(reqID, command, container string, data any, m stash.Mutation, remaining *int) {
	snap, err := c.server.stash.Update(c.player.ID, inventory.Category(container), m)
	if err != nil {
		c.fail(reqID, command, data, err)
		return
	}
	left := 0
	if remaining != nil {
		left = *remaining
	}
	c.sendState(reqID, snap, left)
}

func (c *Connection) handleCatalog(reqID string) {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeCatalogState,
		ID:      reqID,
		Payload: network.CatalogPayload{Items: c.server.registry.Export()},
	})
}

func (c *Connection) handleInventoryGet(reqID string) {
	if !c.allowed(reqID, 0) {
		return
	}
	c.sendState(reqID, c.server.stash.Snapshot(c.player.ID), 0)
}

func (c *Connection) handleInventoryAdd(reqID string, raw json.RawMessage) {
	if !c.allowed(reqID, models.PermInventoryAdmin) {
		return
	}
	p, ok := decodePayload[network.AddPayload](c, reqID, raw)
	if !ok {
		return
	}
	engine := c.server.stash.Engine()
	candidate := models.StoredItem{ID: p.Item, Version: p.Version, Quantity: p.Quantity, Data: p.Data}
	c.update(reqID, "handleInventoryAdd", p.Container, p, func(items models.Collection, capacity inventory.Capacity) (models.Collection, error) {
		return engine.Add(candidate, items, capacity)
	}, nil)
}

func (c *Connection) handleInventoryRemove(reqID string, raw json.RawMessage) {
	if !c.allowed(reqID, models.PermInventoryWrite) {
		return
	}
	p, ok := decodePayload[network.RemovePayload](c, reqID, raw)
	if !ok {
		return
	}
	engine := c.server.stash.Engine()
	var remaining int
	c.update(reqID, "handleInventoryRemove", p.Container, p, func(items models.Collection, _ inventory.Capacity) (models.Collection, error) {
		out, left, err := engine.Remove(models.StoredItem{ID: p.Item, Version: p.Version, Quantity: p.Quantity}, items)
		remaining = left
		return out, err
	}, &remaining)
}

func (c *Connection) handleInventoryConsume(reqID string, raw json.RawMessage) {
	if !c.allowed(reqID, models.PermInventoryWrite) {
		return
	}
	p, ok := decodePayload[network.ConsumePayload](c, reqID, raw)
	if !ok {
		return
	}
	engine := c.server.stash.Engine()
	var remaining int
	c.update(reqID, "handleInventoryConsume", p.Container, p, func(items models.Collection, _ inventory.Capacity) (models.Collection, error) {
		idx := items.IndexOfSlot(p.Slot)
		if idx < 0 {
			return nil, inventory.ErrSlotEmpty
		}
		change, err := engine.RemoveQuantity(items[idx], p.Amount)
		if err != nil {
			return nil, err
		}
		remaining = change.Remaining
		items[idx] = change.Item
		return inventory.Compact(items), nil
	}, &remaining)
}

func (c *Connection) handleInventorySplit(reqID string, raw json.RawMessage) {
	if !c.allowed(reqID, models.PermInventoryWrite) {
		return
	}
	p, ok := decodePayload[network.SplitPayload](c, reqID, raw)
	if !ok {
		return
	}
	engine := c.server.stash.Engine()
	c.update(reqID, "handleInventorySplit", p.Container, p, func(items models.Collection, capacity inventory.Capacity) (models.Collection, error) {
		return engine.Split(p.Slot, items, p.Count, capacity)
	}, nil)
}

func (c *Connection) handleInventoryCombine(reqID string, raw json.RawMessage) {
	if !c.allowed(reqID, models.PermInventoryWrite) {
		return
	}
	p, ok := decodePayload[network.CombinePayload](c, reqID, raw)
	if !ok {
		return
	}
	engine := c.server.stash.Engine()
	c.update(reqID, "handleInventoryCombine", p.Container, p, func(items models.Collection, _ inventory.Capacity) (models.Collection, error) {
		return engine.Combine(p.From, p.To, items)
	}, nil)
}

func (c *Connection) handleInventoryDrop(reqID string, raw json.RawMessage) {
	if !c.allowed(reqID, models.PermInventoryWrite) {
		return
	}
	p, ok := decodePayload[network.DropPayload](c, reqID, raw)
	if !ok {
		return
	}
	c.update(reqID, "handleInventoryDrop", p.Container, p, func(items models.Collection, _ inventory.Capacity) (models.Collection, error) {
		return inventory.RemoveAtSlot(p.Slot, items)
	}, nil)
}

func (c *Connection) handleInventoryMove(reqID string, raw json.RawMessage) {
	if !c.allowed(reqID, models.PermInventoryWrite) {
		return
	}
	p, ok := decodePayload[network.MovePayload](c, reqID, raw)
	if !ok {
		return
	}
	snap, err := c.server.stash.Transfer(c.player.ID, inventory.Category(p.From), p.Slot, inventory.Category(p.To))
	if err != nil {
		c.fail(reqID, "handleInventoryMove", p, err)
		return
	}
	c.sendState(reqID, snap, 0)
}

func (c *Connection) handleItemData(reqID string, raw json.RawMessage) {
	if !c.allowed(reqID, models.PermInventoryWrite) {
		return
	}
	p, ok := decodePayload[network.ItemDataPayload](c, reqID, raw)
	if !ok {
		return
	}
	c.update(reqID, "handleItemData", p.Container, p, func(items models.Collection, _ inventory.Capacity) (models.Collection, error) {
		idx := items.IndexOfSlot(p.Slot)
		if idx < 0 {
			return nil, inventory.ErrSlotEmpty
		}
		switch p.Mode {
		case network.DataModeUpsert:
			items[idx] = inventory.UpsertData(items[idx], p.Data)
		case network.DataModeSet:
			items[idx] = inventory.SetData(items[idx], p.Data)
		case network.DataModeClear:
			items[idx] = inventory.ClearData(items[idx])
		default:
			return nil, fmt.Errorf("%w: %q", errInvalidDataMode, p.Mode)
		}
		return items, nil
	}, nil)
}
