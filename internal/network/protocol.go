package network

import (
	"encoding/json"

	"github.com/gravitas-games/stockpile/pkg/models"
)

// Message types - Client → Server
const (
	MsgTypeJoin             = "join"
	MsgTypeLeave            = "leave"
	MsgTypePing             = "ping"
	MsgTypeCatalog          = "catalog_get"
	MsgTypeInventoryGet     = "inventory_get"
	MsgTypeInventoryAdd     = "inventory_add"
	MsgTypeInventoryRemove  = "inventory_remove"
	MsgTypeInventoryConsume = "inventory_consume"
	MsgTypeInventorySplit   = "inventory_split"
	MsgTypeInventoryCombine = "inventory_combine"
	MsgTypeInventoryDrop    = "inventory_drop"
	MsgTypeInventoryMove    = "inventory_move"
	MsgTypeItemData         = "item_data"
)

// Message types - Server → Client
const (
	MsgTypeWelcome        = "welcome"
	MsgTypeCatalogState   = "catalog"
	MsgTypeInventoryState = "inventory_state"
	MsgTypeError          = "error"
	MsgTypePong           = "pong"
)

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type string `json:"type"`
	// ID is echoed back on the reply so clients can match responses.
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload"`
}

// --- Client Message Payloads ---

// AddPayload spawns items into a container.
type AddPayload struct {
	Container string         `json:"container"`
	Item      models.ItemID  `json:"item"`
	Version   int            `json:"version"`
	Quantity  int            `json:"quantity"`
	Data      map[string]any `json:"data,omitempty"`
}

// RemovePayload drains a quantity of one item type from a container.
type RemovePayload struct {
	Container string        `json:"container"`
	Item      models.ItemID `json:"item"`
	Version   int           `json:"version"`
	Quantity  int           `json:"quantity"`
}

// ConsumePayload uses up part of the stack at one slot. Amount may be
// fractional; it is floored.
type ConsumePayload struct {
	Container string  `json:"container"`
	Slot      int     `json:"slot"`
	Amount    float64 `json:"amount"`
}

// SplitPayload moves Count units from Slot into a new stack.
type SplitPayload struct {
	Container string `json:"container"`
	Slot      int    `json:"slot"`
	Count     int    `json:"count"`
}

// CombinePayload stacks the item at From onto the item at To.
type CombinePayload struct {
	Container string `json:"container"`
	From      int    `json:"from"`
	To        int    `json:"to"`
}

// DropPayload discards whatever occupies Slot.
type DropPayload struct {
	Container string `json:"container"`
	Slot      int    `json:"slot"`
}

// MovePayload moves the item at Slot of From into container To.
type MovePayload struct {
	From string `json:"from"`
	Slot int    `json:"slot"`
	To   string `json:"to"`
}

// Item data modes.
const (
	DataModeUpsert = "upsert"
	DataModeSet    = "set"
	DataModeClear  = "clear"
)

// ItemDataPayload edits the opaque payload of the item at Slot.
type ItemDataPayload struct {
	Container string         `json:"container"`
	Slot      int            `json:"slot"`
	Mode      string         `json:"mode"`
	Data      map[string]any `json:"data,omitempty"`
}

// --- Server Message Payloads ---

// WelcomePayload is sent to client after joining
type WelcomePayload struct {
	PlayerID      string        `json:"player_id"`
	Username      string        `json:"username"`
	SessionID     string        `json:"session_id"`
	ConnectionID  string        `json:"connection_id"`
	SessionStatus SessionStatus `json:"session_status"`
}

// InventoryStatePayload carries an owner's containers after a command.
type InventoryStatePayload struct {
	Containers map[string]models.Collection `json:"containers"`
	Weight     float64                      `json:"weight"`
	Ceiling    float64                      `json:"ceiling"`
	OverWeight bool                         `json:"over_weight"`
	// Remaining is the part of a remove or consume request that could not
	// be applied.
	Remaining int `json:"remaining,omitempty"`
}

// CatalogPayload lists every item definition.
type CatalogPayload struct {
	Items []models.ItemDefinition `json:"items"`
}

// SessionStatus represents the current session state
type SessionStatus struct {
	State       string `json:"state"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	Uptime      int64  `json:"uptime"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
