package models

import "time"

// Player represents an authenticated account holding a stash
type Player struct {
	// From JWT claims
	ID          string `json:"id"`          // Converted from int64 user_id
	Username    string `json:"username"`    // JWT claim
	Permissions int64  `json:"permissions"` // JWT claim: bitwise permission flags
	Activated   int64  `json:"activated"`   // JWT claim: activation timestamp or ban status

	// Connection state
	Connected   bool      `json:"connected"`
	ConnectedAt time.Time `json:"connected_at"`

	// SessionID is the session the player joined, empty until join.
	SessionID string `json:"session_id,omitempty"`
}

// Permission flags carried in the permissions claim.
const (
	// PermInventoryWrite allows mutating commands against the player's stash.
	PermInventoryWrite int64 = 1 << 0
	// PermInventoryAdmin allows spawning items from nothing (inventory_add).
	PermInventoryAdmin int64 = 1 << 1
)

// IsActive checks if the player account is activated and not banned
func (p *Player) IsActive() bool {
	// activated > 0 means activated
	// activated == 0 means not activated
	// activated == -1 means banned
	return p.Activated > 0
}

// IsBanned checks if the player is banned
func (p *Player) IsBanned() bool {
	return p.Activated == -1
}

// Can reports whether every bit of perm is granted.
func (p *Player) Can(perm int64) bool {
	return p.Permissions&perm == perm
}
