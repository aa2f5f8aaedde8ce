package server

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stockpile/internal/config"
	"github.com/gravitas-games/stockpile/internal/network"
	"github.com/gravitas-games/stockpile/pkg/models"
)

// ErrSessionFull is returned when a join would exceed MaxPlayers.
var ErrSessionFull = errors.New("session is full")

// Session tracks the players currently joined to this server
type Session struct {
	ID        string
	CreatedAt time.Time

	// Player management
	players     map[string]*models.Player // playerID -> Player
	connections map[string]*Connection    // playerID -> Connection
	mu          sync.RWMutex

	status network.SessionStatus
	log    *logrus.Entry
}

// NewSession creates a new session
func NewSession(id string, cfg *config.Config, logger *logrus.Logger) *Session {
	entry := logger.WithField("session", id)
	entry.WithField("max_players", cfg.Session.MaxPlayers).Info("Creating session")

	return &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		players:     make(map[string]*models.Player),
		connections: make(map[string]*Connection),
		log:         entry,
		status: network.SessionStatus{
			State:      "running",
			MaxPlayers: cfg.Session.MaxPlayers,
		},
	}
}

// AddPlayer adds a player to the session. A player joining again from a
// new connection replaces the old connection.
func (s *Session) AddPlayer(player *models.Player, conn *Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.players[player.ID]; !exists && s.status.MaxPlayers > 0 && len(s.players) >= s.status.MaxPlayers {
		return ErrSessionFull
	}

	s.players[player.ID] = player
	s.connections[player.ID] = conn
	s.status.PlayerCount = len(s.players)

	s.log.WithFields(logrus.Fields{
		"player":   player.ID,
		"username": player.Username,
	}).Info("Player joined session")
	return nil
}

// RemovePlayer removes a player from the session if conn is still the
// player's current connection.
func (s *Session) RemovePlayer(playerID string, conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.connections[playerID]; !ok || current != conn {
		return
	}
	if player, exists := s.players[playerID]; exists {
		s.log.WithFields(logrus.Fields{
			"player":   playerID,
			"username": player.Username,
		}).Info("Player left session")
		delete(s.players, playerID)
		delete(s.connections, playerID)
		s.status.PlayerCount = len(s.players)
	}
}

// GetPlayer retrieves a player by ID
func (s *Session) GetPlayer(playerID string) (*models.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, exists := s.players[playerID]
	return player, exists
}

// GetStatus returns the current session status
func (s *Session) GetStatus() network.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := s.status
	status.Uptime = int64(time.Since(s.CreatedAt).Seconds())
	return status
}
