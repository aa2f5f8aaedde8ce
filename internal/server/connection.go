package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stockpile/internal/network"
	"github.com/gravitas-games/stockpile/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID string

	// WebSocket connection
	ws *websocket.Conn

	// Server reference
	server *Server

	// Player information from the validated token
	player *models.Player

	// Buffered channel for outbound messages
	send chan []byte

	// done is closed once by Close; senders and the write pump watch it
	done      chan struct{}
	closeOnce sync.Once

	joined bool
	log    *logrus.Entry
}

// NewConnection creates a connection for an authenticated player
func NewConnection(ws *websocket.Conn, server *Server, player *models.Player) *Connection {
	id := uuid.NewString()
	return &Connection{
		ID:     id,
		ws:     ws,
		server: server,
		player: player,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
		log: server.log.WithFields(logrus.Fields{
			"conn":     id,
			"player":   player.ID,
			"username": player.Username,
		}),
	}
}

// Handle manages the connection lifecycle
func (c *Connection) Handle() {
	// Set up connection parameters
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Start read and write pumps
	go c.writePump()
	c.readPump() // Blocking
}

// readPump pumps messages from the WebSocket connection to the server.
// Commands of one connection run in arrival order.
func (c *Connection) readPump() {
	defer func() {
		c.handleLeave()
		c.Close()
	}()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WebSocket read error")
			}
			break
		}

		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.log.WithError(err).Debug("Failed to parse client message")
			c.SendError("", codeInvalidMessage, "Failed to parse message")
			continue
		}

		c.handleMessage(&clientMsg)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Warn("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-c.server.ctx.Done():
			// Server shutting down
			return
		}
	}
}

// handleMessage routes messages to appropriate handlers
func (c *Connection) handleMessage(msg *network.ClientMessage) {
	c.log.WithFields(logrus.Fields{"type": msg.Type, "id": msg.ID}).Debug("Received message")

	switch msg.Type {
	case network.MsgTypeJoin:
		c.handleJoin(msg.ID)
	case network.MsgTypeLeave:
		c.handleLeave()
	case network.MsgTypePing:
		c.handlePing(msg.ID)
	case network.MsgTypeCatalog:
		c.handleCatalog(msg.ID)
	case network.MsgTypeInventoryGet:
		c.handleInventoryGet(msg.ID)
	case network.MsgTypeInventoryAdd:
		c.handleInventoryAdd(msg.ID, msg.Payload)
	case network.MsgTypeInventoryRemove:
		c.handleInventoryRemove(msg.ID, msg.Payload)
	case network.MsgTypeInventoryConsume:
		c.handleInventoryConsume(msg.ID, msg.Payload)
	case network.MsgTypeInventorySplit:
		c.handleInventorySplit(msg.ID, msg.Payload)
	case network.MsgTypeInventoryCombine:
		c.handleInventoryCombine(msg.ID, msg.Payload)
	case network.MsgTypeInventoryDrop:
		c.handleInventoryDrop(msg.ID, msg.Payload)
	case network.MsgTypeInventoryMove:
		c.handleInventoryMove(msg.ID, msg.Payload)
	case network.MsgTypeItemData:
		c.handleItemData(msg.ID, msg.Payload)
	default:
		c.log.WithField("type", msg.Type).Debug("Unknown message type")
		c.SendError(msg.ID, codeUnknownType, "Unknown message type")
	}
}

// handleJoin handles player join requests
func (c *Connection) handleJoin(reqID string) {
	session := c.server.session

	c.player.Connected = true
	c.player.ConnectedAt = time.Now()
	c.player.SessionID = session.ID

	if _, rejoining := session.GetPlayer(c.player.ID); rejoining {
		c.log.Info("Player rejoining from a new connection")
	}
	if err := session.AddPlayer(c.player, c); err != nil {
		c.log.WithError(err).Warn("Failed to add player to session")
		c.SendError(reqID, errorCode(err), err.Error())
		return
	}
	c.joined = true

	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeWelcome,
		ID:   reqID,
		Payload: network.WelcomePayload{
			PlayerID:      c.player.ID,
			Username:      c.player.Username,
			SessionID:     session.ID,
			ConnectionID:  c.ID,
			SessionStatus: session.GetStatus(),
		},
	})
}

// handleLeave handles player leave requests. The player's stash is kept.
func (c *Connection) handleLeave() {
	if !c.joined {
		return
	}
	c.joined = false
	c.player.Connected = false
	c.server.session.RemovePlayer(c.player.ID, c)
}

// handlePing handles ping requests
func (c *Connection) handlePing(reqID string) {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypePong,
		ID:      reqID,
		Payload: map[string]interface{}{"timestamp": time.Now().Unix()},
	})
}

// SendMessage queues a message for the client. Messages are dropped once
// the connection is closed or its buffer is full.
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.WithError(err).Error("Failed to marshal message")
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.log.Warn("Send buffer full, dropping message")
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(reqID, code, message string) {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeError,
		ID:   reqID,
		Payload: network.ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// Close stops the write pump, which closes the socket and ends the read
// loop. It is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
