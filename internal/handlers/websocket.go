package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cardduel-backend/internal/models"
	"cardduel-backend/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler fans engine state changes out to the players of a
// room. It implements services.Broadcaster; delivery is best-effort.
type WebSocketHandler struct {
	store store.Store
	hub   *RoomHub
}

type RoomHub struct {
	rooms      map[int64]map[int64]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	RoomID int64
	UserID int64
	Conn   *websocket.Conn
}

type Message struct {
	Type   string `json:"type"`
	RoomID int64  `json:"room_id,omitempty"`
	UserID int64  `json:"user_id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

func NewWebSocketHandler(st store.Store) *WebSocketHandler {
	hub := &RoomHub{
		rooms:      make(map[int64]map[int64]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{store: st, hub: hub}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id"})
		return
	}

	room, err := h.store.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "Room not found"})
		return
	}
	if room.Player1ID != userID && room.Player2ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a player of this room"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{RoomID: roomID, UserID: userID, Conn: conn}
	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()

		h.hub.broadcast <- &Message{
			Type:   "player_disconnected",
			RoomID: roomID,
			UserID: userID,
		}
	}()

	conn.WriteJSON(Message{Type: "connected", RoomID: roomID, UserID: userID})

	h.hub.broadcast <- &Message{
		Type:   "player_connected",
		RoomID: roomID,
		UserID: userID,
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case "ping":
		client.Conn.WriteJSON(Message{
			Type: "pong",
			Data: gin.H{"timestamp": time.Now().Unix()},
		})
	default:
		client.Conn.WriteJSON(Message{
			Type: "error",
			Data: gin.H{"message": "Unknown message type: " + msg.Type},
		})
	}
}

func (hub *RoomHub) run() {
	for {
		select {
		case client := <-hub.register:
			conns, ok := hub.rooms[client.RoomID]
			if !ok {
				conns = make(map[int64]*websocket.Conn)
				hub.rooms[client.RoomID] = conns
			}
			conns[client.UserID] = client.Conn

			if len(conns) == 2 {
				hub.sendToRoom(client.RoomID, &Message{
					Type:   "both_players_ready",
					RoomID: client.RoomID,
				})
			}

		case client := <-hub.unregister:
			if conns, ok := hub.rooms[client.RoomID]; ok {
				delete(conns, client.UserID)
				if len(conns) == 0 {
					delete(hub.rooms, client.RoomID)
				}
			}

		case message := <-hub.broadcast:
			hub.sendToRoom(message.RoomID, message)
		}
	}
}

func (hub *RoomHub) sendToRoom(roomID int64, message *Message) {
	for userID, conn := range hub.rooms[roomID] {
		if err := conn.WriteJSON(message); err != nil {
			log.Printf("Failed to send to user %d: %v", userID, err)
		}
	}
}

// BroadcastRoundUpdate implements services.Broadcaster.
func (h *WebSocketHandler) BroadcastRoundUpdate(roomID int64, round *models.Round) {
	h.hub.broadcast <- &Message{
		Type:   "round_update",
		RoomID: roomID,
		Data:   round,
	}
}

// BroadcastMatchEnded implements services.Broadcaster.
func (h *WebSocketHandler) BroadcastMatchEnded(roomID int64, match *models.Match) {
	h.hub.broadcast <- &Message{
		Type:   "match_ended",
		RoomID: roomID,
		Data:   match,
	}
}
