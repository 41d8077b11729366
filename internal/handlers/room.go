package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cardduel-backend/internal/models"
	"cardduel-backend/internal/services"
	"cardduel-backend/internal/store"
)

type RoomHandler struct {
	store       store.Store
	gameService *services.GameService
}

func NewRoomHandler(st store.Store, gameService *services.GameService) *RoomHandler {
	return &RoomHandler{store: st, gameService: gameService}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.GetInt64("user_id")

	room := &models.Room{
		InviteCode: models.GenerateInviteCode(),
		Status:     models.RoomStatusOpen,
		Player1ID:  userID,
		CreatedAt:  time.Now(),
	}
	if err := h.store.CreateRoom(c.Request.Context(), room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create room",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"room":    room,
	})
}

// JoinRoom seats the caller as the second player. Once both seats are
// filled the match and its first round start automatically.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id"})
		return
	}

	room, err := h.store.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to get room",
			"details": err.Error(),
		})
		return
	}

	h.seatSecondPlayer(c, room)
}

// JoinRoomByInvite is the same join flow addressed by invite code
// instead of room id.
func (h *RoomHandler) JoinRoomByInvite(c *gin.Context) {
	var req models.RoomJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	room, err := h.store.GetRoomByInviteCode(c.Request.Context(), req.InviteCode)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to get room",
			"details": err.Error(),
		})
		return
	}

	h.seatSecondPlayer(c, room)
}

func (h *RoomHandler) seatSecondPlayer(c *gin.Context, room *models.Room) {
	userID := c.GetInt64("user_id")
	ctx := c.Request.Context()

	if room.Status != models.RoomStatusOpen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room is not open"})
		return
	}
	if room.Player1ID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already seated in this room"})
		return
	}
	if room.Player2ID != 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room is already full"})
		return
	}

	room.Player2ID = userID
	if err := h.store.SaveRoom(ctx, room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to join room",
			"details": err.Error(),
		})
		return
	}

	match, _, err := h.gameService.StartMatch(ctx, room.ID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to start match",
			"details": err.Error(),
		})
		return
	}
	if _, err := h.gameService.StartRound(ctx, match.ID, 1); err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to start first round",
			"details": err.Error(),
		})
		return
	}

	room.Status = models.RoomStatusPlaying
	if err := h.store.SaveRoom(ctx, room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update room",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"room":     room,
		"match_id": match.ID,
	})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id"})
		return
	}

	room, err := h.store.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to get room",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"room":    room,
	})
}
