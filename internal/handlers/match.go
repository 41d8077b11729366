package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cardduel-backend/internal/models"
	"cardduel-backend/internal/services"
	"cardduel-backend/internal/store"
)

type MatchHandler struct {
	store       store.Store
	gameService *services.GameService
}

func NewMatchHandler(st store.Store, gameService *services.GameService) *MatchHandler {
	return &MatchHandler{store: st, gameService: gameService}
}

func (h *MatchHandler) StartMatch(c *gin.Context) {
	var req models.MatchStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	match, players, err := h.gameService.StartMatch(c.Request.Context(), req.RoomID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to start match",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"match":   match,
		"players": players,
	})
}

func (h *MatchHandler) GetMatch(c *gin.Context) {
	matchID, err := strconv.ParseInt(c.Param("match_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match id"})
		return
	}

	h.respondWithMatch(c, matchID)
}

func (h *MatchHandler) GetMatchByRoom(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id"})
		return
	}

	match, err := h.store.GetLatestMatchByRoom(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to get match",
			"details": err.Error(),
		})
		return
	}

	h.respondWithMatch(c, match.ID)
}

func (h *MatchHandler) respondWithMatch(c *gin.Context, matchID int64) {
	ctx := c.Request.Context()

	match, err := h.store.GetMatch(ctx, matchID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to get match",
			"details": err.Error(),
		})
		return
	}

	players, err := h.store.GetMatchPlayers(ctx, matchID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to get match players",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"match":   match,
		"players": players,
	})
}
