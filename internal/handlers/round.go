package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cardduel-backend/internal/models"
	"cardduel-backend/internal/services"
)

type RoundHandler struct {
	gameService    *services.GameService
	bettingService *services.BettingService
}

func NewRoundHandler(gameService *services.GameService, bettingService *services.BettingService) *RoundHandler {
	return &RoundHandler{
		gameService:    gameService,
		bettingService: bettingService,
	}
}

func (h *RoundHandler) StartRound(c *gin.Context) {
	matchID, err := strconv.ParseInt(c.Param("match_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match id"})
		return
	}

	round, err := h.gameService.StartRound(c.Request.Context(), matchID, 0)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to start round",
			"details": err.Error(),
		})
		return
	}

	h.respondWithRound(c, round.ID)
}

func (h *RoundHandler) SelectSide(c *gin.Context) {
	userID := c.GetInt64("user_id")

	roundID, err := strconv.ParseInt(c.Param("round_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round id"})
		return
	}

	var req models.SideSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if _, err := h.gameService.SelectSide(c.Request.Context(), roundID, userID, req.Side); err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to select side",
			"details": err.Error(),
		})
		return
	}

	h.respondWithRound(c, roundID)
}

func (h *RoundHandler) SubmitAction(c *gin.Context) {
	userID := c.GetInt64("user_id")

	roundID, err := strconv.ParseInt(c.Param("round_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round id"})
		return
	}

	var req models.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if _, err := h.bettingService.SubmitAction(c.Request.Context(), roundID, userID, req.ActionType, req.Amount); err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Action rejected",
			"details": err.Error(),
		})
		return
	}

	h.respondWithRound(c, roundID)
}

func (h *RoundHandler) GetRound(c *gin.Context) {
	roundID, err := strconv.ParseInt(c.Param("round_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round id"})
		return
	}

	h.respondWithRound(c, roundID)
}

func (h *RoundHandler) GetCurrentRound(c *gin.Context) {
	matchID, err := strconv.ParseInt(c.Param("match_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match id"})
		return
	}

	view, err := h.gameService.CurrentRound(c.Request.Context(), matchID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to get current round",
			"details": err.Error(),
		})
		return
	}

	h.respondWithView(c, view)
}

func (h *RoundHandler) respondWithRound(c *gin.Context, roundID int64) {
	view, err := h.gameService.RoundView(c.Request.Context(), roundID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to get round",
			"details": err.Error(),
		})
		return
	}

	h.respondWithView(c, view)
}

func (h *RoundHandler) respondWithView(c *gin.Context, view *models.RoundResponse) {
	currentBet, err := h.bettingService.CurrentBet(c.Request.Context(), view.Round.ID)
	if err != nil {
		currentBet = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"round":       view.Round,
		"cards":       view.Cards,
		"actions":     view.Actions,
		"current_bet": currentBet,
	})
}
