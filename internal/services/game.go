package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardduel-backend/internal/models"
	"cardduel-backend/internal/store"
)

const anteAmount = 1

// GameService owns match and round lifecycle: seat assignment, dealing,
// ante collection and side selection. Once a round reaches the betting
// state all further mutation belongs to BettingService.
type GameService struct {
	store       store.Store
	deck        *DeckService
	broadcaster Broadcaster
}

func NewGameService(st store.Store, deck *DeckService) *GameService {
	return &GameService{store: st, deck: deck}
}

// SetBroadcaster installs the notification hook. A nil broadcaster is
// fine; state changes are then simply not fanned out.
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartMatch creates a match for a room with two seated players, grants
// each player their starting chips and shuffles a fresh deck. This is
// the only place chip balances are initialized.
func (s *GameService) StartMatch(ctx context.Context, roomID int64) (*models.Match, []models.MatchPlayer, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if !room.HasBothPlayers() {
		return nil, nil, ErrInvalidRoom
	}

	match := &models.Match{
		RoomID:    roomID,
		Status:    models.MatchStatusInit,
		DeckSeed:  NewDeckSeed(),
		Settings:  map[string]any{},
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateMatch(ctx, match); err != nil {
		return nil, nil, fmt.Errorf("failed to create match: %v", err)
	}

	players := []models.MatchPlayer{
		{MatchID: match.ID, UserID: room.Player1ID, Seat: 0, Chips: models.StartingChips},
		{MatchID: match.ID, UserID: room.Player2ID, Seat: 1, Chips: models.StartingChips},
	}
	if err := s.store.SaveMatchPlayers(ctx, match.ID, players); err != nil {
		return nil, nil, fmt.Errorf("failed to seat players: %v", err)
	}

	if err := s.deck.EnsureCardTemplates(ctx); err != nil {
		return nil, nil, err
	}
	if err := s.deck.ShuffleDeck(ctx, match); err != nil {
		return nil, nil, err
	}

	match.Status = models.MatchStatusActive
	if err := s.store.SaveMatch(ctx, match); err != nil {
		return nil, nil, fmt.Errorf("failed to activate match: %v", err)
	}

	return match, players, nil
}

// StartRound deals one card per seat, collects the antes and opens side
// selection. A zero roundNo means one past the highest existing round.
// Starting a round that already exists returns it unchanged, so the
// call is safe to retry.
func (s *GameService) StartRound(ctx context.Context, matchID int64, roundNo int) (*models.Round, error) {
	var round *models.Round
	err := s.store.WithMatchLock(ctx, matchID, func() error {
		var err error
		round, err = s.startRoundLocked(ctx, matchID, roundNo)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishRound(ctx, round)
	return round, nil
}

func (s *GameService) startRoundLocked(ctx context.Context, matchID int64, roundNo int) (*models.Round, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	if roundNo == 0 {
		latest, err := s.store.GetLatestRound(ctx, matchID)
		switch {
		case err == nil:
			roundNo = latest.RoundNo + 1
		case errors.Is(err, store.ErrNotFound):
			roundNo = 1
		default:
			return nil, err
		}
	}

	if existing, err := s.store.GetRoundByNo(ctx, matchID, roundNo); err == nil {
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	players, err := s.store.GetMatchPlayers(ctx, matchID)
	if err != nil {
		return nil, err
	}
	player1, player2, err := bySeat(players)
	if err != nil {
		return nil, err
	}

	// Round 1 opens with seat 0; later rounds open with the previous
	// winner, falling back to seat 0 after a tie.
	first := player1
	carryOver := 0
	if roundNo > 1 {
		prev, err := s.store.GetRoundByNo(ctx, matchID, roundNo-1)
		if err == nil {
			carryOver = prev.CarryOverPot
			if prev.WinnerID == player2.UserID {
				first = player2
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	round := &models.Round{
		MatchID:       matchID,
		RoundNo:       roundNo,
		State:         models.RoundStateDealing,
		Pot:           carryOver,
		CurrentTurnID: first.UserID,
		MinBet:        anteAmount,
		CreatedAt:     time.Now(),
	}

	pos1, pos2 := DeckPositionsForRound(roundNo)
	front1, back1, err := s.deck.DealCard(ctx, match, pos1)
	if err != nil {
		return nil, err
	}
	front2, back2, err := s.deck.DealCard(ctx, match, pos2)
	if err != nil {
		return nil, err
	}

	cards := []models.RoundCard{
		{PlayerID: player1.UserID, FrontValue: front1, BackValue: back1},
		{PlayerID: player2.UserID, FrontValue: front2, BackValue: back2},
	}

	if player1.Chips < anteAmount || player2.Chips < anteAmount {
		return nil, ErrInsufficientChips
	}
	player1.Chips -= anteAmount
	player2.Chips -= anteAmount
	round.Pot += 2 * anteAmount

	now := time.Now()
	actions := []*models.Action{
		{PlayerID: player1.UserID, Type: models.ActionTypeAnte, Amount: anteAmount, CreatedAt: now},
		{PlayerID: player2.UserID, Type: models.ActionTypeAnte, Amount: anteAmount, CreatedAt: now},
	}

	round.State = models.RoundStateSideSelection

	update := &store.RoundUpdate{
		Round:      round,
		Players:    []models.MatchPlayer{*player1, *player2},
		Cards:      cards,
		NewActions: actions,
	}
	if err := s.store.CommitRound(ctx, update); err != nil {
		return nil, err
	}
	return round, nil
}

// SelectSide records which face a player wants to be judged on. The
// choice may be overwritten until the other player has committed; once
// both cards carry a side the round moves to betting with the opening
// turn unchanged.
func (s *GameService) SelectSide(ctx context.Context, roundID, playerID int64, side models.CardSide) (*models.Round, error) {
	var round *models.Round
	err := s.store.WithRoundLock(ctx, roundID, func() error {
		var err error
		round, err = s.selectSideLocked(ctx, roundID, playerID, side)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishRound(ctx, round)
	return round, nil
}

func (s *GameService) selectSideLocked(ctx context.Context, roundID, playerID int64, side models.CardSide) (*models.Round, error) {
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.State != models.RoundStateSideSelection {
		return nil, ErrWrongState
	}

	cards, err := s.store.GetRoundCards(ctx, roundID)
	if err != nil {
		return nil, err
	}

	ownIdx := -1
	for i := range cards {
		if cards[i].PlayerID == playerID {
			ownIdx = i
			break
		}
	}
	if ownIdx < 0 {
		return nil, ErrNotAParticipant
	}

	if !side.Valid() {
		return nil, ErrInvalidSide
	}

	cards[ownIdx].ChosenSide = side

	actions := []*models.Action{
		{PlayerID: playerID, Type: models.ActionTypeSelectSide, Side: side, CreatedAt: time.Now()},
	}

	allSelected := true
	hasDouble := false
	for i := range cards {
		if cards[i].ChosenSide == models.CardSideUnset {
			allSelected = false
		}
		if cards[i].ChosenSide == models.CardSideDouble {
			hasDouble = true
		}
	}
	if allSelected {
		round.IsDoubleSideBet = hasDouble
		round.State = models.RoundStateBetting
	}

	update := &store.RoundUpdate{
		Round:      round,
		Cards:      cards,
		NewActions: actions,
	}
	if err := s.store.CommitRound(ctx, update); err != nil {
		return nil, err
	}
	return round, nil
}

// RoundView assembles a round with its cards and ordered action log.
func (s *GameService) RoundView(ctx context.Context, roundID int64) (*models.RoundResponse, error) {
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	cards, err := s.store.GetRoundCards(ctx, roundID)
	if err != nil {
		return nil, err
	}
	actions, err := s.store.GetActions(ctx, roundID)
	if err != nil {
		return nil, err
	}
	return &models.RoundResponse{Round: round, Cards: cards, Actions: actions}, nil
}

// CurrentRound returns the round with the highest number for a match.
func (s *GameService) CurrentRound(ctx context.Context, matchID int64) (*models.RoundResponse, error) {
	round, err := s.store.GetLatestRound(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return s.RoundView(ctx, round.ID)
}

func (s *GameService) publishRound(ctx context.Context, round *models.Round) {
	if s.broadcaster == nil || round == nil {
		return
	}
	match, err := s.store.GetMatch(ctx, round.MatchID)
	if err != nil {
		return
	}
	s.broadcaster.BroadcastRoundUpdate(match.RoomID, round)
}

func bySeat(players []models.MatchPlayer) (*models.MatchPlayer, *models.MatchPlayer, error) {
	var player1, player2 *models.MatchPlayer
	for i := range players {
		switch players[i].Seat {
		case 0:
			player1 = &players[i]
		case 1:
			player2 = &players[i]
		}
	}
	if player1 == nil || player2 == nil {
		return nil, nil, fmt.Errorf("match does not have both seats filled")
	}
	return player1, player2, nil
}
