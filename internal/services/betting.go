package services

import (
	"context"
	"fmt"
	"time"

	"cardduel-backend/internal/models"
	"cardduel-backend/internal/store"
)

const doubleSideBonus = 10

// BettingService validates and applies in-turn betting actions and
// performs the final value comparison and chip settlement. It owns all
// mutation once a round is in the betting state.
type BettingService struct {
	store       store.Store
	broadcaster Broadcaster
}

func NewBettingService(st store.Store) *BettingService {
	return &BettingService{store: st}
}

func (s *BettingService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SubmitAction applies one betting action (bet, raise, call or fold)
// for the acting player as a single atomic unit of work.
func (s *BettingService) SubmitAction(ctx context.Context, roundID, playerID int64, actionType models.ActionType, amount int) (*models.Round, error) {
	var round *models.Round
	var match *models.Match
	err := s.store.WithRoundLock(ctx, roundID, func() error {
		var err error
		round, match, err = s.submitLocked(ctx, roundID, playerID, actionType, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastRoundUpdate(match.RoomID, round)
		if match.Status == models.MatchStatusEnded {
			s.broadcaster.BroadcastMatchEnded(match.RoomID, match)
		}
	}
	return round, nil
}

func (s *BettingService) submitLocked(ctx context.Context, roundID, playerID int64, actionType models.ActionType, amount int) (*models.Round, *models.Match, error) {
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, nil, err
	}
	if round.State != models.RoundStateBetting {
		return nil, nil, ErrWrongState
	}
	if round.CurrentTurnID != playerID {
		return nil, nil, ErrNotYourTurn
	}

	match, err := s.store.GetMatch(ctx, round.MatchID)
	if err != nil {
		return nil, nil, err
	}
	players, err := s.store.GetMatchPlayers(ctx, round.MatchID)
	if err != nil {
		return nil, nil, err
	}
	actor, opponent := splitPlayers(players, playerID)
	if actor == nil {
		return nil, nil, ErrNotAParticipant
	}

	cards, err := s.store.GetRoundCards(ctx, roundID)
	if err != nil {
		return nil, nil, err
	}
	actions, err := s.store.GetActions(ctx, roundID)
	if err != nil {
		return nil, nil, err
	}

	actorDouble := chosenSide(cards, actor.UserID) == models.CardSideDouble
	opponentDouble := chosenSide(cards, opponent.UserID) == models.CardSideDouble
	ownTotal := betTotal(actions, actor.UserID)
	oppTotal := betTotal(actions, opponent.UserID)

	var newActions []*models.Action
	now := time.Now()

	switch actionType {
	case models.ActionTypeFold:
		newActions = append(newActions, &models.Action{
			PlayerID: actor.UserID, Type: models.ActionTypeFold, CreatedAt: now,
		})

		// Folding against a double-side bet costs a fixed penalty paid
		// straight to the opponent, independent of the pot.
		if opponentDouble {
			actor.Chips -= doubleSideBonus
			opponent.Chips += doubleSideBonus
			round.DoubleSideBonus = -doubleSideBonus
		}

		opponent.Chips += round.Pot
		round.Pot = 0
		round.WinnerID = opponent.UserID
		if actor.Seat == 0 {
			round.Result = models.RoundResultPlayer1Fold
		} else {
			round.Result = models.RoundResultPlayer2Fold
		}
		s.endRound(round, match, actor, opponent, now)

	case models.ActionTypeBet, models.ActionTypeRaise:
		// Amounts are quoted as the player's total intended commitment.
		additional := amount - ownTotal
		if amount <= 0 || additional <= 0 {
			return nil, nil, ErrInvalidAmount
		}
		if amount <= oppTotal {
			return nil, nil, ErrBelowOpponent
		}
		cost := actualCost(additional, actorDouble)
		if cost > actor.Chips {
			return nil, nil, ErrInsufficientChips
		}

		actor.Chips -= cost
		round.Pot += cost

		// The engine decides the label itself: a raise answers an
		// opponent bet, a bet opens.
		label := models.ActionTypeBet
		if hasBetOrRaise(actions, opponent.UserID) {
			label = models.ActionTypeRaise
		}
		newActions = append(newActions, &models.Action{
			PlayerID: actor.UserID, Type: label, Amount: amount, CreatedAt: now,
		})

		round.CurrentTurnID = opponent.UserID

	case models.ActionTypeCall:
		callAmount := oppTotal - ownTotal
		if callAmount <= 0 {
			return nil, nil, ErrNothingToCall
		}
		cost := actualCost(callAmount, actorDouble)
		if cost > actor.Chips {
			return nil, nil, ErrInsufficientChips
		}

		actor.Chips -= cost
		round.Pot += cost
		newActions = append(newActions, &models.Action{
			PlayerID: actor.UserID, Type: models.ActionTypeCall, Amount: callAmount, CreatedAt: now,
		})

		// A call closes the betting; the round resolves immediately.
		s.resolve(round, cards, actor, opponent)
		s.endRound(round, match, actor, opponent, now)

	default:
		return nil, nil, fmt.Errorf("unsupported action type %q", actionType)
	}

	update := &store.RoundUpdate{
		Round:      round,
		Players:    players,
		NewActions: newActions,
	}
	if match.Status == models.MatchStatusEnded {
		update.Match = match
	}
	if err := s.store.CommitRound(ctx, update); err != nil {
		return nil, nil, err
	}
	return round, match, nil
}

// CurrentBet returns the largest bet or raise total logged this round.
func (s *BettingService) CurrentBet(ctx context.Context, roundID int64) (int, error) {
	actions, err := s.store.GetActions(ctx, roundID)
	if err != nil {
		return 0, err
	}
	return maxBetSeen(actions), nil
}

// resolve compares effective values through each player's chosen side
// and settles the pot. Reveal collapses into this step.
func (s *BettingService) resolve(round *models.Round, cards []models.RoundCard, actor, opponent *models.MatchPlayer) {
	actorCard := cardOf(cards, actor.UserID)
	opponentCard := cardOf(cards, opponent.UserID)

	actorValues := actorCard.EffectiveValues()
	opponentValues := opponentCard.EffectiveValues()

	actorDouble := actorCard.ChosenSide == models.CardSideDouble
	opponentDouble := opponentCard.ChosenSide == models.CardSideDouble

	var winner *models.MatchPlayer
	bonus := 0
	tie := false

	switch {
	case actorDouble && opponentDouble:
		// Both doubled: a win needs both own values above both of the
		// opponent's; any cross-tie is a tie. No bonus either way.
		switch {
		case allExceed(actorValues, opponentValues):
			winner = actor
		case allExceed(opponentValues, actorValues):
			winner = opponent
		default:
			tie = true
		}
	case actorDouble:
		if allExceed(actorValues, opponentValues) {
			winner = actor
			bonus = doubleSideBonus
		} else {
			winner = opponent
		}
	case opponentDouble:
		if allExceed(opponentValues, actorValues) {
			winner = opponent
			bonus = doubleSideBonus
		} else {
			winner = actor
		}
	default:
		switch {
		case actorValues[0] > opponentValues[0]:
			winner = actor
		case opponentValues[0] > actorValues[0]:
			winner = opponent
		default:
			tie = true
		}
	}

	if tie {
		round.Result = models.RoundResultTie
		round.WinnerID = 0
		round.CarryOverPot = round.Pot
		round.Pot = 0
		return
	}

	// The double-side bonus comes from the bank, not from the loser.
	winner.Chips += round.Pot + bonus
	if bonus > 0 {
		round.DoubleSideBonus = bonus
	}
	round.Pot = 0
	round.WinnerID = winner.UserID
	if winner.Seat == 0 {
		round.Result = models.RoundResultPlayer1Win
	} else {
		round.Result = models.RoundResultPlayer2Win
	}
}

// endRound stamps the terminal round state and ends the match when a
// player has run out of chips. Ties never end the match.
func (s *BettingService) endRound(round *models.Round, match *models.Match, actor, opponent *models.MatchPlayer, now time.Time) {
	round.State = models.RoundStateEnded
	round.CurrentTurnID = 0
	round.EndedAt = now

	if round.Result == models.RoundResultTie {
		return
	}
	if actor.Chips <= 0 || opponent.Chips <= 0 {
		match.Status = models.MatchStatusEnded
		match.EndedAt = now
	}
}

// betTotal derives a player's committed stake from the action log.
// Bet and raise actions are logged with running totals that subsume
// the ante; antes and calls are logged incrementally.
func betTotal(actions []models.Action, playerID int64) int {
	ante := 0
	maxTotal := 0
	calls := 0
	for _, action := range actions {
		if action.PlayerID != playerID {
			continue
		}
		switch action.Type {
		case models.ActionTypeAnte:
			ante += action.Amount
		case models.ActionTypeBet, models.ActionTypeRaise:
			if action.Amount > maxTotal {
				maxTotal = action.Amount
			}
		case models.ActionTypeCall:
			calls += action.Amount
		}
	}
	if maxTotal < ante {
		maxTotal = ante
	}
	return maxTotal + calls
}

// maxBetSeen returns the largest bet or raise total logged this round.
func maxBetSeen(actions []models.Action) int {
	max := 0
	for _, action := range actions {
		switch action.Type {
		case models.ActionTypeBet, models.ActionTypeRaise:
			if action.Amount > max {
				max = action.Amount
			}
		}
	}
	return max
}

func hasBetOrRaise(actions []models.Action, playerID int64) bool {
	for _, action := range actions {
		if action.PlayerID != playerID {
			continue
		}
		if action.Type == models.ActionTypeBet || action.Type == models.ActionTypeRaise {
			return true
		}
	}
	return false
}

// actualCost applies the double-side stake multiplier to an
// incremental chip amount.
func actualCost(amount int, double bool) int {
	if double {
		return amount * 2
	}
	return amount
}

// allExceed reports whether every value in a strictly exceeds every
// value in b.
func allExceed(a, b []int) bool {
	for _, av := range a {
		for _, bv := range b {
			if av <= bv {
				return false
			}
		}
	}
	return len(a) > 0 && len(b) > 0
}

func splitPlayers(players []models.MatchPlayer, playerID int64) (*models.MatchPlayer, *models.MatchPlayer) {
	var actor, opponent *models.MatchPlayer
	for i := range players {
		if players[i].UserID == playerID {
			actor = &players[i]
		} else {
			opponent = &players[i]
		}
	}
	return actor, opponent
}

func chosenSide(cards []models.RoundCard, playerID int64) models.CardSide {
	if card := cardOf(cards, playerID); card != nil {
		return card.ChosenSide
	}
	return models.CardSideUnset
}

func cardOf(cards []models.RoundCard, playerID int64) *models.RoundCard {
	for i := range cards {
		if cards[i].PlayerID == playerID {
			return &cards[i]
		}
	}
	return nil
}
