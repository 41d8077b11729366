package services_test

import (
	"context"
	"testing"

	"cardduel-backend/internal/models"
	"cardduel-backend/internal/services"
	"cardduel-backend/internal/store"
)

type pinnedCards struct {
	front1, back1 int
	side1         models.CardSide
	front2, back2 int
	side2         models.CardSide
}

// startPinnedBettingRound starts the next round, replaces the dealt
// cards with known values and walks both players through side
// selection, leaving the round in the betting state.
func startPinnedBettingRound(t *testing.T, st *store.MemoryStore, game *services.GameService, match *models.Match, pin pinnedCards) *models.Round {
	t.Helper()
	ctx := context.Background()

	round, err := game.StartRound(ctx, match.ID, 0)
	if err != nil {
		t.Fatalf("Failed to start round: %v", err)
	}
	pinCards(t, st, round, pin.front1, pin.back1, pin.front2, pin.back2)

	if _, err := game.SelectSide(ctx, round.ID, player1ID, pin.side1); err != nil {
		t.Fatalf("Failed to select side for player 1: %v", err)
	}
	round, err = game.SelectSide(ctx, round.ID, player2ID, pin.side2)
	if err != nil {
		t.Fatalf("Failed to select side for player 2: %v", err)
	}
	if round.State != models.RoundStateBetting {
		t.Fatalf("Round should be in betting state, got %s", round.State)
	}
	return round
}

func TestSubmitActionTurnAndState(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round, err := game.StartRound(ctx, match.ID, 0)
	if err != nil {
		t.Fatalf("Failed to start round: %v", err)
	}

	// Betting is closed during side selection.
	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 3); err != services.ErrWrongState {
		t.Errorf("Expected ErrWrongState during side selection, got %v", err)
	}

	pinCards(t, st, round, 6, 1, 3, 8)
	if _, err := game.SelectSide(ctx, round.ID, player1ID, models.CardSideFront); err != nil {
		t.Fatalf("Failed to select side: %v", err)
	}
	if _, err := game.SelectSide(ctx, round.ID, player2ID, models.CardSideBack); err != nil {
		t.Fatalf("Failed to select side: %v", err)
	}

	if _, err := betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeBet, 3); err != services.ErrNotYourTurn {
		t.Errorf("Expected ErrNotYourTurn for out-of-turn bet, got %v", err)
	}

	updated, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 3)
	if err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}
	if updated.CurrentTurnID != player2ID {
		t.Errorf("Bet should pass the turn to the opponent, got player %d", updated.CurrentTurnID)
	}

	updated, err = betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeRaise, 5)
	if err != nil {
		t.Fatalf("Failed to raise: %v", err)
	}
	if updated.CurrentTurnID != player1ID {
		t.Errorf("Raise should pass the turn back, got player %d", updated.CurrentTurnID)
	}
}

func TestBetCallSettlement(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 6, back1: 1, side1: models.CardSideFront,
		front2: 3, back2: 8, side2: models.CardSideBack,
	})

	// Betting amounts are quoted as totals. With an ante of 1 already
	// in, a bet of 5 puts 4 more chips into the pot.
	updated, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 5)
	if err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}
	if updated.Pot != 6 {
		t.Errorf("Expected pot of 6 after the bet, got %d", updated.Pot)
	}
	chips1, _ := playerChips(t, st, match.ID)
	if chips1 != 25 {
		t.Errorf("Bet of 5 total should leave 25 chips, got %d", chips1)
	}

	updated, err = betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeCall, 0)
	if err != nil {
		t.Fatalf("Failed to call: %v", err)
	}

	if updated.State != models.RoundStateEnded {
		t.Errorf("A call should end the round, got state %s", updated.State)
	}
	if updated.Pot != 0 {
		t.Errorf("Settlement should empty the pot, got %d", updated.Pot)
	}
	if updated.Result != models.RoundResultPlayer2Win {
		t.Errorf("Back 8 beats front 6, expected player2_win, got %s", updated.Result)
	}
	if updated.WinnerID != player2ID {
		t.Errorf("Expected winner %d, got %d", player2ID, updated.WinnerID)
	}

	// Pot was 10 at showdown; the winner collects all of it.
	chips1, chips2 := playerChips(t, st, match.ID)
	if chips1 != 25 || chips2 != 35 {
		t.Errorf("Expected chips 25 and 35 after settlement, got %d and %d", chips1, chips2)
	}

	actions, _ := st.GetActions(ctx, round.ID)
	last := actions[len(actions)-1]
	if last.Type != models.ActionTypeCall || last.Amount != 4 {
		t.Errorf("Call should be logged with the incremental amount 4, got %s %d", last.Type, last.Amount)
	}
}

func TestBetValidation(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 6, back1: 1, side1: models.CardSideFront,
		front2: 3, back2: 8, side2: models.CardSideBack,
	})

	// A total at or below the ante adds nothing.
	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 1); err != services.ErrInvalidAmount {
		t.Errorf("Expected ErrInvalidAmount for a no-op total, got %v", err)
	}
	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 0); err != services.ErrInvalidAmount {
		t.Errorf("Expected ErrInvalidAmount for zero, got %v", err)
	}
	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 40); err != services.ErrInsufficientChips {
		t.Errorf("Expected ErrInsufficientChips, got %v", err)
	}
	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeCall, 0); err != services.ErrNothingToCall {
		t.Errorf("Expected ErrNothingToCall with level stakes, got %v", err)
	}

	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 5); err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}

	// A raise must top the opponent's running total.
	if _, err := betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeRaise, 4); err != services.ErrBelowOpponent {
		t.Errorf("Expected ErrBelowOpponent for a short raise, got %v", err)
	}
}

func TestFold(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 6, back1: 1, side1: models.CardSideFront,
		front2: 3, back2: 8, side2: models.CardSideBack,
	})

	updated, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeFold, 0)
	if err != nil {
		t.Fatalf("Failed to fold: %v", err)
	}

	if updated.Result != models.RoundResultPlayer1Fold {
		t.Errorf("Expected player1_fold, got %s", updated.Result)
	}
	if updated.WinnerID != player2ID {
		t.Errorf("Folding should hand the pot to the opponent, winner %d", updated.WinnerID)
	}
	if updated.State != models.RoundStateEnded || updated.CurrentTurnID != 0 {
		t.Errorf("Folding should end the round, got state %s turn %d", updated.State, updated.CurrentTurnID)
	}

	chips1, chips2 := playerChips(t, st, match.ID)
	if chips1 != 29 || chips2 != 31 {
		t.Errorf("Expected chips 29 and 31 after the fold, got %d and %d", chips1, chips2)
	}
}

func TestFoldAgainstDoubleSideBet(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 6, back1: 1, side1: models.CardSideFront,
		front2: 3, back2: 8, side2: models.CardSideDouble,
	})

	updated, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeFold, 0)
	if err != nil {
		t.Fatalf("Failed to fold: %v", err)
	}

	if updated.DoubleSideBonus != -10 {
		t.Errorf("Expected a -10 fold penalty on the round, got %d", updated.DoubleSideBonus)
	}

	// The penalty moves 10 chips from the folder to the doubler, on
	// top of the 2-chip pot.
	chips1, chips2 := playerChips(t, st, match.ID)
	if chips1 != 19 || chips2 != 41 {
		t.Errorf("Expected chips 19 and 41, got %d and %d", chips1, chips2)
	}
}

func TestDoubleSideStakeCost(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 8, back1: 9, side1: models.CardSideDouble,
		front2: 3, back2: 8, side2: models.CardSideFront,
	})

	updated, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 5)
	if err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}

	// A doubled side pays twice the incremental amount: 4 more on the
	// quoted total costs 8 chips.
	if updated.Pot != 10 {
		t.Errorf("Expected pot of 10 after a doubled bet, got %d", updated.Pot)
	}
	chips1, _ := playerChips(t, st, match.ID)
	if chips1 != 21 {
		t.Errorf("Expected 21 chips after a doubled bet of 5, got %d", chips1)
	}
}

func TestSingleDoubleWinsWithBonus(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 8, back1: 9, side1: models.CardSideDouble,
		front2: 3, back2: 8, side2: models.CardSideFront,
	})

	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 2); err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}
	updated, err := betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeCall, 0)
	if err != nil {
		t.Fatalf("Failed to call: %v", err)
	}

	if updated.Result != models.RoundResultPlayer1Win {
		t.Errorf("Both doubled values top front 3, expected player1_win, got %s", updated.Result)
	}
	if updated.DoubleSideBonus != 10 {
		t.Errorf("Expected a +10 bonus on the round, got %d", updated.DoubleSideBonus)
	}

	// Pot at showdown: 2 antes + 2 doubled (bet of 2 total) + 1 called
	// = 5. The bonus comes from the bank on top of the pot.
	chips1, chips2 := playerChips(t, st, match.ID)
	if chips1 != 42 || chips2 != 28 {
		t.Errorf("Expected chips 42 and 28, got %d and %d", chips1, chips2)
	}
}

func TestSingleDoubleLosesOutright(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 6, back1: 1, side1: models.CardSideDouble,
		front2: 3, back2: 8, side2: models.CardSideFront,
	})

	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 2); err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}
	updated, err := betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeCall, 0)
	if err != nil {
		t.Fatalf("Failed to call: %v", err)
	}

	// Back value 1 does not beat front 3, so the doubler loses even
	// though 6 would have won alone. No bonus moves in either
	// direction.
	if updated.Result != models.RoundResultPlayer2Win {
		t.Errorf("Expected player2_win against a failed double, got %s", updated.Result)
	}
	if updated.DoubleSideBonus != 0 {
		t.Errorf("A failed double should pay no bonus, got %d", updated.DoubleSideBonus)
	}

	chips1, chips2 := playerChips(t, st, match.ID)
	if chips1 != 27 || chips2 != 33 {
		t.Errorf("Expected chips 27 and 33, got %d and %d", chips1, chips2)
	}
}

func TestBothDoubleSweepWins(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 8, back1: 9, side1: models.CardSideDouble,
		front2: 4, back2: 3, side2: models.CardSideDouble,
	})

	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 2); err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}
	updated, err := betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeCall, 0)
	if err != nil {
		t.Fatalf("Failed to call: %v", err)
	}

	// Both of 8 and 9 strictly exceed both of 4 and 3, so the sweep
	// wins. With both sides doubled no bonus is paid.
	if updated.Result != models.RoundResultPlayer1Win {
		t.Errorf("Expected player1_win on a sweep, got %s", updated.Result)
	}
	if updated.WinnerID != player1ID {
		t.Errorf("Expected winner %d, got %d", player1ID, updated.WinnerID)
	}
	if updated.DoubleSideBonus != 0 {
		t.Errorf("Both-doubled rounds pay no bonus, got %d", updated.DoubleSideBonus)
	}

	// Pot at showdown: 2 antes + 2 doubled from the bet + 2 doubled
	// from the call = 6.
	chips1, chips2 := playerChips(t, st, match.ID)
	if chips1 != 33 || chips2 != 27 {
		t.Errorf("Expected chips 33 and 27, got %d and %d", chips1, chips2)
	}
}

func TestBothDoubleTie(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 6, back1: 1, side1: models.CardSideDouble,
		front2: 4, back2: 3, side2: models.CardSideDouble,
	})

	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 2); err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}
	updated, err := betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeCall, 0)
	if err != nil {
		t.Fatalf("Failed to call: %v", err)
	}

	// 6 tops both of the opponent's values but 1 does not; neither
	// side sweeps, so the round ties.
	if updated.Result != models.RoundResultTie {
		t.Errorf("Expected a tie, got %s", updated.Result)
	}
	if updated.WinnerID != 0 {
		t.Errorf("A tie has no winner, got %d", updated.WinnerID)
	}
	if updated.Pot != 0 || updated.CarryOverPot == 0 {
		t.Errorf("A tied pot should carry over, pot %d carry %d", updated.Pot, updated.CarryOverPot)
	}
}

func TestTieCarriesPotToNextRound(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 6, back1: 1, side1: models.CardSideFront,
		front2: 3, back2: 6, side2: models.CardSideBack,
	})

	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 3); err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}
	updated, err := betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeCall, 0)
	if err != nil {
		t.Fatalf("Failed to call: %v", err)
	}

	if updated.Result != models.RoundResultTie {
		t.Fatalf("Front 6 against back 6 should tie, got %s", updated.Result)
	}
	if updated.CarryOverPot != 6 {
		t.Fatalf("Expected a carry-over of 6, got %d", updated.CarryOverPot)
	}

	next, err := game.StartRound(ctx, match.ID, 0)
	if err != nil {
		t.Fatalf("Failed to start the next round: %v", err)
	}
	if next.Pot != 8 {
		t.Errorf("Next round should open with carry-over plus antes, expected 8, got %d", next.Pot)
	}
	if next.CurrentTurnID != player1ID {
		t.Errorf("After a tie seat 0 should open, got player %d", next.CurrentTurnID)
	}
}

func TestMatchEndsWhenChipsRunOut(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)

	players, _ := st.GetMatchPlayers(ctx, match.ID)
	for i := range players {
		players[i].Chips = 2
	}
	if err := st.SaveMatchPlayers(ctx, match.ID, players); err != nil {
		t.Fatalf("Failed to update players: %v", err)
	}

	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 6, back1: 1, side1: models.CardSideFront,
		front2: 4, back2: 3, side2: models.CardSideFront,
	})

	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 2); err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}
	updated, err := betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeCall, 0)
	if err != nil {
		t.Fatalf("Failed to call: %v", err)
	}

	if updated.Result != models.RoundResultPlayer1Win {
		t.Fatalf("Expected player1_win, got %s", updated.Result)
	}

	chips1, chips2 := playerChips(t, st, match.ID)
	if chips1 != 4 || chips2 != 0 {
		t.Errorf("Expected chips 4 and 0, got %d and %d", chips1, chips2)
	}

	stored, err := st.GetMatch(ctx, match.ID)
	if err != nil {
		t.Fatalf("Failed to reload match: %v", err)
	}
	if stored.Status != models.MatchStatusEnded {
		t.Errorf("A player at zero chips should end the match, got %s", stored.Status)
	}
	if stored.EndedAt.IsZero() {
		t.Error("Ended match should carry an end timestamp")
	}
}

func TestChipConservation(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 6, back1: 1, side1: models.CardSideFront,
		front2: 3, back2: 8, side2: models.CardSideBack,
	})

	total := func() int {
		chips1, chips2 := playerChips(t, st, match.ID)
		r, err := st.GetRound(ctx, round.ID)
		if err != nil {
			t.Fatalf("Failed to reload round: %v", err)
		}
		return chips1 + chips2 + r.Pot + r.CarryOverPot
	}

	before := total()
	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 5); err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}
	if after := total(); after != before {
		t.Errorf("Betting changed the chip total from %d to %d", before, after)
	}

	if _, err := betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeRaise, 8); err != nil {
		t.Fatalf("Failed to raise: %v", err)
	}
	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeCall, 0); err != nil {
		t.Fatalf("Failed to call: %v", err)
	}
	if after := total(); after != before {
		t.Errorf("Settlement changed the chip total from %d to %d", before, after)
	}
}

func TestCurrentBet(t *testing.T) {
	st, game, betting := setupEngine(t)
	ctx := context.Background()

	match := createActiveMatch(t, st, game)
	round := startPinnedBettingRound(t, st, game, match, pinnedCards{
		front1: 6, back1: 1, side1: models.CardSideFront,
		front2: 3, back2: 8, side2: models.CardSideBack,
	})

	current, err := betting.CurrentBet(ctx, round.ID)
	if err != nil {
		t.Fatalf("Failed to read current bet: %v", err)
	}
	if current != 0 {
		t.Errorf("Expected no standing bet, got %d", current)
	}

	if _, err := betting.SubmitAction(ctx, round.ID, player1ID, models.ActionTypeBet, 5); err != nil {
		t.Fatalf("Failed to bet: %v", err)
	}
	if _, err := betting.SubmitAction(ctx, round.ID, player2ID, models.ActionTypeRaise, 8); err != nil {
		t.Fatalf("Failed to raise: %v", err)
	}

	current, err = betting.CurrentBet(ctx, round.ID)
	if err != nil {
		t.Fatalf("Failed to read current bet: %v", err)
	}
	if current != 8 {
		t.Errorf("Expected a standing bet of 8, got %d", current)
	}
}
