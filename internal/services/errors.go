package services

import "errors"

// Validation failures reported by the engine. All of them are
// user-correctable and leave persisted state untouched; only
// ErrDeckExhausted indicates a setup defect (missing card catalog).
var (
	ErrInvalidRoom       = errors.New("room does not have two seated players")
	ErrWrongState        = errors.New("round is not in the required state")
	ErrNotYourTurn       = errors.New("it is not this player's turn")
	ErrNotAParticipant   = errors.New("player has no card in this round")
	ErrInvalidSide       = errors.New("side must be front, back or double_side")
	ErrInvalidAmount     = errors.New("amount must increase the committed total")
	ErrBelowOpponent     = errors.New("amount must exceed the opponent's total")
	ErrNothingToCall     = errors.New("there is nothing to call")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrDeckExhausted     = errors.New("no card templates available for reshuffle")
)
