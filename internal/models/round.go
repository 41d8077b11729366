package models

import "time"

type Round struct {
	ID              int64       `json:"id" redis:"id"`
	MatchID         int64       `json:"match_id" redis:"match_id"`
	RoundNo         int         `json:"round_no" redis:"round_no"`
	State           RoundState  `json:"state" redis:"state"`
	Pot             int         `json:"pot" redis:"pot"`
	CarryOverPot    int         `json:"carry_over_pot" redis:"carry_over_pot"`
	CurrentTurnID   int64       `json:"current_turn_user_id,omitempty" redis:"current_turn_user_id"`
	MinBet          int         `json:"min_bet" redis:"min_bet"`
	Result          RoundResult `json:"result,omitempty" redis:"result"`
	WinnerID        int64       `json:"winner_id,omitempty" redis:"winner_id"`
	IsDoubleSideBet bool        `json:"is_double_side_bet" redis:"is_double_side_bet"`
	DoubleSideBonus int         `json:"double_side_bonus" redis:"double_side_bonus"`
	CreatedAt       time.Time   `json:"created_at" redis:"created_at"`
	EndedAt         time.Time   `json:"ended_at,omitempty" redis:"ended_at"`
}

// RoundCard is the card dealt to one player for one round. It is
// immutable once the round enters betting, except for the chosen side
// which may be overwritten during side selection.
type RoundCard struct {
	RoundID    int64    `json:"round_id" redis:"round_id"`
	PlayerID   int64    `json:"player_id" redis:"player_id"`
	FrontValue int      `json:"front_value" redis:"front_value"`
	BackValue  int      `json:"back_value" redis:"back_value"`
	ChosenSide CardSide `json:"chosen_side,omitempty" redis:"chosen_side"`
}

// Action is an append-only audit log entry. Running bet totals are
// always derived from these, never from a cached counter.
type Action struct {
	ID        int64      `json:"id" redis:"id"`
	RoundID   int64      `json:"round_id" redis:"round_id"`
	PlayerID  int64      `json:"player_id" redis:"player_id"`
	Type      ActionType `json:"action_type" redis:"action_type"`
	Amount    int        `json:"amount,omitempty" redis:"amount"`
	Side      CardSide   `json:"side,omitempty" redis:"side"`
	CreatedAt time.Time  `json:"created_at" redis:"created_at"`
}
