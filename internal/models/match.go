package models

import "time"

const StartingChips = 30

type Match struct {
	ID        int64          `json:"id" redis:"id"`
	RoomID    int64          `json:"room_id" redis:"room_id"`
	Status    MatchStatus    `json:"status" redis:"status"`
	DeckSeed  int64          `json:"deck_seed" redis:"deck_seed"`
	Settings  map[string]any `json:"settings" redis:"settings"`
	CreatedAt time.Time      `json:"created_at" redis:"created_at"`
	EndedAt   time.Time      `json:"ended_at,omitempty" redis:"ended_at"`
}

// MatchPlayer is one of the two seats of a match. Chips only change
// through round settlement, never through direct edits.
type MatchPlayer struct {
	MatchID int64 `json:"match_id" redis:"match_id"`
	UserID  int64 `json:"user_id" redis:"user_id"`
	Seat    int   `json:"seat" redis:"seat"` // 0 or 1
	Chips   int   `json:"chips" redis:"chips"`
	IsBot   bool  `json:"is_bot" redis:"is_bot"`
}
