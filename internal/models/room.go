package models

import "time"

type Room struct {
	ID         int64      `json:"id" redis:"id"`
	InviteCode string     `json:"invite_code" redis:"invite_code"`
	Status     RoomStatus `json:"status" redis:"status"`
	Player1ID  int64      `json:"player1_id,omitempty" redis:"player1_id"`
	Player2ID  int64      `json:"player2_id,omitempty" redis:"player2_id"`
	CreatedAt  time.Time  `json:"created_at" redis:"created_at"`
}

// HasBothPlayers reports whether both seats of the room are filled.
func (r *Room) HasBothPlayers() bool {
	return r.Player1ID != 0 && r.Player2ID != 0
}
