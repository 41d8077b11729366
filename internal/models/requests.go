package models

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=2,max=40"`
}

type RoomJoinRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

type MatchStartRequest struct {
	RoomID int64 `json:"room_id" binding:"required"`
}

type SideSelectionRequest struct {
	Side CardSide `json:"side" binding:"required"`
}

type ActionRequest struct {
	ActionType ActionType `json:"action_type" binding:"required"`
	Amount     int        `json:"amount"`
}

type RoundResponse struct {
	Round   *Round      `json:"round"`
	Cards   []RoundCard `json:"cards"`
	Actions []Action    `json:"actions"`
}
