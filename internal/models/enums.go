package models

type RoomStatus string

const (
	RoomStatusOpen    RoomStatus = "open"
	RoomStatusPlaying RoomStatus = "playing"
	RoomStatusClosed  RoomStatus = "closed"
)

type MatchStatus string

const (
	MatchStatusInit   MatchStatus = "init"
	MatchStatusActive MatchStatus = "active"
	MatchStatusEnded  MatchStatus = "ended"
)

type RoundState string

const (
	RoundStateDealing       RoundState = "dealing"
	RoundStateSideSelection RoundState = "side_selection"
	RoundStateBetting       RoundState = "betting"
	RoundStateEnded         RoundState = "ended"
)

type ActionType string

const (
	ActionTypeAnte       ActionType = "ante"
	ActionTypeBet        ActionType = "bet"
	ActionTypeRaise      ActionType = "raise"
	ActionTypeCall       ActionType = "call"
	ActionTypeFold       ActionType = "fold"
	ActionTypeSelectSide ActionType = "select_side"
	ActionTypeReveal     ActionType = "reveal"
	ActionTypeTimeout    ActionType = "timeout"
)

type CardSide string

const (
	CardSideUnset  CardSide = ""
	CardSideFront  CardSide = "front"
	CardSideBack   CardSide = "back"
	CardSideDouble CardSide = "double_side"
)

// Valid reports whether the side is one a player may actually choose.
func (s CardSide) Valid() bool {
	switch s {
	case CardSideFront, CardSideBack, CardSideDouble:
		return true
	}
	return false
}

type RoundResult string

const (
	RoundResultNone        RoundResult = ""
	RoundResultPlayer1Win  RoundResult = "player1_win"
	RoundResultPlayer2Win  RoundResult = "player2_win"
	RoundResultPlayer1Fold RoundResult = "player1_fold"
	RoundResultPlayer2Fold RoundResult = "player2_fold"
	RoundResultTie         RoundResult = "tie"
)
