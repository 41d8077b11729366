package store

import (
	"context"
	"errors"

	"cardduel-backend/internal/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// RoundUpdate is one atomic unit of round mutation: the round itself,
// any touched match/player/card state, and newly appended actions.
// A store must apply all of it or none of it.
type RoundUpdate struct {
	Round      *models.Round
	Match      *models.Match
	Players    []models.MatchPlayer
	Cards      []models.RoundCard
	NewActions []*models.Action
}

// Store is the durable game state collaborator. Implementations must
// provide per-round (and per-match) mutual exclusion and atomic
// application of RoundUpdate units.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateRoom(ctx context.Context, room *models.Room) error
	SaveRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetRoomByInviteCode(ctx context.Context, code string) (*models.Room, error)

	GetCardTemplates(ctx context.Context) ([]models.CardTemplate, error)
	SaveCardTemplates(ctx context.Context, templates []models.CardTemplate) error

	ReplaceDeck(ctx context.Context, matchID int64, templateIDs []int64) error
	DeckTemplateAt(ctx context.Context, matchID int64, orderNo int) (int64, error)
	DeckSize(ctx context.Context, matchID int64) (int, error)

	CreateMatch(ctx context.Context, match *models.Match) error
	SaveMatch(ctx context.Context, match *models.Match) error
	GetMatch(ctx context.Context, id int64) (*models.Match, error)
	GetLatestMatchByRoom(ctx context.Context, roomID int64) (*models.Match, error)
	SaveMatchPlayers(ctx context.Context, matchID int64, players []models.MatchPlayer) error
	GetMatchPlayers(ctx context.Context, matchID int64) ([]models.MatchPlayer, error)

	GetRound(ctx context.Context, id int64) (*models.Round, error)
	GetRoundByNo(ctx context.Context, matchID int64, roundNo int) (*models.Round, error)
	GetLatestRound(ctx context.Context, matchID int64) (*models.Round, error)
	GetRoundCards(ctx context.Context, roundID int64) ([]models.RoundCard, error)
	GetActions(ctx context.Context, roundID int64) ([]models.Action, error)

	// CommitRound applies the update as one all-or-nothing unit,
	// assigning ids to a new round and its actions.
	CommitRound(ctx context.Context, update *RoundUpdate) error

	// WithRoundLock runs fn while holding the mutual-exclusion scope
	// for the given round. Two concurrent submissions for the same
	// round are serialized through this.
	WithRoundLock(ctx context.Context, roundID int64, fn func() error) error

	// WithMatchLock serializes work that spans a match before any
	// round exists, such as starting the next round.
	WithMatchLock(ctx context.Context, matchID int64, fn func() error) error

	Close() error
}
