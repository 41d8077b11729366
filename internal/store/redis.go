package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cardduel-backend/internal/config"
	"cardduel-backend/internal/models"
)

const (
	lockTTL       = 5 * time.Second
	lockRetryWait = 25 * time.Millisecond
)

// RedisStore persists game state as JSON blobs in Redis. Round indexes
// live in sorted sets, action logs in append-only lists, and the
// per-round mutual exclusion is a SET NX lease released by script.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) nextID(ctx context.Context, kind string) (int64, error) {
	id, err := s.client.Incr(ctx, fmt.Sprintf(KeySequence, kind)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %v", kind, err)
	}
	return id, nil
}

func (s *RedisStore) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %v", key, err)
	}
	return s.client.Set(ctx, key, data, 0).Err()
}

func (s *RedisStore) getJSON(ctx context.Context, key string, out any) error {
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %v", key, err)
	}
	return json.Unmarshal([]byte(data), out)
}

func (s *RedisStore) CreateUser(ctx context.Context, user *models.User) error {
	nameKey := fmt.Sprintf(KeyUserByName, user.Username)

	id, err := s.nextID(ctx, "users")
	if err != nil {
		return err
	}

	claimed, err := s.client.SetNX(ctx, nameKey, id, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim username: %v", err)
	}
	if !claimed {
		return fmt.Errorf("username %q already taken", user.Username)
	}

	user.ID = id
	return s.setJSON(ctx, fmt.Sprintf(KeyUser, id), user)
}

func (s *RedisStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.getJSON(ctx, fmt.Sprintf(KeyUser, id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *RedisStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyUserByName, username)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %v", err)
	}

	id, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt username index for %q: %v", username, err)
	}
	return s.GetUser(ctx, id)
}

func (s *RedisStore) CreateRoom(ctx context.Context, room *models.Room) error {
	id, err := s.nextID(ctx, "rooms")
	if err != nil {
		return err
	}
	room.ID = id

	pipe := s.client.TxPipeline()
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %v", err)
	}
	pipe.Set(ctx, fmt.Sprintf(KeyRoom, id), data, 0)
	pipe.Set(ctx, fmt.Sprintf(KeyRoomByInvite, room.InviteCode), id, 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) SaveRoom(ctx context.Context, room *models.Room) error {
	return s.setJSON(ctx, fmt.Sprintf(KeyRoom, room.ID), room)
}

func (s *RedisStore) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	if err := s.getJSON(ctx, fmt.Sprintf(KeyRoom, id), &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *RedisStore) GetRoomByInviteCode(ctx context.Context, code string) (*models.Room, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyRoomByInvite, code)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("room with invite code %q: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite code: %v", err)
	}

	id, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt invite index for %q: %v", code, err)
	}
	return s.GetRoom(ctx, id)
}

func (s *RedisStore) GetCardTemplates(ctx context.Context) ([]models.CardTemplate, error) {
	var templates []models.CardTemplate
	err := s.getJSON(ctx, KeyCardTemplates, &templates)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *RedisStore) SaveCardTemplates(ctx context.Context, templates []models.CardTemplate) error {
	return s.setJSON(ctx, KeyCardTemplates, templates)
}

func (s *RedisStore) ReplaceDeck(ctx context.Context, matchID int64, templateIDs []int64) error {
	key := fmt.Sprintf(KeyMatchDeck, matchID)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(templateIDs) > 0 {
		values := make([]any, len(templateIDs))
		for i, id := range templateIDs {
			values[i] = id
		}
		pipe.RPush(ctx, key, values...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) DeckTemplateAt(ctx context.Context, matchID int64, orderNo int) (int64, error) {
	key := fmt.Sprintf(KeyMatchDeck, matchID)

	data, err := s.client.LIndex(ctx, key, int64(orderNo-1)).Result()
	if err == redis.Nil {
		return 0, fmt.Errorf("deck slot %d of match %d: %w", orderNo, matchID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read deck slot: %v", err)
	}
	return strconv.ParseInt(data, 10, 64)
}

func (s *RedisStore) DeckSize(ctx context.Context, matchID int64) (int, error) {
	size, err := s.client.LLen(ctx, fmt.Sprintf(KeyMatchDeck, matchID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read deck size: %v", err)
	}
	return int(size), nil
}

func (s *RedisStore) CreateMatch(ctx context.Context, match *models.Match) error {
	id, err := s.nextID(ctx, "matches")
	if err != nil {
		return err
	}
	match.ID = id

	data, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("failed to marshal match: %v", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, fmt.Sprintf(KeyMatch, id), data, 0)
	pipe.Set(ctx, fmt.Sprintf(KeyRoomMatch, match.RoomID), id, 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) SaveMatch(ctx context.Context, match *models.Match) error {
	return s.setJSON(ctx, fmt.Sprintf(KeyMatch, match.ID), match)
}

func (s *RedisStore) GetMatch(ctx context.Context, id int64) (*models.Match, error) {
	var match models.Match
	if err := s.getJSON(ctx, fmt.Sprintf(KeyMatch, id), &match); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *RedisStore) GetLatestMatchByRoom(ctx context.Context, roomID int64) (*models.Match, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyRoomMatch, roomID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("match for room %d: %w", roomID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up room match: %v", err)
	}

	id, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt room match index: %v", err)
	}
	return s.GetMatch(ctx, id)
}

func (s *RedisStore) SaveMatchPlayers(ctx context.Context, matchID int64, players []models.MatchPlayer) error {
	return s.setJSON(ctx, fmt.Sprintf(KeyMatchPlayers, matchID), players)
}

func (s *RedisStore) GetMatchPlayers(ctx context.Context, matchID int64) ([]models.MatchPlayer, error) {
	var players []models.MatchPlayer
	if err := s.getJSON(ctx, fmt.Sprintf(KeyMatchPlayers, matchID), &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (s *RedisStore) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	var round models.Round
	if err := s.getJSON(ctx, fmt.Sprintf(KeyRound, id), &round); err != nil {
		return nil, err
	}
	return &round, nil
}

func (s *RedisStore) GetRoundByNo(ctx context.Context, matchID int64, roundNo int) (*models.Round, error) {
	score := strconv.Itoa(roundNo)
	ids, err := s.client.ZRangeByScore(ctx, fmt.Sprintf(KeyMatchRounds, matchID), &redis.ZRangeBy{
		Min: score,
		Max: score,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to look up round index: %v", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("round %d of match %d: %w", roundNo, matchID, ErrNotFound)
	}

	id, err := strconv.ParseInt(ids[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt round index: %v", err)
	}
	return s.GetRound(ctx, id)
}

func (s *RedisStore) GetLatestRound(ctx context.Context, matchID int64) (*models.Round, error) {
	ids, err := s.client.ZRevRange(ctx, fmt.Sprintf(KeyMatchRounds, matchID), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to look up round index: %v", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("rounds of match %d: %w", matchID, ErrNotFound)
	}

	id, err := strconv.ParseInt(ids[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt round index: %v", err)
	}
	return s.GetRound(ctx, id)
}

func (s *RedisStore) GetRoundCards(ctx context.Context, roundID int64) ([]models.RoundCard, error) {
	var cards []models.RoundCard
	err := s.getJSON(ctx, fmt.Sprintf(KeyRoundCards, roundID), &cards)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *RedisStore) GetActions(ctx context.Context, roundID int64) ([]models.Action, error) {
	entries, err := s.client.LRange(ctx, fmt.Sprintf(KeyRoundActions, roundID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read action log: %v", err)
	}

	actions := make([]models.Action, 0, len(entries))
	for _, entry := range entries {
		var action models.Action
		if err := json.Unmarshal([]byte(entry), &action); err != nil {
			return nil, fmt.Errorf("corrupt action log entry: %v", err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func (s *RedisStore) CommitRound(ctx context.Context, update *RoundUpdate) error {
	round := update.Round
	if round == nil {
		return fmt.Errorf("round update without a round")
	}

	if round.ID == 0 {
		id, err := s.nextID(ctx, "rounds")
		if err != nil {
			return err
		}
		round.ID = id
	}
	for _, action := range update.NewActions {
		id, err := s.nextID(ctx, "actions")
		if err != nil {
			return err
		}
		action.ID = id
		action.RoundID = round.ID
	}

	pipe := s.client.TxPipeline()

	roundData, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %v", err)
	}
	pipe.Set(ctx, fmt.Sprintf(KeyRound, round.ID), roundData, 0)
	pipe.ZAdd(ctx, fmt.Sprintf(KeyMatchRounds, round.MatchID), redis.Z{
		Score:  float64(round.RoundNo),
		Member: round.ID,
	})

	if update.Match != nil {
		data, err := json.Marshal(update.Match)
		if err != nil {
			return fmt.Errorf("failed to marshal match: %v", err)
		}
		pipe.Set(ctx, fmt.Sprintf(KeyMatch, update.Match.ID), data, 0)
	}
	if update.Players != nil {
		data, err := json.Marshal(update.Players)
		if err != nil {
			return fmt.Errorf("failed to marshal players: %v", err)
		}
		pipe.Set(ctx, fmt.Sprintf(KeyMatchPlayers, round.MatchID), data, 0)
	}
	if update.Cards != nil {
		data, err := json.Marshal(update.Cards)
		if err != nil {
			return fmt.Errorf("failed to marshal cards: %v", err)
		}
		pipe.Set(ctx, fmt.Sprintf(KeyRoundCards, round.ID), data, 0)
	}
	for _, action := range update.NewActions {
		data, err := json.Marshal(action)
		if err != nil {
			return fmt.Errorf("failed to marshal action: %v", err)
		}
		pipe.RPush(ctx, fmt.Sprintf(KeyRoundActions, round.ID), data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to commit round update: %v", err)
	}
	return nil
}

var releaseLockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

func (s *RedisStore) withLock(ctx context.Context, key string, fn func() error) error {
	token := uuid.New().String()

	for {
		acquired, err := s.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock %s: %v", key, err)
		}
		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryWait):
		}
	}

	defer releaseLockScript.Run(ctx, s.client, []string{key}, token)

	return fn()
}

func (s *RedisStore) WithRoundLock(ctx context.Context, roundID int64, fn func() error) error {
	return s.withLock(ctx, fmt.Sprintf(KeyRoundLock, roundID), fn)
}

func (s *RedisStore) WithMatchLock(ctx context.Context, matchID int64, fn func() error) error {
	return s.withLock(ctx, fmt.Sprintf(KeyMatchLock, matchID), fn)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
