package store

import (
	"context"
	"fmt"
	"sync"

	"cardduel-backend/internal/models"
)

// MemoryStore keeps the whole game state in process memory. It backs
// the engine tests and single-node development runs.
type MemoryStore struct {
	mu sync.RWMutex

	seq map[string]int64

	users         map[int64]*models.User
	usersByName   map[string]int64
	rooms         map[int64]*models.Room
	roomsByInvite map[string]int64

	templates []models.CardTemplate
	decks     map[int64][]int64 // matchID -> template ids in shuffled order

	matches      map[int64]*models.Match
	matchByRoom  map[int64]int64
	matchPlayers map[int64][]models.MatchPlayer

	rounds      map[int64]*models.Round
	roundByNo   map[int64]map[int]int64 // matchID -> roundNo -> roundID
	latestRound map[int64]int           // matchID -> roundNo
	roundCards  map[int64][]models.RoundCard
	actions     map[int64][]models.Action

	lockMu     sync.Mutex
	roundLocks map[int64]*sync.Mutex
	matchLocks map[int64]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seq:           make(map[string]int64),
		users:         make(map[int64]*models.User),
		usersByName:   make(map[string]int64),
		rooms:         make(map[int64]*models.Room),
		roomsByInvite: make(map[string]int64),
		decks:         make(map[int64][]int64),
		matches:       make(map[int64]*models.Match),
		matchByRoom:   make(map[int64]int64),
		matchPlayers:  make(map[int64][]models.MatchPlayer),
		rounds:        make(map[int64]*models.Round),
		roundByNo:     make(map[int64]map[int]int64),
		latestRound:   make(map[int64]int),
		roundCards:    make(map[int64][]models.RoundCard),
		actions:       make(map[int64][]models.Action),
		roundLocks:    make(map[int64]*sync.Mutex),
		matchLocks:    make(map[int64]*sync.Mutex),
	}
}

func (s *MemoryStore) nextID(kind string) int64 {
	s.seq[kind]++
	return s.seq[kind]
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByName[user.Username]; ok {
		return fmt.Errorf("username %q already taken", user.Username)
	}

	user.ID = s.nextID("users")
	u := *user
	s.users[user.ID] = &u
	s.usersByName[user.Username] = user.ID
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	u := *user
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	id, ok := s.usersByName[username]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return s.GetUser(ctx, id)
}

func (s *MemoryStore) CreateRoom(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room.ID = s.nextID("rooms")
	r := *room
	s.rooms[room.ID] = &r
	s.roomsByInvite[room.InviteCode] = room.ID
	return nil
}

func (s *MemoryStore) SaveRoom(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; !ok {
		return fmt.Errorf("room %d: %w", room.ID, ErrNotFound)
	}
	r := *room
	s.rooms[room.ID] = &r
	return nil
}

func (s *MemoryStore) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	r := *room
	return &r, nil
}

func (s *MemoryStore) GetRoomByInviteCode(ctx context.Context, code string) (*models.Room, error) {
	s.mu.RLock()
	id, ok := s.roomsByInvite[code]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("room with invite code %q: %w", code, ErrNotFound)
	}
	return s.GetRoom(ctx, id)
}

func (s *MemoryStore) GetCardTemplates(ctx context.Context) ([]models.CardTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CardTemplate, len(s.templates))
	copy(out, s.templates)
	return out, nil
}

func (s *MemoryStore) SaveCardTemplates(ctx context.Context, templates []models.CardTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates = make([]models.CardTemplate, len(templates))
	copy(s.templates, templates)
	return nil
}

func (s *MemoryStore) ReplaceDeck(ctx context.Context, matchID int64, templateIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck := make([]int64, len(templateIDs))
	copy(deck, templateIDs)
	s.decks[matchID] = deck
	return nil
}

func (s *MemoryStore) DeckTemplateAt(ctx context.Context, matchID int64, orderNo int) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deck := s.decks[matchID]
	if orderNo < 1 || orderNo > len(deck) {
		return 0, fmt.Errorf("deck slot %d of match %d: %w", orderNo, matchID, ErrNotFound)
	}
	return deck[orderNo-1], nil
}

func (s *MemoryStore) DeckSize(ctx context.Context, matchID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decks[matchID]), nil
}

func (s *MemoryStore) CreateMatch(ctx context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	match.ID = s.nextID("matches")
	m := *match
	s.matches[match.ID] = &m
	s.matchByRoom[match.RoomID] = match.ID
	return nil
}

func (s *MemoryStore) SaveMatch(ctx context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[match.ID]; !ok {
		return fmt.Errorf("match %d: %w", match.ID, ErrNotFound)
	}
	m := *match
	s.matches[match.ID] = &m
	return nil
}

func (s *MemoryStore) GetMatch(ctx context.Context, id int64) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match, ok := s.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %d: %w", id, ErrNotFound)
	}
	m := *match
	return &m, nil
}

func (s *MemoryStore) GetLatestMatchByRoom(ctx context.Context, roomID int64) (*models.Match, error) {
	s.mu.RLock()
	id, ok := s.matchByRoom[roomID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("match for room %d: %w", roomID, ErrNotFound)
	}
	return s.GetMatch(ctx, id)
}

func (s *MemoryStore) SaveMatchPlayers(ctx context.Context, matchID int64, players []models.MatchPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.MatchPlayer, len(players))
	copy(out, players)
	s.matchPlayers[matchID] = out
	return nil
}

func (s *MemoryStore) GetMatchPlayers(ctx context.Context, matchID int64) ([]models.MatchPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players, ok := s.matchPlayers[matchID]
	if !ok {
		return nil, fmt.Errorf("players of match %d: %w", matchID, ErrNotFound)
	}
	out := make([]models.MatchPlayer, len(players))
	copy(out, players)
	return out, nil
}

func (s *MemoryStore) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	round, ok := s.rounds[id]
	if !ok {
		return nil, fmt.Errorf("round %d: %w", id, ErrNotFound)
	}
	r := *round
	return &r, nil
}

func (s *MemoryStore) GetRoundByNo(ctx context.Context, matchID int64, roundNo int) (*models.Round, error) {
	s.mu.RLock()
	id, ok := s.roundByNo[matchID][roundNo]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("round %d of match %d: %w", roundNo, matchID, ErrNotFound)
	}
	return s.GetRound(ctx, id)
}

func (s *MemoryStore) GetLatestRound(ctx context.Context, matchID int64) (*models.Round, error) {
	s.mu.RLock()
	no, ok := s.latestRound[matchID]
	var id int64
	if ok {
		id = s.roundByNo[matchID][no]
	}
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("rounds of match %d: %w", matchID, ErrNotFound)
	}
	return s.GetRound(ctx, id)
}

func (s *MemoryStore) GetRoundCards(ctx context.Context, roundID int64) ([]models.RoundCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cards := s.roundCards[roundID]
	out := make([]models.RoundCard, len(cards))
	copy(out, cards)
	return out, nil
}

func (s *MemoryStore) GetActions(ctx context.Context, roundID int64) ([]models.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	actions := s.actions[roundID]
	out := make([]models.Action, len(actions))
	copy(out, actions)
	return out, nil
}

func (s *MemoryStore) CommitRound(ctx context.Context, update *RoundUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := update.Round
	if round == nil {
		return fmt.Errorf("round update without a round")
	}

	if round.ID == 0 {
		round.ID = s.nextID("rounds")
	}
	r := *round
	s.rounds[round.ID] = &r

	if _, ok := s.roundByNo[round.MatchID]; !ok {
		s.roundByNo[round.MatchID] = make(map[int]int64)
	}
	s.roundByNo[round.MatchID][round.RoundNo] = round.ID
	if round.RoundNo > s.latestRound[round.MatchID] {
		s.latestRound[round.MatchID] = round.RoundNo
	}

	if update.Match != nil {
		m := *update.Match
		s.matches[m.ID] = &m
	}
	if update.Players != nil {
		players := make([]models.MatchPlayer, len(update.Players))
		copy(players, update.Players)
		s.matchPlayers[round.MatchID] = players
	}
	if update.Cards != nil {
		cards := make([]models.RoundCard, len(update.Cards))
		copy(cards, update.Cards)
		s.roundCards[round.ID] = cards
	}
	for _, action := range update.NewActions {
		action.ID = s.nextID("actions")
		action.RoundID = round.ID
		s.actions[round.ID] = append(s.actions[round.ID], *action)
	}

	return nil
}

func (s *MemoryStore) WithRoundLock(ctx context.Context, roundID int64, fn func() error) error {
	mu := s.keyedLock(s.roundLocks, roundID)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

func (s *MemoryStore) WithMatchLock(ctx context.Context, matchID int64, fn func() error) error {
	mu := s.keyedLock(s.matchLocks, matchID)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

func (s *MemoryStore) keyedLock(locks map[int64]*sync.Mutex, id int64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	mu, ok := locks[id]
	if !ok {
		mu = &sync.Mutex{}
		locks[id] = mu
	}
	return mu
}

func (s *MemoryStore) Close() error {
	return nil
}
