package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"cardduel-backend/internal/models"
	"cardduel-backend/internal/store"
)

// DeckService builds the card template catalog and owns the shuffled
// per-match deck. Shuffles are fully determined by the match seed, so
// the card at any slot is reproducible from (seed, slot) alone.
type DeckService struct {
	store store.Store
}

func NewDeckService(st store.Store) *DeckService {
	return &DeckService{store: st}
}

// NewDeckSeed draws a fresh shuffle seed for a match.
func NewDeckSeed() int64 {
	return rand.Int63n(1_000_000) + 1
}

// DeckPositionsForRound returns the two 1-based slots consumed by a
// round: one card per seat.
func DeckPositionsForRound(roundNo int) (int, int) {
	return (roundNo-1)*2 + 1, (roundNo-1)*2 + 2
}

// EnsureCardTemplates generates the fixed catalog once: every
// (front, back) pair with front even and back odd, then front odd and
// back even, values 1..9, one copy each. Safe to call repeatedly.
func (s *DeckService) EnsureCardTemplates(ctx context.Context) error {
	existing, err := s.store.GetCardTemplates(ctx)
	if err != nil {
		return fmt.Errorf("failed to check card catalog: %v", err)
	}
	if len(existing) > 0 {
		return nil
	}

	var templates []models.CardTemplate
	id := int64(1)
	for front := 2; front <= 8; front += 2 {
		for back := 1; back <= 9; back += 2 {
			templates = append(templates, models.CardTemplate{
				ID: id, FrontValue: front, BackValue: back, Copies: 1,
			})
			id++
		}
	}
	for front := 1; front <= 9; front += 2 {
		for back := 2; back <= 8; back += 2 {
			templates = append(templates, models.CardTemplate{
				ID: id, FrontValue: front, BackValue: back, Copies: 1,
			})
			id++
		}
	}

	return s.store.SaveCardTemplates(ctx, templates)
}

// ShuffleDeck replaces the match's deck slots with a fresh sequence
// shuffled deterministically from the match seed.
func (s *DeckService) ShuffleDeck(ctx context.Context, match *models.Match) error {
	templates, err := s.store.GetCardTemplates(ctx)
	if err != nil {
		return fmt.Errorf("failed to load card catalog: %v", err)
	}
	if len(templates) == 0 {
		if err := s.EnsureCardTemplates(ctx); err != nil {
			return err
		}
		templates, err = s.store.GetCardTemplates(ctx)
		if err != nil {
			return fmt.Errorf("failed to load card catalog: %v", err)
		}
	}

	var deck []int64
	for _, template := range templates {
		for i := 0; i < template.Copies; i++ {
			deck = append(deck, template.ID)
		}
	}

	rng := rand.New(rand.NewSource(match.DeckSeed))
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	return s.store.ReplaceDeck(ctx, match.ID, deck)
}

// DealCard returns the face values at the given 1-based slot. A missing
// slot means the deck is exhausted: a new seed is drawn, the deck is
// fully reshuffled and the first slot of the fresh deck is served.
func (s *DeckService) DealCard(ctx context.Context, match *models.Match, position int) (int, int, error) {
	templateID, err := s.store.DeckTemplateAt(ctx, match.ID, position)
	if errors.Is(err, store.ErrNotFound) {
		templates, terr := s.store.GetCardTemplates(ctx)
		if terr != nil {
			return 0, 0, fmt.Errorf("failed to load card catalog: %v", terr)
		}
		if len(templates) == 0 {
			return 0, 0, ErrDeckExhausted
		}

		match.DeckSeed = NewDeckSeed()
		if err := s.store.SaveMatch(ctx, match); err != nil {
			return 0, 0, fmt.Errorf("failed to persist new deck seed: %v", err)
		}
		if err := s.ShuffleDeck(ctx, match); err != nil {
			return 0, 0, err
		}

		templateID, err = s.store.DeckTemplateAt(ctx, match.ID, 1)
		if err != nil {
			return 0, 0, ErrDeckExhausted
		}
	} else if err != nil {
		return 0, 0, fmt.Errorf("failed to read deck slot: %v", err)
	}

	template, err := s.templateByID(ctx, templateID)
	if err != nil {
		return 0, 0, err
	}
	return template.FrontValue, template.BackValue, nil
}

// RemainingCards returns the current deck size for a match.
func (s *DeckService) RemainingCards(ctx context.Context, matchID int64) (int, error) {
	return s.store.DeckSize(ctx, matchID)
}

func (s *DeckService) templateByID(ctx context.Context, id int64) (*models.CardTemplate, error) {
	templates, err := s.store.GetCardTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load card catalog: %v", err)
	}
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], nil
		}
	}
	return nil, fmt.Errorf("card template %d missing from catalog", id)
}
