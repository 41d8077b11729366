package services_test

import (
	"context"
	"testing"
	"time"

	"cardduel-backend/internal/models"
	"cardduel-backend/internal/services"
	"cardduel-backend/internal/store"
)

func newTestMatch(t *testing.T, st *store.MemoryStore, seed int64) *models.Match {
	t.Helper()

	match := &models.Match{
		RoomID:    1,
		Status:    models.MatchStatusActive,
		DeckSeed:  seed,
		Settings:  map[string]any{},
		CreatedAt: time.Now(),
	}
	if err := st.CreateMatch(context.Background(), match); err != nil {
		t.Fatalf("Failed to create match: %v", err)
	}
	return match
}

func TestEnsureCardTemplates(t *testing.T) {
	st := store.NewMemoryStore()
	deck := services.NewDeckService(st)
	ctx := context.Background()

	if err := deck.EnsureCardTemplates(ctx); err != nil {
		t.Fatalf("Failed to generate catalog: %v", err)
	}

	templates, err := st.GetCardTemplates(ctx)
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}

	if len(templates) != 40 {
		t.Fatalf("Expected 40 templates, got %d", len(templates))
	}

	seen := make(map[[2]int]bool)
	for _, tpl := range templates {
		if tpl.Copies != 1 {
			t.Errorf("Template %d should have 1 copy, got %d", tpl.ID, tpl.Copies)
		}
		if tpl.FrontValue < 1 || tpl.FrontValue > 9 || tpl.BackValue < 1 || tpl.BackValue > 9 {
			t.Errorf("Template %d has values out of range: (%d, %d)", tpl.ID, tpl.FrontValue, tpl.BackValue)
		}
		if tpl.FrontValue%2 == tpl.BackValue%2 {
			t.Errorf("Template %d should have opposite parity faces, got (%d, %d)", tpl.ID, tpl.FrontValue, tpl.BackValue)
		}
		pair := [2]int{tpl.FrontValue, tpl.BackValue}
		if seen[pair] {
			t.Errorf("Duplicate template pair (%d, %d)", tpl.FrontValue, tpl.BackValue)
		}
		seen[pair] = true
	}

	// Second run must be a no-op.
	if err := deck.EnsureCardTemplates(ctx); err != nil {
		t.Fatalf("Second catalog run failed: %v", err)
	}
	templates, _ = st.GetCardTemplates(ctx)
	if len(templates) != 40 {
		t.Errorf("Catalog generation should be idempotent, got %d templates", len(templates))
	}
}

func TestShuffleDeterministic(t *testing.T) {
	st := store.NewMemoryStore()
	deck := services.NewDeckService(st)
	ctx := context.Background()

	if err := deck.EnsureCardTemplates(ctx); err != nil {
		t.Fatalf("Failed to generate catalog: %v", err)
	}

	matchA := newTestMatch(t, st, 42)
	matchB := newTestMatch(t, st, 42)

	if err := deck.ShuffleDeck(ctx, matchA); err != nil {
		t.Fatalf("Failed to shuffle deck A: %v", err)
	}
	if err := deck.ShuffleDeck(ctx, matchB); err != nil {
		t.Fatalf("Failed to shuffle deck B: %v", err)
	}

	sizeA, _ := st.DeckSize(ctx, matchA.ID)
	if sizeA != 40 {
		t.Fatalf("Expected 40 deck slots, got %d", sizeA)
	}

	for pos := 1; pos <= 40; pos++ {
		a, err := st.DeckTemplateAt(ctx, matchA.ID, pos)
		if err != nil {
			t.Fatalf("Failed to read slot %d: %v", pos, err)
		}
		b, err := st.DeckTemplateAt(ctx, matchB.ID, pos)
		if err != nil {
			t.Fatalf("Failed to read slot %d: %v", pos, err)
		}
		if a != b {
			t.Fatalf("Slot %d differs between identically seeded decks: %d vs %d", pos, a, b)
		}
	}

	// Reshuffling with the same seed must reproduce the sequence.
	first, _ := st.DeckTemplateAt(ctx, matchA.ID, 1)
	if err := deck.ShuffleDeck(ctx, matchA); err != nil {
		t.Fatalf("Failed to reshuffle: %v", err)
	}
	again, _ := st.DeckTemplateAt(ctx, matchA.ID, 1)
	if first != again {
		t.Errorf("Reshuffle with the same seed changed slot 1: %d vs %d", first, again)
	}
}

func TestDealCard(t *testing.T) {
	st := store.NewMemoryStore()
	deck := services.NewDeckService(st)
	ctx := context.Background()

	if err := deck.EnsureCardTemplates(ctx); err != nil {
		t.Fatalf("Failed to generate catalog: %v", err)
	}

	match := newTestMatch(t, st, 7)
	if err := deck.ShuffleDeck(ctx, match); err != nil {
		t.Fatalf("Failed to shuffle: %v", err)
	}

	front1, back1, err := deck.DealCard(ctx, match, 1)
	if err != nil {
		t.Fatalf("Failed to deal slot 1: %v", err)
	}
	front2, back2, err := deck.DealCard(ctx, match, 1)
	if err != nil {
		t.Fatalf("Failed to re-deal slot 1: %v", err)
	}
	if front1 != front2 || back1 != back2 {
		t.Errorf("Dealing the same slot twice should be stable: (%d,%d) vs (%d,%d)", front1, back1, front2, back2)
	}
}

func TestDealCardReshufflesWhenExhausted(t *testing.T) {
	st := store.NewMemoryStore()
	deck := services.NewDeckService(st)
	ctx := context.Background()

	if err := deck.EnsureCardTemplates(ctx); err != nil {
		t.Fatalf("Failed to generate catalog: %v", err)
	}

	match := newTestMatch(t, st, 7)
	if err := deck.ShuffleDeck(ctx, match); err != nil {
		t.Fatalf("Failed to shuffle: %v", err)
	}
	oldSeed := match.DeckSeed

	front, back, err := deck.DealCard(ctx, match, 41)
	if err != nil {
		t.Fatalf("Dealing past the deck should reshuffle, got error: %v", err)
	}
	if front < 1 || front > 9 || back < 1 || back > 9 {
		t.Errorf("Dealt card has values out of range: (%d, %d)", front, back)
	}

	if match.DeckSeed == oldSeed {
		t.Error("Reshuffle should draw a fresh seed")
	}

	stored, err := st.GetMatch(ctx, match.ID)
	if err != nil {
		t.Fatalf("Failed to reload match: %v", err)
	}
	if stored.DeckSeed != match.DeckSeed {
		t.Error("New seed should be persisted on the match")
	}

	size, _ := st.DeckSize(ctx, match.ID)
	if size != 40 {
		t.Errorf("Reshuffle should fully replace the deck, got %d slots", size)
	}
}

func TestDealCardWithoutCatalog(t *testing.T) {
	st := store.NewMemoryStore()
	deck := services.NewDeckService(st)
	ctx := context.Background()

	match := newTestMatch(t, st, 7)

	_, _, err := deck.DealCard(ctx, match, 1)
	if err != services.ErrDeckExhausted {
		t.Errorf("Expected ErrDeckExhausted without a catalog, got %v", err)
	}
}

func TestDeckPositionsForRound(t *testing.T) {
	cases := []struct {
		roundNo    int
		pos1, pos2 int
	}{
		{1, 1, 2},
		{2, 3, 4},
		{10, 19, 20},
	}
	for _, tc := range cases {
		pos1, pos2 := services.DeckPositionsForRound(tc.roundNo)
		if pos1 != tc.pos1 || pos2 != tc.pos2 {
			t.Errorf("Round %d: expected slots (%d,%d), got (%d,%d)", tc.roundNo, tc.pos1, tc.pos2, pos1, pos2)
		}
	}
}
