package models_test

import (
	"testing"

	"cardduel-backend/internal/models"
)

func TestGenerateInviteCode(t *testing.T) {
	code := models.GenerateInviteCode()
	if len(code) != 16 {
		t.Errorf("Invite code should be 16 characters, got %d", len(code))
	}

	other := models.GenerateInviteCode()
	if code == other {
		t.Error("Invite codes should not repeat")
	}
}

func TestCardSideValid(t *testing.T) {
	for _, side := range []models.CardSide{models.CardSideFront, models.CardSideBack, models.CardSideDouble} {
		if !side.Valid() {
			t.Errorf("Side %q should be valid", side)
		}
	}

	if models.CardSideUnset.Valid() {
		t.Error("Unset side should not be valid")
	}

	if models.CardSide("left").Valid() {
		t.Error("Unknown side should not be valid")
	}
}

func TestEffectiveValues(t *testing.T) {
	card := models.RoundCard{FrontValue: 6, BackValue: 1}

	card.ChosenSide = models.CardSideFront
	if vals := card.EffectiveValues(); len(vals) != 1 || vals[0] != 6 {
		t.Errorf("Front side should yield [6], got %v", vals)
	}

	card.ChosenSide = models.CardSideBack
	if vals := card.EffectiveValues(); len(vals) != 1 || vals[0] != 1 {
		t.Errorf("Back side should yield [1], got %v", vals)
	}

	card.ChosenSide = models.CardSideDouble
	if vals := card.EffectiveValues(); len(vals) != 2 {
		t.Errorf("Double side should yield both values, got %v", vals)
	}

	card.ChosenSide = models.CardSideUnset
	if vals := card.EffectiveValues(); vals != nil {
		t.Errorf("Unset side should yield nil, got %v", vals)
	}
}
