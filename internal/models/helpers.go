package models

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateInviteCode returns a short room invite code.
func GenerateInviteCode() string {
	code := strings.ReplaceAll(uuid.New().String(), "-", "")
	return code[:16]
}

// EffectiveValues returns the comparison set for a card under its
// chosen side: one value for front/back, both faces under double_side.
func (c *RoundCard) EffectiveValues() []int {
	switch c.ChosenSide {
	case CardSideFront:
		return []int{c.FrontValue}
	case CardSideBack:
		return []int{c.BackValue}
	case CardSideDouble:
		return []int{c.FrontValue, c.BackValue}
	}
	return nil
}
