package handlers

import (
	"errors"
	"net/http"

	"cardduel-backend/internal/services"
	"cardduel-backend/internal/store"
)

// statusForError maps engine failures onto HTTP status codes. Every
// engine sentinel is a user-correctable rejection, not a crash.
func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidRoom),
		errors.Is(err, services.ErrWrongState),
		errors.Is(err, services.ErrNotYourTurn),
		errors.Is(err, services.ErrNotAParticipant),
		errors.Is(err, services.ErrInvalidSide),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrBelowOpponent),
		errors.Is(err, services.ErrNothingToCall),
		errors.Is(err, services.ErrInsufficientChips):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
