package services

import "cardduel-backend/internal/models"

// Broadcaster is the notification-only publish hook invoked after
// round or match state changes. Delivery is best-effort; the engine
// never depends on it succeeding.
type Broadcaster interface {
	BroadcastRoundUpdate(roomID int64, round *models.Round)
	BroadcastMatchEnded(roomID int64, match *models.Match)
}
