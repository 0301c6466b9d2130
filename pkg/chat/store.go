// Package chat manages per-session conversation history.
package chat

import (
	"context"
	"time"

	"github.com/loyaltyiq/loyalty-engine/pkg/models"
)

// Entry is one completed question/response exchange in a session.
type Entry struct {
	Timestamp time.Time        `json:"timestamp"`
	Question  string           `json:"question"`
	Response  *models.Response `json:"response"`
}

// Store persists chat sessions and their history.
type Store interface {
	// CreateSession creates a new session and returns its ID.
	CreateSession(ctx context.Context) (string, error)

	// AddMessage appends an exchange to an existing session.
	// Returns apperrors.ErrSessionNotFound for unknown sessions.
	AddMessage(ctx context.Context, sessionID, question string, response *models.Response) error

	// GetHistory returns all entries for a session in chronological order.
	// Returns apperrors.ErrSessionNotFound for unknown sessions.
	GetHistory(ctx context.Context, sessionID string) ([]Entry, error)

	// ClearHistory removes all entries but keeps the session alive.
	// Returns apperrors.ErrSessionNotFound for unknown sessions.
	ClearHistory(ctx context.Context, sessionID string) error
}
