package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loyaltyiq/loyalty-engine/pkg/apperrors"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
)

// MemoryStore keeps chat history in process memory. Sessions do not survive
// a restart; use the Redis store when persistence matters.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Entry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory chat store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Entry)}
}

// CreateSession implements Store.
func (s *MemoryStore) CreateSession(_ context.Context) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = []Entry{}

	return id, nil
}

// AddMessage implements Store.
func (s *MemoryStore) AddMessage(_ context.Context, sessionID, question string, response *models.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.sessions[sessionID]
	if !ok {
		return apperrors.ErrSessionNotFound
	}

	s.sessions[sessionID] = append(entries, Entry{
		Timestamp: time.Now().UTC(),
		Question:  question,
		Response:  response,
	})
	return nil
}

// GetHistory implements Store.
func (s *MemoryStore) GetHistory(_ context.Context, sessionID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}

	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// ClearHistory implements Store.
func (s *MemoryStore) ClearHistory(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return apperrors.ErrSessionNotFound
	}

	s.sessions[sessionID] = []Entry{}
	return nil
}
