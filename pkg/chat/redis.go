package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/loyaltyiq/loyalty-engine/pkg/apperrors"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
)

// RedisStore keeps chat history in Redis, one list per session. Each session
// is marked alive by a sentinel key so an empty history is distinguishable
// from an unknown session.
//
// Sessions never expire unless a positive ttl is configured; lifecycle
// policy is the operator's concern, not the store's.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed chat store and verifies connectivity.
// ttl <= 0 keeps sessions forever.
func NewRedisStore(ctx context.Context, client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func sessionKey(id string) string { return "chat:session:" + id }
func historyKey(id string) string { return "chat:history:" + id }

// CreateSession implements Store.
func (s *RedisStore) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.client.Set(ctx, sessionKey(id), "1", s.ttl).Err(); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *RedisStore) sessionExists(ctx context.Context, sessionID string) error {
	n, err := s.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if n == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// AddMessage implements Store.
func (s *RedisStore) AddMessage(ctx context.Context, sessionID, question string, response *models.Response) error {
	if err := s.sessionExists(ctx, sessionID); err != nil {
		return err
	}

	payload, err := json.Marshal(Entry{
		Timestamp: time.Now().UTC(),
		Question:  question,
		Response:  response,
	})
	if err != nil {
		return fmt.Errorf("marshal chat entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, historyKey(sessionID), payload)
	if s.ttl > 0 {
		pipe.Expire(ctx, historyKey(sessionID), s.ttl)
		pipe.Expire(ctx, sessionKey(sessionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append chat entry: %w", err)
	}
	return nil
}

// GetHistory implements Store.
func (s *RedisStore) GetHistory(ctx context.Context, sessionID string) ([]Entry, error) {
	if err := s.sessionExists(ctx, sessionID); err != nil {
		return nil, err
	}

	raw, err := s.client.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read chat history: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal chat entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ClearHistory implements Store.
func (s *RedisStore) ClearHistory(ctx context.Context, sessionID string) error {
	if err := s.sessionExists(ctx, sessionID); err != nil {
		return err
	}

	if err := s.client.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}
