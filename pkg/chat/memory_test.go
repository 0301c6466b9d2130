package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyaltyiq/loyalty-engine/pkg/apperrors"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.CreateSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// New session starts empty
	history, err := store.GetHistory(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)

	resp := &models.Response{SQLQuery: "SELECT 1", Data: []map[string]any{{"total": 170618272}}}
	require.NoError(t, store.AddMessage(ctx, id, "how many points?", resp))
	require.NoError(t, store.AddMessage(ctx, id, "where did they come from?", resp))

	history, err = store.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "how many points?", history[0].Question)
	assert.Equal(t, "where did they come from?", history[1].Question)
	assert.False(t, history[0].Timestamp.IsZero())

	// Clearing keeps the session alive with empty history
	require.NoError(t, store.ClearHistory(ctx, id))
	history, err = store.GetHistory(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)
	require.NoError(t, store.AddMessage(ctx, id, "still here?", resp))
}

func TestMemoryStoreUnknownSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.AddMessage(ctx, "no-such-session", "q", &models.Response{})
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	_, err = store.GetHistory(ctx, "no-such-session")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	err = store.ClearHistory(ctx, "no-such-session")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestMemoryStoreSessionIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a, err := store.CreateSession(ctx)
	require.NoError(t, err)
	b, err := store.CreateSession(ctx)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	require.NoError(t, store.AddMessage(ctx, a, "question in a", &models.Response{}))

	historyB, err := store.GetHistory(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, historyB)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.CreateSession(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.AddMessage(ctx, id, "q", &models.Response{})
			_, _ = store.GetHistory(ctx, id)
		}()
	}
	wg.Wait()

	history, err := store.GetHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 20)
}
