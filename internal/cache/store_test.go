package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"scribechat/internal/store"
)

// unreachableCache returns a Cache whose redis backend cannot be reached, so
// every cache operation fails.
func unreachableCache() *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
		MaxRetries:  -1,
	})
	return NewCache(client)
}

func TestStore_FallsBackWhenCacheUnavailable(t *testing.T) {
	mem := store.NewMemory()
	cached := NewStore(mem, unreachableCache())
	ctx := context.Background()

	inserted, err := cached.InsertTranscription(ctx, "talk.wav", "hello")
	require.NoError(t, err)

	got, err := cached.GetTranscription(ctx, inserted.ID)
	require.NoError(t, err)
	require.Equal(t, inserted.ID, got.ID)
	require.Equal(t, "hello", got.Content)
}

func TestStore_NotFoundPassesThrough(t *testing.T) {
	cached := NewStore(store.NewMemory(), unreachableCache())

	_, err := cached.GetTranscription(context.Background(), 42)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ChatOperationsDelegate(t *testing.T) {
	mem := store.NewMemory()
	cached := NewStore(mem, unreachableCache())
	ctx := context.Background()

	_, err := cached.InsertChatMessage(ctx, 7, "user", "hi")
	require.ErrorIs(t, err, store.ErrDanglingReference)

	trans, err := cached.InsertTranscription(ctx, "a.wav", "x")
	require.NoError(t, err)

	_, err = cached.InsertChatMessage(ctx, trans.ID, "user", "hi")
	require.NoError(t, err)

	msgs, err := cached.ListChatMessages(ctx, trans.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}
