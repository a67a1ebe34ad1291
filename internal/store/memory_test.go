package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"scribechat/internal/models"
)

func TestMemory_InsertAndGetTranscription(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	inserted, err := s.InsertTranscription(ctx, "talk.wav", "hello world")
	require.NoError(t, err)
	require.Equal(t, int64(1), inserted.ID)
	require.False(t, inserted.CreatedAt.IsZero())

	got, err := s.GetTranscription(ctx, inserted.ID)
	require.NoError(t, err)
	require.Equal(t, inserted, got)

	// Reads without intervening writes are idempotent.
	again, err := s.GetTranscription(ctx, inserted.ID)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestMemory_GetTranscription_NotFound(t *testing.T) {
	s := NewMemory()

	_, err := s.GetTranscription(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ListTranscriptions_NewestFirst(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	first, err := s.InsertTranscription(ctx, "a.wav", "one")
	require.NoError(t, err)
	second, err := s.InsertTranscription(ctx, "b.wav", "two")
	require.NoError(t, err)

	list, err := s.ListTranscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
}

func TestMemory_InsertChatMessage_DanglingReference(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	for _, id := range []int64{1, 99, -7, 0} {
		_, err := s.InsertChatMessage(ctx, id, models.RoleUser, "hi")
		require.ErrorIs(t, err, ErrDanglingReference, "id %d", id)
	}

	msgs, err := s.ListChatMessages(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestMemory_ListChatMessages_CreationOrder(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	trans, err := s.InsertTranscription(ctx, "talk.wav", "hello")
	require.NoError(t, err)

	// Inserts land so fast that created_at may collide; the id tiebreak
	// keeps the order deterministic.
	m1, err := s.InsertChatMessage(ctx, trans.ID, models.RoleUser, "q1")
	require.NoError(t, err)
	m2, err := s.InsertChatMessage(ctx, trans.ID, models.RoleAssistant, "a1")
	require.NoError(t, err)
	m3, err := s.InsertChatMessage(ctx, trans.ID, models.RoleUser, "q2")
	require.NoError(t, err)

	msgs, err := s.ListChatMessages(ctx, trans.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, []int64{m1.ID, m2.ID, m3.ID}, []int64{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestMemory_ChatHistoryIsPerTranscription(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	t1, err := s.InsertTranscription(ctx, "a.wav", "one")
	require.NoError(t, err)
	t2, err := s.InsertTranscription(ctx, "b.wav", "two")
	require.NoError(t, err)

	_, err = s.InsertChatMessage(ctx, t1.ID, models.RoleUser, "about one")
	require.NoError(t, err)
	_, err = s.InsertChatMessage(ctx, t2.ID, models.RoleUser, "about two")
	require.NoError(t, err)

	msgs, err := s.ListChatMessages(ctx, t1.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "about one", msgs[0].Content)
}
