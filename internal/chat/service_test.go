package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scribechat/internal/config"
	"scribechat/internal/llm"
	"scribechat/internal/models"
	"scribechat/internal/prompt"
	"scribechat/internal/store"
)

type mockLLM struct {
	completionFunc func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
	streamFunc     func(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, error)
}

func (m *mockLLM) Name() string { return "mock" }

func (m *mockLLM) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if m.completionFunc != nil {
		return m.completionFunc(ctx, req)
	}
	return &llm.ChatResponse{Content: "mock answer"}, nil
}

func (m *mockLLM) ChatCompletionStream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	if m.streamFunc != nil {
		return m.streamFunc(ctx, req)
	}
	ch := make(chan llm.StreamChunk, 2)
	ch <- llm.StreamChunk{Content: "mock answer"}
	ch <- llm.StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

func newTestService(t *testing.T, provider llm.Provider, cfg config.ChatConfig) (*Service, *store.Memory, int64) {
	t.Helper()
	st := store.NewMemory()
	trans, err := st.InsertTranscription(context.Background(), "talk.wav", "hello world")
	require.NoError(t, err)

	svc := NewService(st, provider, prompt.NewAssembler(cfg.ContextMaxChars), cfg, "test-model")
	return svc, st, trans.ID
}

func TestAsk_PersistsBothTurnsInOrder(t *testing.T) {
	provider := &mockLLM{
		completionFunc: func(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Content: "you said hello world"}, nil
		},
	}
	svc, st, id := newTestService(t, provider, config.ChatConfig{MaxMessageLen: 1000})

	msg, err := svc.Ask(context.Background(), id, "what did I say?")
	require.NoError(t, err)
	require.Equal(t, models.RoleAssistant, msg.Role)
	require.Contains(t, msg.Content, "hello world")

	history, err := st.ListChatMessages(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.RoleUser, history[0].Role)
	require.Equal(t, "what did I say?", history[0].Content)
	require.Equal(t, models.RoleAssistant, history[1].Role)
}

func TestAsk_ContextContainsTranscriptAndNewMessageOnce(t *testing.T) {
	var got llm.ChatRequest
	provider := &mockLLM{
		completionFunc: func(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			got = req
			return &llm.ChatResponse{Content: "answer"}, nil
		},
	}
	svc, _, id := newTestService(t, provider, config.ChatConfig{MaxMessageLen: 1000})

	_, err := svc.Ask(context.Background(), id, "first question")
	require.NoError(t, err)

	require.Equal(t, "system", got.Messages[0].Role)
	require.Contains(t, got.Messages[0].Content, "hello world")

	count := 0
	for _, m := range got.Messages {
		if m.Content == "first question" {
			count++
		}
	}
	require.Equal(t, 1, count)
	require.Equal(t, "first question", got.Messages[len(got.Messages)-1].Content)
}

func TestAsk_UnknownTranscription(t *testing.T) {
	svc, st, _ := newTestService(t, &mockLLM{}, config.ChatConfig{MaxMessageLen: 1000})

	_, err := svc.Ask(context.Background(), 999, "hello?")
	require.ErrorIs(t, err, store.ErrNotFound)

	history, err := st.ListChatMessages(context.Background(), 999)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestAsk_ValidationRejectsBeforePersistence(t *testing.T) {
	svc, st, id := newTestService(t, &mockLLM{}, config.ChatConfig{MaxMessageLen: 1000})
	ctx := context.Background()

	_, err := svc.Ask(ctx, id, "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Ask(ctx, id, "   \t\n")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Ask(ctx, id, strings.Repeat("x", 1001))
	require.ErrorIs(t, err, ErrValidation)

	history, err := st.ListChatMessages(ctx, id)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestAsk_ProviderFailureLeavesUnansweredQuestion(t *testing.T) {
	provider := &mockLLM{
		completionFunc: func(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
			return nil, errors.New("connection reset")
		},
	}
	svc, st, id := newTestService(t, provider, config.ChatConfig{MaxMessageLen: 1000})

	_, err := svc.Ask(context.Background(), id, "anyone there?")
	require.ErrorIs(t, err, ErrAssistantUnavailable)

	history, err := st.ListChatMessages(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.RoleUser, history[0].Role)
	require.Equal(t, "anyone there?", history[0].Content)
}

func TestAsk_HistoryLimitBoundsContext(t *testing.T) {
	var got llm.ChatRequest
	provider := &mockLLM{
		completionFunc: func(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			got = req
			return &llm.ChatResponse{Content: "a"}, nil
		},
	}
	svc, st, id := newTestService(t, provider, config.ChatConfig{MaxMessageLen: 1000, HistoryLimit: 2})
	ctx := context.Background()

	for _, content := range []string{"q1", "a1", "q2", "a2"} {
		role := models.RoleUser
		if strings.HasPrefix(content, "a") {
			role = models.RoleAssistant
		}
		_, err := st.InsertChatMessage(ctx, id, role, content)
		require.NoError(t, err)
	}

	_, err := svc.Ask(ctx, id, "q3")
	require.NoError(t, err)

	// system + last two prior turns + new question
	require.Len(t, got.Messages, 4)
	require.Equal(t, "q2", got.Messages[1].Content)
	require.Equal(t, "a2", got.Messages[2].Content)
	require.Equal(t, "q3", got.Messages[3].Content)
}

func TestAskStream_SingleWriteWithAccumulatedText(t *testing.T) {
	provider := &mockLLM{
		streamFunc: func(context.Context, llm.ChatRequest) (<-chan llm.StreamChunk, error) {
			ch := make(chan llm.StreamChunk, 4)
			ch <- llm.StreamChunk{Content: "you said "}
			ch <- llm.StreamChunk{Content: "hello world"}
			ch <- llm.StreamChunk{Done: true}
			close(ch)
			return ch, nil
		},
	}
	svc, st, id := newTestService(t, provider, config.ChatConfig{MaxMessageLen: 1000})

	var chunks []string
	msg, err := svc.AskStream(context.Background(), id, "what did I say?", func(c string) {
		chunks = append(chunks, c)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"you said ", "hello world"}, chunks)
	require.Equal(t, "you said hello world", msg.Content)

	history, err := st.ListChatMessages(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "you said hello world", history[1].Content)
}

func TestAskStream_ProviderErrorPersistsNoAssistantTurn(t *testing.T) {
	provider := &mockLLM{
		streamFunc: func(context.Context, llm.ChatRequest) (<-chan llm.StreamChunk, error) {
			ch := make(chan llm.StreamChunk, 2)
			ch <- llm.StreamChunk{Content: "partial "}
			ch <- llm.StreamChunk{Error: errors.New("stream cut"), Done: true}
			close(ch)
			return ch, nil
		},
	}
	svc, st, id := newTestService(t, provider, config.ChatConfig{MaxMessageLen: 1000})

	_, err := svc.AskStream(context.Background(), id, "hello?", func(string) {})
	require.ErrorIs(t, err, ErrAssistantUnavailable)

	history, err := st.ListChatMessages(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.RoleUser, history[0].Role)
}

func TestAsk_ConcurrentCallsAreSerializedPerTranscription(t *testing.T) {
	provider := &mockLLM{
		completionFunc: func(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
			time.Sleep(10 * time.Millisecond)
			return &llm.ChatResponse{Content: "answer"}, nil
		},
	}
	svc, st, id := newTestService(t, provider, config.ChatConfig{MaxMessageLen: 1000})

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Ask(context.Background(), id, "concurrent question")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	history, err := st.ListChatMessages(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history, 8)
	for i, m := range history {
		want := models.RoleUser
		if i%2 == 1 {
			want = models.RoleAssistant
		}
		require.Equal(t, want, m.Role, "position %d", i)
	}
}

func TestLock_ReleasedEntriesAreRemoved(t *testing.T) {
	svc, _, id := newTestService(t, &mockLLM{}, config.ChatConfig{MaxMessageLen: 1000})

	unlockA := svc.lock(id)
	unlockB := svc.lock(id + 1)

	svc.locksMu.Lock()
	require.Len(t, svc.locks, 2)
	svc.locksMu.Unlock()

	unlockA()
	unlockB()

	svc.locksMu.Lock()
	require.Empty(t, svc.locks)
	svc.locksMu.Unlock()
}

func TestLock_MapEmptyAfterConcurrentAsks(t *testing.T) {
	svc, _, id := newTestService(t, &mockLLM{}, config.ChatConfig{MaxMessageLen: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Ask(context.Background(), id, "question")
		}()
	}
	wg.Wait()

	svc.locksMu.Lock()
	require.Empty(t, svc.locks)
	svc.locksMu.Unlock()
}

func TestHistory_ReturnsStoredTurns(t *testing.T) {
	svc, st, id := newTestService(t, &mockLLM{}, config.ChatConfig{MaxMessageLen: 1000})
	ctx := context.Background()

	_, err := st.InsertChatMessage(ctx, id, models.RoleUser, "q")
	require.NoError(t, err)
	_, err = st.InsertChatMessage(ctx, id, models.RoleAssistant, "a")
	require.NoError(t, err)

	history, err := svc.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "q", history[0].Content)
	require.Equal(t, "a", history[1].Content)
}
