// Package chat orchestrates one conversation turn: persist the user message,
// assemble the grounding context, call the language model, persist the
// assistant reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"scribechat/internal/config"
	"scribechat/internal/llm"
	"scribechat/internal/models"
	"scribechat/internal/prompt"
	"scribechat/internal/store"
)

var (
	// ErrValidation is returned for an empty or over-long user message,
	// before anything is persisted.
	ErrValidation = errors.New("invalid chat message")

	// ErrAssistantUnavailable is returned when the model call fails after
	// the user message was stored. The history then shows an unanswered
	// question; callers may retry just the ask.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)

type Service struct {
	store     store.Store
	provider  llm.Provider
	assembler *prompt.Assembler

	maxMessageLen int
	historyLimit  int
	model         string

	// Concurrent asks against the same transcription are serialized so the
	// stored history matches call order. Entries are refcounted and removed
	// on last unlock, so the map only holds ids with in-flight turns.
	locksMu sync.Mutex
	locks   map[int64]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(s store.Store, provider llm.Provider, assembler *prompt.Assembler, cfg config.ChatConfig, model string) *Service {
	return &Service{
		store:         s,
		provider:      provider,
		assembler:     assembler,
		maxMessageLen: cfg.MaxMessageLen,
		historyLimit:  cfg.HistoryLimit,
		model:         model,
		locks:         make(map[int64]*idLock),
	}
}

// Ask runs one full conversation turn and returns the persisted assistant
// message.
func (s *Service) Ask(ctx context.Context, transcriptionID int64, userText string) (*models.ChatMessage, error) {
	return s.ask(ctx, transcriptionID, userText, nil)
}

// AskStream runs one turn, invoking onChunk for each piece of assistant text
// as the provider produces it. The durable write happens exactly once, with
// the accumulated final text, after the stream ends cleanly.
func (s *Service) AskStream(ctx context.Context, transcriptionID int64, userText string, onChunk func(string)) (*models.ChatMessage, error) {
	return s.ask(ctx, transcriptionID, userText, onChunk)
}

func (s *Service) ask(ctx context.Context, transcriptionID int64, userText string, onChunk func(string)) (*models.ChatMessage, error) {
	unlock := s.lock(transcriptionID)
	defer unlock()

	transcript, err := s.store.GetTranscription(ctx, transcriptionID)
	if err != nil {
		return nil, err
	}

	if err := s.validate(userText); err != nil {
		return nil, err
	}

	// History is read before the user message is stored, so the turn being
	// answered appears in the context exactly once.
	history, err := s.store.ListChatMessages(ctx, transcriptionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if s.historyLimit > 0 && len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}

	if _, err := s.store.InsertChatMessage(ctx, transcriptionID, models.RoleUser, userText); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	messages := s.assembler.Assemble(transcript.Content, history)
	messages = append(messages, llm.Message{Role: models.RoleUser, Content: userText})

	answer, err := s.complete(ctx, messages, onChunk)
	if err != nil {
		slog.Warn("assistant call failed", "transcription_id", transcriptionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}

	assistant, err := s.store.InsertChatMessage(ctx, transcriptionID, models.RoleAssistant, answer)
	if err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	return assistant, nil
}

func (s *Service) complete(ctx context.Context, messages []llm.Message, onChunk func(string)) (string, error) {
	req := llm.ChatRequest{Model: s.model, Messages: messages}

	if onChunk == nil {
		resp, err := s.provider.ChatCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}

	ch, err := s.provider.ChatCompletionStream(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk := range ch {
		if chunk.Error != nil {
			return "", chunk.Error
		}
		if chunk.Content != "" {
			sb.WriteString(chunk.Content)
			onChunk(chunk.Content)
		}
		if chunk.Done {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (s *Service) validate(userText string) error {
	if strings.TrimSpace(userText) == "" {
		return fmt.Errorf("%w: message is empty", ErrValidation)
	}
	if s.maxMessageLen > 0 && len(userText) > s.maxMessageLen {
		return fmt.Errorf("%w: message exceeds %d characters", ErrValidation, s.maxMessageLen)
	}
	return nil
}

// History returns every stored turn for a transcription in creation order.
func (s *Service) History(ctx context.Context, transcriptionID int64) ([]models.ChatMessage, error) {
	return s.store.ListChatMessages(ctx, transcriptionID)
}

func (s *Service) lock(transcriptionID int64) func() {
	s.locksMu.Lock()
	l := s.locks[transcriptionID]
	if l == nil {
		l = &idLock{}
		s.locks[transcriptionID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, transcriptionID)
		}
		s.locksMu.Unlock()
	}
}
