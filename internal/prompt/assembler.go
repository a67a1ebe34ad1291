// Package prompt builds the grounding context sent to the language model for
// a chat turn: the transcript as a system message followed by the prior
// conversation. Assembly is pure; all reads happen before the call.
package prompt

import (
	"unicode/utf8"

	"scribechat/internal/llm"
	"scribechat/internal/models"
)

const systemPreamble = "You are an assistant helping with questions about a transcribed audio. Here is the transcription:\n\n"

// Assembler turns a transcript and its chat history into LLM messages within
// a character budget. The transcript is always included, truncated to its own
// share of the budget when oversized; history is trimmed oldest-first.
// A budget of 0 disables truncation.
type Assembler struct {
	maxChars         int
	transcriptBudget float64 // fraction of maxChars reserved for the transcript
}

func NewAssembler(maxChars int) *Assembler {
	return &Assembler{
		maxChars:         maxChars,
		transcriptBudget: 0.6,
	}
}

// Assemble returns the context for the next model call. The user message
// being answered is not part of history; the chat service appends it after
// assembly.
func (a *Assembler) Assemble(transcript string, history []models.ChatMessage) []llm.Message {
	system := systemPreamble + transcript

	historyBudget := 0
	if a.maxChars > 0 {
		transcriptMax := int(float64(a.maxChars) * a.transcriptBudget)
		if len(system) > transcriptMax {
			system = truncateAtRune(system, transcriptMax)
		}
		historyBudget = a.maxChars - len(system)
	}

	messages := []llm.Message{{Role: "system", Content: system}}
	return append(messages, a.trimHistory(history, historyBudget)...)
}

// truncateAtRune cuts s to at most max bytes without splitting a multi-byte
// rune at the boundary.
func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// trimHistory keeps the most recent turns that fit the budget, preserving
// chronological order. budget <= 0 keeps everything.
func (a *Assembler) trimHistory(history []models.ChatMessage, budget int) []llm.Message {
	if a.maxChars <= 0 || budget <= 0 {
		out := make([]llm.Message, 0, len(history))
		for _, m := range history {
			out = append(out, llm.Message{Role: m.Role, Content: m.Content})
		}
		return out
	}

	used := 0
	var out []llm.Message
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if used+len(m.Content) > budget {
			break
		}
		out = append([]llm.Message{{Role: m.Role, Content: m.Content}}, out...)
		used += len(m.Content)
	}
	return out
}
