// Package engine wraps a trained persona profile into something that can
// answer free-text input. Personas without a completed profile get a
// fallback engine whose every reply is a fixed apology.
package engine

import (
	"context"
	"encoding/json"

	"github.com/philm28/always/internal/ai"
	"github.com/philm28/always/internal/models"
)

// FallbackReply is returned for every message sent to an untrained persona.
const FallbackReply = "I'm sorry, I'm not ready to talk yet. Please upload some memories and finish my training first."

// Completer is the slice of the AI client the engine needs.
type Completer interface {
	Complete(ctx context.Context, model string, messages []ai.Message, maxTokens int, temperature float64) (string, error)
	ChatModel() string
}

// The engine keeps only the last turns of the transcript in the prompt.
const historyWindow = 20

type Engine struct {
	systemPrompt string
	voice        *models.VoiceCharacteristics
	ai           Completer
	trained      bool
}

// Load builds the engine for a persona. The persona is trained when a
// system prompt was persisted by the final training stage.
func Load(persona *models.Persona, completer Completer) *Engine {
	e := &Engine{ai: completer}

	if persona.SystemPrompt.Valid && persona.SystemPrompt.String != "" {
		e.trained = true
		e.systemPrompt = persona.SystemPrompt.String

		if len(persona.VoiceCharacteristics) > 0 {
			var voice models.VoiceCharacteristics
			if err := json.Unmarshal(persona.VoiceCharacteristics, &voice); err == nil {
				e.voice = &voice
			}
		}
	}

	return e
}

// Ready reports whether a trained profile backs this engine.
func (e *Engine) Ready() bool { return e.trained }

// Voice returns the persona's voice characteristics, if trained with any.
func (e *Engine) Voice() *models.VoiceCharacteristics { return e.voice }

// Reply answers one user message given the session transcript so far.
// Untrained personas always get FallbackReply without any API call.
func (e *Engine) Reply(ctx context.Context, history []models.Message, userMessage string) (string, error) {
	if !e.trained {
		return FallbackReply, nil
	}

	messages := []ai.Message{ai.Text("system", e.systemPrompt)}

	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	for _, msg := range history[start:] {
		role := "user"
		if msg.SenderType == models.SenderPersona {
			role = "assistant"
		}
		messages = append(messages, ai.Text(role, msg.Content))
	}
	messages = append(messages, ai.Text("user", userMessage))

	return e.ai.Complete(ctx, e.ai.ChatModel(), messages, 500, 0.8)
}
