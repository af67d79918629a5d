// Package memory holds short-term conversation state: the ordered turn
// sequence and the explicit context facts that survive beyond the prompt
// window.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNilConversation      = errors.New("conversation is nil")
	ErrInvalidSessionKey    = errors.New("session key is empty")
)

// Conversation is the per-session state. Turns are append-only; Context is an
// explicit key/value map set by the orchestrator or agents, never inferred.
type Conversation struct {
	SessionKey string           `json:"session_key"`
	Turns      []contractx.Turn `json:"turns,omitempty"`
	Context    map[string]any   `json:"context,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func NewConversation(sessionKey string, now time.Time) *Conversation {
	return &Conversation{
		SessionKey: sessionKey,
		Context:    make(map[string]any, 4),
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
}

// Recent returns at most n most-recent turns in chronological order. This
// bounded window, not the full history, is what prompt building embeds.
func (c *Conversation) Recent(n int) []contractx.Turn {
	if c == nil || n <= 0 || len(c.Turns) == 0 {
		return nil
	}
	if n > len(c.Turns) {
		n = len(c.Turns)
	}
	window := c.Turns[len(c.Turns)-n:]
	out := make([]contractx.Turn, len(window))
	copy(out, window)
	return out
}

// Clone deep-copies the conversation so stored state is never aliased by
// callers.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	var out Conversation
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil
	}
	if out.Context == nil {
		out.Context = make(map[string]any, 4)
	}
	return &out
}

// Store is the persistence contract for conversations.
type Store interface {
	Load(ctx context.Context, sessionKey string) (*Conversation, error)
	Save(ctx context.Context, conv *Conversation) error
	Delete(ctx context.Context, sessionKey string) error
}
