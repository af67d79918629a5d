// Package turnnode holds the orchestrator graph's node functions. Each node
// advances one step of turn handling; nodes that decide a turn outcome stamp
// it on the state and let later nodes pass through, so the graph itself only
// fails on internal errors.
package turnnode

import (
	"errors"
	"time"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

var (
	ErrInvalidSession = errors.New("session key is required")
	ErrInvalidMessage = errors.New("user text is required")
	ErrTurnCancelled  = errors.New("turn cancelled before completion")
)

type GraphInput struct {
	SessionKey string
	Text       string
}

type GraphOutput struct {
	Result contractx.Result
}

// GraphState is threaded through the turn pipeline.
type GraphState struct {
	SessionKey string
	UserText   string
	TurnID     string
	Now        time.Time

	// Conversation snapshot taken under the session lock.
	ContextFacts map[string]any
	Window       []contractx.Turn

	SystemPrompt string
	UserPrompt   string

	RawOutput string
	Command   *contractx.Command
	Spec      *contractx.MethodSpec

	// Result is the turn outcome. Once set, remaining pipeline steps are
	// skipped except turn recording and reply rendering.
	Result *contractx.Result
}

func (s *GraphState) decided() bool {
	return s != nil && s.Result != nil
}
