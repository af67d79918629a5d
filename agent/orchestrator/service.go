// Package orchestrator composes the turn-handling pipeline: prompt building,
// oracle invocation, command parsing, cache lookup, agent dispatch and
// conversation bookkeeping. It is the error boundary for a turn: every
// outcome comes back as a contract.Result value.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	agentsx "github.com/shopchat-ai/shopchat/agent/agents"
	cachex "github.com/shopchat-ai/shopchat/agent/cache"
	contractx "github.com/shopchat-ai/shopchat/agent/contract"
	memoryx "github.com/shopchat-ai/shopchat/agent/memory"
	nodex "github.com/shopchat-ai/shopchat/agent/nodes"
	parsex "github.com/shopchat-ai/shopchat/agent/parse"
	promptx "github.com/shopchat-ai/shopchat/agent/prompt"
)

var (
	ErrInvalidSession = nodex.ErrInvalidSession
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrTurnCancelled  = nodex.ErrTurnCancelled
)

const defaultWindow = 6

type Config struct {
	// Window bounds how many recent turns are embedded in the prompt.
	Window int
}

type Orchestrator struct {
	oracle   contractx.Oracle
	registry *agentsx.Registry
	memory   *memoryx.Manager
	cache    *cachex.Cache
	parser   *parsex.Parser

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	systemPrompt string
	window       int

	now   func() time.Time
	newID func() string
}

func New(
	oracle contractx.Oracle,
	registry *agentsx.Registry,
	memory *memoryx.Manager,
	cache *cachex.Cache,
	cfg Config,
) (*Orchestrator, error) {
	if oracle == nil {
		return nil, errors.New("oracle client is required")
	}
	if registry == nil {
		return nil, errors.New("agent registry is required")
	}
	if memory == nil {
		return nil, errors.New("conversation memory is required")
	}
	if cache == nil {
		cache = cachex.New()
	}

	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}

	o := &Orchestrator{
		oracle:       oracle,
		registry:     registry,
		memory:       memory,
		cache:        cache,
		parser:       parsex.New(registry.Specs()),
		systemPrompt: promptx.System(),
		window:       window,
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
	}

	graphRunner, err := o.compileHandleTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// WithClock overrides the time source. Used by tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	if now != nil {
		o.now = now
	}
	return o
}

// HandleTurn runs one full turn for sessionKey. Turns for the same session
// are serialized in submission order; distinct sessions run concurrently.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionKey, userText string) (contractx.Result, error) {
	key := strings.TrimSpace(sessionKey)
	if key == "" {
		return contractx.Result{}, ErrInvalidSession
	}

	release := o.memory.Acquire(key)
	defer release()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionKey: key,
		Text:       userText,
	})
	if err != nil {
		return contractx.Result{}, err
	}
	return out.Result, nil
}
