package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

// Registry is the closed dispatch table from agent id to implementation. It
// is validated completely at construction: a misconfigured registry is a
// startup failure, never a per-turn error path.
type Registry struct {
	agents map[contractx.AgentID]contractx.Agent
	specs  map[contractx.AgentID]map[string]contractx.MethodSpec
}

func NewRegistry(list ...contractx.Agent) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("registry requires at least one agent")
	}

	agents := make(map[contractx.AgentID]contractx.Agent, len(list))
	specs := make(map[contractx.AgentID]map[string]contractx.MethodSpec, len(list))

	for _, a := range list {
		if a == nil {
			return nil, errors.New("registry agent is nil")
		}
		id := a.ID()
		if !contractx.KnownAgent(id) {
			return nil, fmt.Errorf("%w: %q is outside the closed agent set", contractx.ErrUnknownAgent, id)
		}
		if _, dup := agents[id]; dup {
			return nil, fmt.Errorf("agent %q registered twice", id)
		}

		methods := a.Methods()
		if len(methods) == 0 {
			return nil, fmt.Errorf("agent %q declares no methods", id)
		}
		table := make(map[string]contractx.MethodSpec, len(methods))
		for _, spec := range methods {
			if spec.Name == "" {
				return nil, fmt.Errorf("agent %q declares an unnamed method", id)
			}
			if _, dup := table[spec.Name]; dup {
				return nil, fmt.Errorf("agent %q declares method %q twice", id, spec.Name)
			}
			if spec.Cacheable && spec.CacheTTL <= 0 {
				return nil, fmt.Errorf("agent %q method %q is cacheable with no ttl", id, spec.Name)
			}
			table[spec.Name] = spec
		}

		agents[id] = a
		specs[id] = table
	}

	return &Registry{agents: agents, specs: specs}, nil
}

func MustNewRegistry(list ...contractx.Agent) *Registry {
	r, err := NewRegistry(list...)
	if err != nil {
		panic(err)
	}
	return r
}

// Specs exposes the declared method tables, e.g. for the parser.
func (r *Registry) Specs() map[contractx.AgentID]map[string]contractx.MethodSpec {
	out := make(map[contractx.AgentID]map[string]contractx.MethodSpec, len(r.specs))
	for id, table := range r.specs {
		copied := make(map[string]contractx.MethodSpec, len(table))
		for name, spec := range table {
			copied[name] = spec
		}
		out[id] = copied
	}
	return out
}

// Spec returns the declared spec for one agent method.
func (r *Registry) Spec(agent contractx.AgentID, method string) (contractx.MethodSpec, bool) {
	table, ok := r.specs[agent]
	if !ok {
		return contractx.MethodSpec{}, false
	}
	spec, ok := table[method]
	return spec, ok
}

// Dispatch routes a validated command to its agent. The orchestrator always
// receives a value, not a panic, from this boundary.
func (r *Registry) Dispatch(ctx context.Context, cmd contractx.Command) (res contractx.AgentResult, err error) {
	agent, ok := r.agents[cmd.Agent]
	if !ok {
		return contractx.AgentResult{}, fmt.Errorf("%w: %q", contractx.ErrUnknownAgent, cmd.Agent)
	}
	if _, ok := r.Spec(cmd.Agent, cmd.Method); !ok {
		return contractx.AgentResult{}, fmt.Errorf("%w: %s.%s", contractx.ErrUnknownMethod, cmd.Agent, cmd.Method)
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Any("panic", rec).Str("agent", string(cmd.Agent)).Str("method", cmd.Method).
				Msg("agent panicked")
			res = contractx.AgentResult{}
			err = &contractx.AgentError{
				Kind:    "internal",
				Message: fmt.Sprintf("agent %s failed unexpectedly", cmd.Agent),
			}
		}
	}()

	return agent.Call(ctx, cmd.Method, cmd.Params)
}
