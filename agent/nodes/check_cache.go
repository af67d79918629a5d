package turnnode

import (
	"fmt"

	"github.com/rs/zerolog/log"
	agentsx "github.com/shopchat-ai/shopchat/agent/agents"
	cachex "github.com/shopchat-ai/shopchat/agent/cache"
	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

// CheckCache serves cacheable reads from the result cache. A hit resolves the
// turn without touching the agent.
func CheckCache(in *GraphState, registry *agentsx.Registry, cache *cachex.Cache) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.decided() || in.Command == nil {
		return in, nil
	}

	spec, ok := registry.Spec(in.Command.Agent, in.Command.Method)
	if !ok {
		// Parser guarantees the method exists; reaching here means the
		// registry and parser disagree.
		return nil, fmt.Errorf("%w: %s.%s", contractx.ErrUnknownMethod, in.Command.Agent, in.Command.Method)
	}
	in.Spec = &spec

	if !spec.Cacheable {
		return in, nil
	}

	value, hit := cache.Get(in.Command.Agent, in.Command.Method, in.Command.Params)
	if !hit {
		return in, nil
	}
	cached, ok := value.(contractx.AgentResult)
	if !ok {
		return in, nil
	}

	log.Debug().Str("agent", string(in.Command.Agent)).Str("method", in.Command.Method).
		Msg("cache hit")
	in.Result = &contractx.Result{
		Kind:     contractx.ResultSuccess,
		Command:  in.Command,
		Reply:    cached.Text,
		Payload:  cached.Payload,
		CacheHit: true,
	}
	return in, nil
}
