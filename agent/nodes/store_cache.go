package turnnode

import (
	"fmt"

	cachex "github.com/shopchat-ai/shopchat/agent/cache"
	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

// StoreCache memoizes a fresh successful result for a cacheable method.
// Cache-served and failed turns write nothing; entries are replaced, never
// updated in place.
func StoreCache(in *GraphState, cache *cachex.Cache) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Result == nil || in.Command == nil || in.Spec == nil {
		return in, nil
	}
	if in.Result.Kind != contractx.ResultSuccess || in.Result.CacheHit || !in.Spec.Cacheable {
		return in, nil
	}

	cache.Put(in.Command.Agent, in.Command.Method, in.Command.Params, contractx.AgentResult{
		Text:    in.Result.Reply,
		Payload: in.Result.Payload,
	}, in.Spec.CacheTTL)
	return in, nil
}
