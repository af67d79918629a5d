package turnnode

import (
	"context"
	"fmt"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
	memoryx "github.com/shopchat-ai/shopchat/agent/memory"
)

func LoadConversation(
	ctx context.Context,
	in *GraphState,
	mem *memoryx.Manager,
	window int,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	conv, err := mem.LoadOrCreate(ctx, in.SessionKey)
	if err != nil {
		return nil, err
	}

	in.ContextFacts = make(map[string]any, len(conv.Context))
	for k, v := range conv.Context {
		in.ContextFacts[k] = v
	}
	in.Window = conv.Recent(window)
	return in, nil
}
