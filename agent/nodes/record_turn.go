package turnnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/shopchat-ai/shopchat/agent/contract"
	memoryx "github.com/shopchat-ai/shopchat/agent/memory"
)

// RecordTurn appends the finished turn, rendered reply included, to
// conversation memory and records durable context facts. A cancelled turn is
// never appended as if it completed.
func RecordTurn(ctx context.Context, in *GraphState, mem *memoryx.Manager) (GraphOutput, error) {
	if in == nil || in.Result == nil {
		return GraphOutput{}, fmt.Errorf("%w: turn has no outcome", contractx.ErrValidation)
	}
	if ctx.Err() != nil {
		return GraphOutput{}, ErrTurnCancelled
	}

	turn := contractx.Turn{
		ID:        in.TurnID,
		UserText:  in.UserText,
		Command:   in.Command,
		Outcome:   in.Result.Kind,
		Reply:     in.Result.Reply,
		CacheHit:  in.Result.CacheHit,
		CreatedAt: in.Now.UTC(),
	}
	switch in.Result.Kind {
	case contractx.ResultAgentError:
		turn.ErrDetail = in.Result.Message
	case contractx.ResultParseError, contractx.ResultValidationError:
		turn.ErrDetail = in.Result.Reason
	case contractx.ResultTransportError:
		turn.ErrDetail = in.Result.Reason
	}

	if err := mem.Append(ctx, in.SessionKey, turn); err != nil {
		return GraphOutput{}, err
	}

	if in.Result.Kind == contractx.ResultSuccess && in.Command != nil {
		recordContextFacts(ctx, in, mem)
	}
	return GraphOutput{Result: *in.Result}, nil
}

// recordContextFacts keeps the ids the user most recently touched, so later
// turns can say "that product" and the oracle can resolve it.
func recordContextFacts(ctx context.Context, in *GraphState, mem *memoryx.Manager) {
	facts := map[string]string{
		"product_id":  "last_product_id",
		"order_id":    "last_order_id",
		"customer_id": "last_customer_id",
	}
	for param, fact := range facts {
		value, ok := in.Command.Params[param]
		if !ok {
			continue
		}
		if err := mem.SetContext(ctx, in.SessionKey, fact, value); err != nil {
			log.Warn().Err(err).Str("session", in.SessionKey).Str("fact", fact).
				Msg("set context fact failed")
		}
	}
}
