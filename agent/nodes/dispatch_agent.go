package turnnode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	agentsx "github.com/shopchat-ai/shopchat/agent/agents"
	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

// DispatchAgent invokes the agent exactly once per command. Side-effecting
// methods are never retried here; a backend transport failure ends the turn
// as a non-retryable transport outcome.
func DispatchAgent(ctx context.Context, in *GraphState, registry *agentsx.Registry) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.decided() || in.Command == nil {
		return in, nil
	}

	res, err := registry.Dispatch(ctx, *in.Command)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrTurnCancelled
		}

		var agentErr *contractx.AgentError
		if errors.As(err, &agentErr) {
			in.Result = &contractx.Result{
				Kind:    contractx.ResultAgentError,
				Command: in.Command,
				ErrKind: agentErr.Kind,
				Message: agentErr.Message,
			}
			return in, nil
		}
		if errors.Is(err, contractx.ErrBackend) {
			log.Error().Err(err).Str("agent", string(in.Command.Agent)).Str("method", in.Command.Method).
				Msg("backend unreachable")
			in.Result = &contractx.Result{
				Kind:    contractx.ResultTransportError,
				Command: in.Command,
				Reason:  err.Error(),
			}
			return in, nil
		}
		return nil, err
	}

	in.Result = &contractx.Result{
		Kind:    contractx.ResultSuccess,
		Command: in.Command,
		Reply:   res.Text,
		Payload: res.Payload,
	}
	return in, nil
}
