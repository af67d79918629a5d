package turnnode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/shopchat-ai/shopchat/agent/contract"
	oraclex "github.com/shopchat-ai/shopchat/pkg/oracle"
)

// InvokeOracle asks the completion service for a command payload. Retry and
// backoff live inside the client; exhaustion becomes a transport outcome for
// this turn rather than a pipeline failure.
func InvokeOracle(ctx context.Context, in *GraphState, oracle contractx.Oracle) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	text, err := oracle.Complete(ctx, in.SystemPrompt, in.UserPrompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrTurnCancelled
		}
		log.Error().Err(err).Str("session", in.SessionKey).Msg("oracle unavailable")

		retryable := false
		var transportErr *oraclex.TransportError
		if errors.As(err, &transportErr) {
			retryable = transportErr.Retryable
		}
		in.Result = &contractx.Result{
			Kind:      contractx.ResultTransportError,
			Reason:    err.Error(),
			Retryable: retryable,
		}
		return in, nil
	}

	in.RawOutput = text
	return in, nil
}
