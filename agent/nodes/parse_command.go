package turnnode

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/shopchat-ai/shopchat/agent/contract"
	parsex "github.com/shopchat-ai/shopchat/agent/parse"
)

// ParseCommand validates the oracle output. Failures still become turns so
// the oracle can self-correct from history on the next attempt; dispatch
// never sees a malformed command.
func ParseCommand(in *GraphState, parser *parsex.Parser) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.decided() {
		return in, nil
	}

	cmd, err := parser.Parse(in.RawOutput)
	if err != nil {
		kind := contractx.ResultParseError
		if errors.Is(err, contractx.ErrValidation) {
			kind = contractx.ResultValidationError
		}

		reason := err.Error()
		raw := in.RawOutput
		var parseErr *parsex.Error
		if errors.As(err, &parseErr) {
			reason = parseErr.Reason
			raw = parseErr.Raw
		}
		log.Warn().Str("session", in.SessionKey).Str("reason", reason).Msg("oracle output rejected")

		in.Result = &contractx.Result{
			Kind:    kind,
			RawText: raw,
			Reason:  reason,
		}
		return in, nil
	}

	in.Command = &cmd
	return in, nil
}
