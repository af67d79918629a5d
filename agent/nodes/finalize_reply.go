package turnnode

import (
	"fmt"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

const (
	clarifyReply  = "Sorry, I couldn't work out what to do with that. Could you rephrase the request?"
	tryAgainReply = "The assistant is temporarily unavailable. Please try again in a moment."
)

// FinalizeReply renders the user-visible reply for the turn outcome. Parse
// and validation failures become a clarification request, agent errors pass
// through verbatim, transport failures a generic retry message. Rendering
// happens before the turn is recorded so history carries the reply the user
// actually saw.
func FinalizeReply(in *GraphState) (*GraphState, error) {
	if in == nil || in.Result == nil {
		return nil, fmt.Errorf("%w: turn has no outcome", contractx.ErrValidation)
	}

	switch in.Result.Kind {
	case contractx.ResultSuccess:
		if in.Result.Reply == "" {
			in.Result.Reply = "Done."
		}
	case contractx.ResultAgentError:
		in.Result.Reply = in.Result.Message
	case contractx.ResultParseError, contractx.ResultValidationError:
		in.Result.Reply = clarifyReply
	case contractx.ResultTransportError:
		in.Result.Reply = tryAgainReply
	default:
		return nil, fmt.Errorf("%w: unknown result kind %q", contractx.ErrValidation, in.Result.Kind)
	}

	return in, nil
}
