package contract

import "context"

// Oracle converts an instruction prompt into raw text. Transport retry is the
// oracle client's concern; callers see either text or a terminal error.
type Oracle interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Agent is a capability handler with a fixed declared method set. Call
// reports domain failures as *AgentError; any other error means the backend
// could not be reached.
type Agent interface {
	ID() AgentID
	Methods() []MethodSpec
	Call(ctx context.Context, method string, params map[string]any) (AgentResult, error)
}
