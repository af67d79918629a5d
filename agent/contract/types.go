package contract

import (
	"time"
)

// AgentID identifies a capability agent. The set is closed: the parser
// rejects any value outside it before dispatch is attempted.
type AgentID string

const (
	AgentInfo     AgentID = "info"
	AgentAction   AgentID = "action"
	AgentResearch AgentID = "research"
)

// KnownAgent reports whether id belongs to the closed agent set.
func KnownAgent(id AgentID) bool {
	switch id {
	case AgentInfo, AgentAction, AgentResearch:
		return true
	}
	return false
}

// Command is the structured payload decoded from oracle output. It is the
// wire contract between the completion oracle and the parser: exactly the
// fields agent, method and params.
type Command struct {
	Agent  AgentID        `json:"agent"`
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

// MethodSpec declares one operation an agent exposes. Cacheable methods are
// read-only and safely repeatable; everything else is side-effecting and is
// never cached or silently retried.
type MethodSpec struct {
	Name      string
	Cacheable bool
	CacheTTL  time.Duration
	Required  []string
	Optional  []string
}

// AgentResult is a successful agent outcome: a user-facing text plus an
// optional structured payload.
type AgentResult struct {
	Text    string
	Payload any
}

// AgentError is a domain-level failure reported by an agent, e.g. a product
// that does not exist or a backend rejection. It crosses the dispatch
// boundary as a value, never as a panic.
type AgentError struct {
	Kind    string
	Message string
}

func (e *AgentError) Error() string {
	return e.Kind + ": " + e.Message
}

// ResultKind tags the outcome of a turn.
type ResultKind string

const (
	ResultSuccess         ResultKind = "success"
	ResultAgentError      ResultKind = "agent_error"
	ResultParseError      ResultKind = "parse_error"
	ResultValidationError ResultKind = "validation_error"
	ResultTransportError  ResultKind = "transport_error"
)

// Result is the single outcome of a turn. Exactly one Result is produced per
// command; the orchestrator never lets any of the underlying failures escape
// as an error.
type Result struct {
	Kind    ResultKind
	Reply   string
	Payload any

	// Command is set once parsing succeeded, regardless of what happened after.
	Command *Command

	// ErrKind and Message describe an agent_error outcome.
	ErrKind string
	Message string

	// RawText preserves the original oracle output on parse failures.
	RawText string
	// Reason is the diagnostic for parse/validation failures.
	Reason string

	Retryable bool
	CacheHit  bool
}

// Turn is one user-message/response cycle. Immutable once appended to a
// conversation.
type Turn struct {
	ID        string     `json:"id"`
	UserText  string     `json:"user_text"`
	Command   *Command   `json:"command,omitempty"`
	Outcome   ResultKind `json:"outcome"`
	Reply     string     `json:"reply,omitempty"`
	ErrDetail string     `json:"err_detail,omitempty"`
	CacheHit  bool       `json:"cache_hit,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
