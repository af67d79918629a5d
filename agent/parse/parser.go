// Package parse turns raw oracle output into a validated command. The oracle
// is untrusted input: either a single well-formed payload is extracted and
// validated, or a typed error preserves the original text. No best-guess
// commands.
package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

// Specs indexes each registered agent's declared methods. Built from the
// registry at startup so the parser rejects unknown agents and methods at the
// boundary instead of deferring to dispatch.
type Specs map[contractx.AgentID]map[string]contractx.MethodSpec

// Error is a parse or validation failure. Raw keeps the oracle output
// unchanged for diagnostics; Kind is one of the contract sentinels.
type Error struct {
	Raw    string
	Reason string
	Kind   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

type Parser struct {
	specs Specs
}

func New(specs Specs) *Parser {
	return &Parser{specs: specs}
}

type envelope struct {
	Agent  string         `json:"agent"`
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

// Parse extracts the command payload from raw, tolerating surrounding prose,
// whitespace and code fences, then validates it against the declared method
// schema.
func (p *Parser) Parse(raw string) (contractx.Command, error) {
	payload, ok := extractPayload(raw)
	if !ok {
		return contractx.Command{}, &Error{
			Raw:    raw,
			Reason: "no decodable payload found",
			Kind:   contractx.ErrSchemaViolation,
		}
	}

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return contractx.Command{}, &Error{
			Raw:    raw,
			Reason: fmt.Sprintf("decode payload: %v", err),
			Kind:   contractx.ErrSchemaViolation,
		}
	}

	agent := contractx.AgentID(strings.TrimSpace(env.Agent))
	method := strings.TrimSpace(env.Method)
	if agent == "" || method == "" {
		return contractx.Command{}, &Error{
			Raw:    raw,
			Reason: "agent and method are required",
			Kind:   contractx.ErrSchemaViolation,
		}
	}
	if !contractx.KnownAgent(agent) {
		return contractx.Command{}, &Error{
			Raw:    raw,
			Reason: fmt.Sprintf("agent=%q is not registered", agent),
			Kind:   contractx.ErrUnknownAgent,
		}
	}

	methods, ok := p.specs[agent]
	if !ok {
		return contractx.Command{}, &Error{
			Raw:    raw,
			Reason: fmt.Sprintf("agent=%q has no registered methods", agent),
			Kind:   contractx.ErrUnknownAgent,
		}
	}
	spec, ok := methods[method]
	if !ok {
		return contractx.Command{}, &Error{
			Raw:    raw,
			Reason: fmt.Sprintf("agent=%q does not declare method=%q", agent, method),
			Kind:   contractx.ErrUnknownMethod,
		}
	}

	params, err := validateParams(raw, agent, spec, env.Params)
	if err != nil {
		return contractx.Command{}, err
	}

	return contractx.Command{
		Agent:  agent,
		Method: method,
		Params: params,
	}, nil
}

func validateParams(
	raw string,
	agent contractx.AgentID,
	spec contractx.MethodSpec,
	params map[string]any,
) (map[string]any, error) {
	declared := make(map[string]bool, len(spec.Required)+len(spec.Optional))
	for _, key := range spec.Required {
		declared[key] = true
	}
	for _, key := range spec.Optional {
		declared[key] = true
	}

	cleaned := make(map[string]any, len(params))
	for key, val := range params {
		if !declared[key] {
			// Oracles over-generate; extra keys are dropped, not fatal.
			log.Warn().Str("agent", string(agent)).Str("method", spec.Name).Str("param", key).
				Msg("dropping undeclared param")
			continue
		}
		cleaned[key] = val
	}

	for _, key := range spec.Required {
		if _, ok := cleaned[key]; !ok {
			return nil, &Error{
				Raw:    raw,
				Reason: fmt.Sprintf("method=%q requires param=%q", spec.Name, key),
				Kind:   contractx.ErrValidation,
			}
		}
	}

	return cleaned, nil
}

// extractPayload returns the first balanced JSON object in text. String
// literals and escapes are respected so braces inside values do not confuse
// the scan.
func extractPayload(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
