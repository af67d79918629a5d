package agents

import (
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

// Param accessors tolerate the loose typing of oracle-produced JSON: numbers
// arrive as float64, ids sometimes as strings.

func stringParam(params map[string]any, key string) (string, error) {
	raw, ok := params[key]
	if !ok {
		return "", invalidParam(key, "is required")
	}
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", invalidParam(key, "must not be empty")
		}
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", invalidParam(key, fmt.Sprintf("has unsupported type %T", raw))
	}
}

func stringParamDefault(params map[string]any, key, fallback string) string {
	v, err := stringParam(params, key)
	if err != nil {
		return fallback
	}
	return v
}

func int64Param(params map[string]any, key string) (int64, error) {
	raw, ok := params[key]
	if !ok {
		return 0, invalidParam(key, "is required")
	}
	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, invalidParam(key, "must be an integer")
		}
		return n, nil
	default:
		return 0, invalidParam(key, fmt.Sprintf("has unsupported type %T", raw))
	}
}

func intParamDefault(params map[string]any, key string, fallback int) int {
	n, err := int64Param(params, key)
	if err != nil || n <= 0 {
		return fallback
	}
	return int(n)
}

func invalidParam(key, detail string) *contractx.AgentError {
	return &contractx.AgentError{
		Kind:    "invalid_params",
		Message: fmt.Sprintf("param %q %s", key, detail),
	}
}
