package turnnode

import (
	"strings"
	"time"
)

func ValidateRequest(in GraphInput, now func() time.Time, newID func() string) (*GraphState, error) {
	sessionKey := strings.TrimSpace(in.SessionKey)
	if sessionKey == "" {
		return nil, ErrInvalidSession
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionKey: sessionKey,
		UserText:   text,
		TurnID:     newID(),
		Now:        now(),
	}, nil
}
