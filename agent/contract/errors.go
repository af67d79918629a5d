package contract

import "errors"

var (
	ErrSchemaViolation = errors.New("oracle output violates command schema")
	ErrUnknownAgent    = errors.New("unknown agent")
	ErrUnknownMethod   = errors.New("unknown method")
	ErrValidation      = errors.New("validation failed")
	ErrBackend         = errors.New("commerce backend unreachable")
)
