package chat

import (
	"errors"
	"fmt"
)

// ErrInternalError is returned when a mapper visits a tag it doesn't know
// about: a grammar/mapper mismatch, never a normal streaming state.
var ErrInternalError = errors.New("chat: internal error")

// ErrBadState is returned when a mapper invariant is violated, e.g. a
// TOOL_ARG_NAME node arriving with no tool call open.
var ErrBadState = errors.New("chat: bad mapper state")

func internalErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternalError, fmt.Sprintf(format, args...))
}

func badStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadState, fmt.Sprintf(format, args...))
}
