package log

import "context"

type contextKey int

const (
	sessionIDKey contextKey = iota
	operationNameKey
)

// WithSessionID attaches a streaming-parse session identifier to ctx, picked
// up by SessionFieldsHook.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func SessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok
}

// WithOperationName attaches the name of the current operation (e.g. "parse",
// "heal") to ctx, picked up by SessionFieldsHook.
func WithOperationName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, operationNameKey, name)
}

func OperationName(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(operationNameKey).(string)
	return name, ok
}

// SessionFieldsHook adds session ID and operation name fields to log entries
// if they exist in the context.
func SessionFieldsHook(ctx context.Context, _ string, fields ...Field) []Field {
	if ctx == nil {
		return fields
	}

	if id, ok := SessionID(ctx); ok {
		fields = append(fields, String("session_id", id))
	}

	if name, ok := OperationName(ctx); ok {
		fields = append(fields, String("operation_name", name))
	}

	return fields
}
