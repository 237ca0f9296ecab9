package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionFieldsHook(t *testing.T) {
	hook := HookFunc(SessionFieldsHook)

	t.Run("with session ID", func(t *testing.T) {
		ctx := WithSessionID(context.Background(), "sess-test-id")
		fields := hook.Apply(ctx, "test message")
		assert.Len(t, fields, 1)
		assert.Equal(t, "session_id", fields[0].Key)
		assert.Equal(t, "sess-test-id", fields[0].String)
	})

	t.Run("with operation name", func(t *testing.T) {
		ctx := WithOperationName(context.Background(), "parse")
		fields := hook.Apply(ctx, "test message")
		assert.Len(t, fields, 1)
		assert.Equal(t, "operation_name", fields[0].Key)
		assert.Equal(t, "parse", fields[0].String)
	})

	t.Run("with context that has both", func(t *testing.T) {
		ctx := WithSessionID(context.Background(), "sess-test-id")
		ctx = WithOperationName(ctx, "heal")
		fields := hook.Apply(ctx, "test message")
		assert.Len(t, fields, 2)
	})

	t.Run("with context that has neither", func(t *testing.T) {
		ctx := context.Background()
		fields := hook.Apply(ctx, "test message")
		assert.Len(t, fields, 0)
	})

	t.Run("with nil context", func(t *testing.T) {
		fields := hook.Apply(nil, "test message")
		assert.Len(t, fields, 0)
	})
}
