package mcprpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoScript is a tiny shell JSON-RPC server: for every request line it
// receives, it replies with a result echoing the request's id and
// method. It exists purely so Call/Close can be exercised without a
// real MCP server binary.
const echoScript = `
while IFS= read -r line; do
  id=$(echo "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
  method=$(echo "$line" | sed -n 's/.*"method":"\([^"]*\)".*/\1/p')
  printf '{"jsonrpc":"2.0","id":%s,"result":{"method":"%s"}}\n' "$id" "$method"
done
`

func TestCallEchoesRequest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := Create(ctx, "sh", []string{"-c", echoScript})
	require.NoError(t, err)

	defer sub.Close()

	raw, err := sub.Call(ctx, "tools/list", map[string]any{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"tools/list"}`, string(raw))
}

func TestCallSequential(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := Create(ctx, "sh", []string{"-c", echoScript})
	require.NoError(t, err)

	defer sub.Close()

	for i := 0; i < 3; i++ {
		raw, err := sub.Call(ctx, "ping", nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"method":"ping"}`, string(raw))
	}
}

func TestCloseRejectsFurtherCalls(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := Create(ctx, "sh", []string{"-c", echoScript})
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, err = sub.Call(ctx, "ping", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCallRespectsContextCancellation(t *testing.T) {
	ctx := context.Background()

	sub, err := Create(ctx, "sh", []string{"-c", "cat >/dev/null"})
	require.NoError(t, err)

	defer sub.Close()

	callCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = sub.Call(callCtx, "ping", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
