package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopforge/chatcore/peg"
)

func parseFinal(t *testing.T, g *peg.Grammar, input string) peg.ParseResult {
	t.Helper()

	result := g.Parse(peg.ParseContext{Input: []byte(input), EndIsFinal: true})
	require.True(t, result.Success(), "expected success, got %s", result.Verdict)

	return result
}

func TestNativeGrammarPlainContent(t *testing.T) {
	g, err := BuildNativeGrammar()
	require.NoError(t, err)

	result := parseFinal(t, g, "hello world")

	msg := &Message{}
	require.NoError(t, ApplyMapper(NewNativeMapper(), result.Arena, result, msg))
	assert.Equal(t, "hello world", msg.Content)
}

func TestNativeGrammarReasoningAndToolCall(t *testing.T) {
	g, err := BuildNativeGrammar()
	require.NoError(t, err)

	input := `before <think>plan the trip</think> after ` +
		`<tool_call>{"id":"abc","name":"get_weather","arguments":{"city":"Paris"}}</tool_call> done`

	result := parseFinal(t, g, input)

	msg := &Message{}
	require.NoError(t, ApplyMapper(NewNativeMapper(), result.Arena, result, msg))

	assert.Equal(t, "plan the trip", msg.Reasoning)
	assert.Equal(t, "before  after  done", msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "abc", msg.ToolCalls[0].ID)
	assert.Equal(t, "get_weather", msg.ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"Paris"}`, msg.ToolCalls[0].Arguments)
}

func TestNativeGrammarToolCallWithoutID(t *testing.T) {
	g, err := BuildNativeGrammar()
	require.NoError(t, err)

	input := `<tool_call>{"name":"get_weather","arguments":{"city":"Paris"}}</tool_call>`

	result := parseFinal(t, g, input)

	msg := &Message{}
	require.NoError(t, ApplyMapper(NewNativeMapper(), result.Arena, result, msg))

	require.Len(t, msg.ToolCalls, 1)
	assert.Empty(t, msg.ToolCalls[0].ID)
	assert.Equal(t, "get_weather", msg.ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"Paris"}`, msg.ToolCalls[0].Arguments)
}

func TestNativeGrammarNeedsMoreInputMidToolCall(t *testing.T) {
	g, err := BuildNativeGrammar()
	require.NoError(t, err)

	result := g.Parse(peg.ParseContext{Input: []byte(`<tool_call>{"name":"get_w`), EndIsFinal: false})
	assert.True(t, result.NeedMoreInput(), "expected need-more-input, got %s", result.Verdict)
}

func TestConstructedGrammarToolCall(t *testing.T) {
	g, err := BuildConstructedGrammar()
	require.NoError(t, err)

	result := parseFinal(t, g, `<tool_call>get_weather{city="Paris"}</tool_call>`)

	msg := &Message{}
	require.NoError(t, ApplyMapper(NewConstructedMapper(), result.Arena, result, msg))

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "get_weather", msg.ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"Paris"}`, msg.ToolCalls[0].Arguments)
}

func TestConstructedGrammarMultipleArgs(t *testing.T) {
	g, err := BuildConstructedGrammar()
	require.NoError(t, err)

	result := parseFinal(t, g, `<tool_call>get_weather{city="Paris",unit="celsius"}</tool_call>`)

	msg := &Message{}
	require.NoError(t, ApplyMapper(NewConstructedMapper(), result.Arena, result, msg))

	require.Len(t, msg.ToolCalls, 1)
	assert.JSONEq(t, `{"city":"Paris","unit":"celsius"}`, msg.ToolCalls[0].Arguments)
}

func TestNativeGrammarFunctionCallSpelling(t *testing.T) {
	g, err := BuildNativeGrammar()
	require.NoError(t, err)

	input := `<function_call>{"name":"get_weather","arguments":{"city":"Paris"}}</function_call>`

	result := parseFinal(t, g, input)

	msg := &Message{}
	require.NoError(t, ApplyMapper(NewNativeMapper(), result.Arena, result, msg))

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "get_weather", msg.ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"Paris"}`, msg.ToolCalls[0].Arguments)
}

func TestNativeGrammarNeedsMoreInputMidOpenTag(t *testing.T) {
	g, err := BuildNativeGrammar()
	require.NoError(t, err)

	result := g.Parse(peg.ParseContext{Input: []byte(`<function_ca`), EndIsFinal: false})
	assert.True(t, result.NeedMoreInput(), "expected need-more-input, got %s", result.Verdict)
}
