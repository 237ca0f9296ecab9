package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOneNativeFamily(t *testing.T) {
	raw := []byte(`<think>plan</think><tool_call>{"name":"get_weather","arguments":{"city":"Paris"}}</tool_call>done`)

	msg, err := parseOne("native", raw)
	require.NoError(t, err)
	assert.Equal(t, "plan", msg.Reasoning)
	assert.Equal(t, "done", msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "get_weather", msg.ToolCalls[0].Name)
}

func TestParseOneConstructedFamily(t *testing.T) {
	raw := []byte(`<tool_call>get_weather{city="Paris"}</tool_call>`)

	msg, err := parseOne("constructed", raw)
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "get_weather", msg.ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"Paris"}`, msg.ToolCalls[0].Arguments)
}

func TestParseOneUnknownFamily(t *testing.T) {
	_, err := parseOne("bogus", []byte("hi"))
	require.Error(t, err)
}
