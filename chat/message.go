package chat

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Message is the structured result of parsing a model's raw output:
// free-form content, a reasoning trace, and the tool calls it requested.
type Message struct {
	Content   string     `json:"content"`
	Reasoning string     `json:"reasoning,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is one function invocation requested by the model. Arguments is
// a JSON document; during streaming it may be an in-progress prefix rather
// than a complete object.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FillMissingToolCallIDs assigns a fresh random ID to every tool call msg
// carries whose grammar didn't emit one (TOOL_ID absent), so a caller that
// forwards msg to something expecting an OpenAI-style tool_call_id always
// has one to send. Callers parsing a still-streaming message should hold
// off until the parse is final: an ID assigned here can't later be
// overwritten by a TOOL_ID the grammar was still in the middle of matching.
func FillMissingToolCallIDs(msg *Message) {
	for i := range msg.ToolCalls {
		if msg.ToolCalls[i].ID == "" {
			msg.ToolCalls[i].ID = uuid.NewString()
		}
	}
}

// ToolCallNames returns the Name of each tool call msg carries, in request
// order, for callers that just want a quick summary (logging, a demo
// transcript) without walking the full ToolCalls slice themselves.
func ToolCallNames(msg *Message) []string {
	return lo.Map(msg.ToolCalls, func(tc ToolCall, _ int) string { return tc.Name })
}
