package chat

import (
	"encoding/json"
	"strings"

	"github.com/loopforge/chatcore/peg"
)

// ConstructedMapper assembles tool-call arguments for models that emit
// key/value pairs (TOOL_ARG_NAME, TOOL_ARG_STRING_VALUE, ...) instead of a
// single JSON blob, building up a JSON object string piece by piece so that
// message.ToolCalls[i].Arguments is always a valid JSON prefix.
type ConstructedMapper struct {
	BaseMapper

	current           int // index into msg.ToolCalls, or -1 if none open
	argCount          int
	needsClosingQuote bool
}

// NewConstructedMapper returns a ConstructedMapper ready to visit the
// first node of a fresh parse.
func NewConstructedMapper() *ConstructedMapper {
	return &ConstructedMapper{current: -1}
}

func jsonQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// jsonQuoteOpen returns the JSON-quoted form of s with its closing `"`
// omitted, so a streaming string value can have further bytes appended.
func jsonQuoteOpen(s string) string {
	q := jsonQuote(s)
	return strings.TrimSuffix(q, `"`)
}

func (m *ConstructedMapper) closeOpenString(msg *Message) {
	if m.needsClosingQuote && m.current >= 0 {
		msg.ToolCalls[m.current].Arguments += `"`
	}

	m.needsClosingQuote = false
}

// Visit implements Mapper.
func (m *ConstructedMapper) Visit(n peg.Node, msg *Message) error {
	switch n.Tag {
	case TagToolName:
		if n.IsPartial {
			return nil
		}

		msg.ToolCalls = append(msg.ToolCalls, ToolCall{Name: string(n.Text), Arguments: "{"})
		m.current = len(msg.ToolCalls) - 1
		m.argCount = 0
		m.needsClosingQuote = false

		return nil
	case TagToolArgOpen:
		m.needsClosingQuote = false
		return nil
	case TagToolArgName:
		if n.IsPartial {
			return nil
		}

		if m.current < 0 {
			return badStatef("TOOL_ARG_NAME with no open tool call")
		}

		if m.argCount > 0 {
			msg.ToolCalls[m.current].Arguments += ","
		}

		msg.ToolCalls[m.current].Arguments += jsonQuote(string(n.Text)) + ":"
		m.argCount++

		return nil
	case TagToolArgStringValue:
		if m.current < 0 {
			return badStatef("TOOL_ARG_STRING_VALUE with no open tool call")
		}

		trimmed := strings.TrimSpace(string(n.Text))
		msg.ToolCalls[m.current].Arguments += jsonQuoteOpen(trimmed)
		m.needsClosingQuote = true

		return nil
	case TagToolArgJSONValue:
		if m.current < 0 {
			return badStatef("TOOL_ARG_JSON_VALUE with no open tool call")
		}

		msg.ToolCalls[m.current].Arguments += string(n.Text)

		return nil
	case TagToolArgClose:
		if m.current < 0 {
			return badStatef("TOOL_ARG_CLOSE with no open tool call")
		}

		m.closeOpenString(msg)

		return nil
	case TagToolClose:
		if n.IsPartial {
			return nil
		}

		if m.current < 0 {
			return nil
		}

		m.closeOpenString(msg)
		msg.ToolCalls[m.current].Arguments += "}"
		m.current = -1

		return nil
	case TagTool, TagToolArg, TagReasoningBlock, TagToolOpen, TagToolID, TagToolArgs:
		return nil
	default:
		return m.BaseMapper.Visit(n, msg)
	}
}
