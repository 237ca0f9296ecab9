package chat

import (
	"strings"

	"github.com/loopforge/chatcore/peg"
)

// FunctionGemmaMapper is a constructed-style mapper for model families that
// emit a raw, non-JSON-escaped argument string delimited by a literal
// escape marker instead of JSON-quoting the value in-grammar. It buffers
// the raw value across TOOL_ARG_STRING_VALUE nodes (which may arrive more
// than once as a value streams in) and JSON-escapes the accumulated text
// once at TOOL_ARG_CLOSE, so Arguments only ever holds well-formed JSON.
type FunctionGemmaMapper struct {
	BaseMapper

	current  int // index into msg.ToolCalls, or -1 if none open
	argCount int
	rawValue strings.Builder
	inString bool
}

// NewFunctionGemmaMapper returns a FunctionGemmaMapper ready to visit the
// first node of a fresh parse.
func NewFunctionGemmaMapper() *FunctionGemmaMapper {
	return &FunctionGemmaMapper{current: -1}
}

// Visit implements Mapper.
func (m *FunctionGemmaMapper) Visit(n peg.Node, msg *Message) error {
	switch n.Tag {
	case TagToolName:
		if n.IsPartial {
			return nil
		}

		msg.ToolCalls = append(msg.ToolCalls, ToolCall{Name: string(n.Text), Arguments: "{"})
		m.current = len(msg.ToolCalls) - 1
		m.argCount = 0

		return nil
	case TagToolArgOpen:
		m.rawValue.Reset()
		m.inString = false

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
		m.inString = true
		m.rawValue.WriteString(strings.TrimSpace(string(n.Text)))

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

		if m.inString {
			msg.ToolCalls[m.current].Arguments += jsonQuote(m.rawValue.String())
			m.rawValue.Reset()
			m.inString = false
		}

		return nil
	case TagToolClose:
		if n.IsPartial {
			return nil
		}

		if m.current < 0 {
			return nil
		}

		msg.ToolCalls[m.current].Arguments += "}"
		m.current = -1

		return nil
	case TagTool, TagToolArg, TagReasoningBlock, TagToolOpen, TagToolID, TagToolArgs:
		return nil
	default:
		return m.BaseMapper.Visit(n, msg)
	}
}
