package chat

import (
	"strings"

	"github.com/loopforge/chatcore/peg"
)

// NativeMapper assembles tool calls for models that emit a complete JSON
// arguments string as one token run (TOOL_ARGS). current is an index into
// msg.ToolCalls rather than a pointer, per the design note on back
// references: the slice may grow (re-slice, relocate) between visits
// without invalidating it.
type NativeMapper struct {
	BaseMapper

	current    int // index into msg.ToolCalls, or -1 if none open
	hasPending bool
	pendingID  string
}

// NewNativeMapper returns a NativeMapper ready to visit the first node of
// a fresh parse.
func NewNativeMapper() *NativeMapper {
	return &NativeMapper{current: -1}
}

func stripJSONQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}

	return s
}

// Visit implements Mapper.
func (m *NativeMapper) Visit(n peg.Node, msg *Message) error {
	switch n.Tag {
	case TagToolOpen:
		m.current = -1
		m.hasPending = false
		m.pendingID = ""

		return nil
	case TagToolID:
		if n.IsPartial {
			return nil
		}

		id := stripJSONQuotes(string(n.Text))

		if m.current >= 0 {
			msg.ToolCalls[m.current].ID = id
		} else {
			m.hasPending = true
			m.pendingID = id
		}

		return nil
	case TagToolName:
		if n.IsPartial {
			return nil
		}

		msg.ToolCalls = append(msg.ToolCalls, ToolCall{Name: string(n.Text)})
		m.current = len(msg.ToolCalls) - 1

		if m.hasPending {
			msg.ToolCalls[m.current].ID = m.pendingID
			m.hasPending = false
		}

		return nil
	case TagToolArgs:
		if m.current < 0 {
			return badStatef("TOOL_ARGS with no open tool call")
		}

		msg.ToolCalls[m.current].Arguments = strings.TrimRight(string(n.Text), " \t\r\n")

		return nil
	case TagToolClose, TagTool, TagReasoningBlock:
		return nil
	default:
		return m.BaseMapper.Visit(n, msg)
	}
}
