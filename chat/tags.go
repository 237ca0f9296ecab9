// Package chat maps the tagged AST arena produced by package peg into a
// structured chat message: free-form content, a reasoning trace, and zero
// or more tool calls. It owns the chat-specific Tag enumeration, the
// grammar wiring that builds a peg.Grammar out of regex/preserved-token
// leaves, and the mapper family that walks a parsed AST and fills a
// Message under either native or constructed tool-call conventions.
package chat

import "github.com/loopforge/chatcore/peg"

// Tag values identify the semantic role of an AST node produced by a chat
// grammar. TagNone (peg.TagNone) is reserved for the synthetic document
// root and any other structural-only node.
const (
	TagNone           peg.Tag = peg.TagNone
	TagReasoningBlock peg.Tag = iota
	TagReasoning
	TagContent
	TagTool
	TagToolOpen
	TagToolClose
	TagToolID
	TagToolName
	TagToolArgs
	TagToolArg
	TagToolArgOpen
	TagToolArgClose
	TagToolArgName
	TagToolArgStringValue
	TagToolArgJSONValue
)

// tagName is used by error messages only.
func tagName(t peg.Tag) string {
	switch t {
	case TagNone:
		return "NONE"
	case TagReasoningBlock:
		return "REASONING_BLOCK"
	case TagReasoning:
		return "REASONING"
	case TagContent:
		return "CONTENT"
	case TagTool:
		return "TOOL"
	case TagToolOpen:
		return "TOOL_OPEN"
	case TagToolClose:
		return "TOOL_CLOSE"
	case TagToolID:
		return "TOOL_ID"
	case TagToolName:
		return "TOOL_NAME"
	case TagToolArgs:
		return "TOOL_ARGS"
	case TagToolArg:
		return "TOOL_ARG"
	case TagToolArgOpen:
		return "TOOL_ARG_OPEN"
	case TagToolArgClose:
		return "TOOL_ARG_CLOSE"
	case TagToolArgName:
		return "TOOL_ARG_NAME"
	case TagToolArgStringValue:
		return "TOOL_ARG_STRING_VALUE"
	case TagToolArgJSONValue:
		return "TOOL_ARG_JSON_VALUE"
	default:
		return "UNKNOWN"
	}
}
