package chat

import (
	"strings"

	"github.com/loopforge/chatcore/peg"
)

// BaseMapper implements the handling shared by every mapper variant:
// REASONING text (trimmed of trailing whitespace) accumulates into
// msg.Reasoning, CONTENT text (untouched) accumulates into msg.Content,
// and TagNone is a structural no-op. Variant mappers embed BaseMapper and
// override Visit to add tool-call handling on top, delegating back to
// BaseMapper.Visit for anything they don't recognize themselves.
type BaseMapper struct{}

// Visit handles the tags common to every mapper. Callers embedding
// BaseMapper should call this as their fallback case.
func (BaseMapper) Visit(n peg.Node, msg *Message) error {
	switch n.Tag {
	case TagNone:
		return nil
	case TagReasoning:
		msg.Reasoning += strings.TrimRight(string(n.Text), " \t\r\n")
		return nil
	case TagContent:
		msg.Content += string(n.Text)
		return nil
	default:
		return internalErrorf("unexpected tag %s in base mapper", tagName(n.Tag))
	}
}
