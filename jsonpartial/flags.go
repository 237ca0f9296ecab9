// Package jsonpartial classifies and heals a truncated JSON document: the
// kind of payload a streaming tool call's arguments arrive as before the
// final byte has been seen. It locates where the truncation happened, what
// kind of token/container it happened inside, and can synthesize a
// complete, parseable JSON string from that classification plus a
// caller-chosen placeholder ("magic") value.
package jsonpartial

// Flags captures the lexical context a truncated JSON document stopped
// in: at most one token-state bit (mid-string, mid-escape, mid-identifier)
// together with at most one container-position bit describing what the
// innermost enclosing object or array was waiting for.
type Flags int

const (
	ValueInsideIdent Flags = 1 << iota
	ValueInsideString
	ValueInsideStringAfterEscape
	DictBeforeKey
	DictInsideKey
	DictAfterKey
	DictBeforeValue
	DictInsideValue
	DictAfterValue
	ArrayBeforeValue
	ArrayInsideValue
	ArrayAfterValue
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }
