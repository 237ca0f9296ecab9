// Package peg implements a PEG combinator engine with first-class
// partial-match semantics: besides success and failure, a parse step can
// report that it needs more input before a verdict can be reached. This is
// what lets a grammar be re-evaluated against a growing prefix of streamed
// text without ever fabricating structure the input hasn't confirmed yet.
package peg

// Verdict is the three-way outcome of evaluating a combinator at an offset.
type Verdict int

const (
	// VerdictFail means the combinator definitely does not match at this
	// offset, regardless of what more input might arrive.
	VerdictFail Verdict = iota
	// VerdictSuccess means the combinator matched; End and AST (if any) are
	// populated.
	VerdictSuccess
	// VerdictNeedMoreInput means the combinator might match if the input
	// were longer; the caller should wait for more tokens and retry.
	VerdictNeedMoreInput
)

func (v Verdict) String() string {
	switch v {
	case VerdictFail:
		return "fail"
	case VerdictSuccess:
		return "success"
	case VerdictNeedMoreInput:
		return "need-more-input"
	default:
		return "unknown"
	}
}

// TokenSpan records the token boundary a tokenizer assigned to a byte range
// of the input, used by preserved-token leaves (see Preserved).
type TokenSpan struct {
	TokenID int
	Start   int
	End     int
}

// ParseContext is the input to a parse: the raw bytes, whether more bytes
// may still arrive, and optional tokenizer span information.
type ParseContext struct {
	Input      []byte
	EndIsFinal bool
	TokenSpans []TokenSpan
}

// ParseResult is the outcome of Grammar.Parse: a three-way sum of Success,
// Fail, and NeedMoreInput, mirroring Verdict but additionally carrying the
// successful end offset and AST root.
type ParseResult struct {
	Verdict Verdict
	End     int
	Root    NodeIndex
	Arena   *Arena
}

// Success reports whether the result is VerdictSuccess.
func (r ParseResult) Success() bool { return r.Verdict == VerdictSuccess }

// NeedMoreInput reports whether the result is VerdictNeedMoreInput.
func (r ParseResult) NeedMoreInput() bool { return r.Verdict == VerdictNeedMoreInput }

// Fail reports whether the result is VerdictFail.
func (r ParseResult) Fail() bool { return r.Verdict == VerdictFail }
