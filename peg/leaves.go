package peg

import "bytes"

// Literal matches an exact byte sequence. A prefix match at the end of the
// available input is reported as NeedMoreInput (unless the caller has
// signaled EndIsFinal, in which case it can never be completed and is a
// Fail) rather than silently accepted or rejected.
func Literal(s string) Parser {
	lit := []byte(s)

	return func(ex *executor, offset int) stepResult {
		input := ex.ctx.Input
		avail := len(input) - offset

		if avail >= len(lit) {
			if bytes.Equal(input[offset:offset+len(lit)], lit) {
				return stepResult{Verdict: VerdictSuccess, End: offset + len(lit)}
			}

			return stepResult{Verdict: VerdictFail}
		}

		if avail < 0 {
			return stepResult{Verdict: VerdictFail}
		}

		if !bytes.Equal(input[offset:], lit[:avail]) {
			return stepResult{Verdict: VerdictFail}
		}

		if ex.ctx.EndIsFinal {
			return stepResult{Verdict: VerdictFail}
		}

		return stepResult{Verdict: VerdictNeedMoreInput}
	}
}

// Nothing always succeeds without consuming input. It exists so a Tag can
// mark a zero-width structural transition point (e.g. "a tool argument's
// value section has begun") without requiring a real terminal there.
func Nothing() Parser {
	return func(ex *executor, offset int) stepResult {
		return stepResult{Verdict: VerdictSuccess, End: offset}
	}
}

// CharClass decides whether a single byte belongs to a character class.
type CharClass func(b byte) bool

// Chars matches exactly one byte satisfying class. Combine with OneOrMore
// or ZeroOrMore for runs. At end of available input it reports
// NeedMoreInput (there might be a matching byte right after this point)
// unless EndIsFinal, in which case there is nothing left to match.
func Chars(class CharClass) Parser {
	return func(ex *executor, offset int) stepResult {
		input := ex.ctx.Input

		if offset >= len(input) {
			if ex.ctx.EndIsFinal {
				return stepResult{Verdict: VerdictFail}
			}

			return stepResult{Verdict: VerdictNeedMoreInput}
		}

		if !class(input[offset]) {
			return stepResult{Verdict: VerdictFail}
		}

		return stepResult{Verdict: VerdictSuccess, End: offset + 1}
	}
}

// Until consumes bytes up to (not including) the first occurrence of stop.
// While streaming, a trailing fragment that could be the start of stop is
// held back (the match stops short of it, reported as a partial terminal)
// so a caller doesn't emit content that's about to turn into a delimiter;
// if that fragment is all there is, the verdict is NeedMoreInput. Once
// EndIsFinal, no stop can arrive anymore and the whole remainder is the
// match.
func Until(stop string) Parser {
	stopBytes := []byte(stop)

	return func(ex *executor, offset int) stepResult {
		input := ex.ctx.Input
		rest := input[offset:]

		if idx := bytes.Index(rest, stopBytes); idx >= 0 {
			return stepResult{Verdict: VerdictSuccess, End: offset + idx}
		}

		if ex.ctx.EndIsFinal {
			// No stop is coming; the whole remainder is the match.
			return stepResult{Verdict: VerdictSuccess, End: offset + len(rest)}
		}

		overlap := longestSuffixPrefixOverlap(rest, stopBytes)
		end := offset + len(rest) - overlap

		if end == offset && len(rest) > 0 {
			// Everything available might be the start of stop; a zero-width
			// match here would let an enclosing choice commit to "no content"
			// while the delimiter is still undecided.
			return stepResult{Verdict: VerdictNeedMoreInput}
		}

		return stepResult{Verdict: VerdictSuccess, End: end, PartialTerminal: true}
	}
}

// UntilAny consumes bytes up to (not including) the first occurrence of
// any of stops, generalizing Until to several candidate delimiters (e.g. a
// content span that can be cut short by either a reasoning opener or a
// tool-call opener).
func UntilAny(stops ...string) Parser {
	stopBytes := make([][]byte, len(stops))
	for i, s := range stops {
		stopBytes[i] = []byte(s)
	}

	return func(ex *executor, offset int) stepResult {
		input := ex.ctx.Input
		rest := input[offset:]

		best := -1

		for _, sb := range stopBytes {
			if idx := bytes.Index(rest, sb); idx >= 0 && (best == -1 || idx < best) {
				best = idx
			}
		}

		if best == 0 {
			// A stop string starts exactly here: zero content precedes it.
			// Failing (rather than trivially succeeding with an empty span)
			// matters in an Alt where an earlier alternative is still
			// deciding whether this position opens a tagged block — an
			// ordered choice lets a later alternative's Success pre-empt an
			// earlier NeedMoreInput, so a no-op zero-width content match
			// would silently swallow a tool call the caller hasn't
			// finished streaming yet.
			return stepResult{Verdict: VerdictFail}
		}

		if best > 0 {
			return stepResult{Verdict: VerdictSuccess, End: offset + best}
		}

		if ex.ctx.EndIsFinal {
			return stepResult{Verdict: VerdictSuccess, End: offset + len(rest)}
		}

		overlap := 0

		for _, sb := range stopBytes {
			if o := longestSuffixPrefixOverlap(rest, sb); o > overlap {
				overlap = o
			}
		}

		end := offset + len(rest) - overlap

		if end == offset && len(rest) > 0 {
			return stepResult{Verdict: VerdictNeedMoreInput}
		}

		return stepResult{Verdict: VerdictSuccess, End: end, PartialTerminal: true}
	}
}

// longestSuffixPrefixOverlap returns the length of the longest suffix of s
// that is also a prefix of stop (and shorter than stop itself), so a
// trailing fragment that might grow into stop isn't consumed as content.
func longestSuffixPrefixOverlap(s, stop []byte) int {
	max := len(stop) - 1
	if max > len(s) {
		max = len(s)
	}

	for n := max; n > 0; n-- {
		if bytes.Equal(s[len(s)-n:], stop[:n]) {
			return n
		}
	}

	return 0
}

// AnyTokenID makes Preserved accept any token id: the literal must still be
// produced as one token beginning at the match offset, but the caller
// doesn't pin which id the tokenizer assigned it. Grammars built for a
// specific model family pass the family's real id instead.
const AnyTokenID = -1

// Preserved matches literal s by token identity: when the parse context
// carries tokenizer span information, the leaf succeeds only if a token
// with id tokenID begins at the current offset and covers the literal, so
// a structural literal (e.g. a tool-call opener) can't be confused with
// identical raw text inside user content that merely happens to share
// those characters. Without TokenSpans it degrades to a plain Literal
// match. If the offset lies within a matching token whose span extends
// past the available input, the verdict is NeedMoreInput: the token is
// still streaming in.
func Preserved(s string, tokenID int) Parser {
	plain := Literal(s)

	return func(ex *executor, offset int) stepResult {
		if len(ex.ctx.TokenSpans) == 0 {
			return plain(ex, offset)
		}

		for _, span := range ex.ctx.TokenSpans {
			if tokenID != AnyTokenID && span.TokenID != tokenID {
				continue
			}

			if span.Start == offset {
				r := plain(ex, offset)

				switch {
				case r.Verdict == VerdictSuccess && span.End >= r.End:
					return r
				case r.Verdict == VerdictNeedMoreInput && span.End >= len(ex.ctx.Input):
					return r
				}

				return stepResult{Verdict: VerdictFail}
			}

			if span.Start < offset && offset < span.End && span.End > len(ex.ctx.Input) && !ex.ctx.EndIsFinal {
				return stepResult{Verdict: VerdictNeedMoreInput}
			}
		}

		return stepResult{Verdict: VerdictFail}
	}
}

// JSONValue matches one complete JSON value (object, array, string, number,
// or literal) starting at offset, used by chat grammars to recognize
// native-style tool-call arguments as a single terminal without a full
// recursive-descent JSON grammar. It tracks container nesting and string
// escaping only, byte by byte, the same way Until tracks a suffix/prefix
// overlap: a value that can't possibly be valid JSON fails immediately, an
// unterminated-but-consistent prefix needs more input (unless EndIsFinal),
// and a balanced value succeeds at the byte past its close.
func JSONValue() Parser {
	return func(ex *executor, offset int) stepResult {
		input := ex.ctx.Input

		if offset >= len(input) {
			if ex.ctx.EndIsFinal {
				return stepResult{Verdict: VerdictFail}
			}

			return stepResult{Verdict: VerdictNeedMoreInput}
		}

		end, status := scanJSONValue(input, offset)

		switch status {
		case jsonScanComplete:
			return stepResult{Verdict: VerdictSuccess, End: end}
		case jsonScanInvalid:
			return stepResult{Verdict: VerdictFail}
		default: // jsonScanIncomplete
			if ex.ctx.EndIsFinal {
				// a number or literal running to the end of final input is
				// complete; scanJSONValue reports its end for that case only.
				if end > offset {
					return stepResult{Verdict: VerdictSuccess, End: end}
				}

				return stepResult{Verdict: VerdictFail}
			}

			return stepResult{Verdict: VerdictNeedMoreInput}
		}
	}
}

type jsonScanStatus int

const (
	jsonScanInvalid jsonScanStatus = iota
	jsonScanComplete
	jsonScanIncomplete
)

// scanJSONValue walks input[offset:] tracking container nesting and string
// state to find the end of one JSON value. It does not validate number
// syntax or literal spelling beyond their first byte: the caller (a real
// JSON parser, downstream) is responsible for rejecting malformed scalars
// once a complete span has been recognized.
func scanJSONValue(input []byte, offset int) (end int, status jsonScanStatus) {
	n := len(input)
	i := offset

	switch input[i] {
	case '{', '[':
		// container: scan until its matching close, honoring string state.
		var stack []byte

		inString := false
		afterEscape := false

		for ; i < n; i++ {
			b := input[i]

			if inString {
				switch {
				case afterEscape:
					afterEscape = false
				case b == '\\':
					afterEscape = true
				case b == '"':
					inString = false
				}

				continue
			}

			switch b {
			case '"':
				inString = true
			case '{':
				stack = append(stack, '}')
			case '[':
				stack = append(stack, ']')
			case '}', ']':
				if len(stack) == 0 || stack[len(stack)-1] != b {
					return 0, jsonScanInvalid
				}

				stack = stack[:len(stack)-1]

				if len(stack) == 0 {
					return i + 1, jsonScanComplete
				}
			}
		}

		return 0, jsonScanIncomplete
	case '"':
		inString := true
		afterEscape := false

		for i++; i < n; i++ {
			b := input[i]

			switch {
			case afterEscape:
				afterEscape = false
			case b == '\\':
				afterEscape = true
			case b == '"':
				inString = false
				return i + 1, jsonScanComplete
			}
		}

		_ = inString

		return 0, jsonScanIncomplete
	case 't', 'f', 'n', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		// number or literal (true/false/null): consume while the byte could
		// plausibly continue one, stop at the first byte that can't.
		isScalarByte := func(b byte) bool {
			switch {
			case b >= '0' && b <= '9':
				return true
			case b == '.' || b == '-' || b == '+' || b == 'e' || b == 'E':
				return true
			case b == 't' || b == 'r' || b == 'u' || b == 'e':
				return true
			case b == 'f' || b == 'a' || b == 'l' || b == 's':
				return true
			case b == 'n':
				return true
			default:
				return false
			}
		}

		for ; i < n; i++ {
			if !isScalarByte(input[i]) {
				return i, jsonScanComplete
			}
		}

		return n, jsonScanIncomplete
	default:
		return 0, jsonScanInvalid
	}
}

// RegexMatcher is implemented by package rxpartial's Regex, kept as an
// interface here so the core engine doesn't depend on the regex compiler.
type RegexMatcher interface {
	// Search reports whether the class the regex recognizes can match
	// input[offset:] at its start: matched + end on a confirmed match,
	// needMore if the available suffix is a possible prefix of a longer
	// match, or neither if the class can never match starting here.
	Search(input []byte, offset int, endIsFinal bool) (matched bool, end int, needMore bool)
}

// RegexLeaf adapts a RegexMatcher into a Parser.
func RegexLeaf(m RegexMatcher) Parser {
	return func(ex *executor, offset int) stepResult {
		matched, end, needMore := m.Search(ex.ctx.Input, offset, ex.ctx.EndIsFinal)
		if matched {
			return stepResult{Verdict: VerdictSuccess, End: end}
		}

		if needMore {
			return stepResult{Verdict: VerdictNeedMoreInput}
		}

		return stepResult{Verdict: VerdictFail}
	}
}

// PreservedRegex behaves like RegexLeaf, but applies Preserved's token-span
// guard: when the parse context carries tokenizer spans, a match is only
// accepted if it aligns exactly with one token's boundaries. Use this
// instead of RegexLeaf for a structural delimiter that could otherwise be
// spoofed by matching raw text inside user content.
func PreservedRegex(m RegexMatcher) Parser {
	plain := RegexLeaf(m)

	return func(ex *executor, offset int) stepResult {
		r := plain(ex, offset)
		if r.Verdict != VerdictSuccess || len(ex.ctx.TokenSpans) == 0 {
			return r
		}

		for _, span := range ex.ctx.TokenSpans {
			if span.Start == offset && span.End == r.End {
				return r
			}
		}

		return stepResult{Verdict: VerdictFail}
	}
}
