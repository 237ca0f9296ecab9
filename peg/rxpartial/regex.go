package rxpartial

import (
	"fmt"

	regexp2 "github.com/dlclark/regexp2/v2"
)

// Match is the outcome of a successful Regex.Search: Pos is where the
// match (complete or partial) begins in the original, un-reversed input.
type Match struct {
	Pos       int
	Len       int
	IsPartial bool
}

// Regex wraps a compiled pattern together with its reversed-partial
// counterpart, so a single Search call can report either a confirmed match
// or a streaming-partial one without the caller juggling two regexes.
type Regex struct {
	pattern         string
	atStart         bool
	forward         *regexp2.Regexp
	reversedPartial *regexp2.Regexp
}

// NewRegex compiles pattern (and its derived reversed-partial form). If
// atStart is true, Search only reports matches beginning at input[0].
func NewRegex(pattern string, atStart bool) (*Regex, error) {
	forward, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}

	reversedSrc, err := RegexToReversedPartialRegex(pattern)
	if err != nil {
		return nil, err
	}

	// Singleline: the trailing `.*` of the reversed-partial pattern must be
	// able to cross newlines, or a partial tail preceded by a line break
	// would go undetected.
	reversed, err := regexp2.Compile(reversedSrc, regexp2.Singleline)
	if err != nil {
		return nil, fmt.Errorf("%w: reversed-partial form of %q: %w", ErrInvalidPattern, pattern, err)
	}

	return &Regex{pattern: pattern, atStart: atStart, forward: forward, reversedPartial: reversed}, nil
}

func (r *Regex) String() string { return r.pattern }

func (r *Regex) AtStart() bool { return r.atStart }

// Search looks for a confirmed match of the original pattern first; if
// none is found, it looks for a partial match at the very end of input:
// a point past which the input could still grow into a full match.
func (r *Regex) Search(input string) (*Match, error) {
	m, err := r.forward.FindStringMatch(input)
	if err != nil {
		return nil, fmt.Errorf("rxpartial: forward search: %w", err)
	}

	if m != nil {
		pos := m.Index
		if r.atStart && pos != 0 {
			return nil, nil
		}

		return &Match{Pos: pos, Len: m.Length, IsPartial: false}, nil
	}

	reversedInput := reverseString(input)

	rm, err := r.reversedPartial.FindStringMatch(reversedInput)
	if err != nil {
		return nil, fmt.Errorf("rxpartial: reversed-partial search: %w", err)
	}

	if rm == nil || rm.Index != 0 || rm.Length != len(reversedInput) {
		return nil, nil
	}

	g := rm.GroupByNumber(1)
	if g == nil || len(g.Captures) == 0 {
		return nil, nil
	}

	last := g.Captures[len(g.Captures)-1]
	capEnd := last.Index + last.Length
	pos := len(input) - capEnd

	if r.atStart && pos != 0 {
		return nil, nil
	}

	return &Match{Pos: pos, IsPartial: true}, nil
}

// SearchBytes adapts Search for the peg.RegexMatcher interface: it reports
// whether the input from offset onward (up to the available tail) either
// confirms a match or is a live prefix of one. With atStart the match must
// begin at offset; otherwise it may begin anywhere in the tail, and end is
// that match's end.
func (r *Regex) SearchBytes(input []byte, offset int, endIsFinal bool) (matched bool, end int, needMore bool) {
	tail := string(input[offset:])

	m, err := r.Search(tail)
	if err != nil || m == nil {
		return false, 0, false
	}

	if !m.IsPartial {
		return true, offset + m.Pos + m.Len, false
	}

	if endIsFinal {
		return false, 0, false
	}

	return false, 0, true
}

func reverseString(s string) string {
	b := []byte(s)

	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}

	return string(b)
}
