// Package rxpartial compiles a regular expression into a second pattern
// that recognizes "the input ends with a prefix of a string this pattern
// could match," by running a transformed version of the pattern against
// the reversed input. This gives streaming regex-leaf matching without a
// bespoke NFA engine: dlclark/regexp2 does the matching, this package does
// the pattern surgery.
package rxpartial

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPattern is returned when a pattern falls outside the supported
// subset (literals, escapes, character classes, grouping, alternation, and
// the *, +, ?, {m,n} quantifiers) or is malformed.
var ErrInvalidPattern = errors.New("rxpartial: invalid pattern")

// RegexToReversedPartialRegex transforms pattern into one that, matched in
// full against the reversed input, detects a trailing partial match of the
// original pattern. Exported for testing; callers normally go through
// NewRegex.
//
// Sketch: parse pattern into alternatives of sequences of atoms, reverse
// each sequence, wrap every atom but the outermost in an optional
// non-capturing group so any prefix of the reversed sequence can match,
// expand bounded/unbounded quantifiers into that many mandatory and
// optional copies, and swap greedy/reluctant repetition (a reluctant `a*?`
// should become greedy once read backwards, since we now want the
// earliest possible split point). The whole thing is wrapped in one
// capturing group followed by `.*`: the forward position where that group
// ends, read back from the end of the (un-reversed) input, is the start of
// the partial match.
func RegexToReversedPartialRegex(pattern string) (string, error) {
	p := &transformer{src: pattern}

	res, err := p.parseAlternatives()
	if err != nil {
		return "", err
	}

	if p.pos != len(p.src) {
		return "", fmt.Errorf("%w: unmatched '(' in pattern %q", ErrInvalidPattern, pattern)
	}

	return "(" + res + ").*", nil
}

type transformer struct {
	src string
	pos int
}

func (p *transformer) eof() bool { return p.pos >= len(p.src) }

func (p *transformer) peek() byte { return p.src[p.pos] }

// parseAlternatives parses a '|'-separated list of sequences, terminated
// by EOF or an unconsumed ')', and returns the transformed, '|'-joined
// result.
func (p *transformer) parseAlternatives() (string, error) {
	var alternatives [][]string

	sequence := []string{}

	flush := func() {
		alternatives = append(alternatives, sequence)
		sequence = []string{}
	}

	for !p.eof() {
		c := p.peek()

		switch {
		case c == '[':
			atom, err := p.readCharClass()
			if err != nil {
				return "", err
			}

			sequence = append(sequence, atom)
		case c == '*' || c == '?' || c == '+':
			if len(sequence) == 0 {
				return "", fmt.Errorf("%w: quantifier without preceding element in %q", ErrInvalidPattern, p.src)
			}

			p.pos++
			greedy := true

			if !p.eof() && p.peek() == '?' {
				p.pos++
				greedy = false
			}

			last := sequence[len(sequence)-1]
			last += string(c)

			// Reluctant becomes greedy (match as early as possible reading
			// backwards); greedy becomes reluctant (don't miss any
			// matches).
			if greedy {
				last += "?"
			}

			sequence[len(sequence)-1] = last
		case c == '{':
			p.pos++
			start := p.pos

			for !p.eof() && p.peek() != '}' {
				p.pos++
			}

			if p.eof() {
				return "", fmt.Errorf("%w: unmatched '{' in pattern %q", ErrInvalidPattern, p.src)
			}

			rangeSrc := p.src[start:p.pos]
			p.pos++

			if len(sequence) == 0 {
				return "", fmt.Errorf("%w: repetition without preceding element in %q", ErrInvalidPattern, p.src)
			}

			expanded, err := expandRepetition(sequence[len(sequence)-1], rangeSrc)
			if err != nil {
				return "", err
			}

			sequence = append(sequence[:len(sequence)-1], expanded...)
		case c == '(':
			p.pos++

			if !p.eof() && p.peek() == '?' && p.pos+1 < len(p.src) && p.src[p.pos+1] == ':' {
				p.pos += 2
			}

			sub, err := p.parseAlternatives()
			if err != nil {
				return "", err
			}

			if p.eof() || p.peek() != ')' {
				return "", fmt.Errorf("%w: unmatched '(' in pattern %q", ErrInvalidPattern, p.src)
			}

			p.pos++
			sequence = append(sequence, "("+sub+")")
		case c == ')':
			flush()
			return joinAlternatives(alternatives), nil
		case c == '|':
			p.pos++
			flush()
		case c == '\\':
			p.pos++

			if p.eof() {
				return "", fmt.Errorf("%w: dangling escape in pattern %q", ErrInvalidPattern, p.src)
			}

			esc := p.peek()
			p.pos++
			sequence = append(sequence, "\\"+string(esc))
		default:
			sequence = append(sequence, string(c))
			p.pos++
		}
	}

	flush()

	return joinAlternatives(alternatives), nil
}

func (p *transformer) readCharClass() (string, error) {
	start := p.pos
	p.pos++

	for !p.eof() {
		if p.peek() == '\\' && p.pos+1 < len(p.src) {
			p.pos += 2
			continue
		}

		if p.peek() == ']' {
			break
		}

		p.pos++
	}

	if p.eof() {
		return "", fmt.Errorf("%w: unmatched '[' in pattern %q", ErrInvalidPattern, p.src)
	}

	p.pos++

	return p.src[start:p.pos], nil
}

// expandRepetition turns atom{m,n} (or {m,}, {m}) into m mandatory copies
// of atom plus (n-m) optional copies, or one trailing atom* for an
// unbounded upper bound.
func expandRepetition(atom, rangeSrc string) ([]string, error) {
	parts := strings.SplitN(rangeSrc, ",", 2)
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: invalid repetition range {%s}", ErrInvalidPattern, rangeSrc)
	}

	parseOptInt := func(s string, def int) (int, bool, error) {
		if s == "" {
			return def, false, nil
		}

		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false, fmt.Errorf("%w: invalid repetition count %q", ErrInvalidPattern, s)
		}

		return n, true, nil
	}

	min, _, err := parseOptInt(parts[0], 0)
	if err != nil {
		return nil, err
	}

	var (
		max      int
		hasMax   bool
		rangeErr error
	)

	if len(parts) == 1 {
		max, hasMax = min, true
	} else {
		max, hasMax, rangeErr = parseOptInt(parts[1], 0)
		if rangeErr != nil {
			return nil, rangeErr
		}
	}

	if hasMax && max < min {
		return nil, fmt.Errorf("%w: invalid repetition range {%s}", ErrInvalidPattern, rangeSrc)
	}

	out := make([]string, 0, min+1)
	for i := 0; i < min; i++ {
		out = append(out, atom)
	}

	if hasMax {
		for i := min; i < max; i++ {
			out = append(out, atom+"?")
		}
	} else {
		out = append(out, atom+"*")
	}

	return out, nil
}

// joinAlternatives reverses each sequence's atom order and nests every
// atom but the outermost in an optional non-capturing group, then joins
// the alternatives with '|'.
func joinAlternatives(alternatives [][]string) string {
	resAlts := make([]string, 0, len(alternatives))

	for _, parts := range alternatives {
		var b strings.Builder

		for i := 0; i < len(parts)-1; i++ {
			b.WriteString("(?:")
		}

		for i := len(parts) - 1; i >= 0; i-- {
			b.WriteString(parts[i])

			if i != 0 {
				b.WriteString(")?")
			}
		}

		resAlts = append(resAlts, b.String())
	}

	return strings.Join(resAlts, "|")
}
