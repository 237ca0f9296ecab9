package peg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildReportsEveryUndefinedRef(t *testing.T) {
	b := NewBuilder()
	b.SetRoot(Seq(b.Ref("missing"), b.Ref("also-missing")))

	_, err := b.Build()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidGrammar))
	require.Contains(t, err.Error(), "missing")
	require.Contains(t, err.Error(), "also-missing")
}

func TestBuildRequiresRoot(t *testing.T) {
	_, err := NewBuilder().Build()
	require.True(t, errors.Is(err, ErrInvalidGrammar))
}

const (
	tagThink Tag = iota + 1
	tagThinkContent
	tagList
	tagItem
)

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func parseWith(t *testing.T, g *Grammar, input string, endIsFinal bool) ParseResult {
	t.Helper()
	return g.Parse(ParseContext{Input: []byte(input), EndIsFinal: endIsFinal})
}

// TestThinkBlockPartialSequence exercises a literal-delimited block
// ("<think>...</think>") across growing prefixes of the same stream,
// matching scenario 1: an open delimiter followed by streaming content
// should report partial success, not NeedMoreInput, once the opener has
// fully matched.
func TestThinkBlockPartialSequence(t *testing.T) {
	const tagClose Tag = tagItem + 1

	b := NewBuilder()
	think := b.Rule("think", Tag(tagThink, Seq(
		Literal("<think>"),
		ZeroOrMore(Alt(
			Tag(tagClose, Literal("</think>")),
			Tag(tagThinkContent, Until("</think>")),
		)),
	)))
	b.SetRoot(think)

	g, err := b.Build()
	require.NoError(t, err)

	firstNonEmptyContent := func(r ParseResult) (Node, bool) {
		var found Node

		ok := false
		r.Arena.Visit(r, func(n Node) {
			if n.Tag == tagThinkContent && len(n.Text) > 0 && !ok {
				found, ok = n, true
			}
		})

		return found, ok
	}

	t.Run("opener alone is incomplete", func(t *testing.T) {
		r := parseWith(t, g, "<thi", false)
		require.True(t, r.NeedMoreInput())
	})

	t.Run("opener plus streaming content is a partial success", func(t *testing.T) {
		r := parseWith(t, g, "<think>hello", false)
		require.True(t, r.Success())

		n, ok := firstNonEmptyContent(r)
		require.True(t, ok)
		require.True(t, n.IsPartial)
		require.Equal(t, "hello", string(n.Text))
	})

	t.Run("closed block is not partial", func(t *testing.T) {
		r := parseWith(t, g, "<think>hello</think>", false)
		require.True(t, r.Success())

		n, ok := firstNonEmptyContent(r)
		require.True(t, ok)
		require.False(t, n.IsPartial)
		require.Equal(t, "hello", string(n.Text))

		closed := false
		r.Arena.Visit(r, func(n Node) {
			if n.Tag == tagClose {
				closed = true
			}
		})
		require.True(t, closed)
	})

	t.Run("final input with no closer still succeeds", func(t *testing.T) {
		r := parseWith(t, g, "<think>hello", true)
		require.True(t, r.Success())

		n, ok := firstNonEmptyContent(r)
		require.True(t, ok)
		require.False(t, n.IsPartial)
	})
}

// TestPreservedTokenIdentity exercises the preserved-token leaf: with
// token spans in the context, a structural literal must be produced as one
// token with the expected id, and the same characters inside an unrelated
// token must not match.
func TestPreservedTokenIdentity(t *testing.T) {
	const openID = 42

	b := NewBuilder()
	b.SetRoot(Tag(tagThink, Preserved("<think>", openID)))

	g, err := b.Build()
	require.NoError(t, err)

	t.Run("degrades to a literal without spans", func(t *testing.T) {
		r := g.Parse(ParseContext{Input: []byte("<think>"), EndIsFinal: true})
		require.True(t, r.Success())
	})

	t.Run("matches when the token id and span line up", func(t *testing.T) {
		r := g.Parse(ParseContext{
			Input:      []byte("<think>"),
			EndIsFinal: true,
			TokenSpans: []TokenSpan{{TokenID: openID, Start: 0, End: 7}},
		})
		require.True(t, r.Success())
	})

	t.Run("rejects the same characters under a different token id", func(t *testing.T) {
		r := g.Parse(ParseContext{
			Input:      []byte("<think>"),
			EndIsFinal: true,
			TokenSpans: []TokenSpan{{TokenID: 7, Start: 0, End: 7}},
		})
		require.True(t, r.Fail())
	})

	t.Run("rejects the literal split across several tokens", func(t *testing.T) {
		r := g.Parse(ParseContext{
			Input:      []byte("<think>"),
			EndIsFinal: true,
			TokenSpans: []TokenSpan{{TokenID: 3, Start: 0, End: 1}, {TokenID: openID, Start: 1, End: 7}},
		})
		require.True(t, r.Fail())
	})

	t.Run("needs more input while the token is still streaming", func(t *testing.T) {
		r := g.Parse(ParseContext{
			Input:      []byte("<thi"),
			EndIsFinal: false,
			TokenSpans: []TokenSpan{{TokenID: openID, Start: 0, End: 7}},
		})
		require.True(t, r.NeedMoreInput())
	})
}

// TestRecursiveBracketedList exercises scenario 2: a recursive,
// comma-separated bracketed list of digit runs, matching mutually
// recursive rules and streaming growth of a nested structure.
func TestRecursiveBracketedList(t *testing.T) {
	b := NewBuilder()

	var listRef Parser

	item := b.Rule("item", Alt(
		Tag(tagItem, OneOrMore(Chars(isDigit))),
		func(ex *executor, offset int) stepResult { return listRef(ex, offset) },
	))

	list := b.Rule("list", Tag(tagList, Seq(
		Literal("["),
		Optional(Seq(item, ZeroOrMore(Seq(Literal(","), item)))),
		Literal("]"),
	)))
	listRef = list

	b.SetRoot(list)

	g, err := b.Build()
	require.NoError(t, err)

	t.Run("flat list", func(t *testing.T) {
		r := parseWith(t, g, "[1,22,333]", true)
		require.True(t, r.Success())

		count := 0
		r.Arena.Visit(r, func(n Node) {
			if n.Tag == tagItem {
				count++
			}
		})
		require.Equal(t, 3, count)
	})

	t.Run("nested list", func(t *testing.T) {
		r := parseWith(t, g, "[1,[2,3],4]", true)
		require.True(t, r.Success())

		lists := 0
		r.Arena.Visit(r, func(n Node) {
			if n.Tag == tagList {
				lists++
			}
		})
		require.Equal(t, 2, lists)
	})

	t.Run("unclosed nested list needs more input", func(t *testing.T) {
		r := parseWith(t, g, "[1,[2,3", false)
		require.True(t, r.NeedMoreInput())
	})

	t.Run("unclosed list on final input fails", func(t *testing.T) {
		r := parseWith(t, g, "[[", true)
		require.True(t, r.Fail())
	})

	t.Run("non-digit item fails", func(t *testing.T) {
		r := parseWith(t, g, "[a]", true)
		require.True(t, r.Fail())
	})

	t.Run("empty list", func(t *testing.T) {
		r := parseWith(t, g, "[]", true)
		require.True(t, r.Success())
	})
}
