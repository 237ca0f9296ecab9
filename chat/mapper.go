package chat

import (
	"github.com/samber/lo"

	"github.com/loopforge/chatcore/peg"
)

// Mapper assembles a Message by visiting AST nodes in document order.
// Implementations are expected to embed BaseMapper for the REASONING/
// CONTENT/NONE handling shared by every variant.
type Mapper interface {
	Visit(node peg.Node, msg *Message) error
}

// ApplyMapper walks the arena produced by result in document order, calling
// mapper.Visit for every node, and fills msg. It is a thin wrapper around
// Arena.Visit that turns the visitor's error return into a single error
// value for the caller, short-circuiting on the first one.
func ApplyMapper(mapper Mapper, arena *peg.Arena, result peg.ParseResult, msg *Message) error {
	var firstErr error

	arena.Visit(result, func(n peg.Node) {
		if firstErr != nil {
			return
		}

		if err := mapper.Visit(n, msg); err != nil {
			firstErr = err
		}
	})

	return firstErr
}

// CollectByTag returns every node of the given tag in result's AST, in
// document order, without requiring a caller to write its own Arena.Visit
// closure for a one-off query (e.g. counting reasoning blocks for a log
// line, or finding every TOOL node to report a tool-call count before the
// mapper has finished assembling Message.ToolCalls).
func CollectByTag(arena *peg.Arena, result peg.ParseResult, tag peg.Tag) []peg.Node {
	var all []peg.Node

	arena.Visit(result, func(n peg.Node) {
		all = append(all, n)
	})

	return lo.Filter(all, func(n peg.Node, _ int) bool { return n.Tag == tag })
}
