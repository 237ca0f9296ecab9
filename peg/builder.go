package peg

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrInvalidGrammar is returned by Build when the grammar can't be
// finalized: a Ref to a rule that was never defined, or no root set.
var ErrInvalidGrammar = errors.New("peg: invalid grammar")

type rule struct {
	name string
	body Parser
}

// Builder assembles a Grammar from named, possibly mutually recursive
// rules. Rules are referenced by name via Ref before they're necessarily
// defined; Build resolves and validates every reference.
type Builder struct {
	rules    []rule
	ruleIDs  map[string]int
	root     Parser
	rootSet  bool
	refsUsed map[string]bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		ruleIDs:  make(map[string]int),
		refsUsed: make(map[string]bool),
	}
}

// Rule registers name as a rule with body p and returns a Parser that
// invokes it (memoized, cycle-guarded) wherever it's used. Calling Rule
// twice with the same name redefines the rule's body in place.
func (b *Builder) Rule(name string, p Parser) Parser {
	if id, ok := b.ruleIDs[name]; ok {
		b.rules[id] = rule{name: name, body: p}
	} else {
		id = len(b.rules)
		b.ruleIDs[name] = id
		b.rules = append(b.rules, rule{name: name, body: p})
	}

	return Ref(b, name)
}

// Ref returns a Parser that resolves to the rule named name at evaluation
// time, even if that rule hasn't been defined yet (for recursive grammars).
func (b *Builder) Ref(name string) Parser {
	b.refsUsed[name] = true
	return Ref(b, name)
}

// SetRoot designates p as the grammar's entry point.
func (b *Builder) SetRoot(p Parser) {
	b.root = p
	b.rootSet = true
}

// Build validates that every referenced rule name was eventually defined
// and returns the immutable Grammar, or an aggregated error listing every
// undefined reference found.
func (b *Builder) Build() (*Grammar, error) {
	if !b.rootSet {
		return nil, fmt.Errorf("%w: no root; call SetRoot", ErrInvalidGrammar)
	}

	var errs *multierror.Error

	for name := range b.refsUsed {
		if _, ok := b.ruleIDs[name]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("%w: undefined rule %q", ErrInvalidGrammar, name))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	rules := make([]rule, len(b.rules))
	copy(rules, b.rules)

	return &Grammar{rules: rules, root: b.root}, nil
}

// Grammar is an immutable, built parser graph, safe for concurrent use by
// multiple goroutines each calling Parse independently (each call gets its
// own executor and Arena).
type Grammar struct {
	rules []rule
	root  Parser
}

// Parse evaluates the grammar's root against ctx and returns the verdict.
// On success the result's Root addresses a synthetic document-root node
// (tag TagNone) whose children are the root parser's top-level tagged
// nodes; result.Arena is the backing store to pass to Arena.Visit.
func (g *Grammar) Parse(ctx ParseContext) ParseResult {
	arena := newArena(ctx.Input)
	ex := newExecutor(g, ctx, arena)

	r := g.root(ex, 0)
	if r.Verdict != VerdictSuccess {
		return ParseResult{Verdict: r.Verdict, Arena: arena}
	}

	children := ex.popFrame()

	isPartial := r.End == len(ctx.Input) && !ctx.EndIsFinal && r.PartialTerminal
	root := arena.newNode(TagNone, 0, r.End, isPartial, children)

	return ParseResult{Verdict: VerdictSuccess, End: r.End, Root: root, Arena: arena}
}
