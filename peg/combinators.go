package peg

// Seq runs each parser in order at the advancing offset. If any component
// fails or needs more input, every node created by earlier components in
// this attempt is rolled back and that verdict is propagated.
func Seq(ps ...Parser) Parser {
	return func(ex *executor, offset int) stepResult {
		frameMark, arenaMark := ex.mark()
		cur := offset

		sawPartial := false

		for _, p := range ps {
			r := p(ex, cur)
			if r.Verdict != VerdictSuccess {
				ex.rollback(frameMark, arenaMark)
				return stepResult{Verdict: r.Verdict}
			}

			cur = r.End
			sawPartial = sawPartial || r.PartialTerminal
		}

		return stepResult{Verdict: VerdictSuccess, End: cur, PartialTerminal: sawPartial}
	}
}

// Alt tries each alternative in order (ordered choice, not longest-match).
// The first Success wins outright. If none succeed, the result is
// NeedMoreInput if any alternative needed more input, else Fail.
func Alt(ps ...Parser) Parser {
	return func(ex *executor, offset int) stepResult {
		sawNeedMore := false

		for _, p := range ps {
			frameMark, arenaMark := ex.mark()

			r := p(ex, offset)
			if r.Verdict == VerdictSuccess {
				return r
			}

			ex.rollback(frameMark, arenaMark)

			if r.Verdict == VerdictNeedMoreInput {
				sawNeedMore = true
			}
		}

		if sawNeedMore {
			return stepResult{Verdict: VerdictNeedMoreInput}
		}

		return stepResult{Verdict: VerdictFail}
	}
}

// Optional matches p if possible, else matches the empty string. A
// NeedMoreInput from p still propagates: a prefix that *might* grow into a
// match of p must not be silently treated as "p absent" while more input
// could still arrive.
func Optional(p Parser) Parser {
	return func(ex *executor, offset int) stepResult {
		frameMark, arenaMark := ex.mark()

		r := p(ex, offset)
		if r.Verdict == VerdictSuccess {
			return r
		}

		if r.Verdict == VerdictNeedMoreInput {
			ex.rollback(frameMark, arenaMark)
			return r
		}

		ex.rollback(frameMark, arenaMark)

		return stepResult{Verdict: VerdictSuccess, End: offset}
	}
}

// ZeroOrMore greedily repeats p until it stops matching. A zero-width match
// terminates the loop (and is not counted again) rather than looping
// forever. A NeedMoreInput from any repetition, the first included,
// propagates, since the already-matched prefix might continue into one more
// repetition.
func ZeroOrMore(p Parser) Parser {
	return func(ex *executor, offset int) stepResult {
		cur := offset
		sawPartial := false

		for {
			frameMark, arenaMark := ex.mark()

			r := p(ex, cur)
			if r.Verdict == VerdictFail {
				ex.rollback(frameMark, arenaMark)
				break
			}

			if r.Verdict == VerdictNeedMoreInput {
				ex.rollback(frameMark, arenaMark)
				return stepResult{Verdict: VerdictNeedMoreInput}
			}

			sawPartial = sawPartial || r.PartialTerminal

			if r.End == cur {
				// A zero-width match would repeat forever; stop here and drop
				// the nodes it speculatively created so the arena doesn't
				// accumulate an empty tagged node per parse.
				ex.rollback(frameMark, arenaMark)
				break
			}

			cur = r.End
		}

		return stepResult{Verdict: VerdictSuccess, End: cur, PartialTerminal: sawPartial}
	}
}

// OneOrMore requires at least one match of p, then behaves like ZeroOrMore.
func OneOrMore(p Parser) Parser {
	return Seq(p, ZeroOrMore(p))
}

// Atomic forbids p from producing a partial (streaming-incomplete) result:
// a would-be-partial Success is downgraded to NeedMoreInput so structural
// decisions (e.g. "a tool call has started") never fire on an unconfirmed
// terminal. At the outermost scope (parse root), where there is no further
// input to wait for within this attempt, it downgrades to Fail instead.
func Atomic(p Parser) Parser {
	return func(ex *executor, offset int) stepResult {
		frameMark, arenaMark := ex.mark()

		r := p(ex, offset)
		if r.Verdict != VerdictSuccess {
			return r
		}

		if !r.PartialTerminal {
			return r
		}

		ex.rollback(frameMark, arenaMark)

		if ex.isRootFrame() {
			return stepResult{Verdict: VerdictFail}
		}

		return stepResult{Verdict: VerdictNeedMoreInput}
	}
}

// Tag wraps p so that, on success, a single AST node is created spanning
// the matched range with p's own tagged descendants as children. Nodes
// created by untagged structural combinators inside p are not wrapped
// themselves; they flow up into this node instead.
func Tag(t Tag, p Parser) Parser {
	return func(ex *executor, offset int) stepResult {
		arenaMark := ex.arena.mark()
		ex.pushFrame()

		r := p(ex, offset)
		children := ex.popFrame()

		if r.Verdict != VerdictSuccess {
			ex.arena.truncate(arenaMark)
			return stepResult{Verdict: r.Verdict}
		}

		isPartial := r.End == len(ex.ctx.Input) && !ex.ctx.EndIsFinal && r.PartialTerminal

		idx := ex.arena.newNode(t, offset, r.End, isPartial, children)
		ex.attach(idx)

		return stepResult{Verdict: VerdictSuccess, End: r.End, PartialTerminal: isPartial}
	}
}

// Ref resolves to the named rule at call time, so grammars can be
// recursive; id is assigned by Builder.Rule when the grammar is built.
func Ref(b *Builder, name string) Parser {
	return func(ex *executor, offset int) stepResult {
		id, ok := b.ruleIDs[name]
		if !ok {
			// Build() validates every Ref before Parse can run; reaching
			// this means a Ref was called outside of a built Grammar.
			return stepResult{Verdict: VerdictFail}
		}

		return ex.evalRule(id, offset)
	}
}
