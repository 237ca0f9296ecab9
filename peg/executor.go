package peg

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Parser is one node of the combinator graph: given an executor and a byte
// offset, it reports a verdict, an end offset on success, and whether that
// success exposed an in-progress ("partial") terminal token. Parsers never
// block and never mutate anything outside the executor they're called with.
type Parser func(ex *executor, offset int) stepResult

type stepResult struct {
	Verdict         Verdict
	End             int
	PartialTerminal bool
}

type ruleKey struct {
	ruleID int
	offset int
}

type memoEntry struct {
	verdict         Verdict
	end             int
	partialTerminal bool
	forest          []frozenNode
	topCount        int
}

// executor holds all per-parse-call mutable state: the arena being built,
// the memo table (discarded when Parse returns), the left-recursion guard,
// and the stack of child accumulators for currently open tag/rule scopes.
type executor struct {
	ctx        ParseContext
	arena      *Arena
	grammar    *Grammar
	memo       *lru.Cache[ruleKey, memoEntry]
	inProgress map[ruleKey]bool
	frames     [][]NodeIndex
}

const memoCapacity = 4096

func newExecutor(grammar *Grammar, ctx ParseContext, arena *Arena) *executor {
	memo, _ := lru.New[ruleKey, memoEntry](memoCapacity)

	return &executor{
		ctx:        ctx,
		arena:      arena,
		grammar:    grammar,
		memo:       memo,
		inProgress: make(map[ruleKey]bool),
		frames:     [][]NodeIndex{nil},
	}
}

func (ex *executor) pushFrame() { ex.frames = append(ex.frames, nil) }

func (ex *executor) popFrame() []NodeIndex {
	top := len(ex.frames) - 1
	children := ex.frames[top]
	ex.frames = ex.frames[:top]

	return children
}

func (ex *executor) isRootFrame() bool { return len(ex.frames) == 1 }

// attach appends idx as the next child of the currently open scope.
func (ex *executor) attach(idx NodeIndex) {
	top := len(ex.frames) - 1
	ex.frames[top] = append(ex.frames[top], idx)
}

func (ex *executor) frameLen() int { return len(ex.frames[len(ex.frames)-1]) }

func (ex *executor) frameSince(mark int) []NodeIndex {
	top := ex.frames[len(ex.frames)-1]
	return top[mark:]
}

func (ex *executor) truncateFrame(mark int) {
	top := len(ex.frames) - 1
	ex.frames[top] = ex.frames[top][:mark]
}

// mark snapshots both the arena length and the current frame length, for
// later rollback() if a speculative attempt doesn't pan out.
func (ex *executor) mark() (frameMark, arenaMark int) {
	return ex.frameLen(), ex.arena.mark()
}

func (ex *executor) rollback(frameMark, arenaMark int) {
	ex.truncateFrame(frameMark)
	ex.arena.truncate(arenaMark)
}

// evalRule runs (or replays from cache) the named rule at offset, inside its
// own child-accumulator scope, with left-recursion and memoization applied.
func (ex *executor) evalRule(id int, offset int) stepResult {
	key := ruleKey{ruleID: id, offset: offset}

	if entry, ok := ex.memo.Get(key); ok {
		if entry.verdict == VerdictSuccess {
			for _, idx := range thaw(ex.arena, entry.forest, entry.topCount) {
				ex.attach(idx)
			}
		}

		return stepResult{Verdict: entry.verdict, End: entry.end, PartialTerminal: entry.partialTerminal}
	}

	if ex.inProgress[key] {
		// Left-recursive re-entry: fail the inner invocation so outer
		// alternatives (if any) get a chance instead of looping forever.
		return stepResult{Verdict: VerdictFail}
	}

	ex.inProgress[key] = true

	arenaMark := ex.arena.mark()
	ex.pushFrame()
	body := ex.grammar.rules[id].body
	r := body(ex, offset)
	children := ex.popFrame()

	delete(ex.inProgress, key)

	if r.Verdict != VerdictSuccess {
		ex.arena.truncate(arenaMark)
		ex.memo.Add(key, memoEntry{verdict: r.Verdict, end: r.End})

		return stepResult{Verdict: r.Verdict}
	}

	ex.memo.Add(key, memoEntry{
		verdict:         VerdictSuccess,
		end:             r.End,
		partialTerminal: r.PartialTerminal,
		forest:          freeze(ex.arena, children),
		topCount:        len(children),
	})

	for _, idx := range children {
		ex.attach(idx)
	}

	return stepResult{Verdict: VerdictSuccess, End: r.End, PartialTerminal: r.PartialTerminal}
}
