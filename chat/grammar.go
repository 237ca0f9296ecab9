package chat

import (
	"github.com/loopforge/chatcore/peg"
	"github.com/loopforge/chatcore/peg/rxpartial"
)

// BuildChatParser builds a peg.Grammar from fn, which receives a fresh
// Builder and must return the grammar's root parser. It's a thin
// convenience wrapper around peg.NewBuilder/SetRoot/Build so chat grammars
// don't each repeat that boilerplate.
func BuildChatParser(fn func(b *peg.Builder) peg.Parser) (*peg.Grammar, error) {
	b := peg.NewBuilder()
	root := fn(b)
	b.SetRoot(root)

	return b.Build()
}

// regexLeaf adapts an rxpartial.Regex (method name SearchBytes) to the
// peg.RegexMatcher interface (method name Search) expected by
// peg.RegexLeaf, so the PEG engine doesn't need to know about rxpartial.
type regexLeaf struct{ r *rxpartial.Regex }

func (a regexLeaf) Search(input []byte, offset int, endIsFinal bool) (bool, int, bool) {
	return a.r.SearchBytes(input, offset, endIsFinal)
}

// Regex builds a peg.Parser leaf out of a supported regex pattern,
// panicking on an invalid pattern: grammar construction is expected to use
// only patterns fixed at compile time, so an InvalidPattern here is a
// programmer error caught immediately rather than deferred to Build().
func Regex(pattern string, atStart bool) peg.Parser {
	return peg.RegexLeaf(newRegexLeaf(pattern, atStart))
}

// PreservedRegex is Regex plus Preserved's token-span guard, for a
// structural delimiter recognized by pattern rather than a single literal.
func PreservedRegex(pattern string, atStart bool) peg.Parser {
	return peg.PreservedRegex(newRegexLeaf(pattern, atStart))
}

func newRegexLeaf(pattern string, atStart bool) regexLeaf {
	r, err := rxpartial.NewRegex(pattern, atStart)
	if err != nil {
		panic(err)
	}

	return regexLeaf{r}
}

// toolCallOpenPattern and toolCallClosePattern recognize the two tag
// spellings seen in the wild for a model's tool-call block: the "tool_call"
// convention and the older "function_call" convention some families still
// emit.
const (
	toolCallOpenPattern  = `<tool_call>|<function_call>`
	toolCallClosePattern = `</tool_call>|</function_call>`
)

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// BuildNativeGrammar returns a grammar recognizing:
//
//	<think>...</think>                                  -> REASONING_BLOCK/REASONING
//	<tool_call>{"id":"...","name":"...","arguments":{...}}</tool_call>  -> TOOL/TOOL_ID/TOOL_NAME/TOOL_ARGS ("id" optional)
//
// with tool-call tags emitted as preserved tokens where caller-provided
// token spans are available, matching a "native" model family whose
// arguments arrive as a complete JSON string.
func BuildNativeGrammar() (*peg.Grammar, error) {
	return BuildChatParser(func(b *peg.Builder) peg.Parser {
		think := peg.Tag(TagReasoningBlock, peg.Seq(
			peg.Preserved("<think>", peg.AnyTokenID),
			peg.Tag(TagReasoning, peg.Until("</think>")),
			peg.Preserved("</think>", peg.AnyTokenID),
		))

		// TOOL_ID's text span covers the quoted JSON string value
		// ("\"abc\""), not the "id": key literal, so the mapper's
		// stripJSONQuotes sees a bare quoted value.
		toolID := peg.Seq(
			peg.Literal(`"id":`),
			peg.Tag(TagToolID, peg.Seq(
				peg.Literal(`"`),
				peg.Until(`"`),
				peg.Literal(`"`),
			)),
		)

		// TOOL_NAME's text span covers only the identifier, with no
		// surrounding quotes or key literal.
		toolName := peg.Seq(
			peg.Literal(`"name":"`),
			peg.Atomic(peg.Tag(TagToolName, peg.Until(`"`))),
			peg.Literal(`"`),
		)

		toolArgs := peg.Seq(
			peg.Literal(`"arguments":`),
			peg.Tag(TagToolArgs, peg.JSONValue()),
		)

		toolBody := peg.Seq(
			peg.Literal("{"),
			peg.Optional(peg.Seq(toolID, peg.Literal(","))),
			toolName,
			peg.Literal(","),
			toolArgs,
			peg.Literal("}"),
		)

		toolCall := peg.Tag(TagTool, peg.Seq(
			peg.Tag(TagToolOpen, PreservedRegex(toolCallOpenPattern, true)),
			toolBody,
			peg.Tag(TagToolClose, PreservedRegex(toolCallClosePattern, true)),
		))

		content := peg.Tag(TagContent, peg.UntilAny("<think>", "<tool_call>", "<function_call>"))

		segment := peg.Alt(think, toolCall, content)

		return peg.OneOrMore(segment)
	})
}

// BuildConstructedGrammar returns a grammar recognizing a "constructed"
// model family that emits tool-call arguments as name=value pairs rather
// than a JSON object:
//
//	<think>...</think>
//	<tool_call>get_weather{city="Paris"}</tool_call>
//
// matching a constructed-mapper convention: the grammar emits
// TOOL_ARG_NAME/TOOL_ARG_STRING_VALUE pairs instead of one TOOL_ARGS blob.
func BuildConstructedGrammar() (*peg.Grammar, error) {
	return BuildChatParser(func(b *peg.Builder) peg.Parser {
		think := peg.Tag(TagReasoningBlock, peg.Seq(
			peg.Preserved("<think>", peg.AnyTokenID),
			peg.Tag(TagReasoning, peg.Until("</think>")),
			peg.Preserved("</think>", peg.AnyTokenID),
		))

		toolName := peg.Atomic(peg.Tag(TagToolName, peg.OneOrMore(peg.Chars(isIdentByte))))

		argName := peg.Atomic(peg.Tag(TagToolArgName, peg.OneOrMore(peg.Chars(isIdentByte))))

		stringValue := peg.Tag(TagToolArgStringValue, peg.Until(`"`))

		arg := peg.Tag(TagToolArg, peg.Seq(
			peg.Tag(TagToolArgOpen, peg.Nothing()),
			argName,
			peg.Literal(`="`),
			stringValue,
			peg.Tag(TagToolArgClose, peg.Literal(`"`)),
		))

		args := peg.Optional(peg.Seq(arg, peg.ZeroOrMore(peg.Seq(peg.Literal(","), arg))))

		toolCall := peg.Tag(TagTool, peg.Seq(
			peg.Tag(TagToolOpen, PreservedRegex(toolCallOpenPattern, true)),
			toolName,
			peg.Literal("{"),
			args,
			peg.Literal("}"),
			peg.Tag(TagToolClose, PreservedRegex(toolCallClosePattern, true)),
		))

		content := peg.Tag(TagContent, peg.UntilAny("<think>", "<tool_call>", "<function_call>"))

		segment := peg.Alt(think, toolCall, content)

		return peg.OneOrMore(segment)
	})
}
