package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/andreazorzetto/yh/highlight"
	"github.com/hokaccha/go-prettyjson"
	"gopkg.in/yaml.v3"

	"github.com/loopforge/chatcore/chat"
	"github.com/loopforge/chatcore/internal/build"
	"github.com/loopforge/chatcore/internal/log"
	"github.com/loopforge/chatcore/peg"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			showVersion()
			return
		case "build-info":
			showBuildInfo()
			return
		case "help", "--help", "-h":
			showHelp()
			return
		case "parse":
			runParse(os.Args[2:])
			return
		case "demo":
			runDemo()
			return
		}
	}

	showHelp()
}

func showVersion() {
	fmt.Println(build.Version)
}

func showBuildInfo() {
	fmt.Println(build.GetBuildInfo())
}

func showHelp() {
	fmt.Println("chatcore - streaming chat-output parser")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  chatcore parse [--family native|constructed] [file]   Parse raw model output")
	fmt.Println("  chatcore demo                                          Run the bundled streaming demo")
	fmt.Println("  chatcore version                                       Show version")
	fmt.Println("  chatcore build-info                                    Show build info")
	fmt.Println("  chatcore help                                          Show this help message")
}

// runParse parses either a file's contents or stdin as one complete,
// final chunk (EndIsFinal: true) and prints the resulting chat.Message.
func runParse(args []string) {
	family := "native"

	var path string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--family", "-f":
			if i+1 < len(args) {
				family = args[i+1]
				i++
			}
		default:
			path = args[i]
		}
	}

	raw, err := readInput(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}

	msg, err := parseOne(family, raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse: %v\n", err)
		os.Exit(1)
	}

	b, err := prettyjson.Marshal(msg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render message: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(b))
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}

	return os.ReadFile(path)
}

func grammarAndMapper(family string) (*peg.Grammar, chat.Mapper, error) {
	switch family {
	case "native":
		g, err := chat.BuildNativeGrammar()
		return g, chat.NewNativeMapper(), err
	case "constructed":
		g, err := chat.BuildConstructedGrammar()
		return g, chat.NewConstructedMapper(), err
	default:
		return nil, nil, fmt.Errorf("unknown family %q (want native or constructed)", family)
	}
}

func parseOne(family string, raw []byte) (*chat.Message, error) {
	grammar, mapper, err := grammarAndMapper(family)
	if err != nil {
		return nil, err
	}

	result := grammar.Parse(peg.ParseContext{Input: raw, EndIsFinal: true})

	switch {
	case result.Fail():
		return nil, fmt.Errorf("input does not match the %s grammar", family)
	case result.NeedMoreInput():
		return nil, fmt.Errorf("input ended mid-structure; more bytes are needed")
	}

	msg := &chat.Message{}
	if err := chat.ApplyMapper(mapper, result.Arena, result, msg); err != nil {
		return nil, err
	}

	chat.FillMissingToolCallIDs(msg)

	return msg, nil
}

// runDemo feeds a fixed native-family transcript to the parser one byte at
// a time, printing the verdict at each step, then highlights the final
// grammar-matched document as YAML so the structural shape is visible even
// without a terminal JSON viewer.
func runDemo() {
	const transcript = `before <think>plan the trip</think> after ` +
		`<tool_call>{"name":"get_weather","arguments":{"city":"Paris"}}</tool_call> done`

	grammar, err := chat.BuildNativeGrammar()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build grammar: %v\n", err)
		os.Exit(1)
	}

	input := []byte(transcript)

	var last peg.ParseResult

	for n := 1; n <= len(input); n++ {
		result := grammar.Parse(peg.ParseContext{Input: input[:n], EndIsFinal: n == len(input)})
		last = result

		toolNodes := chat.CollectByTag(result.Arena, result, chat.TagTool)

		log.Info(context.Background(), "demo step",
			log.Int("bytes", n), log.String("verdict", result.Verdict.String()),
			log.Int("tool_nodes", len(toolNodes)))
	}

	if !last.Success() {
		fmt.Fprintf(os.Stderr, "Demo transcript failed to parse: %s\n", last.Verdict)
		os.Exit(1)
	}

	msg := &chat.Message{}
	if err := chat.ApplyMapper(chat.NewNativeMapper(), last.Arena, last, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Demo mapper failed: %v\n", err)
		os.Exit(1)
	}

	chat.FillMissingToolCallIDs(msg)

	summary := map[string]any{
		"content":         msg.Content,
		"reasoning":       msg.Reasoning,
		"tool_calls":      msg.ToolCalls,
		"tool_call_names": chat.ToolCallNames(msg),
	}

	b, err := yaml.Marshal(summary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render demo summary: %v\n", err)
		os.Exit(1)
	}

	highlighted, err := highlight.Highlight(bytes.NewBuffer(b))
	if err != nil {
		fmt.Println(string(b))
		return
	}

	fmt.Println(highlighted)
}
