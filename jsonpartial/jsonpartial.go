package jsonpartial

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Outcome is the three-way result of Parse.
type Outcome int

const (
	// OutcomeNone means s is neither complete nor a recognizable
	// truncation: it contains a genuine syntax error.
	OutcomeNone Outcome = iota
	// OutcomeComplete means s is already a well-formed JSON document.
	OutcomeComplete
	// OutcomePartial means s is a truncated prefix of a JSON document;
	// see Partial for how to recover a usable value from it.
	OutcomePartial
)

// Result is the outcome of Parse.
type Result struct {
	Outcome Outcome
	Raw     string // the (possibly repaired) complete JSON text, if Outcome == OutcomeComplete
	Value   any    // json.Unmarshal of Raw, if Outcome == OutcomeComplete
	Partial *Partial
}

// Parse classifies s as complete JSON, a healable/unhealable truncation,
// or outright invalid. It tries gjson validity first, then the
// truncation-point classifier, and falls back to jsonrepair only when the
// classifier reports a structural error.
func Parse(s string) (Result, error) {
	if gjson.Valid(s) {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return Result{}, fmt.Errorf("jsonpartial: valid per gjson but Unmarshal failed: %w", err)
		}

		return Result{Outcome: OutcomeComplete, Raw: s, Value: v}, nil
	}

	res := scan(s)

	switch {
	case res.invalid:
		// scan hit a genuine structural error, not a truncation: give
		// jsonrepair a chance at the common LLM mistakes (trailing
		// commas, missing quotes) before giving up.
		if repaired, err := jsonrepair.JSONRepair(s); err == nil && gjson.Valid(repaired) {
			var v any
			if err := json.Unmarshal([]byte(repaired), &v); err == nil {
				return Result{Outcome: OutcomeComplete, Raw: repaired, Value: v}, nil
			}
		}

		return Result{Outcome: OutcomeNone}, nil
	case res.complete:
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return Result{Outcome: OutcomeNone}, nil
		}

		return Result{Outcome: OutcomeComplete, Raw: s, Value: v}, nil
	default:
		return Result{
			Outcome: OutcomePartial,
			Partial: &Partial{source: res.truncated, flags: res.flags, closure: res.closure},
		}, nil
	}
}

// Partial is a classified, not-yet-complete JSON document: the prefix that
// was confirmed lexically valid, the flags describing where it stopped,
// and the stack of closers needed to balance its open containers.
type Partial struct {
	source  string
	flags   Flags
	closure string
}

func (p *Partial) Flags() Flags { return p.flags }

func (p *Partial) Source() string { return p.source }

// Healed is the result of Partial.Heal: a complete, parseable JSON
// document synthesized by substituting magic for the in-progress value,
// plus the exact literal (with surrounding punctuation) the caller should
// search for in the healed value to find where to re-truncate it once
// more real content has streamed in.
type Healed struct {
	JSON  string
	Value any
	Magic string
}

// ReplacePath overwrites the value at path (gjson/sjson dot-path syntax) in
// h.JSON and returns the resulting document. This is how a caller performs
// the "transform the structured prefix" step described in package
// jsonpartial's purpose: once more of the streamed value is known, the
// sentinel h.Magic identifies where in h.JSON to locate and replace it,
// and ReplacePath does the replacement without the caller hand-rolling
// JSON surgery.
func (h Healed) ReplacePath(path string, value any) (string, error) {
	out, err := sjson.Set(h.JSON, path, value)
	if err != nil {
		return "", fmt.Errorf("jsonpartial: replace %q: %w", path, err)
	}

	return out, nil
}

// Heal synthesizes a complete JSON document from p by inserting magic (and
// minimal closing punctuation) at the truncation point, then appending the
// container closure stack. It fails with ErrUnhealable if the truncation
// happened mid-identifier.
func (p *Partial) Heal(magic string) (Healed, error) {
	flags := p.flags

	healed := p.source
	actualMagic := ""

	moveOut := func(f Flags) (Flags, error) {
		switch {
		case f.Has(DictInsideKey):
			return f&^DictInsideKey | DictAfterKey, nil
		case f.Has(DictInsideValue):
			return f&^DictInsideValue | DictAfterValue, nil
		case f.Has(ArrayInsideValue):
			return f&^ArrayInsideValue | ArrayAfterValue, nil
		default:
			// No enclosing container: a top-level string; closing it is the
			// whole heal.
			return f, nil
		}
	}

	switch {
	case flags.Has(ValueInsideString):
		healed = p.source + magic + "\""
		actualMagic = magic
		flags &^= ValueInsideString

		var err error

		flags, err = moveOut(flags)
		if err != nil {
			return Healed{}, err
		}
	case flags.Has(ValueInsideStringAfterEscape):
		if !strings.HasSuffix(p.source, `\`) {
			return Healed{}, ErrUnknownLocation
		}

		healed = p.source[:len(p.source)-1] + magic + "\""
		actualMagic = magic
		flags &^= ValueInsideStringAfterEscape

		var err error

		flags, err = moveOut(flags)
		if err != nil {
			return Healed{}, err
		}
	case flags.Has(ValueInsideIdent):
		return Healed{}, ErrUnhealable
	}

	switch {
	case flags.Has(DictBeforeKey):
		if actualMagic == "" {
			healed += `"` + magic + `": null`
			actualMagic = `"` + magic
		} else {
			trimmed := strings.TrimSpace(healed)
			switch {
			case strings.HasSuffix(trimmed, ","):
				healed += ` "": null`
			case strings.HasSuffix(trimmed, "{"):
				// nothing to add: an empty object is already complete once closed
			default:
				return Healed{}, ErrUnknownLocation
			}
		}
	case flags.Has(DictAfterKey):
		if actualMagic == "" {
			healed += `: "` + magic + `"`
			actualMagic = `: "` + magic
		} else {
			healed += ": null"
		}
	case flags.Has(DictBeforeValue):
		if actualMagic == "" {
			healed += `"` + magic + `"`
			actualMagic = `"` + magic
		} else {
			healed += "null"
		}
	case flags.Has(DictAfterValue):
		if actualMagic == "" {
			healed += `, "` + magic + `": null`
			actualMagic = `, "` + magic
		}
	case flags.Has(ArrayBeforeValue):
		if actualMagic == "" {
			healed += `"` + magic + `"`
			actualMagic = `"` + magic
		} else {
			trimmed := strings.TrimSpace(healed)
			switch {
			case strings.HasSuffix(trimmed, ","):
				healed += `""`
			case strings.HasSuffix(trimmed, "["):
				// empty array, nothing more to add
			default:
				return Healed{}, ErrUnknownLocation
			}
		}
	case flags.Has(ArrayAfterValue):
		if actualMagic == "" {
			healed += `, "` + magic + `"`
			actualMagic = `, "` + magic
		}
	}

	healed += p.closure

	var v any
	if err := json.Unmarshal([]byte(healed), &v); err != nil {
		return Healed{}, fmt.Errorf("jsonpartial: healed document still invalid: %w", err)
	}

	return Healed{JSON: healed, Value: v, Magic: actualMagic}, nil
}
