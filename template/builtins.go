package template

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// valueToInt64 coerces v to an integer the way Jinja's range()/int() would:
// a numeral spelled out as a string ("3") or a bool counts too, not just an
// already-int Value, matching range(loop.index|string) style call sites.
func valueToInt64(v Value) (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		return int64(v.f), nil
	case KindBool:
		return cast.ToInt64E(v.b)
	case KindString:
		return cast.ToInt64E(v.s)
	default:
		return 0, fmt.Errorf("template: cannot coerce %s to an integer", v.typeName())
	}
}

func registerBuiltins(c *Context) {
	register := func(name string, fn func(args []Value, kwargs map[string]Value) (Value, error)) {
		c.Set(name, Func(fn))
		c.filters[name] = fn
	}

	register("range", builtinRange)
	register("join", builtinJoin)
	register("tojson", builtinToJSON)
	register("trim", builtinTrim)
	register("count", builtinCount)
	register("namespace", builtinNamespace)
	register("equalto", builtinEqualTo)
	register("reject", builtinReject)
	register("raise_exception", builtinRaiseException)
}

func builtinRange(args []Value, _ map[string]Value) (Value, error) {
	ints := make([]int64, len(args))

	for i, a := range args {
		n, err := valueToInt64(a)
		if err != nil {
			return Null, fmt.Errorf("template: range(): %w", err)
		}

		ints[i] = n
	}

	var start, stop, step int64 = 0, 0, 1

	switch len(ints) {
	case 1:
		stop = ints[0]
	case 2:
		start, stop = ints[0], ints[1]
	case 3:
		start, stop, step = ints[0], ints[1], ints[2]
	default:
		return Null, fmt.Errorf("template: range() takes 1-3 arguments")
	}

	if step == 0 {
		return Null, fmt.Errorf("template: range() step cannot be zero")
	}

	var out []Value

	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, Int(i))
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, Int(i))
		}
	}

	return Array(out), nil
}

// builtinJoin implements both call and filter forms: join(seq, sep) and
// seq | join(sep).
func builtinJoin(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return String(""), nil
	}

	seq := args[0]

	sep := ""
	if len(args) > 1 {
		sep = args[1].AsString()
	}

	items, err := toIterable(seq)
	if err != nil {
		return Null, err
	}

	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.AsString()
	}

	return String(strings.Join(parts, sep)), nil
}

func builtinToJSON(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return String("null"), nil
	}

	b, err := json.Marshal(valueToInterface(args[0]))
	if err != nil {
		return Null, fmt.Errorf("template: tojson: %w", err)
	}

	return String(string(b)), nil
}

func valueToInterface(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, it := range v.arr {
			out[i] = valueToInterface(it)
		}

		return out
	case KindMapping:
		out := make(map[string]any, v.m.Len())
		for _, k := range v.m.Keys() {
			val, _ := v.m.Get(k)
			out[k] = valueToInterface(val)
		}

		return out
	default:
		return nil
	}
}

func builtinTrim(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return String(""), nil
	}

	return String(strings.TrimSpace(args[0].AsString())), nil
}

func builtinCount(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return Int(0), nil
	}

	items, err := toIterable(args[0])
	if err != nil {
		return Null, err
	}

	return Int(int64(len(items))), nil
}

// builtinNamespace implements namespace([defaults, ]**kwargs): a fresh
// mutable Mapping used as the target of `set ns.field = value`.
func builtinNamespace(args []Value, kwargs map[string]Value) (Value, error) {
	m := NewOrderedMap()

	for k, v := range kwargs {
		m.Set(k, v)
	}

	if len(args) > 0 {
		if err := mergeDefaults(m, args[0]); err != nil {
			return Null, err
		}
	}

	return Mapping(m), nil
}

func builtinEqualTo(args []Value, _ map[string]Value) (Value, error) {
	if len(args) != 2 {
		return Null, fmt.Errorf("template: equalto() takes 2 arguments")
	}

	return Bool(args[0].Equal(args[1])), nil
}

// builtinReject implements seq | reject("equalto", value): drop items
// from seq for which the named test (only "equalto" is wired) holds.
func builtinReject(args []Value, _ map[string]Value) (Value, error) {
	if len(args) < 1 {
		return Null, fmt.Errorf("template: reject() needs a sequence")
	}

	items, err := toIterable(args[0])
	if err != nil {
		return Null, err
	}

	if len(args) < 2 {
		var out []Value

		for _, it := range items {
			if !it.Truthy() {
				continue
			}

			out = append(out, it)
		}

		return Array(out), nil
	}

	testName := args[1].AsString()

	var out []Value

	for _, it := range items {
		rejected := false

		if testName == "equalto" && len(args) >= 3 {
			rejected = it.Equal(args[2])
		}

		if !rejected {
			out = append(out, it)
		}
	}

	return Array(out), nil
}

func builtinRaiseException(args []Value, _ map[string]Value) (Value, error) {
	msg := "template: raised"
	if len(args) > 0 {
		msg = args[0].AsString()
	}

	return Null, fmt.Errorf("%s", msg)
}
