// Package template implements a minimal Jinja-like prompt template
// evaluator: interpolation, if/for/set control flow, comments, pipes,
// type tests, and a small set of built-in callables. It is orthogonal to
// the chat-parsing core; it exists because a model-serving pipeline needs
// to render prompts before the core ever sees a token.
package template

import (
	"fmt"
)

// Kind tags the runtime type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindMapping
	KindCallable
)

// Callable is a template-invocable function: a builtin or a value captured
// from the host (e.g. a Go closure registered via Context.Set).
type Callable func(args []Value, kwargs map[string]Value) (Value, error)

// Value is the runtime-typed tree every template expression evaluates to.
// Identity-vs-value equality is by Kind: two Values compare equal iff their
// Kinds match and their contents are equal, element by element for Array
// and key by key for Mapping. Copies of an Array or Mapping Value share its
// backing storage, so a `set ns.field` mutation is visible wherever that
// mapping is reachable, including a mapping bound with Context.Set.
type Value struct {
	Kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	m    *OrderedMap
	call Callable
}

// Null is the zero Value.
var Null = Value{Kind: KindNull}

func Bool(b bool) Value           { return Value{Kind: KindBool, b: b} }
func Int(i int64) Value           { return Value{Kind: KindInt, i: i} }
func Float(f float64) Value       { return Value{Kind: KindFloat, f: f} }
func String(s string) Value       { return Value{Kind: KindString, s: s} }
func Array(items []Value) Value   { return Value{Kind: KindArray, arr: items} }
func Mapping(m *OrderedMap) Value { return Value{Kind: KindMapping, m: m} }
func Func(c Callable) Value       { return Value{Kind: KindCallable, call: c} }

// OrderedMap is an insertion-ordered string-keyed map, used for Jinja
// "mapping" values and as the namespace() builtin's backing store.
type OrderedMap struct {
	keys   []string
	values map[string]Value
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]Value)}
}

func (m *OrderedMap) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = v
}

func (m *OrderedMap) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Keys() []string { return m.keys }

func (m *OrderedMap) Len() int { return len(m.keys) }

// Clone returns a shallow copy with its own key/value storage, so mutating
// the clone doesn't affect m.
func (m *OrderedMap) Clone() *OrderedMap {
	c := NewOrderedMap()
	for _, k := range m.keys {
		c.Set(k, m.values[k])
	}

	return c
}

func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr) > 0
	case KindMapping:
		return v.m != nil && v.m.Len() > 0
	case KindCallable:
		return true
	default:
		return false
	}
}

// AsString renders v the way {{ expr }} interpolation does.
func (v Value) AsString() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		if v.b {
			return "true"
		}

		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindArray:
		out := "["
		for i, it := range v.arr {
			if i > 0 {
				out += ", "
			}

			out += it.reprString()
		}

		return out + "]"
	case KindMapping:
		out := "{"

		for i, k := range v.m.Keys() {
			if i > 0 {
				out += ", "
			}

			val, _ := v.m.Get(k)
			out += fmt.Sprintf("%q: %s", k, val.reprString())
		}

		return out + "}"
	case KindCallable:
		return "<callable>"
	default:
		return ""
	}
}

func (v Value) reprString() string {
	if v.Kind == KindString {
		return fmt.Sprintf("%q", v.s)
	}

	return v.AsString()
}

func (v Value) typeName() string {
	switch v.Kind {
	case KindNull:
		return "none"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindCallable:
		return "callable"
	default:
		return "unknown"
	}
}

// Equal implements Jinja's loose equality: numbers compare by value across
// int/float, everything else compares by Kind + underlying value.
func (v Value) Equal(o Value) bool {
	if (v.Kind == KindInt || v.Kind == KindFloat) && (o.Kind == KindInt || o.Kind == KindFloat) {
		return v.asFloat() == o.asFloat()
	}

	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}

		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}

		return true
	case KindMapping:
		if v.m.Len() != o.m.Len() {
			return false
		}

		for _, k := range v.m.Keys() {
			a, _ := v.m.Get(k)
			b, ok := o.m.Get(k)

			if !ok || !a.Equal(b) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

func (v Value) asFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.i)
	}

	return v.f
}
