package template

import (
	"fmt"
	"strings"
)

func (c *Context) exec(stmts []stmt, sc *scope, sb *strings.Builder) error {
	for _, s := range stmts {
		if err := c.execOne(s, sc, sb); err != nil {
			return err
		}
	}

	return nil
}

func (c *Context) execOne(s stmt, sc *scope, sb *strings.Builder) error {
	switch s.kind {
	case "text":
		sb.WriteString(s.text)
		return nil
	case "output":
		v, err := c.eval(s.expr, sc)
		if err != nil {
			return err
		}

		sb.WriteString(v.AsString())

		return nil
	case "if":
		for _, br := range s.branches {
			cond, err := c.eval(br.cond, sc)
			if err != nil {
				return err
			}

			if cond.Truthy() {
				return c.exec(br.body, newScope(sc), sb)
			}
		}

		return c.exec(s.elseBody, newScope(sc), sb)
	case "for":
		return c.execFor(s, sc, sb)
	case "set":
		return c.execSet(s, sc)
	default:
		return fmt.Errorf("template: unknown statement kind %q", s.kind)
	}
}

func (c *Context) execFor(s stmt, sc *scope, sb *strings.Builder) error {
	iter, err := c.eval(s.iterExpr, sc)
	if err != nil {
		return err
	}

	items, err := toIterable(iter)
	if err != nil {
		return err
	}

	var runBody func(items []Value) error

	runBody = func(items []Value) error {
		filtered := items

		if s.condExpr != nil {
			filtered = nil

			for _, it := range items {
				loopSc := newScope(sc)
				loopSc.setLocal(s.loopVar, it)

				keep, err := c.eval(s.condExpr, loopSc)
				if err != nil {
					return err
				}

				if keep.Truthy() {
					filtered = append(filtered, it)
				}
			}
		}

		for i, it := range filtered {
			loopSc := newScope(sc)
			loopSc.setLocal(s.loopVar, it)
			loopSc.setLocal("loop", loopMeta(i, len(filtered), s, sc, c, runBody))

			if err := c.exec(s.body, loopSc, sb); err != nil {
				return err
			}
		}

		return nil
	}

	return runBody(items)
}

// loopMeta builds the `loop` value visible inside a for-body: index
// counters plus, when the loop is declared recursive, a callable that
// re-runs the same body over a new iterable (Jinja's `{{ loop(children) }}`
// recursion idiom).
func loopMeta(i, n int, s stmt, _ *scope, c *Context, runBody func([]Value) error) Value {
	m := NewOrderedMap()
	m.Set("index", Int(int64(i+1)))
	m.Set("index0", Int(int64(i)))
	m.Set("first", Bool(i == 0))
	m.Set("last", Bool(i == n-1))
	m.Set("length", Int(int64(n)))

	if s.recursive {
		m.Set("__call__", Func(func(args []Value, _ map[string]Value) (Value, error) {
			if len(args) != 1 {
				return Null, fmt.Errorf("template: loop() expects one argument")
			}

			items, err := toIterable(args[0])
			if err != nil {
				return Null, err
			}

			return Null, runBody(items)
		}))
	}

	return Mapping(m)
}

func (c *Context) execSet(s stmt, sc *scope) error {
	v, err := c.eval(s.valueExpr, sc)
	if err != nil {
		return err
	}

	if len(s.target) == 1 {
		sc.set(s.target[0], v)
		return nil
	}

	base, ok := sc.lookup(s.target[0])
	if !ok || base.Kind != KindMapping {
		return fmt.Errorf("template: %q is not a namespace", s.target[0])
	}

	base.m.Set(s.target[1], v)

	return nil
}

func toIterable(v Value) ([]Value, error) {
	switch v.Kind {
	case KindArray:
		return v.arr, nil
	case KindMapping:
		out := make([]Value, 0, v.m.Len())
		for _, k := range v.m.Keys() {
			out = append(out, String(k))
		}

		return out, nil
	case KindString:
		out := make([]Value, 0, len(v.s))
		for _, r := range v.s {
			out = append(out, String(string(r)))
		}

		return out, nil
	case KindNull:
		return nil, nil
	default:
		return nil, fmt.Errorf("template: %s is not iterable", v.typeName())
	}
}
