package template

import (
	"fmt"
	"strings"
)

// scope is a chained, copy-on-write-free variable environment: child
// scopes (loop bodies, namespaces) look up through their parent, and
// {% set %} writes land in the innermost scope that already owns that
// name, falling back to the current scope, matching Jinja's block-local
// `set` semantics.
type scope struct {
	vars   map[string]Value
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]Value), parent: parent}
}

func (s *scope) lookup(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}

	return Value{}, false
}

func (s *scope) set(name string, v Value) {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			return
		}
	}

	s.vars[name] = v
}

func (s *scope) setLocal(name string, v Value) { s.vars[name] = v }

func (c *Context) eval(n exprNode_, sc *scope) (Value, error) {
	if n == nil {
		return Null, nil
	}

	switch n.kind {
	case "lit":
		return n.lit, nil
	case "var":
		if v, ok := sc.lookup(n.name); ok {
			return v, nil
		}

		return Null, nil
	case "attr":
		base, err := c.eval(n.a, sc)
		if err != nil {
			return Null, err
		}

		return c.getAttr(base, n.name)
	case "index":
		base, err := c.eval(n.a, sc)
		if err != nil {
			return Null, err
		}

		idx, err := c.eval(n.b, sc)
		if err != nil {
			return Null, err
		}

		return c.getIndex(base, idx)
	case "slice":
		base, err := c.eval(n.a, sc)
		if err != nil {
			return Null, err
		}

		return c.getSlice(base, n.b, n.c, sc)
	case "list":
		items := make([]Value, 0, len(n.args))

		for _, a := range n.args {
			v, err := c.eval(a, sc)
			if err != nil {
				return Null, err
			}

			items = append(items, v)
		}

		return Array(items), nil
	case "dict":
		m := NewOrderedMap()

		for _, keyNode := range n.args {
			k, err := c.eval(keyNode, sc)
			if err != nil {
				return Null, err
			}

			v, err := c.eval(n.kwargs[fmt.Sprintf("%p", keyNode)], sc)
			if err != nil {
				return Null, err
			}

			m.Set(k.AsString(), v)
		}

		return Mapping(m), nil
	case "unary":
		v, err := c.eval(n.a, sc)
		if err != nil {
			return Null, err
		}

		switch n.op {
		case "not":
			return Bool(!v.Truthy()), nil
		case "-":
			if v.Kind == KindInt {
				return Int(-v.i), nil
			}

			return Float(-v.asFloat()), nil
		}

		return Null, fmt.Errorf("template: unknown unary op %q", n.op)
	case "binop":
		return c.evalBinop(n, sc)
	case "cond":
		cond, err := c.eval(n.b, sc)
		if err != nil {
			return Null, err
		}

		if cond.Truthy() {
			return c.eval(n.a, sc)
		}

		return c.eval(n.c, sc)
	case "pipe":
		v, err := c.eval(n.a, sc)
		if err != nil {
			return Null, err
		}

		args := make([]Value, 0, len(n.args)+1)
		args = append(args, v)

		for _, a := range n.args {
			av, err := c.eval(a, sc)
			if err != nil {
				return Null, err
			}

			args = append(args, av)
		}

		fn, ok := c.filters[n.name]
		if !ok {
			return Null, fmt.Errorf("template: unknown filter %q", n.name)
		}

		return fn(args, nil)
	case "call":
		return c.evalCall(n, sc)
	default:
		return Null, fmt.Errorf("template: unknown expression kind %q", n.kind)
	}
}

func (c *Context) evalCall(n exprNode_, sc *scope) (Value, error) {
	fnVal, err := c.eval(n.a, sc)
	if err != nil {
		return Null, err
	}

	if fnVal.Kind == KindMapping {
		if call, ok := fnVal.m.Get("__call__"); ok && call.Kind == KindCallable {
			fnVal = call
		}
	}

	if fnVal.Kind != KindCallable {
		return Null, fmt.Errorf("template: %s is not callable", n.a.describe())
	}

	args := make([]Value, 0, len(n.args))

	for _, a := range n.args {
		v, err := c.eval(a, sc)
		if err != nil {
			return Null, err
		}

		args = append(args, v)
	}

	kwargs := make(map[string]Value, len(n.kwargs))

	for k, a := range n.kwargs {
		v, err := c.eval(a, sc)
		if err != nil {
			return Null, err
		}

		kwargs[k] = v
	}

	return fnVal.call(args, kwargs)
}

func (n *exprNode) describe() string {
	if n.kind == "var" {
		return n.name
	}

	return n.kind
}

func (c *Context) evalBinop(n exprNode_, sc *scope) (Value, error) {
	switch n.op {
	case "and":
		left, err := c.eval(n.a, sc)
		if err != nil {
			return Null, err
		}

		if !left.Truthy() {
			return left, nil
		}

		return c.eval(n.b, sc)
	case "or":
		left, err := c.eval(n.a, sc)
		if err != nil {
			return Null, err
		}

		if left.Truthy() {
			return left, nil
		}

		return c.eval(n.b, sc)
	case "is":
		left, err := c.eval(n.a, sc)
		if err != nil {
			return Null, err
		}

		result, err := c.evalIsTest(left, n.b, sc)
		if err != nil {
			return Null, err
		}

		if n.negate {
			result = !result
		}

		return Bool(result), nil
	case "in":
		left, err := c.eval(n.a, sc)
		if err != nil {
			return Null, err
		}

		right, err := c.eval(n.b, sc)
		if err != nil {
			return Null, err
		}

		result := contains(right, left)
		if n.negate {
			result = !result
		}

		return Bool(result), nil
	}

	left, err := c.eval(n.a, sc)
	if err != nil {
		return Null, err
	}

	right, err := c.eval(n.b, sc)
	if err != nil {
		return Null, err
	}

	switch n.op {
	case "==":
		return Bool(left.Equal(right)), nil
	case "!=":
		return Bool(!left.Equal(right)), nil
	case "<", ">", "<=", ">=":
		return Bool(compareOrdered(left, right, n.op)), nil
	case "+":
		return arith(left, right, n.op)
	case "-", "*", "/", "%", "//":
		return arith(left, right, n.op)
	case "~":
		return String(left.AsString() + right.AsString()), nil
	}

	return Null, fmt.Errorf("template: unknown binary op %q", n.op)
}

func (c *Context) evalIsTest(v Value, test exprNode_, sc *scope) (bool, error) {
	name := test.name

	var rawArgs []exprNode_
	if test.kind == "call" {
		name = test.a.name
		rawArgs = test.args
	}

	// `none` parses as the null literal rather than a name.
	if test.kind == "lit" && test.lit.Kind == KindNull {
		name = "none"
	}

	switch name {
	case "none":
		return v.Kind == KindNull, nil
	case "boolean":
		return v.Kind == KindBool, nil
	case "integer":
		return v.Kind == KindInt, nil
	case "float":
		return v.Kind == KindFloat, nil
	case "number":
		return v.Kind == KindInt || v.Kind == KindFloat, nil
	case "string":
		return v.Kind == KindString, nil
	case "mapping":
		return v.Kind == KindMapping, nil
	case "iterable":
		return v.Kind == KindArray || v.Kind == KindMapping || v.Kind == KindString, nil
	case "sequence":
		return v.Kind == KindArray || v.Kind == KindString, nil
	case "defined":
		return v.Kind != KindNull, nil
	case "equalto", "eq", "sameas":
		if len(rawArgs) != 1 {
			return false, fmt.Errorf("template: is %s() takes one argument", name)
		}

		other, err := c.eval(rawArgs[0], sc)
		if err != nil {
			return false, err
		}

		return v.Equal(other), nil
	case "divisibleby":
		if len(rawArgs) != 1 {
			return false, fmt.Errorf("template: is divisibleby() takes one argument")
		}

		arg, err := c.eval(rawArgs[0], sc)
		if err != nil {
			return false, err
		}

		// Leniently coerce both sides (a loop index or a string numeral
		// spelled out by the caller) the way Jinja's divisibleby does.
		n, err := valueToInt64(v)
		if err != nil {
			return false, err
		}

		d, err := valueToInt64(arg)
		if err != nil {
			return false, err
		}

		if d == 0 {
			return false, fmt.Errorf("template: is divisibleby(0)")
		}

		return n%d == 0, nil
	default:
		return false, nil
	}
}

func contains(container, item Value) bool {
	switch container.Kind {
	case KindArray:
		for _, it := range container.arr {
			if it.Equal(item) {
				return true
			}
		}

		return false
	case KindString:
		return strings.Contains(container.s, item.AsString())
	case KindMapping:
		_, ok := container.m.Get(item.AsString())
		return ok
	default:
		return false
	}
}

func compareOrdered(a, b Value, op string) bool {
	if (a.Kind == KindInt || a.Kind == KindFloat) && (b.Kind == KindInt || b.Kind == KindFloat) {
		x, y := a.asFloat(), b.asFloat()

		switch op {
		case "<":
			return x < y
		case ">":
			return x > y
		case "<=":
			return x <= y
		case ">=":
			return x >= y
		}
	}

	if a.Kind == KindString && b.Kind == KindString {
		switch op {
		case "<":
			return a.s < b.s
		case ">":
			return a.s > b.s
		case "<=":
			return a.s <= b.s
		case ">=":
			return a.s >= b.s
		}
	}

	return false
}

func arith(a, b Value, op string) (Value, error) {
	if a.Kind == KindString && op == "+" {
		return String(a.s + b.AsString()), nil
	}

	if a.Kind == KindInt && b.Kind == KindInt {
		switch op {
		case "+":
			return Int(a.i + b.i), nil
		case "-":
			return Int(a.i - b.i), nil
		case "*":
			return Int(a.i * b.i), nil
		case "//":
			if b.i == 0 {
				return Null, fmt.Errorf("template: division by zero")
			}

			return Int(a.i / b.i), nil
		case "%":
			if b.i == 0 {
				return Null, fmt.Errorf("template: division by zero")
			}

			return Int(a.i % b.i), nil
		case "/":
			if b.i == 0 {
				return Null, fmt.Errorf("template: division by zero")
			}

			return Float(float64(a.i) / float64(b.i)), nil
		}
	}

	x, y := a.asFloat(), b.asFloat()

	switch op {
	case "+":
		return Float(x + y), nil
	case "-":
		return Float(x - y), nil
	case "*":
		return Float(x * y), nil
	case "/":
		if y == 0 {
			return Null, fmt.Errorf("template: division by zero")
		}

		return Float(x / y), nil
	case "//":
		if y == 0 {
			return Null, fmt.Errorf("template: division by zero")
		}

		return Float(float64(int64(x / y))), nil
	case "%":
		if y == 0 {
			return Null, fmt.Errorf("template: division by zero")
		}

		return Float(float64(int64(x) % int64(y))), nil
	}

	return Null, fmt.Errorf("template: unknown arithmetic op %q", op)
}

func (c *Context) getAttr(base Value, name string) (Value, error) {
	switch base.Kind {
	case KindMapping:
		if v, ok := base.m.Get(name); ok {
			return v, nil
		}

		return Null, nil
	case KindArray:
		switch name {
		case "length":
			return Int(int64(len(base.arr))), nil
		}
	case KindString:
		switch name {
		case "length":
			return Int(int64(len(base.s))), nil
		}
	}

	return Null, nil
}

func (c *Context) getIndex(base, idx Value) (Value, error) {
	switch base.Kind {
	case KindArray:
		i := int(idx.i)
		if idx.Kind == KindFloat {
			i = int(idx.f)
		}

		if i < 0 {
			i += len(base.arr)
		}

		if i < 0 || i >= len(base.arr) {
			return Null, nil
		}

		return base.arr[i], nil
	case KindMapping:
		if v, ok := base.m.Get(idx.AsString()); ok {
			return v, nil
		}

		return Null, nil
	case KindString:
		i := int(idx.i)
		if i < 0 {
			i += len(base.s)
		}

		if i < 0 || i >= len(base.s) {
			return Null, nil
		}

		return String(string(base.s[i])), nil
	default:
		return Null, nil
	}
}

func (c *Context) getSlice(base Value, loNode, hiNode exprNode_, sc *scope) (Value, error) {
	length := 0

	switch base.Kind {
	case KindArray:
		length = len(base.arr)
	case KindString:
		length = len(base.s)
	default:
		return Null, nil
	}

	lo, hi := 0, length

	if loNode != nil {
		v, err := c.eval(loNode, sc)
		if err != nil {
			return Null, err
		}

		lo = normalizeSliceIndex(int(v.i), length)
	}

	if hiNode != nil {
		v, err := c.eval(hiNode, sc)
		if err != nil {
			return Null, err
		}

		hi = normalizeSliceIndex(int(v.i), length)
	}

	if lo > hi {
		lo = hi
	}

	switch base.Kind {
	case KindArray:
		return Array(append([]Value{}, base.arr[lo:hi]...)), nil
	case KindString:
		return String(base.s[lo:hi]), nil
	default:
		return Null, nil
	}
}

func normalizeSliceIndex(i, length int) int {
	if i < 0 {
		i += length
	}

	if i < 0 {
		return 0
	}

	if i > length {
		return length
	}

	return i
}
