package template

import (
	"fmt"
	"strings"

	"dario.cat/mergo"
)

// FilterFunc is a pipe-style filter: expr | name(args...). The piped value
// is always args[0].
type FilterFunc func(args []Value, kwargs map[string]Value) (Value, error)

// Context holds the variables and filters visible to Render. It uses
// dario.cat/mergo for the one place this evaluator needs to combine two
// mappings: namespace()'s optional defaults argument.
type Context struct {
	root    *scope
	filters map[string]FilterFunc
}

// NewContext returns an empty Context with the standard builtins
// (range, join, tojson, trim, count, namespace, equalto, reject,
// raise_exception) registered as both global callables and filters.
func NewContext() *Context {
	c := &Context{root: newScope(nil), filters: make(map[string]FilterFunc)}
	registerBuiltins(c)

	return c
}

// Set binds name to v in the context's global scope.
func (c *Context) Set(name string, v Value) { c.root.setLocal(name, v) }

// Get looks up name in the context's global scope.
func (c *Context) Get(name string) (Value, bool) { return c.root.lookup(name) }

// Render evaluates src against the context's current variables and
// returns the rendered text. Each call runs in a fresh scope seeded with
// those variables, so a top-level {% set %} does not outlive the call.
func (c *Context) Render(src string) (string, error) {
	stmts, err := parseTemplate(src)
	if err != nil {
		return "", err
	}

	sc := newScope(nil)
	for k, v := range c.root.vars {
		sc.vars[k] = v
	}

	var sb strings.Builder

	if err := c.exec(stmts, sc, &sb); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func mergeDefaults(dst *OrderedMap, defaults Value) error {
	if defaults.Kind != KindMapping {
		return nil
	}

	dstMap := make(map[string]any, dst.Len())
	for _, k := range dst.Keys() {
		v, _ := dst.Get(k)
		dstMap[k] = v
	}

	srcMap := make(map[string]any, defaults.m.Len())
	for _, k := range defaults.m.Keys() {
		v, _ := defaults.m.Get(k)
		srcMap[k] = v
	}

	if err := mergo.Merge(&dstMap, srcMap); err != nil {
		return fmt.Errorf("template: namespace merge: %w", err)
	}

	for k, v := range dstMap {
		dst.Set(k, v.(Value))
	}

	return nil
}
