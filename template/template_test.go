package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, src string, setup func(c *Context)) string {
	t.Helper()

	c := NewContext()
	if setup != nil {
		setup(c)
	}

	out, err := c.Render(src)
	require.NoError(t, err)

	return out
}

func TestRenderInterpolation(t *testing.T) {
	out := render(t, "hello {{ name }}!", func(c *Context) {
		c.Set("name", String("world"))
	})
	assert.Equal(t, "hello world!", out)
}

func TestRenderArithmeticAndConcat(t *testing.T) {
	out := render(t, "{{ 1 + 2 }} {{ 'a' ~ 'b' }}", nil)
	assert.Equal(t, "3 ab", out)
}

func TestRenderIfElifElse(t *testing.T) {
	tpl := "{% if x == 1 %}one{% elif x == 2 %}two{% else %}other{% endif %}"

	assert.Equal(t, "one", render(t, tpl, func(c *Context) { c.Set("x", Int(1)) }))
	assert.Equal(t, "two", render(t, tpl, func(c *Context) { c.Set("x", Int(2)) }))
	assert.Equal(t, "other", render(t, tpl, func(c *Context) { c.Set("x", Int(3)) }))
}

func TestRenderForLoop(t *testing.T) {
	tpl := "{% for item in items %}{{ loop.index }}:{{ item }} {% endfor %}"

	out := render(t, tpl, func(c *Context) {
		c.Set("items", Array([]Value{String("a"), String("b"), String("c")}))
	})
	assert.Equal(t, "1:a 2:b 3:c ", out)
}

func TestRenderForLoopWithCondition(t *testing.T) {
	tpl := "{% for item in items if item > 1 %}{{ item }} {% endfor %}"

	out := render(t, tpl, func(c *Context) {
		c.Set("items", Array([]Value{Int(1), Int(2), Int(3)}))
	})
	assert.Equal(t, "2 3 ", out)
}

func TestRenderRecursiveLoop(t *testing.T) {
	tpl := "{% for node in tree recursive %}{{ node.name }}" +
		"{% if node.children %}({{ loop(node.children) }}){% endif %}{% endfor %}"

	leaf := NewOrderedMap()
	leaf.Set("name", String("b"))
	leaf.Set("children", Array(nil))

	root := NewOrderedMap()
	root.Set("name", String("a"))
	root.Set("children", Array([]Value{Mapping(leaf)}))

	out := render(t, tpl, func(c *Context) {
		c.Set("tree", Array([]Value{Mapping(root)}))
	})
	assert.Equal(t, "a(b)", out)
}

func TestRenderSetAndNamespace(t *testing.T) {
	tpl := "{% set ns = namespace(total=0) %}" +
		"{% for n in nums %}{% set ns.total = ns.total + n %}{% endfor %}" +
		"{{ ns.total }}"

	out := render(t, tpl, func(c *Context) {
		c.Set("nums", Array([]Value{Int(1), Int(2), Int(3)}))
	})
	assert.Equal(t, "6", out)
}

func TestRenderPipeFilters(t *testing.T) {
	out := render(t, "{{ items | join(', ') }}", func(c *Context) {
		c.Set("items", Array([]Value{String("x"), String("y")}))
	})
	assert.Equal(t, "x, y", out)
}

func TestRenderToJSONFilter(t *testing.T) {
	out := render(t, "{{ obj | tojson }}", func(c *Context) {
		m := NewOrderedMap()
		m.Set("a", Int(1))
		c.Set("obj", Mapping(m))
	})
	assert.Equal(t, `{"a":1}`, out)
}

func TestRenderIsTests(t *testing.T) {
	tpl := "{% if x is none %}none{% elif x is string %}string{% else %}other{% endif %}"

	assert.Equal(t, "none", render(t, tpl, func(c *Context) { c.Set("x", Null) }))
	assert.Equal(t, "string", render(t, tpl, func(c *Context) { c.Set("x", String("hi")) }))
	assert.Equal(t, "other", render(t, tpl, func(c *Context) { c.Set("x", Int(1)) }))
}

func TestRenderIsNotTest(t *testing.T) {
	out := render(t, "{% if x is not none %}set{% else %}unset{% endif %}", func(c *Context) {
		c.Set("x", Int(5))
	})
	assert.Equal(t, "set", out)
}

func TestRenderDivisibleByTest(t *testing.T) {
	tpl := "{% if n is divisibleby(3) %}fizz{% else %}{{ n }}{% endif %}"

	assert.Equal(t, "fizz", render(t, tpl, func(c *Context) { c.Set("n", Int(9)) }))
	assert.Equal(t, "10", render(t, tpl, func(c *Context) { c.Set("n", Int(10)) }))
	// the tested value may be spelled out as a string numeral; valueToInt64
	// coerces it the same way it would an int.
	assert.Equal(t, "fizz", render(t, tpl, func(c *Context) { c.Set("n", String("9")) }))
}

func TestRenderIsEqualToTest(t *testing.T) {
	out := render(t, "{% if n is equalto(4) %}yes{% else %}no{% endif %}", func(c *Context) {
		c.Set("n", Int(4))
	})
	assert.Equal(t, "yes", out)
}

func TestRenderSlice(t *testing.T) {
	out := render(t, "{{ items[1:3] | join(',') }}", func(c *Context) {
		c.Set("items", Array([]Value{Int(1), Int(2), Int(3), Int(4)}))
	})
	assert.Equal(t, "2,3", out)
}

func TestRenderRange(t *testing.T) {
	out := render(t, "{% for i in range(3) %}{{ i }}{% endfor %}", nil)
	assert.Equal(t, "012", out)
}

func TestRenderCountAndReject(t *testing.T) {
	tpl := "{{ (items | reject('equalto', 2)) | count }}"

	out := render(t, tpl, func(c *Context) {
		c.Set("items", Array([]Value{Int(1), Int(2), Int(2), Int(3)}))
	})
	assert.Equal(t, "2", out)
}

func TestRenderTernary(t *testing.T) {
	out := render(t, "{{ 'yes' if flag else 'no' }}", func(c *Context) {
		c.Set("flag", Bool(false))
	})
	assert.Equal(t, "no", out)
}

func TestRenderTrimMarkers(t *testing.T) {
	out := render(t, "a\n{%- if true %}\nb\n{%- endif %}\nc", nil)
	assert.Equal(t, "a\nb\nc", out)
}

func TestRenderRaiseException(t *testing.T) {
	c := NewContext()

	_, err := c.Render("{{ raise_exception('boom') }}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRenderInAndNotIn(t *testing.T) {
	tpl := "{% if n in items %}in{% else %}out{% endif %} " +
		"{% if n not in items %}in{% else %}out{% endif %}"

	out := render(t, tpl, func(c *Context) {
		c.Set("items", Array([]Value{Int(1), Int(2), Int(3)}))
		c.Set("n", Int(2))
	})
	assert.Equal(t, "in out", out)

	out = render(t, tpl, func(c *Context) {
		c.Set("items", Array([]Value{Int(1), Int(2), Int(3)}))
		c.Set("n", Int(9))
	})
	assert.Equal(t, "out in", out)
}

func TestRenderAttributeAndIndex(t *testing.T) {
	m := NewOrderedMap()
	m.Set("name", String("tool"))

	out := render(t, "{{ obj.name }} {{ obj['name'] }}", func(c *Context) {
		c.Set("obj", Mapping(m))
	})
	assert.Equal(t, "tool tool", out)
}
