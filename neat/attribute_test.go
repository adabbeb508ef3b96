package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAttrLazyDefaultMaterialization verifies an unset attribute is
// populated from its declared default on first read and cached afterwards.
func TestAttrLazyDefaultMaterialization(t *testing.T) {
	table := NewAttrTable().
		MustDeclare(AttrDef{Name: "bound", Default: 15})

	set := NewAttrSet(table)
	assert.False(t, set.Materialized("bound"))

	v, err := set.Get("bound")
	require.NoError(t, err)
	assert.Equal(t, 15, v)
	assert.True(t, set.Materialized("bound"))

	// Overwrites replace the cached value.
	require.NoError(t, set.Set("bound", 3))
	v, err = set.Get("bound")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

// TestAttrCloneableDefaults verifies cloneable defaults never share mutable
// state between instances, while numeric defaults are shared by value.
func TestAttrCloneableDefaults(t *testing.T) {
	table := NewAttrTable().
		MustDeclare(AttrDef{Name: "tags", Default: []string{"a", "b"}}).
		MustDeclare(AttrDef{Name: "rate", Default: 0.5})

	first := NewAttrSet(table)
	second := NewAttrSet(table)

	v1, err := first.Get("tags")
	require.NoError(t, err)
	v2, err := second.Get("tags")
	require.NoError(t, err)

	s1 := v1.([]string)
	s2 := v2.([]string)
	assert.Equal(t, s1, s2)

	s1[0] = "mutated"
	assert.Equal(t, "a", s2[0], "cloneable defaults must not alias across instances")

	r1, err := first.Get("rate")
	require.NoError(t, err)
	assert.Equal(t, 0.5, r1)
}

// TestAttrFactoryDefault verifies factory defaults build a fresh value per
// instance exactly once.
func TestAttrFactoryDefault(t *testing.T) {
	built := 0
	table := NewAttrTable().
		MustDeclare(AttrDef{Name: "bag", Factory: func() any {
			built++
			return map[string]int{}
		}})

	set := NewAttrSet(table)
	v1, err := set.Get("bag")
	require.NoError(t, err)
	v2, err := set.Get("bag")
	require.NoError(t, err)
	assert.Equal(t, 1, built, "materialization happens exactly once")

	v1.(map[string]int)["x"] = 1
	assert.Equal(t, 1, v2.(map[string]int)["x"], "repeated reads see the cached value")
}

// TestAttrCloneableInference verifies the inference rule: true unless the
// default is absent or numeric.
func TestAttrCloneableInference(t *testing.T) {
	cases := []struct {
		name string
		def  AttrDef
		want bool
	}{
		{"slice default", AttrDef{Name: "a", Default: []int{1}}, true},
		{"map default", AttrDef{Name: "b", Default: map[string]int{}}, true},
		{"string default", AttrDef{Name: "c", Default: "x"}, true},
		{"int default", AttrDef{Name: "d", Default: 3}, false},
		{"float default", AttrDef{Name: "e", Default: 3.5}, false},
		{"absent default", AttrDef{Name: "f"}, false},
		{"factory default", AttrDef{Name: "g", Factory: func() any { return 1 }}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.def.cloneable())
		})
	}

	explicit := false
	def := AttrDef{Name: "h", Default: []int{1}, Cloneable: &explicit}
	assert.False(t, def.cloneable(), "explicit override wins over inference")
}

// TestAttrModeDeclarationRules verifies extension modes reject explicit
// defaults and duplicate declarations fail.
func TestAttrModeDeclarationRules(t *testing.T) {
	table := NewAttrTable()

	err := table.Declare(AttrDef{Name: "hooks", Mode: AttrHooks, Default: 1})
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	err = table.Declare(AttrDef{Name: "queue", Mode: AttrQueue, Factory: func() any { return 1 }})
	require.ErrorAs(t, err, &cfgErr)

	require.NoError(t, table.Declare(AttrDef{Name: "events", Mode: AttrQueue}))
	err = table.Declare(AttrDef{Name: "events", Mode: AttrHooks})
	require.ErrorAs(t, err, &cfgErr, "a field cannot be redeclared under another mode")

	err = table.Declare(AttrDef{Name: ""})
	require.ErrorAs(t, err, &cfgErr)
}

// TestAttrExtensionModeAccess verifies hook and queue fields materialize
// their empty chain/queue lazily and reject direct assignment.
func TestAttrExtensionModeAccess(t *testing.T) {
	table := NewAttrTable().
		MustDeclare(AttrDef{Name: "report", Mode: AttrHooks}).
		MustDeclare(AttrDef{Name: "deferred", Mode: AttrQueue}).
		MustDeclare(AttrDef{Name: "plain", Default: 1})

	set := NewAttrSet(table)

	hc, err := set.HookChain("report")
	require.NoError(t, err)
	assert.True(t, hc.None())
	hc.Add(constHook(1))

	again, err := set.HookChain("report")
	require.NoError(t, err)
	assert.Same(t, hc, again, "the chain is cached after first access")
	assert.True(t, again.One())

	q, err := set.Queue("deferred")
	require.NoError(t, err)
	assert.Equal(t, 0, q.Len())

	var cfgErr *ConfigurationError
	err = set.Set("report", 7)
	require.ErrorAs(t, err, &cfgErr)
	err = set.Set("deferred", 7)
	require.ErrorAs(t, err, &cfgErr)

	_, err = set.HookChain("plain")
	require.ErrorAs(t, err, &cfgErr)
	_, err = set.Get("missing")
	require.ErrorAs(t, err, &cfgErr)
}

// TestQueueFIFO verifies push/pop ordering and drain.
func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	_, ok := q.Pop()
	assert.False(t, ok)

	q.Push("a")
	q.Push("b")
	q.Push("c")
	assert.Equal(t, 3, q.Len())

	head, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", head)

	drained := q.Drain()
	assert.Equal(t, []any{"b", "c"}, drained)
	assert.Equal(t, 0, q.Len())
}
