package neat

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constHook(v any) Hook {
	return func(args ...any) (any, error) { return v, nil }
}

// TestHookChainQueries verifies None/One/Len track structural mutation.
func TestHookChainQueries(t *testing.T) {
	hc := NewHookChain("test")
	assert.True(t, hc.None())
	assert.False(t, hc.One())
	assert.Equal(t, 0, hc.Len())

	hc.Add(constHook(1))
	assert.False(t, hc.None())
	assert.True(t, hc.One())

	hc.Add(constHook(2))
	assert.False(t, hc.One())
	assert.Equal(t, 2, hc.Len())

	hc.Set(constHook(3))
	assert.True(t, hc.One(), "Set should replace the whole chain")

	hc.Clear()
	assert.True(t, hc.None())
}

// TestHookChainCallAll verifies multi-call invocation returns every result
// in registration order and is defined for the empty chain.
func TestHookChainCallAll(t *testing.T) {
	hc := NewHookChain("test")

	results, err := hc.CallAll()
	require.NoError(t, err)
	assert.Empty(t, results, "empty chain yields an empty result sequence")

	hc.Add(constHook("first"))
	hc.Add(constHook("second"))
	hc.Add(constHook("third"))

	results, err = hc.CallAll()
	require.NoError(t, err)
	assert.Equal(t, []any{"first", "second", "third"}, results)
}

// TestHookChainCallAllPropagatesError verifies the first failing hook
// aborts the sweep.
func TestHookChainCallAllPropagatesError(t *testing.T) {
	hc := NewHookChain("test")
	boom := errors.New("boom")
	calls := 0

	hc.Add(func(args ...any) (any, error) { calls++; return nil, nil })
	hc.Add(func(args ...any) (any, error) { calls++; return nil, boom })
	hc.Add(func(args ...any) (any, error) { calls++; return nil, nil })

	_, err := hc.CallAll()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls, "hooks after the failure must not run")
}

// TestHookChainCallOneArity verifies single-call invocation fails with
// HookArityError for zero and for two registered hooks, and returns the
// sole hook's result otherwise.
func TestHookChainCallOneArity(t *testing.T) {
	hc := NewHookChain("stop_on_fit")

	_, err := hc.CallOne()
	var arity *HookArityError
	require.ErrorAs(t, err, &arity)
	assert.Equal(t, 0, arity.Registered)
	assert.Equal(t, "stop_on_fit", arity.Point)

	hc.Add(constHook(true))
	res, err := hc.CallOne()
	require.NoError(t, err)
	assert.Equal(t, true, res)

	hc.Add(constHook(false))
	_, err = hc.CallOne()
	require.ErrorAs(t, err, &arity)
	assert.Equal(t, 2, arity.Registered)
}

// TestHookChainSole verifies Sole hands back the callable reference itself.
func TestHookChainSole(t *testing.T) {
	hc := NewHookChain("test")

	_, err := hc.Sole()
	var arity *HookArityError
	require.ErrorAs(t, err, &arity)

	hc.Set(constHook(42))
	h, err := hc.Sole()
	require.NoError(t, err)
	res, err := h()
	require.NoError(t, err)
	assert.Equal(t, 42, res)
}

// TestHookChainNamedInvocation verifies named arguments arrive as the sole
// map argument.
func TestHookChainNamedInvocation(t *testing.T) {
	hc := NewHookChain("test")
	hc.Add(func(args ...any) (any, error) {
		require.Len(t, args, 1)
		named, ok := args[0].(map[string]any)
		require.True(t, ok)
		return fmt.Sprintf("gen=%v", named["generation"]), nil
	})

	results, err := hc.CallNamedAll(map[string]any{"generation": 7})
	require.NoError(t, err)
	assert.Equal(t, []any{"gen=7"}, results)

	res, err := hc.CallNamedOne(map[string]any{"generation": 8})
	require.NoError(t, err)
	assert.Equal(t, "gen=8", res)
}

// TestHookChainArgumentPassing verifies positional arguments reach hooks in
// order.
func TestHookChainArgumentPassing(t *testing.T) {
	hc := NewHookChain("fitness")
	hc.Set(func(args ...any) (any, error) {
		require.Len(t, args, 2)
		return args[0].(float64) + float64(args[1].(int)), nil
	})

	res, err := hc.CallOne(1.5, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.5, res)
}
