package neat

// Hook is a callable registered at an extension point. Positional arguments
// arrive as an ordered slice; named-argument invocation passes a single
// map[string]any. Callers of the invocation helpers assert the concrete
// result type they expect.
type Hook func(args ...any) (any, error)

// HookChain is an ordered collection of hooks attached to one extension
// point. It substitutes for method overriding: extension behavior is
// registered explicitly, is introspectable (None/One/Len), and single-call
// invocation is arity-checked rather than silently falling back to a
// default implementation.
//
// A HookChain is not safe for concurrent structural mutation; registration
// is expected to happen before Run starts.
type HookChain struct {
	point string
	hooks []Hook
}

// NewHookChain creates an empty chain for the named extension point.
// The point name only appears in arity error messages.
func NewHookChain(point string) *HookChain {
	return &HookChain{point: point}
}

// Point returns the extension point name this chain is attached to.
func (hc *HookChain) Point() string { return hc.point }

// Add appends a hook to the end of the chain.
func (hc *HookChain) Add(h Hook) {
	hc.hooks = append(hc.hooks, h)
}

// Set replaces the entire chain with the single given hook.
func (hc *HookChain) Set(h Hook) {
	hc.hooks = []Hook{h}
}

// Clear removes all registered hooks.
func (hc *HookChain) Clear() {
	hc.hooks = nil
}

// None reports whether no hooks are registered.
func (hc *HookChain) None() bool { return len(hc.hooks) == 0 }

// One reports whether exactly one hook is registered.
func (hc *HookChain) One() bool { return len(hc.hooks) == 1 }

// Len returns the number of registered hooks.
func (hc *HookChain) Len() int { return len(hc.hooks) }

// CallAll invokes every registered hook in registration order and returns
// their results in the same order. It is defined for any chain length; an
// empty chain yields an empty result slice. The first hook error aborts the
// sweep.
func (hc *HookChain) CallAll(args ...any) ([]any, error) {
	results := make([]any, 0, len(hc.hooks))
	for _, h := range hc.hooks {
		res, err := h(args...)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// CallNamedAll is CallAll with named-argument passing: each hook receives
// the map as its sole argument.
func (hc *HookChain) CallNamedAll(named map[string]any) ([]any, error) {
	return hc.CallAll(named)
}

// CallOne invokes the sole registered hook and returns its result. It fails
// with HookArityError unless exactly one hook is registered.
func (hc *HookChain) CallOne(args ...any) (any, error) {
	h, err := hc.Sole()
	if err != nil {
		return nil, err
	}
	return h(args...)
}

// CallNamedOne is CallOne with named-argument passing.
func (hc *HookChain) CallNamedOne(named map[string]any) (any, error) {
	return hc.CallOne(named)
}

// Sole returns the single registered hook itself, for call sites that need
// the reference rather than its result. It fails with HookArityError unless
// exactly one hook is registered.
func (hc *HookChain) Sole() (Hook, error) {
	if len(hc.hooks) != 1 {
		return nil, &HookArityError{Point: hc.point, Registered: len(hc.hooks)}
	}
	return hc.hooks[0], nil
}
