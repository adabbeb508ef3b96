package neat

import "reflect"

// AttrMode selects how a declared attribute is backed.
type AttrMode int

const (
	// AttrPlain is an ordinary defaultable field.
	AttrPlain AttrMode = iota
	// AttrHooks backs the field with a HookChain; the field is mutated only
	// through the chain's own operations, never through Set.
	AttrHooks
	// AttrQueue backs the field with a FIFO Queue; as with AttrHooks, Set is
	// unavailable.
	AttrQueue
)

func (m AttrMode) String() string {
	switch m {
	case AttrHooks:
		return "hook-chain"
	case AttrQueue:
		return "queue"
	default:
		return "plain"
	}
}

// Cloner lets a default value control how it is copied during lazy
// materialization. Types that do not implement it get a shallow reflective
// copy for slices and maps, and value semantics otherwise.
type Cloner interface {
	CloneAttr() any
}

// AttrDef declares one attribute on a type: a name, an optional default
// (either a literal value or a zero-arg factory, the factory winning when
// both are set), an optional explicit cloneable override, and a backing
// mode. Hook-chain and queue modes carry no default; the empty chain or
// queue is implicit.
type AttrDef struct {
	Name      string
	Default   any
	Factory   func() any
	Cloneable *bool // nil means inferred: true unless default absent or numeric
	Mode      AttrMode
}

// cloneable resolves the effective cloneable flag for this definition.
func (d AttrDef) cloneable() bool {
	if d.Cloneable != nil {
		return *d.Cloneable
	}
	if d.Factory != nil {
		// Factories build a fresh value per instance; nothing to clone.
		return false
	}
	if d.Default == nil {
		return false
	}
	switch reflect.ValueOf(d.Default).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	}
	return true
}

// AttrTable is the per-type registry of attribute declarations. A table is
// built once (typically in a package-level var) and shared by every
// instance of the declaring type; instance state lives in AttrSet.
type AttrTable struct {
	order []string
	defs  map[string]AttrDef
}

// NewAttrTable creates an empty declaration table.
func NewAttrTable() *AttrTable {
	return &AttrTable{defs: make(map[string]AttrDef)}
}

// Declare registers one attribute descriptor. Redeclaring a name fails, as
// does attaching an explicit default (value or factory) to a hook-chain or
// queue mode field.
func (t *AttrTable) Declare(def AttrDef) error {
	if def.Name == "" {
		return configErrorf("attribute name must not be empty")
	}
	if _, exists := t.defs[def.Name]; exists {
		return configErrorf("attribute %q declared twice", def.Name)
	}
	if def.Mode != AttrPlain && (def.Default != nil || def.Factory != nil) {
		return configErrorf("attribute %q: %s mode cannot carry an explicit default", def.Name, def.Mode)
	}
	t.defs[def.Name] = def
	t.order = append(t.order, def.Name)
	return nil
}

// MustDeclare is Declare for package-level table construction, where a
// failure is a programming error.
func (t *AttrTable) MustDeclare(def AttrDef) *AttrTable {
	if err := t.Declare(def); err != nil {
		panic(err)
	}
	return t
}

// Names returns the declared attribute names in declaration order.
func (t *AttrTable) Names() []string {
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

// AttrSet holds per-instance attribute state against a shared table.
// A field's value is materialized lazily on first Get: hook-chain and queue
// fields get their empty chain/queue, plain fields get the declared default
// (cloned when cloneable, shared otherwise). The materialized value is
// cached and returned unchanged until explicitly overwritten.
type AttrSet struct {
	table  *AttrTable
	values map[string]any
}

// NewAttrSet creates instance state bound to the given table.
func NewAttrSet(table *AttrTable) *AttrSet {
	return &AttrSet{table: table, values: make(map[string]any)}
}

// Get returns the attribute's current value, materializing it from the
// declaration on first read.
func (s *AttrSet) Get(name string) (any, error) {
	def, ok := s.table.defs[name]
	if !ok {
		return nil, configErrorf("attribute %q is not declared", name)
	}
	if v, ok := s.values[name]; ok {
		return v, nil
	}
	v := materialize(def)
	s.values[name] = v
	return v, nil
}

// Set overwrites the attribute's value. Hook-chain and queue fields reject
// Set; they are mutated only through their own operations.
func (s *AttrSet) Set(name string, value any) error {
	def, ok := s.table.defs[name]
	if !ok {
		return configErrorf("attribute %q is not declared", name)
	}
	if def.Mode != AttrPlain {
		return configErrorf("attribute %q: %s mode fields cannot be assigned directly", name, def.Mode)
	}
	s.values[name] = value
	return nil
}

// Materialized reports whether the attribute has been read or written yet.
func (s *AttrSet) Materialized(name string) bool {
	_, ok := s.values[name]
	return ok
}

// HookChain returns a hook-chain mode attribute, materializing the empty
// chain on first access. Reading a non-hook field through this accessor is
// a ConfigurationError.
func (s *AttrSet) HookChain(name string) (*HookChain, error) {
	v, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	hc, ok := v.(*HookChain)
	if !ok {
		return nil, configErrorf("attribute %q is not a hook-chain field", name)
	}
	return hc, nil
}

// Queue returns a queue mode attribute, materializing the empty queue on
// first access.
func (s *AttrSet) Queue(name string) (*Queue, error) {
	v, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	q, ok := v.(*Queue)
	if !ok {
		return nil, configErrorf("attribute %q is not a queue field", name)
	}
	return q, nil
}

func materialize(def AttrDef) any {
	switch def.Mode {
	case AttrHooks:
		return NewHookChain(def.Name)
	case AttrQueue:
		return NewQueue()
	}
	if def.Factory != nil {
		return def.Factory()
	}
	if def.Default == nil {
		return nil
	}
	if def.cloneable() {
		return cloneValue(def.Default)
	}
	return def.Default
}

// cloneValue copies a default so instances never share mutable state.
func cloneValue(v any) any {
	if c, ok := v.(Cloner); ok {
		return c.CloneAttr()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface()
	case reflect.Map:
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface()
	}
	// Value semantics already copy on assignment.
	return v
}

// Queue is the FIFO backing a queue-mode attribute.
type Queue struct {
	items []any
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an item to the tail.
func (q *Queue) Push(v any) {
	q.items = append(q.items, v)
}

// Pop removes and returns the head item; ok is false on an empty queue.
func (q *Queue) Pop() (any, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// Len returns the number of queued items.
func (q *Queue) Len() int { return len(q.items) }

// Drain removes and returns all items in FIFO order.
func (q *Queue) Drain() []any {
	out := q.items
	q.items = nil
	return out
}
