package scope

import (
	"sync"

	"cssnitro/css"
	"cssnitro/reactive"
)

// Sentinel variable scopes.
const (
	RootScope      = "root"
	UniversalScope = "universal"
)

// MediaTester evaluates media condition of layered top level variable.
type MediaTester func(mq css.Value, get *reactive.Getter) bool

// Accept inspects raw variable value found in scope. Returning null makes
// lookup continue along the chain.
type Accept func(raw css.Value, scope string) css.Value

// cell is either plain value or value derived from top level table.
type cell struct {
	obs  *reactive.Observable[css.Value]
	comp *reactive.Computed[css.Value]
}

func (c *cell) read(get *reactive.Getter) css.Value {
	if c.comp != nil {
		return reactive.Read(get, c.comp)
	}
	return reactive.Read(get, c.obs)
}

func (c *cell) dispose() {
	if c.comp != nil {
		c.comp.Dispose()
	}
}

type varScope struct {
	parent string
	cells  map[string]*cell
}

// Variables is tree of variable scopes. Lookup goes from requested scope to
// universal scope and then up the parent chain to root.
type Variables struct {
	mu     sync.Mutex
	scopes map[string]*varScope
	// top level tables for root and universal scopes, values may be layered
	tables map[string]map[string]*reactive.Observable[css.Value]
	media  MediaTester
}

// NewVariables creates empty variable tree. Media tester may be nil, then
// conditional layers never match.
func NewVariables(media MediaTester) *Variables {
	return &Variables{
		scopes: make(map[string]*varScope),
		tables: map[string]map[string]*reactive.Observable[css.Value]{
			RootScope:      {},
			UniversalScope: {},
		},
		media: media,
	}
}

func newValue(v css.Value) *reactive.Observable[css.Value] {
	return reactive.NewObservableWithEqual(v, css.Value.Equal)
}

func isTopLevel(scope string) bool {
	return scope == RootScope || scope == UniversalScope
}

// CreateScope creates scope with given parent or re-parents existing one.
func (v *Variables) CreateScope(key, parent string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.scopes[key]; ok {
		s.parent = parent
		return
	}
	v.scopes[key] = &varScope{parent: parent, cells: make(map[string]*cell)}
}

// EnsureScope creates scope parented to root unless it already exists.
func (v *Variables) EnsureScope(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scope(key)
}

func (v *Variables) HasScope(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.scopes[key]
	return ok
}

// DeleteScope drops scope and disposes its derived cells.
func (v *Variables) DeleteScope(key string) {
	v.mu.Lock()
	s, ok := v.scopes[key]
	delete(v.scopes, key)
	v.mu.Unlock()

	if ok {
		for _, c := range s.cells {
			c.dispose()
		}
	}
}

// Get looks variable up. First value accepted (non null after accept, which
// may be nil) wins. Every scope checked which lacks the variable receives
// empty placeholder, so later assignment there is seen by the reader.
func (v *Variables) Get(key, name string, get *reactive.Getter, accept Accept) css.Value {
	if r := v.check(key, name, get, accept); !r.IsNull() {
		return r
	}
	if key == UniversalScope {
		return css.Null()
	}
	if r := v.check(UniversalScope, name, get, accept); !r.IsNull() {
		return r
	}
	if key == RootScope {
		return css.Null()
	}

	seen := map[string]struct{}{key: {}}
	current := key
	for {
		parent, ok := v.parentOf(current)
		if !ok || parent == "" || parent == current {
			return css.Null()
		}
		if _, loop := seen[parent]; loop {
			return css.Null()
		}
		seen[parent] = struct{}{}

		if r := v.check(parent, name, get, accept); !r.IsNull() {
			return r
		}
		current = parent
	}
}

// Set assigns plain value in scope, creating scope parented to root when
// necessary. Root and universal scopes are written through their tables so
// readers of the derived cell are notified.
func (v *Variables) Set(key, name string, value css.Value) {
	if isTopLevel(key) {
		v.tableEntry(key, name).Set(value)
		return
	}

	v.mu.Lock()
	s := v.scope(key)
	c, ok := s.cells[name]
	if !ok {
		c = &cell{obs: newValue(value)}
		s.cells[name] = c
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()
	c.obs.Set(value)
}

// SetTopLevel writes into root or universal table. Value may be layered:
// list of {v: value, m: media} entries, first entry with passing media (or
// without one) is used.
func (v *Variables) SetTopLevel(key, name string, value css.Value) {
	v.Set(key, name, value)
}

func (v *Variables) parentOf(key string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.scopes[key]
	if !ok {
		return "", false
	}
	return s.parent, true
}

// scope must be called with lock held.
func (v *Variables) scope(key string) *varScope {
	s, ok := v.scopes[key]
	if !ok {
		s = &varScope{parent: RootScope, cells: make(map[string]*cell)}
		v.scopes[key] = s
	}
	return s
}

func (v *Variables) check(key, name string, get *reactive.Getter, accept Accept) css.Value {
	v.mu.Lock()
	var s *varScope
	if isTopLevel(key) {
		s = v.scope(key)
	} else if s = v.scopes[key]; s == nil {
		v.mu.Unlock()
		return css.Null()
	}
	c, ok := s.cells[name]
	if !ok {
		if isTopLevel(key) {
			c = &cell{comp: v.layered(key, name)}
		} else {
			c = &cell{obs: newValue(css.Null())}
		}
		s.cells[name] = c
	}
	v.mu.Unlock()

	// read outside of the lock, derived cell may call back into variables
	raw := c.read(get)
	if raw.IsNull() || accept == nil {
		return raw
	}
	return accept(raw, key)
}

func (v *Variables) tableEntry(key, name string) *reactive.Observable[css.Value] {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, ok := v.tables[key][name]
	if !ok {
		o = newValue(css.Null())
		v.tables[key][name] = o
	}
	return o
}

func (v *Variables) layered(key, name string) *reactive.Computed[css.Value] {
	return reactive.NewComputedWithEqual(func(_ css.Value, get *reactive.Getter) css.Value {
		raw := reactive.Read(get, v.tableEntry(key, name))
		layers, ok := asLayers(raw)
		if !ok {
			return raw
		}
		for _, layer := range layers {
			if m, ok := layer.Get("m"); ok && !m.IsNull() {
				if _, ok := m.AsObject(); !ok || v.media == nil || !v.media(m, get) {
					continue
				}
			}
			val, _ := layer.Get("v")
			return val
		}
		return css.Null()
	}, css.Value.Equal)
}

// asLayers recognizes layered declaration: non empty list of objects each
// having "v" entry.
func asLayers(raw css.Value) ([]*css.Object, bool) {
	list, ok := raw.AsList()
	if !ok || len(list) == 0 {
		return nil, false
	}
	layers := make([]*css.Object, 0, len(list))
	for _, e := range list {
		obj, ok := e.AsObject()
		if !ok || !obj.Has("v") {
			return nil, false
		}
		layers = append(layers, obj)
	}
	return layers, true
}
