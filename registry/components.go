package registry

import (
	"sort"
	"sync"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"cssnitro/cascade"
	"cssnitro/css"
	"cssnitro/reactive"
	"cssnitro/scope"
)

// component owns live style of registered element and cleanups of scopes
// keyed by its id.
type component struct {
	id    string
	owner reactive.Owner

	mu       sync.Mutex
	styled   *cascade.Styled
	rerender func()
}

func (c *component) current() *cascade.Styled {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.styled
}

// replace installs new style and returns previous one.
func (c *component) replace(s *cascade.Styled) *cascade.Styled {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.styled
	c.styled = s
	return prev
}

func (c *component) setRerender(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rerender = fn
}

func (c *component) callRerender() {
	c.mu.Lock()
	fn := c.rerender
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (r *Registry) newComponent(id string) *component {
	c := &component{id: id}
	c.owner.OnDispose(func() {
		params := cascade.Params{}
		if s := c.current(); s != nil {
			params = s.Params()
			s.Dispose()
		}
		r.pseudo.Remove(id)
		r.containers.RemoveScope(id)
		if params.VariableScope == id {
			r.vars.DeleteScope(id)
			r.resolver.Animations().DeleteScope(id)
		}
	})
	return c
}

// RegisterComponent returns current style of component, building live style
// on first registration. Registering again with the same class names and
// scopes keeps existing live style, any change rebuilds it. Rerender
// callback is always replaced.
func (r *Registry) RegisterComponent(componentID string, rerender func(), classNames, variableScope, containerScope string, validAttributeQueries []string) (css.Styled, error) {
	var styled css.Styled
	err := r.mutate(func() error {
		r.compMu.Lock()
		c, ok := r.components[componentID]
		if !ok {
			c = r.newComponent(componentID)
			r.components[componentID] = c
		}
		r.compMu.Unlock()

		c.setRerender(rerender)

		p := cascade.Params{
			ComponentID:           componentID,
			ClassNames:            classNames,
			VariableScope:         variableScope,
			ContainerScope:        containerScope,
			ValidAttributeQueries: validAttributeQueries,
			Rerender:              c.callRerender,
		}

		if cur := c.current(); cur != nil && cur.SameParams(p) {
			styled = cur.Get()
			return nil
		}

		if variableScope != "" {
			r.vars.EnsureScope(variableScope)
		}
		next := r.engine.NewStyled(p)
		if prev := c.replace(next); prev != nil {
			prev.Dispose()
			r.log.Debug("Component rebuilt", zap.String("id", componentID), zap.String("classes", classNames))
		} else {
			r.log.Debug("Component registered", zap.String("id", componentID), zap.String("classes", classNames))
		}
		styled = next.Get()
		return nil
	})
	return styled, err
}

// DeregisterComponent disposes live style of component and drops state kept
// for it. Unknown component is ignored.
func (r *Registry) DeregisterComponent(componentID string) error {
	return r.mutate(func() error {
		r.compMu.Lock()
		c, ok := r.components[componentID]
		delete(r.components, componentID)
		r.compMu.Unlock()

		if ok {
			c.owner.Dispose()
			r.log.Debug("Component deregistered", zap.String("id", componentID))
		}
		return nil
	})
}

// Styled returns current style of registered component.
func (r *Registry) Styled(componentID string) (css.Styled, bool) {
	r.compMu.Lock()
	c, ok := r.components[componentID]
	r.compMu.Unlock()
	if !ok {
		return css.Styled{}, false
	}
	s := c.current()
	if s == nil {
		return css.Styled{}, false
	}
	return s.Get(), true
}

// ComponentIDs returns ids of registered components in natural order.
func (r *Registry) ComponentIDs() []string {
	r.compMu.Lock()
	ids := make([]string, 0, len(r.components))
	for id := range r.components {
		ids = append(ids, id)
	}
	r.compMu.Unlock()

	sort.Sort(natural.StringSlice(ids))
	return ids
}

// Snapshot returns current styles of all registered components.
func (r *Registry) Snapshot() map[string]css.Styled {
	out := make(map[string]css.Styled)
	for _, id := range r.ComponentIDs() {
		if s, ok := r.Styled(id); ok {
			out[id] = s
		}
	}
	return out
}

// Close disposes all live styles and cached keyframes, registry can not be
// used afterwards. Pending sink updates are delivered.
func (r *Registry) Close() error {
	if r.closed.Swap(true) {
		return nil
	}

	r.compMu.Lock()
	comps := r.components
	r.components = make(map[string]*component)
	r.compMu.Unlock()

	for _, c := range comps {
		c.owner.Dispose()
	}
	r.resolver.Animations().Close()
	for _, key := range []string{scope.RootScope, scope.UniversalScope} {
		r.vars.DeleteScope(key)
	}

	r.log.Debug("Registry closed", zap.Int("components", len(comps)))
	return r.flush()
}
