package resolve

import (
	"sync"

	"cssnitro/css"
	"cssnitro/reactive"
)

type animScope struct {
	owner  reactive.Owner
	frames map[string]*reactive.Computed[*css.Object]
}

// Animations keeps keyframes by name. For every variable scope and name
// there is cached computed resolving frames in that scope.
type Animations struct {
	r *Resolver

	mu     sync.Mutex
	raw    map[string]*reactive.Observable[*css.Object]
	scopes map[string]*animScope
}

func newAnimations(r *Resolver) *Animations {
	return &Animations{
		r:      r,
		raw:    make(map[string]*reactive.Observable[*css.Object]),
		scopes: make(map[string]*animScope),
	}
}

// SetKeyframes replaces keyframes of animation name, frames maps frame
// selector ("from", "50%", ...) to declarations.
func (a *Animations) SetKeyframes(name string, frames *css.Object) {
	o := a.source(name)
	reactive.Batch(func() {
		o.Set(frames)
	})
}

// Keyframes returns frames of animation name resolved in variable scope.
// Unknown animation gives empty map which is filled once keyframes are set.
func (a *Animations) Keyframes(name, varScope string, get *reactive.Getter) *css.Object {
	return reactive.Read(get, a.computed(name, varScope))
}

// DeleteScope disposes cached keyframes of variable scope.
func (a *Animations) DeleteScope(varScope string) {
	a.mu.Lock()
	s, ok := a.scopes[varScope]
	delete(a.scopes, varScope)
	a.mu.Unlock()
	if ok {
		s.owner.Dispose()
	}
}

// Close disposes all cached keyframes.
func (a *Animations) Close() {
	a.mu.Lock()
	scopes := a.scopes
	a.scopes = make(map[string]*animScope)
	a.mu.Unlock()
	for _, s := range scopes {
		s.owner.Dispose()
	}
}

func (a *Animations) source(name string) *reactive.Observable[*css.Object] {
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.raw[name]
	if !ok {
		o = reactive.NewObservableWithEqual[*css.Object](nil, (*css.Object).Equal)
		a.raw[name] = o
	}
	return o
}

func (a *Animations) computed(name, varScope string) *reactive.Computed[*css.Object] {
	src := a.source(name)

	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.scopes[varScope]
	if !ok {
		s = &animScope{frames: make(map[string]*reactive.Computed[*css.Object])}
		a.scopes[varScope] = s
	}
	c, ok := s.frames[name]
	if !ok {
		c = reactive.NewComputedWithEqual(func(_ *css.Object, get *reactive.Getter) *css.Object {
			return a.resolveFrames(reactive.Read(get, src), varScope, get)
		}, (*css.Object).Equal)
		s.frames[name] = c
		s.owner.Own(c)
	}
	return c
}

func (a *Animations) resolveFrames(raw *css.Object, varScope string, get *reactive.Getter) *css.Object {
	out := css.NewObject()
	for key, frame := range raw.All() {
		decls, ok := frame.AsObject()
		if !ok {
			continue
		}
		resolved := css.NewObject()
		for k, v := range decls.All() {
			if v = a.r.ResolveValue(v, varScope, get); !v.IsNull() {
				resolved.Set(k, v)
			}
		}
		out.Set(key, css.ObjectOf(a.r.ApplyStyleMapping(resolved, varScope, get, false)))
	}
	return out
}
