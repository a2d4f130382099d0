package scope

import (
	"sync"

	"cssnitro/css"
	"cssnitro/reactive"
)

type pseudoState struct {
	active, hover, focus *reactive.Observable[bool]
}

func (s *pseudoState) cell(t css.PseudoClassType) **reactive.Observable[bool] {
	switch t {
	case css.PseudoActive:
		return &s.active
	case css.PseudoHover:
		return &s.hover
	case css.PseudoFocus:
		return &s.focus
	}
	return nil
}

// PseudoClasses keeps interactive state of elements. States are created on
// first access and default to false.
type PseudoClasses struct {
	mu     sync.Mutex
	states map[string]*pseudoState
}

func NewPseudoClasses() *PseudoClasses {
	return &PseudoClasses{states: make(map[string]*pseudoState)}
}

func (p *PseudoClasses) Get(key string, t css.PseudoClassType, get *reactive.Getter) bool {
	o := p.observable(key, t)
	if o == nil {
		return false
	}
	return reactive.Read(get, o)
}

func (p *PseudoClasses) Set(key string, t css.PseudoClassType, value bool) {
	if o := p.observable(key, t); o != nil {
		o.Set(value)
	}
}

// Remove resets all state of the element. Cells somebody still reads are
// kept so the element remounted under the same key notifies them again.
func (p *PseudoClasses) Remove(key string) {
	p.mu.Lock()
	st, ok := p.states[key]
	p.mu.Unlock()
	if !ok {
		return
	}

	cells := []*reactive.Observable[bool]{st.active, st.hover, st.focus}
	reactive.Batch(func() {
		for _, o := range cells {
			if o != nil {
				o.Set(false)
			}
		}
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range cells {
		if o != nil && o.Observers() > 0 {
			return
		}
	}
	if p.states[key] == st {
		delete(p.states, key)
	}
}

func (p *PseudoClasses) observable(key string, t css.PseudoClassType) *reactive.Observable[bool] {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.states[key]
	if !ok {
		st = &pseudoState{}
		p.states[key] = st
	}
	ref := st.cell(t)
	if ref == nil {
		return nil
	}
	if *ref == nil {
		*ref = reactive.NewObservable(false)
	}
	return *ref
}
