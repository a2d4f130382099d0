package cascade

import (
	"go.uber.org/zap"

	"cssnitro/css"
	"cssnitro/reactive"
)

// Styled is live style of one element. Every change after the first result
// is delivered either as sink update or as re-render request, decision is
// made once new result is installed.
type Styled struct {
	params   Params
	computed *reactive.Computed[css.Styled]
	owner    reactive.Owner
}

// NewStyled starts live style of element. First result is computed right
// away.
func (e *Engine) NewStyled(p Params) *Styled {
	s := &Styled{
		params:   p,
		computed: reactive.NewComputedWithEqual(e.compute(p), css.Styled.Equal),
	}
	s.owner.Own(s.computed)

	first := true
	watcher := reactive.NewEffect(func(get *reactive.Getter) {
		next := reactive.Read(get, s.computed)
		if first {
			first = false
			return
		}
		e.deliver(p, next)
	})
	s.owner.Own(watcher)
	watcher.Run()

	return s
}

func (e *Engine) deliver(p Params, next css.Styled) {
	if next.HasProps() || next.Animated() {
		e.log.Debug("Style change requires re-render", zap.String("component", p.ComponentID))
		if p.Rerender != nil {
			reactive.Batch(p.Rerender)
		}
		return
	}
	if e.sink != nil {
		e.sink.AddUpdates(p.ComponentID, next.MergedStyle())
	}
}

func (s *Styled) Params() Params {
	return s.params
}

func (s *Styled) Get() css.Styled {
	return s.computed.Get()
}

func (s *Styled) Track(e *reactive.Effect) css.Styled {
	return s.computed.Track(e)
}

// Dispose stops following inputs, last result stays readable.
func (s *Styled) Dispose() {
	s.owner.Dispose()
}

func (s *Styled) Disposed() bool {
	return s.owner.Disposed()
}

// SameParams reports whether element registered with p may keep using s.
func (s *Styled) SameParams(p Params) bool {
	return s.params.ClassNames == p.ClassNames &&
		s.params.VariableScope == p.VariableScope &&
		s.params.ContainerScope == p.ContainerScope
}
