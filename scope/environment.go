package scope

import (
	"sync"

	"cssnitro/reactive"
)

// Window describes viewport.
type Window struct {
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	Scale     float64 `yaml:"scale"`
	FontScale float64 `yaml:"font_scale"`
}

// DefaultRem is root font size used when none is configured.
const DefaultRem = 14

// Environment holds window metrics. Metrics are always updated as a group.
type Environment struct {
	mu        sync.RWMutex
	width     *reactive.Observable[float64]
	height    *reactive.Observable[float64]
	scale     *reactive.Observable[float64]
	fontScale *reactive.Observable[float64]
	rem       *reactive.Observable[float64]
}

func NewEnvironment(w Window) *Environment {
	return &Environment{
		width:     reactive.NewObservable(w.Width),
		height:    reactive.NewObservable(w.Height),
		scale:     reactive.NewObservable(w.Scale),
		fontScale: reactive.NewObservable(w.FontScale),
		rem:       reactive.NewObservable(float64(DefaultRem)),
	}
}

// SetWindow replaces all metrics at once, dependents run after every metric
// has been updated.
func (e *Environment) SetWindow(w Window) {
	reactive.Batch(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		e.width.Set(w.Width)
		e.height.Set(w.Height)
		e.scale.Set(w.Scale)
		e.fontScale.Set(w.FontScale)
	})
}

// Window returns consistent snapshot of metrics without subscribing.
func (e *Environment) Window() Window {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Window{
		Width:     e.width.Get(),
		Height:    e.height.Get(),
		Scale:     e.scale.Get(),
		FontScale: e.fontScale.Get(),
	}
}

func (e *Environment) Width(get *reactive.Getter) float64 {
	return reactive.Read(get, e.width)
}

func (e *Environment) Height(get *reactive.Getter) float64 {
	return reactive.Read(get, e.height)
}

func (e *Environment) Scale(get *reactive.Getter) float64 {
	return reactive.Read(get, e.scale)
}

func (e *Environment) FontScale(get *reactive.Getter) float64 {
	return reactive.Read(get, e.fontScale)
}

func (e *Environment) SetRem(rem float64) {
	if rem <= 0 {
		rem = DefaultRem
	}
	e.rem.Set(rem)
}

func (e *Environment) Rem(get *reactive.Getter) float64 {
	return reactive.Read(get, e.rem)
}
