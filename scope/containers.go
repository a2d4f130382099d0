package scope

import (
	"sync"

	"cssnitro/reactive"
)

// Rect is element layout.
type Rect struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type bounds struct {
	x, y, width, height *reactive.Observable[float64]
	// reported flips once first layout arrives, until then the container
	// resolves but has no size
	reported *reactive.Observable[bool]
}

func (b *bounds) observers() int {
	return b.x.Observers() + b.y.Observers() + b.width.Observers() + b.height.Observers() + b.reported.Observers()
}

type hierarchy struct {
	parent string
	names  map[string]struct{}
}

// Containers tracks container hierarchy and live layout of containers.
type Containers struct {
	mu      sync.Mutex
	scopes  map[string]*hierarchy
	layouts map[string]*bounds
}

func NewContainers() *Containers {
	return &Containers{
		scopes:  make(map[string]*hierarchy),
		layouts: make(map[string]*bounds),
	}
}

// SetScope registers container scope, its parent and container names it
// answers to.
func (c *Containers) SetScope(scope, parent string, names []string) {
	h := &hierarchy{parent: parent, names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		h.names[n] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopes[scope] = h
}

// RemoveScope forgets scope. Its layout is reset first, while the scope still
// resolves, so queries reading it stay subscribed to the same cells and see
// the container again once it is remounted under the same key. Cells nobody
// reads are dropped.
func (c *Containers) RemoveScope(scope string) {
	c.mu.Lock()
	b, ok := c.layouts[scope]
	c.mu.Unlock()

	if ok {
		reactive.Batch(func() {
			b.reported.Set(false)
			b.x.Set(0)
			b.y.Set(0)
			b.width.Set(0)
			b.height.Set(0)
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.scopes, scope)
	if ok && b.observers() == 0 {
		delete(c.layouts, scope)
	}
}

// FindInScope resolves container name starting at scope and walking up the
// hierarchy. Empty name resolves to scope itself.
func (c *Containers) FindInScope(scope, name string) (string, bool) {
	if name == "" {
		return scope, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{})
	for {
		if _, loop := seen[scope]; loop {
			return "", false
		}
		seen[scope] = struct{}{}

		h, ok := c.scopes[scope]
		if !ok {
			return "", false
		}
		if _, ok := h.names[name]; ok {
			return scope, true
		}
		if h.parent == "" || h.parent == RootScope {
			return "", false
		}
		scope = h.parent
	}
}

func (c *Containers) X(scope, name string, get *reactive.Getter) (float64, bool) {
	return c.axis(scope, name, get, func(b *bounds) *reactive.Observable[float64] { return b.x })
}

func (c *Containers) Y(scope, name string, get *reactive.Getter) (float64, bool) {
	return c.axis(scope, name, get, func(b *bounds) *reactive.Observable[float64] { return b.y })
}

func (c *Containers) Width(scope, name string, get *reactive.Getter) (float64, bool) {
	return c.axis(scope, name, get, func(b *bounds) *reactive.Observable[float64] { return b.width })
}

func (c *Containers) Height(scope, name string, get *reactive.Getter) (float64, bool) {
	return c.axis(scope, name, get, func(b *bounds) *reactive.Observable[float64] { return b.height })
}

// SetLayout updates layout of container key. Every axis is compared
// separately so only changed axes notify.
func (c *Containers) SetLayout(key string, r Rect) {
	b := c.bounds(key)
	reactive.Batch(func() {
		b.x.Set(r.X)
		b.y.Set(r.Y)
		b.width.Set(r.Width)
		b.height.Set(r.Height)
		b.reported.Set(true)
	})
}

// Layout returns last reported layout without subscribing.
func (c *Containers) Layout(key string) (Rect, bool) {
	c.mu.Lock()
	b, ok := c.layouts[key]
	c.mu.Unlock()
	if !ok || !b.reported.Get() {
		return Rect{}, false
	}
	return Rect{X: b.x.Get(), Y: b.y.Get(), Width: b.width.Get(), Height: b.height.Get()}, true
}

func (c *Containers) axis(scope, name string, get *reactive.Getter, pick func(*bounds) *reactive.Observable[float64]) (float64, bool) {
	found, ok := c.FindInScope(scope, name)
	if !ok {
		return 0, false
	}
	b := c.bounds(found)
	if !reactive.Read(get, b.reported) {
		return 0, false
	}
	return reactive.Read(get, pick(b)), true
}

func (c *Containers) bounds(key string) *bounds {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.layouts[key]
	if !ok {
		b = &bounds{
			x:        reactive.NewObservable(0.0),
			y:        reactive.NewObservable(0.0),
			width:    reactive.NewObservable(0.0),
			height:   reactive.NewObservable(0.0),
			reported: reactive.NewObservable(false),
		}
		c.layouts[key] = b
	}
	return b
}
