package reactive

import "sync"

// Computed is cached derived value. Compute function receives previously
// cached value and getter to track dependencies with. It is not invoked at
// construction, only on first read, and after that every time any of its
// dependencies changes.
type Computed[T any] struct {
	cache  *Observable[T]
	effect *Effect
	once   sync.Once
}

// NewComputed creates computed with structural equality of results.
func NewComputed[T any](fn func(prev T, get *Getter) T) *Computed[T] {
	return NewComputedWithEqual(fn, nil)
}

// NewComputedWithEqual creates computed, downstream effects are notified only
// when new result is not equal to the previous one.
func NewComputedWithEqual[T any](fn func(prev T, get *Getter) T, equal func(a, b T) bool) *Computed[T] {
	var zero T
	c := &Computed[T]{cache: NewObservableWithEqual(zero, equal)}
	c.effect = NewEffect(func(get *Getter) {
		c.cache.Set(fn(c.cache.Get(), get))
	})
	return c
}

func (c *Computed[T]) Get() T {
	c.init()
	return c.cache.Get()
}

func (c *Computed[T]) Track(e *Effect) T {
	c.init()
	return c.cache.Track(e)
}

// Set overrides cached value. Subscriptions are kept and the next change of
// dependencies overwrites it.
func (c *Computed[T]) Set(v T) {
	c.cache.Set(v)
}

// Dispose drops all upstream subscriptions. Reads keep returning last cached
// value.
func (c *Computed[T]) Dispose() {
	// disposed before first read never computes
	c.once.Do(func() {})
	c.effect.Dispose()
}

func (c *Computed[T]) Disposed() bool {
	return c.effect.Disposed()
}

// Observers returns number of effects depending on computed value.
func (c *Computed[T]) Observers() int {
	return c.cache.Observers()
}

func (c *Computed[T]) init() {
	// first computation is never deferred by open batch, reader needs value
	c.once.Do(c.effect.runNow)
}
