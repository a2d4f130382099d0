package reactive

import (
	"reflect"
	"slices"
	"sync"
)

// Source is anything effect may depend on.
type Source[T any] interface {
	// Get returns current value without subscribing.
	Get() T
	// Track returns current value and subscribes effect to future changes.
	Track(e *Effect) T
}

// Read returns value of src, subscribing the effect behind get (if any).
// Nil getter means untracked read.
func Read[T any](get *Getter, src Source[T]) T {
	if get == nil || get.effect == nil {
		return src.Get()
	}
	return src.Track(get.effect)
}

// Observable is atomic reactive cell.
type Observable[T any] struct {
	mu    sync.RWMutex
	value T
	subs  []*Effect
	equal func(a, b T) bool
}

// NewObservable creates cell with structural (reflect.DeepEqual) equality.
func NewObservable[T any](initial T) *Observable[T] {
	return NewObservableWithEqual(initial, nil)
}

// NewObservableWithEqual creates cell using provided equality function,
// nil means reflect.DeepEqual.
func NewObservableWithEqual[T any](initial T, equal func(a, b T) bool) *Observable[T] {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return &Observable[T]{value: initial, equal: equal}
}

func (o *Observable[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Track is idempotent: effect already subscribed is not added twice.
func (o *Observable[T]) Track(e *Effect) T {
	o.mu.Lock()
	v := o.value
	added := !slices.Contains(o.subs, e)
	if added {
		o.subs = append(o.subs, e)
	}
	o.mu.Unlock()

	if added {
		e.addRemover(func() { o.unsubscribe(e) })
	}
	return v
}

// Set replaces value and synchronously runs every subscribed effect. Setting
// value equal to the current one does nothing.
func (o *Observable[T]) Set(v T) {
	subs, changed := o.swap(v)
	if !changed {
		return
	}

	// lock is released, subscribers are free to read and re-subscribe
	for _, e := range subs {
		e.Run()
	}
}

func (o *Observable[T]) swap(v T) ([]*Effect, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.equal(o.value, v) {
		return nil, false
	}
	o.value = v
	return slices.Clone(o.subs), true
}

// Observers returns number of currently subscribed effects.
func (o *Observable[T]) Observers() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}

func (o *Observable[T]) unsubscribe(e *Effect) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if i := slices.Index(o.subs, e); i >= 0 {
		o.subs = slices.Delete(o.subs, i, i+1)
	}
}
