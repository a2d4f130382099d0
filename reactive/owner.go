package reactive

import "sync"

// Disposer is anything holding subscriptions.
type Disposer interface {
	Dispose()
}

// Owner scopes lifetime of a group of effects and computeds: disposing owner
// disposes everything it owns in reverse order, exactly once.
type Owner struct {
	mu       sync.Mutex
	cleanups []func()
	disposed bool
}

// Own registers d for disposal. Owning after owner is disposed disposes d
// immediately.
func (o *Owner) Own(d Disposer) {
	o.OnDispose(d.Dispose)
}

func (o *Owner) OnDispose(fn func()) {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		fn()
		return
	}
	o.cleanups = append(o.cleanups, fn)
	o.mu.Unlock()
}

func (o *Owner) Dispose() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	cleanups := o.cleanups
	o.cleanups = nil
	o.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (o *Owner) Disposed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.disposed
}
