package reactive

import "sync"

// Getter is dependency tracking proxy handed to effect callbacks. Pass it to
// Read (or Track sources directly) to subscribe the running effect.
type Getter struct {
	effect *Effect
}

// Effect re-runs its callback whenever any source it read during previous
// run changes.
type Effect struct {
	fn func(get *Getter)

	mu       sync.Mutex
	removers []func()
	disposed bool
}

// NewEffect creates effect. Callback is not invoked until first Run.
func NewEffect(fn func(get *Getter)) *Effect {
	return &Effect{fn: fn}
}

// Run drops current subscriptions and invokes callback again. When batch is
// open on calling goroutine the run is deferred until the outermost batch
// ends, repeated runs of the same effect collapse into one.
func (e *Effect) Run() {
	if e.Disposed() {
		return
	}
	if st := currentBatch(); st != nil {
		st.enqueue(e)
		return
	}
	e.runNow()
}

// Dispose permanently detaches effect from all of its sources. Safe to call
// more than once, it never interrupts run in progress.
func (e *Effect) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	removers := e.removers
	e.removers = nil
	e.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
}

func (e *Effect) Disposed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disposed
}

func (e *Effect) runNow() {
	if e.Disposed() {
		return
	}
	e.detach()
	e.fn(&Getter{effect: e})
}

func (e *Effect) detach() {
	e.mu.Lock()
	removers := e.removers
	e.removers = nil
	e.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
}

// addRemover registers subscription remover. Subscriptions made after
// disposal (from callback still running) are dropped right away.
func (e *Effect) addRemover(remove func()) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		remove()
		return
	}
	e.removers = append(e.removers, remove)
	e.mu.Unlock()
}
