package reactive

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// Batches are goroutine-local: effects queued on one goroutine are never
// flushed by another one.

type batchState struct {
	gid     int64
	depth   int
	pending []*Effect
	marked  map[*Effect]struct{}
}

func (st *batchState) enqueue(e *Effect) {
	if _, ok := st.marked[e]; ok {
		return
	}
	st.marked[e] = struct{}{}
	st.pending = append(st.pending, e)
}

var (
	batchMu    sync.Mutex
	batchByGID = make(map[int64]*batchState)
	// number of goroutines with open batch, lets Run skip goroutine lookup
	openBatches atomic.Int32
)

// Batch defers effects triggered by writes made in fn until fn returns. Each
// effect marked dirty runs once, in order it was first marked. Batches nest,
// only the outermost one flushes. Batch is always closed, even when fn panics.
func Batch(fn func()) {
	st := beginBatch()
	defer endBatch(st)
	fn()
}

// InBatch reports whether calling goroutine has open batch.
func InBatch() bool {
	return currentBatch() != nil
}

func currentBatch() *batchState {
	if openBatches.Load() == 0 {
		return nil
	}
	gid := goid.Get()

	batchMu.Lock()
	defer batchMu.Unlock()
	return batchByGID[gid]
}

func beginBatch() *batchState {
	gid := goid.Get()

	batchMu.Lock()
	defer batchMu.Unlock()

	st, ok := batchByGID[gid]
	if !ok {
		st = &batchState{gid: gid, marked: make(map[*Effect]struct{})}
		batchByGID[gid] = st
		openBatches.Add(1)
	}
	st.depth++
	return st
}

func endBatch(st *batchState) {
	batchMu.Lock()
	st.depth--
	if st.depth > 0 {
		batchMu.Unlock()
		return
	}
	delete(batchByGID, st.gid)
	openBatches.Add(-1)
	batchMu.Unlock()

	// batch is closed, effects run immediately and anything they trigger
	// propagates synchronously
	for _, e := range st.pending {
		e.runNow()
	}
}
