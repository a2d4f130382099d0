// Package reactive implements small push based dependency tracking runtime:
// observable cells, effects re-running when cells they read change, lazily
// initialized cached computations and goroutine-local batching of updates.
//
// Everything runs synchronously on the goroutine performing the write. Reads
// made through a Getter handed to an effect callback subscribe the effect to
// the cell being read, plain reads do not.
package reactive
