// Package scope keeps live inputs style resolution depends on: window
// environment, per element pseudo class state, container layouts and
// hierarchical CSS variable scopes. Everything here is reactive, reads made
// with a getter subscribe the running effect.
package scope
