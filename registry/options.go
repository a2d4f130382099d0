package registry

import (
	"cssnitro/css"
	"cssnitro/scope"
)

// UpdateSink receives resolved style of components which changed without
// needing re-render. Receiver must treat updates as last write wins.
type UpdateSink interface {
	AddUpdates(componentID string, style *css.Object) error
}

// SinkFunc adapts function to UpdateSink.
type SinkFunc func(componentID string, style *css.Object) error

func (f SinkFunc) AddUpdates(componentID string, style *css.Object) error {
	return f(componentID, style)
}

type Option func(*options)

type options struct {
	sink   UpdateSink
	colors css.ColorProcessor
	window scope.Window
	rem    float64
}

func WithSink(sink UpdateSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithColorProcessor sets processor applied to color values, its results are
// cached by input string. Nil disables color processing.
func WithColorProcessor(p css.ColorProcessor) Option {
	return func(o *options) {
		o.colors = p
	}
}

// WithWindow sets initial window dimensions.
func WithWindow(w scope.Window) Option {
	return func(o *options) {
		o.window = w
	}
}

func WithRem(rem float64) Option {
	return func(o *options) {
		o.rem = rem
	}
}
