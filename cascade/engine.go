// Package cascade computes final style of an element from its class names:
// matching rules are picked, ordered by specificity and their declarations
// merged and resolved. Result is live and follows every input it read.
package cascade

import (
	"strings"

	"go.uber.org/zap"

	"cssnitro/css"
	"cssnitro/reactive"
	"cssnitro/resolve"
	"cssnitro/rules"
	"cssnitro/scope"
)

// Classes gives access to rules registered under class name. Reading with
// getter must subscribe to later changes of that class, unknown class yields
// no rules but still subscribes.
type Classes interface {
	Rules(className string, get *reactive.Getter) []*css.Rule
}

// Sink receives resolved style of element whenever it changes and element
// does not need full re-render.
type Sink interface {
	AddUpdates(componentID string, style *css.Object)
}

// SinkFunc adapts function to Sink.
type SinkFunc func(componentID string, style *css.Object)

func (f SinkFunc) AddUpdates(componentID string, style *css.Object) {
	f(componentID, style)
}

// Params identify styled element and its context.
type Params struct {
	ComponentID           string
	ClassNames            string
	VariableScope         string
	ContainerScope        string
	ValidAttributeQueries []string
	// Rerender is called when changed style cannot be delivered as patch.
	Rerender func()
}

// Engine builds live styles. It is shared by all elements of a registry.
type Engine struct {
	log      *zap.Logger
	classes  Classes
	eval     *rules.Evaluator
	vars     *scope.Variables
	resolver *resolve.Resolver
	sink     Sink
}

func NewEngine(log *zap.Logger, classes Classes, eval *rules.Evaluator, vars *scope.Variables, resolver *resolve.Resolver, sink Sink) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:      log.Named("cascade"),
		classes:  classes,
		eval:     eval,
		vars:     vars,
		resolver: resolver,
		sink:     sink,
	}
}

type buckets struct {
	style, importantStyle, props, importantProps *css.Object
}

func (b *buckets) target(important, props bool) *css.Object {
	switch {
	case important && props:
		return b.importantProps
	case important:
		return b.importantStyle
	case props:
		return b.props
	default:
		return b.style
	}
}

// compute returns computation of element style. Inline variables written in
// previous pass but not in the current one are cleared.
func (e *Engine) compute(p Params) func(css.Styled, *reactive.Getter) css.Styled {
	varScope := p.VariableScope
	if varScope == "" {
		varScope = scope.RootScope
	}
	var inlined map[string]struct{}

	return func(_ css.Styled, get *reactive.Getter) css.Styled {
		var matched []*css.Rule
		for _, class := range strings.Fields(p.ClassNames) {
			for _, rule := range e.classes.Rules(class, get) {
				if e.eval.TestRule(rule, get, p.ComponentID, p.ContainerScope, p.ValidAttributeQueries) {
					matched = append(matched, rule)
				}
			}
		}
		css.SortRules(matched)

		inlined = e.applyVariables(matched, varScope, inlined)

		b := buckets{
			style:          css.NewObject(),
			importantStyle: css.NewObject(),
			props:          css.NewObject(),
			importantProps: css.NewObject(),
		}
		for _, rule := range matched {
			important := rule.Specificity.Important()
			e.merge(b.target(important, false), rule.Declarations, varScope, get)
			e.merge(b.target(important, true), rule.Props, varScope, get)
		}

		return css.Styled{
			Style:          nonEmpty(e.resolver.ApplyStyleMapping(b.style, varScope, get, true)),
			ImportantStyle: nonEmpty(e.resolver.ApplyStyleMapping(b.importantStyle, varScope, get, true)),
			Props:          nonEmpty(e.colorize(b.props)),
			ImportantProps: nonEmpty(e.colorize(b.importantProps)),
		}
	}
}

// applyVariables writes inline variables of matched rules into variable
// scope in rule order, so the last rule defining a variable wins. Each
// variable is written once with its final value.
func (e *Engine) applyVariables(matched []*css.Rule, varScope string, previous map[string]struct{}) map[string]struct{} {
	if varScope == scope.RootScope || varScope == scope.UniversalScope {
		return nil
	}

	final := css.NewObject()
	for _, rule := range matched {
		for name, value := range rule.Variables.All() {
			final.Set(name, value)
		}
	}
	current := make(map[string]struct{}, final.Len())
	for name, value := range final.All() {
		current[name] = struct{}{}
		e.vars.Set(varScope, name, value)
	}
	for name := range previous {
		if _, ok := current[name]; !ok {
			e.vars.Set(varScope, name, css.Null())
		}
	}
	return current
}

// merge copies resolved declarations into target unless target already has
// them. Declarations resolving to nothing leave the key free for rules with
// lower priority.
func (e *Engine) merge(target, decls *css.Object, varScope string, get *reactive.Getter) {
	for key, value := range decls.All() {
		if target.Has(key) {
			continue
		}
		resolved := e.resolver.ResolveValue(value, varScope, get)
		if resolved.IsNull() {
			continue
		}
		target.Set(key, resolved)
	}
}

func (e *Engine) colorize(props *css.Object) *css.Object {
	out := css.NewObject()
	for k, v := range props.All() {
		out.Set(k, e.resolver.Colorize(k, v))
	}
	return out
}

func nonEmpty(o *css.Object) *css.Object {
	if o.Len() == 0 {
		return nil
	}
	return o
}
