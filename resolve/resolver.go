// Package resolve turns declaration values into final values: function
// expressions are evaluated against variable scopes and environment,
// transform properties are folded, animation names are replaced with
// keyframes and colors go through color processor.
package resolve

import (
	"go.uber.org/zap"

	"cssnitro/css"
	"cssnitro/reactive"
	"cssnitro/scope"
)

// maxDepth limits nesting of variable references, deeper chains (usually
// cycles) resolve to nothing.
const maxDepth = 32

// Function names recognized in ["fn", name, args...] expressions.
const (
	FnVar       = "var"
	FnCalc      = "calc"
	FnRem       = "rem"
	FnBoxShadow = "boxShadow"
)

type Resolver struct {
	log    *zap.Logger
	vars   *scope.Variables
	env    *scope.Environment
	colors css.ColorProcessor
	anims  *Animations
}

// NewResolver creates resolver. Color processor may be nil, then colors are
// passed through unchanged.
func NewResolver(log *zap.Logger, vars *scope.Variables, env *scope.Environment, colors css.ColorProcessor) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{
		log:    log.Named("resolver"),
		vars:   vars,
		env:    env,
		colors: colors,
	}
	r.anims = newAnimations(r)
	return r
}

// Animations returns keyframes registry resolver consults for animationName.
func (r *Resolver) Animations() *Animations {
	return r.anims
}

// ResolveValue evaluates function expressions in v (including ones nested in
// lists and objects) in given variable scope. Null result means declaration
// has no value.
func (r *Resolver) ResolveValue(v css.Value, varScope string, get *reactive.Getter) css.Value {
	return r.resolve(v, varScope, get, 0)
}

func (r *Resolver) resolve(v css.Value, varScope string, get *reactive.Getter, depth int) css.Value {
	if depth > maxDepth {
		r.log.Debug("Value nesting is too deep, ignoring", zap.String("scope", varScope), zap.Stringer("value", v))
		return css.Null()
	}

	switch v.Kind() {
	case css.KindList:
		if v.IsCall() {
			return r.call(v, varScope, get, depth)
		}
		list, _ := v.AsList()
		out := make([]css.Value, len(list))
		for i, e := range list {
			out[i] = r.resolve(e, varScope, get, depth+1)
		}
		return css.List(out...)
	case css.KindObject:
		obj, _ := v.AsObject()
		out := css.NewObject()
		for k, e := range obj.All() {
			out.Set(k, r.resolve(e, varScope, get, depth+1))
		}
		return css.ObjectOf(out)
	default:
		return v
	}
}

func (r *Resolver) call(v css.Value, varScope string, get *reactive.Getter, depth int) css.Value {
	name, args, ok := v.AsCall()
	if !ok {
		return css.Null()
	}

	switch name {
	case FnVar:
		return r.variable(args, varScope, get, depth)
	case FnCalc:
		return calc(r.calcTokens(args, varScope, get, depth))
	case FnRem:
		if len(args) == 0 {
			return css.Null()
		}
		n, ok := r.resolve(args[0], varScope, get, depth+1).AsNumber()
		if !ok {
			return css.Null()
		}
		return css.Number(round(n * r.env.Rem(get)))
	case FnBoxShadow:
		return boxShadow(r.flatten(args, varScope, get, depth))
	}
	r.log.Debug("Unknown function, ignoring", zap.String("name", name))
	return css.Null()
}

// variable resolves ["fn", "var", name, fallback?]. Value found is resolved in
// the scope it was found in, if that gives nothing lookup goes on.
func (r *Resolver) variable(args []css.Value, varScope string, get *reactive.Getter, depth int) css.Value {
	if len(args) == 0 {
		return css.Null()
	}
	name, ok := args[0].AsString()
	if !ok {
		return css.Null()
	}

	found := r.vars.Get(varScope, name, get, func(raw css.Value, in string) css.Value {
		return r.resolve(raw, in, get, depth+1)
	})
	if !found.IsNull() || len(args) < 2 {
		return found
	}
	return r.resolve(args[1], varScope, get, depth+1)
}

// calcTokens accepts both ["fn","calc",[tokens...]] and
// ["fn","calc",tokens...] and resolves function operands.
func (r *Resolver) calcTokens(args []css.Value, varScope string, get *reactive.Getter, depth int) []css.Value {
	tokens := args
	if len(args) == 1 {
		if list, ok := args[0].AsList(); ok && !args[0].IsCall() {
			tokens = list
		}
	}
	out := make([]css.Value, 0, len(tokens))
	for _, t := range tokens {
		if t.IsCall() {
			t = r.resolve(t, varScope, get, depth+1)
		}
		out = append(out, t)
	}
	return out
}

// flatten resolves arguments and flattens nested lists into single token
// sequence.
func (r *Resolver) flatten(args []css.Value, varScope string, get *reactive.Getter, depth int) []css.Value {
	var out []css.Value
	var walk func(vs []css.Value, level int)
	walk = func(vs []css.Value, level int) {
		for _, v := range vs {
			if v.IsCall() {
				v = r.resolve(v, varScope, get, depth+1)
			}
			if list, ok := v.AsList(); ok && level < 10 {
				walk(list, level+1)
				continue
			}
			out = append(out, v)
		}
	}
	walk(args, 0)
	return out
}
