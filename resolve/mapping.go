package resolve

import (
	"slices"

	"cssnitro/css"
	"cssnitro/reactive"
)

const (
	keyTransform     = "transform"
	keyAnimationName = "animationName"
)

var transformProps = map[string]struct{}{
	"translateX":  {},
	"translateY":  {},
	"translateZ":  {},
	"rotate":      {},
	"rotateX":     {},
	"rotateY":     {},
	"rotateZ":     {},
	"scaleX":      {},
	"scaleY":      {},
	"scaleZ":      {},
	"skewX":       {},
	"skewY":       {},
	"perspective": {},
}

// IsTransformProp reports whether key is folded into transform list.
func IsTransformProp(key string) bool {
	_, ok := transformProps[key]
	return ok
}

// ApplyStyleMapping produces final style map from resolved declarations.
// Transform properties are folded into single ordered "transform" list of
// one-key objects, first occurrence fixes slot position. When
// processAnimations is set animationName (name or list of names) is replaced
// with keyframes. Values under color keys go through color processor.
func (r *Resolver) ApplyStyleMapping(in *css.Object, varScope string, get *reactive.Getter, processAnimations bool) *css.Object {
	out := css.NewObject()

	for key, value := range in.All() {
		switch {
		case processAnimations && key == keyAnimationName:
			out.Set(key, r.animationName(value, varScope, get))
		case IsTransformProp(key):
			out.Set(keyTransform, foldTransform(out, key, value))
		default:
			out.Set(key, r.Colorize(key, value))
		}
	}
	return out
}

func (r *Resolver) animationName(v css.Value, varScope string, get *reactive.Getter) css.Value {
	if name, ok := v.AsString(); ok {
		return css.ObjectOf(r.anims.Keyframes(name, varScope, get))
	}
	list, ok := v.AsList()
	if !ok {
		return v
	}
	frames := make([]css.Value, 0, len(list))
	for _, e := range list {
		if name, ok := e.AsString(); ok {
			frames = append(frames, css.ObjectOf(r.anims.Keyframes(name, varScope, get)))
		}
	}
	return css.List(frames...)
}

func foldTransform(out *css.Object, key string, value css.Value) css.Value {
	var slots []css.Value
	if existing, ok := out.Get(keyTransform); ok {
		if list, ok := existing.AsList(); ok {
			slots = slices.Clone(list)
		}
	}
	for i, s := range slots {
		if obj, ok := s.AsObject(); ok && obj.Has(key) {
			entry := obj.Clone()
			entry.Set(key, value)
			slots[i] = css.ObjectOf(entry)
			return css.List(slots...)
		}
	}
	entry := css.NewObject()
	entry.Set(key, value)
	return css.List(append(slots, css.ObjectOf(entry))...)
}

// Colorize runs strings found under color keys through color processor.
// Nested lists and objects are walked, inside objects each key decides for
// itself. Without processor value is returned unchanged.
func (r *Resolver) Colorize(key string, v css.Value) css.Value {
	if r.colors == nil {
		return v
	}
	return r.colorize(css.IsColorKey(key), v)
}

func (r *Resolver) colorize(color bool, v css.Value) css.Value {
	switch v.Kind() {
	case css.KindString:
		if !color {
			return v
		}
		s, _ := v.AsString()
		if tok := r.colors(s); tok != nil {
			return css.Opaque(tok)
		}
		return v
	case css.KindList:
		list, _ := v.AsList()
		out := make([]css.Value, len(list))
		for i, e := range list {
			out[i] = r.colorize(color, e)
		}
		return css.List(out...)
	case css.KindObject:
		obj, _ := v.AsObject()
		out := css.NewObject()
		for k, e := range obj.All() {
			out.Set(k, r.colorize(css.IsColorKey(k), e))
		}
		return css.ObjectOf(out)
	}
	return v
}
