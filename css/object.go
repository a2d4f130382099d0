package css

import (
	"iter"
	"maps"
	"slices"
)

// Object is string keyed map of values remembering insertion order. Nil
// *Object is valid empty object for reading.
type Object struct {
	keys []string
	vals map[string]Value
}

func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// ObjectFromMap builds object with keys in sorted order.
func ObjectFromMap(m map[string]any) *Object {
	o := NewObject()
	for _, k := range slices.Sorted(maps.Keys(m)) {
		o.Set(k, FromAny(m[k]))
	}
	return o
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.vals[key]
	return v, ok
}

func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores value, existing key keeps its position.
func (o *Object) Set(key string, v Value) {
	if o.vals == nil {
		o.vals = make(map[string]Value)
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// SetIfAbsent stores value only when key is not present yet and reports
// whether it did.
func (o *Object) SetIfAbsent(key string, v Value) bool {
	if o.Has(key) {
		return false
	}
	o.Set(key, v)
	return true
}

func (o *Object) Delete(key string) {
	if o == nil {
		return
	}
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
}

// Keys returns copy of keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// All iterates entries in insertion order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if o == nil {
			return
		}
		for _, k := range o.keys {
			if !yield(k, o.vals[k]) {
				return
			}
		}
	}
}

// Clone is shallow: nested lists and objects are shared.
func (o *Object) Clone() *Object {
	c := NewObject()
	for k, v := range o.All() {
		c.Set(k, v)
	}
	return c
}

func (o *Object) ToMap() map[string]any {
	if o == nil {
		return nil
	}
	m := make(map[string]any, len(o.keys))
	for k, v := range o.All() {
		m[k] = v.ToAny()
	}
	return m
}

// Equal compares objects entry by entry in order. Nil and empty objects are
// equal.
func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	if o.Len() == 0 {
		return true
	}
	for i, k := range o.keys {
		if other.keys[i] != k || !o.vals[k].Equal(other.vals[k]) {
			return false
		}
	}
	return true
}
