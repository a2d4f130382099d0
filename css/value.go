package css

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Kind enumerates shapes declaration value can take.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindObject
	// KindOpaque holds host token (processed color, for example) engine
	// passes through without looking inside.
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	case KindOpaque:
		return "opaque"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is declaration value: closed sum of null, bool, number, string, list,
// object and opaque host token. Zero Value is null.
type Value struct {
	kind Kind
	flag bool
	num  float64
	str  string
	list []Value
	obj  *Object
	tok  any
}

func Null() Value { return Value{} }
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }
func Opaque(token any) Value { return Value{kind: KindOpaque, tok: token} }
func ObjectOf(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

// Call builds function expression ["fn", name, args...].
func Call(name string, args ...Value) Value {
	return List(append([]Value{String("fn"), String(name)}, args...)...)
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) AsList() ([]Value, bool) {
	return v.list, v.kind == KindList
}

func (v Value) AsObject() (*Object, bool) {
	return v.obj, v.kind == KindObject
}

func (v Value) AsOpaque() (any, bool) {
	return v.tok, v.kind == KindOpaque
}

// AsCall recognizes function expression ["fn", name, args...].
func (v Value) AsCall() (name string, args []Value, ok bool) {
	if v.kind != KindList || len(v.list) < 2 {
		return "", nil, false
	}
	if tag, _ := v.list[0].AsString(); tag != "fn" {
		return "", nil, false
	}
	if name, ok = v.list[1].AsString(); !ok {
		return "", nil, false
	}
	return name, v.list[2:], true
}

// IsCall reports whether value looks like function expression, even a
// malformed one (list starting with "fn").
func (v Value) IsCall() bool {
	if v.kind != KindList || len(v.list) == 0 {
		return false
	}
	tag, _ := v.list[0].AsString()
	return tag == "fn"
}

// FromAny converts generic decoded data (as produced by encoding/json or
// yaml into any) to Value. Maps are ordered by key since their order is lost.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case string:
		return String(t)
	case []any:
		vs := make([]Value, 0, len(t))
		for _, e := range t {
			vs = append(vs, FromAny(e))
		}
		return List(vs...)
	case []Value:
		return List(t...)
	case map[string]any:
		return ObjectOf(ObjectFromMap(t))
	case *Object:
		return ObjectOf(t)
	default:
		return Opaque(t)
	}
}

// ToAny converts Value to plain Go data. Objects become map[string]any.
func (v Value) ToAny() any {
	switch v.kind {
	case KindBool:
		return v.flag
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindList:
		out := make([]any, 0, len(v.list))
		for _, e := range v.list {
			out = append(out, e.ToAny())
		}
		return out
	case KindObject:
		return v.obj.ToMap()
	case KindOpaque:
		return v.tok
	default:
		return nil
	}
}

// Equal compares values structurally, object key order included.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.flag == w.flag
	case KindNumber:
		return v.num == w.num
	case KindString:
		return v.str == w.str
	case KindList:
		return slices.EqualFunc(v.list, w.list, Value.Equal)
	case KindObject:
		return v.obj.Equal(w.obj)
	default:
		return reflect.DeepEqual(v.tok, w.tok)
	}
}

// String renders value compactly for logs and diagnostics.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.flag))
	case KindNumber:
		b.WriteString(strconv.FormatFloat(v.num, 'g', -1, 64))
	case KindString:
		b.WriteString(strconv.Quote(v.str))
	case KindList:
		b.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}
			e.write(b)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, k := range v.obj.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			e, _ := v.obj.Get(k)
			e.write(b)
		}
		b.WriteByte('}')
	case KindOpaque:
		fmt.Fprintf(b, "<%v>", v.tok)
	}
}
