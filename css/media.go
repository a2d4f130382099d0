package css

import (
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// LogicOp combines results of individual media features.
type LogicOp string

const (
	OpAnd LogicOp = "and"
	OpOr  LogicOp = "or"
	// OpNot is "and" with negated result.
	OpNot LogicOp = "not"
)

// opKey is reserved media map key selecting LogicOp.
const opKey = "$$op"

// Media feature names.
const (
	FeatureMinWidth    = "min-width"
	FeatureMaxWidth    = "max-width"
	FeatureMinHeight   = "min-height"
	FeatureMaxHeight   = "max-height"
	FeatureOrientation = "orientation"
	FeatureWidth       = "width"
	FeatureHeight      = "height"
	FeatureResolution  = "resolution"
)

// KnownFeature reports whether name is one of supported media features.
func KnownFeature(name string) bool {
	switch name {
	case FeatureMinWidth, FeatureMaxWidth, FeatureMinHeight, FeatureMaxHeight,
		FeatureOrientation, FeatureWidth, FeatureHeight, FeatureResolution:
		return true
	}
	return false
}

// MediaFeature is single [operator, operand] condition. Malformed entry has
// empty operator and never passes.
type MediaFeature struct {
	Name     string
	Operator string
	Operand  Value
}

func (f MediaFeature) Malformed() bool {
	return f.Operator == ""
}

// MediaQuery is set of features combined with Op. Empty query passes.
type MediaQuery struct {
	Op       LogicOp
	Features []MediaFeature
}

// MediaQueryFromValue converts media map {feature: [op, operand], $$op: op}
// to MediaQuery. Second result is false when v is not an object.
func MediaQueryFromValue(v Value) (MediaQuery, bool) {
	obj, ok := v.AsObject()
	if !ok {
		return MediaQuery{}, false
	}
	mq := MediaQuery{Op: OpAnd}
	for name, entry := range obj.All() {
		if name == opKey {
			if op, ok := entry.AsString(); ok {
				mq.Op = LogicOp(op)
			}
			continue
		}
		f := MediaFeature{Name: name}
		if pair, ok := entry.AsList(); ok && len(pair) >= 2 {
			if op, ok := pair[0].AsString(); ok {
				f.Operator = op
				f.Operand = pair[1]
			}
		}
		mq.Features = append(mq.Features, f)
	}
	return mq, true
}

// Value converts query back to its map form.
func (mq MediaQuery) Value() Value {
	obj := NewObject()
	for _, f := range mq.Features {
		if f.Malformed() {
			obj.Set(f.Name, Null())
			continue
		}
		obj.Set(f.Name, List(String(f.Operator), f.Operand))
	}
	if mq.Op != "" && mq.Op != OpAnd {
		obj.Set(opKey, String(string(mq.Op)))
	}
	return ObjectOf(obj)
}

func (mq *MediaQuery) UnmarshalYAML(node *yaml.Node) error {
	var v Value
	if err := node.Decode(&v); err != nil {
		return err
	}
	q, ok := MediaQueryFromValue(v)
	if !ok {
		return fmt.Errorf("line %d: media query must be mapping, got %s", node.Line, v.Kind())
	}
	*mq = q
	return nil
}

func (mq MediaQuery) MarshalYAML() (any, error) {
	return mq.Value().node()
}
