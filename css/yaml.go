package css

import (
	"fmt"
	"strconv"

	yaml "gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes any YAML (or JSON) node keeping mapping order.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	out, err := valueFromNode(node)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	return v.node()
}

func (o *Object) UnmarshalYAML(node *yaml.Node) error {
	v, err := valueFromNode(node)
	if err != nil {
		return err
	}
	obj, ok := v.AsObject()
	if !ok {
		return fmt.Errorf("line %d: expected mapping, got %s", node.Line, v.Kind())
	}
	*o = *obj
	return nil
}

func (o *Object) MarshalYAML() (any, error) {
	return ObjectOf(o).node()
}

func valueFromNode(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return valueFromNode(node.Content[0])
	case yaml.AliasNode:
		return valueFromNode(node.Alias)
	case yaml.ScalarNode:
		return scalarFromNode(node)
	case yaml.SequenceNode:
		vs := make([]Value, 0, len(node.Content))
		for _, n := range node.Content {
			e, err := valueFromNode(n)
			if err != nil {
				return Null(), err
			}
			vs = append(vs, e)
		}
		return List(vs...), nil
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, vn := node.Content[i], node.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return Null(), fmt.Errorf("line %d: mapping key must be scalar", k.Line)
			}
			e, err := valueFromNode(vn)
			if err != nil {
				return Null(), err
			}
			obj.Set(k.Value, e)
		}
		return ObjectOf(obj), nil
	default:
		return Null(), fmt.Errorf("line %d: unsupported node kind %d", node.Line, node.Kind)
	}
}

func scalarFromNode(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Null(), err
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Null(), err
		}
		return Number(f), nil
	default:
		return String(node.Value), nil
	}
}

func (v Value) node() (*yaml.Node, error) {
	switch v.kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.flag)}, nil
	case KindNumber:
		tag := "!!float"
		if v.num == float64(int64(v.num)) {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: strconv.FormatFloat(v.num, 'f', -1, 64)}, nil
	case KindString:
		n := &yaml.Node{}
		if err := n.Encode(v.str); err != nil {
			return nil, err
		}
		return n, nil
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.list {
			en, err := e.node()
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, en)
		}
		return n, nil
	case KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for k, e := range v.obj.All() {
			en, err := e.node()
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, en)
		}
		return n, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(v.tok); err != nil {
			return nil, err
		}
		return n, nil
	}
}
