package css

import (
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// PseudoClassType names interactive element state.
type PseudoClassType string

const (
	PseudoActive PseudoClassType = "active"
	PseudoHover  PseudoClassType = "hover"
	PseudoFocus  PseudoClassType = "focus"
)

func ParsePseudoClassType(s string) (PseudoClassType, error) {
	switch t := PseudoClassType(strings.ToLower(s)); t {
	case PseudoActive, PseudoHover, PseudoFocus:
		return t, nil
	default:
		return "", fmt.Errorf("unknown pseudo class %q", s)
	}
}

// PseudoClass requires element state to be as specified, absent entries are
// not tested.
type PseudoClass struct {
	Active *bool `yaml:"a,omitempty"`
	Hover  *bool `yaml:"h,omitempty"`
	Focus  *bool `yaml:"f,omitempty"`
}

// ContainerQuery tests named (or nearest when name is empty) container.
type ContainerQuery struct {
	Name   string       `yaml:"n,omitempty"`
	Media  *MediaQuery  `yaml:"m,omitempty"`
	Pseudo *PseudoClass `yaml:"p,omitempty"`
}

// AttributeQuery keeps attribute selectors host evaluates on its side. Each
// entry is [operator, name] or [operator, name, value, flag?].
type AttributeQuery struct {
	Attributes []Value `yaml:"a,omitempty"`
	Data       []Value `yaml:"d,omitempty"`
}

// Rule is single compiled style rule.
type Rule struct {
	ID               string           `yaml:"id,omitempty"`
	Specificity      Specificity      `yaml:"s"`
	Declarations     *Object          `yaml:"d,omitempty"`
	Props            *Object          `yaml:"p,omitempty"`
	Variables        *Object          `yaml:"v,omitempty"`
	Containers       []string         `yaml:"c,omitempty"`
	Media            *MediaQuery      `yaml:"mq,omitempty"`
	Pseudo           *PseudoClass     `yaml:"pq,omitempty"`
	ContainerQueries []ContainerQuery `yaml:"cq,omitempty"`
	Attributes       *AttributeQuery  `yaml:"aq,omitempty"`
}

// NeedsRerender reports whether rule declares animations or transitions,
// changes to which cannot be applied as a plain style patch.
func (r *Rule) NeedsRerender() bool {
	for k := range r.Declarations.All() {
		if IsAnimationKey(k) {
			return true
		}
	}
	return false
}

// IsAnimationKey reports whether style key belongs to animation or
// transition group.
func IsAnimationKey(key string) bool {
	return strings.HasPrefix(key, "animation") || strings.HasPrefix(key, "transition")
}

// UnmarshalYAML accepts up to five numeric tiers, missing trailing tiers are
// zero.
func (s *Specificity) UnmarshalYAML(node *yaml.Node) error {
	var tiers []float64
	if err := node.Decode(&tiers); err != nil {
		return fmt.Errorf("line %d: bad specificity: %w", node.Line, err)
	}
	if len(tiers) > len(s) {
		return fmt.Errorf("line %d: specificity has %d tiers, at most %d expected", node.Line, len(tiers), len(s))
	}
	*s = Specificity{}
	copy(s[:], tiers)
	return nil
}

func (s Specificity) MarshalYAML() (any, error) {
	return s[:], nil
}
