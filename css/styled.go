package css

// Styled is cascade result for one element. Maps which ended up empty are nil.
type Styled struct {
	Style          *Object `yaml:"style,omitempty"`
	ImportantStyle *Object `yaml:"importantStyle,omitempty"`
	Props          *Object `yaml:"props,omitempty"`
	ImportantProps *Object `yaml:"importantProps,omitempty"`
}

func (s Styled) Equal(o Styled) bool {
	return s.Style.Equal(o.Style) &&
		s.ImportantStyle.Equal(o.ImportantStyle) &&
		s.Props.Equal(o.Props) &&
		s.ImportantProps.Equal(o.ImportantProps)
}

func (s Styled) Empty() bool {
	return s.Style.Len() == 0 && s.ImportantStyle.Len() == 0 && s.Props.Len() == 0 && s.ImportantProps.Len() == 0
}

// HasProps reports whether any props resolved.
func (s Styled) HasProps() bool {
	return s.Props.Len() > 0 || s.ImportantProps.Len() > 0
}

// Animated reports whether style carries animation or transition keys.
func (s Styled) Animated() bool {
	for _, m := range []*Object{s.Style, s.ImportantStyle} {
		for k := range m.All() {
			if IsAnimationKey(k) {
				return true
			}
		}
	}
	return false
}

// MergedStyle returns style with important style laid over it.
func (s Styled) MergedStyle() *Object {
	if s.Style.Len() == 0 && s.ImportantStyle.Len() == 0 {
		return nil
	}
	out := NewObject()
	for k, v := range s.Style.All() {
		out.Set(k, v)
	}
	for k, v := range s.ImportantStyle.All() {
		out.Set(k, v)
	}
	return out
}
