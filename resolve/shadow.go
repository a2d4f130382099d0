package resolve

import (
	"slices"

	"cssnitro/css"
)

type slotKind int

const (
	slotNumber slotKind = iota
	slotColor
)

type slot struct {
	name string
	kind slotKind
}

var (
	offsetX        = slot{"offsetX", slotNumber}
	offsetY        = slot{"offsetY", slotNumber}
	blurRadius     = slot{"blurRadius", slotNumber}
	spreadDistance = slot{"spreadDistance", slotNumber}
	shadowColor    = slot{"color", slotColor}
)

// shadowPatterns lists accepted positional layouts of single shadow, first
// matching one wins.
var shadowPatterns = [][]slot{
	{offsetX, offsetY, blurRadius, spreadDistance},
	{offsetX, offsetY, blurRadius, spreadDistance, shadowColor},
	{shadowColor, offsetX, offsetY},
	{shadowColor, offsetX, offsetY, blurRadius, spreadDistance},
	{offsetX, offsetY, shadowColor},
	{offsetX, offsetY, blurRadius, shadowColor},
}

// boxShadow maps flattened shorthand tokens to shadow objects. Shadows are
// separated by "," token. Single shadow gives object, several give list.
// Shadow not matching any pattern resolves to null.
func boxShadow(tokens []css.Value) css.Value {
	var groups [][]css.Value
	var current []css.Value
	for _, t := range tokens {
		if s, ok := t.AsString(); ok && s == "," {
			if len(current) > 0 {
				groups = append(groups, current)
			}
			current = nil
			continue
		}
		current = append(current, t)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	switch len(groups) {
	case 0:
		return css.Null()
	case 1:
		return shadow(groups[0])
	}
	out := make([]css.Value, 0, len(groups))
	for _, g := range groups {
		out = append(out, shadow(g))
	}
	return css.List(out...)
}

func shadow(args []css.Value) css.Value {
	inset := false
	if i := slices.IndexFunc(args, isInset); i == 0 || (i > 0 && i == len(args)-1) {
		inset = true
		args = slices.Delete(slices.Clone(args), i, i+1)
	}

	for _, pattern := range shadowPatterns {
		if len(pattern) != len(args) {
			continue
		}
		if !matches(pattern, args) {
			continue
		}
		obj := css.NewObject()
		for i, s := range pattern {
			obj.Set(s.name, args[i])
		}
		if inset {
			obj.Set("inset", css.Bool(true))
		}
		return css.ObjectOf(obj)
	}
	return css.Null()
}

func matches(pattern []slot, args []css.Value) bool {
	for i, s := range pattern {
		switch s.kind {
		case slotNumber:
			if _, ok := args[i].AsNumber(); !ok {
				return false
			}
		case slotColor:
			if args[i].Kind() != css.KindString && args[i].Kind() != css.KindOpaque {
				return false
			}
		}
	}
	return true
}

func isInset(v css.Value) bool {
	s, ok := v.AsString()
	return ok && s == "inset"
}
