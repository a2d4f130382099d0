// Package rules decides whether style rule applies to element given current
// environment, element state and container layouts.
package rules

import (
	"slices"

	"cssnitro/css"
	"cssnitro/reactive"
	"cssnitro/scope"
)

// Evaluator tests rule conditions. It has no state of its own, all reads go
// through getter so the caller becomes dependent on everything consulted.
type Evaluator struct {
	env        *scope.Environment
	pseudo     *scope.PseudoClasses
	containers *scope.Containers
}

func NewEvaluator(env *scope.Environment, pseudo *scope.PseudoClasses, containers *scope.Containers) *Evaluator {
	return &Evaluator{env: env, pseudo: pseudo, containers: containers}
}

// TestRule reports whether all conditions of rule hold for component.
// Conditions are checked in order: attribute queries, pseudo classes, media,
// container queries; first failing one stops evaluation.
func (e *Evaluator) TestRule(rule *css.Rule, get *reactive.Getter, componentID, containerScope string, validAttributeQueries []string) bool {
	if rule.Attributes != nil {
		if rule.ID == "" || !slices.Contains(validAttributeQueries, rule.ID) {
			return false
		}
	}
	if rule.Pseudo != nil && !e.TestPseudo(rule.Pseudo, componentID, get) {
		return false
	}
	if rule.Media != nil && !e.TestMedia(*rule.Media, get) {
		return false
	}
	for i := range rule.ContainerQueries {
		if !e.TestContainerQuery(&rule.ContainerQueries[i], containerScope, get) {
			return false
		}
	}
	return true
}

func (e *Evaluator) TestPseudo(pc *css.PseudoClass, key string, get *reactive.Getter) bool {
	check := func(want *bool, t css.PseudoClassType) bool {
		return want == nil || e.pseudo.Get(key, t, get) == *want
	}
	return check(pc.Active, css.PseudoActive) &&
		check(pc.Hover, css.PseudoHover) &&
		check(pc.Focus, css.PseudoFocus)
}

// TestMedia evaluates media query against window environment.
func (e *Evaluator) TestMedia(mq css.MediaQuery, get *reactive.Getter) bool {
	return combine(mq, func(f css.MediaFeature) bool {
		return e.testWindowFeature(f, get)
	})
}

// TestMediaValue evaluates media query in its map form, anything but map
// fails.
func (e *Evaluator) TestMediaValue(v css.Value, get *reactive.Getter) bool {
	mq, ok := css.MediaQueryFromValue(v)
	if !ok {
		return false
	}
	return e.TestMedia(mq, get)
}

// TestContainerQuery resolves container by name starting from containerScope
// and evaluates query against its state and layout. Unresolved container
// fails.
func (e *Evaluator) TestContainerQuery(cq *css.ContainerQuery, containerScope string, get *reactive.Getter) bool {
	resolved, ok := e.containers.FindInScope(containerScope, cq.Name)
	if !ok {
		return false
	}
	if cq.Pseudo != nil && !e.TestPseudo(cq.Pseudo, resolved, get) {
		return false
	}
	if cq.Media == nil {
		return true
	}
	return combine(*cq.Media, func(f css.MediaFeature) bool {
		return e.testContainerFeature(f, resolved, get)
	})
}

func combine(mq css.MediaQuery, test func(css.MediaFeature) bool) bool {
	if len(mq.Features) == 0 {
		return true
	}
	var result bool
	switch mq.Op {
	case css.OpOr:
		result = slices.ContainsFunc(mq.Features, test)
	default:
		result = !slices.ContainsFunc(mq.Features, func(f css.MediaFeature) bool { return !test(f) })
	}
	if mq.Op == css.OpNot {
		result = !result
	}
	return result
}

// dimensions abstracts window or container size, second result is false when
// size is unknown.
type dimensions struct {
	width, height func() (float64, bool)
	resolution    func() (float64, bool)
}

func (e *Evaluator) testWindowFeature(f css.MediaFeature, get *reactive.Getter) bool {
	return testFeature(f, dimensions{
		width:      func() (float64, bool) { return e.env.Width(get), true },
		height:     func() (float64, bool) { return e.env.Height(get), true },
		resolution: func() (float64, bool) { return e.env.Scale(get), true },
	})
}

func (e *Evaluator) testContainerFeature(f css.MediaFeature, container string, get *reactive.Getter) bool {
	return testFeature(f, dimensions{
		width:      func() (float64, bool) { return e.containers.Width(container, "", get) },
		height:     func() (float64, bool) { return e.containers.Height(container, "", get) },
		resolution: func() (float64, bool) { return e.env.Scale(get), true },
	})
}

func testFeature(f css.MediaFeature, dim dimensions) bool {
	if f.Malformed() {
		return false
	}

	if f.Operator == "=" {
		switch f.Name {
		case css.FeatureMinWidth:
			return compare(dim.width, ">=", f.Operand)
		case css.FeatureMaxWidth:
			return compare(dim.width, "<=", f.Operand)
		case css.FeatureMinHeight:
			return compare(dim.height, ">=", f.Operand)
		case css.FeatureMaxHeight:
			return compare(dim.height, "<=", f.Operand)
		case css.FeatureOrientation:
			want, ok := f.Operand.AsString()
			if !ok {
				return false
			}
			w, okw := dim.width()
			h, okh := dim.height()
			if !okw || !okh {
				return false
			}
			if want == "landscape" {
				return h < w
			}
			return h >= w
		}
	}

	switch f.Name {
	case css.FeatureWidth:
		return compare(dim.width, f.Operator, f.Operand)
	case css.FeatureHeight:
		return compare(dim.height, f.Operator, f.Operand)
	case css.FeatureResolution:
		return compare(dim.resolution, f.Operator, f.Operand)
	}
	return false
}

func compare(left func() (float64, bool), op string, operand css.Value) bool {
	right, ok := operand.AsNumber()
	if !ok {
		return false
	}
	l, ok := left()
	if !ok {
		return false
	}
	switch op {
	case "=":
		return l == right
	case ">":
		return l > right
	case ">=":
		return l >= right
	case "<":
		return l < right
	case "<=":
		return l <= right
	}
	return false
}
