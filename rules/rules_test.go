package rules_test

import (
	"testing"

	"cssnitro/css"
	"cssnitro/reactive"
	"cssnitro/rules"
	"cssnitro/scope"
)

type fixture struct {
	env        *scope.Environment
	pseudo     *scope.PseudoClasses
	containers *scope.Containers
	eval       *rules.Evaluator
}

func newFixture() *fixture {
	f := &fixture{
		env:        scope.NewEnvironment(scope.Window{Width: 400, Height: 800, Scale: 2, FontScale: 1}),
		pseudo:     scope.NewPseudoClasses(),
		containers: scope.NewContainers(),
	}
	f.eval = rules.NewEvaluator(f.env, f.pseudo, f.containers)
	return f
}

func media(op css.LogicOp, features ...css.MediaFeature) *css.MediaQuery {
	return &css.MediaQuery{Op: op, Features: features}
}

func feature(name, op string, operand float64) css.MediaFeature {
	return css.MediaFeature{Name: name, Operator: op, Operand: css.Number(operand)}
}

func TestTestMedia(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		mq   *css.MediaQuery
		want bool
	}{
		{"empty", media(css.OpAnd), true},
		{"min-width pass", media(css.OpAnd, feature(css.FeatureMinWidth, "=", 400)), true},
		{"min-width fail", media(css.OpAnd, feature(css.FeatureMinWidth, "=", 401)), false},
		{"max-height", media(css.OpAnd, feature(css.FeatureMaxHeight, "=", 800)), true},
		{"width gt", media(css.OpAnd, feature(css.FeatureWidth, ">", 399)), true},
		{"width lt", media(css.OpAnd, feature(css.FeatureWidth, "<", 400)), false},
		{"height eq", media(css.OpAnd, feature(css.FeatureHeight, "=", 800)), true},
		{"resolution", media(css.OpAnd, feature(css.FeatureResolution, ">=", 2)), true},
		{"and", media(css.OpAnd, feature(css.FeatureWidth, ">", 100), feature(css.FeatureWidth, ">", 500)), false},
		{"or", media(css.OpOr, feature(css.FeatureWidth, ">", 100), feature(css.FeatureWidth, ">", 500)), true},
		{"not", media(css.OpNot, feature(css.FeatureWidth, ">", 500)), true},
		{"malformed", media(css.OpAnd, css.MediaFeature{Name: css.FeatureWidth}), false},
		{"unknown operator", media(css.OpAnd, feature(css.FeatureWidth, "~", 400)), false},
		{"portrait", media(css.OpAnd, css.MediaFeature{Name: css.FeatureOrientation, Operator: "=", Operand: css.String("portrait")}), true},
		{"landscape", media(css.OpAnd, css.MediaFeature{Name: css.FeatureOrientation, Operator: "=", Operand: css.String("landscape")}), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.eval.TestMedia(*tc.mq, nil); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestTestMediaValue(t *testing.T) {
	f := newFixture()

	obj := css.NewObject()
	obj.Set(css.FeatureMinWidth, css.List(css.String("="), css.Number(300)))
	if !f.eval.TestMediaValue(css.ObjectOf(obj), nil) {
		t.Fatalf("expected media map to match")
	}
	if f.eval.TestMediaValue(css.String("screen"), nil) {
		t.Fatalf("non map media must fail")
	}
}

func TestTestRule_Reactive(t *testing.T) {
	f := newFixture()
	rule := &css.Rule{Media: media(css.OpAnd, feature(css.FeatureMinWidth, "=", 600))}

	var matches []bool
	reactive.NewEffect(func(get *reactive.Getter) {
		matches = append(matches, f.eval.TestRule(rule, get, "c1", "", nil))
	}).Run()

	f.env.SetWindow(scope.Window{Width: 700, Height: 800, Scale: 2, FontScale: 1})
	f.env.SetWindow(scope.Window{Width: 500, Height: 800, Scale: 2, FontScale: 1})

	want := []bool{false, true, false}
	if len(matches) != len(want) {
		t.Fatalf("expected %d evaluations, got %v", len(want), matches)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Fatalf("evaluation %d: expected %v, got %v", i, want[i], matches[i])
		}
	}
}

func TestTestRule_Pseudo(t *testing.T) {
	f := newFixture()
	yes := true
	rule := &css.Rule{Pseudo: &css.PseudoClass{Hover: &yes}}

	if f.eval.TestRule(rule, nil, "c1", "", nil) {
		t.Fatalf("hover rule must not match without hover")
	}
	f.pseudo.Set("c1", css.PseudoHover, true)
	if !f.eval.TestRule(rule, nil, "c1", "", nil) {
		t.Fatalf("hover rule must match")
	}
	if f.eval.TestRule(rule, nil, "c2", "", nil) {
		t.Fatalf("state belongs to c1 only")
	}
}

func TestTestRule_AttributeQuery(t *testing.T) {
	f := newFixture()
	rule := &css.Rule{ID: "7", Attributes: &css.AttributeQuery{}}

	if f.eval.TestRule(rule, nil, "c1", "", nil) {
		t.Fatalf("attribute rule must not match when not validated by host")
	}
	if !f.eval.TestRule(rule, nil, "c1", "", []string{"3", "7"}) {
		t.Fatalf("attribute rule must match once validated")
	}
}

func TestTestRule_ContainerQuery(t *testing.T) {
	f := newFixture()
	f.containers.SetScope("card", "root", []string{"card"})
	f.containers.SetScope("body", "card", nil)

	yes := true
	rule := &css.Rule{ContainerQueries: []css.ContainerQuery{{
		Name:   "card",
		Media:  media(css.OpAnd, feature(css.FeatureMinWidth, "=", 300)),
		Pseudo: &css.PseudoClass{Hover: &yes},
	}}}

	var matches []bool
	reactive.NewEffect(func(get *reactive.Getter) {
		matches = append(matches, f.eval.TestRule(rule, get, "c1", "body", nil))
	}).Run()

	f.pseudo.Set("card", css.PseudoHover, true)
	f.containers.SetLayout("card", scope.Rect{Width: 200, Height: 50})
	f.containers.SetLayout("card", scope.Rect{Width: 320, Height: 50})

	want := []bool{false, false, false, true}
	if len(matches) != len(want) {
		t.Fatalf("expected %d evaluations, got %v", len(want), matches)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Fatalf("evaluation %d: expected %v, got %v", i, want[i], matches[i])
		}
	}

	unknown := &css.Rule{ContainerQueries: []css.ContainerQuery{{Name: "missing"}}}
	if f.eval.TestRule(unknown, nil, "c1", "body", nil) {
		t.Fatalf("unresolved container must fail")
	}
}
