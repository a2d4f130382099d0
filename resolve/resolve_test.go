package resolve_test

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"cssnitro/css"
	"cssnitro/reactive"
	"cssnitro/resolve"
	"cssnitro/scope"
)

type fixture struct {
	vars *scope.Variables
	env  *scope.Environment
	r    *resolve.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	f := &fixture{
		vars: scope.NewVariables(nil),
		env:  scope.NewEnvironment(scope.Window{Width: 400, Height: 800, Scale: 1, FontScale: 1}),
	}
	f.r = resolve.NewResolver(log, f.vars, f.env, css.CachedColorProcessor(css.ProcessColor))
	f.vars.CreateScope("c1", scope.RootScope)
	return f
}

func obj(kv ...any) *css.Object {
	o := css.NewObject()
	for i := 0; i < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1].(css.Value))
	}
	return o
}

func num(n float64) css.Value  { return css.Number(n) }
func str(s string) css.Value   { return css.String(s) }
func toks(vs ...any) css.Value { return css.FromAny(vs) }

func expect(t *testing.T, got, want css.Value) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestResolveValue_Var(t *testing.T) {
	f := newFixture(t)
	f.vars.SetTopLevel(scope.RootScope, "--a", num(10))

	expect(t, f.r.ResolveValue(css.Call("var", str("--a")), "c1", nil), num(10))
	expect(t, f.r.ResolveValue(css.Call("var", str("--missing"), num(5)), "c1", nil), num(5))
	expect(t, f.r.ResolveValue(css.Call("var", str("--missing"), css.Call("var", str("--a"))), "c1", nil), num(10))
	expect(t, f.r.ResolveValue(css.Call("var", str("--missing")), "c1", nil), css.Null())
	expect(t, f.r.ResolveValue(str("plain"), "c1", nil), str("plain"))
	expect(t, f.r.ResolveValue(css.Call("unknown", num(1)), "c1", nil), css.Null())
}

func TestResolveValue_VarResolvedWhereFound(t *testing.T) {
	f := newFixture(t)
	f.vars.SetTopLevel(scope.RootScope, "--a", num(10))
	f.vars.SetTopLevel(scope.RootScope, "--b", css.Call("var", str("--a")))
	f.vars.Set("c1", "--a", num(1))

	expect(t, f.r.ResolveValue(css.Call("var", str("--b")), "c1", nil), num(10))
	expect(t, f.r.ResolveValue(css.Call("var", str("--a")), "c1", nil), num(1))
}

func TestResolveValue_VarCycle(t *testing.T) {
	f := newFixture(t)
	f.vars.SetTopLevel(scope.RootScope, "--x", css.Call("var", str("--y")))
	f.vars.SetTopLevel(scope.RootScope, "--y", css.Call("var", str("--x")))

	expect(t, f.r.ResolveValue(css.Call("var", str("--x"), num(3)), "c1", nil), num(3))
}

func TestResolveValue_Reactive(t *testing.T) {
	f := newFixture(t)
	f.vars.SetTopLevel(scope.RootScope, "--a", num(10))

	var got []css.Value
	reactive.NewEffect(func(get *reactive.Getter) {
		got = append(got, f.r.ResolveValue(css.Call("var", str("--a")), "c1", get))
	}).Run()

	f.vars.SetTopLevel(scope.RootScope, "--a", num(20))
	f.vars.Set("c1", "--a", num(30))

	if len(got) != 3 {
		t.Fatalf("expected 3 evaluations, got %v", got)
	}
	expect(t, got[1], num(20))
	expect(t, got[2], num(30))
}

func TestResolveValue_Calc(t *testing.T) {
	f := newFixture(t)
	f.vars.SetTopLevel(scope.RootScope, "--a", num(10))
	f.vars.SetTopLevel(scope.RootScope, "--p", str("10%"))

	tests := []struct {
		name string
		expr css.Value
		want css.Value
	}{
		{"add", css.Call("calc", toks(10, "+", 100)), num(110)},
		{"flat args", css.Call("calc", num(2), str("*"), num(3)), num(6)},
		{"precedence", css.Call("calc", toks(2, "+", 3, "*", 4)), num(14)},
		{"parens", css.Call("calc", toks("(", 2, "+", 3, ")", "*", 4)), num(20)},
		{"percent", css.Call("calc", toks("10%", "+", "20%")), str("30%")},
		{"percent ratio", css.Call("calc", toks("50%", "/", "25%")), num(2)},
		{"scaled percent", css.Call("calc", toks("50%", "*", 2)), str("100%")},
		{"mixed", css.Call("calc", toks("100%", "-", 30)), css.Null()},
		{"division by zero", css.Call("calc", toks(1, "/", 0)), css.Null()},
		{"unbalanced", css.Call("calc", toks("(", 1, "+", 2)), css.Null()},
		{"dangling operator", css.Call("calc", toks(1, "+")), css.Null()},
		{"rounding", css.Call("calc", toks(1, "/", 3)), num(0.3333)},
		{"var", css.Call("calc", css.List(css.Call("var", str("--a")), str("+"), num(20))), num(30)},
		{"var percent", css.Call("calc", css.List(css.Call("var", str("--p")), str("+"), str("20%"))), str("30%")},
		{"var mixed", css.Call("calc", css.List(css.Call("var", str("--p")), str("+"), num(20))), css.Null()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expect(t, f.r.ResolveValue(tc.expr, "c1", nil), tc.want)
		})
	}
}

func TestResolveValue_Rem(t *testing.T) {
	f := newFixture(t)
	expect(t, f.r.ResolveValue(css.Call("rem", num(2)), "c1", nil), num(2*scope.DefaultRem))
	f.env.SetRem(10)
	expect(t, f.r.ResolveValue(css.Call("calc", css.List(css.Call("rem", num(2)), str("*"), num(5))), "c1", nil), num(100))
}

func TestResolveValue_BoxShadow(t *testing.T) {
	f := newFixture(t)
	f.vars.SetTopLevel(scope.RootScope, "--shadow", toks(1, 2, "red"))

	tests := []struct {
		name string
		expr css.Value
		want css.Value
	}{
		{
			"offsets and color",
			css.Call("boxShadow", toks(1, 2, "red")),
			css.ObjectOf(obj("offsetX", num(1), "offsetY", num(2), "color", str("red"))),
		},
		{
			"color first",
			css.Call("boxShadow", toks("red", 1, 2, 3, 4)),
			css.ObjectOf(obj("color", str("red"), "offsetX", num(1), "offsetY", num(2), "blurRadius", num(3), "spreadDistance", num(4))),
		},
		{
			"several",
			css.Call("boxShadow", toks(1, 2, 3, 4, ",", 5, 6, "blue")),
			css.List(
				css.ObjectOf(obj("offsetX", num(1), "offsetY", num(2), "blurRadius", num(3), "spreadDistance", num(4))),
				css.ObjectOf(obj("offsetX", num(5), "offsetY", num(6), "color", str("blue"))),
			),
		},
		{
			"inset",
			css.Call("boxShadow", toks("inset", 1, 2, "red")),
			css.ObjectOf(obj("offsetX", num(1), "offsetY", num(2), "color", str("red"), "inset", css.Bool(true))),
		},
		{
			"var",
			css.Call("boxShadow", css.Call("var", str("--shadow"))),
			css.ObjectOf(obj("offsetX", num(1), "offsetY", num(2), "color", str("red"))),
		},
		{"no pattern", css.Call("boxShadow", toks("red")), css.Null()},
		{"empty", css.Call("boxShadow", toks(",")), css.Null()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expect(t, f.r.ResolveValue(tc.expr, "c1", nil), tc.want)
		})
	}
}

func TestApplyStyleMapping_TransformFold(t *testing.T) {
	f := newFixture(t)

	in := obj(
		"translateX", num(10),
		"opacity", num(0.5),
		"rotate", str("5deg"),
		"scaleY", num(2),
	)
	out := f.r.ApplyStyleMapping(in, "c1", nil, true)

	want := obj(
		"transform", css.List(
			css.ObjectOf(obj("translateX", num(10))),
			css.ObjectOf(obj("rotate", str("5deg"))),
			css.ObjectOf(obj("scaleY", num(2))),
		),
		"opacity", num(0.5),
	)
	if !out.Equal(want) {
		t.Fatalf("expected %s, got %s", css.ObjectOf(want), css.ObjectOf(out))
	}
	if out.Has("translateX") {
		t.Fatalf("transform properties must not stay flat")
	}
}

func TestApplyStyleMapping_TransformKeepsSlot(t *testing.T) {
	f := newFixture(t)

	in := obj(
		"transform", css.List(css.ObjectOf(obj("rotate", str("1deg"))), css.ObjectOf(obj("translateY", num(1)))),
		"translateY", num(7),
	)
	out := f.r.ApplyStyleMapping(in, "c1", nil, false)
	got, _ := out.Get("transform")
	expect(t, got, css.List(css.ObjectOf(obj("rotate", str("1deg"))), css.ObjectOf(obj("translateY", num(7)))))
}

func TestApplyStyleMapping_Colors(t *testing.T) {
	f := newFixture(t)

	in := obj(
		"color", str("red"),
		"backgroundColor", str("#00ff0080"),
		"borderColor", str("not a color"),
		"fontFamily", str("red"),
		"boxShadow", css.ObjectOf(obj("offsetX", num(1), "color", str("blue"))),
	)
	out := f.r.ApplyStyleMapping(in, "c1", nil, false)

	want := obj(
		"color", css.Opaque(uint32(0xffff0000)),
		"backgroundColor", css.Opaque(uint32(0x8000ff00)),
		"borderColor", str("not a color"),
		"fontFamily", str("red"),
		"boxShadow", css.ObjectOf(obj("offsetX", num(1), "color", css.Opaque(uint32(0xff0000ff)))),
	)
	if !out.Equal(want) {
		t.Fatalf("expected %s, got %s", css.ObjectOf(want), css.ObjectOf(out))
	}
}

func TestApplyStyleMapping_NoColorProcessor(t *testing.T) {
	r := resolve.NewResolver(nil, scope.NewVariables(nil), scope.NewEnvironment(scope.Window{}), nil)
	out := r.ApplyStyleMapping(obj("color", str("red")), "c1", nil, false)
	got, _ := out.Get("color")
	expect(t, got, str("red"))
}

func TestAnimations(t *testing.T) {
	f := newFixture(t)
	f.vars.SetTopLevel(scope.RootScope, "--o", num(0.25))

	anims := f.r.Animations()
	anims.SetKeyframes("fade", obj(
		"from", css.ObjectOf(obj("opacity", css.Call("var", str("--o")))),
		"to", css.ObjectOf(obj("opacity", num(1), "translateX", num(5))),
		"bogus", num(1),
	))

	var got []*css.Object
	reactive.NewEffect(func(get *reactive.Getter) {
		style := f.r.ApplyStyleMapping(obj("animationName", str("fade")), "c1", get, true)
		v, _ := style.Get("animationName")
		frames, ok := v.AsObject()
		if !ok {
			t.Errorf("animationName must resolve to keyframes, got %s", v)
			return
		}
		got = append(got, frames)
	}).Run()

	want := obj(
		"from", css.ObjectOf(obj("opacity", num(0.25))),
		"to", css.ObjectOf(obj("opacity", num(1), "transform", css.List(css.ObjectOf(obj("translateX", num(5)))))),
	)
	if len(got) != 1 || !got[0].Equal(want) {
		t.Fatalf("expected %s, got %v", css.ObjectOf(want), got)
	}

	f.vars.Set("c1", "--o", num(0.5))
	if len(got) != 2 {
		t.Fatalf("variable change must recompute keyframes, got %d runs", len(got))
	}
	from, _ := got[1].Get("from")
	fromObj, _ := from.AsObject()
	opacity, _ := fromObj.Get("opacity")
	expect(t, opacity, num(0.5))

	anims.SetKeyframes("fade", obj("to", css.ObjectOf(obj("opacity", num(0)))))
	if len(got) != 3 || got[2].Len() != 1 {
		t.Fatalf("keyframes change must propagate, got %v", got)
	}

	anims.DeleteScope("c1")
}

func TestAnimations_NameList(t *testing.T) {
	f := newFixture(t)
	f.r.Animations().SetKeyframes("a", obj("to", css.ObjectOf(obj("opacity", num(1)))))

	out := f.r.ApplyStyleMapping(obj("animationName", toks("a", "missing", 3)), "c1", nil, true)
	v, _ := out.Get("animationName")
	list, ok := v.AsList()
	if !ok || len(list) != 2 {
		t.Fatalf("expected two keyframe maps, got %s", v)
	}
	missing, _ := list[1].AsObject()
	if missing.Len() != 0 {
		t.Fatalf("unknown animation must resolve to empty keyframes")
	}
}
