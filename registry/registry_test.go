package registry_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"cssnitro/css"
	"cssnitro/registry"
	"cssnitro/scope"
)

type recorder struct {
	mu      sync.Mutex
	ids     []string
	updates map[string]*css.Object
	fail    map[string]error
}

func (r *recorder) AddUpdates(id string, style *css.Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updates == nil {
		r.updates = make(map[string]*css.Object)
	}
	r.ids = append(r.ids, id)
	r.updates[id] = style
	return r.fail[id]
}

func newRegistry(t *testing.T, opts ...registry.Option) (*registry.Registry, *recorder) {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	rec := &recorder{}
	opts = append([]registry.Option{
		registry.WithSink(rec),
		registry.WithWindow(scope.Window{Width: 400, Height: 800, Scale: 1, FontScale: 1}),
	}, opts...)
	r := registry.New(log, opts...)
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return r, rec
}

func obj(kv ...any) *css.Object {
	o := css.NewObject()
	for i := 0; i < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1].(css.Value))
	}
	return o
}

func value(t *testing.T, o *css.Object, key string) css.Value {
	t.Helper()
	v, ok := o.Get(key)
	if !ok {
		t.Fatalf("key %q is missing in %s", key, css.ObjectOf(o))
	}
	return v
}

func expect(t *testing.T, got, want css.Value) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistry_EndToEnd(t *testing.T) {
	r, rec := newRegistry(t)

	r1 := css.Rule{Specificity: css.Specificity{0, 0, 0, 0, 1}, Declarations: obj("width", css.Number(100))}
	must(t, r.RegisterClassname("box", []css.Rule{r1}))

	styled, err := r.RegisterComponent("c1", nil, "box", "", "", nil)
	must(t, err)
	expect(t, value(t, styled.Style, "width"), css.Number(100))

	r2 := css.Rule{Specificity: css.Specificity{0, 1, 0, 0, 2}, Declarations: obj("width", css.Number(200))}
	must(t, r.RegisterClassname("box", []css.Rule{r1, r2}))

	styled, ok := r.Styled("c1")
	if !ok {
		t.Fatalf("component is not registered")
	}
	expect(t, value(t, styled.Style, "width"), css.Number(200))
	if len(rec.ids) != 1 || rec.ids[0] != "c1" {
		t.Fatalf("expected single update for c1, got %v", rec.ids)
	}
	expect(t, value(t, rec.updates["c1"], "width"), css.Number(200))
}

func TestRegistry_LateClass(t *testing.T) {
	r, _ := newRegistry(t)

	styled, err := r.RegisterComponent("c1", nil, "late", "", "", nil)
	must(t, err)
	if !styled.Empty() {
		t.Fatalf("unknown class must not contribute, got %+v", styled)
	}

	must(t, r.RegisterClassname("late", []css.Rule{{Declarations: obj("opacity", css.Number(1))}}))
	styled, _ = r.Styled("c1")
	expect(t, value(t, styled.Style, "opacity"), css.Number(1))
}

func TestRegistry_ResizeWithUnchangedResult(t *testing.T) {
	r, rec := newRegistry(t)

	must(t, r.RegisterClassname("box", []css.Rule{
		{Declarations: obj("width", css.Number(100))},
		{
			Specificity:  css.Specificity{0, 1},
			Media:        &css.MediaQuery{Op: css.OpAnd, Features: []css.MediaFeature{{Name: css.FeatureMinWidth, Operator: "=", Operand: css.Number(1000)}}},
			Declarations: obj("width", css.Number(200)),
		},
	}))
	_, err := r.RegisterComponent("c1", nil, "box", "", "", nil)
	must(t, err)

	must(t, r.SetWindowDimensions(500, 800, 1, 1))
	must(t, r.SetWindowDimensions(600, 800, 1, 1))
	styled, _ := r.Styled("c1")
	expect(t, value(t, styled.Style, "width"), css.Number(100))
	if len(rec.ids) != 0 {
		t.Fatalf("unchanged style must not reach sink, got %v", rec.ids)
	}

	must(t, r.SetWindowDimensions(1200, 800, 1, 1))
	styled, _ = r.Styled("c1")
	expect(t, value(t, styled.Style, "width"), css.Number(200))
	if len(rec.ids) != 1 {
		t.Fatalf("expected single update, got %v", rec.ids)
	}
}

func TestRegistry_UnknownKeyframes(t *testing.T) {
	r, _ := newRegistry(t)

	must(t, r.RegisterClassname("spinner", []css.Rule{{Declarations: obj("animationName", css.String("spin"))}}))
	rerenders := 0
	styled, err := r.RegisterComponent("c1", func() { rerenders++ }, "spinner", "", "", nil)
	must(t, err)
	frames, ok := value(t, styled.Style, "animationName").AsObject()
	if !ok || frames.Len() != 0 {
		t.Fatalf("unknown keyframes must resolve to empty map, got %+v", styled.Style)
	}

	must(t, r.SetKeyframes("spin", obj("to", css.ObjectOf(obj("opacity", css.Number(1))))))
	styled, _ = r.Styled("c1")
	frames, ok = value(t, styled.Style, "animationName").AsObject()
	if !ok || !frames.Has("to") {
		t.Fatalf("keyframes defined later must be picked up, got %s", css.ObjectOf(styled.Style))
	}
	if rerenders != 1 {
		t.Fatalf("animated component must be re-rendered, got %d", rerenders)
	}
}

func TestRegistry_SinkOrderAndErrors(t *testing.T) {
	boom := errors.New("boom")
	r, rec := newRegistry(t)
	rec.fail = map[string]error{"c2": boom}

	must(t, r.RegisterClassname("box", []css.Rule{{Declarations: obj("width", css.Number(1))}}))
	for _, id := range []string{"c10", "c2", "c1"} {
		_, err := r.RegisterComponent(id, nil, "box", "", "", nil)
		must(t, err)
	}

	err := r.RegisterClassname("box", []css.Rule{{Declarations: obj("width", css.Number(2))}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	want := []string{"c1", "c2", "c10"}
	if len(rec.ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, rec.ids)
	}
	for i := range want {
		if rec.ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, rec.ids)
		}
	}
}

func TestRegistry_BatchedUpdatesDeliveredOnce(t *testing.T) {
	r, rec := newRegistry(t)

	must(t, r.RegisterClassname("a", []css.Rule{{Declarations: obj("width", css.Number(1))}}))
	must(t, r.RegisterClassname("b", []css.Rule{{Declarations: obj("height", css.Number(1))}}))
	_, err := r.RegisterComponent("c1", nil, "a b", "", "", nil)
	must(t, err)

	must(t, r.AddStyleSheet(&css.Stylesheet{Classes: map[string][]css.Rule{
		"a": {{Declarations: obj("width", css.Number(2))}},
		"b": {{Declarations: obj("height", css.Number(2))}},
	}}))

	if len(rec.ids) != 1 {
		t.Fatalf("expected one delivery, got %v", rec.ids)
	}
	expect(t, value(t, rec.updates["c1"], "width"), css.Number(2))
	expect(t, value(t, rec.updates["c1"], "height"), css.Number(2))
}

func TestRegistry_ReuseAndRebuild(t *testing.T) {
	r, rec := newRegistry(t)

	must(t, r.RegisterClassname("text", []css.Rule{
		{Props: obj("numberOfLines", css.Number(1))},
		{Specificity: css.Specificity{0, 1}, Media: &css.MediaQuery{Op: css.OpAnd, Features: []css.MediaFeature{
			{Name: css.FeatureMinWidth, Operator: "=", Operand: css.Number(500)},
		}}, Props: obj("numberOfLines", css.Number(3))},
	}))
	must(t, r.RegisterClassname("other", []css.Rule{{Declarations: obj("opacity", css.Number(0))}}))

	var first, second int
	_, err := r.RegisterComponent("c1", func() { first++ }, "text", "", "", nil)
	must(t, err)
	_, err = r.RegisterComponent("c1", func() { second++ }, "text", "", "", nil)
	must(t, err)

	must(t, r.SetWindowDimensions(600, 800, 1, 1))
	if first != 0 || second != 1 {
		t.Fatalf("latest re-render callback must be used, got %d and %d", first, second)
	}
	if len(rec.ids) != 0 {
		t.Fatalf("components with props re-render instead of sink updates")
	}

	styled, err := r.RegisterComponent("c1", func() { second++ }, "text other", "", "", nil)
	must(t, err)
	expect(t, value(t, styled.Style, "opacity"), css.Number(0))
	expect(t, value(t, styled.Props, "numberOfLines"), css.Number(3))
}

func TestRegistry_Deregister(t *testing.T) {
	r, rec := newRegistry(t)
	yes := true

	must(t, r.RegisterClassname("btn", []css.Rule{
		{Declarations: obj("opacity", css.Number(1))},
		{Specificity: css.Specificity{0, 1}, Pseudo: &css.PseudoClass{Hover: &yes}, Declarations: obj("opacity", css.Number(0.5))},
	}))
	_, err := r.RegisterComponent("c1", nil, "btn", "", "", nil)
	must(t, err)

	must(t, r.UpdateComponentState("c1", css.PseudoHover, true))
	styled, _ := r.Styled("c1")
	expect(t, value(t, styled.Style, "opacity"), css.Number(0.5))

	must(t, r.DeregisterComponent("c1"))
	must(t, r.DeregisterComponent("c1"))
	if _, ok := r.Styled("c1"); ok {
		t.Fatalf("deregistered component must be gone")
	}

	delivered := len(rec.ids)
	must(t, r.UpdateComponentState("c1", css.PseudoHover, false))
	if len(rec.ids) != delivered {
		t.Fatalf("deregistered component must not get updates")
	}

	// state was dropped together with component
	styled, err = r.RegisterComponent("c1", nil, "btn", "", "", nil)
	must(t, err)
	expect(t, value(t, styled.Style, "opacity"), css.Number(1))
}

func TestRegistry_LayeredRootVariables(t *testing.T) {
	r, _ := newRegistry(t)

	wide := css.ObjectOf(obj(css.FeatureMinWidth, css.List(css.String("="), css.Number(600))))
	must(t, r.SetRootVariables(obj("--gap", css.List(
		css.ObjectOf(obj("v", css.Number(4), "m", wide)),
		css.ObjectOf(obj("v", css.Number(2))),
	))))
	must(t, r.RegisterClassname("row", []css.Rule{{Declarations: obj("gap", css.Call("var", css.String("--gap")))}}))
	must(t, r.CreateVariableScope("c1", scope.RootScope))

	styled, err := r.RegisterComponent("c1", nil, "row", "c1", "", nil)
	must(t, err)
	expect(t, value(t, styled.Style, "gap"), css.Number(2))

	must(t, r.SetWindowDimensions(700, 800, 1, 1))
	styled, _ = r.Styled("c1")
	expect(t, value(t, styled.Style, "gap"), css.Number(4))

	must(t, r.SetUniversalVariables(obj("--gap", css.Number(9))))
	styled, _ = r.Styled("c1")
	expect(t, value(t, styled.Style, "gap"), css.Number(9))
}

func TestRegistry_ContainerQuery(t *testing.T) {
	r, rec := newRegistry(t)

	must(t, r.SetContainerScope("outer", scope.RootScope, []string{"outer"}))
	must(t, r.SetContainerScope("inner", "outer", nil))
	must(t, r.RegisterClassname("card", []css.Rule{{
		ContainerQueries: []css.ContainerQuery{{
			Name: "outer",
			Media: &css.MediaQuery{Op: css.OpAnd, Features: []css.MediaFeature{
				{Name: css.FeatureMinWidth, Operator: "=", Operand: css.Number(300)},
			}},
		}},
		Declarations: obj("padding", css.Number(8)),
	}}))

	styled, err := r.RegisterComponent("c1", nil, "card", "", "inner", nil)
	must(t, err)
	if styled.Style.Has("padding") {
		t.Fatalf("container without layout must not match")
	}

	must(t, r.UpdateComponentLayout("outer", scope.Rect{Width: 400, Height: 100}))
	styled, _ = r.Styled("c1")
	expect(t, value(t, styled.Style, "padding"), css.Number(8))
	if len(rec.ids) != 1 {
		t.Fatalf("expected sink update after layout, got %v", rec.ids)
	}
}

func TestRegistry_Colors(t *testing.T) {
	r, _ := newRegistry(t)
	must(t, r.RegisterClassname("c", []css.Rule{{Declarations: obj("color", css.String("red"))}}))
	styled, err := r.RegisterComponent("c1", nil, "c", "", "", nil)
	must(t, err)
	expect(t, value(t, styled.Style, "color"), css.Opaque(uint32(0xffff0000)))

	plain, _ := newRegistry(t, registry.WithColorProcessor(nil))
	must(t, plain.RegisterClassname("c", []css.Rule{{Declarations: obj("color", css.String("red"))}}))
	styled, err = plain.RegisterComponent("c1", nil, "c", "", "", nil)
	must(t, err)
	expect(t, value(t, styled.Style, "color"), css.String("red"))
}

func TestRegistry_AddStyleSheet(t *testing.T) {
	r, _ := newRegistry(t)

	doc := `
r: 16
s:
  box:
    - s: [0, 0, 0, 0, 1]
      d: {width: ["fn", "rem", 2], borderColor: ["fn", "var", "--accent"]}
vr:
  --accent: blue
k:
  spin:
    to: {rotate: 360deg}
`
	sheet, err := css.NewLoader(nil).Load([]byte(doc), "inline")
	must(t, err)
	must(t, r.AddStyleSheet(sheet))

	styled, err := r.RegisterComponent("c1", nil, "box", "", "", nil)
	must(t, err)
	expect(t, value(t, styled.Style, "width"), css.Number(32))
	expect(t, value(t, styled.Style, "borderColor"), css.Opaque(uint32(0xff0000ff)))
}

func TestRegistry_GetDeclarations(t *testing.T) {
	r, _ := newRegistry(t)
	yes := true

	must(t, r.RegisterClassname("a", []css.Rule{
		{Variables: obj("--x", css.Number(1))},
		{Pseudo: &css.PseudoClass{Hover: &yes}},
		{Attributes: &css.AttributeQuery{Attributes: []css.Value{css.List(css.String("="), css.String("disabled"))}}},
	}))
	must(t, r.RegisterClassname("b", []css.Rule{
		{Containers: []string{"card"}},
		{Declarations: obj("animationDuration", css.String("1s"))},
	}))

	d := r.GetDeclarations("c1", "a", "parent", "outer")
	if d.VariableScope != "c1" || d.ContainerScope != "outer" {
		t.Fatalf("unexpected scopes %+v", d)
	}
	if !d.Hover || d.Active || d.Focus || d.Rerender {
		t.Fatalf("unexpected flags %+v", d)
	}
	if len(d.AttributeQueries) != 1 || d.AttributeQueries[0].ID == "" {
		t.Fatalf("expected attribute query with id, got %+v", d.AttributeQueries)
	}

	d = r.GetDeclarations("c2", "b missing", "parent", "outer")
	if d.VariableScope != "parent" || d.ContainerScope != "c2" || !d.Rerender {
		t.Fatalf("unexpected declarations %+v", d)
	}
	if len(d.ContainerNames) != 1 || d.ContainerNames[0] != "card" {
		t.Fatalf("expected container name card, got %v", d.ContainerNames)
	}
}

func TestRegistry_AttributeQueries(t *testing.T) {
	r, _ := newRegistry(t)
	must(t, r.RegisterClassname("input", []css.Rule{
		{ID: "dis", Attributes: &css.AttributeQuery{}, Declarations: obj("opacity", css.Number(0.5))},
	}))

	styled, err := r.RegisterComponent("c1", nil, "input", "", "", nil)
	must(t, err)
	if styled.Style.Has("opacity") {
		t.Fatalf("attribute rule must wait for host validation")
	}

	styled, err = r.RegisterComponent("c2", nil, "input", "", "", []string{"dis"})
	must(t, err)
	expect(t, value(t, styled.Style, "opacity"), css.Number(0.5))
}

func TestRegistry_Close(t *testing.T) {
	r := registry.New(nil)
	must(t, r.RegisterClassname("a", []css.Rule{{Declarations: obj("width", css.Number(1))}}))
	_, err := r.RegisterComponent("c1", nil, "a", "", "", nil)
	must(t, err)

	must(t, r.Close())
	must(t, r.Close())

	if err := r.RegisterClassname("a", nil); !errors.Is(err, registry.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := r.RegisterComponent("c1", nil, "a", "", "", nil); !errors.Is(err, registry.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if len(r.Snapshot()) != 0 {
		t.Fatalf("closed registry has no components")
	}
}

func TestRegistry_SnapshotAndIDs(t *testing.T) {
	r, _ := newRegistry(t)
	must(t, r.RegisterClassname("a", []css.Rule{{Declarations: obj("width", css.Number(1))}}))

	id1, err := r.NewComponentID()
	must(t, err)
	id2, err := r.NewComponentID()
	must(t, err)
	if id1 == "" || id1 == id2 {
		t.Fatalf("component ids must be unique, got %q and %q", id1, id2)
	}

	for _, id := range []string{id1, id2} {
		_, err := r.RegisterComponent(id, nil, "a", "", "", nil)
		must(t, err)
	}
	snap := r.Snapshot()
	if len(snap) != 2 || len(r.ComponentIDs()) != 2 {
		t.Fatalf("expected two components, got %d", len(snap))
	}
	expect(t, value(t, snap[id1].Style, "width"), css.Number(1))
}

func TestRegistry_String(t *testing.T) {
	r, _ := newRegistry(t)
	must(t, r.RegisterClassname("c10", []css.Rule{{Declarations: obj("color", css.String("red"))}}))
	must(t, r.RegisterClassname("c2", []css.Rule{{Props: obj("numberOfLines", css.Number(2))}}))
	_, err := r.RegisterComponent("item", nil, "c2 c10", "", "", nil)
	must(t, err)

	out := r.String()
	for _, want := range []string{
		"Window 400x800 scale[1] fontScale[1]",
		"Classes: 2",
		"  Class[\"c2\"] rules[1]\n  Class[\"c10\"] rules[1]\n",
		"Component[\"item\"] classes[\"c2 c10\"]",
		"    style {1}\n      color: #ffff0000\n",
		"    props {1}\n      numberOfLines: 2\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump is missing %q:\n%s", want, out)
		}
	}
}
