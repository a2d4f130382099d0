package registry

import (
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"cssnitro/utils/debug"
)

// String returns readable tree of registry state: environment, registered
// classes and live components with their current styles. It exists for
// manual inspection and debug reports.
func (r *Registry) String() string {
	tw := debug.NewTreeWriter()

	w := r.env.Window()
	tw.Line(0, "Window %gx%g scale[%g] fontScale[%g] rem[%g]", w.Width, w.Height, w.Scale, w.FontScale, r.env.Rem(nil))
	if r.closed.Load() {
		tw.Line(0, "Closed")
	}

	r.classMu.Lock()
	names := slices.Collect(maps.Keys(r.classes))
	rules := make(map[string]int, len(names))
	for name, o := range r.classes {
		rules[name] = len(o.Get())
	}
	r.classMu.Unlock()
	sort.Sort(natural.StringSlice(names))

	tw.Line(0, "Classes: %d", len(names))
	for _, name := range names {
		tw.Line(1, "Class[%q] rules[%d]", name, rules[name])
	}

	ids := r.ComponentIDs()
	tw.Line(0, "Components: %d", len(ids))
	for _, id := range ids {
		r.compMu.Lock()
		c, ok := r.components[id]
		r.compMu.Unlock()
		if !ok {
			continue
		}
		cur := c.current()
		if cur == nil {
			continue
		}
		p := cur.Params()
		tw.Line(1, "Component[%q] classes[%q] variableScope[%q] containerScope[%q]", id, p.ClassNames, p.VariableScope, p.ContainerScope)
		s := cur.Get()
		tw.Object(2, "style", s.Style)
		tw.Object(2, "importantStyle", s.ImportantStyle)
		tw.Object(2, "props", s.Props)
		tw.Object(2, "importantProps", s.ImportantProps)
	}
	return tw.String()
}
