package inspect

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"cssnitro/config"
	"cssnitro/css"
	"cssnitro/registry"
	"cssnitro/scope"
)

// Resolved is styled result of single component.
type Resolved struct {
	ID     string
	Styled css.Styled
}

// Components keeps results in natural component id order when marshalled.
type Components []Resolved

func (cs Components) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, c := range cs {
		v := &yaml.Node{}
		if err := v.Encode(c.Styled); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.ID}, v)
	}
	return n, nil
}

// Frame is state of registry after a step.
type Frame struct {
	Step       int        `yaml:"step"`
	Name       string     `yaml:"name,omitempty"`
	Updates    []string   `yaml:"updates,omitempty"`
	Rerenders  []string   `yaml:"rerenders,omitempty"`
	Components Components `yaml:"components"`
}

// Inspector plays host for registry: it registers components, applies
// scenario steps and records what registry pushes back.
type Inspector struct {
	log *zap.Logger
	reg *registry.Registry
	rpt *config.Report
	enc *yaml.Encoder

	mu        sync.Mutex
	updates   []string
	rerenders []string
	known     map[string]Component
}

// Opener creates registry configured for the run. Inspector adds its own
// sink option.
type Opener func(opts ...registry.Option) *registry.Registry

func New(log *zap.Logger, open Opener, rpt *config.Report, out io.Writer) *Inspector {
	if log == nil {
		log = zap.NewNop()
	}
	in := &Inspector{
		log:   log.Named("inspect"),
		rpt:   rpt,
		enc:   yaml.NewEncoder(out),
		known: make(map[string]Component),
	}
	in.enc.SetIndent(2)
	in.reg = open(registry.WithSink(registry.SinkFunc(in.record)))
	return in
}

// Registry gives access to underlying registry.
func (in *Inspector) Registry() *registry.Registry {
	return in.reg
}

func (in *Inspector) Close() error {
	err := in.reg.Close()
	if cerr := in.enc.Close(); err == nil {
		err = cerr
	}
	return err
}

func (in *Inspector) record(componentID string, _ *css.Object) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.updates = append(in.updates, componentID)
	return nil
}

func (in *Inspector) rerender(componentID string) func() {
	return func() {
		in.mu.Lock()
		defer in.mu.Unlock()
		in.rerenders = append(in.rerenders, componentID)
	}
}

// drain returns and resets what was collected since last call.
func (in *Inspector) drain() (updates, rerenders []string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	updates, rerenders = in.updates, in.rerenders
	in.updates, in.rerenders = nil, nil
	return updates, rerenders
}

// Run loads stylesheet into registry, sets scenario up and applies its steps
// one by one, writing frame after setup and after every step.
func (in *Inspector) Run(ctx context.Context, sheet *css.Stylesheet, sc *Scenario) error {
	if err := in.reg.AddStyleSheet(sheet); err != nil {
		return fmt.Errorf("unable to add stylesheet: %w", err)
	}
	if err := in.setup(sc); err != nil {
		return fmt.Errorf("unable to set scenario up: %w", err)
	}
	if err := in.emit(0, "initial"); err != nil {
		return err
	}
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := in.apply(st); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := in.emit(i+1, st.Name); err != nil {
			return err
		}
	}
	if in.rpt != nil {
		in.rpt.StoreData("registry.txt", []byte(in.reg.String()))
	}
	return nil
}

func parentOrRoot(parent string) string {
	if parent == "" {
		return scope.RootScope
	}
	return parent
}

func (in *Inspector) setup(sc *Scenario) error {
	if w := sc.Window; w != nil {
		if err := in.reg.SetWindowDimensions(w.Width, w.Height, w.Scale, w.FontScale); err != nil {
			return err
		}
	}
	if sc.RootVariables != nil {
		if err := in.reg.SetRootVariables(sc.RootVariables); err != nil {
			return err
		}
	}
	if sc.UniversalVariables != nil {
		if err := in.reg.SetUniversalVariables(sc.UniversalVariables); err != nil {
			return err
		}
	}
	for _, vs := range sc.VariableScopes {
		if err := in.reg.CreateVariableScope(vs.Key, parentOrRoot(vs.Parent)); err != nil {
			return err
		}
	}
	for _, cs := range sc.ContainerScopes {
		if err := in.reg.SetContainerScope(cs.Key, cs.Parent, cs.Names); err != nil {
			return err
		}
	}
	for _, c := range sc.Components {
		if err := in.register(c); err != nil {
			return err
		}
	}
	return nil
}

// register does what host does for new element: asks which scopes element
// needs, creates them, reports known state and registers element.
func (in *Inspector) register(c Component) error {
	if c.ID == "" {
		id, err := in.reg.NewComponentID()
		if err != nil {
			return err
		}
		c.ID = id
	}

	d := in.reg.GetDeclarations(c.ID, c.ClassNames, c.VariableScope, c.ContainerScope)
	if d.VariableScope == c.ID && c.VariableScope != c.ID {
		if err := in.reg.CreateVariableScope(c.ID, parentOrRoot(c.VariableScope)); err != nil {
			return err
		}
	}
	if d.ContainerScope == c.ID && c.ContainerScope != c.ID {
		if err := in.reg.SetContainerScope(c.ID, c.ContainerScope, d.ContainerNames); err != nil {
			return err
		}
	}

	for t, on := range map[css.PseudoClassType]bool{
		css.PseudoActive: c.State.Active,
		css.PseudoHover:  c.State.Hover,
		css.PseudoFocus:  c.State.Focus,
	} {
		if !on {
			continue
		}
		if err := in.reg.UpdateComponentState(c.ID, t, true); err != nil {
			return err
		}
	}
	if c.Layout != nil {
		if err := in.reg.UpdateComponentLayout(c.ID, *c.Layout); err != nil {
			return err
		}
	}

	if _, err := in.reg.RegisterComponent(c.ID, in.rerender(c.ID), c.ClassNames, d.VariableScope, d.ContainerScope, c.AttributeQueries); err != nil {
		return err
	}
	in.log.Debug("Component registered", zap.String("id", c.ID), zap.String("classes", c.ClassNames),
		zap.String("variableScope", d.VariableScope), zap.String("containerScope", d.ContainerScope))

	c.VariableScope, c.ContainerScope = d.VariableScope, d.ContainerScope
	in.mu.Lock()
	in.known[c.ID] = c
	in.mu.Unlock()
	return nil
}

func (in *Inspector) apply(st Step) error {
	if w := st.Window; w != nil {
		if err := in.reg.SetWindowDimensions(w.Width, w.Height, w.Scale, w.FontScale); err != nil {
			return err
		}
	}
	if st.RootVariables != nil {
		if err := in.reg.SetRootVariables(st.RootVariables); err != nil {
			return err
		}
	}
	if st.UniversalVariables != nil {
		if err := in.reg.SetUniversalVariables(st.UniversalVariables); err != nil {
			return err
		}
	}
	if len(st.Classes) > 0 || st.Keyframes != nil {
		if err := in.reg.AddStyleSheet(&css.Stylesheet{Classes: st.Classes, Keyframes: st.Keyframes}); err != nil {
			return err
		}
	}
	for _, ch := range st.State {
		t, err := css.ParsePseudoClassType(ch.Pseudo)
		if err != nil {
			return err
		}
		if err := in.reg.UpdateComponentState(ch.ID, t, ch.Value); err != nil {
			return err
		}
	}
	for _, ch := range st.Layout {
		if err := in.reg.UpdateComponentLayout(ch.ID, ch.Rect); err != nil {
			return err
		}
	}
	for _, c := range st.Register {
		if err := in.register(c); err != nil {
			return err
		}
	}
	for _, id := range st.Deregister {
		if err := in.reg.DeregisterComponent(id); err != nil {
			return err
		}
		in.mu.Lock()
		delete(in.known, id)
		in.mu.Unlock()
	}
	return nil
}

// refresh re-registers components which asked for rerender, the way host
// re-renders element with unchanged parameters.
func (in *Inspector) refresh(ids []string) error {
	for _, id := range ids {
		in.mu.Lock()
		c, ok := in.known[id]
		in.mu.Unlock()
		if !ok {
			continue
		}
		if _, err := in.reg.RegisterComponent(c.ID, in.rerender(c.ID), c.ClassNames, c.VariableScope, c.ContainerScope, c.AttributeQueries); err != nil {
			return err
		}
	}
	return nil
}

// Frame collects current state of all live components.
func (in *Inspector) Frame(step int, name string) (*Frame, error) {
	updates, rerenders := in.drain()
	if err := in.refresh(rerenders); err != nil {
		return nil, err
	}
	f := &Frame{Step: step, Name: name, Updates: updates, Rerenders: rerenders}
	snap := in.reg.Snapshot()
	for _, id := range in.reg.ComponentIDs() {
		if s, ok := snap[id]; ok {
			f.Components = append(f.Components, Resolved{ID: id, Styled: s})
		}
	}
	return f, nil
}

func (in *Inspector) emit(step int, name string) error {
	f, err := in.Frame(step, name)
	if err != nil {
		return err
	}
	if err := in.enc.Encode(f); err != nil {
		return fmt.Errorf("unable to write step %d: %w", step, err)
	}
	if in.rpt != nil {
		for _, c := range f.Components {
			data, err := yaml.Marshal(c.Styled)
			if err != nil {
				return err
			}
			in.rpt.StoreData(fmt.Sprintf("steps/%03d/%s.yaml", step, slug.Make(c.ID)), data)
		}
	}
	return nil
}
