// Package registry is the entry point of the style engine: it keeps rules
// registered by class name, live styles of components and all shared state
// (window, variables, containers, element states) styles depend on.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssnitro/cascade"
	"cssnitro/css"
	"cssnitro/reactive"
	"cssnitro/resolve"
	"cssnitro/rules"
	"cssnitro/scope"
)

// ErrClosed is returned by mutating calls after registry was closed.
var ErrClosed = errors.New("style registry is closed")

type Registry struct {
	log *zap.Logger

	env        *scope.Environment
	pseudo     *scope.PseudoClasses
	containers *scope.Containers
	vars       *scope.Variables
	resolver   *resolve.Resolver
	engine     *cascade.Engine

	classMu    sync.Mutex
	classes    map[string]*reactive.Observable[[]*css.Rule]
	nextRuleID atomic.Uint64

	compMu     sync.Mutex
	components map[string]*component

	closed atomic.Bool

	sink    UpdateSink
	queueMu sync.Mutex
	queue   map[string]*css.Object
}

// New creates registry. Logger may be nil.
func New(log *zap.Logger, opts ...Option) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	o := options{
		colors: css.ProcessColor,
		window: scope.Window{Scale: 1, FontScale: 1},
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{
		log:        log.Named("registry"),
		env:        scope.NewEnvironment(o.window),
		pseudo:     scope.NewPseudoClasses(),
		containers: scope.NewContainers(),
		classes:    make(map[string]*reactive.Observable[[]*css.Rule]),
		components: make(map[string]*component),
		sink:       o.sink,
		queue:      make(map[string]*css.Object),
	}
	if o.rem > 0 {
		r.env.SetRem(o.rem)
	}

	eval := rules.NewEvaluator(r.env, r.pseudo, r.containers)
	r.vars = scope.NewVariables(eval.TestMediaValue)
	r.resolver = resolve.NewResolver(log, r.vars, r.env, css.CachedColorProcessor(o.colors))
	r.engine = cascade.NewEngine(log, classSource{r}, eval, r.vars, r.resolver, cascade.SinkFunc(r.enqueue))
	return r
}

// classSource exposes class rules to cascade engine.
type classSource struct {
	r *Registry
}

func (s classSource) Rules(className string, get *reactive.Getter) []*css.Rule {
	return reactive.Read(get, s.r.classRules(className))
}

// classRules returns rules observable of class, unknown class gets empty
// one so later registration is picked up by its readers.
func (r *Registry) classRules(className string) *reactive.Observable[[]*css.Rule] {
	r.classMu.Lock()
	defer r.classMu.Unlock()
	o, ok := r.classes[className]
	if !ok {
		o = reactive.NewObservable[[]*css.Rule](nil)
		r.classes[className] = o
	}
	return o
}

// mutate runs fn and delivers sink updates it produced.
func (r *Registry) mutate(fn func() error) error {
	if r.closed.Load() {
		return ErrClosed
	}
	err := fn()
	return multierr.Append(err, r.flush())
}

func (r *Registry) enqueue(componentID string, style *css.Object) {
	r.queueMu.Lock()
	defer r.queueMu.Unlock()
	r.queue[componentID] = style
}

// flush delivers queued updates in natural order of component ids.
func (r *Registry) flush() error {
	r.queueMu.Lock()
	queue := r.queue
	r.queue = make(map[string]*css.Object)
	r.queueMu.Unlock()

	if len(queue) == 0 || r.sink == nil {
		return nil
	}

	ids := make([]string, 0, len(queue))
	for id := range queue {
		ids = append(ids, id)
	}
	sort.Sort(natural.StringSlice(ids))

	var err error
	for _, id := range ids {
		if e := r.sink.AddUpdates(id, queue[id]); e != nil {
			err = multierr.Append(err, fmt.Errorf("unable to deliver style update for %q: %w", id, e))
		}
	}
	return err
}

// RegisterClassname replaces rules of class. Rules are copied, rules
// without id get unique one.
func (r *Registry) RegisterClassname(className string, rs []css.Rule) error {
	return r.mutate(func() error {
		r.setClassname(className, rs)
		return nil
	})
}

func (r *Registry) setClassname(className string, rs []css.Rule) {
	copied := make([]*css.Rule, len(rs))
	for i := range rs {
		rule := rs[i]
		if rule.ID == "" {
			rule.ID = strconv.FormatUint(r.nextRuleID.Add(1), 10)
		}
		copied[i] = &rule
	}
	r.log.Debug("Class registered", zap.String("class", className), zap.Int("rules", len(copied)))
	r.classRules(className).Set(copied)
}

// AddStyleSheet registers everything stylesheet carries in one batch.
func (r *Registry) AddStyleSheet(sheet *css.Stylesheet) error {
	return r.mutate(func() error {
		reactive.Batch(func() {
			if sheet.Rem > 0 {
				r.env.SetRem(sheet.Rem)
			}
			for _, name := range sheet.ClassNames() {
				r.setClassname(name, sheet.Classes[name])
			}
			for name, frames := range sheet.Keyframes.All() {
				if obj, ok := frames.AsObject(); ok {
					r.resolver.Animations().SetKeyframes(name, obj)
				}
			}
			r.setTopLevel(scope.RootScope, sheet.RootVariables)
			r.setTopLevel(scope.UniversalScope, sheet.UniversalVariables)
		})
		return nil
	})
}

func (r *Registry) SetRootVariables(vars *css.Object) error {
	return r.mutate(func() error {
		reactive.Batch(func() { r.setTopLevel(scope.RootScope, vars) })
		return nil
	})
}

func (r *Registry) SetUniversalVariables(vars *css.Object) error {
	return r.mutate(func() error {
		reactive.Batch(func() { r.setTopLevel(scope.UniversalScope, vars) })
		return nil
	})
}

func (r *Registry) setTopLevel(key string, vars *css.Object) {
	for name, value := range vars.All() {
		r.vars.SetTopLevel(key, name, value)
	}
}

// SetKeyframes replaces keyframes of animation.
func (r *Registry) SetKeyframes(name string, frames *css.Object) error {
	return r.mutate(func() error {
		r.resolver.Animations().SetKeyframes(name, frames)
		return nil
	})
}

// SetWindowDimensions updates window environment atomically.
func (r *Registry) SetWindowDimensions(width, height, scale, fontScale float64) error {
	return r.mutate(func() error {
		r.env.SetWindow(scope.Window{Width: width, Height: height, Scale: scale, FontScale: fontScale})
		return nil
	})
}

// CreateVariableScope creates (or re-parents) variable scope.
func (r *Registry) CreateVariableScope(key, parent string) error {
	if key == scope.RootScope || key == scope.UniversalScope {
		return fmt.Errorf("variable scope %q is reserved", key)
	}
	return r.mutate(func() error {
		r.vars.CreateScope(key, parent)
		return nil
	})
}

func (r *Registry) DeleteVariableScope(key string) error {
	return r.mutate(func() error {
		r.vars.DeleteScope(key)
		r.resolver.Animations().DeleteScope(key)
		return nil
	})
}

// SetContainerScope places container scope in hierarchy with names it
// answers to.
func (r *Registry) SetContainerScope(key, parent string, names []string) error {
	return r.mutate(func() error {
		r.containers.SetScope(key, parent, names)
		return nil
	})
}

func (r *Registry) UpdateComponentState(componentID string, t css.PseudoClassType, value bool) error {
	return r.mutate(func() error {
		r.pseudo.Set(componentID, t, value)
		return nil
	})
}

func (r *Registry) UpdateComponentLayout(componentID string, rect scope.Rect) error {
	return r.mutate(func() error {
		r.containers.SetLayout(componentID, rect)
		return nil
	})
}

// NewComponentID generates unique component id for hosts which have none.
func (r *Registry) NewComponentID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("unable to generate component id: %w", err)
	}
	return id.String(), nil
}

// Window returns current window dimensions.
func (r *Registry) Window() scope.Window {
	return r.env.Window()
}

// Declarations describe what host has to provide for component styles.
type Declarations struct {
	VariableScope    string           `yaml:"variableScope"`
	ContainerScope   string           `yaml:"containerScope,omitempty"`
	ContainerNames   []string         `yaml:"containerNames,omitempty"`
	AttributeQueries []AttributeQuery `yaml:"attributeQueries,omitempty"`
	Active           bool             `yaml:"active,omitempty"`
	Hover            bool             `yaml:"hover,omitempty"`
	Focus            bool             `yaml:"focus,omitempty"`
	// Rerender is set when any rule animates, such changes cannot be
	// applied as style patch.
	Rerender bool `yaml:"rerender,omitempty"`
}

// AttributeQuery is attribute query host has to evaluate, rules whose
// query holds are passed back by id at registration.
type AttributeQuery struct {
	ID    string             `yaml:"id"`
	Query css.AttributeQuery `yaml:"query"`
}

// GetDeclarations inspects rules of component classes. Components with rules
// declaring variables get their own variable scope, components declaring
// containers become container scope.
func (r *Registry) GetDeclarations(componentID, classNames, variableScope, containerScope string) Declarations {
	d := Declarations{VariableScope: variableScope, ContainerScope: containerScope}

	for _, class := range strings.Fields(classNames) {
		r.classMu.Lock()
		o, ok := r.classes[class]
		r.classMu.Unlock()
		if !ok {
			continue
		}
		for _, rule := range o.Get() {
			if rule.Attributes != nil && rule.ID != "" {
				d.AttributeQueries = append(d.AttributeQueries, AttributeQuery{ID: rule.ID, Query: *rule.Attributes})
			}
			if rule.Variables.Len() > 0 {
				d.VariableScope = componentID
			}
			if len(rule.Containers) > 0 {
				d.ContainerScope = componentID
				for _, name := range rule.Containers {
					if !slices.Contains(d.ContainerNames, name) {
						d.ContainerNames = append(d.ContainerNames, name)
					}
				}
			}
			if pq := rule.Pseudo; pq != nil {
				d.Active = d.Active || pq.Active != nil
				d.Hover = d.Hover || pq.Hover != nil
				d.Focus = d.Focus || pq.Focus != nil
			}
			d.Rerender = d.Rerender || rule.NeedsRerender()
		}
	}
	return d
}
