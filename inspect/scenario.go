// Package inspect drives style registry through scripted host session and
// reports resolved styles.
package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	yaml "gopkg.in/yaml.v3"

	"cssnitro/css"
	"cssnitro/scope"
)

// Scenario is what host would do with registry: initial environment,
// components and follow-up changes.
type Scenario struct {
	Window             *scope.Window    `yaml:"window,omitempty"`
	RootVariables      *css.Object      `yaml:"root_variables,omitempty"`
	UniversalVariables *css.Object      `yaml:"universal_variables,omitempty"`
	VariableScopes     []VariableScope  `yaml:"variable_scopes,omitempty"`
	ContainerScopes    []ContainerScope `yaml:"container_scopes,omitempty"`
	Components         []Component      `yaml:"components"`
	Steps              []Step           `yaml:"steps,omitempty"`
}

type VariableScope struct {
	Key    string `yaml:"key"`
	Parent string `yaml:"parent,omitempty"`
}

type ContainerScope struct {
	Key    string   `yaml:"key"`
	Parent string   `yaml:"parent,omitempty"`
	Names  []string `yaml:"names,omitempty"`
}

type State struct {
	Active bool `yaml:"active,omitempty"`
	Hover  bool `yaml:"hover,omitempty"`
	Focus  bool `yaml:"focus,omitempty"`
}

// Component is registered with registry. Empty id is replaced with generated
// one.
type Component struct {
	ID               string      `yaml:"id,omitempty"`
	ClassNames       string      `yaml:"class_names"`
	VariableScope    string      `yaml:"variable_scope,omitempty"`
	ContainerScope   string      `yaml:"container_scope,omitempty"`
	AttributeQueries []string    `yaml:"attribute_queries,omitempty"`
	State            State       `yaml:"state,omitempty"`
	Layout           *scope.Rect `yaml:"layout,omitempty"`
}

type StateChange struct {
	ID     string `yaml:"id"`
	Pseudo string `yaml:"pseudo"`
	Value  bool   `yaml:"value"`
}

type LayoutChange struct {
	ID   string     `yaml:"id"`
	Rect scope.Rect `yaml:",inline"`
}

// Step is one host mutation, everything present in step is applied in a
// single batch of registry calls in field order.
type Step struct {
	Name               string                `yaml:"name,omitempty"`
	Window             *scope.Window         `yaml:"window,omitempty"`
	RootVariables      *css.Object           `yaml:"root_variables,omitempty"`
	UniversalVariables *css.Object           `yaml:"universal_variables,omitempty"`
	Classes            map[string][]css.Rule `yaml:"classes,omitempty"`
	Keyframes          *css.Object           `yaml:"keyframes,omitempty"`
	State              []StateChange         `yaml:"state,omitempty"`
	Layout             []LayoutChange        `yaml:"layout,omitempty"`
	Register           []Component           `yaml:"register,omitempty"`
	Deregister         []string              `yaml:"deregister,omitempty"`
}

// ParseScenario decodes scenario from YAML or JSON document. Unknown keys
// are errors.
func ParseScenario(data []byte) (*Scenario, error) {
	sc := &Scenario{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	for i, st := range sc.Steps {
		for _, ch := range st.State {
			if _, err := css.ParsePseudoClassType(ch.Pseudo); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return sc, nil
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// DefaultScenario registers one component per stylesheet class, named after
// the class.
func DefaultScenario(sheet *css.Stylesheet) *Scenario {
	sc := &Scenario{}
	for _, name := range sheet.ClassNames() {
		sc.Components = append(sc.Components, Component{ID: name, ClassNames: name})
	}
	return sc
}
