package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"
)

// Stylesheet is compiled stylesheet: rules already structured, nothing here
// parses CSS text.
type Stylesheet struct {
	Rem                float64           `yaml:"r,omitempty"`
	Classes            map[string][]Rule `yaml:"s,omitempty"`
	Keyframes          *Object           `yaml:"k,omitempty"`
	RootVariables      *Object           `yaml:"vr,omitempty"`
	UniversalVariables *Object           `yaml:"vu,omitempty"`

	// Warnings collected while loading (not fatal).
	Warnings []string `yaml:"-"`
}

// ClassNames returns sorted names of classes in stylesheet.
func (s *Stylesheet) ClassNames() []string {
	return slices.Sorted(maps.Keys(s.Classes))
}

// Loader reads compiled stylesheets from YAML or JSON documents.
type Loader struct {
	log *zap.Logger
}

func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log.Named("css-loader")}
}

// Load decodes stylesheet. The optional source parameter identifies what's
// being loaded (for debug logging). Unknown keys are errors, suspicious but
// usable content produces warnings.
func (l *Loader) Load(data []byte, source ...string) (*Stylesheet, error) {
	src := "data"
	if len(source) > 0 && source[0] != "" {
		src = source[0]
	}
	l.log.Debug("Loading stylesheet", zap.String("source", src), zap.Int("bytes", len(data)))

	sheet := &Stylesheet{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(sheet); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode stylesheet %s: %w", src, err)
	}

	for _, name := range sheet.ClassNames() {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, " \t\n") {
			sheet.warn("class name %q cannot be referenced", name)
		}
		for i := range sheet.Classes[name] {
			checkRule(sheet, name, i, &sheet.Classes[name][i])
		}
	}
	for name, frames := range sheet.Keyframes.All() {
		if _, ok := frames.AsObject(); !ok {
			sheet.warn("keyframes %q: expected mapping of frames, got %s", name, frames.Kind())
		}
	}

	for _, w := range sheet.Warnings {
		l.log.Debug("Stylesheet warning", zap.String("source", src), zap.String("warning", w))
	}
	l.log.Debug("Stylesheet loaded", zap.String("source", src),
		zap.Int("classes", len(sheet.Classes)), zap.Int("keyframes", sheet.Keyframes.Len()), zap.Int("warnings", len(sheet.Warnings)))
	return sheet, nil
}

// LoadFile reads and decodes stylesheet file.
func (l *Loader) LoadFile(path string) (*Stylesheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read stylesheet: %w", err)
	}
	return l.Load(data, path)
}

func (s *Stylesheet) warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

func checkRule(sheet *Stylesheet, class string, idx int, r *Rule) {
	if r.Declarations.Len() == 0 && r.Props.Len() == 0 && r.Variables.Len() == 0 && len(r.Containers) == 0 {
		sheet.warn("%s[%d]: rule has no effect", class, idx)
	}
	checkMedia := func(where string, mq *MediaQuery) {
		if mq == nil {
			return
		}
		switch mq.Op {
		case OpAnd, OpOr, OpNot:
		default:
			sheet.warn("%s[%d] %s: unknown combinator %q", class, idx, where, mq.Op)
		}
		for _, f := range mq.Features {
			if !KnownFeature(f.Name) {
				sheet.warn("%s[%d] %s: unknown media feature %q", class, idx, where, f.Name)
			}
			if f.Malformed() {
				sheet.warn("%s[%d] %s: feature %q is not [operator, value]", class, idx, where, f.Name)
			}
		}
	}
	checkMedia("mq", r.Media)
	for i := range r.ContainerQueries {
		checkMedia(fmt.Sprintf("cq[%d]", i), r.ContainerQueries[i].Media)
	}
}
