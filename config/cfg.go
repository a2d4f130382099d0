package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"cssnitro/registry"
	"cssnitro/scope"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	WindowConfig struct {
		Width     float64 `yaml:"width" validate:"gte=0"`
		Height    float64 `yaml:"height" validate:"gte=0"`
		Scale     float64 `yaml:"scale" validate:"gt=0"`
		FontScale float64 `yaml:"font_scale" validate:"gt=0"`
	}

	EngineConfig struct {
		Window          WindowConfig `yaml:"window"`
		Rem             float64      `yaml:"rem" validate:"gte=0"`
		ColorProcessing bool         `yaml:"color_processing"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Engine    EngineConfig   `yaml:"engine"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func (conf WindowConfig) Window() scope.Window {
	return scope.Window{Width: conf.Width, Height: conf.Height, Scale: conf.Scale, FontScale: conf.FontScale}
}

// Prepare creates style registry configured according to engine section.
func (conf *EngineConfig) Prepare(log *zap.Logger, opts ...registry.Option) *registry.Registry {
	base := []registry.Option{
		registry.WithWindow(conf.Window.Window()),
		registry.WithRem(conf.Rem),
	}
	if !conf.ColorProcessing {
		base = append(base, registry.WithColorProcessor(nil))
	}
	return registry.New(log, append(base, opts...)...)
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
