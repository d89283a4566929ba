package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings represents funblocks.yaml.
type Settings struct {
	Eval      EvalSettings      `yaml:"eval"`
	Colour    ColourSettings    `yaml:"colour"`
	Inference InferenceSettings `yaml:"inference"`
	Log       LogSettings       `yaml:"log"`
}

type EvalSettings struct {
	// MaxDepth caps nested evaluation.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// CallBudget caps the number of applications per run; 0 means unlimited.
	CallBudget int `yaml:"call_budget,omitempty"`
}

type ColourSettings struct {
	Saturation  float64 `yaml:"saturation,omitempty"`
	Value       float64 `yaml:"value,omitempty"`
	ListLighten float64 `yaml:"list_lighten,omitempty"`
}

type InferenceSettings struct {
	// MaxSteps is the per-group step allowance of one propagation pass.
	MaxSteps int `yaml:"max_steps,omitempty"`
}

type LogSettings struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.setDefaults()
	return s
}

// LoadSettings reads path. A missing file yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	return ParseSettings(data, path)
}

// ParseSettings parses funblocks.yaml content.
// The path argument is used only for error messages.
func ParseSettings(data []byte, path string) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.validate(path); err != nil {
		return nil, err
	}
	s.setDefaults()
	return &s, nil
}

func (s *Settings) validate(path string) error {
	if s.Eval.MaxDepth < 0 {
		return fmt.Errorf("%s: eval.max_depth must not be negative", path)
	}
	if s.Eval.CallBudget < 0 {
		return fmt.Errorf("%s: eval.call_budget must not be negative", path)
	}
	for name, v := range map[string]float64{
		"colour.saturation":   s.Colour.Saturation,
		"colour.value":        s.Colour.Value,
		"colour.list_lighten": s.Colour.ListLighten,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s: %s must be within [0, 1]", path, name)
		}
	}
	if s.Log.Level != "" {
		if _, err := parseLevel(s.Log.Level); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func (s *Settings) setDefaults() {
	if s.Eval.MaxDepth == 0 {
		s.Eval.MaxDepth = MaxEvalDepth
	}
	if s.Colour.Saturation == 0 {
		s.Colour.Saturation = HSVSaturation
	}
	if s.Colour.Value == 0 {
		s.Colour.Value = HSVValue
	}
	if s.Colour.ListLighten == 0 {
		s.Colour.ListLighten = ListLightenRatio
	}
	if s.Inference.MaxSteps == 0 {
		s.Inference.MaxSteps = MaxInferenceSteps
	}
	if s.Log.Level == "" {
		s.Log.Level = "warn"
	}
}

// LogLevel returns the configured slog level.
func (s *Settings) LogLevel() slog.Level {
	level, err := parseLevel(s.Log.Level)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
