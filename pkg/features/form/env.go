package form

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	xerrors "github.com/vango-dev/xform/internal/errors"
)

// WriteDefault controls whether a mounted field writes its default value
// into the model.
type WriteDefault int

const (
	// WriteDefaultOff never writes the default.
	WriteDefaultOff WriteDefault = iota
	// WriteDefaultOn writes the default once at mount when the value is absent.
	WriteDefaultOn
	// WriteDefaultForce keeps writing the default whenever the value becomes
	// absent while mounted.
	WriteDefaultForce
)

// String returns the YAML spelling of the mode.
func (w WriteDefault) String() string {
	switch w {
	case WriteDefaultOn:
		return "true"
	case WriteDefaultForce:
		return "force"
	default:
		return "false"
	}
}

// UnmarshalYAML accepts a boolean or the string "force".
func (w *WriteDefault) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Value == "force" {
		*w = WriteDefaultForce
		return nil
	}
	var b bool
	if err := node.Decode(&b); err != nil {
		return fmt.Errorf("writeDefaultValueToModel: want bool or \"force\", got %q", node.Value)
	}
	if b {
		*w = WriteDefaultOn
	} else {
		*w = WriteDefaultOff
	}
	return nil
}

// MarshalYAML renders the mode as a boolean or "force".
func (w WriteDefault) MarshalYAML() (any, error) {
	switch w {
	case WriteDefaultForce:
		return "force", nil
	case WriteDefaultOn:
		return true, nil
	default:
		return false, nil
	}
}

// Presenter performs the visual side effects of a failed submission.
// Implementations live in the UI layer.
type Presenter interface {
	// ScrollTo brings the field's element into view. It reports false when
	// the field has no rendered element, so the next error field is tried.
	ScrollTo(f *Field) bool

	// Animate draws attention to the given fields.
	Animate(fields []*Field)
}

// Env is the resolved environment of a model.
type Env struct {
	ValidateOnMount          bool
	ValidateOnChange         bool
	ValidateOnBlur           bool
	WriteDefaultValueToModel WriteDefault
	AutoUnmount              bool

	// HTMLIDPrefix prefixes element ids derived from field paths. Root
	// models default to a generated prefix; an explicit empty override
	// disables ids.
	HTMLIDPrefix string

	Presenter Presenter

	OnSubmit func(values any, m *Model)
	OnError  func(errors any, m *Model)
	OnReset  func(m *Model)
}

// DefaultEnv returns the environment of a model with no overrides.
func DefaultEnv() Env {
	return Env{
		ValidateOnMount:  false,
		ValidateOnChange: true,
		ValidateOnBlur:   true,
	}
}

// EnvOverride overrides parts of an inherited Env. Unset fields inherit.
type EnvOverride struct {
	ValidateOnMount          *bool         `yaml:"validateOnMount,omitempty"`
	ValidateOnChange         *bool         `yaml:"validateOnChange,omitempty"`
	ValidateOnBlur           *bool         `yaml:"validateOnBlur,omitempty"`
	WriteDefaultValueToModel *WriteDefault `yaml:"writeDefaultValueToModel,omitempty"`
	AutoUnmount              *bool         `yaml:"autoUnmount,omitempty"`
	HTMLIDPrefix             *string       `yaml:"htmlIdPrefix,omitempty"`

	Presenter Presenter                 `yaml:"-"`
	OnSubmit  func(values any, m *Model) `yaml:"-"`
	OnError   func(errors any, m *Model) `yaml:"-"`
	OnReset   func(m *Model)             `yaml:"-"`
}

// Apply returns env with the override's set fields replaced.
func (o EnvOverride) Apply(env Env) Env {
	if o.ValidateOnMount != nil {
		env.ValidateOnMount = *o.ValidateOnMount
	}
	if o.ValidateOnChange != nil {
		env.ValidateOnChange = *o.ValidateOnChange
	}
	if o.ValidateOnBlur != nil {
		env.ValidateOnBlur = *o.ValidateOnBlur
	}
	if o.WriteDefaultValueToModel != nil {
		env.WriteDefaultValueToModel = *o.WriteDefaultValueToModel
	}
	if o.AutoUnmount != nil {
		env.AutoUnmount = *o.AutoUnmount
	}
	if o.HTMLIDPrefix != nil {
		env.HTMLIDPrefix = *o.HTMLIDPrefix
	}
	if o.Presenter != nil {
		env.Presenter = o.Presenter
	}
	if o.OnSubmit != nil {
		env.OnSubmit = o.OnSubmit
	}
	if o.OnError != nil {
		env.OnError = o.OnError
	}
	if o.OnReset != nil {
		env.OnReset = o.OnReset
	}
	return env
}

// Ptr returns a pointer to v, for EnvOverride literals.
//
//	m.SetEnv(form.EnvOverride{ValidateOnMount: form.Ptr(true)})
func Ptr[T any](v T) *T {
	return &v
}

// ParseEnv decodes an EnvOverride from YAML.
//
//	validateOnMount: true
//	writeDefaultValueToModel: force
//	htmlIdPrefix: "checkout-"
func ParseEnv(data []byte) (EnvOverride, error) {
	var o EnvOverride
	if err := yaml.Unmarshal(data, &o); err != nil {
		return EnvOverride{}, xerrors.New(xerrors.CodeEnvDecode).Wrap(err)
	}
	return o, nil
}

// LoadEnv reads and decodes an EnvOverride from a YAML file.
func LoadEnv(path string) (EnvOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EnvOverride{}, xerrors.New(xerrors.CodeEnvDecode).WithPath(path).Wrap(err)
	}
	o, err := ParseEnv(data)
	if err != nil {
		return EnvOverride{}, xerrors.FromError(err, xerrors.CodeEnvDecode).WithPath(path)
	}
	return o, nil
}
