package chain

import (
	"fmt"
	"os"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of a chain:
//
//	name: impulse
//	blocks:
//	  - block: Physics.Simulation
//	  - block: Physics.RigidBody
//	    params:
//	      Bodies: [{Mass: 2}]
//	  - block: Physics.Impulse
//	    params:
//	      RigidBody: {var: Physics.RigidBody}
//
// A parameter written as a single-key map {var: Name} references a context
// variable. Numeric lists are read as vectors where the parameter accepts
// one.
type Definition struct {
	Name   string `mapstructure:"name" yaml:"name,omitempty"`
	Blocks []Step `mapstructure:"blocks" yaml:"blocks"`
}

// Step is one block of a Definition.
type Step struct {
	Block  string         `mapstructure:"block" yaml:"block"`
	Params map[string]any `mapstructure:"params" yaml:"params,omitempty"`
}

// LoadDefinition reads a chain definition file.
func LoadDefinition(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read chain definition: %w", err)
	}
	return ParseDefinition(data)
}

// ParseDefinition decodes a YAML chain definition.
func ParseDefinition(data []byte) (Definition, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Definition{}, fmt.Errorf("failed to parse chain definition: %w", err)
	}

	var def Definition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		ErrorUnused: true,
	})
	if err != nil {
		return Definition{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Definition{}, fmt.Errorf("invalid chain definition: %w", err)
	}
	if len(def.Blocks) == 0 {
		return Definition{}, fmt.Errorf("chain definition has no blocks")
	}
	return def, nil
}

// Build creates the blocks of def from reg and sets their parameters.
func (def Definition) Build(reg *block.Registry, opts ...Option) (*Chain, error) {
	blocks := make([]block.Block, len(def.Blocks))
	for i, step := range def.Blocks {
		b, err := reg.Create(step.Block)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		for name, raw := range step.Params {
			v, err := ParamValue(b, name, raw)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			if err := block.SetParamByName(b, name, v); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
		}
		blocks[i] = b
	}

	if def.Name != "" {
		opts = append([]Option{WithName(def.Name)}, opts...)
	}
	return New(blocks, opts...), nil
}

// ParamValue converts a decoded YAML or JSON value into the Value for the
// parameter called name of b.
func ParamValue(b block.Block, name string, raw any) (value.Value, error) {
	if m, ok := raw.(map[string]any); ok && len(m) == 1 {
		if ref, ok := m["var"].(string); ok {
			return value.ContextVar(ref), nil
		}
	}

	v, err := value.FromNative(raw)
	if err != nil {
		return value.None(), err
	}

	params := b.Parameters()
	i := params.Index(name)
	if i < 0 {
		return value.None(), fault.InvalidParameter("%s has no parameter %q", b.Name(), name)
	}
	if params[i].Types.Accepts(v) {
		return v, nil
	}
	if vec, ok := asVector(v); ok && params[i].Types.Accepts(vec) {
		return vec, nil
	}
	return v, nil
}

func asVector(v value.Value) (value.Value, bool) {
	if v.Kind() != value.KindSeq || v.Len() == 0 {
		return value.None(), false
	}
	xs := make([]float64, 0, v.Len())
	for _, item := range v.All() {
		switch item.Kind() {
		case value.KindFloat:
			f, _ := item.AsFloat()
			xs = append(xs, f)
		case value.KindInt:
			n, _ := item.AsInt()
			xs = append(xs, float64(n))
		default:
			return value.None(), false
		}
	}
	return value.Vector(xs...), true
}
