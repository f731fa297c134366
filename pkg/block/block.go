package block

import (
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
)

// Block is the contract between a host and one processing unit.
//
// The host drives every block through Warmup, any number of Activate calls
// and Cleanup. Parameters may only change before Warmup. Everything reported
// by the descriptor methods (types, parameters, variables) must be derivable
// from the current parameters alone so the host can validate a graph before
// running it.
type Block interface {
	// Name is the registered, process-unique name (e.g. "Physics.Impulse").
	Name() string
	// Hash is the type tag of the block implementation.
	Hash() value.TypeTag
	Help() string

	InputTypes() value.Types
	OutputTypes() value.Types

	Parameters() Parameters
	SetParam(index int, v value.Value) error
	GetParam(index int) value.Value

	// RequiredVariables lists the variables read during activation,
	// including structural dependencies.
	RequiredVariables() Descriptor
	// ExposedVariables lists the variables the block publishes.
	ExposedVariables() Descriptor

	Warmup(ctx *Context) error
	Activate(ctx *Context, input value.Value) (value.Value, error)
	// Cleanup releases everything Warmup acquired. It must tolerate a
	// failed or partial warmup and repeated calls.
	Cleanup()
}

// Parameter describes one configurable slot of a block.
type Parameter struct {
	Name  string
	Help  string
	Types value.Types
}

// Parameters is the ordered parameter list of a block.
type Parameters []Parameter

// Index returns the position of the parameter called name, or -1.
func (ps Parameters) Index(name string) int {
	for i, p := range ps {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// ExposedInfo describes one variable dependency.
type ExposedInfo struct {
	Name string
	Help string
	Type value.Type
	// OneOf, when set, lists the alternative types a required variable may
	// hold and takes precedence over Type.
	OneOf value.Types
	// Global variables live in the host's root scope.
	Global bool
}

// Types returns the types the variable may hold.
func (e ExposedInfo) Types() value.Types {
	if len(e.OneOf) > 0 {
		return e.OneOf
	}
	return value.Types{e.Type}
}

// Descriptor is a list of variable dependencies.
type Descriptor []ExposedInfo

// Names returns the variable names in order.
func (d Descriptor) Names() []string {
	names := make([]string, len(d))
	for i, info := range d {
		names[i] = info.Name
	}
	return names
}

// Identity returns the identity string a block or native type is hashed
// from.
func Identity(name string) string {
	return name + "-go-0x20200101"
}

// HashOf returns the type tag of the named block.
func HashOf(name string) value.TypeTag {
	return value.Tag(Identity(name))
}

// Base provides defaults for the optional parts of Block. Embed it and
// implement Name, Hash and Activate.
type Base struct{}

func (Base) Help() string { return "" }

func (Base) InputTypes() value.Types { return value.AnyTypes }

func (Base) OutputTypes() value.Types { return value.AnyTypes }

func (Base) Parameters() Parameters { return nil }

func (Base) SetParam(index int, _ value.Value) error {
	return fault.InvalidParameter("parameter index %d out of range", index)
}

func (Base) GetParam(int) value.Value { return value.None() }

func (Base) RequiredVariables() Descriptor { return nil }

func (Base) ExposedVariables() Descriptor { return nil }

func (Base) Warmup(*Context) error { return nil }

func (Base) Cleanup() {}

// SetParamByName validates v against the declared types of the parameter
// called name and sets it.
func SetParamByName(b Block, name string, v value.Value) error {
	params := b.Parameters()
	i := params.Index(name)
	if i < 0 {
		return fault.InvalidParameter("%s has no parameter %q", b.Name(), name)
	}
	if err := params[i].Types.Validate(v); err != nil {
		return fault.Wrap(fault.KindInvalidParameter, err, "%s: parameter %s expects %s", b.Name(), name, params[i].Types.Name())
	}
	return b.SetParam(i, v)
}

// GetParamByName returns the current value of the parameter called name.
func GetParamByName(b Block, name string) (value.Value, error) {
	i := b.Parameters().Index(name)
	if i < 0 {
		return value.None(), fault.InvalidParameter("%s has no parameter %q", b.Name(), name)
	}
	return b.GetParam(i), nil
}
