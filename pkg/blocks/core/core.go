// Package core provides the blocks that move values between a chain and
// its context variables.
package core

import (
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/aretw0/lattice/pkg/vars"
)

var nameParameter = block.Parameter{
	Name:  "Name",
	Help:  "The name of the variable.",
	Types: value.Types{value.StringType},
}

// Const outputs its Value parameter and ignores its input.
type Const struct {
	block.Base
	value value.Value
}

func NewConst() block.Block { return &Const{} }

func (c *Const) Name() string        { return "Const" }
func (c *Const) Hash() value.TypeTag { return block.HashOf(c.Name()) }
func (c *Const) Help() string        { return "Outputs a constant value." }

func (c *Const) OutputTypes() value.Types { return value.Types{c.value.Type()} }

func (c *Const) Parameters() block.Parameters {
	return block.Parameters{{Name: "Value", Help: "The value to output.", Types: value.AnyTypes}}
}

func (c *Const) SetParam(i int, v value.Value) error {
	if i != 0 {
		return c.Base.SetParam(i, v)
	}
	if v.Kind() == value.KindObject || v.Kind() == value.KindContextVar {
		return fault.InvalidParameter("Const value must be plain data, got %s", v.Shape())
	}
	c.value = v.Clone()
	return nil
}

func (c *Const) GetParam(i int) value.Value {
	if i != 0 {
		return value.None()
	}
	return c.value
}

func (c *Const) Activate(*block.Context, value.Value) (value.Value, error) {
	return c.value, nil
}

// Set stores a copy of its input in a variable and passes the input through.
type Set struct {
	block.Base
	target vars.Param
}

func NewSet() block.Block { return &Set{} }

func (s *Set) Name() string        { return "Set" }
func (s *Set) Hash() value.TypeTag { return block.HashOf(s.Name()) }
func (s *Set) Help() string        { return "Stores the input in a context variable." }

func (s *Set) Parameters() block.Parameters { return block.Parameters{nameParameter} }

func (s *Set) SetParam(i int, v value.Value) error {
	if i != 0 {
		return s.Base.SetParam(i, v)
	}
	name, err := v.AsString()
	if err != nil {
		return fault.Wrap(fault.KindInvalidParameter, err, "Name must be a string")
	}
	s.target.SetName(name)
	return nil
}

func (s *Set) GetParam(i int) value.Value {
	if i != 0 || !s.target.IsVariable() {
		return value.None()
	}
	return value.String(s.target.Name())
}

func (s *Set) ExposedVariables() block.Descriptor {
	if !s.target.IsVariable() {
		return nil
	}
	return block.Descriptor{{Name: s.target.Name(), Help: "The stored value.", Type: value.AnyType}}
}

func (s *Set) Warmup(ctx *block.Context) error {
	if !s.target.IsVariable() {
		return fault.InvalidParameter("Set requires a Name")
	}
	s.target.Warmup(ctx.Variables())
	return nil
}

func (s *Set) Activate(_ *block.Context, input value.Value) (value.Value, error) {
	s.target.Set(input.Clone())
	return input, nil
}

func (s *Set) Cleanup() { s.target.Cleanup() }

// Get outputs the value of a variable, or Default while it is unset.
type Get struct {
	block.Base
	source vars.Param
	def    value.Value
}

func NewGet() block.Block { return &Get{} }

func (g *Get) Name() string        { return "Get" }
func (g *Get) Hash() value.TypeTag { return block.HashOf(g.Name()) }
func (g *Get) Help() string        { return "Outputs the value of a context variable." }

func (g *Get) Parameters() block.Parameters {
	return block.Parameters{
		nameParameter,
		{Name: "Default", Help: "The value to output while the variable is unset.", Types: value.AnyTypes},
	}
}

func (g *Get) SetParam(i int, v value.Value) error {
	switch i {
	case 0:
		name, err := v.AsString()
		if err != nil {
			return fault.Wrap(fault.KindInvalidParameter, err, "Name must be a string")
		}
		g.source.SetName(name)
		return nil
	case 1:
		g.def = v.Clone()
		return nil
	default:
		return g.Base.SetParam(i, v)
	}
}

func (g *Get) GetParam(i int) value.Value {
	switch i {
	case 0:
		if g.source.IsVariable() {
			return value.String(g.source.Name())
		}
	case 1:
		return g.def
	}
	return value.None()
}

// RequiredVariables lists the variable only when no Default covers its
// absence.
func (g *Get) RequiredVariables() block.Descriptor {
	if !g.source.IsVariable() || !g.def.IsNone() {
		return nil
	}
	return block.Descriptor{{Name: g.source.Name(), Help: "The variable to read.", Type: value.AnyType}}
}

func (g *Get) Warmup(ctx *block.Context) error {
	if !g.source.IsVariable() {
		return fault.InvalidParameter("Get requires a Name")
	}
	g.source.Warmup(ctx.Variables())
	return nil
}

func (g *Get) Activate(*block.Context, value.Value) (value.Value, error) {
	v := g.source.Get()
	if !v.IsNone() {
		return v, nil
	}
	if g.def.IsNone() {
		return value.None(), fault.NotFound("variable %q is not set", g.source.Name())
	}
	return g.def, nil
}

func (g *Get) Cleanup() { g.source.Cleanup() }

// Register adds the core blocks to reg.
func Register(reg *block.Registry) error {
	for _, ctor := range []block.Constructor{NewConst, NewSet, NewGet} {
		if err := reg.Register(ctor); err != nil {
			return err
		}
	}
	return nil
}
