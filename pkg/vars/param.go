package vars

import (
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
)

// Param is a block parameter that holds either a literal or a reference to
// a named variable. It must be bound with Warmup before Get or Set and
// released with Cleanup afterwards.
//
// The zero value is an unbound literal None.
type Param struct {
	literal value.Value
	table   *Table
	slot    *Slot
	name    string
	bound   bool
}

// NewParam returns an unbound param holding v.
func NewParam(v value.Value) Param {
	var p Param
	p.SetParam(v)
	return p
}

// SetName makes p refer to the variable name.
func (p *Param) SetName(name string) {
	if p.bound {
		fault.Violation("cannot rename bound parameter %q", p.name)
	}
	p.name = name
}

// SetParam stores v. A ContextVar turns p into a variable reference, any
// other value into a literal.
func (p *Param) SetParam(v value.Value) {
	if p.bound {
		fault.Violation("cannot set bound parameter %q", p.name)
	}
	if name, err := v.AsContextVar(); err == nil {
		p.name = name
		p.literal = value.None()
		return
	}
	p.name = ""
	p.literal = v
}

// GetParam returns the configured value: the ContextVar for references or
// the literal.
func (p *Param) GetParam() value.Value {
	if p.name != "" {
		return value.ContextVar(p.name)
	}
	return p.literal
}

// IsVariable reports whether p refers to a named variable.
func (p *Param) IsVariable() bool { return p.name != "" }

// Name returns the referenced variable name, or "" for literals.
func (p *Param) Name() string { return p.name }

// IsBound reports whether p is between Warmup and Cleanup.
func (p *Param) IsBound() bool { return p.bound }

// Warmup binds p. A reference resolves its slot in table, creating the
// variable if it is absent; a literal needs no table.
func (p *Param) Warmup(table *Table) {
	if p.bound {
		fault.Violation("parameter %q warmed up twice", p.name)
	}
	if p.name != "" {
		if table == nil {
			fault.Violation("parameter %q needs a variable table", p.name)
		}
		p.table = table
		p.slot = table.Reference(p.name)
	}
	p.bound = true
}

// Get reads the bound value. References observe the latest write made by
// any holder of the slot.
func (p *Param) Get() value.Value {
	if !p.bound {
		fault.Violation("parameter %q read while unbound", p.name)
	}
	if p.slot != nil {
		return p.slot.Get()
	}
	return p.literal
}

// Set writes through the binding.
func (p *Param) Set(v value.Value) {
	if !p.bound {
		fault.Violation("parameter %q written while unbound", p.name)
	}
	if p.slot != nil {
		p.slot.Set(v)
		return
	}
	p.literal = v
}

// Cleanup releases the slot and unbinds p. It is safe to call repeatedly
// and on a param whose warmup never happened.
func (p *Param) Cleanup() {
	if p.slot != nil {
		p.table.Release(p.slot)
	}
	p.slot = nil
	p.table = nil
	p.bound = false
}
