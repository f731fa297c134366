package physics

import (
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/physics"
	"github.com/aretw0/lattice/pkg/value"
)

// Impulse applies its float3 input as an impulse to every body of a
// collection. Either every body receives it or, when any handle is stale,
// none does.
type Impulse struct {
	bodyOp
}

func NewImpulse() block.Block {
	return &Impulse{bodyOp: newBodyOp()}
}

func (b *Impulse) Name() string { return "Physics.Impulse" }

func (b *Impulse) Hash() value.TypeTag { return block.HashOf(b.Name()) }

func (b *Impulse) Help() string {
	return "Applies the input impulse vector to every body of the rigid body collection and passes the input through."
}

func (b *Impulse) InputTypes() value.Types { return value.Types{value.Float3Type} }

func (b *Impulse) OutputTypes() value.Types { return value.Types{value.Float3Type} }

func (b *Impulse) Activate(_ *block.Context, input value.Value) (value.Value, error) {
	sim, rb, err := b.resolve()
	if err != nil {
		return value.None(), err
	}
	impulse, err := physics.Vec3From(input)
	if err != nil {
		return value.None(), err
	}
	if err := sim.ApplyImpulses(rb.Handles, impulse); err != nil {
		return value.None(), err
	}
	return input, nil
}
