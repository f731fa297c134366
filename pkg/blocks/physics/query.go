package physics

import (
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/physics"
	"github.com/aretw0/lattice/pkg/value"
)

// Position outputs the position of every body of a collection.
type Position struct {
	bodyOp
}

func NewPosition() block.Block {
	return &Position{bodyOp: newBodyOp()}
}

func (b *Position) Name() string { return "Physics.Position" }

func (b *Position) Hash() value.TypeTag { return block.HashOf(b.Name()) }

func (b *Position) Help() string {
	return "Outputs the position of each body of the rigid body collection."
}

func (b *Position) OutputTypes() value.Types { return value.Types{value.Float3sType} }

func (b *Position) Activate(_ *block.Context, _ value.Value) (value.Value, error) {
	return b.collect((*physics.Simulation).Position)
}

// Velocity outputs the linear velocity of every body of a collection.
type Velocity struct {
	bodyOp
}

func NewVelocity() block.Block {
	return &Velocity{bodyOp: newBodyOp()}
}

func (b *Velocity) Name() string { return "Physics.Velocity" }

func (b *Velocity) Hash() value.TypeTag { return block.HashOf(b.Name()) }

func (b *Velocity) Help() string {
	return "Outputs the linear velocity of each body of the rigid body collection."
}

func (b *Velocity) OutputTypes() value.Types { return value.Types{value.Float3sType} }

func (b *Velocity) Activate(_ *block.Context, _ value.Value) (value.Value, error) {
	return b.collect((*physics.Simulation).Velocity)
}

func (op *bodyOp) collect(read func(*physics.Simulation, physics.Handle) (physics.Vec3, error)) (value.Value, error) {
	sim, rb, err := op.resolve()
	if err != nil {
		return value.None(), err
	}
	out := make([]value.Value, len(rb.Handles))
	for i, h := range rb.Handles {
		v, err := read(sim, h)
		if err != nil {
			return value.None(), err
		}
		out[i] = v.Value()
	}
	return value.Seq(out...), nil
}

// Remove deletes every body of a collection from the simulation.
type Remove struct {
	bodyOp
}

func NewRemove() block.Block {
	return &Remove{bodyOp: newBodyOp()}
}

func (b *Remove) Name() string { return "Physics.Remove" }

func (b *Remove) Hash() value.TypeTag { return block.HashOf(b.Name()) }

func (b *Remove) Help() string {
	return "Removes every body of the rigid body collection from the simulation and passes the input through."
}

func (b *Remove) Activate(_ *block.Context, input value.Value) (value.Value, error) {
	sim, rb, err := b.resolve()
	if err != nil {
		return value.None(), err
	}
	if err := sim.RemoveAll(rb.Handles); err != nil {
		return value.None(), err
	}
	return input, nil
}
