// Package physics provides the blocks that create and act on the shared
// physics simulation.
package physics

import (
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/physics"
)

// Register adds the physics blocks and native types to reg. The options set
// the defaults of every Physics.Simulation block it creates.
func Register(reg *block.Registry, opts ...SimulationOption) error {
	if err := reg.RegisterType(physics.SimulationIdentity, physics.SimulationTag); err != nil {
		return err
	}
	if err := reg.RegisterType(physics.RigidBodyIdentity, physics.RigidBodyTag); err != nil {
		return err
	}

	for _, ctor := range []block.Constructor{
		func() block.Block { return NewSimulation(opts...) },
		NewRigidBody,
		NewImpulse,
		NewPosition,
		NewVelocity,
		NewRemove,
	} {
		if err := reg.Register(ctor); err != nil {
			return err
		}
	}
	return nil
}
