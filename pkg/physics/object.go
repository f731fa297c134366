package physics

import (
	"errors"

	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
)

// Identities of the native types published by the physics blocks.
const (
	SimulationIdentity = "Physics.Simulation-go-0x20200101"
	RigidBodyIdentity  = "Physics.RigidBody-go-0x20200101"

	// SimulationVariable is the variable the simulation is published under.
	SimulationVariable = "Physics.Simulation"
	// RigidBodyVariable is the default variable for a body collection.
	RigidBodyVariable = "Physics.RigidBody"

	SimulationNotFound = "Physics simulation not found"
	RigidBodyNotFound  = "RigidBody not found"
)

var (
	SimulationTag = value.Tag(SimulationIdentity)
	RigidBodyTag  = value.Tag(RigidBodyIdentity)

	SimulationType = value.ObjectType("Physics.Simulation", SimulationTag)
	RigidBodyType  = value.ObjectType("Physics.RigidBody", RigidBodyTag)

	// RigidBodyVarType is the parameter type of blocks operating on a
	// published body collection.
	RigidBodyVarType = value.VarOf(RigidBodyType)
)

// RigidBody is a collection of bodies created together by one block. It
// only holds handles: every use must go through the simulation, which
// rejects the ones that went stale.
type RigidBody struct {
	Handles []Handle
}

// Value wraps s as a tagged object. The value does not own s.
func (s *Simulation) Value() value.Value {
	return value.Object(SimulationTag, s)
}

// Value wraps r as a tagged object. The value does not own r.
func (r *RigidBody) Value() value.Value {
	return value.Object(RigidBodyTag, r)
}

// SimulationFrom checks that v holds a live simulation. A value that is not
// an object, or a closed simulation, is reported as not found; an object of
// another semantic type as a tag mismatch.
func SimulationFrom(v value.Value) (*Simulation, error) {
	sim, err := value.ObjectAs[Simulation](v, SimulationTag)
	if err != nil {
		return nil, notFound(err, SimulationNotFound)
	}
	if sim.Closed() {
		return nil, fault.NotFound(SimulationNotFound)
	}
	return sim, nil
}

// RigidBodyFrom checks that v holds a body collection.
func RigidBodyFrom(v value.Value) (*RigidBody, error) {
	rb, err := value.ObjectAs[RigidBody](v, RigidBodyTag)
	if err != nil {
		return nil, notFound(err, RigidBodyNotFound)
	}
	return rb, nil
}

func notFound(err error, msg string) error {
	if errors.Is(err, fault.ErrTypeTagMismatch) {
		return fault.Wrap(fault.KindTypeTagMismatch, err, "%s", msg)
	}
	return fault.NotFound("%s", msg)
}
