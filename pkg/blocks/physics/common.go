package physics

import (
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/physics"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/aretw0/lattice/pkg/vars"
)

var simulationRequirement = block.ExposedInfo{
	Name: physics.SimulationVariable,
	Help: "The physics simulation subsystem.",
	Type: physics.SimulationType,
}

var rigidBodyParameter = block.Parameter{
	Name:  "RigidBody",
	Help:  "The rigid body collection to operate on.",
	Types: value.Types{physics.RigidBodyVarType, value.NoneType},
}

// bodyOp is the shared part of blocks that act on a published body
// collection of the shared simulation.
type bodyOp struct {
	block.Base
	simulation vars.Param
	rigidBody  vars.Param
}

func newBodyOp() bodyOp {
	var op bodyOp
	op.simulation.SetName(physics.SimulationVariable)
	return op
}

func (op *bodyOp) Parameters() block.Parameters {
	return block.Parameters{rigidBodyParameter}
}

func (op *bodyOp) SetParam(i int, v value.Value) error {
	if i != 0 {
		return op.Base.SetParam(i, v)
	}
	switch v.Kind() {
	case value.KindNone:
		return nil
	case value.KindContextVar:
		op.rigidBody.SetParam(v)
		return nil
	default:
		return fault.InvalidParameter("RigidBody must reference a variable, got %s", v.Shape())
	}
}

func (op *bodyOp) GetParam(i int) value.Value {
	if i != 0 || !op.rigidBody.IsVariable() {
		return value.None()
	}
	return op.rigidBody.GetParam()
}

func (op *bodyOp) RequiredVariables() block.Descriptor {
	reqs := block.Descriptor{simulationRequirement}
	if op.rigidBody.IsVariable() {
		reqs = append(reqs, block.ExposedInfo{
			Name: op.rigidBody.Name(),
			Help: "The required rigid body.",
			Type: physics.RigidBodyType,
		})
	}
	return reqs
}

func (op *bodyOp) Warmup(ctx *block.Context) error {
	op.rigidBody.Warmup(ctx.Variables())
	op.simulation.Warmup(ctx.Variables())
	return nil
}

func (op *bodyOp) Cleanup() {
	op.rigidBody.Cleanup()
	op.simulation.Cleanup()
}

// resolve re-reads both objects from their variables. They are never cached
// across activations.
func (op *bodyOp) resolve() (*physics.Simulation, *physics.RigidBody, error) {
	sim, err := physics.SimulationFrom(op.simulation.Get())
	if err != nil {
		return nil, nil, err
	}
	rb, err := physics.RigidBodyFrom(op.rigidBody.Get())
	if err != nil {
		return nil, nil, err
	}
	return sim, rb, nil
}
