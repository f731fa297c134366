package physics

import (
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/physics"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/aretw0/lattice/pkg/vars"
)

// Simulation owns the shared simulation. It creates it on warmup, steps it
// on every activation and destroys it on cleanup.
type Simulation struct {
	block.Base
	sim       *physics.Simulation
	published vars.Param
	gravity   physics.Vec3
	timeStep  float64
}

// SimulationOption sets the defaults of a new Simulation block.
type SimulationOption func(*Simulation)

func WithGravity(g physics.Vec3) SimulationOption {
	return func(s *Simulation) {
		s.gravity = g
	}
}

func WithTimeStep(dt float64) SimulationOption {
	return func(s *Simulation) {
		if dt > 0 {
			s.timeStep = dt
		}
	}
}

func NewSimulation(opts ...SimulationOption) block.Block {
	s := &Simulation{
		gravity:  physics.DefaultGravity,
		timeStep: physics.DefaultTimeStep,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.published.SetName(physics.SimulationVariable)
	return s
}

func (s *Simulation) Name() string { return "Physics.Simulation" }

func (s *Simulation) Hash() value.TypeTag { return block.HashOf(s.Name()) }

func (s *Simulation) Help() string {
	return "Creates the physics simulation shared by the other physics blocks and advances it by one step per activation."
}

func (s *Simulation) Parameters() block.Parameters {
	return block.Parameters{
		{Name: "Gravity", Help: "The gravity force vector.", Types: value.Types{value.Float3Type}},
		{Name: "TimeStep", Help: "The integration step in seconds.", Types: value.Types{value.FloatType}},
	}
}

func (s *Simulation) SetParam(i int, v value.Value) error {
	switch i {
	case 0:
		g, err := physics.Vec3From(v)
		if err != nil {
			return fault.Wrap(fault.KindInvalidParameter, err, "Gravity must be a float3")
		}
		s.gravity = g
	case 1:
		dt, err := v.AsFloat()
		if err != nil {
			return fault.Wrap(fault.KindInvalidParameter, err, "TimeStep must be a float")
		}
		if dt <= 0 {
			return fault.InvalidParameter("TimeStep must be positive, got %g", dt)
		}
		s.timeStep = dt
	default:
		return s.Base.SetParam(i, v)
	}
	return nil
}

func (s *Simulation) GetParam(i int) value.Value {
	switch i {
	case 0:
		return s.gravity.Value()
	case 1:
		return value.Float(s.timeStep)
	default:
		return value.None()
	}
}

func (s *Simulation) ExposedVariables() block.Descriptor {
	return block.Descriptor{simulationRequirement}
}

func (s *Simulation) Warmup(ctx *block.Context) error {
	s.sim = physics.NewSimulation(physics.WithGravity(s.gravity), physics.WithTimeStep(s.timeStep))
	s.published.Warmup(ctx.Variables())
	s.published.Set(s.sim.Value())
	ctx.Logger().Debug("physics simulation created", "simulation", s.sim.ID())
	return nil
}

func (s *Simulation) Activate(_ *block.Context, input value.Value) (value.Value, error) {
	s.sim.Step()
	return input, nil
}

func (s *Simulation) Cleanup() {
	if s.published.IsBound() {
		s.published.Set(value.None())
	}
	s.published.Cleanup()
	if s.sim != nil {
		s.sim.Close()
		s.sim = nil
	}
}
