package physics

import (
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/physics"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/aretw0/lattice/pkg/vars"
	"github.com/mitchellh/mapstructure"
)

// BodySpec is the configuration of one body, as accepted by the Bodies
// parameter: a table such as {"Position": (0 1 0), "Mass": 2}.
type BodySpec struct {
	Position []float64 `mapstructure:"Position"`
	Velocity []float64 `mapstructure:"Velocity"`
	Mass     float64   `mapstructure:"Mass"`
	Static   bool      `mapstructure:"Static"`
}

func (s BodySpec) body() (physics.Body, error) {
	b := physics.Body{Mass: s.Mass, Static: s.Static}
	if s.Mass == 0 {
		b.Mass = 1
	}
	if s.Mass < 0 {
		return b, fault.InvalidParameter("Mass must not be negative, got %g", s.Mass)
	}
	var err error
	if s.Position != nil {
		if b.Position, err = physics.ParseVec3(s.Position); err != nil {
			return b, fault.Wrap(fault.KindInvalidParameter, err, "invalid Position")
		}
	}
	if s.Velocity != nil {
		if b.Velocity, err = physics.ParseVec3(s.Velocity); err != nil {
			return b, fault.Wrap(fault.KindInvalidParameter, err, "invalid Velocity")
		}
	}
	return b, nil
}

// DecodeBodies converts a seq of body tables into body specs.
func DecodeBodies(v value.Value) ([]BodySpec, error) {
	if err := (value.Types{value.TablesType}).Validate(v); err != nil {
		return nil, fault.Wrap(fault.KindInvalidParameter, err, "Bodies must be a seq of tables")
	}

	var specs []BodySpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &specs,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(value.ToNative(v)); err != nil {
		return nil, fault.Wrap(fault.KindInvalidParameter, err, "invalid Bodies")
	}
	for i, spec := range specs {
		if _, err := spec.body(); err != nil {
			return nil, fault.Wrap(fault.KindInvalidParameter, err, "body %d", i)
		}
	}
	return specs, nil
}

// RigidBody creates a collection of bodies in the shared simulation and
// publishes it for the blocks that act on it.
type RigidBody struct {
	block.Base
	simulation vars.Param
	published  vars.Param
	bodies     value.Value
	specs      []BodySpec
	collection *physics.RigidBody
	owner      uint64
}

func NewRigidBody() block.Block {
	body := value.NewTable()
	body.Set("Mass", value.Float(1))

	rb := &RigidBody{
		specs:  []BodySpec{{Mass: 1}},
		bodies: value.Seq(value.TableOf(body)),
	}
	rb.simulation.SetName(physics.SimulationVariable)
	rb.published.SetName(physics.RigidBodyVariable)
	return rb
}

func (rb *RigidBody) Name() string { return "Physics.RigidBody" }

func (rb *RigidBody) Hash() value.TypeTag { return block.HashOf(rb.Name()) }

func (rb *RigidBody) Help() string {
	return "Adds a collection of rigid bodies to the physics simulation and publishes it under a variable."
}

func (rb *RigidBody) Parameters() block.Parameters {
	return block.Parameters{
		{Name: "Name", Help: "The variable to publish the collection under.", Types: value.Types{value.StringType}},
		{Name: "Bodies", Help: "The bodies to create, as tables with Position, Velocity, Mass and Static keys.", Types: value.Types{value.TablesType}},
	}
}

func (rb *RigidBody) SetParam(i int, v value.Value) error {
	switch i {
	case 0:
		name, err := v.AsString()
		if err != nil {
			return fault.Wrap(fault.KindInvalidParameter, err, "Name must be a string")
		}
		if name == "" {
			return fault.InvalidParameter("Name must not be empty")
		}
		if name == physics.SimulationVariable {
			return fault.InvalidParameter("Name must not be %q, it holds the simulation", name)
		}
		rb.published.SetName(name)
	case 1:
		specs, err := DecodeBodies(v)
		if err != nil {
			return err
		}
		rb.specs = specs
		rb.bodies = v.Clone()
	default:
		return rb.Base.SetParam(i, v)
	}
	return nil
}

func (rb *RigidBody) GetParam(i int) value.Value {
	switch i {
	case 0:
		return value.String(rb.published.Name())
	case 1:
		return rb.bodies
	default:
		return value.None()
	}
}

func (rb *RigidBody) RequiredVariables() block.Descriptor {
	return block.Descriptor{simulationRequirement}
}

func (rb *RigidBody) ExposedVariables() block.Descriptor {
	return block.Descriptor{{
		Name: rb.published.Name(),
		Help: "The rigid body collection.",
		Type: physics.RigidBodyType,
	}}
}

func (rb *RigidBody) Warmup(ctx *block.Context) error {
	rb.simulation.Warmup(ctx.Variables())
	rb.published.Warmup(ctx.Variables())
	return nil
}

// Activate creates the bodies the first time it runs against a simulation,
// so a recreated simulation gets a fresh collection.
func (rb *RigidBody) Activate(ctx *block.Context, input value.Value) (value.Value, error) {
	sim, err := physics.SimulationFrom(rb.simulation.Get())
	if err != nil {
		return value.None(), err
	}

	if rb.collection == nil || rb.owner != sim.ID() {
		handles := make([]physics.Handle, 0, len(rb.specs))
		for _, spec := range rb.specs {
			b, _ := spec.body()
			handles = append(handles, sim.Insert(b))
		}
		rb.collection = &physics.RigidBody{Handles: handles}
		rb.owner = sim.ID()
		ctx.Logger().Debug("rigid bodies created", "variable", rb.published.Name(), "count", len(handles))
	}

	rb.published.Set(rb.collection.Value())
	return input, nil
}

// Cleanup removes the bodies that are still alive and unpublishes the
// collection.
func (rb *RigidBody) Cleanup() {
	if rb.collection != nil && rb.simulation.IsBound() {
		if sim, err := physics.SimulationFrom(rb.simulation.Get()); err == nil && sim.ID() == rb.owner {
			for _, h := range rb.collection.Handles {
				_ = sim.Remove(h)
			}
		}
	}
	if rb.published.IsBound() {
		rb.published.Set(value.None())
	}
	rb.collection = nil
	rb.owner = 0
	rb.published.Cleanup()
	rb.simulation.Cleanup()
}
