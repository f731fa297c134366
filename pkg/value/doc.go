// Package value implements the tagged values exchanged between a host and
// its blocks.
//
// A Value is a discriminated union over none, bool, int, float, numeric
// vectors, strings, bytes, sequences, key-ordered tables, native objects and
// context-variable references. Accessors succeed only when the discriminant
// matches and otherwise fail with a fault.ErrShapeMismatch:
//
//	x, y, z, err := input.AsFloat3()
//	if err != nil {
//	    return value.None(), err
//	}
//
// Native objects carry a TypeTag and are only reinterpreted after the tag
// has been checked:
//
//	sim, err := value.ObjectAs[physics.Simulation](v, physics.SimulationTag)
//
// Type and Types describe accepted shapes so hosts can validate a graph
// before executing it.
package value
