package physics

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/value"
)

// Vec3 is a point or direction in world space.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Scale(k float64) Vec3 { return Vec3{v.X * k, v.Y * k, v.Z * k} }

// Value returns v as a float3 value.
func (v Vec3) Value() value.Value { return value.Float3(v.X, v.Y, v.Z) }

func (v Vec3) String() string { return fmt.Sprintf("(%g %g %g)", v.X, v.Y, v.Z) }

// Vec3From reads a float3 value.
func Vec3From(v value.Value) (Vec3, error) {
	x, y, z, err := v.AsFloat3()
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{x, y, z}, nil
}

// ParseVec3 reads a vector from a slice of three numbers, as decoded from
// configuration files.
func ParseVec3(xs []float64) (Vec3, error) {
	if len(xs) != 3 {
		return Vec3{}, fmt.Errorf("vector needs 3 components, got %d", len(xs))
	}
	return Vec3{xs[0], xs[1], xs[2]}, nil
}
