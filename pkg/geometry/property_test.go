package geometry

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestVectorInvariants uses property-based testing to verify the vector
// identities the classifiers rely on
func TestVectorInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	component := gen.Float64Range(-1000, 1000)

	// Property 1: normalization of any non-degenerate vector is a unit vector
	properties.Property("normalize yields unit magnitude", prop.ForAll(
		func(x, y, z float64) bool {
			v := Vec3{x, y, z}
			u, ok := v.Normalize()
			if !ok {
				// Degenerate input has no direction; nothing to check
				return v.Magnitude() < 1e-9
			}
			return math.Abs(u.Magnitude()-1.0) < 1e-9
		},
		component, component, component,
	))

	// Property 2: dot is antisymmetric under negating one operand
	properties.Property("dot flips sign with one negated operand", prop.ForAll(
		func(ax, ay, az, bx, by, bz float64) bool {
			a := Vec3{ax, ay, az}
			b := Vec3{bx, by, bz}
			return math.Abs(a.Dot(b)+a.Neg().Dot(b)) < 1e-6
		},
		component, component, component, component, component, component,
	))

	// Property 3: cross Z is antisymmetric under swapping operands
	properties.Property("cross Z flips sign under swap", prop.ForAll(
		func(ax, ay, bx, by float64) bool {
			a := Vec3{ax, ay, 0}
			b := Vec3{bx, by, 0}
			return math.Abs(a.Cross(b).Z+b.Cross(a).Z) < 1e-6
		},
		component, component, component, component,
	))

	properties.TestingRun(t)
}
