// Package spatialmath implements rigid transforms and the se(3) tangent
// space used throughout the alignment pipeline: composition, inversion,
// point/normal application, and the exponential map that turns a 6-DOF
// Gauss-Newton update into a unit-rotation transform.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Transform is a rigid transform T = (R, t): a unit rotation represented as
// a quaternion (never an accumulated matrix) plus a translation vector.
// Keeping the rotation as a unit quaternion avoids the numerical drift that
// repeated matrix products accumulate across many small ICP updates.
type Transform struct {
	Rotation    mgl64.Quat
	Translation r3.Vector
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

func toVec3(p r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

func fromVec3(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Compose returns t1 ∘ t2: the transform that applies t2 first, then t1
// (matches the convention T ← exp(ξ) · T used by the ICP update rule).
func Compose(t1, t2 Transform) Transform {
	return Transform{
		Rotation:    t1.Rotation.Mul(t2.Rotation).Normalize(),
		Translation: fromVec3(t1.Rotation.Rotate(toVec3(t2.Translation))).Add(t1.Translation),
	}
}

// Inverse returns the transform that undoes t.
func Inverse(t Transform) Transform {
	inv := t.Rotation.Inverse()
	negT := fromVec3(inv.Rotate(toVec3(t.Translation)))
	return Transform{Rotation: inv, Translation: negT.Mul(-1)}
}

// ApplyPoint maps a point from the transform's source frame to its
// destination frame: R·p + t.
func ApplyPoint(t Transform, p r3.Vector) r3.Vector {
	return fromVec3(t.Rotation.Rotate(toVec3(p))).Add(t.Translation)
}

// ApplyNormal rotates a normal (or any free vector) without translating it.
func ApplyNormal(t Transform, n r3.Vector) r3.Vector {
	return fromVec3(t.Rotation.Rotate(toVec3(n)))
}

// ToMatrix4 returns the 4x4 homogeneous matrix form of t, column-major as
// mgl64 conventions require.
func ToMatrix4(t Transform) mgl64.Mat4 {
	m := t.Rotation.Mat4()
	m[12] = t.Translation.X
	m[13] = t.Translation.Y
	m[14] = t.Translation.Z
	return m
}

// FromMatrix4 extracts a rigid transform from a 4x4 homogeneous matrix,
// re-orthonormalizing the rotation block via quaternion conversion.
func FromMatrix4(m mgl64.Mat4) Transform {
	rotOnly := mgl64.Mat4{
		m[0], m[1], m[2], 0,
		m[4], m[5], m[6], 0,
		m[8], m[9], m[10], 0,
		0, 0, 0, 1,
	}
	return Transform{
		Rotation:    mgl64.Mat4ToQuat(rotOnly),
		Translation: r3.Vector{X: m[12], Y: m[13], Z: m[14]},
	}
}

// ExpSE3 builds a rigid transform from a 6-vector se(3) tangent element
// ξ = [t; ω] via the exponential map: translation is applied directly and
// rotation is exp(ω̂), the Rodrigues rotation by angle ‖ω‖ about axis
// ω/‖ω‖.
func ExpSE3(xi [6]float64) Transform {
	omega := mgl64.Vec3{xi[3], xi[4], xi[5]}
	angle := omega.Len()

	var rot mgl64.Quat
	if angle < 1e-12 {
		rot = mgl64.QuatIdent()
	} else {
		axis := omega.Mul(1.0 / angle)
		rot = mgl64.QuatRotate(angle, axis)
	}
	return Transform{
		Rotation:    rot,
		Translation: r3.Vector{X: xi[0], Y: xi[1], Z: xi[2]},
	}
}

// Angle returns the axis-angle rotation magnitude of t's rotation, in
// radians, in [0, π].
func Angle(t Transform) float64 {
	angle := 2 * math.Acos(clamp(t.Rotation.W, -1, 1))
	if angle > math.Pi {
		angle = 2*math.Pi - angle
	}
	return angle
}

// Translation returns t's translation component.
func Translation(t Transform) r3.Vector {
	return t.Translation
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
