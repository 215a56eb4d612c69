package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Transform places an entity in the world. Rotation holds Tait-Bryan angles
// in radians applied in Y, X, Z order.
type Transform struct {
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
	Rotation    mgl32.Vec3

	local   mgl32.Mat4
	isDirty bool
}

func TransformCreate() *Transform {
	return TransformFromPositionRotationScale(mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
}

func TransformFromPosition(position mgl32.Vec3) *Transform {
	return TransformFromPositionRotationScale(position, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
}

func TransformFromPositionRotationScale(position, rotation, scale mgl32.Vec3) *Transform {
	return &Transform{
		Translation: position,
		Rotation:    rotation,
		Scale:       scale,
		isDirty:     true,
	}
}

func (t *Transform) SetPosition(position mgl32.Vec3) {
	t.Translation = position
	t.isDirty = true
}

func (t *Transform) Translate(translation mgl32.Vec3) {
	t.Translation = t.Translation.Add(translation)
	t.isDirty = true
}

func (t *Transform) SetRotation(rotation mgl32.Vec3) {
	t.Rotation = rotation
	t.isDirty = true
}

func (t *Transform) Rotate(delta mgl32.Vec3) {
	t.Rotation = t.Rotation.Add(delta)
	t.isDirty = true
}

func (t *Transform) SetScale(scale mgl32.Vec3) {
	t.Scale = scale
	t.isDirty = true
}

// Mat4 returns translate * Ry * Rx * Rz * scale.
func (t *Transform) Mat4() mgl32.Mat4 {
	if !t.isDirty {
		return t.local
	}
	c1, s1 := math32.Cos(t.Rotation.Y()), math32.Sin(t.Rotation.Y())
	c2, s2 := math32.Cos(t.Rotation.X()), math32.Sin(t.Rotation.X())
	c3, s3 := math32.Cos(t.Rotation.Z()), math32.Sin(t.Rotation.Z())
	sx, sy, sz := t.Scale.X(), t.Scale.Y(), t.Scale.Z()

	t.local = mgl32.Mat4{
		sx * (c1*c3 + s1*s2*s3), sx * (c2 * s3), sx * (c1*s2*s3 - c3*s1), 0,
		sy * (c3*s1*s2 - c1*s3), sy * (c2 * c3), sy * (c1*c3*s2 + s1*s3), 0,
		sz * (c2 * s1), sz * (-s2), sz * (c1 * c2), 0,
		t.Translation.X(), t.Translation.Y(), t.Translation.Z(), 1,
	}
	t.isDirty = false
	return t.local
}

// NormalMatrix returns the inverse transpose of the upper 3x3 of Mat4,
// built directly from the rotation and the reciprocal scale. A zero scale
// component produces a zero column.
func (t *Transform) NormalMatrix() mgl32.Mat3 {
	c1, s1 := math32.Cos(t.Rotation.Y()), math32.Sin(t.Rotation.Y())
	c2, s2 := math32.Cos(t.Rotation.X()), math32.Sin(t.Rotation.X())
	c3, s3 := math32.Cos(t.Rotation.Z()), math32.Sin(t.Rotation.Z())
	ix, iy, iz := reciprocal(t.Scale.X()), reciprocal(t.Scale.Y()), reciprocal(t.Scale.Z())

	return mgl32.Mat3{
		ix * (c1*c3 + s1*s2*s3), ix * (c2 * s3), ix * (c1*s2*s3 - c3*s1),
		iy * (c3*s1*s2 - c1*s3), iy * (c2 * c3), iy * (c1*c3*s2 + s1*s3),
		iz * (c2 * s1), iz * (-s2), iz * (c1 * c2),
	}
}

func reciprocal(v float32) float32 {
	if v == 0 {
		return 0
	}
	return 1 / v
}
