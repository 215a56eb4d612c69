package components

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

/**
 * @brief Represents a camera used for rendering. Projections map depth to
 * [0, 1] and flip Y, matching Vulkan clip space.
 */
type Camera struct {
	projection  mgl32.Mat4
	view        mgl32.Mat4
	inverseView mgl32.Mat4
}

func NewCamera() *Camera {
	return &Camera{
		projection:  mgl32.Ident4(),
		view:        mgl32.Ident4(),
		inverseView: mgl32.Ident4(),
	}
}

func (c *Camera) SetOrthographicProjection(left, right, top, bottom, near, far float32) {
	m := mgl32.Ident4()
	m.Set(0, 0, 2/(right-left))
	m.Set(1, 1, 2/(bottom-top))
	m.Set(2, 2, 1/(far-near))
	m.Set(0, 3, -(right+left)/(right-left))
	m.Set(1, 3, -(bottom+top)/(bottom-top))
	m.Set(2, 3, -near/(far-near))
	c.projection = m
}

// SetPerspectiveProjection panics on a zero aspect ratio, which only happens
// when a minimized window leaks into the projection.
func (c *Camera) SetPerspectiveProjection(fovy, aspect, near, far float32) {
	if aspect == 0 {
		panic("camera: perspective projection with zero aspect ratio")
	}
	tanHalfFovy := math32.Tan(fovy / 2)
	var m mgl32.Mat4
	m.Set(0, 0, 1/(aspect*tanHalfFovy))
	m.Set(1, 1, 1/tanHalfFovy)
	m.Set(2, 2, far/(far-near))
	m.Set(3, 2, 1)
	m.Set(2, 3, -(far*near)/(far-near))
	c.projection = m
}

// SetViewDirection looks from position along direction.
func (c *Camera) SetViewDirection(position, direction, up mgl32.Vec3) {
	w := direction.Normalize()
	u := w.Cross(up).Normalize()
	v := w.Cross(u)
	c.setBasis(position, u, v, w)
}

func (c *Camera) SetViewTarget(position, target, up mgl32.Vec3) {
	c.SetViewDirection(position, target.Sub(position), up)
}

// SetViewYXZ orients the camera with Tait-Bryan angles applied Y, then X,
// then Z.
func (c *Camera) SetViewYXZ(position, rotation mgl32.Vec3) {
	c3, s3 := math32.Cos(rotation.Z()), math32.Sin(rotation.Z())
	c2, s2 := math32.Cos(rotation.X()), math32.Sin(rotation.X())
	c1, s1 := math32.Cos(rotation.Y()), math32.Sin(rotation.Y())
	u := mgl32.Vec3{c1*c3 + s1*s2*s3, c2 * s3, c1*s2*s3 - c3*s1}
	v := mgl32.Vec3{c3*s1*s2 - c1*s3, c2 * c3, c1*c3*s2 + s1*s3}
	w := mgl32.Vec3{c2 * s1, -s2, c1 * c2}
	c.setBasis(position, u, v, w)
}

// setBasis builds the view from an orthonormal camera basis and its inverse
// without a general matrix inversion.
func (c *Camera) setBasis(position, u, v, w mgl32.Vec3) {
	view := mgl32.Ident4()
	inverse := mgl32.Ident4()
	for col, axis := range [3]mgl32.Vec3{u, v, w} {
		for row := 0; row < 3; row++ {
			view.Set(col, row, axis[row])
			inverse.Set(row, col, axis[row])
		}
	}
	view.Set(0, 3, -u.Dot(position))
	view.Set(1, 3, -v.Dot(position))
	view.Set(2, 3, -w.Dot(position))
	inverse.Set(0, 3, position.X())
	inverse.Set(1, 3, position.Y())
	inverse.Set(2, 3, position.Z())
	c.view = view
	c.inverseView = inverse
}

func (c *Camera) Projection() mgl32.Mat4 {
	return c.projection
}

func (c *Camera) View() mgl32.Mat4 {
	return c.view
}

func (c *Camera) InverseView() mgl32.Mat4 {
	return c.inverseView
}

// Position is the camera's world position, read back from the inverse view.
func (c *Camera) Position() mgl32.Vec3 {
	return c.inverseView.Col(3).Vec3()
}
