package metadata

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/phm/engine/core"
)

/** @brief The maximum number of point lights the global uniform can carry. */
const MaxLights = 20

/**
 * @brief A point light as laid out in the global uniform buffer.
 */
type PointLight struct {
	/** @brief World position in xyz, radius in w. */
	Position mgl32.Vec4
	/** @brief Color in rgb, intensity in w. */
	Color mgl32.Vec4
}

/**
 * @brief The per frame data every draw system reads through descriptor set 0.
 * Field order and sizes match the std140 block declared by the shaders.
 */
type GlobalUniformObject struct {
	Projection        mgl32.Mat4
	View              mgl32.Mat4
	InverseView       mgl32.Mat4
	AmbientLightColor mgl32.Vec4
	PointLights       [MaxLights]PointLight
	ActiveLights      int32
	_                 [3]int32
}

// GlobalUniformObjectSize is the size in bytes of the std140 block.
const GlobalUniformObjectSize = int(unsafe.Sizeof(GlobalUniformObject{}))

func NewGlobalUniformObject() *GlobalUniformObject {
	return &GlobalUniformObject{
		Projection:        mgl32.Ident4(),
		View:              mgl32.Ident4(),
		InverseView:       mgl32.Ident4(),
		AmbientLightColor: mgl32.Vec4{1, 1, 1, 0.02},
	}
}

// AddPointLight appends a light. More than MaxLights lights is a broken
// scene invariant, not a recoverable condition.
func (u *GlobalUniformObject) AddPointLight(position mgl32.Vec3, radius float32, color mgl32.Vec3, intensity float32) error {
	if u.ActiveLights >= MaxLights {
		return errors.WithAssertionFailure(errors.Wrapf(core.ErrTooManyLights, "cannot add light %d", u.ActiveLights+1))
	}
	u.PointLights[u.ActiveLights] = PointLight{
		Position: position.Vec4(radius),
		Color:    color.Vec4(intensity),
	}
	u.ActiveLights++
	return nil
}

// ClearPointLights drops every light, keeping matrices and ambient color.
func (u *GlobalUniformObject) ClearPointLights() {
	u.PointLights = [MaxLights]PointLight{}
	u.ActiveLights = 0
}

// Bytes views the struct as the bytes uploaded to the GPU. The slice aliases u.
func (u *GlobalUniformObject) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(u)), GlobalUniformObjectSize)
}
