package metadata

import (
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalUniformObjectLayout(t *testing.T) {
	var u GlobalUniformObject
	// std140 offsets declared by the shaders.
	assert.Equal(t, uintptr(0), unsafe.Offsetof(u.Projection))
	assert.Equal(t, uintptr(64), unsafe.Offsetof(u.View))
	assert.Equal(t, uintptr(128), unsafe.Offsetof(u.InverseView))
	assert.Equal(t, uintptr(192), unsafe.Offsetof(u.AmbientLightColor))
	assert.Equal(t, uintptr(208), unsafe.Offsetof(u.PointLights))
	assert.Equal(t, uintptr(848), unsafe.Offsetof(u.ActiveLights))
	assert.Equal(t, 864, GlobalUniformObjectSize)
	assert.Equal(t, uint32(128), SimplePushConstantDataSize)
}

func TestAddPointLightRejectsOverflow(t *testing.T) {
	u := NewGlobalUniformObject()
	for i := 0; i < MaxLights; i++ {
		require.NoError(t, u.AddPointLight(mgl32.Vec3{float32(i), 0, 0}, 0.1, mgl32.Vec3{1, 1, 1}, 0.5))
	}
	assert.Equal(t, int32(MaxLights), u.ActiveLights)

	err := u.AddPointLight(mgl32.Vec3{}, 0.1, mgl32.Vec3{1, 1, 1}, 0.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTooManyLights)
	assert.True(t, core.IsInvariantViolation(err))
	assert.Equal(t, int32(MaxLights), u.ActiveLights, "a rejected light must not be counted")
}

func TestAddPointLightPacksRadiusAndIntensity(t *testing.T) {
	u := NewGlobalUniformObject()
	require.NoError(t, u.AddPointLight(mgl32.Vec3{1, 2, 3}, 0.25, mgl32.Vec3{0.5, 0.6, 0.7}, 2))

	assert.Equal(t, mgl32.Vec4{1, 2, 3, 0.25}, u.PointLights[0].Position)
	assert.Equal(t, mgl32.Vec4{0.5, 0.6, 0.7, 2}, u.PointLights[0].Color)

	u.ClearPointLights()
	assert.Zero(t, u.ActiveLights)
	assert.Equal(t, PointLight{}, u.PointLights[0])
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 0.02}, u.AmbientLightColor)
}

func TestBytesAliasesStruct(t *testing.T) {
	u := NewGlobalUniformObject()
	b := u.Bytes()
	require.Len(t, b, GlobalUniformObjectSize)

	u.ActiveLights = 7
	assert.Equal(t, byte(7), b[848])
}
