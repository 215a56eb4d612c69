package vulkan_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/renderer/metadata"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan/vktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T, device *vktest.Device) *vulkan.FrameDataBus {
	t.Helper()
	bus, err := vulkan.NewFrameDataBus(device, vk.DeviceSize(metadata.GlobalUniformObjectSize), vulkan.MaxFramesInFlight)
	require.NoError(t, err)
	t.Cleanup(bus.Destroy)
	return bus
}

func TestNewFrameDataBusWritesOneSetPerSlot(t *testing.T) {
	device := vktest.NewDevice()
	bus := newTestBus(t, device)

	assert.Equal(t, vulkan.MaxFramesInFlight, bus.Slots())
	assert.Equal(t, vulkan.MaxFramesInFlight, device.Live("buffer"))
	require.Len(t, device.DescriptorWrites, vulkan.MaxFramesInFlight)
	for _, w := range device.DescriptorWrites {
		assert.Equal(t, uint32(0), w.DstBinding)
		assert.Equal(t, vk.DescriptorTypeUniformBuffer, w.DescriptorType)
		require.Len(t, w.PBufferInfo, 1)
		assert.Equal(t, vk.DeviceSize(metadata.GlobalUniformObjectSize), w.PBufferInfo[0].Range)
	}

	first, err := bus.DescriptorSet(0)
	require.NoError(t, err)
	second, err := bus.DescriptorSet(1)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.NotNil(t, bus.SetLayout())
}

func TestWriteFlushesAlignedRegion(t *testing.T) {
	tests := []struct {
		name      string
		alignment uint64
		atom      uint64
		allocated int
	}{
		// 864 rounded up to a multiple of 256.
		{"uniform alignment", 256, 64, 1024},
		// 864 is no multiple of 128; the allocation is rounded to 896.
		{"atom larger than alignment", 16, 128, 896},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := vktest.NewDevice()
			device.UniformAlignment = tt.alignment
			device.AtomSize = tt.atom
			bus := newTestBus(t, device)

			require.NoError(t, bus.Write(0, []byte{1, 2, 3}))
			require.Len(t, device.Flushes, 1)
			flush := device.Flushes[0]
			assert.Zero(t, flush.Offset)
			assert.Equal(t, vk.DeviceSize(vk.WholeSize), flush.Size)
			assert.Len(t, flush.Data, tt.allocated)
			assert.Equal(t, []byte{1, 2, 3}, flush.Data[:3])
			assert.Empty(t, device.Violations)
		})
	}
}

func TestWriteReflectsLatestSceneState(t *testing.T) {
	device := vktest.NewDevice()
	bus := newTestBus(t, device)
	ubo := metadata.NewGlobalUniformObject()

	require.NoError(t, ubo.AddPointLight(mgl32.Vec3{1, 0, 0}, 0.1, mgl32.Vec3{1, 0, 0}, 1))
	require.NoError(t, bus.WriteUniform(0, ubo))

	// The scene moves after the first write; the second write wins.
	ubo.View = mgl32.Translate3D(0, 0, -5)
	require.NoError(t, ubo.AddPointLight(mgl32.Vec3{0, 1, 0}, 0.1, mgl32.Vec3{0, 1, 0}, 1))
	require.NoError(t, bus.WriteUniform(0, ubo))

	require.Len(t, device.Flushes, 2)
	last := device.Flushes[1]
	assert.Equal(t, device.Flushes[0].Memory, last.Memory)
	assert.Equal(t, ubo.Bytes(), last.Data[:metadata.GlobalUniformObjectSize])
	assert.Equal(t, ubo.Bytes(), device.Memory(last.Memory)[:metadata.GlobalUniformObjectSize])

	// Writing slot 1 touches different memory and leaves slot 0 alone.
	ubo.ClearPointLights()
	require.NoError(t, bus.WriteUniform(1, ubo))
	assert.NotEqual(t, last.Memory, device.Flushes[2].Memory)
	assert.Equal(t, last.Data, device.Memory(last.Memory))
}

func TestWriteRejectsBadInput(t *testing.T) {
	device := vktest.NewDevice()
	bus := newTestBus(t, device)

	for _, index := range []int{-1, vulkan.MaxFramesInFlight} {
		err := bus.Write(index, []byte{0})
		assert.True(t, core.IsInvariantViolation(err), "index %d", index)
		_, err = bus.DescriptorSet(index)
		assert.True(t, core.IsInvariantViolation(err), "index %d", index)
	}

	err := bus.Write(0, make([]byte, metadata.GlobalUniformObjectSize+1))
	assert.True(t, core.IsInvariantViolation(err))
	assert.Empty(t, device.Flushes)
}

func TestFrameDataBusDestroy(t *testing.T) {
	device := vktest.NewDevice()
	bus, err := vulkan.NewFrameDataBus(device, 64, 3)
	require.NoError(t, err)

	bus.Destroy()
	assert.Zero(t, device.Live("buffer"))
	assert.Zero(t, device.Live("descriptor pool"))
	assert.Zero(t, device.Live("descriptor set layout"))

	_, err = vulkan.NewFrameDataBus(device, 64, 0)
	assert.True(t, core.IsInvariantViolation(err))
}
