package vulkan_test

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan/vktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hostVisible = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)

func TestBufferAlignment(t *testing.T) {
	tests := []struct {
		size, alignment, want vk.DeviceSize
	}{
		{100, 64, 128},
		{128, 64, 128},
		{1, 256, 256},
		{33, 1, 33},
	}
	for _, tt := range tests {
		device := vktest.NewDevice()
		b, err := vulkan.NewBuffer(device, tt.size, 4, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostVisible, tt.alignment)
		require.NoError(t, err)
		assert.Equal(t, tt.want, b.AlignmentSize, "size %d alignment %d", tt.size, tt.alignment)
		assert.Equal(t, 4*tt.want, b.TotalSize)
		b.Destroy()
	}
}

func TestBufferWriteToIndex(t *testing.T) {
	device := vktest.NewDevice()
	b, err := vulkan.NewBuffer(device, 4, 3, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostVisible, 16)
	require.NoError(t, err)
	defer b.Destroy()

	err = b.WriteToIndex([]byte{1}, 0)
	assert.True(t, core.IsInvariantViolation(err), "unmapped")

	require.NoError(t, b.Map())
	require.NoError(t, b.WriteToIndex([]byte{9, 8, 7, 6}, 2))
	assert.Equal(t, []byte{9, 8, 7, 6}, b.Mapped()[32:36])

	// The last instance shares the buffer's only atom.
	require.NoError(t, b.FlushIndex(2))
	require.Len(t, device.Flushes, 1)
	assert.Zero(t, device.Flushes[0].Offset)
	assert.Equal(t, vk.DeviceSize(vk.WholeSize), device.Flushes[0].Size)

	assert.True(t, core.IsInvariantViolation(b.WriteToIndex([]byte{1}, 3)))
	assert.True(t, core.IsInvariantViolation(b.WriteToIndex(make([]byte, 5), 0)))
	assert.True(t, core.IsInvariantViolation(b.WriteToBuffer(make([]byte, 4), 46)))

	info := b.DescriptorInfoForIndex(1)
	assert.Equal(t, vk.DeviceSize(16), info.Offset)
	assert.Equal(t, vk.DeviceSize(16), info.Range)

	b.Unmap()
	assert.Nil(t, b.Mapped())
}

func TestFlushWidensToAtoms(t *testing.T) {
	tests := []struct {
		name         string
		atom         uint64
		offset, size vk.DeviceSize
		wantOffset   vk.DeviceSize
		wantSize     vk.DeviceSize
	}{
		{"inside one atom", 64, 70, 10, 64, 64},
		{"across atoms", 64, 100, 100, 64, 192},
		{"reaches the end", 64, 448, 32, 448, vk.DeviceSize(vk.WholeSize)},
		{"whole size", 64, 130, vk.DeviceSize(vk.WholeSize), 128, vk.DeviceSize(vk.WholeSize)},
		{"coherent device", 1, 70, 10, 70, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := vktest.NewDevice()
			device.AtomSize = tt.atom
			b, err := vulkan.NewBuffer(device, 480, 1, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostVisible, 1)
			require.NoError(t, err)
			defer b.Destroy()
			require.NoError(t, b.Map())

			require.NoError(t, b.Flush(tt.offset, tt.size))
			require.NoError(t, b.Invalidate(tt.offset, tt.size))
			require.Len(t, device.Flushes, 1)
			assert.Equal(t, tt.wantOffset, device.Flushes[0].Offset)
			assert.Equal(t, tt.wantSize, device.Flushes[0].Size)
			assert.Empty(t, device.Violations)
		})
	}
}

func TestNewBufferRejectsEmpty(t *testing.T) {
	device := vktest.NewDevice()
	_, err := vulkan.NewBuffer(device, 0, 1, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), hostVisible, 1)
	assert.True(t, core.IsInvariantViolation(err))
	_, err = vulkan.NewBuffer(device, 16, 0, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), hostVisible, 1)
	assert.True(t, core.IsInvariantViolation(err))
}

func TestNewDeviceLocalBufferStagesUpload(t *testing.T) {
	device := vktest.NewDevice()
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	b, err := vulkan.NewDeviceLocalBuffer(device, data, 4, 2, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	require.NoError(t, err)

	assert.Equal(t, 1, device.CountCalls("CmdCopyBuffer"))
	assert.Equal(t, 1, device.CountCalls("QueueWaitIdle"))
	// Only the destination survives; the staging buffer and the one shot
	// command buffer are gone.
	assert.Equal(t, 1, device.Live("buffer"))
	assert.Zero(t, device.Live("command buffer"))
	assert.Equal(t, vk.DeviceSize(8), b.TotalSize)

	b.Destroy()
	assert.Zero(t, device.Live("buffer"))
	assert.Empty(t, device.Violations)
}

func TestDescriptorBuilders(t *testing.T) {
	device := vktest.NewDevice()
	stages := vk.ShaderStageFlags(vk.ShaderStageVertexBit)

	builder := vulkan.NewDescriptorSetLayoutBuilder(device).
		AddBinding(0, vk.DescriptorTypeUniformBuffer, stages, 1)
	assert.Panics(t, func() { builder.AddBinding(0, vk.DescriptorTypeUniformBuffer, stages, 1) })
	layout, err := builder.Build()
	require.NoError(t, err)
	defer layout.Destroy()

	pool, err := vulkan.NewDescriptorPoolBuilder(device).
		SetMaxSets(2).
		AddPoolSize(vk.DescriptorTypeUniformBuffer, 2).
		Build()
	require.NoError(t, err)
	defer pool.Destroy()

	_, err = vulkan.NewDescriptorWriter(layout, pool).
		WriteBuffer(3, vk.DescriptorBufferInfo{}).
		Build()
	assert.True(t, core.IsInvariantViolation(err), "unknown binding")

	set, err := vulkan.NewDescriptorWriter(layout, pool).
		WriteBuffer(0, vk.DescriptorBufferInfo{Range: 64}).
		Build()
	require.NoError(t, err)
	require.Len(t, device.DescriptorWrites, 1)
	assert.Equal(t, set, device.DescriptorWrites[0].DstSet)
	assert.Equal(t, vk.DeviceSize(64), device.DescriptorWrites[0].PBufferInfo[0].Range)
}
