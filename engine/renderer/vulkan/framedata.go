package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/renderer/metadata"
)

// FrameDataBus carries the per-frame uniform payload to shaders. Each frame
// slot has its own persistently mapped buffer and descriptor set, so writing
// slot i never races the GPU reading slot j.
type FrameDataBus struct {
	PayloadSize vk.DeviceSize

	buffers   []*VulkanBuffer
	sets      []vk.DescriptorSet
	setLayout *VulkanDescriptorSetLayout
	pool      *VulkanDescriptorPool
	device    Device
}

func NewFrameDataBus(device Device, payloadSize vk.DeviceSize, slots int) (*FrameDataBus, error) {
	if slots <= 0 {
		return nil, errors.AssertionFailedf("frame data bus needs at least one slot, got %d", slots)
	}
	bus := &FrameDataBus{
		PayloadSize: payloadSize,
		device:      device,
	}
	alignment := vk.DeviceSize(device.MinUniformBufferOffsetAlignment())
	if alignment == 0 {
		alignment = 1
	}

	for i := 0; i < slots; i++ {
		buffer, err := NewBuffer(device, payloadSize, 1,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit),
			alignment)
		if err != nil {
			bus.Destroy()
			return nil, errors.Wrapf(err, "failed to create uniform buffer for slot %d", i)
		}
		bus.buffers = append(bus.buffers, buffer)
		if err := buffer.Map(); err != nil {
			bus.Destroy()
			return nil, err
		}
	}

	layout, err := NewDescriptorSetLayoutBuilder(device).
		AddBinding(0, vk.DescriptorTypeUniformBuffer,
			vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit), 1).
		Build()
	if err != nil {
		bus.Destroy()
		return nil, err
	}
	bus.setLayout = layout

	pool, err := NewDescriptorPoolBuilder(device).
		SetMaxSets(uint32(slots)).
		AddPoolSize(vk.DescriptorTypeUniformBuffer, uint32(slots)).
		Build()
	if err != nil {
		bus.Destroy()
		return nil, err
	}
	bus.pool = pool

	for i, buffer := range bus.buffers {
		set, err := NewDescriptorWriter(layout, pool).
			WriteBuffer(0, buffer.DescriptorInfo(payloadSize, 0)).
			Build()
		if err != nil {
			bus.Destroy()
			return nil, errors.Wrapf(err, "failed to write descriptor set for slot %d", i)
		}
		bus.sets = append(bus.sets, set)
	}
	return bus, nil
}

func (b *FrameDataBus) Slots() int {
	return len(b.buffers)
}

func (b *FrameDataBus) checkSlot(frameIndex int) error {
	if frameIndex < 0 || frameIndex >= len(b.buffers) {
		return errors.AssertionFailedf("frame index %d out of range [0, %d)", frameIndex, len(b.buffers))
	}
	return nil
}

// Write copies payload into the slot's buffer and flushes the whole buffer.
// It must run after the last scene mutation of the frame and before any draw
// is recorded.
func (b *FrameDataBus) Write(frameIndex int, payload []byte) error {
	if err := b.checkSlot(frameIndex); err != nil {
		return err
	}
	if vk.DeviceSize(len(payload)) > b.PayloadSize {
		return errors.AssertionFailedf("payload of %d bytes exceeds uniform size %d", len(payload), b.PayloadSize)
	}
	buffer := b.buffers[frameIndex]
	if err := buffer.WriteToBuffer(payload, 0); err != nil {
		return err
	}
	if err := buffer.Flush(0, buffer.TotalSize); err != nil {
		return errors.Wrapf(err, "failed to flush uniform buffer of slot %d", frameIndex)
	}
	return nil
}

func (b *FrameDataBus) WriteUniform(frameIndex int, ubo *metadata.GlobalUniformObject) error {
	return b.Write(frameIndex, ubo.Bytes())
}

func (b *FrameDataBus) DescriptorSet(frameIndex int) (vk.DescriptorSet, error) {
	if err := b.checkSlot(frameIndex); err != nil {
		return nil, err
	}
	return b.sets[frameIndex], nil
}

func (b *FrameDataBus) SetLayout() *VulkanDescriptorSetLayout {
	return b.setLayout
}

// Destroy releases everything the bus owns. The device must be idle.
func (b *FrameDataBus) Destroy() {
	// Sets go back with the pool.
	b.sets = nil
	if b.pool != nil {
		b.pool.Destroy()
		b.pool = nil
	}
	if b.setLayout != nil {
		b.setLayout.Destroy()
		b.setLayout = nil
	}
	for _, buffer := range b.buffers {
		buffer.Destroy()
	}
	b.buffers = nil
}
