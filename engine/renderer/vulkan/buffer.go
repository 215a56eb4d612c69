package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	pmath "github.com/spaghettifunk/phm/engine/math"
)

// VulkanBuffer is a buffer of InstanceCount equally sized instances, each
// padded to AlignmentSize so any instance can be bound at its own offset.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory

	InstanceSize  vk.DeviceSize
	AlignmentSize vk.DeviceSize
	InstanceCount uint32
	TotalSize     vk.DeviceSize

	Usage            vk.BufferUsageFlags
	MemoryProperties vk.MemoryPropertyFlags

	mapped []byte
	device Device
}

func NewBuffer(device Device, instanceSize vk.DeviceSize, instanceCount uint32, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags, minOffsetAlignment vk.DeviceSize) (*VulkanBuffer, error) {
	if instanceSize == 0 || instanceCount == 0 {
		return nil, errors.AssertionFailedf("buffer of %d instances of %d bytes", instanceCount, instanceSize)
	}
	buffer := &VulkanBuffer{
		InstanceSize:     instanceSize,
		AlignmentSize:    pmath.AlignUp(instanceSize, minOffsetAlignment),
		InstanceCount:    instanceCount,
		Usage:            usage,
		MemoryProperties: properties,
		device:           device,
	}
	buffer.TotalSize = buffer.AlignmentSize * vk.DeviceSize(instanceCount)

	handle, memory, err := device.CreateBuffer(buffer.TotalSize, usage, properties)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create buffer of %d bytes", buffer.TotalSize)
	}
	buffer.Handle = handle
	buffer.Memory = memory
	return buffer, nil
}

// Map maps the whole buffer. The mapping stays valid until Unmap or Destroy.
func (b *VulkanBuffer) Map() error {
	if b.mapped != nil {
		return nil
	}
	ptr, err := b.device.MapMemory(b.Memory, 0, b.TotalSize)
	if err != nil {
		return errors.Wrap(err, "failed to map buffer memory")
	}
	b.mapped = unsafe.Slice((*byte)(ptr), int(b.TotalSize))
	return nil
}

func (b *VulkanBuffer) Unmap() {
	if b.mapped == nil {
		return
	}
	b.device.UnmapMemory(b.Memory)
	b.mapped = nil
}

// Mapped exposes the mapped range, nil when the buffer is not mapped.
func (b *VulkanBuffer) Mapped() []byte {
	return b.mapped
}

// WriteToBuffer copies data into the mapped range at offset.
func (b *VulkanBuffer) WriteToBuffer(data []byte, offset vk.DeviceSize) error {
	if b.mapped == nil {
		return errors.AssertionFailedf("write to an unmapped buffer")
	}
	if offset+vk.DeviceSize(len(data)) > b.TotalSize {
		return errors.AssertionFailedf("write of %d bytes at %d overflows buffer of %d", len(data), offset, b.TotalSize)
	}
	copy(b.mapped[offset:], data)
	return nil
}

// Flush makes host writes visible to the device. Required unless the memory
// is host coherent.
func (b *VulkanBuffer) Flush(offset, size vk.DeviceSize) error {
	offset, size = b.atomRange(offset, size)
	return b.device.FlushMappedMemory(b.Memory, offset, size)
}

func (b *VulkanBuffer) Invalidate(offset, size vk.DeviceSize) error {
	offset, size = b.atomRange(offset, size)
	return b.device.InvalidateMappedMemory(b.Memory, offset, size)
}

// atomRange widens a mapped range to whole non-coherent atoms. A range that
// reaches the end of the buffer becomes vk.WholeSize, since the allocation
// behind it may be larger than TotalSize.
func (b *VulkanBuffer) atomRange(offset, size vk.DeviceSize) (vk.DeviceSize, vk.DeviceSize) {
	whole := vk.DeviceSize(vk.WholeSize)
	atom := vk.DeviceSize(b.device.NonCoherentAtomSize())
	if atom <= 1 {
		return offset, size
	}
	start := offset &^ (atom - 1)
	if size == whole {
		return start, whole
	}
	end := pmath.AlignUp(offset+size, atom)
	if end >= b.TotalSize {
		return start, whole
	}
	return start, end - start
}

func (b *VulkanBuffer) checkIndex(index int) error {
	if index < 0 || index >= int(b.InstanceCount) {
		return errors.AssertionFailedf("instance index %d out of range [0, %d)", index, b.InstanceCount)
	}
	return nil
}

// WriteToIndex writes data at the start of instance index.
func (b *VulkanBuffer) WriteToIndex(data []byte, index int) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}
	if vk.DeviceSize(len(data)) > b.InstanceSize {
		return errors.AssertionFailedf("write of %d bytes exceeds instance size %d", len(data), b.InstanceSize)
	}
	return b.WriteToBuffer(data, vk.DeviceSize(index)*b.AlignmentSize)
}

func (b *VulkanBuffer) FlushIndex(index int) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}
	return b.Flush(vk.DeviceSize(index)*b.AlignmentSize, b.AlignmentSize)
}

// DescriptorInfo describes size bytes at offset for a descriptor write.
func (b *VulkanBuffer) DescriptorInfo(size, offset vk.DeviceSize) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.Handle,
		Offset: offset,
		Range:  size,
	}
}

func (b *VulkanBuffer) DescriptorInfoForIndex(index int) vk.DescriptorBufferInfo {
	return b.DescriptorInfo(b.AlignmentSize, vk.DeviceSize(index)*b.AlignmentSize)
}

func (b *VulkanBuffer) Destroy() {
	b.Unmap()
	if b.Handle != vk.NullBuffer || b.Memory != vk.NullDeviceMemory {
		b.device.DestroyBuffer(b.Handle, b.Memory)
	}
	b.Handle = vk.NullBuffer
	b.Memory = vk.NullDeviceMemory
}

// NewDeviceLocalBuffer uploads data into a device local buffer through a
// host visible staging buffer and a one shot copy.
func NewDeviceLocalBuffer(device Device, data []byte, instanceSize vk.DeviceSize, instanceCount uint32, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	staging, err := NewBuffer(device, instanceSize, instanceCount,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit), 1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create staging buffer")
	}
	defer staging.Destroy()

	if err := staging.Map(); err != nil {
		return nil, err
	}
	if err := staging.WriteToBuffer(data, 0); err != nil {
		return nil, err
	}
	staging.Unmap()

	buffer, err := NewBuffer(device, instanceSize, instanceCount,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), 1)
	if err != nil {
		return nil, err
	}
	if err := RunSingleUse(device, func(cb vk.CommandBuffer) {
		device.CmdCopyBuffer(cb, staging.Handle, buffer.Handle, buffer.TotalSize)
	}); err != nil {
		buffer.Destroy()
		return nil, errors.Wrap(err, "failed to copy staging buffer")
	}
	return buffer, nil
}
