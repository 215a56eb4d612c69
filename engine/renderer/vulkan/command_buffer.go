package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

func (s VulkanCommandBufferState) String() string {
	switch s {
	case COMMAND_BUFFER_STATE_READY:
		return "ready"
	case COMMAND_BUFFER_STATE_RECORDING:
		return "recording"
	case COMMAND_BUFFER_STATE_IN_RENDER_PASS:
		return "in render pass"
	case COMMAND_BUFFER_STATE_RECORDING_ENDED:
		return "recording ended"
	case COMMAND_BUFFER_STATE_SUBMITTED:
		return "submitted"
	default:
		return "not allocated"
	}
}

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState
}

// AllocateCommandBuffers allocates count primary buffers from the graphics
// pool.
func AllocateCommandBuffers(device Device, count int) ([]*VulkanCommandBuffer, error) {
	handles, err := device.AllocateCommandBuffers(uint32(count))
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate command buffers")
	}
	buffers := make([]*VulkanCommandBuffer, len(handles))
	for i, h := range handles {
		buffers[i] = &VulkanCommandBuffer{Handle: h, State: COMMAND_BUFFER_STATE_READY}
	}
	return buffers, nil
}

// FreeCommandBuffers returns the buffers to the graphics pool.
func FreeCommandBuffers(device Device, buffers []*VulkanCommandBuffer) {
	handles := make([]vk.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		if b.Handle != nil {
			handles = append(handles, b.Handle)
		}
		b.Handle = nil
		b.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
	device.FreeCommandBuffers(handles)
}

func (v *VulkanCommandBuffer) Begin(device Device, isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	var flags vk.CommandBufferUsageFlags
	if isSingleUse {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}
	if err := device.BeginCommandBuffer(v.Handle, flags); err != nil {
		return errors.Wrap(err, "failed to begin command buffer")
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End(device Device) error {
	if err := device.EndCommandBuffer(v.Handle); err != nil {
		return errors.Wrap(err, "failed to end command buffer")
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (v *VulkanCommandBuffer) Reset() {
	v.State = COMMAND_BUFFER_STATE_READY
}

// RunSingleUse records a one shot command buffer with record, submits it and
// waits for the graphics queue to drain before freeing it.
func RunSingleUse(device Device, record func(cb vk.CommandBuffer)) error {
	buffers, err := AllocateCommandBuffers(device, 1)
	if err != nil {
		return err
	}
	cb := buffers[0]
	defer FreeCommandBuffers(device, buffers)

	if err := cb.Begin(device, true, false, false); err != nil {
		return err
	}
	record(cb.Handle)
	if err := cb.End(device); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}
	if err := device.QueueSubmit(&submitInfo, vk.NullFence); err != nil {
		return errors.Wrap(err, "failed to submit single use command buffer")
	}
	cb.UpdateSubmitted()

	if err := device.QueueWaitIdle(); err != nil {
		return errors.Wrap(err, "queue failed to wait in idle mode")
	}
	return nil
}
