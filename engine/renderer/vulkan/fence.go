package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
)

// VulkanFence tracks whether the host has observed the fence signaled since
// its last reset, so a second wait does not reach the driver.
type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(device Device, createSignaled bool) (*VulkanFence, error) {
	handle, err := device.CreateFence(createSignaled)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fence")
	}
	return &VulkanFence{
		Handle:     handle,
		IsSignaled: createSignaled,
	}, nil
}

func (vf *VulkanFence) Destroy(device Device) {
	if vf.Handle != vk.NullFence {
		device.DestroyFence(vf.Handle)
		vf.Handle = vk.NullFence
	}
	vf.IsSignaled = false
}

// Wait blocks until the fence is signaled or timeoutNs elapses. Anything but
// success is returned as an error.
func (vf *VulkanFence) Wait(device Device, timeoutNs uint64) error {
	if vf.IsSignaled {
		return nil
	}
	result := device.WaitForFence(vf.Handle, timeoutNs)
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
	case vk.ErrorDeviceLost:
		core.LogError("vk_fence_wait - VK_ERROR_DEVICE_LOST.")
	case vk.ErrorOutOfHostMemory:
		core.LogError("vk_fence_wait - VK_ERROR_OUT_OF_HOST_MEMORY.")
	case vk.ErrorOutOfDeviceMemory:
		core.LogError("vk_fence_wait - VK_ERROR_OUT_OF_DEVICE_MEMORY.")
	default:
		core.LogError("vk_fence_wait - An unknown error has occurred.")
	}
	return errors.Newf("fence wait failed with %s", VulkanResultString(result, false))
}

// Reset returns a signaled fence to the unsignaled state. Resetting a fence
// that was never observed signaled is a broken precondition: the GPU may
// still own it.
func (vf *VulkanFence) Reset(device Device) error {
	if !vf.IsSignaled {
		return errors.AssertionFailedf("reset of a fence that has not been waited on")
	}
	if err := device.ResetFence(vf.Handle); err != nil {
		return errors.Wrap(err, "failed to reset fence")
	}
	vf.IsSignaled = false
	return nil
}
