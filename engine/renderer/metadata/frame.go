package metadata

import (
	vk "github.com/goki/vulkan"
)

/**
 * @brief Everything a draw system needs to record one frame.
 */
type FrameInfo struct {
	/** @brief The frame slot being recorded, selects the uniform buffer. */
	FrameIndex int
	/** @brief Seconds since the previous frame. */
	DeltaTime           float32
	CommandBuffer       vk.CommandBuffer
	GlobalDescriptorSet vk.DescriptorSet
	/** @brief Number of valid entries in the uniform's point light array. */
	ActiveLights uint32
}
