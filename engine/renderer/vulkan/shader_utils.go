package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

/**
 * @brief Represents a single compiled shader stage.
 */
type VulkanShaderModule struct {
	Handle vk.ShaderModule
	device Device
}

func NewShaderModule(device Device, code []uint32) (*VulkanShaderModule, error) {
	if len(code) == 0 {
		return nil, errors.AssertionFailedf("shader module from empty SPIR-V")
	}
	handle, err := device.CreateShaderModule(code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create shader module")
	}
	return &VulkanShaderModule{Handle: handle, device: device}, nil
}

// StageInfo describes the module as the given pipeline stage with entry
// point main.
func (m *VulkanShaderModule) StageInfo(stage vk.ShaderStageFlagBits) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: m.Handle,
		PName:  VulkanSafeString("main"),
	}
}

func (m *VulkanShaderModule) Destroy() {
	if m.Handle != vk.NullShaderModule {
		m.device.DestroyShaderModule(m.Handle)
		m.Handle = vk.NullShaderModule
	}
}
