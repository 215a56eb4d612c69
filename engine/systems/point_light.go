package systems

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/renderer/metadata"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
)

// billboardVertices is the two triangle quad each light is drawn as; the
// vertex shader generates the corners.
const billboardVertices = 6

/**
 * @brief Draws one camera facing billboard per active light. The lights are
 * read from the global uniform by instance index, so there is no vertex
 * input and no push constant.
 */
type PointLightSystem struct {
	*drawPipeline
}

func NewPointLightSystem(device vulkan.Device, shaders ShaderSource, renderPass vk.RenderPass, globalSetLayout vk.DescriptorSetLayout) (*PointLightSystem, error) {
	p, err := newDrawPipeline(device, shaders, renderPass, globalSetLayout, pipelineDesc{
		shader: "point_light",
		configure: func(cfg *vulkan.PipelineConfig) {
			cfg.BindingDescriptions = nil
			cfg.AttributeDescriptions = nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &PointLightSystem{drawPipeline: p}, nil
}

func (s *PointLightSystem) Render(frame *metadata.FrameInfo) {
	if frame.ActiveLights == 0 {
		return
	}
	s.bind(frame.CommandBuffer, frame.GlobalDescriptorSet)
	s.device.CmdDraw(frame.CommandBuffer, billboardVertices, frame.ActiveLights)
}

func (s *PointLightSystem) Destroy() {
	s.destroy()
}
