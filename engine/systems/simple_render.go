package systems

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/math"
	"github.com/spaghettifunk/phm/engine/renderer/metadata"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
	"github.com/spaghettifunk/phm/engine/scene"
)

/**
 * @brief Draws every shaded mesh in the world with per entity model and
 * normal matrices passed as push constants.
 */
type SimpleRenderSystem struct {
	*drawPipeline
}

func NewSimpleRenderSystem(device vulkan.Device, shaders ShaderSource, renderPass vk.RenderPass, globalSetLayout vk.DescriptorSetLayout) (*SimpleRenderSystem, error) {
	p, err := newDrawPipeline(device, shaders, renderPass, globalSetLayout, pipelineDesc{
		shader:   "simple_shader",
		pushSize: metadata.SimplePushConstantDataSize,
		configure: func(cfg *vulkan.PipelineConfig) {
			cfg.BindingDescriptions = metadata.VertexBindingDescriptions()
			cfg.AttributeDescriptions = metadata.VertexAttributeDescriptions()
		},
	})
	if err != nil {
		return nil, err
	}
	return &SimpleRenderSystem{drawPipeline: p}, nil
}

func (s *SimpleRenderSystem) Render(frame *metadata.FrameInfo, world *scene.World) {
	s.bind(frame.CommandBuffer, frame.GlobalDescriptorSet)
	world.EachModel(func(_ scene.Entity, transform *math.Transform, mesh *scene.Mesh) {
		pushModel(s.drawPipeline, frame.CommandBuffer, transform)
		mesh.Bind(frame.CommandBuffer)
		mesh.Draw(frame.CommandBuffer)
	})
}

func (s *SimpleRenderSystem) Destroy() {
	s.destroy()
}

func pushModel(p *drawPipeline, cb vk.CommandBuffer, transform *math.Transform) {
	push := metadata.SimplePushConstantData{
		ModelMatrix:  transform.Mat4(),
		NormalMatrix: transform.NormalMatrix().Mat4(),
	}
	p.device.CmdPushConstants(cb, p.layout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		0, metadata.SimplePushConstantDataSize, push.Pointer())
}
