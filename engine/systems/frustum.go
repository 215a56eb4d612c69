package systems

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/math"
	"github.com/spaghettifunk/phm/engine/renderer/metadata"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
	"github.com/spaghettifunk/phm/engine/scene"
)

/**
 * @brief Draws wireframe meshes, camera frustums in particular, as alpha
 * blended lines over the shaded scene.
 */
type FrustumRenderSystem struct {
	*drawPipeline
}

func NewFrustumRenderSystem(device vulkan.Device, shaders ShaderSource, renderPass vk.RenderPass, globalSetLayout vk.DescriptorSetLayout) (*FrustumRenderSystem, error) {
	p, err := newDrawPipeline(device, shaders, renderPass, globalSetLayout, pipelineDesc{
		shader:   "frustum_shader",
		pushSize: metadata.SimplePushConstantDataSize,
		configure: func(cfg *vulkan.PipelineConfig) {
			cfg.BindingDescriptions = metadata.VertexBindingDescriptions()
			cfg.AttributeDescriptions = metadata.VertexAttributeDescriptions()
			cfg.InputAssembly.Topology = vk.PrimitiveTopologyLineList
			// Translucent lines must not hide what is behind them.
			cfg.DepthStencil.DepthWriteEnable = vk.False
			vulkan.EnableAlphaBlending(cfg)
		},
	})
	if err != nil {
		return nil, err
	}
	return &FrustumRenderSystem{drawPipeline: p}, nil
}

func (s *FrustumRenderSystem) Render(frame *metadata.FrameInfo, world *scene.World) {
	bound := false
	world.EachWireframe(func(_ scene.Entity, transform *math.Transform, mesh *scene.Mesh) {
		if !bound {
			s.bind(frame.CommandBuffer, frame.GlobalDescriptorSet)
			bound = true
		}
		pushModel(s.drawPipeline, frame.CommandBuffer, transform)
		mesh.Bind(frame.CommandBuffer)
		mesh.Draw(frame.CommandBuffer)
	})
}

func (s *FrustumRenderSystem) Destroy() {
	s.destroy()
}
