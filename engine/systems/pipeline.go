package systems

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
)

// ShaderSource resolves a compiled shader by file name, e.g.
// "simple_shader.vert.spv".
type ShaderSource interface {
	Shader(name string) ([]uint32, error)
}

// drawPipeline is the layout and pipeline pair every draw system owns.
type drawPipeline struct {
	pipeline *vulkan.VulkanPipeline
	layout   vk.PipelineLayout
	device   vulkan.Device
}

type pipelineDesc struct {
	// shader is the base name; .vert.spv and .frag.spv are appended.
	shader    string
	pushSize  uint32
	configure func(cfg *vulkan.PipelineConfig)
}

func newDrawPipeline(device vulkan.Device, shaders ShaderSource, renderPass vk.RenderPass, globalSetLayout vk.DescriptorSetLayout, desc pipelineDesc) (*drawPipeline, error) {
	vert, err := shaders.Shader(desc.shader + ".vert.spv")
	if err != nil {
		return nil, err
	}
	frag, err := shaders.Shader(desc.shader + ".frag.spv")
	if err != nil {
		return nil, err
	}

	layout, err := vulkan.NewPipelineLayout(device, []vk.DescriptorSetLayout{globalSetLayout}, desc.pushSize)
	if err != nil {
		return nil, errors.Wrapf(err, "%s pipeline layout", desc.shader)
	}

	cfg := vulkan.DefaultPipelineConfig()
	cfg.PipelineLayout = layout
	cfg.RenderPass = renderPass
	if desc.configure != nil {
		desc.configure(&cfg)
	}
	pipeline, err := vulkan.NewVulkanPipeline(device, vert, frag, cfg)
	if err != nil {
		device.DestroyPipelineLayout(layout)
		return nil, errors.Wrapf(err, "%s pipeline", desc.shader)
	}
	return &drawPipeline{pipeline: pipeline, layout: layout, device: device}, nil
}

// bind binds the pipeline and the frame's global set at set 0.
func (p *drawPipeline) bind(cb vk.CommandBuffer, globalSet vk.DescriptorSet) {
	p.pipeline.Bind(cb)
	p.device.CmdBindDescriptorSets(cb, p.layout, 0, []vk.DescriptorSet{globalSet})
}

func (p *drawPipeline) destroy() {
	if p.pipeline != nil {
		p.pipeline.Destroy()
		p.pipeline = nil
	}
	if p.layout != vk.NullPipelineLayout {
		p.device.DestroyPipelineLayout(p.layout)
		p.layout = vk.NullPipelineLayout
	}
}
