package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
)

/**
 * @brief Every fixed function setting a graphics pipeline is built from.
 * Viewport and scissor are always dynamic so pipelines survive a resize.
 */
type PipelineConfig struct {
	BindingDescriptions   []vk.VertexInputBindingDescription
	AttributeDescriptions []vk.VertexInputAttributeDescription

	InputAssembly        vk.PipelineInputAssemblyStateCreateInfo
	Rasterization        vk.PipelineRasterizationStateCreateInfo
	Multisample          vk.PipelineMultisampleStateCreateInfo
	ColorBlendAttachment vk.PipelineColorBlendAttachmentState
	DepthStencil         vk.PipelineDepthStencilStateCreateInfo
	DynamicStates        []vk.DynamicState

	PipelineLayout vk.PipelineLayout
	RenderPass     vk.RenderPass
	Subpass        uint32
}

var colorWriteAll = vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
	vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit)

// DefaultPipelineConfig returns an opaque, depth tested triangle list
// configuration with no culling. Layout and render pass are left to the
// caller.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		InputAssembly: vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		Rasterization: vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonModeFill,
			LineWidth:               1.0,
			CullMode:                vk.CullModeFlags(vk.CullModeNone),
			FrontFace:               vk.FrontFaceClockwise,
			DepthBiasEnable:         vk.False,
		},
		Multisample: vk.PipelineMultisampleStateCreateInfo{
			SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
			SampleShadingEnable:   vk.False,
			RasterizationSamples:  vk.SampleCount1Bit,
			MinSampleShading:      1.0,
			AlphaToCoverageEnable: vk.False,
			AlphaToOneEnable:      vk.False,
		},
		ColorBlendAttachment: vk.PipelineColorBlendAttachmentState{
			BlendEnable:         vk.False,
			SrcColorBlendFactor: vk.BlendFactorOne,
			DstColorBlendFactor: vk.BlendFactorZero,
			ColorBlendOp:        vk.BlendOpAdd,
			SrcAlphaBlendFactor: vk.BlendFactorOne,
			DstAlphaBlendFactor: vk.BlendFactorZero,
			AlphaBlendOp:        vk.BlendOpAdd,
			ColorWriteMask:      colorWriteAll,
		},
		DepthStencil: vk.PipelineDepthStencilStateCreateInfo{
			SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       vk.True,
			DepthWriteEnable:      vk.True,
			DepthCompareOp:        vk.CompareOpLess,
			DepthBoundsTestEnable: vk.False,
			StencilTestEnable:     vk.False,
			MinDepthBounds:        0.0,
			MaxDepthBounds:        1.0,
		},
		DynamicStates: []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor},
	}
}

// EnableAlphaBlending switches cfg to straight alpha blending.
func EnableAlphaBlending(cfg *PipelineConfig) {
	cfg.ColorBlendAttachment = vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask:      colorWriteAll,
	}
}

/**
 * @brief Holds a Vulkan pipeline. The layout belongs to whoever built the
 * config and outlives the pipeline.
 */
type VulkanPipeline struct {
	Handle vk.Pipeline
	Layout vk.PipelineLayout
	device Device
}

// NewVulkanPipeline builds a pipeline from SPIR-V vertex and fragment code.
// The shader modules only live for the duration of the call.
func NewVulkanPipeline(device Device, vertCode, fragCode []uint32, cfg PipelineConfig) (*VulkanPipeline, error) {
	if cfg.PipelineLayout == vk.NullPipelineLayout {
		return nil, errors.AssertionFailedf("pipeline config has no pipeline layout")
	}
	if cfg.RenderPass == vk.NullRenderPass {
		return nil, errors.AssertionFailedf("pipeline config has no render pass")
	}

	vert, err := NewShaderModule(device, vertCode)
	if err != nil {
		return nil, errors.Wrap(err, "vertex shader")
	}
	defer vert.Destroy()
	frag, err := NewShaderModule(device, fragCode)
	if err != nil {
		return nil, errors.Wrap(err, "fragment shader")
	}
	defer frag.Destroy()

	stages := []vk.PipelineShaderStageCreateInfo{
		vert.StageInfo(vk.ShaderStageVertexBit),
		frag.StageInfo(vk.ShaderStageFragmentBit),
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(cfg.BindingDescriptions)),
		PVertexBindingDescriptions:      cfg.BindingDescriptions,
		VertexAttributeDescriptionCount: uint32(len(cfg.AttributeDescriptions)),
		PVertexAttributeDescriptions:    cfg.AttributeDescriptions,
	}

	// Counts only; the real values are set at record time.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{cfg.ColorBlendAttachment},
	}

	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(cfg.DynamicStates)),
		PDynamicStates:    cfg.DynamicStates,
	}

	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &cfg.InputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &cfg.Rasterization,
		PMultisampleState:   &cfg.Multisample,
		PDepthStencilState:  &cfg.DepthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              cfg.PipelineLayout,
		RenderPass:          cfg.RenderPass,
		Subpass:             cfg.Subpass,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	handle, err := device.CreateGraphicsPipeline(&info)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create graphics pipeline")
	}
	core.LogDebug("Graphics pipeline created!")
	return &VulkanPipeline{Handle: handle, Layout: cfg.PipelineLayout, device: device}, nil
}

func (p *VulkanPipeline) Bind(cb vk.CommandBuffer) {
	p.device.CmdBindPipeline(cb, p.Handle)
}

func (p *VulkanPipeline) Destroy() {
	if p.Handle != vk.NullPipeline {
		p.device.DestroyPipeline(p.Handle)
		p.Handle = vk.NullPipeline
	}
}

// NewPipelineLayout creates a layout over setLayouts with at most one push
// constant range of pushSize bytes visible to vertex and fragment stages.
func NewPipelineLayout(device Device, setLayouts []vk.DescriptorSetLayout, pushSize uint32) (vk.PipelineLayout, error) {
	var ranges []vk.PushConstantRange
	if pushSize > 0 {
		// 128 bytes is the minimum every implementation guarantees.
		if pushSize > 128 {
			return vk.NullPipelineLayout, errors.AssertionFailedf("push constant block of %d bytes exceeds 128", pushSize)
		}
		ranges = append(ranges, vk.PushConstantRange{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			Offset:     0,
			Size:       pushSize,
		})
	}
	layout, err := device.CreatePipelineLayout(setLayouts, ranges)
	if err != nil {
		return vk.NullPipelineLayout, errors.Wrap(err, "failed to create pipeline layout")
	}
	return layout, nil
}
