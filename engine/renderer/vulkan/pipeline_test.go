package vulkan_test

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan/vktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakeSPIRV = []uint32{0x07230203, 0x00010000, 0, 1, 0}

func testPipelineConfig(t *testing.T, device *vktest.Device) vulkan.PipelineConfig {
	t.Helper()
	layout, err := vulkan.NewPipelineLayout(device, nil, 128)
	require.NoError(t, err)
	rp, err := vulkan.NewRenderpass(device, vk.FormatB8g8r8a8Srgb, vk.FormatD32Sfloat)
	require.NoError(t, err)
	t.Cleanup(func() {
		rp.Destroy(device)
		device.DestroyPipelineLayout(layout)
	})

	cfg := vulkan.DefaultPipelineConfig()
	cfg.PipelineLayout = layout
	cfg.RenderPass = rp.Handle
	return cfg
}

func TestNewVulkanPipeline(t *testing.T) {
	device := vktest.NewDevice()
	cfg := testPipelineConfig(t, device)

	p, err := vulkan.NewVulkanPipeline(device, fakeSPIRV, fakeSPIRV, cfg)
	require.NoError(t, err)

	require.Len(t, device.Pipelines, 1)
	got := device.Pipelines[0]
	assert.Equal(t, uint32(2), got.ShaderStages)
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, got.Topology)
	assert.False(t, got.BlendEnable)
	assert.True(t, got.DepthTestEnable)
	assert.Equal(t, []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}, got.DynamicStates)
	assert.Zero(t, device.Live("shader module"), "shader modules only live during creation")

	p.Destroy()
	assert.Zero(t, device.Live("pipeline"))
}

func TestNewVulkanPipelineAlphaBlendedLines(t *testing.T) {
	device := vktest.NewDevice()
	cfg := testPipelineConfig(t, device)
	cfg.InputAssembly.Topology = vk.PrimitiveTopologyLineList
	vulkan.EnableAlphaBlending(&cfg)

	p, err := vulkan.NewVulkanPipeline(device, fakeSPIRV, fakeSPIRV, cfg)
	require.NoError(t, err)
	defer p.Destroy()

	got := device.Pipelines[0]
	assert.Equal(t, vk.PrimitiveTopologyLineList, got.Topology)
	assert.True(t, got.BlendEnable)
}

func TestNewVulkanPipelineErrors(t *testing.T) {
	device := vktest.NewDevice()

	_, err := vulkan.NewVulkanPipeline(device, fakeSPIRV, fakeSPIRV, vulkan.DefaultPipelineConfig())
	assert.True(t, core.IsInvariantViolation(err), "missing layout")

	cfg := testPipelineConfig(t, device)
	_, err = vulkan.NewVulkanPipeline(device, nil, fakeSPIRV, cfg)
	assert.True(t, core.IsInvariantViolation(err), "empty code")

	device.FailShaderModules = true
	_, err = vulkan.NewVulkanPipeline(device, fakeSPIRV, fakeSPIRV, cfg)
	require.Error(t, err)
	assert.Empty(t, device.Pipelines)
	assert.Zero(t, device.Live("shader module"))
}

func TestNewPipelineLayoutPushConstantLimit(t *testing.T) {
	device := vktest.NewDevice()

	layout, err := vulkan.NewPipelineLayout(device, nil, 128)
	require.NoError(t, err)
	ranges := device.Layouts[layout].PushConstantRanges
	require.Len(t, ranges, 1)
	assert.Equal(t, uint32(128), ranges[0].Size)

	layout, err = vulkan.NewPipelineLayout(device, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, device.Layouts[layout].PushConstantRanges)

	_, err = vulkan.NewPipelineLayout(device, nil, 129)
	assert.True(t, core.IsInvariantViolation(err))
}
