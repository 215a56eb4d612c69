package systems

import (
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/renderer/metadata"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan/vktest"
	"github.com/spaghettifunk/phm/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryShaders map[string][]uint32

func (m memoryShaders) Shader(name string) ([]uint32, error) {
	code, ok := m[name]
	if !ok {
		return nil, errors.Wrapf(core.ErrShaderNotFound, "%s", name)
	}
	return code, nil
}

func allShaders() memoryShaders {
	code := []uint32{0x07230203, 0x00010000, 0, 1, 0}
	m := memoryShaders{}
	for _, name := range []string{"simple_shader", "point_light", "frustum_shader"} {
		m[name+".vert.spv"] = code
		m[name+".frag.spv"] = code
	}
	return m
}

type fixture struct {
	device *vktest.Device
	layout *vulkan.VulkanDescriptorSetLayout
	pass   *vulkan.VulkanRenderpass
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	device := vktest.NewDevice()
	layout, err := vulkan.NewDescriptorSetLayoutBuilder(device).
		AddBinding(0, vk.DescriptorTypeUniformBuffer, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 1).
		Build()
	require.NoError(t, err)
	pass, err := vulkan.NewRenderpass(device, vk.FormatB8g8r8a8Srgb, vk.FormatD32Sfloat)
	require.NoError(t, err)
	return &fixture{device: device, layout: layout, pass: pass}
}

func (f *fixture) frame(t *testing.T, activeLights uint32) *metadata.FrameInfo {
	t.Helper()
	cbs, err := f.device.AllocateCommandBuffers(1)
	require.NoError(t, err)
	sets, err := f.device.AllocateDescriptorSet(nil, f.layout.Handle)
	require.NoError(t, err)
	return &metadata.FrameInfo{
		FrameIndex:          0,
		CommandBuffer:       cbs[0],
		GlobalDescriptorSet: sets,
		ActiveLights:        activeLights,
	}
}

func TestNewSystemManagerBuildsPipelines(t *testing.T) {
	f := newFixture(t)
	sm, err := NewSystemManager(f.device, allShaders(), f.layout.Handle, f.pass.Handle)
	require.NoError(t, err)
	defer sm.Shutdown()

	require.Len(t, f.device.Pipelines, 3)
	simple, frustum, lights := f.device.Pipelines[0], f.device.Pipelines[1], f.device.Pipelines[2]

	assert.Equal(t, vk.PrimitiveTopologyTriangleList, simple.Topology)
	assert.Equal(t, uint32(4), simple.VertexAttribs)
	assert.False(t, simple.BlendEnable)

	assert.Equal(t, vk.PrimitiveTopologyLineList, frustum.Topology)
	assert.True(t, frustum.BlendEnable)

	assert.Zero(t, lights.VertexBindings)
	assert.Zero(t, lights.VertexAttribs)
	assert.Empty(t, f.device.Layouts[lights.Layout].PushConstantRanges)

	ranges := f.device.Layouts[simple.Layout].PushConstantRanges
	require.Len(t, ranges, 1)
	assert.Equal(t, metadata.SimplePushConstantDataSize, ranges[0].Size)
	assert.Equal(t, []vk.DescriptorSetLayout{f.layout.Handle}, f.device.Layouts[simple.Layout].SetLayouts)
}

func TestShutdownDestroysEverySystem(t *testing.T) {
	f := newFixture(t)
	sm, err := NewSystemManager(f.device, allShaders(), f.layout.Handle, f.pass.Handle)
	require.NoError(t, err)
	require.Equal(t, 3, f.device.Live("pipeline"))

	sm.Shutdown()
	assert.Zero(t, f.device.Live("pipeline"))
	assert.Zero(t, f.device.Live("pipeline layout"))

	sm.Shutdown()
	assert.Empty(t, f.device.Violations)
}

func TestNewSystemManagerMissingShader(t *testing.T) {
	f := newFixture(t)
	shaders := allShaders()
	delete(shaders, "point_light.frag.spv")

	_, err := NewSystemManager(f.device, shaders, f.layout.Handle, f.pass.Handle)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrShaderNotFound)
	assert.Zero(t, f.device.Live("pipeline"))
	assert.Zero(t, f.device.Live("pipeline layout"))
}

func TestRenderRecordsEverySystem(t *testing.T) {
	f := newFixture(t)
	sm, err := NewSystemManager(f.device, allShaders(), f.layout.Handle, f.pass.Handle)
	require.NoError(t, err)
	defer sm.Shutdown()

	cube, err := scene.NewMesh(f.device, "cube", scene.CubeMesh(mgl32.Vec3{}))
	require.NoError(t, err)
	defer cube.Release()
	frustum, err := scene.NewMesh(f.device, "frustum", scene.FrustumMesh(0.8, 1.5, 0.1, 10))
	require.NoError(t, err)
	defer frustum.Release()

	world := scene.NewWorld()
	defer world.Clear()
	first := world.Spawn()
	require.NoError(t, world.SetModel(first, cube))
	tr, err := world.Transform(first)
	require.NoError(t, err)
	tr.SetPosition(mgl32.Vec3{1, 2, 3})
	require.NoError(t, world.SetModel(world.Spawn(), cube))
	wire := world.Spawn()
	require.NoError(t, world.SetModel(wire, frustum))
	require.NoError(t, world.SetWireframe(wire, true))

	f.device.Draws = nil
	frame := f.frame(t, 3)
	sm.Render(frame, world)

	require.Len(t, f.device.Draws, 4)
	assert.Equal(t, vktest.DrawCall{CommandBuffer: frame.CommandBuffer, Indexed: true, Count: 36, Instances: 1}, f.device.Draws[0])
	assert.Equal(t, vktest.DrawCall{CommandBuffer: frame.CommandBuffer, Indexed: true, Count: 24, Instances: 1}, f.device.Draws[2])
	assert.Equal(t, vktest.DrawCall{CommandBuffer: frame.CommandBuffer, Count: 6, Instances: 3}, f.device.Draws[3])

	require.Len(t, f.device.PushConstants, 3)
	var push metadata.SimplePushConstantData
	require.Len(t, f.device.PushConstants[0].Data, int(unsafe.Sizeof(push)))
	push = *(*metadata.SimplePushConstantData)(unsafe.Pointer(&f.device.PushConstants[0].Data[0]))
	assert.Equal(t, mgl32.Translate3D(1, 2, 3), push.ModelMatrix)
	assert.Equal(t, mgl32.Ident4(), push.NormalMatrix)

	assert.Len(t, f.device.BoundSets, 3)
	for _, set := range f.device.BoundSets {
		assert.Equal(t, frame.GlobalDescriptorSet, set)
	}
}

func TestRenderSkipsIdleSystems(t *testing.T) {
	f := newFixture(t)
	sm, err := NewSystemManager(f.device, allShaders(), f.layout.Handle, f.pass.Handle)
	require.NoError(t, err)
	defer sm.Shutdown()

	sm.Render(f.frame(t, 0), scene.NewWorld())
	assert.Empty(t, f.device.Draws)
	// Only the opaque pipeline is bound for an empty world without lights.
	assert.Len(t, f.device.Bound, 1)
}

func TestSyncRebuildsOnRenderPassChange(t *testing.T) {
	f := newFixture(t)
	sm, err := NewSystemManager(f.device, allShaders(), f.layout.Handle, f.pass.Handle)
	require.NoError(t, err)
	defer sm.Shutdown()

	require.NoError(t, sm.Sync(f.pass.Handle))
	assert.Len(t, f.device.Pipelines, 3)
	assert.Zero(t, f.device.WaitIdleCount)

	other, err := vulkan.NewRenderpass(f.device, vk.FormatB8g8r8a8Srgb, vk.FormatD32Sfloat)
	require.NoError(t, err)
	require.NoError(t, sm.Sync(other.Handle))
	assert.Len(t, f.device.Pipelines, 6)
	assert.Equal(t, 1, f.device.WaitIdleCount)
	assert.Equal(t, 3, f.device.Live("pipeline"))
	for _, p := range f.device.Pipelines[3:] {
		assert.Equal(t, other.Handle, p.RenderPass)
	}
}

func TestRebuildFailureKeepsPreviousSystems(t *testing.T) {
	f := newFixture(t)
	shaders := allShaders()
	sm, err := NewSystemManager(f.device, shaders, f.layout.Handle, f.pass.Handle)
	require.NoError(t, err)
	defer sm.Shutdown()

	delete(shaders, "frustum_shader.vert.spv")
	err = sm.Rebuild(f.pass.Handle)
	assert.ErrorIs(t, err, core.ErrShaderNotFound)
	assert.Equal(t, 3, f.device.Live("pipeline"))

	sm.Render(f.frame(t, 1), scene.NewWorld())
	assert.Len(t, f.device.Draws, 1)
}
