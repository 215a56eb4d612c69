package systems

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/renderer/metadata"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
	"github.com/spaghettifunk/phm/engine/scene"
)

// SystemManager owns every draw system. All of them are built against the
// same render pass and global set layout and are rebuilt together.
type SystemManager struct {
	device          vulkan.Device
	shaders         ShaderSource
	globalSetLayout vk.DescriptorSetLayout
	renderPass      vk.RenderPass

	simple   *SimpleRenderSystem
	frustums *FrustumRenderSystem
	lights   *PointLightSystem
}

func NewSystemManager(device vulkan.Device, shaders ShaderSource, globalSetLayout vk.DescriptorSetLayout, renderPass vk.RenderPass) (*SystemManager, error) {
	sm := &SystemManager{
		device:          device,
		shaders:         shaders,
		globalSetLayout: globalSetLayout,
	}
	if err := sm.build(renderPass); err != nil {
		return nil, err
	}
	return sm, nil
}

func (sm *SystemManager) build(renderPass vk.RenderPass) error {
	simple, err := NewSimpleRenderSystem(sm.device, sm.shaders, renderPass, sm.globalSetLayout)
	if err != nil {
		return errors.Wrap(err, "failed to create simple render system")
	}
	frustums, err := NewFrustumRenderSystem(sm.device, sm.shaders, renderPass, sm.globalSetLayout)
	if err != nil {
		simple.Destroy()
		return errors.Wrap(err, "failed to create frustum render system")
	}
	lights, err := NewPointLightSystem(sm.device, sm.shaders, renderPass, sm.globalSetLayout)
	if err != nil {
		simple.Destroy()
		frustums.Destroy()
		return errors.Wrap(err, "failed to create point light system")
	}

	sm.destroySystems()
	sm.simple, sm.frustums, sm.lights = simple, frustums, lights
	sm.renderPass = renderPass
	return nil
}

// Sync rebuilds the systems if renderPass is not the one they were built
// against. It must be called between frames.
func (sm *SystemManager) Sync(renderPass vk.RenderPass) error {
	if renderPass == sm.renderPass {
		return nil
	}
	core.LogDebug("Render pass changed, rebuilding draw systems")
	return sm.Rebuild(renderPass)
}

// Rebuild waits for the device to go idle and recreates every pipeline, e.g.
// after shaders changed on disk. On failure the previous systems stay in use.
func (sm *SystemManager) Rebuild(renderPass vk.RenderPass) error {
	if err := sm.device.WaitIdle(); err != nil {
		return errors.Wrap(err, "failed to wait for device idle before rebuilding pipelines")
	}
	return sm.build(renderPass)
}

// Render records every system into the frame's command buffer: opaque
// meshes first, then the blended wireframes and the light billboards.
func (sm *SystemManager) Render(frame *metadata.FrameInfo, world *scene.World) {
	sm.simple.Render(frame, world)
	sm.frustums.Render(frame, world)
	sm.lights.Render(frame)
}

func (sm *SystemManager) destroySystems() {
	if sm.lights != nil {
		sm.lights.Destroy()
		sm.lights = nil
	}
	if sm.frustums != nil {
		sm.frustums.Destroy()
		sm.frustums = nil
	}
	if sm.simple != nil {
		sm.simple.Destroy()
		sm.simple = nil
	}
}

// Shutdown destroys every system. The device must be idle. Further calls do
// nothing.
func (sm *SystemManager) Shutdown() {
	sm.destroySystems()
}
