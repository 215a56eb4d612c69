package engine

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/renderer/components"
	"github.com/spaghettifunk/phm/engine/renderer/metadata"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
	"github.com/spaghettifunk/phm/engine/scene"
	"github.com/spaghettifunk/phm/engine/systems"
)

// frameDriver owns everything that is touched once per frame and runs one
// iteration of the frame loop. It knows nothing about the window system.
type frameDriver struct {
	renderer     *vulkan.VulkanRenderer
	frameData    *vulkan.FrameDataBus
	systems      *systems.SystemManager
	cameraSystem *systems.CameraSystem
	camera       *components.Camera
	world        *scene.World
	ubo          *metadata.GlobalUniformObject

	// reloads carries shader change notifications; nil disables hot reload.
	reloads <-chan string
	update  Update
}

func newFrameDriver(device vulkan.Device, window vulkan.Window, shaders systems.ShaderSource, world *scene.World, cameraSystem *systems.CameraSystem) (*frameDriver, error) {
	renderer, err := vulkan.NewVulkanRenderer(device, window)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create renderer")
	}
	frameData, err := vulkan.NewFrameDataBus(device, vk.DeviceSize(metadata.GlobalUniformObjectSize), vulkan.MaxFramesInFlight)
	if err != nil {
		renderer.Shutdown()
		return nil, errors.Wrap(err, "failed to create frame data")
	}
	sm, err := systems.NewSystemManager(device, shaders, frameData.SetLayout().Handle, renderer.RenderPass().Handle)
	if err != nil {
		frameData.Destroy()
		renderer.Shutdown()
		return nil, err
	}
	world.SetDeferrer(renderer)
	return &frameDriver{
		renderer:     renderer,
		frameData:    frameData,
		systems:      sm,
		cameraSystem: cameraSystem,
		camera:       components.NewCamera(),
		world:        world,
		ubo:          metadata.NewGlobalUniformObject(),
	}, nil
}

// reloadPending drains every queued shader change.
func (d *frameDriver) reloadPending() bool {
	pending := false
	for {
		select {
		case name := <-d.reloads:
			core.LogInfo("Shader %s changed", name)
			pending = true
		default:
			return pending
		}
	}
}

// drawFrame runs one iteration: pipelines are brought up to date between
// frames, the scene is advanced, the uniform of the acquired slot is written
// from the final scene state and every system records into the frame.
func (d *frameDriver) drawFrame(clock *core.FrameClock, input systems.MovementInput) error {
	renderPass := d.renderer.RenderPass().Handle
	if d.reloadPending() {
		if err := d.systems.Rebuild(renderPass); err != nil {
			// A broken shader on disk keeps the previous pipelines running.
			core.LogError("Pipeline rebuild failed: %v", err)
		}
	}
	if err := d.systems.Sync(renderPass); err != nil {
		return err
	}

	dt := clock.Delta()
	d.cameraSystem.Move(input, dt)

	cb, err := d.renderer.BeginFrame()
	if err != nil {
		return err
	}
	if cb == nil {
		return nil
	}
	frameIndex := d.renderer.FrameIndex()

	d.world.Update(clock)
	if d.update != nil {
		if err := d.update(d.world, clock); err != nil {
			return errors.Wrap(err, "game update failed")
		}
	}
	d.cameraSystem.Update(d.camera, d.renderer.AspectRatio())

	d.ubo.Projection = d.camera.Projection()
	d.ubo.View = d.camera.View()
	d.ubo.InverseView = d.camera.InverseView()
	if err := d.world.CollectPointLights(d.ubo); err != nil {
		return err
	}
	if err := d.frameData.WriteUniform(frameIndex, d.ubo); err != nil {
		return err
	}
	globalSet, err := d.frameData.DescriptorSet(frameIndex)
	if err != nil {
		return err
	}

	if err := d.renderer.BeginRenderPass(cb); err != nil {
		return err
	}
	d.systems.Render(&metadata.FrameInfo{
		FrameIndex:          frameIndex,
		DeltaTime:           dt,
		CommandBuffer:       cb.Handle,
		GlobalDescriptorSet: globalSet,
		ActiveLights:        uint32(d.ubo.ActiveLights),
	}, d.world)
	if err := d.renderer.EndRenderPass(cb); err != nil {
		return err
	}
	return d.renderer.EndFrame()
}

// shutdown releases the frame resources in reverse creation order. Meshes
// the world let go of are destroyed with the renderer; later releases are
// immediate.
func (d *frameDriver) shutdown() {
	if err := d.renderer.Device().WaitIdle(); err != nil {
		core.LogWarn("device wait idle on shutdown: %v", err)
	}
	d.systems.Shutdown()
	d.frameData.Destroy()
	d.renderer.Shutdown()
	d.world.SetDeferrer(nil)
}
