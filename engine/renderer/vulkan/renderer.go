package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
)

type FrameState int

const (
	FrameStateIdle FrameState = iota
	FrameStateInProgress
)

func (s FrameState) String() string {
	if s == FrameStateInProgress {
		return "in progress"
	}
	return "idle"
}

// VulkanRenderer drives the frame lifecycle: acquire, record, submit and
// present, recreating the swapchain whenever the surface stops matching it.
// It must be used from the thread that owns the window.
type VulkanRenderer struct {
	device Device
	window Window

	swapchain      *VulkanSwapchain
	commandBuffers []*VulkanCommandBuffer

	state        FrameState
	stale        bool
	imageIndex   uint32
	frameCounter uint64

	releases releaseQueue
	closed   bool
}

func NewVulkanRenderer(device Device, window Window) (*VulkanRenderer, error) {
	r := &VulkanRenderer{
		device: device,
		window: window,
	}
	if err := r.RecreateSwapchain(); err != nil {
		return nil, err
	}
	core.LogInfo("Vulkan renderer initialized successfully.")
	return r, nil
}

// RecreateSwapchain replaces the current generation with one matching the
// window. While the window is minimized it blocks on window events; closing
// the window during that wait returns core.ErrWindowClosed and keeps the
// current generation.
func (r *VulkanRenderer) RecreateSwapchain() error {
	if r.state != FrameStateIdle {
		return errors.AssertionFailedf("swapchain recreation requested while a frame is %s", r.state)
	}

	width, height := r.window.FramebufferExtent()
	for width == 0 || height == 0 {
		if r.window.ShouldClose() {
			return errors.Wrap(core.ErrWindowClosed, "while waiting for a minimized window")
		}
		r.window.WaitEvents()
		width, height = r.window.FramebufferExtent()
	}

	if err := r.device.WaitIdle(); err != nil {
		return errors.Wrap(err, "failed to wait for device idle before swapchain recreation")
	}
	r.releases.flush()

	old := r.swapchain
	next, err := NewSwapchain(r.device, vk.Extent2D{Width: width, Height: height}, old)
	if err != nil {
		return errors.Wrap(err, "failed to recreate swapchain")
	}
	if old != nil {
		if !old.CompareFormats(next) {
			next.Destroy()
			return errors.Wrapf(core.ErrSwapchainFormatChanged,
				"color %d -> %d, depth %d -> %d",
				old.ImageFormat.Format, next.ImageFormat.Format, old.DepthFormat, next.DepthFormat)
		}
		old.Destroy()
	}
	r.swapchain = next
	r.stale = false

	if len(r.commandBuffers) != next.FrameSlots() {
		if len(r.commandBuffers) > 0 {
			FreeCommandBuffers(r.device, r.commandBuffers)
		}
		buffers, err := AllocateCommandBuffers(r.device, next.FrameSlots())
		if err != nil {
			return err
		}
		r.commandBuffers = buffers
	}
	return nil
}

// BeginFrame acquires the next image and starts recording the current slot's
// command buffer. A nil buffer with a nil error means the swapchain was out
// of date and has been recreated; the caller skips this iteration.
func (r *VulkanRenderer) BeginFrame() (*VulkanCommandBuffer, error) {
	if r.state == FrameStateInProgress {
		return nil, errors.AssertionFailedf("cannot begin a frame while one is already in progress")
	}

	imageIndex, status, err := r.swapchain.AcquireNextImage()
	if err != nil {
		return nil, err
	}
	// The slot fence just waited guarded frame frameCounter-slots, and a fence
	// covers every earlier submission on the queue.
	if slots := uint64(r.swapchain.FrameSlots()); r.frameCounter >= slots {
		r.releases.collect(r.frameCounter - slots)
	}
	switch status {
	case PresentOutOfDate:
		core.LogDebug("Swapchain out of date on acquire, recreating")
		if err := r.RecreateSwapchain(); err != nil {
			return nil, err
		}
		return nil, nil
	case PresentSuboptimal:
		r.stale = true
	}
	r.imageIndex = imageIndex

	cb := r.commandBuffers[r.FrameIndex()]
	cb.Reset()
	if err := cb.Begin(r.device, false, false, false); err != nil {
		return nil, err
	}
	r.state = FrameStateInProgress
	return cb, nil
}

func (r *VulkanRenderer) checkRecording(cb *VulkanCommandBuffer, op string) error {
	if r.state != FrameStateInProgress {
		return errors.AssertionFailedf("cannot %s while no frame is in progress", op)
	}
	if cb != r.commandBuffers[r.FrameIndex()] {
		return errors.AssertionFailedf("cannot %s on a command buffer from a different frame", op)
	}
	return nil
}

// BeginRenderPass begins the swapchain render pass into the acquired image.
func (r *VulkanRenderer) BeginRenderPass(cb *VulkanCommandBuffer) error {
	if err := r.checkRecording(cb, "begin the render pass"); err != nil {
		return err
	}
	fb := r.swapchain.Framebuffers[r.imageIndex]
	r.swapchain.Renderpass.Begin(r.device, cb, fb.Handle, r.swapchain.Extent)
	return nil
}

func (r *VulkanRenderer) EndRenderPass(cb *VulkanCommandBuffer) error {
	if err := r.checkRecording(cb, "end the render pass"); err != nil {
		return err
	}
	r.swapchain.Renderpass.End(r.device, cb)
	return nil
}

// EndFrame finishes recording, submits and presents. Out of date, suboptimal
// and resized surfaces all lead to a recreation before the next frame.
func (r *VulkanRenderer) EndFrame() error {
	if r.state != FrameStateInProgress {
		return errors.AssertionFailedf("cannot end a frame that has not begun")
	}
	cb := r.commandBuffers[r.FrameIndex()]
	if err := cb.End(r.device); err != nil {
		return err
	}

	status, err := r.swapchain.Submit(cb, r.imageIndex)
	if err != nil {
		return err
	}
	r.state = FrameStateIdle
	r.frameCounter++

	resized := r.window.WasResized()
	if status != PresentSuccess || r.stale || resized {
		core.LogDebug("Recreating swapchain after present: status %s, stale %t, resized %t", status, r.stale, resized)
		r.window.ResetResized()
		return r.RecreateSwapchain()
	}
	return nil
}

// Defer runs release once no submitted frame can still read the resource it
// frees: after the fence of the frame being recorded now is waited, or on the
// next device idle wait. After Shutdown it runs at once.
func (r *VulkanRenderer) Defer(release func()) {
	if r.closed {
		release()
		return
	}
	r.releases.push(r.frameCounter, release)
}

// PendingReleases is the number of deferred releases not yet run.
func (r *VulkanRenderer) PendingReleases() int {
	return r.releases.len()
}

// FrameIndex is the frame slot the current (or next) frame records into.
func (r *VulkanRenderer) FrameIndex() int {
	return r.swapchain.CurrentFrame().Index
}

// FrameCount is the number of frames submitted so far.
func (r *VulkanRenderer) FrameCount() uint64 {
	return r.frameCounter
}

func (r *VulkanRenderer) AspectRatio() float32 {
	return r.swapchain.AspectRatio()
}

func (r *VulkanRenderer) Swapchain() *VulkanSwapchain {
	return r.swapchain
}

func (r *VulkanRenderer) RenderPass() *VulkanRenderpass {
	return r.swapchain.Renderpass
}

func (r *VulkanRenderer) Extent() vk.Extent2D {
	return r.swapchain.Extent
}

func (r *VulkanRenderer) IsFrameInProgress() bool {
	return r.state == FrameStateInProgress
}

// CurrentCommandBuffer is only meaningful while a frame is in progress.
func (r *VulkanRenderer) CurrentCommandBuffer() (*VulkanCommandBuffer, error) {
	if r.state != FrameStateInProgress {
		return nil, errors.AssertionFailedf("cannot get command buffer when frame not in progress")
	}
	return r.commandBuffers[r.FrameIndex()], nil
}

// Device returns the device the renderer records against.
func (r *VulkanRenderer) Device() Device {
	return r.device
}

// Shutdown waits for the GPU and destroys the swapchain and command buffers.
// The device itself belongs to the caller.
func (r *VulkanRenderer) Shutdown() {
	if err := r.device.WaitIdle(); err != nil {
		core.LogWarn("device wait idle on shutdown: %v", err)
	}
	r.releases.flush()
	r.closed = true
	if len(r.commandBuffers) > 0 {
		FreeCommandBuffers(r.device, r.commandBuffers)
		r.commandBuffers = nil
	}
	if r.swapchain != nil {
		r.swapchain.Destroy()
		r.swapchain = nil
	}
}
