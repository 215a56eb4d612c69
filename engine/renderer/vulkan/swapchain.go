package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/phm/engine/containers"
	"github.com/spaghettifunk/phm/engine/core"
	pmath "github.com/spaghettifunk/phm/engine/math"
)

// PresentStatus is the outcome of an acquire or a present that the frame
// scheduler has to react to. Every other result is an error.
type PresentStatus int

const (
	PresentSuccess PresentStatus = iota
	PresentSuboptimal
	PresentOutOfDate
)

func (s PresentStatus) String() string {
	switch s {
	case PresentSuccess:
		return "success"
	case PresentSuboptimal:
		return "suboptimal"
	case PresentOutOfDate:
		return "out of date"
	}
	return "unknown"
}

// VulkanSwapchain is one generation of presentable images together with
// everything sized by them: depth attachments, framebuffers, the render pass
// and the frame slots. A generation never changes after NewSwapchain returns;
// a resize builds the next one.
type VulkanSwapchain struct {
	Generation  uuid.UUID
	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	DepthFormat vk.Format
	PresentMode vk.PresentMode
	Extent      vk.Extent2D

	Images           []*VulkanImage
	DepthAttachments []*VulkanImage
	// framebuffers used for on-screen rendering, one per image.
	Framebuffers []*VulkanFramebuffer
	Renderpass   *VulkanRenderpass

	frames *containers.Ring[*FrameSlot]
	// imagesInFlight[i] is the fence of the last submit that rendered into
	// image i, nil when none.
	imagesInFlight []*VulkanFence

	device Device
}

// NewSwapchain builds a generation for windowExtent. When previous is not nil
// its handle is handed to the driver for reuse and its frame cursor carries
// over; previous stays alive and is the caller's to destroy.
func NewSwapchain(device Device, windowExtent vk.Extent2D, previous *VulkanSwapchain) (*VulkanSwapchain, error) {
	capabilities, err := device.SurfaceCapabilities()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query surface capabilities")
	}
	formats, err := device.SurfaceFormats()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query surface formats")
	}
	modes, err := device.SurfacePresentModes()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query present modes")
	}

	sc := &VulkanSwapchain{
		Generation: uuid.New(),
		device:     device,
	}
	if sc.ImageFormat, err = ChooseSurfaceFormat(formats); err != nil {
		return nil, err
	}
	sc.PresentMode = ChoosePresentMode(modes)
	sc.Extent = ChooseSwapExtent(capabilities, windowExtent)
	if sc.DepthFormat, err = ChooseDepthFormat(device); err != nil {
		return nil, err
	}

	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          device.Surface(),
		MinImageCount:    imageCount,
		ImageFormat:      sc.ImageFormat.Format,
		ImageColorSpace:  sc.ImageFormat.ColorSpace,
		ImageExtent:      sc.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      sc.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	graphics, present := device.QueueFamilies()
	if graphics != present {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{graphics, present}
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}
	if previous != nil {
		createInfo.OldSwapchain = previous.Handle
	}

	if sc.Handle, err = device.CreateSwapchain(&createInfo); err != nil {
		return nil, errors.Wrap(err, "failed to create swapchain")
	}
	if err := sc.build(previous); err != nil {
		sc.Destroy()
		return nil, err
	}

	core.LogInfo("Swapchain %s created: %dx%d, %d images, format %d, depth %d.",
		sc.Generation, sc.Extent.Width, sc.Extent.Height, len(sc.Images), sc.ImageFormat.Format, sc.DepthFormat)
	return sc, nil
}

func (sc *VulkanSwapchain) build(previous *VulkanSwapchain) error {
	handles, err := sc.device.SwapchainImages(sc.Handle)
	if err != nil {
		return errors.Wrap(err, "failed to get swapchain images")
	}

	for _, h := range handles {
		img, err := WrapSwapchainImage(sc.device, h, sc.ImageFormat.Format, sc.Extent)
		if err != nil {
			return err
		}
		sc.Images = append(sc.Images, img)
	}

	for range handles {
		depth, err := NewAttachmentImage(sc.device, sc.DepthFormat, sc.Extent,
			vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
			vk.ImageAspectFlags(vk.ImageAspectDepthBit))
		if err != nil {
			return errors.Wrap(err, "failed to create depth attachment")
		}
		sc.DepthAttachments = append(sc.DepthAttachments, depth)
	}

	if sc.Renderpass, err = NewRenderpass(sc.device, sc.ImageFormat.Format, sc.DepthFormat); err != nil {
		return err
	}

	for i := range sc.Images {
		fb, err := NewFramebuffer(sc.device, sc.Renderpass, sc.Extent.Width, sc.Extent.Height,
			[]vk.ImageView{sc.Images[i].View, sc.DepthAttachments[i].View})
		if err != nil {
			return err
		}
		sc.Framebuffers = append(sc.Framebuffers, fb)
	}

	if sc.frames, err = newFrameSlots(sc.device, MaxFramesInFlight); err != nil {
		return errors.Wrap(err, "failed to create frame synchronization objects")
	}
	if previous != nil && previous.frames != nil {
		sc.frames.SetCursor(previous.frames.Cursor())
	}
	sc.imagesInFlight = make([]*VulkanFence, len(sc.Images))
	return nil
}

// ChooseSurfaceFormat prefers 8 bit sRGB BGRA in the sRGB color space and
// otherwise takes the first format the surface reports.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, core.ErrNoSurfaceFormats
	}
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode prefers mailbox. FIFO is always available.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			core.LogInfo("Present mode: Mailbox")
			return m
		}
	}
	core.LogInfo("Present mode: V-Sync")
	return vk.PresentModeFifo
}

// ChooseSwapExtent returns the surface's current extent unless the surface
// leaves it to the swapchain, in which case requested is clamped to the
// supported range.
func ChooseSwapExtent(capabilities vk.SurfaceCapabilities, requested vk.Extent2D) vk.Extent2D {
	if capabilities.CurrentExtent.Width != vk.MaxUint32 {
		return capabilities.CurrentExtent
	}
	lo, hi := capabilities.MinImageExtent, capabilities.MaxImageExtent
	return vk.Extent2D{
		Width:  pmath.Clamp(requested.Width, lo.Width, hi.Width),
		Height: pmath.Clamp(requested.Height, lo.Height, hi.Height),
	}
}

var depthCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// ChooseDepthFormat returns the first candidate usable as an optimally tiled
// depth attachment.
func ChooseDepthFormat(device Device) (vk.Format, error) {
	want := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, format := range depthCandidates {
		props := device.FormatProperties(format)
		if props.OptimalTilingFeatures&want == want {
			return format, nil
		}
	}
	return vk.FormatUndefined, core.ErrUnsupportedDepthFormat
}

func presentStatus(result vk.Result, operation string) (PresentStatus, error) {
	switch result {
	case vk.Success:
		return PresentSuccess, nil
	case vk.Suboptimal:
		return PresentSuboptimal, nil
	case vk.ErrorOutOfDate:
		return PresentOutOfDate, nil
	}
	return PresentSuccess, VulkanError(result, operation)
}

// ImageCount is the number of presentable images.
func (sc *VulkanSwapchain) ImageCount() int {
	return len(sc.Images)
}

// FrameSlots is the number of frames that may be in flight.
func (sc *VulkanSwapchain) FrameSlots() int {
	return sc.frames.Len()
}

// CurrentFrame is the slot the next acquire and submit use.
func (sc *VulkanSwapchain) CurrentFrame() *FrameSlot {
	return sc.frames.Current()
}

func (sc *VulkanSwapchain) AspectRatio() float32 {
	if sc.Extent.Height == 0 {
		return 0
	}
	return float32(sc.Extent.Width) / float32(sc.Extent.Height)
}

// AcquireNextImage waits for the current slot to retire and acquires an
// image, signaling the slot's ImageAvailable semaphore.
func (sc *VulkanSwapchain) AcquireNextImage() (uint32, PresentStatus, error) {
	slot := sc.frames.Current()
	if err := slot.InFlight.Wait(sc.device, vk.MaxUint64); err != nil {
		return 0, PresentSuccess, errors.Wrapf(err, "frame slot %d", slot.Index)
	}
	index, result := sc.device.AcquireNextImage(sc.Handle, vk.MaxUint64, slot.ImageAvailable)
	status, err := presentStatus(result, "vkAcquireNextImageKHR")
	if err != nil {
		return 0, status, errors.Wrap(err, "failed to acquire swapchain image")
	}
	return index, status, nil
}

// Submit submits cb for imageIndex on the current slot and presents it.
// A slot other than the current one may still be rendering into imageIndex;
// its fence is waited before the image is reused.
func (sc *VulkanSwapchain) Submit(cb *VulkanCommandBuffer, imageIndex uint32) (PresentStatus, error) {
	if int(imageIndex) >= len(sc.imagesInFlight) {
		return PresentSuccess, errors.AssertionFailedf("image index %d out of range [0, %d)", imageIndex, len(sc.imagesInFlight))
	}
	slot := sc.frames.Current()

	if owner := sc.imagesInFlight[imageIndex]; owner != nil && owner != slot.InFlight {
		if err := owner.Wait(sc.device, vk.MaxUint64); err != nil {
			return PresentSuccess, errors.Wrapf(err, "image %d", imageIndex)
		}
	}
	sc.imagesInFlight[imageIndex] = slot.InFlight

	if err := slot.InFlight.Reset(sc.device); err != nil {
		return PresentSuccess, err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{slot.ImageAvailable},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageFragmentShaderBit | vk.PipelineStageVertexShaderBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{slot.RenderFinished},
	}
	if err := sc.device.QueueSubmit(&submitInfo, slot.InFlight.Handle); err != nil {
		return PresentSuccess, errors.Wrap(err, "failed to submit draw command buffer")
	}
	cb.UpdateSubmitted()

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{slot.RenderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.Handle},
		PImageIndices:      []uint32{imageIndex},
	}
	result := sc.device.QueuePresent(&presentInfo)

	// The slot is consumed whatever the present outcome.
	sc.frames.Advance()

	status, err := presentStatus(result, "vkQueuePresentKHR")
	if err != nil {
		return status, errors.Wrap(err, "failed to present swapchain image")
	}
	return status, nil
}

// CompareFormats reports whether other renders into the same color and depth
// formats, so pipelines built against one render pass stay valid for the other.
func (sc *VulkanSwapchain) CompareFormats(other *VulkanSwapchain) bool {
	return sc.ImageFormat.Format == other.ImageFormat.Format && sc.DepthFormat == other.DepthFormat
}

// Destroy releases the generation in reverse creation order. The device must
// be idle. Safe on a partially built generation.
func (sc *VulkanSwapchain) Destroy() {
	if sc.frames != nil {
		sc.frames.Each(func(_ int, s *FrameSlot) { s.destroy(sc.device) })
		sc.frames = nil
	}
	sc.imagesInFlight = nil
	for _, fb := range sc.Framebuffers {
		fb.Destroy(sc.device)
	}
	sc.Framebuffers = nil
	if sc.Renderpass != nil {
		sc.Renderpass.Destroy(sc.device)
		sc.Renderpass = nil
	}
	for _, d := range sc.DepthAttachments {
		d.Destroy(sc.device)
	}
	sc.DepthAttachments = nil
	// Only the views, the images belong to the swapchain handle.
	for _, img := range sc.Images {
		img.Destroy(sc.device)
	}
	sc.Images = nil
	if sc.Handle != vk.NullSwapchain {
		sc.device.DestroySwapchain(sc.Handle)
		sc.Handle = vk.NullSwapchain
	}
}
