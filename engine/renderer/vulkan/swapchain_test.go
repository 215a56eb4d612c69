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

func TestChooseExtent(t *testing.T) {
	free := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}
	fixed := free
	fixed.CurrentExtent = vk.Extent2D{Width: 1280, Height: 720}

	tests := []struct {
		name      string
		caps      vk.SurfaceCapabilities
		requested vk.Extent2D
		want      vk.Extent2D
	}{
		{"below minimum", free, vk.Extent2D{Width: 10, Height: 10}, vk.Extent2D{Width: 64, Height: 64}},
		{"above maximum", free, vk.Extent2D{Width: 5000, Height: 5000}, vk.Extent2D{Width: 4096, Height: 4096}},
		{"in range", free, vk.Extent2D{Width: 800, Height: 600}, vk.Extent2D{Width: 800, Height: 600}},
		{"mixed", free, vk.Extent2D{Width: 10, Height: 5000}, vk.Extent2D{Width: 64, Height: 4096}},
		{"surface decides", fixed, vk.Extent2D{Width: 10, Height: 10}, vk.Extent2D{Width: 1280, Height: 720}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vulkan.ChooseSwapExtent(tt.caps, tt.requested))
		})
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	got, err := vulkan.ChooseSurfaceFormat([]vk.SurfaceFormat{other, preferred})
	require.NoError(t, err)
	assert.Equal(t, preferred, got)

	got, err = vulkan.ChooseSurfaceFormat([]vk.SurfaceFormat{other})
	require.NoError(t, err)
	assert.Equal(t, other, got)

	_, err = vulkan.ChooseSurfaceFormat(nil)
	assert.ErrorIs(t, err, core.ErrNoSurfaceFormats)
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PresentModeMailbox, vulkan.ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}))
	assert.Equal(t, vk.PresentModeFifo, vulkan.ChoosePresentMode([]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}))
	assert.Equal(t, vk.PresentModeFifo, vulkan.ChoosePresentMode(nil))
}

func TestChooseDepthFormat(t *testing.T) {
	depth := vk.FormatProperties{OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)}
	device := vktest.NewDevice()

	device.FormatProps = map[vk.Format]vk.FormatProperties{vk.FormatD24UnormS8Uint: depth, vk.FormatD32SfloatS8Uint: depth}
	got, err := vulkan.ChooseDepthFormat(device)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatD32SfloatS8Uint, got)

	// Linear tiling support is not enough.
	device.FormatProps = map[vk.Format]vk.FormatProperties{
		vk.FormatD32Sfloat: {LinearTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)},
	}
	_, err = vulkan.ChooseDepthFormat(device)
	assert.ErrorIs(t, err, core.ErrUnsupportedDepthFormat)
}

func TestNewSwapchainImageCount(t *testing.T) {
	tests := []struct {
		name     string
		min, max uint32
		want     int
	}{
		{"one above minimum", 2, 3, 3},
		{"capped by maximum", 3, 3, 3},
		{"unbounded", 2, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := vktest.NewDevice()
			device.Capabilities.MinImageCount = tt.min
			device.Capabilities.MaxImageCount = tt.max

			sc, err := vulkan.NewSwapchain(device, vk.Extent2D{Width: 800, Height: 600}, nil)
			require.NoError(t, err)
			defer sc.Destroy()

			assert.Equal(t, tt.want, sc.ImageCount())
			assert.Len(t, sc.Framebuffers, tt.want)
			assert.Len(t, sc.DepthAttachments, tt.want)
			assert.Equal(t, vulkan.MaxFramesInFlight, sc.FrameSlots())
		})
	}
}

func TestNewSwapchainSharingMode(t *testing.T) {
	device := vktest.NewDevice()
	sc, err := vulkan.NewSwapchain(device, vk.Extent2D{Width: 800, Height: 600}, nil)
	require.NoError(t, err)
	sc.Destroy()
	assert.Equal(t, vk.SharingModeExclusive, device.SwapchainInfos[0].ImageSharingMode)

	device.PresentFamily = 1
	sc, err = vulkan.NewSwapchain(device, vk.Extent2D{Width: 800, Height: 600}, nil)
	require.NoError(t, err)
	sc.Destroy()
	info := device.SwapchainInfos[1]
	assert.Equal(t, vk.SharingModeConcurrent, info.ImageSharingMode)
	assert.Equal(t, []uint32{0, 1}, info.PQueueFamilyIndices)
}

func TestNewSwapchainWithoutDepthFormatFails(t *testing.T) {
	device := vktest.NewDevice()
	device.FormatProps = nil

	_, err := vulkan.NewSwapchain(device, vk.Extent2D{Width: 800, Height: 600}, nil)
	assert.ErrorIs(t, err, core.ErrUnsupportedDepthFormat)
	assert.Zero(t, device.Live("swapchain"))
}

// submitFrame acquires, records an empty buffer and presents on the current
// slot, returning that slot.
func submitFrame(t *testing.T, sc *vulkan.VulkanSwapchain, device *vktest.Device, cbs []*vulkan.VulkanCommandBuffer) *vulkan.FrameSlot {
	t.Helper()
	slot := sc.CurrentFrame()
	index, status, err := sc.AcquireNextImage()
	require.NoError(t, err)
	require.Equal(t, vulkan.PresentSuccess, status)

	cb := cbs[slot.Index]
	require.NoError(t, cb.Begin(device, false, false, false))
	require.NoError(t, cb.End(device))
	status, err = sc.Submit(cb, index)
	require.NoError(t, err)
	require.Equal(t, vulkan.PresentSuccess, status)
	return slot
}

func TestSubmitWaitsOnFenceOwningImage(t *testing.T) {
	device := vktest.NewDevice()
	sc, err := vulkan.NewSwapchain(device, vk.Extent2D{Width: 800, Height: 600}, nil)
	require.NoError(t, err)
	defer sc.Destroy()
	cbs, err := vulkan.AllocateCommandBuffers(device, sc.FrameSlots())
	require.NoError(t, err)

	// The driver hands out image 0 twice in a row, to two different slots.
	device.AcquireIndices = []uint32{0, 0}

	first := submitFrame(t, sc, device, cbs)
	require.True(t, device.FencePending(first.InFlight.Handle))

	second := submitFrame(t, sc, device, cbs)
	require.NotEqual(t, first.Index, second.Index)
	assert.False(t, device.FencePending(first.InFlight.Handle), "image owner must be waited before reuse")
	assert.True(t, device.FencePending(second.InFlight.Handle))
	assert.Empty(t, device.Violations)

	device.CompleteAll()
	vulkan.FreeCommandBuffers(device, cbs)
}

func TestSubmitDoesNotWaitOnUnrelatedImage(t *testing.T) {
	device := vktest.NewDevice()
	sc, err := vulkan.NewSwapchain(device, vk.Extent2D{Width: 800, Height: 600}, nil)
	require.NoError(t, err)
	defer sc.Destroy()
	cbs, err := vulkan.AllocateCommandBuffers(device, sc.FrameSlots())
	require.NoError(t, err)

	device.AcquireIndices = []uint32{0, 1}

	first := submitFrame(t, sc, device, cbs)
	submitFrame(t, sc, device, cbs)
	assert.True(t, device.FencePending(first.InFlight.Handle))
	assert.Empty(t, device.Violations)

	device.CompleteAll()
	vulkan.FreeCommandBuffers(device, cbs)
}

func TestSubmitRejectsBadImageIndex(t *testing.T) {
	device := vktest.NewDevice()
	sc, err := vulkan.NewSwapchain(device, vk.Extent2D{Width: 800, Height: 600}, nil)
	require.NoError(t, err)
	defer sc.Destroy()

	_, err = sc.Submit(&vulkan.VulkanCommandBuffer{}, uint32(sc.ImageCount()))
	assert.True(t, core.IsInvariantViolation(err))
	assert.Zero(t, device.Submits)
}

func TestSubmitAdvancesOnOutOfDatePresent(t *testing.T) {
	device := vktest.NewDevice()
	sc, err := vulkan.NewSwapchain(device, vk.Extent2D{Width: 800, Height: 600}, nil)
	require.NoError(t, err)
	defer sc.Destroy()
	cbs, err := vulkan.AllocateCommandBuffers(device, sc.FrameSlots())
	require.NoError(t, err)

	device.PresentResults = []vk.Result{vk.ErrorOutOfDate}
	before := sc.CurrentFrame().Index
	index, _, err := sc.AcquireNextImage()
	require.NoError(t, err)
	require.NoError(t, cbs[before].Begin(device, false, false, false))
	require.NoError(t, cbs[before].End(device))

	status, err := sc.Submit(cbs[before], index)
	require.NoError(t, err)
	assert.Equal(t, vulkan.PresentOutOfDate, status)
	assert.NotEqual(t, before, sc.CurrentFrame().Index)

	device.CompleteAll()
	vulkan.FreeCommandBuffers(device, cbs)
}
