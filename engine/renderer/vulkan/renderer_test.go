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

func newTestRenderer(t *testing.T) (*vulkan.VulkanRenderer, *vktest.Device, *vktest.Window) {
	t.Helper()
	device := vktest.NewDevice()
	window := vktest.NewWindow(800, 600)
	r, err := vulkan.NewVulkanRenderer(device, window)
	require.NoError(t, err)
	t.Cleanup(r.Shutdown)
	return r, device, window
}

// runFrame records an empty render pass. It reports false when the frame was
// skipped for a swapchain recreation.
func runFrame(t *testing.T, r *vulkan.VulkanRenderer) bool {
	t.Helper()
	cb, err := r.BeginFrame()
	require.NoError(t, err)
	if cb == nil {
		return false
	}
	require.NoError(t, r.BeginRenderPass(cb))
	require.NoError(t, r.EndRenderPass(cb))
	require.NoError(t, r.EndFrame())
	return true
}

func TestFenceSafetyAcrossFrames(t *testing.T) {
	r, device, _ := newTestRenderer(t)

	for i := 0; i < 12; i++ {
		require.Equal(t, i%vulkan.MaxFramesInFlight, r.FrameIndex())
		require.True(t, runFrame(t, r))
		assert.LessOrEqual(t, device.PendingFences(), vulkan.MaxFramesInFlight)
	}
	assert.Empty(t, device.Violations)
	assert.Equal(t, uint64(12), r.FrameCount())
	assert.Equal(t, 12, device.Submits)
	assert.Equal(t, 12, device.Presents)
}

func TestFramesAlternateSlots(t *testing.T) {
	r, _, _ := newTestRenderer(t)

	var seen []int
	for i := 0; i < 4; i++ {
		cb, err := r.BeginFrame()
		require.NoError(t, err)
		require.NotNil(t, cb)
		seen = append(seen, r.FrameIndex())
		current, err := r.CurrentCommandBuffer()
		require.NoError(t, err)
		assert.Same(t, cb, current)
		require.NoError(t, r.EndFrame())
	}
	assert.Equal(t, []int{0, 1, 0, 1}, seen)
}

func TestRecreateSwapchainIsIdempotent(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	require.True(t, runFrame(t, r))

	first := r.Swapchain()
	firstHandle := first.Handle
	extent, images, format := first.Extent, first.ImageCount(), first.ImageFormat

	for i := 0; i < 2; i++ {
		require.NoError(t, r.RecreateSwapchain())
		sc := r.Swapchain()
		assert.Equal(t, extent, sc.Extent)
		assert.Equal(t, images, sc.ImageCount())
		assert.Equal(t, format, sc.ImageFormat)
		assert.NotEqual(t, first.Generation, sc.Generation)
	}

	assert.Equal(t, firstHandle, device.SwapchainInfos[1].OldSwapchain)
	assert.Equal(t, 1, device.Live("swapchain"))
	assert.Equal(t, images, device.Live("framebuffer"))
	assert.Equal(t, images, device.Live("image"))
	assert.Equal(t, 1, device.Live("render pass"))
	assert.Equal(t, vulkan.MaxFramesInFlight, device.Live("fence"))
	assert.Equal(t, 2*vulkan.MaxFramesInFlight, device.Live("semaphore"))
	assert.Equal(t, vulkan.MaxFramesInFlight, device.Live("command buffer"))
	assert.Equal(t, 1, device.CountCalls("AllocateCommandBuffers"))

	require.True(t, runFrame(t, r))
	assert.Empty(t, device.Violations)
}

func TestRecreateKeepsFrameCursor(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	require.True(t, runFrame(t, r))
	require.Equal(t, 1, r.FrameIndex())

	require.NoError(t, r.RecreateSwapchain())
	assert.Equal(t, 1, r.FrameIndex())
}

func TestRecreateWaitsWhileMinimized(t *testing.T) {
	r, device, window := newTestRenderer(t)
	device.Capabilities.CurrentExtent = vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32}
	created := device.CountCalls("CreateSwapchain")

	window.Width, window.Height = 0, 0
	window.QueuedExtents = [][2]uint32{{0, 0}, {300, 0}, {1024, 768}}

	require.NoError(t, r.RecreateSwapchain())
	assert.Equal(t, 3, window.Waits)
	assert.Equal(t, created+1, device.CountCalls("CreateSwapchain"))
	last := device.SwapchainInfos[len(device.SwapchainInfos)-1]
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, last.ImageExtent)
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, r.Extent())
}

func TestRecreateStopsWhenClosedWhileMinimized(t *testing.T) {
	r, device, window := newTestRenderer(t)
	created := device.CountCalls("CreateSwapchain")

	window.Width, window.Height = 0, 0
	window.CloseAfterWaits = 3

	err := r.RecreateSwapchain()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrWindowClosed)
	assert.False(t, core.IsInvariantViolation(err))
	assert.Equal(t, 3, window.Waits)
	assert.Equal(t, created, device.CountCalls("CreateSwapchain"))
	assert.Equal(t, 1, device.Live("swapchain"))

	// Already closed: no wait at all.
	window.Waits = 0
	err = r.RecreateSwapchain()
	assert.ErrorIs(t, err, core.ErrWindowClosed)
	assert.Zero(t, window.Waits)
}

func TestEndFrameReportsCloseWhileMinimized(t *testing.T) {
	r, device, window := newTestRenderer(t)

	cb, err := r.BeginFrame()
	require.NoError(t, err)
	require.NotNil(t, cb)
	window.Resize(0, 0)
	window.Closed = true

	err = r.EndFrame()
	assert.ErrorIs(t, err, core.ErrWindowClosed)
	assert.False(t, r.IsFrameInProgress())
	assert.NotNil(t, r.Swapchain())
	assert.Empty(t, device.Violations)
}

func TestRecreateFailsWhenFormatChanges(t *testing.T) {
	t.Run("color", func(t *testing.T) {
		r, device, _ := newTestRenderer(t)
		device.Formats = []vk.SurfaceFormat{{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}}

		err := r.RecreateSwapchain()
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrSwapchainFormatChanged)
		assert.False(t, core.IsInvariantViolation(err))
		assert.Equal(t, 1, device.Live("swapchain"))
	})
	t.Run("depth", func(t *testing.T) {
		r, device, _ := newTestRenderer(t)
		device.FormatProps = map[vk.Format]vk.FormatProperties{
			vk.FormatD24UnormS8Uint: {OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)},
		}

		err := r.RecreateSwapchain()
		assert.ErrorIs(t, err, core.ErrSwapchainFormatChanged)
	})
}

func TestOutOfDateAcquireSkipsFrame(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	device.AcquireResults = []vk.Result{vk.ErrorOutOfDate}
	created := device.CountCalls("CreateSwapchain")

	cb, err := r.BeginFrame()
	require.NoError(t, err)
	assert.Nil(t, cb)
	assert.False(t, r.IsFrameInProgress())
	assert.Equal(t, created+1, device.CountCalls("CreateSwapchain"))

	require.True(t, runFrame(t, r))
	assert.Empty(t, device.Violations)
}

func TestStaleSwapchainRecreatedAfterPresent(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(d *vktest.Device, w *vktest.Window)
	}{
		{"suboptimal acquire", func(d *vktest.Device, w *vktest.Window) { d.AcquireResults = []vk.Result{vk.Suboptimal} }},
		{"suboptimal present", func(d *vktest.Device, w *vktest.Window) { d.PresentResults = []vk.Result{vk.Suboptimal} }},
		{"out of date present", func(d *vktest.Device, w *vktest.Window) { d.PresentResults = []vk.Result{vk.ErrorOutOfDate} }},
		{"window resized", func(d *vktest.Device, w *vktest.Window) { w.Resize(1024, 768) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, device, window := newTestRenderer(t)
			tt.prepare(device, window)
			created := device.CountCalls("CreateSwapchain")

			require.True(t, runFrame(t, r))
			assert.Equal(t, created+1, device.CountCalls("CreateSwapchain"))
			assert.False(t, window.WasResized())

			require.True(t, runFrame(t, r))
			assert.Equal(t, created+1, device.CountCalls("CreateSwapchain"))
			assert.Empty(t, device.Violations)
		})
	}
}

func TestAcquireFailureIsReturned(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	device.AcquireResults = []vk.Result{vk.ErrorDeviceLost}

	cb, err := r.BeginFrame()
	require.Error(t, err)
	assert.Nil(t, cb)
	assert.False(t, core.IsInvariantViolation(err))
}

func TestFrameStateViolations(t *testing.T) {
	r, _, _ := newTestRenderer(t)

	err := r.EndFrame()
	assert.True(t, core.IsInvariantViolation(err), "end without begin")
	_, err = r.CurrentCommandBuffer()
	assert.True(t, core.IsInvariantViolation(err), "command buffer outside a frame")

	cb, err := r.BeginFrame()
	require.NoError(t, err)
	_, err = r.BeginFrame()
	assert.True(t, core.IsInvariantViolation(err), "begin while in progress")
	err = r.RecreateSwapchain()
	assert.True(t, core.IsInvariantViolation(err), "recreate while in progress")

	foreign := &vulkan.VulkanCommandBuffer{}
	err = r.BeginRenderPass(foreign)
	assert.True(t, core.IsInvariantViolation(err), "foreign command buffer")

	require.NoError(t, r.BeginRenderPass(cb))
	require.NoError(t, r.EndRenderPass(cb))
	require.NoError(t, r.EndFrame())

	err = r.EndRenderPass(cb)
	assert.True(t, core.IsInvariantViolation(err), "render pass outside a frame")
}

func TestShutdownReleasesEverything(t *testing.T) {
	device := vktest.NewDevice()
	r, err := vulkan.NewVulkanRenderer(device, vktest.NewWindow(800, 600))
	require.NoError(t, err)
	require.True(t, runFrame(t, r))

	r.Shutdown()
	for _, kind := range []string{"swapchain", "image", "image view", "framebuffer", "render pass", "fence", "semaphore", "command buffer"} {
		assert.Zero(t, device.Live(kind), kind)
	}
	assert.Empty(t, device.Violations)
}

func TestDeferRunsAfterFrameRetires(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	require.True(t, runFrame(t, r))

	released := 0
	cb, err := r.BeginFrame()
	require.NoError(t, err)
	require.NotNil(t, cb)
	r.Defer(func() { released++ })
	require.NoError(t, r.BeginRenderPass(cb))
	require.NoError(t, r.EndRenderPass(cb))
	require.NoError(t, r.EndFrame())

	// The next slot's fence guards the frame before the one that deferred.
	require.True(t, runFrame(t, r))
	assert.Zero(t, released)
	assert.Equal(t, 1, r.PendingReleases())

	cb, err = r.BeginFrame()
	require.NoError(t, err)
	require.NotNil(t, cb)
	assert.Equal(t, 1, released)
	assert.Zero(t, r.PendingReleases())
	require.NoError(t, r.BeginRenderPass(cb))
	require.NoError(t, r.EndRenderPass(cb))
	require.NoError(t, r.EndFrame())
	assert.Empty(t, device.Violations)
}

func TestDeferFlushedOnIdle(t *testing.T) {
	device := vktest.NewDevice()
	r, err := vulkan.NewVulkanRenderer(device, vktest.NewWindow(800, 600))
	require.NoError(t, err)

	released := 0
	r.Defer(func() { released++ })
	require.NoError(t, r.RecreateSwapchain())
	assert.Equal(t, 1, released)

	r.Defer(func() { released++ })
	r.Shutdown()
	assert.Equal(t, 2, released)

	r.Defer(func() { released++ })
	assert.Equal(t, 3, released, "runs at once after shutdown")
}
