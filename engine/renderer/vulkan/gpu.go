package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Device is everything the frame scheduler, the swapchain and the draw
// systems need from the GPU. VulkanDevice implements it on top of a real
// logical device; vktest.Device implements it in host memory.
type Device interface {
	SurfaceQuerier
	ResourceAllocator
	Synchronizer
	CommandRecorder
	Submitter
}

// SurfaceQuerier answers questions about the physical device and the
// surface it presents to.
type SurfaceQuerier interface {
	Surface() vk.Surface
	SurfaceCapabilities() (vk.SurfaceCapabilities, error)
	SurfaceFormats() ([]vk.SurfaceFormat, error)
	SurfacePresentModes() ([]vk.PresentMode, error)
	FormatProperties(format vk.Format) vk.FormatProperties
	// QueueFamilies returns the graphics and present family indices.
	QueueFamilies() (graphics uint32, present uint32)
	MinUniformBufferOffsetAlignment() uint64
	// NonCoherentAtomSize is the granularity of mapped memory flushes.
	NonCoherentAtomSize() uint64
}

type ResourceAllocator interface {
	CreateSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error)
	SwapchainImages(swapchain vk.Swapchain) ([]vk.Image, error)
	DestroySwapchain(swapchain vk.Swapchain)

	CreateImage(info *vk.ImageCreateInfo, properties vk.MemoryPropertyFlags) (vk.Image, vk.DeviceMemory, error)
	DestroyImage(image vk.Image, memory vk.DeviceMemory)
	CreateImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error)
	DestroyImageView(view vk.ImageView)

	CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error)
	DestroyRenderPass(renderPass vk.RenderPass)
	CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error)
	DestroyFramebuffer(framebuffer vk.Framebuffer)

	CreateFence(signaled bool) (vk.Fence, error)
	DestroyFence(fence vk.Fence)
	CreateSemaphore() (vk.Semaphore, error)
	DestroySemaphore(semaphore vk.Semaphore)

	CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error)
	DestroyBuffer(buffer vk.Buffer, memory vk.DeviceMemory)
	MapMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) (unsafe.Pointer, error)
	UnmapMemory(memory vk.DeviceMemory)
	FlushMappedMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) error
	InvalidateMappedMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) error

	CreateShaderModule(code []uint32) (vk.ShaderModule, error)
	DestroyShaderModule(module vk.ShaderModule)

	CreateDescriptorSetLayout(bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout)
	CreateDescriptorPool(maxSets uint32, sizes []vk.DescriptorPoolSize, flags vk.DescriptorPoolCreateFlags) (vk.DescriptorPool, error)
	DestroyDescriptorPool(pool vk.DescriptorPool)
	AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error)
	UpdateDescriptorSets(writes []vk.WriteDescriptorSet)

	CreatePipelineLayout(setLayouts []vk.DescriptorSetLayout, pushConstantRanges []vk.PushConstantRange) (vk.PipelineLayout, error)
	DestroyPipelineLayout(layout vk.PipelineLayout)
	CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error)
	DestroyPipeline(pipeline vk.Pipeline)

	AllocateCommandBuffers(count uint32) ([]vk.CommandBuffer, error)
	FreeCommandBuffers(buffers []vk.CommandBuffer)
}

type Synchronizer interface {
	// WaitForFence blocks until fence is signaled or timeout nanoseconds pass.
	WaitForFence(fence vk.Fence, timeout uint64) vk.Result
	ResetFence(fence vk.Fence) error
	// WaitIdle blocks until every queue of the device is idle.
	WaitIdle() error
}

type CommandRecorder interface {
	BeginCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error
	EndCommandBuffer(buffer vk.CommandBuffer) error

	CmdBeginRenderPass(buffer vk.CommandBuffer, info *vk.RenderPassBeginInfo)
	CmdEndRenderPass(buffer vk.CommandBuffer)
	CmdSetViewport(buffer vk.CommandBuffer, viewport vk.Viewport)
	CmdSetScissor(buffer vk.CommandBuffer, scissor vk.Rect2D)
	CmdBindPipeline(buffer vk.CommandBuffer, pipeline vk.Pipeline)
	CmdBindDescriptorSets(buffer vk.CommandBuffer, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet)
	CmdPushConstants(buffer vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, values unsafe.Pointer)
	CmdBindVertexBuffers(buffer vk.CommandBuffer, buffers []vk.Buffer, offsets []vk.DeviceSize)
	CmdBindIndexBuffer(buffer vk.CommandBuffer, index vk.Buffer)
	CmdDraw(buffer vk.CommandBuffer, vertexCount, instanceCount uint32)
	CmdDrawIndexed(buffer vk.CommandBuffer, indexCount, instanceCount uint32)
	CmdCopyBuffer(buffer vk.CommandBuffer, src, dst vk.Buffer, size vk.DeviceSize)
}

type Submitter interface {
	AcquireNextImage(swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore) (uint32, vk.Result)
	QueueSubmit(info *vk.SubmitInfo, fence vk.Fence) error
	QueuePresent(info *vk.PresentInfo) vk.Result
	// QueueWaitIdle blocks until the graphics queue is idle.
	QueueWaitIdle() error
}

// Window is the presentation surface as seen by the frame scheduler.
type Window interface {
	// FramebufferExtent returns the drawable size in pixels. A zero dimension
	// means the window is minimized.
	FramebufferExtent() (width uint32, height uint32)
	WasResized() bool
	ResetResized()
	// WaitEvents blocks until at least one window event is delivered.
	WaitEvents()
	ShouldClose() bool
}
