// Package vktest provides a host memory implementation of vulkan.Device and
// vulkan.Window. It models fences, swapchain images and mapped memory closely
// enough to catch synchronization mistakes, which it records as violations
// instead of failing.
package vktest

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
)

var _ vulkan.Device = (*Device)(nil)

func handle[T any]() T {
	p := unsafe.Pointer(new(uint64))
	return *(*T)(unsafe.Pointer(&p))
}

type fenceState struct {
	signaled bool
	// pending means submitted and not yet observed complete.
	pending bool
}

type swapchainState struct {
	images   []vk.Image
	next     uint32
	acquired []bool
	// owner[i] is the fence of the last submit that presented image i.
	owner []vk.Fence
	info  vk.SwapchainCreateInfo
}

// Flush is a recorded vkFlushMappedMemoryRanges with a copy of the bytes the
// device would see after it.
type Flush struct {
	Memory vk.DeviceMemory
	Offset vk.DeviceSize
	Size   vk.DeviceSize
	Data   []byte
}

type DrawCall struct {
	CommandBuffer vk.CommandBuffer
	Indexed       bool
	Count         uint32
	Instances     uint32
}

type PushConstant struct {
	CommandBuffer vk.CommandBuffer
	Layout        vk.PipelineLayout
	Stages        vk.ShaderStageFlags
	Data          []byte
}

// Pipeline is the subset of a graphics pipeline description tests look at.
type Pipeline struct {
	Handle          vk.Pipeline
	Layout          vk.PipelineLayout
	RenderPass      vk.RenderPass
	Topology        vk.PrimitiveTopology
	BlendEnable     bool
	VertexBindings  uint32
	VertexAttribs   uint32
	DynamicStates   []vk.DynamicState
	ShaderStages    uint32
	DepthTestEnable bool
}

type PipelineLayout struct {
	SetLayouts         []vk.DescriptorSetLayout
	PushConstantRanges []vk.PushConstantRange
}

// Device is a fake GPU. Every field is public so tests can configure the
// surface and inspect what was recorded.
type Device struct {
	Capabilities      vk.SurfaceCapabilities
	Formats           []vk.SurfaceFormat
	PresentModes      []vk.PresentMode
	FormatProps       map[vk.Format]vk.FormatProperties
	GraphicsFamily    uint32
	PresentFamily     uint32
	UniformAlignment  uint64
	AtomSize          uint64
	SurfaceHandle     vk.Surface
	FailShaderModules bool

	// AcquireResults and PresentResults are consumed one per call; when
	// empty the call succeeds.
	AcquireResults []vk.Result
	PresentResults []vk.Result
	// AcquireIndices overrides the round robin image choice, one per call.
	AcquireIndices []uint32

	Violations []string
	Calls      []string

	Flushes       []Flush
	Draws         []DrawCall
	PushConstants []PushConstant
	Pipelines     []Pipeline
	Layouts       map[vk.PipelineLayout]PipelineLayout
	Bound         []vk.Pipeline
	BoundSets     []vk.DescriptorSet
	Submits       int
	Presents      int
	WaitIdleCount int
	FenceWaits    int

	// SwapchainInfos holds every create info passed to CreateSwapchain.
	SwapchainInfos []vk.SwapchainCreateInfo
	// DescriptorWrites holds every buffer write passed to UpdateDescriptorSets.
	DescriptorWrites []vk.WriteDescriptorSet

	fences     map[vk.Fence]*fenceState
	swapchains map[vk.Swapchain]*swapchainState
	memory     map[vk.DeviceMemory][]byte
	cbFence    map[vk.CommandBuffer]vk.Fence
	cbImage    map[vk.CommandBuffer]uint32
	recording  map[vk.CommandBuffer]bool
	live       map[string]int
	lastImage  map[vk.Swapchain]uint32
	// Buffers bound or copied by each command buffer since it began, and by
	// the submission each fence guards.
	cbBuffers    map[vk.CommandBuffer][]vk.Buffer
	fenceBuffers map[vk.Fence][]vk.Buffer

	lastSubmitFence vk.Fence
}

func NewDevice() *Device {
	d := &Device{
		Capabilities: vk.SurfaceCapabilities{
			MinImageCount:    2,
			MaxImageCount:    3,
			CurrentExtent:    vk.Extent2D{Width: 800, Height: 600},
			MinImageExtent:   vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent:   vk.Extent2D{Width: 4096, Height: 4096},
			CurrentTransform: vk.SurfaceTransformIdentityBit,
		},
		Formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
		FormatProps: map[vk.Format]vk.FormatProperties{
			vk.FormatD32Sfloat: {OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)},
		},
		UniformAlignment: 256,
		AtomSize:         64,
		SurfaceHandle:    handle[vk.Surface](),
		Layouts:          make(map[vk.PipelineLayout]PipelineLayout),
		fences:           make(map[vk.Fence]*fenceState),
		swapchains:       make(map[vk.Swapchain]*swapchainState),
		memory:           make(map[vk.DeviceMemory][]byte),
		cbFence:          make(map[vk.CommandBuffer]vk.Fence),
		cbImage:          make(map[vk.CommandBuffer]uint32),
		recording:        make(map[vk.CommandBuffer]bool),
		live:             make(map[string]int),
		lastImage:        make(map[vk.Swapchain]uint32),
		cbBuffers:        make(map[vk.CommandBuffer][]vk.Buffer),
		fenceBuffers:     make(map[vk.Fence][]vk.Buffer),
	}
	return d
}

func (d *Device) violate(format string, args ...interface{}) {
	d.Violations = append(d.Violations, fmt.Sprintf(format, args...))
}

func (d *Device) call(name string) {
	d.Calls = append(d.Calls, name)
}

func (d *Device) created(kind string) {
	d.live[kind]++
}

func (d *Device) destroyed(kind string) {
	d.live[kind]--
	if d.live[kind] < 0 {
		d.violate("%s destroyed more times than created", kind)
	}
}

// Live returns how many objects of kind exist, e.g. "fence" or "swapchain".
func (d *Device) Live(kind string) int {
	return d.live[kind]
}

// CountCalls returns how many times the named operation was called.
func (d *Device) CountCalls(name string) int {
	n := 0
	for _, c := range d.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// FencePending reports whether fence was submitted and not yet waited on.
func (d *Device) FencePending(fence vk.Fence) bool {
	s, ok := d.fences[fence]
	return ok && s.pending
}

// PendingFences counts submissions the GPU has not been observed to finish.
func (d *Device) PendingFences() int {
	n := 0
	for _, s := range d.fences {
		if s.pending {
			n++
		}
	}
	return n
}

// CompleteAll retires every pending submission as if the GPU caught up.
func (d *Device) CompleteAll() {
	for _, s := range d.fences {
		if s.pending {
			s.pending = false
			s.signaled = true
		}
	}
}

// Memory returns the bytes backing a device memory allocation.
func (d *Device) Memory(memory vk.DeviceMemory) []byte {
	return d.memory[memory]
}

func (d *Device) Surface() vk.Surface {
	return d.SurfaceHandle
}

func (d *Device) SurfaceCapabilities() (vk.SurfaceCapabilities, error) {
	d.call("SurfaceCapabilities")
	return d.Capabilities, nil
}

func (d *Device) SurfaceFormats() ([]vk.SurfaceFormat, error) {
	return append([]vk.SurfaceFormat(nil), d.Formats...), nil
}

func (d *Device) SurfacePresentModes() ([]vk.PresentMode, error) {
	return append([]vk.PresentMode(nil), d.PresentModes...), nil
}

func (d *Device) FormatProperties(format vk.Format) vk.FormatProperties {
	return d.FormatProps[format]
}

func (d *Device) QueueFamilies() (uint32, uint32) {
	return d.GraphicsFamily, d.PresentFamily
}

func (d *Device) MinUniformBufferOffsetAlignment() uint64 {
	return d.UniformAlignment
}

func (d *Device) NonCoherentAtomSize() uint64 {
	return d.AtomSize
}

func (d *Device) CreateSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	d.call("CreateSwapchain")
	d.SwapchainInfos = append(d.SwapchainInfos, *info)
	if info.OldSwapchain != vk.NullSwapchain {
		if _, ok := d.swapchains[info.OldSwapchain]; !ok {
			d.violate("old swapchain passed to create is not alive")
		}
	}
	sc := handle[vk.Swapchain]()
	state := &swapchainState{info: *info}
	for i := uint32(0); i < info.MinImageCount; i++ {
		state.images = append(state.images, handle[vk.Image]())
	}
	state.acquired = make([]bool, len(state.images))
	state.owner = make([]vk.Fence, len(state.images))
	d.swapchains[sc] = state
	d.created("swapchain")
	return sc, nil
}

func (d *Device) SwapchainImages(swapchain vk.Swapchain) ([]vk.Image, error) {
	state, ok := d.swapchains[swapchain]
	if !ok {
		return nil, errors.New("unknown swapchain")
	}
	return append([]vk.Image(nil), state.images...), nil
}

func (d *Device) DestroySwapchain(swapchain vk.Swapchain) {
	d.call("DestroySwapchain")
	if _, ok := d.swapchains[swapchain]; !ok {
		d.violate("destroy of unknown swapchain")
		return
	}
	d.checkIdle("DestroySwapchain")
	delete(d.swapchains, swapchain)
	d.destroyed("swapchain")
}

// checkIdle flags destruction of objects while work is still in flight.
func (d *Device) checkIdle(op string) {
	for _, s := range d.fences {
		if s.pending {
			d.violate("%s while the GPU is still executing", op)
			return
		}
	}
}

// checkUnused flags destruction of a buffer a pending submission still reads.
func (d *Device) checkUnused(op string, buffer vk.Buffer) {
	for fence, buffers := range d.fenceBuffers {
		if !d.FencePending(fence) {
			continue
		}
		for _, b := range buffers {
			if b == buffer {
				d.violate("%s of a buffer a pending submission still reads", op)
				return
			}
		}
	}
}

func (d *Device) CreateImage(info *vk.ImageCreateInfo, properties vk.MemoryPropertyFlags) (vk.Image, vk.DeviceMemory, error) {
	d.call("CreateImage")
	d.created("image")
	mem := handle[vk.DeviceMemory]()
	d.memory[mem] = nil
	return handle[vk.Image](), mem, nil
}

func (d *Device) DestroyImage(image vk.Image, memory vk.DeviceMemory) {
	d.destroyed("image")
	delete(d.memory, memory)
}

func (d *Device) CreateImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	d.created("image view")
	return handle[vk.ImageView](), nil
}

func (d *Device) DestroyImageView(view vk.ImageView) {
	d.destroyed("image view")
}

func (d *Device) CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	d.call("CreateRenderPass")
	d.created("render pass")
	return handle[vk.RenderPass](), nil
}

func (d *Device) DestroyRenderPass(renderPass vk.RenderPass) {
	d.destroyed("render pass")
}

func (d *Device) CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	d.created("framebuffer")
	return handle[vk.Framebuffer](), nil
}

func (d *Device) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	d.destroyed("framebuffer")
}

func (d *Device) CreateFence(signaled bool) (vk.Fence, error) {
	f := handle[vk.Fence]()
	d.fences[f] = &fenceState{signaled: signaled}
	d.created("fence")
	return f, nil
}

func (d *Device) DestroyFence(fence vk.Fence) {
	s, ok := d.fences[fence]
	if !ok {
		d.violate("destroy of unknown fence")
		return
	}
	if s.pending {
		d.violate("fence destroyed while its submission is pending")
	}
	delete(d.fences, fence)
	delete(d.fenceBuffers, fence)
	d.destroyed("fence")
}

func (d *Device) CreateSemaphore() (vk.Semaphore, error) {
	d.created("semaphore")
	return handle[vk.Semaphore](), nil
}

func (d *Device) DestroySemaphore(semaphore vk.Semaphore) {
	d.destroyed("semaphore")
}

func (d *Device) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	d.created("buffer")
	mem := handle[vk.DeviceMemory]()
	// Drivers round allocations up; model it with the atom size.
	allocated := size
	if atom := vk.DeviceSize(d.AtomSize); atom > 1 {
		allocated = (size + atom - 1) &^ (atom - 1)
	}
	d.memory[mem] = make([]byte, allocated)
	return handle[vk.Buffer](), mem, nil
}

func (d *Device) DestroyBuffer(buffer vk.Buffer, memory vk.DeviceMemory) {
	d.call("DestroyBuffer")
	d.checkUnused("DestroyBuffer", buffer)
	d.destroyed("buffer")
	delete(d.memory, memory)
}

func (d *Device) MapMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) (unsafe.Pointer, error) {
	data, ok := d.memory[memory]
	if !ok || len(data) == 0 {
		return nil, errors.New("map of unknown or empty memory")
	}
	if offset+size > vk.DeviceSize(len(data)) {
		return nil, errors.Newf("map of %d bytes at %d exceeds allocation of %d", size, offset, len(data))
	}
	return unsafe.Pointer(&data[offset]), nil
}

func (d *Device) UnmapMemory(memory vk.DeviceMemory) {}

// checkMappedRange flags ranges vkFlushMappedMemoryRanges and
// vkInvalidateMappedMemoryRanges reject on non-coherent memory.
func (d *Device) checkMappedRange(op string, memory vk.DeviceMemory, offset, size vk.DeviceSize) {
	atom := vk.DeviceSize(d.AtomSize)
	if atom <= 1 {
		return
	}
	if offset%atom != 0 {
		d.violate("%s offset %d is not a multiple of the atom size %d", op, offset, atom)
	}
	if size != vk.DeviceSize(vk.WholeSize) && size%atom != 0 && offset+size != vk.DeviceSize(len(d.memory[memory])) {
		d.violate("%s size %d is neither a multiple of the atom size %d nor reaches the end of the allocation", op, size, atom)
	}
}

func (d *Device) FlushMappedMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) error {
	d.call("FlushMappedMemory")
	d.checkMappedRange("FlushMappedMemory", memory, offset, size)
	data := d.memory[memory]
	end := offset + size
	if size == vk.DeviceSize(vk.WholeSize) || end > vk.DeviceSize(len(data)) {
		end = vk.DeviceSize(len(data))
	}
	d.Flushes = append(d.Flushes, Flush{
		Memory: memory,
		Offset: offset,
		Size:   size,
		Data:   append([]byte(nil), data[offset:end]...),
	})
	return nil
}

func (d *Device) InvalidateMappedMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) error {
	d.checkMappedRange("InvalidateMappedMemory", memory, offset, size)
	return nil
}

func (d *Device) CreateShaderModule(code []uint32) (vk.ShaderModule, error) {
	if d.FailShaderModules {
		return vk.NullShaderModule, errors.New("vkCreateShaderModule failed with VK_ERROR_INVALID_SHADER_NV")
	}
	if len(code) == 0 {
		d.violate("empty shader module")
	}
	d.created("shader module")
	return handle[vk.ShaderModule](), nil
}

func (d *Device) DestroyShaderModule(module vk.ShaderModule) {
	d.destroyed("shader module")
}

func (d *Device) CreateDescriptorSetLayout(bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	d.created("descriptor set layout")
	return handle[vk.DescriptorSetLayout](), nil
}

func (d *Device) DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout) {
	d.destroyed("descriptor set layout")
}

func (d *Device) CreateDescriptorPool(maxSets uint32, sizes []vk.DescriptorPoolSize, flags vk.DescriptorPoolCreateFlags) (vk.DescriptorPool, error) {
	d.created("descriptor pool")
	return handle[vk.DescriptorPool](), nil
}

func (d *Device) DestroyDescriptorPool(pool vk.DescriptorPool) {
	d.destroyed("descriptor pool")
}

func (d *Device) AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	return handle[vk.DescriptorSet](), nil
}

func (d *Device) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	d.DescriptorWrites = append(d.DescriptorWrites, writes...)
}

func (d *Device) CreatePipelineLayout(setLayouts []vk.DescriptorSetLayout, pushConstantRanges []vk.PushConstantRange) (vk.PipelineLayout, error) {
	d.created("pipeline layout")
	layout := handle[vk.PipelineLayout]()
	d.Layouts[layout] = PipelineLayout{
		SetLayouts:         append([]vk.DescriptorSetLayout(nil), setLayouts...),
		PushConstantRanges: append([]vk.PushConstantRange(nil), pushConstantRanges...),
	}
	return layout, nil
}

func (d *Device) DestroyPipelineLayout(layout vk.PipelineLayout) {
	d.destroyed("pipeline layout")
	delete(d.Layouts, layout)
}

func (d *Device) CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	d.call("CreateGraphicsPipeline")
	d.created("pipeline")
	p := Pipeline{
		Handle:       handle[vk.Pipeline](),
		Layout:       info.Layout,
		RenderPass:   info.RenderPass,
		ShaderStages: info.StageCount,
	}
	if info.PInputAssemblyState != nil {
		p.Topology = info.PInputAssemblyState.Topology
	}
	if info.PVertexInputState != nil {
		p.VertexBindings = info.PVertexInputState.VertexBindingDescriptionCount
		p.VertexAttribs = info.PVertexInputState.VertexAttributeDescriptionCount
	}
	if cb := info.PColorBlendState; cb != nil && len(cb.PAttachments) > 0 {
		p.BlendEnable = cb.PAttachments[0].BlendEnable == vk.True
	}
	if ds := info.PDynamicState; ds != nil {
		p.DynamicStates = append([]vk.DynamicState(nil), ds.PDynamicStates...)
	}
	if dss := info.PDepthStencilState; dss != nil {
		p.DepthTestEnable = dss.DepthTestEnable == vk.True
	}
	d.Pipelines = append(d.Pipelines, p)
	return p.Handle, nil
}

func (d *Device) DestroyPipeline(pipeline vk.Pipeline) {
	d.destroyed("pipeline")
}

func (d *Device) AllocateCommandBuffers(count uint32) ([]vk.CommandBuffer, error) {
	d.call("AllocateCommandBuffers")
	out := make([]vk.CommandBuffer, count)
	for i := range out {
		out[i] = handle[vk.CommandBuffer]()
		d.created("command buffer")
	}
	return out, nil
}

func (d *Device) FreeCommandBuffers(buffers []vk.CommandBuffer) {
	for _, b := range buffers {
		if f, ok := d.cbFence[b]; ok && d.FencePending(f) {
			d.violate("command buffer freed while in flight")
		}
		delete(d.cbFence, b)
		d.destroyed("command buffer")
	}
}

// WaitForFence completes the submission the fence guards.
func (d *Device) WaitForFence(fence vk.Fence, timeout uint64) vk.Result {
	d.call("WaitForFence")
	d.FenceWaits++
	s, ok := d.fences[fence]
	if !ok {
		d.violate("wait on unknown fence")
		return vk.ErrorDeviceLost
	}
	if s.signaled {
		return vk.Success
	}
	if !s.pending {
		// Nothing will ever signal it.
		d.violate("wait on an unsignaled fence that was never submitted")
		return vk.Timeout
	}
	s.pending = false
	s.signaled = true
	return vk.Success
}

func (d *Device) ResetFence(fence vk.Fence) error {
	s, ok := d.fences[fence]
	if !ok {
		return errors.New("reset of unknown fence")
	}
	if s.pending {
		d.violate("reset of a fence whose submission is pending")
	}
	s.signaled = false
	return nil
}

func (d *Device) WaitIdle() error {
	d.call("WaitIdle")
	d.WaitIdleCount++
	d.CompleteAll()
	return nil
}

func (d *Device) BeginCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error {
	d.call("BeginCommandBuffer")
	if f, ok := d.cbFence[buffer]; ok && d.FencePending(f) {
		d.violate("command buffer re-recorded while its previous submission is in flight")
	}
	d.recording[buffer] = true
	d.cbBuffers[buffer] = nil
	return nil
}

func (d *Device) EndCommandBuffer(buffer vk.CommandBuffer) error {
	if !d.recording[buffer] {
		d.violate("end of a command buffer that is not recording")
	}
	d.recording[buffer] = false
	return nil
}

func (d *Device) CmdBeginRenderPass(buffer vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	d.call("CmdBeginRenderPass")
}

func (d *Device) CmdEndRenderPass(buffer vk.CommandBuffer) {
	d.call("CmdEndRenderPass")
}

func (d *Device) CmdSetViewport(buffer vk.CommandBuffer, viewport vk.Viewport) {}

func (d *Device) CmdSetScissor(buffer vk.CommandBuffer, scissor vk.Rect2D) {}

func (d *Device) CmdBindPipeline(buffer vk.CommandBuffer, pipeline vk.Pipeline) {
	d.Bound = append(d.Bound, pipeline)
}

func (d *Device) CmdBindDescriptorSets(buffer vk.CommandBuffer, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	d.BoundSets = append(d.BoundSets, sets...)
}

func (d *Device) CmdPushConstants(buffer vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, values unsafe.Pointer) {
	d.PushConstants = append(d.PushConstants, PushConstant{
		CommandBuffer: buffer,
		Layout:        layout,
		Stages:        stages,
		Data:          append([]byte(nil), unsafe.Slice((*byte)(values), int(size))...),
	})
}

func (d *Device) CmdBindVertexBuffers(buffer vk.CommandBuffer, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	d.call("CmdBindVertexBuffers")
	d.cbBuffers[buffer] = append(d.cbBuffers[buffer], buffers...)
}

func (d *Device) CmdBindIndexBuffer(buffer vk.CommandBuffer, index vk.Buffer) {
	d.call("CmdBindIndexBuffer")
	d.cbBuffers[buffer] = append(d.cbBuffers[buffer], index)
}

func (d *Device) CmdDraw(buffer vk.CommandBuffer, vertexCount, instanceCount uint32) {
	d.Draws = append(d.Draws, DrawCall{CommandBuffer: buffer, Count: vertexCount, Instances: instanceCount})
}

func (d *Device) CmdDrawIndexed(buffer vk.CommandBuffer, indexCount, instanceCount uint32) {
	d.Draws = append(d.Draws, DrawCall{CommandBuffer: buffer, Indexed: true, Count: indexCount, Instances: instanceCount})
}

func (d *Device) CmdCopyBuffer(buffer vk.CommandBuffer, src, dst vk.Buffer, size vk.DeviceSize) {
	d.call("CmdCopyBuffer")
	d.cbBuffers[buffer] = append(d.cbBuffers[buffer], src, dst)
}

func (d *Device) AcquireNextImage(swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore) (uint32, vk.Result) {
	d.call("AcquireNextImage")
	state, ok := d.swapchains[swapchain]
	if !ok {
		d.violate("acquire on unknown swapchain")
		return 0, vk.ErrorSurfaceLost
	}
	if len(d.AcquireResults) > 0 {
		res := d.AcquireResults[0]
		d.AcquireResults = d.AcquireResults[1:]
		if res != vk.Success && res != vk.Suboptimal {
			return 0, res
		}
		return d.pickImage(swapchain, state), res
	}
	return d.pickImage(swapchain, state), vk.Success
}

func (d *Device) pickImage(swapchain vk.Swapchain, state *swapchainState) uint32 {
	var index uint32
	if len(d.AcquireIndices) > 0 {
		index = d.AcquireIndices[0]
		d.AcquireIndices = d.AcquireIndices[1:]
	} else {
		index = state.next
		state.next = (state.next + 1) % uint32(len(state.images))
	}
	if state.acquired[index] {
		d.violate("image %d acquired twice without a present", index)
	}
	state.acquired[index] = true
	d.lastImage[swapchain] = index
	return index
}

func (d *Device) QueueSubmit(info *vk.SubmitInfo, fence vk.Fence) error {
	d.call("QueueSubmit")
	d.Submits++
	for _, cb := range info.PCommandBuffers {
		if d.recording[cb] {
			d.violate("submit of a command buffer that is still recording")
		}
	}
	if fence == vk.NullFence {
		return nil
	}
	s, ok := d.fences[fence]
	if !ok {
		return errors.New("submit with unknown fence")
	}
	if s.signaled || s.pending {
		d.violate("submit with a fence that was not reset")
	}
	// The image this submit renders into must not still be owned by an
	// unretired submission.
	for sc, idx := range d.lastImage {
		if owner := d.swapchains[sc].owner[idx]; owner != vk.NullFence && owner != fence && d.FencePending(owner) {
			d.violate("submit renders into image %d while an earlier frame still uses it", idx)
		}
	}
	s.pending = true
	s.signaled = false
	var read []vk.Buffer
	for _, cb := range info.PCommandBuffers {
		d.cbFence[cb] = fence
		read = append(read, d.cbBuffers[cb]...)
	}
	d.fenceBuffers[fence] = read
	d.lastSubmitFence = fence
	return nil
}

func (d *Device) QueuePresent(info *vk.PresentInfo) vk.Result {
	d.call("QueuePresent")
	d.Presents++
	for i, sc := range info.PSwapchains {
		state, ok := d.swapchains[sc]
		if !ok {
			d.violate("present on unknown swapchain")
			continue
		}
		idx := info.PImageIndices[i]
		if !state.acquired[idx] {
			d.violate("present of image %d that was not acquired", idx)
		}
		state.acquired[idx] = false
		state.owner[idx] = d.lastSubmitFence
		delete(d.lastImage, sc)
	}
	if len(d.PresentResults) > 0 {
		res := d.PresentResults[0]
		d.PresentResults = d.PresentResults[1:]
		return res
	}
	return vk.Success
}

func (d *Device) QueueWaitIdle() error {
	d.call("QueueWaitIdle")
	d.CompleteAll()
	return nil
}
