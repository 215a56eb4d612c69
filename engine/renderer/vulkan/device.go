package vulkan

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
)

// VulkanDevice is the logical device with its queues and graphics command
// pool. It implements Device.
type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	surface            vk.Surface
	GraphicsQueueIndex int32
	PresentQueueIndex  int32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	Allocator *vk.AllocationCallbacks
}

type VulkanPhysicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	DeviceExtensionNames []string
	DiscreteGPU          bool
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex int32
	PresentFamilyIndex  int32
}

// NewVulkanDevice picks a physical device able to render and present to
// surface, then creates the logical device, its queues and a resettable
// graphics command pool.
func NewVulkanDevice(instance vk.Instance, surface vk.Surface, requireDiscrete bool) (*VulkanDevice, error) {
	device := &VulkanDevice{
		surface:            surface,
		GraphicsQueueIndex: -1,
		PresentQueueIndex:  -1,
	}
	if err := device.selectPhysicalDevice(instance, requireDiscrete); err != nil {
		return nil, err
	}

	core.LogInfo("Creating logical device...")

	// NOTE: Do not create additional queues for shared indices.
	indices := []uint32{uint32(device.GraphicsQueueIndex)}
	if device.PresentQueueIndex != device.GraphicsQueueIndex {
		indices = append(indices, uint32(device.PresentQueueIndex))
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: indices[i],
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if device.hasExtension("VK_KHR_portability_subset") {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		extensionNames = append(extensionNames, "VK_KHR_portability_subset")
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var logical vk.Device
	if res := vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, device.Allocator, &logical); res != vk.Success {
		return nil, VulkanError(res, "vkCreateDevice")
	}
	device.LogicalDevice = logical
	core.LogInfo("Logical device created.")

	var graphics, present vk.Queue
	vk.GetDeviceQueue(device.LogicalDevice, uint32(device.GraphicsQueueIndex), 0, &graphics)
	vk.GetDeviceQueue(device.LogicalDevice, uint32(device.PresentQueueIndex), 0, &present)
	device.GraphicsQueue = graphics
	device.PresentQueue = present
	core.LogInfo("Queues obtained.")

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit | vk.CommandPoolCreateTransientBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(device.LogicalDevice, &poolCreateInfo, device.Allocator, &pool); res != vk.Success {
		vk.DestroyDevice(device.LogicalDevice, device.Allocator)
		return nil, VulkanError(res, "vkCreateCommandPool")
	}
	device.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")

	return device, nil
}

func (d *VulkanDevice) Destroy() {
	d.GraphicsQueue = nil
	d.PresentQueue = nil

	core.LogInfo("Destroying command pools...")
	if d.GraphicsCommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(d.LogicalDevice, d.GraphicsCommandPool, d.Allocator)
		d.GraphicsCommandPool = vk.NullCommandPool
	}

	core.LogInfo("Destroying logical device...")
	if d.LogicalDevice != nil {
		vk.DestroyDevice(d.LogicalDevice, d.Allocator)
		d.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	d.PhysicalDevice = nil
	d.GraphicsQueueIndex = -1
	d.PresentQueueIndex = -1
}

func (d *VulkanDevice) hasExtension(name string) bool {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(d.PhysicalDevice, "", &count, nil); res != vk.Success || count == 0 {
		return false
	}
	available := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(d.PhysicalDevice, "", &count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if CString(available[i].ExtensionName[:]) == name {
			return true
		}
	}
	return false
}

func (d *VulkanDevice) selectPhysicalDevice(instance vk.Instance, preferDiscrete bool) error {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(instance, &physicalDeviceCount, nil); res != vk.Success {
		return VulkanError(res, "vkEnumeratePhysicalDevices")
	}
	if physicalDeviceCount == 0 {
		return errors.Wrap(core.ErrNoSuitableDevice, "no devices which support Vulkan were found")
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return VulkanError(res, "vkEnumeratePhysicalDevices")
	}

	requirements := VulkanPhysicalDeviceRequirements{
		Graphics:             true,
		Present:              true,
		DiscreteGPU:          preferDiscrete && runtime.GOOS != "darwin",
		DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
	}

	for i := range physicalDevices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(physicalDevices[i], &properties)
		properties.Deref()
		properties.Limits.Deref()

		var features vk.PhysicalDeviceFeatures
		vk.GetPhysicalDeviceFeatures(physicalDevices[i], &features)
		features.Deref()

		var memory vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(physicalDevices[i], &memory)
		memory.Deref()

		queueInfo, ok := physicalDeviceMeetsRequirements(physicalDevices[i], d.surface, &properties, &requirements)
		if !ok {
			continue
		}

		core.LogInfo("Selected device: '%s'.", CString(properties.DeviceName[:]))
		switch properties.DeviceType {
		case vk.PhysicalDeviceTypeIntegratedGpu:
			core.LogInfo("GPU type is Integrated.")
		case vk.PhysicalDeviceTypeDiscreteGpu:
			core.LogInfo("GPU type is Discrete.")
		case vk.PhysicalDeviceTypeVirtualGpu:
			core.LogInfo("GPU type is Virtual.")
		case vk.PhysicalDeviceTypeCpu:
			core.LogInfo("GPU type is CPU.")
		default:
			core.LogInfo("GPU type is Unknown.")
		}
		core.LogInfo(
			"GPU Driver version: %d.%d.%d",
			vk.Version(properties.DriverVersion).Major(),
			vk.Version(properties.DriverVersion).Minor(),
			vk.Version(properties.DriverVersion).Patch(),
		)
		core.LogInfo(
			"Vulkan API version: %d.%d.%d",
			vk.Version(properties.ApiVersion).Major(),
			vk.Version(properties.ApiVersion).Minor(),
			vk.Version(properties.ApiVersion).Patch(),
		)
		for j := 0; j < int(memory.MemoryHeapCount); j++ {
			memory.MemoryHeaps[j].Deref()
			memorySizeGib := float64(memory.MemoryHeaps[j].Size) / 1024.0 / 1024.0 / 1024.0
			if vk.MemoryHeapFlagBits(memory.MemoryHeaps[j].Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
				core.LogInfo("Local GPU memory: %.2f GiB", memorySizeGib)
			} else {
				core.LogInfo("Shared System memory: %.2f GiB", memorySizeGib)
			}
		}

		d.PhysicalDevice = physicalDevices[i]
		d.GraphicsQueueIndex = queueInfo.GraphicsFamilyIndex
		d.PresentQueueIndex = queueInfo.PresentFamilyIndex
		d.Properties = properties
		d.Features = features
		d.Memory = memory
		core.LogInfo("Physical device selected.")
		return nil
	}

	return errors.Wrap(core.ErrNoSuitableDevice, "no physical devices were found which meet the requirements")
}

func physicalDeviceMeetsRequirements(device vk.PhysicalDevice, surface vk.Surface, properties *vk.PhysicalDeviceProperties, requirements *VulkanPhysicalDeviceRequirements) (VulkanPhysicalDeviceQueueFamilyInfo, bool) {
	queueInfo := VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: -1, PresentFamilyIndex: -1}

	if requirements.DiscreteGPU && properties.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu {
		core.LogInfo("Device is not a discrete GPU, and one is required. Skipping.")
		return queueInfo, false
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	for i := range queueFamilies {
		queueFamilies[i].Deref()
		if queueInfo.GraphicsFamilyIndex < 0 && vk.QueueFlagBits(queueFamilies[i].QueueFlags)&vk.QueueGraphicsBit != 0 {
			queueInfo.GraphicsFamilyIndex = int32(i)
		}
		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &supportsPresent); res != vk.Success {
			return queueInfo, false
		}
		// Prefer a family that does both.
		if supportsPresent == vk.True && (queueInfo.PresentFamilyIndex < 0 || queueInfo.GraphicsFamilyIndex == int32(i)) {
			queueInfo.PresentFamilyIndex = int32(i)
		}
	}

	core.LogDebug("Graphics Family Index: %d", queueInfo.GraphicsFamilyIndex)
	core.LogDebug("Present Family Index:  %d", queueInfo.PresentFamilyIndex)

	if requirements.Graphics && queueInfo.GraphicsFamilyIndex < 0 {
		return queueInfo, false
	}
	if requirements.Present && queueInfo.PresentFamilyIndex < 0 {
		return queueInfo, false
	}

	var formatCount, presentModeCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, nil)
	vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &presentModeCount, nil)
	if formatCount < 1 || presentModeCount < 1 {
		core.LogInfo("Required swapchain support not present, skipping device.")
		return queueInfo, false
	}

	var availableExtensionCount uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &availableExtensionCount, nil); res != vk.Success {
		return queueInfo, false
	}
	availableExtensions := make([]vk.ExtensionProperties, availableExtensionCount)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &availableExtensionCount, availableExtensions); res != vk.Success {
		return queueInfo, false
	}
	for _, required := range requirements.DeviceExtensionNames {
		found := false
		for j := range availableExtensions {
			availableExtensions[j].Deref()
			if CString(availableExtensions[j].ExtensionName[:]) == required {
				found = true
				break
			}
		}
		if !found {
			core.LogInfo("Required extension not found: '%s', skipping device.", required)
			return queueInfo, false
		}
	}

	core.LogInfo("Device meets queue requirements.")
	return queueInfo, true
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that
// has every flag in propertyFlags.
func (d *VulkanDevice) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < d.Memory.MemoryTypeCount; i++ {
		d.Memory.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (d.Memory.MemoryTypes[i].PropertyFlags&propertyFlags) == propertyFlags {
			return i, nil
		}
	}
	return 0, errors.Wrapf(core.ErrNoMemoryType, "filter %#x flags %#x", typeFilter, propertyFlags)
}

func (d *VulkanDevice) Surface() vk.Surface {
	return d.surface
}

func (d *VulkanDevice) SurfaceCapabilities() (vk.SurfaceCapabilities, error) {
	var capabilities vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(d.PhysicalDevice, d.surface, &capabilities); res != vk.Success {
		return capabilities, VulkanError(res, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR")
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	return capabilities, nil
}

func (d *VulkanDevice) SurfaceFormats() ([]vk.SurfaceFormat, error) {
	var count uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(d.PhysicalDevice, d.surface, &count, nil); res != vk.Success {
		return nil, VulkanError(res, "vkGetPhysicalDeviceSurfaceFormatsKHR")
	}
	formats := make([]vk.SurfaceFormat, count)
	if count == 0 {
		return formats, nil
	}
	if res := vk.GetPhysicalDeviceSurfaceFormats(d.PhysicalDevice, d.surface, &count, formats); res != vk.Success {
		return nil, VulkanError(res, "vkGetPhysicalDeviceSurfaceFormatsKHR")
	}
	for i := range formats {
		formats[i].Deref()
	}
	return formats, nil
}

func (d *VulkanDevice) SurfacePresentModes() ([]vk.PresentMode, error) {
	var count uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(d.PhysicalDevice, d.surface, &count, nil); res != vk.Success {
		return nil, VulkanError(res, "vkGetPhysicalDeviceSurfacePresentModesKHR")
	}
	modes := make([]vk.PresentMode, count)
	if count == 0 {
		return modes, nil
	}
	if res := vk.GetPhysicalDeviceSurfacePresentModes(d.PhysicalDevice, d.surface, &count, modes); res != vk.Success {
		return nil, VulkanError(res, "vkGetPhysicalDeviceSurfacePresentModesKHR")
	}
	return modes, nil
}

func (d *VulkanDevice) FormatProperties(format vk.Format) vk.FormatProperties {
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.PhysicalDevice, format, &properties)
	properties.Deref()
	return properties
}

func (d *VulkanDevice) QueueFamilies() (uint32, uint32) {
	return uint32(d.GraphicsQueueIndex), uint32(d.PresentQueueIndex)
}

func (d *VulkanDevice) MinUniformBufferOffsetAlignment() uint64 {
	return uint64(d.Properties.Limits.MinUniformBufferOffsetAlignment)
}

func (d *VulkanDevice) NonCoherentAtomSize() uint64 {
	return uint64(d.Properties.Limits.NonCoherentAtomSize)
}

func (d *VulkanDevice) CreateSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	var swapchain vk.Swapchain
	if res := vk.CreateSwapchain(d.LogicalDevice, info, d.Allocator, &swapchain); res != vk.Success {
		return vk.NullSwapchain, VulkanError(res, "vkCreateSwapchainKHR")
	}
	return swapchain, nil
}

func (d *VulkanDevice) SwapchainImages(swapchain vk.Swapchain) ([]vk.Image, error) {
	var count uint32
	if res := vk.GetSwapchainImages(d.LogicalDevice, swapchain, &count, nil); res != vk.Success {
		return nil, VulkanError(res, "vkGetSwapchainImagesKHR")
	}
	images := make([]vk.Image, count)
	if res := vk.GetSwapchainImages(d.LogicalDevice, swapchain, &count, images); res != vk.Success {
		return nil, VulkanError(res, "vkGetSwapchainImagesKHR")
	}
	return images, nil
}

func (d *VulkanDevice) DestroySwapchain(swapchain vk.Swapchain) {
	vk.DestroySwapchain(d.LogicalDevice, swapchain, d.Allocator)
}

func (d *VulkanDevice) CreateImage(info *vk.ImageCreateInfo, properties vk.MemoryPropertyFlags) (vk.Image, vk.DeviceMemory, error) {
	var image vk.Image
	if res := vk.CreateImage(d.LogicalDevice, info, d.Allocator, &image); res != vk.Success {
		return vk.NullImage, vk.NullDeviceMemory, VulkanError(res, "vkCreateImage")
	}
	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.LogicalDevice, image, &requirements)
	requirements.Deref()

	memory, err := d.allocate(requirements, properties)
	if err != nil {
		vk.DestroyImage(d.LogicalDevice, image, d.Allocator)
		return vk.NullImage, vk.NullDeviceMemory, err
	}
	if res := vk.BindImageMemory(d.LogicalDevice, image, memory, 0); res != vk.Success {
		vk.FreeMemory(d.LogicalDevice, memory, d.Allocator)
		vk.DestroyImage(d.LogicalDevice, image, d.Allocator)
		return vk.NullImage, vk.NullDeviceMemory, VulkanError(res, "vkBindImageMemory")
	}
	return image, memory, nil
}

func (d *VulkanDevice) allocate(requirements vk.MemoryRequirements, properties vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	index, err := d.FindMemoryIndex(requirements.MemoryTypeBits, properties)
	if err != nil {
		return vk.NullDeviceMemory, err
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.LogicalDevice, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: index,
	}, d.Allocator, &memory); res != vk.Success {
		return vk.NullDeviceMemory, VulkanError(res, "vkAllocateMemory")
	}
	return memory, nil
}

func (d *VulkanDevice) DestroyImage(image vk.Image, memory vk.DeviceMemory) {
	if image != vk.NullImage {
		vk.DestroyImage(d.LogicalDevice, image, d.Allocator)
	}
	if memory != vk.NullDeviceMemory {
		vk.FreeMemory(d.LogicalDevice, memory, d.Allocator)
	}
}

func (d *VulkanDevice) CreateImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	var view vk.ImageView
	if res := vk.CreateImageView(d.LogicalDevice, info, d.Allocator, &view); res != vk.Success {
		return vk.NullImageView, VulkanError(res, "vkCreateImageView")
	}
	return view, nil
}

func (d *VulkanDevice) DestroyImageView(view vk.ImageView) {
	vk.DestroyImageView(d.LogicalDevice, view, d.Allocator)
}

func (d *VulkanDevice) CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var renderPass vk.RenderPass
	if res := vk.CreateRenderPass(d.LogicalDevice, info, d.Allocator, &renderPass); res != vk.Success {
		return vk.NullRenderPass, VulkanError(res, "vkCreateRenderPass")
	}
	return renderPass, nil
}

func (d *VulkanDevice) DestroyRenderPass(renderPass vk.RenderPass) {
	vk.DestroyRenderPass(d.LogicalDevice, renderPass, d.Allocator)
}

func (d *VulkanDevice) CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	var framebuffer vk.Framebuffer
	if res := vk.CreateFramebuffer(d.LogicalDevice, info, d.Allocator, &framebuffer); res != vk.Success {
		return vk.NullFramebuffer, VulkanError(res, "vkCreateFramebuffer")
	}
	return framebuffer, nil
}

func (d *VulkanDevice) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	vk.DestroyFramebuffer(d.LogicalDevice, framebuffer, d.Allocator)
}

func (d *VulkanDevice) CreateFence(signaled bool) (vk.Fence, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if res := vk.CreateFence(d.LogicalDevice, &info, d.Allocator, &fence); res != vk.Success {
		return vk.NullFence, VulkanError(res, "vkCreateFence")
	}
	return fence, nil
}

func (d *VulkanDevice) DestroyFence(fence vk.Fence) {
	vk.DestroyFence(d.LogicalDevice, fence, d.Allocator)
}

func (d *VulkanDevice) CreateSemaphore() (vk.Semaphore, error) {
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(d.LogicalDevice, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, d.Allocator, &semaphore); res != vk.Success {
		return vk.NullSemaphore, VulkanError(res, "vkCreateSemaphore")
	}
	return semaphore, nil
}

func (d *VulkanDevice) DestroySemaphore(semaphore vk.Semaphore) {
	vk.DestroySemaphore(d.LogicalDevice, semaphore, d.Allocator)
}

func (d *VulkanDevice) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	var buffer vk.Buffer
	if res := vk.CreateBuffer(d.LogicalDevice, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, d.Allocator, &buffer); res != vk.Success {
		return vk.NullBuffer, vk.NullDeviceMemory, VulkanError(res, "vkCreateBuffer")
	}
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.LogicalDevice, buffer, &requirements)
	requirements.Deref()

	memory, err := d.allocate(requirements, properties)
	if err != nil {
		vk.DestroyBuffer(d.LogicalDevice, buffer, d.Allocator)
		return vk.NullBuffer, vk.NullDeviceMemory, err
	}
	if res := vk.BindBufferMemory(d.LogicalDevice, buffer, memory, 0); res != vk.Success {
		vk.FreeMemory(d.LogicalDevice, memory, d.Allocator)
		vk.DestroyBuffer(d.LogicalDevice, buffer, d.Allocator)
		return vk.NullBuffer, vk.NullDeviceMemory, VulkanError(res, "vkBindBufferMemory")
	}
	return buffer, memory, nil
}

func (d *VulkanDevice) DestroyBuffer(buffer vk.Buffer, memory vk.DeviceMemory) {
	if buffer != vk.NullBuffer {
		vk.DestroyBuffer(d.LogicalDevice, buffer, d.Allocator)
	}
	if memory != vk.NullDeviceMemory {
		vk.FreeMemory(d.LogicalDevice, memory, d.Allocator)
	}
}

func (d *VulkanDevice) MapMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) (unsafe.Pointer, error) {
	var data unsafe.Pointer
	if res := vk.MapMemory(d.LogicalDevice, memory, offset, size, 0, &data); res != vk.Success {
		return nil, VulkanError(res, "vkMapMemory")
	}
	return data, nil
}

func (d *VulkanDevice) UnmapMemory(memory vk.DeviceMemory) {
	vk.UnmapMemory(d.LogicalDevice, memory)
}

func (d *VulkanDevice) FlushMappedMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) error {
	res := vk.FlushMappedMemoryRanges(d.LogicalDevice, 1, []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: memory,
		Offset: offset,
		Size:   size,
	}})
	return VulkanError(res, "vkFlushMappedMemoryRanges")
}

func (d *VulkanDevice) InvalidateMappedMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) error {
	res := vk.InvalidateMappedMemoryRanges(d.LogicalDevice, 1, []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: memory,
		Offset: offset,
		Size:   size,
	}})
	return VulkanError(res, "vkInvalidateMappedMemoryRanges")
}

func (d *VulkanDevice) CreateShaderModule(code []uint32) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(d.LogicalDevice, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}, d.Allocator, &module); res != vk.Success {
		return vk.NullShaderModule, VulkanError(res, "vkCreateShaderModule")
	}
	return module, nil
}

func (d *VulkanDevice) DestroyShaderModule(module vk.ShaderModule) {
	vk.DestroyShaderModule(d.LogicalDevice, module, d.Allocator)
}

func (d *VulkanDevice) CreateDescriptorSetLayout(bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(d.LogicalDevice, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}, d.Allocator, &layout); res != vk.Success {
		return nil, VulkanError(res, "vkCreateDescriptorSetLayout")
	}
	return layout, nil
}

func (d *VulkanDevice) DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout) {
	vk.DestroyDescriptorSetLayout(d.LogicalDevice, layout, d.Allocator)
}

func (d *VulkanDevice) CreateDescriptorPool(maxSets uint32, sizes []vk.DescriptorPoolSize, flags vk.DescriptorPoolCreateFlags) (vk.DescriptorPool, error) {
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(d.LogicalDevice, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         flags,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, d.Allocator, &pool); res != vk.Success {
		return nil, VulkanError(res, "vkCreateDescriptorPool")
	}
	return pool, nil
}

func (d *VulkanDevice) DestroyDescriptorPool(pool vk.DescriptorPool) {
	vk.DestroyDescriptorPool(d.LogicalDevice, pool, d.Allocator)
}

func (d *VulkanDevice) AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(d.LogicalDevice, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}, &set); res != vk.Success {
		return nil, VulkanError(res, "vkAllocateDescriptorSets")
	}
	return set, nil
}

func (d *VulkanDevice) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	vk.UpdateDescriptorSets(d.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}

func (d *VulkanDevice) CreatePipelineLayout(setLayouts []vk.DescriptorSetLayout, pushConstantRanges []vk.PushConstantRange) (vk.PipelineLayout, error) {
	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(d.LogicalDevice, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(pushConstantRanges)),
		PPushConstantRanges:    pushConstantRanges,
	}, d.Allocator, &layout); res != vk.Success {
		return vk.NullPipelineLayout, VulkanError(res, "vkCreatePipelineLayout")
	}
	return layout, nil
}

func (d *VulkanDevice) DestroyPipelineLayout(layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(d.LogicalDevice, layout, d.Allocator)
}

func (d *VulkanDevice) CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(d.LogicalDevice, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{*info}, d.Allocator, pipelines); res != vk.Success {
		return vk.NullPipeline, VulkanError(res, "vkCreateGraphicsPipelines")
	}
	return pipelines[0], nil
}

func (d *VulkanDevice) DestroyPipeline(pipeline vk.Pipeline) {
	vk.DestroyPipeline(d.LogicalDevice, pipeline, d.Allocator)
}

func (d *VulkanDevice) AllocateCommandBuffers(count uint32) ([]vk.CommandBuffer, error) {
	buffers := make([]vk.CommandBuffer, count)
	if res := vk.AllocateCommandBuffers(d.LogicalDevice, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.GraphicsCommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}, buffers); res != vk.Success {
		return nil, VulkanError(res, "vkAllocateCommandBuffers")
	}
	return buffers, nil
}

func (d *VulkanDevice) FreeCommandBuffers(buffers []vk.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	vk.FreeCommandBuffers(d.LogicalDevice, d.GraphicsCommandPool, uint32(len(buffers)), buffers)
}

func (d *VulkanDevice) WaitForFence(fence vk.Fence, timeout uint64) vk.Result {
	return vk.WaitForFences(d.LogicalDevice, 1, []vk.Fence{fence}, vk.True, timeout)
}

func (d *VulkanDevice) ResetFence(fence vk.Fence) error {
	return VulkanError(vk.ResetFences(d.LogicalDevice, 1, []vk.Fence{fence}), "vkResetFences")
}

func (d *VulkanDevice) WaitIdle() error {
	return VulkanError(vk.DeviceWaitIdle(d.LogicalDevice), "vkDeviceWaitIdle")
}

func (d *VulkanDevice) BeginCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error {
	return VulkanError(vk.BeginCommandBuffer(buffer, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	}), "vkBeginCommandBuffer")
}

func (d *VulkanDevice) EndCommandBuffer(buffer vk.CommandBuffer) error {
	return VulkanError(vk.EndCommandBuffer(buffer), "vkEndCommandBuffer")
}

func (d *VulkanDevice) CmdBeginRenderPass(buffer vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	vk.CmdBeginRenderPass(buffer, info, vk.SubpassContentsInline)
}

func (d *VulkanDevice) CmdEndRenderPass(buffer vk.CommandBuffer) {
	vk.CmdEndRenderPass(buffer)
}

func (d *VulkanDevice) CmdSetViewport(buffer vk.CommandBuffer, viewport vk.Viewport) {
	vk.CmdSetViewport(buffer, 0, 1, []vk.Viewport{viewport})
}

func (d *VulkanDevice) CmdSetScissor(buffer vk.CommandBuffer, scissor vk.Rect2D) {
	vk.CmdSetScissor(buffer, 0, 1, []vk.Rect2D{scissor})
}

func (d *VulkanDevice) CmdBindPipeline(buffer vk.CommandBuffer, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(buffer, vk.PipelineBindPointGraphics, pipeline)
}

func (d *VulkanDevice) CmdBindDescriptorSets(buffer vk.CommandBuffer, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	vk.CmdBindDescriptorSets(buffer, vk.PipelineBindPointGraphics, layout, firstSet, uint32(len(sets)), sets, 0, nil)
}

func (d *VulkanDevice) CmdPushConstants(buffer vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, values unsafe.Pointer) {
	vk.CmdPushConstants(buffer, layout, stages, offset, size, values)
}

func (d *VulkanDevice) CmdBindVertexBuffers(buffer vk.CommandBuffer, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	vk.CmdBindVertexBuffers(buffer, 0, uint32(len(buffers)), buffers, offsets)
}

func (d *VulkanDevice) CmdBindIndexBuffer(buffer vk.CommandBuffer, index vk.Buffer) {
	vk.CmdBindIndexBuffer(buffer, index, 0, vk.IndexTypeUint32)
}

func (d *VulkanDevice) CmdDraw(buffer vk.CommandBuffer, vertexCount, instanceCount uint32) {
	vk.CmdDraw(buffer, vertexCount, instanceCount, 0, 0)
}

func (d *VulkanDevice) CmdDrawIndexed(buffer vk.CommandBuffer, indexCount, instanceCount uint32) {
	vk.CmdDrawIndexed(buffer, indexCount, instanceCount, 0, 0, 0)
}

func (d *VulkanDevice) CmdCopyBuffer(buffer vk.CommandBuffer, src, dst vk.Buffer, size vk.DeviceSize) {
	vk.CmdCopyBuffer(buffer, src, dst, 1, []vk.BufferCopy{{Size: size}})
}

func (d *VulkanDevice) AcquireNextImage(swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore) (uint32, vk.Result) {
	var index uint32
	res := vk.AcquireNextImage(d.LogicalDevice, swapchain, timeout, semaphore, vk.NullFence, &index)
	return index, res
}

func (d *VulkanDevice) QueueSubmit(info *vk.SubmitInfo, fence vk.Fence) error {
	return VulkanError(vk.QueueSubmit(d.GraphicsQueue, 1, []vk.SubmitInfo{*info}, fence), "vkQueueSubmit")
}

func (d *VulkanDevice) QueuePresent(info *vk.PresentInfo) vk.Result {
	return vk.QueuePresent(d.PresentQueue, info)
}

func (d *VulkanDevice) QueueWaitIdle() error {
	return VulkanError(vk.QueueWaitIdle(d.GraphicsQueue), "vkQueueWaitIdle")
}
