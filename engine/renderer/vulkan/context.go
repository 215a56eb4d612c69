package vulkan

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
)

// SurfaceProvider is the windowing side of instance bootstrap.
type SurfaceProvider interface {
	GetInstanceProcAddress() unsafe.Pointer
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

type VulkanContextConfig struct {
	ApplicationName  string
	EnableValidation bool
	RequireDiscrete  bool
}

// VulkanContext owns the instance, the presentation surface and the device.
// It outlives every other Vulkan object.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface
	Device    *VulkanDevice

	debugMessenger vk.DebugReportCallback
	validation     bool
}

func NewContext(provider SurfaceProvider, config VulkanContextConfig) (*VulkanContext, error) {
	procAddr := provider.GetInstanceProcAddress()
	if procAddr == nil {
		return nil, errors.New("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize vk")
	}

	ctx := &VulkanContext{validation: config.EnableValidation}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(config.ApplicationName),
		PEngineName:        VulkanSafeString("phm"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := provider.RequiredInstanceExtensions()
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}
	if ctx.validation {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}
	core.LogDebug("Required extensions: %v", requiredExtensions)
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	var layers []string
	if ctx.validation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		layers = []string{"VK_LAYER_KHRONOS_validation"}
		if err := checkValidationLayers(layers); err != nil {
			return nil, err
		}
	}
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, ctx.Allocator, &instance); res != vk.Success {
		return nil, VulkanError(res, "vkCreateInstance")
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, ctx.Allocator)
		return nil, errors.Wrap(err, "failed to init instance")
	}
	ctx.Instance = instance
	core.LogInfo("Vulkan Instance created.")

	if ctx.validation {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(ctx.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			ctx.Destroy()
			return nil, errors.Wrap(err, "vkCreateDebugReportCallbackEXT")
		}
		ctx.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := provider.CreateSurface(ctx.Instance)
	if err != nil {
		ctx.Destroy()
		return nil, errors.Wrap(err, "failed to create platform surface")
	}
	ctx.Surface = surface
	core.LogDebug("Vulkan surface created.")

	device, err := NewVulkanDevice(ctx.Instance, ctx.Surface, config.RequireDiscrete)
	if err != nil {
		ctx.Destroy()
		return nil, errors.Wrap(err, "failed to create device")
	}
	ctx.Device = device

	return ctx, nil
}

func checkValidationLayers(required []string) error {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return VulkanError(res, "vkEnumerateInstanceLayerProperties")
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return VulkanError(res, "vkEnumerateInstanceLayerProperties")
	}
	for _, name := range required {
		core.LogInfo("Searching for layer: %s...", name)
		found := false
		for j := range available {
			available[j].Deref()
			if CString(available[j].LayerName[:]) == name {
				found = true
				break
			}
		}
		if !found {
			return errors.Newf("required validation layer is missing: %s", name)
		}
	}
	core.LogInfo("All required validation layers are present.")
	return nil
}

// Destroy releases everything in reverse creation order. The device must be
// idle and every object created from it already destroyed.
func (ctx *VulkanContext) Destroy() {
	if ctx.Device != nil {
		ctx.Device.Destroy()
		ctx.Device = nil
	}
	if ctx.Surface != vk.NullSurface {
		vk.DestroySurface(ctx.Instance, ctx.Surface, ctx.Allocator)
		ctx.Surface = vk.NullSurface
	}
	if ctx.debugMessenger != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(ctx.Instance, ctx.debugMessenger, ctx.Allocator)
		ctx.debugMessenger = vk.NullDebugReportCallback
	}
	if ctx.Instance != nil {
		vk.DestroyInstance(ctx.Instance, ctx.Allocator)
		ctx.Instance = nil
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
