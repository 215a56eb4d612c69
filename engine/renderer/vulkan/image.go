package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	// Swapchain images belong to the swapchain; only the view is ours.
	owned bool
}

// NewAttachmentImage creates a device local 2D image with a view over the
// given aspect.
func NewAttachmentImage(device Device, format vk.Format, extent vk.Extent2D, usage vk.ImageUsageFlags, aspect vk.ImageAspectFlags) (*VulkanImage, error) {
	info := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	handle, memory, err := device.CreateImage(&info, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create attachment image")
	}
	img := &VulkanImage{
		Handle: handle,
		Memory: memory,
		Width:  extent.Width,
		Height: extent.Height,
		owned:  true,
	}
	view, err := newImageView(device, handle, format, aspect)
	if err != nil {
		img.Destroy(device)
		return nil, err
	}
	img.View = view
	return img, nil
}

// WrapSwapchainImage creates a color view over an image owned by a swapchain.
func WrapSwapchainImage(device Device, handle vk.Image, format vk.Format, extent vk.Extent2D) (*VulkanImage, error) {
	view, err := newImageView(device, handle, format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}
	return &VulkanImage{
		Handle: handle,
		View:   view,
		Width:  extent.Width,
		Height: extent.Height,
	}, nil
}

func newImageView(device Device, handle vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    handle,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	view, err := device.CreateImageView(&info)
	if err != nil {
		return vk.NullImageView, errors.Wrap(err, "failed to create image view")
	}
	return view, nil
}

func (img *VulkanImage) Destroy(device Device) {
	if img.View != vk.NullImageView {
		device.DestroyImageView(img.View)
		img.View = vk.NullImageView
	}
	if img.owned {
		device.DestroyImage(img.Handle, img.Memory)
		img.owned = false
	}
	img.Handle = vk.NullImage
	img.Memory = vk.NullDeviceMemory
}
