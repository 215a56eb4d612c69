package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/containers"
)

// MaxFramesInFlight bounds how many frames the CPU may record ahead of the GPU.
const MaxFramesInFlight = 2

// FrameSlot is the synchronization set of one in-flight frame.
type FrameSlot struct {
	Index int
	// Signaled by acquire, waited by submit.
	ImageAvailable vk.Semaphore
	// Signaled by submit, waited by present.
	RenderFinished vk.Semaphore
	// Created signaled so the first wait on a fresh slot returns at once.
	InFlight *VulkanFence
}

func newFrameSlot(device Device, index int) (*FrameSlot, error) {
	slot := &FrameSlot{Index: index}
	var err error
	if slot.ImageAvailable, err = device.CreateSemaphore(); err != nil {
		return nil, errors.Wrap(err, "failed to create semaphore on image available")
	}
	if slot.RenderFinished, err = device.CreateSemaphore(); err != nil {
		slot.destroy(device)
		return nil, errors.Wrap(err, "failed to create semaphore on queue complete")
	}
	if slot.InFlight, err = NewFence(device, true); err != nil {
		slot.destroy(device)
		return nil, err
	}
	return slot, nil
}

func (s *FrameSlot) destroy(device Device) {
	if s.ImageAvailable != vk.NullSemaphore {
		device.DestroySemaphore(s.ImageAvailable)
		s.ImageAvailable = vk.NullSemaphore
	}
	if s.RenderFinished != vk.NullSemaphore {
		device.DestroySemaphore(s.RenderFinished)
		s.RenderFinished = vk.NullSemaphore
	}
	if s.InFlight != nil {
		s.InFlight.Destroy(device)
		s.InFlight = nil
	}
}

func newFrameSlots(device Device, count int) (*containers.Ring[*FrameSlot], error) {
	return containers.NewRing(count,
		func(i int) (*FrameSlot, error) { return newFrameSlot(device, i) },
		func(s *FrameSlot) { s.destroy(device) },
	)
}
