package vktest

import "github.com/spaghettifunk/phm/engine/renderer/vulkan"

var _ vulkan.Window = (*Window)(nil)

// Window is a scripted presentation surface. Each WaitEvents call applies the
// next queued extent, standing in for the events that restore a minimized
// window.
type Window struct {
	Width, Height uint32
	Resized       bool
	Closed        bool

	QueuedExtents [][2]uint32
	// CloseAfterWaits closes the window on that many WaitEvents calls; zero
	// never closes it.
	CloseAfterWaits int
	Waits           int
}

func NewWindow(width, height uint32) *Window {
	return &Window{Width: width, Height: height}
}

// Resize changes the framebuffer size and raises the resized flag.
func (w *Window) Resize(width, height uint32) {
	w.Width, w.Height = width, height
	w.Resized = true
}

func (w *Window) FramebufferExtent() (uint32, uint32) {
	return w.Width, w.Height
}

func (w *Window) WasResized() bool {
	return w.Resized
}

func (w *Window) ResetResized() {
	w.Resized = false
}

func (w *Window) ShouldClose() bool {
	return w.Closed
}

func (w *Window) WaitEvents() {
	w.Waits++
	if w.CloseAfterWaits > 0 && w.Waits >= w.CloseAfterWaits {
		w.Closed = true
	}
	if len(w.QueuedExtents) == 0 {
		return
	}
	next := w.QueuedExtents[0]
	w.QueuedExtents = w.QueuedExtents[1:]
	w.Width, w.Height = next[0], next[1]
}
