package core

import (
	"github.com/cockroachdb/errors"
)

var (
	// Fatal: the rebuilt swapchain does not share the color or depth format
	// of its predecessor, so every pipeline built against the old render pass
	// is invalid.
	ErrSwapchainFormatChanged = errors.New("swapchain image (or depth) format has changed")
	ErrUnsupportedDepthFormat = errors.New("no supported depth format")
	ErrNoSurfaceFormats       = errors.New("surface reports no formats")
	ErrNoSuitableDevice       = errors.New("no suitable physical device")
	ErrNoMemoryType           = errors.New("no suitable memory type")
	ErrShaderNotFound         = errors.New("shader binary not found")
	ErrShaderTruncated        = errors.New("shader binary truncated")
	ErrTooManyLights          = errors.New("point light capacity exceeded")
	ErrInvalidHandle          = errors.New("invalid handle")
	// Not a failure: the window was closed while the renderer waited on it.
	ErrWindowClosed = errors.New("window closed")
	ErrUnknown      = errors.New("unknown")
)

// IsInvariantViolation reports whether err was produced by a broken
// precondition of the frame state machine or the data bus.
func IsInvariantViolation(err error) bool {
	return errors.IsAssertionFailure(err)
}
