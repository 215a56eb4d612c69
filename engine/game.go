package engine

import (
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/math"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
	"github.com/spaghettifunk/phm/engine/scene"
)

// Game is what an application plugs into the engine: its configuration and
// the hooks that build and drive its scene.
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnShutdown        Shutdown
}

// Initialize populates world once the device exists. viewer is the transform
// the camera follows.
type Initialize func(device vulkan.Device, world *scene.World, viewer *math.Transform) error

// Update runs every frame after the entity functions, before the frame data
// is written.
type Update func(world *scene.World, clock *core.FrameClock) error

type Shutdown func() error
