package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/phm/engine/core"
)

// PointLight makes an entity emit light from its translation.
type PointLight struct {
	Color     mgl32.Vec3
	Intensity float32
	Radius    float32
}

func NewPointLight(color mgl32.Vec3, intensity, radius float32) PointLight {
	return PointLight{Color: color, Intensity: intensity, Radius: radius}
}

// Function is per entity behaviour run once per frame before the uniform
// data is collected.
type Function func(w *World, e Entity, clock *core.FrameClock)
