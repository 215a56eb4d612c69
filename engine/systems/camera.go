package systems

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/phm/engine/math"
	"github.com/spaghettifunk/phm/engine/renderer/components"
)

/** @brief The keys held down this frame, as far as the viewer cares. */
type MovementInput struct {
	Left, Right, Forward, Backward, Up, Down bool
	LookLeft, LookRight, LookUp, LookDown    bool
}

type CameraSystemConfig struct {
	FovY float32
	Near float32
	Far  float32
	// MoveSpeed is in units per second, LookSpeed in radians per second.
	MoveSpeed float32
	LookSpeed float32
}

/**
 * @brief Drives a camera from a viewer transform: the transform moves with
 * the keyboard in the XZ plane and the camera follows it every frame.
 */
type CameraSystem struct {
	Config CameraSystemConfig
	Viewer *math.Transform
}

func NewCameraSystem(config CameraSystemConfig, viewer *math.Transform) *CameraSystem {
	if config.MoveSpeed == 0 {
		config.MoveSpeed = 3
	}
	if config.LookSpeed == 0 {
		config.LookSpeed = 1.5
	}
	return &CameraSystem{Config: config, Viewer: viewer}
}

// Move applies one frame of keyboard input. Pitch is clamped short of
// straight up or down and yaw wraps at a full turn.
func (cs *CameraSystem) Move(input MovementInput, dt float32) {
	var rotate mgl32.Vec3
	if input.LookRight {
		rotate[1]++
	}
	if input.LookLeft {
		rotate[1]--
	}
	if input.LookUp {
		rotate[0]++
	}
	if input.LookDown {
		rotate[0]--
	}
	rotation := cs.Viewer.Rotation
	if rotate.Dot(rotate) > 0 {
		rotation = rotation.Add(rotate.Normalize().Mul(cs.Config.LookSpeed * dt))
	}
	rotation[0] = math.Clamp(rotation[0], -1.5, 1.5)
	rotation[1] = math32.Mod(rotation[1], 2*math32.Pi)
	cs.Viewer.SetRotation(rotation)

	yaw := rotation[1]
	forward := mgl32.Vec3{math32.Sin(yaw), 0, math32.Cos(yaw)}
	right := mgl32.Vec3{forward[2], 0, -forward[0]}
	up := mgl32.Vec3{0, -1, 0}

	var move mgl32.Vec3
	if input.Forward {
		move = move.Add(forward)
	}
	if input.Backward {
		move = move.Sub(forward)
	}
	if input.Right {
		move = move.Add(right)
	}
	if input.Left {
		move = move.Sub(right)
	}
	if input.Up {
		move = move.Add(up)
	}
	if input.Down {
		move = move.Sub(up)
	}
	if move.Dot(move) > 0 {
		cs.Viewer.Translate(move.Normalize().Mul(cs.Config.MoveSpeed * dt))
	}
}

// Update points camera along the viewer and refreshes the projection for
// aspect. A zero aspect, i.e. a minimized window, leaves the projection as is.
func (cs *CameraSystem) Update(camera *components.Camera, aspect float32) {
	camera.SetViewYXZ(cs.Viewer.Translation, cs.Viewer.Rotation)
	if aspect > 0 {
		camera.SetPerspectiveProjection(cs.Config.FovY, aspect, cs.Config.Near, cs.Config.Far)
	}
}
