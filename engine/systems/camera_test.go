package systems

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/phm/engine/math"
	"github.com/spaghettifunk/phm/engine/renderer/components"
	"github.com/stretchr/testify/assert"
)

func newTestCameraSystem() *CameraSystem {
	return NewCameraSystem(CameraSystemConfig{FovY: mgl32.DegToRad(50), Near: 0.1, Far: 100}, math.TransformCreate())
}

func TestNewCameraSystemDefaults(t *testing.T) {
	cs := newTestCameraSystem()
	assert.Equal(t, float32(3), cs.Config.MoveSpeed)
	assert.Equal(t, float32(1.5), cs.Config.LookSpeed)

	custom := NewCameraSystem(CameraSystemConfig{MoveSpeed: 10, LookSpeed: 2}, math.TransformCreate())
	assert.Equal(t, float32(10), custom.Config.MoveSpeed)
	assert.Equal(t, float32(2), custom.Config.LookSpeed)
}

func TestMoveTranslatesAlongYaw(t *testing.T) {
	tests := []struct {
		name  string
		yaw   float32
		input MovementInput
		want  mgl32.Vec3
	}{
		{"forward", 0, MovementInput{Forward: true}, mgl32.Vec3{0, 0, 3}},
		{"backward", 0, MovementInput{Backward: true}, mgl32.Vec3{0, 0, -3}},
		{"right", 0, MovementInput{Right: true}, mgl32.Vec3{3, 0, 0}},
		{"up is negative y", 0, MovementInput{Up: true}, mgl32.Vec3{0, -3, 0}},
		{"forward turned", math32.Pi / 2, MovementInput{Forward: true}, mgl32.Vec3{3, 0, 0}},
		{"opposing keys cancel", 0, MovementInput{Left: true, Right: true}, mgl32.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := newTestCameraSystem()
			cs.Viewer.SetRotation(mgl32.Vec3{0, tt.yaw, 0})
			cs.Move(tt.input, 1)
			assert.InDeltaSlice(t, tt.want[:], cs.Viewer.Translation[:], 1e-5)
		})
	}
}

func TestMoveDiagonalIsNormalized(t *testing.T) {
	cs := newTestCameraSystem()
	cs.Move(MovementInput{Forward: true, Right: true}, 1)
	assert.InDelta(t, 3, cs.Viewer.Translation.Len(), 1e-5)
}

func TestMoveClampsPitch(t *testing.T) {
	cs := newTestCameraSystem()
	for i := 0; i < 10; i++ {
		cs.Move(MovementInput{LookUp: true}, 1)
	}
	assert.Equal(t, float32(1.5), cs.Viewer.Rotation[0])

	for i := 0; i < 10; i++ {
		cs.Move(MovementInput{LookDown: true}, 1)
	}
	assert.Equal(t, float32(-1.5), cs.Viewer.Rotation[0])
}

func TestMoveWrapsYaw(t *testing.T) {
	cs := newTestCameraSystem()
	cs.Viewer.SetRotation(mgl32.Vec3{0, 2*math32.Pi - 0.5, 0})
	cs.Move(MovementInput{LookRight: true}, 1)
	assert.InDelta(t, 1.0, cs.Viewer.Rotation[1], 1e-4)
}

func TestUpdateFollowsViewer(t *testing.T) {
	cs := newTestCameraSystem()
	cs.Viewer.SetPosition(mgl32.Vec3{0, -1, -3})
	camera := components.NewCamera()

	cs.Update(camera, 4.0/3.0)
	want := components.NewCamera()
	want.SetViewYXZ(mgl32.Vec3{0, -1, -3}, mgl32.Vec3{})
	want.SetPerspectiveProjection(cs.Config.FovY, 4.0/3.0, 0.1, 100)
	assert.Equal(t, want.View(), camera.View())
	assert.Equal(t, want.Projection(), camera.Projection())

	// A minimized window keeps the last projection.
	cs.Update(camera, 0)
	assert.Equal(t, want.Projection(), camera.Projection())
}
