package testbed

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/phm/engine"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/math"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
	"github.com/spaghettifunk/phm/engine/scene"
)

var lightColors = []mgl32.Vec3{
	{1, .1, .1},
	{.1, .1, 1},
	{.1, 1, .1},
	{1, 1, .1},
	{.1, 1, 1},
	{1, 1, 1},
}

type TestGame struct {
	*engine.Game
}

type gameState struct {
	cube    *scene.Mesh
	floor   *scene.Mesh
	frustum *scene.Mesh

	spinner scene.Entity
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

// Initialize builds a lit cube on a floor, a ring of orbiting lights and the
// outline of a second camera's frustum.
func (g *TestGame) Initialize(device vulkan.Device, world *scene.World, viewer *math.Transform) error {
	s := g.state()
	var err error
	if s.cube, err = scene.NewMesh(device, "cube", scene.CubeMesh(mgl32.Vec3{})); err != nil {
		return errors.Wrap(err, "failed to create cube")
	}
	if s.floor, err = scene.NewMesh(device, "floor", scene.QuadMesh(3, mgl32.Vec3{.6, .6, .6})); err != nil {
		return errors.Wrap(err, "failed to create floor")
	}
	cam := g.ApplicationConfig.Camera
	if s.frustum, err = scene.NewMesh(device, "frustum", scene.FrustumMesh(mgl32.DegToRad(cam.FovY), 4.0/3.0, cam.Near, 1.5)); err != nil {
		return errors.Wrap(err, "failed to create frustum")
	}

	viewer.SetPosition(mgl32.Vec3{0, -0.5, -2.5})

	s.spinner = world.Spawn()
	if err := world.SetModel(s.spinner, s.cube); err != nil {
		return err
	}
	t, _ := world.Transform(s.spinner)
	t.SetPosition(mgl32.Vec3{0, -0.25, 0})
	t.SetScale(mgl32.Vec3{0.5, 0.5, 0.5})

	floor := world.Spawn()
	if err := world.SetModel(floor, s.floor); err != nil {
		return err
	}

	outline := world.Spawn()
	if err := world.SetModel(outline, s.frustum); err != nil {
		return err
	}
	if err := world.SetWireframe(outline, true); err != nil {
		return err
	}
	t, _ = world.Transform(outline)
	t.SetPosition(mgl32.Vec3{1.5, -0.5, -1})
	t.SetRotation(mgl32.Vec3{0, -0.6, 0})

	for i, color := range lightColors {
		e := world.Spawn()
		if err := world.AddPointLight(e, scene.NewPointLight(color, 0.2, 0.1)); err != nil {
			return err
		}
		if err := world.AddFunction(e, scene.Orbit(i, len(lightColors), 1, 0.5)); err != nil {
			return err
		}
		t, _ := world.Transform(e)
		t.SetPosition(mgl32.Vec3{0, -1, 0})
	}

	core.LogInfo("Scene ready: %d entities", world.Len())
	return nil
}

func (g *TestGame) Update(world *scene.World, clock *core.FrameClock) error {
	t, err := world.Transform(g.state().spinner)
	if err != nil {
		return err
	}
	t.Rotate(mgl32.Vec3{0, 0.5 * clock.Delta(), 0})
	return nil
}

// Shutdown drops the game's own references; the world drops the rest.
func (g *TestGame) Shutdown() error {
	s := g.state()
	for _, m := range []*scene.Mesh{s.cube, s.floor, s.frustum} {
		if m != nil {
			m.Release()
		}
	}
	return nil
}
