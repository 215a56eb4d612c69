package scene

import (
	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/math"
	"github.com/spaghettifunk/phm/engine/renderer/metadata"
)

// World owns every entity and its components. Every live entity has a
// transform; the other components are optional.
type World struct {
	generations []uint32
	alive       []bool
	free        []uint32
	count       int

	transforms store[*math.Transform]
	models     store[*Mesh]
	wireframes store[struct{}]
	lights     store[PointLight]
	functions  store[Function]

	// deferrer receives mesh buffers freed while frames may be in flight.
	deferrer Deferrer
}

func NewWorld() *World {
	return &World{}
}

// SetDeferrer routes the destruction of meshes whose last reference the world
// drops through d. With none set they are destroyed at once.
func (w *World) SetDeferrer(d Deferrer) {
	w.deferrer = d
}

// Spawn creates an entity with an identity transform.
func (w *World) Spawn() Entity {
	var index uint32
	if n := len(w.free); n > 0 {
		index = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		index = uint32(len(w.generations))
		w.generations = append(w.generations, 0)
		w.alive = append(w.alive, false)
	}
	w.generations[index]++
	w.alive[index] = true
	w.count++
	w.transforms.set(index, math.TransformCreate())
	return Entity{index: index, generation: w.generations[index]}
}

// Despawn removes e and drops its reference on its mesh. The index is reused
// by a later Spawn with a new generation.
func (w *World) Despawn(e Entity) error {
	if !w.IsAlive(e) {
		return errors.Wrapf(core.ErrInvalidHandle, "despawn %s", e)
	}
	w.transforms.remove(e.index)
	if mesh, ok := w.models.remove(e.index); ok {
		mesh.ReleaseTo(w.deferrer)
	}
	w.wireframes.remove(e.index)
	w.lights.remove(e.index)
	w.functions.remove(e.index)
	w.alive[e.index] = false
	w.free = append(w.free, e.index)
	w.count--
	return nil
}

func (w *World) IsAlive(e Entity) bool {
	return int(e.index) < len(w.generations) && w.alive[e.index] && w.generations[e.index] == e.generation
}

// Len is the number of live entities.
func (w *World) Len() int {
	return w.count
}

func (w *World) Transform(e Entity) (*math.Transform, error) {
	if !w.IsAlive(e) {
		return nil, errors.Wrapf(core.ErrInvalidHandle, "transform of %s", e)
	}
	t, _ := w.transforms.get(e.index)
	return t, nil
}

// SetModel attaches mesh to e, taking a reference. A previously attached mesh
// is released.
func (w *World) SetModel(e Entity, mesh *Mesh) error {
	if !w.IsAlive(e) {
		return errors.Wrapf(core.ErrInvalidHandle, "set model of %s", e)
	}
	mesh.Acquire()
	if old, ok := w.models.get(e.index); ok {
		old.ReleaseTo(w.deferrer)
	}
	w.models.set(e.index, mesh)
	return nil
}

func (w *World) Model(e Entity) (*Mesh, bool) {
	if !w.IsAlive(e) {
		return nil, false
	}
	return w.models.get(e.index)
}

func (w *World) AddPointLight(e Entity, light PointLight) error {
	if !w.IsAlive(e) {
		return errors.Wrapf(core.ErrInvalidHandle, "add point light to %s", e)
	}
	w.lights.set(e.index, light)
	return nil
}

func (w *World) PointLight(e Entity) (PointLight, bool) {
	if !w.IsAlive(e) {
		return PointLight{}, false
	}
	return w.lights.get(e.index)
}

func (w *World) AddFunction(e Entity, fn Function) error {
	if !w.IsAlive(e) {
		return errors.Wrapf(core.ErrInvalidHandle, "add function to %s", e)
	}
	w.functions.set(e.index, fn)
	return nil
}

func (w *World) entity(index uint32) Entity {
	return Entity{index: index, generation: w.generations[index]}
}

// Update runs every function component in entity order.
func (w *World) Update(clock *core.FrameClock) {
	for i := range w.alive {
		if !w.alive[i] {
			continue
		}
		if fn, ok := w.functions.get(uint32(i)); ok {
			fn(w, w.entity(uint32(i)), clock)
		}
	}
}

// SetWireframe moves e's mesh from the shaded pass to the line pass.
func (w *World) SetWireframe(e Entity, wireframe bool) error {
	if !w.IsAlive(e) {
		return errors.Wrapf(core.ErrInvalidHandle, "set wireframe of %s", e)
	}
	if wireframe {
		w.wireframes.set(e.index, struct{}{})
	} else {
		w.wireframes.remove(e.index)
	}
	return nil
}

// EachModel visits every live entity that has a shaded mesh.
func (w *World) EachModel(visit func(e Entity, transform *math.Transform, mesh *Mesh)) {
	w.eachMesh(false, visit)
}

// EachWireframe visits every live entity whose mesh is drawn as lines.
func (w *World) EachWireframe(visit func(e Entity, transform *math.Transform, mesh *Mesh)) {
	w.eachMesh(true, visit)
}

func (w *World) eachMesh(wireframe bool, visit func(e Entity, transform *math.Transform, mesh *Mesh)) {
	for i := range w.alive {
		if !w.alive[i] {
			continue
		}
		mesh, ok := w.models.get(uint32(i))
		if !ok {
			continue
		}
		if _, isWire := w.wireframes.get(uint32(i)); isWire != wireframe {
			continue
		}
		t, _ := w.transforms.get(uint32(i))
		visit(w.entity(uint32(i)), t, mesh)
	}
}

// CollectPointLights replaces the lights in ubo with every point light in the
// world, positioned at its entity's translation. It fails on the first light
// past metadata.MaxLights.
func (w *World) CollectPointLights(ubo *metadata.GlobalUniformObject) error {
	ubo.ClearPointLights()
	for i := range w.alive {
		if !w.alive[i] {
			continue
		}
		light, ok := w.lights.get(uint32(i))
		if !ok {
			continue
		}
		t, _ := w.transforms.get(uint32(i))
		if err := ubo.AddPointLight(t.Translation, light.Radius, light.Color, light.Intensity); err != nil {
			return errors.Wrapf(err, "collecting %s", w.entity(uint32(i)))
		}
	}
	return nil
}

// Clear despawns everything, releasing every mesh reference.
func (w *World) Clear() {
	for i := range w.alive {
		if w.alive[i] {
			_ = w.Despawn(w.entity(uint32(i)))
		}
	}
}
