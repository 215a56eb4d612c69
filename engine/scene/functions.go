package scene

import (
	"github.com/chewxy/math32"
	"github.com/spaghettifunk/phm/engine/core"
)

// Orbit places the entity on a circle of radius around the Y axis. The
// circle is split evenly between count entities and slot picks this one's
// position; speed is in radians per second.
func Orbit(slot, count int, radius, speed float32) Function {
	step := 2 * math32.Pi / float32(count)
	return func(w *World, e Entity, clock *core.FrameClock) {
		t, err := w.Transform(e)
		if err != nil {
			return
		}
		angle := step*float32(slot) + math32.Mod(float32(clock.Elapsed())*speed, 2*math32.Pi)
		p := t.Translation
		p[0] = radius * math32.Cos(angle)
		p[2] = radius * math32.Sin(angle)
		t.SetPosition(p)
	}
}
