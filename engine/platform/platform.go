package platform

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/systems"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform is the glfw window the renderer presents to. It provides the
// Vulkan surface and reports framebuffer size changes.
type Platform struct {
	Window *glfw.Window

	resized bool
}

func New() (*Platform, error) {
	return &Platform{}, nil
}

func (p *Platform) Startup(applicationName string, x, y, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errors.New("glfw reports no Vulkan loader")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		return errors.Wrap(err, "failed to create window")
	}
	p.Window = window

	p.Window.SetKeyCallback(keyCallback)
	p.Window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		p.resized = true
	})
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	core.LogInfo("Window created: %dx%d", width, height)
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

func (p *Platform) ShouldClose() bool {
	return p.Window.ShouldClose()
}

func (p *Platform) RequestClose() {
	p.Window.SetShouldClose(true)
	glfw.PostEmptyEvent()
}

// Time is the seconds since glfw was initialized.
func (p *Platform) Time() float64 {
	return glfw.GetTime()
}

func (p *Platform) GetInstanceProcAddress() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (p *Platform) RequiredInstanceExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func (p *Platform) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "failed to create window surface")
	}
	return vk.SurfaceFromPointer(surface), nil
}

func (p *Platform) FramebufferExtent() (uint32, uint32) {
	width, height := p.Window.GetFramebufferSize()
	return uint32(width), uint32(height)
}

func (p *Platform) WasResized() bool {
	return p.resized
}

func (p *Platform) ResetResized() {
	p.resized = false
}

func (p *Platform) WaitEvents() {
	glfw.WaitEvents()
}

// Movement samples the viewer keys: WASD to move, E and Q for up and down, and
// the arrow keys to look around.
func (p *Platform) Movement() systems.MovementInput {
	down := func(key glfw.Key) bool {
		return p.Window.GetKey(key) == glfw.Press
	}
	return systems.MovementInput{
		Left:      down(glfw.KeyA),
		Right:     down(glfw.KeyD),
		Forward:   down(glfw.KeyW),
		Backward:  down(glfw.KeyS),
		Up:        down(glfw.KeyE),
		Down:      down(glfw.KeyQ),
		LookLeft:  down(glfw.KeyLeft),
		LookRight: down(glfw.KeyRight),
		LookUp:    down(glfw.KeyUp),
		LookDown:  down(glfw.KeyDown),
	}
}

func keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}
