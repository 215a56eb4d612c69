package engine

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/spaghettifunk/phm/engine/assets"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/engine/math"
	"github.com/spaghettifunk/phm/engine/platform"
	"github.com/spaghettifunk/phm/engine/renderer/vulkan"
	"github.com/spaghettifunk/phm/engine/scene"
	"github.com/spaghettifunk/phm/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every resource
	EngineStageShutdown
)

// shaderNames lists every binary the draw systems load at startup.
var shaderNames = []string{
	"simple_shader.vert.spv", "simple_shader.frag.spv",
	"point_light.vert.spv", "point_light.frag.spv",
	"frustum_shader.vert.spv", "frustum_shader.frag.spv",
}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *ApplicationConfig

	platform     *platform.Platform
	assetManager *assets.AssetManager
	context      *vulkan.VulkanContext
	frames       *frameDriver
	world        *scene.World
	viewer       *math.Transform
	clock        *core.FrameClock
	metrics      *core.FrameMetrics
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = DefaultApplicationConfig()
	}
	if err := core.SetLogLevel(g.ApplicationConfig.LogLevel); err != nil {
		return nil, err
	}

	p, err := platform.New()
	if err != nil {
		return nil, err
	}
	am, err := assets.NewAssetManager()
	if err != nil {
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       g.ApplicationConfig,
		platform:     p,
		assetManager: am,
		world:        scene.NewWorld(),
		viewer:       math.TransformCreate(),
		clock:        core.NewFrameClock(),
		metrics:      core.NewFrameMetrics(),
	}, nil
}

// Initialize opens the window, brings up Vulkan and the draw systems and lets
// the game build its scene.
func (e *Engine) Initialize(ctx context.Context) error {
	e.currentStage = EngineStageInitializing
	cfg := e.config

	if err := e.platform.Startup(cfg.Name, cfg.StartPosX, cfg.StartPosY, cfg.StartWidth, cfg.StartHeight); err != nil {
		return err
	}

	if err := e.assetManager.Initialize(cfg.AssetDir); err != nil {
		return err
	}
	if err := e.assetManager.Preload(ctx, shaderNames...); err != nil {
		return errors.Wrap(err, "failed to load shaders")
	}

	vctx, err := vulkan.NewContext(e.platform, vulkan.VulkanContextConfig{
		ApplicationName:  cfg.Name,
		EnableValidation: cfg.EnableValidation,
		RequireDiscrete:  cfg.RequireDiscrete,
	})
	if err != nil {
		return err
	}
	e.context = vctx

	cameraSystem := systems.NewCameraSystem(systems.CameraSystemConfig{
		FovY:      mgl32.DegToRad(cfg.Camera.FovY),
		Near:      cfg.Camera.Near,
		Far:       cfg.Camera.Far,
		MoveSpeed: cfg.Camera.MoveSpeed,
		LookSpeed: cfg.Camera.LookSpeed,
	}, e.viewer)
	frames, err := newFrameDriver(vctx.Device, e.platform, e.assetManager, e.world, cameraSystem)
	if err != nil {
		return err
	}
	if cfg.HotReload {
		frames.reloads = e.assetManager.Changed()
	}
	frames.update = e.gameInstance.FnUpdate
	e.frames = frames

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(vctx.Device, e.world, e.viewer); err != nil {
			return errors.Wrap(err, "game initialization failed")
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives frames until the window closes, ctx is canceled or a signal
// arrives. Any error aborts the loop; invariant violations are logged as such.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return errors.AssertionFailedf("engine run in stage %d", e.currentStage)
	}
	e.currentStage = EngineStageRunning

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			// The empty event posted by RequestClose also ends a wait on a
			// minimized window, which then sees the close request.
			e.platform.RequestClose()
		case <-done:
		}
	}()
	defer func() {
		close(done)
		<-watcherDone
		stop()
	}()

	e.clock.Start()
	for !e.platform.ShouldClose() {
		e.platform.PumpMessages()
		frameStart := hrtime.Now()
		e.clock.Tick()

		if err := e.frames.drawFrame(e.clock, e.platform.Movement()); err != nil {
			if errors.Is(err, core.ErrWindowClosed) {
				break
			}
			if core.IsInvariantViolation(err) {
				core.LogError("Frame invariant violated: %+v", err)
			}
			return err
		}

		if e.metrics.Update(hrtime.Since(frameStart).Seconds()) {
			core.LogDebug("FPS %.0f, frame %.2f ms", e.metrics.FPS(), e.metrics.FrameTime())
		}
	}
	e.clock.Stop()
	core.LogInfo("Window closed after %d frames", e.frames.renderer.FrameCount())
	return nil
}

// Shutdown tears everything down in reverse order. It is safe to call after
// a failed Initialize.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var result error
	if e.context != nil {
		if err := e.context.Device.WaitIdle(); err != nil {
			result = errors.CombineErrors(result, err)
		}
	}
	if e.gameInstance.FnShutdown != nil {
		result = errors.CombineErrors(result, e.gameInstance.FnShutdown())
	}
	e.world.Clear()
	if e.frames != nil {
		e.frames.shutdown()
		e.frames = nil
	}
	if e.context != nil {
		e.context.Destroy()
		e.context = nil
	}
	result = errors.CombineErrors(result, e.assetManager.Close())
	result = errors.CombineErrors(result, e.platform.Shutdown())

	e.currentStage = EngineStageShutdown
	return result
}
