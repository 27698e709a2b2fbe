// Command renderloop opens a resizable SDL window and draws a spinning mesh
// with the render package until the window is closed.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/renderloop/content"
	"github.com/vkngwrapper/renderloop/driver"
	"github.com/vkngwrapper/renderloop/driver/vk"
	"github.com/vkngwrapper/renderloop/internal/fps"
	"github.com/vkngwrapper/renderloop/render"
)

type options struct {
	cfg     render.Config
	content content.Options
	fpsCap  float64
	verbose bool
}

func parseFlags() options {
	opts := options{cfg: render.DefaultConfig()}

	flag.IntVar(&opts.cfg.Width, "width", opts.cfg.Width, "initial window width")
	flag.IntVar(&opts.cfg.Height, "height", opts.cfg.Height, "initial window height")
	flag.IntVar(&opts.cfg.MaxFramesInFlight, "frames", opts.cfg.MaxFramesInFlight, "frames in flight")
	flag.BoolVar(&opts.cfg.EnableValidation, "validation", opts.cfg.EnableValidation, "enable validation layers")
	flag.BoolVar(&opts.cfg.Depth, "depth", opts.cfg.Depth, "use a depth attachment")
	flag.StringVar(&opts.content.MeshPath, "mesh", "", "OBJ mesh to draw instead of the cube")
	flag.StringVar(&opts.content.MaterialPath, "mtl", "", "material library for -mesh")
	flag.Float64Var(&opts.fpsCap, "fps", 0, "frame rate cap, 0 for none")
	flag.BoolVar(&opts.verbose, "v", false, "log debug output")
	flag.Parse()

	return opts
}

// sdlWindow reports the Vulkan drawable size of an SDL window.
type sdlWindow struct {
	window *sdl.Window
}

func (w sdlWindow) DrawableSize() driver.Extent {
	if w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return driver.Extent{}
	}
	width, height := w.window.VulkanGetDrawableSize()
	return driver.Extent{Width: int(width), Height: int(height)}
}

func run(opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	render.SetLogger(logger)

	if err := opts.cfg.Validate(); err != nil {
		return err
	}

	assets, err := content.Load(context.Background(), opts.content)
	if err != nil {
		return errors.Wrap(err, "load content")
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "init sdl")
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow(opts.cfg.AppName, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(opts.cfg.Width), int32(opts.cfg.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	defer window.Destroy()

	global, err := vk.LoadSDL()
	if err != nil {
		return err
	}

	instance, err := vk.NewInstance(global, vk.InstanceOptions{
		AppName:    opts.cfg.AppName,
		Extensions: window.VulkanGetInstanceExtensions(),
		Validation: opts.cfg.EnableValidation,
		Layers:     opts.cfg.ValidationLayers,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	surface, err := vk.NewSDLSurface(instance, window)
	if err != nil {
		instance.Destroy()
		return err
	}

	scene := content.NewScene(assets)
	renderer, err := render.New(opts.cfg, instance, surface, sdlWindow{window: window}, scene, scene)
	if err != nil {
		return err
	}

	loopErr := mainLoop(renderer, opts.fpsCap, logger)
	if err := renderer.Shutdown(); err != nil {
		return errors.CombineErrors(loopErr, err)
	}
	return loopErr
}

func mainLoop(renderer *render.Renderer, fpsCap float64, logger *slog.Logger) error {
	counter := fps.New()
	lastReport := time.Now()
	rendering := true

	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				return nil
			case *sdl.KeyboardEvent:
				if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
					return nil
				}
			case *sdl.WindowEvent:
				switch e.Event {
				case sdl.WINDOWEVENT_MINIMIZED:
					rendering = false
				case sdl.WINDOWEVENT_RESTORED:
					rendering = true
					renderer.NotifyResized()
				case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
					renderer.NotifyResized()
				}
			}
		}

		if !rendering {
			sdl.Delay(10)
			continue
		}

		if err := renderer.DrawFrame(); err != nil {
			return err
		}
		counter.Pace(fpsCap)
		counter.Tick()

		if time.Since(lastReport) >= time.Second {
			stats := renderer.Stats()
			logger.Info("frame rate",
				slog.Float64("fps", counter.FPS()),
				slog.Duration("frame", counter.Delta()),
				slog.Int("presented", stats.FramesPresented),
				slog.Int("recreations", stats.Recreations))
			lastReport = time.Now()
		}
	}
}

func main() {
	runtime.LockOSThread()

	err := run(parseFlags())
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
