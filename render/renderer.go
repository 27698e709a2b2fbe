package render

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/vkngwrapper/renderloop/driver"
)

// Window is the part of the windowing system the renderer reads from.
type Window interface {
	// DrawableSize is the current size of the drawable area in pixels. It
	// is zero while the window is minimized.
	DrawableSize() driver.Extent
}

// Stats are running counters kept by a Renderer.
type Stats struct {
	FramesSubmitted int
	FramesPresented int
	Recreations     int
	Cursor          int
}

// Renderer drives the acquire, submit and present loop for one window. It
// must only be used from the goroutine that created it.
type Renderer struct {
	id     uuid.UUID
	cfg    Config
	log    *slog.Logger
	window Window

	instance  driver.Instance
	surface   driver.Surface
	physical  PhysicalDeviceChoice
	device    driver.Device
	pool      driver.CommandPool
	resources ResourceStrategy
	resSetup  bool

	swapchains *SwapchainManager
	frames     *FrameSynchronizer

	// imagesInFlight holds, per swapchain image, the fence of the last
	// submission that used it, so a second slot never updates or resubmits
	// an image the GPU is still reading.
	imagesInFlight []driver.Fence

	resizePending bool
	state         State
	stats         Stats
	closed        bool
}

// New selects a device and builds everything needed to draw the first
// frame. The renderer takes ownership of instance and surface: they are
// destroyed by Shutdown, or before New returns if it fails.
func New(cfg Config, instance driver.Instance, surface driver.Surface, window Window, pipelines PipelineStrategy, resources ResourceStrategy) (*Renderer, error) {
	r := &Renderer{
		id:        uuid.New(),
		cfg:       cfg,
		window:    window,
		instance:  instance,
		surface:   surface,
		resources: resources,
	}
	r.log = Logger().With("renderer", r.id.String())

	err := r.init(pipelines)
	if err != nil {
		r.teardown()
		return nil, err
	}

	r.log.Info("renderer ready",
		"device", r.physical.Name,
		"framesInFlight", r.frames.Len(),
		"images", r.swapchains.State().ImageCount())
	return r, nil
}

func (r *Renderer) init(pipelines PipelineStrategy) error {
	err := r.cfg.Validate()
	if err != nil {
		return err
	}

	r.physical, err = SelectDevice(r.instance, r.surface, r.cfg.DeviceExtensions)
	if err != nil {
		return err
	}

	r.device, err = r.physical.Device.CreateDevice(driver.DeviceCreateInfo{
		GraphicsFamily: r.physical.Families.Graphics,
		PresentFamily:  r.physical.Families.Present,
		Extensions:     r.cfg.DeviceExtensions,
	})
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}

	r.pool, err = r.device.CreateCommandPool(r.physical.Families.Graphics)
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	err = r.resources.Setup(r.device, r.pool)
	if err != nil {
		return errors.Wrap(err, "set up resources")
	}
	r.resSetup = true

	r.swapchains, err = NewSwapchainManager(r.cfg, r.physical, r.device, r.surface, r.pool, pipelines, r.resources)
	if err != nil {
		return err
	}

	state, err := r.swapchains.Create(r.window.DrawableSize())
	if err != nil {
		return err
	}
	r.imagesInFlight = make([]driver.Fence, state.ImageCount())

	r.frames, err = NewFrameSynchronizer(r.device, r.cfg.MaxFramesInFlight)
	return err
}

// ID identifies the renderer in log output.
func (r *Renderer) ID() uuid.UUID { return r.id }

// State is the state-machine step the renderer is in. Between calls to
// DrawFrame it is StateIdle.
func (r *Renderer) State() State { return r.state }

// Stats returns the running counters and the current frame slot.
func (r *Renderer) Stats() Stats {
	s := r.stats
	if r.frames != nil {
		s.Cursor = r.frames.Cursor()
	}
	return s
}

// Swapchain returns the current swapchain generation.
func (r *Renderer) Swapchain() *SwapchainState {
	return r.swapchains.State()
}

// Device returns the physical device the renderer selected.
func (r *Renderer) Device() PhysicalDeviceChoice {
	return r.physical
}

// ResizePending reports whether the next DrawFrame will rebuild the
// swapchain before drawing.
func (r *Renderer) ResizePending() bool {
	return r.resizePending
}

// NotifyResized tells the renderer the window's drawable size changed. The
// swapchain is rebuilt at the start of the next DrawFrame.
func (r *Renderer) NotifyResized() {
	r.resizePending = true
}

func (r *Renderer) fail(stage State, err error) error {
	r.state = StateIdle
	return &FrameError{Stage: stage, Err: err}
}

// recreate rebuilds the swapchain if the window has a drawable area. While
// the window is minimized it does nothing and leaves the resize pending.
func (r *Renderer) recreate() error {
	drawable := r.window.DrawableSize()
	if drawable.Empty() {
		r.log.Debug("window has no drawable area, deferring swapchain recreation")
		r.state = StateIdle
		return nil
	}

	r.state = StateRecreating
	state, err := r.swapchains.Recreate(drawable)
	if err != nil {
		return r.fail(StateRecreating, err)
	}

	r.imagesInFlight = make([]driver.Fence, state.ImageCount())
	r.resizePending = false
	r.stats.Recreations++
	r.state = StateIdle
	return nil
}

// DrawFrame renders and presents one frame. A stale or resized swapchain is
// rebuilt transparently; only fatal driver errors are returned, as a
// *FrameError.
func (r *Renderer) DrawFrame() error {
	if r.closed {
		return ErrShutdown
	}

	if r.resizePending {
		err := r.recreate()
		if err != nil {
			return err
		}
		if r.resizePending {
			return nil
		}
	}

	slot := r.frames.Current()
	defer r.frames.Step()

	r.state = StateWaiting
	err := r.frames.WaitCurrent()
	if err != nil {
		return r.fail(StateWaiting, errors.Wrap(err, "wait for in-flight fence"))
	}

	r.state = StateAcquiring
	swapchain := r.swapchains.State()
	imageIndex, suboptimal, err := swapchain.Swapchain().AcquireNextImage(slot.ImageAvailable)
	if errors.Is(err, driver.ErrOutOfDate) {
		r.log.Debug("swapchain out of date on acquire", "generation", swapchain.Generation())
		r.resizePending = true
		return r.recreate()
	} else if err != nil {
		return r.fail(StateAcquiring, errors.Wrap(err, "acquire next image"))
	}
	if suboptimal {
		r.log.Debug("swapchain suboptimal on acquire", "generation", swapchain.Generation())
		r.resizePending = true
	}

	r.state = StateRecording
	if inFlight := r.imagesInFlight[imageIndex]; inFlight != nil && inFlight != slot.InFlight {
		err = inFlight.Wait()
		if err != nil {
			return r.fail(StateRecording, errors.Wrapf(err, "wait for image %d", imageIndex))
		}
	}
	r.imagesInFlight[imageIndex] = slot.InFlight

	err = r.resources.Update(imageIndex, swapchain.Extent())
	if err != nil {
		return r.fail(StateRecording, errors.Wrapf(err, "update resources for image %d", imageIndex))
	}

	err = r.frames.ResetCurrent()
	if err != nil {
		return r.fail(StateRecording, errors.Wrap(err, "reset in-flight fence"))
	}

	r.state = StateSubmitting
	err = r.device.Submit(swapchain.CommandBuffer(imageIndex), slot.ImageAvailable, slot.RenderFinished, slot.InFlight)
	if err != nil {
		r.forgetFence(slot.InFlight)
		return r.fail(StateSubmitting, errors.Wrap(err, "submit draw command buffer"))
	}
	r.frames.MarkSubmitted()
	r.stats.FramesSubmitted++

	r.state = StatePresenting
	suboptimal, err = swapchain.Swapchain().Present(imageIndex, slot.RenderFinished)
	if errors.Is(err, driver.ErrOutOfDate) || (err == nil && suboptimal) {
		r.log.Debug("swapchain stale on present", "generation", swapchain.Generation(), "suboptimal", suboptimal)
		r.resizePending = true
	} else if err != nil {
		return r.fail(StatePresenting, errors.Wrap(err, "present"))
	}
	if err == nil {
		r.stats.FramesPresented++
	}

	if r.resizePending {
		return r.recreate()
	}

	r.state = StateIdle
	return nil
}

// forgetFence drops every image's reference to fence, which was reset and
// will not signal until it is submitted again.
func (r *Renderer) forgetFence(fence driver.Fence) {
	for i, f := range r.imagesInFlight {
		if f == fence {
			r.imagesInFlight[i] = nil
		}
	}
}

// Shutdown waits for the device to finish all work and destroys everything
// in reverse order of construction. It is safe to call more than once.
func (r *Renderer) Shutdown() error {
	if r.closed {
		return nil
	}

	var err error
	if r.device != nil {
		err = r.device.WaitIdle()
		if err == nil && r.frames != nil {
			err = r.frames.WaitAll()
		}
	}

	r.teardown()
	r.log.Info("renderer shut down", "frames", r.stats.FramesPresented, "recreations", r.stats.Recreations)
	if err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

func (r *Renderer) teardown() {
	r.closed = true

	if r.frames != nil {
		r.frames.Destroy()
		r.frames = nil
	}

	if r.swapchains != nil {
		r.swapchains.Destroy()
	}
	r.imagesInFlight = nil

	if r.resSetup {
		r.resources.Release()
		r.resSetup = false
	}

	if r.pool != nil {
		r.pool.Destroy()
		r.pool = nil
	}

	if r.device != nil {
		r.device.Destroy()
		r.device = nil
	}

	if r.surface != nil {
		r.surface.Destroy()
		r.surface = nil
	}

	if r.instance != nil {
		r.instance.Destroy()
		r.instance = nil
	}
}
