package render

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/renderloop/driver"
)

// SwapchainState is one generation of the swapchain together with every
// object whose size or format depends on it. It is built whole and
// destroyed whole; nothing in it is patched in place.
type SwapchainState struct {
	swapchain   driver.Swapchain
	images      []driver.Image
	format      driver.SurfaceFormat
	extent      driver.Extent
	presentMode driver.PresentMode
	generation  int

	imageViews     []driver.ImageView
	depthFormat    driver.Format
	depthImage     driver.OwnedImage
	depthView      driver.ImageView
	renderPass     driver.RenderPass
	pipeline       driver.Pipeline
	framebuffers   []driver.Framebuffer
	frameResources driver.Destroyer
	commandBuffers []driver.CommandBuffer
}

func (s *SwapchainState) Swapchain() driver.Swapchain     { return s.swapchain }
func (s *SwapchainState) Format() driver.Format           { return s.format.Format }
func (s *SwapchainState) ColorSpace() driver.ColorSpace   { return s.format.ColorSpace }
func (s *SwapchainState) Extent() driver.Extent           { return s.extent }
func (s *SwapchainState) PresentMode() driver.PresentMode { return s.presentMode }
func (s *SwapchainState) ImageCount() int                 { return len(s.images) }
func (s *SwapchainState) DepthFormat() driver.Format      { return s.depthFormat }
func (s *SwapchainState) RenderPass() driver.RenderPass   { return s.renderPass }
func (s *SwapchainState) Pipeline() driver.Pipeline       { return s.pipeline }
func (s *SwapchainState) Generation() int                 { return s.generation }
func (s *SwapchainState) CommandBuffer(imageIndex int) driver.CommandBuffer {
	return s.commandBuffers[imageIndex]
}

func (s *SwapchainState) target() RenderTarget {
	return RenderTarget{
		RenderPass:  s.renderPass,
		Extent:      s.extent,
		ColorFormat: s.format.Format,
		DepthFormat: s.depthFormat,
		ImageCount:  len(s.images),
	}
}

// SwapchainManager owns the current SwapchainState and rebuilds it on
// demand. The device, surface and command pool it builds with are borrowed.
type SwapchainManager struct {
	cfg       Config
	physical  PhysicalDeviceChoice
	device    driver.Device
	surface   driver.Surface
	pool      driver.CommandPool
	pipelines PipelineStrategy
	resources ResourceStrategy

	depthFormat driver.Format
	state       *SwapchainState
	generation  int
}

// NewSwapchainManager prepares a manager. No swapchain exists until Create
// is called.
func NewSwapchainManager(cfg Config, physical PhysicalDeviceChoice, device driver.Device, surface driver.Surface, pool driver.CommandPool, pipelines PipelineStrategy, resources ResourceStrategy) (*SwapchainManager, error) {
	m := &SwapchainManager{
		cfg:         cfg,
		physical:    physical,
		device:      device,
		surface:     surface,
		pool:        pool,
		pipelines:   pipelines,
		resources:   resources,
		depthFormat: driver.FormatUndefined,
	}

	if cfg.Depth {
		var err error
		m.depthFormat, err = ChooseDepthFormat(cfg.DepthFormats, physical.Device.SupportsDepthAttachment)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// State returns the current generation, or nil before Create.
func (m *SwapchainManager) State() *SwapchainState {
	return m.state
}

// Create builds a swapchain sized for a window whose drawable area is
// drawable. The previous generation, if any, must already be destroyed.
func (m *SwapchainManager) Create(drawable driver.Extent) (*SwapchainState, error) {
	if m.state != nil {
		return nil, errors.New("create swapchain: previous swapchain not destroyed")
	}

	m.generation++
	state := &SwapchainState{generation: m.generation, depthFormat: m.depthFormat}

	err := m.build(state, drawable)
	if err != nil {
		m.destroyState(state)
		return nil, err
	}

	m.state = state
	Logger().Info("swapchain created",
		"generation", state.generation,
		"extent", state.extent.String(),
		"format", state.format.Format.String(),
		"colorSpace", state.format.ColorSpace.String(),
		"presentMode", state.presentMode.String(),
		"images", len(state.images))
	return state, nil
}

func (m *SwapchainManager) build(state *SwapchainState, drawable driver.Extent) error {
	support, err := m.physical.Device.SurfaceSupport(m.surface)
	if err != nil {
		return errors.Wrap(err, "query swapchain support")
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return errors.New("query swapchain support: surface reports no formats or present modes")
	}

	state.format = ChooseSurfaceFormat(support.Formats)
	state.presentMode = ChoosePresentMode(support.PresentModes)
	state.extent = ChooseExtent(support.Capabilities, drawable)

	state.swapchain, err = m.device.CreateSwapchain(driver.SwapchainCreateInfo{
		Surface:       m.surface,
		MinImageCount: ChooseImageCount(support.Capabilities),
		Format:        state.format,
		Extent:        state.extent,
		PresentMode:   state.presentMode,
		QueueFamilies: ChooseSharing(m.physical.Families),
		Transform:     support.Capabilities.CurrentTransform,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}

	state.images, err = state.swapchain.Images()
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}

	for _, image := range state.images {
		view, err := m.device.CreateImageView(image, state.format.Format, driver.AspectColor)
		if err != nil {
			return errors.Wrap(err, "create swapchain image view")
		}
		state.imageViews = append(state.imageViews, view)
	}

	if state.depthFormat != driver.FormatUndefined {
		state.depthImage, err = m.device.CreateDepthImage(state.depthFormat, state.extent)
		if err != nil {
			return errors.Wrap(err, "create depth image")
		}
		state.depthView, err = m.device.CreateImageView(state.depthImage, state.depthFormat, driver.AspectDepth)
		if err != nil {
			return errors.Wrap(err, "create depth image view")
		}
	}

	state.renderPass, err = m.device.CreateRenderPass(state.format.Format, state.depthFormat)
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}

	state.pipeline, err = m.pipelines.BuildPipeline(m.device, state.target())
	if err != nil {
		return errors.Wrap(err, "build graphics pipeline")
	}

	for _, view := range state.imageViews {
		attachments := []driver.ImageView{view}
		if state.depthView != nil {
			attachments = append(attachments, state.depthView)
		}
		framebuffer, err := m.device.CreateFramebuffer(state.renderPass, attachments, state.extent)
		if err != nil {
			return errors.Wrap(err, "create framebuffer")
		}
		state.framebuffers = append(state.framebuffers, framebuffer)
	}

	state.frameResources, err = m.resources.PrepareFrames(m.device, state.target())
	if err != nil {
		return errors.Wrap(err, "prepare frame resources")
	}

	return m.recordCommandBuffers(state)
}

func (m *SwapchainManager) recordCommandBuffers(state *SwapchainState) error {
	buffers, err := m.pool.Allocate(len(state.framebuffers))
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}
	state.commandBuffers = buffers

	clearValues := driver.ClearValues{Color: m.cfg.ClearColor, Depth: 1.0}
	for bufferIdx, buffer := range buffers {
		err = buffer.Begin()
		if err != nil {
			return errors.Wrapf(err, "begin command buffer %d", bufferIdx)
		}

		err = buffer.BeginRenderPass(state.renderPass, state.framebuffers[bufferIdx], state.extent, clearValues)
		if err != nil {
			return errors.Wrapf(err, "begin render pass %d", bufferIdx)
		}

		buffer.BindPipeline(state.pipeline)
		err = m.resources.Record(buffer, FrameTarget{
			ImageIndex: bufferIdx,
			Pipeline:   state.pipeline,
			Target:     state.target(),
		})
		if err != nil {
			return errors.Wrapf(err, "record draw commands %d", bufferIdx)
		}
		buffer.EndRenderPass()

		err = buffer.End()
		if err != nil {
			return errors.Wrapf(err, "end command buffer %d", bufferIdx)
		}
	}

	return nil
}

// Destroy releases the current generation. The device must be idle.
func (m *SwapchainManager) Destroy() {
	if m.state == nil {
		return
	}
	m.destroyState(m.state)
	m.state = nil
}

// destroyState tears down state in the reverse of build order. It tolerates
// a partially built state.
func (m *SwapchainManager) destroyState(state *SwapchainState) {
	if len(state.commandBuffers) > 0 {
		m.pool.Free(state.commandBuffers)
		state.commandBuffers = nil
	}

	if state.frameResources != nil {
		state.frameResources.Destroy()
		state.frameResources = nil
	}

	for _, framebuffer := range state.framebuffers {
		framebuffer.Destroy()
	}
	state.framebuffers = nil

	if state.pipeline != nil {
		state.pipeline.Destroy()
		state.pipeline = nil
	}

	if state.renderPass != nil {
		state.renderPass.Destroy()
		state.renderPass = nil
	}

	if state.depthView != nil {
		state.depthView.Destroy()
		state.depthView = nil
	}

	if state.depthImage != nil {
		state.depthImage.Destroy()
		state.depthImage = nil
	}

	for _, view := range state.imageViews {
		view.Destroy()
	}
	state.imageViews = nil

	if state.swapchain != nil {
		state.swapchain.Destroy()
		state.swapchain = nil
	}
	state.images = nil
}

// Recreate waits for the device to go idle, destroys the current generation
// and builds a new one against drawable. The swapchain handle is replaced,
// never reused.
func (m *SwapchainManager) Recreate(drawable driver.Extent) (*SwapchainState, error) {
	err := m.device.WaitIdle()
	if err != nil {
		return nil, errors.Wrap(err, "recreate swapchain: wait for device idle")
	}

	previous := 0
	if m.state != nil {
		previous = m.state.generation
	}
	m.Destroy()

	state, err := m.Create(drawable)
	if err != nil {
		return nil, errors.Wrap(err, "recreate swapchain")
	}

	Logger().Debug("swapchain recreated", "from", previous, "to", state.generation)
	return state, nil
}
