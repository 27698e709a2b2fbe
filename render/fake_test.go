package render

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/renderloop/driver"
)

// fakeWorld is an in-memory GPU. Submitted work completes when a fence is
// waited on or the device is waited idle, which is the earliest the CPU
// could observe it on real hardware.
type fakeWorld struct {
	events  []string
	live    map[string]int
	nextID  int
	misuse  []string
	fences  []*fakeFence
	devices []*fakeDevice
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{live: map[string]int{}}
}

func (w *fakeWorld) record(format string, args ...any) {
	w.events = append(w.events, fmt.Sprintf(format, args...))
}

// misused notes a sequencing error a real driver would not report.
func (w *fakeWorld) misused(format string, args ...any) {
	w.misuse = append(w.misuse, fmt.Sprintf(format, args...))
}

func (w *fakeWorld) newObject(kind string) fakeObject {
	w.nextID++
	w.live[kind]++
	w.record("create %s", kind)
	return fakeObject{w: w, kind: kind, id: w.nextID}
}

// eventsWithPrefix returns the events starting with prefix, prefix removed.
func (w *fakeWorld) eventsWithPrefix(prefix string) []string {
	var out []string
	for _, e := range w.events {
		if strings.HasPrefix(e, prefix) {
			out = append(out, strings.TrimPrefix(e, prefix))
		}
	}
	return out
}

func (w *fakeWorld) count(event string) int {
	n := 0
	for _, e := range w.events {
		if e == event {
			n++
		}
	}
	return n
}

func (w *fakeWorld) drain() {
	for _, f := range w.fences {
		f.complete()
	}
}

type fakeObject struct {
	w         *fakeWorld
	kind      string
	id        int
	destroyed bool
}

func (o *fakeObject) Destroy() {
	if o.destroyed {
		o.w.misused("double destroy of %s#%d", o.kind, o.id)
		return
	}
	o.destroyed = true
	o.w.live[o.kind]--
	o.w.record("destroy %s", o.kind)
}

type fakeInstance struct {
	fakeObject
	devices []driver.PhysicalDevice
}

func (i *fakeInstance) PhysicalDevices() ([]driver.PhysicalDevice, error) {
	return i.devices, nil
}

type fakeSurface struct {
	fakeObject
}

type fakePhysicalDevice struct {
	w          *fakeWorld
	name       string
	families   []driver.QueueFamily
	present    map[int]bool
	extensions map[string]struct{}
	support    driver.SurfaceSupport
	depth      map[driver.Format]bool
}

func (p *fakePhysicalDevice) Name() string                        { return p.name }
func (p *fakePhysicalDevice) QueueFamilies() []driver.QueueFamily { return p.families }

func (p *fakePhysicalDevice) PresentSupport(surface driver.Surface, family int) (bool, error) {
	return p.present[family], nil
}

func (p *fakePhysicalDevice) Extensions() (map[string]struct{}, error) {
	return p.extensions, nil
}

func (p *fakePhysicalDevice) SurfaceSupport(surface driver.Surface) (driver.SurfaceSupport, error) {
	return p.support, nil
}

func (p *fakePhysicalDevice) SupportsDepthAttachment(format driver.Format) bool {
	return p.depth[format]
}

func (p *fakePhysicalDevice) CreateDevice(info driver.DeviceCreateInfo) (driver.Device, error) {
	d := &fakeDevice{fakeObject: p.w.newObject("device"), info: info}
	p.w.devices = append(p.w.devices, d)
	return d, nil
}

type fakeDevice struct {
	fakeObject
	info       driver.DeviceCreateInfo
	swapchains []*fakeSwapchain
	submitErr  error
}

func (d *fakeDevice) WaitIdle() error {
	d.w.record("wait idle")
	d.w.drain()
	return nil
}

func (d *fakeDevice) CreateSwapchain(info driver.SwapchainCreateInfo) (driver.Swapchain, error) {
	s := &fakeSwapchain{fakeObject: d.w.newObject("swapchain"), info: info, generation: len(d.swapchains) + 1}
	for i := 0; i < info.MinImageCount; i++ {
		s.images = append(s.images, i)
	}
	d.swapchains = append(d.swapchains, s)
	return s, nil
}

func (d *fakeDevice) CreateImageView(image driver.Image, format driver.Format, aspect driver.Aspect) (driver.ImageView, error) {
	kind := "image view"
	if aspect == driver.AspectDepth {
		kind = "depth view"
	}
	o := d.w.newObject(kind)
	return &o, nil
}

func (d *fakeDevice) CreateDepthImage(format driver.Format, extent driver.Extent) (driver.OwnedImage, error) {
	o := d.w.newObject("depth image")
	return &o, nil
}

func (d *fakeDevice) CreateRenderPass(color driver.Format, depth driver.Format) (driver.RenderPass, error) {
	o := d.w.newObject("render pass")
	return &o, nil
}

func (d *fakeDevice) CreateFramebuffer(pass driver.RenderPass, attachments []driver.ImageView, extent driver.Extent) (driver.Framebuffer, error) {
	o := d.w.newObject("framebuffer")
	return &o, nil
}

func (d *fakeDevice) CreateCommandPool(family int) (driver.CommandPool, error) {
	return &fakeCommandPool{fakeObject: d.w.newObject("command pool")}, nil
}

func (d *fakeDevice) CreateSemaphore() (driver.Semaphore, error) {
	return &fakeSemaphore{fakeObject: d.w.newObject("semaphore")}, nil
}

func (d *fakeDevice) CreateFence(signaled bool) (driver.Fence, error) {
	f := &fakeFence{fakeObject: d.w.newObject("fence"), signaled: signaled}
	d.w.fences = append(d.w.fences, f)
	return f, nil
}

func (d *fakeDevice) Submit(cmd driver.CommandBuffer, wait driver.Semaphore, signal driver.Semaphore, fence driver.Fence) error {
	if d.submitErr != nil {
		return d.submitErr
	}

	c := cmd.(*fakeCommandBuffer)
	f := fence.(*fakeFence)
	ws := wait.(*fakeSemaphore)

	if c.freed {
		d.w.misused("submit of freed command buffer %d", c.id)
	}
	if c.fence != nil && c.fence.pending {
		d.w.misused("command buffer %d resubmitted while in flight", c.id)
	}
	if f.signaled || f.pending {
		d.w.misused("submit with fence %d not reset", f.id)
	}
	if !f.waited {
		d.w.misused("fence %d reused without waiting", f.id)
	}
	if !ws.signaled {
		d.w.misused("submit waits on unsignaled semaphore %d", ws.id)
	}

	ws.signaled = false
	signal.(*fakeSemaphore).signaled = true
	f.pending = true
	f.waited = false
	c.fence = f
	c.submits++
	d.w.record("submit cmd %d gen %d image %d", c.id, c.generation, c.image)
	return nil
}

type acquireResult struct {
	suboptimal bool
	err        error
}

type fakeSwapchain struct {
	fakeObject
	info       driver.SwapchainCreateInfo
	generation int
	images     []driver.Image
	next       int
	acquire    []acquireResult
	present    []acquireResult
}

func (s *fakeSwapchain) Images() ([]driver.Image, error) {
	return s.images, nil
}

func (s *fakeSwapchain) AcquireNextImage(signal driver.Semaphore) (int, bool, error) {
	if s.destroyed {
		s.w.misused("acquire on destroyed swapchain")
	}
	s.w.record("acquire gen %d", s.generation)

	var res acquireResult
	if len(s.acquire) > 0 {
		res, s.acquire = s.acquire[0], s.acquire[1:]
	}
	if res.err != nil {
		return 0, false, res.err
	}

	index := s.next
	s.next = (s.next + 1) % len(s.images)
	signal.(*fakeSemaphore).signaled = true
	return index, res.suboptimal, nil
}

func (s *fakeSwapchain) Present(index int, wait driver.Semaphore) (bool, error) {
	if s.destroyed {
		s.w.misused("present on destroyed swapchain")
	}
	ws := wait.(*fakeSemaphore)
	if !ws.signaled {
		s.w.misused("present waits on unsignaled semaphore %d", ws.id)
	}
	ws.signaled = false
	s.w.record("present gen %d image %d", s.generation, index)

	var res acquireResult
	if len(s.present) > 0 {
		res, s.present = s.present[0], s.present[1:]
	}
	return res.suboptimal, res.err
}

type fakeSemaphore struct {
	fakeObject
	signaled bool
}

type fakeFence struct {
	fakeObject
	signaled bool
	pending  bool
	// waited is set once the CPU has observed the fence signaled since
	// its last submission.
	waited bool
	waits  int
}

func (f *fakeFence) complete() {
	if f.pending {
		f.pending = false
		f.signaled = true
	}
}

func (f *fakeFence) Wait() error {
	f.waits++
	f.complete()
	if !f.signaled {
		return errors.Newf("fence %d would never signal", f.id)
	}
	f.waited = true
	f.w.record("wait fence %d", f.id)
	return nil
}

func (f *fakeFence) Reset() error {
	if f.pending {
		f.w.misused("reset of fence %d while in flight", f.id)
	}
	f.signaled = false
	return nil
}

type fakeCommandPool struct {
	fakeObject
	generation int
}

func (p *fakeCommandPool) Allocate(count int) ([]driver.CommandBuffer, error) {
	p.generation++
	var out []driver.CommandBuffer
	for i := 0; i < count; i++ {
		p.w.nextID++
		out = append(out, &fakeCommandBuffer{w: p.w, id: p.w.nextID, generation: p.generation, image: i})
	}
	p.w.live["command buffer"] += count
	p.w.record("allocate %d command buffers", count)
	return out, nil
}

func (p *fakeCommandPool) Free(buffers []driver.CommandBuffer) {
	for _, b := range buffers {
		c := b.(*fakeCommandBuffer)
		if c.fence != nil && c.fence.pending {
			p.w.misused("free of command buffer %d while in flight", c.id)
		}
		c.freed = true
	}
	p.w.live["command buffer"] -= len(buffers)
	p.w.record("free %d command buffers", len(buffers))
}

type fakeCommandBuffer struct {
	w          *fakeWorld
	id         int
	generation int
	image      int
	commands   []string
	fence      *fakeFence
	freed      bool
	submits    int
}

func (c *fakeCommandBuffer) Begin() error {
	if c.fence != nil && c.fence.pending {
		c.w.misused("command buffer %d re-recorded while in flight", c.id)
	}
	c.commands = append(c.commands[:0], "begin")
	return nil
}

func (c *fakeCommandBuffer) BeginRenderPass(pass driver.RenderPass, framebuffer driver.Framebuffer, area driver.Extent, clear driver.ClearValues) error {
	c.commands = append(c.commands, "begin render pass "+area.String())
	return nil
}

func (c *fakeCommandBuffer) BindPipeline(pipeline driver.Pipeline) {
	c.commands = append(c.commands, "bind pipeline")
}

func (c *fakeCommandBuffer) EndRenderPass() {
	c.commands = append(c.commands, "end render pass")
}

func (c *fakeCommandBuffer) End() error {
	c.commands = append(c.commands, "end")
	return nil
}

type fakePipelines struct {
	w      *fakeWorld
	builds []RenderTarget
	err    error
}

func (p *fakePipelines) BuildPipeline(dev driver.Device, target RenderTarget) (driver.Pipeline, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.builds = append(p.builds, target)
	o := p.w.newObject("pipeline")
	return &o, nil
}

type fakeResources struct {
	w        *fakeWorld
	setup    bool
	released bool
	updates  []int
	prepared []RenderTarget
}

func (r *fakeResources) Setup(dev driver.Device, pool driver.CommandPool) error {
	r.setup = true
	r.w.record("resources setup")
	return nil
}

func (r *fakeResources) PrepareFrames(dev driver.Device, target RenderTarget) (driver.Destroyer, error) {
	r.prepared = append(r.prepared, target)
	o := r.w.newObject("frame resources")
	return &o, nil
}

func (r *fakeResources) Record(cmd driver.CommandBuffer, frame FrameTarget) error {
	c := cmd.(*fakeCommandBuffer)
	c.commands = append(c.commands, fmt.Sprintf("draw image %d", frame.ImageIndex))
	return nil
}

func (r *fakeResources) Update(imageIndex int, extent driver.Extent) error {
	r.updates = append(r.updates, imageIndex)
	return nil
}

func (r *fakeResources) Release() {
	r.released = true
	r.w.record("resources release")
}

type fakeWindow struct {
	size driver.Extent
}

func (w *fakeWindow) DrawableSize() driver.Extent {
	return w.size
}

// fakeRig is a fully wired fake environment.
type fakeRig struct {
	w         *fakeWorld
	instance  *fakeInstance
	surface   *fakeSurface
	gpu       *fakePhysicalDevice
	window    *fakeWindow
	pipelines *fakePipelines
	resources *fakeResources
}

func newFakeRig() *fakeRig {
	w := newFakeWorld()
	gpu := &fakePhysicalDevice{
		w:          w,
		name:       "fake gpu",
		families:   []driver.QueueFamily{{Graphics: true, QueueCount: 1}},
		present:    map[int]bool{0: true},
		extensions: map[string]struct{}{SwapchainExtension: {}},
		support: driver.SurfaceSupport{
			Capabilities: driver.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  driver.UndefinedExtent,
				MinImageExtent: driver.Extent{Width: 1, Height: 1},
				MaxImageExtent: driver.Extent{Width: 4096, Height: 4096},
			},
			Formats: []driver.SurfaceFormat{
				{Format: driver.FormatB8G8R8A8SRGB, ColorSpace: driver.ColorSpaceSRGBNonlinear},
				{Format: driver.FormatB8G8R8A8Unorm, ColorSpace: driver.ColorSpaceSRGBNonlinear},
			},
			PresentModes: []driver.PresentMode{driver.PresentModeFIFO, driver.PresentModeMailbox},
		},
		depth: map[driver.Format]bool{driver.FormatD32SignedFloat: true},
	}
	return &fakeRig{
		w:         w,
		instance:  &fakeInstance{fakeObject: w.newObject("instance"), devices: []driver.PhysicalDevice{gpu}},
		surface:   &fakeSurface{fakeObject: w.newObject("surface")},
		gpu:       gpu,
		window:    &fakeWindow{size: driver.Extent{Width: 800, Height: 600}},
		pipelines: &fakePipelines{w: w},
		resources: &fakeResources{w: w},
	}
}

func (r *fakeRig) newRenderer(cfg Config) (*Renderer, error) {
	return New(cfg, r.instance, r.surface, r.window, r.pipelines, r.resources)
}

func (r *fakeRig) device() *fakeDevice {
	return r.w.devices[len(r.w.devices)-1]
}

func (r *fakeRig) swapchain() *fakeSwapchain {
	d := r.device()
	return d.swapchains[len(d.swapchains)-1]
}

func deviceInfo() driver.DeviceCreateInfo {
	return driver.DeviceCreateInfo{Extensions: []string{SwapchainExtension}}
}

// newManager builds a swapchain manager on a fresh device without going
// through a Renderer.
func (r *fakeRig) newManager(cfg Config) (*SwapchainManager, *fakeDevice) {
	dev, _ := r.gpu.CreateDevice(deviceInfo())
	pool, _ := dev.CreateCommandPool(0)
	choice := PhysicalDeviceChoice{Device: r.gpu, Name: r.gpu.name}
	m, err := NewSwapchainManager(cfg, choice, dev, r.surface, pool, r.pipelines, r.resources)
	if err != nil {
		panic(err)
	}
	return m, dev.(*fakeDevice)
}
