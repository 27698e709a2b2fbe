package vk

import (
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/renderloop/driver"
)

// Image is an image that owns its backing memory.
type Image struct {
	device *Device
	handle core1_0.Image
	memory core1_0.DeviceMemory
}

var _ driver.OwnedImage = (*Image)(nil)

func (i *Image) Destroy() {
	if i.handle.Initialized() {
		i.device.driver.DestroyImage(i.handle, nil)
		i.handle = core1_0.Image{}
	}
	if i.memory.Initialized() {
		i.device.driver.FreeMemory(i.memory, nil)
		i.memory = core1_0.DeviceMemory{}
	}
}

type ImageView struct {
	device *Device
	handle core1_0.ImageView
}

func (v *ImageView) Destroy() {
	if v.handle.Initialized() {
		v.device.driver.DestroyImageView(v.handle, nil)
		v.handle = core1_0.ImageView{}
	}
}

type RenderPass struct {
	device *Device
	handle core1_0.RenderPass
}

// Handle is the render pass a pipeline must be built against.
func (p *RenderPass) Handle() core1_0.RenderPass { return p.handle }

func (p *RenderPass) Destroy() {
	if p.handle.Initialized() {
		p.device.driver.DestroyRenderPass(p.handle, nil)
		p.handle = core1_0.RenderPass{}
	}
}

type Framebuffer struct {
	device *Device
	handle core1_0.Framebuffer
}

func (f *Framebuffer) Destroy() {
	if f.handle.Initialized() {
		f.device.driver.DestroyFramebuffer(f.handle, nil)
		f.handle = core1_0.Framebuffer{}
	}
}

type Semaphore struct {
	device *Device
	handle core1_0.Semaphore
}

func (s *Semaphore) Destroy() {
	if s.handle.Initialized() {
		s.device.driver.DestroySemaphore(s.handle, nil)
		s.handle = core1_0.Semaphore{}
	}
}

type Fence struct {
	device *Device
	handle core1_0.Fence
}

func (f *Fence) Wait() error {
	_, err := f.device.driver.WaitForFences(true, common.NoTimeout, f.handle)
	return err
}

func (f *Fence) Reset() error {
	_, err := f.device.driver.ResetFences(f.handle)
	return err
}

func (f *Fence) Destroy() {
	if f.handle.Initialized() {
		f.device.driver.DestroyFence(f.handle, nil)
		f.handle = core1_0.Fence{}
	}
}

// Pipeline is a graphics pipeline and the layout it was built with.
type Pipeline struct {
	device *Device
	layout core1_0.PipelineLayout
	handle core1_0.Pipeline
}

// NewPipeline wraps a pipeline and its layout. Destroy releases both.
func NewPipeline(device *Device, layout core1_0.PipelineLayout, handle core1_0.Pipeline) *Pipeline {
	return &Pipeline{device: device, layout: layout, handle: handle}
}

func (p *Pipeline) Layout() core1_0.PipelineLayout { return p.layout }

func (p *Pipeline) Destroy() {
	if p.handle.Initialized() {
		p.device.driver.DestroyPipeline(p.handle, nil)
		p.handle = core1_0.Pipeline{}
	}
	if p.layout.Initialized() {
		p.device.driver.DestroyPipelineLayout(p.layout, nil)
		p.layout = core1_0.PipelineLayout{}
	}
}
