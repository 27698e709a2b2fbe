// Package driver defines the boundary between the frame loop and a graphics
// API implementation. Every object the loop creates is reached through one of
// the interfaces below, so the loop can be driven by a real Vulkan device or
// by an in-memory fake.
package driver

import "github.com/cockroachdb/errors"

// ErrOutOfDate means the swapchain no longer matches its surface and must be
// recreated before it can be used again. Acquire and present return it in
// place of a fatal error.
var ErrOutOfDate = errors.New("driver: swapchain out of date")

// Destroyer is implemented by every object that the caller owns.
type Destroyer interface {
	Destroy()
}

// Instance is a loaded graphics API instance.
type Instance interface {
	Destroyer

	PhysicalDevices() ([]PhysicalDevice, error)
}

// Surface is a presentation surface bound to a native window.
type Surface interface {
	Destroyer
}

// QueueFamily describes one queue family of a physical device.
type QueueFamily struct {
	Graphics   bool
	QueueCount int
}

// SurfaceSupport is what a physical device reports for a given surface.
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// DeviceCreateInfo describes the logical device to open.
type DeviceCreateInfo struct {
	GraphicsFamily int
	PresentFamily  int
	Extensions     []string
}

// PhysicalDevice is a GPU as enumerated by the instance. It is not owned
// and is never destroyed.
type PhysicalDevice interface {
	Name() string
	QueueFamilies() []QueueFamily
	// PresentSupport reports whether the given queue family can present
	// to surface.
	PresentSupport(surface Surface, family int) (bool, error)
	Extensions() (map[string]struct{}, error)
	SurfaceSupport(surface Surface) (SurfaceSupport, error)
	// SupportsDepthAttachment reports whether format may be used as an
	// optimally tiled depth-stencil attachment.
	SupportsDepthAttachment(format Format) bool
	CreateDevice(info DeviceCreateInfo) (Device, error)
}

// SwapchainCreateInfo describes a swapchain to build against a surface.
type SwapchainCreateInfo struct {
	Surface       Surface
	MinImageCount int
	Format        SurfaceFormat
	Extent        Extent
	PresentMode   PresentMode
	// QueueFamilies is non-empty only when images are shared
	// concurrently between a distinct graphics and present family.
	QueueFamilies []int
	Transform     int
}

// Device is an opened logical device with one graphics and one present queue.
type Device interface {
	Destroyer

	WaitIdle() error

	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	CreateImageView(image Image, format Format, aspect Aspect) (ImageView, error)
	CreateDepthImage(format Format, extent Extent) (OwnedImage, error)
	CreateRenderPass(color Format, depth Format) (RenderPass, error)
	CreateFramebuffer(pass RenderPass, attachments []ImageView, extent Extent) (Framebuffer, error)
	CreateCommandPool(family int) (CommandPool, error)
	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)

	// Submit enqueues cmd on the graphics queue. Execution waits on wait at
	// the color attachment output stage, signals signal when done and then
	// signals fence.
	Submit(cmd CommandBuffer, wait Semaphore, signal Semaphore, fence Fence) error
}

// Swapchain is a ring of presentable images bound to a surface.
type Swapchain interface {
	Destroyer

	// Images returns the presentable images. They belong to the swapchain
	// and are released with it.
	Images() ([]Image, error)

	// AcquireNextImage returns the index of the next presentable image and
	// arranges for signal to be signaled once it is ready. It blocks without
	// a timeout. A stale swapchain yields ErrOutOfDate; suboptimal reports an
	// image that is usable but no longer matches the surface exactly.
	AcquireNextImage(signal Semaphore) (index int, suboptimal bool, err error)

	// Present queues image index for display on the present queue once wait
	// is signaled. It reports staleness the same way AcquireNextImage does.
	Present(index int, wait Semaphore) (suboptimal bool, err error)
}

// Image is an image handle. Images returned by a Swapchain are not owned.
type Image interface{}

// OwnedImage is an image together with the memory backing it.
type OwnedImage interface {
	Image
	Destroyer
}

type ImageView interface {
	Destroyer
}

type RenderPass interface {
	Destroyer
}

type Framebuffer interface {
	Destroyer
}

// Pipeline is an opaque graphics pipeline built by a pipeline strategy.
type Pipeline interface {
	Destroyer
}

type Semaphore interface {
	Destroyer
}

// Fence is a GPU to CPU completion signal.
type Fence interface {
	Destroyer

	// Wait blocks until the fence is signaled. It has no timeout.
	Wait() error
	Reset() error
}

// CommandPool allocates command buffers for the graphics queue family.
type CommandPool interface {
	Destroyer

	Allocate(count int) ([]CommandBuffer, error)
	Free(buffers []CommandBuffer)
}

// CommandBuffer records commands for later submission. Implementations may
// expose further recording methods to the strategies that know them.
type CommandBuffer interface {
	Begin() error
	BeginRenderPass(pass RenderPass, framebuffer Framebuffer, area Extent, clear ClearValues) error
	BindPipeline(pipeline Pipeline)
	EndRenderPass()
	End() error
}
