package render

import "github.com/vkngwrapper/renderloop/driver"

// RenderTarget describes what a swapchain generation renders into. It is
// handed to strategies whenever the swapchain is (re)built.
type RenderTarget struct {
	RenderPass  driver.RenderPass
	Extent      driver.Extent
	ColorFormat driver.Format
	// DepthFormat is FormatUndefined when there is no depth attachment.
	DepthFormat driver.Format
	ImageCount  int
}

// FrameTarget is what a single pre-recorded command buffer draws with.
type FrameTarget struct {
	ImageIndex int
	Pipeline   driver.Pipeline
	Target     RenderTarget
}

// PipelineStrategy builds the graphics pipeline for a render target. The
// returned pipeline is destroyed by the swapchain manager.
type PipelineStrategy interface {
	BuildPipeline(dev driver.Device, target RenderTarget) (driver.Pipeline, error)
}

// ResourceStrategy supplies what is drawn.
type ResourceStrategy interface {
	// Setup creates resources that outlive every swapchain, such as
	// vertex and index buffers.
	Setup(dev driver.Device, pool driver.CommandPool) error

	// PrepareFrames creates the resources that exist once per swapchain
	// image. The returned value is destroyed before the swapchain.
	PrepareFrames(dev driver.Device, target RenderTarget) (driver.Destroyer, error)

	// Record appends the resource bindings and draw calls to cmd, which is
	// inside a render pass with the pipeline already bound.
	Record(cmd driver.CommandBuffer, frame FrameTarget) error

	// Update refreshes dynamic state, such as uniform buffers, for the
	// given swapchain image before it is submitted.
	Update(imageIndex int, extent driver.Extent) error

	// Release destroys what Setup created. The device is idle.
	Release()
}
