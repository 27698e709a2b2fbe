package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/renderloop/driver"
)

type CommandPool struct {
	device *Device
	handle core1_0.CommandPool
}

var _ driver.CommandPool = (*CommandPool)(nil)

func (p *CommandPool) Allocate(count int) ([]driver.CommandBuffer, error) {
	handles, _, err := p.device.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.handle,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, err
	}

	buffers := make([]driver.CommandBuffer, len(handles))
	for i, handle := range handles {
		buffers[i] = &CommandBuffer{device: p.device, handle: handle}
	}
	return buffers, nil
}

func (p *CommandPool) Free(buffers []driver.CommandBuffer) {
	handles := make([]core1_0.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		handles = append(handles, b.(*CommandBuffer).handle)
	}
	if len(handles) > 0 {
		p.device.driver.FreeCommandBuffers(handles...)
	}
}

func (p *CommandPool) Destroy() {
	if p.handle.Initialized() {
		p.device.driver.DestroyCommandPool(p.handle, nil)
		p.handle = core1_0.CommandPool{}
	}
}

// RunOnce records a one-time command buffer with record, submits it to the
// graphics queue and waits for the queue to drain.
func (p *CommandPool) RunOnce(record func(cmd core1_0.CommandBuffer) error) error {
	d := p.device
	buffers, _, err := d.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.handle,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return errors.Wrap(err, "allocate one-time command buffer")
	}
	buffer := buffers[0]
	defer d.driver.FreeCommandBuffers(buffer)

	_, err = d.driver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return err
	}

	err = record(buffer)
	if err != nil {
		return err
	}

	_, err = d.driver.EndCommandBuffer(buffer)
	if err != nil {
		return err
	}

	_, err = d.driver.QueueSubmit(d.graphics, nil, core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{buffer},
	})
	if err != nil {
		return err
	}

	_, err = d.driver.QueueWaitIdle(d.graphics)
	return err
}

// CommandBuffer is a primary command buffer. Beyond the driver interface it
// exposes the vertex, index and descriptor commands content needs.
type CommandBuffer struct {
	device *Device
	handle core1_0.CommandBuffer
}

var _ driver.CommandBuffer = (*CommandBuffer)(nil)

func (c *CommandBuffer) Begin() error {
	_, err := c.device.driver.BeginCommandBuffer(c.handle, core1_0.CommandBufferBeginInfo{})
	return err
}

func (c *CommandBuffer) BeginRenderPass(pass driver.RenderPass, framebuffer driver.Framebuffer, area driver.Extent, clear driver.ClearValues) error {
	return c.device.driver.CmdBeginRenderPass(c.handle, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  pass.(*RenderPass).handle,
			Framebuffer: framebuffer.(*Framebuffer).handle,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: core1_0.Extent2D{Width: area.Width, Height: area.Height},
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat(clear.Color),
				core1_0.ClearValueDepthStencil{Depth: clear.Depth, Stencil: 0},
			},
		})
}

func (c *CommandBuffer) BindPipeline(pipeline driver.Pipeline) {
	c.device.driver.CmdBindPipeline(c.handle, core1_0.PipelineBindPointGraphics, pipeline.(*Pipeline).handle)
}

func (c *CommandBuffer) BindVertexBuffer(buffer *Buffer) {
	c.device.driver.CmdBindVertexBuffers(c.handle, 0, []core1_0.Buffer{buffer.handle}, []int{0})
}

func (c *CommandBuffer) BindIndexBuffer(buffer *Buffer) {
	c.device.driver.CmdBindIndexBuffer(c.handle, buffer.handle, 0, core1_0.IndexTypeUInt32)
}

func (c *CommandBuffer) BindDescriptorSet(pipeline *Pipeline, set core1_0.DescriptorSet) {
	c.device.driver.CmdBindDescriptorSets(c.handle, core1_0.PipelineBindPointGraphics, pipeline.layout, 0, []core1_0.DescriptorSet{set}, nil)
}

func (c *CommandBuffer) DrawIndexed(indexCount int) {
	c.device.driver.CmdDrawIndexed(c.handle, indexCount, 1, 0, 0, 0)
}

func (c *CommandBuffer) EndRenderPass() {
	c.device.driver.CmdEndRenderPass(c.handle)
}

func (c *CommandBuffer) End() error {
	_, err := c.device.driver.EndCommandBuffer(c.handle)
	return err
}
