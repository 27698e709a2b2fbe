package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/renderloop/driver"
)

// Device is a logical device with its graphics and present queues.
type Device struct {
	physical     *PhysicalDevice
	driver       core1_0.CoreDeviceDriver
	swapchainExt khr_swapchain.ExtensionDriver

	graphics core1_0.Queue
	present  core1_0.Queue
}

var _ driver.Device = (*Device)(nil)

// Driver exposes the underlying device driver to code that records its own
// commands or builds its own pipelines.
func (d *Device) Driver() core1_0.CoreDeviceDriver {
	return d.driver
}

func (d *Device) WaitIdle() error {
	_, err := d.driver.DeviceWaitIdle()
	return err
}

func (d *Device) Destroy() {
	if d.driver != nil {
		d.driver.DestroyDevice(nil)
		d.driver = nil
	}
}

func (d *Device) CreateImageView(image driver.Image, format driver.Format, aspect driver.Aspect) (driver.ImageView, error) {
	var handle core1_0.Image
	switch img := image.(type) {
	case core1_0.Image:
		handle = img
	case *Image:
		handle = img.handle
	default:
		return nil, errors.Newf("vk: unsupported image type %T", image)
	}

	aspectMask := core1_0.ImageAspectColor
	if aspect == driver.AspectDepth {
		aspectMask = core1_0.ImageAspectDepth
	}

	view, _, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    handle,
		ViewType: core1_0.ImageViewType2D,
		Format:   core1_0.Format(format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspectMask,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, err
	}
	return &ImageView{device: d, handle: view}, nil
}

// CreateDepthImage allocates a device-local depth attachment.
func (d *Device) CreateDepthImage(format driver.Format, extent driver.Extent) (driver.OwnedImage, error) {
	image, _, err := d.driver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        core1_0.Format(format),
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         core1_0.ImageUsageDepthStencilAttachment,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return nil, err
	}
	owned := &Image{device: d, handle: image}

	memReqs := d.driver.GetImageMemoryRequirements(image)
	owned.memory, err = d.allocate(memReqs.Size, memReqs.MemoryTypeBits, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		owned.Destroy()
		return nil, err
	}

	_, err = d.driver.BindImageMemory(image, owned.memory, 0)
	if err != nil {
		owned.Destroy()
		return nil, errors.Wrap(err, "bind depth image memory")
	}

	return owned, nil
}

func (d *Device) allocate(size int, typeFilter uint32, properties core1_0.MemoryPropertyFlags) (core1_0.DeviceMemory, error) {
	memProperties := d.physical.instance.driver.GetPhysicalDeviceMemoryProperties(d.physical.handle)
	memoryType, err := findMemoryType(memProperties.MemoryTypes, typeFilter, properties)
	if err != nil {
		return core1_0.DeviceMemory{}, err
	}

	memory, _, err := d.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  size,
		MemoryTypeIndex: memoryType,
	})
	if err != nil {
		return core1_0.DeviceMemory{}, errors.Wrap(err, "allocate device memory")
	}
	return memory, nil
}

// CreateRenderPass builds a single-subpass pass that clears a color
// attachment and leaves it ready to present. A depth attachment is added
// unless depth is FormatUndefined.
func (d *Device) CreateRenderPass(color driver.Format, depth driver.Format) (driver.RenderPass, error) {
	info := core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         core1_0.Format(color),
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass:    core1_0.SubpassExternal,
				DstSubpass:    0,
				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,
				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	}

	if depth != driver.FormatUndefined {
		info.Attachments = append(info.Attachments, core1_0.AttachmentDescription{
			Format:         core1_0.Format(depth),
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpDontCare,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		})
		info.Subpasses[0].DepthStencilAttachment = &core1_0.AttachmentReference{
			Attachment: 1,
			Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		}

		dep := &info.SubpassDependencies[0]
		dep.SrcStageMask |= core1_0.PipelineStageEarlyFragmentTests
		dep.DstStageMask |= core1_0.PipelineStageEarlyFragmentTests
		dep.DstAccessMask |= core1_0.AccessDepthStencilAttachmentWrite
	}

	pass, _, err := d.driver.CreateRenderPass(nil, info)
	if err != nil {
		return nil, err
	}
	return &RenderPass{device: d, handle: pass}, nil
}

func (d *Device) CreateFramebuffer(pass driver.RenderPass, attachments []driver.ImageView, extent driver.Extent) (driver.Framebuffer, error) {
	views := make([]core1_0.ImageView, 0, len(attachments))
	for _, a := range attachments {
		view, ok := a.(*ImageView)
		if !ok {
			return nil, errors.Newf("vk: unsupported image view type %T", a)
		}
		views = append(views, view.handle)
	}

	framebuffer, _, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  pass.(*RenderPass).handle,
		Layers:      1,
		Attachments: views,
		Width:       extent.Width,
		Height:      extent.Height,
	})
	if err != nil {
		return nil, err
	}
	return &Framebuffer{device: d, handle: framebuffer}, nil
}

func (d *Device) CreateCommandPool(family int) (driver.CommandPool, error) {
	pool, _, err := d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: family,
	})
	if err != nil {
		return nil, err
	}
	return &CommandPool{device: d, handle: pool}, nil
}

func (d *Device) CreateSemaphore() (driver.Semaphore, error) {
	semaphore, _, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, err
	}
	return &Semaphore{device: d, handle: semaphore}, nil
}

func (d *Device) CreateFence(signaled bool) (driver.Fence, error) {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}

	fence, _, err := d.driver.CreateFence(nil, info)
	if err != nil {
		return nil, err
	}
	return &Fence{device: d, handle: fence}, nil
}

func (d *Device) Submit(cmd driver.CommandBuffer, wait driver.Semaphore, signal driver.Semaphore, fence driver.Fence) error {
	handle := fence.(*Fence).handle
	_, err := d.driver.QueueSubmit(d.graphics, &handle,
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{wait.(*Semaphore).handle},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{cmd.(*CommandBuffer).handle},
			SignalSemaphores: []core1_0.Semaphore{signal.(*Semaphore).handle},
		},
	)
	return err
}
