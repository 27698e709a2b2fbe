package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/renderloop/driver"
)

type Swapchain struct {
	device *Device
	handle khr_swapchain.Swapchain
}

var _ driver.Swapchain = (*Swapchain)(nil)

func (d *Device) CreateSwapchain(info driver.SwapchainCreateInfo) (driver.Swapchain, error) {
	surface, err := surfaceHandle(info.Surface)
	if err != nil {
		return nil, err
	}

	sharingMode := core1_0.SharingModeExclusive
	if len(info.QueueFamilies) > 0 {
		sharingMode = core1_0.SharingModeConcurrent
	}

	handle, _, err := d.swapchainExt.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: surface,

		MinImageCount:    info.MinImageCount,
		ImageFormat:      core1_0.Format(info.Format.Format),
		ImageColorSpace:  khr_surface.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      core1_0.Extent2D{Width: info.Extent.Width, Height: info.Extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: info.QueueFamilies,

		PreTransform:   khr_surface.SurfaceTransformFlags(info.Transform),
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    khr_surface.PresentMode(info.PresentMode),
		Clipped:        true,
	})
	if err != nil {
		return nil, err
	}
	return &Swapchain{device: d, handle: handle}, nil
}

// Images returns the swapchain's images as core1_0.Image values.
func (s *Swapchain) Images() ([]driver.Image, error) {
	images, _, err := s.device.swapchainExt.GetSwapchainImages(s.handle)
	if err != nil {
		return nil, err
	}

	out := make([]driver.Image, len(images))
	for i, image := range images {
		out[i] = image
	}
	return out, nil
}

func (s *Swapchain) AcquireNextImage(signal driver.Semaphore) (int, bool, error) {
	semaphore := signal.(*Semaphore).handle
	index, res, err := s.device.swapchainExt.AcquireNextImage(s.handle, common.NoTimeout, &semaphore, nil)
	suboptimal, err := staleness(res, err)
	return index, suboptimal, err
}

func (s *Swapchain) Present(index int, wait driver.Semaphore) (bool, error) {
	res, err := s.device.swapchainExt.QueuePresent(s.device.present, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait.(*Semaphore).handle},
		Swapchains:     []khr_swapchain.Swapchain{s.handle},
		ImageIndices:   []int{index},
	})
	return staleness(res, err)
}

// staleness turns a swapchain result code into the driver's reporting:
// out of date becomes driver.ErrOutOfDate and suboptimal becomes a flag.
func staleness(res common.VkResult, err error) (suboptimal bool, _ error) {
	if res == khr_swapchain.VKErrorOutOfDate {
		return false, driver.ErrOutOfDate
	}
	if err != nil {
		return false, errors.Wrapf(err, "swapchain result %v", res)
	}
	return res == khr_swapchain.VKSuboptimal, nil
}

func (s *Swapchain) Destroy() {
	if s.handle.Initialized() {
		s.device.swapchainExt.DestroySwapchain(s.handle, nil)
		s.handle = khr_swapchain.Swapchain{}
	}
}
