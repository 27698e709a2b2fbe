package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/renderloop/driver"
)

// PhysicalDevice is a GPU enumerated by an Instance.
type PhysicalDevice struct {
	instance *Instance
	handle   core1_0.PhysicalDevice
	name     string
	families []driver.QueueFamily
}

var _ driver.PhysicalDevice = (*PhysicalDevice)(nil)

func newPhysicalDevice(instance *Instance, handle core1_0.PhysicalDevice) (*PhysicalDevice, error) {
	properties, err := instance.driver.GetPhysicalDeviceProperties(handle)
	if err != nil {
		return nil, errors.Wrap(err, "get physical device properties")
	}

	p := &PhysicalDevice{instance: instance, handle: handle, name: properties.DeviceName}
	for _, family := range instance.driver.GetPhysicalDeviceQueueFamilyProperties(handle) {
		p.families = append(p.families, driver.QueueFamily{
			Graphics:   family.QueueFlags&core1_0.QueueGraphics != 0,
			QueueCount: family.QueueCount,
		})
	}
	return p, nil
}

func (p *PhysicalDevice) Name() string                        { return p.name }
func (p *PhysicalDevice) QueueFamilies() []driver.QueueFamily { return p.families }

func (p *PhysicalDevice) PresentSupport(surface driver.Surface, family int) (bool, error) {
	handle, err := surfaceHandle(surface)
	if err != nil {
		return false, err
	}

	supported, _, err := p.instance.surfaceExt.GetPhysicalDeviceSurfaceSupport(handle, p.handle, family)
	if err != nil {
		return false, errors.Wrapf(err, "query present support for family %d", family)
	}
	return supported, nil
}

func (p *PhysicalDevice) Extensions() (map[string]struct{}, error) {
	properties, _, err := p.instance.driver.EnumerateDeviceExtensionProperties(p.handle)
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}

	names := make(map[string]struct{}, len(properties))
	for name := range properties {
		names[name] = struct{}{}
	}
	return names, nil
}

func (p *PhysicalDevice) SurfaceSupport(surface driver.Surface) (driver.SurfaceSupport, error) {
	var support driver.SurfaceSupport

	handle, err := surfaceHandle(surface)
	if err != nil {
		return support, err
	}

	capabilities, _, err := p.instance.surfaceExt.GetPhysicalDeviceSurfaceCapabilities(handle, p.handle)
	if err != nil {
		return support, errors.Wrap(err, "get surface capabilities")
	}
	support.Capabilities = convertCapabilities(capabilities)

	formats, _, err := p.instance.surfaceExt.GetPhysicalDeviceSurfaceFormats(handle, p.handle)
	if err != nil {
		return support, errors.Wrap(err, "get surface formats")
	}
	for _, format := range formats {
		support.Formats = append(support.Formats, driver.SurfaceFormat{
			Format:     driver.Format(format.Format),
			ColorSpace: driver.ColorSpace(format.ColorSpace),
		})
	}

	modes, _, err := p.instance.surfaceExt.GetPhysicalDeviceSurfacePresentModes(handle, p.handle)
	if err != nil {
		return support, errors.Wrap(err, "get surface present modes")
	}
	for _, mode := range modes {
		support.PresentModes = append(support.PresentModes, driver.PresentMode(mode))
	}

	return support, nil
}

func convertCapabilities(c *khr_surface.SurfaceCapabilities) driver.SurfaceCapabilities {
	return driver.SurfaceCapabilities{
		MinImageCount:    c.MinImageCount,
		MaxImageCount:    c.MaxImageCount,
		CurrentExtent:    driver.Extent{Width: c.CurrentExtent.Width, Height: c.CurrentExtent.Height},
		MinImageExtent:   driver.Extent{Width: c.MinImageExtent.Width, Height: c.MinImageExtent.Height},
		MaxImageExtent:   driver.Extent{Width: c.MaxImageExtent.Width, Height: c.MaxImageExtent.Height},
		CurrentTransform: int(c.CurrentTransform),
	}
}

func (p *PhysicalDevice) SupportsDepthAttachment(format driver.Format) bool {
	props := p.instance.driver.GetPhysicalDeviceFormatProperties(p.handle, core1_0.Format(format))
	return props.OptimalTilingFeatures&core1_0.FormatFeatureDepthStencilAttachment != 0
}

// findMemoryType returns the first memory type allowed by typeFilter that
// has every flag in properties.
func findMemoryType(types []core1_0.MemoryType, typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range types {
		typeBit := uint32(1 << i)
		if typeFilter&typeBit != 0 && memoryType.PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, errors.Newf("no memory type matches filter %#x with properties %v", typeFilter, properties)
}

// CreateDevice opens a logical device with one queue from each distinct
// family in info. The portability subset extension is enabled when the
// device offers it.
func (p *PhysicalDevice) CreateDevice(info driver.DeviceCreateInfo) (driver.Device, error) {
	families := []int{info.GraphicsFamily}
	if info.PresentFamily != info.GraphicsFamily {
		families = append(families, info.PresentFamily)
	}

	var queues []core1_0.DeviceQueueCreateInfo
	for _, family := range families {
		queues = append(queues, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}

	extensions := append([]string(nil), info.Extensions...)
	available, err := p.Extensions()
	if err != nil {
		return nil, err
	}
	if _, ok := available[khr_portability_subset.ExtensionName]; ok {
		extensions = append(extensions, khr_portability_subset.ExtensionName)
	}

	deviceDriver, _, err := p.instance.driver.CreateDevice(p.handle, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queues,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensions,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create logical device")
	}

	return &Device{
		physical:     p,
		driver:       deviceDriver,
		swapchainExt: khr_swapchain.CreateExtensionDriverFromCoreDriver(deviceDriver),
		graphics:     deviceDriver.GetQueue(info.GraphicsFamily, 0),
		present:      deviceDriver.GetQueue(info.PresentFamily, 0),
	}, nil
}
