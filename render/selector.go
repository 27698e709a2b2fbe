package render

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/renderloop/driver"
)

// QueueFamilyIndices are the families used for drawing and for presenting.
// They may be the same family.
type QueueFamilyIndices struct {
	Graphics int
	Present  int
}

// PhysicalDeviceChoice is the selected GPU. It is fixed for the lifetime of
// the renderer and is not destroyed.
type PhysicalDeviceChoice struct {
	Device   driver.PhysicalDevice
	Name     string
	Families QueueFamilyIndices
}

// FindQueueFamilies scans the device's queue families for one that draws
// and one that presents to surface. ok is false if either is missing.
func FindQueueFamilies(device driver.PhysicalDevice, surface driver.Surface) (indices QueueFamilyIndices, ok bool, err error) {
	graphics, present := -1, -1

	for familyIdx, family := range device.QueueFamilies() {
		if family.Graphics && graphics < 0 {
			graphics = familyIdx
		}

		supported, err := device.PresentSupport(surface, familyIdx)
		if err != nil {
			return indices, false, errors.Wrapf(err, "query present support for queue family %d", familyIdx)
		}
		if supported && present < 0 {
			present = familyIdx
		}

		if graphics >= 0 && present >= 0 {
			break
		}
	}

	indices = QueueFamilyIndices{Graphics: graphics, Present: present}
	return indices, graphics >= 0 && present >= 0, nil
}

func checkDeviceExtensionSupport(device driver.PhysicalDevice, required []string) (missing string, err error) {
	extensions, err := device.Extensions()
	if err != nil {
		return "", err
	}

	for _, extension := range required {
		if _, hasExtension := extensions[extension]; !hasExtension {
			return extension, nil
		}
	}
	return "", nil
}

// isDeviceSuitable returns a reason when device cannot be used, or "" when
// it can.
func isDeviceSuitable(device driver.PhysicalDevice, surface driver.Surface, extensions []string) (QueueFamilyIndices, string, error) {
	indices, complete, err := FindQueueFamilies(device, surface)
	if err != nil {
		return indices, "", err
	}
	if !complete {
		return indices, "no graphics and present queue families", nil
	}

	missing, err := checkDeviceExtensionSupport(device, extensions)
	if err != nil {
		return indices, "", err
	}
	if missing != "" {
		return indices, "missing extension " + missing, nil
	}

	support, err := device.SurfaceSupport(surface)
	if err != nil {
		return indices, "", err
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return indices, "surface reports no formats or present modes", nil
	}

	return indices, "", nil
}

// SelectDevice returns the first physical device, in enumeration order,
// that can draw and present to surface and offers every extension listed.
// Devices are not ranked.
func SelectDevice(instance driver.Instance, surface driver.Surface, extensions []string) (PhysicalDeviceChoice, error) {
	physicalDevices, err := instance.PhysicalDevices()
	if err != nil {
		return PhysicalDeviceChoice{}, errors.Wrap(err, "enumerate physical devices")
	}

	log := Logger()
	for _, device := range physicalDevices {
		indices, reason, err := isDeviceSuitable(device, surface, extensions)
		if err != nil {
			return PhysicalDeviceChoice{}, errors.Wrapf(err, "inspect device %q", device.Name())
		}
		if reason != "" {
			log.Debug("skipping physical device", "device", device.Name(), "reason", reason)
			continue
		}

		log.Info("selected physical device",
			"device", device.Name(),
			"graphicsFamily", indices.Graphics,
			"presentFamily", indices.Present)
		return PhysicalDeviceChoice{Device: device, Name: device.Name(), Families: indices}, nil
	}

	return PhysicalDeviceChoice{}, errors.Wrapf(ErrNoSuitableDevice, "%d devices inspected", len(physicalDevices))
}
