package render

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/renderloop/driver"
)

// DefaultSurfaceFormat is used when the surface has no preferred format and
// is preferred when it has several.
var DefaultSurfaceFormat = driver.SurfaceFormat{
	Format:     driver.FormatB8G8R8A8Unorm,
	ColorSpace: driver.ColorSpaceSRGBNonlinear,
}

// ChooseSurfaceFormat picks the swapchain image format. A lone undefined
// entry means the surface accepts anything.
func ChooseSurfaceFormat(availableFormats []driver.SurfaceFormat) driver.SurfaceFormat {
	if len(availableFormats) == 1 && availableFormats[0].Format == driver.FormatUndefined {
		return DefaultSurfaceFormat
	}

	for _, format := range availableFormats {
		if format == DefaultSurfaceFormat {
			return format
		}
	}

	return availableFormats[0]
}

// ChoosePresentMode prefers mailbox, then immediate, then FIFO, which every
// surface supports.
func ChoosePresentMode(availablePresentModes []driver.PresentMode) driver.PresentMode {
	best := driver.PresentModeFIFO

	for _, presentMode := range availablePresentModes {
		if presentMode == driver.PresentModeMailbox {
			return presentMode
		} else if presentMode == driver.PresentModeImmediate {
			best = presentMode
		}
	}

	return best
}

// ChooseExtent returns the surface's current extent when it has one and
// otherwise clamps the window's drawable size into the surface bounds.
func ChooseExtent(capabilities driver.SurfaceCapabilities, drawable driver.Extent) driver.Extent {
	if capabilities.HasCurrentExtent() {
		return capabilities.CurrentExtent
	}

	return driver.Extent{
		Width:  clamp(drawable.Width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(drawable.Height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ChooseImageCount asks for one image more than the minimum so the driver
// never stalls us waiting on its own work.
func ChooseImageCount(capabilities driver.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// ChooseSharing returns the queue families swapchain images must be shared
// across. It is nil when one family does both graphics and present, which
// means exclusive ownership.
func ChooseSharing(families QueueFamilyIndices) []int {
	if families.Graphics == families.Present {
		return nil
	}
	return []int{families.Graphics, families.Present}
}

// ChooseDepthFormat returns the first candidate the device can use as a
// depth attachment.
func ChooseDepthFormat(candidates []driver.Format, supported func(driver.Format) bool) (driver.Format, error) {
	for _, format := range candidates {
		if supported(format) {
			return format, nil
		}
	}

	return driver.FormatUndefined, errors.Newf("failed to find supported depth format among %v", candidates)
}
