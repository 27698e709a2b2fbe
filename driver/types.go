package driver

import "fmt"

// Format is an image format. Values match VkFormat.
type Format int32

const (
	FormatUndefined                   Format = 0
	FormatR8G8B8A8Unorm               Format = 37
	FormatR8G8B8A8SRGB                Format = 43
	FormatB8G8R8A8Unorm               Format = 44
	FormatB8G8R8A8SRGB                Format = 50
	FormatD32SignedFloat              Format = 126
	FormatD24UnsignedNormalizedS8Uint Format = 129
	FormatD32SignedFloatS8UnsignedInt Format = 130
)

var formatNames = map[Format]string{
	FormatUndefined:                   "Undefined",
	FormatR8G8B8A8Unorm:               "R8G8B8A8Unorm",
	FormatR8G8B8A8SRGB:                "R8G8B8A8SRGB",
	FormatB8G8R8A8Unorm:               "B8G8R8A8Unorm",
	FormatB8G8R8A8SRGB:                "B8G8R8A8SRGB",
	FormatD32SignedFloat:              "D32SignedFloat",
	FormatD24UnsignedNormalizedS8Uint: "D24UnsignedNormalizedS8Uint",
	FormatD32SignedFloatS8UnsignedInt: "D32SignedFloatS8UnsignedInt",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int32(f))
}

// HasStencil reports whether a depth format carries a stencil component.
func (f Format) HasStencil() bool {
	return f == FormatD32SignedFloatS8UnsignedInt || f == FormatD24UnsignedNormalizedS8Uint
}

// ColorSpace matches VkColorSpaceKHR.
type ColorSpace int32

const ColorSpaceSRGBNonlinear ColorSpace = 0

func (c ColorSpace) String() string {
	if c == ColorSpaceSRGBNonlinear {
		return "SRGBNonlinear"
	}
	return fmt.Sprintf("ColorSpace(%d)", int32(c))
}

// SurfaceFormat pairs an image format with the color space the
// presentation engine interprets it in.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode matches VkPresentModeKHR.
type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "Immediate"
	case PresentModeMailbox:
		return "Mailbox"
	case PresentModeFIFO:
		return "FIFO"
	case PresentModeFIFORelaxed:
		return "FIFORelaxed"
	}
	return fmt.Sprintf("PresentMode(%d)", int32(m))
}

// Extent is a two-dimensional size in pixels.
type Extent struct {
	Width  int
	Height int
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// Empty reports whether either dimension is zero.
func (e Extent) Empty() bool {
	return e.Width <= 0 || e.Height <= 0
}

// UndefinedExtent is the CurrentExtent a surface reports when the swapchain
// size decides the surface size.
var UndefinedExtent = Extent{Width: -1, Height: -1}

// SurfaceCapabilities are the image count and size bounds a surface
// accepts.
type SurfaceCapabilities struct {
	MinImageCount int
	// MaxImageCount of zero means there is no upper bound.
	MaxImageCount    int
	CurrentExtent    Extent
	MinImageExtent   Extent
	MaxImageExtent   Extent
	CurrentTransform int
}

// HasCurrentExtent reports whether the surface dictates its own size.
func (c SurfaceCapabilities) HasCurrentExtent() bool {
	return c.CurrentExtent.Width >= 0 && c.CurrentExtent.Height >= 0
}

// Aspect selects which aspect of an image a view covers.
type Aspect int

const (
	AspectColor Aspect = iota
	AspectDepth
)

// ClearValues are the values attachments are cleared to at the start of a
// render pass.
type ClearValues struct {
	Color [4]float32
	Depth float32
}
