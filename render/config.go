package render

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/renderloop/driver"
)

// SwapchainExtension is the device extension every suitable device must
// offer.
const SwapchainExtension = "VK_KHR_swapchain"

// Config is the immutable set of settings a Renderer is built from. Copy it,
// change fields, and pass the copy to New; the renderer never reads any
// package-level state.
type Config struct {
	AppName string

	// Width and Height are the window size requested at startup.
	Width  int
	Height int

	// MaxFramesInFlight is the number of frame slots. It is independent
	// of the swapchain image count.
	MaxFramesInFlight int

	DeviceExtensions []string

	EnableValidation bool
	ValidationLayers []string

	// Depth enables a depth attachment. DepthFormats are tried in order.
	Depth        bool
	DepthFormats []driver.Format

	ClearColor [4]float32
}

// DefaultConfig returns the configuration the demo runs with.
func DefaultConfig() Config {
	return Config{
		AppName:           "renderloop",
		Width:             800,
		Height:            600,
		MaxFramesInFlight: 2,
		DeviceExtensions:  []string{SwapchainExtension},
		EnableValidation:  true,
		ValidationLayers:  []string{"VK_LAYER_KHRONOS_validation"},
		Depth:             true,
		DepthFormats: []driver.Format{
			driver.FormatD32SignedFloat,
			driver.FormatD32SignedFloatS8UnsignedInt,
			driver.FormatD24UnsignedNormalizedS8Uint,
		},
		ClearColor: [4]float32{0, 0, 0, 1},
	}
}

// Validate reports the first problem that would keep a renderer from
// starting.
func (c Config) Validate() error {
	if c.MaxFramesInFlight < 1 {
		return errors.Newf("config: MaxFramesInFlight must be at least 1, got %d", c.MaxFramesInFlight)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Newf("config: window size %dx%d is empty", c.Width, c.Height)
	}
	if c.Depth && len(c.DepthFormats) == 0 {
		return errors.New("config: depth enabled without candidate depth formats")
	}
	return nil
}
