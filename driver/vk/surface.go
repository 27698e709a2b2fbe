package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/vkngwrapper/renderloop/driver"
)

// LoadSDL loads the Vulkan loader SDL was built against. The SDL video
// subsystem must already be initialized.
func LoadSDL() (core1_0.GlobalDriver, error) {
	global, err := core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan through sdl")
	}
	return global, nil
}

// Surface is a presentation surface for an SDL window.
type Surface struct {
	instance *Instance
	handle   khr_surface.Surface
}

var _ driver.Surface = (*Surface)(nil)

func NewSDLSurface(instance *Instance, window *sdl.Window) (*Surface, error) {
	handle, err := vkng_sdl2.CreateSurface(instance.driver.Instance(), instance.surfaceExt, window)
	if err != nil {
		return nil, errors.Wrap(err, "create window surface")
	}
	return &Surface{instance: instance, handle: handle}, nil
}

func (s *Surface) Destroy() {
	if s.handle.Initialized() {
		s.instance.surfaceExt.DestroySurface(s.handle, nil)
		s.handle = khr_surface.Surface{}
	}
}

func surfaceHandle(s driver.Surface) (khr_surface.Surface, error) {
	surface, ok := s.(*Surface)
	if !ok {
		return khr_surface.Surface{}, errors.Newf("vk: unsupported surface type %T", s)
	}
	return surface.handle, nil
}
