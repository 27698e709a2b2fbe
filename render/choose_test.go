package render

import (
	"testing"

	"github.com/vkngwrapper/renderloop/driver"
)

func TestChooseExtentClamps(t *testing.T) {
	caps := driver.SurfaceCapabilities{
		CurrentExtent:  driver.UndefinedExtent,
		MinImageExtent: driver.Extent{Width: 1, Height: 1},
		MaxImageExtent: driver.Extent{Width: 4096, Height: 4096},
	}

	tests := []struct {
		name     string
		drawable driver.Extent
		want     driver.Extent
	}{
		{"too large", driver.Extent{Width: 8000, Height: 8000}, driver.Extent{Width: 4096, Height: 4096}},
		{"empty", driver.Extent{Width: 0, Height: 0}, driver.Extent{Width: 1, Height: 1}},
		{"in range", driver.Extent{Width: 800, Height: 600}, driver.Extent{Width: 800, Height: 600}},
		{"axes independent", driver.Extent{Width: 9000, Height: 0}, driver.Extent{Width: 4096, Height: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChooseExtent(caps, tt.drawable); got != tt.want {
				t.Errorf("ChooseExtent(%v) = %v, want %v", tt.drawable, got, tt.want)
			}
		})
	}
}

func TestChooseExtentUsesCurrentExtent(t *testing.T) {
	caps := driver.SurfaceCapabilities{
		CurrentExtent:  driver.Extent{Width: 1024, Height: 768},
		MinImageExtent: driver.Extent{Width: 1, Height: 1},
		MaxImageExtent: driver.Extent{Width: 512, Height: 512},
	}

	got := ChooseExtent(caps, driver.Extent{Width: 10, Height: 10})
	if got != caps.CurrentExtent {
		t.Errorf("got %v, want current extent %v", got, caps.CurrentExtent)
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	srgbUnorm := driver.SurfaceFormat{Format: driver.FormatB8G8R8A8Unorm, ColorSpace: driver.ColorSpaceSRGBNonlinear}
	rgba := driver.SurfaceFormat{Format: driver.FormatR8G8B8A8Unorm, ColorSpace: driver.ColorSpaceSRGBNonlinear}
	bgraSRGB := driver.SurfaceFormat{Format: driver.FormatB8G8R8A8SRGB, ColorSpace: driver.ColorSpaceSRGBNonlinear}

	tests := []struct {
		name      string
		available []driver.SurfaceFormat
		want      driver.SurfaceFormat
	}{
		{"lone undefined", []driver.SurfaceFormat{{Format: driver.FormatUndefined}}, DefaultSurfaceFormat},
		{"preferred present", []driver.SurfaceFormat{rgba, bgraSRGB, srgbUnorm}, srgbUnorm},
		{"fallback to first", []driver.SurfaceFormat{rgba, bgraSRGB}, rgba},
		{"wrong color space", []driver.SurfaceFormat{{Format: driver.FormatB8G8R8A8Unorm, ColorSpace: 1000104001}, rgba}, driver.SurfaceFormat{Format: driver.FormatB8G8R8A8Unorm, ColorSpace: 1000104001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChooseSurfaceFormat(tt.available); got != tt.want {
				t.Errorf("got %v/%v, want %v/%v", got.Format, got.ColorSpace, tt.want.Format, tt.want.ColorSpace)
			}
		})
	}
}

func TestChooseSurfaceFormatNeverReturnsUndefined(t *testing.T) {
	got := ChooseSurfaceFormat([]driver.SurfaceFormat{{Format: driver.FormatUndefined, ColorSpace: driver.ColorSpaceSRGBNonlinear}})
	if got.Format == driver.FormatUndefined {
		t.Fatal("undefined format chosen")
	}
	if got.Format != driver.FormatB8G8R8A8Unorm || got.ColorSpace != driver.ColorSpaceSRGBNonlinear {
		t.Errorf("got %v/%v, want B8G8R8A8Unorm/SRGBNonlinear", got.Format, got.ColorSpace)
	}
}

func TestChoosePresentMode(t *testing.T) {
	tests := []struct {
		available []driver.PresentMode
		want      driver.PresentMode
	}{
		{[]driver.PresentMode{driver.PresentModeFIFO, driver.PresentModeMailbox}, driver.PresentModeMailbox},
		{[]driver.PresentMode{driver.PresentModeFIFO, driver.PresentModeImmediate}, driver.PresentModeImmediate},
		{[]driver.PresentMode{driver.PresentModeFIFO}, driver.PresentModeFIFO},
		{[]driver.PresentMode{driver.PresentModeImmediate, driver.PresentModeFIFORelaxed, driver.PresentModeMailbox}, driver.PresentModeMailbox},
		{[]driver.PresentMode{driver.PresentModeImmediate, driver.PresentModeFIFORelaxed}, driver.PresentModeImmediate},
		{[]driver.PresentMode{driver.PresentModeFIFORelaxed}, driver.PresentModeFIFO},
	}

	for _, tt := range tests {
		if got := ChoosePresentMode(tt.available); got != tt.want {
			t.Errorf("ChoosePresentMode(%v) = %v, want %v", tt.available, got, tt.want)
		}
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max int
		want     int
	}{
		{2, 8, 3},
		{2, 0, 3},
		{3, 3, 3},
		{1, 2, 2},
	}

	for _, tt := range tests {
		caps := driver.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
		if got := ChooseImageCount(caps); got != tt.want {
			t.Errorf("ChooseImageCount(min=%d, max=%d) = %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}

func TestChooseSharing(t *testing.T) {
	if got := ChooseSharing(QueueFamilyIndices{Graphics: 1, Present: 1}); got != nil {
		t.Errorf("same family: got %v, want nil", got)
	}

	got := ChooseSharing(QueueFamilyIndices{Graphics: 0, Present: 2})
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("distinct families: got %v, want [0 2]", got)
	}
}

func TestChooseDepthFormat(t *testing.T) {
	candidates := []driver.Format{driver.FormatD32SignedFloat, driver.FormatD32SignedFloatS8UnsignedInt, driver.FormatD24UnsignedNormalizedS8Uint}

	got, err := ChooseDepthFormat(candidates, func(f driver.Format) bool {
		return f == driver.FormatD24UnsignedNormalizedS8Uint
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != driver.FormatD24UnsignedNormalizedS8Uint {
		t.Errorf("got %v, want D24UnsignedNormalizedS8Uint", got)
	}

	_, err = ChooseDepthFormat(candidates, func(driver.Format) bool { return false })
	if err == nil {
		t.Error("expected an error when no candidate is supported")
	}
}
