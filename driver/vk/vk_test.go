package vk

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/renderloop/driver"
)

func TestStaleness(t *testing.T) {
	deviceLost := errors.New("device lost")

	suboptimal, err := staleness(core1_0.VKSuccess, nil)
	if err != nil || suboptimal {
		t.Errorf("success: got (%v, %v), want (false, nil)", suboptimal, err)
	}

	suboptimal, err = staleness(khr_swapchain.VKSuboptimal, nil)
	if err != nil || !suboptimal {
		t.Errorf("suboptimal: got (%v, %v), want (true, nil)", suboptimal, err)
	}

	_, err = staleness(khr_swapchain.VKErrorOutOfDate, errors.New("out of date"))
	if !errors.Is(err, driver.ErrOutOfDate) {
		t.Errorf("out of date: got %v, want ErrOutOfDate", err)
	}

	_, err = staleness(core1_0.VKErrorDeviceLost, deviceLost)
	if !errors.Is(err, deviceLost) || errors.Is(err, driver.ErrOutOfDate) {
		t.Errorf("device lost: got %v, want the driver error", err)
	}
}

func TestFindMemoryType(t *testing.T) {
	types := []core1_0.MemoryType{
		{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
		{PropertyFlags: core1_0.MemoryPropertyHostVisible},
		{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
	}
	hostCoherent := core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent

	tests := []struct {
		name       string
		filter     uint32
		properties core1_0.MemoryPropertyFlags
		want       int
		wantErr    bool
	}{
		{"device local", 0b111, core1_0.MemoryPropertyDeviceLocal, 0, false},
		{"host coherent", 0b111, hostCoherent, 2, false},
		{"first match wins", 0b110, core1_0.MemoryPropertyHostVisible, 1, false},
		{"filter excludes match", 0b011, hostCoherent, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findMemoryType(types, tt.filter, tt.properties)
			if tt.wantErr {
				if err == nil {
					t.Errorf("got index %d, want an error", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConvertCapabilities(t *testing.T) {
	caps := convertCapabilities(&khr_surface.SurfaceCapabilities{
		MinImageCount:  2,
		MaxImageCount:  0,
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 16384, Height: 16384},
	})

	if caps.HasCurrentExtent() {
		t.Error("undefined current extent reported as defined")
	}
	if caps.MinImageCount != 2 || caps.MaxImageCount != 0 {
		t.Errorf("image counts = %d..%d, want 2..0", caps.MinImageCount, caps.MaxImageCount)
	}
	if caps.MaxImageExtent != (driver.Extent{Width: 16384, Height: 16384}) {
		t.Errorf("max extent = %v", caps.MaxImageExtent)
	}
}

func TestEncode(t *testing.T) {
	got, err := encode([]uint32{1, 0x01020304})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 0, 0, 0, 4, 3, 2, 1}
	if string(got) != string(want) {
		t.Errorf("got % x, want % x", got, want)
	}
}
