package render

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/renderloop/driver"
)

func TestSelectDeviceFirstSuitable(t *testing.T) {
	rig := newFakeRig()

	noPresent := *rig.gpu
	noPresent.name = "no present"
	noPresent.present = map[int]bool{}

	second := *rig.gpu
	second.name = "second"

	rig.instance.devices = []driver.PhysicalDevice{&noPresent, rig.gpu, &second}

	choice, err := SelectDevice(rig.instance, rig.surface, []string{SwapchainExtension})
	if err != nil {
		t.Fatal(err)
	}
	if choice.Name != "fake gpu" {
		t.Errorf("got %q, want the first suitable device", choice.Name)
	}
}

func TestSelectDeviceSplitFamilies(t *testing.T) {
	rig := newFakeRig()
	rig.gpu.families = []driver.QueueFamily{
		{Graphics: false, QueueCount: 1},
		{Graphics: true, QueueCount: 4},
		{Graphics: false, QueueCount: 1},
	}
	rig.gpu.present = map[int]bool{0: true, 2: true}

	choice, err := SelectDevice(rig.instance, rig.surface, []string{SwapchainExtension})
	if err != nil {
		t.Fatal(err)
	}
	want := QueueFamilyIndices{Graphics: 1, Present: 0}
	if choice.Families != want {
		t.Errorf("got %+v, want %+v", choice.Families, want)
	}
}

func TestSelectDeviceRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*fakePhysicalDevice)
	}{
		{"no graphics", func(p *fakePhysicalDevice) {
			p.families = []driver.QueueFamily{{Graphics: false, QueueCount: 1}}
		}},
		{"no present", func(p *fakePhysicalDevice) {
			p.present = map[int]bool{}
		}},
		{"missing extension", func(p *fakePhysicalDevice) {
			p.extensions = map[string]struct{}{}
		}},
		{"no formats", func(p *fakePhysicalDevice) {
			p.support.Formats = nil
		}},
		{"no present modes", func(p *fakePhysicalDevice) {
			p.support.PresentModes = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newFakeRig()
			tt.modify(rig.gpu)

			_, err := SelectDevice(rig.instance, rig.surface, []string{SwapchainExtension})
			if !errors.Is(err, ErrNoSuitableDevice) {
				t.Errorf("got %v, want ErrNoSuitableDevice", err)
			}
		})
	}
}

func TestNewFailsWithoutSuitableDevice(t *testing.T) {
	rig := newFakeRig()
	rig.instance.devices = nil

	_, err := rig.newRenderer(DefaultConfig())
	if !errors.Is(err, ErrNoSuitableDevice) {
		t.Fatalf("got %v, want ErrNoSuitableDevice", err)
	}
	if rig.w.live["instance"] != 0 || rig.w.live["surface"] != 0 {
		t.Errorf("instance and surface not released after failed startup: %v", rig.w.live)
	}
}
