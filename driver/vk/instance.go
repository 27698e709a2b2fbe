// Package vk implements the driver interfaces on top of vkngwrapper.
package vk

import (
	"context"
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/vkngwrapper/renderloop/driver"
)

// InstanceOptions configure NewInstance.
type InstanceOptions struct {
	AppName string

	// Extensions are the instance extensions the windowing system needs.
	Extensions []string

	// Validation enables Layers and a debug messenger that forwards layer
	// output to Logger.
	Validation bool
	Layers     []string

	Logger *slog.Logger
}

// Instance is a Vulkan instance together with its surface extension.
type Instance struct {
	driver     core1_0.CoreInstanceDriver
	surfaceExt khr_surface.ExtensionDriver

	debug     ext_debug_utils.ExtensionDriver
	messenger ext_debug_utils.DebugUtilsMessenger

	log *slog.Logger
}

var _ driver.Instance = (*Instance)(nil)

// NewInstance creates an instance with every extension in opts enabled.
// Portability enumeration is turned on when the loader offers it.
func NewInstance(global core1_0.GlobalDriver, opts InstanceOptions) (*Instance, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	inst := &Instance{log: log}

	info := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "renderloop",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	available, _, err := global.AvailableExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range opts.Extensions {
		_, ok := available[ext]
		if !ok {
			return nil, errors.Newf("create instance: missing extension %s", ext)
		}
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext)
	}

	if opts.Validation {
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	_, portability := available[khr_portability_enumeration.ExtensionName]
	if portability {
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		info.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if opts.Validation {
		layers, _, err := global.AvailableLayers()
		if err != nil {
			return nil, errors.Wrap(err, "enumerate instance layers")
		}

		for _, layer := range opts.Layers {
			_, ok := layers[layer]
			if !ok {
				return nil, errors.Newf("create instance: validation layer %s not available, install the Vulkan SDK", layer)
			}
			info.EnabledLayerNames = append(info.EnabledLayerNames, layer)
		}

		info.Next = inst.messengerInfo()
	}

	inst.driver, _, err = global.CreateInstance(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}

	if opts.Validation {
		inst.debug = ext_debug_utils.CreateExtensionDriverFromCoreDriver(inst.driver)
		inst.messenger, _, err = inst.debug.CreateDebugUtilsMessenger(nil, inst.messengerInfo())
		if err != nil {
			inst.driver.DestroyInstance(nil)
			return nil, errors.Wrap(err, "create debug messenger")
		}
	}

	inst.surfaceExt = khr_surface.CreateExtensionDriverFromCoreDriver(inst.driver)
	return inst, nil
}

func (i *Instance) messengerInfo() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    i.logDebug,
	}
}

func (i *Instance) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	level := slog.LevelWarn
	if severity&ext_debug_utils.SeverityError != 0 {
		level = slog.LevelError
	}
	i.log.Log(context.Background(), level, data.Message, "type", msgType, "severity", severity)
	return false
}

// Driver exposes the underlying instance driver.
func (i *Instance) Driver() core1_0.CoreInstanceDriver {
	return i.driver
}

func (i *Instance) PhysicalDevices() ([]driver.PhysicalDevice, error) {
	handles, _, err := i.driver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	devices := make([]driver.PhysicalDevice, 0, len(handles))
	for _, handle := range handles {
		device, err := newPhysicalDevice(i, handle)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, nil
}

func (i *Instance) Destroy() {
	if i.messenger.Initialized() {
		i.debug.DestroyDebugUtilsMessenger(i.messenger, nil)
		i.messenger = ext_debug_utils.DebugUtilsMessenger{}
	}
	if i.driver != nil {
		i.driver.DestroyInstance(nil)
		i.driver = nil
	}
}
