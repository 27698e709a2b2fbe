package vk

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Buffer is a buffer bound to memory it owns.
type Buffer struct {
	device *Device
	handle core1_0.Buffer
	memory core1_0.DeviceMemory
	size   int
}

func (b *Buffer) Size() int { return b.size }

func (b *Buffer) Handle() core1_0.Buffer { return b.handle }

func (b *Buffer) Destroy() {
	if b.handle.Initialized() {
		b.device.driver.DestroyBuffer(b.handle, nil)
		b.handle = core1_0.Buffer{}
	}
	if b.memory.Initialized() {
		b.device.driver.FreeMemory(b.memory, nil)
		b.memory = core1_0.DeviceMemory{}
	}
}

// CreateBuffer creates a buffer of size bytes backed by memory with the
// given properties.
func (d *Device) CreateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (*Buffer, error) {
	handle, _, err := d.driver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}
	buffer := &Buffer{device: d, handle: handle, size: size}

	memReqs := d.driver.GetBufferMemoryRequirements(handle)
	buffer.memory, err = d.allocate(memReqs.Size, memReqs.MemoryTypeBits, properties)
	if err != nil {
		buffer.Destroy()
		return nil, err
	}

	_, err = d.driver.BindBufferMemory(handle, buffer.memory, 0)
	if err != nil {
		buffer.Destroy()
		return nil, errors.Wrap(err, "bind buffer memory")
	}
	return buffer, nil
}

// Write encodes data with binary.Write into host-visible memory at offset.
func (b *Buffer) Write(offset int, data any) error {
	encoded, err := encode(data)
	if err != nil {
		return err
	}
	if offset+len(encoded) > b.size {
		return errors.Newf("write of %d bytes at offset %d overflows buffer of %d", len(encoded), offset, b.size)
	}

	memoryPtr, _, err := b.device.driver.MapMemory(b.memory, offset, len(encoded), 0)
	if err != nil {
		return errors.Wrap(err, "map buffer memory")
	}
	defer b.device.driver.UnmapMemory(b.memory)

	copy(unsafe.Slice((*byte)(memoryPtr), len(encoded)), encoded)
	return nil
}

func encode(data any) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return nil, errors.Wrap(err, "encode buffer data")
	}
	return buf.Bytes(), nil
}

// Upload creates a device-local buffer holding data, copied through a
// host-visible staging buffer. usage is added to the transfer destination
// flag.
func (d *Device) Upload(pool *CommandPool, usage core1_0.BufferUsageFlags, data any) (*Buffer, error) {
	size := binary.Size(data)
	if size <= 0 {
		return nil, errors.Newf("upload: cannot size %T", data)
	}

	staging, err := d.CreateBuffer(size, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}
	defer staging.Destroy()

	err = staging.Write(0, data)
	if err != nil {
		return nil, err
	}

	buffer, err := d.CreateBuffer(size, core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}

	err = pool.RunOnce(func(cmd core1_0.CommandBuffer) error {
		return d.driver.CmdCopyBuffer(cmd, staging.handle, buffer.handle, core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		})
	})
	if err != nil {
		buffer.Destroy()
		return nil, errors.Wrap(err, "copy staging buffer")
	}
	return buffer, nil
}
