package render

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/renderloop/driver"
)

// FrameSlot is the synchronization set for one frame in flight.
type FrameSlot struct {
	ImageAvailable driver.Semaphore
	RenderFinished driver.Semaphore
	InFlight       driver.Fence
}

// FrameSynchronizer owns a fixed ring of frame slots and the cursor that
// walks it. The ring is built once and survives swapchain recreation; the
// number of slots has nothing to do with the number of swapchain images.
type FrameSynchronizer struct {
	device driver.Device
	slots  []FrameSlot
	cursor int

	// unsubmitted marks slots whose fence was reset but whose submit never
	// happened. Such a fence will not signal again and must not be waited.
	unsubmitted []bool
}

// NewFrameSynchronizer creates count slots. Fences start signaled so the
// first pass over the ring does not wait on work that was never submitted.
func NewFrameSynchronizer(device driver.Device, count int) (*FrameSynchronizer, error) {
	if count < 1 {
		return nil, errors.Newf("frame synchronizer: need at least one slot, got %d", count)
	}

	f := &FrameSynchronizer{device: device}
	for i := 0; i < count; i++ {
		slot, err := createSlot(device)
		if err != nil {
			f.Destroy()
			return nil, errors.Wrapf(err, "create frame slot %d", i)
		}
		f.slots = append(f.slots, slot)
	}
	f.unsubmitted = make([]bool, count)

	return f, nil
}

func createSlot(device driver.Device) (FrameSlot, error) {
	var slot FrameSlot
	var err error

	slot.ImageAvailable, err = device.CreateSemaphore()
	if err != nil {
		return slot, err
	}

	slot.RenderFinished, err = device.CreateSemaphore()
	if err != nil {
		slot.ImageAvailable.Destroy()
		return slot, err
	}

	slot.InFlight, err = device.CreateFence(true)
	if err != nil {
		slot.RenderFinished.Destroy()
		slot.ImageAvailable.Destroy()
		return slot, err
	}

	return slot, nil
}

// Advance returns the slot after cursor in a ring of n.
func Advance(cursor, n int) int {
	return (cursor + 1) % n
}

// Len is the number of slots.
func (f *FrameSynchronizer) Len() int {
	return len(f.slots)
}

// Cursor is the index of the current slot.
func (f *FrameSynchronizer) Cursor() int {
	return f.cursor
}

// Current returns the slot under the cursor.
func (f *FrameSynchronizer) Current() FrameSlot {
	return f.slots[f.cursor]
}

// Slot returns slot i without moving the cursor.
func (f *FrameSynchronizer) Slot(i int) FrameSlot {
	return f.slots[i]
}

// Step moves the cursor to the next slot.
func (f *FrameSynchronizer) Step() {
	f.cursor = Advance(f.cursor, len(f.slots))
}

// WaitCurrent blocks until the GPU has finished the last submission made
// from the current slot.
func (f *FrameSynchronizer) WaitCurrent() error {
	if f.unsubmitted[f.cursor] {
		return nil
	}
	return f.slots[f.cursor].InFlight.Wait()
}

// ResetCurrent unsignals the current slot's fence ahead of a submit.
func (f *FrameSynchronizer) ResetCurrent() error {
	err := f.slots[f.cursor].InFlight.Reset()
	if err != nil {
		return err
	}
	f.unsubmitted[f.cursor] = true
	return nil
}

// MarkSubmitted records that the current slot's fence was handed to a
// queue submission.
func (f *FrameSynchronizer) MarkSubmitted() {
	f.unsubmitted[f.cursor] = false
}

// WaitAll blocks until every submitted slot's fence is signaled.
func (f *FrameSynchronizer) WaitAll() error {
	for i, slot := range f.slots {
		if f.unsubmitted[i] {
			continue
		}
		err := slot.InFlight.Wait()
		if err != nil {
			return errors.Wrapf(err, "wait for frame slot %d", i)
		}
	}
	return nil
}

// Destroy releases every slot. No submitted work may reference them.
func (f *FrameSynchronizer) Destroy() {
	for _, slot := range f.slots {
		slot.InFlight.Destroy()
		slot.RenderFinished.Destroy()
		slot.ImageAvailable.Destroy()
	}
	f.slots = nil
	f.unsubmitted = nil
	f.cursor = 0
}
