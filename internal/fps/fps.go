// Package fps measures frame times and reports a smoothed frame rate.
package fps

import (
	"time"

	"github.com/loov/hrtime"
)

// SampleCount is the number of frame times averaged by FPS.
const SampleCount = 5

// Counter records the time between successive calls to Tick.
type Counter struct {
	now     func() time.Duration
	last    time.Duration
	samples [SampleCount]time.Duration
	filled  int
	next    int
	delta   time.Duration
}

// New starts a counter on the hrtime clock.
func New() *Counter {
	return newCounter(hrtime.Now)
}

func newCounter(now func() time.Duration) *Counter {
	return &Counter{now: now, last: now()}
}

// Tick marks the end of a frame.
func (c *Counter) Tick() {
	now := c.now()
	c.delta = now - c.last
	c.last = now

	c.samples[c.next] = c.delta
	c.next = (c.next + 1) % SampleCount
	if c.filled < SampleCount {
		c.filled++
	}
}

// Delta is the duration of the last frame.
func (c *Counter) Delta() time.Duration {
	return c.delta
}

// FPS is the frame rate averaged over the last SampleCount frames, or zero
// before the first Tick.
func (c *Counter) FPS() float64 {
	var sum time.Duration
	for _, s := range c.samples[:c.filled] {
		sum += s
	}
	if sum <= 0 {
		return 0
	}
	return float64(c.filled) / sum.Seconds()
}

// Pace sleeps for whatever is left of a frame at the target rate. A
// target of zero or less disables pacing.
func (c *Counter) Pace(target float64) {
	if target <= 0 {
		return
	}
	budget := time.Duration(float64(time.Second) / target)
	if spent := c.now() - c.last; spent < budget {
		time.Sleep(budget - spent)
	}
}
