// Package device defines the per-track effect chain contract.
package device

// Device is one post-granular effect. ProcessBlock operates in place on
// planar buffers and must not allocate.
type Device interface {
	// ProcessBlock processes n samples of each channel in place.
	ProcessBlock(buffers [][]float32, n int)
	// Reset clears internal state without touching parameters.
	Reset()
}

type slot struct {
	dev    Device
	bypass bool
}

// Chain is a fixed-order list of devices. Bypassing a device never
// reorders the chain.
type Chain struct {
	slots []slot
}

// NewChain builds a chain over the given devices, all enabled.
func NewChain(devices ...Device) *Chain {
	c := &Chain{slots: make([]slot, len(devices))}
	for i, d := range devices {
		c.slots[i].dev = d
	}
	return c
}

// Len returns the number of devices in the chain.
func (c *Chain) Len() int { return len(c.slots) }

// Device returns the device at index i.
func (c *Chain) Device(i int) Device { return c.slots[i].dev }

// SetBypass enables or disables the device at index i.
func (c *Chain) SetBypass(i int, bypass bool) {
	if i < 0 || i >= len(c.slots) {
		return
	}
	c.slots[i].bypass = bypass
}

// Bypassed reports whether the device at index i is bypassed.
func (c *Chain) Bypassed(i int) bool {
	if i < 0 || i >= len(c.slots) {
		return false
	}
	return c.slots[i].bypass
}

// ProcessBlock runs every enabled device in order.
func (c *Chain) ProcessBlock(buffers [][]float32, n int) {
	for i := range c.slots {
		if c.slots[i].bypass {
			continue
		}
		c.slots[i].dev.ProcessBlock(buffers, n)
	}
}

// Reset resets every device, bypassed or not.
func (c *Chain) Reset() {
	for i := range c.slots {
		c.slots[i].dev.Reset()
	}
}
