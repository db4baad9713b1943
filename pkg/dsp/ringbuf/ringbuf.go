// Package ringbuf implements the fixed-capacity circular audio buffer
// shared by the tape and granular engines.
//
// Storage is planar (one plane per channel). The write cursor advances
// monotonically modulo capacity; once the buffer has been filled it stays
// full and writes overwrite the oldest material, giving "last N seconds"
// semantics. All operations are allocation-free after construction.
package ringbuf

import (
	"github.com/grainloom/grainloom/pkg/dsp/interpolation"
)

// Ring is a planar circular audio buffer.
type Ring struct {
	planes   [][]float32
	capacity int
	channels int
	writePos int
	filled   int
}

// New creates a ring with the given channel count and capacity in samples.
// Capacity and channels are clamped to at least 1.
func New(channels, capacity int) *Ring {
	if channels < 1 {
		channels = 1
	}
	if capacity < 1 {
		capacity = 1
	}
	planes := make([][]float32, channels)
	for ch := range planes {
		planes[ch] = make([]float32, capacity)
	}
	return &Ring{
		planes:   planes,
		capacity: capacity,
		channels: channels,
	}
}

// Channels returns the channel count.
func (r *Ring) Channels() int { return r.channels }

// Capacity returns the capacity in samples per channel.
func (r *Ring) Capacity() int { return r.capacity }

// Filled returns how many valid samples the ring holds, saturating at
// capacity once the buffer has wrapped.
func (r *Ring) Filled() int { return r.filled }

// WritePos returns the current write cursor (modulo capacity).
func (r *Ring) WritePos() int { return r.writePos }

// Clear zeroes the buffer and resets the cursors.
func (r *Ring) Clear() {
	for _, p := range r.planes {
		for i := range p {
			p[i] = 0
		}
	}
	r.writePos = 0
	r.filled = 0
}

// WriteFrame appends one sample per channel at the write cursor and
// advances it. Missing channels in frame write silence.
func (r *Ring) WriteFrame(frame []float32) {
	for ch := 0; ch < r.channels; ch++ {
		var v float32
		if ch < len(frame) {
			v = frame[ch]
		}
		r.planes[ch][r.writePos] = v
	}
	r.advance()
}

// OverdubFrame blends one sample per channel with existing content at the
// write cursor: existing*keep + new. keep=0 behaves like WriteFrame,
// keep=1 accumulates fully (sound-on-sound).
func (r *Ring) OverdubFrame(frame []float32, keep float32) {
	for ch := 0; ch < r.channels; ch++ {
		var v float32
		if ch < len(frame) {
			v = frame[ch]
		}
		r.planes[ch][r.writePos] = r.planes[ch][r.writePos]*keep + v
	}
	r.advance()
}

// Write appends n samples from each plane of src, wrapping and
// overwriting the oldest data once full.
func (r *Ring) Write(src [][]float32, n int) {
	for i := 0; i < n; i++ {
		for ch := 0; ch < r.channels; ch++ {
			var v float32
			if ch < len(src) && i < len(src[ch]) {
				v = src[ch][i]
			}
			r.planes[ch][r.writePos] = v
		}
		r.advance()
	}
}

func (r *Ring) advance() {
	r.writePos++
	if r.writePos >= r.capacity {
		r.writePos = 0
	}
	if r.filled < r.capacity {
		r.filled++
	}
}

// ReadLast copies a window ending offset samples behind the write cursor
// into dst, stitching across the wrap boundary. The window is truncated
// to what the ring can serve (capacity, and what has been written); the
// returned count is the number of samples delivered, newest-last.
func (r *Ring) ReadLast(ch, offset int, dst []float32) int {
	if ch < 0 || ch >= r.channels || offset < 0 {
		return 0
	}
	n := len(dst)
	if n > r.capacity {
		n = r.capacity
	}
	avail := r.filled - offset
	if avail <= 0 {
		return 0
	}
	if n > avail {
		n = avail
	}
	start := r.writePos - offset - n
	for start < 0 {
		start += r.capacity
	}
	plane := r.planes[ch]
	first := n
	if start+first > r.capacity {
		first = r.capacity - start
	}
	copy(dst[:first], plane[start:start+first])
	if first < n {
		copy(dst[first:n], plane[:n-first])
	}
	return n
}

// At returns the raw sample at index idx, resolved modulo capacity.
func (r *Ring) At(ch, idx int) float32 {
	if ch < 0 || ch >= r.channels {
		return 0
	}
	idx %= r.capacity
	if idx < 0 {
		idx += r.capacity
	}
	return r.planes[ch][idx]
}

// Interp reads a linearly interpolated sample at a fractional position,
// resolved modulo capacity.
func (r *Ring) Interp(ch int, pos float64) float32 {
	if ch < 0 || ch >= r.channels {
		return 0
	}
	n := float64(r.capacity)
	for pos < 0 {
		pos += n
	}
	idx0 := int(pos) % r.capacity
	idx1 := idx0 + 1
	if idx1 >= r.capacity {
		idx1 = 0
	}
	frac := float32(pos - float64(int(pos)))
	return interpolation.Linear(r.planes[ch][idx0], r.planes[ch][idx1], frac)
}

// SetAt overwrites the sample at index idx (modulo capacity) without
// moving the write cursor. Used by the tape record head, which runs
// independently of the ring's append cursor.
func (r *Ring) SetAt(ch, idx int, v float32) {
	if ch < 0 || ch >= r.channels {
		return
	}
	idx %= r.capacity
	if idx < 0 {
		idx += r.capacity
	}
	r.planes[ch][idx] = v
	if r.filled <= idx {
		r.filled = idx + 1
	}
}

// BlendAt mixes v into the sample at index idx: existing*keep + v.
func (r *Ring) BlendAt(ch, idx int, v, keep float32) {
	if ch < 0 || ch >= r.channels {
		return
	}
	idx %= r.capacity
	if idx < 0 {
		idx += r.capacity
	}
	r.planes[ch][idx] = r.planes[ch][idx]*keep + v
	if r.filled <= idx {
		r.filled = idx + 1
	}
}

// CopyFrom populates the ring from planar source material starting at
// index 0. It is intended for control-side preparation of a ring that is
// handed to the render context afterwards; it is not render-safe.
func (r *Ring) CopyFrom(src [][]float32) {
	r.Clear()
	n := 0
	if len(src) > 0 {
		n = len(src[0])
	}
	if n > r.capacity {
		n = r.capacity
	}
	for ch := 0; ch < r.channels; ch++ {
		srcCh := ch
		if srcCh >= len(src) {
			srcCh = len(src) - 1
		}
		if srcCh < 0 {
			break
		}
		copy(r.planes[ch][:n], src[srcCh][:n])
	}
	r.filled = n
	r.writePos = n % r.capacity
}

// Plane exposes a channel's backing storage for analysis and tests.
func (r *Ring) Plane(ch int) []float32 {
	if ch < 0 || ch >= r.channels {
		return nil
	}
	return r.planes[ch]
}
