// Package dsp provides digital signal processing primitives for the engine.
package dsp

import "math"

// Buffer helpers shared by the render path. None of these allocate.

// Clear zeroes a buffer.
func Clear(buffer []float32) {
	for i := range buffer {
		buffer[i] = 0
	}
}

// ClearPlanar zeroes every channel plane.
func ClearPlanar(planes [][]float32) {
	for _, p := range planes {
		Clear(p)
	}
}

// Add adds source to destination.
func Add(dst, src []float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// AddScaled adds scaled source to destination.
func AddScaled(dst, src []float32, scale float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i] * scale
	}
}

// Scale multiplies buffer by a constant.
func Scale(buffer []float32, scale float32) {
	for i := range buffer {
		buffer[i] *= scale
	}
}

// Mix blends two buffers into dst (0=all src1, 1=all src2).
func Mix(dst, src1, src2 []float32, mix float32) {
	n := len(dst)
	if len(src1) < n {
		n = len(src1)
	}
	if len(src2) < n {
		n = len(src2)
	}
	invMix := 1.0 - mix
	for i := 0; i < n; i++ {
		dst[i] = src1[i]*invMix + src2[i]*mix
	}
}

// Peak finds the maximum absolute value in a buffer.
func Peak(buffer []float32) float32 {
	peak := float32(0)
	for _, sample := range buffer {
		abs := float32(math.Abs(float64(sample)))
		if abs > peak {
			peak = abs
		}
	}
	return peak
}

// RMS calculates the root mean square of a buffer.
func RMS(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}
	sum := float32(0)
	for _, sample := range buffer {
		sum += sample * sample
	}
	return float32(math.Sqrt(float64(sum / float32(len(buffer)))))
}

// ScrubNonFinite replaces NaN/Inf samples with silence. The render
// callback must never hand a non-finite sample to the host.
func ScrubNonFinite(buffer []float32) {
	for i, sample := range buffer {
		if !IsFinite(sample) {
			buffer[i] = 0
		}
	}
}

// IsFinite reports whether a sample is neither NaN nor Inf.
func IsFinite(x float32) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
