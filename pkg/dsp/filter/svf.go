// Package filter provides the state variable filter used by the Ring
// device.
package filter

import "math"

// SVF is a zero-delay-feedback state variable filter with simultaneous
// lowpass, bandpass, and highpass outputs, with independent state per
// channel.
type SVF struct {
	g float32 // frequency coefficient (pre-warped)
	k float32 // damping coefficient (1/Q)

	ic1eq []float32
	ic2eq []float32
}

// Outputs holds the simultaneous filter outputs for one sample.
type Outputs struct {
	Lowpass  float32
	Bandpass float32
	Highpass float32
}

// NewSVF creates a filter for the given channel count.
func NewSVF(channels int) *SVF {
	if channels < 1 {
		channels = 1
	}
	return &SVF{
		ic1eq: make([]float32, channels),
		ic2eq: make([]float32, channels),
	}
}

// Reset clears the integrator state.
func (s *SVF) Reset() {
	for i := range s.ic1eq {
		s.ic1eq[i] = 0
		s.ic2eq[i] = 0
	}
}

// SetFrequency sets the cutoff, pre-warping for the bilinear transform.
// Frequency is clamped below Nyquist to keep tan() finite.
func (s *SVF) SetFrequency(sampleRate, frequency float64) {
	max := sampleRate * 0.45
	if frequency > max {
		frequency = max
	}
	if frequency < 1 {
		frequency = 1
	}
	s.g = float32(math.Tan(math.Pi * frequency / sampleRate))
}

// SetQ sets the resonance.
func (s *SVF) SetQ(q float64) {
	if q < 0.001 {
		q = 0.001
	}
	s.k = float32(1.0 / q)
}

// Damp decays the integrator state toward silence; the Ring device uses
// this for its ringing-decay control. factors are per-integrator so the
// tilt control can decay low and band content at different rates.
func (s *SVF) Damp(channel int, lowFactor, bandFactor float32) {
	s.ic2eq[channel] *= lowFactor
	s.ic1eq[channel] *= bandFactor
}

// ProcessSample runs one sample through the filter and returns all
// outputs. State is clamped so driven resonance cannot blow up.
func (s *SVF) ProcessSample(input float32, channel int) Outputs {
	ic1eq := s.ic1eq[channel]
	ic2eq := s.ic2eq[channel]

	g := s.g
	k := s.k
	a1 := 1.0 / (1.0 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	v3 := input - ic2eq
	v1 := a1*ic1eq + a2*v3
	v2 := ic2eq + a2*ic1eq + a3*v3

	ic1eq = clampState(2.0*v1 - ic1eq)
	ic2eq = clampState(2.0*v2 - ic2eq)

	s.ic1eq[channel] = ic1eq
	s.ic2eq[channel] = ic2eq

	return Outputs{
		Lowpass:  v2,
		Bandpass: v1,
		Highpass: input - k*v1 - v2,
	}
}

// Morph blends the three outputs along a single slope control:
// 0 = lowpass, 0.5 = bandpass, 1 = highpass.
func (o Outputs) Morph(slope float32) float32 {
	if slope < 0 {
		slope = 0
	} else if slope > 1 {
		slope = 1
	}
	if slope < 0.5 {
		t := slope / 0.5
		return o.Lowpass + (o.Bandpass-o.Lowpass)*t
	}
	t := (slope - 0.5) / 0.5
	return o.Bandpass + (o.Highpass-o.Bandpass)*t
}

func clampState(v float32) float32 {
	const limit = 8.0
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
