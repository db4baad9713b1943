// Package ringmod implements the Ring device: a resonant state
// variable filter with pitch-tracked cutoff, ringing decay, slope
// morphing, and a slow stereo detune that widens the image.
package ringmod

import (
	"math"

	"github.com/grainloom/grainloom/pkg/dsp"
	"github.com/grainloom/grainloom/pkg/dsp/filter"
)

// DecayMode shapes the ringing tail.
type DecayMode int

const (
	// DecayNormal rings out over the decay time.
	DecayNormal DecayMode = iota
	// DecaySustain disables damping so resonance rings freely.
	DecaySustain
	// DecayChoke shortens the tail to a tenth of the decay time.
	DecayChoke
)

// Ring parameter ranges.
const (
	MaxPitchSemitones = 24.0
	detuneLFOHz       = 0.25
	detuneMaxCents    = 20.0
	tiltSplit         = 0.35

	minDecaySeconds  = 0.05
	decaySecondsSpan = 3.95
)

// Ring is the concrete device shipped in the default chain. One filter
// per channel so the detune LFO can split the stereo cutoffs.
type Ring struct {
	sampleRate float64
	filters    []*filter.SVF

	cutoffHz float64
	pitch    float64 // semitones
	reso     float64 // 0-1
	decay    float64 // 0-1
	mode     DecayMode
	tilt     float64 // -1..1
	slope    float32 // 0 LP, 0.5 BP, 1 HP
	tone     float32 // -1..1
	detune   float32 // 0-1 stereo spread
	wet      float32

	lfoPhase float64
}

// New creates a Ring for the given channel count.
func New(channels int, sampleRate float64) *Ring {
	if channels < 1 {
		channels = 1
	}
	r := &Ring{
		sampleRate: sampleRate,
		filters:    make([]*filter.SVF, channels),
		cutoffHz:   1000,
		decay:      1, // full ring by default
		wet:        1,
	}
	for i := range r.filters {
		r.filters[i] = filter.NewSVF(1)
		r.filters[i].SetFrequency(sampleRate, r.cutoffHz)
		r.filters[i].SetQ(0.5)
	}
	return r
}

// Reset clears filter state and the LFO phase.
func (r *Ring) Reset() {
	for _, f := range r.filters {
		f.Reset()
	}
	r.lfoPhase = 0
}

// SetCutoffHz sets the cutoff directly in Hz.
func (r *Ring) SetCutoffHz(hz float64) {
	if hz < dsp.MinFrequency {
		hz = dsp.MinFrequency
	} else if hz > dsp.MaxFrequency {
		hz = dsp.MaxFrequency
	}
	r.cutoffHz = hz
}

// SetCutoffNorm sets the cutoff from a 0-1 control mapped
// logarithmically over 20 Hz to 20 kHz.
func (r *Ring) SetCutoffNorm(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	r.cutoffHz = dsp.MinFrequency * math.Pow(dsp.MaxFrequency/dsp.MinFrequency, v)
}

// SetPitch offsets the cutoff in semitones.
func (r *Ring) SetPitch(semitones float64) {
	if semitones > MaxPitchSemitones {
		semitones = MaxPitchSemitones
	} else if semitones < -MaxPitchSemitones {
		semitones = -MaxPitchSemitones
	}
	r.pitch = semitones
}

// SetResonance sets resonance; 0-1 maps onto Q 0.5 to 12.5.
func (r *Ring) SetResonance(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	r.reso = v
}

// SetDecay sets the ringing time; 0-1 maps onto 0.05 to 4 seconds.
func (r *Ring) SetDecay(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	r.decay = v
}

// SetDecayMode selects normal, sustain, or choke behavior.
func (r *Ring) SetDecayMode(m DecayMode) { r.mode = m }

// SetTilt biases the decay split between low and band content.
func (r *Ring) SetTilt(v float64) {
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	r.tilt = v
}

// SetSlope morphs the output from lowpass through bandpass to highpass.
func (r *Ring) SetSlope(v float32) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	r.slope = v
}

// SetTone adds a bipolar spectral lean on top of the morphed output.
func (r *Ring) SetTone(v float32) {
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	r.tone = v
}

// SetDetune sets the stereo detune depth.
func (r *Ring) SetDetune(v float32) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	r.detune = v
}

// SetWet sets the dry/wet mix.
func (r *Ring) SetWet(v float32) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	r.wet = v
}

// dampFactors derives the per-sample integrator decay multipliers.
func (r *Ring) dampFactors() (low, band float32) {
	if r.mode == DecaySustain {
		return 1, 1
	}
	seconds := minDecaySeconds + r.decay*decaySecondsSpan
	if r.mode == DecayChoke {
		seconds *= 0.1
	}
	base := math.Exp(-1.0 / (seconds * r.sampleRate))
	// Tilt splits the damping so low and band content ring out at
	// different rates.
	low = float32(math.Pow(base, 1+r.tilt*tiltSplit))
	band = float32(math.Pow(base, 1-r.tilt*tiltSplit))
	return low, band
}

// ProcessBlock filters n samples in place. Coefficients update at block
// rate; the detune LFO is slow enough that this stays artifact-free at
// engine block sizes.
func (r *Ring) ProcessBlock(buffers [][]float32, n int) {
	if r.wet <= 0 {
		r.lfoPhase = math.Mod(r.lfoPhase+dsp.TwoPi*detuneLFOHz*float64(n)/r.sampleRate, dsp.TwoPi)
		return
	}

	q := 0.5 + r.reso*12
	base := r.cutoffHz * dsp.SemitonesToRatio(r.pitch)
	cents := detuneMaxCents * float64(r.detune) * math.Sin(r.lfoPhase)

	for ch := range r.filters {
		// Detune pulls the channels apart in opposite directions.
		sign := 1.0
		if ch%2 == 1 {
			sign = -1.0
		}
		f := r.filters[ch]
		f.SetFrequency(r.sampleRate, base*dsp.CentsToRatio(sign*cents))
		f.SetQ(q)
	}

	lowF, bandF := r.dampFactors()
	dry := 1 - r.wet

	for ch := 0; ch < len(buffers) && ch < len(r.filters); ch++ {
		f := r.filters[ch]
		buf := buffers[ch][:n]
		for i := range buf {
			in := buf[i]
			outs := f.ProcessSample(in, 0)
			y := outs.Morph(r.slope)
			y += r.tone * (outs.Highpass - outs.Lowpass) * 0.5
			f.Damp(0, lowF, bandF)
			if !dsp.IsFinite(y) {
				f.Reset()
				y = 0
			}
			buf[i] = in*dry + y*r.wet
		}
	}

	r.lfoPhase = math.Mod(r.lfoPhase+dsp.TwoPi*detuneLFOHz*float64(n)/r.sampleRate, dsp.TwoPi)
}
