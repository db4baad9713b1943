package dsp

import "math"

// Engine-wide audio constants.
const (
	// Channel counts
	Mono   = 1
	Stereo = 2

	// Common sample rates
	SampleRate44k1 = 44100.0
	SampleRate48k  = 48000.0
	SampleRate96k  = 96000.0

	// Block sizes accepted at the render boundary
	MinBlockSize     = 32
	DefaultBlockSize = 512
	MaxBlockSize     = 8192

	// Parameter smoothing times in seconds
	FastSmoothing    = 0.001
	DefaultSmoothing = 0.020
	SlowSmoothing    = 0.050

	// Frequency range for filter controls
	MinFrequency = 20.0
	MaxFrequency = 20000.0

	// Phase constants
	Pi    = 3.141592653589793
	TwoPi = 6.283185307179586

	// Small values for comparisons
	Epsilon = 1e-6
)

// SemitonesToRatio converts a semitone offset to a playback rate ratio.
func SemitonesToRatio(semitones float64) float64 {
	return math.Exp2(semitones / 12.0)
}

// CentsToRatio converts a cents offset to a playback rate ratio.
func CentsToRatio(cents float64) float64 {
	return math.Exp2(cents / 1200.0)
}
