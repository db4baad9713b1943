package engine

import "github.com/grainloom/grainloom/pkg/dsp"

// Config holds the engine construction settings. Zero values select the
// defaults, so Config{} is usable as-is.
type Config struct {
	Channels     int     // output channel count
	SampleRate   float64 // render rate in Hz
	MaxBlockSize int     // largest block the render callback may request
}

// DefaultConfig returns the stereo 48 kHz defaults.
func DefaultConfig() Config {
	return Config{
		Channels:     dsp.Stereo,
		SampleRate:   dsp.SampleRate48k,
		MaxBlockSize: dsp.DefaultBlockSize,
	}
}

// sanitize fills in defaults and clamps the block size to the accepted
// range.
func (c *Config) sanitize() {
	if c.Channels < 1 {
		c.Channels = dsp.Stereo
	}
	if c.SampleRate <= 0 {
		c.SampleRate = dsp.SampleRate48k
	}
	if c.MaxBlockSize < dsp.MinBlockSize {
		c.MaxBlockSize = dsp.DefaultBlockSize
	}
	if c.MaxBlockSize > dsp.MaxBlockSize {
		c.MaxBlockSize = dsp.MaxBlockSize
	}
}
