// Package decode loads audio files into planar float32 clips for the
// control side to prepare and hand to the engine. WAV, MP3, and Ogg
// Vorbis are supported by extension.
package decode

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/grainloom/grainloom/pkg/dsp/ringbuf"
	"github.com/grainloom/grainloom/pkg/framework/debug"
)

// Decoder error taxonomy. Callers branch on these with errors.Is.
var (
	// ErrUnsupportedFormat marks a file extension no decoder claims.
	ErrUnsupportedFormat = errors.New("decode: unsupported format")
	// ErrIoFailure marks filesystem problems.
	ErrIoFailure = errors.New("decode: io failure")
	// ErrCorruptStream marks undecodable file contents.
	ErrCorruptStream = errors.New("decode: corrupt stream")
)

// Clip is decoded audio: planar channels at the source sample rate.
type Clip struct {
	Planes     [][]float32
	SampleRate int
	Path       string
}

// Channels returns the channel count.
func (c *Clip) Channels() int { return len(c.Planes) }

// Frames returns the per-channel length.
func (c *Clip) Frames() int {
	if len(c.Planes) == 0 {
		return 0
	}
	return len(c.Planes[0])
}

// Load decodes a file by extension.
func Load(path string) (*Clip, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		clip *Clip
		err  error
	)
	switch ext {
	case ".wav":
		clip, err = loadWAV(path)
	case ".mp3":
		clip, err = loadMP3(path)
	case ".ogg":
		clip, err = loadOGG(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	clip.Path = path
	debug.Infof("decoded %s: %d ch, %d frames at %d Hz", path, clip.Channels(), clip.Frames(), clip.SampleRate)
	return clip, nil
}

func loadWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIoFailure, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav file", ErrCorruptStream)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	fbuf := buf.AsFloat32Buffer()
	return deinterleave(fbuf.Data, buf.Format.NumChannels, buf.Format.SampleRate), nil
}

func loadMP3(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIoFailure, err)
	}
	defer f.Close()

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	// go-mp3 streams 16-bit little-endian stereo PCM.
	raw := make([]byte, 0, dec.Length())
	chunk := make([]byte, 8192)
	for {
		n, err := dec.Read(chunk)
		raw = append(raw, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
		}
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		samples[i] = float32(v) / 32768.0
	}
	return deinterleave(samples, 2, dec.SampleRate()), nil
}

func loadOGG(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIoFailure, err)
	}
	defer f.Close()

	data, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	return deinterleave(data, format.Channels, format.SampleRate), nil
}

// deinterleave splits interleaved samples into planar channels.
func deinterleave(data []float32, channels, sampleRate int) *Clip {
	if channels < 1 {
		channels = 1
	}
	frames := len(data) / channels
	clip := &Clip{
		Planes:     make([][]float32, channels),
		SampleRate: sampleRate,
	}
	for ch := 0; ch < channels; ch++ {
		plane := make([]float32, frames)
		for i := 0; i < frames; i++ {
			plane[i] = data[i*channels+ch]
		}
		clip.Planes[ch] = plane
	}
	return clip
}

// ToRing populates a prepared circular buffer from a clip. capacity
// sets the ring size; clips longer than the capacity are truncated.
// The result is ready to hand to the engine through a LoadRing command.
func ToRing(clip *Clip, channels, capacity int) *ringbuf.Ring {
	r := ringbuf.New(channels, capacity)
	frames := clip.Frames()
	if frames > capacity {
		frames = capacity
		debug.Warnf("clip %s truncated to %d frames", clip.Path, capacity)
	}
	planes := make([][]float32, len(clip.Planes))
	for ch := range planes {
		planes[ch] = clip.Planes[ch][:frames]
	}
	r.CopyFrom(planes)
	return r
}

// Resample converts a clip to dstRate with linear interpolation. The
// input clip is returned unchanged when the rates already match.
func Resample(clip *Clip, dstRate int) *Clip {
	if clip.SampleRate == dstRate || clip.SampleRate <= 0 || dstRate <= 0 || clip.Frames() == 0 {
		return clip
	}
	ratio := float64(clip.SampleRate) / float64(dstRate)
	srcFrames := clip.Frames()
	dstFrames := int(math.Floor(float64(srcFrames) / ratio))
	if dstFrames < 1 {
		dstFrames = 1
	}

	out := &Clip{
		Planes:     make([][]float32, clip.Channels()),
		SampleRate: dstRate,
		Path:       clip.Path,
	}
	for ch := range clip.Planes {
		src := clip.Planes[ch]
		dst := make([]float32, dstFrames)
		for i := range dst {
			pos := float64(i) * ratio
			idx := int(pos)
			frac := float32(pos - float64(idx))
			s0 := src[idx]
			s1 := s0
			if idx+1 < srcFrames {
				s1 = src[idx+1]
			}
			dst[i] = s0 + (s1-s0)*frac
		}
		out.Planes[ch] = dst
	}
	return out
}
