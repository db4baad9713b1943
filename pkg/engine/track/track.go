// Package track assembles one channel strip: tape head, granular
// scheduler, device chain, and level/mute into the master mix.
package track

import (
	"github.com/grainloom/grainloom/pkg/dsp"
	"github.com/grainloom/grainloom/pkg/dsp/ringbuf"
	"github.com/grainloom/grainloom/pkg/engine/device"
	"github.com/grainloom/grainloom/pkg/engine/mosaic"
	"github.com/grainloom/grainloom/pkg/engine/ringmod"
	"github.com/grainloom/grainloom/pkg/engine/tape"
	"github.com/grainloom/grainloom/pkg/framework/param"
)

// RecordMaxSeconds is the tape buffer length per track.
const RecordMaxSeconds = 30

// Parameter IDs, stable across snapshots.
const (
	ParamLevel uint32 = iota + 1
	ParamMute
	ParamWet
	ParamSpeed
	ParamGlide
	ParamReverse
	ParamKeylock
	ParamTapeSOS
	ParamMonitor
	ParamRateMode
	ParamLoopMode
	ParamGrainRate
	ParamGrainSync
	ParamPattern
	ParamWarp
	ParamSpray
	ParamSize
	ParamSizeJitter
	ParamGrainPitch
	ParamDetune
	ParamSpatial
	ParamContour
	ParamGrainSOS
	ParamRingCutoff
	ParamRingReso
	ParamRingDecay
	ParamRingDecayMode
	ParamRingPitch
	ParamRingTilt
	ParamRingSlope
	ParamRingTone
	ParamRingDetune
	ParamRingWet
	ParamRingBypass
)

// Track owns one tape engine, one mosaic scheduler, and one device
// chain, plus their parameter set. Render methods run on the render
// context; parameters and the command queue are the only control-side
// surface.
type Track struct {
	Index int

	Tape    *tape.Engine
	Mosaic  *mosaic.Engine
	RingDev *ringmod.Ring
	Chain   *device.Chain
	Params  *param.Registry

	sampleRate float64
	channels   int

	level *param.SmoothedParameter
	wet   *param.SmoothedParameter

	dry  [][]float32
	wetB [][]float32
}

// New creates a track with a cleared 30-second tape buffer.
func New(index, channels int, sampleRate float64, maxBlock int) *Track {
	if channels < 1 {
		channels = 1
	}
	ring := ringbuf.New(channels, int(RecordMaxSeconds*sampleRate))
	t := &Track{
		Index:      index,
		sampleRate: sampleRate,
		channels:   channels,
		Params:     param.NewRegistry(),
	}
	t.Tape = tape.New(ring, sampleRate)
	t.Mosaic = mosaic.New(sampleRate, uint32(index+1)*0x9e3779b9)
	t.RingDev = ringmod.New(channels, sampleRate)
	t.Chain = device.NewChain(t.RingDev)

	t.buildParams()
	t.level = param.NewSmoothedParameter(t.get(ParamLevel), param.SmoothLinear, dsp.DefaultSmoothing, sampleRate)
	t.wet = param.NewSmoothedParameter(t.get(ParamWet), param.SmoothLinear, dsp.DefaultSmoothing, sampleRate)

	t.dry = make([][]float32, channels)
	t.wetB = make([][]float32, channels)
	for ch := 0; ch < channels; ch++ {
		t.dry[ch] = make([]float32, maxBlock)
		t.wetB[ch] = make([]float32, maxBlock)
	}
	return t
}

func (t *Track) buildParams() {
	r := t.Params
	r.MustAdd(param.New(ParamLevel, "Level").Range(0, 2).Default(1).Formatter(param.FormatPercent, nil).Build())
	r.MustAdd(param.New(ParamMute, "Mute").Steps(1).Build())
	r.MustAdd(param.New(ParamWet, "Mosaic Wet").Default(0.5).Formatter(param.FormatPercent, nil).Build())
	r.MustAdd(param.New(ParamSpeed, "Speed").Range(0, 4).Default(1).Build())
	r.MustAdd(param.New(ParamGlide, "Glide").Build())
	r.MustAdd(param.New(ParamReverse, "Reverse").Steps(1).Build())
	r.MustAdd(param.New(ParamKeylock, "Keylock").Steps(1).Build())
	r.MustAdd(param.New(ParamTapeSOS, "Tape SOS").Default(0.8).Build())
	r.MustAdd(param.New(ParamMonitor, "Monitor").Steps(1).Build())
	r.MustAdd(param.New(ParamRateMode, "Rate Mode").Range(0, 3).Steps(3).Build())
	r.MustAdd(param.New(ParamLoopMode, "Loop Mode").Range(0, 2).Steps(2).Build())
	r.MustAdd(param.New(ParamGrainRate, "Grain Rate").Default(0.5).Build())
	r.MustAdd(param.New(ParamGrainSync, "Grain Sync").Steps(1).Build())
	r.MustAdd(param.New(ParamPattern, "Pattern").Default(0.25).Build())
	r.MustAdd(param.New(ParamWarp, "Warp").Build())
	r.MustAdd(param.New(ParamSpray, "Spray").Default(0.2).Build())
	r.MustAdd(param.New(ParamSize, "Grain Size").Range(mosaic.MinSizeSeconds, mosaic.MaxSizeSeconds).Default(0.08).Formatter(func(v float64) string { return param.FormatMs(v * 1000) }, nil).Build())
	r.MustAdd(param.New(ParamSizeJitter, "Size Jitter").Build())
	r.MustAdd(param.New(ParamGrainPitch, "Grain Pitch").Range(-mosaic.MaxPitchSemitones, mosaic.MaxPitchSemitones).Default(0).Bipolar().Formatter(param.FormatSemitones, nil).Build())
	r.MustAdd(param.New(ParamDetune, "Detune").Range(0, mosaic.MaxDetuneCents).Build())
	r.MustAdd(param.New(ParamSpatial, "Spatial").Default(0.5).Build())
	r.MustAdd(param.New(ParamContour, "Contour").Range(-1, 1).Default(0).Bipolar().Build())
	r.MustAdd(param.New(ParamGrainSOS, "Grain SOS").Build())
	r.MustAdd(param.New(ParamRingCutoff, "Ring Cutoff").Default(0.6).Build())
	r.MustAdd(param.New(ParamRingReso, "Ring Reso").Default(0.3).Build())
	r.MustAdd(param.New(ParamRingDecay, "Ring Decay").Default(0.5).Build())
	r.MustAdd(param.New(ParamRingDecayMode, "Ring Decay Mode").Range(0, 2).Steps(2).Build())
	r.MustAdd(param.New(ParamRingPitch, "Ring Pitch").Range(-ringmod.MaxPitchSemitones, ringmod.MaxPitchSemitones).Default(0).Bipolar().Formatter(param.FormatSemitones, nil).Build())
	r.MustAdd(param.New(ParamRingTilt, "Ring Tilt").Range(-1, 1).Default(0).Bipolar().Build())
	r.MustAdd(param.New(ParamRingSlope, "Ring Slope").Build())
	r.MustAdd(param.New(ParamRingTone, "Ring Tone").Range(-1, 1).Default(0).Bipolar().Build())
	r.MustAdd(param.New(ParamRingDetune, "Ring Detune").Build())
	r.MustAdd(param.New(ParamRingWet, "Ring Wet").Default(0).Build())
	r.MustAdd(param.New(ParamRingBypass, "Ring Bypass").Steps(1).Build())
}

func (t *Track) get(id uint32) *param.Parameter {
	p, ok := t.Params.Get(id)
	if !ok {
		panic("missing track parameter")
	}
	return p
}

func (t *Track) plain(id uint32) float64 {
	return t.get(id).GetPlainValue()
}

func (t *Track) on(id uint32) bool {
	return t.get(id).GetValue() >= 0.5
}

// Muted reports the mute flag.
func (t *Track) Muted() bool { return t.on(ParamMute) }

// applyParams pushes block-rate parameter values into the engines.
func (t *Track) applyParams() {
	tp := t.Tape
	tp.SetSpeed(t.plain(ParamSpeed))
	tp.SetGlide(t.plain(ParamGlide))
	tp.SetReverse(t.on(ParamReverse))
	tp.SetKeylock(t.on(ParamKeylock))
	tp.SetSOS(float32(t.plain(ParamTapeSOS)))
	tp.SetMonitor(t.on(ParamMonitor))
	tp.SetRateMode(tape.RateMode(t.plain(ParamRateMode) + 0.5))
	tp.SetLoopMode(tape.LoopMode(t.plain(ParamLoopMode) + 0.5))

	m := t.Mosaic
	m.SetRate(t.plain(ParamGrainRate))
	m.SetSync(t.on(ParamGrainSync))
	m.SetPattern(float32(t.plain(ParamPattern)))
	m.SetWarp(float32(t.plain(ParamWarp)))
	m.SetSpray(float32(t.plain(ParamSpray)))
	m.SetSize(t.plain(ParamSize))
	m.SetSizeJitter(t.plain(ParamSizeJitter))
	m.SetPitch(t.plain(ParamGrainPitch))
	m.SetDetune(t.plain(ParamDetune))
	m.SetSpatial(float32(t.plain(ParamSpatial)))
	m.SetContour(float32(t.plain(ParamContour)))
	m.SetSOS(float32(t.plain(ParamGrainSOS)))

	rd := t.RingDev
	rd.SetCutoffNorm(t.plain(ParamRingCutoff))
	rd.SetResonance(t.plain(ParamRingReso))
	rd.SetDecay(t.plain(ParamRingDecay))
	rd.SetDecayMode(ringmod.DecayMode(t.plain(ParamRingDecayMode) + 0.5))
	rd.SetPitch(t.plain(ParamRingPitch))
	rd.SetTilt(t.plain(ParamRingTilt))
	rd.SetSlope(float32(t.plain(ParamRingSlope)))
	rd.SetTone(float32(t.plain(ParamRingTone)))
	rd.SetDetune(float32(t.plain(ParamRingDetune)))
	rd.SetWet(float32(t.plain(ParamRingWet)))
	t.Chain.SetBypass(0, t.on(ParamRingBypass))
}

// ProcessBlock renders n samples into out, overwriting it. All engine
// state advances even when muted; muted tracks write exact zeros.
func (t *Track) ProcessBlock(input, out [][]float32, n int, tempo float64) {
	t.applyParams()
	t.level.Update()
	t.wet.Update()

	t.Tape.ProcessBlock(input, t.dry, n, tempo)

	ring := t.Tape.Ring()
	window := float64(ring.Filled())
	if window <= 0 {
		window = float64(ring.Capacity())
	}
	playheadNorm := t.Tape.AbsolutePosition() / window
	t.Mosaic.ProcessBlock(ring, playheadNorm, t.wetB, n, tempo)

	channels := len(out)
	for i := 0; i < n; i++ {
		wet := float32(t.wet.Next())
		for ch := 0; ch < channels && ch < t.channels; ch++ {
			out[ch][i] = t.dry[ch][i]*(1-wet) + t.wetB[ch][i]*wet
		}
	}

	t.Chain.ProcessBlock(out, n)

	muted := t.Muted()
	for i := 0; i < n; i++ {
		gain := float32(t.level.Next())
		for ch := 0; ch < channels; ch++ {
			if muted {
				out[ch][i] = 0
			} else {
				out[ch][i] *= gain
			}
		}
	}
}

// Reset clears all render state while keeping parameters.
func (t *Track) Reset() {
	t.Mosaic.Reset()
	t.Chain.Reset()
	t.level.Reset()
	t.wet.Reset()
}
