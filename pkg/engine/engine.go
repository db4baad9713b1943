// Package engine ties the tracks, master bus, metronome, and analyzer
// into the render entry point, and owns the control-to-render command
// queue.
package engine

import (
	"github.com/grainloom/grainloom/pkg/dsp"
	"github.com/grainloom/grainloom/pkg/dsp/ringbuf"
	"github.com/grainloom/grainloom/pkg/engine/analyzer"
	"github.com/grainloom/grainloom/pkg/engine/track"
	"github.com/grainloom/grainloom/pkg/framework/command"
	"github.com/grainloom/grainloom/pkg/framework/debug"
	"github.com/grainloom/grainloom/pkg/framework/param"
	"github.com/grainloom/grainloom/pkg/framework/process"
)

// NumTracks is the fixed track count.
const NumTracks = 4

// Master parameter IDs.
const (
	ParamMasterGain uint32 = iota + 1
	ParamTempo
	ParamMetronome
)

// Engine is the whole instrument. Process runs on the render context;
// Push, parameters, and Analyzer reads are the control-side surface.
type Engine struct {
	Tracks [NumTracks]*track.Track
	Params *param.Registry

	sampleRate float64
	maxBlock   int
	channels   int

	queue    *command.Queue
	analyzer *analyzer.Analyzer
	metro    *metronome

	master *param.SmoothedParameter

	samplePos int64

	// Commands deferred behind an active count-in.
	pending  [16]command.Command
	pendingN int

	// Buffers handed back by LoadRing swaps, for control-side release.
	retired  [16]*ringbuf.Ring
	retiredN int

	scratch [][]float32
}

// New creates an engine with cleared tracks.
func New(channels int, sampleRate float64, maxBlock int) *Engine {
	return NewWithConfig(Config{
		Channels:     channels,
		SampleRate:   sampleRate,
		MaxBlockSize: maxBlock,
	})
}

// NewWithConfig creates an engine from a config; zero fields take their
// defaults.
func NewWithConfig(cfg Config) *Engine {
	cfg.sanitize()
	channels := cfg.Channels
	sampleRate := cfg.SampleRate
	maxBlock := cfg.MaxBlockSize
	e := &Engine{
		Params:     param.NewRegistry(),
		sampleRate: sampleRate,
		maxBlock:   maxBlock,
		channels:   channels,
		queue:      command.NewQueue(),
		analyzer:   analyzer.New(),
		metro:      newMetronome(sampleRate),
	}
	e.Params.MustAdd(param.New(ParamMasterGain, "Master").Range(0, 2).Default(1).Build())
	e.Params.MustAdd(param.New(ParamTempo, "Tempo").Range(20, 300).Default(120).Build())
	e.Params.MustAdd(param.New(ParamMetronome, "Metronome").Steps(1).Build())

	gain, _ := e.Params.Get(ParamMasterGain)
	e.master = param.NewSmoothedParameter(gain, param.SmoothLinear, dsp.DefaultSmoothing, sampleRate)

	for i := range e.Tracks {
		e.Tracks[i] = track.New(i, channels, sampleRate, maxBlock)
	}
	e.scratch = make([][]float32, channels)
	for ch := range e.scratch {
		e.scratch[ch] = make([]float32, maxBlock)
	}
	return e
}

// SampleRate returns the engine rate.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Analyzer returns the visualization state.
func (e *Engine) Analyzer() *analyzer.Analyzer { return e.analyzer }

// Tempo returns the current tempo parameter value.
func (e *Engine) Tempo() float64 {
	p, _ := e.Params.Get(ParamTempo)
	return p.GetPlainValue()
}

// Push enqueues a control command. Returns false when the queue is
// full; the caller may retry on the next tick.
func (e *Engine) Push(c command.Command) bool {
	ok := e.queue.Push(c)
	if !ok {
		debug.Warnf("command queue full, dropping kind %d for track %d", c.Kind, c.Track)
	}
	return ok
}

// RetiredRings hands back buffers replaced by LoadRing swaps and clears
// the internal list. Control-side only.
func (e *Engine) RetiredRings() []*ringbuf.Ring {
	out := make([]*ringbuf.Ring, e.retiredN)
	copy(out, e.retired[:e.retiredN])
	e.retiredN = 0
	return out
}

func (e *Engine) trackFor(c command.Command) *track.Track {
	if c.Track < 0 || c.Track >= NumTracks {
		return nil
	}
	return e.Tracks[c.Track]
}

// apply executes one command on the render context.
func (e *Engine) apply(c command.Command) {
	switch c.Kind {
	case command.TapePlay, command.TapeRecord, command.TapeOverdub:
		if e.metro.countingIn() {
			e.deferCmd(c)
			return
		}
		t := e.trackFor(c)
		if t == nil {
			return
		}
		switch c.Kind {
		case command.TapePlay:
			t.Tape.Play()
		case command.TapeRecord:
			t.Tape.Record()
		default:
			t.Tape.Overdub()
		}
	case command.TapeStop:
		if t := e.trackFor(c); t != nil {
			t.Tape.Stop()
		}
	case command.TapeFreeze:
		if t := e.trackFor(c); t != nil {
			t.Tape.Freeze(c.Value >= 0.5)
		}
	case command.TapeClear:
		if t := e.trackFor(c); t != nil {
			t.Tape.Clear()
		}
	case command.TapeRotate:
		if t := e.trackFor(c); t != nil {
			t.Tape.Rotate(int(c.Value))
		}
	case command.TapeSetLoop:
		if t := e.trackFor(c); t != nil {
			t.Tape.SetLoop(int(c.Value), int(c.Value2), int(c.Value3))
		}
	case command.LoadRing:
		t := e.trackFor(c)
		if t == nil || c.Ring == nil {
			return
		}
		old := t.Tape.LoadRing(c.Ring)
		if e.retiredN < len(e.retired) {
			e.retired[e.retiredN] = old
			e.retiredN++
		}
	case command.MosaicTrigger:
		if t := e.trackFor(c); t != nil {
			t.Mosaic.Trigger()
		}
	case command.MetronomeCountIn:
		e.metro.startCountIn(int(c.Value))
	case command.PanicReset:
		for _, t := range e.Tracks {
			t.Reset()
		}
	}
}

func (e *Engine) deferCmd(c command.Command) {
	if e.pendingN < len(e.pending) {
		e.pending[e.pendingN] = c
		e.pendingN++
	}
}

func (e *Engine) releasePending() {
	n := e.pendingN
	e.pendingN = 0
	for i := 0; i < n; i++ {
		e.apply(e.pending[i])
	}
}

// ProcessAudio renders one block described by a process context. The
// transport tempo overrides the tempo parameter when the host supplies
// one.
func (e *Engine) ProcessAudio(ctx *process.Context) {
	tempo := ctx.Transport.Tempo
	if tempo <= 0 {
		tempo = e.Tempo()
	}
	e.process(ctx.Input, ctx.Output, ctx.NumSamples(), tempo)
}

// Process renders one block from bare buffers using the tempo
// parameter. input may be nil. n is clamped to the configured block
// size.
func (e *Engine) Process(input, out [][]float32, n int) {
	e.process(input, out, n, e.Tempo())
}

// process drains commands, renders and sums tracks, applies master
// gain and metronome, scrubs, and feeds the analyzer.
func (e *Engine) process(input, out [][]float32, n int, tempo float64) {
	if n > e.maxBlock {
		n = e.maxBlock
	}
	e.queue.Drain(e.apply)
	e.master.Update()

	metroOn := false
	if p, ok := e.Params.Get(ParamMetronome); ok {
		metroOn = p.GetValue() >= 0.5
	}

	channels := len(out)
	for ch := 0; ch < channels; ch++ {
		dsp.Clear(out[ch][:n])
	}

	for _, t := range e.Tracks {
		t.ProcessBlock(input, e.scratch, n, tempo)
		for ch := 0; ch < channels && ch < len(e.scratch); ch++ {
			dsp.Add(out[ch][:n], e.scratch[ch][:n])
		}
	}

	for i := 0; i < n; i++ {
		gain := float32(e.master.Next())
		click, done := e.metro.tick(tempo, metroOn)
		for ch := 0; ch < channels; ch++ {
			out[ch][i] = out[ch][i]*gain + click
		}
		if done {
			e.releasePending()
		}
	}

	for ch := 0; ch < channels; ch++ {
		dsp.ScrubNonFinite(out[ch][:n])
	}

	if channels >= 2 {
		e.analyzer.Publish(out[0], out[1], n)
	} else if channels == 1 {
		e.analyzer.Publish(out[0], out[0], n)
	}

	e.samplePos += int64(n)
}

// SamplePosition returns the total samples rendered.
func (e *Engine) SamplePosition() int64 { return e.samplePos }
