// Package tape implements the per-track playback and record head over a
// circular audio buffer: loop, reverse, variable speed, rotate, overdub,
// freeze, and keylocked time-stretch.
package tape

import (
	"math"

	"github.com/grainloom/grainloom/pkg/dsp"
	"github.com/grainloom/grainloom/pkg/dsp/ringbuf"
	"github.com/grainloom/grainloom/pkg/framework/param"
)

// State is the tape transport state.
type State int

const (
	// Stopped holds the playhead with no output.
	Stopped State = iota
	// Playing advances the playhead through the loop window.
	Playing
	// Recording plays while writing live input at the record head.
	Recording
	// Overdubbing plays while blending live input into existing content.
	Overdubbing
	// Frozen holds position and contents; all writes are suppressed.
	Frozen
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Recording:
		return "recording"
	case Overdubbing:
		return "overdubbing"
	case Frozen:
		return "frozen"
	}
	return "unknown"
}

// RateMode locks the speed ratio to the transport tempo.
type RateMode int

const (
	// RateFree plays at the user speed ratio unscaled.
	RateFree RateMode = iota
	// RateStraight scales speed by tempo/120.
	RateStraight
	// RateDotted scales speed by 1.5 x tempo/120.
	RateDotted
	// RateTriplet scales speed by 2/3 x tempo/120.
	RateTriplet
)

// LoopMode selects the behavior at the loop boundary.
type LoopMode int

const (
	// LoopWrap wraps with a crossfade.
	LoopWrap LoopMode = iota
	// LoopOneShot stops when the playhead leaves the window.
	LoopOneShot
	// LoopPingPong reverses direction at either boundary.
	LoopPingPong
)

// Keylock resynthesis uses two overlapping grains so the overlap-add
// sum of the triangular windows is exactly one.
const (
	keylockGrainLen = 256
	keylockHop      = 128
)

type klGrain struct {
	read   float64 // loop-relative read offset at grain start
	age    int
	active bool
}

// Engine is one track's tape head. All methods are render-context only;
// the control side reaches it through parameters and the command queue.
type Engine struct {
	ring       *ringbuf.Ring
	sampleRate float64

	state State
	prior State // state to resume after unfreeze

	// Loop window in absolute buffer samples. pos is loop-relative.
	pos       float64
	loopStart int
	loopLen   int
	fadeLen   int
	rotate    int

	reverse  bool
	monitor  bool
	keylock  bool
	loopMode LoopMode
	rateMode RateMode
	jumpMode bool // re-seat playhead when the loop start moves

	speed   *param.Smoother
	userSpd float64
	glide   float64
	sos     float32

	kl struct {
		grains  [2]klGrain
		nextIn  int // countdown to the next grain launch
		whichUp int // slot to launch into
	}
}

// New creates a tape engine over the given buffer.
func New(ring *ringbuf.Ring, sampleRate float64) *Engine {
	e := &Engine{
		ring:       ring,
		sampleRate: sampleRate,
		userSpd:    1.0,
	}
	e.speed = param.NewSmoother(param.SmoothLinear, dsp.DefaultSmoothing, sampleRate)
	e.speed.Reset(1.0)
	e.loopLen = ring.Capacity()
	return e
}

// Ring returns the current buffer handle. The mosaic scheduler reads
// grains from the same buffer the tape plays.
func (e *Engine) Ring() *ringbuf.Ring { return e.ring }

// State returns the current transport state.
func (e *Engine) State() State { return e.state }

// Position returns the loop-relative fractional playhead.
func (e *Engine) Position() float64 { return e.pos }

// AbsolutePosition returns the effective read position in buffer
// samples, rotate included. The granular scheduler anchors its pattern
// control here.
func (e *Engine) AbsolutePosition() float64 {
	return e.readIndex(e.pos)
}

// PositionNorm returns the playhead as a fraction of the loop length.
func (e *Engine) PositionNorm() float64 {
	if e.loopLen <= 0 {
		return 0
	}
	return e.pos / float64(e.loopLen)
}

// Play starts playback. No-op while frozen.
func (e *Engine) Play() {
	if e.state == Frozen {
		return
	}
	e.state = Playing
}

// Stop halts playback and recording. The playhead keeps its position.
func (e *Engine) Stop() {
	if e.state == Frozen {
		return
	}
	e.state = Stopped
}

// Record arms recording. Starts playback if stopped.
func (e *Engine) Record() {
	if e.state == Frozen {
		return
	}
	e.state = Recording
}

// Overdub arms overdubbing over existing content.
func (e *Engine) Overdub() {
	if e.state == Frozen {
		return
	}
	e.state = Overdubbing
}

// Freeze holds position and content; Freeze(false) resumes the state
// active when freezing.
func (e *Engine) Freeze(on bool) {
	if on {
		if e.state != Frozen {
			e.prior = e.state
			e.state = Frozen
		}
		return
	}
	if e.state == Frozen {
		if e.prior == Recording || e.prior == Overdubbing {
			// Re-arming after a freeze is an explicit action.
			e.state = Playing
		} else {
			e.state = e.prior
		}
	}
}

// Clear erases the buffer. Suppressed while frozen.
func (e *Engine) Clear() {
	if e.state == Frozen {
		return
	}
	e.ring.Clear()
	e.pos = 0
}

// SetSpeed sets the user speed ratio. Negative values are folded into
// the direction flag by the caller; the ratio itself stays positive.
func (e *Engine) SetSpeed(ratio float64) {
	if ratio < 0 {
		ratio = 0
	}
	e.userSpd = ratio
}

// SetGlide scales the speed ramp length: 0 gives the default 20 ms,
// 1 stretches it to roughly 420 ms.
func (e *Engine) SetGlide(glide float64) {
	if glide < 0 {
		glide = 0
	} else if glide > 1 {
		glide = 1
	}
	if glide == e.glide {
		// Reapplied every block; reconfiguring would restart the ramp.
		return
	}
	e.glide = glide
	e.speed.Configure(dsp.DefaultSmoothing*(1+glide*20), e.sampleRate)
}

// SetReverse sets the playback direction.
func (e *Engine) SetReverse(reverse bool) { e.reverse = reverse }

// SetMonitor passes live input through to the output.
func (e *Engine) SetMonitor(on bool) { e.monitor = on }

// SetKeylock decouples pitch from speed via grain resynthesis.
func (e *Engine) SetKeylock(on bool) {
	if on && !e.keylock {
		e.kl.grains[0] = klGrain{}
		e.kl.grains[1] = klGrain{}
		e.kl.nextIn = 0
		e.kl.whichUp = 0
	}
	e.keylock = on
}

// SetSOS sets the overdub retention amount: 1 keeps existing content at
// full level under new input, 0 degenerates to replacement.
func (e *Engine) SetSOS(keep float32) {
	if keep < 0 {
		keep = 0
	} else if keep > 1 {
		keep = 1
	}
	e.sos = keep
}

// SetRateMode sets the tempo-lock mode.
func (e *Engine) SetRateMode(m RateMode) { e.rateMode = m }

// SetLoopMode sets the boundary behavior.
func (e *Engine) SetLoopMode(m LoopMode) { e.loopMode = m }

// SetJumpMode makes loop-start changes re-seat the playhead at the new
// start instead of keeping its absolute position.
func (e *Engine) SetJumpMode(on bool) { e.jumpMode = on }

// SetLoop sets the loop window in buffer samples. Length and start are
// clamped to the buffer, the crossfade to half the loop length.
func (e *Engine) SetLoop(start, length, fade int) {
	capacity := e.ring.Capacity()
	if start < 0 {
		start = 0
	}
	if start >= capacity {
		start = capacity - 1
	}
	if length < 1 {
		length = 1
	}
	if start+length > capacity {
		length = capacity - start
	}
	if fade < 0 {
		fade = 0
	}
	if fade > length/2 {
		fade = length / 2
	}
	moved := start != e.loopStart
	e.loopStart = start
	e.loopLen = length
	e.fadeLen = fade
	if e.jumpMode && moved {
		e.pos = 0
	} else if e.pos >= float64(length) {
		e.pos = math.Mod(e.pos, float64(length))
	}
}

// LoopStart returns the loop window start in buffer samples.
func (e *Engine) LoopStart() int { return e.loopStart }

// LoopLength returns the loop window length in buffer samples.
func (e *Engine) LoopLength() int { return e.loopLen }

// LoopFade returns the crossfade length in buffer samples.
func (e *Engine) LoopFade() int { return e.fadeLen }

// Rotate shifts the effective loop start by the given modular offset
// without moving the playhead.
func (e *Engine) Rotate(offset int) {
	if e.loopLen <= 0 {
		return
	}
	e.rotate = ((e.rotate+offset)%e.loopLen + e.loopLen) % e.loopLen
}

// SetRotate sets the absolute rotate offset.
func (e *Engine) SetRotate(offset int) {
	e.rotate = 0
	e.Rotate(offset)
}

// LoadRing swaps the buffer handle for a prepared one and returns the
// previous handle for control-side release. The loop window is reset to
// the new content.
func (e *Engine) LoadRing(r *ringbuf.Ring) *ringbuf.Ring {
	old := e.ring
	e.ring = r
	e.loopStart = 0
	e.loopLen = r.Filled()
	if e.loopLen < 1 {
		e.loopLen = r.Capacity()
	}
	e.fadeLen = min(e.fadeLen, e.loopLen/2)
	e.rotate = 0
	e.pos = 0
	return old
}

// modeRatio derives the tempo-lock multiplier for the current mode.
func (e *Engine) modeRatio(tempo float64) float64 {
	if e.rateMode == RateFree || tempo <= 0 {
		return 1.0
	}
	scale := tempo / 120.0
	switch e.rateMode {
	case RateDotted:
		return scale * 1.5
	case RateTriplet:
		return scale * 2.0 / 3.0
	default:
		return scale
	}
}

// readIndex maps a loop-relative offset to an absolute buffer position,
// applying the rotate offset modulo the loop length.
func (e *Engine) readIndex(offset float64) float64 {
	ll := float64(e.loopLen)
	p := math.Mod(offset+float64(e.rotate), ll)
	if p < 0 {
		p += ll
	}
	return float64(e.loopStart) + p
}

// readSample reads one crossfaded sample at loop-relative offset p.
// The fade zone is the final fadeLen samples of the effective pass
// through the window, after rotate: there the tail is blended with the
// material just before the physical window start, read in absolute
// coordinates, so the blend lands exactly on the start sample at the
// seam. Keying the zone to the effective position keeps the fade on
// the real discontinuity when rotate shifts the seam away from the
// playhead wrap.
func (e *Engine) readSample(ch int, p float64) float32 {
	idx := e.readIndex(p)
	s := e.ring.Interp(ch, idx)
	if e.fadeLen <= 0 {
		return s
	}
	ll := float64(e.loopLen)
	fade := float64(e.fadeLen)
	q := idx - float64(e.loopStart)
	if q > ll-fade {
		t := float32((q - (ll - fade)) / fade)
		pre := float64(e.loopStart) + (q - ll)
		other := e.ring.Interp(ch, pre)
		return s*(1-t) + other*t
	}
	return s
}

// ProcessBlock renders n samples of the tape signal into dry and
// services recording. input may be nil when the track has no live
// source. tempo feeds the rate modes.
func (e *Engine) ProcessBlock(input, dry [][]float32, n int, tempo float64) {
	channels := len(dry)
	e.speed.SetTarget(e.userSpd * e.modeRatio(tempo))

	if e.state == Stopped || e.state == Frozen {
		// Speed keeps ramping so resume has no jump.
		e.speed.NextBlock(n)
		for ch := 0; ch < channels; ch++ {
			buf := dry[ch][:n]
			for i := range buf {
				buf[i] = 0
			}
		}
		if e.monitor && input != nil {
			for ch := 0; ch < channels && ch < len(input); ch++ {
				copy(dry[ch][:n], input[ch][:n])
			}
		}
		return
	}

	for i := 0; i < n; i++ {
		spd := e.speed.Next()
		step := spd
		if e.reverse {
			step = -spd
		}

		if e.keylock {
			e.keylockSample(dry, i, step)
		} else {
			for ch := 0; ch < channels; ch++ {
				dry[ch][i] = e.readSample(ch, e.pos)
			}
		}

		if e.monitor && input != nil {
			for ch := 0; ch < channels && ch < len(input); ch++ {
				dry[ch][i] += input[ch][i]
			}
		}

		if len(input) > 0 {
			switch e.state {
			case Recording:
				e.writeFrame(input, i, false)
			case Overdubbing:
				e.writeFrame(input, i, true)
			}
		}

		if !e.advance(step) {
			// One-shot ran off the window.
			for ch := 0; ch < channels; ch++ {
				for j := i + 1; j < n; j++ {
					dry[ch][j] = 0
				}
			}
			return
		}
	}
}

func (e *Engine) writeFrame(input [][]float32, i int, overdub bool) {
	var frame [8]float32
	channels := e.ring.Channels()
	if channels > len(frame) {
		channels = len(frame)
	}
	for ch := 0; ch < channels; ch++ {
		src := ch
		if src >= len(input) {
			src = len(input) - 1
		}
		frame[ch] = input[src][i]
	}
	if overdub {
		e.ring.OverdubFrame(frame[:channels], e.sos)
	} else {
		e.ring.WriteFrame(frame[:channels])
	}
}

// advance moves the playhead one output sample. Returns false when a
// one-shot loop completed and the engine stopped.
func (e *Engine) advance(step float64) bool {
	e.pos += step
	ll := float64(e.loopLen)

	switch e.loopMode {
	case LoopOneShot:
		if e.pos >= ll || e.pos < 0 {
			e.pos = 0
			e.state = Stopped
			return false
		}
	case LoopPingPong:
		if e.pos >= ll {
			e.pos = ll - (e.pos - ll)
			e.reverse = !e.reverse
		} else if e.pos < 0 {
			e.pos = -e.pos
			e.reverse = !e.reverse
		}
		if e.pos >= ll {
			e.pos = math.Mod(e.pos, ll)
		}
	default:
		if e.pos >= ll {
			e.pos -= ll
			if e.pos >= ll {
				e.pos = math.Mod(e.pos, ll)
			}
		} else if e.pos < 0 {
			e.pos += ll
			if e.pos < 0 {
				e.pos = math.Mod(e.pos, ll)
				if e.pos < 0 {
					e.pos += ll
				}
			}
		}
	}
	return true
}

// keylockSample renders one sample of time-stretched output. Grain read
// heads advance at unit rate so pitch stays fixed while the timeline
// position advances at the speed ratio.
func (e *Engine) keylockSample(dry [][]float32, i int, step float64) {
	if e.kl.nextIn <= 0 {
		g := &e.kl.grains[e.kl.whichUp]
		g.read = e.pos
		g.age = 0
		g.active = true
		e.kl.whichUp = 1 - e.kl.whichUp
		e.kl.nextIn = keylockHop
	}
	e.kl.nextIn--

	dir := 1.0
	if step < 0 {
		dir = -1.0
	}

	channels := len(dry)
	for ch := 0; ch < channels; ch++ {
		dry[ch][i] = 0
	}
	for gi := range e.kl.grains {
		g := &e.kl.grains[gi]
		if !g.active {
			continue
		}
		// Triangular window; with hop = len/2 the two windows sum to 1.
		half := float32(keylockGrainLen) / 2
		var w float32
		a := float32(g.age)
		if a < half {
			w = a / half
		} else {
			w = (float32(keylockGrainLen) - a) / half
		}
		for ch := 0; ch < channels; ch++ {
			dry[ch][i] += w * e.ring.Interp(ch, e.readIndex(g.read))
		}
		g.read += dir
		g.age++
		if g.age >= keylockGrainLen {
			g.active = false
		}
	}
}
