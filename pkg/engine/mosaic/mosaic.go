// Package mosaic implements the granular scheduler and grain voice
// pool. It continuously resynthesizes a track's source buffer into
// overlapping grains with randomized position, size, pitch, and pan.
package mosaic

import (
	"math"
	"sync/atomic"

	"github.com/grainloom/grainloom/pkg/dsp"
	"github.com/grainloom/grainloom/pkg/dsp/envelope"
	"github.com/grainloom/grainloom/pkg/dsp/pan"
	"github.com/grainloom/grainloom/pkg/dsp/ringbuf"
	"github.com/grainloom/grainloom/pkg/engine/xrand"
)

// PoolSize is the number of grain voices per track. When every voice is
// busy a spawn is dropped and counted, never an error.
const PoolSize = 64

// Grain rate and size limits.
const (
	MinRate = 2.0  // grains per second
	MaxRate = 60.0 // grains per second

	MinSizeSeconds = 0.010
	MaxSizeSeconds = 0.250

	MaxPitchSemitones = 36.0
	MaxDetuneCents    = 25.0

	// First portion of the rate control that maps onto musical
	// divisions when sync is engaged.
	syncZone = 0.40

	// Headroom applied to the grain sum.
	mixGain = 0.7
)

// syncDivisions are the beat fractions covered by the sync zone, from
// one grain per beat down to one per sixteenth.
var syncDivisions = [5]float64{1.0, 0.5, 0.25, 0.125, 0.0625}

type grain struct {
	active bool
	pos    float64 // fractional source position, buffer samples
	step   float64 // read increment per output sample
	length int
	age    int
	gainL  float32
	gainR  float32
	shape  float32 // contour frozen at spawn
}

// Engine is one track's granular scheduler. Render-context only except
// where noted.
type Engine struct {
	sampleRate float64
	rng        *xrand.Source
	grains     [PoolSize]grain

	acc     float64 // spawn accumulator, grain periods
	pending int     // explicit triggers awaiting the next sample

	dropped atomic.Uint64

	rateCtl float64 // normalized rate control
	sync    bool

	pattern float32 // 0 = at playhead, 1 = uniform random
	warp    float32 // power-curve start remap
	spray   float32 // +-25% start jitter at full

	sizeSec    float64
	sizeJitter float64 // fraction of sizeSec, 0..1

	pitchSemis  float64
	detuneCents float64
	spatial     float32
	shape       float32 // contour

	sos   float32 // feedback overdub retention, 0 disengages
	fbPos int     // feedback write cursor, independent of the record head
	scale []int   // pitch-class intervals, nil = chromatic
}

// New creates a scheduler. seed 0 selects the default seed.
func New(sampleRate float64, seed uint32) *Engine {
	return &Engine{
		sampleRate: sampleRate,
		rng:        xrand.New(seed),
		rateCtl:    0.5,
		sizeSec:    0.080,
	}
}

// Reset deactivates all voices and clears the spawn accumulator. The
// random sequence is left alone so determinism spans resets only when
// reseeded.
func (m *Engine) Reset() {
	for i := range m.grains {
		m.grains[i].active = false
	}
	m.acc = 0
	m.pending = 0
	m.fbPos = 0
}

// Seed reseeds the random source.
func (m *Engine) Seed(seed uint32) { m.rng.Seed(seed) }

// SetRate sets the normalized rate control (0-1).
func (m *Engine) SetRate(v float64) { m.rateCtl = clamp01(v) }

// SetSync engages tempo-synced spawning.
func (m *Engine) SetSync(on bool) { m.sync = on }

// SetPattern sets the playhead-vs-random start bias.
func (m *Engine) SetPattern(v float32) { m.pattern = clamp01f(v) }

// SetWarp sets the start-position power-curve amount.
func (m *Engine) SetWarp(v float32) { m.warp = clamp01f(v) }

// SetSpray sets the start-position jitter amount.
func (m *Engine) SetSpray(v float32) { m.spray = clamp01f(v) }

// SetSize sets the nominal grain length in seconds.
func (m *Engine) SetSize(seconds float64) {
	if seconds < MinSizeSeconds {
		seconds = MinSizeSeconds
	} else if seconds > MaxSizeSeconds {
		seconds = MaxSizeSeconds
	}
	m.sizeSec = seconds
}

// SetSizeJitter sets the random length spread as a fraction of size.
func (m *Engine) SetSizeJitter(v float64) { m.sizeJitter = clamp01(v) }

// SetPitch sets the grain pitch offset in semitones.
func (m *Engine) SetPitch(semitones float64) {
	if semitones > MaxPitchSemitones {
		semitones = MaxPitchSemitones
	} else if semitones < -MaxPitchSemitones {
		semitones = -MaxPitchSemitones
	}
	m.pitchSemis = semitones
}

// SetDetune sets the random pitch spread in cents.
func (m *Engine) SetDetune(cents float64) {
	if cents < 0 {
		cents = 0
	} else if cents > MaxDetuneCents {
		cents = MaxDetuneCents
	}
	m.detuneCents = cents
}

// SetSpatial sets the random pan width: 0 centers every grain.
func (m *Engine) SetSpatial(v float32) { m.spatial = clamp01f(v) }

// SetContour sets the bipolar envelope skew.
func (m *Engine) SetContour(v float32) {
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	m.shape = v
}

// SetSOS sets the feedback overdub amount; 0 disengages the write-back.
func (m *Engine) SetSOS(v float32) { m.sos = clamp01f(v) }

// SetScale restricts grain pitch offsets to the given pitch-class
// intervals (semitones within the octave). nil restores chromatic
// behavior. Control-side callers must hand over a slice they no longer
// mutate.
func (m *Engine) SetScale(intervals []int) { m.scale = intervals }

// Trigger fires one grain at the next processed sample regardless of
// the spawn accumulator.
func (m *Engine) Trigger() { m.pending++ }

// ActiveVoices returns the number of sounding grains.
func (m *Engine) ActiveVoices() int {
	n := 0
	for i := range m.grains {
		if m.grains[i].active {
			n++
		}
	}
	return n
}

// Dropped returns the number of spawns rejected by a saturated pool.
// Safe from any goroutine.
func (m *Engine) Dropped() uint64 { return m.dropped.Load() }

// grainsPerSecond derives the spawn rate from the rate control. In sync
// mode the first part of the control selects a beat division; the rest
// of the range, and the whole range when free, runs continuously.
func (m *Engine) grainsPerSecond(tempo float64) float64 {
	if m.sync && tempo > 0 {
		if m.rateCtl < syncZone {
			idx := int(m.rateCtl / syncZone * float64(len(syncDivisions)))
			if idx >= len(syncDivisions) {
				idx = len(syncDivisions) - 1
			}
			beatsPerSec := tempo / 60.0
			return beatsPerSec / syncDivisions[idx]
		}
		t := (m.rateCtl - syncZone) / (1 - syncZone)
		return MinRate + t*(MaxRate-MinRate)
	}
	return MinRate + m.rateCtl*(MaxRate-MinRate)
}

// quantizePitch snaps a semitone offset to the configured scale.
func (m *Engine) quantizePitch(semis float64) float64 {
	if len(m.scale) == 0 {
		return semis
	}
	nearest := math.Round(semis)
	best := nearest
	bestDist := math.MaxFloat64
	// Search the octave around the rounded value for the closest
	// allowed pitch class.
	for oct := -1.0; oct <= 1.0; oct++ {
		base := (math.Floor(nearest/12) + oct) * 12
		for _, iv := range m.scale {
			cand := base + float64(iv)
			d := math.Abs(cand - semis)
			if d < bestDist {
				bestDist = d
				best = cand
			}
		}
	}
	return best
}

// spawn parameterizes and activates one grain. playheadNorm is the tape
// playhead as a fraction of the source window.
func (m *Engine) spawn(src *ringbuf.Ring, playheadNorm float64) bool {
	var g *grain
	for i := range m.grains {
		if !m.grains[i].active {
			g = &m.grains[i]
			break
		}
	}
	if g == nil {
		m.dropped.Add(1)
		return false
	}

	window := float64(src.Filled())
	if window <= 0 {
		window = float64(src.Capacity())
	}

	// Start position: bias between the playhead and a uniform draw,
	// then warp with a monotonic power curve and add spray jitter.
	u := float64(m.rng.Unit())
	posN := playheadNorm*(1-float64(m.pattern)) + u*float64(m.pattern)
	posN = math.Pow(clamp01(posN), 1+float64(m.warp)*2)
	posN += float64(m.spray) * float64(m.rng.Bipolar()) * 0.25
	posN = wrap01(posN)
	g.pos = posN * window

	// Length with jitter, clamped to the legal grain size.
	sec := m.sizeSec * (1 + m.sizeJitter*float64(m.rng.Bipolar()))
	if sec < MinSizeSeconds {
		sec = MinSizeSeconds
	} else if sec > MaxSizeSeconds {
		sec = MaxSizeSeconds
	}
	g.length = int(sec * m.sampleRate)
	if g.length < 2 {
		g.length = 2
	}
	g.age = 0

	// Pitch ratio from quantized semitones plus detune spread.
	semis := m.quantizePitch(m.pitchSemis)
	cents := m.detuneCents * float64(m.rng.Bipolar())
	g.step = dsp.SemitonesToRatio(semis) * dsp.CentsToRatio(cents)

	// Pan: spatial widens a random placement around center.
	p := m.spatial * m.rng.Bipolar()
	g.gainL, g.gainR = pan.Gains(p, pan.ConstantPower)

	g.shape = m.shape
	g.active = true
	return true
}

// ProcessBlock renders n samples of grain mix into out, overwriting it.
// playheadNorm feeds the pattern control; tempo feeds rate sync. When
// SOS is engaged the mix is also overdubbed back into src.
func (m *Engine) ProcessBlock(src *ringbuf.Ring, playheadNorm float64, out [][]float32, n int, tempo float64) {
	channels := len(out)
	rate := m.grainsPerSecond(tempo)
	inc := rate / m.sampleRate

	srcCh := src.Channels()
	fbWindow := src.Filled()
	if fbWindow <= 0 {
		fbWindow = src.Capacity()
	}
	if m.fbPos >= fbWindow {
		m.fbPos = 0
	}

	for i := 0; i < n; i++ {
		m.acc += inc
		for m.acc >= 1 {
			m.acc--
			m.spawn(src, playheadNorm)
		}
		for m.pending > 0 {
			m.pending--
			m.spawn(src, playheadNorm)
		}

		var sumL, sumR float32
		for gi := range m.grains {
			g := &m.grains[gi]
			if !g.active {
				continue
			}
			t := float32(g.age) / float32(g.length)
			env := envelope.Grain(t, g.shape)

			sL := src.Interp(0, g.pos)
			sR := sL
			if srcCh > 1 {
				sR = src.Interp(1, g.pos)
			}
			sumL += sL * env * g.gainL
			sumR += sR * env * g.gainR

			g.pos += g.step
			g.age++
			if g.age >= g.length {
				g.active = false
			}
		}

		sumL *= mixGain
		sumR *= mixGain
		out[0][i] = sumL
		if channels > 1 {
			out[1][i] = sumR
		}

		if m.sos > 0 {
			// Feedback runs on its own cursor so it cannot interleave
			// with the tape record head on the shared buffer.
			src.BlendAt(0, m.fbPos, sumL, m.sos)
			if srcCh > 1 {
				src.BlendAt(1, m.fbPos, sumR, m.sos)
			}
			m.fbPos++
			if m.fbPos >= fbWindow {
				m.fbPos = 0
			}
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp01f(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func wrap01(v float64) float64 {
	v = math.Mod(v, 1)
	if v < 0 {
		v += 1
	}
	return v
}
