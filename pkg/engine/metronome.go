package engine

import (
	"math"

	"github.com/grainloom/grainloom/pkg/dsp"
)

// Metronome click shape.
const (
	clickSeconds = 0.012
	clickGain    = 0.25
	clickFreq    = 2000.0
)

// metronome generates a short decaying click on every beat and drives
// the count-in countdown.
type metronome struct {
	sampleRate float64

	untilBeat  float64 // samples until the next beat
	clickLeft  int     // samples remaining in the current click
	clickPhase float64
	clickEnv   float32

	countInLeft int // beats remaining, 0 = inactive
}

func newMetronome(sampleRate float64) *metronome {
	return &metronome{sampleRate: sampleRate}
}

// startCountIn arms a count-in of the given number of beats. The first
// click fires immediately.
func (m *metronome) startCountIn(beats int) {
	if beats < 1 {
		beats = 1
	}
	m.countInLeft = beats
	m.untilBeat = 0
}

func (m *metronome) countingIn() bool { return m.countInLeft > 0 }

// tick advances one sample and returns the click output plus whether
// the count-in finished on this sample.
func (m *metronome) tick(tempo float64, audible bool) (float32, bool) {
	done := false
	if tempo <= 0 {
		tempo = 120
	}
	beatLen := m.sampleRate * 60.0 / tempo

	m.untilBeat--
	if m.untilBeat <= 0 {
		m.untilBeat += beatLen
		m.clickLeft = int(clickSeconds * m.sampleRate)
		m.clickPhase = 0
		m.clickEnv = 1
		if m.countInLeft > 0 {
			m.countInLeft--
			if m.countInLeft == 0 {
				done = true
			}
		}
	}

	var out float32
	if m.clickLeft > 0 {
		out = float32(math.Sin(m.clickPhase)) * m.clickEnv * clickGain
		m.clickPhase += dsp.TwoPi * clickFreq / m.sampleRate
		// Fast exponential decay keeps the click percussive.
		m.clickEnv *= float32(math.Exp(-8.0 / (clickSeconds * m.sampleRate)))
		m.clickLeft--
	}
	if !audible && !m.countingIn() {
		return 0, done
	}
	return out, done
}
