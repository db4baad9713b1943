package filter

import (
	"math"
	"testing"
)

const testRate = 48000.0

func energyAt(s *SVF, freq float64, pick func(Outputs) float32) float64 {
	var e float64
	n := 4800
	for i := 0; i < n; i++ {
		in := float32(math.Sin(2 * math.Pi * freq * float64(i) / testRate))
		out := pick(s.ProcessSample(in, 0))
		if i >= n/2 {
			e += float64(out) * float64(out)
		}
	}
	return e
}

func TestLowpassSelectivity(t *testing.T) {
	lp := func(o Outputs) float32 { return o.Lowpass }

	s := NewSVF(1)
	s.SetFrequency(testRate, 1000)
	s.SetQ(0.707)
	low := energyAt(s, 100, lp)

	s.Reset()
	high := energyAt(s, 10000, lp)
	if low < high*10 {
		t.Errorf("lowpass: passband %v not well above stopband %v", low, high)
	}
}

func TestHighpassSelectivity(t *testing.T) {
	hp := func(o Outputs) float32 { return o.Highpass }

	s := NewSVF(1)
	s.SetFrequency(testRate, 1000)
	s.SetQ(0.707)
	high := energyAt(s, 10000, hp)

	s.Reset()
	low := energyAt(s, 100, hp)
	if high < low*10 {
		t.Errorf("highpass: passband %v not well above stopband %v", high, low)
	}
}

func TestBandpassPeaksAtCutoff(t *testing.T) {
	bp := func(o Outputs) float32 { return o.Bandpass }

	at := func(freq float64) float64 {
		s := NewSVF(1)
		s.SetFrequency(testRate, 1000)
		s.SetQ(5)
		return energyAt(s, freq, bp)
	}

	center := at(1000)
	if below := at(200); center < below*5 {
		t.Errorf("bandpass center %v vs 200 Hz %v", center, below)
	}
	if above := at(5000); center < above*5 {
		t.Errorf("bandpass center %v vs 5 kHz %v", center, above)
	}
}

func TestStateStaysBounded(t *testing.T) {
	s := NewSVF(1)
	s.SetFrequency(testRate, 20000)
	s.SetQ(100)
	for i := 0; i < 48000; i++ {
		out := s.ProcessSample(1, 0)
		for _, v := range []float32{out.Lowpass, out.Bandpass, out.Highpass} {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("non-finite output at sample %d", i)
			}
		}
	}
}

func TestMorphEndpoints(t *testing.T) {
	o := Outputs{Lowpass: 1, Bandpass: 2, Highpass: 3}
	if got := o.Morph(0); got != 1 {
		t.Errorf("Morph(0) = %v, want lowpass", got)
	}
	if got := o.Morph(0.5); got != 2 {
		t.Errorf("Morph(0.5) = %v, want bandpass", got)
	}
	if got := o.Morph(1); got != 3 {
		t.Errorf("Morph(1) = %v, want highpass", got)
	}
	if got := o.Morph(0.25); got != 1.5 {
		t.Errorf("Morph(0.25) = %v, want 1.5", got)
	}
}

func TestPerChannelStateIsIndependent(t *testing.T) {
	s := NewSVF(2)
	s.SetFrequency(testRate, 1000)
	s.SetQ(0.707)
	for i := 0; i < 100; i++ {
		s.ProcessSample(1, 0)
	}
	// Channel 1 was never driven; its first output must match a fresh
	// filter's.
	fresh := NewSVF(1)
	fresh.SetFrequency(testRate, 1000)
	fresh.SetQ(0.707)
	a := s.ProcessSample(0.5, 1)
	b := fresh.ProcessSample(0.5, 0)
	if a != b {
		t.Errorf("channel 1 state contaminated: %+v vs %+v", a, b)
	}
}
