package dsp

import (
	"math"
	"testing"
)

func TestAddAndAddScaled(t *testing.T) {
	dst := []float32{1, 2, 3}
	Add(dst, []float32{1, 1, 1})
	for i, want := range []float32{2, 3, 4} {
		if dst[i] != want {
			t.Errorf("Add sample %d = %v, want %v", i, dst[i], want)
		}
	}

	AddScaled(dst, []float32{2, 2, 2}, 0.5)
	for i, want := range []float32{3, 4, 5} {
		if dst[i] != want {
			t.Errorf("AddScaled sample %d = %v, want %v", i, dst[i], want)
		}
	}
}

func TestAddStopsAtShorterSource(t *testing.T) {
	dst := []float32{1, 1, 1}
	Add(dst, []float32{5})
	if dst[0] != 6 || dst[1] != 1 || dst[2] != 1 {
		t.Errorf("short source add = %v", dst)
	}
}

func TestMixEndpoints(t *testing.T) {
	dst := make([]float32, 2)
	a := []float32{1, 1}
	b := []float32{3, 3}

	Mix(dst, a, b, 0)
	if dst[0] != 1 {
		t.Errorf("mix 0 = %v, want all src1", dst[0])
	}
	Mix(dst, a, b, 1)
	if dst[0] != 3 {
		t.Errorf("mix 1 = %v, want all src2", dst[0])
	}
	Mix(dst, a, b, 0.5)
	if dst[0] != 2 {
		t.Errorf("mix 0.5 = %v, want 2", dst[0])
	}
}

func TestPeakAndRMS(t *testing.T) {
	buf := []float32{0.5, -0.8, 0.1}
	if got := Peak(buf); got != 0.8 {
		t.Errorf("Peak = %v, want 0.8", got)
	}

	// RMS of a constant signal equals its magnitude.
	if got := RMS([]float32{-0.5, -0.5, -0.5, -0.5}); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("RMS = %v, want 0.5", got)
	}
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS of empty = %v", got)
	}
}

func TestScrubNonFinite(t *testing.T) {
	buf := []float32{0.5, float32(math.Inf(1)), float32(math.NaN()), -0.25}
	ScrubNonFinite(buf)
	want := []float32{0.5, 0, 0, -0.25}
	for i := range buf {
		if buf[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestSemitoneAndCentRatios(t *testing.T) {
	if got := SemitonesToRatio(12); got != 2 {
		t.Errorf("octave up ratio = %v, want 2", got)
	}
	if got := SemitonesToRatio(-12); got != 0.5 {
		t.Errorf("octave down ratio = %v, want 0.5", got)
	}
	if got := CentsToRatio(1200); got != 2 {
		t.Errorf("1200 cents ratio = %v, want 2", got)
	}
	if got := CentsToRatio(0); got != 1 {
		t.Errorf("zero cents ratio = %v, want 1", got)
	}
}
