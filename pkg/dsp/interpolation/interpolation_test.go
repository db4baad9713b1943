package interpolation

import (
	"math"
	"testing"
)

func TestLinearEndpoints(t *testing.T) {
	if got := Linear(2, 6, 0); got != 2 {
		t.Errorf("Linear frac 0 = %v, want 2", got)
	}
	if got := Linear(2, 6, 1); got != 6 {
		t.Errorf("Linear frac 1 = %v, want 6", got)
	}
	if got := Linear(2, 6, 0.5); got != 4 {
		t.Errorf("Linear frac 0.5 = %v, want 4", got)
	}
}

func TestHermitePassesThroughKnots(t *testing.T) {
	y0, y1, y2, y3 := float32(0.1), float32(0.4), float32(-0.2), float32(0.3)
	if got := Hermite(y0, y1, y2, y3, 0); got != y1 {
		t.Errorf("Hermite frac 0 = %v, want %v", got, y1)
	}
	if got := Hermite(y0, y1, y2, y3, 1); math.Abs(float64(got-y2)) > 1e-6 {
		t.Errorf("Hermite frac 1 = %v, want %v", got, y2)
	}
}

func TestHermiteExactOnLine(t *testing.T) {
	// A cubic interpolator reconstructs a straight line exactly.
	for _, frac := range []float32{0.1, 0.25, 0.5, 0.9} {
		got := Hermite(1, 2, 3, 4, frac)
		want := 2 + frac
		if math.Abs(float64(got-want)) > 1e-6 {
			t.Errorf("frac %v: Hermite on line = %v, want %v", frac, got, want)
		}
	}
}

func TestHermiteSmootherThanLinearOnSine(t *testing.T) {
	sine := func(i float64) float32 {
		return float32(math.Sin(2 * math.Pi * i / 16))
	}
	var errLin, errHerm float64
	for i := 1; i < 30; i++ {
		frac := float32(0.5)
		truth := float64(sine(float64(i) + 0.5))
		lin := float64(Linear(sine(float64(i)), sine(float64(i+1)), frac))
		herm := float64(Hermite(sine(float64(i-1)), sine(float64(i)), sine(float64(i+1)), sine(float64(i+2)), frac))
		errLin += math.Abs(lin - truth)
		errHerm += math.Abs(herm - truth)
	}
	if errHerm >= errLin {
		t.Errorf("hermite error %v not below linear error %v", errHerm, errLin)
	}
}
