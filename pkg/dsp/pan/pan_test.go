package pan

import (
	"math"
	"testing"
)

func TestCenterGains(t *testing.T) {
	l, r := Gains(0, ConstantPower)
	want := float32(math.Sqrt(2) / 2)
	if math.Abs(float64(l-want)) > 1e-6 || math.Abs(float64(r-want)) > 1e-6 {
		t.Errorf("center gains = %v, %v, want %v", l, r, want)
	}

	l, r = Gains(0, Linear)
	if l != 0.5 || r != 0.5 {
		t.Errorf("linear center = %v, %v, want 0.5", l, r)
	}
}

func TestHardPan(t *testing.T) {
	for _, law := range []Law{Linear, ConstantPower} {
		l, r := Gains(-1, law)
		if math.Abs(float64(l)-1) > 1e-6 || math.Abs(float64(r)) > 1e-6 {
			t.Errorf("law %v hard left = %v, %v", law, l, r)
		}
		l, r = Gains(1, law)
		if math.Abs(float64(l)) > 1e-6 || math.Abs(float64(r)-1) > 1e-6 {
			t.Errorf("law %v hard right = %v, %v", law, l, r)
		}
	}
}

func TestConstantPowerSum(t *testing.T) {
	for p := float32(-1); p <= 1; p += 0.125 {
		l, r := Gains(p, ConstantPower)
		sum := float64(l)*float64(l) + float64(r)*float64(r)
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("pan %v: power sum = %v, want 1", p, sum)
		}
	}
}

func TestOutOfRangeClamped(t *testing.T) {
	l1, r1 := Gains(-3, ConstantPower)
	l2, r2 := Gains(-1, ConstantPower)
	if l1 != l2 || r1 != r2 {
		t.Errorf("pan -3 = %v, %v; want clamp to -1 = %v, %v", l1, r1, l2, r2)
	}
}
