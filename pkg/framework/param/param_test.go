package param

import (
	"math"
	"testing"
)

func TestParameterNormalization(t *testing.T) {
	p := New(1, "Cutoff").Range(20, 20000).Default(1000).Unit("Hz").Build()

	if got := p.Denormalize(0); got != 20 {
		t.Errorf("Denormalize(0) = %v, want 20", got)
	}
	if got := p.Denormalize(1); got != 20000 {
		t.Errorf("Denormalize(1) = %v, want 20000", got)
	}

	p.SetPlainValue(10010)
	if got := p.GetValue(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("normalized = %v, want 0.5", got)
	}
}

func TestParameterClamping(t *testing.T) {
	p := New(1, "Gain").Range(-60, 12).Default(0).Build()

	p.SetValue(1.5)
	if got := p.GetValue(); got != 1 {
		t.Errorf("SetValue(1.5) stored %v, want 1", got)
	}
	p.SetValue(-0.2)
	if got := p.GetValue(); got != 0 {
		t.Errorf("SetValue(-0.2) stored %v, want 0", got)
	}
	p.SetPlainValue(100)
	if got := p.GetPlainValue(); got != 12 {
		t.Errorf("SetPlainValue(100) yields %v, want 12", got)
	}
}

func TestParameterBipolar(t *testing.T) {
	p := New(2, "Pitch").Range(-36, 36).Default(0).Bipolar().Build()
	if got := p.BipolarValue(); math.Abs(got) > 1e-9 {
		t.Errorf("default bipolar = %v, want 0", got)
	}
	p.SetValue(1)
	if got := p.BipolarValue(); got != 1 {
		t.Errorf("bipolar at max = %v, want 1", got)
	}
}

func TestSmootherLinearReachesTarget(t *testing.T) {
	s := NewSmoother(SmoothLinear, 0.020, 48000)
	s.Reset(0)
	s.SetTarget(1)

	steps := int(0.020 * 48000)
	var last float64
	for i := 0; i < steps; i++ {
		last = s.Next()
	}
	if last != 1 {
		t.Errorf("after %d steps value = %v, want exactly 1", steps, last)
	}
	if s.IsSmoothing() {
		t.Error("smoother still smoothing after full ramp")
	}
}

func TestSmootherNoOvershoot(t *testing.T) {
	for _, mode := range []SmoothMode{SmoothLinear, SmoothExponential} {
		s := NewSmoother(mode, 0.005, 48000)
		s.Reset(0)
		s.SetTarget(0.7)
		prev := 0.0
		for i := 0; i < 48000; i++ {
			v := s.Next()
			if v > 0.7+1e-9 {
				t.Fatalf("mode %v: overshoot to %v", mode, v)
			}
			if v < prev-1e-12 {
				t.Fatalf("mode %v: non-monotonic ramp %v -> %v", mode, prev, v)
			}
			prev = v
		}
		if math.Abs(prev-0.7) > 1e-6 {
			t.Errorf("mode %v: final %v, want 0.7", mode, prev)
		}
	}
}

func TestSmootherRetargetMidRamp(t *testing.T) {
	s := NewSmoother(SmoothLinear, 0.010, 48000)
	s.Reset(0)
	s.SetTarget(1)
	for i := 0; i < 100; i++ {
		s.Next()
	}
	mid := s.Current()
	s.SetTarget(0)
	// First step after retarget must move from mid, not jump.
	v := s.Next()
	if math.Abs(v-mid) > math.Abs(mid)/10 {
		t.Errorf("retarget jumped from %v to %v", mid, v)
	}
	s.NextBlock(48000)
	if got := s.Current(); got != 0 {
		t.Errorf("after retarget to 0, settled at %v", got)
	}
}

func TestSmootherZeroTimeSnaps(t *testing.T) {
	s := NewSmoother(SmoothLinear, 0, 48000)
	s.Reset(0.25)
	s.SetTarget(0.9)
	if got := s.Next(); got != 0.9 {
		t.Errorf("zero smooth time: Next() = %v, want 0.9", got)
	}
}

func TestSmoothedParameterUpdate(t *testing.T) {
	p := New(3, "Level").Range(0, 2).Default(1).Build()
	sp := NewSmoothedParameter(p, SmoothLinear, 0.020, 48000)

	if got := sp.Current(); got != 1 {
		t.Errorf("initial smoothed value = %v, want default 1", got)
	}

	p.SetPlainValue(2)
	// Target only moves once the render side pulls it.
	if got := sp.Current(); got != 1 {
		t.Errorf("value moved before Update: %v", got)
	}
	sp.Update()
	sp.NextBlock(48000)
	if got := sp.Current(); math.Abs(got-2) > 1e-6 {
		t.Errorf("smoothed value = %v, want 2", got)
	}
}

func TestRegistryDuplicateID(t *testing.T) {
	r := NewRegistry()
	r.MustAdd(New(1, "A").Build())
	if err := r.Add(New(1, "B").Build()); err == nil {
		t.Error("duplicate ID accepted")
	}
	if r.Count() != 1 {
		t.Errorf("count = %d, want 1", r.Count())
	}
}

func TestRegistrySortedIDs(t *testing.T) {
	r := NewRegistry()
	for _, id := range []uint32{30, 10, 20} {
		r.MustAdd(New(id, "p").Build())
	}
	ids := r.SortedIDs()
	want := []uint32{10, 20, 30}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("SortedIDs = %v, want %v", ids, want)
		}
	}
}

func TestRegistryResetAll(t *testing.T) {
	r := NewRegistry()
	p := r.MustAdd(New(1, "Mix").Range(0, 1).Default(0.5).Build())
	p.SetValue(0.9)
	r.ResetAll()
	if got := p.GetValue(); got != 0.5 {
		t.Errorf("after ResetAll value = %v, want 0.5", got)
	}
}
