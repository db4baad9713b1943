package ringbuf

import (
	"math"
	"testing"
)

func TestReadLastReturnsNewestSamples(t *testing.T) {
	r := New(1, 8)

	// Write more than capacity so the ring wraps.
	src := make([][]float32, 1)
	src[0] = make([]float32, 20)
	for i := range src[0] {
		src[0][i] = float32(i)
	}
	r.Write(src, 20)

	dst := make([]float32, 5)
	n := r.ReadLast(0, 0, dst)
	if n != 5 {
		t.Fatalf("ReadLast returned %d samples, want 5", n)
	}
	// Last 5 written values were 15..19.
	for i, want := range []float32{15, 16, 17, 18, 19} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestReadLastWithOffset(t *testing.T) {
	r := New(1, 16)
	src := [][]float32{{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}}
	r.Write(src, 10)

	dst := make([]float32, 3)
	n := r.ReadLast(0, 2, dst)
	if n != 3 {
		t.Fatalf("got %d samples, want 3", n)
	}
	// Window ends 2 behind the cursor: 5, 6, 7.
	for i, want := range []float32{5, 6, 7} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestReadLastTruncatesToCapacity(t *testing.T) {
	r := New(1, 4)
	src := [][]float32{{1, 2, 3, 4, 5, 6}}
	r.Write(src, 6)

	dst := make([]float32, 10)
	n := r.ReadLast(0, 0, dst)
	if n != 4 {
		t.Fatalf("got %d samples, want capacity 4", n)
	}
	for i, want := range []float32{3, 4, 5, 6} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestReadLastPartiallyFilled(t *testing.T) {
	r := New(1, 8)
	src := [][]float32{{1, 2, 3}}
	r.Write(src, 3)

	dst := make([]float32, 8)
	if n := r.ReadLast(0, 0, dst); n != 3 {
		t.Errorf("got %d samples, want 3 (only 3 written)", n)
	}
	if n := r.ReadLast(0, 5, dst); n != 0 {
		t.Errorf("offset beyond written data returned %d samples, want 0", n)
	}
}

func TestInterpMidpoint(t *testing.T) {
	r := New(1, 4)
	r.Write([][]float32{{0, 1, 0, 1}}, 4)

	got := r.Interp(0, 0.5)
	if math.Abs(float64(got-0.5)) > 1e-6 {
		t.Errorf("Interp(0.5) = %v, want 0.5", got)
	}
	// Wrap: between index 3 (1.0) and index 0 (0.0).
	got = r.Interp(0, 3.5)
	if math.Abs(float64(got-0.5)) > 1e-6 {
		t.Errorf("Interp(3.5) across wrap = %v, want 0.5", got)
	}
	// Negative positions resolve modulo capacity.
	got = r.Interp(0, -0.5)
	if math.Abs(float64(got-0.5)) > 1e-6 {
		t.Errorf("Interp(-0.5) = %v, want 0.5", got)
	}
}

func TestOverdubFrameBlends(t *testing.T) {
	r := New(1, 4)
	r.WriteFrame([]float32{1.0})
	r.writePos = 0 // rewind cursor to overdub the same slot

	r.OverdubFrame([]float32{0.5}, 0.5)
	if got, want := r.At(0, 0), float32(1.0); got != want {
		t.Errorf("overdub result = %v, want %v (1.0*0.5 + 0.5)", got, want)
	}
}

func TestCopyFromSetsLoopableState(t *testing.T) {
	r := New(2, 8)
	src := [][]float32{{1, 2, 3}, {4, 5, 6}}
	r.CopyFrom(src)

	if r.Filled() != 3 {
		t.Errorf("Filled = %d, want 3", r.Filled())
	}
	if r.WritePos() != 3 {
		t.Errorf("WritePos = %d, want 3", r.WritePos())
	}
	if r.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %v, want 6", r.At(1, 2))
	}
}

func TestCopyFromMonoToStereoDuplicates(t *testing.T) {
	r := New(2, 8)
	r.CopyFrom([][]float32{{1, 2}})
	if r.At(1, 0) != 1 || r.At(1, 1) != 2 {
		t.Error("mono source should populate both channels")
	}
}
