package decode

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, sampleRate, channels, frames int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, frames*channels),
	}
	for i := 0; i < frames; i++ {
		v := int(math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)) * 20000)
		for ch := 0; ch < channels; ch++ {
			buf.Data[i*channels+ch] = v
		}
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadWAVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeTestWAV(t, path, 44100, 2, 4410)

	clip, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if clip.Channels() != 2 {
		t.Errorf("channels = %d, want 2", clip.Channels())
	}
	if clip.SampleRate != 44100 {
		t.Errorf("rate = %d, want 44100", clip.SampleRate)
	}
	if clip.Frames() != 4410 {
		t.Errorf("frames = %d, want 4410", clip.Frames())
	}
	// Content survives within 16-bit quantization error.
	want := float32(math.Sin(2*math.Pi*440*100/44100) * 20000 / 32768)
	if got := clip.Planes[0][100]; math.Abs(float64(got-want)) > 1e-3 {
		t.Errorf("sample 100 = %v, want about %v", got, want)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load("whatever.flac")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.wav"))
	if !errors.Is(err, ErrIoFailure) {
		t.Errorf("err = %v, want ErrIoFailure", err)
	}
}

func TestLoadCorruptWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("this is not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrCorruptStream) {
		t.Errorf("err = %v, want ErrCorruptStream", err)
	}
}

func TestResampleRatioAndLength(t *testing.T) {
	src := &Clip{
		Planes:     [][]float32{make([]float32, 44100)},
		SampleRate: 44100,
	}
	for i := range src.Planes[0] {
		src.Planes[0][i] = float32(i)
	}

	dst := Resample(src, 48000)
	if dst.SampleRate != 48000 {
		t.Errorf("rate = %d, want 48000", dst.SampleRate)
	}
	wantFrames := int(float64(44100) * 48000 / 44100)
	if d := dst.Frames() - wantFrames; d < -1 || d > 1 {
		t.Errorf("frames = %d, want about %d", dst.Frames(), wantFrames)
	}
	// A linear ramp resamples to a linear ramp in the source index
	// domain: sample i sits at source position i*ratio.
	ratio := 44100.0 / 48000.0
	for _, i := range []int{0, 1000, 20000, dst.Frames() - 2} {
		want := float32(float64(i) * ratio)
		if got := dst.Planes[0][i]; math.Abs(float64(got-want)) > 0.01 {
			t.Errorf("resampled[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestResampleIdentityWhenRatesMatch(t *testing.T) {
	src := &Clip{Planes: [][]float32{{1, 2, 3}}, SampleRate: 48000}
	if got := Resample(src, 48000); got != src {
		t.Error("matching rates should return the input clip")
	}
}

func TestToRingTruncatesAndFills(t *testing.T) {
	clip := &Clip{
		Planes:     [][]float32{make([]float32, 500)},
		SampleRate: 48000,
	}
	for i := range clip.Planes[0] {
		clip.Planes[0][i] = float32(i)
	}

	r := ToRing(clip, 2, 300)
	if r.Filled() != 300 {
		t.Errorf("filled = %d, want 300", r.Filled())
	}
	if got := r.At(0, 299); got != 299 {
		t.Errorf("last sample = %v, want 299", got)
	}
	// Mono clips populate both ring channels.
	if got := r.At(1, 10); got != 10 {
		t.Errorf("channel 1 sample = %v, want duplicated mono", got)
	}
}
