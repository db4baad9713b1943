// Package analyzer computes the master-bus visualization state: peak
// meters, oscilloscope and vectorscope snapshots, and a coarse
// spectrum. The render side publishes under a TryLock so it never
// blocks on a slow reader.
package analyzer

import (
	"math"
	"sync"

	"github.com/ktye/fft"

	"github.com/grainloom/grainloom/pkg/dsp"
)

// Snapshot dimensions.
const (
	ScopeSize       = 256
	VectorscopeSize = 128
	SpectrumBins    = 64
	spectrumWindow  = 256
)

// Meter ballistics, applied once per published block.
const (
	meterAttack  = 0.6
	meterRelease = 0.96
)

// Snapshot is one published frame of visualization state.
type Snapshot struct {
	PeakL float32
	PeakR float32
	RMSL  float32
	RMSR  float32

	Scope [ScopeSize]float32
	// Vectorscope holds interleaved L/R pairs.
	Vectorscope [VectorscopeSize * 2]float32
	Spectrum    [SpectrumBins]float32
}

// Analyzer accumulates render blocks and publishes snapshots. Publish
// runs on the render context; Read on any other goroutine.
type Analyzer struct {
	mu   sync.Mutex
	snap Snapshot

	peakL float32
	peakR float32

	fft    fft.FFT
	window [spectrumWindow]float64
	buf    []complex128
	fill   [spectrumWindow]float32
	filled int
}

// New creates an analyzer.
func New() *Analyzer {
	a := &Analyzer{
		buf: make([]complex128, spectrumWindow),
	}
	f, err := fft.New(spectrumWindow)
	if err != nil {
		// Window size is a compile-time power of two.
		panic(err)
	}
	a.fft = f
	for i := range a.window {
		a.window[i] = 0.5 * (1 - math.Cos(dsp.TwoPi*float64(i)/float64(spectrumWindow)))
	}
	return a
}

// Publish feeds one rendered block. If the reader currently holds the
// snapshot lock the visual state for this block is dropped; meter
// ballistics still advance so levels stay honest.
func (a *Analyzer) Publish(left, right []float32, n int) {
	blockPeakL := dsp.Peak(left[:n])
	blockPeakR := dsp.Peak(right[:n])
	a.peakL = ballistics(a.peakL, blockPeakL)
	a.peakR = ballistics(a.peakR, blockPeakR)

	// Keep accumulating the spectrum window regardless of the lock so
	// the FFT hop cadence is stable.
	for i := 0; i < n; i++ {
		a.fill[a.filled] = (left[i] + right[i]) * 0.5
		a.filled++
		if a.filled == spectrumWindow {
			a.filled = 0
			if a.mu.TryLock() {
				a.computeSpectrum()
				a.mu.Unlock()
			}
		}
	}

	if !a.mu.TryLock() {
		return
	}
	defer a.mu.Unlock()

	a.snap.PeakL = a.peakL
	a.snap.PeakR = a.peakR
	a.snap.RMSL = dsp.RMS(left[:n])
	a.snap.RMSR = dsp.RMS(right[:n])

	// Scope: most recent samples, mono sum.
	scopeN := n
	if scopeN > ScopeSize {
		scopeN = ScopeSize
	}
	copy(a.snap.Scope[:], a.snap.Scope[scopeN:])
	base := ScopeSize - scopeN
	for i := 0; i < scopeN; i++ {
		s := left[n-scopeN+i]
		if len(right) > 0 {
			s = (s + right[n-scopeN+i]) * 0.5
		}
		a.snap.Scope[base+i] = s
	}

	// Vectorscope: most recent stereo pairs.
	vecN := n
	if vecN > VectorscopeSize {
		vecN = VectorscopeSize
	}
	copy(a.snap.Vectorscope[:], a.snap.Vectorscope[vecN*2:])
	vbase := (VectorscopeSize - vecN) * 2
	for i := 0; i < vecN; i++ {
		a.snap.Vectorscope[vbase+i*2] = left[n-vecN+i]
		a.snap.Vectorscope[vbase+i*2+1] = right[n-vecN+i]
	}
}

// computeSpectrum transforms the accumulated window into bin
// magnitudes. Caller holds the lock.
func (a *Analyzer) computeSpectrum() {
	for i := 0; i < spectrumWindow; i++ {
		a.buf[i] = complex(float64(a.fill[i])*a.window[i], 0)
	}
	a.buf = a.fft.Transform(a.buf)
	// Fold the first half of the transform into the display bins.
	perBin := (spectrumWindow / 2) / SpectrumBins
	for b := 0; b < SpectrumBins; b++ {
		var mag float64
		for k := 0; k < perBin; k++ {
			c := a.buf[b*perBin+k]
			mag += math.Hypot(real(c), imag(c))
		}
		a.snap.Spectrum[b] = float32(mag / float64(perBin) / (spectrumWindow / 2))
	}
}

// Read copies the latest snapshot. Safe from any goroutine.
func (a *Analyzer) Read(dst *Snapshot) {
	a.mu.Lock()
	*dst = a.snap
	a.mu.Unlock()
}

func ballistics(meter, block float32) float32 {
	if block > meter {
		return meter*meterAttack + block*(1-meterAttack)
	}
	return meter * meterRelease
}
