package param

import "math"

// SmoothMode selects the smoothing algorithm.
type SmoothMode int

const (
	// SmoothLinear ramps at a constant rate and lands exactly on the
	// target.
	SmoothLinear SmoothMode = iota
	// SmoothExponential approaches the target with a one-pole lag,
	// snapping once within epsilon.
	SmoothExponential
)

// Smoother interpolates between parameter changes to avoid zipper noise.
// It is owned by the render context; only SetTarget may be called from
// elsewhere, and only through an atomic Parameter feeding it per block.
type Smoother struct {
	mode    SmoothMode
	current float64
	target  float64

	// linear mode
	increment  float64
	samplesTo  int
	sampleRate float64
	smoothTime float64 // seconds

	// exponential mode
	coeff float64
}

// NewSmoother creates a smoother with the given mode and smoothing time.
func NewSmoother(mode SmoothMode, smoothTimeSeconds, sampleRate float64) *Smoother {
	s := &Smoother{mode: mode}
	s.Configure(smoothTimeSeconds, sampleRate)
	return s
}

// Configure sets the smoothing time and sample rate. Resets nothing
// else, so it is safe at rate changes.
func (s *Smoother) Configure(smoothTimeSeconds, sampleRate float64) {
	if smoothTimeSeconds < 0 {
		smoothTimeSeconds = 0
	}
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	s.smoothTime = smoothTimeSeconds
	s.sampleRate = sampleRate
	if smoothTimeSeconds == 0 {
		s.coeff = 0
	} else {
		// Time constant reaches ~63% of the step in smoothTime.
		s.coeff = math.Exp(-1.0 / (smoothTimeSeconds * sampleRate))
	}
	// Re-derive the linear ramp toward the current target.
	s.retarget()
}

// Reset jumps both current and target to the given value with no ramp.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.increment = 0
	s.samplesTo = 0
}

// SetTarget sets a new target. The ramp restarts from the current value.
func (s *Smoother) SetTarget(target float64) {
	if target == s.target {
		return
	}
	s.target = target
	s.retarget()
}

func (s *Smoother) retarget() {
	if s.smoothTime == 0 {
		s.current = s.target
		s.increment = 0
		s.samplesTo = 0
		return
	}
	n := int(s.smoothTime * s.sampleRate)
	if n < 1 {
		n = 1
	}
	s.samplesTo = n
	s.increment = (s.target - s.current) / float64(n)
}

// Next advances the smoother one sample and returns the new value.
func (s *Smoother) Next() float64 {
	switch s.mode {
	case SmoothLinear:
		if s.samplesTo > 0 {
			s.current += s.increment
			s.samplesTo--
			if s.samplesTo == 0 {
				s.current = s.target
			}
		}
	default:
		s.current = s.target + (s.current-s.target)*s.coeff
		if math.Abs(s.current-s.target) < 1e-9 {
			s.current = s.target
		}
	}
	return s.current
}

// Current returns the value without advancing. Block-rate consumers read
// this once per block after a single Next call per sample elsewhere, or
// use NextBlock.
func (s *Smoother) Current() float64 {
	return s.current
}

// Target returns the value the smoother is heading toward.
func (s *Smoother) Target() float64 {
	return s.target
}

// IsSmoothing reports whether the smoother has not yet reached its
// target.
func (s *Smoother) IsSmoothing() bool {
	return s.current != s.target
}

// NextBlock advances n samples and returns the final value. Used by
// block-rate parameters that do not need per-sample values.
func (s *Smoother) NextBlock(n int) float64 {
	if !s.IsSmoothing() {
		return s.current
	}
	for i := 0; i < n; i++ {
		s.Next()
		if !s.IsSmoothing() {
			break
		}
	}
	return s.current
}

// SmoothedParameter couples an atomic Parameter with a render-side
// Smoother. The render thread calls Update once per block to pull the
// latest control-side target, then Next per sample (or Current at block
// rate).
type SmoothedParameter struct {
	Param    *Parameter
	smoother *Smoother
}

// NewSmoothedParameter wraps a parameter with a smoother initialized to
// the parameter's current plain value.
func NewSmoothedParameter(p *Parameter, mode SmoothMode, smoothTimeSeconds, sampleRate float64) *SmoothedParameter {
	s := NewSmoother(mode, smoothTimeSeconds, sampleRate)
	s.Reset(p.GetPlainValue())
	return &SmoothedParameter{Param: p, smoother: s}
}

// Update pulls the parameter's plain value as the new smoothing target.
// Call once per block from the render context.
func (sp *SmoothedParameter) Update() {
	sp.smoother.SetTarget(sp.Param.GetPlainValue())
}

// Next advances one sample.
func (sp *SmoothedParameter) Next() float64 {
	return sp.smoother.Next()
}

// Current returns the smoothed value without advancing.
func (sp *SmoothedParameter) Current() float64 {
	return sp.smoother.Current()
}

// NextBlock advances n samples and returns the final value.
func (sp *SmoothedParameter) NextBlock(n int) float64 {
	return sp.smoother.NextBlock(n)
}

// Reset snaps the smoother to the parameter's current plain value.
func (sp *SmoothedParameter) Reset() {
	sp.smoother.Reset(sp.Param.GetPlainValue())
}

// Configure updates the smoothing time and sample rate.
func (sp *SmoothedParameter) Configure(smoothTimeSeconds, sampleRate float64) {
	sp.smoother.Configure(smoothTimeSeconds, sampleRate)
}
