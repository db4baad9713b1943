// Package pan provides stereo panning gain laws.
package pan

import "math"

// Law selects the panning law.
type Law int

const (
	// Linear trades center level for simplicity.
	Linear Law = iota
	// ConstantPower keeps perceived loudness stable across the field.
	ConstantPower
)

// Gains returns left/right gains for a pan position.
// pan: -1.0 = hard left, 0.0 = center, 1.0 = hard right.
func Gains(pan float32, law Law) (left, right float32) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	switch law {
	case Linear:
		return (1 - pan) * 0.5, (1 + pan) * 0.5
	default:
		angle := float64(pan+1) * math.Pi / 4 // 0..pi/2
		return float32(math.Cos(angle)), float32(math.Sin(angle))
	}
}
