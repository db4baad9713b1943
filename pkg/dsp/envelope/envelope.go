// Package envelope provides the grain amplitude window.
package envelope

import "math"

// Grain evaluates the amplitude window for a grain at normalized phase
// t in [0,1]. contour is bipolar in [-1,1]: negative values shift the
// peak toward the grain onset (hard attack, long release), positive
// values shift it toward the tail (slow swell, hard cutoff), zero gives
// a symmetric triangle. The shape is continuous in both arguments so a
// smoothed contour never clicks.
func Grain(t, contour float32) float32 {
	if t <= 0 || t >= 1 {
		return 0
	}
	if contour < -1 {
		contour = -1
	} else if contour > 1 {
		contour = 1
	}

	// Peak position stays off the window edges so both ramps keep a
	// finite slope.
	peak := 0.5 + 0.45*contour
	if t < peak {
		return t / peak
	}
	return (1 - t) / (1 - peak)
}

// GrainCurved applies a power curve on top of Grain, sharpening the
// window for curve > 1 and fattening it for curve < 1.
func GrainCurved(t, contour, curve float32) float32 {
	v := Grain(t, contour)
	if curve == 1 || v <= 0 {
		return v
	}
	return float32(math.Pow(float64(v), float64(curve)))
}
