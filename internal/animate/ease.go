package animate

import "math"

// Ease is the cubic ease-in-out curve. Inputs are clamped to [0,1].
func Ease(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return 4 * t * t * t
	default:
		return 1 - math.Pow(-2*t+2, 3)/2
	}
}

// Progress returns the eased progress of frame i out of n. The first frame is
// the empty state and the last one is fully revealed.
func Progress(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return Ease(float64(i) / float64(n-1))
}
