package ray

import (
	"math"

	"row-major/lantern/vmath/vec3"
)

const (
	// EPS is the smallest accepted hit distance.  It keeps a scattered ray
	// from re-hitting the surface it just left.
	EPS = 1e-4

	// INF stands in for "no hit so far".
	INF = 1e20
)

type Span struct {
	Lo, Hi float64
}

func NaNSpan() Span {
	return Span{math.NaN(), math.NaN()}
}

// SceneSpan is the parametric interval every scene query starts from.
func SceneSpan() Span {
	return Span{EPS, INF}
}

func MinContainingSpan(a, b Span) Span {
	min := a.Lo
	if b.Lo < a.Lo {
		min = b.Lo
	}

	max := a.Hi
	if b.Hi > a.Hi {
		max = b.Hi
	}

	return Span{min, max}
}

func (s Span) IsNaN() bool {
	return math.IsNaN(s.Lo) || math.IsNaN(s.Hi)
}

func (s Span) Contains(t float64) bool {
	return s.Lo < t && t <= s.Hi
}

type Ray struct {
	Point vec3.T
	Slope vec3.T
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}

// RaySegment is a ray restricted to a parametric interval.
type RaySegment struct {
	TheRay     Ray
	TheSegment Span
}

// Query wraps r in the default scene interval.
func Query(r Ray) RaySegment {
	return RaySegment{
		TheRay:     r,
		TheSegment: SceneSpan(),
	}
}
