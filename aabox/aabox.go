package aabox

import (
	"math"

	"row-major/lantern/ray"
	"row-major/lantern/vmath/vec3"
)

type AABox struct {
	X, Y, Z ray.Span
}

func AccumZeroAABox() AABox {
	return AABox{
		X: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Y: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Z: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
	}
}

// FromCorners builds the box spanning min to max.
func FromCorners(min, max vec3.T) AABox {
	return AABox{
		X: ray.Span{Lo: min[0], Hi: max[0]},
		Y: ray.Span{Lo: min[1], Hi: max[1]},
		Z: ray.Span{Lo: min[2], Hi: max[2]},
	}
}

func MinContainingAABox(a, b AABox) AABox {
	return AABox{
		X: ray.MinContainingSpan(a.X, b.X),
		Y: ray.MinContainingSpan(a.Y, b.Y),
		Z: ray.MinContainingSpan(a.Z, b.Z),
	}
}

// Axis returns the extent of the box along axis 0, 1, or 2.
func (a AABox) Axis(axis int) ray.Span {
	switch axis {
	case 0:
		return a.X
	case 1:
		return a.Y
	default:
		return a.Z
	}
}

func (a AABox) Min() vec3.T {
	return vec3.T{a.X.Lo, a.Y.Lo, a.Z.Lo}
}

func (a AABox) Max() vec3.T {
	return vec3.T{a.X.Hi, a.Y.Hi, a.Z.Hi}
}

// Centroid2 is twice the centroid coordinate on axis.  It is only used as a
// sort key, so the halving is skipped.
func (a AABox) Centroid2(axis int) float64 {
	s := a.Axis(axis)
	return s.Lo + s.Hi
}

// Contains reports whether b lies entirely within a.
func (a AABox) Contains(b AABox) bool {
	for i := 0; i < 3; i++ {
		as, bs := a.Axis(i), b.Axis(i)
		if bs.Lo < as.Lo || bs.Hi > as.Hi {
			return false
		}
	}
	return true
}

// RayTestAABox clips the query segment against the box's three slabs.  The
// returned span is the part of the segment inside the box, or NaNSpan if the
// segment misses the box.
func RayTestAABox(r ray.RaySegment, b AABox) ray.Span {
	cover := r.TheSegment

	for axis := 0; axis < 3; axis++ {
		slab := b.Axis(axis)
		invD := 1.0 / r.TheRay.Slope[axis]

		t0 := (slab.Lo - r.TheRay.Point[axis]) * invD
		t1 := (slab.Hi - r.TheRay.Point[axis]) * invD
		if invD < 0 {
			t0, t1 = t1, t0
		}

		if t0 > cover.Lo {
			cover.Lo = t0
		}
		if t1 < cover.Hi {
			cover.Hi = t1
		}
		if cover.Hi <= cover.Lo {
			return ray.NaNSpan()
		}
	}

	return cover
}
