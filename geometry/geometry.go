package geometry

import (
	"fmt"
	"math"

	"row-major/lantern/aabox"
	"row-major/lantern/contact"
	"row-major/lantern/ray"
	"row-major/lantern/vmath/vec3"
)

// Sphere is the only primitive.  It carries a handle into its scene's
// material arena.
type Sphere struct {
	Radius   float64
	Center   vec3.T
	Material int
}

func New(radius float64, center vec3.T, material int) (Sphere, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return Sphere{}, fmt.Errorf("sphere radius must be positive and finite, got %v", radius)
	}
	if !center.IsFinite() {
		return Sphere{}, fmt.Errorf("sphere center must be finite, got %v", center)
	}
	return Sphere{
		Radius:   radius,
		Center:   center,
		Material: material,
	}, nil
}

func (s *Sphere) GetAABox() aabox.AABox {
	r := vec3.T{s.Radius, s.Radius, s.Radius}
	return aabox.FromCorners(vec3.SubVV(s.Center, r), vec3.AddVV(s.Center, r))
}

// RayInto returns the nearest contact of the query with the sphere surface
// inside the query's segment, from outside or inside.
func (s *Sphere) RayInto(query ray.RaySegment) contact.Contact {
	op := vec3.SubVV(s.Center, query.TheRay.Point)
	b := vec3.IProd(op, query.TheRay.Slope)
	det := b*b - vec3.IProd(op, op) + s.Radius*s.Radius
	if det < 0 {
		return contact.ContactNaN()
	}

	sqrtDet := math.Sqrt(det)
	t1 := b - sqrtDet
	t2 := b + sqrtDet

	lo := query.TheSegment.Lo
	if t1 <= lo && t2 <= lo {
		return contact.ContactNaN()
	}

	t := t2
	if t1 > lo {
		t = t1
	}
	if t > query.TheSegment.Hi {
		return contact.ContactNaN()
	}

	p := query.TheRay.Eval(t)
	return contact.Contact{
		T:        t,
		R:        query.TheRay,
		P:        p,
		N:        vec3.DivVS(vec3.SubVV(p, s.Center), s.Radius),
		Material: s.Material,
	}
}

// Contains reports whether p is strictly inside the sphere.
func (s *Sphere) Contains(p vec3.T) bool {
	return vec3.SubVV(p, s.Center).NormSquared() < s.Radius*s.Radius
}
