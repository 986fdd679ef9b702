// Package integrator estimates the radiance carried back along a ray by
// tracing a single random light path through a scene.
package integrator

import (
	"math"
	"math/rand"

	"row-major/lantern/contact"
	"row-major/lantern/material"
	"row-major/lantern/ray"
	"row-major/lantern/scene"
	"row-major/lantern/vmath/vec3"
)

// DefaultRouletteDepth is the bounce count after which paths are subject to
// Russian roulette.
const DefaultRouletteDepth = 5

type Integrator struct {
	Scene *scene.Scene

	// Bounces after which Russian roulette may end the path.
	RouletteDepth int

	// Hard limit on bounces.  Zero means no limit.
	MaxDepth int

	// Sample emitters explicitly at diffuse surfaces.
	DirectLighting bool
}

func New(s *scene.Scene) *Integrator {
	return &Integrator{
		Scene:         s,
		RouletteDepth: DefaultRouletteDepth,
	}
}

// vertex remembers the last diffuse surface on a path traced with direct
// lighting, so that emission already accounted for there is not added again.
type vertex struct {
	element int
	point   vec3.T
}

// Radiance returns a one-sample estimate of the light arriving along r.
// depth is the number of bounces already taken by the caller.
func (in *Integrator) Radiance(r ray.Ray, depth int, rng *rand.Rand) vec3.T {
	var accum vec3.T
	throughput := vec3.T{1, 1, 1}

	var lastDiffuse *vertex

	for {
		c := in.Scene.Intersect(r)
		if !c.Hit() {
			return accum
		}

		m := in.Scene.Material(c.Material)
		emission := m.Emission
		if lastDiffuse != nil && in.sampleable(c.Element, lastDiffuse) {
			emission = vec3.T{}
		}

		nl := c.FacingNormal()
		f := m.Albedo

		depth++
		if depth > in.RouletteDepth {
			p := f.MaxComponent()
			if rng.Float64() < p {
				f = vec3.DivVS(f, p)
			} else {
				return vec3.AddVV(accum, vec3.MulVV(throughput, emission))
			}
		}
		if in.MaxDepth > 0 && depth > in.MaxDepth {
			return vec3.AddVV(accum, vec3.MulVV(throughput, emission))
		}

		accum = vec3.AddVV(accum, vec3.MulVV(throughput, emission))

		lastDiffuse = nil
		if in.DirectLighting && m.Kind == material.Diffuse {
			accum = vec3.AddVV(accum, vec3.MulVV(throughput, in.direct(c, nl, f, rng)))
			lastDiffuse = &vertex{element: c.Element, point: c.P}
		}

		s := m.Scatter(r, c.N, nl, c.P, rng)
		throughput = vec3.MulVV(throughput, vec3.MulVS(f, s.Weight))
		if throughput.IsZero() {
			return accum
		}
		r = s.Ray
	}
}

// sampleable reports whether direct lighting at v already covered emitter
// element.  Emitters that enclose the point, and the surface itself, are
// left to the indirect path.
func (in *Integrator) sampleable(element int, v *vertex) bool {
	if element == v.element {
		return false
	}
	light := &in.Scene.Spheres[element]
	return !light.Contains(v.point)
}

// direct estimates light arriving at a diffuse contact straight from each
// emitter, by sampling the cone the emitter subtends and casting a shadow
// ray.  f is the surface albedo.
func (in *Integrator) direct(c contact.Contact, nl, f vec3.T, rng *rand.Rand) vec3.T {
	var em vec3.T
	here := &vertex{element: c.Element, point: c.P}

	for _, li := range in.Scene.Emitters() {
		if !in.sampleable(li, here) {
			continue
		}
		light := &in.Scene.Spheres[li]

		sw := vec3.SubVV(light.Center, c.P)
		cosAMax := math.Sqrt(1 - light.Radius*light.Radius/sw.NormSquared())

		eps1 := rng.Float64()
		eps2 := rng.Float64()
		cosA := 1 - eps1 + eps1*cosAMax
		sinA := math.Sqrt(1 - cosA*cosA)
		phi := 2 * math.Pi * eps2

		w := vec3.Normalize(sw)
		su, sv := vec3.Basis(w)
		l := vec3.Normalize(vec3.AddVV(
			vec3.AddVV(vec3.MulVS(su, math.Cos(phi)*sinA), vec3.MulVS(sv, math.Sin(phi)*sinA)),
			vec3.MulVS(w, cosA),
		))

		cosL := vec3.IProd(l, nl)
		if cosL <= 0 {
			continue
		}

		shadow := in.Scene.Intersect(ray.Ray{Point: c.P, Slope: l})
		if !shadow.Hit() || shadow.Element != li {
			continue
		}

		omega := 2 * math.Pi * (1 - cosAMax)
		e := in.Scene.Material(light.Material).Emission
		em = vec3.AddVV(em, vec3.MulVS(vec3.MulVV(f, e), cosL*omega/math.Pi))
	}

	return em
}
