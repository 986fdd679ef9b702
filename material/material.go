package material

import (
	"fmt"
	"math"
	"math/rand"

	"row-major/lantern/ray"
	"row-major/lantern/vmath/vec3"
)

type Kind int

const (
	Diffuse Kind = iota
	Mirror
	Dielectric
)

func (k Kind) String() string {
	switch k {
	case Diffuse:
		return "diffuse"
	case Mirror:
		return "mirror"
	case Dielectric:
		return "dielectric"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	// Refractive indices on either side of a dielectric surface.
	VacuumIndex = 1.0
	GlassIndex  = 1.5
)

// Material is immutable once built.  Scenes keep materials in an arena and
// primitives refer to them by index.
type Material struct {
	Kind     Kind
	Albedo   vec3.T
	Emission vec3.T
}

func NewDiffuse(emission, albedo vec3.T) Material {
	return Material{Kind: Diffuse, Albedo: albedo, Emission: emission}
}

func NewMirror(emission, albedo vec3.T) Material {
	return Material{Kind: Mirror, Albedo: albedo, Emission: emission}
}

func NewDielectric(emission, albedo vec3.T) Material {
	return Material{Kind: Dielectric, Albedo: albedo, Emission: emission}
}

// Validate rejects materials that would make the path estimator ill-defined.
// A negative albedo component would give Russian roulette a negative
// continuation probability.
func (m Material) Validate() error {
	switch m.Kind {
	case Diffuse, Mirror, Dielectric:
	default:
		return fmt.Errorf("unknown material kind %v", m.Kind)
	}
	for i := 0; i < 3; i++ {
		if !(m.Albedo[i] >= 0) || math.IsInf(m.Albedo[i], 0) {
			return fmt.Errorf("%v albedo %v must be finite and non-negative", m.Kind, m.Albedo)
		}
		if !(m.Emission[i] >= 0) || math.IsInf(m.Emission[i], 0) {
			return fmt.Errorf("%v emission %v must be finite and non-negative", m.Kind, m.Emission)
		}
	}
	return nil
}

func (m Material) IsEmitter() bool {
	return !m.Emission.IsZero()
}

// ScatterInfo is the continuation of a path after a bounce.
type ScatterInfo struct {
	Ray ray.Ray

	// Correction for the probability with which Ray was chosen.
	Weight float64
}

// Scatter picks the next direction of a path that struck the surface at p.  n
// is the outward normal and nl is n turned to face the incoming ray.
func (m Material) Scatter(in ray.Ray, n, nl, p vec3.T, rng *rand.Rand) ScatterInfo {
	switch m.Kind {
	case Mirror:
		return ScatterInfo{
			Ray:    ray.Ray{Point: p, Slope: vec3.Reflect(in.Slope, n)},
			Weight: 1,
		}
	case Dielectric:
		return scatterDielectric(in, n, nl, p, rng)
	default:
		return ScatterInfo{
			Ray:    ray.Ray{Point: p, Slope: CosineHemisphere(nl, rng)},
			Weight: 1,
		}
	}
}

// CosineHemisphere draws a unit direction about w with density proportional
// to the cosine against w.
func CosineHemisphere(w vec3.T, rng *rand.Rand) vec3.T {
	r1 := 2 * math.Pi * rng.Float64()
	r2 := rng.Float64()
	r2s := math.Sqrt(r2)

	u, v := vec3.Basis(w)
	d := vec3.AddVV(
		vec3.AddVV(
			vec3.MulVS(u, math.Cos(r1)*r2s),
			vec3.MulVS(v, math.Sin(r1)*r2s),
		),
		vec3.MulVS(w, math.Sqrt(1-r2)),
	)
	return vec3.Normalize(d)
}

// Schlick approximates Fresnel reflectance given the reflectance at normal
// incidence and c = 1 - cos(theta).
func Schlick(r0, c float64) float64 {
	return r0 + (1-r0)*c*c*c*c*c
}

func NormalIncidenceReflectance(nc, nt float64) float64 {
	a := nt - nc
	b := nt + nc
	return (a * a) / (b * b)
}

func scatterDielectric(in ray.Ray, n, nl, p vec3.T, rng *rand.Rand) ScatterInfo {
	reflected := ray.Ray{Point: p, Slope: vec3.Reflect(in.Slope, n)}

	into := vec3.IProd(n, nl) > 0
	nc, nt := VacuumIndex, GlassIndex
	nnt := nt / nc
	if into {
		nnt = nc / nt
	}
	ddn := vec3.IProd(in.Slope, nl)

	cos2t := 1 - nnt*nnt*(1-ddn*ddn)
	if cos2t < 0 {
		// Total internal reflection.
		return ScatterInfo{Ray: reflected, Weight: 1}
	}

	sign := -1.0
	if into {
		sign = 1.0
	}
	tdir := vec3.Normalize(vec3.SubVV(
		vec3.MulVS(in.Slope, nnt),
		vec3.MulVS(n, sign*(ddn*nnt+math.Sqrt(cos2t))),
	))

	c := 1 - vec3.IProd(tdir, n)
	if into {
		c = 1 + ddn
	}
	re := Schlick(NormalIncidenceReflectance(nc, nt), c)
	tr := 1 - re
	prob := 0.25 + 0.5*re

	if rng.Float64() < prob {
		return ScatterInfo{Ray: reflected, Weight: re / prob}
	}
	return ScatterInfo{
		Ray:    ray.Ray{Point: p, Slope: tdir},
		Weight: tr / (1 - prob),
	}
}
