package vec3

import (
	"math"
)

// T is a 3-vector.  It doubles as a linear, unbounded RGB color.
type T [3]float64

func (v T) NormSquared() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

func (v T) Norm() float64 {
	return math.Sqrt(v.NormSquared())
}

// MaxComponent returns the largest of the three components.
func (v T) MaxComponent() float64 {
	if v[0] > v[1] && v[0] > v[2] {
		return v[0]
	}
	if v[1] > v[2] {
		return v[1]
	}
	return v[2]
}

func (v T) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

func (v T) IsFinite() bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

func Normalize(v T) T {
	l := v.Norm()
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

// MulVV is the component-wise product, used to filter a color by an albedo.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Reflect mirrors a about the plane with normal n.  n must be unit length.
func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

// Basis returns u and v completing an orthonormal frame around the unit
// vector w.  The helper axis is world Y unless w leans toward X.
func Basis(w T) (T, T) {
	helper := T{1, 0, 0}
	if math.Abs(w[0]) > 0.1 {
		helper = T{0, 1, 0}
	}
	u := Normalize(CProd(helper, w))
	v := CProd(w, u)
	return u, v
}
