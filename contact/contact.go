package contact

import (
	"math"

	"row-major/lantern/ray"
	"row-major/lantern/vmath/vec3"
)

// Contact is the record of a ray striking a primitive.
type Contact struct {
	// Ray parameter of the hit.
	T float64

	// The ray that made the contact.
	R ray.Ray

	// Hit point.
	P vec3.T

	// Unit outward normal at P.  Not flipped toward the ray.
	N vec3.T

	// Index of the primitive that was hit, within its scene.
	Element int

	// Handle of the primitive's material in the scene's material arena.
	Material int
}

func ContactNaN() Contact {
	return Contact{
		T:       math.NaN(),
		Element: -1,
	}
}

func (c Contact) Hit() bool {
	return !math.IsNaN(c.T)
}

// FacingNormal returns the normal flipped, if necessary, to face against the
// incoming ray.
func (c Contact) FacingNormal() vec3.T {
	if vec3.IProd(c.N, c.R.Slope) < 0 {
		return c.N
	}
	return vec3.MulVS(c.N, -1)
}

// Nearer returns whichever of a and b has the smaller T, preferring a on
// ties.  Misses lose to hits.
func Nearer(a, b Contact) Contact {
	if !b.Hit() {
		return a
	}
	if !a.Hit() {
		return b
	}
	if b.T < a.T {
		return b
	}
	return a
}
