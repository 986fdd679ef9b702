package camera

import (
	"fmt"
	"math"
	"math/rand"

	"row-major/lantern/ray"
	"row-major/lantern/vmath/vec3"
)

// Camera maps a jittered position in a pixel's 2x2 stratification grid to a
// primary ray.  It holds no mutable state, so one Camera serves every worker.
type Camera struct {
	Origin vec3.T

	// Unit view direction.
	Dir vec3.T

	// Image-plane basis.  CX spans the full image width and CY its height,
	// both scaled by the field of view.
	CX vec3.T
	CY vec3.T

	// Distance the ray origin is pushed along the (unnormalized) sample
	// direction before tracing begins.
	FocalDistance float64

	Cols, Rows int
}

// DefaultFOV is the field-of-view factor of the canonical room view.
const DefaultFOV = 0.5135

var up = vec3.T{0, 1, 0}

// New builds a camera at origin looking along dir.  fov scales the image
// plane; cols and rows are the image size in pixels.
func New(origin, dir vec3.T, fov, focalDistance float64, cols, rows int) (*Camera, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("image must be at least 1x1, got %dx%d", cols, rows)
	}
	if dir.IsZero() || !dir.IsFinite() {
		return nil, fmt.Errorf("view direction %v is degenerate", dir)
	}
	dir = vec3.Normalize(dir)

	right := vec3.CProd(dir, up)
	if right.Norm() < 1e-9 {
		return nil, fmt.Errorf("view direction %v is parallel to up", dir)
	}

	cx := vec3.MulVS(vec3.Normalize(right), float64(cols)*fov/float64(rows))
	cy := vec3.MulVS(vec3.Normalize(vec3.CProd(cx, dir)), fov)

	return &Camera{
		Origin:        origin,
		Dir:           dir,
		CX:            cx,
		CY:            cy,
		FocalDistance: focalDistance,
		Cols:          cols,
		Rows:          rows,
	}, nil
}

// Cornell is the view into the canonical enclosed room.
func Cornell(cols, rows int) (*Camera, error) {
	return New(vec3.T{50, 52, 295.6}, vec3.T{0, -0.042612, -1}, DefaultFOV, 140, cols, rows)
}

// Tent maps a uniform sample in [0, 1) to a tent-distributed offset in
// [-1, 1).
func Tent(u float64) float64 {
	r := 2 * u
	if r < 1 {
		return math.Sqrt(r) - 1
	}
	return 1 - math.Sqrt(2-r)
}

// At returns a primary ray through sub-cell (subX, subY) of pixel (x, y).
// Pixel rows count down from the top of the image.
func (c *Camera) At(subX, subY, x, y int, rng *rand.Rand) ray.Ray {
	dx := Tent(rng.Float64())
	dy := Tent(rng.Float64())
	return c.ray(subX, subY, x, y, dx, dy)
}

func (c *Camera) ray(subX, subY, x, y int, dx, dy float64) ray.Ray {
	y2 := c.Rows - y - 1

	u := ((float64(subX)+0.5+dx)/2+float64(x))/float64(c.Cols) - 0.5
	v := ((float64(subY)+0.5+dy)/2+float64(y2))/float64(c.Rows) - 0.5

	d := vec3.AddVV(vec3.AddVV(vec3.MulVS(c.CX, u), vec3.MulVS(c.CY, v)), c.Dir)
	return ray.Ray{
		Point: vec3.AddVV(c.Origin, vec3.MulVS(d, c.FocalDistance)),
		Slope: vec3.Normalize(d),
	}
}
