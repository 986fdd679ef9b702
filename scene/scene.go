package scene

import (
	"fmt"
	"math/rand"

	"row-major/lantern/bvh"
	"row-major/lantern/contact"
	"row-major/lantern/geometry"
	"row-major/lantern/material"
	"row-major/lantern/ray"
	"row-major/lantern/vmath/vec3"
)

// Scene owns the primitives and materials of one render.  It is assembled
// with the Add* methods, frozen with Crush, and read-only afterwards.
type Scene struct {
	Name string

	Materials []material.Material
	Spheres   []geometry.Sphere

	QueryAccelerator *bvh.Tree

	emitters []int
}

// AddMaterial is a convenience function to register a material and get its
// index.
func (s *Scene) AddMaterial(m material.Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

// AddSphere registers a sphere and returns its element index.
func (s *Scene) AddSphere(sp geometry.Sphere) int {
	s.Spheres = append(s.Spheres, sp)
	return len(s.Spheres) - 1
}

// Add registers a material and a sphere using it in one step.
func (s *Scene) Add(radius float64, center vec3.T, m material.Material) error {
	sp, err := geometry.New(radius, center, s.AddMaterial(m))
	if err != nil {
		return fmt.Errorf("while adding sphere %d: %w", len(s.Spheres), err)
	}
	s.AddSphere(sp)
	return nil
}

// Crush validates the scene and builds the query accelerator.  rng drives
// the accelerator's split-axis choice.
func (s *Scene) Crush(rng *rand.Rand) error {
	for i, m := range s.Materials {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("while validating material %d: %w", i, err)
		}
	}

	s.emitters = s.emitters[:0]
	elements := make([]bvh.Element, 0, len(s.Spheres))
	for i := range s.Spheres {
		sp := &s.Spheres[i]
		if sp.Material < 0 || sp.Material >= len(s.Materials) {
			return fmt.Errorf("sphere %d refers to material %d, but the scene has %d materials", i, sp.Material, len(s.Materials))
		}
		if !(sp.Radius > 0) {
			return fmt.Errorf("sphere %d has non-positive radius %v", i, sp.Radius)
		}
		if s.Materials[sp.Material].IsEmitter() {
			s.emitters = append(s.emitters, i)
		}
		elements = append(elements, bvh.Element{Ref: i, Bounds: sp.GetAABox()})
	}

	tree, err := bvh.New(elements, rng)
	if err != nil {
		return fmt.Errorf("while building query accelerator for scene %q: %w", s.Name, err)
	}
	s.QueryAccelerator = tree
	return nil
}

func (s *Scene) leaf(ref int, query ray.RaySegment) contact.Contact {
	c := s.Spheres[ref].RayInto(query)
	c.Element = ref
	return c
}

// Intersect returns the nearest contact along r within [EPS, INF), or a
// contact for which Hit() is false.
func (s *Scene) Intersect(r ray.Ray) contact.Contact {
	return s.QueryAccelerator.Intersect(ray.Query(r), s.leaf)
}

// BruteForceIntersect is Intersect without the accelerator.  It exists to
// check the accelerator against.
func (s *Scene) BruteForceIntersect(r ray.Ray) contact.Contact {
	q := ray.Query(r)
	best := contact.ContactNaN()
	for i := len(s.Spheres) - 1; i >= 0; i-- {
		c := s.leaf(i, q)
		if c.Hit() && (!best.Hit() || c.T < best.T) {
			best = c
		}
	}
	return best
}

func (s *Scene) Material(handle int) material.Material {
	return s.Materials[handle]
}

// Emitters lists the element indices of spheres with non-zero emission.
func (s *Scene) Emitters() []int {
	return s.emitters
}
