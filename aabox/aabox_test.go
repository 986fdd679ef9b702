package aabox

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"row-major/lantern/ray"
	"row-major/lantern/vmath/vec3"
)

func TestMinContainingAABox(t *testing.T) {
	a := FromCorners(vec3.T{0, 0, 0}, vec3.T{1, 1, 1})
	b := FromCorners(vec3.T{-1, 0.5, 2}, vec3.T{0.5, 3, 4})

	got := MinContainingAABox(a, b)
	want := FromCorners(vec3.T{-1, 0, 0}, vec3.T{1, 3, 4})
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Wrong union; diff (-got +want)\n%s", diff)
	}

	if got := MinContainingAABox(AccumZeroAABox(), a); !cmp.Equal(got, a) {
		t.Errorf("Accumulating into the zero box changed the box: %v", got)
	}
}

func TestRayTestAABox(t *testing.T) {
	box := FromCorners(vec3.T{-1, -1, -1}, vec3.T{1, 1, 1})

	testCases := []struct {
		r       ray.Ray
		wantHit bool
		want    ray.Span
	}{
		{
			r:       ray.Ray{Point: vec3.T{-5, 0, 0}, Slope: vec3.T{1, 0, 0}},
			wantHit: true,
			want:    ray.Span{Lo: 4, Hi: 6},
		},
		{
			r:       ray.Ray{Point: vec3.T{5, 0, 0}, Slope: vec3.T{-1, 0, 0}},
			wantHit: true,
			want:    ray.Span{Lo: 4, Hi: 6},
		},
		{
			// Pointing away.
			r:       ray.Ray{Point: vec3.T{5, 0, 0}, Slope: vec3.T{1, 0, 0}},
			wantHit: false,
		},
		{
			// Passes above.
			r:       ray.Ray{Point: vec3.T{-5, 2, 0}, Slope: vec3.T{1, 0, 0}},
			wantHit: false,
		},
		{
			// Starts inside; clipped at EPS.
			r:       ray.Ray{Point: vec3.T{0, 0, 0}, Slope: vec3.T{0, 0, -1}},
			wantHit: true,
			want:    ray.Span{Lo: ray.EPS, Hi: 1},
		},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			got := RayTestAABox(ray.Query(tc.r), box)
			if !tc.wantHit {
				if !got.IsNaN() {
					t.Fatalf("Expected miss, got %v", got)
				}
				return
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("Wrong span; diff (-got +want)\n%s", diff)
			}
		})
	}
}

// A ray that reaches a point inside the box must never be rejected by the
// slab test.
func TestRayTestAABoxAcceptsRaysThroughInterior(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	box := FromCorners(vec3.T{-2, -1, -3}, vec3.T{2, 1, 3})

	for i := 0; i < 10000; i++ {
		target := vec3.T{
			-2 + 4*rng.Float64(),
			-1 + 2*rng.Float64(),
			-3 + 6*rng.Float64(),
		}
		origin := vec3.T{
			50 * (rng.Float64() - 0.5),
			50 * (rng.Float64() - 0.5),
			50 * (rng.Float64() - 0.5),
		}
		dir := vec3.SubVV(target, origin)
		dist := dir.Norm()
		if dist < 1e-3 {
			continue
		}
		r := ray.Ray{Point: origin, Slope: vec3.DivVS(dir, dist)}

		got := RayTestAABox(ray.Query(r), box)
		if got.IsNaN() {
			t.Fatalf("Ray %v toward interior point %v rejected", r, target)
		}
		if dist < got.Lo-1e-9 || dist > got.Hi+1e-9 {
			t.Fatalf("Interior point at t=%v outside reported span %v", dist, got)
		}
	}
}

func TestCentroid2(t *testing.T) {
	b := FromCorners(vec3.T{1, 2, 3}, vec3.T{3, 6, 9})
	for axis, want := range []float64{4, 8, 12} {
		if got := b.Centroid2(axis); math.Abs(got-want) > 1e-12 {
			t.Errorf("Centroid2(%d) = %v, want %v", axis, got, want)
		}
	}
}
