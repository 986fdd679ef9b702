package ray

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"row-major/lantern/vmath/vec3"
)

func TestSpanContains(t *testing.T) {
	testCases := []struct {
		t    float64
		want bool
	}{
		{0, false},
		{EPS, false},
		{2 * EPS, true},
		{1, true},
		{INF, true},
		{2 * INF, false},
	}

	s := SceneSpan()
	for i, tc := range testCases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			if got := s.Contains(tc.t); got != tc.want {
				t.Errorf("Contains(%v) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

func TestMinContainingSpan(t *testing.T) {
	got := MinContainingSpan(Span{1, 3}, Span{-2, 2})
	if diff := cmp.Diff(got, Span{-2, 3}); diff != "" {
		t.Errorf("Wrong span (-got +want)\n%s", diff)
	}

	if !NaNSpan().IsNaN() {
		t.Errorf("NaNSpan().IsNaN() = false")
	}
}

func TestQuery(t *testing.T) {
	r := Ray{Point: vec3.T{1, 2, 3}, Slope: vec3.T{0, 0, -1}}
	q := Query(r)

	if diff := cmp.Diff(q.TheSegment, Span{EPS, INF}); diff != "" {
		t.Errorf("Wrong segment (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(q.TheRay.Eval(2), vec3.T{1, 2, 1}); diff != "" {
		t.Errorf("Wrong Eval (-got +want)\n%s", diff)
	}
}
