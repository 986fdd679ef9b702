package render

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"row-major/lantern/camera"
	"row-major/lantern/hdrimage"
	"row-major/lantern/integrator"
	"row-major/lantern/material"
	"row-major/lantern/scene"
	"row-major/lantern/vmath/vec3"
)

func TestBands(t *testing.T) {
	cases := []struct {
		rows, bandRows int
		want           []Band
	}{
		{
			rows:     5,
			bandRows: 2,
			want: []Band{
				{Index: 0, RowSrc: 0, RowLim: 2},
				{Index: 1, RowSrc: 2, RowLim: 4},
				{Index: 2, RowSrc: 4, RowLim: 5},
			},
		},
		{
			rows:     3,
			bandRows: 8,
			want:     []Band{{Index: 0, RowSrc: 0, RowLim: 3}},
		},
		{
			rows:     0,
			bandRows: 8,
			want:     []Band{},
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			got := Bands(tc.rows, tc.bandRows)
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("Bad bands; diff (-got +want)\n%s", diff)
			}
		})
	}
}

// testSetup is a diffuse ball under a glowing enclosing sphere.
func testSetup(t *testing.T, cols, rows int) (*integrator.Integrator, *camera.Camera) {
	t.Helper()

	s := &scene.Scene{Name: "test"}
	if err := s.Add(100, vec3.T{0, 0, 0}, material.NewDiffuse(vec3.T{1, 1, 1}, vec3.T{0.5, 0.5, 0.5})); err != nil {
		t.Fatalf("Unexpected error adding sky: %v", err)
	}
	if err := s.Add(2, vec3.T{0, 0, 0}, material.NewDiffuse(vec3.T{}, vec3.T{0.7, 0.2, 0.2})); err != nil {
		t.Fatalf("Unexpected error adding ball: %v", err)
	}
	if err := s.Crush(rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Unexpected error crushing scene: %v", err)
	}

	cam, err := camera.New(vec3.T{0, 0, 10}, vec3.T{0, 0, -1}, camera.DefaultFOV, 0, cols, rows)
	if err != nil {
		t.Fatalf("Unexpected error building camera: %v", err)
	}

	return integrator.New(s), cam
}

func TestRenderSceneCoversEveryRow(t *testing.T) {
	in, cam := testSetup(t, 8, 7)
	img := hdrimage.New(7, 8)

	progressMutex := sync.Mutex{}
	lastDone := 0
	opts := &RenderOptions{
		Samples:     1,
		BandRows:    3,
		Parallelism: 2,
		Seed:        5,
		Progress: func(done, total int) {
			progressMutex.Lock()
			defer progressMutex.Unlock()
			if total != 7 {
				t.Errorf("Progress total = %d, want 7", total)
			}
			if done <= lastDone {
				t.Errorf("Progress went from %d to %d", lastDone, done)
			}
			lastDone = done
		},
	}
	if err := RenderScene(context.Background(), in, cam, img, opts); err != nil {
		t.Fatalf("Unexpected error from RenderScene: %v", err)
	}

	if lastDone != 7 {
		t.Errorf("Final progress = %d, want 7", lastDone)
	}

	// Every primary ray hits something that is lit, so no pixel stays black.
	for r := 0; r < img.Rows; r++ {
		for c := 0; c < img.Cols; c++ {
			if p := img.At(r, c); p.IsZero() {
				t.Errorf("Pixel (%d, %d) was never rendered", r, c)
			}
		}
	}
}

func TestRenderSceneIsDeterministic(t *testing.T) {
	in, cam := testSetup(t, 6, 9)

	var images []*hdrimage.Image
	for _, parallelism := range []int{1, 4} {
		img := hdrimage.New(9, 6)
		opts := &RenderOptions{
			Samples:     2,
			BandRows:    2,
			Parallelism: parallelism,
			Seed:        42,
		}
		if err := RenderScene(context.Background(), in, cam, img, opts); err != nil {
			t.Fatalf("Unexpected error from RenderScene: %v", err)
		}
		images = append(images, img)
	}

	if diff := cmp.Diff(images[0], images[1]); diff != "" {
		t.Errorf("Image depends on parallelism; diff (-serial +parallel)\n%s", diff)
	}
}

func TestRenderSceneSkipAndOnBand(t *testing.T) {
	in, cam := testSetup(t, 4, 6)
	img := hdrimage.New(6, 4)

	mu := sync.Mutex{}
	finished := map[int]bool{}
	opts := &RenderOptions{
		Samples:  1,
		BandRows: 2,
		Skip: func(b Band) (bool, error) {
			return b.Index == 1, nil
		},
		OnBand: func(b Band) error {
			mu.Lock()
			defer mu.Unlock()
			finished[b.Index] = true
			return nil
		},
	}
	if err := RenderScene(context.Background(), in, cam, img, opts); err != nil {
		t.Fatalf("Unexpected error from RenderScene: %v", err)
	}

	if diff := cmp.Diff(finished, map[int]bool{0: true, 2: true}); diff != "" {
		t.Errorf("Bad finished bands; diff (-got +want)\n%s", diff)
	}

	for _, p := range img.RowRange(2, 4) {
		if !p.IsZero() {
			t.Fatalf("Skipped band was rendered")
		}
	}
}

func TestRenderSceneHookErrors(t *testing.T) {
	in, cam := testSetup(t, 4, 4)
	errHook := errors.New("hook failed")

	cases := []*RenderOptions{
		{
			Samples:  1,
			BandRows: 1,
			Skip:     func(b Band) (bool, error) { return false, errHook },
		},
		{
			Samples:  1,
			BandRows: 1,
			OnBand:   func(b Band) error { return errHook },
		},
	}

	for i, opts := range cases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			err := RenderScene(context.Background(), in, cam, hdrimage.New(4, 4), opts)
			if !errors.Is(err, errHook) {
				t.Errorf("RenderScene error = %v, want %v", err, errHook)
			}
		})
	}
}

func TestRenderSceneCancelled(t *testing.T) {
	in, cam := testSetup(t, 4, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RenderScene(ctx, in, cam, hdrimage.New(4, 4), &RenderOptions{Samples: 1, BandRows: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RenderScene error = %v, want context.Canceled", err)
	}
}

func TestRenderSceneBadOptions(t *testing.T) {
	in, cam := testSetup(t, 4, 4)

	cases := []struct {
		img  *hdrimage.Image
		opts *RenderOptions
	}{
		{img: hdrimage.New(4, 4), opts: &RenderOptions{Samples: 0, BandRows: 1}},
		{img: hdrimage.New(4, 4), opts: &RenderOptions{Samples: 1, BandRows: 0}},
		{img: hdrimage.New(5, 4), opts: &RenderOptions{Samples: 1, BandRows: 1}},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			if err := RenderScene(context.Background(), in, cam, tc.img, tc.opts); err == nil {
				t.Errorf("RenderScene succeeded with bad input")
			}
		})
	}
}
