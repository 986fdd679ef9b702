// Package catalog holds the built-in scenes, selectable by model number.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"row-major/lantern/camera"
	"row-major/lantern/material"
	"row-major/lantern/scene"
	"row-major/lantern/vmath/vec3"
)

var ErrUnknownModel = errors.New("unknown model")

var black = vec3.T{}

func grey(x float64) vec3.T {
	return vec3.T{x, x, x}
}

// builder adds spheres to a scene, remembering the first error.
type builder struct {
	s   *scene.Scene
	err error
}

func (b *builder) add(radius float64, center vec3.T, m material.Material) {
	if b.err != nil {
		return
	}
	b.err = b.s.Add(radius, center, m)
}

func (b *builder) diffuse(radius float64, center, emission, albedo vec3.T) {
	b.add(radius, center, material.NewDiffuse(emission, albedo))
}

func (b *builder) mirror(radius float64, center, emission, albedo vec3.T) {
	b.add(radius, center, material.NewMirror(emission, albedo))
}

func (b *builder) glass(radius float64, center, emission, albedo vec3.T) {
	b.add(radius, center, material.NewDielectric(emission, albedo))
}

type entry struct {
	name string

	// populate adds the model's spheres.  It returns the camera to use, or nil
	// for the canonical room view.
	populate func(b *builder, cols, rows int, rng *rand.Rand) (*camera.Camera, error)
}

var models = []entry{
	{name: "Cornell", populate: cornell},
	{name: "Random", populate: random},
	{name: "Sky", populate: sky},
	{name: "NightSky", populate: nightSky},
	{name: "Island", populate: island},
	{name: "Vista", populate: vista},
	{name: "Overlap", populate: overlap},
	{name: "Wada", populate: wada},
	{name: "Wada2", populate: wada2},
	{name: "Forest", populate: forest},
}

func Len() int {
	return len(models)
}

// Name returns the display name of model.
func Name(model int) (string, error) {
	if model < 0 || model >= len(models) {
		return "", fmt.Errorf("model %d: %w", model, ErrUnknownModel)
	}
	return models[model].name, nil
}

// Names lists "<number> <name>" for every model.
func Names() []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = fmt.Sprintf("%d %s", i, m.name)
	}
	return out
}

// Build assembles model for a cols x rows image and crushes it.  rng lays out
// the random model and drives the accelerator build.
func Build(ctx context.Context, model, cols, rows int, rng *rand.Rand) (*scene.Scene, *camera.Camera, error) {
	tracer := otel.Tracer("row-major/lantern/catalog")
	var span trace.Span
	_, span = tracer.Start(ctx, "catalog.Build")
	defer span.End()
	span.SetAttributes(attribute.Int("model", model))

	name, err := Name(model)
	if err != nil {
		return nil, nil, err
	}

	b := &builder{s: &scene.Scene{Name: name}}
	cam, err := models[model].populate(b, cols, rows, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("while building camera for %s: %w", name, err)
	}
	if b.err != nil {
		return nil, nil, fmt.Errorf("while populating %s: %w", name, b.err)
	}

	if cam == nil {
		cam, err = camera.Cornell(cols, rows)
		if err != nil {
			return nil, nil, fmt.Errorf("while building camera for %s: %w", name, err)
		}
	}

	if err := b.s.Crush(rng); err != nil {
		return nil, nil, fmt.Errorf("while crushing %s: %w", name, err)
	}

	span.SetAttributes(
		attribute.Int("spheres", len(b.s.Spheres)),
		attribute.Int("bvh-depth", b.s.QueryAccelerator.Depth()),
	)

	return b.s, cam, nil
}

func cornell(b *builder, cols, rows int, rng *rand.Rand) (*camera.Camera, error) {
	b.diffuse(1e5, vec3.T{1e5 + 1, 40.8, 81.6}, black, vec3.T{0.75, 0.25, 0.25})
	b.diffuse(1e5, vec3.T{-1e5 + 99, 40.8, 81.6}, black, vec3.T{0.25, 0.25, 0.75})
	b.diffuse(1e5, vec3.T{50, 40.8, 1e5}, black, grey(0.75))
	b.diffuse(1e5, vec3.T{50, 40.8, -1e5 + 170}, black, black)
	b.diffuse(1e5, vec3.T{50, 1e5, 81.6}, black, grey(0.75))
	b.diffuse(1e5, vec3.T{50, -1e5 + 81.6 + 4, 81.6}, black, grey(0.75))
	b.mirror(16.5, vec3.T{27, 16.5, 47}, black, grey(0.999))
	b.glass(16.5, vec3.T{73, 16.5, 78}, black, grey(0.999))
	b.diffuse(600, vec3.T{50, 681.6 - 0.27 + 4, 81.6}, grey(12), black)
	return nil, nil
}

func random(b *builder, cols, rows int, rng *rand.Rand) (*camera.Camera, error) {
	cen := vec3.T{50, 40.8, -860}
	cen1 := vec3.T{75, 25, 85}
	cen2 := vec3.T{45, 25, 30}
	cen3 := vec3.T{15, 25, -25}

	b.diffuse(1e4, vec3.AddVV(cen, vec3.T{0, 0, -200}), vec3.MulVS(vec3.T{0.6, 0.5, 0.7}, 0.8), vec3.T{0.7, 0.9, 1})
	b.diffuse(1e5, vec3.T{50, -1e5, 0}, black, grey(0.4))
	b.mirror(25, cen1, black, grey(0.9))
	b.glass(25, cen2, black, grey(0.95))
	b.diffuse(25, cen3, black, vec3.MulVS(vec3.T{1, 0.6, 0.6}, 0.696))

	randomColor := func() vec3.T {
		return vec3.T{rng.Float64(), rng.Float64(), rng.Float64()}
	}

	for a := -11; a < 12; a++ {
		for c := -11; c < 12; c++ {
			choice := rng.Float64()
			center := vec3.T{(float64(a) + rng.Float64()) * 25, 5, (float64(c) + rng.Float64()) * 25}
			if vec3.SubVV(center, cen1).Norm() <= 25 {
				continue
			}
			switch {
			case choice < 0.8:
				b.diffuse(5, center, black, randomColor())
			case choice < 0.95:
				b.mirror(5, center, black, randomColor())
			default:
				b.glass(5, center, black, randomColor())
			}
		}
	}

	return camera.New(vec3.T{55, 58, 245.6}, vec3.T{0, -0.24, -1}, camera.DefaultFOV, 50, cols, rows)
}

func sky(b *builder, cols, rows int, rng *rand.Rand) (*camera.Camera, error) {
	cen := vec3.T{50, 40.8, -860}

	b.diffuse(1600, vec3.MulVS(vec3.T{1, 0, 2}, 3000), vec3.MulVS(vec3.T{1, 0.9, 0.8}, 1.2e1*1.56*2), black)
	b.diffuse(1560, vec3.MulVS(vec3.T{1, 0, 2}, 3500), vec3.MulVS(vec3.T{1, 0.5, 0.05}, 4.8e1*1.56*2), black)
	b.diffuse(1e4, vec3.AddVV(cen, vec3.T{0, 0, -200}),
		vec3.MulVS(vec3.T{0.00063842, 0.02001478, 0.28923243}, 6e-2*8),
		vec3.MulVS(vec3.T{0.7, 0.7, 1}, 0.25))

	b.diffuse(1e5, vec3.T{50, -1e5, 0}, black, grey(0.3))
	b.diffuse(110000, vec3.T{50, -110048.5, 0}, vec3.MulVS(vec3.T{0.9, 0.5, 0.05}, 4), black)
	b.diffuse(4e4, vec3.T{50, -4e4 - 30, -3000}, black, grey(0.2))

	b.mirror(26.5, vec3.T{22, 26.5, 42}, black, grey(0.596))
	b.glass(13, vec3.T{75, 13, 82}, black, grey(0.96*0.96))
	b.glass(22, vec3.T{87, 22, 24}, black, grey(0.6*0.696))
	return nil, nil
}

func nightSky(b *builder, cols, rows int, rng *rand.Rand) (*camera.Camera, error) {
	b.diffuse(2.5e3, vec3.MulVS(vec3.T{0.82, 0.92, -2}, 1e4), grey(0.8e2), black)
	b.diffuse(2.5e4, vec3.T{50, 0, 0}, vec3.MulVS(vec3.T{0.114, 0.133, 0.212}, 1e-2), vec3.MulVS(vec3.T{0.216, 0.384, 1}, 0.003))

	// Stars.
	b.diffuse(5, vec3.MulVS(vec3.T{-0.2, 0.16, -1}, 1e4), vec3.MulVS(vec3.T{1, 0.843, 0.698}, 1e2), black)
	b.diffuse(5, vec3.MulVS(vec3.T{0, 0.18, -1}, 1e4), vec3.MulVS(vec3.T{1, 0.851, 0.710}, 1e2), black)
	b.diffuse(5, vec3.MulVS(vec3.T{0.3, 0.15, -1}, 1e4), vec3.MulVS(vec3.T{0.671, 0.780, 1}, 1e2), black)

	b.glass(3.5e4, vec3.T{600, -3.5e4 + 1, 300}, black, vec3.MulVS(vec3.T{0.6, 0.8, 1}, 0.01))
	b.diffuse(5e4, vec3.T{-500, -5e4, 0}, black, grey(0.35))
	b.diffuse(16.5, vec3.T{27, 0, 47}, black, grey(0.33))
	b.diffuse(7, vec3.T{27 + 8*math.Sqrt2, 0, 47 + 8*math.Sqrt2}, black, grey(0.33))
	b.diffuse(500, vec3.T{-1e3, -300, -3e3}, black, grey(0.351))
	b.diffuse(830, vec3.T{0, -500, -3e3}, black, grey(0.354))
	b.diffuse(490, vec3.T{1e3, -300, -3e3}, black, grey(0.352))
	return nil, nil
}

func island(b *builder, cols, rows int, rng *rand.Rand) (*camera.Camera, error) {
	cen := vec3.T{50, -20, -860}
	at := func(x, y, z float64) vec3.T {
		return vec3.AddVV(cen, vec3.T{x, y, z})
	}

	b.diffuse(160, at(0, 600, -500), grey(2e2), black)
	b.diffuse(800, at(0, -880, -9120), grey(2e1), black)
	b.diffuse(1e4, at(0, 0, -200), vec3.T{0.0627, 0.188, 0.569}, grey(0.4))
	b.glass(800, at(0, -720, -200), black, vec3.MulVS(vec3.T{0.110, 0.898, 1}, 0.996))
	b.diffuse(790, at(0, -720, -200), black, vec3.MulVS(vec3.T{0.4, 0.3, 0.04}, 0.6))
	b.diffuse(325, at(0, -255, -50), black, vec3.MulVS(vec3.T{0.4, 0.3, 0.04}, 0.8))
	b.diffuse(275, at(0, -205, -33), black, vec3.MulVS(vec3.T{0.02, 0.3, 0.02}, 0.75))
	return nil, nil
}

func vista(b *builder, cols, rows int, rng *rand.Rand) (*camera.Camera, error) {
	cen := vec3.T{50, -20, -860}
	at := func(x, y, z float64) vec3.T {
		return vec3.AddVV(cen, vec3.T{x, y, z})
	}

	b.diffuse(8000, at(0, -8000, -900), vec3.MulVS(vec3.T{1, 0.4, 0.1}, 5e-1), black)
	b.diffuse(1e4, cen, vec3.MulVS(vec3.T{0.631, 0.753, 1}, 3e-1), grey(0.5))

	b.diffuse(150, at(-350, 0, -100), black, grey(0.3))
	b.diffuse(200, at(-210, 0, -100), black, grey(0.3))
	b.diffuse(145, at(-210, 85, -100), black, grey(0.8))
	b.diffuse(150, at(-50, 0, -100), black, grey(0.3))
	b.diffuse(150, at(100, 0, -100), black, grey(0.3))
	b.diffuse(125, at(250, 0, -100), black, grey(0.3))
	b.diffuse(150, at(375, 0, -100), black, grey(0.3))
	b.diffuse(2500, at(0, -2400, -500), black, grey(0.1))

	b.glass(8000, at(0, -8000, 200), black, vec3.T{0.2, 0.2, 1})
	b.diffuse(8000, at(0, -8000, 1100), black, vec3.T{0, 0.3, 0})
	b.diffuse(8, at(-75, -5, 850), black, vec3.T{0, 0.3, 0})
	b.glass(30, at(0, 23, 825), black, grey(0.996))

	clouds := []struct {
		radius  float64
		x, y, z float64
	}{
		{30, 200, 280, -400},
		{37, 237, 280, -400},
		{28, 267, 280, -400},
		{40, 150, 280, -1000},
		{37, 187, 280, -1000},
		{40, 600, 280, -1100},
		{37, 637, 280, -1100},
		{37, -800, 280, -1400},
		{37, 0, 280, -1600},
		{37, 537, 280, -1800},
	}
	for _, c := range clouds {
		b.diffuse(c.radius, at(c.x, c.y, c.z), black, grey(0.8))
	}
	return nil, nil
}

func overlap(b *builder, cols, rows int, rng *rand.Rand) (*camera.Camera, error) {
	b.glass(150, vec3.T{50 + 75, 28, 62}, black, vec3.MulVS(vec3.T{1, 0.9, 0.8}, 0.93))
	b.diffuse(28, vec3.T{50 + 5, -28, 62}, grey(1e1), black)
	b.mirror(300, vec3.T{50, 28, 62}, black, grey(0.93))
	return nil, nil
}

// wadaOffsets are the directions from the cluster center to the three
// spheres of the ring.
func wadaOffsets(d float64) []vec3.T {
	t := math.Pi / 6
	return []vec3.T{
		vec3.MulVS(vec3.T{math.Cos(t), math.Sin(t), 0}, d),
		vec3.MulVS(vec3.T{-math.Cos(t), math.Sin(t), 0}, d),
		vec3.MulVS(vec3.T{0, -1, 0}, d),
	}
}

func wada(b *builder, cols, rows int, rng *rand.Rand) (*camera.Camera, error) {
	r := 60.0
	d := r / (math.Sqrt(3) / 2)
	center := vec3.T{50, 40.8, 62}

	b.diffuse(1e5, vec3.T{50, 100, 0}, grey(3), black)
	b.diffuse(1e5, vec3.T{50, -1e5 - d - r, 0}, black, grey(0.1))

	ring := wadaOffsets(d)
	tints := []vec3.T{{1, 0.3, 0.3}, {0.3, 1, 0.3}, {0.3, 0.3, 1}}
	for i, off := range ring {
		b.mirror(r, vec3.AddVV(center, off), black, vec3.MulVS(tints[i], 0.999))
	}
	b.mirror(r, vec3.AddVV(center, vec3.T{0, 0, -d}), black, grey(0.53*0.999))
	b.glass(r, vec3.AddVV(center, vec3.T{0, 0, d}), black, grey(0.999))
	return nil, nil
}

func wada2(b *builder, cols, rows int, rng *rand.Rand) (*camera.Camera, error) {
	r := 60.0
	d := r / (math.Sqrt(3) / 2)
	center := vec3.T{50, 28, 62}
	glow := vec3.MulVS(vec3.T{0.275, 0.612, 0.949}, 6e-2)
	h := r * 2 * math.Sqrt(2.0/3.0)

	for _, off := range wadaOffsets(d) {
		b.mirror(r, vec3.AddVV(center, off), glow, grey(0.996))
	}
	b.mirror(r, vec3.AddVV(center, vec3.T{0, 0, -h}), black, grey(0.996))
	b.glass(2*2*h-h/3, vec3.AddVV(center, vec3.T{0, 0, -h / 3}), black, grey(0.5))
	return nil, nil
}

func forest(b *builder, cols, rows int, rng *rand.Rand) (*camera.Camera, error) {
	tc := vec3.T{0.0588, 0.361, 0.0941}
	scc := grey(0.7)

	b.diffuse(1e5, vec3.T{50, 1e5 + 130, 0}, grey(1.3), black)
	b.diffuse(1e2, vec3.T{50, -1e2 + 2, 47}, black, grey(0.7))

	s50, c50 := math.Sincos(50 * math.Pi / 180)
	s30, c30 := math.Sincos(30 * math.Pi / 180)
	back := vec3.T{50, -30, 300}
	front := vec3.T{50, -30, -50}
	b.mirror(1e4, vec3.AddVV(back, vec3.MulVS(vec3.T{-s50, 0, c50}, 1e4)), black, grey(0.99))
	b.mirror(1e4, vec3.AddVV(back, vec3.MulVS(vec3.T{s50, 0, c50}, 1e4)), black, grey(0.99))
	b.mirror(1e4, vec3.AddVV(front, vec3.MulVS(vec3.T{-s30, 0, -c30}, 1e4)), black, grey(0.99))
	b.mirror(1e4, vec3.AddVV(front, vec3.MulVS(vec3.T{s30, 0, -c30}, 1e4)), black, grey(0.99))

	// Trunk, three tiers of foliage, then the snow caps on them.
	b.diffuse(4, vec3.T{50, 6 * 0.6, 47}, black, vec3.T{0.13, 0.066, 0.033})
	y1 := 6*2 + 16*0.6
	y2 := 6*2 + 16*0.6*2 + 11*0.6
	y3 := 6*2 + 16*0.6*2 + 11*0.6*2 + 7*0.6
	b.diffuse(16, vec3.T{50, y1, 47}, black, tc)
	b.diffuse(11, vec3.T{50, y2, 47}, black, tc)
	b.diffuse(7, vec3.T{50, y3, 47}, black, tc)
	b.diffuse(15.5, vec3.T{50, 1.8 + y1, 47}, black, scc)
	b.diffuse(10.5, vec3.T{50, 1.8 + y2, 47}, black, scc)
	b.diffuse(6.5, vec3.T{50, 1.8 + y3, 47}, black, scc)
	return nil, nil
}
