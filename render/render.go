// Package render spreads the pixels of an image over a pool of workers, one
// band of rows at a time.
package render

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"row-major/lantern/camera"
	"row-major/lantern/hdrimage"
	"row-major/lantern/integrator"
	"row-major/lantern/rendermetrics"
	"row-major/lantern/vmath/vec3"
)

// Band is a run of whole image rows rendered as one unit of work.
type Band struct {
	Index  int
	RowSrc int
	RowLim int
}

// Bands cuts rows into bands of at most bandRows rows.
func Bands(rows, bandRows int) []Band {
	bands := []Band{}
	for src := 0; src < rows; src += bandRows {
		lim := src + bandRows
		if lim > rows {
			lim = rows
		}
		bands = append(bands, Band{Index: len(bands), RowSrc: src, RowLim: lim})
	}
	return bands
}

type ProgressFunction func(doneRows, totalRows int)

type RenderOptions struct {
	// Primary rays per stratification sub-cell.  Each pixel gets 4*Samples.
	Samples int

	// Rows per band.
	BandRows int

	// Maximum bands in flight.  Zero means one per CPU.
	Parallelism int

	// Base seed.  Every band derives its own stream from it, so a fixed
	// seed gives the same image regardless of Parallelism.
	Seed int64

	// Label for metrics.
	ModelName string

	// If set, consulted before a band is rendered.  Returning true marks the
	// band done without rendering it, for example because its pixels were
	// restored from a checkpoint.
	Skip func(b Band) (bool, error)

	// If set, called after each band is rendered.
	OnBand func(b Band) error

	Progress ProgressFunction
}

// BandSeed is the seed of band index's random stream.
func BandSeed(seed int64, index int) int64 {
	return seed*1000003 + int64(index)
}

// ChunkWorker renders the rows of a single band.
type ChunkWorker struct {
	integrator *integrator.Integrator
	camera     *camera.Camera
	img        *hdrimage.Image
	rng        *rand.Rand

	samples int
	band    Band
}

// Render fills the band's rows.  Each pixel is the mean of its four
// sub-cells, each of which is the mean of w.samples radiance estimates.
func (w *ChunkWorker) Render(ctx context.Context) error {
	invSamples := 1.0 / float64(w.samples)
	for y := w.band.RowSrc; y < w.band.RowLim; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		row := w.img.Row(y)
		for x := 0; x < w.img.Cols; x++ {
			var pixel vec3.T
			for sy := 0; sy < 2; sy++ {
				for sx := 0; sx < 2; sx++ {
					var sub vec3.T
					for s := 0; s < w.samples; s++ {
						r := w.camera.At(sx, sy, x, y, w.rng)
						sub = vec3.AddVV(sub, vec3.MulVS(w.integrator.Radiance(r, 0, w.rng), invSamples))
					}
					pixel = vec3.AddVV(pixel, vec3.MulVS(sub, 0.25))
				}
			}
			row[x] = pixel
		}
	}
	return nil
}

// RenderScene renders every band of img that options.Skip does not claim.
// Bands write disjoint rows of img, so no locking guards the pixels.
func RenderScene(ctx context.Context, in *integrator.Integrator, cam *camera.Camera, img *hdrimage.Image, options *RenderOptions) error {
	tracer := otel.Tracer("row-major/lantern/render")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "render.RenderScene")
	defer span.End()

	if options.Samples < 1 {
		return fmt.Errorf("samples must be at least 1, got %d", options.Samples)
	}
	if options.BandRows < 1 {
		return fmt.Errorf("band rows must be at least 1, got %d", options.BandRows)
	}
	if cam.Rows != img.Rows || cam.Cols != img.Cols {
		return fmt.Errorf("camera is %dx%d but image is %dx%d", cam.Cols, cam.Rows, img.Cols, img.Rows)
	}

	parallelism := options.Parallelism
	if parallelism < 1 {
		parallelism = runtime.NumCPU()
	}

	bands := Bands(img.Rows, options.BandRows)
	span.SetAttributes(
		attribute.Int("rows", img.Rows),
		attribute.Int("cols", img.Cols),
		attribute.Int("samples", options.Samples),
		attribute.Int("bands", len(bands)),
		attribute.Int("parallelism", parallelism),
	)

	// progressMutex guards doneRows.
	progressMutex := sync.Mutex{}
	doneRows := 0
	finishBand := func(b Band) {
		progressMutex.Lock()
		defer progressMutex.Unlock()
		doneRows += b.RowLim - b.RowSrc
		if options.Progress != nil {
			options.Progress(doneRows, img.Rows)
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(parallelism))

	for _, b := range bands {
		b := b

		if err := sem.Acquire(ctx, 1); err != nil {
			if werr := eg.Wait(); werr != nil {
				return fmt.Errorf("while waiting for completion of errgroup: %w", werr)
			}
			return fmt.Errorf("while acquiring concurrency limiter semaphore: %w", err)
		}

		eg.Go(func() error {
			defer sem.Release(1)
			if err := renderBand(ctx, in, cam, img, options, b); err != nil {
				return err
			}
			finishBand(b)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("while waiting for completion of errgroup: %w", err)
	}

	return nil
}

func renderBand(ctx context.Context, in *integrator.Integrator, cam *camera.Camera, img *hdrimage.Image, options *RenderOptions, b Band) error {
	tracer := otel.Tracer("row-major/lantern/render")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "render.renderBand")
	defer span.End()
	span.SetAttributes(attribute.Int("band", b.Index))

	start := time.Now()

	if options.Skip != nil {
		skip, err := options.Skip(b)
		if err != nil {
			return fmt.Errorf("while checking whether to skip band %d: %w", b.Index, err)
		}
		if skip {
			span.SetAttributes(attribute.Bool("skipped", true))
			rendermetrics.RecordBand(ctx, options.ModelName, rendermetrics.OutcomeResumed, 0, time.Since(start))
			return nil
		}
	}

	worker := &ChunkWorker{
		integrator: in,
		camera:     cam,
		img:        img,
		rng:        rand.New(rand.NewSource(BandSeed(options.Seed, b.Index))),
		samples:    options.Samples,
		band:       b,
	}
	if err := worker.Render(ctx); err != nil {
		return fmt.Errorf("while rendering band %d: %w", b.Index, err)
	}

	if options.OnBand != nil {
		if err := options.OnBand(b); err != nil {
			return fmt.Errorf("while finishing band %d: %w", b.Index, err)
		}
	}

	samples := int64(4 * options.Samples * img.Cols * (b.RowLim - b.RowSrc))
	rendermetrics.RecordBand(ctx, options.ModelName, rendermetrics.OutcomeRendered, samples, time.Since(start))
	return nil
}
