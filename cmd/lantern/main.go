// lantern renders one of the built-in sphere scenes with a Monte Carlo path
// tracer and writes it as PNG or PPM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"cloud.google.com/go/profiler"
	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudmetrics "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"row-major/lantern/catalog"
	"row-major/lantern/checkpoint"
	"row-major/lantern/config"
	"row-major/lantern/hdrimage"
	"row-major/lantern/healthz"
	"row-major/lantern/imageio"
	"row-major/lantern/integrator"
	"row-major/lantern/outsink"
	"row-major/lantern/render"
	"row-major/lantern/rendermetrics"
)

var cfg = config.Default()

var (
	listModels = flag.Bool("list-models", false, "Print the built-in models and exit.")

	cpuprofile = flag.String("cpu-profile", "", "write cpu profile to `file`")
	memprofile = flag.String("mem-profile", "", "write memory profile to `file`")

	debugListen       = flag.String("debug-listen", "", "Server address:port for debug endpoint.  Empty disables it.")
	monitoring        = flag.Bool("monitoring", false, "Enable monitoring?")
	monitoringProject = flag.String("monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	traceSampleRatio  = flag.Float64("trace-sample-ratio", 0.01, "What ratio of traces should be exported?")
)

func init() {
	flag.IntVar(&cfg.Samples, "samples", cfg.Samples, "Primary rays per pixel sub-cell; each pixel gets four times this many.")
	flag.IntVar(&cfg.Samples, "s", cfg.Samples, "Shorthand for --samples.")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "Image width in pixels.  Height is width*480/640.")
	flag.IntVar(&cfg.Width, "w", cfg.Width, "Shorthand for --width.")
	flag.IntVar(&cfg.Model, "model", cfg.Model, "Built-in scene number; see --list-models.")
	flag.IntVar(&cfg.Model, "m", cfg.Model, "Shorthand for --model.")
	flag.StringVar(&cfg.Output, "output", cfg.Output, "Output image, local or gs://bucket/object.  The extension picks PNG or PPM.")
	flag.StringVar(&cfg.Output, "o", cfg.Output, "Shorthand for --output.")

	flag.StringVar(&cfg.RawOutput, "raw-output", "", "Optional output for the unclamped linear image.")
	flag.BoolVar(&cfg.Overwrite, "overwrite", false, "Replace existing outputs.")

	flag.IntVar(&cfg.BandRows, "band-rows", cfg.BandRows, "Rows per unit of parallel work.")
	flag.IntVar(&cfg.Parallelism, "parallelism", cfg.Parallelism, "Maximum bands rendered at once.")
	flag.Int64Var(&cfg.Seed, "seed", 0, "Random seed.  Zero picks one from the clock.")

	flag.BoolVar(&cfg.DirectLighting, "direct-lighting", false, "Sample emitters explicitly at diffuse surfaces.")
	flag.IntVar(&cfg.RouletteDepth, "roulette-depth", cfg.RouletteDepth, "Bounces before Russian roulette may end a path.")
	flag.IntVar(&cfg.MaxDepth, "max-depth", 0, "Hard limit on bounces.  Zero means no limit.")

	flag.StringVar(&cfg.CheckpointDir, "checkpoint-dir", "", "Directory for band checkpoints.  A rerun with the same settings resumes from it.")
}

func main() {
	flag.Parse()

	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	if *listModels {
		for _, name := range catalog.Names() {
			fmt.Println(name)
		}
		return
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Exitf("Could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			glog.Exitf("Could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	if err := do(); err != nil {
		glog.Errorf("Error: %+v", err)
		glog.Flush()
		pprof.StopCPUProfile()
		os.Exit(1)
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			glog.Exitf("Could not create memory profile: %v", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			glog.Exitf("Could not write memory profile: %v", err)
		}
	}
}

func do() error {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
		if cfg.CheckpointDir != "" {
			glog.Warningf("Checkpoints are keyed by seed; pass --seed=%d to resume this render", cfg.Seed)
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	modelName, _ := catalog.Name(cfg.Model)
	glog.Infof("model: %d (%s)", cfg.Model, modelName)
	glog.Infof("size: %dx%d", cfg.Width, cfg.Height())
	glog.Infof("samples: %d per pixel", 4*cfg.Samples)
	glog.Infof("seed: %d", cfg.Seed)
	glog.Infof("output: %q", cfg.Output)

	format, err := imageio.FormatFromPath(cfg.Output)
	if err != nil {
		return err
	}

	// Refuse up front rather than after the render.
	if !cfg.Overwrite {
		for _, p := range []string{cfg.Output, cfg.RawOutput} {
			if p == "" {
				continue
			}
			if _, _, isGCS, _ := outsink.ParseGCSPath(p); isGCS {
				continue
			}
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("output %q exists; pass --overwrite to replace it", p)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-signalCh:
			glog.Warningf("Got %v, stopping after in-flight bands", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := rendermetrics.RegisterViews(); err != nil {
		return fmt.Errorf("while registering metric views: %w", err)
	}

	if *monitoring {
		shutdown, err := startMonitoring()
		if err != nil {
			return err
		}
		defer shutdown()
	}

	progress := healthz.NewProgress(cfg.Height())
	if *debugListen != "" {
		debugServer := &http.Server{
			Addr:    *debugListen,
			Handler: healthz.NewServeMux(progress),

			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		go func() {
			if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				glog.Errorf("Debug server died: %v", err)
			}
		}()
		defer debugServer.Close()
	}

	tracer := otel.Tracer("row-major/lantern")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "lantern.Render")
	defer span.End()

	s, cam, err := catalog.Build(ctx, cfg.Model, cfg.Width, cfg.Height(), rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return fmt.Errorf("while building scene: %w", err)
	}
	glog.Infof("Built %s: %d spheres, %d emitters, BVH depth %d", s.Name, len(s.Spheres), len(s.Emitters()), s.QueryAccelerator.Depth())

	in := integrator.New(s)
	in.RouletteDepth = cfg.RouletteDepth
	in.MaxDepth = cfg.MaxDepth
	in.DirectLighting = cfg.DirectLighting

	img := hdrimage.New(cfg.Height(), cfg.Width)

	opts := &render.RenderOptions{
		Samples:     cfg.Samples,
		BandRows:    cfg.BandRows,
		Parallelism: cfg.Parallelism,
		Seed:        cfg.Seed,
		ModelName:   s.Name,
		Progress:    progressReporter(progress),
	}

	if cfg.CheckpointDir != "" {
		store, err := checkpoint.Open(cfg.CheckpointDir, checkpoint.Fingerprint{
			Model:          s.Name,
			Cols:           cfg.Width,
			Rows:           cfg.Height(),
			Samples:        cfg.Samples,
			BandRows:       cfg.BandRows,
			Seed:           cfg.Seed,
			RouletteDepth:  cfg.RouletteDepth,
			MaxDepth:       cfg.MaxDepth,
			DirectLighting: cfg.DirectLighting,
		})
		if err != nil {
			return fmt.Errorf("while opening checkpoint store: %w", err)
		}
		defer store.Close()

		saved, err := store.BandCount()
		if err != nil {
			return err
		}
		glog.Infof("Checkpoint %q holds %d bands", cfg.CheckpointDir, saved)

		opts.Skip = func(b render.Band) (bool, error) {
			found, err := store.LoadBand(img, b.Index, b.RowSrc, b.RowLim)
			if found {
				progress.AddResumed(b.RowLim - b.RowSrc)
			}
			return found, err
		}
		opts.OnBand = func(b render.Band) error {
			return store.SaveBand(img, b.Index, b.RowSrc, b.RowLim)
		}
	}

	start := time.Now()
	if err := render.RenderScene(ctx, in, cam, img, opts); err != nil {
		return fmt.Errorf("while rendering: %w", err)
	}
	glog.Infof("Rendered in %v, mean luminance %.4f", time.Since(start), img.Luminance())

	if err := writeImage(ctx, cfg.Output, func(w io.Writer) error {
		return imageio.Encode(w, img, format)
	}); err != nil {
		return err
	}
	glog.Infof("Wrote %s to %q", format, cfg.Output)

	if cfg.RawOutput != "" {
		meta := hdrimage.Metadata{ModelName: s.Name, Samples: 4 * cfg.Samples}
		if err := writeImage(ctx, cfg.RawOutput, func(w io.Writer) error {
			return hdrimage.Write(img, meta, w)
		}); err != nil {
			return err
		}
		glog.Infof("Wrote raw image to %q", cfg.RawOutput)
	}

	return nil
}

func writeImage(ctx context.Context, path string, encode func(w io.Writer) error) error {
	out, err := outsink.Create(ctx, path, cfg.Overwrite)
	if err != nil {
		return fmt.Errorf("while opening %q: %w", path, err)
	}

	if err := encode(out); err != nil {
		out.Close()
		return fmt.Errorf("while writing %q: %w", path, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing %q: %w", path, err)
	}
	return nil
}

// progressReporter redraws a single status line on a terminal, and otherwise
// logs at most every ten seconds.
func progressReporter(progress *healthz.Progress) render.ProgressFunction {
	tty := term.IsTerminal(int(os.Stderr.Fd()))
	limiter := rate.NewLimiter(rate.Every(10*time.Second), 1)

	return func(done, total int) {
		progress.Set(done)
		pct := 100 * done / total
		if tty {
			fmt.Fprintf(os.Stderr, "\r%d/%d %d%%", done, total, pct)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
			return
		}
		if done == total || limiter.Allow() {
			glog.Infof("Rendered %d/%d rows (%d%%)", done, total, pct)
		}
	}
}

func startMonitoring() (func(), error) {
	if err := profiler.Start(profiler.Config{
		Service:        "lantern",
		ServiceVersion: "0.0.1",
		ProjectID:      *monitoringProject,
	}); err != nil {
		return nil, fmt.Errorf("while initializing profiler: %w", err)
	}

	exporter, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:         *monitoringProject,
		MetricPrefix:      "lantern",
		ReportingInterval: 60 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("while initializing metrics exporter: %w", err)
	}
	if err := exporter.StartMetricsExporter(); err != nil {
		return nil, fmt.Errorf("while starting metrics exporter: %w", err)
	}

	metricsOpts := []cloudmetrics.Option{}
	traceOpts := []cloudtrace.Option{}
	if *monitoringProject != "" {
		metricsOpts = append(metricsOpts, cloudmetrics.WithProjectID(*monitoringProject))
		traceOpts = append(traceOpts, cloudtrace.WithProjectID(*monitoringProject))
	}

	_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(*traceSampleRatio)))
	if err != nil {
		exporter.StopMetricsExporter()
		return nil, fmt.Errorf("while installing Cloud Trace OpenTelemetry trace pipeline: %w", err)
	}

	pusher, err := cloudmetrics.InstallNewPipeline(metricsOpts)
	if err != nil {
		traceShutdown()
		exporter.StopMetricsExporter()
		return nil, fmt.Errorf("while installing Cloud Metrics OpenTelemetry meter pipeline: %w", err)
	}

	return func() {
		pusher.Stop(context.Background())
		traceShutdown()
		exporter.Flush()
		exporter.StopMetricsExporter()
	}, nil
}
