// Package rendermetrics defines the OpenCensus measures a render records.
package rendermetrics

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	KeyModel   = tag.MustNewKey("model")
	KeyOutcome = tag.MustNewKey("outcome")
)

const (
	OutcomeRendered = "rendered"
	OutcomeResumed  = "resumed"
)

var (
	BandCount   = stats.Int64("lantern/bands", "Row bands completed", stats.UnitDimensionless)
	SampleCount = stats.Int64("lantern/samples", "Primary rays traced", stats.UnitDimensionless)
	BandLatency = stats.Float64("lantern/band_latency", "Wall time to render one band", stats.UnitMilliseconds)
)

var (
	BandCountView = &view.View{
		Name:        "lantern/bands",
		Description: "Counter of row bands that have been completed",
		TagKeys:     []tag.Key{KeyModel, KeyOutcome},
		Measure:     BandCount,
		Aggregation: view.Count(),
	}

	SampleCountView = &view.View{
		Name:        "lantern/samples",
		Description: "Sum of primary rays traced",
		TagKeys:     []tag.Key{KeyModel},
		Measure:     SampleCount,
		Aggregation: view.Sum(),
	}

	BandLatencyView = &view.View{
		Name:        "lantern/band_latency",
		Description: "Distribution of band render times",
		TagKeys:     []tag.Key{KeyModel},
		Measure:     BandLatency,
		Aggregation: view.Distribution(1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000),
	}
)

func Views() []*view.View {
	return []*view.View{BandCountView, SampleCountView, BandLatencyView}
}

func RegisterViews() error {
	return view.Register(Views()...)
}

// RecordBand records one finished band.  samples is the number of primary
// rays traced for it, zero for a band restored from a checkpoint.
func RecordBand(ctx context.Context, model, outcome string, samples int64, latency time.Duration) {
	stats.RecordWithOptions(
		ctx,
		stats.WithTags(
			tag.Insert(KeyModel, model),
			tag.Insert(KeyOutcome, outcome),
		),
		stats.WithMeasurements(
			BandCount.M(1),
			SampleCount.M(samples),
			BandLatency.M(float64(latency)/float64(time.Millisecond)),
		),
	)
}
