// Package config holds the settings of one render and checks them before any
// work starts.
package config

import (
	"fmt"
	"runtime"

	"golang.org/x/xerrors"

	"row-major/lantern/catalog"
	"row-major/lantern/integrator"
)

// Error reports an invalid setting.
type Error struct {
	Field   string
	Message string

	frame xerrors.Frame
}

func newError(field, format string, args ...interface{}) *Error {
	return &Error{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		frame:   xerrors.Caller(1),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *Error) Format(f fmt.State, c rune) { // implements fmt.Formatter
	xerrors.FormatError(e, f, c)
}

func (e *Error) FormatError(p xerrors.Printer) error { // implements xerrors.Formatter
	p.Print(e.Error())
	if p.Detail() {
		e.frame.Format(p)
	}
	return nil
}

type Config struct {
	// Primary rays per sub-cell.
	Samples int
	Width   int
	Model   int

	Output    string
	RawOutput string
	Overwrite bool

	BandRows    int
	Parallelism int
	Seed        int64

	DirectLighting bool
	RouletteDepth  int
	MaxDepth       int

	CheckpointDir string
}

// Default matches the behavior of the renderer when run with no flags.
func Default() Config {
	return Config{
		Samples:       1,
		Width:         640,
		Model:         0,
		Output:        "image.png",
		BandRows:      1,
		Parallelism:   runtime.NumCPU(),
		RouletteDepth: integrator.DefaultRouletteDepth,
	}
}

// Height keeps the 640x480 aspect ratio.
func (c Config) Height() int {
	return c.Width * 480 / 640
}

func (c Config) Validate() error {
	if c.Samples < 1 {
		return newError("samples", "must be at least 1, got %d", c.Samples)
	}
	if c.Width < 1 {
		return newError("width", "must be at least 1, got %d", c.Width)
	}
	if c.Height() < 1 {
		return newError("width", "%d gives an image with no rows", c.Width)
	}
	if _, err := catalog.Name(c.Model); err != nil {
		return newError("model", "%d is not in 0..%d", c.Model, catalog.Len()-1)
	}
	if c.Output == "" {
		return newError("output", "must not be empty")
	}
	if c.BandRows < 1 {
		return newError("band-rows", "must be at least 1, got %d", c.BandRows)
	}
	if c.Parallelism < 1 {
		return newError("parallelism", "must be at least 1, got %d", c.Parallelism)
	}
	if c.RouletteDepth < 0 {
		return newError("roulette-depth", "must not be negative, got %d", c.RouletteDepth)
	}
	if c.MaxDepth < 0 {
		return newError("max-depth", "must not be negative, got %d", c.MaxDepth)
	}
	return nil
}
