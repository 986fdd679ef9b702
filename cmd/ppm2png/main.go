// ppm2png converts a P3 or P6 PPM image into a PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"row-major/lantern/imageio"
	"row-major/lantern/outsink"
)

var overwrite = flag.Bool("overwrite", false, "Replace an existing output.")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <input.ppm> <output.png>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	if flag.NArg() != 2 {
		flag.Usage()
		glog.Flush()
		os.Exit(2)
	}

	if err := do(context.Background(), flag.Arg(0), flag.Arg(1)); err != nil {
		glog.Errorf("Error: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func do(ctx context.Context, inPath, outPath string) error {
	glog.Infof("input: %q", inPath)
	glog.Infof("output: %q", outPath)

	in, err := outsink.Open(ctx, inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	img, err := imageio.ReadPPM(in)
	if err != nil {
		return fmt.Errorf("while decoding %q: %w", inPath, err)
	}

	out, err := outsink.Create(ctx, outPath, *overwrite)
	if err != nil {
		return err
	}

	if err := imageio.WriteRGBAPNG(out, img); err != nil {
		out.Close()
		return fmt.Errorf("while writing %q: %w", outPath, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing %q: %w", outPath, err)
	}

	glog.Infof("Converted %dx%d image", img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}
