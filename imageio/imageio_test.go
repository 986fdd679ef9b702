package imageio

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"row-major/lantern/hdrimage"
	"row-major/lantern/vmath/vec3"
)

func TestToByte(t *testing.T) {
	cases := []struct {
		in   float64
		want uint8
	}{
		{in: -1, want: 0},
		{in: 0, want: 0},
		{in: math.NaN(), want: 0},
		{in: 1, want: 255},
		{in: 7, want: 255},
		{in: math.Inf(1), want: 255},
		{in: 0.5, want: 186},
		{in: 0.18, want: 117},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			if got := ToByte(tc.in); got != tc.want {
				t.Errorf("ToByte(%v) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "image.png", want: FormatPNG},
		{in: "gs://bucket/dir/image.PNG", want: FormatPNG},
		{in: "out.ppm", want: FormatPPM},
		{in: "out.jpg", wantErr: true},
		{in: "out", wantErr: true},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			got, err := FormatFromPath(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("FormatFromPath(%q) error = %v, want error %v", tc.in, err, tc.wantErr)
			}
			if !tc.wantErr && got != tc.want {
				t.Errorf("FormatFromPath(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func testImage() *hdrimage.Image {
	im := hdrimage.New(2, 3)
	im.Set(0, 0, vec3.T{1, 0, 0})
	im.Set(0, 1, vec3.T{0, 1, 0})
	im.Set(0, 2, vec3.T{0, 0, 1})
	im.Set(1, 0, vec3.T{0.5, 0.5, 0.5})
	im.Set(1, 1, vec3.T{2, -1, 0})
	im.Set(1, 2, vec3.T{1, 1, 1})
	return im
}

func TestWritePPM(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WritePPM(buf, testImage()); err != nil {
		t.Fatalf("Unexpected error from WritePPM: %v", err)
	}

	want := "P3\n3 2\n255\n255 0 0 0 255 0 0 0 255 186 186 186 255 0 0 255 255 255 "
	if got := buf.String(); got != want {
		t.Errorf("WritePPM wrote %q, want %q", got, want)
	}
}

func TestPPMRoundTrip(t *testing.T) {
	im := testImage()

	buf := &bytes.Buffer{}
	if err := WritePPM(buf, im); err != nil {
		t.Fatalf("Unexpected error from WritePPM: %v", err)
	}

	got, err := ReadPPM(buf)
	if err != nil {
		t.Fatalf("Unexpected error from ReadPPM: %v", err)
	}

	want := ToRGBA(im)
	if got.Bounds() != want.Bounds() {
		t.Fatalf("Bounds = %v, want %v", got.Bounds(), want.Bounds())
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if got.RGBAAt(x, y) != want.RGBAAt(x, y) {
				t.Errorf("Pixel (%d, %d) = %v, want %v", x, y, got.RGBAAt(x, y), want.RGBAAt(x, y))
			}
		}
	}
}

func TestReadPPMRaw(t *testing.T) {
	in := "P6\n# a comment\n2 1\n255\n" + string([]byte{10, 20, 30, 40, 50, 60})

	got, err := ReadPPM(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Unexpected error from ReadPPM: %v", err)
	}

	if c := got.RGBAAt(0, 0); c != (color.RGBA{10, 20, 30, 255}) {
		t.Errorf("Pixel (0, 0) = %v", c)
	}
	if c := got.RGBAAt(1, 0); c != (color.RGBA{40, 50, 60, 255}) {
		t.Errorf("Pixel (1, 0) = %v", c)
	}
}

func TestReadPPMRejects(t *testing.T) {
	cases := []string{
		"",
		"P5\n1 1\n255\n0",
		"P3\n1 1\n65535\n0 0 0",
		"P3\n1 1\n255\n0 0",
		"P3\n1 1\n255\n0 300 0",
	}

	for i, in := range cases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			if _, err := ReadPPM(strings.NewReader(in)); err == nil {
				t.Errorf("ReadPPM(%q) succeeded", in)
			}
		})
	}
}

func TestWritePNG(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Encode(buf, testImage(), FormatPNG); err != nil {
		t.Fatalf("Unexpected error from Encode: %v", err)
	}

	decoded, err := png.Decode(buf)
	if err != nil {
		t.Fatalf("Unexpected error decoding PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("Decoded bounds = %v, want 3x2", b)
	}

	r, g, b, _ := decoded.At(0, 1).RGBA()
	if r>>8 != 186 || g>>8 != 186 || b>>8 != 186 {
		t.Errorf("Pixel (0, 1) = (%d, %d, %d), want 186 grey", r>>8, g>>8, b>>8)
	}
}
