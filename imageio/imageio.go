// Package imageio turns linear radiance images into 8-bit display images and
// writes them as PNG or plain PPM.
package imageio

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"row-major/lantern/hdrimage"
)

type Format int

const (
	FormatPNG Format = iota
	FormatPPM
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatPPM:
		return "ppm"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the output format from the file extension.
func FormatFromPath(p string) (Format, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".png":
		return FormatPNG, nil
	case ".ppm":
		return FormatPPM, nil
	default:
		return 0, fmt.Errorf("unrecognized image extension on %q; want .png or .ppm", p)
	}
}

// ToByte clamps x to [0, 1], applies a 2.2 display gamma, and rounds to the
// nearest 8-bit level.
func ToByte(x float64) uint8 {
	if !(x > 0) {
		x = 0
	} else if x > 1 {
		x = 1
	}
	return uint8(math.Pow(x, 1/2.2)*255 + 0.5)
}

func ToRGBA(im *hdrimage.Image) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, im.Cols, im.Rows))
	for r := 0; r < im.Rows; r++ {
		for c := 0; c < im.Cols; c++ {
			p := im.At(r, c)
			out.SetRGBA(c, r, color.RGBA{R: ToByte(p[0]), G: ToByte(p[1]), B: ToByte(p[2]), A: 255})
		}
	}
	return out
}

func WritePNG(w io.Writer, im *hdrimage.Image) error {
	return WriteRGBAPNG(w, ToRGBA(im))
}

func WriteRGBAPNG(w io.Writer, im *image.RGBA) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, im); err != nil {
		return fmt.Errorf("while encoding PNG: %w", err)
	}
	return nil
}

// WritePPM writes a plain (P3) PPM with a maximum value of 255.
func WritePPM(w io.Writer, im *hdrimage.Image) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", im.Cols, im.Rows); err != nil {
		return fmt.Errorf("while writing PPM header: %w", err)
	}
	for _, p := range im.Pixels {
		if _, err := fmt.Fprintf(bw, "%d %d %d ", ToByte(p[0]), ToByte(p[1]), ToByte(p[2])); err != nil {
			return fmt.Errorf("while writing PPM pixels: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while flushing PPM: %w", err)
	}
	return nil
}

func Encode(w io.Writer, im *hdrimage.Image, f Format) error {
	switch f {
	case FormatPNG:
		return WritePNG(w, im)
	case FormatPPM:
		return WritePPM(w, im)
	default:
		return fmt.Errorf("unknown format %v", f)
	}
}

// ppmScanner yields whitespace-separated header tokens, skipping # comments.
type ppmScanner struct {
	r *bufio.Reader
}

func (s *ppmScanner) token() (string, error) {
	var sb strings.Builder
	for {
		b, err := s.r.ReadByte()
		if err == io.EOF && sb.Len() > 0 {
			return sb.String(), nil
		} else if err != nil {
			return "", err
		}

		switch {
		case b == '#' && sb.Len() == 0:
			if _, err := s.r.ReadString('\n'); err != nil {
				return "", err
			}
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			if sb.Len() > 0 {
				return sb.String(), nil
			}
		default:
			sb.WriteByte(b)
		}
	}
}

func (s *ppmScanner) int() (int, error) {
	tok, err := s.token()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(tok)
}

// ReadPPM decodes a plain (P3) or raw (P6) PPM with a maximum value of at
// most 255.
func ReadPPM(r io.Reader) (*image.RGBA, error) {
	s := &ppmScanner{r: bufio.NewReader(r)}

	magic, err := s.token()
	if err != nil {
		return nil, fmt.Errorf("while reading PPM magic: %w", err)
	}
	if magic != "P3" && magic != "P6" {
		return nil, fmt.Errorf("unsupported PPM magic %q", magic)
	}

	var dims [3]int
	for i := range dims {
		if dims[i], err = s.int(); err != nil {
			return nil, fmt.Errorf("while reading PPM header: %w", err)
		}
	}
	cols, rows, maxVal := dims[0], dims[1], dims[2]
	if cols < 0 || rows < 0 {
		return nil, fmt.Errorf("bad PPM size %dx%d", cols, rows)
	}
	if maxVal < 1 || maxVal > 255 {
		return nil, fmt.Errorf("unsupported PPM max value %d", maxVal)
	}

	scale := func(v int) uint8 {
		return uint8((v*255 + maxVal/2) / maxVal)
	}

	out := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			var rgb [3]int
			for i := range rgb {
				if magic == "P3" {
					rgb[i], err = s.int()
				} else {
					var b byte
					b, err = s.r.ReadByte()
					rgb[i] = int(b)
				}
				if err != nil {
					return nil, fmt.Errorf("while reading pixel (%d, %d): %w", x, y, err)
				}
				if rgb[i] < 0 || rgb[i] > maxVal {
					return nil, fmt.Errorf("pixel (%d, %d) value %d outside [0, %d]", x, y, rgb[i], maxVal)
				}
			}
			out.SetRGBA(x, y, color.RGBA{R: scale(rgb[0]), G: scale(rgb[1]), B: scale(rgb[2]), A: 255})
		}
	}
	return out, nil
}
