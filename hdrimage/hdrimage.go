// Package hdrimage is the linear, unclamped pixel buffer a render accumulates
// into, plus a raw on-disk form of it.
package hdrimage

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"row-major/lantern/vmath/vec3"
)

const dataLayoutVersion = 1

// Image is row-major, top row first.
type Image struct {
	Rows, Cols int
	Pixels     []vec3.T
}

func New(rows, cols int) *Image {
	return &Image{
		Rows:   rows,
		Cols:   cols,
		Pixels: make([]vec3.T, rows*cols),
	}
}

func (im *Image) At(r, c int) vec3.T {
	return im.Pixels[r*im.Cols+c]
}

func (im *Image) Set(r, c int, v vec3.T) {
	im.Pixels[r*im.Cols+c] = v
}

// RowRange returns the pixels of rows [rowSrc, rowLim).  The slice aliases
// the image, so writes through it land in the image.
func (im *Image) RowRange(rowSrc, rowLim int) []vec3.T {
	return im.Pixels[rowSrc*im.Cols : rowLim*im.Cols : rowLim*im.Cols]
}

func (im *Image) Row(r int) []vec3.T {
	return im.RowRange(r, r+1)
}

// Luminance is the mean Rec. 709 luminance of the linear pixels.
func (im *Image) Luminance() float64 {
	if len(im.Pixels) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range im.Pixels {
		sum += 0.2126*p[0] + 0.7152*p[1] + 0.0722*p[2]
	}
	return sum / float64(len(im.Pixels))
}

// Metadata travels in the raw file header alongside the dimensions.
type Metadata struct {
	ModelName string
	Samples   int
}

// EncodeRows compresses rows [rowSrc, rowLim) of im.
func EncodeRows(im *Image, rowSrc, rowLim int) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := writePixels(buf, im.RowRange(rowSrc, rowLim)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRows is the inverse of EncodeRows.  The decoded rows are written into
// im starting at rowSrc.
func DecodeRows(data []byte, im *Image, rowSrc, rowLim int) error {
	return readPixels(bytes.NewReader(data), im.RowRange(rowSrc, rowLim))
}

func writePixels(w io.Writer, pixels []vec3.T) error {
	zipWriter := zlib.NewWriter(w)

	if err := binary.Write(zipWriter, binary.LittleEndian, pixels); err != nil {
		return fmt.Errorf("while writing pixels: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

func readPixels(r io.Reader, pixels []vec3.T) error {
	zipReader, err := zlib.NewReader(r)
	if err != nil {
		return fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	if err := binary.Read(zipReader, binary.LittleEndian, pixels); err != nil {
		return fmt.Errorf("while reading pixels: %w", err)
	}

	return nil
}

func Read(in io.Reader) (*Image, Metadata, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, Metadata{}, fmt.Errorf("while reading header length: %w", err)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, Metadata{}, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, Metadata{}, fmt.Errorf("while unmarshaling header: %w", err)
	}

	fields := hdr.GetFields()
	if v := fields["data_layout_version"].GetNumberValue(); v != dataLayoutVersion {
		return nil, Metadata{}, fmt.Errorf("bad data layout version: %v", v)
	}

	rows := int(fields["rows"].GetNumberValue())
	cols := int(fields["cols"].GetNumberValue())
	if rows < 0 || cols < 0 {
		return nil, Metadata{}, fmt.Errorf("bad image size %dx%d", cols, rows)
	}

	meta := Metadata{
		ModelName: fields["model_name"].GetStringValue(),
		Samples:   int(fields["samples"].GetNumberValue()),
	}

	im := New(rows, cols)
	if err := readPixels(in, im.Pixels); err != nil {
		return nil, Metadata{}, err
	}

	return im, meta, nil
}

func ReadFromFile(name string) (*Image, Metadata, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("while opening file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

func Write(im *Image, meta Metadata, w io.Writer) error {
	hdr, err := structpb.NewStruct(map[string]interface{}{
		"rows":                im.Rows,
		"cols":                im.Cols,
		"data_layout_version": dataLayoutVersion,
		"model_name":          meta.ModelName,
		"samples":             meta.Samples,
	})
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}

	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	return writePixels(w, im.Pixels)
}
