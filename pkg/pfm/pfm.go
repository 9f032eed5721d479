// Package pfm reads and writes Portable Float Map images, the format used to carry
// raw calibration point clouds next to an MPCDI profile.
package pfm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	wmath "github.com/Faultbox/mpcdi-warp/pkg/math"
)

// PFM format errors.
var (
	ErrInvalidMagic      = errors.New("invalid PFM magic: expected 'PF' or 'Pf'")
	ErrInvalidHeader     = errors.New("invalid PFM header")
	ErrTruncatedPFMData  = errors.New("truncated PFM data")
	ErrUnsupportedLayout = errors.New("unsupported PFM channel layout")
)

// maxDimension bounds width and height to reject corrupt headers early.
const maxDimension = 16384

// Image is a decoded float map. Rows are stored top to bottom.
type Image struct {
	Width    int
	Height   int
	Channels int // 1 for "Pf", 3 for "PF"
	Pixels   []float32
}

// At returns the channels of the pixel at (x, y).
func (img *Image) At(x, y int) []float32 {
	i := (y*img.Width + x) * img.Channels
	return img.Pixels[i : i+img.Channels]
}

// Points returns the pixels of a three-channel map as (x, y, z) triples in row-major order.
func (img *Image) Points() ([]wmath.Vec3, error) {
	if img.Channels != 3 {
		return nil, fmt.Errorf("%w: need 3 channels, got %d", ErrUnsupportedLayout, img.Channels)
	}
	pts := make([]wmath.Vec3, img.Width*img.Height)
	for i := range pts {
		p := img.Pixels[i*3 : i*3+3]
		pts[i] = wmath.Vec3{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
	}
	return pts, nil
}

// FromPoints builds a three-channel image from row-major points.
func FromPoints(points []wmath.Vec3, width, height int) (*Image, error) {
	if width <= 0 || height <= 0 || len(points) != width*height {
		return nil, fmt.Errorf("%w: %d points for %dx%d", ErrInvalidHeader, len(points), width, height)
	}
	img := &Image{Width: width, Height: height, Channels: 3, Pixels: make([]float32, width*height*3)}
	for i, p := range points {
		img.Pixels[i*3] = float32(p.X)
		img.Pixels[i*3+1] = float32(p.Y)
		img.Pixels[i*3+2] = float32(p.Z)
	}
	return img, nil
}

// Parse decodes a PFM file from raw bytes.
func Parse(data []byte) (*Image, error) {
	pos := 0
	magic, pos := token(data, pos)

	var channels int
	switch magic {
	case "PF":
		channels = 3
	case "Pf":
		channels = 1
	default:
		return nil, ErrInvalidMagic
	}

	var fields [3]string
	for i := range fields {
		fields[i], pos = token(data, pos)
		if fields[i] == "" {
			return nil, fmt.Errorf("%w: missing field %d", ErrInvalidHeader, i)
		}
	}

	width, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: width %q", ErrInvalidHeader, fields[0])
	}
	height, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: height %q", ErrInvalidHeader, fields[1])
	}
	scale, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || scale == 0 {
		return nil, fmt.Errorf("%w: scale %q", ErrInvalidHeader, fields[2])
	}
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidHeader, width, height)
	}

	// A single whitespace byte separates the header from the raster.
	pos++
	if pos > len(data) {
		return nil, ErrTruncatedPFMData
	}

	var order binary.ByteOrder = binary.BigEndian
	if scale < 0 {
		order = binary.LittleEndian
	}

	rowLen := width * channels
	raster := data[pos:]
	if len(raster) < rowLen*height*4 {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrTruncatedPFMData, len(raster), rowLen*height*4)
	}

	img := &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pixels:   make([]float32, rowLen*height),
	}

	// PFM rows run bottom to top.
	for row := 0; row < height; row++ {
		dst := img.Pixels[(height-1-row)*rowLen : (height-row)*rowLen]
		src := raster[row*rowLen*4:]
		for i := range dst {
			dst[i] = math.Float32frombits(order.Uint32(src[i*4:]))
		}
	}

	return img, nil
}

// ParseFile parses a PFM file from disk.
func ParseFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PFM file: %w", err)
	}
	return Parse(data)
}

// Encode writes img as a little-endian PFM.
func Encode(w io.Writer, img *Image) error {
	var magic string
	switch img.Channels {
	case 3:
		magic = "PF"
	case 1:
		magic = "Pf"
	default:
		return fmt.Errorf("%w: %d channels", ErrUnsupportedLayout, img.Channels)
	}

	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "%s\n%d %d\n-1.0\n", magic, img.Width, img.Height)

	rowLen := img.Width * img.Channels
	for row := img.Height - 1; row >= 0; row-- {
		for _, v := range img.Pixels[row*rowLen : (row+1)*rowLen] {
			_ = binary.Write(buf, binary.LittleEndian, v)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// token returns the next whitespace-delimited header token starting at pos
// and the position just after it.
func token(data []byte, pos int) (string, int) {
	for pos < len(data) && isSpace(data[pos]) {
		pos++
	}
	start := pos
	for pos < len(data) && !isSpace(data[pos]) {
		pos++
	}
	return string(data[start:pos]), pos
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\r' || b == '\t'
}
