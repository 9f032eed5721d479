// Package blend stores alpha and beta blend maps for projector regions.
package blend

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Faultbox/mpcdi-warp/pkg/mpcdi"
)

// Blend map errors.
var (
	ErrInvalidDimensions = errors.New("invalid blend map dimensions")
	ErrTruncatedPixels   = errors.New("blend map pixel data does not match dimensions")
)

// PixelFormat is the channel layout of a blend map.
type PixelFormat uint8

// Supported pixel formats. 16-bit channels are stored little-endian.
const (
	FormatG8 PixelFormat = iota
	FormatG16
	FormatRG8
	FormatRG16
	FormatRGBA8
)

// String returns the format name.
func (f PixelFormat) String() string {
	switch f {
	case FormatG8:
		return "G8"
	case FormatG16:
		return "G16"
	case FormatRG8:
		return "RG8"
	case FormatRG16:
		return "RG16"
	case FormatRGBA8:
		return "RGBA8"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// Channels returns the number of channels per pixel.
func (f PixelFormat) Channels() int {
	switch f {
	case FormatRG8, FormatRG16:
		return 2
	case FormatRGBA8:
		return 4
	default:
		return 1
	}
}

// BytesPerChannel returns 2 for 16-bit formats and 1 otherwise.
func (f PixelFormat) BytesPerChannel() int {
	if f == FormatG16 || f == FormatRG16 {
		return 2
	}
	return 1
}

// BytesPerPixel returns the size of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	return f.Channels() * f.BytesPerChannel()
}

// formats maps (components, bytes per component) to a pixel format.
var formats = map[[2]int]PixelFormat{
	{1, 1}: FormatG8,
	{1, 2}: FormatG16,
	{2, 1}: FormatRG8,
	{2, 2}: FormatRG16,
	{4, 1}: FormatRGBA8,
}

// FormatFor looks up the pixel format for a component count and channel size.
func FormatFor(components, bytesPerComponent int) (PixelFormat, bool) {
	f, ok := formats[[2]int{components, bytesPerComponent}]
	return f, ok
}

// Map is a blend image plus the gamma embedded by the calibration tool.
// A Map is replaced wholesale on reload and never edited in place.
type Map struct {
	Width  int
	Height int
	Format PixelFormat
	Data   []byte
	Gamma  float32
}

// FromBuffer builds a map from raw pixels. Calibration images are always 8 or
// 16 bit with 1, 2 or 4 components; any other combination is a programming
// error and panics. Dimension and size mismatches are reported as errors.
func FromBuffer(data []byte, width, height, components, bitDepth int, gamma float32) (*Map, error) {
	format, ok := FormatFor(components, bitDepth/8)
	if !ok || bitDepth%8 != 0 {
		panic(fmt.Sprintf("blend: unsupported pixel layout: %d components at %d bits", components, bitDepth))
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if want := width * height * format.BytesPerPixel(); len(data) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrTruncatedPixels, len(data), want)
	}

	pixels := make([]byte, len(data))
	copy(pixels, data)
	return &Map{Width: width, Height: height, Format: format, Data: pixels, Gamma: gamma}, nil
}

// FromDataMap builds a map from an MPCDI alpha or beta data map.
func FromDataMap(dm *mpcdi.DataMap) (*Map, error) {
	if err := dm.Validate(); err != nil {
		return nil, fmt.Errorf("blend data map: %w", err)
	}
	return FromBuffer(dm.Data, dm.Width, dm.Height, dm.ComponentDepth, dm.BitDepth, dm.Gamma)
}

// DummyFullyOpaque returns a 1x1 white single-channel map, the neutral alpha.
func DummyFullyOpaque() *Map {
	return &Map{Width: 1, Height: 1, Format: FormatG8, Data: []byte{0xFF}, Gamma: 1}
}

// IsValid reports whether the map has pixels.
func (m *Map) IsValid() bool {
	return m != nil && m.Width > 0 && m.Height > 0
}

// Value returns the first channel of pixel (x, y) normalized to [0, 1].
func (m *Map) Value(x, y int) float32 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	off := (y*m.Width + x) * m.Format.BytesPerPixel()
	if m.Format.BytesPerChannel() == 2 {
		return float32(binary.LittleEndian.Uint16(m.Data[off:])) / 0xFFFF
	}
	return float32(m.Data[off]) / 0xFF
}

// Range returns the smallest and largest first-channel values.
func (m *Map) Range() (lo, hi float32) {
	lo, hi = 1, 0
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := m.Value(x, y)
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}
