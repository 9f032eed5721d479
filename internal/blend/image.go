package blend

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	// Calibration tools export blend maps as PNG, BMP or 16-bit TIFF.
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// FromImage converts a decoded image into a blend map. Gray images keep
// their depth; everything else is converted to RGBA8.
func FromImage(img image.Image, gamma float32) *Map {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		m := &Map{Width: w, Height: h, Format: FormatG8, Data: make([]byte, w*h), Gamma: gamma}
		for y := 0; y < h; y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(m.Data[y*w:], src.Pix[i:i+w])
		}
		return m
	case *image.Gray16:
		m := &Map{Width: w, Height: h, Format: FormatG16, Data: make([]byte, w*h*2), Gamma: gamma}
		for y := 0; y < h; y++ {
			row := src.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < w; x++ {
				// image.Gray16 is big-endian; maps are little-endian.
				i := row + x*2
				v := uint16(src.Pix[i])<<8 | uint16(src.Pix[i+1])
				binary.LittleEndian.PutUint16(m.Data[(y*w+x)*2:], v)
			}
		}
		return m
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
	return &Map{Width: w, Height: h, Format: FormatRGBA8, Data: dst.Pix, Gamma: gamma}
}

// Decode reads a PNG, BMP or TIFF blend image. TGA has no signature and is
// only recognized by LoadFile.
func Decode(r io.Reader, gamma float32) (*Map, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding blend image: %w", err)
	}
	m := FromImage(img, gamma)
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: empty %s image", ErrInvalidDimensions, format)
	}
	return m, nil
}

// LoadFile decodes a blend image from disk. Files with a .tga extension are
// decoded as TGA.
func LoadFile(path string, gamma float32) (*Map, error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading blend image: %w", err)
		}
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("decoding blend image: %w", err)
		}
		return FromImage(img, gamma), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening blend image: %w", err)
	}
	defer f.Close()
	return Decode(f, gamma)
}
