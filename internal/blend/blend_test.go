package blend

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/mpcdi-warp/pkg/mpcdi"
)

func TestFromBufferFormats(t *testing.T) {
	tests := []struct {
		components int
		bits       int
		want       PixelFormat
	}{
		{1, 8, FormatG8},
		{1, 16, FormatG16},
		{2, 8, FormatRG8},
		{2, 16, FormatRG16},
		{4, 8, FormatRGBA8},
	}
	for _, tc := range tests {
		t.Run(tc.want.String(), func(t *testing.T) {
			data := make([]byte, 3*2*tc.components*tc.bits/8)
			m, err := FromBuffer(data, 3, 2, tc.components, tc.bits, 2.2)
			if err != nil {
				t.Fatalf("FromBuffer: %v", err)
			}
			if m.Format != tc.want || !m.IsValid() || m.Gamma != 2.2 {
				t.Errorf("got %+v", m)
			}
		})
	}
}

func TestFromBufferUnsupportedPanics(t *testing.T) {
	tests := []struct {
		name       string
		components int
		bits       int
	}{
		{"three components", 3, 8},
		{"rgba16", 4, 16},
		{"12 bit", 1, 12},
		{"32 bit", 1, 32},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			FromBuffer(make([]byte, 64), 2, 2, tc.components, tc.bits, 1)
		})
	}
}

func TestFromBufferErrors(t *testing.T) {
	if _, err := FromBuffer(nil, 0, 2, 1, 8, 1); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("zero width: err = %v", err)
	}
	if _, err := FromBuffer(make([]byte, 3), 2, 2, 1, 8, 1); !errors.Is(err, ErrTruncatedPixels) {
		t.Errorf("short data: err = %v", err)
	}
}

func TestFromBufferCopies(t *testing.T) {
	data := []byte{10, 20}
	m, err := FromBuffer(data, 2, 1, 1, 8, 1)
	if err != nil {
		t.Fatal(err)
	}
	data[0] = 99
	if m.Data[0] != 10 {
		t.Error("map shares the caller's buffer")
	}
}

func TestFromDataMap(t *testing.T) {
	dm := &mpcdi.DataMap{Width: 2, Height: 1, ComponentDepth: 1, BitDepth: 16, Data: []byte{0xFF, 0xFF, 0x00, 0x80}, Gamma: 1.8}
	m, err := FromDataMap(dm)
	if err != nil {
		t.Fatalf("FromDataMap: %v", err)
	}
	if m.Format != FormatG16 || m.Value(0, 0) != 1 {
		t.Errorf("got format %v value %v", m.Format, m.Value(0, 0))
	}
	if v := m.Value(1, 0); v < 0.5 || v > 0.51 {
		t.Errorf("Value(1,0) = %v, want ~0.5", v)
	}

	dm.Data = dm.Data[:3]
	if _, err := FromDataMap(dm); !errors.Is(err, mpcdi.ErrTruncatedData) {
		t.Errorf("err = %v, want ErrTruncatedData", err)
	}
}

func TestDummyFullyOpaque(t *testing.T) {
	m := DummyFullyOpaque()
	if !m.IsValid() || m.Width != 1 || m.Height != 1 || m.Format != FormatG8 {
		t.Errorf("got %+v", m)
	}
	if lo, hi := m.Range(); lo != 1 || hi != 1 {
		t.Errorf("Range = %v..%v, want 1..1", lo, hi)
	}
	var nilMap *Map
	if nilMap.IsValid() {
		t.Error("nil map should be invalid")
	}
}

func TestDecodeFormats(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(2, 1, color.Gray{Y: 255})

	gray16 := image.NewGray16(image.Rect(0, 0, 3, 2))
	gray16.SetGray16(2, 1, color.Gray16{Y: 0xFFFF})
	gray16.SetGray16(0, 0, color.Gray16{Y: 0x8000})

	rgba := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := 3; i < len(rgba.Pix); i += 4 {
		rgba.Pix[i] = 0xFF
	}
	rgba.Set(2, 1, color.RGBA{R: 255, G: 0, B: 0, A: 255})

	tests := []struct {
		name   string
		encode func(*bytes.Buffer) error
		format PixelFormat
	}{
		{"png gray", func(b *bytes.Buffer) error { return png.Encode(b, gray) }, FormatG8},
		{"png gray16", func(b *bytes.Buffer) error { return png.Encode(b, gray16) }, FormatG16},
		{"tiff gray16", func(b *bytes.Buffer) error { return tiff.Encode(b, gray16, nil) }, FormatG16},
		{"bmp rgba", func(b *bytes.Buffer) error { return bmp.Encode(b, rgba) }, FormatRGBA8},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.encode(&buf); err != nil {
				t.Fatalf("encode: %v", err)
			}
			m, err := Decode(&buf, 2.2)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if m.Width != 3 || m.Height != 2 || m.Format != tc.format {
				t.Errorf("got %dx%d %v", m.Width, m.Height, m.Format)
			}
			if v := m.Value(2, 1); v != 1 {
				t.Errorf("Value(2,1) = %v, want 1", v)
			}
			if v := m.Value(1, 0); v != 0 {
				t.Errorf("Value(1,0) = %v, want 0", v)
			}
		})
	}
}

func TestFromImageSubImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	gray.SetGray(2, 2, color.Gray{Y: 255})
	gray16 := image.NewGray16(image.Rect(0, 0, 4, 4))
	gray16.SetGray16(2, 2, color.Gray16{Y: 0xFFFF})

	tests := []struct {
		name   string
		img    image.Image
		format PixelFormat
	}{
		{"gray", gray.SubImage(image.Rect(1, 1, 3, 4)), FormatG8},
		{"gray16", gray16.SubImage(image.Rect(1, 1, 3, 4)), FormatG16},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := FromImage(tc.img, 1)
			if m.Width != 2 || m.Height != 3 || m.Format != tc.format {
				t.Fatalf("got %dx%d %v", m.Width, m.Height, m.Format)
			}
			for y := 0; y < 3; y++ {
				for x := 0; x < 2; x++ {
					want := float32(0)
					if x == 1 && y == 1 {
						want = 1
					}
					if v := m.Value(x, y); v != want {
						t.Errorf("Value(%d,%d) = %v, want %v", x, y, v, want)
					}
				}
			}
		})
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("not an image")), 1); err == nil {
		t.Error("expected error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alpha.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 8, 4))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	m, err := LoadFile(path, 1)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if m.Width != 8 || m.Height != 4 {
		t.Errorf("got %dx%d", m.Width, m.Height)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.png"), 1); err == nil {
		t.Error("expected error for missing file")
	}
}
