package blend

import (
	"errors"
	"fmt"
	"image"
)

// ErrUnsupportedTGA is returned for TGA variants blend maps never use.
var ErrUnsupportedTGA = errors.New("unsupported TGA image")

// TGA image types.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

const tgaHeaderSize = 18

// DecodeTGA decodes an uncompressed or RLE TGA. Grayscale images (8 bit)
// decode to *image.Gray and true-color images (24/32 bit) to *image.NRGBA.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("%w: header truncated", ErrUnsupportedTGA)
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped", ErrUnsupportedTGA)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	gray := imageType == tgaGray || imageType == tgaGrayRLE
	rle := imageType == tgaTrueColorRLE || imageType == tgaGrayRLE
	switch {
	case gray && bpp != 8:
		return nil, fmt.Errorf("%w: %d-bit grayscale", ErrUnsupportedTGA, bpp)
	case !gray && imageType != tgaTrueColor && imageType != tgaTrueColorRLE:
		return nil, fmt.Errorf("%w: type %d", ErrUnsupportedTGA, imageType)
	case !gray && bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("%w: %d-bit true color", ErrUnsupportedTGA, bpp)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: truncated", ErrTruncatedPixels)
	}

	// Unpack into top-down NRGBA or gray order regardless of source layout.
	src := bpp / 8
	dstBPP := 4
	if gray {
		dstBPP = 1
	}
	pix := make([]byte, width*height*dstBPP)
	put := func(i int, p []byte) {
		x, y := i%width, i/width
		if !topToBottom {
			y = height - 1 - y
		}
		o := (y*width + x) * dstBPP
		if gray {
			pix[o] = p[0]
			return
		}
		// BGR(A) on disk.
		pix[o], pix[o+1], pix[o+2], pix[o+3] = p[2], p[1], p[0], 0xFF
		if src == 4 {
			pix[o+3] = p[3]
		}
	}

	body := data[offset:]
	n := width * height
	if !rle {
		if len(body) < n*src {
			return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrTruncatedPixels, n*src, len(body))
		}
		for i := 0; i < n; i++ {
			put(i, body[i*src:])
		}
	} else if err := unpackTGARLE(body, n, src, put); err != nil {
		return nil, err
	}

	r := image.Rect(0, 0, width, height)
	if gray {
		return &image.Gray{Pix: pix, Stride: width, Rect: r}, nil
	}
	return &image.NRGBA{Pix: pix, Stride: width * 4, Rect: r}, nil
}

// unpackTGARLE expands run-length packets, calling put for each of n pixels.
func unpackTGARLE(body []byte, n, src int, put func(int, []byte)) error {
	pos, i := 0, 0
	for i < n {
		if pos >= len(body) {
			return fmt.Errorf("%w: RLE stream ends at pixel %d of %d", ErrTruncatedPixels, i, n)
		}
		packet := body[pos]
		pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if pos+src > len(body) {
				return fmt.Errorf("%w: RLE run", ErrTruncatedPixels)
			}
			p := body[pos : pos+src]
			pos += src
			for ; count > 0 && i < n; count-- {
				put(i, p)
				i++
			}
			continue
		}

		if pos+count*src > len(body) {
			return fmt.Errorf("%w: RLE raw packet", ErrTruncatedPixels)
		}
		for ; count > 0 && i < n; count-- {
			put(i, body[pos:pos+src])
			pos += src
			i++
		}
	}
	return nil
}
