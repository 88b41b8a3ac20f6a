package texture

import (
	"errors"
	"fmt"
	"image"
)

// TGA decode errors.
var (
	ErrTGATruncated   = errors.New("TGA data truncated")
	ErrTGAUnsupported = errors.New("unsupported TGA variant")
)

// TGA image types handled by DecodeTGA.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

type tgaHeader struct {
	idLength     int
	colorMapType byte
	imageType    byte
	width        int
	height       int
	bpp          int
	topToBottom  bool // descriptor bit 5
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, fmt.Errorf("%w: %d byte header", ErrTGATruncated, len(data))
	}
	h := tgaHeader{
		idLength:     int(data[0]),
		colorMapType: data[1],
		imageType:    data[2],
		width:        int(data[12]) | int(data[13])<<8,
		height:       int(data[14]) | int(data[15])<<8,
		bpp:          int(data[16]),
		topToBottom:  data[17]&0x20 != 0,
	}

	switch {
	case h.colorMapType != 0:
		return h, fmt.Errorf("%w: color-mapped", ErrTGAUnsupported)
	case h.imageType != TGATypeUncompressed && h.imageType != TGATypeRLE:
		return h, fmt.Errorf("%w: image type %d", ErrTGAUnsupported, h.imageType)
	case h.bpp != 24 && h.bpp != 32:
		return h, fmt.Errorf("%w: %d bits per pixel", ErrTGAUnsupported, h.bpp)
	}
	return h, nil
}

// DecodeTGA decodes an uncompressed or RLE true-color TGA image.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}

	offset := tgaHeaderSize + h.idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: image ID field", ErrTGATruncated)
	}
	src := data[offset:]

	img := image.NewRGBA(image.Rect(0, 0, h.width, h.height))
	w := &tgaWriter{img: img, h: h, bpp: h.bpp / 8}

	if h.imageType == TGATypeUncompressed {
		if len(src) < h.width*h.height*w.bpp {
			return nil, fmt.Errorf("%w: pixel data", ErrTGATruncated)
		}
		for w.pos < h.width*h.height {
			w.put(src[w.pos*w.bpp:])
		}
		return img, nil
	}

	if err := w.decodeRLE(src); err != nil {
		return nil, err
	}
	return img, nil
}

// tgaWriter places BGR(A) pixels into the image in file order.
type tgaWriter struct {
	img *image.RGBA
	h   tgaHeader
	bpp int
	pos int
}

func (w *tgaWriter) put(px []byte) {
	x := w.pos % w.h.width
	y := w.pos / w.h.width
	if !w.h.topToBottom {
		y = w.h.height - 1 - y
	}
	i := w.img.PixOffset(x, y)
	w.img.Pix[i+0] = px[2]
	w.img.Pix[i+1] = px[1]
	w.img.Pix[i+2] = px[0]
	w.img.Pix[i+3] = 255
	if w.bpp == 4 {
		w.img.Pix[i+3] = px[3]
	}
	w.pos++
}

// decodeRLE reads run-length packets. A truncated stream leaves the
// remaining pixels transparent rather than failing.
func (w *tgaWriter) decodeRLE(src []byte) error {
	total := w.h.width * w.h.height
	i := 0
	for w.pos < total && i < len(src) {
		packet := src[i]
		i++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if i+w.bpp > len(src) {
				return nil
			}
			px := src[i : i+w.bpp]
			i += w.bpp
			for n := 0; n < count && w.pos < total; n++ {
				w.put(px)
			}
			continue
		}

		for n := 0; n < count && w.pos < total; n++ {
			if i+w.bpp > len(src) {
				return nil
			}
			w.put(src[i : i+w.bpp])
			i += w.bpp
		}
	}
	return nil
}
