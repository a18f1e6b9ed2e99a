package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// ErrTGATruncated is returned when the header or pixel data ends early.
var ErrTGATruncated = errors.New("tga: data truncated")

// DecodeTGA decodes a TGA image.
// Supports uncompressed true-color (type 2) and RLE compressed (type 10)
// files at 24 or 32 bits per pixel. TGA has no magic number, so callers
// select this decoder by file extension.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, ErrTGATruncated
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("tga: color-mapped images not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, ErrTGATruncated
	}

	d := tgaDecoder{
		img:          image.NewNRGBA(image.Rect(0, 0, width, height)),
		src:          data[offset:],
		width:        width,
		height:       height,
		bytesPerPix:  bpp / 8,
		topToBottom:  descriptor&0x20 != 0,
		expectPixels: width * height,
	}

	if imageType == TGATypeUncompressed {
		if len(d.src) < d.expectPixels*d.bytesPerPix {
			return nil, ErrTGATruncated
		}
		for d.written < d.expectPixels {
			d.put(d.read())
		}
	} else {
		d.decodeRLE()
	}

	return d.img, nil
}

type tgaDecoder struct {
	img          *image.NRGBA
	src          []byte
	pos          int
	width        int
	height       int
	bytesPerPix  int
	topToBottom  bool
	expectPixels int
	written      int
}

// read consumes one BGR(A) pixel.
func (d *tgaDecoder) read() color.NRGBA {
	p := d.src[d.pos:]
	c := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bytesPerPix == 4 {
		c.A = p[3]
	}
	d.pos += d.bytesPerPix
	return c
}

// put writes the next pixel in file order, honouring the origin bit.
func (d *tgaDecoder) put(c color.NRGBA) {
	x := d.written % d.width
	y := d.written / d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetNRGBA(x, y, c)
	d.written++
}

// decodeRLE stops quietly at the end of the input; missing pixels stay transparent.
func (d *tgaDecoder) decodeRLE() {
	for d.written < d.expectPixels && d.pos < len(d.src) {
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if d.pos+d.bytesPerPix > len(d.src) {
				return
			}
			c := d.read()
			for i := 0; i < count && d.written < d.expectPixels; i++ {
				d.put(c)
			}
			continue
		}

		for i := 0; i < count && d.written < d.expectPixels; i++ {
			if d.pos+d.bytesPerPix > len(d.src) {
				return
			}
			d.put(d.read())
		}
	}
}
