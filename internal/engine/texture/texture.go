// Package texture decodes image files into tightly packed pixel data ready
// for upload.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// Image is decoded 8-bit pixel data, rows top to bottom.
type Image struct {
	Pix      []byte
	Width    int
	Height   int
	Channels int // 1 (gray), 3 (RGB) or 4 (RGBA)
}

// Decode reads and decodes the image file at path.
func Decode(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var img image.Image
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err = DecodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	return FromImage(img), nil
}

// FromImage packs img into 1, 3 or 4 channels depending on its colour model
// and opacity.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if gray, ok := img.(*image.Gray); ok {
		out := &Image{Pix: make([]byte, w*h), Width: w, Height: h, Channels: 1}
		for y := 0; y < h; y++ {
			copy(out.Pix[y*w:(y+1)*w], gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) || nrgba.Stride != 4*w {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Rect, img, b.Min, draw.Src)
	}

	if !nrgba.Opaque() {
		return &Image{Pix: nrgba.Pix, Width: w, Height: h, Channels: 4}
	}

	rgb := make([]byte, w*h*3)
	for i, j := 0, 0; i < len(nrgba.Pix); i, j = i+4, j+3 {
		rgb[j], rgb[j+1], rgb[j+2] = nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2]
	}
	return &Image{Pix: rgb, Width: w, Height: h, Channels: 3}
}
