package skin

import (
	"image"
	"image/color"
	"os"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/studiomdl/pkg/studio"
)

// Image is an 8-bit paletted bitmap. Palette holds 256 RGB triples.
type Image struct {
	Width   int
	Height  int
	Pixels  []byte
	Palette []byte
}

// LoadBMP reads an 8-bit paletted BMP file.
func LoadBMP(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open bitmap")
	}
	defer f.Close()

	img, err := bmp.Decode(f)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "decode %s", path)
	}
	pal, ok := img.(*image.Paletted)
	if !ok {
		return nil, pkgerrors.Errorf("%s: not an 8-bit paletted bitmap", path)
	}
	return fromPaletted(pal), nil
}

func fromPaletted(src *image.Paletted) *Image {
	b := src.Bounds()
	img := &Image{
		Width:   b.Dx(),
		Height:  b.Dy(),
		Pixels:  make([]byte, b.Dx()*b.Dy()),
		Palette: make([]byte, studio.PaletteSize),
	}
	for y := 0; y < img.Height; y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(img.Pixels[y*img.Width:(y+1)*img.Width], src.Pix[off:off+img.Width])
	}
	for i, c := range src.Palette {
		if i >= 256 {
			break
		}
		r, g, bl, _ := c.RGBA()
		img.Palette[i*3+0] = byte(r >> 8)
		img.Palette[i*3+1] = byte(g >> 8)
		img.Palette[i*3+2] = byte(bl >> 8)
	}
	return img
}

// Paletted converts the bitmap back to an image, mainly for tests and dumps.
func (img *Image) Paletted() *image.Paletted {
	pal := make(color.Palette, 256)
	for i := range pal {
		pal[i] = color.RGBA{img.Palette[i*3], img.Palette[i*3+1], img.Palette[i*3+2], 0xff}
	}
	out := image.NewPaletted(image.Rect(0, 0, img.Width, img.Height), pal)
	copy(out.Pix, img.Pixels)
	return out
}
