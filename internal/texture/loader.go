package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"spine-renderer/internal/spineerr"
)

// Texture is a decoded atlas page bitmap.
// Pix holds RGBA rows with stride Width*4. When Premultiplied is set the RGB
// channels are already scaled by alpha.
type Texture struct {
	Width         int
	Height        int
	Pix           []uint8
	Premultiplied bool
}

// Stride returns the byte length of one row.
func (t *Texture) Stride() int { return t.Width * 4 }

// LoadTexture reads and decodes an image file.
// premultiplied declares how the file stores its color channels; the raw
// channel values are kept as-is in that case.
func LoadTexture(path string, premultiplied bool) (*Texture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(spineerr.ErrMissingTexture, "texture: read %s: %v", path, err)
	}
	return DecodeTexture(raw, path, premultiplied)
}

// DecodeTexture decodes an in-memory image. name is only used in errors.
func DecodeTexture(raw []byte, name string, premultiplied bool) (*Texture, error) {
	img, err := decoderFor(name, raw)(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(spineerr.ErrMissingTexture, "texture: decode %s: %v", name, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.Wrapf(spineerr.ErrMissingTexture, "texture: empty image %s", name)
	}

	tex := &Texture{Width: b.Dx(), Height: b.Dy(), Premultiplied: premultiplied}
	if premultiplied {
		tex.Pix = rawChannels(img)
	} else {
		tex.Pix = toNRGBA(img).Pix
	}
	return tex, nil
}

type decodeFunc func(io.Reader) (image.Image, error)

// decoderFor picks a decoder from the file signature, or from the
// extension for TGA, which has none. image.Decode is not used: the tga
// package registers an empty signature that matches every input.
func decoderFor(name string, raw []byte) decodeFunc {
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		return tga.Decode
	}
	switch {
	case bytes.HasPrefix(raw, []byte("\x89PNG\r\n\x1a\n")):
		return png.Decode
	case bytes.HasPrefix(raw, []byte("\xff\xd8")):
		return jpeg.Decode
	case bytes.HasPrefix(raw, []byte("GIF8")):
		return gif.Decode
	case bytes.HasPrefix(raw, []byte("BM")):
		return bmp.Decode
	case bytes.HasPrefix(raw, []byte("II*\x00")), bytes.HasPrefix(raw, []byte("MM\x00*")):
		return tiff.Decode
	case len(raw) >= 12 && string(raw[:4]) == "RIFF" && string(raw[8:12]) == "WEBP":
		return webp.Decode
	}
	return tga.Decode
}

// FromNRGBA wraps a straight-alpha image without copying.
func FromNRGBA(img *image.NRGBA) *Texture {
	b := img.Bounds()
	if img.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		img = toNRGBA(img)
	}
	return &Texture{Width: b.Dx(), Height: b.Dy(), Pix: img.Pix}
}

// rawChannels returns the stored channel values without any alpha
// conversion. Premultiplied pages already carry scaled RGB in the file, so
// routing them through the NRGBA color model would scale them twice.
func rawChannels(src image.Image) []uint8 {
	b := src.Bounds()
	switch s := src.(type) {
	case *image.NRGBA:
		return copyRows(s.Pix, s.Stride, b.Dx(), b.Dy(), s.PixOffset(b.Min.X, b.Min.Y))
	case *image.RGBA:
		return copyRows(s.Pix, s.Stride, b.Dx(), b.Dy(), s.PixOffset(b.Min.X, b.Min.Y))
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst.Pix
}

func copyRows(pix []uint8, stride, w, h, off int) []uint8 {
	out := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		copy(out[y*w*4:(y+1)*w*4], pix[off+y*stride:off+y*stride+w*4])
	}
	return out
}

// toNRGBA converts any image to a zero-origin NRGBA image.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == b.Dx()*4 {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src.(type) {
	case *image.YCbCr, *image.Gray:
		// No alpha channel: draw, then force alpha to 255.
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		for i := 3; i < len(dst.Pix); i += 4 {
			dst.Pix[i] = 255
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				i := dst.PixOffset(x, y)
				dst.Pix[i] = c.R
				dst.Pix[i+1] = c.G
				dst.Pix[i+2] = c.B
				dst.Pix[i+3] = c.A
			}
		}
	}
	return dst
}
