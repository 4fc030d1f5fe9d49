package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// SpriteSheet places equally sized frames left to right, top to bottom in
// a grid of the given column count. Frames are composited with draw.Src,
// so transparent pixels stay transparent.
func SpriteSheet(frames []*image.NRGBA, columns int) *image.NRGBA {
	if len(frames) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	if columns <= 0 || columns > len(frames) {
		columns = len(frames)
	}
	rows := (len(frames) + columns - 1) / columns
	fw, fh := frames[0].Bounds().Dx(), frames[0].Bounds().Dy()

	sheet := image.NewNRGBA(image.Rect(0, 0, fw*columns, fh*rows))
	for i, f := range frames {
		x, y := (i%columns)*fw, (i/columns)*fh
		draw.Draw(sheet, image.Rect(x, y, x+fw, y+fh), f, f.Bounds().Min, draw.Src)
	}
	return sheet
}
