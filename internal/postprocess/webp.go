package postprocess

import (
	"image"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/pkg/errors"
)

// WriteWebP encodes img as a lossless WebP file, creating parent
// directories as needed.
func WriteWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "postprocess: create output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "postprocess: create output")
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return errors.Wrapf(err, "postprocess: encode %s", path)
	}
	return errors.Wrapf(f.Close(), "postprocess: close %s", path)
}
