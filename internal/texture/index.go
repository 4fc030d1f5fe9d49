package texture

import (
	"os"
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".tga": true, ".bmp": true, ".webp": true, ".tif": true, ".tiff": true,
}

// Index maps lowercase image file names to filesystem paths so atlas page
// names written on case-insensitive systems still resolve.
type Index struct {
	names map[string]string // base.lower() → full path
	stems map[string]string // stem.lower() → full path
}

// BuildIndex scans dir and its subdirectories for image files.
func BuildIndex(dir string) *Index {
	idx := &Index{names: make(map[string]string), stems: make(map[string]string)}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !imageExts[ext] {
			return nil
		}
		base := strings.ToLower(filepath.Base(path))
		if _, exists := idx.names[base]; !exists {
			idx.names[base] = path
		}
		stem := strings.TrimSuffix(base, ext)
		if _, exists := idx.stems[stem]; !exists {
			idx.stems[stem] = path
		}
		return nil
	})

	return idx
}

// ResolvePath returns the filesystem path for an image reference, or ("", false).
// An existing file wins; otherwise the case-insensitive name, then the stem
// (any image extension) is looked up.
func (idx *Index) ResolvePath(name string) (string, bool) {
	if _, err := os.Stat(name); err == nil {
		return name, true
	}
	name = strings.ReplaceAll(name, "\\", "/")
	base := strings.ToLower(filepath.Base(name))
	if path, ok := idx.names[base]; ok {
		return path, true
	}
	path, ok := idx.stems[strings.TrimSuffix(base, filepath.Ext(base))]
	return path, ok
}

// Len returns the number of indexed images.
func (idx *Index) Len() int {
	return len(idx.names)
}
