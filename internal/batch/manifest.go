package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ManifestEntry represents one rendered animation in the output manifest.
type ManifestEntry struct {
	Animation string   `json:"animation"`
	Duration  float32  `json:"duration"`
	FPS       float32  `json:"fps"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Frames    []string `json:"frames"`
	Sheet     string   `json:"sheet,omitempty"`
}

// Manifest is the content of manifest.json.
type Manifest struct {
	Skeleton   string          `json:"skeleton"`
	Animations []ManifestEntry `json:"animations"`
}

// WriteManifest writes the successful results to path. Frame paths are
// relative to the output directory and use forward slashes.
func WriteManifest(path, skeleton string, cfg Config, results []Result) error {
	m := Manifest{Skeleton: skeleton, Animations: []ManifestEntry{}}
	for _, r := range results {
		if !r.Success {
			continue
		}
		e := ManifestEntry{
			Animation: r.Animation,
			Duration:  r.Duration,
			FPS:       cfg.FPS,
			Width:     cfg.Width,
			Height:    cfg.Height,
			Frames:    make([]string, r.Frames),
			Sheet:     filepath.ToSlash(r.Sheet),
		}
		for i := range e.Frames {
			e.Frames[i] = fmt.Sprintf("%s/%04d.webp", filepath.ToSlash(r.Dir), i)
		}
		m.Animations = append(m.Animations, e)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "batch: encode manifest")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "batch: write %s", path)
}
