package skel

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"spine-renderer/internal/atlas"
	"spine-renderer/internal/spineerr"
)

// Load reads an atlas with its page images and a skeleton file, and
// returns a complete Definition. A skeleton path ending in ".json" is read
// as JSON, anything else as binary. version selects the data layout and
// must match the version declared in the file.
func Load(atlasPath, skeletonPath string, version Version) (*Definition, error) {
	if version != Version38 && version != Version41 {
		return nil, errors.Wrapf(spineerr.ErrUnsupportedVersion, "skel: loader version %d", version)
	}
	a, err := atlas.Load(atlasPath, nil)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(skeletonPath)
	if err != nil {
		return nil, errors.Wrapf(spineerr.ErrMalformedInput, "skel: read %s: %v", skeletonPath, err)
	}
	isJSON := filepath.Ext(skeletonPath) == ".json"
	d, err := Decode(data, isJSON, version, a)
	if err != nil {
		return nil, errors.WithMessagef(err, "skel: %s", skeletonPath)
	}
	d.Name = strings.TrimSuffix(filepath.Base(skeletonPath), filepath.Ext(skeletonPath))

	log.Debug().
		Str("skeleton", d.Name).
		Str("version", d.SpineVersion).
		Int("bones", len(d.Bones)).
		Int("slots", len(d.Slots)).
		Int("skins", len(d.Skins)).
		Int("animations", len(d.Animations)).
		Int("pages", len(a.Pages)).
		Msg("skel: loaded")
	return d, nil
}

// Decode parses skeleton data already in memory. a may be nil, in which
// case attachments are not bound to atlas regions.
func Decode(data []byte, isJSON bool, version Version, a *atlas.Atlas) (*Definition, error) {
	if isJSON {
		return readJSON(data, version, a)
	}
	return readBinary(data, version, a)
}
