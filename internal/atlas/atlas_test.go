package atlas

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spine-renderer/internal/spineerr"
)

const legacyAtlas = `
hero.png
size: 64,32
format: RGBA8888
filter: Linear,Nearest
repeat: none
head
  rotate: false
  xy: 0, 0
  size: 16, 8
  orig: 20, 10
  offset: 2, 1
  index: -1
arm
  rotate: true
  xy: 16, 0
  size: 8, 16
  orig: 8, 16
  offset: 0, 0
  index: 3

fx.png
size: 8,8
format: RGBA8888
filter: Linear,Linear
repeat: xy
spark
  xy: 0, 0
  size: 8, 8
`

const modernAtlas = `
hero.png
	size: 64, 32
	filter: Linear, Linear
	pma: true
head
	bounds: 0, 0, 16, 8
	offsets: 2, 1, 20, 10
leg
	bounds: 16, 0, 8, 16
	rotate: 90
`

func TestParseLegacy(t *testing.T) {
	a, err := Parse(strings.NewReader(legacyAtlas))
	require.NoError(t, err)
	require.Len(t, a.Pages, 2)
	require.Len(t, a.Regions, 3)

	hero := a.Pages[0]
	assert.Equal(t, "hero.png", hero.Name)
	assert.Equal(t, 64, hero.Width)
	assert.Equal(t, "Nearest", hero.MagFilter)
	assert.False(t, hero.PMA)
	assert.Equal(t, "xy", a.Pages[1].Repeat)

	head, ok := a.FindRegion("head")
	require.True(t, ok)
	assert.Equal(t, 0, head.Page)
	assert.Equal(t, float32(2), head.OffsetX)
	assert.Equal(t, 20, head.OriginalWidth)
	assert.Equal(t, -1, head.Index)
	assert.InDelta(t, 0.25, head.U2, 1e-6)
	assert.InDelta(t, 0.25, head.V2, 1e-6)

	arm, ok := a.FindRegion("arm")
	require.True(t, ok)
	assert.True(t, arm.Rotated())
	assert.Equal(t, 3, arm.Index)
	assert.InDelta(t, 0.25, arm.U, 1e-6)
	assert.InDelta(t, 0.5, arm.U2, 1e-6)
	assert.InDelta(t, 0.25, arm.V2, 1e-6)

	spark, ok := a.FindRegion("spark")
	require.True(t, ok)
	assert.Equal(t, 1, spark.Page)
	assert.Equal(t, 8, spark.OriginalHeight)

	_, ok = a.FindRegion("missing")
	assert.False(t, ok)
}

func TestParseModern(t *testing.T) {
	a, err := Parse(strings.NewReader(modernAtlas))
	require.NoError(t, err)
	require.Len(t, a.Pages, 1)
	assert.True(t, a.Pages[0].PMA)

	head, _ := a.FindRegion("head")
	assert.Equal(t, 16, head.Width)
	assert.Equal(t, float32(1), head.OffsetY)
	assert.Equal(t, 10, head.OriginalHeight)

	leg, _ := a.FindRegion("leg")
	assert.True(t, leg.Rotated())
	assert.Equal(t, 90, leg.Degrees)
}

func TestParseErrors(t *testing.T) {
	for name, src := range map[string]string{
		"empty":    "",
		"bad size": "a.png\nsize: x, 1\n",
		"bad xy":   "a.png\nsize: 4, 4\nr\n  xy: 1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(src))
			assert.True(t, errors.Is(err, spineerr.ErrMalformedInput), "got %v", err)
		})
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, f.Close())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hero.atlas")
	// Page size omitted; the bitmap size is used instead.
	require.NoError(t, os.WriteFile(path, []byte("Hero.PNG\nformat: RGBA8888\nhead\n  xy: 2, 0\n  size: 2, 4\n"), 0644))
	writePNG(t, filepath.Join(dir, "hero.png"), 8, 4)

	a, err := Load(path, nil)
	require.NoError(t, err)
	pg := a.Pages[0]
	require.NotNil(t, pg.Texture)
	assert.Equal(t, 8, pg.Width)
	assert.Equal(t, 4, pg.Height)

	head, _ := a.FindRegion("head")
	assert.InDelta(t, 0.25, head.U, 1e-6)
	assert.InDelta(t, 0.5, head.U2, 1e-6)
	assert.InDelta(t, 1, head.V2, 1e-6)
}

func TestLoadMissingPage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hero.atlas")
	require.NoError(t, os.WriteFile(path, []byte(legacyAtlas), 0644))

	_, err := Load(path, nil)
	assert.True(t, errors.Is(err, spineerr.ErrMissingTexture), "got %v", err)

	_, err = Load(filepath.Join(dir, "none.atlas"), nil)
	assert.True(t, errors.Is(err, spineerr.ErrMalformedInput), "got %v", err)
}
