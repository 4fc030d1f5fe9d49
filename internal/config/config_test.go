package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	var c Config
	c.Resolve(Flags{})
	assert.Equal(t, "4.1", c.Version)
	assert.Equal(t, float32(30), c.FPS)
	assert.Equal(t, float32(0.3), c.Mix)
	assert.Equal(t, 512, c.Width)
	assert.Equal(t, 512, c.Height)
	assert.Equal(t, 2, c.Supersample)
	assert.Equal(t, 16, c.Margin)
	assert.Equal(t, float32(15), c.GlowRadius)
	assert.Equal(t, runtime.NumCPU(), c.Workers)
	assert.Equal(t, "renders", c.OutputDir)
}

func TestLoadSaveAndOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "render.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
atlas: hero.atlas
skeleton: /abs/hero.skel
version: "3.8"
animations: [walk, run]
fps: 24
width: 256
height: 128
workers: 3
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, c.BaseDir)
	assert.Equal(t, []string{"walk", "run"}, c.Animations)

	c.Resolve(Flags{Width: 300, Animations: []string{"idle"}, Glow: true, Sheet: 4})
	assert.Equal(t, filepath.Join(dir, "hero.atlas"), c.Atlas)
	assert.Equal(t, "/abs/hero.skel", c.Skeleton)
	assert.Equal(t, filepath.Join(dir, "renders"), c.OutputDir)
	assert.Equal(t, "3.8", c.Version)
	assert.Equal(t, float32(24), c.FPS)
	assert.Equal(t, 300, c.Width)
	assert.Equal(t, 128, c.Height)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, []string{"idle"}, c.Animations)
	assert.True(t, c.Glow)
	assert.Equal(t, 4, c.SheetColumns)

	out := filepath.Join(dir, "saved.yaml")
	require.NoError(t, Save(out, c))
	again, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, c.Atlas, again.Atlas)
	assert.Equal(t, c.Width, again.Width)
	assert.Equal(t, c.Animations, again.Animations)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: [1"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}
