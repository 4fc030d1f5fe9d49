package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds input paths, playback and render settings for frame export.
type Config struct {
	// Paths. Relative paths resolve against BaseDir.
	Atlas     string `yaml:"atlas"`
	Skeleton  string `yaml:"skeleton"`
	OutputDir string `yaml:"output_dir"`
	// Version selects the skeleton layout, "3.8" or "4.1".
	Version string `yaml:"version"`

	// Playback
	Animations []string `yaml:"animations,omitempty"` // empty renders every animation
	Skin       string   `yaml:"skin,omitempty"`
	FPS        float32  `yaml:"fps"`
	Duration   float32  `yaml:"duration,omitempty"` // seconds per animation, 0 = animation length
	Mix        float32  `yaml:"mix"`

	// Render settings
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Supersample int     `yaml:"supersample"`
	Margin      int     `yaml:"margin"`
	Background  string  `yaml:"background,omitempty"` // hex RRGGBBAA, empty is transparent
	Glow        bool    `yaml:"glow"`
	GlowRadius  float32 `yaml:"glow_radius,omitempty"`
	Workers     int     `yaml:"workers"`

	// SheetColumns > 0 also writes each animation as one sprite sheet.
	SheetColumns int `yaml:"sheet_columns,omitempty"`

	// BaseDir is the directory of the loaded file.
	BaseDir string `yaml:"-"`
}

// Load reads a YAML config file. Fields not set in the file keep their zero
// values until Resolve.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	c.BaseDir = filepath.Dir(path)
	return &c, nil
}

// Save writes c as YAML.
func Save(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "config: encode")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "config: write %s", path)
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Atlas       string
	Skeleton    string
	OutputDir   string
	Version     string
	Animations  []string
	Skin        string
	FPS         float32
	Width       int
	Height      int
	Supersample int
	Workers     int
	Glow        bool
	Sheet       int
}

// Resolve applies CLI overrides, resolves relative paths and fills in
// defaults. Flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.Atlas != "" {
		c.Atlas = flags.Atlas
	}
	if flags.Skeleton != "" {
		c.Skeleton = flags.Skeleton
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Version != "" {
		c.Version = flags.Version
	}
	if len(flags.Animations) > 0 {
		c.Animations = flags.Animations
	}
	if flags.Skin != "" {
		c.Skin = flags.Skin
	}
	if flags.FPS > 0 {
		c.FPS = flags.FPS
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Glow {
		c.Glow = true
	}
	if flags.Sheet > 0 {
		c.SheetColumns = flags.Sheet
	}

	c.Atlas = c.resolvePath(c.Atlas)
	c.Skeleton = c.resolvePath(c.Skeleton)
	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}
	c.OutputDir = c.resolvePath(c.OutputDir)

	if c.Version == "" {
		c.Version = "4.1"
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.Mix <= 0 {
		c.Mix = 0.3
	}
	if c.Width <= 0 {
		c.Width = 512
	}
	if c.Height <= 0 {
		c.Height = c.Width
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Margin <= 0 {
		c.Margin = 16
	}
	if c.GlowRadius <= 0 {
		c.GlowRadius = 15
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

func (c *Config) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}
