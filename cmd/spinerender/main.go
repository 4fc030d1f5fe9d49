package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"spine-renderer/internal/batch"
	"spine-renderer/internal/config"
	"spine-renderer/internal/skel"
	"spine-renderer/player"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a YAML config file")
	atlasPath := flag.String("atlas", "", "Path to the .atlas file")
	skeletonPath := flag.String("skeleton", "", "Path to the skeleton (.json or binary)")
	version := flag.String("version", "", "Skeleton version: 3.8 or 4.1 (default: 4.1)")
	animations := flag.String("anim", "", "Comma-separated animations to render (default: all)")
	skin := flag.String("skin", "", "Skin to activate")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	fps := flag.Float64("fps", 0, "Frames per second (default: 30)")
	width := flag.Int("width", 0, "Frame width in pixels (default: 512)")
	height := flag.Int("height", 0, "Frame height in pixels (default: width)")
	supersample := flag.Int("supersample", 0, "Supersampling factor (default: 2)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	glow := flag.Bool("glow", false, "Blur additive slots into a glow")
	sheet := flag.Int("sheet", 0, "Also write a sprite sheet with this many columns")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	// Logging
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Load config
	cfg := &config.Config{}
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatal().Err(err).Msg("loading config")
		}
	}

	// CLI flags override config file
	var anims []string
	if *animations != "" {
		anims = strings.Split(*animations, ",")
	}
	cfg.Resolve(config.Flags{
		Atlas:       *atlasPath,
		Skeleton:    *skeletonPath,
		OutputDir:   *outputDir,
		Version:     *version,
		Animations:  anims,
		Skin:        *skin,
		FPS:         float32(*fps),
		Width:       *width,
		Height:      *height,
		Supersample: *supersample,
		Workers:     *workers,
		Glow:        *glow,
		Sheet:       *sheet,
	})

	if cfg.Atlas == "" || cfg.Skeleton == "" {
		log.Fatal().Msg("both -atlas and -skeleton are required (or set them in -config)")
	}

	v, err := player.ParseVersion(cfg.Version)
	if err != nil {
		log.Fatal().Err(err).Msg("version")
	}
	background := skel.Color{}
	if cfg.Background != "" {
		background, err = skel.ParseHexColor(cfg.Background)
		if err != nil {
			log.Fatal().Err(err).Str("background", cfg.Background).Msg("background color")
		}
	}

	h, err := player.Load(cfg.Atlas, cfg.Skeleton, v,
		player.WithDefaultMix(cfg.Mix),
		player.WithGlow(cfg.Glow),
		player.WithSkin(cfg.Skin),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("loading skeleton")
	}

	names := cfg.Animations
	if len(names) == 0 {
		names = h.AnimationNames()
	}
	if len(names) == 0 {
		log.Info().Str("skeleton", h.Name()).Msg("no animations to render")
		return
	}
	jobs := make([]batch.Job, len(names))
	for i, n := range names {
		jobs[i] = batch.Job{Animation: strings.TrimSpace(n)}
	}

	log.Info().
		Str("skeleton", h.Name()).
		Int("animations", len(jobs)).
		Int("workers", cfg.Workers).
		Str("output", cfg.OutputDir).
		Msg("Spine skeleton renderer → WebP")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()

	// Run batch
	batchCfg := batch.Config{
		OutputDir:    cfg.OutputDir,
		Width:        cfg.Width,
		Height:       cfg.Height,
		Supersample:  cfg.Supersample,
		Margin:       cfg.Margin,
		FPS:          cfg.FPS,
		Duration:     cfg.Duration,
		Background:   background,
		GlowRadius:   cfg.GlowRadius,
		SheetColumns: cfg.SheetColumns,
		Workers:      cfg.Workers,
	}

	results := batch.Run(ctx, batchCfg, h, jobs)

	// Count results
	success, frames := 0, 0
	var failed []batch.Result
	for _, r := range results {
		if r.Success {
			success++
			frames += r.Frames
		} else {
			failed = append(failed, r)
		}
	}
	log.Info().
		Int("rendered", success).
		Int("total", len(results)).
		Int("frames", frames).
		Dur("elapsed", time.Since(start)).
		Msg("done")

	for _, r := range failed {
		log.Error().Str("animation", r.Animation).Msg(r.Error)
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Warn().Err(err).Msg("manifest dir")
	} else if err := batch.WriteManifest(manifestPath, h.Name(), batchCfg, results); err != nil {
		log.Warn().Err(err).Msg("manifest write failed")
	} else {
		log.Info().Str("path", manifestPath).Msg("manifest")
	}

	if len(failed) > 0 {
		os.Exit(1)
	}
}
