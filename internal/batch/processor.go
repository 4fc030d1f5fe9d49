// Package batch exports animations as WebP frame sequences. Each job runs
// on its own player instance, so jobs share the loaded definition and its
// textures but nothing mutable.
package batch

import (
	"context"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"spine-renderer/internal/postprocess"
	"spine-renderer/internal/raster"
	"spine-renderer/internal/skel"
	"spine-renderer/player"
)

// Config holds the render settings shared by every job.
type Config struct {
	OutputDir   string
	Width       int
	Height      int
	Supersample int
	Margin      int
	FPS         float32
	// Duration overrides the animation length in seconds when positive.
	Duration   float32
	Background skel.Color
	GlowRadius float32
	// SheetColumns > 0 also writes sheet.webp per animation.
	SheetColumns int
	Workers      int
}

// Job renders one animation.
type Job struct {
	Animation string
	Skin      string
}

// Result holds the outcome of one job.
type Result struct {
	Animation string
	Frames    int
	Duration  float32
	Dir       string
	Sheet     string
	Success   bool
	Error     string
}

// Run renders all jobs using a worker pool. A cancelled context stops
// workers between frames; jobs that did not finish report the context
// error.
func Run(ctx context.Context, cfg Config, h *player.Handle, jobs []Job) []Result {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					log.Info().
						Int64("done", p).
						Int("total", total).
						Float64("rate", float64(p)/elapsed).
						Msg("batch: progress")
				}
			}
		}
	}()

	// Handle is not safe for concurrent use; instances are taken before the
	// workers start.
	instances := make([]*player.Handle, total)
	for i := range jobs {
		instances[i] = h.Instance()
	}

	// Worker pool
	jobChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(ctx, cfg, instances[idx], jobs[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	log.Info().Int("jobs", total).Dur("elapsed", time.Since(start)).Msg("batch: finished")
	return results
}

func processJob(ctx context.Context, cfg Config, h *player.Handle, job Job) Result {
	res := Result{Animation: job.Animation}
	if err := renderJob(ctx, cfg, h, job, &res); err != nil {
		res.Error = err.Error()
		log.Warn().Err(err).Str("animation", job.Animation).Msg("batch: job failed")
		return res
	}
	res.Success = true
	return res
}

// FrameCount returns the number of frames needed to cover duration at fps.
// A zero-length animation still renders one frame.
func FrameCount(duration, fps float32) int {
	n := int(math.Ceil(float64(duration * fps)))
	if n < 1 {
		n = 1
	}
	return n
}

func renderJob(ctx context.Context, cfg Config, h *player.Handle, job Job, res *Result) error {
	if job.Skin != "" {
		if err := h.SetSkin(job.Skin); err != nil {
			return err
		}
	}
	duration, ok := h.Duration(job.Animation)
	if !ok {
		return errors.Wrapf(player.ErrInvalidArgument, "batch: animation %q not found", job.Animation)
	}
	if cfg.Duration > 0 {
		duration = cfg.Duration
	}
	frames := FrameCount(duration, cfg.FPS)
	dt := 1 / cfg.FPS
	res.Duration = duration
	res.Frames = frames
	res.Dir = job.Animation

	// First pass: union of bounds over every frame, so the framing does
	// not move during the sequence.
	if err := h.SetAnimation(0, job.Animation, true); err != nil {
		return err
	}
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := -minX, -minY
	found := false
	for i := 0; i < frames; i++ {
		if i == 0 {
			h.Advance(0)
		} else {
			h.Advance(dt)
		}
		x0, y0, x1, y1, ok := h.Bounds()
		if !ok {
			continue
		}
		found = true
		minX, minY = min(minX, x0), min(minY, y0)
		maxX, maxY = max(maxX, x1), max(maxY, y1)
	}
	if !found {
		minX, minY, maxX, maxY = -1, -1, 1, 1
	}

	ss := max(cfg.Supersample, 1)
	canvas := raster.NewCanvas(cfg.Width*ss, cfg.Height*ss)
	canvas.SetTransform(raster.FitTransform(minX, minY, maxX, maxY,
		cfg.Width*ss, cfg.Height*ss, float32(cfg.Margin*ss)))
	canvas.SetGlowRadius(cfg.GlowRadius * float32(ss))

	// Second pass: render from the start.
	h.ClearTracks()
	if err := h.SetAnimation(0, job.Animation, true); err != nil {
		return err
	}
	var sheet []*image.NRGBA
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i == 0 {
			h.Advance(0)
		} else {
			h.Advance(dt)
		}
		canvas.Clear(cfg.Background)
		h.Draw(canvas)
		img := postprocess.Downsample(canvas.FrameBuffer().RGBA(), cfg.Width, cfg.Height)

		path := filepath.Join(cfg.OutputDir, job.Animation, fmt.Sprintf("%04d.webp", i))
		if err := postprocess.WriteWebP(path, img); err != nil {
			return err
		}
		if cfg.SheetColumns > 0 {
			sheet = append(sheet, img)
		}
	}

	if cfg.SheetColumns > 0 {
		res.Sheet = filepath.Join(job.Animation, "sheet.webp")
		img := postprocess.SpriteSheet(sheet, cfg.SheetColumns)
		if err := postprocess.WriteWebP(filepath.Join(cfg.OutputDir, res.Sheet), img); err != nil {
			return err
		}
	}
	return nil
}
