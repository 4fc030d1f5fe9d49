package raster

import (
	"image"
	"math"
)

// gaussianKernel returns a normalized 1D kernel of 2*ceil(3σ)+1 taps.
func gaussianKernel(sigma float32) []float32 {
	if sigma <= 0 {
		return []float32{1}
	}
	half := int(math.Ceil(float64(sigma) * 3))
	kernel := make([]float32, half*2+1)
	twoSigmaSq := 2 * float64(sigma) * float64(sigma)
	var sum float64
	for i := range kernel {
		x := float64(i - half)
		v := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(v)
		sum += v
	}
	inv := float32(1 / sum)
	for i := range kernel {
		kernel[i] *= inv
	}
	return kernel
}

// blur runs a separable Gaussian over the rect of fb in place, using tmp
// as scratch. Samples outside rect read as transparent.
func blur(fb *FrameBuffer, rect image.Rectangle, kernel []float32, tmp []float32) []float32 {
	rect = rect.Intersect(fb.Bounds())
	if rect.Empty() || len(kernel) == 1 {
		return tmp
	}
	w, h := rect.Dx(), rect.Dy()
	n := w * h * 4
	if cap(tmp) < n {
		tmp = make([]float32, n)
	}
	tmp = tmp[:n]
	half := len(kernel) / 2

	// Horizontal: fb -> tmp.
	for y := 0; y < h; y++ {
		row := (rect.Min.Y + y) * fb.Width
		for x := 0; x < w; x++ {
			var acc [4]float32
			for k, weight := range kernel {
				sx := x + k - half
				if sx < 0 || sx >= w {
					continue
				}
				i := (row + rect.Min.X + sx) * 4
				acc[0] += fb.Color[i] * weight
				acc[1] += fb.Color[i+1] * weight
				acc[2] += fb.Color[i+2] * weight
				acc[3] += fb.Color[i+3] * weight
			}
			copy(tmp[(y*w+x)*4:], acc[:])
		}
	}

	// Vertical: tmp -> fb.
	for y := 0; y < h; y++ {
		row := (rect.Min.Y + y) * fb.Width
		for x := 0; x < w; x++ {
			var acc [4]float32
			for k, weight := range kernel {
				sy := y + k - half
				if sy < 0 || sy >= h {
					continue
				}
				i := (sy*w + x) * 4
				acc[0] += tmp[i] * weight
				acc[1] += tmp[i+1] * weight
				acc[2] += tmp[i+2] * weight
				acc[3] += tmp[i+3] * weight
			}
			copy(fb.Color[(row+rect.Min.X+x)*4:], acc[:])
		}
	}
	return tmp
}
