package raster

import "spine-renderer/internal/skel"

// Shade applies two-color tinting to a texel. light must be premultiplied.
// dark adds color where the texel is dark; dark.a is 1 for premultiplied
// pages and 0 for straight-alpha pages:
//
//	rgb = ((a - 1) * dark.a + 1 - rgb) * dark + rgb * light
//	a   = a * light.a
func Shade(r, g, b, a float32, light, dark skel.Color) (float32, float32, float32, float32) {
	k := (a-1)*dark.A + 1
	return (k-r)*dark.R + r*light.R,
		(k-g)*dark.G + g*light.G,
		(k-b)*dark.B + b*light.B,
		a * light.A
}

// premultiplyLight converts a straight-alpha tint to premultiplied form.
func premultiplyLight(c skel.Color) skel.Color {
	return skel.Color{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}
