package raster

import "spine-renderer/internal/skel"

// blendPixel composites a premultiplied source color into dst[0:4].
//
//	normal    S + D*(1-Sa)
//	additive  min(1, S + D)
//	multiply  S*D + S*(1-Da) + D*(1-Sa)
//	screen    S + D - S*D
func blendPixel(dst []float32, sr, sg, sb, sa float32, mode skel.BlendMode) {
	d := dst[:4:4]
	switch mode {
	case skel.BlendAdditive:
		d[0] = min(1, sr+d[0])
		d[1] = min(1, sg+d[1])
		d[2] = min(1, sb+d[2])
		d[3] = min(1, sa+d[3])
	case skel.BlendMultiply:
		da := d[3]
		d[0] = sr*d[0] + sr*(1-da) + d[0]*(1-sa)
		d[1] = sg*d[1] + sg*(1-da) + d[1]*(1-sa)
		d[2] = sb*d[2] + sb*(1-da) + d[2]*(1-sa)
		d[3] = sa + da - sa*da
	case skel.BlendScreen:
		d[0] = sr + d[0] - sr*d[0]
		d[1] = sg + d[1] - sg*d[1]
		d[2] = sb + d[2] - sb*d[2]
		d[3] = sa + d[3] - sa*d[3]
	default:
		inv := 1 - sa
		d[0] = sr + d[0]*inv
		d[1] = sg + d[1]*inv
		d[2] = sb + d[2]*inv
		d[3] = sa + d[3]*inv
	}
}
