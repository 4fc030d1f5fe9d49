package clipping

const epsilon = 1e-6

// cross is the z of (b-a)×(c-a); positive when a, b, c turn counter-clockwise.
func cross(ax, ay, bx, by, cx, cy float32) float32 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

func signedArea(poly []float32) float32 {
	var area float32
	n := len(poly)
	for i := 0; i < n; i += 2 {
		j := (i + 2) % n
		area += poly[i]*poly[j+1] - poly[j]*poly[i+1]
	}
	return area / 2
}

// makeCounterClockwise reverses poly in place when it winds clockwise.
func makeCounterClockwise(poly []float32) {
	if signedArea(poly) >= 0 {
		return
	}
	for i, j := 0, len(poly)-2; i < j; i, j = i+2, j-2 {
		poly[i], poly[j] = poly[j], poly[i]
		poly[i+1], poly[j+1] = poly[j+1], poly[i+1]
	}
}

func pointInTriangle(px, py float32, poly []float32, a, b, c int) bool {
	ax, ay := poly[a*2], poly[a*2+1]
	bx, by := poly[b*2], poly[b*2+1]
	cx, cy := poly[c*2], poly[c*2+1]
	return cross(ax, ay, bx, by, px, py) >= 0 &&
		cross(bx, by, cx, cy, px, py) >= 0 &&
		cross(cx, cy, ax, ay, px, py) >= 0
}

// triangulate ear-clips a counter-clockwise simple polygon of x,y pairs and
// returns vertex index triples.
func triangulate(poly []float32) []int {
	n := len(poly) / 2
	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}
	tris := make([]int, 0, (n-2)*3)
	for len(remaining) > 3 {
		m := len(remaining)
		ear := -1
		for i := 0; i < m && ear < 0; i++ {
			prev, cur, next := remaining[(i+m-1)%m], remaining[i], remaining[(i+1)%m]
			if isEar(poly, remaining, prev, cur, next) {
				ear = i
			}
		}
		if ear < 0 {
			// Self-intersecting or degenerate input: cut the first corner.
			ear = 0
		}
		tris = append(tris, remaining[(ear+m-1)%m], remaining[ear], remaining[(ear+1)%m])
		remaining = append(remaining[:ear], remaining[ear+1:]...)
	}
	return append(tris, remaining[0], remaining[1], remaining[2])
}

func isEar(poly []float32, remaining []int, prev, cur, next int) bool {
	if cross(poly[prev*2], poly[prev*2+1], poly[cur*2], poly[cur*2+1], poly[next*2], poly[next*2+1]) <= epsilon {
		return false
	}
	for _, v := range remaining {
		if v == prev || v == cur || v == next {
			continue
		}
		if pointInTriangle(poly[v*2], poly[v*2+1], poly, prev, cur, next) {
			return false
		}
	}
	return true
}

// decompose merges triangles sharing an edge while the result stays
// convex, and returns the convex parts as counter-clockwise index rings.
func decompose(poly []float32, tris []int) [][]int {
	parts := make([][]int, 0, len(tris)/3)
	for i := 0; i+2 < len(tris); i += 3 {
		parts = append(parts, []int{tris[i], tris[i+1], tris[i+2]})
	}
	for merged := true; merged; {
		merged = false
	search:
		for a := 0; a < len(parts); a++ {
			for b := a + 1; b < len(parts); b++ {
				if m, ok := mergeConvex(poly, parts[a], parts[b]); ok {
					parts[a] = m
					parts = append(parts[:b], parts[b+1:]...)
					merged = true
					break search
				}
			}
		}
	}
	return parts
}

// mergeConvex joins two counter-clockwise rings along a shared edge when
// the union is convex.
func mergeConvex(poly []float32, a, b []int) ([]int, bool) {
	for i := range a {
		a0, a1 := a[i], a[(i+1)%len(a)]
		for j := range b {
			if b[j] != a1 || b[(j+1)%len(b)] != a0 {
				continue
			}
			m := make([]int, 0, len(a)+len(b)-2)
			for k := 0; k < len(a); k++ {
				m = append(m, a[(i+1+k)%len(a)])
			}
			for k := 2; k < len(b); k++ {
				m = append(m, b[(j+k)%len(b)])
			}
			if !convex(poly, m) {
				return nil, false
			}
			return m, true
		}
	}
	return nil, false
}

func convex(poly []float32, ring []int) bool {
	n := len(ring)
	for i := range ring {
		p, c, q := ring[(i+n-1)%n], ring[i], ring[(i+1)%n]
		if cross(poly[p*2], poly[p*2+1], poly[c*2], poly[c*2+1], poly[q*2], poly[q*2+1]) < -epsilon {
			return false
		}
	}
	return true
}

// containsTriangle reports whether the triangle lies inside poly without
// crossing any polygon edge. Points on the boundary count as inside.
func containsTriangle(poly []float32, tri *[6]float32) bool {
	for i := 0; i < 6; i += 2 {
		if !pointInPolygon(poly, tri[i], tri[i+1]) {
			return false
		}
	}
	n := len(poly)
	for e := 0; e < n; e += 2 {
		ax, ay := poly[e], poly[e+1]
		bx, by := poly[(e+2)%n], poly[(e+3)%n]
		if strictlyInTriangle(tri, ax, ay) {
			return false
		}
		for i := 0; i < 6; i += 2 {
			j := (i + 2) % 6
			if segmentsCross(ax, ay, bx, by, tri[i], tri[i+1], tri[j], tri[j+1]) {
				return false
			}
		}
	}
	return true
}

func pointInPolygon(poly []float32, x, y float32) bool {
	in := false
	n := len(poly)
	for i, j := 0, n-2; i < n; j, i = i, i+2 {
		xi, yi, xj, yj := poly[i], poly[i+1], poly[j], poly[j+1]
		if onSegment(xi, yi, xj, yj, x, y) {
			return true
		}
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			in = !in
		}
	}
	return in
}

func onSegment(ax, ay, bx, by, px, py float32) bool {
	if c := cross(ax, ay, bx, by, px, py); c > epsilon || c < -epsilon {
		return false
	}
	return px >= min(ax, bx)-epsilon && px <= max(ax, bx)+epsilon &&
		py >= min(ay, by)-epsilon && py <= max(ay, by)+epsilon
}

// segmentsCross reports a proper crossing; touching endpoints and
// collinear overlaps do not count.
func segmentsCross(ax, ay, bx, by, cx, cy, dx, dy float32) bool {
	d1, d2 := cross(ax, ay, bx, by, cx, cy), cross(ax, ay, bx, by, dx, dy)
	d3, d4 := cross(cx, cy, dx, dy, ax, ay), cross(cx, cy, dx, dy, bx, by)
	return opposite(d1, d2) && opposite(d3, d4)
}

func opposite(a, b float32) bool {
	return (a > epsilon && b < -epsilon) || (a < -epsilon && b > epsilon)
}

func strictlyInTriangle(tri *[6]float32, px, py float32) bool {
	d1 := cross(tri[0], tri[1], tri[2], tri[3], px, py)
	d2 := cross(tri[2], tri[3], tri[4], tri[5], px, py)
	d3 := cross(tri[4], tri[5], tri[0], tri[1], px, py)
	return (d1 > epsilon && d2 > epsilon && d3 > epsilon) ||
		(d1 < -epsilon && d2 < -epsilon && d3 < -epsilon)
}
