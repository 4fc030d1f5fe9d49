package skel

// CurveKind selects how a timeline interpolates between two keys.
type CurveKind uint8

const (
	CurveLinear CurveKind = iota
	CurveStepped
	CurveBezier
)

// Curve describes the interpolation from one key to the next. Bezier
// control points are absolute (time, value) pairs.
type Curve struct {
	Kind     CurveKind
	CX1, CY1 float32
	CX2, CY2 float32
}

// Stepped holds the previous key's value until the next key.
var Stepped = Curve{Kind: CurveStepped}

// percentCurve converts 3.8 style normalized controls into absolute
// control points between (t0,v0) and (t1,v1).
func percentCurve(c1, c2, c3, c4, t0, v0, t1, v1 float32) Curve {
	return Curve{
		Kind: CurveBezier,
		CX1:  t0 + c1*(t1-t0),
		CY1:  v0 + c2*(v1-v0),
		CX2:  t0 + c3*(t1-t0),
		CY2:  v0 + c4*(v1-v0),
	}
}

const bezierIterations = 24

// interpolate evaluates the curve at time between keys (t0,v0) and (t1,v1).
func (c Curve) interpolate(time, t0, v0, t1, v1 float32) float32 {
	switch c.Kind {
	case CurveStepped:
		return v0
	case CurveBezier:
		return bezier(time, t0, v0, c.CX1, c.CY1, c.CX2, c.CY2, t1, v1)
	}
	if t1 <= t0 {
		return v1
	}
	return v0 + (v1-v0)*(time-t0)/(t1-t0)
}

// bezier solves x(s) = time by bisection and returns y(s).
func bezier(time, x0, y0, cx1, cy1, cx2, cy2, x1, y1 float32) float32 {
	lo, hi := float32(0), float32(1)
	s := float32(0.5)
	for i := 0; i < bezierIterations; i++ {
		s = (lo + hi) / 2
		if cubic(s, x0, cx1, cx2, x1) < time {
			lo = s
		} else {
			hi = s
		}
	}
	return cubic(s, y0, cy1, cy2, y1)
}

func cubic(s, p0, p1, p2, p3 float32) float32 {
	u := 1 - s
	return u*u*u*p0 + 3*u*u*s*p1 + 3*u*s*s*p2 + s*s*s*p3
}

// CurveTimeline stores keyed frames of one or more channels. Frames holds,
// per key, the time followed by Channels values. Curves holds one curve per
// key interval and channel at index frame*Channels+channel.
type CurveTimeline struct {
	Channels int
	Frames   []float32
	Curves   []Curve
}

func newCurveTimeline(channels, frameCount int) CurveTimeline {
	return CurveTimeline{
		Channels: channels,
		Frames:   make([]float32, frameCount*(channels+1)),
		Curves:   make([]Curve, frameCount*channels),
	}
}

// FrameCount returns the number of keys.
func (t *CurveTimeline) FrameCount() int {
	if t.Channels < 0 {
		return 0
	}
	return len(t.Frames) / (t.Channels + 1)
}

// FrameTime returns the time of key i.
func (t *CurveTimeline) FrameTime(i int) float32 { return t.Frames[i*(t.Channels+1)] }

// Value returns channel c of key i.
func (t *CurveTimeline) Value(i, c int) float32 { return t.Frames[i*(t.Channels+1)+1+c] }

func (t *CurveTimeline) setFrame(i int, time float32, values ...float32) {
	base := i * (t.Channels + 1)
	t.Frames[base] = time
	copy(t.Frames[base+1:base+1+t.Channels], values)
}

func (t *CurveTimeline) setCurve(frame, channel int, c Curve) {
	t.Curves[frame*t.Channels+channel] = c
}

// Duration is the time of the last key.
func (t *CurveTimeline) Duration() float32 {
	n := t.FrameCount()
	if n == 0 {
		return 0
	}
	return t.FrameTime(n - 1)
}

// Sample writes the interpolated channel values at time into out and
// reports false when time precedes the first key.
func (t *CurveTimeline) Sample(time float32, out []float32) bool {
	n := t.FrameCount()
	if n == 0 || time < t.FrameTime(0) {
		return false
	}
	i := searchFrame(n, time, t.FrameTime)
	if i == n-1 {
		for c := 0; c < t.Channels; c++ {
			out[c] = t.Value(i, c)
		}
		return true
	}
	t0, t1 := t.FrameTime(i), t.FrameTime(i+1)
	for c := 0; c < t.Channels; c++ {
		out[c] = t.Curves[i*t.Channels+c].interpolate(time, t0, t.Value(i, c), t1, t.Value(i+1, c))
	}
	return true
}

// searchFrame returns the last key whose time is <= time. The caller
// guarantees time >= the first key time.
func searchFrame(n int, time float32, at func(int) float32) int {
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if at(mid) <= time {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
