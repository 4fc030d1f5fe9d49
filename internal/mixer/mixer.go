// Package mixer advances animation tracks and blends them into a pose.
// Tracks are applied in ascending index order; a track whose animation was
// replaced fades in over the mix duration on top of the one it replaced.
package mixer

import (
	"math"

	"spine-renderer/internal/skel"
	"spine-renderer/internal/spineerr"
)

const (
	// MaxTracks bounds track indices to [0, MaxTracks).
	MaxTracks = 16
	// DefaultMix is the crossfade duration in seconds.
	DefaultMix = 0.3
)

// TrackState is the lifecycle state of a track.
type TrackState int

const (
	Empty TrackState = iota
	Playing
	FadingIn
)

func (s TrackState) String() string {
	switch s {
	case Playing:
		return "playing"
	case FadingIn:
		return "fading-in"
	}
	return "empty"
}

// Track is one playback channel.
type Track struct {
	Index     int
	Animation *skel.Animation
	Loop      bool
	TimeScale float32
	// Time is the local animation time in seconds.
	Time float32
	// MixTime counts unscaled seconds since the track started.
	MixTime     float32
	MixDuration float32

	// from is the animation this track replaced, applied underneath while
	// the fade is in progress.
	from *Track
}

// Weight returns the linear fade-in weight in [0, 1].
func (t *Track) Weight() float32 {
	if t.MixDuration <= 0 || t.MixTime >= t.MixDuration {
		return 1
	}
	return t.MixTime / t.MixDuration
}

// State reports whether the track is still fading in.
func (t *Track) State() TrackState {
	if t == nil || t.Animation == nil {
		return Empty
	}
	if t.Weight() < 1 {
		return FadingIn
	}
	return Playing
}

func (t *Track) advance(dt float32) {
	t.Time += dt * t.TimeScale
	d := t.Animation.Duration
	if t.Loop {
		if d <= 0 {
			t.Time = 0
		} else if t.Time >= d || t.Time < 0 {
			t.Time = float32(math.Mod(float64(t.Time), float64(d)))
			if t.Time < 0 {
				t.Time += d
			}
		}
	} else if t.Time > d {
		t.Time = d
	} else if t.Time < 0 {
		t.Time = 0
	}
	t.MixTime += dt
	if t.MixTime > t.MixDuration {
		t.MixTime = t.MixDuration
	}
}

// Entry describes one track for SetAnimations. A zero TimeScale plays at
// normal speed.
type Entry struct {
	Track     int
	Name      string
	Loop      bool
	TimeScale float32
}

// TrackInfo is a read-only snapshot of an active track.
type TrackInfo struct {
	Track     int
	Name      string
	Loop      bool
	TimeScale float32
	Time      float32
	Weight    float32
}

// Option configures a Mixer.
type Option func(*Mixer)

// WithDefaultMix sets the crossfade duration in seconds.
func WithDefaultMix(seconds float32) Option {
	return func(m *Mixer) {
		if seconds >= 0 {
			m.defaultMix = seconds
		}
	}
}

// WithMixCurve shapes the fade-in. f maps the linear weight in [0, 1] to
// the blend weight and should satisfy f(0) = 0 and f(1) = 1.
func WithMixCurve(f func(float32) float32) Option {
	return func(m *Mixer) {
		if f != nil {
			m.curve = f
		}
	}
}

// Linear is the default mix curve.
func Linear(w float32) float32 { return w }

// SmoothStep eases the fade in and out.
func SmoothStep(w float32) float32 { return w * w * (3 - 2*w) }

// Mixer owns the tracks of one skeleton instance. It is not safe for
// concurrent use.
type Mixer struct {
	def        *skel.Definition
	tracks     [MaxTracks]*Track
	defaultMix float32
	curve      func(float32) float32
	scratch    []float32
}

// New creates a mixer with every track empty.
func New(def *skel.Definition, opts ...Option) *Mixer {
	m := &Mixer{def: def, defaultMix: DefaultMix, curve: Linear}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Definition returns the shared definition the mixer plays.
func (m *Mixer) Definition() *skel.Definition { return m.def }

func (m *Mixer) lookup(track int, name string) (*skel.Animation, error) {
	if track < 0 || track >= MaxTracks {
		return nil, spineerr.InvalidArgument("mixer: track %d out of range [0, %d)", track, MaxTracks)
	}
	anim := m.def.FindAnimation(name)
	if anim == nil {
		return nil, spineerr.InvalidArgument("mixer: animation %q not found", name)
	}
	return anim, nil
}

// SetAnimation replaces the animation on a track and starts it at time 0.
// On a track that was empty it starts at full weight; otherwise it fades
// in over the default mix duration on top of the animation it replaced.
func (m *Mixer) SetAnimation(track int, name string, loop bool) (*Track, error) {
	anim, err := m.lookup(track, name)
	if err != nil {
		return nil, err
	}
	t := &Track{
		Index:       track,
		Animation:   anim,
		Loop:        loop,
		TimeScale:   1,
		MixDuration: m.defaultMix,
	}
	if prev := m.tracks[track]; prev != nil {
		prev.from = nil
		t.from = prev
	} else {
		t.MixTime = t.MixDuration
	}
	m.tracks[track] = t
	return t, nil
}

// SetAnimations clears every track, then sets each entry in order. The
// entries are validated first, so a failing call leaves the tracks as they
// were.
func (m *Mixer) SetAnimations(entries []Entry) error {
	if len(entries) == 0 {
		return spineerr.InvalidArgument("mixer: empty track list")
	}
	for _, e := range entries {
		if _, err := m.lookup(e.Track, e.Name); err != nil {
			return err
		}
	}
	m.ClearTracks()
	for _, e := range entries {
		t, err := m.SetAnimation(e.Track, e.Name, e.Loop)
		if err != nil {
			return err
		}
		if e.TimeScale != 0 {
			t.TimeScale = e.TimeScale
		}
	}
	return nil
}

// ClearTracks empties every track.
func (m *Mixer) ClearTracks() {
	for i := range m.tracks {
		m.tracks[i] = nil
	}
}

// ClearTrack empties one track. Out of range indices are ignored.
func (m *Mixer) ClearTrack(track int) {
	if track >= 0 && track < MaxTracks {
		m.tracks[track] = nil
	}
}

// Track returns the track at index, or nil when it is empty.
func (m *Mixer) Track(index int) *Track {
	if index < 0 || index >= MaxTracks {
		return nil
	}
	return m.tracks[index]
}

// ActiveTracks returns the non-empty tracks in index order.
func (m *Mixer) ActiveTracks() []TrackInfo {
	var out []TrackInfo
	for _, t := range m.tracks {
		if t == nil {
			continue
		}
		out = append(out, TrackInfo{
			Track:     t.Index,
			Name:      t.Animation.Name,
			Loop:      t.Loop,
			TimeScale: t.TimeScale,
			Time:      t.Time,
			Weight:    m.curve(t.Weight()),
		})
	}
	return out
}

// Advance moves every track forward by dt seconds. Local time is scaled by
// the track's time scale; the fade advances in unscaled time.
func (m *Mixer) Advance(dt float32) {
	for _, t := range m.tracks {
		if t == nil {
			continue
		}
		t.advance(dt)
		if t.from != nil {
			t.from.advance(dt)
			if t.Weight() >= 1 {
				t.from = nil
			}
		}
	}
}
