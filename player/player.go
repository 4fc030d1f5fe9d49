// Package player is the host-facing interface of the renderer: load a
// skeleton, drive its animation tracks and draw it onto a Surface.
//
// A Handle is one on-screen instance and must not be used from more than
// one goroutine at a time. Instances created with Instance share the
// loaded definition and its textures read-only.
package player

import (
	"github.com/rs/zerolog/log"

	"spine-renderer/internal/mixer"
	"spine-renderer/internal/render"
	"spine-renderer/internal/skel"
	"spine-renderer/internal/skeleton"
	"spine-renderer/internal/spineerr"
)

// Version selects the skeleton data layout.
type Version = skel.Version

const (
	Version38 = skel.Version38
	Version41 = skel.Version41
)

// ParseVersion parses "3.8" or "4.1".
func ParseVersion(s string) (Version, error) { return skel.ParseVersion(s) }

// Errors returned by Load and the track operations. Test with errors.Is.
var (
	ErrMalformedInput     = spineerr.ErrMalformedInput
	ErrMissingTexture     = spineerr.ErrMissingTexture
	ErrUnsupportedVersion = spineerr.ErrUnsupportedVersion
	ErrInvalidArgument    = spineerr.ErrInvalidArgument
)

// MaxTracks bounds track indices to [0, MaxTracks).
const MaxTracks = mixer.MaxTracks

type (
	// Surface receives draw calls in back-to-front order.
	Surface = render.Surface
	// DrawCall is one slot's textured triangle batch.
	DrawCall = render.DrawCall
)

// TrackSpec describes one playback track. A zero TimeScale plays at
// normal speed.
type TrackSpec struct {
	Track     int
	Name      string
	Loop      bool
	TimeScale float32
}

type options struct {
	mix   []mixer.Option
	glow  bool
	skin  string
	scale float32
}

// Option configures a Handle.
type Option func(*options)

// WithDefaultMix sets the crossfade duration in seconds.
func WithDefaultMix(seconds float32) Option {
	return func(o *options) { o.mix = append(o.mix, mixer.WithDefaultMix(seconds)) }
}

// WithMixCurve shapes the crossfade weight, see mixer.SmoothStep.
func WithMixCurve(f func(float32) float32) Option {
	return func(o *options) { o.mix = append(o.mix, mixer.WithMixCurve(f)) }
}

// WithGlow marks additive slots for the surface's glow pass.
func WithGlow(on bool) Option {
	return func(o *options) { o.glow = on }
}

// WithSkin activates a skin on load.
func WithSkin(name string) Option {
	return func(o *options) { o.skin = name }
}

// WithScale scales the skeleton root.
func WithScale(s float32) Option {
	return func(o *options) { o.scale = s }
}

// Handle is a loaded skeleton instance.
type Handle struct {
	def        *skel.Definition
	opts       options
	pose       *skeleton.Pose
	mixer      *mixer.Mixer
	compositor render.Compositor
}

// Load reads the atlas, its page images and the skeleton file. Skeleton
// paths ending in ".json" are parsed as JSON, anything else as binary.
// No handle is returned on error.
func Load(atlasPath, skeletonPath string, version Version, opts ...Option) (*Handle, error) {
	def, err := skel.Load(atlasPath, skeletonPath, version)
	if err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	h, err := newHandle(def, o)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("skeleton", def.Name).Strs("animations", def.AnimationNames()).Msg("player: loaded")
	return h, nil
}

func newHandle(def *skel.Definition, o options) (*Handle, error) {
	h := &Handle{
		def:   def,
		opts:  o,
		pose:  skeleton.NewPose(def),
		mixer: mixer.New(def, o.mix...),
	}
	h.compositor.Glow = o.glow
	if o.scale != 0 {
		h.pose.ScaleX, h.pose.ScaleY = o.scale, o.scale
	}
	if o.skin != "" {
		if err := h.pose.SetSkin(o.skin); err != nil {
			return nil, err
		}
		h.pose.SetSlotsToSetupPose()
	}
	h.pose.UpdateWorldTransforms()
	return h, nil
}

// Instance returns a new handle sharing this handle's definition, in the
// setup pose with no tracks, configured with the same options.
func (h *Handle) Instance() *Handle {
	n, err := newHandle(h.def, h.opts)
	if err != nil {
		// The skin was validated when h was created.
		panic(err)
	}
	return n
}

// Name is the skeleton file name without extension.
func (h *Handle) Name() string { return h.def.Name }

// AnimationNames lists animations in declaration order.
func (h *Handle) AnimationNames() []string { return h.def.AnimationNames() }

// Duration returns the length of an animation in seconds.
func (h *Handle) Duration(name string) (float32, bool) {
	a := h.def.FindAnimation(name)
	if a == nil {
		return 0, false
	}
	return a.Duration, true
}

// SkinNames lists skins in declaration order.
func (h *Handle) SkinNames() []string {
	names := make([]string, len(h.def.Skins))
	for i, s := range h.def.Skins {
		names[i] = s.Name
	}
	return names
}

// SetSkin activates a skin by name; an empty name shows the default skin
// only.
func (h *Handle) SetSkin(name string) error {
	if err := h.pose.SetSkin(name); err != nil {
		return err
	}
	h.opts.skin = name
	return nil
}

// SetAnimation replaces the animation on a track. A track that was playing
// crossfades into the new animation.
func (h *Handle) SetAnimation(track int, name string, loop bool) error {
	_, err := h.mixer.SetAnimation(track, name, loop)
	return err
}

// SetAnimations clears every track and starts the given ones. It fails
// with ErrInvalidArgument on an empty list and leaves the tracks unchanged
// when any entry is invalid.
func (h *Handle) SetAnimations(tracks []TrackSpec) error {
	entries := make([]mixer.Entry, len(tracks))
	for i, t := range tracks {
		entries[i] = mixer.Entry{Track: t.Track, Name: t.Name, Loop: t.Loop, TimeScale: t.TimeScale}
	}
	return h.mixer.SetAnimations(entries)
}

// ClearTracks stops every track.
func (h *Handle) ClearTracks() { h.mixer.ClearTracks() }

// ActiveTracks returns the playing tracks in index order.
func (h *Handle) ActiveTracks() []TrackSpec {
	infos := h.mixer.ActiveTracks()
	out := make([]TrackSpec, len(infos))
	for i, t := range infos {
		out[i] = TrackSpec{Track: t.Track, Name: t.Name, Loop: t.Loop, TimeScale: t.TimeScale}
	}
	return out
}

// Advance moves time forward by dt seconds and poses the skeleton.
func (h *Handle) Advance(dt float32) {
	h.mixer.Advance(dt)
	h.mixer.Apply(h.pose)
	h.pose.UpdateWorldTransforms()
}

// Draw submits the current pose to s and returns the number of draw calls.
func (h *Handle) Draw(s Surface) int { return h.compositor.Draw(h.pose, s) }

// Bounds returns the world-space box of everything Draw would submit.
func (h *Handle) Bounds() (minX, minY, maxX, maxY float32, ok bool) {
	return h.compositor.Bounds(h.pose)
}

// SetPosition moves the skeleton root in world space.
func (h *Handle) SetPosition(x, y float32) {
	h.pose.X, h.pose.Y = x, y
	h.pose.UpdateWorldTransforms()
}

// BoneWorldRotation returns a bone's world rotation in degrees.
func (h *Handle) BoneWorldRotation(bone string) (float32, bool) {
	b := h.pose.FindBone(bone)
	if b == nil {
		return 0, false
	}
	return b.WorldRotation(), true
}
