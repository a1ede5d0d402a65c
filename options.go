package flock

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := flock.New(device, queue,
//	    flock.WithViewport(1280, 720),
//	    flock.WithSampleCount(4),
//	)
type Option func(*options)

// options holds the renderer configuration. Everything here is fixed once
// the renderer exists, except the viewport (Resize).
type options struct {
	sampleCount uint32
	capacity    int
	clearColor  gputypes.Color
	width       uint32
	height      uint32
	format      gputypes.TextureFormat
}

// Defaults used when no option overrides them.
const (
	DefaultSampleCount = 4
	DefaultWidth       = 800
	DefaultHeight      = 600
)

// DefaultClearColor is the sky blue every frame starts from.
var DefaultClearColor = gputypes.Color{R: 0.4, G: 0.7, B: 1.0, A: 1.0}

func defaultOptions() options {
	return options{
		sampleCount: DefaultSampleCount,
		capacity:    DefaultInstanceCapacity,
		clearColor:  DefaultClearColor,
		width:       DefaultWidth,
		height:      DefaultHeight,
		format:      gputypes.TextureFormatUndefined,
	}
}

func (o *options) validate() error {
	if o.sampleCount != 1 && o.sampleCount != 4 {
		return fmt.Errorf("flock: sample count %d, want 1 or 4", o.sampleCount)
	}
	if o.capacity < 1 {
		return fmt.Errorf("flock: instance capacity %d, want at least 1", o.capacity)
	}
	if o.width == 0 || o.height == 0 {
		return fmt.Errorf("flock: viewport %dx%d, want non-zero", o.width, o.height)
	}
	return nil
}

// WithSampleCount sets the MSAA sample count: 1 (off) or 4.
func WithSampleCount(n uint32) Option {
	return func(o *options) {
		o.sampleCount = n
	}
}

// WithInstanceCapacity sets the maximum number of instances per mesh. It
// also bounds the vertex and index count of every mesh. The instance
// buffer of each mesh is allocated at this size once.
func WithInstanceCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithClearColor sets the colour each frame is cleared to.
func WithClearColor(r, g, b, a float64) Option {
	return func(o *options) {
		o.clearColor = gputypes.Color{R: r, G: g, B: b, A: a}
	}
}

// WithViewport sets the offscreen target size in pixels.
func WithViewport(width, height uint32) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithColorFormat sets the color target format. Without it the renderer
// uses the provider's surface format, or BGRA8Unorm.
func WithColorFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}
