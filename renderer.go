package flock

import (
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/flock/internal/gpu"
)

// FrameStats describes the work of the last rendered frame.
type FrameStats struct {
	DrawCalls       int // instanced draws issued
	Instances       int // instances drawn across all meshes
	InstanceUploads int // meshes whose instance buffer was rewritten
	BindingsCreated int // meshes that received GPU buffers this frame
}

// Renderer draws every registered mesh with all of its instances through
// one instanced pipeline. It embeds the Registry, so meshes and instances
// are managed directly on the renderer.
//
// A Renderer is single-threaded: upload, update and RenderFrame must run
// on the same goroutine.
type Renderer struct {
	*Registry

	device hal.Device
	queue  hal.Queue
	opts   options

	session *gpu.FrameSession
	camera  Camera
	stats   FrameStats
	staging []byte

	owned     *gpu.Device // set when the renderer opened its own device
	destroyed bool
}

// New creates a renderer on an existing HAL device and queue. GPU
// resources are created lazily by the first RenderFrame.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Renderer, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.format == gputypes.TextureFormatUndefined {
		o.format = gputypes.TextureFormatBGRA8Unorm
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	r := &Renderer{
		Registry: NewRegistry(o.capacity),
		device:   device,
		queue:    queue,
		opts:     o,
		camera:   DefaultCamera(),
	}
	r.session = gpu.NewFrameSession(device, queue, gpu.SessionConfig{
		Format:      o.format,
		SampleCount: o.sampleCount,
		ClearColor:  o.clearColor,
		Width:       o.width,
		Height:      o.height,
	})
	Logger().Info("flock: renderer created",
		"width", o.width, "height", o.height,
		"samples", o.sampleCount, "capacity", o.capacity)
	return r, nil
}

// NewFromProvider creates a renderer on a device shared by a host such as
// gogpu. The provider must also expose its HAL objects through
// HalDevice() and HalQueue(). Unless WithColorFormat is given, the
// provider's surface format is used for the color target.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Renderer, error) {
	if provider == nil {
		return nil, ErrNoDevice
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrNoDevice)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNoDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNoDevice)
	}

	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		opts = append([]Option{WithColorFormat(f)}, opts...)
	}
	return New(device, queue, opts...)
}

// Backends accepted by Open.
const (
	BackendVulkan = gpu.BackendVulkan
	BackendNoop   = gpu.BackendNoop
)

// Open creates a renderer on its own device. backend is BackendVulkan or
// BackendNoop. Destroy closes the device.
func Open(backend string, opts ...Option) (*Renderer, error) {
	d, err := gpu.OpenDevice(backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	r, err := New(d.Device, d.Queue, opts...)
	if err != nil {
		d.Close()
		return nil, err
	}
	r.owned = d
	return r, nil
}

// RenderFrame draws one frame. It binds meshes uploaded since the last
// frame, uploads dirty instance data and issues one instanced draw per
// mesh that has instances, in upload order.
//
// A mesh holding more instances than the capacity aborts the frame with
// ErrCapacityExceeded before anything is encoded. A failed binding is
// returned wrapped in ErrBinding.
func (r *Renderer) RenderFrame() error {
	if r.destroyed {
		return ErrDestroyed
	}
	stats := FrameStats{}

	for m, dc := range r.calls {
		if dc.state == bound {
			continue
		}
		if err := r.bind(Mesh(m), dc); err != nil {
			r.stats = stats
			return err
		}
		stats.BindingsCreated++
	}

	for m, dc := range r.calls {
		if len(dc.instances) > r.capacity {
			r.stats = stats
			return fmt.Errorf("%w: mesh %d has %d instances, capacity %d",
				ErrCapacityExceeded, m, len(dc.instances), r.capacity)
		}
	}

	draws := make([]gpu.Draw, 0, len(r.calls))
	for m, dc := range r.calls {
		if len(dc.instances) == 0 {
			continue
		}
		if dc.dirty {
			r.staging = instanceBytes(r.staging, dc.instances)
			if err := dc.buffers.WriteInstances(r.queue, r.staging); err != nil {
				r.stats = stats
				return fmt.Errorf("upload instances of mesh %d: %w", m, err)
			}
			dc.dirty = false
			stats.InstanceUploads++
			Logger().Debug("flock: instances uploaded", "mesh", m, "count", len(dc.instances))
		}
		draws = append(draws, gpu.Draw{
			Buffers:       dc.buffers,
			InstanceCount: uint32(len(dc.instances)),
		})
		stats.DrawCalls++
		stats.Instances += len(dc.instances)
	}

	w, h := r.session.Size()
	if err := r.session.Render(r.camera.uniforms(w, h), draws); err != nil {
		r.stats = stats
		return fmt.Errorf("flock: render frame: %w", err)
	}
	r.stats = stats
	return nil
}

// bind creates the GPU buffers of one mesh.
func (r *Renderer) bind(m Mesh, dc *drawCall) error {
	buffers, err := gpu.NewMeshBuffers(r.device, r.queue,
		vertexBytes(dc.vertices), indexBytes(dc.indices),
		uint32(len(dc.indices)), uint32(r.capacity))
	if err != nil {
		return fmt.Errorf("%w: mesh %d: %w", ErrBinding, m, err)
	}
	dc.buffers = buffers
	dc.state = bound
	Logger().Debug("flock: mesh bound", "mesh", int(m))
	return nil
}

// LastFrameStats returns the statistics of the last RenderFrame call,
// including a failed one.
func (r *Renderer) LastFrameStats() FrameStats {
	return r.stats
}

// Snapshot reads the last offscreen frame back as an RGBA image.
func (r *Renderer) Snapshot() (*image.RGBA, error) {
	if r.destroyed {
		return nil, ErrDestroyed
	}
	img, err := r.session.ReadPixels()
	if err != nil {
		return nil, fmt.Errorf("flock: snapshot: %w", err)
	}
	return img, nil
}

// SetSurfaceTarget renders the next frames into view instead of the
// offscreen texture. The view must use the renderer's color format. Pass
// nil to return to offscreen rendering. The caller presents the surface
// and keeps ownership of the view.
func (r *Renderer) SetSurfaceTarget(view hal.TextureView, width, height uint32) {
	r.session.SetSurfaceTarget(view, width, height)
}

// Resize changes the offscreen viewport. Attachments are recreated on the
// next frame.
func (r *Renderer) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("flock: resize to %dx%d", width, height)
	}
	r.opts.width = width
	r.opts.height = height
	r.session.Resize(width, height)
	return nil
}

// Size returns the current render target size.
func (r *Renderer) Size() (width, height uint32) {
	return r.session.Size()
}

// SampleCount returns the MSAA sample count.
func (r *Renderer) SampleCount() uint32 {
	return r.opts.sampleCount
}

// ColorFormat returns the color target format.
func (r *Renderer) ColorFormat() gputypes.TextureFormat {
	return r.opts.format
}

// Destroy releases every GPU resource, and the device if the renderer
// opened it. Safe to call more than once.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	for _, dc := range r.calls {
		if dc.buffers != nil {
			dc.buffers.Destroy(r.device)
			dc.buffers = nil
		}
		dc.state = unbound
	}
	r.session.Destroy()
	if r.owned != nil {
		r.owned.Close()
		r.owned = nil
	}
}

// IsDestroyed reports whether Destroy was called.
func (r *Renderer) IsDestroyed() bool {
	return r.destroyed
}
