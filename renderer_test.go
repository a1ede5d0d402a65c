package flock

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice opens a device on the noop backend.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()

	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}

	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newTestRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	opts = append([]Option{WithViewport(64, 48), WithInstanceCapacity(64)}, opts...)
	r, err := New(device, queue, opts...)
	if err != nil {
		cleanup()
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() {
		r.Destroy()
		cleanup()
	})
	return r
}

func uploadTriangle(t *testing.T, r *Renderer) Mesh {
	t.Helper()
	m, err := r.UploadBuffers(triangleVertices(), []uint16{0, 1, 2})
	if err != nil {
		t.Fatalf("UploadBuffers failed: %v", err)
	}
	return m
}

func TestNewRequiresDevice(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, ErrNoDevice) {
		t.Errorf("err = %v, want ErrNoDevice", err)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	bad := []Option{
		WithSampleCount(8),
		WithInstanceCapacity(0),
		WithViewport(0, 10),
	}
	for i, opt := range bad {
		if _, err := New(device, queue, opt); err == nil {
			t.Errorf("option %d: expected error", i)
		}
	}
}

func TestRendererDefaults(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	r, err := New(device, queue)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer r.Destroy()

	if r.SampleCount() != DefaultSampleCount {
		t.Errorf("SampleCount = %d, want %d", r.SampleCount(), DefaultSampleCount)
	}
	if r.Capacity() != DefaultInstanceCapacity {
		t.Errorf("Capacity = %d, want %d", r.Capacity(), DefaultInstanceCapacity)
	}
	if r.ColorFormat() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("ColorFormat = %v, want BGRA8Unorm", r.ColorFormat())
	}
	if w, h := r.Size(); w != DefaultWidth || h != DefaultHeight {
		t.Errorf("Size = %dx%d, want %dx%d", w, h, DefaultWidth, DefaultHeight)
	}
	if r.Camera() != DefaultCamera() {
		t.Errorf("Camera = %+v, want %+v", r.Camera(), DefaultCamera())
	}
}

func TestRenderFrameEmpty(t *testing.T) {
	r := newTestRenderer(t)
	if err := r.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if s := r.LastFrameStats(); s != (FrameStats{}) {
		t.Errorf("stats = %+v, want zero", s)
	}
}

func TestRenderFrameBindsLazily(t *testing.T) {
	r := newTestRenderer(t)
	m := uploadTriangle(t, r)

	if b, _ := r.Bound(m); b {
		t.Fatal("mesh bound before first frame")
	}
	if err := r.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if b, _ := r.Bound(m); !b {
		t.Error("mesh not bound after first frame")
	}
	if got := r.LastFrameStats().BindingsCreated; got != 1 {
		t.Errorf("BindingsCreated = %d, want 1", got)
	}

	// A mesh uploaded later is bound by the next frame only.
	m2 := uploadTriangle(t, r)
	if err := r.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if got := r.LastFrameStats().BindingsCreated; got != 1 {
		t.Errorf("BindingsCreated = %d, want 1", got)
	}
	if b, _ := r.Bound(m2); !b {
		t.Error("second mesh not bound")
	}

	if err := r.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if got := r.LastFrameStats().BindingsCreated; got != 0 {
		t.Errorf("BindingsCreated = %d, want 0", got)
	}
}

func TestRenderFrameDrawCalls(t *testing.T) {
	r := newTestRenderer(t)
	a := uploadTriangle(t, r)
	_ = uploadTriangle(t, r) // no instances, skipped
	c := uploadTriangle(t, r)

	for i := 0; i < 3; i++ {
		if _, err := r.AddInstance(a, float32(i), 0); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.AddInstance(c, 0, 0); err != nil {
		t.Fatal(err)
	}

	if err := r.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	s := r.LastFrameStats()
	if s.DrawCalls != 2 {
		t.Errorf("DrawCalls = %d, want 2", s.DrawCalls)
	}
	if s.Instances != 4 {
		t.Errorf("Instances = %d, want 4", s.Instances)
	}
	if s.InstanceUploads != 2 {
		t.Errorf("InstanceUploads = %d, want 2", s.InstanceUploads)
	}
}

func TestRenderFrameUploadsOnlyDirty(t *testing.T) {
	r := newTestRenderer(t)
	m := uploadTriangle(t, r)
	i, _ := r.AddInstance(m, 0, 0)

	if err := r.RenderFrame(); err != nil {
		t.Fatal(err)
	}
	if dirty, _ := r.Dirty(m); dirty {
		t.Error("mesh still dirty after frame")
	}

	if err := r.RenderFrame(); err != nil {
		t.Fatal(err)
	}
	s := r.LastFrameStats()
	if s.InstanceUploads != 0 || s.DrawCalls != 1 {
		t.Errorf("clean frame stats = %+v, want 0 uploads and 1 draw", s)
	}

	if err := r.SetRotation(m, i, 0.5); err != nil {
		t.Fatal(err)
	}
	if err := r.RenderFrame(); err != nil {
		t.Fatal(err)
	}
	if got := r.LastFrameStats().InstanceUploads; got != 1 {
		t.Errorf("InstanceUploads = %d, want 1", got)
	}
}

func TestRenderFrameCapacityExceeded(t *testing.T) {
	r := newTestRenderer(t, WithInstanceCapacity(4))
	m := uploadTriangle(t, r)
	for i := 0; i < 5; i++ {
		if _, err := r.AddInstance(m, 0, 0); err != nil {
			t.Fatal(err)
		}
	}

	err := r.RenderFrame()
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	s := r.LastFrameStats()
	if s.DrawCalls != 0 || s.InstanceUploads != 0 {
		t.Errorf("aborted frame encoded work: %+v", s)
	}
	if dirty, _ := r.Dirty(m); !dirty {
		t.Error("aborted frame cleared the dirty flag")
	}
}

func TestRenderFrameAtCapacity(t *testing.T) {
	r := newTestRenderer(t, WithInstanceCapacity(4))
	m := uploadTriangle(t, r)
	for i := 0; i < 4; i++ {
		if _, err := r.AddInstance(m, 0, 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame at capacity failed: %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	for _, samples := range []uint32{1, 4} {
		r := newTestRenderer(t, WithSampleCount(samples))

		if _, err := r.Snapshot(); err == nil {
			t.Errorf("samples=%d: Snapshot before a frame should fail", samples)
		}
		if err := r.RenderFrame(); err != nil {
			t.Fatalf("samples=%d: RenderFrame failed: %v", samples, err)
		}
		img, err := r.Snapshot()
		if err != nil {
			t.Fatalf("samples=%d: Snapshot failed: %v", samples, err)
		}
		if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
			t.Errorf("samples=%d: snapshot %v, want 64x48", samples, b)
		}
	}
}

func TestResize(t *testing.T) {
	r := newTestRenderer(t)
	if err := r.Resize(32, 16); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if w, h := r.Size(); w != 32 || h != 16 {
		t.Errorf("Size = %dx%d, want 32x16", w, h)
	}
	if err := r.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame after Resize failed: %v", err)
	}
	img, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("snapshot %v, want 32x16", b)
	}
	if err := r.Resize(0, 16); err == nil {
		t.Error("Resize to zero width should fail")
	}
}

func TestCameraSetters(t *testing.T) {
	r := newTestRenderer(t)
	r.SetCameraPos(5, -6)
	r.SetCameraZoom(2)
	want := Camera{X: 5, Y: -6, Zoom: 2}
	if r.Camera() != want {
		t.Errorf("Camera = %+v, want %+v", r.Camera(), want)
	}

	u := r.Camera().uniforms(100, 50)
	if u.Zoom != [2]float32{0.02, 0.04} || u.Pan != [2]float32{5, -6} {
		t.Errorf("uniforms = %+v", u)
	}
}

func TestDestroy(t *testing.T) {
	r := newTestRenderer(t)
	m := uploadTriangle(t, r)
	if err := r.RenderFrame(); err != nil {
		t.Fatal(err)
	}

	r.Destroy()
	if !r.IsDestroyed() {
		t.Error("IsDestroyed = false after Destroy")
	}
	if b, _ := r.Bound(m); b {
		t.Error("mesh still bound after Destroy")
	}
	if err := r.RenderFrame(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("RenderFrame after Destroy = %v, want ErrDestroyed", err)
	}
	if _, err := r.Snapshot(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Snapshot after Destroy = %v, want ErrDestroyed", err)
	}
	// Double-destroy should be safe.
	r.Destroy()
}

func TestOpenNoop(t *testing.T) {
	r, err := Open("noop", WithViewport(16, 16), WithInstanceCapacity(8))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Destroy()

	m := uploadTriangle(t, r)
	if _, err := r.AddInstance(m, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := r.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("nope"); !errors.Is(err, ErrNoDevice) {
		t.Errorf("err = %v, want ErrNoDevice", err)
	}
}

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockProvider implements gpucontext.DeviceProvider and exposes HAL
// objects.
type mockProvider struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return nil }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return nil }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }
func (m *mockProvider) HalDevice() any                        { return m.device }
func (m *mockProvider) HalQueue() any                         { return m.queue }

func TestNewFromProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p := &mockProvider{device: device, queue: queue, format: gputypes.TextureFormatRGBA8Unorm}
	r, err := NewFromProvider(p, WithViewport(8, 8))
	if err != nil {
		t.Fatalf("NewFromProvider failed: %v", err)
	}
	defer r.Destroy()
	if r.ColorFormat() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("ColorFormat = %v, want provider format", r.ColorFormat())
	}

	// An explicit format wins over the provider's.
	r2, err := NewFromProvider(p, WithColorFormat(gputypes.TextureFormatBGRA8Unorm))
	if err != nil {
		t.Fatalf("NewFromProvider failed: %v", err)
	}
	defer r2.Destroy()
	if r2.ColorFormat() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("ColorFormat = %v, want explicit BGRA8Unorm", r2.ColorFormat())
	}
}

func TestNewFromProviderWithoutHAL(t *testing.T) {
	if _, err := NewFromProvider(nil); !errors.Is(err, ErrNoDevice) {
		t.Errorf("nil provider err = %v, want ErrNoDevice", err)
	}
	p := &mockProvider{}
	if _, err := NewFromProvider(p); !errors.Is(err, ErrNoDevice) {
		t.Errorf("nil HAL objects err = %v, want ErrNoDevice", err)
	}
}
