package gpu

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// fenceTimeout bounds every wait on GPU completion.
const fenceTimeout = 5 * time.Second

// ErrNoFrame is returned by ReadPixels before any offscreen frame was
// rendered.
var ErrNoFrame = errors.New("gpu: no offscreen frame rendered")

// RenderMode controls where a FrameSession resolves its frames.
type RenderMode int

const (
	// RenderModeOffscreen resolves into an internal texture that can be
	// read back with ReadPixels.
	RenderModeOffscreen RenderMode = iota

	// RenderModeSurface resolves into a caller-provided texture view. The
	// caller presents it.
	RenderModeSurface
)

// String returns the mode name.
func (m RenderMode) String() string {
	switch m {
	case RenderModeOffscreen:
		return "offscreen"
	case RenderModeSurface:
		return "surface"
	default:
		return fmt.Sprintf("RenderMode(%d)", int(m))
	}
}

// SessionConfig fixes the attachment formats of a FrameSession.
type SessionConfig struct {
	Format      gputypes.TextureFormat
	SampleCount uint32
	ClearColor  gputypes.Color
	Width       uint32
	Height      uint32
}

// Draw is one instanced draw call of a frame.
type Draw struct {
	Buffers       *MeshBuffers
	InstanceCount uint32
}

// FrameSession encodes and submits frames: one render pass that clears
// color and depth, binds the instanced pipeline once and issues one draw
// per mesh.
//
// The session supports two render modes:
//   - Offscreen (default): renders into an internal resolve texture that
//     ReadPixels copies back to the CPU.
//   - Surface: renders into a caller-provided view (SetSurfaceTarget).
type FrameSession struct {
	device hal.Device
	queue  hal.Queue
	cfg    SessionConfig

	pipeline *InstancedPipeline
	textures textureSet

	surfaceView   hal.TextureView
	surfaceWidth  uint32
	surfaceHeight uint32

	rendered bool
}

// NewFrameSession creates a session. Textures and the pipeline are
// allocated by the first Render call.
func NewFrameSession(device hal.Device, queue hal.Queue, cfg SessionConfig) *FrameSession {
	if cfg.SampleCount == 0 {
		cfg.SampleCount = 1
	}
	return &FrameSession{
		device:   device,
		queue:    queue,
		cfg:      cfg,
		pipeline: NewInstancedPipeline(device, queue, cfg.Format, cfg.SampleCount),
	}
}

// Pipeline returns the session's pipeline.
func (s *FrameSession) Pipeline() *InstancedPipeline {
	return s.pipeline
}

// SetSurfaceTarget makes the session resolve into view. A nil view returns
// to offscreen mode. The caller keeps ownership of the view.
func (s *FrameSession) SetSurfaceTarget(view hal.TextureView, width, height uint32) {
	s.surfaceView = view
	s.surfaceWidth = width
	s.surfaceHeight = height
	if view == nil {
		s.rendered = false
	}
}

// Resize changes the offscreen viewport. Attachments are recreated by the
// next Render.
func (s *FrameSession) Resize(width, height uint32) {
	s.cfg.Width = width
	s.cfg.Height = height
	s.rendered = false
}

// Mode reports the current render mode.
func (s *FrameSession) Mode() RenderMode {
	if s.surfaceView != nil {
		return RenderModeSurface
	}
	return RenderModeOffscreen
}

// Size returns the dimensions of the current render target.
func (s *FrameSession) Size() (uint32, uint32) {
	if s.surfaceView != nil {
		return s.surfaceWidth, s.surfaceHeight
	}
	return s.cfg.Width, s.cfg.Height
}

// SetClearColor changes the color the next frames clear to.
func (s *FrameSession) SetClearColor(c gputypes.Color) {
	s.cfg.ClearColor = c
}

// Render uploads the uniforms, encodes one render pass with all draws and
// waits for the GPU to finish. Draws with zero instances are skipped.
func (s *FrameSession) Render(u Uniforms, draws []Draw) error {
	w, h := s.Size()
	if w == 0 || h == 0 {
		return fmt.Errorf("render: invalid target size %dx%d", w, h)
	}
	if err := s.pipeline.ensure(); err != nil {
		return err
	}
	err := s.textures.ensure(s.device, textureConfig{
		width:       w,
		height:      h,
		format:      s.cfg.Format,
		sampleCount: s.cfg.SampleCount,
		offscreen:   s.surfaceView == nil,
	})
	if err != nil {
		return err
	}

	s.pipeline.writeUniforms(u)

	final := s.surfaceView
	if final == nil {
		final = s.textures.resolveView
	}
	view, resolve := s.textures.colorTargets(final)

	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "flock_frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("flock_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "flock_frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:          view,
			ResolveTarget: resolve,
			LoadOp:        gputypes.LoadOpClear,
			StoreOp:       gputypes.StoreOpStore,
			ClearValue:    s.cfg.ClearColor,
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              s.textures.depthView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	})

	s.pipeline.record(rp)
	for _, d := range draws {
		if d.InstanceCount == 0 || d.Buffers == nil {
			continue
		}
		d.Buffers.record(rp, d.InstanceCount)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	if err := s.submitAndWait(cmdBuf); err != nil {
		return err
	}
	s.rendered = s.surfaceView == nil
	return nil
}

// ReadPixels copies the last offscreen frame back to the CPU as RGBA.
func (s *FrameSession) ReadPixels() (*image.RGBA, error) {
	if s.surfaceView != nil || !s.rendered || s.textures.resolveTex == nil {
		return nil, ErrNoFrame
	}
	w, h := s.textures.width, s.textures.height

	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "flock_readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("flock_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	// The resolve texture is still in render-attachment layout.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.textures.resolveTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	// BytesPerRow must be aligned to 256 bytes.
	bytesPerRow := w * 4
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "flock_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer s.device.DestroyBuffer(staging)

	encoder.CopyTextureToBuffer(s.textures.resolveTex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: s.textures.resolveTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.textures.resolveTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	if err := s.submitAndWait(cmdBuf); err != nil {
		return nil, err
	}

	readback := make([]byte, stagingSize)
	if err := s.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	swap := s.cfg.Format == gputypes.TextureFormatBGRA8Unorm ||
		s.cfg.Format == gputypes.TextureFormatBGRA8UnormSrgb
	for row := 0; row < int(h); row++ {
		src := readback[row*int(alignedBytesPerRow) : row*int(alignedBytesPerRow)+int(bytesPerRow)]
		dst := img.Pix[row*img.Stride : row*img.Stride+int(bytesPerRow)]
		copy(dst, src)
		if swap {
			swapRedBlue(dst)
		}
	}
	return img, nil
}

func (s *FrameSession) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := s.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer s.device.DestroyFence(fence)

	if err := s.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := s.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// swapRedBlue converts BGRA pixels to RGBA in place.
func swapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// Destroy releases the pipeline and attachments. Surface views stay with
// their owner.
func (s *FrameSession) Destroy() {
	s.textures.destroy(s.device)
	s.pipeline.Destroy()
	s.surfaceView = nil
	s.rendered = false
}
