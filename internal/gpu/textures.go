package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DepthFormat is the depth attachment format of every frame.
const DepthFormat = gputypes.TextureFormatDepth24PlusStencil8

// textureSet holds the per-size attachments of a FrameSession:
//   - MSAA color: sampleCount samples, RenderAttachment (only when sampleCount > 1)
//   - Depth: sampleCount samples, Depth24PlusStencil8, RenderAttachment
//   - Resolve: 1 sample, RenderAttachment | CopySrc (offscreen mode only)
type textureSet struct {
	msaaTex     hal.Texture
	msaaView    hal.TextureView
	depthTex    hal.Texture
	depthView   hal.TextureView
	resolveTex  hal.Texture
	resolveView hal.TextureView
	width       uint32
	height      uint32
	offscreen   bool
}

// textureConfig describes the attachments a textureSet must provide.
type textureConfig struct {
	width       uint32
	height      uint32
	format      gputypes.TextureFormat
	sampleCount uint32
	offscreen   bool
}

func (ts *textureSet) matches(cfg textureConfig) bool {
	return ts.depthTex != nil &&
		ts.width == cfg.width &&
		ts.height == cfg.height &&
		ts.offscreen == cfg.offscreen
}

// ensure creates or recreates the attachments when the size or mode
// changed. It is a no-op when the current set already matches.
func (ts *textureSet) ensure(device hal.Device, cfg textureConfig) error {
	if ts.matches(cfg) {
		return nil
	}
	ts.destroy(device)

	size := hal.Extent3D{Width: cfg.width, Height: cfg.height, DepthOrArrayLayers: 1}

	if cfg.sampleCount > 1 {
		msaaTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         "flock_msaa_color",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   cfg.sampleCount,
			Dimension:     gputypes.TextureDimension2D,
			Format:        cfg.format,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("create MSAA color texture: %w", err)
		}
		ts.msaaTex = msaaTex

		msaaView, err := device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
			Label: "flock_msaa_color_view",
		})
		if err != nil {
			ts.destroy(device)
			return fmt.Errorf("create MSAA color view: %w", err)
		}
		ts.msaaView = msaaView
	}

	depthTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "flock_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   cfg.sampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		ts.destroy(device)
		return fmt.Errorf("create depth texture: %w", err)
	}
	ts.depthTex = depthTex

	depthView, err := device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label: "flock_depth_view",
	})
	if err != nil {
		ts.destroy(device)
		return fmt.Errorf("create depth view: %w", err)
	}
	ts.depthView = depthView

	// In surface mode the caller's view is the resolve target.
	if cfg.offscreen {
		resolveTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         "flock_resolve",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        cfg.format,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			ts.destroy(device)
			return fmt.Errorf("create resolve texture: %w", err)
		}
		ts.resolveTex = resolveTex

		resolveView, err := device.CreateTextureView(resolveTex, &hal.TextureViewDescriptor{
			Label: "flock_resolve_view",
		})
		if err != nil {
			ts.destroy(device)
			return fmt.Errorf("create resolve view: %w", err)
		}
		ts.resolveView = resolveView
	}

	ts.width = cfg.width
	ts.height = cfg.height
	ts.offscreen = cfg.offscreen
	slogger().Debug("flock: attachments created",
		"width", cfg.width, "height", cfg.height,
		"samples", cfg.sampleCount, "offscreen", cfg.offscreen)
	return nil
}

// colorTargets returns the color attachment view and its resolve target
// for the given final view. Without MSAA the final view is drawn directly.
func (ts *textureSet) colorTargets(final hal.TextureView) (view, resolve hal.TextureView) {
	if ts.msaaView == nil {
		return final, nil
	}
	return ts.msaaView, final
}

// destroy releases all textures in reverse creation order.
func (ts *textureSet) destroy(device hal.Device) {
	if ts.resolveView != nil {
		device.DestroyTextureView(ts.resolveView)
		ts.resolveView = nil
	}
	if ts.resolveTex != nil {
		device.DestroyTexture(ts.resolveTex)
		ts.resolveTex = nil
	}
	if ts.depthView != nil {
		device.DestroyTextureView(ts.depthView)
		ts.depthView = nil
	}
	if ts.depthTex != nil {
		device.DestroyTexture(ts.depthTex)
		ts.depthTex = nil
	}
	if ts.msaaView != nil {
		device.DestroyTextureView(ts.msaaView)
		ts.msaaView = nil
	}
	if ts.msaaTex != nil {
		device.DestroyTexture(ts.msaaTex)
		ts.msaaTex = nil
	}
	ts.width = 0
	ts.height = 0
}
