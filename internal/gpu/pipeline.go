package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	// VertexStride is the byte stride of one mesh vertex:
	// position (2 x float32) + color (4 x float32).
	VertexStride = 24

	// InstanceStride is the byte stride of one instance:
	// position (3 x float32) + rotation + scale + color (4 x float32).
	InstanceStride = 36

	// UniformSize is the byte size of the camera uniform block:
	// zoom (vec2<f32>) + pan (vec2<f32>).
	UniformSize = 16
)

// Uniforms is the per-frame camera block consumed by the vertex shader.
type Uniforms struct {
	Zoom [2]float32
	Pan  [2]float32
}

// Bytes packs the uniforms into the 16-byte GPU layout.
func (u Uniforms) Bytes() []byte {
	buf := make([]byte, UniformSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(u.Zoom[0]))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(u.Zoom[1]))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(u.Pan[0]))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(u.Pan[1]))
	return buf
}

// StraightAlphaBlend blends non-premultiplied colors: src*a + dst*(1-a).
func StraightAlphaBlend() gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

// vertexBufferLayouts describes slot 0 (per vertex) and slot 1 (per
// instance).
func vertexBufferLayouts() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},
			},
		},
		{
			ArrayStride: InstanceStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 2},
				{Format: gputypes.VertexFormatFloat32, Offset: 12, ShaderLocation: 3},
				{Format: gputypes.VertexFormatFloat32, Offset: 16, ShaderLocation: 4},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 20, ShaderLocation: 5},
			},
		},
	}
}

// InstancedPipeline owns the single render pipeline that draws every mesh,
// together with its shader module, layouts and the camera uniform buffer.
// GPU objects are created lazily by ensure and released by Destroy.
type InstancedPipeline struct {
	device      hal.Device
	queue       hal.Queue
	format      gputypes.TextureFormat
	sampleCount uint32

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline
	uniformBuf    hal.Buffer
	bindGroup     hal.BindGroup
}

// NewInstancedPipeline prepares a pipeline for the given color format and
// sample count. No GPU objects are created until the first frame.
func NewInstancedPipeline(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, sampleCount uint32) *InstancedPipeline {
	return &InstancedPipeline{
		device:      device,
		queue:       queue,
		format:      format,
		sampleCount: sampleCount,
	}
}

// Ready reports whether the GPU objects exist.
func (p *InstancedPipeline) Ready() bool {
	return p.pipeline != nil
}

// ensure creates the GPU objects if needed. It is idempotent.
func (p *InstancedPipeline) ensure() error {
	if p.pipeline != nil {
		return nil
	}
	if err := p.create(); err != nil {
		p.Destroy()
		return err
	}
	slogger().Info("flock: instanced pipeline created",
		"format", p.format, "samples", p.sampleCount)
	return nil
}

func (p *InstancedPipeline) create() error { //nolint:funlen // GPU pipeline descriptors are inherently verbose
	if err := ValidateShader(instancedShaderSource); err != nil {
		return err
	}

	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "flock_instanced_shader",
		Source: hal.ShaderSource{WGSL: instancedShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile instanced shader: %w", err)
	}
	p.shader = shader

	uniformLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "flock_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create uniform bind group layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "flock_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	blend := StraightAlphaBlend()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "flock_instanced_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    vertexBufferLayouts(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLessEqual,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilReadMask:  0,
			StencilWriteMask: 0,
		},
		Multisample: gputypes.MultisampleState{
			Count: p.sampleCount,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
	})
	if err != nil {
		return fmt.Errorf("create instanced pipeline: %w", err)
	}
	p.pipeline = pipeline

	uniformBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "flock_uniforms",
		Size:  UniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	p.uniformBuf = uniformBuf

	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "flock_uniform_bind",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: p.uniformBuf.NativeHandle(), Offset: 0, Size: UniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create uniform bind group: %w", err)
	}
	p.bindGroup = bindGroup
	return nil
}

// writeUniforms uploads the camera block for the next frame.
func (p *InstancedPipeline) writeUniforms(u Uniforms) {
	p.queue.WriteBuffer(p.uniformBuf, 0, u.Bytes())
}

// record binds the pipeline and uniforms into an open render pass.
func (p *InstancedPipeline) record(rp hal.RenderPassEncoder) {
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.bindGroup, nil)
}

// Destroy releases all GPU objects in reverse creation order. Safe to call
// more than once.
func (p *InstancedPipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.uniformBuf != nil {
		p.device.DestroyBuffer(p.uniformBuf)
		p.uniformBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
