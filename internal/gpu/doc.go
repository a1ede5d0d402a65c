// Package gpu owns the WebGPU resources behind the flock renderer.
//
// It is an internal package: the root flock package decides what to draw,
// this package decides how. Everything goes through the gogpu/wgpu HAL
// (zero CGO), so the same code runs on Vulkan, Metal, DX12 and on the noop
// backend used by tests.
//
// # Resources
//
//   - InstancedPipeline: the single render pipeline, its WGSL module and the
//     16-byte camera uniform block.
//   - MeshBuffers: one immutable vertex buffer, one immutable index buffer
//     and one fixed-size streaming instance buffer per mesh.
//   - FrameSession: MSAA color, depth and resolve textures plus frame
//     encoding, in offscreen (readback) or surface mode.
//   - OpenDevice: standalone device creation for hosts without their own.
//
// # Buffer layouts
//
// Vertex (slot 0, 24 bytes): position float32x2, color float32x4.
// Instance (slot 1, 36 bytes): position float32x3, rotation float32,
// scale float32, color float32x4.
package gpu
