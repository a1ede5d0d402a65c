package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// MeshBuffers are the GPU buffers bound to one mesh: an immutable vertex
// buffer, an immutable uint16 index buffer, and a streaming instance buffer
// sized for the full instance capacity. The instance buffer is never
// resized.
type MeshBuffers struct {
	vertexBuf   hal.Buffer
	indexBuf    hal.Buffer
	instanceBuf hal.Buffer
	indexCount  uint32
	capacity    uint32
}

// NewMeshBuffers creates and fills the vertex and index buffers and
// allocates the instance buffer. vertexData and indexData are already in
// GPU layout; indexCount is the number of uint16 indices in indexData.
// On failure every buffer created so far is released.
func NewMeshBuffers(device hal.Device, queue hal.Queue, vertexData, indexData []byte, indexCount, capacity uint32) (*MeshBuffers, error) {
	mb := &MeshBuffers{indexCount: indexCount, capacity: capacity}

	vertexBuf, err := createAndUpload(device, queue, "flock_mesh_vertices", vertexData,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	mb.vertexBuf = vertexBuf

	indexBuf, err := createAndUpload(device, queue, "flock_mesh_indices", padTo4(indexData),
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		mb.Destroy(device)
		return nil, err
	}
	mb.indexBuf = indexBuf

	instanceBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "flock_mesh_instances",
		Size:  uint64(capacity) * InstanceStride,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		mb.Destroy(device)
		return nil, fmt.Errorf("create flock_mesh_instances: %w", err)
	}
	mb.instanceBuf = instanceBuf

	slogger().Debug("flock: mesh buffers created",
		"vertexBytes", len(vertexData), "indices", indexCount,
		"instanceBytes", uint64(capacity)*InstanceStride)
	return mb, nil
}

// IndexCount returns the number of indices drawn per instance.
func (mb *MeshBuffers) IndexCount() uint32 {
	return mb.indexCount
}

// Capacity returns the number of instances the instance buffer holds.
func (mb *MeshBuffers) Capacity() uint32 {
	return mb.capacity
}

// WriteInstances overwrites the start of the instance buffer with data in
// instance layout. Data longer than the buffer is rejected.
func (mb *MeshBuffers) WriteInstances(queue hal.Queue, data []byte) error {
	if uint64(len(data)) > uint64(mb.capacity)*InstanceStride {
		return fmt.Errorf("write instances: %d bytes exceed buffer of %d instances", len(data), mb.capacity)
	}
	if len(data) == 0 {
		return nil
	}
	queue.WriteBuffer(mb.instanceBuf, 0, data)
	return nil
}

// record binds the mesh buffers and issues one instanced draw.
func (mb *MeshBuffers) record(rp hal.RenderPassEncoder, instanceCount uint32) {
	rp.SetVertexBuffer(0, mb.vertexBuf, 0)
	rp.SetVertexBuffer(1, mb.instanceBuf, 0)
	rp.SetIndexBuffer(mb.indexBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(mb.indexCount, instanceCount, 0, 0, 0)
}

// Destroy releases the buffers. Safe to call more than once.
func (mb *MeshBuffers) Destroy(device hal.Device) {
	if mb.instanceBuf != nil {
		device.DestroyBuffer(mb.instanceBuf)
		mb.instanceBuf = nil
	}
	if mb.indexBuf != nil {
		device.DestroyBuffer(mb.indexBuf)
		mb.indexBuf = nil
	}
	if mb.vertexBuf != nil {
		device.DestroyBuffer(mb.vertexBuf)
		mb.vertexBuf = nil
	}
}

// createAndUpload creates a GPU buffer and uploads data.
func createAndUpload(device hal.Device, queue hal.Queue, label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	size := uint64(len(data))
	if size == 0 {
		size = 4
	}
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if len(data) > 0 {
		queue.WriteBuffer(buf, 0, data)
	}
	return buf, nil
}

// padTo4 pads data to a multiple of four bytes, the copy alignment of
// WriteBuffer. An odd uint16 index count leaves a two-byte tail.
func padTo4(data []byte) []byte {
	if rem := len(data) % 4; rem != 0 {
		padded := make([]byte, len(data)+4-rem)
		copy(padded, data)
		return padded
	}
	return data
}
