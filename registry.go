package flock

import (
	"fmt"

	"github.com/gogpu/flock/internal/gpu"
)

// DefaultInstanceCapacity is the per-mesh instance limit used when
// WithInstanceCapacity is not given.
const DefaultInstanceCapacity = 1024 * 1024

// Mesh is a stable handle to a registered mesh. Handles are dense,
// start at 0 and are never reused.
type Mesh int

// bindState tracks whether a mesh owns GPU buffers yet.
type bindState uint8

const (
	unbound bindState = iota
	bound
)

func (s bindState) String() string {
	if s == bound {
		return "bound"
	}
	return "unbound"
}

// drawCall is everything the renderer needs to draw one mesh.
type drawCall struct {
	vertices []Vertex
	indices  []uint16

	state   bindState
	buffers *gpu.MeshBuffers

	instances []Instance
	dirty     bool
}

// Registry owns meshes and their instances. Meshes are appended in upload
// order, which is also the draw order. A Registry is not safe for
// concurrent use; it belongs to the goroutine that renders frames.
type Registry struct {
	tess     *Tessellator
	capacity int
	calls    []*drawCall
}

// NewRegistry creates an empty registry. capacity bounds the instances of
// each mesh (and its vertex and index counts); values below 1 select
// DefaultInstanceCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity < 1 {
		capacity = DefaultInstanceCapacity
	}
	return &Registry{
		tess:     NewTessellator(),
		capacity: capacity,
	}
}

// Tessellator returns the tessellator used by UploadPath.
func (r *Registry) Tessellator() *Tessellator {
	return r.tess
}

// Capacity returns the per-mesh instance capacity.
func (r *Registry) Capacity() int {
	return r.capacity
}

// UploadPath tessellates path and registers the result. On failure the
// registry is unchanged.
func (r *Registry) UploadPath(path *Path, fill RGB, opacity float32) (Mesh, error) {
	geom, err := r.tess.Tessellate(path, fill, opacity)
	if err != nil {
		return 0, err
	}
	return r.UploadGeometry(geom)
}

// UploadGeometry registers pre-built geometry.
func (r *Registry) UploadGeometry(g Geometry) (Mesh, error) {
	return r.UploadBuffers(g.Vertices, g.Indices)
}

// UploadBuffers registers a mesh from raw vertices and indices without
// tessellation. Every index must address a vertex. The data is copied; GPU
// buffers are created by the next rendered frame.
func (r *Registry) UploadBuffers(vertices []Vertex, indices []uint16) (Mesh, error) {
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return 0, fmt.Errorf("%w: index %d is %d, have %d vertices",
				ErrIndexOutOfRange, i, idx, len(vertices))
		}
	}
	if len(vertices) > maxVertices {
		return 0, fmt.Errorf("%w: %d vertices, uint16 indices address %d",
			ErrCapacityExceeded, len(vertices), maxVertices)
	}
	if len(vertices) > r.capacity || len(indices) > r.capacity {
		return 0, fmt.Errorf("%w: %d vertices and %d indices, capacity %d",
			ErrCapacityExceeded, len(vertices), len(indices), r.capacity)
	}

	m := Mesh(len(r.calls))
	r.calls = append(r.calls, &drawCall{
		vertices: append([]Vertex(nil), vertices...),
		indices:  append([]uint16(nil), indices...),
		state:    unbound,
	})
	Logger().Debug("flock: mesh registered",
		"mesh", int(m), "vertices", len(vertices), "indices", len(indices))
	return m, nil
}

// MeshCount returns the number of registered meshes.
func (r *Registry) MeshCount() int {
	return len(r.calls)
}

// IndexCount returns the number of indices of mesh m.
func (r *Registry) IndexCount(m Mesh) (int, error) {
	dc, err := r.call(m)
	if err != nil {
		return 0, err
	}
	return len(dc.indices), nil
}

// VertexCount returns the number of vertices of mesh m.
func (r *Registry) VertexCount(m Mesh) (int, error) {
	dc, err := r.call(m)
	if err != nil {
		return 0, err
	}
	return len(dc.vertices), nil
}

// Bound reports whether mesh m already owns GPU buffers.
func (r *Registry) Bound(m Mesh) (bool, error) {
	dc, err := r.call(m)
	if err != nil {
		return false, err
	}
	return dc.state == bound, nil
}

func (r *Registry) call(m Mesh) (*drawCall, error) {
	if m < 0 || int(m) >= len(r.calls) {
		return nil, fmt.Errorf("%w: mesh %d of %d", ErrInvalidReference, m, len(r.calls))
	}
	return r.calls[m], nil
}
