package flock

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"

	"github.com/gogpu/flock/internal/gpu"
)

// Vertex is one mesh vertex in object-local space with a straight-alpha
// RGBA colour.
type Vertex struct {
	Position [2]float32
	Color    [4]float32
}

// Geometry is an indexed triangle list ready for upload. Every three
// indices form one triangle.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint16
}

// Instance is one placement of a mesh. Position[2] holds the clip depth in
// [0, 1] derived from the 0..255 Z scale; use Z and SetZ to work on that
// scale.
type Instance struct {
	Position [3]float32
	Rotation float32 // radians
	Scale    float32
	Color    RGB
	Alpha    float32
}

// NewInstance returns an instance at (x, y) with depth 0, no rotation,
// unit scale and a white, opaque colour multiplier.
func NewInstance(x, y float32) Instance {
	return Instance{
		Position: [3]float32{x, y, 0},
		Scale:    1,
		Color:    White,
		Alpha:    1,
	}
}

// SetZ stores depth (255-v)/255, so higher values draw in front.
func (in *Instance) SetZ(v uint8) {
	in.Position[2] = float32(255-v) / 255
}

// Z returns the 0..255 value last passed to SetZ.
func (in Instance) Z() uint8 {
	d := math32.Round(clamp01(in.Position[2]) * 255)
	return 255 - uint8(d)
}

// Depth returns the stored clip depth.
func (in Instance) Depth() float32 {
	return in.Position[2]
}

// putVertex writes v in the 24-byte GPU vertex layout.
func putVertex(buf []byte, v Vertex) {
	putFloats(buf,
		v.Position[0], v.Position[1],
		v.Color[0], v.Color[1], v.Color[2], v.Color[3])
}

// putInstance writes in in the 36-byte GPU instance layout.
func putInstance(buf []byte, in Instance) {
	putFloats(buf,
		in.Position[0], in.Position[1], in.Position[2],
		in.Rotation, in.Scale,
		in.Color.R, in.Color.G, in.Color.B, in.Alpha)
}

func putFloats(buf []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

// vertexBytes packs vertices for the vertex buffer.
func vertexBytes(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*gpu.VertexStride)
	for i, v := range vertices {
		putVertex(buf[i*gpu.VertexStride:], v)
	}
	return buf
}

// indexBytes packs uint16 indices little-endian.
func indexBytes(indices []uint16) []byte {
	buf := make([]byte, len(indices)*2)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}

// instanceBytes packs instances into buf, growing it when needed, and
// returns the used prefix.
func instanceBytes(buf []byte, instances []Instance) []byte {
	need := len(instances) * gpu.InstanceStride
	if cap(buf) < need {
		buf = make([]byte, need)
	}
	buf = buf[:need]
	for i, in := range instances {
		putInstance(buf[i*gpu.InstanceStride:], in)
	}
	return buf
}
