package script

import (
	"fmt"

	"github.com/gogpu/flock"
)

// Bound functions never fail inside the script. A failed call records
// its error and returns the zero value.

func (h *Host) record(op string, err error) {
	if err != nil {
		h.errs = append(h.errs, fmt.Errorf("%s: %w", op, err))
	}
}

func (h *Host) mesh(name string) int {
	m, ok := h.meshes[name]
	if !ok {
		h.record("Mesh", fmt.Errorf("%w %q", ErrUnknownMesh, name))
		return -1
	}
	return int(m)
}

func (h *Host) addInstance(m int, x, y float32) int {
	i, err := h.scene.AddInstance(flock.Mesh(m), x, y)
	h.record("AddInstance", err)
	if err != nil {
		return -1
	}
	return i
}

func (h *Host) instanceCount(m int) int {
	n, err := h.scene.InstanceCount(flock.Mesh(m))
	h.record("InstanceCount", err)
	return n
}

func (h *Host) x(m, i int) float32 {
	v, err := h.scene.X(flock.Mesh(m), i)
	h.record("X", err)
	return v
}

func (h *Host) setX(m, i int, v float32) {
	h.record("SetX", h.scene.SetX(flock.Mesh(m), i, v))
}

func (h *Host) y(m, i int) float32 {
	v, err := h.scene.Y(flock.Mesh(m), i)
	h.record("Y", err)
	return v
}

func (h *Host) setY(m, i int, v float32) {
	h.record("SetY", h.scene.SetY(flock.Mesh(m), i, v))
}

func (h *Host) z(m, i int) uint8 {
	v, err := h.scene.Z(flock.Mesh(m), i)
	h.record("Z", err)
	return v
}

func (h *Host) setZ(m, i int, v uint8) {
	h.record("SetZ", h.scene.SetZ(flock.Mesh(m), i, v))
}

func (h *Host) rotation(m, i int) float32 {
	v, err := h.scene.Rotation(flock.Mesh(m), i)
	h.record("Rotation", err)
	return v
}

func (h *Host) setRotation(m, i int, v float32) {
	h.record("SetRotation", h.scene.SetRotation(flock.Mesh(m), i, v))
}

func (h *Host) scale(m, i int) float32 {
	v, err := h.scene.Scale(flock.Mesh(m), i)
	h.record("Scale", err)
	return v
}

func (h *Host) setScale(m, i int, v float32) {
	h.record("SetScale", h.scene.SetScale(flock.Mesh(m), i, v))
}

func (h *Host) colorMultiplier(m, i int) (r, g, b float32) {
	c, err := h.scene.ColorMultiplier(flock.Mesh(m), i)
	h.record("ColorMultiplier", err)
	return c.R, c.G, c.B
}

func (h *Host) setColorMultiplier(m, i int, r, g, b float32) {
	h.record("SetColorMultiplier", h.scene.SetColorMultiplier(flock.Mesh(m), i, flock.RGB{R: r, G: g, B: b}))
}

func (h *Host) alpha(m, i int) float32 {
	v, err := h.scene.Alpha(flock.Mesh(m), i)
	h.record("Alpha", err)
	return v
}

func (h *Host) setAlpha(m, i int, v float32) {
	h.record("SetAlpha", h.scene.SetAlpha(flock.Mesh(m), i, v))
}
