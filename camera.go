package flock

import "github.com/gogpu/flock/internal/gpu"

// Camera is the view state shared by every instance: a pan offset and a
// zoom factor. The zero value is not useful; use DefaultCamera.
type Camera struct {
	X, Y float32
	Zoom float32
}

// DefaultCamera returns a camera at the origin with zoom 1.
func DefaultCamera() Camera {
	return Camera{Zoom: 1}
}

// uniforms converts the camera to the shader block for a viewport.
func (c Camera) uniforms(width, height uint32) gpu.Uniforms {
	return gpu.Uniforms{
		Zoom: [2]float32{c.Zoom / float32(width), c.Zoom / float32(height)},
		Pan:  [2]float32{c.X, c.Y},
	}
}

// SetCameraPos sets the camera pan. It takes effect at the next frame.
func (r *Renderer) SetCameraPos(x, y float32) {
	r.camera.X = x
	r.camera.Y = y
}

// SetCameraZoom sets the camera zoom. It takes effect at the next frame.
func (r *Renderer) SetCameraZoom(z float32) {
	r.camera.Zoom = z
}

// Camera returns the current camera.
func (r *Renderer) Camera() Camera {
	return r.camera
}
