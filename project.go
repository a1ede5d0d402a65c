package flock

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Project maps a mesh vertex position through an instance and the camera
// to clip space, exactly as the vertex shader does: rotate, scale,
// translate by the instance, pan by the camera weighted by instance depth,
// flip Y and apply zoom/viewport. The returned Z is the clip depth.
func Project(v [2]float32, in Instance, cam Camera, width, height uint32) mgl32.Vec3 {
	sin, cos := math32.Sin(in.Rotation), math32.Cos(in.Rotation)
	rot := mgl32.Mat2{cos, sin, -sin, cos}

	world := rot.Mul2x1(mgl32.Vec2{v[0], v[1]}).
		Mul(in.Scale).
		Add(mgl32.Vec2{in.Position[0], in.Position[1]}).
		Add(mgl32.Vec2{cam.X, cam.Y}.Mul(in.Position[2]))

	u := cam.uniforms(width, height)
	return mgl32.Vec3{
		world.X() * u.Zoom[0],
		-world.Y() * u.Zoom[1],
		in.Position[2],
	}
}

// ToPixel converts a clip-space position to pixel coordinates with the
// origin at the top-left corner of the viewport.
func ToPixel(clip mgl32.Vec3, width, height uint32) (x, y float32) {
	x = (clip.X() + 1) / 2 * float32(width)
	y = (1 - clip.Y()) / 2 * float32(height)
	return x, y
}
