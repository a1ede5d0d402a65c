// Package flock is an instanced 2D vector-graphics renderer for Go.
//
// # Overview
//
// Vector paths are tessellated once into triangle meshes and registered
// behind stable Mesh handles. Each mesh can then be drawn many times per
// frame as instances, each with its own position, depth layer, rotation,
// scale, colour multiplier and alpha. A frame issues one instanced draw
// per mesh through a single WebGPU pipeline (gogpu/wgpu, zero CGO), seen
// through a pannable, zoomable camera.
//
// # Quick Start
//
//	r, err := flock.Open("vulkan", flock.WithViewport(800, 600))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Destroy()
//
//	p := flock.NewPath()
//	p.Circle(0, 0, 20)
//	boid, _ := r.UploadPath(p, flock.RGB{R: 1, G: 0.5}, 1)
//
//	for i := 0; i < 1000; i++ {
//	    idx, _ := r.AddInstance(boid, float32(i%40)*20-400, float32(i/40)*20-300)
//	    _ = r.SetRotation(boid, idx, float32(i)*0.1)
//	}
//
//	if err := r.RenderFrame(); err != nil {
//	    log.Fatal(err)
//	}
//	img, _ := r.Snapshot()
//
// # Coordinates
//
// World space is centred on the viewport with Y pointing down. At zoom 1
// the viewport spans -width..width horizontally and -height..height
// vertically. The camera pans (weighted by each instance's depth) and
// zooms the whole scene. Z layers run from 0 (back) to 255 (front).
//
// # Frame model
//
// Meshes receive GPU buffers on the first frame after upload. Setters mark
// their mesh dirty; a dirty mesh re-uploads all of its instances once per
// frame. Everything is single-threaded: upload, update and RenderFrame run
// on one goroutine, typically through Loop.
//
// # Logging
//
// flock is silent by default. SetLogger enables log/slog output.
package flock
