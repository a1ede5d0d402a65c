// Package script drives a flock scene from an interpreted Go script.
//
// Scripts are ordinary Go source run by the yaegi interpreter. They
// import the "flock" package, which exposes the per-frame operations
// of the renderer as plain functions:
//
//	package main
//
//	import "flock"
//
//	var ship int
//
//	func Setup() {
//	    ship = flock.Mesh("ship")
//	    flock.AddInstance(ship, 0, 0)
//	}
//
//	func Update(frame int) {
//	    flock.SetRotation(ship, 0, float32(frame)*0.01)
//	}
//
// Update is required; Setup is optional and runs once after the first
// load. Meshes are plain ints in scripts. Failed calls do not stop the
// script: their errors are collected and returned from Host.Update.
package script
