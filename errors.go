package flock

import "errors"

var (
	// ErrEmptyPath is returned when a path has no contour enclosing area.
	ErrEmptyPath = errors.New("flock: path has no fillable contour")

	// ErrTessellation is returned when a path cannot be triangulated.
	ErrTessellation = errors.New("flock: tessellation failed")

	// ErrIndexOutOfRange is returned by UploadBuffers when an index does
	// not address a vertex.
	ErrIndexOutOfRange = errors.New("flock: index out of range")

	// ErrInvalidReference is returned when a mesh or instance index does
	// not exist.
	ErrInvalidReference = errors.New("flock: invalid mesh or instance reference")

	// ErrCapacityExceeded is returned when a mesh holds more instances or
	// vertices than the configured instance capacity.
	ErrCapacityExceeded = errors.New("flock: instance capacity exceeded")

	// ErrBinding is returned when GPU buffers for a mesh cannot be created.
	ErrBinding = errors.New("flock: mesh binding failed")

	// ErrNoDevice is returned when no usable GPU device is available.
	ErrNoDevice = errors.New("flock: no GPU device")

	// ErrDestroyed is returned when a renderer is used after Destroy.
	ErrDestroyed = errors.New("flock: renderer destroyed")
)
