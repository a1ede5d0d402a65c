package script

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/cogentcore/yaegi/interp"
	"github.com/cogentcore/yaegi/stdlib"
	"github.com/gogpu/flock"
)

var (
	// ErrNoUpdate is returned when a script does not define
	// func Update(frame int).
	ErrNoUpdate = errors.New("script: no func Update(frame int)")

	// ErrUnknownMesh is recorded when a script looks up a mesh name that
	// was not registered with the host.
	ErrUnknownMesh = errors.New("script: unknown mesh")

	// ErrNotLoaded is returned by Update before a script was loaded.
	ErrNotLoaded = errors.New("script: no script loaded")
)

// Scene is the part of a renderer a script may drive. *flock.Renderer
// implements it.
type Scene interface {
	AddInstance(m flock.Mesh, x, y float32) (int, error)
	InstanceCount(m flock.Mesh) (int, error)
	X(m flock.Mesh, i int) (float32, error)
	SetX(m flock.Mesh, i int, x float32) error
	Y(m flock.Mesh, i int) (float32, error)
	SetY(m flock.Mesh, i int, y float32) error
	Z(m flock.Mesh, i int) (uint8, error)
	SetZ(m flock.Mesh, i int, z uint8) error
	Rotation(m flock.Mesh, i int) (float32, error)
	SetRotation(m flock.Mesh, i int, rad float32) error
	Scale(m flock.Mesh, i int) (float32, error)
	SetScale(m flock.Mesh, i int, s float32) error
	ColorMultiplier(m flock.Mesh, i int) (flock.RGB, error)
	SetColorMultiplier(m flock.Mesh, i int, c flock.RGB) error
	Alpha(m flock.Mesh, i int) (float32, error)
	SetAlpha(m flock.Mesh, i int, a float32) error
	SetCameraPos(x, y float32)
	SetCameraZoom(z float32)
}

// Host owns one interpreter at a time and calls its Update each frame.
// It is not safe for concurrent use; only the file watcher runs on its
// own goroutine.
type Host struct {
	scene  Scene
	meshes map[string]flock.Mesh

	path   string
	update func(int)
	errs   []error

	watch *watcher
}

// NewHost creates a host for scene. meshes names the meshes scripts may
// look up with flock.Mesh.
func NewHost(scene Scene, meshes map[string]flock.Mesh) *Host {
	m := make(map[string]flock.Mesh, len(meshes))
	for k, v := range meshes {
		m[k] = v
	}
	return &Host{scene: scene, meshes: m}
}

// Load evaluates src, runs its Setup if present and installs its Update.
// When Setup fails the previously installed Update stays in place.
func (h *Host) Load(src string) error {
	update, setup, err := h.compile(src)
	if err != nil {
		return err
	}
	if setup != nil {
		if err := h.call("Setup", setup); err != nil {
			return err
		}
	}
	h.update = update
	flock.Logger().Info("script: loaded", "path", h.path)
	return nil
}

// LoadFile loads the script at path. The path is remembered for Watch.
func (h *Host) LoadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("script: %w", err)
	}
	prev := h.path
	h.path = path
	if err := h.Load(string(src)); err != nil {
		h.path = prev
		return err
	}
	return nil
}

// Reload re-reads the script file and swaps in its Update. Setup does
// not run again, so the instances it created stay as they are. On error
// the previous Update stays installed.
func (h *Host) Reload() error {
	if h.path == "" {
		return ErrNotLoaded
	}
	src, err := os.ReadFile(h.path)
	if err != nil {
		return fmt.Errorf("script: %w", err)
	}
	update, _, err := h.compile(string(src))
	if err != nil {
		return err
	}
	h.update = update
	flock.Logger().Info("script: reloaded", "path", h.path)
	return nil
}

// Update runs the script's Update for frame, first applying a pending
// reload. Errors from bound calls made during the frame are joined into
// the result. A failed reload is logged and the old script keeps
// running.
func (h *Host) Update(frame int) error {
	if h.watch != nil && h.watch.pending() {
		if err := h.Reload(); err != nil {
			flock.Logger().Warn("script: reload failed", "path", h.path, "err", err)
		}
	}
	if h.update == nil {
		return ErrNotLoaded
	}
	return h.call("Update", func() { h.update(frame) })
}

// Close stops watching the script file.
func (h *Host) Close() error {
	if h.watch == nil {
		return nil
	}
	err := h.watch.close()
	h.watch = nil
	return err
}

// call runs fn, turning a script panic into an error and collecting the
// errors recorded by bound functions.
func (h *Host) call(name string, fn func()) (err error) {
	h.errs = h.errs[:0]
	defer func() {
		if r := recover(); r != nil {
			h.errs = append(h.errs, fmt.Errorf("script: %s panicked: %v", name, r))
		}
		err = errors.Join(h.errs...)
	}()
	fn()
	return nil
}

// compile builds a fresh interpreter for src and extracts its entry
// points.
func (h *Host) compile(src string) (update func(int), setup func(), err error) {
	in := interp.New(interp.Options{})
	if err := in.Use(stdlib.Symbols); err != nil {
		return nil, nil, fmt.Errorf("script: %w", err)
	}
	if err := in.Use(h.exports()); err != nil {
		return nil, nil, fmt.Errorf("script: %w", err)
	}
	if _, err := in.Eval(src); err != nil {
		return nil, nil, fmt.Errorf("script: %w", err)
	}

	v, err := in.Eval("Update")
	if err != nil {
		return nil, nil, ErrNoUpdate
	}
	update, ok := v.Interface().(func(int))
	if !ok {
		return nil, nil, fmt.Errorf("%w: Update is %s", ErrNoUpdate, v.Type())
	}

	if v, err := in.Eval("Setup"); err == nil {
		if fn, ok := v.Interface().(func()); ok {
			setup = fn
		}
	}
	return update, setup, nil
}

func (h *Host) exports() interp.Exports {
	return interp.Exports{
		"flock/flock": map[string]reflect.Value{
			"Mesh":               reflect.ValueOf(h.mesh),
			"AddInstance":        reflect.ValueOf(h.addInstance),
			"InstanceCount":      reflect.ValueOf(h.instanceCount),
			"X":                  reflect.ValueOf(h.x),
			"SetX":               reflect.ValueOf(h.setX),
			"Y":                  reflect.ValueOf(h.y),
			"SetY":               reflect.ValueOf(h.setY),
			"Z":                  reflect.ValueOf(h.z),
			"SetZ":               reflect.ValueOf(h.setZ),
			"Rotation":           reflect.ValueOf(h.rotation),
			"SetRotation":        reflect.ValueOf(h.setRotation),
			"Scale":              reflect.ValueOf(h.scale),
			"SetScale":           reflect.ValueOf(h.setScale),
			"ColorMultiplier":    reflect.ValueOf(h.colorMultiplier),
			"SetColorMultiplier": reflect.ValueOf(h.setColorMultiplier),
			"Alpha":              reflect.ValueOf(h.alpha),
			"SetAlpha":           reflect.ValueOf(h.setAlpha),
			"SetCameraPos":       reflect.ValueOf(h.scene.SetCameraPos),
			"SetCameraZoom":      reflect.ValueOf(h.scene.SetCameraZoom),
		},
	}
}
