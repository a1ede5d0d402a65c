package flock

import "fmt"

// AddInstance appends an instance of mesh m at (x, y) with default
// depth, rotation, scale and colour, and returns its index. Indices are
// dense per mesh and never reused. The mesh is marked dirty.
func (r *Registry) AddInstance(m Mesh, x, y float32) (int, error) {
	dc, err := r.call(m)
	if err != nil {
		return 0, err
	}
	dc.instances = append(dc.instances, NewInstance(x, y))
	dc.dirty = true
	return len(dc.instances) - 1, nil
}

// InstanceCount returns the number of instances of mesh m.
func (r *Registry) InstanceCount(m Mesh) (int, error) {
	dc, err := r.call(m)
	if err != nil {
		return 0, err
	}
	return len(dc.instances), nil
}

// Dirty reports whether mesh m has instance changes not yet uploaded.
func (r *Registry) Dirty(m Mesh) (bool, error) {
	dc, err := r.call(m)
	if err != nil {
		return false, err
	}
	return dc.dirty, nil
}

// Instance returns a copy of instance i of mesh m.
func (r *Registry) Instance(m Mesh, i int) (Instance, error) {
	in, err := r.instance(m, i)
	if err != nil {
		return Instance{}, err
	}
	return *in, nil
}

// SetInstance replaces instance i of mesh m.
func (r *Registry) SetInstance(m Mesh, i int, v Instance) error {
	return r.update(m, i, func(in *Instance) { *in = v })
}

// X returns the x position of instance i of mesh m.
func (r *Registry) X(m Mesh, i int) (float32, error) {
	in, err := r.instance(m, i)
	if err != nil {
		return 0, err
	}
	return in.Position[0], nil
}

// SetX sets the x position of instance i of mesh m.
func (r *Registry) SetX(m Mesh, i int, x float32) error {
	return r.update(m, i, func(in *Instance) { in.Position[0] = x })
}

// Y returns the y position of instance i of mesh m.
func (r *Registry) Y(m Mesh, i int) (float32, error) {
	in, err := r.instance(m, i)
	if err != nil {
		return 0, err
	}
	return in.Position[1], nil
}

// SetY sets the y position of instance i of mesh m.
func (r *Registry) SetY(m Mesh, i int, y float32) error {
	return r.update(m, i, func(in *Instance) { in.Position[1] = y })
}

// Z returns the 0..255 layer of instance i of mesh m. Higher layers draw
// in front.
func (r *Registry) Z(m Mesh, i int) (uint8, error) {
	in, err := r.instance(m, i)
	if err != nil {
		return 0, err
	}
	return in.Z(), nil
}

// SetZ sets the 0..255 layer of instance i of mesh m.
func (r *Registry) SetZ(m Mesh, i int, z uint8) error {
	return r.update(m, i, func(in *Instance) { in.SetZ(z) })
}

// Rotation returns the rotation of instance i of mesh m in radians.
func (r *Registry) Rotation(m Mesh, i int) (float32, error) {
	in, err := r.instance(m, i)
	if err != nil {
		return 0, err
	}
	return in.Rotation, nil
}

// SetRotation sets the rotation of instance i of mesh m in radians.
func (r *Registry) SetRotation(m Mesh, i int, rad float32) error {
	return r.update(m, i, func(in *Instance) { in.Rotation = rad })
}

// Scale returns the uniform scale of instance i of mesh m.
func (r *Registry) Scale(m Mesh, i int) (float32, error) {
	in, err := r.instance(m, i)
	if err != nil {
		return 0, err
	}
	return in.Scale, nil
}

// SetScale sets the uniform scale of instance i of mesh m.
func (r *Registry) SetScale(m Mesh, i int, s float32) error {
	return r.update(m, i, func(in *Instance) { in.Scale = s })
}

// ColorMultiplier returns the colour multiplier of instance i of mesh m.
func (r *Registry) ColorMultiplier(m Mesh, i int) (RGB, error) {
	in, err := r.instance(m, i)
	if err != nil {
		return RGB{}, err
	}
	return in.Color, nil
}

// SetColorMultiplier sets the colour multiplier of instance i of mesh m.
// Alpha is left untouched.
func (r *Registry) SetColorMultiplier(m Mesh, i int, c RGB) error {
	return r.update(m, i, func(in *Instance) { in.Color = c })
}

// Alpha returns the alpha multiplier of instance i of mesh m.
func (r *Registry) Alpha(m Mesh, i int) (float32, error) {
	in, err := r.instance(m, i)
	if err != nil {
		return 0, err
	}
	return in.Alpha, nil
}

// SetAlpha sets the alpha multiplier of instance i of mesh m.
func (r *Registry) SetAlpha(m Mesh, i int, a float32) error {
	return r.update(m, i, func(in *Instance) { in.Alpha = a })
}

func (r *Registry) instance(m Mesh, i int) (*Instance, error) {
	dc, err := r.call(m)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(dc.instances) {
		return nil, fmt.Errorf("%w: instance %d of mesh %d has %d instances",
			ErrInvalidReference, i, m, len(dc.instances))
	}
	return &dc.instances[i], nil
}

// update applies fn to one instance and marks its mesh dirty.
func (r *Registry) update(m Mesh, i int, fn func(*Instance)) error {
	in, err := r.instance(m, i)
	if err != nil {
		return err
	}
	fn(in)
	r.calls[m].dirty = true
	return nil
}
